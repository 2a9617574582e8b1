package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/whatid/internal/store"
	"github.com/roach88/whatid/internal/what"
)

// nick runs one nick subcommand against the registry at dbPath.
func nick(t *testing.T, dbPath, format string, args ...string) (string, error) {
	t.Helper()
	cmd := NewNickCommand(&RootOptions{Format: format, Database: dbPath})
	return runCommand(t, cmd, "", args...)
}

func testDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "registry.db")
}

func TestNickAddGet(t *testing.T) {
	db := testDB(t)

	out, err := nick(t, db, "text", "add", "baseline", "rfc( n=1 )")
	require.NoError(t, err)
	assert.Equal(t, "baseline\trfc(n=1)\n", out)

	out, err = nick(t, db, "text", "get", "baseline")
	require.NoError(t, err)
	assert.Equal(t, "rfc(n=1)\n", out)

	out, err = nick(t, db, "text", "get", what.IdentityUUID("rfc(n=1)").String())
	require.NoError(t, err)
	assert.Equal(t, "rfc(n=1)\n", out)

	out, err = nick(t, db, "json", "get", "baseline")
	require.NoError(t, err)
	var resp struct {
		Data NicknameResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "baseline", resp.Data.Nickname)
	assert.Equal(t, what.IdentityUUID("rfc(n=1)").String(), resp.Data.UUID)
	assert.False(t, resp.Data.Saved)
}

func TestNickGetUnknown(t *testing.T) {
	db := testDB(t)

	out, err := nick(t, db, "json", "get", "nobody")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, decodeResponse(t, out).Error.Code)
}

func TestNickOf(t *testing.T) {
	db := testDB(t)
	_, err := nick(t, db, "text", "add", "baseline", "rfc(n=1)")
	require.NoError(t, err)

	out, err := nick(t, db, "text", "of", "rfc(n=1)")
	require.NoError(t, err)
	assert.Equal(t, "baseline\n", out)

	out, err = nick(t, db, "text", "of", "rfc(n=2)")
	require.NoError(t, err)
	assert.Equal(t, "rfc(n=2)\n", out)
}

func TestNickConflicts(t *testing.T) {
	db := testDB(t)
	_, err := nick(t, db, "text", "add", "baseline", "rfc(n=1)")
	require.NoError(t, err)

	_, err = nick(t, db, "text", "add", "baseline", "rfc(n=1)")
	require.NoError(t, err, "re-registering the same binding is a no-op")

	out, err := nick(t, db, "json", "add", "baseline", "rfc(n=2)")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, store.ErrCodeNicknameTaken, decodeResponse(t, out).Error.Code)

	out, err = nick(t, db, "json", "add", "other", "rfc(n=1)")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, store.ErrCodeIDTaken, decodeResponse(t, out).Error.Code)

	out, err = nick(t, db, "json", "add", "   ", "rfc(n=3)")
	require.Error(t, err)
	assert.Equal(t, store.ErrCodeInvalidNickname, decodeResponse(t, out).Error.Code)
}

func TestNickAddErrors(t *testing.T) {
	db := testDB(t)

	_, err := nick(t, db, "text", "add", "baseline")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = nick(t, db, "text", "add", "--from", experimentYAML, "baseline", "rfc(n=1)")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = nick(t, db, "text", "add", "--from", experimentYAML, "--index", "5", "baseline")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = nick(t, db, "text", "add", "baseline", "rfc(")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestNickSavedConfig(t *testing.T) {
	db := testDB(t)

	out, err := nick(t, db, "text", "add", "--from", experimentYAML, "--save", "forest")
	require.NoError(t, err)
	assert.Equal(t, "forest\t"+rfcID+"\n", out)

	out, err = nick(t, db, "text", "get", "--config", "forest")
	require.NoError(t, err)
	assert.Equal(t, rfcFullID+"\n", out)

	_, err = nick(t, db, "text", "add", "--from", experimentYAML, "--index", "1", "kernel")
	require.NoError(t, err)

	out, err = nick(t, db, "json", "get", "--config", "kernel")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, decodeResponse(t, out).Error.Code)
}

func TestNickRemove(t *testing.T) {
	db := testDB(t)
	_, err := nick(t, db, "text", "add", "a", "rfc(n=1)")
	require.NoError(t, err)
	_, err = nick(t, db, "text", "add", "b", "rfc(n=2)")
	require.NoError(t, err)

	_, err = nick(t, db, "text", "rm", "a")
	require.NoError(t, err)
	_, err = nick(t, db, "text", "rm", "--id", "rfc(n=2)")
	require.NoError(t, err)

	_, err = nick(t, db, "text", "rm", "a")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out, err := nick(t, db, "text", "ls")
	require.NoError(t, err)
	assert.Equal(t, "No nicknames registered.\n", out)
}

func TestNickListReset(t *testing.T) {
	db := testDB(t)
	for _, args := range [][]string{
		{"add", "zeta", "z()"},
		{"add", "alpha", "a()"},
		{"add", "Mid", "m()"},
	} {
		_, err := nick(t, db, "text", args...)
		require.NoError(t, err)
	}

	out, err := nick(t, db, "text", "ls")
	require.NoError(t, err)
	assert.Equal(t, "Mid\tm()\nalpha\ta()\nzeta\tz()\n", out)

	out, err = nick(t, db, "json", "ls")
	require.NoError(t, err)
	var resp struct {
		Data []NicknameResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 3)
	assert.Equal(t, what.IdentityUUID("m()").String(), resp.Data[0].UUID)

	_, err = nick(t, db, "text", "reset")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = nick(t, db, "text", "reset", "--yes")
	require.NoError(t, err)

	out, err = nick(t, db, "text", "ls")
	require.NoError(t, err)
	assert.Equal(t, "No nicknames registered.\n", out)
}

func TestNickRequiresDatabase(t *testing.T) {
	_, err := nick(t, "", "text", "ls")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
