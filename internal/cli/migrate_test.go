package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateArgs(t *testing.T) {
	cmd := NewMigrateCommand(&RootOptions{Format: "text"})
	out, err := runCommand(t, cmd, "", "rfc#n_jobs=4#n_trees=100", "svc(c=1)", "velocity")
	require.NoError(t, err)
	assert.Equal(t, "rfc(n_jobs=4,n_trees=100)\nsvc(c=1)\nvelocity\n", out)
}

func TestMigrateStdin(t *testing.T) {
	cmd := NewMigrateCommand(&RootOptions{Format: "json"})
	stdin := "out=vel#GoingTowards#im=True\n\n  rfc(n=1)  \n"
	out, err := runCommand(t, cmd, stdin)
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   []MigrateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "GoingTowards(im=True,out='vel')", resp.Data[0].To)
	assert.True(t, resp.Data[0].Changed)
	assert.Equal(t, "rfc(n=1)", resp.Data[1].To)
	assert.False(t, resp.Data[1].Changed)
}

func TestMigrateStrict(t *testing.T) {
	cmd := NewMigrateCommand(&RootOptions{Format: "text"})
	out, err := runCommand(t, cmd, "", "--strict", "rfc(n=1)")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [MALFORMED_IDENTITY]")
}

func TestMigrateAmbiguousOut(t *testing.T) {
	cmd := NewMigrateCommand(&RootOptions{Format: "json"})
	out, err := runCommand(t, cmd, "", "out=a#f#out='b'")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeAmbiguousOut, decodeResponse(t, out).Error.Code)
}
