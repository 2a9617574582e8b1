package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/whatid/internal/what"
)

const (
	rfcID     = "clf=rfc(base=tree(depth=3),criterion='gini',grid=[1,2.5],max_depth=None,n_estimators=100)"
	rfcFullID = "clf=rfc(base=tree(depth=3),criterion='gini',grid=[1,2.5],max_depth=None,n_estimators=100,n_jobs=4)"
	svcID     = "svc(c=0.5,kernel='rbf')"
)

func TestEncodeText(t *testing.T) {
	cmd := NewEncodeCommand(&RootOptions{Format: "text"})
	out, err := runCommand(t, cmd, "", experimentYAML)
	require.NoError(t, err)
	assert.Equal(t, rfcID+"\n"+svcID+"\n", out)
}

func TestEncodeFormatsAgree(t *testing.T) {
	for _, path := range []string{
		"../source/testdata/experiment.yaml",
		"../source/testdata/experiment.cue",
		"../source/testdata/experiment.hcl",
	} {
		t.Run(path, func(t *testing.T) {
			out, err := runCommand(t, NewEncodeCommand(&RootOptions{Format: "text"}), "", path)
			require.NoError(t, err)
			assert.Equal(t, rfcID+"\n"+svcID+"\n", out)
		})
	}
}

func TestEncodeIncludeNonID(t *testing.T) {
	cmd := NewEncodeCommand(&RootOptions{Format: "text"})
	out, err := runCommand(t, cmd, "", "--include-non-id", experimentYAML)
	require.NoError(t, err)
	assert.Equal(t, rfcFullID+"\n"+svcID+"\n", out)
}

func TestEncodePositional(t *testing.T) {
	cmd := NewEncodeCommand(&RootOptions{Format: "text"})
	out, err := runCommand(t, cmd, "", "--positional", experimentYAML)
	require.NoError(t, err)
	assert.Contains(t, out, "svc(0.5,'rbf')")
}

func TestEncodeJSON(t *testing.T) {
	cmd := NewEncodeCommand(&RootOptions{Format: "json"})
	out, err := runCommand(t, cmd, "", experimentYAML)
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   []EncodeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "rfc", resp.Data[0].Name)
	assert.Equal(t, rfcID, resp.Data[0].ID)
	assert.Equal(t, what.IdentityUUID(rfcID).String(), resp.Data[0].UUID)
	assert.Equal(t, experimentYAML, resp.Data[1].Path)
}

func TestEncodeMaxLength(t *testing.T) {
	cmd := NewEncodeCommand(&RootOptions{Format: "text", MaxLength: 30})
	out, err := runCommand(t, cmd, "", experimentYAML)
	require.NoError(t, err)
	assert.Equal(t, what.Digest(rfcID)+"\n"+svcID+"\n", out)
}

func TestEncodeErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cmd := NewEncodeCommand(&RootOptions{Format: "text"})
		out, err := runCommand(t, cmd, "", "missing.yaml")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E004]")
	})

	t.Run("invalid document", func(t *testing.T) {
		cmd := NewEncodeCommand(&RootOptions{Format: "json"})
		out, err := runCommand(t, cmd, "", "../source/testdata/bad_conf.yaml")
		require.Error(t, err)
		resp := decodeResponse(t, out)
		assert.Equal(t, "error", resp.Status)
		assert.Equal(t, string(what.ErrCodeInvalidMap), resp.Error.Code)
	})

	t.Run("no arguments", func(t *testing.T) {
		_, err := runCommand(t, NewEncodeCommand(&RootOptions{Format: "text"}), "")
		require.Error(t, err)
	})
}
