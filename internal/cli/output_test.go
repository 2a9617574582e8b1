package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/whatid/internal/parser"
	"github.com/roach88/whatid/internal/store"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_YAMLSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "yaml",
		Writer: buf,
	}

	require.NoError(t, formatter.Success(HashResult{ID: "x()", Digest: "d", UUID: "u"}))

	var resp struct {
		Status string     `yaml:"status"`
		Data   HashResult `yaml:"data"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "x()", resp.Data.ID)
	assert.Equal(t, "d", resp.Data.Digest)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("E001", "decoding failed", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, "E001", resp.Error.Code)
	assert.Equal(t, "decoding failed", resp.Error.Message)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("E001", "decoding failed", map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E001]")
	assert.Contains(t, buf.String(), "decoding failed")
	assert.NotContains(t, buf.String(), "Details:")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"file": "test.yaml"}
	err := formatter.Error("E001", "decoding failed", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E001]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			errBuf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    buf,
				ErrWriter: errBuf,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Processing %s", "test.yaml")

			assert.Empty(t, buf.String(), "verbose logs never go to the output stream")
			if tt.wantLog {
				assert.Contains(t, errBuf.String(), "Processing test.yaml")
			} else {
				assert.Empty(t, errBuf.String())
			}
		})
	}
}

func TestOutputFormatter_FailMalformedIdentity(t *testing.T) {
	_, perr := parser.Decode("rfc(n=")
	require.Error(t, perr)

	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}
	err := formatter.Fail(ExitFailure, perr)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [MALFORMED_IDENTITY]")
	assert.Contains(t, buf.String(), "^", "text output shows the error position")
}

func TestClassify(t *testing.T) {
	_, malformed := parser.Decode("rfc(")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"malformed", malformed, parser.ErrCodeMalformedIdentity},
		{"conflict", &store.ConflictError{Code: store.ErrCodeIDTaken}, store.ErrCodeIDTaken},
		{"ambiguous out", fmt.Errorf("wrapped: %w", parser.ErrAmbiguousOut), ErrCodeAmbiguousOut},
		{"invalid nickname", fmt.Errorf("%w: empty", store.ErrInvalidNickname), store.ErrCodeInvalidNickname},
		{"generic", errors.New("boom"), ErrCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := classify(tt.err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "x")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "inner", errors.New("cause")))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.Equal(t, "inner: cause", errors.Unwrap(wrapped).Error())
}
