package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/whatid/internal/parser"
	"github.com/roach88/whatid/internal/source"
	"github.com/roach88/whatid/internal/store"
	"github.com/roach88/whatid/internal/what"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected input (malformed identity, registry conflict, etc.)
	ExitCommandError = 2 // Command error (unreadable file, database not found, etc.)
)

// Error codes for failures that carry no code of their own.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeLoadFailed   = "E004" // Source file could not be loaded
	ErrCodeDatabase     = "E008" // Registry database error
	ErrCodeNotFound     = "E005" // Nickname or id not registered
	ErrCodeInvalidQuery = "E009" // Filter expression rejected
	ErrCodeAmbiguousOut = "AMBIGUOUS_OUT"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles text, JSON and YAML output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// newFormatter builds the formatter for a command run.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// Structured reports whether output is a machine-readable document.
func (f *OutputFormatter) Structured() bool {
	return f.Format == "json" || f.Format == "yaml"
}

// CLIResponse is the standard structured response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status" yaml:"status"`                     // "ok" or "error"
	Data   interface{} `json:"data,omitempty" yaml:"data,omitempty"`   // success payload
	Error  *CLIError   `json:"error,omitempty" yaml:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code" yaml:"code"`                           // "MALFORMED_IDENTITY", "E001", etc.
	Message string      `json:"message" yaml:"message"`                     // human-readable message
	Details interface{} `json:"details,omitempty" yaml:"details,omitempty"` // additional context
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	if f.Format == "yaml" {
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return err
		}
		return enc.Close()
	}
	return json.NewEncoder(f.Writer).Encode(resp)
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Structured() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Structured() {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns the ExitError the command should return.
func (f *OutputFormatter) Fail(exitCode int, err error) error {
	code, _ := classify(err)
	return f.FailCode(exitCode, code, err)
}

// FailCode is Fail with an explicit error code.
func (f *OutputFormatter) FailCode(exitCode int, code string, err error) error {
	_, details := classify(err)
	_ = f.Error(code, err.Error(), details)
	var mi *parser.MalformedIdentityError
	if !f.Structured() && errors.As(err, &mi) {
		fmt.Fprintln(f.Writer, mi.Context(30))
	}
	return WrapExitError(exitCode, code, err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When output is structured, verbose logs go to ErrWriter to avoid corrupting it.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// classify picks the error code and structured details for err.
func classify(err error) (string, interface{}) {
	var mi *parser.MalformedIdentityError
	if errors.As(err, &mi) {
		return parser.ErrCodeMalformedIdentity, map[string]interface{}{
			"offset": mi.Pos,
			"input":  mi.Input,
		}
	}
	var ce *store.ConflictError
	if errors.As(err, &ce) {
		return ce.Code, map[string]string{"nickname": ce.Nickname, "id": ce.ID, "existing": ce.Existing}
	}
	var le *source.LoadError
	switch {
	case errors.Is(err, parser.ErrAmbiguousOut):
		return ErrCodeAmbiguousOut, nil
	case errors.Is(err, store.ErrInvalidNickname):
		return store.ErrCodeInvalidNickname, nil
	case what.Code(err) != "":
		return string(what.Code(err)), nil
	case errors.As(err, &le):
		return ErrCodeLoadFailed, map[string]interface{}{"path": le.Path, "line": le.Line}
	}
	return ErrCodeGeneric, nil
}
