package parser

import (
	"errors"
	"fmt"
)

// ErrCodeMalformedIdentity is the code carried by MalformedIdentityError.
const ErrCodeMalformedIdentity = "MALFORMED_IDENTITY"

// MalformedIdentityError reports input that does not match the grammar.
type MalformedIdentityError struct {
	// Input is the full text that failed to parse.
	Input string

	// Pos is the byte offset of the offending token.
	Pos int

	// Message describes what was expected.
	Message string
}

// Error implements the error interface.
func (e *MalformedIdentityError) Error() string {
	return fmt.Sprintf("%s: %s at offset %d in %q", ErrCodeMalformedIdentity, e.Message, e.Pos, e.Input)
}

// Context returns up to width bytes of input on each side of the error
// position, with a caret line underneath.
func (e *MalformedIdentityError) Context(width int) string {
	start := max(0, e.Pos-width)
	end := min(len(e.Input), e.Pos+width)
	pos := min(e.Pos, len(e.Input))
	caret := make([]byte, pos-start)
	for i := range caret {
		caret[i] = ' '
	}
	return e.Input[start:end] + "\n" + string(caret) + "^"
}

// IsMalformedIdentity returns true if err is a MalformedIdentityError.
// Uses errors.As to handle wrapped errors.
func IsMalformedIdentity(err error) bool {
	var me *MalformedIdentityError
	return errors.As(err, &me)
}
