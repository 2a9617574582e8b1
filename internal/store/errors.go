package store

import (
	"errors"
	"fmt"
)

// Error codes for registry failures.
const (
	ErrCodeNicknameTaken   = "NICKNAME_TAKEN"
	ErrCodeIDTaken         = "ID_TAKEN"
	ErrCodeInvalidNickname = "INVALID_NICKNAME"
)

// ConflictError reports a registration that would bind a nickname or an
// identity twice.
type ConflictError struct {
	Code     string
	Nickname string
	ID       string
	// Existing is the identity already bound to Nickname (NICKNAME_TAKEN)
	// or the nickname already bound to ID (ID_TAKEN).
	Existing string
}

func (e *ConflictError) Error() string {
	if e.Code == ErrCodeNicknameTaken {
		return fmt.Sprintf("%s: nickname %q is already associated with id %q, delete it before updating",
			e.Code, e.Nickname, e.Existing)
	}
	return fmt.Sprintf("%s: id %q is already associated with nickname %q, delete it before updating",
		e.Code, e.ID, e.Existing)
}

// IsConflict returns true if err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// ErrInvalidNickname is returned for empty or non-printable nicknames.
var ErrInvalidNickname = errors.New(ErrCodeInvalidNickname)
