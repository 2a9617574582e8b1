package what

import (
	"errors"
	"fmt"
)

// Error is returned by configuration building, encoding and lookup.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Key is the parameter key or lookup path involved, if any.
	Key string

	// Hint tells the caller how to recover, if there is a known way.
	Hint string
}

// ErrorCode categorizes errors from this package.
type ErrorCode string

const (
	// ErrCodeUnencodable indicates a value with no matching handler, or a
	// value explicitly rejected by one.
	ErrCodeUnencodable ErrorCode = "UNENCODABLE_VALUE"

	// ErrCodeAmbiguousKeyOrdering indicates a key listed as both prefix and
	// postfix.
	ErrCodeAmbiguousKeyOrdering ErrorCode = "AMBIGUOUS_KEY_ORDERING"

	// ErrCodeKeyNotFound indicates a lookup path that does not resolve.
	ErrCodeKeyNotFound ErrorCode = "KEY_NOT_FOUND"

	// ErrCodeNonIdentityKeysType indicates a non-identity key set given as
	// something other than nil, a string or a collection of strings.
	ErrCodeNonIdentityKeysType ErrorCode = "NON_IDENTITY_KEYS_TYPE"

	// ErrCodeInvalidIdentifier indicates a name or key that is not an
	// identifier.
	ErrCodeInvalidIdentifier ErrorCode = "INVALID_IDENTIFIER"

	// ErrCodeInvalidMap indicates a dictionary that is not in whatami_* form.
	ErrCodeInvalidMap ErrorCode = "INVALID_MAP"

	// ErrCodeHandlerRegistry indicates an invalid insert or drop on a
	// handler registry.
	ErrCodeHandlerRegistry ErrorCode = "HANDLER_REGISTRY"
)

const unencodableHint = "implement Whatable or Deferred on the value, or register a handler for its type"

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Key != "" {
		msg = fmt.Sprintf("%s (key=%s)", msg, e.Key)
	}
	if e.Hint != "" {
		msg = fmt.Sprintf("%s; %s", msg, e.Hint)
	}
	return msg
}

func newUnencodable(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeUnencodable,
		Message: fmt.Sprintf(format, args...),
		Hint:    unencodableHint,
	}
}

func newKeyNotFound(key, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeKeyNotFound,
		Message: fmt.Sprintf(format, args...),
		Key:     key,
	}
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsUnencodable returns true if err is an UNENCODABLE_VALUE error.
func IsUnencodable(err error) bool {
	return hasCode(err, ErrCodeUnencodable)
}

// IsAmbiguousKeyOrdering returns true if err is an AMBIGUOUS_KEY_ORDERING error.
func IsAmbiguousKeyOrdering(err error) bool {
	return hasCode(err, ErrCodeAmbiguousKeyOrdering)
}

// IsKeyNotFound returns true if err is a KEY_NOT_FOUND error.
func IsKeyNotFound(err error) bool {
	return hasCode(err, ErrCodeKeyNotFound)
}

// IsNonIdentityKeysType returns true if err is a NON_IDENTITY_KEYS_TYPE error.
func IsNonIdentityKeysType(err error) bool {
	return hasCode(err, ErrCodeNonIdentityKeysType)
}

// IsInvalidIdentifier returns true if err is an INVALID_IDENTIFIER error.
func IsInvalidIdentifier(err error) bool {
	return hasCode(err, ErrCodeInvalidIdentifier)
}

// Code returns the ErrorCode carried by err, or "" if err is not an *Error.
func Code(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
