// Package what provides the configuration model and canonical encoder for
// whatid identity strings.
//
// A Config is a name plus a parameter mapping. Its ID is a call-like
// expression with keys sorted, values canonically encoded and no
// whitespace:
//
//	rfc(max_depth=None,n_estimators=100,seed='a\'b')
//
// Two structurally identical configurations always produce the same ID, so
// IDs are safe to use as cache keys and experiment fingerprints.
//
// Values are encoded by an ordered chain of handlers held in a Registry. The
// first handler that matches a value wins. The chain can be extended with
// Registry.Insert, shortened with Registry.Drop and restored with
// Registry.Reset.
//
// Key constraints:
//   - Encoding is a pure function of name, identity parameters and out name
//   - Keys are sorted by byte order unless prefix/postfix keys are configured
//   - No whitespace is emitted anywhere in an ID
//   - Decoded values use the sealed Value sum type
//
// This package imports nothing internal; internal/parser builds on it.
package what
