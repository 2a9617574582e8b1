// Package store provides a SQLite-backed nickname registry for identities.
//
// A nickname names exactly one identity string and an identity carries at
// most one nickname. Registering either side against something else is a
// ConflictError; the old binding must be removed first. Each binding also
// records the identity's UUID and, optionally, the full configuration
// (its identity with non-identity keys included) so it can be rebuilt.
//
// # Ordering
//
// Listings order by nickname with COLLATE BINARY, so results do not depend
// on the host locale. seq records registration order.
//
// # Schema
//
// The registry stamps its schema version in PRAGMA user_version and refuses
// to open a file stamped by a newer release.
package store
