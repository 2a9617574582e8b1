// Package parser decodes identity strings back into configurations.
//
// Parsing is split in two stages. Parse builds an AST with byte offsets for
// every node; Walk reduces the AST with a Visitor. ValueVisitor rebuilds
// *what.Config values, and callers may embed it to hook individual node
// kinds.
//
// Two dialects are supported. Canonical is the form produced by
// what.Config.ID:
//
//	[out=]name(key=value,...)
//
// Legacy is the older '#'-separated form, accepted by DecodeLegacy and
// rewritten by Migrate:
//
//	[out=label#]name#key=value#key=value
//
// Grammar errors are reported as *MalformedIdentityError with the offset of
// the offending token.
package parser
