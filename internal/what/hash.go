package what

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// DomainContent prefixes content digests of bulk values. The version suffix
// leaves room for a future algorithm change.
const DomainContent = "whatid/content/v1"

// identityNamespace scopes name-based identity UUIDs.
var identityNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/roach88/whatid"))

// Digest returns the hex SHA-256 of an identity string. It is what
// MaxLength substitutes for over-long identities: 64 characters, whatever
// the input length.
func Digest(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}

// ContentDigest hashes bulk data for use with HashHandler.
// Format: SHA256(domain + 0x00 + data)
func ContentDigest(data []byte) string {
	h := sha256.New()
	h.Write([]byte(DomainContent))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// IdentityUUID returns a name-based (version 5) UUID for an identity
// string. Equal identities always map to the same UUID.
func IdentityUUID(id string) uuid.UUID {
	return uuid.NewSHA1(identityNamespace, []byte(id))
}
