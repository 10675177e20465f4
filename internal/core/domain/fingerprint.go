package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint returns the hex SHA-256 digest of text. It is deterministic,
// unsalted and stable across process restarts. Chunk identity hashes raw
// text: chunks differing by a single byte get distinct fingerprints.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// QueryFingerprint normalises text by trimming surrounding whitespace and
// lower-casing before hashing, so cache keys for queries are case and
// whitespace insensitive.
func QueryFingerprint(text string) string {
	return Fingerprint(strings.ToLower(strings.TrimSpace(text)))
}
