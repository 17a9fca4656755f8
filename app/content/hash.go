package content

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns a stable hex digest of arbitrary text. It is used for
// deduplication, not security.
func Hash(value string) string {
	digest := sha256.Sum256([]byte(value))
	return hex.EncodeToString(digest[:])
}

// GUIDHash digests a source-provided article identifier. This is the dedup
// key within a feed.
func GUIDHash(guid string) string {
	return Hash(guid)
}

// Fingerprint produces an identity hash that is independent of GUID churn.
// It is stored as auxiliary metadata and is not used for deduplication.
func Fingerprint(content, title, url string) string {
	return Hash(Hash(content) + Hash(title) + Hash(url))
}

// ContentHash digests the normalized text of an article body. Recomputed
// whenever the body is replaced by extracted full text.
func ContentHash(contentHTML string) string {
	return Hash(NormalizeText(contentHTML))
}
