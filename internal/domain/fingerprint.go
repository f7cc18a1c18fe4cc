package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// fingerprintLen is the number of hex characters kept from the URL hash.
// 64 bits of prefix is plenty for a single-host download cache.
const fingerprintLen = 16

// Fingerprint is the stable cache key derived from a request URL. It is
// safe for use as a filename component (lowercase hex only).
type Fingerprint string

// FingerprintURL derives the cache key for a URL: SHA-256 over the raw URL,
// hex encoded, truncated to 16 characters. Identical URLs always map to the
// same key.
func FingerprintURL(url string) Fingerprint {
	sum := sha256.Sum256([]byte(url))
	return Fingerprint(hex.EncodeToString(sum[:])[:fingerprintLen])
}

func (f Fingerprint) String() string {
	return string(f)
}

// Filename returns the cache filename for this key with the given extension.
func (f Fingerprint) Filename(ext string) string {
	return string(f) + "." + ext
}
