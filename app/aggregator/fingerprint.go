package aggregator

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// fingerprintLength is the number of hex characters kept from the digest.
// Stored hashes depend on it, so it must never change.
const fingerprintLength = 32

// Fingerprint computes the content-addressed hash of a feed item from its
// normalized title and URL. It is a pure function: the same pair always
// yields the same hash.
func Fingerprint(title, url string) string {
	canonical := normalizeForHash(title) + "|" + normalizeForHash(url)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])[:fingerprintLength]
}

// normalizeForHash lowercases the input and strips everything that is not
// a letter or digit, so formatting and punctuation differences do not
// produce distinct fingerprints.
func normalizeForHash(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
