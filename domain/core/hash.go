package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Short returns the first 12 hex characters, enough to tell runs apart in logs.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// RequestFingerprint hashes the scoring-relevant parts of a request. Domain order is
// irrelevant for scoring, so domains are sorted before hashing; two requests with the
// same fingerprint produce bit-identical hypotheses.
func RequestFingerprint(task, goal, constraints string, domains []string) Hash {
	sorted := make([]string, len(domains))
	copy(sorted, domains)
	sort.Strings(sorted)

	var data strings.Builder
	for _, part := range []string{task, goal, constraints} {
		data.WriteString(part)
		data.WriteByte(0)
	}
	for _, d := range sorted {
		data.WriteString(d)
		data.WriteByte(0)
	}
	return NewHash([]byte(data.String()))
}
