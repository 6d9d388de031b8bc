// Package fingerprint computes the content digest used to detect duplicate records.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Compute returns the hex encoded SHA-256 digest of fields.
//
// The fields are serialized as a JSON object with lexicographically sorted keys,
// lower-cased and trimmed before hashing, so the result does not depend on key
// order or character case.
func Compute(fields map[string]string) string {
	if fields == nil {
		fields = map[string]string{}
	}

	// encoding/json writes map keys in sorted order.
	data, err := json.Marshal(fields)
	if err != nil {
		// map[string]string always marshals
		panic(err)
	}

	canonical := strings.TrimSpace(strings.ToLower(string(data)))
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
