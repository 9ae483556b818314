package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateAPIKey creates a secure random API key and the SHA256 hash
// that goes into the database. The real key is shown to the caller
// exactly once.
func GenerateAPIKey() (realKey, keyHash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	realKey = fmt.Sprintf("pf_live_%s", hex.EncodeToString(buf))

	sum := sha256.Sum256([]byte(realKey))
	keyHash = hex.EncodeToString(sum[:])

	return realKey, keyHash, nil
}

// HashAPIKey hashes a presented key the same way GenerateAPIKey does,
// for lookup by the auth middleware.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
