package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashPIN returns the SHA256 hex digest of a PIN. Only the digest is
// ever stored; the gateway never sees plaintext PINs at rest.
func HashPIN(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}

// VerifyPIN compares a claimed PIN against a stored digest in constant
// time. Hashing the claim first makes the comparison length-independent
// as well, so neither timing nor length leaks.
func VerifyPIN(claimed, storedHash string) bool {
	claimedSum := sha256.Sum256([]byte(claimed))
	stored, err := hex.DecodeString(storedHash)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(claimedSum[:], stored) == 1
}
