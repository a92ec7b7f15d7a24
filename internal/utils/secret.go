package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"strings"
)

const (
	numericCodeMin  = 100000
	numericCodeSpan = 900000
	opaqueTokenSize = 32
)

// GenerateNumericCode returns a 6-digit decimal code, uniform over
// 100000-999999, from the OS random source.
func GenerateNumericCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(numericCodeSpan))
	if err != nil {
		return "", err
	}
	return big.NewInt(0).Add(n, big.NewInt(numericCodeMin)).String(), nil
}

// GenerateOpaqueToken returns 32 random bytes hex-encoded (64 characters),
// used for refresh tokens and password reset tokens.
func GenerateOpaqueToken() (string, error) {
	buffer := make([]byte, opaqueTokenSize)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return hex.EncodeToString(buffer), nil
}

// Digest returns the hex-encoded SHA-256 of a secret. Only digests are ever
// persisted.
func Digest(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// DigestMatches compares a stored digest against a candidate secret in
// constant time.
func DigestMatches(storedDigest string, candidate string) bool {
	candidateDigest := Digest(candidate)
	return subtle.ConstantTimeCompare([]byte(storedDigest), []byte(candidateDigest)) == 1
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
