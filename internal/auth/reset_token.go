package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// ResetTokenBytes is the secret length: 32 bytes, 64 hex characters.
	ResetTokenBytes = 32
	// ResetTokenExpiry bounds how long an issued token stays redeemable.
	ResetTokenExpiry = time.Hour
)

// GenerateResetToken creates a random reset secret and its storage hash.
// The plaintext goes out-of-band to the user; only the hash is persisted, so
// a leaked table cannot be replayed as valid reset links.
func GenerateResetToken() (token, hash string, err error) {
	buf := make([]byte, ResetTokenBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate reset token: %w", err)
	}
	token = hex.EncodeToString(buf)
	return token, HashResetToken(token), nil
}

// HashResetToken computes the hex-encoded SHA-256 hash of a token secret.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// VerifyResetToken reports whether the presented secret matches the stored
// hash, in constant time.
func VerifyResetToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	computed := HashResetToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
