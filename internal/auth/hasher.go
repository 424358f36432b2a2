package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost is deliberately slow; verification time is the defense.
const bcryptCost = 12

// PasswordHasher provides one-way password hashing and verification.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches hash. A malformed hash is
	// simply a mismatch; callers never learn why verification failed.
	Verify(plaintext, hash string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt. The salt is embedded in
// the output, so nothing is stored beside the hash itself.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the fixed production cost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcryptCost}
}

// Hash produces a salted bcrypt hash of the plaintext.
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash.
func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
