package model

import "time"

// TokenStatus is the lifecycle state of a reset token at a point in time.
type TokenStatus string

const (
	// TokenIssued means the token is live: unused and unexpired.
	TokenIssued TokenStatus = "issued"
	// TokenUsed means the token was redeemed or superseded by a newer issuance.
	TokenUsed TokenStatus = "used"
	// TokenExpired means the token outlived its validity window unredeemed.
	TokenExpired TokenStatus = "expired"
)

// PasswordResetToken is a single-use credential-recovery record. Only the
// SHA-256 hash of the secret is persisted; the plaintext exists exactly once,
// in the email link handed to the user.
type PasswordResetToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	TokenHash string    `json:"-" gorm:"size:64;not null;uniqueIndex"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Used      bool      `json:"used" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the GORM default.
func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

// Status derives the lifecycle state from the stored used flag and expiry.
// Used wins over expired: a superseded token stays "used" even after its
// window passes.
func (t *PasswordResetToken) Status(now time.Time) TokenStatus {
	if t.Used {
		return TokenUsed
	}
	if now.After(t.ExpiresAt) {
		return TokenExpired
	}
	return TokenIssued
}
