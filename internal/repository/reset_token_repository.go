package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"memberhub/internal/model"
)

// ResetTokenRepository defines persistence operations for password reset tokens.
type ResetTokenRepository interface {
	// Issue marks every unused token for the same user as used and inserts the
	// new token, in one transaction. At most one live token per user exists at
	// any time.
	Issue(ctx context.Context, token *model.PasswordResetToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.PasswordResetToken, error)
	// MarkUsed sets used=true for the token. Idempotent.
	MarkUsed(ctx context.Context, id uint) error
	// DeleteExpired removes used and expired rows. Maintenance only; expiry is
	// enforced lazily at verification time.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type resetTokenRepository struct {
	db *gorm.DB
}

// NewResetTokenRepository builds a GORM-backed repository.
func NewResetTokenRepository(db *gorm.DB) ResetTokenRepository {
	return &resetTokenRepository{db: db}
}

func (r *resetTokenRepository) Issue(ctx context.Context, token *model.PasswordResetToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.PasswordResetToken{}).
			Where("user_id = ? AND used = ?", token.UserID, false).
			Update("used", true).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}

func (r *resetTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.PasswordResetToken, error) {
	var token model.PasswordResetToken
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *resetTokenRepository) MarkUsed(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&model.PasswordResetToken{}).
		Where("id = ?", id).
		Update("used", true).Error
}

func (r *resetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("used = ? OR expires_at < ?", true, now).
		Delete(&model.PasswordResetToken{})
	return res.RowsAffected, res.Error
}
