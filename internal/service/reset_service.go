package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"memberhub/internal/auth"
	apperrors "memberhub/internal/errors"
	"memberhub/internal/model"
	"memberhub/internal/notify"
	"memberhub/internal/ratelimit"
	"memberhub/internal/repository"
)

// ResetService owns the password-reset token lifecycle.
type ResetService interface {
	// Request issues a reset token for the email and mails the link. An
	// unknown email is not an error: callers report generic success either
	// way so responses cannot be used to enumerate accounts.
	Request(ctx context.Context, email string) error
	// Verify checks a presented secret without consuming it.
	Verify(ctx context.Context, token string) (userID uint, err error)
	// Redeem verifies the token, sets the new password, marks the token used,
	// and revokes every session the user holds.
	Redeem(ctx context.Context, token, newPassword string) error
}

type resetService struct {
	users    repository.UserRepository
	tokens   repository.ResetTokenRepository
	hasher   auth.PasswordHasher
	sessions auth.SessionStoreInterface
	limiter  *ratelimit.Limiter
	notifier notify.Notifier
	baseURL  string
	now      func() time.Time
}

// NewResetService creates a new password-reset service.
func NewResetService(
	users repository.UserRepository,
	tokens repository.ResetTokenRepository,
	hasher auth.PasswordHasher,
	sessions auth.SessionStoreInterface,
	limiter *ratelimit.Limiter,
	notifier notify.Notifier,
	baseURL string,
) ResetService {
	return &resetService{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		sessions: sessions,
		limiter:  limiter,
		notifier: notifier,
		baseURL:  baseURL,
		now:      time.Now,
	}
}

func (s *resetService) Request(ctx context.Context, email string) error {
	allowed, err := s.limiter.Allow(ctx, email)
	if err != nil {
		return fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		return apperrors.ErrTooManyRequests
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No account. The caller still reports success.
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}

	secret, hash, err := auth.GenerateResetToken()
	if err != nil {
		return err
	}

	token := &model.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(auth.ResetTokenExpiry),
	}
	// Issue supersedes any prior live token in the same transaction, so at
	// most one token per user is ever redeemable.
	if err := s.tokens.Issue(ctx, token); err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/auth/reset-password?token=%s", s.baseURL, secret)
	go func(email, resetURL string) {
		if err := s.notifier.SendPasswordReset(context.Background(), email, resetURL); err != nil {
			log.Printf("reset notification for %s failed: %v", email, err)
		}
	}(user.Email, resetURL)

	return nil
}

func (s *resetService) Verify(ctx context.Context, token string) (uint, error) {
	row, err := s.lookup(ctx, token)
	if err != nil {
		return 0, err
	}
	return row.UserID, nil
}

func (s *resetService) Redeem(ctx context.Context, token, newPassword string) error {
	// Validate the password before touching the token.
	if len(newPassword) < 8 {
		return apperrors.ErrWeakPassword
	}

	row, err := s.lookup(ctx, token)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePasswordHash(ctx, row.UserID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.tokens.MarkUsed(ctx, row.ID); err != nil {
		return fmt.Errorf("mark token used: %w", err)
	}
	// Immediately after the hash update: a stolen pre-reset session must not
	// outlive the new password.
	if err := s.sessions.InvalidateAllSessions(ctx, row.UserID); err != nil {
		return fmt.Errorf("invalidate sessions: %w", err)
	}
	return nil
}

// lookup resolves a presented secret to a live token row. Unknown, used, and
// expired all collapse to ErrInvalidResetToken; the distinction is logged for
// diagnostics but never surfaced.
func (s *resetService) lookup(ctx context.Context, token string) (*model.PasswordResetToken, error) {
	if token == "" {
		return nil, apperrors.ErrInvalidResetToken
	}

	row, err := s.tokens.FindByTokenHash(ctx, auth.HashResetToken(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidResetToken
		}
		return nil, fmt.Errorf("find reset token: %w", err)
	}

	if status := row.Status(s.now()); status != model.TokenIssued {
		log.Printf("reset token %d for user %d rejected: %s", row.ID, row.UserID, status)
		return nil, apperrors.ErrInvalidResetToken
	}
	return row, nil
}
