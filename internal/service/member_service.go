package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"memberhub/internal/cache"
	apperrors "memberhub/internal/errors"
	"memberhub/internal/memberid"
	"memberhub/internal/model"
	"memberhub/internal/repository"
)

const profileCacheTTL = 5 * time.Minute

// MemberService exposes member profile reads and the membership-number
// backfill. The read path returns whatever is stored; rewriting legacy
// numbers happens only through the explicit backfill.
type MemberService interface {
	Profile(ctx context.Context, id uint) (*model.User, error)
	// BackfillMembershipNumbers assigns a current-format number to every user
	// whose stored number is missing or legacy and whose profile carries the
	// required inputs. Idempotent: a second run finds nothing to do.
	BackfillMembershipNumbers(ctx context.Context) (updated int, skipped int, err error)
}

type memberService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewMemberService builds a MemberService with repository and cache.
func NewMemberService(repo repository.UserRepository, cache *cache.Client) MemberService {
	return &memberService{repo: repo, cache: cache}
}

func (s *memberService) cacheKey(id uint) string {
	return fmt.Sprintf("member:%d", id)
}

func (s *memberService) Profile(ctx context.Context, id uint) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, profileCacheTTL)
	}
	return user, nil
}

func (s *memberService) BackfillMembershipNumbers(ctx context.Context) (int, int, error) {
	users, err := s.repo.ListNeedingMembershipNumber(ctx, memberid.LegacyPrefix)
	if err != nil {
		return 0, 0, fmt.Errorf("list users: %w", err)
	}

	updated, skipped := 0, 0
	for _, user := range users {
		if !memberid.IsLegacy(user.MembershipNumber) {
			continue
		}
		if !user.HasMembershipInputs() {
			skipped++
			continue
		}
		number := memberid.Generate(user.ID, user.FirstName, user.Country, *user.DateOfBirth, user.Gender, user.CreatedAt)
		if err := s.repo.UpdateMembershipNumber(ctx, user.ID, number); err != nil {
			return updated, skipped, fmt.Errorf("update user %d: %w", user.ID, err)
		}
		_ = s.cache.Delete(ctx, s.cacheKey(user.ID))
		updated++
	}
	return updated, skipped, nil
}
