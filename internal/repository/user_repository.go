package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "memberhub/internal/errors"
	"memberhub/internal/model"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, id uint, newHash string) error
	UpdateMembershipNumber(ctx context.Context, id uint, number string) error
	ListNeedingMembershipNumber(ctx context.Context, legacyPrefix string) ([]model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		// The unique index on email is the authority on duplicates; the
		// service-level pre-check only narrows the race window.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id uint, newHash string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("password_hash", newHash).Error
}

func (r *userRepository) UpdateMembershipNumber(ctx context.Context, id uint, number string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("membership_number", number).Error
}

func (r *userRepository) ListNeedingMembershipNumber(ctx context.Context, legacyPrefix string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("membership_number = '' OR membership_number IS NULL OR membership_number LIKE ?", legacyPrefix+"%").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
