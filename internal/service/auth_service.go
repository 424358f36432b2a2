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
	"memberhub/internal/memberid"
	"memberhub/internal/model"
	"memberhub/internal/notify"
	"memberhub/internal/repository"
)

// RegisterInput carries the fields accepted at registration. Country, date of
// birth, and gender are optional; when all three are present a membership
// number is assigned immediately, otherwise the backfill picks it up later.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	Country     string
	DateOfBirth *time.Time
	Gender      string
}

// AuthService handles registration and session issuance.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, error)
	// Login authenticates credentials and returns a signed session token.
	// Unknown email and wrong password both surface as ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (token string, user *model.User, err error)
}

type authService struct {
	users    repository.UserRepository
	hasher   auth.PasswordHasher
	jwt      *auth.JWTService
	sessions auth.SessionStoreInterface
	notifier notify.Notifier
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	hasher auth.PasswordHasher,
	jwtService *auth.JWTService,
	sessions auth.SessionStoreInterface,
	notifier notify.Notifier,
) AuthService {
	return &authService{
		users:    users,
		hasher:   hasher,
		jwt:      jwtService,
		sessions: sessions,
		notifier: notifier,
	}
}

// Register creates a new member with a hashed password.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	if len(input.Password) < 8 {
		return nil, apperrors.ErrWeakPassword
	}

	existing, err := s.users.FindByEmail(ctx, input.Email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         model.RoleMember,
		Status:       model.StatusActive,
		Country:      input.Country,
		DateOfBirth:  input.DateOfBirth,
		Gender:       input.Gender,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	// The membership number embeds the user id, so it can only be derived
	// after the insert.
	if user.HasMembershipInputs() {
		number := memberid.Generate(user.ID, user.FirstName, user.Country, *user.DateOfBirth, user.Gender, user.CreatedAt)
		if err := s.users.UpdateMembershipNumber(ctx, user.ID, number); err != nil {
			return nil, fmt.Errorf("assign membership number: %w", err)
		}
		user.MembershipNumber = number
	}

	// Fire and forget: the account exists whether or not the email lands.
	go func(email, firstName string) {
		if err := s.notifier.SendWelcome(context.Background(), email, firstName); err != nil {
			log.Printf("welcome notification for %s failed: %v", email, err)
		}
	}(user.Email, user.FirstName)

	return user, nil
}

// Login authenticates a member and issues a session token.
func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	tokenID, token, err := s.jwt.GenerateSessionToken(user.ID, user.Email, user.Role, user.Status, user.MembershipNumber)
	if err != nil {
		return "", nil, fmt.Errorf("generate session token: %w", err)
	}

	if err := s.sessions.StoreSession(ctx, tokenID, user.ID, auth.SessionTokenExpiry); err != nil {
		return "", nil, fmt.Errorf("store session: %w", err)
	}

	return token, user, nil
}
