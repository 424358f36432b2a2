package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"memberhub/internal/auth"
	apperrors "memberhub/internal/errors"
	"memberhub/internal/model"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdatePasswordHash(ctx context.Context, id uint, newHash string) error {
	args := m.Called(ctx, id, newHash)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateMembershipNumber(ctx context.Context, id uint, number string) error {
	args := m.Called(ctx, id, number)
	return args.Error(0)
}

func (m *MockUserRepository) ListNeedingMembershipNumber(ctx context.Context, legacyPrefix string) ([]model.User, error) {
	args := m.Called(ctx, legacyPrefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

// MockSessionStore is a mock implementation of SessionStoreInterface.
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) StoreSession(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, userID, ttl)
	return args.Error(0)
}

func (m *MockSessionStore) SessionExists(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionStore) InvalidateAllSessions(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// stubNotifier is a permissive notifier double. Sends happen on background
// goroutines, so expectation-style mocks would race with the test.
type stubNotifier struct{}

func (stubNotifier) SendWelcome(context.Context, string, string) error       { return nil }
func (stubNotifier) SendPasswordReset(context.Context, string, string) error { return nil }

func TestAuthService_Register(t *testing.T) {
	dob := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		input         RegisterInput
		setupMock     func(*MockUserRepository)
		expectedError error
		wantNumber    bool
	}{
		{
			name: "successful registration without profile fields",
			input: RegisterInput{
				FirstName: "Test",
				Email:     "test@example.com",
				Password:  "password123",
			},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Run(func(args mock.Arguments) {
					user := args.Get(1).(*model.User)
					user.ID = 1
					user.CreatedAt = time.Now()
				}).Return(nil)
			},
			expectedError: nil,
		},
		{
			name: "registration with full profile assigns membership number",
			input: RegisterInput{
				FirstName:   "Johnson",
				Email:       "johnson@example.com",
				Password:    "password123",
				Country:     "Uganda",
				DateOfBirth: &dob,
				Gender:      "male",
			},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "johnson@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Run(func(args mock.Arguments) {
					user := args.Get(1).(*model.User)
					user.ID = 42
					user.CreatedAt = time.Now()
				}).Return(nil)
				m.On("UpdateMembershipNumber", mock.Anything, uint(42), mock.AnythingOfType("string")).Return(nil)
			},
			expectedError: nil,
			wantNumber:    true,
		},
		{
			name: "email already registered",
			input: RegisterInput{
				FirstName: "Existing",
				Email:     "existing@example.com",
				Password:  "password123",
			},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "existing@example.com").Return(&model.User{Email: "existing@example.com"}, nil)
			},
			expectedError: apperrors.ErrEmailTaken,
		},
		{
			name: "weak password rejected before any lookup",
			input: RegisterInput{
				FirstName: "Short",
				Email:     "short@example.com",
				Password:  "secret",
			},
			setupMock:     func(m *MockUserRepository) {},
			expectedError: apperrors.ErrWeakPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			svc := NewAuthService(mockRepo, auth.NewBcryptHasher(), auth.NewJWTService("test-secret"), new(MockSessionStore), stubNotifier{})
			user, err := svc.Register(context.Background(), tt.input)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, user)
				assert.Equal(t, tt.input.Email, user.Email)
				assert.Equal(t, model.RoleMember, user.Role)
				assert.Equal(t, model.StatusActive, user.Status)
				assert.NotEmpty(t, user.PasswordHash)
				assert.NotEqual(t, tt.input.Password, user.PasswordHash)
				if tt.wantNumber {
					assert.NotEmpty(t, user.MembershipNumber)
				} else {
					assert.Empty(t, user.MembershipNumber)
				}
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Register_SecondAttemptLeavesFirstIntact(t *testing.T) {
	mockRepo := new(MockUserRepository)
	existing := &model.User{ID: 1, Email: "a@x.com", PasswordHash: "original-hash"}
	mockRepo.On("FindByEmail", mock.Anything, "a@x.com").Return(existing, nil)

	svc := NewAuthService(mockRepo, auth.NewBcryptHasher(), auth.NewJWTService("test-secret"), new(MockSessionStore), stubNotifier{})
	_, err := svc.Register(context.Background(), RegisterInput{FirstName: "A", Email: "a@x.com", Password: "password123"})

	assert.Equal(t, apperrors.ErrEmailTaken, err)
	// Create was never set up on the mock, so any call would have failed the
	// test. The first record is untouched.
	assert.Equal(t, "original-hash", existing.PasswordHash)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	hasher := auth.NewBcryptHasher()
	hash, err := hasher.Hash("password123")
	assert.NoError(t, err)

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository, *MockSessionStore)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(mRepo *MockUserRepository, mSessions *MockSessionStore) {
				mRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.User{
					ID:           7,
					Email:        "test@example.com",
					PasswordHash: hash,
					Role:         model.RoleMember,
					Status:       model.StatusActive,
				}, nil)
				mSessions.On("StoreSession", mock.Anything, mock.AnythingOfType("string"), uint(7), auth.SessionTokenExpiry).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:     "unknown email",
			email:    "notfound@example.com",
			password: "password123",
			setupMock: func(mRepo *MockUserRepository, mSessions *MockSessionStore) {
				mRepo.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "test@example.com",
			password: "password124",
			setupMock: func(mRepo *MockUserRepository, mSessions *MockSessionStore) {
				mRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.User{
					ID:           7,
					Email:        "test@example.com",
					PasswordHash: hash,
				}, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			mockSessions := new(MockSessionStore)
			tt.setupMock(mockRepo, mockSessions)

			svc := NewAuthService(mockRepo, hasher, auth.NewJWTService("test-secret"), mockSessions, stubNotifier{})
			token, user, err := svc.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError, err)
				assert.Empty(t, token)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, token)
				assert.NotNil(t, user)
				assert.Equal(t, tt.email, user.Email)
			}

			mockRepo.AssertExpectations(t)
			mockSessions.AssertExpectations(t)
		})
	}
}
