package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"memberhub/internal/auth"
	apperrors "memberhub/internal/errors"
	"memberhub/internal/model"
	"memberhub/internal/ratelimit"
)

// fakeResetTokenRepo is an in-memory ResetTokenRepository with the real
// supersede-on-issue semantics, for lifecycle scenarios that span issuances.
type fakeResetTokenRepo struct {
	mu     sync.Mutex
	nextID uint
	tokens map[uint]*model.PasswordResetToken
}

func newFakeResetTokenRepo() *fakeResetTokenRepo {
	return &fakeResetTokenRepo{tokens: make(map[uint]*model.PasswordResetToken)}
}

func (f *fakeResetTokenRepo) Issue(_ context.Context, token *model.PasswordResetToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.tokens {
		if existing.UserID == token.UserID && !existing.Used {
			existing.Used = true
		}
	}
	f.nextID++
	stored := *token
	stored.ID = f.nextID
	f.tokens[stored.ID] = &stored
	token.ID = stored.ID
	return nil
}

func (f *fakeResetTokenRepo) FindByTokenHash(_ context.Context, tokenHash string) (*model.PasswordResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.tokens {
		if stored.TokenHash == tokenHash {
			row := *stored
			return &row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeResetTokenRepo) MarkUsed(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stored, ok := f.tokens[id]; ok {
		stored.Used = true
	}
	return nil
}

func (f *fakeResetTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for id, stored := range f.tokens {
		if stored.Used || now.After(stored.ExpiresAt) {
			delete(f.tokens, id)
			removed++
		}
	}
	return removed, nil
}

// captureNotifier hands reset URLs back to the test over a channel; sends
// happen on background goroutines.
type captureNotifier struct {
	urls chan string
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{urls: make(chan string, 4)}
}

func (n *captureNotifier) SendWelcome(context.Context, string, string) error { return nil }

func (n *captureNotifier) SendPasswordReset(_ context.Context, _ string, resetURL string) error {
	n.urls <- resetURL
	return nil
}

func (n *captureNotifier) awaitSecret(t *testing.T) string {
	t.Helper()
	select {
	case resetURL := <-n.urls:
		parts := strings.SplitN(resetURL, "token=", 2)
		assert.Len(t, parts, 2)
		return parts[1]
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reset notification")
		return ""
	}
}

func newTestResetService(t *testing.T, users *MockUserRepository, tokens *fakeResetTokenRepo, sessions *MockSessionStore, notifier *captureNotifier) *resetService {
	t.Helper()
	svc := NewResetService(
		users,
		tokens,
		auth.NewBcryptHasher(),
		sessions,
		ratelimit.New(ratelimit.NewMemoryStore()),
		notifier,
		"https://party.example.org",
	)
	return svc.(*resetService)
}

func TestResetService_Request_UnknownEmailIsSilent(t *testing.T) {
	users := new(MockUserRepository)
	users.On("FindByEmail", mock.Anything, "ghost@x.com").Return(nil, gorm.ErrRecordNotFound)
	tokens := newFakeResetTokenRepo()

	svc := newTestResetService(t, users, tokens, new(MockSessionStore), newCaptureNotifier())
	err := svc.Request(context.Background(), "ghost@x.com")

	assert.NoError(t, err)
	assert.Empty(t, tokens.tokens, "no token may be issued for an unknown email")
	users.AssertExpectations(t)
}

func TestResetService_Request_RateLimited(t *testing.T) {
	users := new(MockUserRepository)
	users.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.User{ID: 7, Email: "a@x.com"}, nil)
	notifier := newCaptureNotifier()

	svc := newTestResetService(t, users, newFakeResetTokenRepo(), new(MockSessionStore), notifier)
	ctx := context.Background()

	for i := 0; i < ratelimit.Capacity; i++ {
		assert.NoError(t, svc.Request(ctx, "a@x.com"))
		notifier.awaitSecret(t)
	}

	err := svc.Request(ctx, "a@x.com")
	assert.Equal(t, apperrors.ErrTooManyRequests, err)

	// A different identifier in the same window is unaffected.
	users.On("FindByEmail", mock.Anything, "b@x.com").Return(nil, gorm.ErrRecordNotFound)
	assert.NoError(t, svc.Request(ctx, "b@x.com"))
}

func TestResetService_Request_StoresOnlyHash(t *testing.T) {
	users := new(MockUserRepository)
	users.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.User{ID: 7, Email: "a@x.com"}, nil)
	tokens := newFakeResetTokenRepo()
	notifier := newCaptureNotifier()

	svc := newTestResetService(t, users, tokens, new(MockSessionStore), notifier)
	assert.NoError(t, svc.Request(context.Background(), "a@x.com"))

	secret := notifier.awaitSecret(t)
	assert.Len(t, tokens.tokens, 1)
	for _, row := range tokens.tokens {
		assert.Equal(t, uint(7), row.UserID)
		assert.False(t, row.Used)
		assert.NotEqual(t, secret, row.TokenHash, "plaintext secret must never be persisted")
		assert.Equal(t, auth.HashResetToken(secret), row.TokenHash)
		assert.WithinDuration(t, time.Now().Add(auth.ResetTokenExpiry), row.ExpiresAt, 5*time.Second)
	}
}

func TestResetService_Redeem_SupersededThenSingleUse(t *testing.T) {
	users := new(MockUserRepository)
	users.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.User{ID: 7, Email: "a@x.com"}, nil)
	users.On("UpdatePasswordHash", mock.Anything, uint(7), mock.AnythingOfType("string")).Return(nil).Once()
	sessions := new(MockSessionStore)
	sessions.On("InvalidateAllSessions", mock.Anything, uint(7)).Return(nil).Once()
	tokens := newFakeResetTokenRepo()
	notifier := newCaptureNotifier()

	svc := newTestResetService(t, users, tokens, sessions, notifier)
	ctx := context.Background()

	// Two requests in succession: the first token is superseded.
	assert.NoError(t, svc.Request(ctx, "a@x.com"))
	first := notifier.awaitSecret(t)
	assert.NoError(t, svc.Request(ctx, "a@x.com"))
	second := notifier.awaitSecret(t)

	err := svc.Redeem(ctx, first, "brand-new-password")
	assert.Equal(t, apperrors.ErrInvalidResetToken, err, "superseded token must not redeem")

	// The second token redeems exactly once and revokes all sessions.
	assert.NoError(t, svc.Redeem(ctx, second, "brand-new-password"))
	sessions.AssertExpectations(t)

	err = svc.Redeem(ctx, second, "another-password-1")
	assert.Equal(t, apperrors.ErrInvalidResetToken, err, "a redeemed token must not redeem again")
	users.AssertExpectations(t)
}

func TestResetService_Redeem_ExpiredToken(t *testing.T) {
	users := new(MockUserRepository)
	users.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.User{ID: 7, Email: "a@x.com"}, nil)
	notifier := newCaptureNotifier()

	svc := newTestResetService(t, users, newFakeResetTokenRepo(), new(MockSessionStore), notifier)
	ctx := context.Background()

	assert.NoError(t, svc.Request(ctx, "a@x.com"))
	secret := notifier.awaitSecret(t)

	// Step the service clock past the expiry window.
	svc.now = func() time.Time { return time.Now().Add(auth.ResetTokenExpiry + time.Minute) }

	err := svc.Redeem(ctx, secret, "brand-new-password")
	assert.Equal(t, apperrors.ErrInvalidResetToken, err)
}

func TestResetService_Redeem_NeverIssuedToken(t *testing.T) {
	svc := newTestResetService(t, new(MockUserRepository), newFakeResetTokenRepo(), new(MockSessionStore), newCaptureNotifier())

	// Syntactically plausible secret that was never issued: a generic token
	// error, not a server error.
	err := svc.Redeem(context.Background(), strings.Repeat("ab", 32), "brand-new-password")
	assert.Equal(t, apperrors.ErrInvalidResetToken, err)
}

func TestResetService_Redeem_WeakPasswordBeforeTokenLookup(t *testing.T) {
	tokens := newFakeResetTokenRepo()
	svc := newTestResetService(t, new(MockUserRepository), tokens, new(MockSessionStore), newCaptureNotifier())

	err := svc.Redeem(context.Background(), "irrelevant", "short")
	assert.Equal(t, apperrors.ErrWeakPassword, err)
}

func TestResetService_Verify_NonConsuming(t *testing.T) {
	users := new(MockUserRepository)
	users.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.User{ID: 7, Email: "a@x.com"}, nil)
	notifier := newCaptureNotifier()

	svc := newTestResetService(t, users, newFakeResetTokenRepo(), new(MockSessionStore), notifier)
	ctx := context.Background()

	assert.NoError(t, svc.Request(ctx, "a@x.com"))
	secret := notifier.awaitSecret(t)

	// Verify twice: the token stays live until explicitly consumed.
	userID, err := svc.Verify(ctx, secret)
	assert.NoError(t, err)
	assert.Equal(t, uint(7), userID)

	userID, err = svc.Verify(ctx, secret)
	assert.NoError(t, err)
	assert.Equal(t, uint(7), userID)
}
