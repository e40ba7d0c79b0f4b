package services

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/Harsha992004/online-bus-booking-app/internal/auth"
	intdb "github.com/Harsha992004/online-bus-booking-app/internal/db"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain"
	"github.com/Harsha992004/online-bus-booking-app/internal/domain/models"
	"github.com/Harsha992004/online-bus-booking-app/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapResetStore struct {
	mu       sync.Mutex
	tokens   map[string]models.ResetToken
	failures map[string]int
	ttl      time.Duration
}

func (m *mapResetStore) Fail(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[id]; !ok {
		return 0, intdb.ErrNotFound
	}
	if m.failures == nil {
		m.failures = map[string]int{}
	}
	m.failures[id]++
	return m.failures[id], nil
}

func (m *mapResetStore) Save(_ context.Context, token models.ResetToken, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = map[string]models.ResetToken{}
	}
	m.tokens[token.ID] = token
	m.ttl = ttl
	return nil
}

func (m *mapResetStore) Get(_ context.Context, id string) (models.ResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return t, intdb.ErrNotFound
	}
	return t, nil
}

func (m *mapResetStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, id)
	return nil
}

func newAuthService() (AuthService, *mapResetStore, *fakeMailer) {
	resets := &mapResetStore{}
	mailer := newFakeMailer()
	return AuthService{
		Users:  memory.New().Users,
		Resets: resets,
		Mailer: mailer,
		Tokens: auth.NewIssuer("test-secret", time.Hour),
	}, resets, mailer
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: " Asha@Example.com ", Password: "secret1", Name: "Asha", Phone: "9000"})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", u.Email)
	assert.Equal(t, domain.RoleCustomer, u.Role)

	_, err = svc.Register(ctx, RegisterInput{Email: "asha@example.com", Password: "secret1"})
	assert.True(t, domain.IsConflict(err))
	_, err = svc.Register(ctx, RegisterInput{Email: "short@example.com", Password: "123"})
	assert.True(t, domain.IsValidation(err))
	_, err = svc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "secret1"})
	assert.True(t, domain.IsValidation(err))

	res, err := svc.Login(ctx, "ASHA@example.com", "secret1")
	require.NoError(t, err)
	claims, err := svc.Tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	_, err = svc.Login(ctx, "asha@example.com", "wrong")
	assert.True(t, domain.IsForbidden(err))
	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.True(t, domain.IsForbidden(err))
}

func TestProfileAndChangePassword(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()
	u, err := svc.Register(ctx, RegisterInput{Email: "p@example.com", Password: "secret1"})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, u.ID, "  Priya   K ", " 9111 ")
	require.NoError(t, err)
	assert.Equal(t, "Priya K", updated.Name)
	assert.Equal(t, "9111", updated.Phone)

	assert.True(t, domain.IsValidation(svc.ChangePassword(ctx, u.ID, "nope", "another1")))
	require.NoError(t, svc.ChangePassword(ctx, u.ID, "secret1", "another1"))
	_, err = svc.Login(ctx, "p@example.com", "another1")
	require.NoError(t, err)

	_, err = svc.Profile(ctx, 999)
	assert.True(t, domain.IsNotFound(err))
}

func TestForgotAndResetPassword(t *testing.T) {
	svc, resets, mailer := newAuthService()
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Email: "r@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.ForgotPassword(ctx, "missing@example.com")
	assert.True(t, domain.IsNotFound(err))

	tokenID, err := svc.ForgotPassword(ctx, "r@example.com")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, resets.ttl)
	sent := mailer.Sent()
	require.Len(t, sent, 1)
	code := regexp.MustCompile(`\d{6}`).FindString(sent[0].body)
	require.NotEmpty(t, code)

	err = svc.ResetPassword(ctx, tokenID, "000000x", "brandnew")
	assert.True(t, domain.IsValidation(err))
	require.NoError(t, svc.ResetPassword(ctx, tokenID, code, "brandnew"))

	_, err = svc.Login(ctx, "r@example.com", "brandnew")
	require.NoError(t, err)
	assert.True(t, domain.IsValidation(svc.ResetPassword(ctx, tokenID, code, "again123")), "token is single use")
}

func TestResetTokenBurnedAfterWrongCodes(t *testing.T) {
	svc, resets, mailer := newAuthService()
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Email: "victim@example.com", Password: "secret1"})
	require.NoError(t, err)

	tokenID, err := svc.ForgotPassword(ctx, "victim@example.com")
	require.NoError(t, err)
	code := regexp.MustCompile(`\d{6}`).FindString(mailer.Sent()[0].body)
	require.NotEmpty(t, code)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	for i := 1; i < maxResetAttempts; i++ {
		err := svc.ResetPassword(ctx, tokenID, wrong, "hijacked1")
		require.True(t, domain.IsValidation(err), "attempt %d: %v", i, err)
		_, err = resets.Get(ctx, tokenID)
		require.NoError(t, err, "token survives attempt %d", i)
	}
	err = svc.ResetPassword(ctx, tokenID, wrong, "hijacked1")
	assert.True(t, domain.IsValidation(err))
	_, err = resets.Get(ctx, tokenID)
	assert.ErrorIs(t, err, intdb.ErrNotFound)

	err = svc.ResetPassword(ctx, tokenID, code, "hijacked1")
	assert.True(t, domain.IsValidation(err), "correct code after burn must fail")
	_, err = svc.Login(ctx, "victim@example.com", "secret1")
	require.NoError(t, err, "password unchanged")
}

func TestEnsureAdmin(t *testing.T) {
	svc, _, _ := newAuthService()
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "admin123"))
	res, err := svc.Login(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, res.User.Role)

	u, err := svc.Register(ctx, RegisterInput{Email: "boss@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, svc.EnsureAdmin(ctx, "boss@example.com", "ignored"))
	p, err := svc.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, p.Role)

	require.NoError(t, svc.EnsureAdmin(ctx, "", ""))
}
