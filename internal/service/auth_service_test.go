package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/clock"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

func newAuthFixture(t *testing.T) (*AuthService, *repository.MemoryStore, *clock.Fixed) {
	t.Helper()
	store := repository.NewMemoryStore()
	clk := clock.NewFixed(time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC))
	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 15,
		BcryptCost:            4,
	}}
	return NewAuthService(cfg, store.Users(), clk), store, clk
}

func seedOperator(t *testing.T, store *repository.MemoryStore, role domain.Role, email, password string, enabled bool) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	require.NoError(t, err)
	user := &domain.User{
		ID:           "op-" + email,
		Role:         role,
		Name:         "Operator",
		Email:        email,
		PasswordHash: hash,
		Enabled:      enabled,
	}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func TestLoginIssuesTokenAndStampsLastLogin(t *testing.T) {
	svc, store, clk := newAuthFixture(t)
	seeded := seedOperator(t, store, domain.RoleDispatcher, "disp@example.com", "secret", true)

	user, token, expiresAt, err := svc.Login(context.Background(), "disp@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)
	assert.False(t, expiresAt.IsZero())
	require.NotNil(t, user.LastLogin)
	assert.Equal(t, clk.Now(), *user.LastLogin)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, claims.UserID)
	assert.Equal(t, domain.RoleDispatcher, claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, store, _ := newAuthFixture(t)
	seedOperator(t, store, domain.RoleTechnician, "tech@example.com", "secret", true)
	seedOperator(t, store, domain.RoleTechnician, "off@example.com", "secret", false)
	ctx := context.Background()

	cases := []struct{ email, password string }{
		{"nobody@example.com", "secret"},
		{"tech@example.com", "wrong"},
		{"off@example.com", "secret"},
	}
	for _, tc := range cases {
		_, _, _, err := svc.Login(ctx, tc.email, tc.password)
		require.Error(t, err, tc.email)
		assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"), tc.email)
	}
}

func TestUpsertCredentialCreatesAndRotates(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	created, err := svc.UpsertCredential(ctx, domain.RoleDispatcher, "Derivador", "disp@example.com", "first")
	require.NoError(t, err)
	assert.True(t, created.Enabled)

	_, _, _, err = svc.Login(ctx, "disp@example.com", "first")
	require.NoError(t, err)

	rotated, err := svc.UpsertCredential(ctx, domain.RoleDispatcher, "", "disp@example.com", "second")
	require.NoError(t, err)
	assert.Equal(t, created.ID, rotated.ID)

	_, _, _, err = svc.Login(ctx, "disp@example.com", "first")
	require.Error(t, err)
	_, _, _, err = svc.Login(ctx, "disp@example.com", "second")
	require.NoError(t, err)

	// the email keeps its original role
	_, err = svc.UpsertCredential(ctx, domain.RoleTechnician, "", "disp@example.com", "third")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))

	_, err = svc.UpsertCredential(ctx, domain.Role("INTERN"), "", "x@example.com", "pw")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}
