package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framemarkapp/framemark-server/internal/auth"
	"github.com/framemarkapp/framemark-server/internal/errors"
	"github.com/framemarkapp/framemark-server/internal/store"
)

func newTestAuthService(t *testing.T) (*AuthService, *store.Store) {
	t.Helper()

	tokens, err := auth.NewTokenService(strings.Repeat("ab", 32), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	st := store.New()
	return NewAuthService(st, tokens, discardLogger()), st
}

func testDevice() auth.DeviceInfo {
	return auth.DeviceInfo{
		DeviceType: "desktop",
		Platform:   "macOS",
		DeviceName: "Edit Bay 2",
		ClientName: "FrameMark Desktop",
	}
}

func setupOperator(t *testing.T, svc *AuthService) *AuthResponse {
	t.Helper()

	resp, err := svc.Setup(context.Background(), SetupRequest{
		Email:       "editor@example.com",
		Password:    "correct horse battery",
		DisplayName: "Editor",
	})
	require.NoError(t, err)
	return resp
}

func TestAuthService_Setup(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	assert.False(t, svc.Status(ctx).SetupComplete)

	resp := setupOperator(t, svc)
	assert.Equal(t, "editor@example.com", resp.Operator.Email)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	assert.True(t, svc.Status(ctx).SetupComplete)

	// Setup runs exactly once.
	_, err := svc.Setup(ctx, SetupRequest{
		Email:       "second@example.com",
		Password:    "another password",
		DisplayName: "Second",
	})
	assert.True(t, errors.Is(err, errors.ErrAlreadyConfigured))
}

func TestAuthService_SetupValidation(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Setup(context.Background(), SetupRequest{
		Email:       "not-an-email",
		Password:    "long enough password",
		DisplayName: "Editor",
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = svc.Setup(context.Background(), SetupRequest{
		Email:       "editor@example.com",
		Password:    "short",
		DisplayName: "Editor",
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	setupOperator(t, svc)

	resp, err := svc.Login(ctx, LoginRequest{
		Email:      "editor@example.com",
		Password:   "correct horse battery",
		DeviceInfo: testDevice(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	claims, err := svc.VerifyAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.Operator.ID, claims.OperatorID)
	assert.Equal(t, "editor@example.com", claims.Email)
}

func TestAuthService_LoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	setupOperator(t, svc)

	// Wrong password and unknown email produce the same error.
	_, err := svc.Login(ctx, LoginRequest{
		Email:      "editor@example.com",
		Password:   "wrong password",
		DeviceInfo: testDevice(),
	})
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))

	_, err = svc.Login(ctx, LoginRequest{
		Email:      "stranger@example.com",
		Password:   "correct horse battery",
		DeviceInfo: testDevice(),
	})
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))
}

func TestAuthService_LoginRequiresDeviceInfo(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	setupOperator(t, svc)

	_, err := svc.Login(ctx, LoginRequest{
		Email:    "editor@example.com",
		Password: "correct horse battery",
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestAuthService_RefreshRotation(t *testing.T) {
	svc, st := newTestAuthService(t)
	ctx := context.Background()
	first := setupOperator(t, svc)

	second, err := svc.Refresh(ctx, RefreshRequest{
		RefreshToken: first.RefreshToken,
		DeviceInfo:   testDevice(),
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The rotated-out token is dead.
	_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: first.RefreshToken})
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))

	// Exactly one live session remains.
	assert.Len(t, st.ListRefreshSessions(ctx), 1)
}

func TestAuthService_RefreshExpired(t *testing.T) {
	svc, st := newTestAuthService(t)
	ctx := context.Background()
	resp := setupOperator(t, svc)

	// Force the session past its expiry.
	sessions := st.ListRefreshSessions(ctx)
	require.Len(t, sessions, 1)
	expired := sessions[0]
	require.NoError(t, st.DeleteRefreshSession(ctx, expired.ID))
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, st.CreateRefreshSession(ctx, expired))

	_, err := svc.Refresh(ctx, RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.True(t, errors.Is(err, errors.ErrTokenExpired))

	// The expired session was removed on the failed attempt.
	assert.Empty(t, st.ListRefreshSessions(ctx))
}

func TestAuthService_Logout(t *testing.T) {
	svc, st := newTestAuthService(t)
	ctx := context.Background()
	resp := setupOperator(t, svc)

	require.NoError(t, svc.Logout(ctx, resp.RefreshToken))
	assert.Empty(t, st.ListRefreshSessions(ctx))

	// Logging out twice is a no-op.
	require.NoError(t, svc.Logout(ctx, resp.RefreshToken))
}

func TestAuthService_VerifyAccessTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	setupOperator(t, svc)

	_, err := svc.VerifyAccessToken(ctx, "v4.local.garbage")
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))
}
