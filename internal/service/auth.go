package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/framemarkapp/framemark-server/internal/auth"
	"github.com/framemarkapp/framemark-server/internal/errors"
	"github.com/framemarkapp/framemark-server/internal/id"
	"github.com/framemarkapp/framemark-server/internal/store"
)

// AuthService handles operator authentication: first-run setup, login,
// refresh rotation, and logout. The server has exactly one operator
// account, created once via Setup.
type AuthService struct {
	store        *store.Store
	tokenService *auth.TokenService
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store *store.Store, tokenService *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		logger:       logger,
	}
}

// SetupRequest contains the initial operator account data.
type SetupRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=1024"`
	DisplayName string `json:"display_name" validate:"required,max=120"`
}

// LoginRequest contains operator credentials and device information.
type LoginRequest struct {
	Email      string          `json:"email" validate:"required,email"`
	Password   string          `json:"password" validate:"required"`
	DeviceInfo auth.DeviceInfo `json:"device_info"`
}

// RefreshRequest contains the refresh token and updated device info.
type RefreshRequest struct {
	RefreshToken string          `json:"refresh_token" validate:"required"`
	DeviceInfo   auth.DeviceInfo `json:"device_info"`
}

// AuthResponse contains tokens and the operator record.
type AuthResponse struct {
	Operator     store.Operator `json:"operator"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresAt    time.Time      `json:"expires_at"`
}

// SetupStatus reports whether first-run setup has happened.
type SetupStatus struct {
	SetupComplete bool `json:"setup_complete"`
}

// Status reports whether the operator account exists yet.
func (s *AuthService) Status(ctx context.Context) SetupStatus {
	return SetupStatus{SetupComplete: s.store.HasOperator(ctx)}
}

// Setup creates the operator account. It can only run once; a configured
// server rejects further setup attempts.
func (s *AuthService) Setup(ctx context.Context, req SetupRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	if s.store.HasOperator(ctx) {
		return nil, errors.AlreadyConfigured("server is already configured")
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	operatorID, err := id.Generate("op")
	if err != nil {
		return nil, fmt.Errorf("generate operator ID: %w", err)
	}

	op := store.Operator{
		ID:           operatorID,
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	if err := s.store.CreateOperator(ctx, op); err != nil {
		return nil, err
	}

	// Setup happens via the web UI, so record basic web device info.
	device := auth.DeviceInfo{
		DeviceType: "web",
		Platform:   "Web",
		ClientName: "FrameMark Web",
	}

	resp, err := s.issueTokens(ctx, op, device)
	if err != nil {
		return nil, err
	}

	s.logger.Info("server setup complete",
		"operator_id", operatorID,
		"email", op.Email,
	)

	return resp, nil
}

// Login authenticates the operator and starts a new refresh session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	if !req.DeviceInfo.IsValid() {
		return nil, errors.Validation("device_info is required (device_type and platform)")
	}

	op, err := s.store.GetOperatorByEmail(ctx, req.Email)
	if err != nil {
		// Don't leak whether the email matches.
		return nil, errors.InvalidCredentials("invalid email or password")
	}

	valid, err := auth.VerifyPassword(op.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, errors.InvalidCredentials("invalid email or password")
	}

	resp, err := s.issueTokens(ctx, op, req.DeviceInfo)
	if err != nil {
		return nil, err
	}

	s.logger.Info("operator logged in",
		"operator_id", op.ID,
		"device", req.DeviceInfo.Platform,
	)

	return resp, nil
}

// Refresh rotates a refresh token: the presented token is invalidated and
// a new session replaces it.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	tokenHash := auth.HashRefreshToken(req.RefreshToken)
	session, err := s.store.GetRefreshSessionByHash(ctx, tokenHash)
	if err != nil {
		return nil, errors.InvalidCredentials("invalid refresh token")
	}

	now := time.Now()
	if session.Expired(now) {
		_ = s.store.DeleteRefreshSession(ctx, session.ID)
		return nil, errors.TokenExpired("refresh token has expired")
	}

	op, err := s.store.GetOperator(ctx)
	if err != nil {
		return nil, err
	}

	// Rotation: the old session dies before the replacement is issued.
	if err := s.store.DeleteRefreshSession(ctx, session.ID); err != nil {
		return nil, err
	}

	device := session.Device
	if req.DeviceInfo.IsValid() {
		device = req.DeviceInfo
	}

	resp, err := s.issueTokens(ctx, op, device)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("refresh token rotated", "operator_id", op.ID)

	return resp, nil
}

// Logout revokes the refresh session for the presented token. Logging out
// an already-dead token is not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	tokenHash := auth.HashRefreshToken(refreshToken)
	if err := s.store.DeleteRefreshSessionByHash(ctx, tokenHash); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil
		}
		return err
	}

	s.logger.Info("operator logged out")
	return nil
}

// VerifyAccessToken validates a token and confirms the operator still
// exists. Used by the authentication middleware.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, errors.Unauthorized("invalid or expired token")
	}

	op, err := s.store.GetOperator(ctx)
	if err != nil || op.ID != claims.OperatorID {
		return nil, errors.Unauthorized("token does not match a known operator")
	}

	return claims, nil
}

// issueTokens mints an access token and a fresh refresh session.
func (s *AuthService) issueTokens(ctx context.Context, op store.Operator, device auth.DeviceInfo) (*AuthResponse, error) {
	accessToken, err := s.tokenService.GenerateAccessToken(op.ID, op.Email)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	sessionID, err := id.Generate("ref")
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	now := time.Now()
	session := store.RefreshSession{
		ID:         sessionID,
		OperatorID: op.ID,
		TokenHash:  auth.HashRefreshToken(refreshToken),
		Device:     device,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.tokenService.RefreshTokenDuration()),
		LastUsedAt: now,
	}
	if err := s.store.CreateRefreshSession(ctx, session); err != nil {
		return nil, err
	}

	return &AuthResponse{
		Operator:     op,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(s.tokenService.AccessTokenDuration()),
	}, nil
}
