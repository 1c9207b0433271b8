package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/framemarkapp/framemark-server/internal/auth"
	"github.com/framemarkapp/framemark-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getAuthStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/status",
		Summary:     "Setup status",
		Description: "Reports whether first-run setup has completed",
		Tags:        []string{"Auth"},
	}, s.handleAuthStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "setup",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/setup",
		Summary:     "First-run setup",
		Description: "Creates the operator account. Runs exactly once",
		Tags:        []string{"Auth"},
	}, s.handleSetup)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Log in",
		Description: "Authenticates the operator and starts a refresh session",
		Tags:        []string{"Auth"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Refresh tokens",
		Description: "Rotates a refresh token and mints a new access token",
		Tags:        []string{"Auth"},
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Log out",
		Description: "Revokes the presented refresh token",
		Tags:        []string{"Auth"},
	}, s.handleLogout)
}

// === DTOs ===

// AuthStatusOutput wraps the setup status for Huma.
type AuthStatusOutput struct {
	Body service.SetupStatus
}

// SetupRequest is the request body for first-run setup.
type SetupRequest struct {
	Email       string `json:"email" doc:"Operator email"`
	Password    string `json:"password" doc:"Operator password"`
	DisplayName string `json:"display_name" doc:"Display name"`
}

// SetupInput wraps the setup request for Huma.
type SetupInput struct {
	Body SetupRequest
}

// OperatorResponse contains operator data in API responses.
type OperatorResponse struct {
	ID          string    `json:"id" doc:"Operator ID"`
	Email       string    `json:"email" doc:"Operator email"`
	DisplayName string    `json:"display_name" doc:"Display name"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
}

// AuthResponse contains tokens and the operator record.
type AuthResponse struct {
	Operator     OperatorResponse `json:"operator" doc:"Operator record"`
	AccessToken  string           `json:"access_token" doc:"PASETO access token"`
	RefreshToken string           `json:"refresh_token" doc:"Opaque refresh token"`
	ExpiresAt    time.Time        `json:"expires_at" doc:"Access token expiry"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// DeviceInfoRequest describes the client device starting a session.
type DeviceInfoRequest struct {
	DeviceType string `json:"device_type" doc:"Device type (desktop, tablet, web)"`
	Platform   string `json:"platform" doc:"Operating system or browser"`
	DeviceName string `json:"device_name,omitempty" doc:"Human-readable device name"`
	ClientName string `json:"client_name,omitempty" doc:"Client application name"`
}

// LoginRequest is the request body for logging in.
type LoginRequest struct {
	Email      string            `json:"email" doc:"Operator email"`
	Password   string            `json:"password" doc:"Operator password"`
	DeviceInfo DeviceInfoRequest `json:"device_info" doc:"Client device information"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// RefreshRequest is the request body for rotating a refresh token.
type RefreshRequest struct {
	RefreshToken string            `json:"refresh_token" doc:"Refresh token to rotate"`
	DeviceInfo   DeviceInfoRequest `json:"device_info,omitempty" doc:"Updated device information"`
}

// RefreshInput wraps the refresh request for Huma.
type RefreshInput struct {
	Body RefreshRequest
}

// LogoutRequest is the request body for logging out.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" doc:"Refresh token to revoke"`
}

// LogoutInput wraps the logout request for Huma.
type LogoutInput struct {
	Body LogoutRequest
}

// LogoutResponse confirms a logout.
type LogoutResponse struct {
	LoggedOut bool `json:"logged_out" doc:"Always true on success"`
}

// LogoutOutput wraps the logout response for Huma.
type LogoutOutput struct {
	Body LogoutResponse
}

func deviceInfo(req DeviceInfoRequest) auth.DeviceInfo {
	return auth.DeviceInfo{
		DeviceType: req.DeviceType,
		Platform:   req.Platform,
		DeviceName: req.DeviceName,
		ClientName: req.ClientName,
	}
}

func authResponse(resp *service.AuthResponse) AuthResponse {
	return AuthResponse{
		Operator: OperatorResponse{
			ID:          resp.Operator.ID,
			Email:       resp.Operator.Email,
			DisplayName: resp.Operator.DisplayName,
			CreatedAt:   resp.Operator.CreatedAt,
		},
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
	}
}

// === Handlers ===

func (s *Server) handleAuthStatus(ctx context.Context, _ *struct{}) (*AuthStatusOutput, error) {
	return &AuthStatusOutput{Body: s.services.Auth.Status(ctx)}, nil
}

func (s *Server) handleSetup(ctx context.Context, input *SetupInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Setup(ctx, service.SetupRequest{
		Email:       input.Body.Email,
		Password:    input.Body.Password,
		DisplayName: input.Body.DisplayName,
	})
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: authResponse(resp)}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:      input.Body.Email,
		Password:   input.Body.Password,
		DeviceInfo: deviceInfo(input.Body.DeviceInfo),
	})
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: authResponse(resp)}, nil
}

func (s *Server) handleRefresh(ctx context.Context, input *RefreshInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Refresh(ctx, service.RefreshRequest{
		RefreshToken: input.Body.RefreshToken,
		DeviceInfo:   deviceInfo(input.Body.DeviceInfo),
	})
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: authResponse(resp)}, nil
}

func (s *Server) handleLogout(ctx context.Context, input *LogoutInput) (*LogoutOutput, error) {
	if err := s.services.Auth.Logout(ctx, input.Body.RefreshToken); err != nil {
		return nil, err
	}
	return &LogoutOutput{Body: LogoutResponse{LoggedOut: true}}, nil
}
