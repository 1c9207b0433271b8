package auth

import (
	"time"
)

// AccessClaims represents the claims stored in a PASETO access token.
// These are encrypted in v4.local tokens, so they're not readable without the key.
type AccessClaims struct {
	OperatorID string `json:"operator_id"`
	Email      string `json:"email"`

	// Standard PASETO claims
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// DeviceInfo represents information sent by the client about itself.
// Stored alongside refresh sessions for display and revocation.
type DeviceInfo struct {
	DeviceType string `json:"device_type"` // desktop, web, tablet
	Platform   string `json:"platform"`    // macOS, Windows, Linux, Web
	DeviceName string `json:"device_name"` // Edit Bay 2, Producer Laptop
	ClientName string `json:"client_name"` // FrameMark Desktop, FrameMark Web
}

// IsValid performs basic validation on the device info.
func (d DeviceInfo) IsValid() bool {
	// At minimum, we need device type and platform
	return d.DeviceType != "" && d.Platform != ""
}
