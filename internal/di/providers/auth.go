package providers

import (
	"encoding/hex"

	"github.com/samber/do/v2"

	"github.com/framemarkapp/framemark-server/internal/auth"
	"github.com/framemarkapp/framemark-server/internal/config"
	"github.com/framemarkapp/framemark-server/internal/logger"
)

// AuthKey is the PASETO signing key loaded from disk.
type AuthKey []byte

// ProvideAuthKey loads or generates the token signing key and stores it in
// the config for downstream consumers.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	cfg.Auth.AccessTokenKey = key
	log.Info("Auth key ready", "bytes", len(key))

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(
		hex.EncodeToString(key),
		cfg.Auth.AccessTokenDuration,
		cfg.Auth.RefreshTokenDuration,
	)
}
