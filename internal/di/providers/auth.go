package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookhaven/bookhaven-server/internal/auth"
	"github.com/bookhaven/bookhaven-server/internal/config"
	"github.com/bookhaven/bookhaven-server/internal/logger"
)

// AuthKey wraps the token encryption key bytes.
type AuthKey []byte

// ProvideAuthKey resolves the token key from TOKEN_SECRET or the key file
// under the data path.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.ResolveKey(cfg.Auth.TokenSecret, cfg.Storage.DataPath)
	if err != nil {
		return nil, err
	}
	cfg.Auth.TokenKey = key

	source := "key file"
	if cfg.Auth.TokenSecret != "" {
		source = "TOKEN_SECRET"
	}
	log.Info("Token key loaded", "source", source, "token_ttl", cfg.Auth.TokenTTL)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(key, cfg.Auth.TokenTTL)
}
