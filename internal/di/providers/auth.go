package providers

import (
	"github.com/samber/do/v2"

	"github.com/padlockapp/padlock-server/internal/auth"
	"github.com/padlockapp/padlock-server/internal/config"
	"github.com/padlockapp/padlock-server/internal/logger"
	"github.com/padlockapp/padlock-server/internal/vaultcrypt"
)

// AuthKey wraps the session token key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the session token key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.TokenKeyPath())
	if err != nil {
		return nil, err
	}

	cfg.Auth.SessionTokenKey = key

	log.Info("Session token key loaded",
		"session_token_duration", cfg.Auth.SessionTokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO session token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService([]byte(authKey), cfg.Auth.SessionTokenDuration)
}

// ProvideCipher provides the vault cipher that encrypts stored secrets.
func ProvideCipher(i do.Injector) (*vaultcrypt.Cipher, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	cipher, err := vaultcrypt.New(cfg.Vault.EncryptionKey, cfg.Vault.LegacyKeyCompat)
	if err != nil {
		return nil, err
	}

	if cfg.Vault.LegacyKeyCompat {
		log.Warn("Running with legacy key compatibility; migrate to a full-length encryption key")
	}

	return cipher, nil
}
