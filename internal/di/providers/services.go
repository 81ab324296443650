package providers

import (
	"github.com/samber/do/v2"

	"github.com/padlockapp/padlock-server/internal/auth"
	"github.com/padlockapp/padlock-server/internal/logger"
	"github.com/padlockapp/padlock-server/internal/service"
	"github.com/padlockapp/padlock-server/internal/vaultcrypt"
)

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, sessionService, log.Logger), nil
}

// ProvideCredentialService provides the credential vault service.
func ProvideCredentialService(i do.Injector) (*service.CredentialService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cipher := do.MustInvoke[*vaultcrypt.Cipher](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCredentialService(storeHandle.Store, cipher, log.Logger), nil
}

// ProvideSharingService provides the sharing service.
func ProvideSharingService(i do.Injector) (*service.SharingService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	credentialService := do.MustInvoke[*service.CredentialService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSharingService(storeHandle.Store, credentialService, log.Logger), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	credentialService := do.MustInvoke[*service.CredentialService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, credentialService, log.Logger), nil
}
