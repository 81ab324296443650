package service

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/padlockapp/padlock-server/internal/auth"
	"github.com/padlockapp/padlock-server/internal/domain"
	"github.com/padlockapp/padlock-server/internal/store/sqlite"
	"github.com/padlockapp/padlock-server/internal/vaultcrypt"
)

const testEncryptionKey = "0123456789abcdef0123456789abcdef"

// testEnv wires real services over a throwaway SQLite store.
type testEnv struct {
	store       *sqlite.Store
	sessions    *SessionService
	auth        *AuthService
	credentials *CredentialService
	sharing     *SharingService
	tags        *TagService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)
	tokenService, err := auth.NewTokenService(key, time.Hour)
	require.NoError(t, err)

	cipher, err := vaultcrypt.New(testEncryptionKey, false)
	require.NoError(t, err)

	env := &testEnv{store: s}
	env.sessions = NewSessionService(s, tokenService, logger)
	env.auth = NewAuthService(s, env.sessions, logger)
	env.credentials = NewCredentialService(s, cipher, logger)
	env.sharing = NewSharingService(s, env.credentials, logger)
	env.tags = NewTagService(s, env.credentials, logger)
	return env
}

// registerUser creates an account and returns the stored user.
func (env *testEnv) registerUser(t *testing.T, email string) *domain.User {
	t.Helper()
	resp, err := env.auth.Register(context.Background(), RegisterRequest{
		Name:     "Test User",
		Email:    email,
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)

	u, err := env.store.GetUser(context.Background(), resp.User.ID)
	require.NoError(t, err)
	return u
}

// createCredential stores a credential for the owner and returns it.
func (env *testEnv) createCredential(t *testing.T, ownerID, title, secret string) *domain.Credential {
	t.Helper()
	c, err := env.credentials.Create(context.Background(), ownerID, CreateCredentialRequest{
		Title:    title,
		Username: "alice",
		Password: secret,
		URL:      "https://example.com",
	})
	require.NoError(t, err)
	return c
}
