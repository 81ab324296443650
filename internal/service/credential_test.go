package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/padlockapp/padlock-server/internal/errors"
)

func TestCredentialCreate_EncryptsAtRest(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice@example.com")

	c := env.createCredential(t, alice.ID, "GitHub", "hunter2")

	// The stored secret is a cipher token, not the plaintext.
	stored, err := env.store.GetCredential(context.Background(), c.ID)
	require.NoError(t, err)
	assert.NotContains(t, stored.Secret, "hunter2")
	parts := strings.SplitN(stored.Secret, ":", 2)
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], 32) // 16-byte IV, hex-encoded

	// And it decrypts back on read.
	secret, err := env.credentials.GetSecret(context.Background(), alice.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", secret.Password)
	assert.True(t, secret.Decrypted)
}

func TestCredentialCreate_Validation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice@example.com")

	_, err := env.credentials.Create(context.Background(), alice.ID, CreateCredentialRequest{
		Title:    "GitHub",
		Username: "alice",
		// Password missing
	})
	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeValidation, derr.Code)
}

func TestCredentialGetSecret_Passthrough(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice@example.com")
	c := env.createCredential(t, alice.ID, "Legacy", "placeholder")

	// Simulate pre-encryption data written by an older deployment.
	c.Secret = "plain-old-secret"
	c.Touch()
	require.NoError(t, env.store.UpdateCredential(context.Background(), c))

	secret, err := env.credentials.GetSecret(context.Background(), alice.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "plain-old-secret", secret.Password)
	assert.False(t, secret.Decrypted)
}

func TestCredentialGetSecret_OwnershipIsolation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice@example.com")
	bob := env.registerUser(t, "bob@example.com")
	c := env.createCredential(t, alice.ID, "GitHub", "hunter2")

	// Bob has no grant; he gets the same 404 as for a missing record.
	_, err := env.credentials.GetSecret(context.Background(), bob.ID, c.ID)
	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeNotFound, derr.Code)
	assert.Equal(t, "Password not found", derr.Message)

	_, err = env.credentials.GetSecret(context.Background(), bob.ID, "cred-missing")
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "Password not found", derr.Message)
}

func TestCredentialList_NoSecrets(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice@example.com")
	env.createCredential(t, alice.ID, "GitHub", "hunter2")
	env.createCredential(t, alice.ID, "GitLab", "hunter3")

	entries, err := env.credentials.List(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.False(t, e.IsShared)
		assert.Nil(t, e.SharedBy)
		assert.NotEmpty(t, e.Title)
	}
}

func TestCredentialList_CombinedView(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice@example.com")
	bob := env.registerUser(t, "bob@example.com")

	mine := env.createCredential(t, alice.ID, "GitHub", "hunter2")
	theirs := env.createCredential(t, bob.ID, "Bitbucket", "swordfish")
	_, err := env.sharing.Share(context.Background(), bob.ID, ShareRequest{
		PasswordID: theirs.ID,
		Email:      "alice@example.com",
	})
	require.NoError(t, err)

	entries, err := env.credentials.List(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byID := map[string]*CredentialEntry{}
	for _, e := range entries {
		byID[e.ID] = e
	}

	owned := byID[mine.ID]
	require.NotNil(t, owned)
	assert.False(t, owned.IsShared)
	assert.Nil(t, owned.SharedBy)

	shared := byID[theirs.ID]
	require.NotNil(t, shared)
	assert.True(t, shared.IsShared)
	require.NotNil(t, shared.SharedBy)
	assert.Equal(t, bob.ID, shared.SharedBy.ID)
	assert.Equal(t, "bob@example.com", shared.SharedBy.Email)
}

func TestCredentialList_SharedWithRecipients(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice@example.com")
	env.registerUser(t, "bob@example.com")
	env.registerUser(t, "carol@example.com")

	c := env.createCredential(t, alice.ID, "GitHub", "hunter2")
	for _, email := range []string{"bob@example.com", "carol@example.com"} {
		_, err := env.sharing.Share(context.Background(), alice.ID, ShareRequest{
			PasswordID: c.ID,
			Email:      email,
		})
		require.NoError(t, err)
	}

	entries, err := env.credentials.List(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Len(t, entries[0].SharedWith, 2)

	emails := []string{entries[0].SharedWith[0].Email, entries[0].SharedWith[1].Email}
	assert.Contains(t, emails, "bob@example.com")
	assert.Contains(t, emails, "carol@example.com")
}

func TestCredentialUpdate_ReEncrypts(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice@example.com")
	c := env.createCredential(t, alice.ID, "GitHub", "hunter2")
	before, err := env.store.GetCredential(context.Background(), c.ID)
	require.NoError(t, err)

	updated, err := env.credentials.Update(context.Background(), alice.ID, c.ID, UpdateCredentialRequest{
		Title:    "GitHub (work)",
		Username: "alice-work",
		Password: "hunter3",
		URL:      "https://github.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "GitHub (work)", updated.Title)
	assert.NotEqual(t, before.Secret, updated.Secret)

	secret, err := env.credentials.GetSecret(context.Background(), alice.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "hunter3", secret.Password)
	assert.True(t, secret.Decrypted)
}

func TestCredentialUpdate_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice@example.com")
	bob := env.registerUser(t, "bob@example.com")
	c := env.createCredential(t, alice.ID, "GitHub", "hunter2")

	// Even a share grant doesn't confer write access.
	_, err := env.sharing.Share(context.Background(), alice.ID, ShareRequest{
		PasswordID: c.ID,
		Email:      "bob@example.com",
	})
	require.NoError(t, err)

	_, err = env.credentials.Update(context.Background(), bob.ID, c.ID, UpdateCredentialRequest{
		Title:    "Hijacked",
		Username: "bob",
		Password: "gotcha",
	})
	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeNotFound, derr.Code)
	assert.Equal(t, "Password not found", derr.Message)

	// The record is untouched.
	stored, err := env.store.GetCredential(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "GitHub", stored.Title)
}

func TestCredentialUpdate_TouchesGrants(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice@example.com")
	env.registerUser(t, "bob@example.com")
	c := env.createCredential(t, alice.ID, "GitHub", "hunter2")

	resp, err := env.sharing.Share(context.Background(), alice.ID, ShareRequest{
		PasswordID: c.ID,
		Email:      "bob@example.com",
	})
	require.NoError(t, err)
	grantBefore := resp.SharedGrant.UpdatedAt

	time.Sleep(5 * time.Millisecond)
	_, err = env.credentials.Update(context.Background(), alice.ID, c.ID, UpdateCredentialRequest{
		Title:    "GitHub",
		Username: "alice",
		Password: "hunter3",
	})
	require.NoError(t, err)

	grants, err := env.store.ListGrantsByCredential(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.True(t, grants[0].UpdatedAt.After(grantBefore))
}

func TestCredentialDelete(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice@example.com")
	c := env.createCredential(t, alice.ID, "GitHub", "hunter2")

	require.NoError(t, env.credentials.Delete(context.Background(), alice.ID, c.ID))

	_, err := env.credentials.GetSecret(context.Background(), alice.ID, c.ID)
	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeNotFound, derr.Code)
}

func TestCredentialDelete_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice@example.com")
	bob := env.registerUser(t, "bob@example.com")
	c := env.createCredential(t, alice.ID, "GitHub", "hunter2")

	err := env.credentials.Delete(context.Background(), bob.ID, c.ID)
	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "Password not found", derr.Message)

	_, err = env.store.GetCredential(context.Background(), c.ID)
	require.NoError(t, err)
}
