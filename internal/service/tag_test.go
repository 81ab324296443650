package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/padlockapp/padlock-server/internal/errors"
)

func TestAddTag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice@example.com")
	c := env.createCredential(t, alice.ID, "GitHub", "hunter2")

	tag, err := env.tags.AddTag(ctx, alice.ID, c.ID, TagRequest{Name: "work"})
	require.NoError(t, err)
	assert.Equal(t, "work", tag.Name)
	assert.Equal(t, alice.ID, tag.OwnerID)

	entries, err := env.credentials.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Tags, 1)
	assert.Equal(t, "work", entries[0].Tags[0].Name)
}

func TestAddTag_ReusesExisting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice@example.com")
	a := env.createCredential(t, alice.ID, "GitHub", "hunter2")
	b := env.createCredential(t, alice.ID, "GitLab", "hunter3")

	first, err := env.tags.AddTag(ctx, alice.ID, a.ID, TagRequest{Name: "work"})
	require.NoError(t, err)
	second, err := env.tags.AddTag(ctx, alice.ID, b.ID, TagRequest{Name: "work"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	tags, err := env.tags.ListTags(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestAddTag_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice@example.com")
	c := env.createCredential(t, alice.ID, "GitHub", "hunter2")

	_, err := env.tags.AddTag(ctx, alice.ID, c.ID, TagRequest{Name: "work"})
	require.NoError(t, err)
	_, err = env.tags.AddTag(ctx, alice.ID, c.ID, TagRequest{Name: "work"})
	require.NoError(t, err)

	entries, err := env.credentials.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].Tags, 1)
}

func TestAddTag_PerUserNamespace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice@example.com")
	bob := env.registerUser(t, "bob@example.com")
	ac := env.createCredential(t, alice.ID, "GitHub", "hunter2")
	bc := env.createCredential(t, bob.ID, "GitHub", "swordfish")

	at, err := env.tags.AddTag(ctx, alice.ID, ac.ID, TagRequest{Name: "work"})
	require.NoError(t, err)
	bt, err := env.tags.AddTag(ctx, bob.ID, bc.ID, TagRequest{Name: "work"})
	require.NoError(t, err)

	// Same name, separate tags: each user owns their own.
	assert.NotEqual(t, at.ID, bt.ID)
}

func TestAddTag_NonOwnerDenied(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice@example.com")
	bob := env.registerUser(t, "bob@example.com")
	c := env.createCredential(t, alice.ID, "GitHub", "hunter2")

	// Even with a grant, recipients cannot tag someone else's credential.
	_, err := env.sharing.Share(ctx, alice.ID, ShareRequest{
		PasswordID: c.ID,
		Email:      "bob@example.com",
	})
	require.NoError(t, err)

	_, err = env.tags.AddTag(ctx, bob.ID, c.ID, TagRequest{Name: "stolen"})
	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeNotFound, derr.Code)
	assert.Equal(t, "Password not found", derr.Message)
}

func TestRemoveTag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice@example.com")
	c := env.createCredential(t, alice.ID, "GitHub", "hunter2")

	tag, err := env.tags.AddTag(ctx, alice.ID, c.ID, TagRequest{Name: "work"})
	require.NoError(t, err)

	require.NoError(t, env.tags.RemoveTag(ctx, alice.ID, c.ID, tag.ID))

	entries, err := env.credentials.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Tags)

	// The tag itself survives for reuse elsewhere.
	tags, err := env.tags.ListTags(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	// Removing an association that's already gone is a no-op.
	require.NoError(t, env.tags.RemoveTag(ctx, alice.ID, c.ID, tag.ID))
}

func TestRemoveTag_NonOwnerDenied(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.registerUser(t, "alice@example.com")
	bob := env.registerUser(t, "bob@example.com")
	c := env.createCredential(t, alice.ID, "GitHub", "hunter2")

	tag, err := env.tags.AddTag(ctx, alice.ID, c.ID, TagRequest{Name: "work"})
	require.NoError(t, err)

	err = env.tags.RemoveTag(ctx, bob.ID, c.ID, tag.ID)
	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "Password not found", derr.Message)
}

func TestAddTag_Validation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice@example.com")
	c := env.createCredential(t, alice.ID, "GitHub", "hunter2")

	_, err := env.tags.AddTag(context.Background(), alice.ID, c.ID, TagRequest{})
	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeValidation, derr.Code)
}
