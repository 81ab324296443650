package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/padlockapp/padlock-server/internal/domain"
	"github.com/padlockapp/padlock-server/internal/id"
	"github.com/padlockapp/padlock-server/internal/store"
)

func createTestGrant(t *testing.T, s *Store, credentialID, recipientID string) *domain.ShareGrant {
	t.Helper()
	now := time.Now().UTC()
	g := &domain.ShareGrant{
		ID:           id.MustGenerate("grant"),
		CredentialID: credentialID,
		RecipientID:  recipientID,
	}
	g.CreatedAt = now
	g.UpdatedAt = now
	if err := s.CreateShareGrant(context.Background(), g); err != nil {
		t.Fatalf("create grant: %v", err)
	}
	return g
}

func TestCreateCredential_GetCredential(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "alice@example.com")
	c := createTestCredential(t, s, u.ID, "GitHub")

	got, err := s.GetCredential(ctx, c.ID)
	if err != nil {
		t.Fatalf("get credential: %v", err)
	}
	if got.Title != "GitHub" {
		t.Errorf("expected title GitHub, got %s", got.Title)
	}
	if got.OwnerID != u.ID {
		t.Errorf("expected owner %s, got %s", u.ID, got.OwnerID)
	}
	if got.Secret != c.Secret {
		t.Errorf("stored secret changed: %s", got.Secret)
	}
}

func TestGetCredential_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetCredential(context.Background(), "cred-nope")
	if err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListCredentialsByOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, s, "alice@example.com")
	bob := createTestUser(t, s, "bob@example.com")
	createTestCredential(t, s, alice.ID, "GitHub")
	createTestCredential(t, s, alice.ID, "GitLab")
	createTestCredential(t, s, bob.ID, "Bitbucket")

	creds, err := s.ListCredentialsByOwner(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list credentials: %v", err)
	}
	if len(creds) != 2 {
		t.Errorf("expected 2 credentials, got %d", len(creds))
	}
	for _, c := range creds {
		if c.OwnerID != alice.ID {
			t.Errorf("credential %s has wrong owner %s", c.ID, c.OwnerID)
		}
	}
}

func TestListCredentialsSharedWith(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, s, "alice@example.com")
	bob := createTestUser(t, s, "bob@example.com")
	shared := createTestCredential(t, s, alice.ID, "GitHub")
	createTestCredential(t, s, alice.ID, "GitLab") // not shared
	createTestGrant(t, s, shared.ID, bob.ID)

	got, err := s.ListCredentialsSharedWith(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list shared credentials: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 shared credential, got %d", len(got))
	}
	if got[0].ID != shared.ID {
		t.Errorf("expected credential %s, got %s", shared.ID, got[0].ID)
	}
	if got[0].SharedBy.ID != alice.ID || got[0].SharedBy.Email != "alice@example.com" {
		t.Errorf("unexpected owner info: %+v", got[0].SharedBy)
	}

	// Nothing shared with alice.
	none, err := s.ListCredentialsSharedWith(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list shared credentials: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected 0 shared credentials, got %d", len(none))
	}
}

func TestUpdateCredential_TouchesGrants(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, s, "alice@example.com")
	bob := createTestUser(t, s, "bob@example.com")
	c := createTestCredential(t, s, alice.ID, "GitHub")
	g := createTestGrant(t, s, c.ID, bob.ID)

	// Make the original grant timestamp clearly old.
	_, err := s.db.Exec(`UPDATE share_grants SET updated_at = ? WHERE id = ?`,
		formatTime(time.Now().Add(-time.Hour)), g.ID)
	if err != nil {
		t.Fatalf("backdate grant: %v", err)
	}

	c.Title = "GitHub (work)"
	c.Secret = "6566676865666768656667686566676835363738:696a6b6c696a6b6c"
	c.Touch()
	if err := s.UpdateCredential(ctx, c); err != nil {
		t.Fatalf("update credential: %v", err)
	}

	got, err := s.GetCredential(ctx, c.ID)
	if err != nil {
		t.Fatalf("get credential: %v", err)
	}
	if got.Title != "GitHub (work)" {
		t.Errorf("expected updated title, got %s", got.Title)
	}
	if got.Secret != c.Secret {
		t.Errorf("expected updated secret")
	}

	gotGrant, err := s.GetShareGrant(ctx, c.ID, bob.ID)
	if err != nil {
		t.Fatalf("get grant: %v", err)
	}
	if !gotGrant.UpdatedAt.After(time.Now().Add(-time.Minute)) {
		t.Errorf("expected grant touched, updated_at=%v", gotGrant.UpdatedAt)
	}
}

func TestUpdateCredential_NotFound(t *testing.T) {
	s := newTestStore(t)

	u := createTestUser(t, s, "alice@example.com")
	c := createTestCredential(t, s, u.ID, "GitHub")
	c.ID = "cred-ghost"
	err := s.UpdateCredential(context.Background(), c)
	if err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCredential_CascadesGrantsAndTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, s, "alice@example.com")
	bob := createTestUser(t, s, "bob@example.com")
	c := createTestCredential(t, s, alice.ID, "GitHub")
	createTestGrant(t, s, c.ID, bob.ID)

	tag, _, err := s.FindOrCreateTag(ctx, alice.ID, "work")
	if err != nil {
		t.Fatalf("find or create tag: %v", err)
	}
	if err := s.AddCredentialTag(ctx, c.ID, tag.ID); err != nil {
		t.Fatalf("add credential tag: %v", err)
	}

	if err := s.DeleteCredential(ctx, c.ID); err != nil {
		t.Fatalf("delete credential: %v", err)
	}

	if _, err := s.GetCredential(ctx, c.ID); err != store.ErrNotFound {
		t.Errorf("expected credential gone, got %v", err)
	}
	if _, err := s.GetShareGrant(ctx, c.ID, bob.ID); err != store.ErrNotFound {
		t.Errorf("expected grant cascaded, got %v", err)
	}
	tags, err := s.ListTagsForCredential(ctx, c.ID)
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("expected tag associations cascaded, got %d", len(tags))
	}
	// The tag itself survives; only the association goes.
	if _, err := s.GetTagByID(ctx, tag.ID); err != nil {
		t.Errorf("tag should survive credential delete: %v", err)
	}
}

func TestDeleteCredential_NoOrphansAcrossConnections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, s, "alice@example.com")
	bob := createTestUser(t, s, "bob@example.com")
	c := createTestCredential(t, s, alice.ID, "GitHub")
	createTestGrant(t, s, c.ID, bob.ID)

	tag, _, err := s.FindOrCreateTag(ctx, alice.ID, "work")
	if err != nil {
		t.Fatalf("find or create tag: %v", err)
	}
	if err := s.AddCredentialTag(ctx, c.ID, tag.ID); err != nil {
		t.Fatalf("add credential tag: %v", err)
	}

	// Hold a connection so the delete runs on a different pooled
	// connection than the one that did the setup. Dependent rows must
	// still go with the credential.
	pinned, err := s.db.Conn(ctx)
	if err != nil {
		t.Fatalf("pin connection: %v", err)
	}
	defer pinned.Close()

	if err := s.DeleteCredential(ctx, c.ID); err != nil {
		t.Fatalf("delete credential: %v", err)
	}

	var grants int
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM share_grants WHERE credential_id = ?`, c.ID).Scan(&grants); err != nil {
		t.Fatalf("count grants: %v", err)
	}
	if grants != 0 {
		t.Errorf("expected 0 orphaned share_grants rows, got %d", grants)
	}

	var assocs int
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM credential_tags WHERE credential_id = ?`, c.ID).Scan(&assocs); err != nil {
		t.Fatalf("count tag associations: %v", err)
	}
	if assocs != 0 {
		t.Errorf("expected 0 orphaned credential_tags rows, got %d", assocs)
	}
}

func TestDeleteCredential_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.DeleteCredential(context.Background(), "cred-nope")
	if err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
