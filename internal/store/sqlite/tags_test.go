package sqlite

import (
	"context"
	"testing"

	"github.com/padlockapp/padlock-server/internal/store"
)

func TestFindOrCreateTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "alice@example.com")

	tag, created, err := s.FindOrCreateTag(ctx, u.ID, "work")
	if err != nil {
		t.Fatalf("find or create tag: %v", err)
	}
	if !created {
		t.Errorf("expected created=true on first call")
	}
	if tag.Name != "work" || tag.OwnerID != u.ID {
		t.Errorf("unexpected tag: %+v", tag)
	}

	again, created, err := s.FindOrCreateTag(ctx, u.ID, "work")
	if err != nil {
		t.Fatalf("find or create tag again: %v", err)
	}
	if created {
		t.Errorf("expected created=false on second call")
	}
	if again.ID != tag.ID {
		t.Errorf("expected same tag %s, got %s", tag.ID, again.ID)
	}
}

func TestFindOrCreateTag_PerOwnerNamespace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, s, "alice@example.com")
	bob := createTestUser(t, s, "bob@example.com")

	aliceTag, _, err := s.FindOrCreateTag(ctx, alice.ID, "work")
	if err != nil {
		t.Fatalf("alice tag: %v", err)
	}
	bobTag, created, err := s.FindOrCreateTag(ctx, bob.ID, "work")
	if err != nil {
		t.Fatalf("bob tag: %v", err)
	}
	if !created {
		t.Errorf("expected bob's work tag to be new")
	}
	if aliceTag.ID == bobTag.ID {
		t.Errorf("tags should be distinct across owners")
	}
}

func TestCreateTag_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "alice@example.com")
	tag, _, err := s.FindOrCreateTag(ctx, u.ID, "work")
	if err != nil {
		t.Fatalf("find or create tag: %v", err)
	}

	dup := *tag
	dup.ID = "tag-other"
	if err := s.CreateTag(ctx, &dup); err != store.ErrAlreadyExists {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestAddCredentialTag_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "alice@example.com")
	c := createTestCredential(t, s, u.ID, "GitHub")
	tag, _, err := s.FindOrCreateTag(ctx, u.ID, "work")
	if err != nil {
		t.Fatalf("find or create tag: %v", err)
	}

	if err := s.AddCredentialTag(ctx, c.ID, tag.ID); err != nil {
		t.Fatalf("add credential tag: %v", err)
	}
	// Re-adding is a no-op, not an error.
	if err := s.AddCredentialTag(ctx, c.ID, tag.ID); err != nil {
		t.Fatalf("re-add credential tag: %v", err)
	}

	tags, err := s.ListTagsForCredential(ctx, c.ID)
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if len(tags) != 1 {
		t.Errorf("expected 1 tag, got %d", len(tags))
	}
}

func TestRemoveCredentialTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "alice@example.com")
	c := createTestCredential(t, s, u.ID, "GitHub")
	tag, _, err := s.FindOrCreateTag(ctx, u.ID, "work")
	if err != nil {
		t.Fatalf("find or create tag: %v", err)
	}
	if err := s.AddCredentialTag(ctx, c.ID, tag.ID); err != nil {
		t.Fatalf("add credential tag: %v", err)
	}

	if err := s.RemoveCredentialTag(ctx, c.ID, tag.ID); err != nil {
		t.Fatalf("remove credential tag: %v", err)
	}

	tags, err := s.ListTagsForCredential(ctx, c.ID)
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("expected 0 tags, got %d", len(tags))
	}

	// Removing again reports not found.
	if err := s.RemoveCredentialTag(ctx, c.ID, tag.ID); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListTagsByOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "alice@example.com")
	other := createTestUser(t, s, "bob@example.com")
	for _, name := range []string{"work", "banking", "personal"} {
		if _, _, err := s.FindOrCreateTag(ctx, u.ID, name); err != nil {
			t.Fatalf("create tag %s: %v", name, err)
		}
	}
	if _, _, err := s.FindOrCreateTag(ctx, other.ID, "work"); err != nil {
		t.Fatalf("create bob tag: %v", err)
	}

	tags, err := s.ListTagsByOwner(ctx, u.ID)
	if err != nil {
		t.Fatalf("list tags by owner: %v", err)
	}
	if len(tags) != 3 {
		t.Fatalf("expected 3 tags, got %d", len(tags))
	}
	// Ordered by name.
	if tags[0].Name != "banking" || tags[1].Name != "personal" || tags[2].Name != "work" {
		t.Errorf("unexpected order: %s, %s, %s", tags[0].Name, tags[1].Name, tags[2].Name)
	}
}
