package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/padlockapp/padlock-server/internal/store"
)

func TestCreateUser_GetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "alice@example.com")

	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Errorf("expected email alice@example.com, got %s", got.Email)
	}
	if got.PasswordHash != u.PasswordHash {
		t.Errorf("password hash mismatch")
	}
	if got.LastLoginAt != (time.Time{}) {
		t.Errorf("expected zero last login, got %v", got.LastLoginAt)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUser(context.Background(), "user-nope")
	if err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)

	u := createTestUser(t, s, "alice@example.com")

	dup := *u
	dup.ID = "user-other"
	dup.Email = "Alice@Example.com" // case-insensitive collision
	err := s.CreateUser(context.Background(), &dup)
	if err != store.ErrAlreadyExists {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	s := newTestStore(t)

	u := createTestUser(t, s, "Alice@Example.com")

	got, err := s.GetUserByEmail(context.Background(), "alice@example.COM")
	if err != nil {
		t.Fatalf("get user by email: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("expected user %s, got %s", u.ID, got.ID)
	}
	// Original casing is preserved.
	if got.Email != "Alice@Example.com" {
		t.Errorf("expected original email casing, got %s", got.Email)
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUserByEmail(context.Background(), "nobody@example.com")
	if err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	s := newTestStore(t)

	createTestUser(t, s, "alice@example.com")
	createTestUser(t, s, "bob@example.com")

	users, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}
}

func TestUpdateUser_LastLogin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createTestUser(t, s, "alice@example.com")

	loginAt := time.Now().UTC().Truncate(time.Millisecond)
	u.LastLoginAt = loginAt
	u.Touch()
	if err := s.UpdateUser(ctx, u); err != nil {
		t.Fatalf("update user: %v", err)
	}

	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !got.LastLoginAt.Equal(loginAt) {
		t.Errorf("expected last login %v, got %v", loginAt, got.LastLoginAt)
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	s := newTestStore(t)

	u := createTestUser(t, s, "alice@example.com")
	u.ID = "user-ghost"
	err := s.UpdateUser(context.Background(), u)
	if err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
