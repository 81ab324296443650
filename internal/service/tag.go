package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/padlockapp/padlock-server/internal/domain"
	"github.com/padlockapp/padlock-server/internal/store"
	"github.com/padlockapp/padlock-server/internal/store/sqlite"
)

// TagService manages per-user tags and their credential associations.
// Tag names are scoped to their owner; attaching an existing name reuses
// the owner's tag instead of creating a duplicate.
type TagService struct {
	store       *sqlite.Store
	credentials *CredentialService
	logger      *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store *sqlite.Store, credentials *CredentialService, logger *slog.Logger) *TagService {
	return &TagService{
		store:       store,
		credentials: credentials,
		logger:      logger,
	}
}

// TagRequest names the tag to attach.
type TagRequest struct {
	Name string `json:"name" validate:"required"`
}

// AddTag attaches a tag to one of the caller's credentials, creating the
// tag under the caller's namespace if it doesn't exist yet. Attaching a
// tag that is already on the credential is a no-op.
func (s *TagService) AddTag(ctx context.Context, userID, credentialID string, req TagRequest) (*domain.Tag, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	if _, err := s.credentials.getOwned(ctx, userID, credentialID); err != nil {
		return nil, err
	}

	tag, created, err := s.store.FindOrCreateTag(ctx, userID, req.Name)
	if err != nil {
		return nil, fmt.Errorf("find or create tag: %w", err)
	}

	if err := s.store.AddCredentialTag(ctx, credentialID, tag.ID); err != nil {
		return nil, fmt.Errorf("attach tag: %w", err)
	}

	s.logger.Info("Tag added",
		"credential_id", credentialID,
		"tag_id", tag.ID,
		"created", created,
	)

	return tag, nil
}

// RemoveTag detaches a tag from one of the caller's credentials.
// Detaching a tag that isn't attached is a no-op; the tag itself is
// never deleted here.
func (s *TagService) RemoveTag(ctx context.Context, userID, credentialID, tagID string) error {
	if _, err := s.credentials.getOwned(ctx, userID, credentialID); err != nil {
		return err
	}

	if err := s.store.RemoveCredentialTag(ctx, credentialID, tagID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("detach tag: %w", err)
	}

	s.logger.Info("Tag removed", "credential_id", credentialID, "tag_id", tagID)

	return nil
}

// ListTags returns all of the caller's tags.
func (s *TagService) ListTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	tags, err := s.store.ListTagsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}
