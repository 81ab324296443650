package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/padlockapp/padlock-server/internal/domain"
	domainerrors "github.com/padlockapp/padlock-server/internal/errors"
	"github.com/padlockapp/padlock-server/internal/store"
	"github.com/padlockapp/padlock-server/internal/store/sqlite"
)

// SharingService manages read-only share grants between users.
// Only the owner of a credential can grant or revoke access to it.
type SharingService struct {
	store       *sqlite.Store
	credentials *CredentialService
	logger      *slog.Logger
}

// NewSharingService creates a new sharing service.
func NewSharingService(store *sqlite.Store, credentials *CredentialService, logger *slog.Logger) *SharingService {
	return &SharingService{
		store:       store,
		credentials: credentials,
		logger:      logger,
	}
}

// ShareRequest names the credential and the recipient's email.
type ShareRequest struct {
	PasswordID string `json:"passwordId" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
}

// ShareResponse contains the created grant.
type ShareResponse struct {
	Message     string             `json:"message"`
	SharedGrant *domain.ShareGrant `json:"sharedPassword"`
}

// RevokeRequest names the credential and the recipient whose grant to remove.
type RevokeRequest struct {
	PasswordID       string `json:"passwordId" validate:"required"`
	SharedWithUserID string `json:"sharedWithUserId" validate:"required"`
}

// Share grants the user behind the given email read access to one of the
// caller's credentials.
func (s *SharingService) Share(ctx context.Context, ownerID string, req ShareRequest) (*ShareResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	// Ownership first: a non-owner learns nothing, not even that the
	// credential exists.
	if _, err := s.credentials.getOwned(ctx, ownerID, req.PasswordID); err != nil {
		return nil, err
	}

	recipient, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("User not found")
		}
		return nil, fmt.Errorf("lookup recipient: %w", err)
	}

	if recipient.ID == ownerID {
		return nil, domainerrors.Validation("Cannot share a password with yourself")
	}

	// Precheck for the friendly message. The unique constraint below is
	// what actually guarantees at most one grant per pair.
	if _, err := s.store.GetShareGrant(ctx, req.PasswordID, recipient.ID); err == nil {
		return nil, domainerrors.Validation("Password already shared with this user")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check existing grant: %w", err)
	}

	grant := &domain.ShareGrant{
		ID:           uuid.New().String(),
		CredentialID: req.PasswordID,
		RecipientID:  recipient.ID,
	}
	grant.InitTimestamps()

	if err := s.store.CreateShareGrant(ctx, grant); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a race with a concurrent share of the same pair.
			return nil, domainerrors.Validation("Password already shared with this user")
		}
		return nil, fmt.Errorf("create share grant: %w", err)
	}

	s.logger.Info("Credential shared",
		"credential_id", req.PasswordID,
		"owner_id", ownerID,
		"recipient_id", recipient.ID,
	)

	return &ShareResponse{
		Message:     "Password shared successfully",
		SharedGrant: grant,
	}, nil
}

// Revoke removes a recipient's grant on one of the caller's credentials.
func (s *SharingService) Revoke(ctx context.Context, ownerID string, req RevokeRequest) error {
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}

	if _, err := s.credentials.getOwned(ctx, ownerID, req.PasswordID); err != nil {
		return err
	}

	if err := s.store.DeleteShareGrant(ctx, req.PasswordID, req.SharedWithUserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("No shared password entry found to revoke")
		}
		return fmt.Errorf("delete share grant: %w", err)
	}

	s.logger.Info("Share revoked",
		"credential_id", req.PasswordID,
		"owner_id", ownerID,
		"recipient_id", req.SharedWithUserID,
	)

	return nil
}
