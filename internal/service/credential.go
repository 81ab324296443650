package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/padlockapp/padlock-server/internal/domain"
	domainerrors "github.com/padlockapp/padlock-server/internal/errors"
	"github.com/padlockapp/padlock-server/internal/id"
	"github.com/padlockapp/padlock-server/internal/store"
	"github.com/padlockapp/padlock-server/internal/store/sqlite"
	"github.com/padlockapp/padlock-server/internal/vaultcrypt"
)

// CredentialService manages stored credentials: encryption at rest,
// ownership checks, and the combined owned/shared list view.
//
// Access rules are deliberately asymmetric: a grant gives the recipient
// read access to the secret, nothing else. Every write path requires
// ownership, and an owner mismatch reads as "not found" so probing
// other users' record IDs confirms nothing.
type CredentialService struct {
	store  *sqlite.Store
	cipher *vaultcrypt.Cipher
	logger *slog.Logger
}

// NewCredentialService creates a new credential service.
func NewCredentialService(store *sqlite.Store, cipher *vaultcrypt.Cipher, logger *slog.Logger) *CredentialService {
	return &CredentialService{
		store:  store,
		cipher: cipher,
		logger: logger,
	}
}

// CreateCredentialRequest contains a new credential's fields. Password is
// the plaintext secret; it is encrypted before it reaches the store.
type CreateCredentialRequest struct {
	Title    string `json:"title" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	URL      string `json:"url"`
	Notes    string `json:"notes"`
}

// UpdateCredentialRequest contains replacement fields for an existing credential.
type UpdateCredentialRequest struct {
	Title    string `json:"title" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	URL      string `json:"url"`
	Notes    string `json:"notes"`
}

// TagSummary is a tag as rendered in list entries.
type TagSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ShareRecipient is one recipient shown in an owned entry's sharedWith list.
type ShareRecipient struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// CredentialEntry is one row of the combined list view. Owned entries
// carry SharedWith; entries reached through a grant carry IsShared and
// SharedBy instead. The secret is never included either way.
type CredentialEntry struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Username   string           `json:"username"`
	URL        string           `json:"url,omitempty"`
	Tags       []TagSummary     `json:"tags"`
	SharedWith []ShareRecipient `json:"sharedWith,omitempty"`
	IsShared   bool             `json:"isShared"`
	SharedBy   *domain.SharedBy `json:"sharedBy,omitempty"`
}

// SecretResponse is the full record as returned from single-credential
// reads, secret included. Decrypted is false when the stored value did not
// parse as a cipher token and was passed through unchanged.
type SecretResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Username  string `json:"username"`
	URL       string `json:"url,omitempty"`
	Notes     string `json:"notes,omitempty"`
	Password  string `json:"password"`
	Decrypted bool   `json:"decrypted"`
}

// Create encrypts the secret and stores a new credential for the owner.
func (s *CredentialService) Create(ctx context.Context, ownerID string, req CreateCredentialRequest) (*domain.Credential, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	encrypted, err := s.cipher.Encrypt(req.Password)
	if err != nil {
		// Refusing the write beats storing plaintext.
		s.logger.Error("Failed to encrypt secret", "error", err)
		return nil, domainerrors.Internal("Failed to add password")
	}

	credentialID, err := id.Generate("cred")
	if err != nil {
		return nil, fmt.Errorf("generate credential ID: %w", err)
	}

	credential := &domain.Credential{
		ID:       credentialID,
		OwnerID:  ownerID,
		Title:    req.Title,
		Username: req.Username,
		Secret:   encrypted,
		URL:      req.URL,
		Notes:    req.Notes,
	}
	credential.InitTimestamps()

	if err := s.store.CreateCredential(ctx, credential); err != nil {
		return nil, fmt.Errorf("create credential: %w", err)
	}

	s.logger.Info("Credential created", "credential_id", credentialID, "user_id", ownerID)

	return credential, nil
}

// List returns the caller's combined view: credentials they own plus
// credentials shared with them, as one flat array.
func (s *CredentialService) List(ctx context.Context, userID string) ([]*CredentialEntry, error) {
	owned, err := s.store.ListCredentialsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list owned credentials: %w", err)
	}

	recipients, err := s.store.ListGrantRecipientsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list grant recipients: %w", err)
	}
	recipientsByCredential := make(map[string][]ShareRecipient)
	for _, r := range recipients {
		recipientsByCredential[r.CredentialID] = append(recipientsByCredential[r.CredentialID],
			ShareRecipient{UserID: r.UserID, Email: r.Email})
	}

	entries := make([]*CredentialEntry, 0, len(owned))
	for _, c := range owned {
		tags, err := s.store.ListTagsForCredential(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("list credential tags: %w", err)
		}
		entries = append(entries, &CredentialEntry{
			ID:         c.ID,
			Title:      c.Title,
			Username:   c.Username,
			URL:        c.URL,
			Tags:       tagSummaries(tags),
			SharedWith: recipientsByCredential[c.ID],
		})
	}

	shared, err := s.store.ListCredentialsSharedWith(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list shared credentials: %w", err)
	}
	for _, sc := range shared {
		tags, err := s.store.ListTagsForCredential(ctx, sc.ID)
		if err != nil {
			return nil, fmt.Errorf("list credential tags: %w", err)
		}
		sharedBy := sc.SharedBy
		entries = append(entries, &CredentialEntry{
			ID:       sc.ID,
			Title:    sc.Title,
			Username: sc.Username,
			URL:      sc.URL,
			Tags:     tagSummaries(tags),
			IsShared: true,
			SharedBy: &sharedBy,
		})
	}

	return entries, nil
}

// GetSecret returns the decrypted secret for a credential the caller may
// read: their own, or one shared with them. Anyone else gets "not found".
func (s *CredentialService) GetSecret(ctx context.Context, userID, credentialID string) (*SecretResponse, error) {
	credential, err := s.store.GetCredential(ctx, credentialID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("Password not found")
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}

	if !credential.IsOwnedBy(userID) {
		if _, err := s.store.GetShareGrant(ctx, credentialID, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, domainerrors.NotFound("Password not found")
			}
			return nil, fmt.Errorf("check share grant: %w", err)
		}
	}

	plaintext, decrypted := s.cipher.Decrypt(credential.Secret)
	if !decrypted {
		// Legacy or foreign data. Hand it back untouched rather than failing
		// the read; the caller sees exactly what was stored.
		s.logger.Warn("Stored secret is not a cipher token, passing through",
			"credential_id", credentialID)
	}

	return &SecretResponse{
		ID:        credential.ID,
		Title:     credential.Title,
		Username:  credential.Username,
		URL:       credential.URL,
		Notes:     credential.Notes,
		Password:  plaintext,
		Decrypted: decrypted,
	}, nil
}

// Update re-encrypts the secret and replaces the credential's fields.
// Owner only; share grants on the record get their updated_at stamped in
// the same transaction so recipients can see the record moved.
func (s *CredentialService) Update(ctx context.Context, userID, credentialID string, req UpdateCredentialRequest) (*domain.Credential, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	credential, err := s.getOwned(ctx, userID, credentialID)
	if err != nil {
		return nil, err
	}

	encrypted, err := s.cipher.Encrypt(req.Password)
	if err != nil {
		s.logger.Error("Failed to encrypt secret", "error", err)
		return nil, domainerrors.Internal("Failed to update password")
	}

	credential.Title = req.Title
	credential.Username = req.Username
	credential.Secret = encrypted
	credential.URL = req.URL
	credential.Notes = req.Notes
	credential.Touch()

	if err := s.store.UpdateCredential(ctx, credential); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("Password not found")
		}
		return nil, fmt.Errorf("update credential: %w", err)
	}

	s.logger.Info("Credential updated", "credential_id", credentialID, "user_id", userID)

	return credential, nil
}

// Delete removes a credential. Owner only. Grants and tag associations go
// with it, so recipients lose access the moment the row disappears.
func (s *CredentialService) Delete(ctx context.Context, userID, credentialID string) error {
	if _, err := s.getOwned(ctx, userID, credentialID); err != nil {
		return err
	}

	if err := s.store.DeleteCredential(ctx, credentialID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("Password not found")
		}
		return fmt.Errorf("delete credential: %w", err)
	}

	s.logger.Info("Credential deleted", "credential_id", credentialID, "user_id", userID)

	return nil
}

// getOwned loads a credential and verifies ownership. A missing record and
// someone else's record produce the identical NotFound.
func (s *CredentialService) getOwned(ctx context.Context, userID, credentialID string) (*domain.Credential, error) {
	credential, err := s.store.GetCredential(ctx, credentialID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("Password not found")
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	if !credential.IsOwnedBy(userID) {
		return nil, domainerrors.NotFound("Password not found")
	}
	return credential, nil
}

func tagSummaries(tags []*domain.Tag) []TagSummary {
	out := make([]TagSummary, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagSummary{ID: t.ID, Name: t.Name})
	}
	return out
}
