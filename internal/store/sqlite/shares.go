package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/padlockapp/padlock-server/internal/domain"
	"github.com/padlockapp/padlock-server/internal/store"
)

// shareGrantColumns is the ordered list of columns selected in grant queries.
// Must match the scan order in scanShareGrant.
const shareGrantColumns = `id, credential_id, user_id, created_at, updated_at`

// scanShareGrant scans a sql.Row (or sql.Rows via its Scan method) into a domain.ShareGrant.
func scanShareGrant(scanner interface{ Scan(dest ...any) error }) (*domain.ShareGrant, error) {
	var g domain.ShareGrant

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&g.ID,
		&g.CredentialID,
		&g.RecipientID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	g.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	g.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &g, nil
}

// CreateShareGrant inserts a new share grant.
// Returns store.ErrAlreadyExists if the (credential, recipient) pair already
// has a grant; two racing shares resolve here, not in a precheck.
func (s *Store) CreateShareGrant(ctx context.Context, g *domain.ShareGrant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO share_grants (id, credential_id, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		g.ID,
		g.CredentialID,
		g.RecipientID,
		formatTime(g.CreatedAt),
		formatTime(g.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetShareGrant retrieves the grant for a (credential, recipient) pair.
// Returns store.ErrNotFound if no grant exists.
func (s *Store) GetShareGrant(ctx context.Context, credentialID, recipientID string) (*domain.ShareGrant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+shareGrantColumns+` FROM share_grants WHERE credential_id = ? AND user_id = ?`,
		credentialID, recipientID)

	g, err := scanShareGrant(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// DeleteShareGrant removes the grant for a (credential, recipient) pair.
// Returns store.ErrNotFound if no grant exists.
func (s *Store) DeleteShareGrant(ctx context.Context, credentialID, recipientID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM share_grants WHERE credential_id = ? AND user_id = ?`,
		credentialID, recipientID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListGrantsByCredential returns all grants on a credential, oldest first.
func (s *Store) ListGrantsByCredential(ctx context.Context, credentialID string) ([]*domain.ShareGrant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+shareGrantColumns+` FROM share_grants WHERE credential_id = ? ORDER BY created_at ASC`,
		credentialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []*domain.ShareGrant
	for rows.Next() {
		g, err := scanShareGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return grants, nil
}

// ListGrantRecipientsByOwner returns, for every credential owned by the given
// user, the recipients its grants point at. One query feeds the whole
// "shared with" column of the owner's list view.
func (s *Store) ListGrantRecipientsByOwner(ctx context.Context, ownerID string) ([]*domain.GrantRecipient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.credential_id, u.id, u.email
		FROM share_grants g
		JOIN credentials c ON c.id = g.credential_id
		JOIN users u ON u.id = g.user_id
		WHERE c.user_id = ?
		ORDER BY g.created_at ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []*domain.GrantRecipient
	for rows.Next() {
		var r domain.GrantRecipient
		if err := rows.Scan(&r.CredentialID, &r.UserID, &r.Email); err != nil {
			return nil, err
		}
		recipients = append(recipients, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recipients, nil
}
