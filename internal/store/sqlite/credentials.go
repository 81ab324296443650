package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/padlockapp/padlock-server/internal/domain"
	"github.com/padlockapp/padlock-server/internal/store"
)

// credentialColumns is the ordered list of columns selected in credential queries.
// Must match the scan order in scanCredential.
const credentialColumns = `id, user_id, title, username, secret, url, notes, created_at, updated_at`

// scanCredential scans a sql.Row (or sql.Rows via its Scan method) into a domain.Credential.
func scanCredential(scanner interface{ Scan(dest ...any) error }) (*domain.Credential, error) {
	var c domain.Credential

	var createdAt, updatedAt string

	err := scanner.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Title,
		&c.Username,
		&c.Secret,
		&c.URL,
		&c.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	c.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// CreateCredential inserts a new credential into the database.
// Returns store.ErrAlreadyExists if the credential ID already exists.
func (s *Store) CreateCredential(ctx context.Context, c *domain.Credential) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (id, user_id, title, username, secret, url, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.OwnerID,
		c.Title,
		c.Username,
		c.Secret,
		c.URL,
		c.Notes,
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetCredential retrieves a credential by ID.
// Returns store.ErrNotFound if the credential does not exist.
func (s *Store) GetCredential(ctx context.Context, id string) (*domain.Credential, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE id = ?`, id)

	c, err := scanCredential(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCredentialsByOwner returns all credentials owned by the given user,
// newest first.
func (s *Store) ListCredentialsByOwner(ctx context.Context, ownerID string) ([]*domain.Credential, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE user_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creds []*domain.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return creds, nil
}

// ListCredentialsSharedWith returns all credentials shared with the given
// user, joined with the owner's identity, newest grant first.
func (s *Store) ListCredentialsSharedWith(ctx context.Context, userID string) ([]*domain.SharedCredential, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.title, c.username, c.secret, c.url, c.notes, c.created_at, c.updated_at,
			u.id, u.email
		FROM share_grants g
		JOIN credentials c ON c.id = g.credential_id
		JOIN users u ON u.id = c.user_id
		WHERE g.user_id = ?
		ORDER BY g.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shared []*domain.SharedCredential
	for rows.Next() {
		var sc domain.SharedCredential
		var createdAt, updatedAt string
		err := rows.Scan(
			&sc.ID,
			&sc.OwnerID,
			&sc.Title,
			&sc.Username,
			&sc.Secret,
			&sc.URL,
			&sc.Notes,
			&createdAt,
			&updatedAt,
			&sc.SharedBy.ID,
			&sc.SharedBy.Email,
		)
		if err != nil {
			return nil, err
		}
		sc.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		sc.UpdatedAt, err = parseTime(updatedAt)
		if err != nil {
			return nil, err
		}
		shared = append(shared, &sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return shared, nil
}

// UpdateCredential performs a full row update and touches updated_at on all
// share grants for the credential, in a single transaction. Recipients see
// the grant timestamp move whenever the record changes under them.
// Returns store.ErrNotFound if the credential does not exist.
func (s *Store) UpdateCredential(ctx context.Context, c *domain.Credential) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE credentials SET
			title = ?,
			username = ?,
			secret = ?,
			url = ?,
			notes = ?,
			updated_at = ?
		WHERE id = ?`,
		c.Title,
		c.Username,
		c.Secret,
		c.URL,
		c.Notes,
		formatTime(c.UpdatedAt),
		c.ID,
	)
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

	_, err = tx.ExecContext(ctx,
		`UPDATE share_grants SET updated_at = ? WHERE credential_id = ?`,
		formatTime(time.Now()), c.ID)
	if err != nil {
		return fmt.Errorf("touch share_grants: %w", err)
	}

	return tx.Commit()
}

// DeleteCredential performs a hard delete of a credential by ID.
// Share grants and tag associations are deleted in the same transaction;
// a recipient must never hold a grant to a row that no longer exists.
// Returns store.ErrNotFound if the credential does not exist.
func (s *Store) DeleteCredential(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM share_grants WHERE credential_id = ?`, id); err != nil {
		return fmt.Errorf("delete share grants: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM credential_tags WHERE credential_id = ?`, id); err != nil {
		return fmt.Errorf("delete tag associations: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM credentials WHERE id = ?`, id)
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
	return tx.Commit()
}
