package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lob-api/internal/models"
)

const credentialColumns = `id, user_id, public_key, attestation_type, aaguid, sign_count, transports, user_present,
user_verified, backup_eligible, backup_state, name, created_on`

// WebAuthnRepository persists FIDO2 credentials.
type WebAuthnRepository struct {
	db *sqlx.DB
}

// NewWebAuthnRepository constructs a credential repository.
func NewWebAuthnRepository(db *sqlx.DB) *WebAuthnRepository {
	return &WebAuthnRepository{db: db}
}

// Create stores a newly registered credential.
func (r *WebAuthnRepository) Create(ctx context.Context, cred *models.WebAuthnCredential) error {
	const query = `INSERT INTO webauthn_credentials (` + credentialColumns + `) VALUES (:id, :user_id, :public_key,
:attestation_type, :aaguid, :sign_count, :transports, :user_present, :user_verified, :backup_eligible, :backup_state,
:name, :created_on)`
	if _, err := r.db.NamedExecContext(ctx, query, cred); err != nil {
		return fmt.Errorf("create webauthn credential: %w", err)
	}
	return nil
}

// FindByID returns a credential by its raw id.
func (r *WebAuthnRepository) FindByID(ctx context.Context, id []byte) (*models.WebAuthnCredential, error) {
	query := r.db.Rebind(`SELECT ` + credentialColumns + ` FROM webauthn_credentials WHERE id = ? LIMIT 1`)
	var cred models.WebAuthnCredential
	if err := r.db.GetContext(ctx, &cred, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find webauthn credential: %w", err)
	}
	return &cred, nil
}

// ListByUser returns the credentials of a user.
func (r *WebAuthnRepository) ListByUser(ctx context.Context, userID string) ([]models.WebAuthnCredential, error) {
	query := r.db.Rebind(`SELECT ` + credentialColumns + ` FROM webauthn_credentials WHERE user_id = ? ORDER BY created_on`)
	var creds []models.WebAuthnCredential
	if err := r.db.SelectContext(ctx, &creds, query, userID); err != nil {
		return nil, fmt.Errorf("list webauthn credentials: %w", err)
	}
	return creds, nil
}

// ListByUsers returns the credentials of several users, used to build allow lists.
func (r *WebAuthnRepository) ListByUsers(ctx context.Context, userIDs []string) ([]models.WebAuthnCredential, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+credentialColumns+` FROM webauthn_credentials WHERE user_id IN (?)`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("build credential query: %w", err)
	}
	var creds []models.WebAuthnCredential
	if err := r.db.SelectContext(ctx, &creds, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list webauthn credentials: %w", err)
	}
	return creds, nil
}

// UpdateCounter stores the authenticator counter and backup state after an assertion.
func (r *WebAuthnRepository) UpdateCounter(ctx context.Context, id []byte, signCount uint32, backupState bool) error {
	query := r.db.Rebind(`UPDATE webauthn_credentials SET sign_count = ?, backup_state = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, signCount, backupState, id); err != nil {
		return fmt.Errorf("update webauthn counter: %w", err)
	}
	return nil
}

// Delete removes one credential of the user.
func (r *WebAuthnRepository) Delete(ctx context.Context, userID string, id []byte) (bool, error) {
	query := r.db.Rebind(`DELETE FROM webauthn_credentials WHERE id = ? AND user_id = ?`)
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete webauthn credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete webauthn credential: %w", err)
	}
	return n > 0, nil
}

// DeleteAllByUser removes every credential of the user.
func (r *WebAuthnRepository) DeleteAllByUser(ctx context.Context, userID string) error {
	query := r.db.Rebind(`DELETE FROM webauthn_credentials WHERE user_id = ?`)
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete webauthn credentials: %w", err)
	}
	return nil
}
