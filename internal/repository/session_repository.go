package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lob-api/internal/models"
)

const sessionColumns = `id, user_id, ip, device_info, address, privileged, started_on, renewed_on`

// SessionRepository persists user sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session.
func (r *SessionRepository) Create(ctx context.Context, session *models.UserSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	const query = `INSERT INTO user_sessions (` + sessionColumns + `) VALUES (:id, :user_id, :ip, :device_info, :address, :privileged, :started_on, :renewed_on)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// FindByID returns a session by id.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.UserSession, error) {
	query := r.db.Rebind(`SELECT ` + sessionColumns + ` FROM user_sessions WHERE id = ? LIMIT 1`)
	var session models.UserSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

// ListByUser returns the sessions of a user, most recent first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]models.UserSession, error) {
	query := r.db.Rebind(`SELECT ` + sessionColumns + ` FROM user_sessions WHERE user_id = ? ORDER BY COALESCE(renewed_on, started_on) DESC`)
	var sessions []models.UserSession
	if err := r.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// CountPrivileged counts privileged sessions of a user.
func (r *SessionRepository) CountPrivileged(ctx context.Context, userID string) (int, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM user_sessions WHERE user_id = ? AND privileged = ?`)
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, true); err != nil {
		return 0, fmt.Errorf("count privileged sessions: %w", err)
	}
	return count, nil
}

// Update persists the renewal metadata. Privileged is only ever raised.
func (r *SessionRepository) Update(ctx context.Context, session *models.UserSession) error {
	const query = `UPDATE user_sessions SET ip = :ip, device_info = :device_info, address = :address,
privileged = (privileged OR :privileged), renewed_on = :renewed_on WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Delete removes a session. It reports false when no row matched.
func (r *SessionRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	query := r.db.Rebind(`DELETE FROM user_sessions WHERE id = ? AND user_id = ?`)
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return n > 0, nil
}
