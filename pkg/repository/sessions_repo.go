package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/proforma-api/pkg/domain"
)

// SessionsRepository handles refresh session persistence.
type SessionsRepository struct {
	db *sql.DB
}

// NewSessionsRepository creates a new sessions repository.
func NewSessionsRepository(db *sql.DB) *SessionsRepository {
	return &SessionsRepository{db: db}
}

const sessionColumns = `id, user_id, stored_token, fingerprint, expires_at, revoked_at, created_at`

func scanSession(row interface{ Scan(...any) error }) (*domain.Session, error) {
	session := &domain.Session{}
	err := row.Scan(
		&session.ID, &session.UserID, &session.StoredToken, &session.Fingerprint,
		&session.ExpiresAt, &session.RevokedAt, &session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Create inserts a new session row.
func (r *SessionsRepository) Create(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO user_sessions (id, user_id, stored_token, fingerprint, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.StoredToken, session.Fingerprint,
		session.ExpiresAt, session.CreatedAt,
	)
	return err
}

// GetActiveBySelector retrieves the non-revoked session whose stored token
// starts with "<selector>:". Expiry is checked by the caller.
// The selector must already be validated as hex; it is used as a LIKE prefix.
func (r *SessionsRepository) GetActiveBySelector(ctx context.Context, selector string) (*domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM user_sessions
		WHERE stored_token LIKE $1 AND revoked_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`
	session, err := scanSession(r.db.QueryRowContext(ctx, query, domain.StoredTokenPrefix(selector)+"%"))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Revoke sets revoked_at only if the session is still active. This is the
// compare-and-set that lets exactly one concurrent refresh win; the loser
// sees ErrSessionNotFound.
func (r *SessionsRepository) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE user_sessions
		SET revoked_at = $2
		WHERE id = $1 AND revoked_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrSessionNotFound)
}

// RevokeAllByUserID revokes every active session for a user.
func (r *SessionsRepository) RevokeAllByUserID(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	query := `
		UPDATE user_sessions
		SET revoked_at = $2
		WHERE user_id = $1 AND revoked_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, userID, at)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteExpired removes sessions that expired or were revoked before the cutoff.
func (r *SessionsRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM user_sessions
		WHERE expires_at < $1 OR (revoked_at IS NOT NULL AND revoked_at < $1)
	`
	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
