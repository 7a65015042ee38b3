package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/proforma-api/pkg/domain"
)

// PasswordResetsRepository handles password reset token persistence.
type PasswordResetsRepository struct {
	db    *sql.DB
	creds *CredentialsRepository
}

// NewPasswordResetsRepository creates a new password resets repository.
func NewPasswordResetsRepository(db *sql.DB, creds *CredentialsRepository) *PasswordResetsRepository {
	return &PasswordResetsRepository{db: db, creds: creds}
}

// Create inserts a reset token.
func (r *PasswordResetsRepository) Create(ctx context.Context, reset *domain.PasswordReset) error {
	query := `INSERT INTO password_resets (email, token, created_at) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, reset.Email, reset.Token, reset.CreatedAt)
	return err
}

// Get retrieves the reset matching (email, token) exactly.
func (r *PasswordResetsRepository) Get(ctx context.Context, email, token string) (*domain.PasswordReset, error) {
	query := `
		SELECT email, token, created_at
		FROM password_resets
		WHERE email = $1 AND token = $2
	`
	reset := &domain.PasswordReset{}
	err := r.db.QueryRowContext(ctx, query, email, token).Scan(&reset.Email, &reset.Token, &reset.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPasswordResetNotFound
	}
	if err != nil {
		return nil, err
	}
	return reset, nil
}

// Delete removes a reset record.
func (r *PasswordResetsRepository) Delete(ctx context.Context, email, token string) error {
	return r.deleteTx(ctx, r.db, email, token)
}

func (r *PasswordResetsRepository) deleteTx(ctx context.Context, q Querier, email, token string) error {
	query := `DELETE FROM password_resets WHERE email = $1 AND token = $2`
	result, err := q.ExecContext(ctx, query, email, token)
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrPasswordResetNotFound)
}

// ConsumeWithPasswordChange deletes the reset record and stores the new
// password hash in one transaction. The delete must hit exactly one row, so
// two concurrent resets with the same token cannot both succeed.
func (r *PasswordResetsRepository) ConsumeWithPasswordChange(ctx context.Context, email, token string, userID uuid.UUID, hash string, at time.Time) error {
	return Tx(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.deleteTx(ctx, tx, email, token); err != nil {
			return err
		}
		if err := r.creds.UpdateTx(ctx, tx, userID, hash, at); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		query := `UPDATE users SET updated_at = $2 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, query, userID, at); err != nil {
			return fmt.Errorf("touch user: %w", err)
		}
		return nil
	})
}

// DeleteExpired removes resets created before the cutoff.
func (r *PasswordResetsRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM password_resets WHERE created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
