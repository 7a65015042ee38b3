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

// UsersRepository handles user persistence.
type UsersRepository struct {
	db      *sql.DB
	creds   *CredentialsRepository
	configs *ConfigurationsRepository
}

// NewUsersRepository creates a new users repository.
func NewUsersRepository(db *sql.DB) *UsersRepository {
	return &UsersRepository{
		db:      db,
		creds:   NewCredentialsRepository(db),
		configs: NewConfigurationsRepository(db),
	}
}

const userColumns = `id, name, email, active, created_at, updated_at, deleted_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Active,
		&user.CreatedAt, &user.UpdatedAt, &user.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateTx creates a new user within a transaction.
func (r *UsersRepository) CreateTx(ctx context.Context, q Querier, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.Active, user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrUserAlreadyExists
	}
	return err
}

// CreateAccount inserts the user, its password hash and its initial
// configuration rows in one transaction.
func (r *UsersRepository) CreateAccount(ctx context.Context, user *domain.User, cred *domain.UserPassword, settings []*domain.Configuration) error {
	return Tx(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.CreateTx(ctx, tx, user); err != nil {
			return err
		}
		if err := r.creds.CreateTx(ctx, tx, cred); err != nil {
			return fmt.Errorf("create credentials: %w", err)
		}
		for _, setting := range settings {
			if err := r.configs.UpsertTx(ctx, tx, setting); err != nil {
				return fmt.Errorf("create configuration %q: %w", setting.Key, err)
			}
		}
		return nil
	})
}

// GetByID retrieves a non-deleted user by ID.
func (r *UsersRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	return r.getOne(ctx, query, id)
}

// GetByEmail retrieves a non-deleted user by email.
func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND deleted_at IS NULL`
	return r.getOne(ctx, query, email)
}

func (r *UsersRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// List returns one page of users ordered by name. deleted selects between
// live and soft-deleted rows.
func (r *UsersRepository) List(ctx context.Context, deleted bool, page domain.PageRequest) ([]*domain.User, int, error) {
	filter := `deleted_at IS NULL`
	if deleted {
		filter = `deleted_at IS NOT NULL`
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE `+filter).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE ` + filter + `
		ORDER BY name, id
		LIMIT $1 OFFSET $2
	`
	users, err := r.queryMany(ctx, query, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Search finds live users whose name or email contains term (case-insensitive).
func (r *UsersRepository) Search(ctx context.Context, term string) ([]*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE deleted_at IS NULL AND (name ILIKE $1 OR email ILIKE $1)
		ORDER BY name, id
		LIMIT 100
	`
	return r.queryMany(ctx, query, likePattern(term))
}

func (r *UsersRepository) queryMany(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Update updates a live user's name, email and active flag.
func (r *UsersRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, active = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.Active, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrUserAlreadyExists
	}
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrUserNotFound)
}

// SoftDelete marks a live user as deleted.
func (r *UsersRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE users
		SET deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrUserNotFound)
}

// Restore clears deleted_at on a soft-deleted user.
func (r *UsersRepository) Restore(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE users
		SET deleted_at = NULL, updated_at = $2
		WHERE id = $1 AND deleted_at IS NOT NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrUserNotFound)
}
