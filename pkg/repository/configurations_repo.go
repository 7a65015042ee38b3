package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/proforma-api/pkg/domain"
)

// ConfigurationsRepository handles per-user configuration rows.
type ConfigurationsRepository struct {
	db *sql.DB
}

// NewConfigurationsRepository creates a new configurations repository.
func NewConfigurationsRepository(db *sql.DB) *ConfigurationsRepository {
	return &ConfigurationsRepository{db: db}
}

// Upsert creates or replaces the value stored under (user, key).
func (r *ConfigurationsRepository) Upsert(ctx context.Context, cfg *domain.Configuration) error {
	return r.UpsertTx(ctx, r.db, cfg)
}

// UpsertTx is Upsert within a transaction.
func (r *ConfigurationsRepository) UpsertTx(ctx context.Context, q Querier, cfg *domain.Configuration) error {
	query := `
		INSERT INTO user_configurations (id, user_id, key, value, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, key)
		DO UPDATE SET value = EXCLUDED.value, description = EXCLUDED.description, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	return q.QueryRowContext(ctx, query,
		cfg.ID, cfg.UserID, cfg.Key, cfg.Value, cfg.Description, cfg.CreatedAt, cfg.UpdatedAt,
	).Scan(&cfg.ID, &cfg.CreatedAt)
}

// GetByKey returns one configuration value for a user.
func (r *ConfigurationsRepository) GetByKey(ctx context.Context, userID uuid.UUID, key string) (*domain.Configuration, error) {
	query := `
		SELECT id, user_id, key, value, description, created_at, updated_at
		FROM user_configurations
		WHERE user_id = $1 AND key = $2
	`
	cfg := &domain.Configuration{}
	err := r.db.QueryRowContext(ctx, query, userID, key).Scan(
		&cfg.ID, &cfg.UserID, &cfg.Key, &cfg.Value, &cfg.Description, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrConfigurationNotFound
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// ListByUser returns all configuration rows for a user ordered by key.
func (r *ConfigurationsRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Configuration, error) {
	query := `
		SELECT id, user_id, key, value, description, created_at, updated_at
		FROM user_configurations
		WHERE user_id = $1
		ORDER BY key
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cfgs := []*domain.Configuration{}
	for rows.Next() {
		cfg := &domain.Configuration{}
		if err := rows.Scan(
			&cfg.ID, &cfg.UserID, &cfg.Key, &cfg.Value, &cfg.Description, &cfg.CreatedAt, &cfg.UpdatedAt,
		); err != nil {
			return nil, err
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, rows.Err()
}
