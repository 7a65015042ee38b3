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

// ClientsRepository handles clients and their organization links.
type ClientsRepository struct {
	db *sql.DB
}

// NewClientsRepository creates a new clients repository.
func NewClientsRepository(db *sql.DB) *ClientsRepository {
	return &ClientsRepository{db: db}
}

const clientColumns = `c.id, c.identification, c.name, c.last_name, c.email, c.phone, c.active, c.created_at, c.updated_at, c.deleted_at`

func scanClient(row interface{ Scan(...any) error }) (*domain.Client, error) {
	client := &domain.Client{}
	err := row.Scan(
		&client.ID, &client.Identification, &client.Name, &client.LastName,
		&client.Email, &client.Phone, &client.Active,
		&client.CreatedAt, &client.UpdatedAt, &client.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// CreateInOrganization inserts a client and links it to orgID in one transaction.
func (r *ClientsRepository) CreateInOrganization(ctx context.Context, orgID uuid.UUID, client *domain.Client) error {
	return Tx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO clients (id, identification, name, last_name, email, phone, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		_, err := tx.ExecContext(ctx, query,
			client.ID, client.Identification, client.Name, client.LastName,
			client.Email, client.Phone, client.Active, client.CreatedAt, client.UpdatedAt,
		)
		if isUniqueViolation(err) {
			return domain.ErrClientAlreadyExists
		}
		if err != nil {
			return err
		}

		link := `INSERT INTO organization_clients (organization_id, client_id) VALUES ($1, $2)`
		if _, err := tx.ExecContext(ctx, link, orgID, client.ID); err != nil {
			return fmt.Errorf("link client: %w", err)
		}
		return nil
	})
}

// GetInOrganization retrieves a live client linked to orgID.
func (r *ClientsRepository) GetInOrganization(ctx context.Context, orgID, id uuid.UUID) (*domain.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM clients c
		JOIN organization_clients oc ON oc.client_id = c.id
		WHERE oc.organization_id = $1 AND c.id = $2
		  AND c.deleted_at IS NULL AND oc.deleted_at IS NULL
	`
	client, err := scanClient(r.db.QueryRowContext(ctx, query, orgID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ListByOrganization returns clients linked to orgID; deleted selects the trash.
func (r *ClientsRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID, deleted bool) ([]*domain.Client, error) {
	filter := `c.deleted_at IS NULL AND oc.deleted_at IS NULL`
	if deleted {
		filter = `(c.deleted_at IS NOT NULL OR oc.deleted_at IS NOT NULL)`
	}
	query := `
		SELECT ` + clientColumns + `
		FROM clients c
		JOIN organization_clients oc ON oc.client_id = c.id
		WHERE oc.organization_id = $1 AND ` + filter + `
		ORDER BY c.name, c.id
	`
	return r.queryMany(ctx, query, orgID)
}

// Search finds live clients of orgID by name, last name or identification.
func (r *ClientsRepository) Search(ctx context.Context, orgID uuid.UUID, term string) ([]*domain.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM clients c
		JOIN organization_clients oc ON oc.client_id = c.id
		WHERE oc.organization_id = $1 AND c.deleted_at IS NULL AND oc.deleted_at IS NULL
		  AND (c.name ILIKE $2 OR c.last_name ILIKE $2 OR c.identification ILIKE $2)
		ORDER BY c.name, c.id
		LIMIT 100
	`
	return r.queryMany(ctx, query, orgID, likePattern(term))
}

func (r *ClientsRepository) queryMany(ctx context.Context, query string, args ...any) ([]*domain.Client, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []*domain.Client{}
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

// Update updates a live client linked to orgID.
func (r *ClientsRepository) Update(ctx context.Context, orgID uuid.UUID, client *domain.Client) error {
	query := `
		UPDATE clients c
		SET identification = $3, name = $4, last_name = $5, email = $6, phone = $7, active = $8, updated_at = $9
		FROM organization_clients oc
		WHERE oc.client_id = c.id AND oc.organization_id = $1 AND c.id = $2
		  AND c.deleted_at IS NULL AND oc.deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		orgID, client.ID, client.Identification, client.Name, client.LastName,
		client.Email, client.Phone, client.Active, client.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrClientAlreadyExists
	}
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrClientNotFound)
}

// Unlink soft-deletes the link between a client and orgID.
func (r *ClientsRepository) Unlink(ctx context.Context, orgID, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE organization_clients
		SET deleted_at = $3
		WHERE organization_id = $1 AND client_id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, orgID, id, at)
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrClientNotFound)
}

// Relink restores a previously unlinked client.
func (r *ClientsRepository) Relink(ctx context.Context, orgID, id uuid.UUID) error {
	query := `
		UPDATE organization_clients
		SET deleted_at = NULL
		WHERE organization_id = $1 AND client_id = $2 AND deleted_at IS NOT NULL
	`
	result, err := r.db.ExecContext(ctx, query, orgID, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrClientNotFound)
}
