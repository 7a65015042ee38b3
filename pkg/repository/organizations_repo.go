package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/proforma-api/pkg/domain"
)

// OrganizationsRepository handles organization (tenant) persistence.
type OrganizationsRepository struct {
	db *sql.DB
}

// NewOrganizationsRepository creates a new organizations repository.
func NewOrganizationsRepository(db *sql.DB) *OrganizationsRepository {
	return &OrganizationsRepository{db: db}
}

const organizationColumns = `id, owner_id, name, manager_identification, phone, email, address, created_at, updated_at, deleted_at`

func scanOrganization(row interface{ Scan(...any) error }) (*domain.Organization, error) {
	var org domain.Organization
	err := row.Scan(
		&org.ID,
		&org.OwnerID,
		&org.Name,
		&org.ManagerIdentification,
		&org.Phone,
		&org.Email,
		&org.Address,
		&org.CreatedAt,
		&org.UpdatedAt,
		&org.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// Create creates a new organization.
func (r *OrganizationsRepository) Create(ctx context.Context, org *domain.Organization) error {
	query := `
		INSERT INTO organizations (id, owner_id, name, manager_identification, phone, email, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		org.ID,
		org.OwnerID,
		org.Name,
		org.ManagerIdentification,
		org.Phone,
		org.Email,
		org.Address,
		org.CreatedAt,
		org.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrOrganizationAlreadyExists
	}
	return err
}

// GetByID retrieves a live organization owned by ownerID.
func (r *OrganizationsRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Organization, error) {
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
	`
	org, err := scanOrganization(r.db.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}
	return org, nil
}

// ListByOwner returns the owner's organizations; deleted selects the trash.
func (r *OrganizationsRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, deleted bool) ([]*domain.Organization, error) {
	filter := `deleted_at IS NULL`
	if deleted {
		filter = `deleted_at IS NOT NULL`
	}
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		WHERE owner_id = $1 AND ` + filter + `
		ORDER BY name, id
	`
	return r.queryMany(ctx, query, ownerID)
}

// Search finds the owner's live organizations by name substring.
func (r *OrganizationsRepository) Search(ctx context.Context, ownerID uuid.UUID, term string) ([]*domain.Organization, error) {
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		WHERE owner_id = $1 AND deleted_at IS NULL AND name ILIKE $2
		ORDER BY name, id
		LIMIT 100
	`
	return r.queryMany(ctx, query, ownerID, likePattern(term))
}

func (r *OrganizationsRepository) queryMany(ctx context.Context, query string, args ...any) ([]*domain.Organization, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orgs := []*domain.Organization{}
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

// Update updates an organization's details.
func (r *OrganizationsRepository) Update(ctx context.Context, org *domain.Organization) error {
	query := `
		UPDATE organizations
		SET name = $3, manager_identification = $4, phone = $5, email = $6, address = $7, updated_at = $8
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		org.ID,
		org.OwnerID,
		org.Name,
		org.ManagerIdentification,
		org.Phone,
		org.Email,
		org.Address,
		org.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrOrganizationAlreadyExists
	}
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrOrganizationNotFound)
}

// SoftDelete soft deletes an organization.
func (r *OrganizationsRepository) SoftDelete(ctx context.Context, ownerID, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE organizations
		SET deleted_at = $3, updated_at = $3
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, ownerID, at)
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrOrganizationNotFound)
}

// Restore restores a soft-deleted organization.
func (r *OrganizationsRepository) Restore(ctx context.Context, ownerID, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE organizations
		SET deleted_at = NULL, updated_at = $3
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NOT NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, ownerID, at)
	if isUniqueViolation(err) {
		return domain.ErrOrganizationAlreadyExists
	}
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrOrganizationNotFound)
}
