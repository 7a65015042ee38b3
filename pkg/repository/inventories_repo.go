package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tendant/proforma-api/pkg/domain"
)

// InventoriesRepository handles organization inventories and their stock rows.
type InventoriesRepository struct {
	db *sql.DB
}

// NewInventoriesRepository creates a new inventories repository.
func NewInventoriesRepository(db *sql.DB) *InventoriesRepository {
	return &InventoriesRepository{db: db}
}

const inventoryColumns = `i.id, i.organization_id, i.name, i.created_at, i.updated_at, i.deleted_at`

func scanInventory(row interface{ Scan(...any) error }) (*domain.Inventory, error) {
	inv := &domain.Inventory{}
	err := row.Scan(&inv.ID, &inv.OrganizationID, &inv.Name, &inv.CreatedAt, &inv.UpdatedAt, &inv.DeletedAt)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Create inserts an inventory and its details in one transaction.
func (r *InventoriesRepository) Create(ctx context.Context, inv *domain.Inventory) error {
	return Tx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO inventories (id, organization_id, name, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := tx.ExecContext(ctx, query, inv.ID, inv.OrganizationID, inv.Name, inv.CreatedAt, inv.UpdatedAt); err != nil {
			return err
		}
		return insertDetails(ctx, tx, inv)
	})
}

func insertDetails(ctx context.Context, q Querier, inv *domain.Inventory) error {
	query := `
		INSERT INTO inventory_details (inventory_id, article_id, quantity, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`
	for _, d := range inv.Details {
		if _, err := q.ExecContext(ctx, query, inv.ID, d.ArticleID, d.Quantity, d.Notes, inv.UpdatedAt); err != nil {
			return err
		}
	}
	return nil
}

// GetInOrganization retrieves a live inventory of orgID with its details.
func (r *InventoriesRepository) GetInOrganization(ctx context.Context, orgID, id uuid.UUID) (*domain.Inventory, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM inventories i
		WHERE i.organization_id = $1 AND i.id = $2 AND i.deleted_at IS NULL
	`
	inv, err := scanInventory(r.db.QueryRowContext(ctx, query, orgID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInventoryNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadDetails(ctx, []*domain.Inventory{inv}); err != nil {
		return nil, err
	}
	return inv, nil
}

// ListByOrganization returns orgID's inventories; deleted selects the trash.
func (r *InventoriesRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID, deleted bool) ([]*domain.Inventory, error) {
	filter := `i.deleted_at IS NULL`
	if deleted {
		filter = `i.deleted_at IS NOT NULL`
	}
	query := `
		SELECT ` + inventoryColumns + `
		FROM inventories i
		WHERE i.organization_id = $1 AND ` + filter + `
		ORDER BY i.created_at, i.id
	`
	return r.queryMany(ctx, query, orgID)
}

// Search finds live inventories of orgID by name or by the description of
// an article they stock.
func (r *InventoriesRepository) Search(ctx context.Context, orgID uuid.UUID, term string) ([]*domain.Inventory, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM inventories i
		WHERE i.organization_id = $1 AND i.deleted_at IS NULL
		  AND (i.name ILIKE $2 OR EXISTS (
			SELECT 1
			FROM inventory_details d
			JOIN articles a ON a.id = d.article_id
			WHERE d.inventory_id = i.id AND a.description ILIKE $2
		  ))
		ORDER BY i.created_at, i.id
		LIMIT 100
	`
	return r.queryMany(ctx, query, orgID, likePattern(term))
}

func (r *InventoriesRepository) queryMany(ctx context.Context, query string, args ...any) ([]*domain.Inventory, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	inventories := []*domain.Inventory{}
	for rows.Next() {
		inv, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		inventories = append(inventories, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadDetails(ctx, inventories); err != nil {
		return nil, err
	}
	return inventories, nil
}

// loadDetails fills Details for every inventory with a single query.
func (r *InventoriesRepository) loadDetails(ctx context.Context, inventories []*domain.Inventory) error {
	if len(inventories) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*domain.Inventory, len(inventories))
	ids := make([]string, 0, len(inventories))
	for _, inv := range inventories {
		inv.Details = []domain.InventoryDetail{}
		byID[inv.ID] = inv
		ids = append(ids, inv.ID.String())
	}

	query := `
		SELECT d.inventory_id, d.article_id, a.description, d.quantity, d.notes
		FROM inventory_details d
		JOIN articles a ON a.id = d.article_id
		WHERE d.inventory_id = ANY($1::uuid[])
		ORDER BY a.description, d.article_id
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			inventoryID uuid.UUID
			d           domain.InventoryDetail
		)
		if err := rows.Scan(&inventoryID, &d.ArticleID, &d.Description, &d.Quantity, &d.Notes); err != nil {
			return err
		}
		if inv, ok := byID[inventoryID]; ok {
			inv.Details = append(inv.Details, d)
		}
	}
	return rows.Err()
}

// Update renames a live inventory and replaces its details.
func (r *InventoriesRepository) Update(ctx context.Context, inv *domain.Inventory) error {
	return Tx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			UPDATE inventories
			SET name = $3, updated_at = $4
			WHERE organization_id = $1 AND id = $2 AND deleted_at IS NULL
		`
		result, err := tx.ExecContext(ctx, query, inv.OrganizationID, inv.ID, inv.Name, inv.UpdatedAt)
		if err != nil {
			return err
		}
		if err := expectOneRow(result, domain.ErrInventoryNotFound); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_details WHERE inventory_id = $1`, inv.ID); err != nil {
			return err
		}
		return insertDetails(ctx, tx, inv)
	})
}

// AddStock adds quantity units of articleID to a live inventory, creating
// the detail row when the article is not stocked yet.
func (r *InventoriesRepository) AddStock(ctx context.Context, orgID, id, articleID uuid.UUID, quantity int, at time.Time) error {
	query := `
		INSERT INTO inventory_details (inventory_id, article_id, quantity, created_at, updated_at)
		SELECT i.id, $3::uuid, $4::integer, $5::timestamptz, $5::timestamptz
		FROM inventories i
		WHERE i.organization_id = $1 AND i.id = $2 AND i.deleted_at IS NULL
		ON CONFLICT (inventory_id, article_id)
		DO UPDATE SET quantity = inventory_details.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
	`
	result, err := r.db.ExecContext(ctx, query, orgID, id, articleID, quantity, at)
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrInventoryNotFound)
}

// SoftDelete marks a live inventory as deleted.
func (r *InventoriesRepository) SoftDelete(ctx context.Context, orgID, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE inventories
		SET deleted_at = $3, updated_at = $3
		WHERE organization_id = $1 AND id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, orgID, id, at)
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrInventoryNotFound)
}

// Restore clears deleted_at on a soft-deleted inventory.
func (r *InventoriesRepository) Restore(ctx context.Context, orgID, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE inventories
		SET deleted_at = NULL, updated_at = $3
		WHERE organization_id = $1 AND id = $2 AND deleted_at IS NOT NULL
	`
	result, err := r.db.ExecContext(ctx, query, orgID, id, at)
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrInventoryNotFound)
}
