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

// ProformasRepository handles proformas and their lines.
type ProformasRepository struct {
	db *sql.DB
}

// NewProformasRepository creates a new proformas repository.
func NewProformasRepository(db *sql.DB) *ProformasRepository {
	return &ProformasRepository{db: db}
}

const proformaColumns = `p.id, p.organization_id, p.client_id, p.invoice_number, p.comment, p.subtotal, p.taxes, p.discount_total, p.total, p.created_at, p.updated_at, p.deleted_at`

func scanProforma(row interface{ Scan(...any) error }) (*domain.Proforma, error) {
	p := &domain.Proforma{}
	err := row.Scan(
		&p.ID, &p.OrganizationID, &p.ClientID, &p.InvoiceNumber, &p.Comment,
		&p.Subtotal, &p.Taxes, &p.DiscountTotal, &p.Total,
		&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// decrementStock takes sold units out of the oldest live inventory of the
// organization that stocks the article carrying the barcode. Codes that
// match no stocked article are left alone.
const decrementStock = `
	UPDATE inventory_details
	SET quantity = quantity - $3, updated_at = $4
	WHERE (inventory_id, article_id) = (
		SELECT d.inventory_id, d.article_id
		FROM inventory_details d
		JOIN inventories i ON i.id = d.inventory_id
		JOIN organizations o ON o.id = i.organization_id
		JOIN article_barcodes b ON b.article_id = d.article_id AND b.owner_id = o.owner_id
		WHERE i.organization_id = $1 AND i.deleted_at IS NULL AND b.barcode = $2
		ORDER BY i.created_at, i.id
		LIMIT 1
	)
`

// Create inserts a proforma with its lines and updates stock, all in one
// transaction.
func (r *ProformasRepository) Create(ctx context.Context, p *domain.Proforma) error {
	return Tx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO proformas (id, organization_id, client_id, invoice_number, comment, subtotal, taxes, discount_total, total, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		_, err := tx.ExecContext(ctx, query,
			p.ID, p.OrganizationID, p.ClientID, p.InvoiceNumber, p.Comment,
			p.Subtotal, p.Taxes, p.DiscountTotal, p.Total, p.CreatedAt, p.UpdatedAt,
		)
		if isUniqueViolation(err) {
			return domain.ErrProformaAlreadyExists
		}
		if err != nil {
			return err
		}

		line := `
			INSERT INTO proforma_lines (proforma_id, line_no, article_code, quantity, discount, item_comment, unit_price, unit_tax, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		for i, l := range p.Lines {
			if _, err := tx.ExecContext(ctx, line,
				p.ID, i+1, l.ArticleCode, l.Quantity, l.Discount, l.ItemComment,
				l.UnitPrice, l.UnitTax, l.LineTotal,
			); err != nil {
				return fmt.Errorf("insert line %d: %w", i+1, err)
			}
			if _, err := tx.ExecContext(ctx, decrementStock, p.OrganizationID, l.ArticleCode, l.Quantity, p.CreatedAt); err != nil {
				return fmt.Errorf("update stock for line %d: %w", i+1, err)
			}
		}
		return nil
	})
}

// GetInOrganization retrieves a live proforma of orgID with its lines.
func (r *ProformasRepository) GetInOrganization(ctx context.Context, orgID, id uuid.UUID) (*domain.Proforma, error) {
	query := `
		SELECT ` + proformaColumns + `
		FROM proformas p
		WHERE p.organization_id = $1 AND p.id = $2 AND p.deleted_at IS NULL
	`
	p, err := scanProforma(r.db.QueryRowContext(ctx, query, orgID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProformaNotFound
	}
	if err != nil {
		return nil, err
	}

	lines := `
		SELECT article_code, quantity, discount, item_comment, unit_price, unit_tax, line_total
		FROM proforma_lines
		WHERE proforma_id = $1
		ORDER BY line_no
	`
	rows, err := r.db.QueryContext(ctx, lines, p.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	p.Lines = []domain.ProformaLine{}
	for rows.Next() {
		var l domain.ProformaLine
		if err := rows.Scan(&l.ArticleCode, &l.Quantity, &l.Discount, &l.ItemComment, &l.UnitPrice, &l.UnitTax, &l.LineTotal); err != nil {
			return nil, err
		}
		p.Lines = append(p.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns one page of orgID's proformas, newest first.
func (r *ProformasRepository) List(ctx context.Context, orgID uuid.UUID, deleted bool, page domain.PageRequest) ([]*domain.Proforma, int, error) {
	filter := `p.deleted_at IS NULL`
	if deleted {
		filter = `p.deleted_at IS NOT NULL`
	}

	var total int
	count := `SELECT COUNT(*) FROM proformas p WHERE p.organization_id = $1 AND ` + filter
	if err := r.db.QueryRowContext(ctx, count, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + proformaColumns + `
		FROM proformas p
		WHERE p.organization_id = $1 AND ` + filter + `
		ORDER BY p.created_at DESC, p.id
		LIMIT $2 OFFSET $3
	`
	proformas, err := r.queryMany(ctx, query, orgID, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return proformas, total, nil
}

// Search finds live proformas of orgID by invoice number, comment or client name.
func (r *ProformasRepository) Search(ctx context.Context, orgID uuid.UUID, term string) ([]*domain.Proforma, error) {
	query := `
		SELECT ` + proformaColumns + `
		FROM proformas p
		JOIN clients c ON c.id = p.client_id
		WHERE p.organization_id = $1 AND p.deleted_at IS NULL
		  AND (p.invoice_number ILIKE $2 OR p.comment ILIKE $2 OR c.name ILIKE $2 OR c.last_name ILIKE $2)
		ORDER BY p.created_at DESC, p.id
		LIMIT 100
	`
	return r.queryMany(ctx, query, orgID, likePattern(term))
}

func (r *ProformasRepository) queryMany(ctx context.Context, query string, args ...any) ([]*domain.Proforma, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	proformas := []*domain.Proforma{}
	for rows.Next() {
		p, err := scanProforma(rows)
		if err != nil {
			return nil, err
		}
		proformas = append(proformas, p)
	}
	return proformas, rows.Err()
}

// SoftDelete marks a live proforma as deleted. Stock is not given back.
func (r *ProformasRepository) SoftDelete(ctx context.Context, orgID, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE proformas
		SET deleted_at = $3, updated_at = $3
		WHERE organization_id = $1 AND id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, orgID, id, at)
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrProformaNotFound)
}

// Restore clears deleted_at on a soft-deleted proforma.
func (r *ProformasRepository) Restore(ctx context.Context, orgID, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE proformas
		SET deleted_at = NULL, updated_at = $3
		WHERE organization_id = $1 AND id = $2 AND deleted_at IS NOT NULL
	`
	result, err := r.db.ExecContext(ctx, query, orgID, id, at)
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrProformaNotFound)
}
