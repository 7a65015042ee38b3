package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/proforma-api/pkg/domain"
)

// PrintingTemplatesRepository handles per-user printing templates.
type PrintingTemplatesRepository struct {
	db *sql.DB
}

// NewPrintingTemplatesRepository creates a new printing templates repository.
func NewPrintingTemplatesRepository(db *sql.DB) *PrintingTemplatesRepository {
	return &PrintingTemplatesRepository{db: db}
}

const printingTemplateColumns = `id, user_id, name, page_orientation, color_mode, copies, paper_size, header_html, footer_html, created_at, updated_at, deleted_at`

func scanPrintingTemplate(row interface{ Scan(...any) error }) (*domain.PrintingTemplate, error) {
	t := &domain.PrintingTemplate{}
	err := row.Scan(
		&t.ID, &t.UserID, &t.Name, &t.PageOrientation, &t.ColorMode, &t.Copies,
		&t.PaperSize, &t.HeaderHTML, &t.FooterHTML, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Create inserts a template.
func (r *PrintingTemplatesRepository) Create(ctx context.Context, t *domain.PrintingTemplate) error {
	query := `
		INSERT INTO printing_templates (id, user_id, name, page_orientation, color_mode, copies, paper_size, header_html, footer_html, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.UserID, t.Name, t.PageOrientation, t.ColorMode, t.Copies,
		t.PaperSize, t.HeaderHTML, t.FooterHTML, t.CreatedAt, t.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrPrintingTemplateAlreadyExists
	}
	return err
}

// GetByID retrieves a live template of userID.
func (r *PrintingTemplatesRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.PrintingTemplate, error) {
	query := `
		SELECT ` + printingTemplateColumns + `
		FROM printing_templates
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`
	t, err := scanPrintingTemplate(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPrintingTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListByUser returns userID's templates; deleted selects the trash.
func (r *PrintingTemplatesRepository) ListByUser(ctx context.Context, userID uuid.UUID, deleted bool) ([]*domain.PrintingTemplate, error) {
	filter := `deleted_at IS NULL`
	if deleted {
		filter = `deleted_at IS NOT NULL`
	}
	query := `
		SELECT ` + printingTemplateColumns + `
		FROM printing_templates
		WHERE user_id = $1 AND ` + filter + `
		ORDER BY name, id
	`
	return r.queryMany(ctx, query, userID)
}

// Search finds live templates of userID by name.
func (r *PrintingTemplatesRepository) Search(ctx context.Context, userID uuid.UUID, term string) ([]*domain.PrintingTemplate, error) {
	query := `
		SELECT ` + printingTemplateColumns + `
		FROM printing_templates
		WHERE user_id = $1 AND deleted_at IS NULL AND name ILIKE $2
		ORDER BY name, id
		LIMIT 100
	`
	return r.queryMany(ctx, query, userID, likePattern(term))
}

func (r *PrintingTemplatesRepository) queryMany(ctx context.Context, query string, args ...any) ([]*domain.PrintingTemplate, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []*domain.PrintingTemplate{}
	for rows.Next() {
		t, err := scanPrintingTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// Update replaces the fields of a live template.
func (r *PrintingTemplatesRepository) Update(ctx context.Context, t *domain.PrintingTemplate) error {
	query := `
		UPDATE printing_templates
		SET name = $3, page_orientation = $4, color_mode = $5, copies = $6, paper_size = $7,
		    header_html = $8, footer_html = $9, updated_at = $10
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		t.ID, t.UserID, t.Name, t.PageOrientation, t.ColorMode, t.Copies,
		t.PaperSize, t.HeaderHTML, t.FooterHTML, t.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrPrintingTemplateAlreadyExists
	}
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrPrintingTemplateNotFound)
}

// SoftDelete marks a live template as deleted.
func (r *PrintingTemplatesRepository) SoftDelete(ctx context.Context, userID, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE printing_templates
		SET deleted_at = $3, updated_at = $3
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, userID, at)
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrPrintingTemplateNotFound)
}

// Restore clears deleted_at on a soft-deleted template. A live template
// with the same name blocks the restore.
func (r *PrintingTemplatesRepository) Restore(ctx context.Context, userID, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE printing_templates
		SET deleted_at = NULL, updated_at = $3
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NOT NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, userID, at)
	if isUniqueViolation(err) {
		return domain.ErrPrintingTemplateAlreadyExists
	}
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrPrintingTemplateNotFound)
}
