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

// ArticlesRepository handles catalogue articles and their barcodes.
type ArticlesRepository struct {
	db *sql.DB
}

// NewArticlesRepository creates a new articles repository.
func NewArticlesRepository(db *sql.DB) *ArticlesRepository {
	return &ArticlesRepository{db: db}
}

const articleColumns = `a.id, a.owner_id, a.source_info, a.description, a.tax_percentage, a.cost, a.profit_percentage, a.active, a.created_at, a.updated_at, a.deleted_at`

func scanArticle(row interface{ Scan(...any) error }) (*domain.Article, error) {
	article := &domain.Article{}
	err := row.Scan(
		&article.ID, &article.OwnerID, &article.SourceInfo, &article.Description,
		&article.TaxPercentage, &article.Cost, &article.ProfitPercentage, &article.Active,
		&article.CreatedAt, &article.UpdatedAt, &article.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return article, nil
}

// Create inserts an article and its barcodes in one transaction.
func (r *ArticlesRepository) Create(ctx context.Context, article *domain.Article) error {
	return Tx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO articles (id, owner_id, source_info, description, tax_percentage, cost, profit_percentage, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		_, err := tx.ExecContext(ctx, query,
			article.ID, article.OwnerID, article.SourceInfo, article.Description,
			article.TaxPercentage, article.Cost, article.ProfitPercentage, article.Active,
			article.CreatedAt, article.UpdatedAt,
		)
		if err != nil {
			return err
		}
		return insertBarcodes(ctx, tx, article)
	})
}

func insertBarcodes(ctx context.Context, q Querier, article *domain.Article) error {
	query := `INSERT INTO article_barcodes (owner_id, barcode, article_id) VALUES ($1, $2, $3)`
	for _, barcode := range article.Barcodes {
		_, err := q.ExecContext(ctx, query, article.OwnerID, barcode, article.ID)
		if isUniqueViolation(err) {
			return domain.ErrArticleAlreadyExists
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a live article owned by ownerID.
func (r *ArticlesRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM articles a
		WHERE a.id = $1 AND a.owner_id = $2 AND a.deleted_at IS NULL
	`
	return r.getOne(ctx, query, id, ownerID)
}

// GetByBarcode retrieves the live article of ownerID carrying barcode.
func (r *ArticlesRepository) GetByBarcode(ctx context.Context, ownerID uuid.UUID, barcode string) (*domain.Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM articles a
		JOIN article_barcodes b ON b.article_id = a.id
		WHERE b.owner_id = $1 AND b.barcode = $2 AND a.deleted_at IS NULL
	`
	return r.getOne(ctx, query, ownerID, barcode)
}

func (r *ArticlesRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Article, error) {
	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrArticleNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadBarcodes(ctx, []*domain.Article{article}); err != nil {
		return nil, err
	}
	return article, nil
}

// List returns one page of the owner's articles ordered by description.
func (r *ArticlesRepository) List(ctx context.Context, ownerID uuid.UUID, deleted bool, page domain.PageRequest) ([]*domain.Article, int, error) {
	filter := `a.deleted_at IS NULL`
	if deleted {
		filter = `a.deleted_at IS NOT NULL`
	}

	var total int
	count := `SELECT COUNT(*) FROM articles a WHERE a.owner_id = $1 AND ` + filter
	if err := r.db.QueryRowContext(ctx, count, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + articleColumns + `
		FROM articles a
		WHERE a.owner_id = $1 AND ` + filter + `
		ORDER BY a.description, a.id
		LIMIT $2 OFFSET $3
	`
	articles, err := r.queryMany(ctx, query, ownerID, page.PageSize, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// Search finds live articles of ownerID by description, source or barcode.
func (r *ArticlesRepository) Search(ctx context.Context, ownerID uuid.UUID, term string) ([]*domain.Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM articles a
		WHERE a.owner_id = $1 AND a.deleted_at IS NULL
		  AND (a.description ILIKE $2 OR a.source_info ILIKE $2 OR EXISTS (
			SELECT 1 FROM article_barcodes b WHERE b.article_id = a.id AND b.barcode ILIKE $2
		  ))
		ORDER BY a.description, a.id
		LIMIT 100
	`
	return r.queryMany(ctx, query, ownerID, likePattern(term))
}

func (r *ArticlesRepository) queryMany(ctx context.Context, query string, args ...any) ([]*domain.Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := []*domain.Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadBarcodes(ctx, articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// loadBarcodes fills Barcodes for every article with a single query.
func (r *ArticlesRepository) loadBarcodes(ctx context.Context, articles []*domain.Article) error {
	if len(articles) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*domain.Article, len(articles))
	ids := make([]string, 0, len(articles))
	for _, a := range articles {
		a.Barcodes = []string{}
		byID[a.ID] = a
		ids = append(ids, a.ID.String())
	}

	query := `
		SELECT article_id, barcode
		FROM article_barcodes
		WHERE article_id = ANY($1::uuid[])
		ORDER BY barcode
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			articleID uuid.UUID
			barcode   string
		)
		if err := rows.Scan(&articleID, &barcode); err != nil {
			return err
		}
		if a, ok := byID[articleID]; ok {
			a.Barcodes = append(a.Barcodes, barcode)
		}
	}
	return rows.Err()
}

// Update replaces a live article's fields and its barcode set.
func (r *ArticlesRepository) Update(ctx context.Context, article *domain.Article) error {
	return Tx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			UPDATE articles
			SET source_info = $3, description = $4, tax_percentage = $5, cost = $6,
			    profit_percentage = $7, active = $8, updated_at = $9
			WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
		`
		result, err := tx.ExecContext(ctx, query,
			article.ID, article.OwnerID, article.SourceInfo, article.Description,
			article.TaxPercentage, article.Cost, article.ProfitPercentage, article.Active,
			article.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if err := expectOneRow(result, domain.ErrArticleNotFound); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM article_barcodes WHERE article_id = $1`, article.ID); err != nil {
			return err
		}
		return insertBarcodes(ctx, tx, article)
	})
}

// SoftDelete marks a live article as deleted. Its barcodes stay reserved.
func (r *ArticlesRepository) SoftDelete(ctx context.Context, ownerID, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE articles
		SET deleted_at = $3, updated_at = $3
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, ownerID, at)
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrArticleNotFound)
}

// Restore clears deleted_at on a soft-deleted article.
func (r *ArticlesRepository) Restore(ctx context.Context, ownerID, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE articles
		SET deleted_at = NULL, updated_at = $3
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NOT NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, ownerID, at)
	if err != nil {
		return err
	}
	return expectOneRow(result, domain.ErrArticleNotFound)
}
