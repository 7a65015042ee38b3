package directory

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/tendant/proforma-api/pkg/auth"
	"github.com/tendant/proforma-api/pkg/domain"
)

const (
	maxDescriptionLength = 255
	maxSourceInfoLength  = 100
	maxBarcodeLength     = 100
	maxBarcodes          = 20
)

// ArticleRepository persists articles scoped to their owner.
type ArticleRepository interface {
	Create(ctx context.Context, article *domain.Article) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Article, error)
	GetByBarcode(ctx context.Context, ownerID uuid.UUID, barcode string) (*domain.Article, error)
	List(ctx context.Context, ownerID uuid.UUID, deleted bool, page domain.PageRequest) ([]*domain.Article, int, error)
	Search(ctx context.Context, ownerID uuid.UUID, term string) ([]*domain.Article, error)
	Update(ctx context.Context, article *domain.Article) error
	SoftDelete(ctx context.Context, ownerID, id uuid.UUID, at time.Time) error
	Restore(ctx context.Context, ownerID, id uuid.UUID, at time.Time) error
}

// ArticleInput holds the editable article fields.
type ArticleInput struct {
	SourceInfo       *string
	Description      string
	TaxPercentage    string
	Cost             string
	ProfitPercentage string
	// Active defaults to true on create and is left alone on update when nil.
	Active *bool
	// Barcodes must hold at least one code on create. On update nil keeps
	// the current set and anything else replaces it.
	Barcodes []string
}

// ArticleService manages the caller's article catalogue.
type ArticleService struct {
	articles ArticleRepository
	now      func() time.Time
}

// NewArticleService creates a new article service.
func NewArticleService(articles ArticleRepository) *ArticleService {
	return &ArticleService{articles: articles, now: time.Now}
}

// Create stores a new article owned by ownerID.
func (s *ArticleService) Create(ctx context.Context, ownerID uuid.UUID, in ArticleInput) (*domain.Article, error) {
	now := s.now()
	article := &domain.Article{ID: uuid.New(), OwnerID: ownerID, Active: true, CreatedAt: now, UpdatedAt: now}
	if err := applyArticleInput(article, in); err != nil {
		return nil, err
	}
	if err := s.articles.Create(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// Get returns a live article.
func (s *ArticleService) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Article, error) {
	return s.articles.GetByID(ctx, ownerID, id)
}

// GetByBarcode returns the live article carrying barcode.
func (s *ArticleService) GetByBarcode(ctx context.Context, ownerID uuid.UUID, barcode string) (*domain.Article, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("%w: barcode is required", domain.ErrInvalidInput)
	}
	return s.articles.GetByBarcode(ctx, ownerID, barcode)
}

// List returns one page of live or soft-deleted articles.
func (s *ArticleService) List(ctx context.Context, ownerID uuid.UUID, deleted bool, req domain.PageRequest) (*domain.Page[*domain.Article], error) {
	req = req.Normalize()
	articles, total, err := s.articles.List(ctx, ownerID, deleted, req)
	if err != nil {
		return nil, err
	}
	return &domain.Page[*domain.Article]{
		Items:      articles,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalItems: total,
		TotalPages: req.TotalPages(total),
	}, nil
}

// Search finds live articles by description, source or barcode.
func (s *ArticleService) Search(ctx context.Context, ownerID uuid.UUID, term string) ([]*domain.Article, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", domain.ErrInvalidInput)
	}
	return s.articles.Search(ctx, ownerID, term)
}

// Update replaces the editable fields of an article.
func (s *ArticleService) Update(ctx context.Context, ownerID, id uuid.UUID, in ArticleInput) (*domain.Article, error) {
	article, err := s.articles.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if in.Barcodes == nil {
		in.Barcodes = article.Barcodes
	}
	if err := applyArticleInput(article, in); err != nil {
		return nil, err
	}
	article.UpdatedAt = s.now()
	if err := s.articles.Update(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// Delete soft-deletes an article.
func (s *ArticleService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.articles.SoftDelete(ctx, ownerID, id, s.now())
}

// Restore undoes a soft delete.
func (s *ArticleService) Restore(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.articles.Restore(ctx, ownerID, id, s.now())
}

func applyArticleInput(article *domain.Article, in ArticleInput) error {
	description := auth.CleanText(in.Description)
	if err := auth.ValidateLength("description", description, 1, maxDescriptionLength); err != nil {
		return err
	}
	source := optionalText(in.SourceInfo)
	if source != nil {
		if err := auth.ValidateLength("source_info", *source, 0, maxSourceInfoLength); err != nil {
			return err
		}
	}
	tax, err := percentage("tax_percentage", in.TaxPercentage)
	if err != nil {
		return err
	}
	cost, err := amount("cost", in.Cost)
	if err != nil {
		return err
	}
	profit, err := percentage("profit_percentage", in.ProfitPercentage)
	if err != nil {
		return err
	}
	barcodes, err := cleanBarcodes(in.Barcodes)
	if err != nil {
		return err
	}

	article.SourceInfo = source
	article.Description = description
	article.TaxPercentage = tax
	article.Cost = cost
	article.ProfitPercentage = profit
	article.Barcodes = barcodes
	if in.Active != nil {
		article.Active = *in.Active
	}
	return nil
}

func cleanBarcodes(codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, fmt.Errorf("%w: at least one barcode is required", domain.ErrInvalidInput)
	}
	if len(codes) > maxBarcodes {
		return nil, fmt.Errorf("%w: at most %d barcodes are allowed", domain.ErrInvalidInput, maxBarcodes)
	}
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if err := auth.ValidateLength("barcode", code, 1, maxBarcodeLength); err != nil {
			return nil, err
		}
		if strings.ContainsFunc(code, isSpaceOrControl) {
			return nil, fmt.Errorf("%w: barcode %q contains whitespace", domain.ErrInvalidInput, code)
		}
		if seen[code] {
			return nil, fmt.Errorf("%w: barcode %q is listed twice", domain.ErrInvalidInput, code)
		}
		seen[code] = true
		out = append(out, code)
	}
	return out, nil
}

func isSpaceOrControl(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r)
}
