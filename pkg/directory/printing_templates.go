package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/proforma-api/pkg/auth"
	"github.com/tendant/proforma-api/pkg/domain"
)

const (
	maxTemplateOptionLength = 50
	maxTemplateHTMLLength   = 64 << 10
	maxCopies               = 100
)

// PrintingTemplateRepository persists printing templates scoped to a user.
type PrintingTemplateRepository interface {
	Create(ctx context.Context, t *domain.PrintingTemplate) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.PrintingTemplate, error)
	ListByUser(ctx context.Context, userID uuid.UUID, deleted bool) ([]*domain.PrintingTemplate, error)
	Search(ctx context.Context, userID uuid.UUID, term string) ([]*domain.PrintingTemplate, error)
	Update(ctx context.Context, t *domain.PrintingTemplate) error
	SoftDelete(ctx context.Context, userID, id uuid.UUID, at time.Time) error
	Restore(ctx context.Context, userID, id uuid.UUID, at time.Time) error
}

// PrintingTemplateInput holds the editable template fields.
type PrintingTemplateInput struct {
	Name            string
	PageOrientation *string
	ColorMode       *string
	// Copies defaults to 1 when nil.
	Copies     *int
	PaperSize  *string
	HeaderHTML *string
	FooterHTML *string
}

// PrintingTemplateService manages the caller's printing templates.
type PrintingTemplateService struct {
	templates PrintingTemplateRepository
	now       func() time.Time
}

// NewPrintingTemplateService creates a new printing template service.
func NewPrintingTemplateService(templates PrintingTemplateRepository) *PrintingTemplateService {
	return &PrintingTemplateService{templates: templates, now: time.Now}
}

// Create stores a new template for userID.
func (s *PrintingTemplateService) Create(ctx context.Context, userID uuid.UUID, in PrintingTemplateInput) (*domain.PrintingTemplate, error) {
	now := s.now()
	t := &domain.PrintingTemplate{ID: uuid.New(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	if err := applyPrintingTemplateInput(t, in); err != nil {
		return nil, err
	}
	if err := s.templates.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns a live template.
func (s *PrintingTemplateService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.PrintingTemplate, error) {
	return s.templates.GetByID(ctx, userID, id)
}

// List returns the user's live or soft-deleted templates.
func (s *PrintingTemplateService) List(ctx context.Context, userID uuid.UUID, deleted bool) ([]*domain.PrintingTemplate, error) {
	return s.templates.ListByUser(ctx, userID, deleted)
}

// Search finds live templates by name.
func (s *PrintingTemplateService) Search(ctx context.Context, userID uuid.UUID, term string) ([]*domain.PrintingTemplate, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", domain.ErrInvalidInput)
	}
	return s.templates.Search(ctx, userID, term)
}

// Update replaces the fields of a template.
func (s *PrintingTemplateService) Update(ctx context.Context, userID, id uuid.UUID, in PrintingTemplateInput) (*domain.PrintingTemplate, error) {
	t, err := s.templates.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := applyPrintingTemplateInput(t, in); err != nil {
		return nil, err
	}
	t.UpdatedAt = s.now()
	if err := s.templates.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete soft-deletes a template.
func (s *PrintingTemplateService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.templates.SoftDelete(ctx, userID, id, s.now())
}

// Restore undoes a soft delete.
func (s *PrintingTemplateService) Restore(ctx context.Context, userID, id uuid.UUID) error {
	return s.templates.Restore(ctx, userID, id, s.now())
}

func applyPrintingTemplateInput(t *domain.PrintingTemplate, in PrintingTemplateInput) error {
	name, err := cleanName(in.Name)
	if err != nil {
		return err
	}
	copies := 1
	if in.Copies != nil {
		copies = *in.Copies
	}
	if copies <= 0 || copies > maxCopies {
		return fmt.Errorf("%w: copies must be between 1 and %d", domain.ErrInvalidInput, maxCopies)
	}

	options := []struct {
		field string
		in    *string
		out   **string
		max   int
	}{
		{"page_orientation", in.PageOrientation, &t.PageOrientation, maxTemplateOptionLength},
		{"color_mode", in.ColorMode, &t.ColorMode, maxTemplateOptionLength},
		{"paper_size", in.PaperSize, &t.PaperSize, maxTemplateOptionLength},
	}
	for _, o := range options {
		v := optionalText(o.in)
		if v != nil {
			if err := auth.ValidateLength(o.field, *v, 0, o.max); err != nil {
				return err
			}
		}
		*o.out = v
	}

	header, err := optionalHTML("header_html", in.HeaderHTML)
	if err != nil {
		return err
	}
	footer, err := optionalHTML("footer_html", in.FooterHTML)
	if err != nil {
		return err
	}

	t.Name = name
	t.Copies = copies
	t.HeaderHTML = header
	t.FooterHTML = footer
	return nil
}

// optionalHTML keeps markup byte for byte; only blank values become nil.
func optionalHTML(field string, v *string) (*string, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	if len(*v) > maxTemplateHTMLLength {
		return nil, fmt.Errorf("%w: %s must be at most %d bytes", domain.ErrInvalidInput, field, maxTemplateHTMLLength)
	}
	html := *v
	return &html, nil
}
