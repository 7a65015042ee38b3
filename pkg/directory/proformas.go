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
	maxInvoiceNumberLength = 50
	maxArticleCodeLength   = 100
	maxCommentLength       = 2000
	maxProformaLines       = 500
)

// ProformaRepository persists proformas scoped to their organization.
type ProformaRepository interface {
	Create(ctx context.Context, p *domain.Proforma) error
	GetInOrganization(ctx context.Context, orgID, id uuid.UUID) (*domain.Proforma, error)
	List(ctx context.Context, orgID uuid.UUID, deleted bool, page domain.PageRequest) ([]*domain.Proforma, int, error)
	Search(ctx context.Context, orgID uuid.UUID, term string) ([]*domain.Proforma, error)
	SoftDelete(ctx context.Context, orgID, id uuid.UUID, at time.Time) error
	Restore(ctx context.Context, orgID, id uuid.UUID, at time.Time) error
}

// ProformaInput describes a new proforma. Amounts are decimal strings and
// are stored as given.
type ProformaInput struct {
	ClientID      uuid.UUID
	InvoiceNumber string
	Comment       *string
	Subtotal      string
	Taxes         string
	DiscountTotal string
	Total         string
	Lines         []ProformaLineInput
}

// ProformaLineInput describes one quoted item.
type ProformaLineInput struct {
	ArticleCode string
	Quantity    int
	Discount    string
	ItemComment *string
	UnitPrice   string
	UnitTax     string
	LineTotal   string
}

// ProformaService issues proformas for organizations the caller owns.
// Proformas are immutable once issued; they can only be deleted and restored.
type ProformaService struct {
	proformas ProformaRepository
	orgs      OrganizationRepository
	clients   ClientRepository
	now       func() time.Time
}

// NewProformaService creates a new proforma service.
func NewProformaService(proformas ProformaRepository, orgs OrganizationRepository, clients ClientRepository) *ProformaService {
	return &ProformaService{proformas: proformas, orgs: orgs, clients: clients, now: time.Now}
}

// Create issues a proforma to a client linked to the organization. Sold
// quantities are taken out of the organization's stock.
func (s *ProformaService) Create(ctx context.Context, ownerID, orgID uuid.UUID, in ProformaInput) (*domain.Proforma, error) {
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return nil, err
	}
	now := s.now()
	p := &domain.Proforma{ID: uuid.New(), OrganizationID: orgID, ClientID: in.ClientID, CreatedAt: now, UpdatedAt: now}
	if err := applyProformaInput(p, in); err != nil {
		return nil, err
	}
	if _, err := s.clients.GetInOrganization(ctx, orgID, in.ClientID); err != nil {
		return nil, err
	}
	if err := s.proformas.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a proforma with its lines.
func (s *ProformaService) Get(ctx context.Context, ownerID, orgID, id uuid.UUID) (*domain.Proforma, error) {
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return nil, err
	}
	return s.proformas.GetInOrganization(ctx, orgID, id)
}

// List returns one page of the organization's proformas, newest first.
func (s *ProformaService) List(ctx context.Context, ownerID, orgID uuid.UUID, deleted bool, req domain.PageRequest) (*domain.Page[*domain.Proforma], error) {
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return nil, err
	}
	req = req.Normalize()
	proformas, total, err := s.proformas.List(ctx, orgID, deleted, req)
	if err != nil {
		return nil, err
	}
	return &domain.Page[*domain.Proforma]{
		Items:      proformas,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalItems: total,
		TotalPages: req.TotalPages(total),
	}, nil
}

// Search finds proformas by invoice number, comment or client name.
func (s *ProformaService) Search(ctx context.Context, ownerID, orgID uuid.UUID, term string) ([]*domain.Proforma, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", domain.ErrInvalidInput)
	}
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return nil, err
	}
	return s.proformas.Search(ctx, orgID, term)
}

// Delete soft-deletes a proforma.
func (s *ProformaService) Delete(ctx context.Context, ownerID, orgID, id uuid.UUID) error {
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return err
	}
	return s.proformas.SoftDelete(ctx, orgID, id, s.now())
}

// Restore undoes a soft delete.
func (s *ProformaService) Restore(ctx context.Context, ownerID, orgID, id uuid.UUID) error {
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return err
	}
	return s.proformas.Restore(ctx, orgID, id, s.now())
}

func (s *ProformaService) checkOwner(ctx context.Context, ownerID, orgID uuid.UUID) error {
	_, err := s.orgs.GetByID(ctx, ownerID, orgID)
	return err
}

func applyProformaInput(p *domain.Proforma, in ProformaInput) error {
	if in.ClientID == uuid.Nil {
		return fmt.Errorf("%w: client_id is required", domain.ErrInvalidInput)
	}
	invoice := auth.CleanText(in.InvoiceNumber)
	if err := auth.ValidateLength("invoice_number", invoice, 1, maxInvoiceNumberLength); err != nil {
		return err
	}
	comment := optionalText(in.Comment)
	if comment != nil {
		if err := auth.ValidateLength("comment", *comment, 0, maxCommentLength); err != nil {
			return err
		}
	}

	var err error
	if p.Subtotal, err = amount("subtotal", in.Subtotal); err != nil {
		return err
	}
	if p.Taxes, err = optionalAmount("taxes", in.Taxes); err != nil {
		return err
	}
	if p.DiscountTotal, err = optionalAmount("discount_total", in.DiscountTotal); err != nil {
		return err
	}
	if p.Total, err = amount("total", in.Total); err != nil {
		return err
	}

	if len(in.Lines) == 0 {
		return fmt.Errorf("%w: at least one line is required", domain.ErrInvalidInput)
	}
	if len(in.Lines) > maxProformaLines {
		return fmt.Errorf("%w: at most %d lines are allowed", domain.ErrInvalidInput, maxProformaLines)
	}
	lines := make([]domain.ProformaLine, 0, len(in.Lines))
	for i, l := range in.Lines {
		line, err := proformaLine(l)
		if err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		lines = append(lines, line)
	}

	p.InvoiceNumber = invoice
	p.Comment = comment
	p.Lines = lines
	return nil
}

func proformaLine(in ProformaLineInput) (domain.ProformaLine, error) {
	var (
		line domain.ProformaLine
		err  error
	)
	line.ArticleCode = strings.TrimSpace(in.ArticleCode)
	if err := auth.ValidateLength("article_code", line.ArticleCode, 1, maxArticleCodeLength); err != nil {
		return line, err
	}
	if in.Quantity <= 0 {
		return line, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	line.Quantity = in.Quantity
	line.ItemComment = optionalText(in.ItemComment)
	if line.ItemComment != nil {
		if err := auth.ValidateLength("item_comment", *line.ItemComment, 0, maxCommentLength); err != nil {
			return line, err
		}
	}
	if line.Discount, err = optionalAmount("discount", in.Discount); err != nil {
		return line, err
	}
	if line.UnitPrice, err = amount("unit_price", in.UnitPrice); err != nil {
		return line, err
	}
	if line.UnitTax, err = optionalAmount("unit_tax", in.UnitTax); err != nil {
		return line, err
	}
	if line.LineTotal, err = amount("line_total", in.LineTotal); err != nil {
		return line, err
	}
	return line, nil
}
