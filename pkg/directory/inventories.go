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
	maxInventoryDetails = 1000
	maxNotesLength      = 1000
)

// InventoryRepository persists inventories scoped to their organization.
type InventoryRepository interface {
	Create(ctx context.Context, inv *domain.Inventory) error
	GetInOrganization(ctx context.Context, orgID, id uuid.UUID) (*domain.Inventory, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID, deleted bool) ([]*domain.Inventory, error)
	Search(ctx context.Context, orgID uuid.UUID, term string) ([]*domain.Inventory, error)
	Update(ctx context.Context, inv *domain.Inventory) error
	AddStock(ctx context.Context, orgID, id, articleID uuid.UUID, quantity int, at time.Time) error
	SoftDelete(ctx context.Context, orgID, id uuid.UUID, at time.Time) error
	Restore(ctx context.Context, orgID, id uuid.UUID, at time.Time) error
}

// InventoryInput holds the editable inventory fields. Details replace the
// whole stock list.
type InventoryInput struct {
	Name    string
	Details []InventoryDetailInput
}

// InventoryDetailInput is the counted stock of one article.
type InventoryDetailInput struct {
	ArticleID uuid.UUID
	Quantity  int
	Notes     *string
}

// InventoryService manages inventories of organizations the caller owns.
// Stocked articles must belong to the caller's catalogue.
type InventoryService struct {
	inventories InventoryRepository
	orgs        OrganizationRepository
	articles    ArticleRepository
	now         func() time.Time
}

// NewInventoryService creates a new inventory service.
func NewInventoryService(inventories InventoryRepository, orgs OrganizationRepository, articles ArticleRepository) *InventoryService {
	return &InventoryService{inventories: inventories, orgs: orgs, articles: articles, now: time.Now}
}

// Create stores an inventory for the organization.
func (s *InventoryService) Create(ctx context.Context, ownerID, orgID uuid.UUID, in InventoryInput) (*domain.Inventory, error) {
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return nil, err
	}
	now := s.now()
	inv := &domain.Inventory{ID: uuid.New(), OrganizationID: orgID, CreatedAt: now, UpdatedAt: now}
	if err := s.apply(ctx, ownerID, inv, in); err != nil {
		return nil, err
	}
	if err := s.inventories.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Get returns an inventory with its stock.
func (s *InventoryService) Get(ctx context.Context, ownerID, orgID, id uuid.UUID) (*domain.Inventory, error) {
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return nil, err
	}
	return s.inventories.GetInOrganization(ctx, orgID, id)
}

// List returns the organization's live or soft-deleted inventories.
func (s *InventoryService) List(ctx context.Context, ownerID, orgID uuid.UUID, deleted bool) ([]*domain.Inventory, error) {
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return nil, err
	}
	return s.inventories.ListByOrganization(ctx, orgID, deleted)
}

// Search finds inventories by name or stocked article description.
func (s *InventoryService) Search(ctx context.Context, ownerID, orgID uuid.UUID, term string) ([]*domain.Inventory, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", domain.ErrInvalidInput)
	}
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return nil, err
	}
	return s.inventories.Search(ctx, orgID, term)
}

// Update renames an inventory and replaces its stock list.
func (s *InventoryService) Update(ctx context.Context, ownerID, orgID, id uuid.UUID, in InventoryInput) (*domain.Inventory, error) {
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return nil, err
	}
	inv, err := s.inventories.GetInOrganization(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, ownerID, inv, in); err != nil {
		return nil, err
	}
	inv.UpdatedAt = s.now()
	if err := s.inventories.Update(ctx, inv); err != nil {
		return nil, err
	}
	return s.inventories.GetInOrganization(ctx, orgID, id)
}

// AddArticle adds quantity units of the article carrying barcode to the
// inventory and returns the updated inventory.
func (s *InventoryService) AddArticle(ctx context.Context, ownerID, orgID, id uuid.UUID, barcode string, quantity int) (*domain.Inventory, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("%w: barcode is required", domain.ErrInvalidInput)
	}
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return nil, err
	}
	article, err := s.articles.GetByBarcode(ctx, ownerID, barcode)
	if err != nil {
		return nil, err
	}
	if err := s.inventories.AddStock(ctx, orgID, id, article.ID, quantity, s.now()); err != nil {
		return nil, err
	}
	return s.inventories.GetInOrganization(ctx, orgID, id)
}

// Delete soft-deletes an inventory.
func (s *InventoryService) Delete(ctx context.Context, ownerID, orgID, id uuid.UUID) error {
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return err
	}
	return s.inventories.SoftDelete(ctx, orgID, id, s.now())
}

// Restore undoes a soft delete.
func (s *InventoryService) Restore(ctx context.Context, ownerID, orgID, id uuid.UUID) error {
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return err
	}
	return s.inventories.Restore(ctx, orgID, id, s.now())
}

func (s *InventoryService) checkOwner(ctx context.Context, ownerID, orgID uuid.UUID) error {
	_, err := s.orgs.GetByID(ctx, ownerID, orgID)
	return err
}

func (s *InventoryService) apply(ctx context.Context, ownerID uuid.UUID, inv *domain.Inventory, in InventoryInput) error {
	name, err := cleanName(in.Name)
	if err != nil {
		return err
	}
	if len(in.Details) > maxInventoryDetails {
		return fmt.Errorf("%w: at most %d details are allowed", domain.ErrInvalidInput, maxInventoryDetails)
	}

	seen := make(map[uuid.UUID]bool, len(in.Details))
	details := make([]domain.InventoryDetail, 0, len(in.Details))
	for _, d := range in.Details {
		if d.Quantity < 0 {
			return fmt.Errorf("%w: quantity must not be negative", domain.ErrInvalidInput)
		}
		if seen[d.ArticleID] {
			return fmt.Errorf("%w: article %s is listed twice", domain.ErrInvalidInput, d.ArticleID)
		}
		seen[d.ArticleID] = true

		notes := optionalText(d.Notes)
		if notes != nil {
			if err := auth.ValidateLength("notes", *notes, 0, maxNotesLength); err != nil {
				return err
			}
		}
		article, err := s.articles.GetByID(ctx, ownerID, d.ArticleID)
		if err != nil {
			return err
		}
		details = append(details, domain.InventoryDetail{
			ArticleID:   article.ID,
			Description: article.Description,
			Quantity:    d.Quantity,
			Notes:       notes,
		})
	}

	inv.Name = name
	inv.Details = details
	return nil
}
