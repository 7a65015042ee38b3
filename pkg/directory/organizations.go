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

// OrganizationRepository persists organizations scoped to their owner.
type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Organization, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, deleted bool) ([]*domain.Organization, error)
	Search(ctx context.Context, ownerID uuid.UUID, term string) ([]*domain.Organization, error)
	Update(ctx context.Context, org *domain.Organization) error
	SoftDelete(ctx context.Context, ownerID, id uuid.UUID, at time.Time) error
	Restore(ctx context.Context, ownerID, id uuid.UUID, at time.Time) error
}

// OrganizationInput holds the editable organization fields.
type OrganizationInput struct {
	Name                  string
	ManagerIdentification *string
	Phone                 *string
	Email                 *string
	Address               *string
}

// OrganizationService manages the organizations a user owns.
type OrganizationService struct {
	orgs OrganizationRepository
	now  func() time.Time
}

// NewOrganizationService creates a new organization service.
func NewOrganizationService(orgs OrganizationRepository) *OrganizationService {
	return &OrganizationService{orgs: orgs, now: time.Now}
}

// Create stores a new organization owned by ownerID.
func (s *OrganizationService) Create(ctx context.Context, ownerID uuid.UUID, in OrganizationInput) (*domain.Organization, error) {
	now := s.now()
	org := &domain.Organization{ID: uuid.New(), OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}
	if err := applyOrganizationInput(org, in); err != nil {
		return nil, err
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// Get returns a live organization owned by ownerID.
func (s *OrganizationService) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Organization, error) {
	return s.orgs.GetByID(ctx, ownerID, id)
}

// List returns the owner's live or soft-deleted organizations.
func (s *OrganizationService) List(ctx context.Context, ownerID uuid.UUID, deleted bool) ([]*domain.Organization, error) {
	return s.orgs.ListByOwner(ctx, ownerID, deleted)
}

// Search finds the owner's organizations by name.
func (s *OrganizationService) Search(ctx context.Context, ownerID uuid.UUID, term string) ([]*domain.Organization, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", domain.ErrInvalidInput)
	}
	return s.orgs.Search(ctx, ownerID, term)
}

// Update replaces the editable fields of an organization.
func (s *OrganizationService) Update(ctx context.Context, ownerID, id uuid.UUID, in OrganizationInput) (*domain.Organization, error) {
	org, err := s.orgs.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := applyOrganizationInput(org, in); err != nil {
		return nil, err
	}
	org.UpdatedAt = s.now()
	if err := s.orgs.Update(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// Delete soft-deletes an organization.
func (s *OrganizationService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.orgs.SoftDelete(ctx, ownerID, id, s.now())
}

// Restore undoes a soft delete.
func (s *OrganizationService) Restore(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.orgs.Restore(ctx, ownerID, id, s.now())
}

func applyOrganizationInput(org *domain.Organization, in OrganizationInput) error {
	name, err := cleanName(in.Name)
	if err != nil {
		return err
	}
	email, err := optionalEmail(in.Email)
	if err != nil {
		return err
	}
	org.Name = name
	org.ManagerIdentification = optionalText(in.ManagerIdentification)
	org.Phone = optionalText(in.Phone)
	org.Email = email
	org.Address = optionalText(in.Address)
	return nil
}

// optionalText cleans v and maps blank values to nil.
func optionalText(v *string) *string {
	if v == nil {
		return nil
	}
	cleaned := auth.CleanText(*v)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func optionalEmail(v *string) (*string, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	email := auth.NormalizeEmail(*v)
	if err := auth.ValidateEmail(email); err != nil {
		return nil, err
	}
	return &email, nil
}
