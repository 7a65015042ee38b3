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

const maxIdentificationLength = 30

// ClientRepository persists clients and their organization links.
type ClientRepository interface {
	CreateInOrganization(ctx context.Context, orgID uuid.UUID, client *domain.Client) error
	GetInOrganization(ctx context.Context, orgID, id uuid.UUID) (*domain.Client, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID, deleted bool) ([]*domain.Client, error)
	Search(ctx context.Context, orgID uuid.UUID, term string) ([]*domain.Client, error)
	Update(ctx context.Context, orgID uuid.UUID, client *domain.Client) error
	Unlink(ctx context.Context, orgID, id uuid.UUID, at time.Time) error
	Relink(ctx context.Context, orgID, id uuid.UUID) error
}

// ClientInput holds the editable client fields.
type ClientInput struct {
	Identification string
	Name           string
	LastName       *string
	Email          *string
	Phone          *string
	// Active defaults to true on create and is left alone on update when nil.
	Active *bool
}

// ClientService manages clients inside organizations the caller owns.
// Every call first checks that ownerID owns orgID.
type ClientService struct {
	clients ClientRepository
	orgs    OrganizationRepository
	now     func() time.Time
}

// NewClientService creates a new client service.
func NewClientService(clients ClientRepository, orgs OrganizationRepository) *ClientService {
	return &ClientService{clients: clients, orgs: orgs, now: time.Now}
}

// Create stores a client and links it to the organization.
func (s *ClientService) Create(ctx context.Context, ownerID, orgID uuid.UUID, in ClientInput) (*domain.Client, error) {
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return nil, err
	}
	now := s.now()
	client := &domain.Client{ID: uuid.New(), Active: true, CreatedAt: now, UpdatedAt: now}
	if err := applyClientInput(client, in); err != nil {
		return nil, err
	}
	if err := s.clients.CreateInOrganization(ctx, orgID, client); err != nil {
		return nil, err
	}
	return client, nil
}

// Get returns a client linked to the organization.
func (s *ClientService) Get(ctx context.Context, ownerID, orgID, id uuid.UUID) (*domain.Client, error) {
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return nil, err
	}
	return s.clients.GetInOrganization(ctx, orgID, id)
}

// List returns the organization's linked or unlinked clients.
func (s *ClientService) List(ctx context.Context, ownerID, orgID uuid.UUID, deleted bool) ([]*domain.Client, error) {
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return nil, err
	}
	return s.clients.ListByOrganization(ctx, orgID, deleted)
}

// Search finds linked clients by identification, name or last name.
func (s *ClientService) Search(ctx context.Context, ownerID, orgID uuid.UUID, term string) ([]*domain.Client, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", domain.ErrInvalidInput)
	}
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return nil, err
	}
	return s.clients.Search(ctx, orgID, term)
}

// Update replaces the editable fields of a linked client.
func (s *ClientService) Update(ctx context.Context, ownerID, orgID, id uuid.UUID, in ClientInput) (*domain.Client, error) {
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return nil, err
	}
	client, err := s.clients.GetInOrganization(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := applyClientInput(client, in); err != nil {
		return nil, err
	}
	client.UpdatedAt = s.now()
	if err := s.clients.Update(ctx, orgID, client); err != nil {
		return nil, err
	}
	return client, nil
}

// Delete unlinks a client from the organization.
func (s *ClientService) Delete(ctx context.Context, ownerID, orgID, id uuid.UUID) error {
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return err
	}
	return s.clients.Unlink(ctx, orgID, id, s.now())
}

// Restore relinks a previously deleted client.
func (s *ClientService) Restore(ctx context.Context, ownerID, orgID, id uuid.UUID) error {
	if err := s.checkOwner(ctx, ownerID, orgID); err != nil {
		return err
	}
	return s.clients.Relink(ctx, orgID, id)
}

func (s *ClientService) checkOwner(ctx context.Context, ownerID, orgID uuid.UUID) error {
	_, err := s.orgs.GetByID(ctx, ownerID, orgID)
	return err
}

func applyClientInput(client *domain.Client, in ClientInput) error {
	identification := auth.CleanText(in.Identification)
	if err := auth.ValidateLength("identification", identification, 1, maxIdentificationLength); err != nil {
		return err
	}
	name, err := cleanName(in.Name)
	if err != nil {
		return err
	}
	email, err := optionalEmail(in.Email)
	if err != nil {
		return err
	}

	client.Identification = identification
	client.Name = name
	client.LastName = optionalText(in.LastName)
	client.Email = email
	client.Phone = optionalText(in.Phone)
	if in.Active != nil {
		client.Active = *in.Active
	}
	return nil
}
