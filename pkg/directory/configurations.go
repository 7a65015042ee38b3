package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/proforma-api/pkg/auth"
	"github.com/tendant/proforma-api/pkg/domain"
)

const (
	maxConfigKeyLength   = 64
	maxConfigValueLength = 1024
)

// ConfigurationRepository persists per-user settings.
type ConfigurationRepository interface {
	Upsert(ctx context.Context, cfg *domain.Configuration) error
	GetByKey(ctx context.Context, userID uuid.UUID, key string) (*domain.Configuration, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Configuration, error)
}

// ConfigurationService reads and writes a user's settings.
type ConfigurationService struct {
	configs ConfigurationRepository
	now     func() time.Time
}

// NewConfigurationService creates a new configuration service.
func NewConfigurationService(configs ConfigurationRepository) *ConfigurationService {
	return &ConfigurationService{configs: configs, now: time.Now}
}

// List returns all settings of userID.
func (s *ConfigurationService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Configuration, error) {
	return s.configs.ListByUser(ctx, userID)
}

// Get returns one setting.
func (s *ConfigurationService) Get(ctx context.Context, userID uuid.UUID, key string) (*domain.Configuration, error) {
	return s.configs.GetByKey(ctx, userID, key)
}

// Set creates or replaces the value of key for userID.
func (s *ConfigurationService) Set(ctx context.Context, userID uuid.UUID, key, value string, description *string) (*domain.Configuration, error) {
	key = auth.CleanText(key)
	if err := auth.ValidateLength("key", key, 1, maxConfigKeyLength); err != nil {
		return nil, err
	}
	if len(value) > maxConfigValueLength {
		return nil, fmt.Errorf("%w: value must be at most %d bytes", domain.ErrInvalidInput, maxConfigValueLength)
	}

	now := s.now()
	cfg := &domain.Configuration{
		ID:          uuid.New(),
		UserID:      userID,
		Key:         key,
		Value:       value,
		Description: optionalText(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.configs.Upsert(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
