package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/proforma-api/pkg/auth"
	"github.com/tendant/proforma-api/pkg/domain"
)

const maxNameLength = 100

// UserRepository persists user accounts.
type UserRepository interface {
	CreateAccount(ctx context.Context, user *domain.User, cred *domain.UserPassword, settings []*domain.Configuration) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context, deleted bool, page domain.PageRequest) ([]*domain.User, int, error)
	Search(ctx context.Context, term string) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	Restore(ctx context.Context, id uuid.UUID, at time.Time) error
}

// CreateUserInput holds the fields of a new account.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	// Active defaults to true.
	Active *bool
}

// UpdateUserInput holds the fields to change. Nil fields are left alone.
type UpdateUserInput struct {
	Name   *string
	Email  *string
	Active *bool
}

// UserService manages user accounts. Deleting or deactivating an account
// revokes all of its sessions.
type UserService struct {
	users    UserRepository
	sessions auth.SessionRevoker
	hasher   auth.Hasher
	policy   *auth.PasswordPolicy
	logger   *slog.Logger
	now      func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(users UserRepository, sessions auth.SessionRevoker, hasher auth.Hasher, policy *auth.PasswordPolicy, logger *slog.Logger) *UserService {
	if policy == nil {
		policy = &auth.PasswordPolicy{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		policy:   policy,
		logger:   logger,
		now:      time.Now,
	}
}

// Create validates input, hashes the password and stores the account with
// its default configuration.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	name, err := cleanName(in.Name)
	if err != nil {
		return nil, err
	}
	email := auth.NormalizeEmail(in.Email)
	if err := auth.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := s.policy.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Active:    in.Active == nil || *in.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	cred := &domain.UserPassword{UserID: user.ID, PasswordHash: hash, PasswordUpdatedAt: now}
	description := domain.DefaultThemeDescription
	settings := []*domain.Configuration{{
		ID:          uuid.New(),
		UserID:      user.ID,
		Key:         domain.DefaultThemeKey,
		Value:       domain.DefaultThemeValue,
		Description: &description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}}

	if err := s.users.CreateAccount(ctx, user, cred, settings); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user created", "user_id", user.ID)
	return user, nil
}

// Get returns a live user.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// List returns one page of live or soft-deleted users.
func (s *UserService) List(ctx context.Context, deleted bool, req domain.PageRequest) (*domain.Page[*domain.UserProfile], error) {
	req = req.Normalize()
	users, total, err := s.users.List(ctx, deleted, req)
	if err != nil {
		return nil, err
	}
	return &domain.Page[*domain.UserProfile]{
		Items:      profiles(users),
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalItems: total,
		TotalPages: req.TotalPages(total),
	}, nil
}

// Search returns live users whose name or email contains term.
func (s *UserService) Search(ctx context.Context, term string) ([]*domain.UserProfile, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", domain.ErrInvalidInput)
	}
	users, err := s.users.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	return profiles(users), nil
}

// Update applies in to a live user.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	wasActive := user.Active

	if in.Name != nil {
		if user.Name, err = cleanName(*in.Name); err != nil {
			return nil, err
		}
	}
	if in.Email != nil {
		email := auth.NormalizeEmail(*in.Email)
		if err := auth.ValidateEmail(email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if in.Active != nil {
		user.Active = *in.Active
	}
	user.UpdatedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if wasActive && !user.Active {
		s.revokeSessions(ctx, user.ID)
	}
	return user, nil
}

// Delete soft-deletes a user and revokes its sessions.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.users.SoftDelete(ctx, id, s.now()); err != nil {
		return err
	}
	s.revokeSessions(ctx, id)
	s.logger.InfoContext(ctx, "user deleted", "user_id", id)
	return nil
}

// Restore undoes a soft delete.
func (s *UserService) Restore(ctx context.Context, id uuid.UUID) error {
	return s.users.Restore(ctx, id, s.now())
}

func (s *UserService) revokeSessions(ctx context.Context, userID uuid.UUID) {
	if s.sessions == nil {
		return
	}
	if _, err := s.sessions.RevokeAllSessions(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke user sessions", "user_id", userID, "error", err)
	}
}

func profiles(users []*domain.User) []*domain.UserProfile {
	out := make([]*domain.UserProfile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	return out
}

func cleanName(name string) (string, error) {
	name = auth.CleanText(name)
	if err := auth.ValidateLength("name", name, 1, maxNameLength); err != nil {
		return "", err
	}
	return name, nil
}
