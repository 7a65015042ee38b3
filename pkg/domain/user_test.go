package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestUser_CanAuthenticate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		active    bool
		deletedAt *time.Time
		want      bool
	}{
		{
			name:   "active user",
			active: true,
			want:   true,
		},
		{
			name:   "inactive user",
			active: false,
			want:   false,
		},
		{
			name:      "soft-deleted user",
			active:    true,
			deletedAt: &now,
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &User{
				ID:        uuid.New(),
				Email:     "test@example.com",
				Active:    tt.active,
				DeletedAt: tt.deletedAt,
			}

			if got := user.CanAuthenticate(); got != tt.want {
				t.Errorf("CanAuthenticate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUser_Profile(t *testing.T) {
	user := &User{
		ID:     uuid.New(),
		Name:   "Ana",
		Email:  "ana@example.com",
		Active: true,
	}

	p := user.Profile()
	if p.ID != user.ID {
		t.Errorf("ID: got %v, want %v", p.ID, user.ID)
	}
	if p.Name != user.Name || p.Email != user.Email || p.Active != user.Active {
		t.Errorf("Profile mismatch: got %+v", p)
	}
}

func TestPasswordReset_IsExpired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		createdAt time.Time
		want      bool
	}{
		{"fresh", now.Add(-5 * time.Minute), false},
		{"exactly at ttl", now.Add(-time.Hour), false},
		{"past ttl", now.Add(-time.Hour - time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &PasswordReset{Email: "a@b.c", Token: "t", CreatedAt: tt.createdAt}
			if got := r.IsExpired(now, time.Hour); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPageRequest_Normalize(t *testing.T) {
	tests := []struct {
		name       string
		in         PageRequest
		wantPage   int
		wantSize   int
		wantOffset int
	}{
		{"zero values", PageRequest{}, 1, DefaultPageSize, 0},
		{"second page", PageRequest{Page: 2, PageSize: 10}, 2, 10, 10},
		{"oversized", PageRequest{Page: 1, PageSize: 1000}, 1, MaxPageSize, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if got.Page != tt.wantPage || got.PageSize != tt.wantSize {
				t.Errorf("Normalize() = %+v, want page=%d size=%d", got, tt.wantPage, tt.wantSize)
			}
			if got.Offset() != tt.wantOffset {
				t.Errorf("Offset() = %d, want %d", got.Offset(), tt.wantOffset)
			}
		})
	}

	if n := (PageRequest{Page: 1, PageSize: 10}).TotalPages(21); n != 3 {
		t.Errorf("TotalPages(21) = %d, want 3", n)
	}
}
