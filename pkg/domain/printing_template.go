package domain

import (
	"time"

	"github.com/google/uuid"
)

// PrintingTemplate holds a user's page settings for printed proformas.
type PrintingTemplate struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Name            string
	PageOrientation *string
	ColorMode       *string
	Copies          int
	PaperSize       *string
	HeaderHTML      *string
	FooterHTML      *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// IsDeleted returns true if the template has been soft-deleted.
func (t *PrintingTemplate) IsDeleted() bool {
	return t.DeletedAt != nil
}
