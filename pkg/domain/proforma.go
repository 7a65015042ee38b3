package domain

import (
	"time"

	"github.com/google/uuid"
)

// Proforma is a quote issued by an organization to one of its clients.
// Totals are supplied by the caller and stored as given.
type Proforma struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	ClientID       uuid.UUID
	InvoiceNumber  string
	Comment        *string
	Subtotal       string
	Taxes          string
	DiscountTotal  string
	Total          string
	// Lines is only filled by single-proforma reads.
	Lines     []ProformaLine
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// IsDeleted returns true if the proforma has been soft-deleted.
func (p *Proforma) IsDeleted() bool {
	return p.DeletedAt != nil
}

// ProformaLine is one quoted item. ArticleCode is a barcode when the item
// comes from the catalogue, free text otherwise.
type ProformaLine struct {
	ArticleCode string
	Quantity    int
	Discount    string
	ItemComment *string
	UnitPrice   string
	UnitTax     string
	LineTotal   string
}
