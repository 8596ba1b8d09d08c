// Package invoicing holds invoices, their line items, and the line-item
// reconciliation used when an invoice is updated.
package invoicing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Invoice is issued by a contractor to a company. It is a draft until an
// operation is attached, and can only be deleted while unpaid.
type Invoice struct {
	shared.BaseEntity
	CreatedByID        uuid.UUID
	ForCompanyID       uuid.UUID
	RecipientAccountID uuid.UUID
	SenderAccountID    *uuid.UUID
	OperationID        *uuid.UUID
	Description        string

	// Items is populated by handlers that load them; it is not persisted
	// with the invoice row.
	Items []InvoiceItem
}

// NewInvoice creates a draft invoice
func NewInvoice(createdBy, forCompany, recipientAccount uuid.UUID, description string) *Invoice {
	return &Invoice{
		BaseEntity:         shared.NewBaseEntity(),
		CreatedByID:        createdBy,
		ForCompanyID:       forCompany,
		RecipientAccountID: recipientAccount,
		Description:        strings.TrimSpace(description),
	}
}

// IsPaid reports whether a payment operation is attached
func (i *Invoice) IsPaid() bool {
	return i.OperationID != nil
}

// EnsureDeletable rejects deletion of paid invoices
func (i *Invoice) EnsureDeletable() error {
	if i.IsPaid() {
		return shared.Validation("paid invoice cannot be deleted")
	}
	return nil
}

// EnsureEditable rejects edits of paid invoices
func (i *Invoice) EnsureEditable() error {
	if i.IsPaid() {
		return shared.Validation("paid invoice cannot be modified")
	}
	return nil
}

// Total sums amount * quantity over the loaded items
func (i *Invoice) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range i.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// InvoiceItem is one line of an invoice. Amount has two decimal places.
type InvoiceItem struct {
	shared.BaseEntity
	InvoiceID   uuid.UUID
	Amount      decimal.Decimal
	Quantity    int
	Description string
}

// NewInvoiceItem validates and creates a line item
func NewInvoiceItem(invoiceID uuid.UUID, amount decimal.Decimal, quantity int, description string) (*InvoiceItem, error) {
	item := &InvoiceItem{
		BaseEntity:  shared.NewBaseEntity(),
		InvoiceID:   invoiceID,
		Amount:      amount.Round(2),
		Quantity:    quantity,
		Description: strings.TrimSpace(description),
	}
	if err := item.validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// Subtotal is amount times quantity
func (it *InvoiceItem) Subtotal() decimal.Decimal {
	return it.Amount.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// maxAmount matches the numeric(9,2) column
var maxAmount = decimal.RequireFromString("9999999.99")

func (it *InvoiceItem) validate() error {
	if it.Amount.IsNegative() {
		return shared.Validation("item amount cannot be negative")
	}
	if it.Amount.GreaterThan(maxAmount) {
		return shared.Validation("item amount exceeds 9999999.99")
	}
	if it.Quantity < 0 {
		return shared.Validation("item quantity cannot be negative")
	}
	return nil
}

type InvoiceRepository interface {
	shared.Repository[Invoice]
}

type InvoiceItemRepository interface {
	shared.Repository[InvoiceItem]
}
