package models

import (
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for Invoice. Items live in their
// own table and are loaded separately.
type InvoiceModel struct {
	BaseModel
	CreatedByID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	ForCompanyID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	RecipientAccountID uuid.UUID  `gorm:"type:uuid;not null"`
	SenderAccountID    *uuid.UUID `gorm:"type:uuid"`
	OperationID        *uuid.UUID `gorm:"type:uuid"`
	Description        string     `gorm:"type:text"`
}

func (InvoiceModel) TableName() string {
	return "invoices"
}

func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	return &invoicing.Invoice{
		BaseEntity:         m.BaseModel.ToDomain(),
		CreatedByID:        m.CreatedByID,
		ForCompanyID:       m.ForCompanyID,
		RecipientAccountID: m.RecipientAccountID,
		SenderAccountID:    m.SenderAccountID,
		OperationID:        m.OperationID,
		Description:        m.Description,
	}
}

func InvoiceModelFromDomain(i *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		CreatedByID:        i.CreatedByID,
		ForCompanyID:       i.ForCompanyID,
		RecipientAccountID: i.RecipientAccountID,
		SenderAccountID:    i.SenderAccountID,
		OperationID:        i.OperationID,
		Description:        i.Description,
	}
	m.FromDomainBaseEntity(i.BaseEntity)
	return m
}

// InvoiceItemModel is one invoice line
type InvoiceItemModel struct {
	BaseModel
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount      decimal.Decimal `gorm:"type:decimal(9,2);not null"`
	Quantity    int             `gorm:"not null"`
	Description string          `gorm:"type:text"`
}

func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

func (m *InvoiceItemModel) ToDomain() *invoicing.InvoiceItem {
	return &invoicing.InvoiceItem{
		BaseEntity:  m.BaseModel.ToDomain(),
		InvoiceID:   m.InvoiceID,
		Amount:      m.Amount,
		Quantity:    m.Quantity,
		Description: m.Description,
	}
}

func InvoiceItemModelFromDomain(i *invoicing.InvoiceItem) *InvoiceItemModel {
	m := &InvoiceItemModel{
		InvoiceID:   i.InvoiceID,
		Amount:      i.Amount,
		Quantity:    i.Quantity,
		Description: i.Description,
	}
	m.FromDomainBaseEntity(i.BaseEntity)
	return m
}
