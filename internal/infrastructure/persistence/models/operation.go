package models

import (
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/operation"
	"github.com/shopspring/decimal"
)

// OperationModel is the persistence model for Operation
type OperationModel struct {
	BaseModel
	SenderAccountID    uuid.UUID        `gorm:"type:uuid;not null"`
	RecipientAccountID uuid.UUID        `gorm:"type:uuid;not null"`
	SenderAmount       decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	RecipientAmount    decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	Fee                decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	Status             operation.Status `gorm:"type:varchar(16);not null;index"`
	OwnerCompanyID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	SenderUserID       *uuid.UUID       `gorm:"type:uuid;index"`
	RecipientUserID    *uuid.UUID       `gorm:"type:uuid;index"`
}

func (OperationModel) TableName() string {
	return "operations"
}

func (m *OperationModel) ToDomain() *operation.Operation {
	return &operation.Operation{
		BaseEntity:         m.BaseModel.ToDomain(),
		SenderAccountID:    m.SenderAccountID,
		RecipientAccountID: m.RecipientAccountID,
		SenderAmount:       m.SenderAmount,
		RecipientAmount:    m.RecipientAmount,
		Fee:                m.Fee,
		Status:             m.Status,
		OwnerCompanyID:     m.OwnerCompanyID,
		SenderUserID:       m.SenderUserID,
		RecipientUserID:    m.RecipientUserID,
	}
}

func OperationModelFromDomain(o *operation.Operation) *OperationModel {
	m := &OperationModel{
		SenderAccountID:    o.SenderAccountID,
		RecipientAccountID: o.RecipientAccountID,
		SenderAmount:       o.SenderAmount,
		RecipientAmount:    o.RecipientAmount,
		Fee:                o.Fee,
		Status:             o.Status,
		OwnerCompanyID:     o.OwnerCompanyID,
		SenderUserID:       o.SenderUserID,
		RecipientUserID:    o.RecipientUserID,
	}
	m.FromDomainBaseEntity(o.BaseEntity)
	return m
}
