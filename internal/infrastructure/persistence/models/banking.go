package models

import (
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/banking"
)

// BankAccountColumns are shared by sender and recipient accounts
type BankAccountColumns struct {
	OwnerUserID    *uuid.UUID          `gorm:"type:uuid;index"`
	OwnerCompanyID *uuid.UUID          `gorm:"type:uuid;index"`
	Title          string              `gorm:"type:varchar(200)"`
	AccountNumber  string              `gorm:"type:varchar(64);not null"`
	Type           banking.AccountType `gorm:"type:varchar(16);not null"`
	Currency       banking.Currency    `gorm:"type:varchar(3);not null"`
	Country        banking.Country     `gorm:"type:varchar(3);not null"`
}

func (c BankAccountColumns) toDomain() (banking.Owner, banking.Details) {
	return banking.Owner{UserID: c.OwnerUserID, CompanyID: c.OwnerCompanyID},
		banking.Details{
			Title:         c.Title,
			AccountNumber: c.AccountNumber,
			Type:          c.Type,
			Currency:      c.Currency,
			Country:       c.Country,
		}
}

func bankAccountColumns(o banking.Owner, d banking.Details) BankAccountColumns {
	return BankAccountColumns{
		OwnerUserID:    o.UserID,
		OwnerCompanyID: o.CompanyID,
		Title:          d.Title,
		AccountNumber:  d.AccountNumber,
		Type:           d.Type,
		Currency:       d.Currency,
		Country:        d.Country,
	}
}

// SenderBankAccountModel is the persistence model for SenderBankAccount
type SenderBankAccountModel struct {
	BaseModel
	BankAccountColumns `gorm:"embedded"`
}

func (SenderBankAccountModel) TableName() string {
	return "sender_bank_accounts"
}

func (m *SenderBankAccountModel) ToDomain() *banking.SenderBankAccount {
	owner, details := m.BankAccountColumns.toDomain()
	return &banking.SenderBankAccount{BaseEntity: m.BaseModel.ToDomain(), Owner: owner, Details: details}
}

func SenderBankAccountModelFromDomain(a *banking.SenderBankAccount) *SenderBankAccountModel {
	m := &SenderBankAccountModel{BankAccountColumns: bankAccountColumns(a.Owner, a.Details)}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}

// RecipientBankAccountModel is the persistence model for RecipientBankAccount
type RecipientBankAccountModel struct {
	BaseModel
	BankAccountColumns `gorm:"embedded"`
}

func (RecipientBankAccountModel) TableName() string {
	return "recipient_bank_accounts"
}

func (m *RecipientBankAccountModel) ToDomain() *banking.RecipientBankAccount {
	owner, details := m.BankAccountColumns.toDomain()
	return &banking.RecipientBankAccount{BaseEntity: m.BaseModel.ToDomain(), Owner: owner, Details: details}
}

func RecipientBankAccountModelFromDomain(a *banking.RecipientBankAccount) *RecipientBankAccountModel {
	m := &RecipientBankAccountModel{BankAccountColumns: bankAccountColumns(a.Owner, a.Details)}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}
