// Package operation models payment transfers. Only the status set is
// defined; transitions belong to a payment provider integration.
package operation

import (
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status of a payment operation
type Status string

const (
	StatusCreating   Status = "CREATING"
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusAccepted   Status = "ACCEPTED"
	StatusCompleted  Status = "COMPLETED"
	StatusCanceled   Status = "CANCELED"
	StatusRejected   Status = "REJECTED"
	StatusFailed     Status = "FAILED"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusCreating, StatusNew, StatusInProgress, StatusAccepted,
		StatusCompleted, StatusCanceled, StatusRejected, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is expected
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCanceled, StatusRejected, StatusFailed:
		return true
	}
	return false
}

// Operation is a transfer between a sender and a recipient account
type Operation struct {
	shared.BaseEntity
	SenderAccountID    uuid.UUID
	RecipientAccountID uuid.UUID
	SenderAmount       decimal.Decimal
	RecipientAmount    decimal.Decimal
	Fee                decimal.Decimal
	Status             Status
	OwnerCompanyID     uuid.UUID
	SenderUserID       *uuid.UUID
	RecipientUserID    *uuid.UUID
}

// NewOperation creates an operation in CREATING status
func NewOperation(ownerCompany, senderAccount, recipientAccount uuid.UUID, senderAmount, recipientAmount, fee decimal.Decimal) *Operation {
	return &Operation{
		BaseEntity:         shared.NewBaseEntity(),
		SenderAccountID:    senderAccount,
		RecipientAccountID: recipientAccount,
		SenderAmount:       senderAmount,
		RecipientAmount:    recipientAmount,
		Fee:                fee,
		Status:             StatusCreating,
		OwnerCompanyID:     ownerCompany,
	}
}

type Repository interface {
	shared.Repository[Operation]
}
