package command

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/banking"
	"github.com/invoicing/backend/internal/domain/company"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/operation"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ListQuery is the paging and search part of every list command
type ListQuery struct {
	Search string
	SortBy string
	Offset int
	Limit  int
}

func (q ListQuery) params() shared.ListParams {
	return shared.ListParams{Search: q.Search, SortBy: q.SortBy, Offset: q.Offset, Limit: q.Limit}.Normalize()
}

// Page is one page of a list result
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
}

func newPage[E any, T any](rows []E, total int64, p shared.ListParams, conv func(*E) T) Page[T] {
	items := make([]T, 0, len(rows))
	for i := range rows {
		items = append(items, conv(&rows[i]))
	}
	return Page[T]{Items: items, Total: total, Offset: p.Offset, Limit: p.Limit}
}

// UserDTO is the public view of a user; codes and the hash never leave the core
type UserDTO struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Role            string     `json:"role"`
	IsEmailVerified bool       `json:"is_email_verified"`
	IsPhoneVerified bool       `json:"is_phone_verified"`
	IsActive        bool       `json:"is_active"`
	IsOnboarded     bool       `json:"is_onboarded"`
	LastLogin       *time.Time `json:"last_login,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toUserDTO(u *identity.User) UserDTO {
	return UserDTO{
		ID:              u.ID,
		Email:           u.Email,
		Phone:           u.Phone,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            u.Role.String(),
		IsEmailVerified: u.IsEmailVerified,
		IsPhoneVerified: u.IsPhoneVerified,
		IsActive:        u.IsActive,
		IsOnboarded:     u.IsOnboarded,
		LastLogin:       u.LastLogin,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// CompanyDTO is the public view of a company
type CompanyDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCompanyDTO(c *company.Company) CompanyDTO {
	return CompanyDTO{ID: c.ID, Name: c.Name, OwnerID: c.OwnerID, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

// InviteDTO is returned to the inviter. The code travels by email only.
type InviteDTO struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toInviteDTO(i *company.Invite) InviteDTO {
	return InviteDTO{ID: i.ID, CompanyID: i.CompanyID, Email: i.Email, CreatedAt: i.CreatedAt}
}

// MembershipDTO is the result of accepting an invitation
type MembershipDTO struct {
	ID           uuid.UUID `json:"id"`
	CompanyID    uuid.UUID `json:"company_id"`
	ContractorID uuid.UUID `json:"contractor_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// BankAccountDTO is the public view of either account kind
type BankAccountDTO struct {
	ID             uuid.UUID  `json:"id"`
	OwnerUserID    *uuid.UUID `json:"owner_user_id,omitempty"`
	OwnerCompanyID *uuid.UUID `json:"owner_company_id,omitempty"`
	Title          string     `json:"title"`
	AccountNumber  string     `json:"account_number"`
	Type           string     `json:"type"`
	Currency       string     `json:"currency"`
	Country        string     `json:"country"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toBankAccountDTO(base *shared.BaseEntity, o banking.Owner, d banking.Details) BankAccountDTO {
	return BankAccountDTO{
		ID:             base.ID,
		OwnerUserID:    o.UserID,
		OwnerCompanyID: o.CompanyID,
		Title:          d.Title,
		AccountNumber:  d.AccountNumber,
		Type:           string(d.Type),
		Currency:       string(d.Currency),
		Country:        string(d.Country),
		CreatedAt:      base.CreatedAt,
		UpdatedAt:      base.UpdatedAt,
	}
}

func senderDTO(a *banking.SenderBankAccount) BankAccountDTO {
	return toBankAccountDTO(&a.BaseEntity, a.Owner, a.Details)
}

func recipientDTO(a *banking.RecipientBankAccount) BankAccountDTO {
	return toBankAccountDTO(&a.BaseEntity, a.Owner, a.Details)
}

// InvoiceItemDTO is one invoice line
type InvoiceItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Quantity    int             `json:"quantity"`
	Description string          `json:"description"`
}

// InvoiceDTO is the public view of an invoice. Items is nil for list results.
type InvoiceDTO struct {
	ID                 uuid.UUID        `json:"id"`
	CreatedByID        uuid.UUID        `json:"created_by_id"`
	ForCompanyID       uuid.UUID        `json:"for_company_id"`
	RecipientAccountID uuid.UUID        `json:"recipient_account_id"`
	SenderAccountID    *uuid.UUID       `json:"sender_account_id,omitempty"`
	OperationID        *uuid.UUID       `json:"operation_id,omitempty"`
	Description        string           `json:"description"`
	Paid               bool             `json:"paid"`
	Items              []InvoiceItemDTO `json:"items,omitempty"`
	Total              *decimal.Decimal `json:"total,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

func toInvoiceDTO(inv *invoicing.Invoice) InvoiceDTO {
	return InvoiceDTO{
		ID:                 inv.ID,
		CreatedByID:        inv.CreatedByID,
		ForCompanyID:       inv.ForCompanyID,
		RecipientAccountID: inv.RecipientAccountID,
		SenderAccountID:    inv.SenderAccountID,
		OperationID:        inv.OperationID,
		Description:        inv.Description,
		Paid:               inv.IsPaid(),
		CreatedAt:          inv.CreatedAt,
		UpdatedAt:          inv.UpdatedAt,
	}
}

func toInvoiceDetailDTO(inv *invoicing.Invoice) InvoiceDTO {
	dto := toInvoiceDTO(inv)
	dto.Items = make([]InvoiceItemDTO, 0, len(inv.Items))
	for _, it := range inv.Items {
		dto.Items = append(dto.Items, InvoiceItemDTO{
			ID:          it.ID,
			Amount:      it.Amount,
			Quantity:    it.Quantity,
			Description: it.Description,
		})
	}
	total := inv.Total()
	dto.Total = &total
	return dto
}

// OperationDTO is the public view of a payment operation. The accounts
// are filled on retrieve.
type OperationDTO struct {
	ID                 uuid.UUID       `json:"id"`
	Status             string          `json:"status"`
	OwnerCompanyID     uuid.UUID       `json:"owner_company_id"`
	SenderAccountID    uuid.UUID       `json:"sender_account_id"`
	RecipientAccountID uuid.UUID       `json:"recipient_account_id"`
	SenderAmount       decimal.Decimal `json:"sender_amount"`
	RecipientAmount    decimal.Decimal `json:"recipient_amount"`
	Fee                decimal.Decimal `json:"fee"`
	SenderAccount      *BankAccountDTO `json:"sender_account,omitempty"`
	RecipientAccount   *BankAccountDTO `json:"recipient_account,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func toOperationDTO(o *operation.Operation) OperationDTO {
	return OperationDTO{
		ID:                 o.ID,
		Status:             string(o.Status),
		OwnerCompanyID:     o.OwnerCompanyID,
		SenderAccountID:    o.SenderAccountID,
		RecipientAccountID: o.RecipientAccountID,
		SenderAmount:       o.SenderAmount,
		RecipientAmount:    o.RecipientAmount,
		Fee:                o.Fee,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

// Deleted is the result of delete and leave commands
type Deleted struct {
	ID uuid.UUID `json:"id"`
}
