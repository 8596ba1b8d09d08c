package memory

import (
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/banking"
	"github.com/invoicing/backend/internal/domain/company"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/operation"
	"github.com/invoicing/backend/internal/domain/shared"
)

// Schema describes how the in-memory repository sees an entity: its key,
// its columns (named as in the SQL schema), searchable columns and unique
// constraints.
type Schema[T any] struct {
	Table   string
	ID      func(*T) uuid.UUID
	Columns func(*T) map[string]any
	Search  []string
	Unique  [][]string
}

func baseColumns(e *shared.BaseEntity) map[string]any {
	return map[string]any{
		"id":         e.ID,
		"created_at": e.CreatedAt,
		"updated_at": e.UpdatedAt,
	}
}

func with(base map[string]any, cols map[string]any) map[string]any {
	for k, v := range cols {
		base[k] = v
	}
	return base
}

var userSchema = Schema[identity.User]{
	Table: "users",
	ID:    func(u *identity.User) uuid.UUID { return u.ID },
	Columns: func(u *identity.User) map[string]any {
		return with(baseColumns(&u.BaseEntity), map[string]any{
			"email":             u.Email,
			"phone":             u.Phone,
			"first_name":        u.FirstName,
			"last_name":         u.LastName,
			"role":              u.Role,
			"email_code":        u.EmailCode,
			"phone_code":        u.PhoneCode,
			"password_code":     u.PasswordCode,
			"is_email_verified": u.IsEmailVerified,
			"is_phone_verified": u.IsPhoneVerified,
			"is_active":         u.IsActive,
			"is_onboarded":      u.IsOnboarded,
			"is_superuser":      u.IsSuperuser,
			"last_login":        u.LastLogin,
		})
	},
	Search: []string{"email", "first_name", "last_name", "phone"},
	Unique: [][]string{{"email"}},
}

var companySchema = Schema[company.Company]{
	Table: "companies",
	ID:    func(c *company.Company) uuid.UUID { return c.ID },
	Columns: func(c *company.Company) map[string]any {
		return with(baseColumns(&c.BaseEntity), map[string]any{
			"name":     c.Name,
			"owner_id": c.OwnerID,
		})
	},
	Search: []string{"name"},
	Unique: [][]string{{"owner_id", "name"}},
}

var employerMembershipSchema = Schema[company.EmployerMembership]{
	Table: "company_employers",
	ID:    func(m *company.EmployerMembership) uuid.UUID { return m.ID },
	Columns: func(m *company.EmployerMembership) map[string]any {
		return with(baseColumns(&m.BaseEntity), map[string]any{
			"company_id":  m.CompanyID,
			"employer_id": m.EmployerID,
		})
	},
	Unique: [][]string{{"company_id", "employer_id"}},
}

var contractorMembershipSchema = Schema[company.ContractorMembership]{
	Table: "company_contractors",
	ID:    func(m *company.ContractorMembership) uuid.UUID { return m.ID },
	Columns: func(m *company.ContractorMembership) map[string]any {
		return with(baseColumns(&m.BaseEntity), map[string]any{
			"company_id":    m.CompanyID,
			"contractor_id": m.ContractorID,
		})
	},
	Unique: [][]string{{"company_id", "contractor_id"}},
}

var inviteSchema = Schema[company.Invite]{
	Table: "company_invites",
	ID:    func(i *company.Invite) uuid.UUID { return i.ID },
	Columns: func(i *company.Invite) map[string]any {
		return with(baseColumns(&i.BaseEntity), map[string]any{
			"company_id":      i.CompanyID,
			"email":           i.Email,
			"invitation_code": i.InvitationCode,
		})
	},
	Search: []string{"email"},
	Unique: [][]string{{"email", "company_id"}, {"invitation_code"}},
}

func accountColumns(base *shared.BaseEntity, o banking.Owner, d banking.Details) map[string]any {
	return with(baseColumns(base), map[string]any{
		"owner_user_id":    o.UserID,
		"owner_company_id": o.CompanyID,
		"title":            d.Title,
		"account_number":   d.AccountNumber,
		"type":             d.Type,
		"currency":         d.Currency,
		"country":          d.Country,
	})
}

var senderAccountSchema = Schema[banking.SenderBankAccount]{
	Table: "sender_bank_accounts",
	ID:    func(a *banking.SenderBankAccount) uuid.UUID { return a.ID },
	Columns: func(a *banking.SenderBankAccount) map[string]any {
		return accountColumns(&a.BaseEntity, a.Owner, a.Details)
	},
	Search: []string{"title", "account_number"},
}

var recipientAccountSchema = Schema[banking.RecipientBankAccount]{
	Table: "recipient_bank_accounts",
	ID:    func(a *banking.RecipientBankAccount) uuid.UUID { return a.ID },
	Columns: func(a *banking.RecipientBankAccount) map[string]any {
		return accountColumns(&a.BaseEntity, a.Owner, a.Details)
	},
	Search: []string{"title", "account_number"},
}

var invoiceSchema = Schema[invoicing.Invoice]{
	Table: "invoices",
	ID:    func(i *invoicing.Invoice) uuid.UUID { return i.ID },
	Columns: func(i *invoicing.Invoice) map[string]any {
		return with(baseColumns(&i.BaseEntity), map[string]any{
			"created_by_id":        i.CreatedByID,
			"for_company_id":       i.ForCompanyID,
			"recipient_account_id": i.RecipientAccountID,
			"sender_account_id":    i.SenderAccountID,
			"operation_id":         i.OperationID,
			"description":          i.Description,
		})
	},
	Search: []string{"description"},
}

var invoiceItemSchema = Schema[invoicing.InvoiceItem]{
	Table: "invoice_items",
	ID:    func(i *invoicing.InvoiceItem) uuid.UUID { return i.ID },
	Columns: func(i *invoicing.InvoiceItem) map[string]any {
		return with(baseColumns(&i.BaseEntity), map[string]any{
			"invoice_id":  i.InvoiceID,
			"amount":      i.Amount,
			"quantity":    i.Quantity,
			"description": i.Description,
		})
	},
	Search: []string{"description"},
}

var operationSchema = Schema[operation.Operation]{
	Table: "operations",
	ID:    func(o *operation.Operation) uuid.UUID { return o.ID },
	Columns: func(o *operation.Operation) map[string]any {
		return with(baseColumns(&o.BaseEntity), map[string]any{
			"sender_account_id":    o.SenderAccountID,
			"recipient_account_id": o.RecipientAccountID,
			"sender_amount":        o.SenderAmount,
			"recipient_amount":     o.RecipientAmount,
			"fee":                  o.Fee,
			"status":               o.Status,
			"owner_company_id":     o.OwnerCompanyID,
			"sender_user_id":       o.SenderUserID,
			"recipient_user_id":    o.RecipientUserID,
		})
	},
}
