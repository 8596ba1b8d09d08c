package persistence

import (
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/banking"
	"github.com/invoicing/backend/internal/domain/company"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/operation"
	"github.com/invoicing/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// NewGormUserRepository creates a user repository bound to db
func NewGormUserRepository(db *gorm.DB) *GormRepository[identity.User, models.UserModel] {
	return newGormRepository(db, repositoryConfig[identity.User, models.UserModel]{
		table:      "users",
		toDomain:   (*models.UserModel).ToDomain,
		fromDomain: models.UserModelFromDomain,
		idOf:       func(u *identity.User) uuid.UUID { return u.ID },
		sortFields: UserSortFields,
		search:     []string{"email", "first_name", "last_name", "phone"},
	})
}

// NewGormCompanyRepository creates a company repository bound to db
func NewGormCompanyRepository(db *gorm.DB) *GormRepository[company.Company, models.CompanyModel] {
	return newGormRepository(db, repositoryConfig[company.Company, models.CompanyModel]{
		table:      "companies",
		toDomain:   (*models.CompanyModel).ToDomain,
		fromDomain: models.CompanyModelFromDomain,
		idOf:       func(c *company.Company) uuid.UUID { return c.ID },
		sortFields: CompanySortFields,
		search:     []string{"name"},
	})
}

// NewGormEmployerMembershipRepository creates an employer membership repository bound to db
func NewGormEmployerMembershipRepository(db *gorm.DB) *GormRepository[company.EmployerMembership, models.EmployerMembershipModel] {
	return newGormRepository(db, repositoryConfig[company.EmployerMembership, models.EmployerMembershipModel]{
		table:      "company_employers",
		toDomain:   (*models.EmployerMembershipModel).ToDomain,
		fromDomain: models.EmployerMembershipModelFromDomain,
		idOf:       func(m *company.EmployerMembership) uuid.UUID { return m.ID },
		sortFields: MembershipSortFields,
	})
}

// NewGormContractorMembershipRepository creates a contractor membership repository bound to db
func NewGormContractorMembershipRepository(db *gorm.DB) *GormRepository[company.ContractorMembership, models.ContractorMembershipModel] {
	return newGormRepository(db, repositoryConfig[company.ContractorMembership, models.ContractorMembershipModel]{
		table:      "company_contractors",
		toDomain:   (*models.ContractorMembershipModel).ToDomain,
		fromDomain: models.ContractorMembershipModelFromDomain,
		idOf:       func(m *company.ContractorMembership) uuid.UUID { return m.ID },
		sortFields: MembershipSortFields,
	})
}

// NewGormInviteRepository creates an invite repository bound to db
func NewGormInviteRepository(db *gorm.DB) *GormRepository[company.Invite, models.InviteModel] {
	return newGormRepository(db, repositoryConfig[company.Invite, models.InviteModel]{
		table:      "company_invites",
		toDomain:   (*models.InviteModel).ToDomain,
		fromDomain: models.InviteModelFromDomain,
		idOf:       func(i *company.Invite) uuid.UUID { return i.ID },
		sortFields: InviteSortFields,
		search:     []string{"email"},
	})
}

// NewGormSenderBankAccountRepository creates a sender account repository bound to db
func NewGormSenderBankAccountRepository(db *gorm.DB) *GormRepository[banking.SenderBankAccount, models.SenderBankAccountModel] {
	return newGormRepository(db, repositoryConfig[banking.SenderBankAccount, models.SenderBankAccountModel]{
		table:      "sender_bank_accounts",
		toDomain:   (*models.SenderBankAccountModel).ToDomain,
		fromDomain: models.SenderBankAccountModelFromDomain,
		idOf:       func(a *banking.SenderBankAccount) uuid.UUID { return a.ID },
		sortFields: BankAccountSortFields,
		search:     []string{"title", "account_number"},
	})
}

// NewGormRecipientBankAccountRepository creates a recipient account repository bound to db
func NewGormRecipientBankAccountRepository(db *gorm.DB) *GormRepository[banking.RecipientBankAccount, models.RecipientBankAccountModel] {
	return newGormRepository(db, repositoryConfig[banking.RecipientBankAccount, models.RecipientBankAccountModel]{
		table:      "recipient_bank_accounts",
		toDomain:   (*models.RecipientBankAccountModel).ToDomain,
		fromDomain: models.RecipientBankAccountModelFromDomain,
		idOf:       func(a *banking.RecipientBankAccount) uuid.UUID { return a.ID },
		sortFields: BankAccountSortFields,
		search:     []string{"title", "account_number"},
	})
}

// NewGormInvoiceRepository creates an invoice repository bound to db
func NewGormInvoiceRepository(db *gorm.DB) *GormRepository[invoicing.Invoice, models.InvoiceModel] {
	return newGormRepository(db, repositoryConfig[invoicing.Invoice, models.InvoiceModel]{
		table:      "invoices",
		toDomain:   (*models.InvoiceModel).ToDomain,
		fromDomain: models.InvoiceModelFromDomain,
		idOf:       func(i *invoicing.Invoice) uuid.UUID { return i.ID },
		sortFields: InvoiceSortFields,
		search:     []string{"description"},
	})
}

// NewGormInvoiceItemRepository creates an invoice item repository bound to db
func NewGormInvoiceItemRepository(db *gorm.DB) *GormRepository[invoicing.InvoiceItem, models.InvoiceItemModel] {
	return newGormRepository(db, repositoryConfig[invoicing.InvoiceItem, models.InvoiceItemModel]{
		table:      "invoice_items",
		toDomain:   (*models.InvoiceItemModel).ToDomain,
		fromDomain: models.InvoiceItemModelFromDomain,
		idOf:       func(i *invoicing.InvoiceItem) uuid.UUID { return i.ID },
		sortFields: InvoiceItemSortFields,
		search:     []string{"description"},
	})
}

// NewGormOperationRepository creates an operation repository bound to db
func NewGormOperationRepository(db *gorm.DB) *GormRepository[operation.Operation, models.OperationModel] {
	return newGormRepository(db, repositoryConfig[operation.Operation, models.OperationModel]{
		table:      "operations",
		toDomain:   (*models.OperationModel).ToDomain,
		fromDomain: models.OperationModelFromDomain,
		idOf:       func(o *operation.Operation) uuid.UUID { return o.ID },
		sortFields: OperationSortFields,
	})
}

// Ensure every repository satisfies its domain interface
var (
	_ identity.UserRepository                = (*GormRepository[identity.User, models.UserModel])(nil)
	_ company.CompanyRepository              = (*GormRepository[company.Company, models.CompanyModel])(nil)
	_ company.EmployerMembershipRepository   = (*GormRepository[company.EmployerMembership, models.EmployerMembershipModel])(nil)
	_ company.ContractorMembershipRepository = (*GormRepository[company.ContractorMembership, models.ContractorMembershipModel])(nil)
	_ company.InviteRepository               = (*GormRepository[company.Invite, models.InviteModel])(nil)
	_ banking.SenderBankAccountRepository    = (*GormRepository[banking.SenderBankAccount, models.SenderBankAccountModel])(nil)
	_ banking.RecipientBankAccountRepository = (*GormRepository[banking.RecipientBankAccount, models.RecipientBankAccountModel])(nil)
	_ invoicing.InvoiceRepository            = (*GormRepository[invoicing.Invoice, models.InvoiceModel])(nil)
	_ invoicing.InvoiceItemRepository        = (*GormRepository[invoicing.InvoiceItem, models.InvoiceItemModel])(nil)
	_ operation.Repository                   = (*GormRepository[operation.Operation, models.OperationModel])(nil)
)
