package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/invoicing/backend/internal/application/uow"
	"github.com/invoicing/backend/internal/domain/banking"
	"github.com/invoicing/backend/internal/domain/company"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/operation"
	"github.com/invoicing/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormUnitOfWork implements uow.UnitOfWork on native database
// transactions at the engine's default isolation level.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork.
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Begin opens a transaction and binds every repository to it.
func (u *GormUnitOfWork) Begin(ctx context.Context) (uow.Scope, error) {
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, shared.StorageFailure("begin", tx.Error)
	}

	s := &gormScope{
		users:                 NewGormUserRepository(tx),
		companies:             NewGormCompanyRepository(tx),
		employerMemberships:   NewGormEmployerMembershipRepository(tx),
		contractorMemberships: NewGormContractorMembershipRepository(tx),
		invites:               NewGormInviteRepository(tx),
		senderAccounts:        NewGormSenderBankAccountRepository(tx),
		recipientAccounts:     NewGormRecipientBankAccountRepository(tx),
		invoices:              NewGormInvoiceRepository(tx),
		invoiceItems:          NewGormInvoiceItemRepository(tx),
		operations:            NewGormOperationRepository(tx),
	}
	s.Bind(
		func(context.Context) error {
			return tx.Commit().Error
		},
		func(context.Context) error {
			// A cancelled context already rolled the transaction back.
			if err := tx.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
				return err
			}
			return nil
		},
	)
	return s, nil
}

// gormScope provides access to all repositories within a transaction.
type gormScope struct {
	uow.Lifecycle

	users                 identity.UserRepository
	companies             company.CompanyRepository
	employerMemberships   company.EmployerMembershipRepository
	contractorMemberships company.ContractorMembershipRepository
	invites               company.InviteRepository
	senderAccounts        banking.SenderBankAccountRepository
	recipientAccounts     banking.RecipientBankAccountRepository
	invoices              invoicing.InvoiceRepository
	invoiceItems          invoicing.InvoiceItemRepository
	operations            operation.Repository
}

func (s *gormScope) Users() identity.UserRepository { return s.users }

func (s *gormScope) Companies() company.CompanyRepository { return s.companies }

func (s *gormScope) EmployerMemberships() company.EmployerMembershipRepository {
	return s.employerMemberships
}

func (s *gormScope) ContractorMemberships() company.ContractorMembershipRepository {
	return s.contractorMemberships
}

func (s *gormScope) Invites() company.InviteRepository { return s.invites }

func (s *gormScope) SenderBankAccounts() banking.SenderBankAccountRepository {
	return s.senderAccounts
}

func (s *gormScope) RecipientBankAccounts() banking.RecipientBankAccountRepository {
	return s.recipientAccounts
}

func (s *gormScope) Invoices() invoicing.InvoiceRepository { return s.invoices }

func (s *gormScope) InvoiceItems() invoicing.InvoiceItemRepository { return s.invoiceItems }

func (s *gormScope) Operations() operation.Repository { return s.operations }

// Ensure GormUnitOfWork implements UnitOfWork
var (
	_ uow.UnitOfWork = (*GormUnitOfWork)(nil)
	_ uow.Scope      = (*gormScope)(nil)
)
