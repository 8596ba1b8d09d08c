// Package uow defines the unit of work: a fixed set of repositories bound to
// one transactional session with a single commit/rollback boundary.
package uow

import (
	"context"

	"github.com/invoicing/backend/internal/domain/banking"
	"github.com/invoicing/backend/internal/domain/company"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/operation"
)

// Repositories provides access to every repository within one session.
// All repositories returned share the same underlying transaction.
type Repositories interface {
	Users() identity.UserRepository
	Companies() company.CompanyRepository
	EmployerMemberships() company.EmployerMembershipRepository
	ContractorMemberships() company.ContractorMembershipRepository
	Invites() company.InviteRepository
	SenderBankAccounts() banking.SenderBankAccountRepository
	RecipientBankAccounts() banking.RecipientBankAccountRepository
	Invoices() invoicing.InvoiceRepository
	InvoiceItems() invoicing.InvoiceItemRepository
	Operations() operation.Repository
}

// Scope is one open unit of work. It is not safe for concurrent use and
// must not outlive the command that opened it.
type Scope interface {
	Repositories

	// Commit makes every write visible. A second call is a no-op.
	Commit(ctx context.Context) error
	// Rollback discards every write. It is a no-op after Commit.
	Rollback(ctx context.Context) error
	// Close ends the scope, rolling back unless it was committed. It returns
	// err unchanged, or the rollback failure joined with err when the
	// rollback itself fails.
	Close(ctx context.Context, err error) error
	// Committed reports whether Commit was called
	Committed() bool
}

// UnitOfWork opens scopes
type UnitOfWork interface {
	Begin(ctx context.Context) (Scope, error)
}

// Execute runs fn in a fresh scope, committing when fn succeeds
func Execute(ctx context.Context, u UnitOfWork, fn func(s Scope) error) (err error) {
	s, err := u.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = s.Close(ctx, err)
	}()
	if err = fn(s); err != nil {
		return err
	}
	return s.Commit(ctx)
}
