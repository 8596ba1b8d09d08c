// Package memory is an in-memory unit of work. A scope snapshots every
// table on Begin and restores the snapshot on rollback. Scopes are
// serialized: Begin blocks until the previous scope is closed.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/invoicing/backend/internal/application/uow"
	"github.com/invoicing/backend/internal/domain/banking"
	"github.com/invoicing/backend/internal/domain/company"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/operation"
	"github.com/invoicing/backend/internal/domain/shared"
)

// FaultFunc is consulted before every repository operation; a non-nil
// result fails the operation. Used to inject storage failures in tests.
type FaultFunc func(table, op string) error

// Store holds every table and implements uow.UnitOfWork
type Store struct {
	scopeMu sync.Mutex

	users                 *table[identity.User]
	companies             *table[company.Company]
	employerMemberships   *table[company.EmployerMembership]
	contractorMemberships *table[company.ContractorMembership]
	invites               *table[company.Invite]
	senderAccounts        *table[banking.SenderBankAccount]
	recipientAccounts     *table[banking.RecipientBankAccount]
	invoices              *table[invoicing.Invoice]
	invoiceItems          *table[invoicing.InvoiceItem]
	operations            *table[operation.Operation]

	fault  atomic.Pointer[FaultFunc]
	begins atomic.Int64
	reads  atomic.Int64
	writes atomic.Int64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:                 newTable[identity.User](),
		companies:             newTable[company.Company](),
		employerMemberships:   newTable[company.EmployerMembership](),
		contractorMemberships: newTable[company.ContractorMembership](),
		invites:               newTable[company.Invite](),
		senderAccounts:        newTable[banking.SenderBankAccount](),
		recipientAccounts:     newTable[banking.RecipientBankAccount](),
		invoices:              newTable[invoicing.Invoice](),
		invoiceItems:          newTable[invoicing.InvoiceItem](),
		operations:            newTable[operation.Operation](),
	}
}

var _ uow.UnitOfWork = (*Store)(nil)

// SetFault installs (or, with nil, clears) a fault hook
func (s *Store) SetFault(fn FaultFunc) {
	if fn == nil {
		s.fault.Store(nil)
		return
	}
	s.fault.Store(&fn)
}

// Begins returns how many scopes were opened
func (s *Store) Begins() int64 { return s.begins.Load() }

// Reads returns how many read operations ran
func (s *Store) Reads() int64 { return s.reads.Load() }

// Writes returns how many write operations were attempted
func (s *Store) Writes() int64 { return s.writes.Load() }

func (s *Store) observe(table, op string, write bool) error {
	if write {
		s.writes.Add(1)
	} else {
		s.reads.Add(1)
	}
	if fn := s.fault.Load(); fn != nil {
		if err := (*fn)(table, op); err != nil {
			return shared.StorageFailure(table+"."+op, err)
		}
	}
	return nil
}

func (s *Store) snapshotAll() []func() {
	return []func(){
		s.users.snapshot(),
		s.companies.snapshot(),
		s.employerMemberships.snapshot(),
		s.contractorMemberships.snapshot(),
		s.invites.snapshot(),
		s.senderAccounts.snapshot(),
		s.recipientAccounts.snapshot(),
		s.invoices.snapshot(),
		s.invoiceItems.snapshot(),
		s.operations.snapshot(),
	}
}

// Begin implements uow.UnitOfWork
func (s *Store) Begin(ctx context.Context) (uow.Scope, error) {
	if err := ctx.Err(); err != nil {
		return nil, shared.StorageFailure("begin", err)
	}
	s.scopeMu.Lock()
	s.begins.Add(1)

	restore := s.snapshotAll()
	sc := &scope{store: s}
	sc.Bind(
		func(context.Context) error {
			s.scopeMu.Unlock()
			return nil
		},
		func(context.Context) error {
			for _, r := range restore {
				r()
			}
			s.scopeMu.Unlock()
			return nil
		},
	)
	return sc, nil
}

// scope is one open in-memory unit of work
type scope struct {
	uow.Lifecycle
	store *Store
}

func repo[T any](s *Store, t *table[T], schema Schema[T]) *Repository[T] {
	return &Repository[T]{store: s, table: t, schema: schema}
}

func (sc *scope) Users() identity.UserRepository {
	return repo(sc.store, sc.store.users, userSchema)
}

func (sc *scope) Companies() company.CompanyRepository {
	return repo(sc.store, sc.store.companies, companySchema)
}

func (sc *scope) EmployerMemberships() company.EmployerMembershipRepository {
	return repo(sc.store, sc.store.employerMemberships, employerMembershipSchema)
}

func (sc *scope) ContractorMemberships() company.ContractorMembershipRepository {
	return repo(sc.store, sc.store.contractorMemberships, contractorMembershipSchema)
}

func (sc *scope) Invites() company.InviteRepository {
	return repo(sc.store, sc.store.invites, inviteSchema)
}

func (sc *scope) SenderBankAccounts() banking.SenderBankAccountRepository {
	return repo(sc.store, sc.store.senderAccounts, senderAccountSchema)
}

func (sc *scope) RecipientBankAccounts() banking.RecipientBankAccountRepository {
	return repo(sc.store, sc.store.recipientAccounts, recipientAccountSchema)
}

func (sc *scope) Invoices() invoicing.InvoiceRepository {
	return repo(sc.store, sc.store.invoices, invoiceSchema)
}

func (sc *scope) InvoiceItems() invoicing.InvoiceItemRepository {
	return repo(sc.store, sc.store.invoiceItems, invoiceItemSchema)
}

func (sc *scope) Operations() operation.Repository {
	return repo(sc.store, sc.store.operations, operationSchema)
}

var _ uow.Scope = (*scope)(nil)
