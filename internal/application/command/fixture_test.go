package command

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/application/uow"
	"github.com/invoicing/backend/internal/domain/banking"
	"github.com/invoicing/backend/internal/domain/company"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/operation"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/notification"
	"github.com/invoicing/backend/internal/infrastructure/persistence/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fixture is a bus over an in-memory store with recording senders
type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *memory.Store
	email *notification.Recorder
	sms   *notification.Recorder
	bus   *Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		store: memory.NewStore(),
		email: notification.NewRecorder(),
		sms:   notification.NewRecorder(),
	}
	f.bus = NewDefaultBus(Dependencies{
		UnitOfWork: f.store,
		Email:      f.email,
		SMS:        f.sms,
	}, WithLogger(zaptest.NewLogger(t)))
	return f
}

func (f *fixture) dispatch(cmd Command, actor Actor) (any, error) {
	res, err := f.bus.Dispatch(f.ctx, cmd, actor)
	f.bus.Wait()
	return res, err
}

func (f *fixture) seed(fn func(s uow.Scope) error) {
	f.t.Helper()
	require.NoError(f.t, uow.Execute(f.ctx, f.store, fn))
}

func (f *fixture) read(fn func(s uow.Scope)) {
	f.t.Helper()
	s, err := f.store.Begin(f.ctx)
	require.NoError(f.t, err)
	defer func() { _ = s.Close(f.ctx, nil) }()
	fn(s)
}

// user seeds an active, passwordless user
func (f *fixture) user(role identity.Role, email string) *identity.User {
	f.t.Helper()
	u, err := identity.NewUser(email, "+15550001", "Test", "User", role, "")
	require.NoError(f.t, err)
	u.IsActive = true
	u.IsEmailVerified = true
	f.seed(func(s uow.Scope) error { return s.Users().Add(f.ctx, u) })
	return u
}

func (f *fixture) employer() *identity.User {
	return f.user(identity.RoleEmployer, uuid.NewString()+"@employer.test")
}

func (f *fixture) contractor() *identity.User {
	return f.user(identity.RoleContractor, uuid.NewString()+"@contractor.test")
}

// company seeds a company owned by employer, with the owner as member
func (f *fixture) company(owner uuid.UUID, name string) *company.Company {
	f.t.Helper()
	c, err := company.NewCompany(name, owner)
	require.NoError(f.t, err)
	f.seed(func(s uow.Scope) error {
		if err := s.Companies().Add(f.ctx, c); err != nil {
			return err
		}
		return s.EmployerMemberships().Add(f.ctx, company.NewEmployerMembership(c.ID, owner))
	})
	return c
}

func (f *fixture) join(companyID, contractorID uuid.UUID) {
	f.seed(func(s uow.Scope) error {
		return s.ContractorMemberships().Add(f.ctx, company.NewContractorMembership(companyID, contractorID))
	})
}

func testDetails() banking.Details {
	return banking.Details{
		Title:         "main",
		AccountNumber: "40817810099910004312",
		Type:          banking.AccountTypePersonal,
		Currency:      banking.CurrencyUSD,
		Country:       banking.CountryUSA,
	}
}

func (f *fixture) recipientAccount(userID uuid.UUID) *banking.RecipientBankAccount {
	f.t.Helper()
	a, err := banking.NewRecipientBankAccount(banking.UserOwner(userID), testDetails())
	require.NoError(f.t, err)
	f.seed(func(s uow.Scope) error { return s.RecipientBankAccounts().Add(f.ctx, a) })
	return a
}

func (f *fixture) senderAccount(companyID uuid.UUID) *banking.SenderBankAccount {
	f.t.Helper()
	d := testDetails()
	d.Type = banking.AccountTypeBusiness
	a, err := banking.NewSenderBankAccount(banking.CompanyOwner(companyID), d)
	require.NoError(f.t, err)
	f.seed(func(s uow.Scope) error { return s.SenderBankAccounts().Add(f.ctx, a) })
	return a
}

// invoice seeds an invoice with one item per amount, quantity 1
func (f *fixture) invoice(contractorID, companyID, accountID uuid.UUID, amounts ...string) (*invoicing.Invoice, []invoicing.InvoiceItem) {
	f.t.Helper()
	inv := invoicing.NewInvoice(contractorID, companyID, accountID, "work")
	items := make([]invoicing.InvoiceItem, 0, len(amounts))
	for _, a := range amounts {
		it, err := invoicing.NewInvoiceItem(inv.ID, decimal.RequireFromString(a), 1, "line "+a)
		require.NoError(f.t, err)
		items = append(items, *it)
	}
	f.seed(func(s uow.Scope) error {
		if err := s.Invoices().Add(f.ctx, inv); err != nil {
			return err
		}
		for i := range items {
			if err := s.InvoiceItems().Add(f.ctx, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	return inv, items
}

// paid marks an invoice as paid by attaching an operation
func (f *fixture) paid(inv *invoicing.Invoice, sender *banking.SenderBankAccount) *operation.Operation {
	f.t.Helper()
	op := operation.NewOperation(inv.ForCompanyID, sender.ID, inv.RecipientAccountID,
		decimal.NewFromInt(100), decimal.NewFromInt(99), decimal.NewFromInt(1))
	op.RecipientUserID = &inv.CreatedByID
	f.seed(func(s uow.Scope) error {
		if err := s.Operations().Add(f.ctx, op); err != nil {
			return err
		}
		inv.OperationID = &op.ID
		inv.SenderAccountID = &sender.ID
		return s.Invoices().Update(f.ctx, inv)
	})
	return op
}

func (f *fixture) items(invoiceID uuid.UUID) []invoicing.InvoiceItem {
	var out []invoicing.InvoiceItem
	f.read(func(s uow.Scope) {
		var err error
		out, err = s.InvoiceItems().Filter(f.ctx, shared.Eq("invoice_id", invoiceID))
		require.NoError(f.t, err)
	})
	return out
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, shared.CodeOf(err), "error: %v", err)
}
