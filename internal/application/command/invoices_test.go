package command

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/application/uow"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// invoiceSetup is an employer company with one contractor member
type invoiceSetup struct {
	*fixture
	emp     *identity.User
	con     *identity.User
	companyID uuid.UUID
	account uuid.UUID
}

func newInvoiceSetup(t *testing.T) *invoiceSetup {
	f := newFixture(t)
	s := &invoiceSetup{fixture: f, emp: f.employer(), con: f.contractor()}
	s.companyID = f.company(s.emp.ID, "Acme").ID
	f.join(s.companyID, s.con.ID)
	s.account = f.recipientAccount(s.con.ID).ID
	return s
}

func (s *invoiceSetup) actor() Actor {
	return UserActor(s.con.ID).WithCompany(s.companyID)
}

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func ptr[T any](v T) *T { return &v }

func TestContractorInvoiceCreate(t *testing.T) {
	s := newInvoiceSetup(t)

	res, err := s.dispatch(ContractorInvoiceCreate{
		RecipientAccountID: s.account,
		Description:        "March",
		Items: []ItemInput{
			{Amount: decimal.RequireFromString("100.50"), Quantity: 2, Description: "design"},
			{Amount: decimal.RequireFromString("10"), Quantity: 1, Description: "hosting"},
		},
	}, s.actor())
	require.NoError(t, err)
	inv := res.(InvoiceDTO)
	assert.Equal(t, s.companyID, inv.ForCompanyID)
	assert.False(t, inv.Paid)
	require.Len(t, inv.Items, 2)
	require.NotNil(t, inv.Total)
	assert.True(t, decimal.RequireFromString("211").Equal(*inv.Total))
	assert.Len(t, s.items(inv.ID), 2)

	t.Run("foreign recipient account", func(t *testing.T) {
		foreign := s.recipientAccount(s.contractor().ID)
		_, err := s.dispatch(ContractorInvoiceCreate{RecipientAccountID: foreign.ID}, s.actor())
		requireCode(t, err, shared.CodePermissionDenied)
	})

	t.Run("company the contractor does not belong to", func(t *testing.T) {
		other := s.company(s.emp.ID, "Other").ID
		_, err := s.dispatch(ContractorInvoiceCreate{RecipientAccountID: s.account},
			UserActor(s.con.ID).WithCompany(other))
		requireCode(t, err, shared.CodePermissionDenied)
	})

	t.Run("invalid item leaves nothing behind", func(t *testing.T) {
		writes := s.store.Writes()
		_, err := s.dispatch(ContractorInvoiceCreate{
			RecipientAccountID: s.account,
			Items:              []ItemInput{{Amount: decimal.NewFromInt(-1), Quantity: 1}},
		}, s.actor())
		requireCode(t, err, shared.CodeValidation)
		assert.Equal(t, writes, s.store.Writes())
	})
}

func TestContractorInvoiceUpdate_Reconcile(t *testing.T) {
	s := newInvoiceSetup(t)
	inv, persisted := s.invoice(s.con.ID, s.companyID, s.account, "10.00", "20.00", "30.00")
	a, b := persisted[0], persisted[1]

	target := []invoicing.ItemChange{
		{ID: &a.ID, Amount: dec("15.00")},
		{ID: &b.ID},
		{Amount: dec("7.25"), Quantity: ptr(3), Description: ptr("new line")},
	}
	res, err := s.dispatch(ContractorInvoiceUpdate{InvoiceID: inv.ID, Items: &target}, s.actor())
	require.NoError(t, err)
	dto := res.(InvoiceDTO)
	require.Len(t, dto.Items, 3)

	stored := s.items(inv.ID)
	require.Len(t, stored, 3)
	byID := map[uuid.UUID]invoicing.InvoiceItem{}
	for _, it := range stored {
		byID[it.ID] = it
	}
	assert.True(t, decimal.RequireFromString("15").Equal(byID[a.ID].Amount))
	assert.True(t, decimal.RequireFromString("20").Equal(byID[b.ID].Amount))
	assert.NotContains(t, byID, persisted[2].ID)

	t.Run("empty target removes every line", func(t *testing.T) {
		empty := []invoicing.ItemChange{}
		_, err := s.dispatch(ContractorInvoiceUpdate{InvoiceID: inv.ID, Items: &empty}, s.actor())
		require.NoError(t, err)
		assert.Empty(t, s.items(inv.ID))
	})

	t.Run("nil target keeps the lines", func(t *testing.T) {
		inv2, _ := s.invoice(s.con.ID, s.companyID, s.account, "1.00")
		res, err := s.dispatch(ContractorInvoiceUpdate{InvoiceID: inv2.ID, Description: ptr("renamed")}, s.actor())
		require.NoError(t, err)
		assert.Equal(t, "renamed", res.(InvoiceDTO).Description)
		assert.Len(t, s.items(inv2.ID), 1)
	})
}

func TestContractorInvoiceUpdate_Atomic(t *testing.T) {
	s := newInvoiceSetup(t)
	inv, persisted := s.invoice(s.con.ID, s.companyID, s.account, "10.00", "20.00")

	inserts := 0
	s.store.SetFault(func(table, op string) error {
		if table == "invoice_items" && op == "add" {
			inserts++
			if inserts == 2 {
				return errors.New("connection reset")
			}
		}
		return nil
	})
	defer s.store.SetFault(nil)

	target := []invoicing.ItemChange{
		{ID: &persisted[0].ID, Amount: dec("99.00")},
		{Amount: dec("1.00"), Quantity: ptr(1)},
		{Amount: dec("2.00"), Quantity: ptr(1)},
	}
	_, err := s.dispatch(ContractorInvoiceUpdate{InvoiceID: inv.ID, Description: ptr("changed"), Items: &target}, s.actor())
	requireCode(t, err, shared.CodeStorage)

	s.store.SetFault(nil)
	stored := s.items(inv.ID)
	require.Len(t, stored, 2)
	for _, it := range stored {
		assert.False(t, it.Amount.Equal(decimal.NewFromInt(99)))
	}
	s.read(func(sc uow.Scope) {
		got, err := sc.Invoices().Get(s.ctx, shared.ByID(inv.ID))
		require.NoError(t, err)
		assert.Equal(t, "work", got.Description)
	})
}

func TestContractorInvoiceUpdate_Rejections(t *testing.T) {
	s := newInvoiceSetup(t)
	inv, persisted := s.invoice(s.con.ID, s.companyID, s.account, "10.00")

	t.Run("duplicate item ids", func(t *testing.T) {
		id := persisted[0].ID
		target := []invoicing.ItemChange{{ID: &id}, {ID: &id}}
		_, err := s.dispatch(ContractorInvoiceUpdate{InvoiceID: inv.ID, Items: &target}, s.actor())
		requireCode(t, err, shared.CodeValidation)
	})

	t.Run("foreign recipient account", func(t *testing.T) {
		foreign := s.recipientAccount(s.contractor().ID).ID
		_, err := s.dispatch(ContractorInvoiceUpdate{InvoiceID: inv.ID, RecipientAccountID: &foreign}, s.actor())
		requireCode(t, err, shared.CodePermissionDenied)
	})

	t.Run("another contractor's invoice", func(t *testing.T) {
		other := s.contractor()
		s.join(s.companyID, other.ID)
		_, err := s.dispatch(ContractorInvoiceUpdate{InvoiceID: inv.ID, Description: ptr("x")},
			UserActor(other.ID).WithCompany(s.companyID))
		requireCode(t, err, shared.CodeNotFound)
	})

	t.Run("paid invoice", func(t *testing.T) {
		s.paid(inv, s.senderAccount(s.companyID))
		_, err := s.dispatch(ContractorInvoiceUpdate{InvoiceID: inv.ID, Description: ptr("x")}, s.actor())
		requireCode(t, err, shared.CodeValidation)
		_, err = s.dispatch(ContractorInvoiceDelete{InvoiceID: inv.ID}, s.actor())
		requireCode(t, err, shared.CodeValidation)
	})
}

func TestContractorInvoiceDelete(t *testing.T) {
	s := newInvoiceSetup(t)
	inv, _ := s.invoice(s.con.ID, s.companyID, s.account, "10.00", "5.00")

	_, err := s.dispatch(ContractorInvoiceDelete{InvoiceID: uuid.New()}, s.actor())
	requireCode(t, err, shared.CodePermissionDenied)

	res, err := s.dispatch(ContractorInvoiceDelete{InvoiceID: inv.ID}, s.actor())
	require.NoError(t, err)
	assert.Equal(t, inv.ID, res.(Deleted).ID)
	assert.Empty(t, s.items(inv.ID))
}

func TestInvoiceListings(t *testing.T) {
	s := newInvoiceSetup(t)
	mine, _ := s.invoice(s.con.ID, s.companyID, s.account, "10.00")
	other := s.company(s.emp.ID, "Second").ID
	s.join(other, s.con.ID)
	s.invoice(s.con.ID, other, s.account, "20.00")
	s.invoice(s.con.ID, s.company(s.employer().ID, "Foreign").ID, s.account, "30.00")

	t.Run("contractor sees invoices for the current company", func(t *testing.T) {
		res, err := s.dispatch(ContractorInvoiceList{}, s.actor())
		require.NoError(t, err)
		page := res.(Page[InvoiceDTO])
		require.Len(t, page.Items, 1)
		assert.Equal(t, mine.ID, page.Items[0].ID)

		got, err := s.dispatch(ContractorInvoiceRetrieve{InvoiceID: mine.ID}, s.actor())
		require.NoError(t, err)
		assert.Len(t, got.(InvoiceDTO).Items, 1)
	})

	t.Run("employer sees invoices of their companies", func(t *testing.T) {
		res, err := s.dispatch(EmployerInvoiceList{}, UserActor(s.emp.ID))
		require.NoError(t, err)
		assert.Equal(t, int64(2), res.(Page[InvoiceDTO]).Total)

		res, err = s.dispatch(EmployerInvoiceList{CompanyID: &other}, UserActor(s.emp.ID))
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.(Page[InvoiceDTO]).Total)

		got, err := s.dispatch(EmployerInvoiceRetrieve{InvoiceID: mine.ID}, UserActor(s.emp.ID))
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(10).Equal(*got.(InvoiceDTO).Total))
	})

	t.Run("outsider employer", func(t *testing.T) {
		outsider := s.employer()
		res, err := s.dispatch(EmployerInvoiceList{}, UserActor(outsider.ID))
		require.NoError(t, err)
		assert.Empty(t, res.(Page[InvoiceDTO]).Items)

		_, err = s.dispatch(EmployerInvoiceRetrieve{InvoiceID: mine.ID}, UserActor(outsider.ID))
		requireCode(t, err, shared.CodeNotFound)

		_, err = s.dispatch(EmployerInvoiceList{CompanyID: &other}, UserActor(outsider.ID))
		requireCode(t, err, shared.CodePermissionDenied)
	})
}
