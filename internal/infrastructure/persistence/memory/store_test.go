package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/application/uow"
	"github.com/invoicing/backend/internal/domain/company"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(t *testing.T, email string) *identity.User {
	t.Helper()
	u, err := identity.NewUser(email, "", "", "", identity.RoleEmployer, "")
	require.NoError(t, err)
	return u
}

func TestStore_RollbackRestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	kept := newUser(t, "kept@example.com")
	require.NoError(t, uow.Execute(ctx, store, func(s uow.Scope) error {
		return s.Users().Add(ctx, kept)
	}))

	s, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Users().Add(ctx, newUser(t, "gone@example.com")))
	_, err = s.Users().Delete(ctx, kept.ID)
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx, nil))

	require.NoError(t, uow.Execute(ctx, store, func(s uow.Scope) error {
		n, err := s.Users().Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		ok, err := s.Users().Exists(ctx, shared.ByID(kept.ID))
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	}))
}

func TestStore_ScopesAreSerialized(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first, err := store.Begin(ctx)
	require.NoError(t, err)

	opened := make(chan struct{})
	go func() {
		s, err := store.Begin(ctx)
		if err == nil {
			_ = s.Close(ctx, nil)
		}
		close(opened)
	}()

	select {
	case <-opened:
		t.Fatal("second scope opened while the first was open")
	case <-time.After(50 * time.Millisecond):
	}
	require.NoError(t, first.Commit(ctx))
	<-opened
	assert.Equal(t, int64(2), store.Begins())
}

func TestRepository_Queries(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	s, err := store.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = s.Close(ctx, nil) }()

	owner := uuid.New()
	names := []string{"Gamma", "alpha", "Beta"}
	for _, n := range names {
		c, err := company.NewCompany(n, owner)
		require.NoError(t, err)
		require.NoError(t, s.Companies().Add(ctx, c))
	}
	other, err := company.NewCompany("Delta", uuid.New())
	require.NoError(t, err)
	require.NoError(t, s.Companies().Add(ctx, other))

	t.Run("unique constraint", func(t *testing.T) {
		dup, err := company.NewCompany("Gamma", owner)
		require.NoError(t, err)
		assert.ErrorIs(t, s.Companies().Add(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("get requires exactly one match", func(t *testing.T) {
		_, err := s.Companies().Get(ctx, shared.Eq("owner_id", owner))
		assert.ErrorIs(t, err, shared.ErrMultipleMatches)
		_, err = s.Companies().Get(ctx, shared.Eq("name", "Omega"))
		assert.ErrorIs(t, err, shared.ErrNotFound)
		c, err := s.Companies().Get(ctx, shared.Eq("name", "Delta"))
		require.NoError(t, err)
		assert.Equal(t, other.ID, c.ID)
	})

	t.Run("first returns nil when empty", func(t *testing.T) {
		c, err := s.Companies().First(ctx, shared.Eq("name", "Omega"))
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("list sorts, searches and pages", func(t *testing.T) {
		rows, err := s.Companies().List(ctx, shared.ListParams{SortBy: "-name"}, shared.Eq("owner_id", owner))
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "alpha", rows[0].Name)

		rows, err = s.Companies().List(ctx, shared.ListParams{Search: "ALP"})
		require.NoError(t, err)
		require.Len(t, rows, 1)

		rows, err = s.Companies().List(ctx, shared.ListParams{Offset: 3, Limit: 2})
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("in and null predicates", func(t *testing.T) {
		n, err := s.Companies().Count(ctx, shared.In("name", []string{"Beta", "Delta", "Nope"}))
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		inv := invoicing.NewInvoice(uuid.New(), uuid.New(), uuid.New(), "")
		require.NoError(t, s.Invoices().Add(ctx, inv))
		unpaid, err := s.Invoices().Count(ctx, shared.Eq("operation_id", nil))
		require.NoError(t, err)
		assert.Equal(t, int64(1), unpaid)
	})

	t.Run("decimal equality ignores scale", func(t *testing.T) {
		it, err := invoicing.NewInvoiceItem(uuid.New(), decimal.RequireFromString("1.5"), 1, "")
		require.NoError(t, err)
		require.NoError(t, s.InvoiceItems().Add(ctx, it))
		ok, err := s.InvoiceItems().Exists(ctx, shared.Eq("amount", decimal.RequireFromString("1.50")))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unknown column is a service error", func(t *testing.T) {
		_, err := s.Companies().Filter(ctx, shared.Eq("nope", 1))
		assert.ErrorIs(t, err, shared.ErrService)
	})

	t.Run("stored rows are copies", func(t *testing.T) {
		c, err := s.Companies().Get(ctx, shared.ByID(other.ID))
		require.NoError(t, err)
		c.Name = "Mutated"
		again, err := s.Companies().Get(ctx, shared.ByID(other.ID))
		require.NoError(t, err)
		assert.Equal(t, "Delta", again.Name)
	})
}

func TestStore_Faults(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.SetFault(func(table, op string) error {
		if table == "users" && op == "add" {
			return errors.New("disk full")
		}
		return nil
	})

	err := uow.Execute(ctx, store, func(s uow.Scope) error {
		return s.Users().Add(ctx, newUser(t, "a@b.c"))
	})
	assert.ErrorIs(t, err, shared.ErrStorage)
	assert.Equal(t, int64(1), store.Writes())

	store.SetFault(nil)
	require.NoError(t, uow.Execute(ctx, store, func(s uow.Scope) error {
		return s.Users().Add(ctx, newUser(t, "a@b.c"))
	}))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.Begin(canceled)
	assert.ErrorIs(t, err, shared.ErrStorage)
}
