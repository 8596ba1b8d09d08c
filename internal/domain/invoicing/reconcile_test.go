package invoicing

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(t *testing.T, invoiceID uuid.UUID, amount string, qty int) InvoiceItem {
	t.Helper()
	it, err := NewInvoiceItem(invoiceID, decimal.RequireFromString(amount), qty, "item "+amount)
	require.NoError(t, err)
	return *it
}

func d(v string) *decimal.Decimal {
	x := decimal.RequireFromString(v)
	return &x
}

func keys(items []InvoiceItem) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(items))
	for _, it := range items {
		out[it.ID] = true
	}
	return out
}

func TestReconcile_MixedChanges(t *testing.T) {
	invoiceID := uuid.New()
	a := item(t, invoiceID, "10.00", 1)
	b := item(t, invoiceID, "20.00", 2)
	c := item(t, invoiceID, "30.00", 3)
	desc := "renamed"

	plan, err := Reconcile(invoiceID, []ItemChange{
		{ID: &b.ID, Amount: d("25.005"), Description: &desc},
		{ID: &a.ID},
		{Amount: d("1.10")},
	}, []InvoiceItem{a, b, c})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{c.ID}, plan.Deletes)
	require.Len(t, plan.Updates, 2)
	require.Len(t, plan.Inserts, 1)

	updated := map[uuid.UUID]InvoiceItem{}
	for _, u := range plan.Updates {
		updated[u.ID] = u
	}
	assert.True(t, decimal.RequireFromString("25.01").Equal(updated[b.ID].Amount))
	assert.Equal(t, 2, updated[b.ID].Quantity)
	assert.Equal(t, "renamed", updated[b.ID].Description)
	assert.True(t, a.Amount.Equal(updated[a.ID].Amount))

	ins := plan.Inserts[0]
	assert.Equal(t, invoiceID, ins.InvoiceID)
	assert.Equal(t, 0, ins.Quantity)
	assert.NotContains(t, []uuid.UUID{a.ID, b.ID, c.ID}, ins.ID)
}

func TestReconcile_UnknownIDIsInsert(t *testing.T) {
	invoiceID := uuid.New()
	a := item(t, invoiceID, "10.00", 1)
	ghost := uuid.New()

	plan, err := Reconcile(invoiceID, []ItemChange{{ID: &ghost, Amount: d("5")}}, []InvoiceItem{a})
	require.NoError(t, err)

	assert.Empty(t, plan.Updates)
	assert.Equal(t, []uuid.UUID{a.ID}, plan.Deletes)
	require.Len(t, plan.Inserts, 1)
	assert.NotEqual(t, ghost, plan.Inserts[0].ID)
}

func TestReconcile_Rejections(t *testing.T) {
	invoiceID := uuid.New()
	a := item(t, invoiceID, "10.00", 1)

	t.Run("duplicate ids", func(t *testing.T) {
		_, err := Reconcile(invoiceID, []ItemChange{{ID: &a.ID}, {ID: &a.ID}}, []InvoiceItem{a})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("negative quantity on update", func(t *testing.T) {
		q := -1
		_, err := Reconcile(invoiceID, []ItemChange{{ID: &a.ID, Quantity: &q}}, []InvoiceItem{a})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("amount above the column limit", func(t *testing.T) {
		_, err := Reconcile(invoiceID, []ItemChange{{Amount: d("10000000")}}, nil)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestReconcile_Empty(t *testing.T) {
	plan, err := Reconcile(uuid.New(), nil, nil)
	require.NoError(t, err)
	assert.True(t, plan.Empty())
	assert.Empty(t, plan.Result())
}

// The result's keys are the target's known keys plus one fresh key per
// insert; nothing else survives.
func TestReconcile_KeySetProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for round := range 200 {
		t.Run(fmt.Sprintf("round %d", round), func(t *testing.T) {
			invoiceID := uuid.New()
			persisted := make([]InvoiceItem, rng.IntN(6))
			for i := range persisted {
				persisted[i] = item(t, invoiceID, fmt.Sprintf("%d.00", rng.IntN(1000)), rng.IntN(5))
			}

			var target []ItemChange
			kept := map[uuid.UUID]bool{}
			for _, p := range persisted {
				if rng.IntN(2) == 0 {
					id := p.ID
					target = append(target, ItemChange{ID: &id, Quantity: ptrTo(rng.IntN(10))})
					kept[id] = true
				}
			}
			inserts := rng.IntN(4)
			for range inserts {
				target = append(target, ItemChange{Amount: d("1.00")})
			}
			rng.Shuffle(len(target), func(i, j int) { target[i], target[j] = target[j], target[i] })

			plan, err := Reconcile(invoiceID, target, persisted)
			require.NoError(t, err)

			result := keys(plan.Result())
			assert.Len(t, result, len(kept)+inserts)
			for id := range kept {
				assert.True(t, result[id])
			}
			for _, p := range persisted {
				if !kept[p.ID] {
					assert.False(t, result[p.ID])
					assert.Contains(t, plan.Deletes, p.ID)
				}
			}
			assert.Len(t, plan.Updates, len(kept))
			assert.Len(t, plan.Deletes, len(persisted)-len(kept))
		})
	}
}

func ptrTo[T any](v T) *T { return &v }

// memItems is a minimal item repository recording the call order
type memItems struct {
	shared.Repository[InvoiceItem]
	calls []string
	fail  string
}

func (m *memItems) record(op string) error {
	m.calls = append(m.calls, op)
	if op == m.fail {
		return shared.StorageFailure(op, assert.AnError)
	}
	return nil
}

func (m *memItems) Add(_ context.Context, _ *InvoiceItem) error    { return m.record("add") }
func (m *memItems) Update(_ context.Context, _ *InvoiceItem) error { return m.record("update") }
func (m *memItems) Delete(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	return id, m.record("delete")
}

func TestPlan_Apply(t *testing.T) {
	invoiceID := uuid.New()
	a := item(t, invoiceID, "10.00", 1)
	b := item(t, invoiceID, "20.00", 1)
	plan, err := Reconcile(invoiceID, []ItemChange{{ID: &a.ID}, {Amount: d("3")}}, []InvoiceItem{a, b})
	require.NoError(t, err)

	t.Run("updates, then deletes, then inserts", func(t *testing.T) {
		repo := &memItems{}
		require.NoError(t, plan.Apply(context.Background(), repo))
		assert.Equal(t, []string{"update", "delete", "add"}, repo.calls)
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		repo := &memItems{fail: "delete"}
		err := plan.Apply(context.Background(), repo)
		assert.ErrorIs(t, err, shared.ErrStorage)
		assert.Equal(t, []string{"update", "delete"}, repo.calls)
	})
}
