package invoicing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ItemChange is one entry of the target item list. A nil ID, or an ID not
// among the persisted items, means "insert". Nil fields leave the
// persisted value unchanged on update.
type ItemChange struct {
	ID          *uuid.UUID
	Amount      *decimal.Decimal
	Quantity    *int
	Description *string
}

// Plan is the set of writes that turns the persisted items into the target
type Plan struct {
	Updates []InvoiceItem
	Inserts []InvoiceItem
	Deletes []uuid.UUID
}

// Empty reports whether the plan performs no writes
func (p Plan) Empty() bool {
	return len(p.Updates) == 0 && len(p.Inserts) == 0 && len(p.Deletes) == 0
}

// Reconcile diffs target against persisted, by key. Persisted items with a
// matching target are updated, the rest are deleted, and every target
// without a persisted match becomes a new item. Duplicate target keys are
// rejected. The result's key set equals the target's, with fresh keys for
// inserts.
func Reconcile(invoiceID uuid.UUID, target []ItemChange, persisted []InvoiceItem) (Plan, error) {
	byID := make(map[uuid.UUID]ItemChange, len(target))
	for _, t := range target {
		if t.ID == nil {
			continue
		}
		if _, dup := byID[*t.ID]; dup {
			return Plan{}, shared.Validation(fmt.Sprintf("duplicate invoice item id %s", *t.ID))
		}
		byID[*t.ID] = t
	}

	var plan Plan
	matched := make(map[uuid.UUID]bool, len(persisted))
	for _, p := range persisted {
		change, ok := byID[p.ID]
		if !ok {
			plan.Deletes = append(plan.Deletes, p.ID)
			continue
		}
		matched[p.ID] = true
		item := p
		if change.Amount != nil {
			item.Amount = change.Amount.Round(2)
		}
		if change.Quantity != nil {
			item.Quantity = *change.Quantity
		}
		if change.Description != nil {
			item.Description = *change.Description
		}
		if err := item.validate(); err != nil {
			return Plan{}, err
		}
		item.Touch()
		plan.Updates = append(plan.Updates, item)
	}

	for _, t := range target {
		if t.ID != nil && matched[*t.ID] {
			continue
		}
		item, err := NewInvoiceItem(invoiceID, deref(t.Amount, decimal.Zero), deref(t.Quantity, 0), deref(t.Description, ""))
		if err != nil {
			return Plan{}, err
		}
		plan.Inserts = append(plan.Inserts, *item)
	}

	return plan, nil
}

// Apply executes the plan against repo. Callers run it inside the same
// unit of work as the invoice update.
func (p Plan) Apply(ctx context.Context, repo InvoiceItemRepository) error {
	for i := range p.Updates {
		if err := repo.Update(ctx, &p.Updates[i]); err != nil {
			return err
		}
	}
	for _, id := range p.Deletes {
		if _, err := repo.Delete(ctx, id); err != nil {
			return err
		}
	}
	for i := range p.Inserts {
		if err := repo.Add(ctx, &p.Inserts[i]); err != nil {
			return err
		}
	}
	return nil
}

// Result returns the item set after the plan is applied
func (p Plan) Result() []InvoiceItem {
	out := make([]InvoiceItem, 0, len(p.Updates)+len(p.Inserts))
	out = append(out, p.Updates...)
	out = append(out, p.Inserts...)
	return out
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
