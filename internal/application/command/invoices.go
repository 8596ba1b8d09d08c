package command

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/application/uow"
	"github.com/invoicing/backend/internal/domain/invoicing"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ItemInput is one line of a new invoice
type ItemInput struct {
	Amount      decimal.Decimal
	Quantity    int
	Description string
}

// ContractorInvoiceList lists the contractor's invoices to the current company
type ContractorInvoiceList struct {
	ListQuery
}

func (ContractorInvoiceList) CommandName() string { return "contractor.invoices.list" }

type ContractorInvoiceRetrieve struct {
	InvoiceID uuid.UUID
}

func (ContractorInvoiceRetrieve) CommandName() string { return "contractor.invoices.retrieve" }

// ContractorInvoiceCreate issues an invoice to the current company
type ContractorInvoiceCreate struct {
	RecipientAccountID uuid.UUID
	Description        string
	Items              []ItemInput
}

func (ContractorInvoiceCreate) CommandName() string { return "contractor.invoices.create" }

// ContractorInvoiceUpdate edits an unpaid invoice. A nil Items leaves the
// lines untouched; otherwise the lines are reconciled against Items, and
// an empty slice removes them all.
type ContractorInvoiceUpdate struct {
	InvoiceID          uuid.UUID
	RecipientAccountID *uuid.UUID
	Description        *string
	Items              *[]invoicing.ItemChange
}

func (ContractorInvoiceUpdate) CommandName() string { return "contractor.invoices.update" }

type ContractorInvoiceDelete struct {
	InvoiceID uuid.UUID
}

func (ContractorInvoiceDelete) CommandName() string { return "contractor.invoices.delete" }

// EmployerInvoiceList lists invoices addressed to the employer's
// companies, optionally one of them
type EmployerInvoiceList struct {
	CompanyID *uuid.UUID
	ListQuery
}

func (EmployerInvoiceList) CommandName() string { return "employer.invoices.list" }

type EmployerInvoiceRetrieve struct {
	InvoiceID uuid.UUID
}

func (EmployerInvoiceRetrieve) CommandName() string { return "employer.invoices.retrieve" }

// EmployerInvoicePay pays one invoice from a sender account. Payment
// requires a provider integration and is not available.
type EmployerInvoicePay struct {
	InvoiceID       uuid.UUID
	SenderAccountID uuid.UUID
}

func (EmployerInvoicePay) CommandName() string { return "employer.invoices.pay" }

// EmployerBulkInvoicePay pays several invoices at once. Not available.
type EmployerBulkInvoicePay struct {
	InvoiceIDs      []uuid.UUID
	SenderAccountID uuid.UUID
}

func (EmployerBulkInvoicePay) CommandName() string { return "employer.invoices.bulk_pay" }

// contractorInvoiceScope restricts invoices to those the contractor
// created for the current company
func contractorInvoiceScope(d *Deps) (uow.Scope, []shared.Condition, error) {
	userID, err := d.User()
	if err != nil {
		return nil, nil, err
	}
	companyID, err := d.Company()
	if err != nil {
		return nil, nil, err
	}
	scope, err := d.Scope()
	if err != nil {
		return nil, nil, err
	}
	return scope, []shared.Condition{shared.Eq("created_by_id", userID), shared.Eq("for_company_id", companyID)}, nil
}

func contractorInvoiceList(ctx context.Context, cmd ContractorInvoiceList, d *Deps) (Page[InvoiceDTO], error) {
	scope, owned, err := contractorInvoiceScope(d)
	if err != nil {
		return Page[InvoiceDTO]{}, err
	}
	return listInvoices(ctx, scope, cmd.params(), owned)
}

func contractorInvoiceRetrieve(ctx context.Context, cmd ContractorInvoiceRetrieve, d *Deps) (InvoiceDTO, error) {
	scope, owned, err := contractorInvoiceScope(d)
	if err != nil {
		return InvoiceDTO{}, err
	}
	inv, err := loadInvoice(ctx, scope, append(owned, shared.ByID(cmd.InvoiceID)))
	if err != nil {
		return InvoiceDTO{}, err
	}
	return toInvoiceDetailDTO(inv), nil
}

func contractorInvoiceCreate(ctx context.Context, cmd ContractorInvoiceCreate, d *Deps) (InvoiceDTO, error) {
	userID, err := d.User()
	if err != nil {
		return InvoiceDTO{}, err
	}
	companyID, err := d.Company()
	if err != nil {
		return InvoiceDTO{}, err
	}
	scope, err := requireContractorMember(ctx, d, companyID)
	if err != nil {
		return InvoiceDTO{}, err
	}
	if err := requireOwnRecipientAccount(ctx, scope, userID, cmd.RecipientAccountID); err != nil {
		return InvoiceDTO{}, err
	}

	inv := invoicing.NewInvoice(userID, companyID, cmd.RecipientAccountID, cmd.Description)
	items := make([]invoicing.InvoiceItem, 0, len(cmd.Items))
	for _, in := range cmd.Items {
		item, err := invoicing.NewInvoiceItem(inv.ID, in.Amount, in.Quantity, in.Description)
		if err != nil {
			return InvoiceDTO{}, err
		}
		items = append(items, *item)
	}

	if err := scope.Invoices().Add(ctx, inv); err != nil {
		return InvoiceDTO{}, err
	}
	for i := range items {
		if err := scope.InvoiceItems().Add(ctx, &items[i]); err != nil {
			return InvoiceDTO{}, err
		}
	}
	if err := scope.Commit(ctx); err != nil {
		return InvoiceDTO{}, err
	}
	inv.Items = items
	return toInvoiceDetailDTO(inv), nil
}

func contractorInvoiceUpdate(ctx context.Context, cmd ContractorInvoiceUpdate, d *Deps) (InvoiceDTO, error) {
	scope, owned, err := contractorInvoiceScope(d)
	if err != nil {
		return InvoiceDTO{}, err
	}
	inv, err := loadInvoice(ctx, scope, append(owned, shared.ByID(cmd.InvoiceID)))
	if err != nil {
		return InvoiceDTO{}, err
	}
	if err := inv.EnsureEditable(); err != nil {
		return InvoiceDTO{}, err
	}

	if cmd.RecipientAccountID != nil && *cmd.RecipientAccountID != inv.RecipientAccountID {
		if err := requireOwnRecipientAccount(ctx, scope, inv.CreatedByID, *cmd.RecipientAccountID); err != nil {
			return InvoiceDTO{}, err
		}
		inv.RecipientAccountID = *cmd.RecipientAccountID
	}
	if cmd.Description != nil {
		inv.Description = *cmd.Description
	}

	var plan invoicing.Plan
	if cmd.Items != nil {
		plan, err = invoicing.Reconcile(inv.ID, *cmd.Items, inv.Items)
		if err != nil {
			return InvoiceDTO{}, err
		}
	}

	inv.Touch()
	if err := scope.Invoices().Update(ctx, inv); err != nil {
		return InvoiceDTO{}, err
	}
	if cmd.Items != nil {
		if err := plan.Apply(ctx, scope.InvoiceItems()); err != nil {
			return InvoiceDTO{}, err
		}
		inv.Items = plan.Result()
	}
	if err := scope.Commit(ctx); err != nil {
		return InvoiceDTO{}, err
	}
	return toInvoiceDetailDTO(inv), nil
}

func contractorInvoiceDelete(ctx context.Context, cmd ContractorInvoiceDelete, d *Deps) (Deleted, error) {
	scope, owned, err := contractorInvoiceScope(d)
	if err != nil {
		return Deleted{}, err
	}
	inv, err := scope.Invoices().First(ctx, append(owned, shared.ByID(cmd.InvoiceID))...)
	if err != nil {
		return Deleted{}, err
	}
	if inv == nil {
		return Deleted{}, shared.PermissionDenied("user has no access to delete this invoice")
	}
	if err := inv.EnsureDeletable(); err != nil {
		return Deleted{}, err
	}

	items, err := scope.InvoiceItems().Filter(ctx, shared.Eq("invoice_id", inv.ID))
	if err != nil {
		return Deleted{}, err
	}
	for _, it := range items {
		if _, err := scope.InvoiceItems().Delete(ctx, it.ID); err != nil {
			return Deleted{}, err
		}
	}
	id, err := scope.Invoices().Delete(ctx, inv.ID)
	if err != nil {
		return Deleted{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return Deleted{}, err
	}
	return Deleted{ID: id}, nil
}

func employerInvoiceScope(ctx context.Context, d *Deps, only *uuid.UUID) (uow.Scope, shared.Condition, bool, error) {
	userID, err := d.User()
	if err != nil {
		return nil, shared.Condition{}, false, err
	}
	scope, err := d.Scope()
	if err != nil {
		return nil, shared.Condition{}, false, err
	}
	if only != nil {
		if _, err := requireEmployerMember(ctx, d, *only); err != nil {
			return nil, shared.Condition{}, false, err
		}
		return scope, shared.Eq("for_company_id", *only), true, nil
	}
	ids, err := employerCompanyIDs(ctx, scope, userID)
	if err != nil || len(ids) == 0 {
		return scope, shared.Condition{}, false, err
	}
	return scope, shared.In("for_company_id", ids), true, nil
}

func employerInvoiceList(ctx context.Context, cmd EmployerInvoiceList, d *Deps) (Page[InvoiceDTO], error) {
	scope, visible, ok, err := employerInvoiceScope(ctx, d, cmd.CompanyID)
	if err != nil {
		return Page[InvoiceDTO]{}, err
	}
	params := cmd.params()
	if !ok {
		return newPage([]invoicing.Invoice{}, 0, params, toInvoiceDTO), nil
	}
	return listInvoices(ctx, scope, params, []shared.Condition{visible})
}

func employerInvoiceRetrieve(ctx context.Context, cmd EmployerInvoiceRetrieve, d *Deps) (InvoiceDTO, error) {
	scope, visible, ok, err := employerInvoiceScope(ctx, d, nil)
	if err != nil {
		return InvoiceDTO{}, err
	}
	if !ok {
		return InvoiceDTO{}, shared.NotFound("invoices")
	}
	inv, err := loadInvoice(ctx, scope, []shared.Condition{shared.ByID(cmd.InvoiceID), visible})
	if err != nil {
		return InvoiceDTO{}, err
	}
	return toInvoiceDetailDTO(inv), nil
}

func listInvoices(ctx context.Context, scope uow.Scope, params shared.ListParams, conds []shared.Condition) (Page[InvoiceDTO], error) {
	rows, err := scope.Invoices().List(ctx, params, conds...)
	if err != nil {
		return Page[InvoiceDTO]{}, err
	}
	total, err := scope.Invoices().Count(ctx, conds...)
	if err != nil {
		return Page[InvoiceDTO]{}, err
	}
	return newPage(rows, total, params, toInvoiceDTO), nil
}

func loadInvoice(ctx context.Context, scope uow.Scope, conds []shared.Condition) (*invoicing.Invoice, error) {
	inv, err := scope.Invoices().Get(ctx, conds...)
	if err != nil {
		return nil, err
	}
	inv.Items, err = scope.InvoiceItems().Filter(ctx, shared.Eq("invoice_id", inv.ID))
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func requireOwnRecipientAccount(ctx context.Context, scope uow.Scope, userID, accountID uuid.UUID) error {
	ok, err := scope.RecipientBankAccounts().Exists(ctx, shared.ByID(accountID), shared.Eq("owner_user_id", userID))
	if err != nil {
		return err
	}
	if !ok {
		return shared.PermissionDenied("recipient account does not belong to the user")
	}
	return nil
}
