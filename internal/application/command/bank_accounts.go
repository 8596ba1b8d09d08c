package command

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/banking"
	"github.com/invoicing/backend/internal/domain/shared"
)

// AccountInput carries the fields of a new bank account, unparsed
type AccountInput struct {
	Title         string
	AccountNumber string
	Type          string
	Currency      string
	Country       string
}

func (in AccountInput) details() (banking.Details, error) {
	typ, err := banking.ParseAccountType(in.Type)
	if err != nil {
		return banking.Details{}, err
	}
	cur, err := banking.ParseCurrency(in.Currency)
	if err != nil {
		return banking.Details{}, err
	}
	country, err := banking.ParseCountry(in.Country)
	if err != nil {
		return banking.Details{}, err
	}
	return banking.Details{
		Title:         in.Title,
		AccountNumber: in.AccountNumber,
		Type:          typ,
		Currency:      cur,
		Country:       country,
	}, nil
}

// AccountPatch is a partial account update; nil fields are kept
type AccountPatch struct {
	Title    *string
	Currency *string
	Country  *string
}

func (p AccountPatch) changes() (banking.Changes, error) {
	c := banking.Changes{Title: p.Title}
	if p.Currency != nil {
		cur, err := banking.ParseCurrency(*p.Currency)
		if err != nil {
			return c, err
		}
		c.Currency = &cur
	}
	if p.Country != nil {
		country, err := banking.ParseCountry(*p.Country)
		if err != nil {
			return c, err
		}
		c.Country = &country
	}
	return c, nil
}

// EmployerSenderAccountList lists sender accounts of the employer's companies
type EmployerSenderAccountList struct {
	ListQuery
}

func (EmployerSenderAccountList) CommandName() string { return "employer.sender_accounts.list" }

// EmployerSenderAccountCreate adds a sender account to a company the
// employer belongs to
type EmployerSenderAccountCreate struct {
	CompanyID uuid.UUID
	AccountInput
}

func (EmployerSenderAccountCreate) CommandName() string { return "employer.sender_accounts.create" }

type EmployerSenderAccountRetrieve struct {
	AccountID uuid.UUID
}

func (EmployerSenderAccountRetrieve) CommandName() string { return "employer.sender_accounts.retrieve" }

type EmployerSenderAccountUpdate struct {
	AccountID uuid.UUID
	AccountPatch
}

func (EmployerSenderAccountUpdate) CommandName() string { return "employer.sender_accounts.update" }

type EmployerSenderAccountDelete struct {
	AccountID uuid.UUID
}

func (EmployerSenderAccountDelete) CommandName() string { return "employer.sender_accounts.delete" }

// ContractorRecipientAccountList lists the contractor's own accounts
type ContractorRecipientAccountList struct {
	ListQuery
}

func (ContractorRecipientAccountList) CommandName() string { return "contractor.recipient_accounts.list" }

type ContractorRecipientAccountCreate struct {
	AccountInput
}

func (ContractorRecipientAccountCreate) CommandName() string {
	return "contractor.recipient_accounts.create"
}

type ContractorRecipientAccountRetrieve struct {
	AccountID uuid.UUID
}

func (ContractorRecipientAccountRetrieve) CommandName() string {
	return "contractor.recipient_accounts.retrieve"
}

type ContractorRecipientAccountUpdate struct {
	AccountID uuid.UUID
	AccountPatch
}

func (ContractorRecipientAccountUpdate) CommandName() string {
	return "contractor.recipient_accounts.update"
}

type ContractorRecipientAccountDelete struct {
	AccountID uuid.UUID
}

func (ContractorRecipientAccountDelete) CommandName() string {
	return "contractor.recipient_accounts.delete"
}

// employerAccountScope returns the condition restricting sender accounts
// to the employer's companies, or false when there are none
func employerAccountScope(ctx context.Context, d *Deps) (shared.Condition, bool, error) {
	userID, err := d.User()
	if err != nil {
		return shared.Condition{}, false, err
	}
	scope, err := d.Scope()
	if err != nil {
		return shared.Condition{}, false, err
	}
	ids, err := employerCompanyIDs(ctx, scope, userID)
	if err != nil || len(ids) == 0 {
		return shared.Condition{}, false, err
	}
	return shared.In("owner_company_id", ids), true, nil
}

func employerSenderAccountList(ctx context.Context, cmd EmployerSenderAccountList, d *Deps) (Page[BankAccountDTO], error) {
	params := cmd.params()
	owned, ok, err := employerAccountScope(ctx, d)
	if err != nil {
		return Page[BankAccountDTO]{}, err
	}
	if !ok {
		return newPage([]banking.SenderBankAccount{}, 0, params, senderDTO), nil
	}
	repo := d.scope.SenderBankAccounts()
	rows, err := repo.List(ctx, params, owned)
	if err != nil {
		return Page[BankAccountDTO]{}, err
	}
	total, err := repo.Count(ctx, owned)
	if err != nil {
		return Page[BankAccountDTO]{}, err
	}
	return newPage(rows, total, params, senderDTO), nil
}

func employerSenderAccountCreate(ctx context.Context, cmd EmployerSenderAccountCreate, d *Deps) (BankAccountDTO, error) {
	scope, err := requireEmployerMember(ctx, d, cmd.CompanyID)
	if err != nil {
		return BankAccountDTO{}, err
	}
	details, err := cmd.details()
	if err != nil {
		return BankAccountDTO{}, err
	}
	acc, err := banking.NewSenderBankAccount(banking.CompanyOwner(cmd.CompanyID), details)
	if err != nil {
		return BankAccountDTO{}, err
	}
	if err := scope.SenderBankAccounts().Add(ctx, acc); err != nil {
		return BankAccountDTO{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return BankAccountDTO{}, err
	}
	return senderDTO(acc), nil
}

func getEmployerSenderAccount(ctx context.Context, d *Deps, id uuid.UUID) (*banking.SenderBankAccount, error) {
	owned, ok, err := employerAccountScope(ctx, d)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.NotFound("sender_bank_accounts")
	}
	return d.scope.SenderBankAccounts().Get(ctx, shared.ByID(id), owned)
}

func employerSenderAccountRetrieve(ctx context.Context, cmd EmployerSenderAccountRetrieve, d *Deps) (BankAccountDTO, error) {
	acc, err := getEmployerSenderAccount(ctx, d, cmd.AccountID)
	if err != nil {
		return BankAccountDTO{}, err
	}
	return senderDTO(acc), nil
}

func employerSenderAccountUpdate(ctx context.Context, cmd EmployerSenderAccountUpdate, d *Deps) (BankAccountDTO, error) {
	acc, err := getEmployerSenderAccount(ctx, d, cmd.AccountID)
	if err != nil {
		return BankAccountDTO{}, err
	}
	changes, err := cmd.changes()
	if err != nil {
		return BankAccountDTO{}, err
	}
	if err := acc.Apply(changes); err != nil {
		return BankAccountDTO{}, err
	}
	if err := d.scope.SenderBankAccounts().Update(ctx, acc); err != nil {
		return BankAccountDTO{}, err
	}
	if err := d.scope.Commit(ctx); err != nil {
		return BankAccountDTO{}, err
	}
	return senderDTO(acc), nil
}

func employerSenderAccountDelete(ctx context.Context, cmd EmployerSenderAccountDelete, d *Deps) (Deleted, error) {
	acc, err := getEmployerSenderAccount(ctx, d, cmd.AccountID)
	if err != nil {
		return Deleted{}, err
	}
	return deleteAccount(ctx, d, acc.ID, "sender_account_id", d.scope.SenderBankAccounts().Delete)
}

func contractorRecipientAccountList(ctx context.Context, cmd ContractorRecipientAccountList, d *Deps) (Page[BankAccountDTO], error) {
	userID, err := d.User()
	if err != nil {
		return Page[BankAccountDTO]{}, err
	}
	scope, err := d.Scope()
	if err != nil {
		return Page[BankAccountDTO]{}, err
	}
	params := cmd.params()
	owned := shared.Eq("owner_user_id", userID)
	rows, err := scope.RecipientBankAccounts().List(ctx, params, owned)
	if err != nil {
		return Page[BankAccountDTO]{}, err
	}
	total, err := scope.RecipientBankAccounts().Count(ctx, owned)
	if err != nil {
		return Page[BankAccountDTO]{}, err
	}
	return newPage(rows, total, params, recipientDTO), nil
}

func contractorRecipientAccountCreate(ctx context.Context, cmd ContractorRecipientAccountCreate, d *Deps) (BankAccountDTO, error) {
	userID, err := d.User()
	if err != nil {
		return BankAccountDTO{}, err
	}
	scope, err := d.Scope()
	if err != nil {
		return BankAccountDTO{}, err
	}
	details, err := cmd.details()
	if err != nil {
		return BankAccountDTO{}, err
	}
	acc, err := banking.NewRecipientBankAccount(banking.UserOwner(userID), details)
	if err != nil {
		return BankAccountDTO{}, err
	}
	if err := scope.RecipientBankAccounts().Add(ctx, acc); err != nil {
		return BankAccountDTO{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return BankAccountDTO{}, err
	}
	return recipientDTO(acc), nil
}

func getContractorRecipientAccount(ctx context.Context, d *Deps, id uuid.UUID) (*banking.RecipientBankAccount, error) {
	userID, err := d.User()
	if err != nil {
		return nil, err
	}
	scope, err := d.Scope()
	if err != nil {
		return nil, err
	}
	return scope.RecipientBankAccounts().Get(ctx, shared.ByID(id), shared.Eq("owner_user_id", userID))
}

func contractorRecipientAccountRetrieve(ctx context.Context, cmd ContractorRecipientAccountRetrieve, d *Deps) (BankAccountDTO, error) {
	acc, err := getContractorRecipientAccount(ctx, d, cmd.AccountID)
	if err != nil {
		return BankAccountDTO{}, err
	}
	return recipientDTO(acc), nil
}

func contractorRecipientAccountUpdate(ctx context.Context, cmd ContractorRecipientAccountUpdate, d *Deps) (BankAccountDTO, error) {
	acc, err := getContractorRecipientAccount(ctx, d, cmd.AccountID)
	if err != nil {
		return BankAccountDTO{}, err
	}
	changes, err := cmd.changes()
	if err != nil {
		return BankAccountDTO{}, err
	}
	if err := acc.Apply(changes); err != nil {
		return BankAccountDTO{}, err
	}
	if err := d.scope.RecipientBankAccounts().Update(ctx, acc); err != nil {
		return BankAccountDTO{}, err
	}
	if err := d.scope.Commit(ctx); err != nil {
		return BankAccountDTO{}, err
	}
	return recipientDTO(acc), nil
}

func contractorRecipientAccountDelete(ctx context.Context, cmd ContractorRecipientAccountDelete, d *Deps) (Deleted, error) {
	acc, err := getContractorRecipientAccount(ctx, d, cmd.AccountID)
	if err != nil {
		return Deleted{}, err
	}
	return deleteAccount(ctx, d, acc.ID, "recipient_account_id", d.scope.RecipientBankAccounts().Delete)
}

// deleteAccount refuses to remove accounts still referenced by invoices
// or operations
func deleteAccount(ctx context.Context, d *Deps, id uuid.UUID, column string, del func(context.Context, uuid.UUID) (uuid.UUID, error)) (Deleted, error) {
	used, err := d.scope.Invoices().Exists(ctx, shared.Eq(column, id))
	if err != nil {
		return Deleted{}, err
	}
	if !used {
		used, err = d.scope.Operations().Exists(ctx, shared.Eq(column, id))
		if err != nil {
			return Deleted{}, err
		}
	}
	if used {
		return Deleted{}, shared.Validation("bank account is referenced by invoices or operations")
	}
	if _, err := del(ctx, id); err != nil {
		return Deleted{}, err
	}
	if err := d.scope.Commit(ctx); err != nil {
		return Deleted{}, err
	}
	return Deleted{ID: id}, nil
}
