package command

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/application/uow"
	"github.com/invoicing/backend/internal/domain/operation"
	"github.com/invoicing/backend/internal/domain/shared"
)

// EmployerOperationList lists operations owned by the employer's companies
type EmployerOperationList struct {
	ListQuery
}

func (EmployerOperationList) CommandName() string { return "employer.operations.list" }

type EmployerOperationRetrieve struct {
	OperationID uuid.UUID
}

func (EmployerOperationRetrieve) CommandName() string { return "employer.operations.retrieve" }

// ContractorOperationList lists operations paying the contractor
type ContractorOperationList struct {
	ListQuery
}

func (ContractorOperationList) CommandName() string { return "contractor.operations.list" }

type ContractorOperationRetrieve struct {
	OperationID uuid.UUID
}

func (ContractorOperationRetrieve) CommandName() string { return "contractor.operations.retrieve" }

func employerOperationScope(ctx context.Context, d *Deps) (uow.Scope, shared.Condition, bool, error) {
	userID, err := d.User()
	if err != nil {
		return nil, shared.Condition{}, false, err
	}
	scope, err := d.Scope()
	if err != nil {
		return nil, shared.Condition{}, false, err
	}
	ids, err := employerCompanyIDs(ctx, scope, userID)
	if err != nil || len(ids) == 0 {
		return scope, shared.Condition{}, false, err
	}
	return scope, shared.In("owner_company_id", ids), true, nil
}

func contractorOperationScope(d *Deps) (uow.Scope, shared.Condition, error) {
	userID, err := d.User()
	if err != nil {
		return nil, shared.Condition{}, err
	}
	scope, err := d.Scope()
	if err != nil {
		return nil, shared.Condition{}, err
	}
	return scope, shared.Eq("recipient_user_id", userID), nil
}

func employerOperationList(ctx context.Context, cmd EmployerOperationList, d *Deps) (Page[OperationDTO], error) {
	scope, visible, ok, err := employerOperationScope(ctx, d)
	if err != nil {
		return Page[OperationDTO]{}, err
	}
	params := cmd.params()
	if !ok {
		return newPage([]operation.Operation{}, 0, params, toOperationDTO), nil
	}
	return listOperations(ctx, scope, params, visible)
}

func employerOperationRetrieve(ctx context.Context, cmd EmployerOperationRetrieve, d *Deps) (OperationDTO, error) {
	scope, visible, ok, err := employerOperationScope(ctx, d)
	if err != nil {
		return OperationDTO{}, err
	}
	if !ok {
		return OperationDTO{}, shared.NotFound("operations")
	}
	return loadOperation(ctx, scope, cmd.OperationID, visible)
}

func contractorOperationList(ctx context.Context, cmd ContractorOperationList, d *Deps) (Page[OperationDTO], error) {
	scope, visible, err := contractorOperationScope(d)
	if err != nil {
		return Page[OperationDTO]{}, err
	}
	return listOperations(ctx, scope, cmd.params(), visible)
}

func contractorOperationRetrieve(ctx context.Context, cmd ContractorOperationRetrieve, d *Deps) (OperationDTO, error) {
	scope, visible, err := contractorOperationScope(d)
	if err != nil {
		return OperationDTO{}, err
	}
	return loadOperation(ctx, scope, cmd.OperationID, visible)
}

func listOperations(ctx context.Context, scope uow.Scope, params shared.ListParams, visible shared.Condition) (Page[OperationDTO], error) {
	rows, err := scope.Operations().List(ctx, params, visible)
	if err != nil {
		return Page[OperationDTO]{}, err
	}
	total, err := scope.Operations().Count(ctx, visible)
	if err != nil {
		return Page[OperationDTO]{}, err
	}
	return newPage(rows, total, params, toOperationDTO), nil
}

// loadOperation fetches an operation together with both accounts
func loadOperation(ctx context.Context, scope uow.Scope, id uuid.UUID, visible shared.Condition) (OperationDTO, error) {
	op, err := scope.Operations().Get(ctx, shared.ByID(id), visible)
	if err != nil {
		return OperationDTO{}, err
	}
	sender, err := scope.SenderBankAccounts().Get(ctx, shared.ByID(op.SenderAccountID))
	if err != nil {
		return OperationDTO{}, err
	}
	recipient, err := scope.RecipientBankAccounts().Get(ctx, shared.ByID(op.RecipientAccountID))
	if err != nil {
		return OperationDTO{}, err
	}
	dto := toOperationDTO(op)
	s, r := senderDTO(sender), recipientDTO(recipient)
	dto.SenderAccount, dto.RecipientAccount = &s, &r
	return dto, nil
}
