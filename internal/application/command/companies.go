package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/application/uow"
	"github.com/invoicing/backend/internal/domain/company"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/shared"
)

// EmployerCompanyList lists the companies the employer is a member of
type EmployerCompanyList struct {
	ListQuery
}

func (EmployerCompanyList) CommandName() string { return "employer.companies.list" }

// EmployerCompanyCreate creates a company owned by the employer
type EmployerCompanyCreate struct {
	Name string
}

func (EmployerCompanyCreate) CommandName() string { return "employer.companies.create" }

type EmployerCompanyRetrieve struct {
	CompanyID uuid.UUID
}

func (EmployerCompanyRetrieve) CommandName() string { return "employer.companies.retrieve" }

type EmployerCompanyUpdate struct {
	CompanyID uuid.UUID
	Name      string
}

func (EmployerCompanyUpdate) CommandName() string { return "employer.companies.update" }

// EmployerCompanyDelete removes the company with its memberships and
// pending invites. Companies with invoices cannot be deleted.
type EmployerCompanyDelete struct {
	CompanyID uuid.UUID
}

func (EmployerCompanyDelete) CommandName() string { return "employer.companies.delete" }

type EmployerCompanyLeave struct {
	CompanyID uuid.UUID
}

func (EmployerCompanyLeave) CommandName() string { return "employer.companies.leave" }

type ContractorCompanyList struct {
	ListQuery
}

func (ContractorCompanyList) CommandName() string { return "contractor.companies.list" }

type ContractorCompanyRetrieve struct {
	CompanyID uuid.UUID
}

func (ContractorCompanyRetrieve) CommandName() string { return "contractor.companies.retrieve" }

type ContractorCompanyLeave struct {
	CompanyID uuid.UUID
}

func (ContractorCompanyLeave) CommandName() string { return "contractor.companies.leave" }

func employerCompanyList(ctx context.Context, cmd EmployerCompanyList, d *Deps) (Page[CompanyDTO], error) {
	return listMemberCompanies(ctx, d, cmd.ListQuery, func(s uow.Scope, userID uuid.UUID) ([]uuid.UUID, error) {
		return employerCompanyIDs(ctx, s, userID)
	})
}

func contractorCompanyList(ctx context.Context, cmd ContractorCompanyList, d *Deps) (Page[CompanyDTO], error) {
	return listMemberCompanies(ctx, d, cmd.ListQuery, func(s uow.Scope, userID uuid.UUID) ([]uuid.UUID, error) {
		rows, err := s.ContractorMemberships().Filter(ctx, shared.Eq("contractor_id", userID))
		if err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, 0, len(rows))
		for _, m := range rows {
			ids = append(ids, m.CompanyID)
		}
		return ids, nil
	})
}

func listMemberCompanies(ctx context.Context, d *Deps, q ListQuery, memberOf func(uow.Scope, uuid.UUID) ([]uuid.UUID, error)) (Page[CompanyDTO], error) {
	userID, err := d.User()
	if err != nil {
		return Page[CompanyDTO]{}, err
	}
	scope, err := d.Scope()
	if err != nil {
		return Page[CompanyDTO]{}, err
	}
	ids, err := memberOf(scope, userID)
	if err != nil {
		return Page[CompanyDTO]{}, err
	}
	params := q.params()
	if len(ids) == 0 {
		return newPage([]company.Company{}, 0, params, toCompanyDTO), nil
	}
	rows, err := scope.Companies().List(ctx, params, shared.In("id", ids))
	if err != nil {
		return Page[CompanyDTO]{}, err
	}
	total, err := scope.Companies().Count(ctx, shared.In("id", ids))
	if err != nil {
		return Page[CompanyDTO]{}, err
	}
	return newPage(rows, total, params, toCompanyDTO), nil
}

func employerCompanyIDs(ctx context.Context, s uow.Scope, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.EmployerMemberships().Filter(ctx, shared.Eq("employer_id", userID))
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.CompanyID)
	}
	return ids, nil
}

func employerCompanyCreate(ctx context.Context, cmd EmployerCompanyCreate, d *Deps) (CompanyDTO, error) {
	userID, err := d.User()
	if err != nil {
		return CompanyDTO{}, err
	}
	scope, err := d.Scope()
	if err != nil {
		return CompanyDTO{}, err
	}

	contractor, err := scope.Users().Exists(ctx, shared.ByID(userID), shared.Eq("role", identity.RoleContractor))
	if err != nil {
		return CompanyDTO{}, err
	}
	if contractor {
		return CompanyDTO{}, shared.PermissionDenied("contractor cannot create a company")
	}

	c, err := company.NewCompany(cmd.Name, userID)
	if err != nil {
		return CompanyDTO{}, err
	}
	dup, err := scope.Companies().Exists(ctx, shared.Eq("name", c.Name), shared.Eq("owner_id", userID))
	if err != nil {
		return CompanyDTO{}, err
	}
	if dup {
		return CompanyDTO{}, shared.AlreadyExists("user already has a company with this name")
	}

	if err := scope.Companies().Add(ctx, c); err != nil {
		return CompanyDTO{}, err
	}
	if err := scope.EmployerMemberships().Add(ctx, company.NewEmployerMembership(c.ID, userID)); err != nil {
		return CompanyDTO{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return CompanyDTO{}, err
	}
	return toCompanyDTO(c), nil
}

func employerCompanyRetrieve(ctx context.Context, cmd EmployerCompanyRetrieve, d *Deps) (CompanyDTO, error) {
	scope, err := requireEmployerMember(ctx, d, cmd.CompanyID)
	if err != nil {
		return CompanyDTO{}, err
	}
	c, err := scope.Companies().Get(ctx, shared.ByID(cmd.CompanyID))
	if err != nil {
		return CompanyDTO{}, err
	}
	return toCompanyDTO(c), nil
}

func employerCompanyUpdate(ctx context.Context, cmd EmployerCompanyUpdate, d *Deps) (CompanyDTO, error) {
	scope, err := requireEmployerMember(ctx, d, cmd.CompanyID)
	if err != nil {
		return CompanyDTO{}, err
	}
	c, err := scope.Companies().Get(ctx, shared.ByID(cmd.CompanyID))
	if err != nil {
		return CompanyDTO{}, err
	}
	if err := c.Rename(cmd.Name); err != nil {
		return CompanyDTO{}, err
	}
	clash, err := scope.Companies().First(ctx, shared.Eq("name", c.Name), shared.Eq("owner_id", c.OwnerID))
	if err != nil {
		return CompanyDTO{}, err
	}
	if clash != nil && clash.ID != c.ID {
		return CompanyDTO{}, shared.AlreadyExists("user already has a company with this name")
	}
	if err := scope.Companies().Update(ctx, c); err != nil {
		return CompanyDTO{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return CompanyDTO{}, err
	}
	return toCompanyDTO(c), nil
}

func employerCompanyDelete(ctx context.Context, cmd EmployerCompanyDelete, d *Deps) (Deleted, error) {
	scope, err := requireEmployerMember(ctx, d, cmd.CompanyID)
	if err != nil {
		return Deleted{}, err
	}
	byCompany := shared.Eq("company_id", cmd.CompanyID)

	invoiced, err := scope.Invoices().Exists(ctx, shared.Eq("for_company_id", cmd.CompanyID))
	if err != nil {
		return Deleted{}, err
	}
	if invoiced {
		return Deleted{}, shared.Validation("company with invoices cannot be deleted")
	}
	operated, err := scope.Operations().Exists(ctx, shared.Eq("owner_company_id", cmd.CompanyID))
	if err != nil {
		return Deleted{}, err
	}
	if operated {
		return Deleted{}, shared.Validation("company with operations cannot be deleted")
	}

	ownedByCompany := shared.Eq("owner_company_id", cmd.CompanyID)
	senders, err := scope.SenderBankAccounts().Filter(ctx, ownedByCompany)
	if err != nil {
		return Deleted{}, err
	}
	for _, a := range senders {
		if _, err := scope.SenderBankAccounts().Delete(ctx, a.ID); err != nil {
			return Deleted{}, err
		}
	}
	recipients, err := scope.RecipientBankAccounts().Filter(ctx, ownedByCompany)
	if err != nil {
		return Deleted{}, err
	}
	for _, a := range recipients {
		if _, err := scope.RecipientBankAccounts().Delete(ctx, a.ID); err != nil {
			return Deleted{}, err
		}
	}

	employers, err := scope.EmployerMemberships().Filter(ctx, byCompany)
	if err != nil {
		return Deleted{}, err
	}
	for _, m := range employers {
		if _, err := scope.EmployerMemberships().Delete(ctx, m.ID); err != nil {
			return Deleted{}, err
		}
	}
	contractors, err := scope.ContractorMemberships().Filter(ctx, byCompany)
	if err != nil {
		return Deleted{}, err
	}
	for _, m := range contractors {
		if _, err := scope.ContractorMemberships().Delete(ctx, m.ID); err != nil {
			return Deleted{}, err
		}
	}
	invites, err := scope.Invites().Filter(ctx, byCompany)
	if err != nil {
		return Deleted{}, err
	}
	for _, inv := range invites {
		if _, err := scope.Invites().Delete(ctx, inv.ID); err != nil {
			return Deleted{}, err
		}
	}

	id, err := scope.Companies().Delete(ctx, cmd.CompanyID)
	if err != nil {
		return Deleted{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return Deleted{}, err
	}
	return Deleted{ID: id}, nil
}

func employerCompanyLeave(ctx context.Context, cmd EmployerCompanyLeave, d *Deps) (Deleted, error) {
	userID, err := d.User()
	if err != nil {
		return Deleted{}, err
	}
	scope, err := d.Scope()
	if err != nil {
		return Deleted{}, err
	}
	m, err := scope.EmployerMemberships().First(ctx,
		shared.Eq("company_id", cmd.CompanyID), shared.Eq("employer_id", userID))
	if err != nil {
		return Deleted{}, err
	}
	if m == nil {
		return Deleted{}, noCompanyAccess("employer", cmd.CompanyID)
	}
	return leave(ctx, scope, m.ID, scope.EmployerMemberships().Delete)
}

func contractorCompanyRetrieve(ctx context.Context, cmd ContractorCompanyRetrieve, d *Deps) (CompanyDTO, error) {
	scope, err := requireContractorMember(ctx, d, cmd.CompanyID)
	if err != nil {
		return CompanyDTO{}, err
	}
	c, err := scope.Companies().Get(ctx, shared.ByID(cmd.CompanyID))
	if err != nil {
		return CompanyDTO{}, err
	}
	return toCompanyDTO(c), nil
}

func contractorCompanyLeave(ctx context.Context, cmd ContractorCompanyLeave, d *Deps) (Deleted, error) {
	userID, err := d.User()
	if err != nil {
		return Deleted{}, err
	}
	scope, err := d.Scope()
	if err != nil {
		return Deleted{}, err
	}
	m, err := scope.ContractorMemberships().First(ctx,
		shared.Eq("company_id", cmd.CompanyID), shared.Eq("contractor_id", userID))
	if err != nil {
		return Deleted{}, err
	}
	if m == nil {
		return Deleted{}, noCompanyAccess("contractor", cmd.CompanyID)
	}
	return leave(ctx, scope, m.ID, scope.ContractorMemberships().Delete)
}

func leave(ctx context.Context, scope uow.Scope, membershipID uuid.UUID, del func(context.Context, uuid.UUID) (uuid.UUID, error)) (Deleted, error) {
	id, err := del(ctx, membershipID)
	if err != nil {
		return Deleted{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return Deleted{}, err
	}
	return Deleted{ID: id}, nil
}

func requireEmployerMember(ctx context.Context, d *Deps, companyID uuid.UUID) (uow.Scope, error) {
	userID, err := d.User()
	if err != nil {
		return nil, err
	}
	scope, err := d.Scope()
	if err != nil {
		return nil, err
	}
	ok, err := scope.EmployerMemberships().Exists(ctx, shared.Eq("company_id", companyID), shared.Eq("employer_id", userID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, noCompanyAccess("employer", companyID)
	}
	return scope, nil
}

func requireContractorMember(ctx context.Context, d *Deps, companyID uuid.UUID) (uow.Scope, error) {
	userID, err := d.User()
	if err != nil {
		return nil, err
	}
	scope, err := d.Scope()
	if err != nil {
		return nil, err
	}
	ok, err := scope.ContractorMemberships().Exists(ctx, shared.Eq("company_id", companyID), shared.Eq("contractor_id", userID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, noCompanyAccess("contractor", companyID)
	}
	return scope, nil
}

func noCompanyAccess(role string, companyID uuid.UUID) error {
	return shared.PermissionDenied(fmt.Sprintf("%s has no access to company with id %s", role, companyID))
}
