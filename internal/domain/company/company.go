// Package company holds companies, their employer and contractor
// memberships, and pending invitations.
package company

import (
	"strings"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/shared"
)

// MaxNameLength bounds company names
const MaxNameLength = 200

// Company is created by an employer; the name is unique per owner.
type Company struct {
	shared.BaseEntity
	Name    string
	OwnerID uuid.UUID
}

// NewCompany creates a company owned by ownerID
func NewCompany(name string, ownerID uuid.UUID) (*Company, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	return &Company{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		OwnerID:    ownerID,
	}, nil
}

// Rename changes the company name
func (c *Company) Rename(name string) error {
	name, err := validateName(name)
	if err != nil {
		return err
	}
	c.Name = name
	c.Touch()
	return nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", shared.Validation("empty name")
	}
	if len(name) > MaxNameLength {
		return "", shared.Validation("company name is too long")
	}
	return name, nil
}

// EmployerMembership links an employer user to a company
type EmployerMembership struct {
	shared.BaseEntity
	CompanyID  uuid.UUID
	EmployerID uuid.UUID
}

// NewEmployerMembership creates the join row
func NewEmployerMembership(companyID, employerID uuid.UUID) *EmployerMembership {
	return &EmployerMembership{
		BaseEntity: shared.NewBaseEntity(),
		CompanyID:  companyID,
		EmployerID: employerID,
	}
}

// ContractorMembership links a contractor user to a company
type ContractorMembership struct {
	shared.BaseEntity
	CompanyID    uuid.UUID
	ContractorID uuid.UUID
}

// NewContractorMembership creates the join row
func NewContractorMembership(companyID, contractorID uuid.UUID) *ContractorMembership {
	return &ContractorMembership{
		BaseEntity:   shared.NewBaseEntity(),
		CompanyID:    companyID,
		ContractorID: contractorID,
	}
}

// Repository interfaces

type CompanyRepository interface {
	shared.Repository[Company]
}

type EmployerMembershipRepository interface {
	shared.Repository[EmployerMembership]
}

type ContractorMembershipRepository interface {
	shared.Repository[ContractorMembership]
}

type InviteRepository interface {
	shared.Repository[Invite]
}
