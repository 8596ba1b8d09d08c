package models

import (
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/company"
)

// CompanyModel is the persistence model for Company
type CompanyModel struct {
	BaseModel
	Name    string    `gorm:"type:varchar(200);not null;uniqueIndex:idx_companies_owner_name"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_companies_owner_name"`
}

func (CompanyModel) TableName() string {
	return "companies"
}

func (m *CompanyModel) ToDomain() *company.Company {
	return &company.Company{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		OwnerID:    m.OwnerID,
	}
}

func CompanyModelFromDomain(c *company.Company) *CompanyModel {
	m := &CompanyModel{Name: c.Name, OwnerID: c.OwnerID}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// EmployerMembershipModel is the company/employer join table
type EmployerMembershipModel struct {
	BaseModel
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_company_employers_pair"`
	EmployerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_company_employers_pair;index"`
}

func (EmployerMembershipModel) TableName() string {
	return "company_employers"
}

func (m *EmployerMembershipModel) ToDomain() *company.EmployerMembership {
	return &company.EmployerMembership{
		BaseEntity: m.BaseModel.ToDomain(),
		CompanyID:  m.CompanyID,
		EmployerID: m.EmployerID,
	}
}

func EmployerMembershipModelFromDomain(e *company.EmployerMembership) *EmployerMembershipModel {
	m := &EmployerMembershipModel{CompanyID: e.CompanyID, EmployerID: e.EmployerID}
	m.FromDomainBaseEntity(e.BaseEntity)
	return m
}

// ContractorMembershipModel is the company/contractor join table
type ContractorMembershipModel struct {
	BaseModel
	CompanyID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_company_contractors_pair"`
	ContractorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_company_contractors_pair;index"`
}

func (ContractorMembershipModel) TableName() string {
	return "company_contractors"
}

func (m *ContractorMembershipModel) ToDomain() *company.ContractorMembership {
	return &company.ContractorMembership{
		BaseEntity:   m.BaseModel.ToDomain(),
		CompanyID:    m.CompanyID,
		ContractorID: m.ContractorID,
	}
}

func ContractorMembershipModelFromDomain(c *company.ContractorMembership) *ContractorMembershipModel {
	m := &ContractorMembershipModel{CompanyID: c.CompanyID, ContractorID: c.ContractorID}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// InviteModel is a pending invitation
type InviteModel struct {
	BaseModel
	CompanyID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_company_invites_email_company"`
	Email          string    `gorm:"type:varchar(254);not null;uniqueIndex:idx_company_invites_email_company"`
	InvitationCode string    `gorm:"type:varchar(64);not null;uniqueIndex"`
}

func (InviteModel) TableName() string {
	return "company_invites"
}

func (m *InviteModel) ToDomain() *company.Invite {
	return &company.Invite{
		BaseEntity:     m.BaseModel.ToDomain(),
		CompanyID:      m.CompanyID,
		Email:          m.Email,
		InvitationCode: m.InvitationCode,
	}
}

func InviteModelFromDomain(i *company.Invite) *InviteModel {
	m := &InviteModel{CompanyID: i.CompanyID, Email: i.Email, InvitationCode: i.InvitationCode}
	m.FromDomainBaseEntity(i.BaseEntity)
	return m
}
