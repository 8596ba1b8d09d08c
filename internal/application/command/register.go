package command

import "github.com/invoicing/backend/internal/domain/identity"

const (
	actor       = NeedUoW | NeedUser
	employer    = actor
	contractor  = actor
	contractorC = actor | NeedCompany
)

// NewDefaultBus builds the sealed bus with every command of the core
func NewDefaultBus(deps Dependencies, opts ...Option) *Bus {
	b := NewBus(deps, opts...)
	registerUsers(b)
	registerEmployer(b)
	registerContractor(b)
	return b.Seal()
}

func registerUsers(b *Bus) {
	Register(b, createUser, NeedUoW)
	Register(b, authenticateUser, NeedUoW)
	Register(b, retrieveUser, NeedUoW)
	Register(b, updateUser, actor)
	Register(b, changePassword, actor)
	Register(b, deleteUser, actor)

	Register(b, generateEmailCode, NeedUoW)
	Register(b, sendEmailCode, NeedUoW|NeedEmail)
	Register(b, verifyEmailCode, NeedUoW)
	Register(b, generatePhoneCode, NeedUoW)
	Register(b, sendPhoneCode, NeedUoW|NeedSMS)
	Register(b, verifyPhoneCode, NeedUoW)
	Register(b, generateResetPasswordCode, NeedUoW)
	Register(b, sendResetPasswordCode, NeedUoW|NeedEmail)
	Register(b, resetPassword, NeedUoW)

	Register(b, RequireRole(identity.RoleEmployer, sendInvitationCode), actor|NeedEmail)
	Register(b, acceptInvitation, NeedUoW)
}

func registerEmployer(b *Bus) {
	e := identity.RoleEmployer

	Register(b, RequireRole(e, employerCompanyList), employer)
	Register(b, RequireRole(e, employerCompanyCreate), employer)
	Register(b, RequireRole(e, employerCompanyRetrieve), employer)
	Register(b, RequireRole(e, employerCompanyUpdate), employer)
	Register(b, RequireRole(e, employerCompanyDelete), employer)
	Register(b, RequireRole(e, employerCompanyLeave), employer)

	Register(b, RequireRole(e, employerSenderAccountList), employer)
	Register(b, RequireRole(e, employerSenderAccountCreate), employer)
	Register(b, RequireRole(e, employerSenderAccountRetrieve), employer)
	Register(b, RequireRole(e, employerSenderAccountUpdate), employer)
	Register(b, RequireRole(e, employerSenderAccountDelete), employer)

	Register(b, RequireRole(e, employerInvoiceList), employer)
	Register(b, RequireRole(e, employerInvoiceRetrieve), employer)
	b.Unimplemented(EmployerInvoicePay{}.CommandName())
	b.Unimplemented(EmployerBulkInvoicePay{}.CommandName())

	Register(b, RequireRole(e, employerOperationList), employer)
	Register(b, RequireRole(e, employerOperationRetrieve), employer)
}

func registerContractor(b *Bus) {
	c := identity.RoleContractor

	Register(b, RequireRole(c, contractorCompanyList), contractor)
	Register(b, RequireRole(c, contractorCompanyRetrieve), contractor)
	Register(b, RequireRole(c, contractorCompanyLeave), contractor)

	Register(b, RequireRole(c, contractorRecipientAccountList), contractor)
	Register(b, RequireRole(c, contractorRecipientAccountCreate), contractor)
	Register(b, RequireRole(c, contractorRecipientAccountRetrieve), contractor)
	Register(b, RequireRole(c, contractorRecipientAccountUpdate), contractor)
	Register(b, RequireRole(c, contractorRecipientAccountDelete), contractor)

	Register(b, RequireRole(c, contractorInvoiceList), contractorC)
	Register(b, RequireRole(c, contractorInvoiceRetrieve), contractorC)
	Register(b, RequireRole(c, contractorInvoiceCreate), contractorC)
	Register(b, RequireRole(c, contractorInvoiceUpdate), contractorC)
	Register(b, RequireRole(c, contractorInvoiceDelete), contractorC)

	Register(b, RequireRole(c, contractorOperationList), contractor)
	Register(b, RequireRole(c, contractorOperationRetrieve), contractor)
}
