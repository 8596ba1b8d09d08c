package persistence

import (
	"strings"
)

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to every entity
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

func withCommon(fields ...string) map[string]bool {
	out := make(map[string]bool, len(CommonSortFields)+len(fields))
	for k := range CommonSortFields {
		out[k] = true
	}
	for _, f := range fields {
		out[f] = true
	}
	return out
}

// UserSortFields contains allowed sort fields for users
var UserSortFields = withCommon("email", "first_name", "last_name", "role", "last_login")

// CompanySortFields contains allowed sort fields for companies
var CompanySortFields = withCommon("name")

// MembershipSortFields contains allowed sort fields for membership rows
var MembershipSortFields = withCommon()

// InviteSortFields contains allowed sort fields for invites
var InviteSortFields = withCommon("email")

// BankAccountSortFields contains allowed sort fields for bank accounts
var BankAccountSortFields = withCommon("title", "currency", "country", "type")

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = withCommon("for_company_id", "created_by_id")

// InvoiceItemSortFields contains allowed sort fields for invoice items
var InvoiceItemSortFields = withCommon("amount", "quantity", "description")

// OperationSortFields contains allowed sort fields for operations
var OperationSortFields = withCommon("status", "sender_amount", "recipient_amount")
