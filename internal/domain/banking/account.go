// Package banking holds the sender and recipient bank accounts used to
// settle invoices.
package banking

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/shared"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// Currency is an ISO 4217 code restricted to the supported set
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
	CurrencyEUR Currency = "EUR"
	CurrencyRUB Currency = "RUB"
)

var supportedCurrencies = map[Currency]bool{
	CurrencyUSD: true,
	CurrencyGBP: true,
	CurrencyEUR: true,
	CurrencyRUB: true,
}

// ParseCurrency canonicalizes and validates a currency code
func ParseCurrency(s string) (Currency, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(s))
	if err != nil {
		return "", shared.Validation(fmt.Sprintf("invalid currency %q", s))
	}
	c := Currency(unit.String())
	if !supportedCurrencies[c] {
		return "", shared.Validation(fmt.Sprintf("unsupported currency %s", c))
	}
	return c, nil
}

// Country is an ISO 3166-1 alpha-3 code restricted to the supported set
type Country string

const (
	CountryUSA Country = "USA"
	CountryGBR Country = "GBR"
	CountryRUS Country = "RUS"
)

var supportedCountries = map[Country]bool{
	CountryUSA: true,
	CountryGBR: true,
	CountryRUS: true,
}

// ParseCountry accepts alpha-2 or alpha-3 input and returns alpha-3
func ParseCountry(s string) (Country, error) {
	region, err := language.ParseRegion(strings.TrimSpace(s))
	if err != nil {
		return "", shared.Validation(fmt.Sprintf("invalid country %q", s))
	}
	c := Country(region.ISO3())
	if !supportedCountries[c] {
		return "", shared.Validation(fmt.Sprintf("unsupported country %s", c))
	}
	return c, nil
}

// AccountType distinguishes business from personal accounts
type AccountType string

const (
	AccountTypeBusiness AccountType = "BUSINESS"
	AccountTypePersonal AccountType = "PERSONAL"
)

// ParseAccountType validates an account type
func ParseAccountType(s string) (AccountType, error) {
	switch t := AccountType(strings.ToUpper(strings.TrimSpace(s))); t {
	case AccountTypeBusiness, AccountTypePersonal:
		return t, nil
	}
	return "", shared.Validation(fmt.Sprintf("invalid bank account type %q", s))
}

// Owner references exactly one of a user or a company
type Owner struct {
	UserID    *uuid.UUID
	CompanyID *uuid.UUID
}

// UserOwner builds an owner reference to a user
func UserOwner(id uuid.UUID) Owner {
	return Owner{UserID: &id}
}

// CompanyOwner builds an owner reference to a company
func CompanyOwner(id uuid.UUID) Owner {
	return Owner{CompanyID: &id}
}

// Validate enforces the one-of rule
func (o Owner) Validate() error {
	if (o.UserID == nil) == (o.CompanyID == nil) {
		return shared.Validation("bank account must be owned by exactly one of a user or a company")
	}
	return nil
}

// Details are the fields common to both account kinds
type Details struct {
	Title         string
	AccountNumber string
	Type          AccountType
	Currency      Currency
	Country       Country
}

func (d Details) validate() error {
	if strings.TrimSpace(d.AccountNumber) == "" {
		return shared.Validation("account number is required")
	}
	if _, err := ParseAccountType(string(d.Type)); err != nil {
		return err
	}
	if !supportedCurrencies[d.Currency] {
		return shared.Validation(fmt.Sprintf("unsupported currency %q", d.Currency))
	}
	if !supportedCountries[d.Country] {
		return shared.Validation(fmt.Sprintf("unsupported country %q", d.Country))
	}
	return nil
}

// Changes is a partial update; nil fields stay unchanged
type Changes struct {
	Title    *string
	Currency *Currency
	Country  *Country
}

// SenderBankAccount is the paying side of an operation
type SenderBankAccount struct {
	shared.BaseEntity
	Owner
	Details
}

// NewSenderBankAccount validates and creates a sender account
func NewSenderBankAccount(owner Owner, d Details) (*SenderBankAccount, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &SenderBankAccount{BaseEntity: shared.NewBaseEntity(), Owner: owner, Details: d}, nil
}

// Apply merges a partial update
func (a *SenderBankAccount) Apply(c Changes) error {
	return applyChanges(&a.Details, &a.BaseEntity, c)
}

// RecipientBankAccount is where invoice payments land
type RecipientBankAccount struct {
	shared.BaseEntity
	Owner
	Details
}

// NewRecipientBankAccount validates and creates a recipient account
func NewRecipientBankAccount(owner Owner, d Details) (*RecipientBankAccount, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &RecipientBankAccount{BaseEntity: shared.NewBaseEntity(), Owner: owner, Details: d}, nil
}

// Apply merges a partial update
func (a *RecipientBankAccount) Apply(c Changes) error {
	return applyChanges(&a.Details, &a.BaseEntity, c)
}

func applyChanges(d *Details, base *shared.BaseEntity, c Changes) error {
	next := *d
	if c.Title != nil {
		next.Title = strings.TrimSpace(*c.Title)
	}
	if c.Currency != nil {
		next.Currency = *c.Currency
	}
	if c.Country != nil {
		next.Country = *c.Country
	}
	if err := next.validate(); err != nil {
		return err
	}
	*d = next
	base.Touch()
	return nil
}

type SenderBankAccountRepository interface {
	shared.Repository[SenderBankAccount]
}

type RecipientBankAccountRepository interface {
	shared.Repository[RecipientBankAccount]
}
