package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"strings"
	"time"

	"github.com/invoicing/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

const (
	emailCodeBytes    = 16
	passwordCodeBytes = 16
	phoneCodeDigits   = 6
)

// User is an actor of the system. Users start inactive and are activated
// by verifying either their email or their phone.
type User struct {
	shared.BaseEntity
	Email           string
	Phone           string
	FirstName       string
	LastName        string
	Role            Role
	PasswordHash    string
	LastLogin       *time.Time
	EmailCode       *string
	PhoneCode       *string
	PasswordCode    *string
	IsEmailVerified bool
	IsPhoneVerified bool
	IsActive        bool
	IsOnboarded     bool
	IsSuperuser     bool
}

// NewUser creates an inactive user with a hashed password
func NewUser(email, phone, firstName, lastName string, role Role, password string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, shared.Validation("email is required")
	}
	if !role.IsValid() {
		return nil, shared.Validation("role must be EMPLOYER or CONTRACTOR")
	}

	user := &User{
		BaseEntity: shared.NewBaseEntity(),
		Email:      email,
		Phone:      strings.TrimSpace(phone),
		FirstName:  strings.TrimSpace(firstName),
		LastName:   strings.TrimSpace(lastName),
		Role:       role,
	}
	if password != "" {
		if err := user.SetPassword(password); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// NewInvitedUser creates a passwordless contractor placeholder for an
// invited email address.
func NewInvitedUser(email string) (*User, error) {
	return NewUser(email, "", "", "", RoleContractor, "")
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetPassword replaces the credential hash
func (u *User) SetPassword(password string) error {
	if len(password) < 8 {
		return shared.Validation("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return shared.WrapDomainError(shared.CodeService, "failed to hash password", err)
	}
	u.PasswordHash = string(hash)
	u.Touch()
	return nil
}

// CheckPassword reports whether password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// RecordLogin stamps the last login time
func (u *User) RecordLogin() {
	now := shared.Now()
	u.LastLogin = &now
	u.Touch()
}

// FullName joins first and last name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IssueEmailCode generates and stores a fresh email verification code
func (u *User) IssueEmailCode() (string, error) {
	code, err := randomHex(emailCodeBytes)
	if err != nil {
		return "", err
	}
	u.EmailCode = &code
	u.Touch()
	return code, nil
}

// IssuePhoneCode generates and stores a fresh numeric phone code
func (u *User) IssuePhoneCode() (string, error) {
	code, err := randomDigits(phoneCodeDigits)
	if err != nil {
		return "", err
	}
	u.PhoneCode = &code
	u.Touch()
	return code, nil
}

// IssuePasswordCode generates and stores a password reset code
func (u *User) IssuePasswordCode() (string, error) {
	code, err := randomHex(passwordCodeBytes)
	if err != nil {
		return "", err
	}
	u.PasswordCode = &code
	u.Touch()
	return code, nil
}

// VerifyEmail consumes the email code. Either verification activates the
// account on its own.
func (u *User) VerifyEmail(code string) error {
	if u.IsEmailVerified {
		return shared.Validation("email already verified")
	}
	if !codeMatches(u.EmailCode, code) {
		return shared.Validation("invalid email code")
	}
	u.EmailCode = nil
	u.IsEmailVerified = true
	u.IsActive = true
	u.Touch()
	return nil
}

// VerifyPhone consumes the phone code and activates the account
func (u *User) VerifyPhone(code string) error {
	if u.IsPhoneVerified {
		return shared.Validation("phone already verified")
	}
	if !codeMatches(u.PhoneCode, code) {
		return shared.Validation("invalid phone code")
	}
	u.PhoneCode = nil
	u.IsPhoneVerified = true
	u.IsActive = true
	u.Touch()
	return nil
}

// ResetPassword consumes the reset code and sets a new password
func (u *User) ResetPassword(code, password string) error {
	if !codeMatches(u.PasswordCode, code) {
		return shared.Validation("invalid password reset code")
	}
	if err := u.SetPassword(password); err != nil {
		return err
	}
	u.PasswordCode = nil
	return nil
}

func codeMatches(stored *string, code string) bool {
	if stored == nil || code == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(code)) == 1
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", shared.WrapDomainError(shared.CodeService, "failed to generate code", err)
	}
	return hex.EncodeToString(b), nil
}

func randomDigits(n int) (string, error) {
	var sb strings.Builder
	ten := big.NewInt(10)
	for range n {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", shared.WrapDomainError(shared.CodeService, "failed to generate code", err)
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}
