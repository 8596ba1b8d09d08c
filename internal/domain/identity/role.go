package identity

import (
	"fmt"

	"github.com/invoicing/backend/internal/domain/shared"
)

// Role is the closed set of actor roles
type Role string

const (
	RoleEmployer   Role = "EMPLOYER"
	RoleContractor Role = "CONTRACTOR"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleEmployer, RoleContractor:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts a string to a Role
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", shared.Validation(fmt.Sprintf("unknown role %q", s))
	}
	return r, nil
}
