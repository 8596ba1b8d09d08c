package company

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/shared"
)

// MinInvitationCodeLength is the shortest code accepted at the boundary
const MinInvitationCodeLength = 16

const invitationCodeBytes = 16

// Invite is a pending, single-use invitation of an email to a company.
// At most one invite exists per (email, company); accepting deletes it.
type Invite struct {
	shared.BaseEntity
	CompanyID      uuid.UUID
	Email          string
	InvitationCode string
}

// NewInvite creates an invite with a fresh random code
func NewInvite(companyID uuid.UUID, email string) (*Invite, error) {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return nil, shared.Validation("invite email is required")
	}
	b := make([]byte, invitationCodeBytes)
	if _, err := rand.Read(b); err != nil {
		return nil, shared.WrapDomainError(shared.CodeService, "failed to generate invitation code", err)
	}
	return &Invite{
		BaseEntity:     shared.NewBaseEntity(),
		CompanyID:      companyID,
		Email:          email,
		InvitationCode: hex.EncodeToString(b),
	}, nil
}
