package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/company"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/shared"
)

// SendInvitationCode invites an email address to join a company as a
// contractor. A passwordless contractor account is created for unknown
// addresses.
type SendInvitationCode struct {
	CompanyID uuid.UUID
	Email     string
}

func (SendInvitationCode) CommandName() string { return "users.invitation.send" }

// AcceptInvitation redeems an invitation code. Codes are single-use.
type AcceptInvitation struct {
	Code string
}

func (AcceptInvitation) CommandName() string { return "users.invitation.accept" }

func sendInvitationCode(ctx context.Context, cmd SendInvitationCode, d *Deps) (InviteDTO, error) {
	inviterID, err := d.User()
	if err != nil {
		return InviteDTO{}, err
	}
	scope, err := d.Scope()
	if err != nil {
		return InviteDTO{}, err
	}

	member, err := scope.EmployerMemberships().Exists(ctx,
		shared.Eq("company_id", cmd.CompanyID), shared.Eq("employer_id", inviterID))
	if err != nil {
		return InviteDTO{}, err
	}
	if !member {
		return InviteDTO{}, shared.PermissionDenied(fmt.Sprintf("employer has no access to company with id %s", cmd.CompanyID))
	}

	email := identity.NormalizeEmail(cmd.Email)
	invitee, err := scope.Users().First(ctx, shared.Eq("email", email))
	if err != nil {
		return InviteDTO{}, err
	}
	if invitee == nil {
		invitee, err = identity.NewInvitedUser(email)
		if err != nil {
			return InviteDTO{}, err
		}
		if err := scope.Users().Add(ctx, invitee); err != nil {
			return InviteDTO{}, err
		}
	} else {
		if invitee.Role != identity.RoleContractor {
			return InviteDTO{}, shared.Validation("only contractors can be invited to a company")
		}
		joined, err := scope.ContractorMemberships().Exists(ctx,
			shared.Eq("company_id", cmd.CompanyID), shared.Eq("contractor_id", invitee.ID))
		if err != nil {
			return InviteDTO{}, err
		}
		if joined {
			return InviteDTO{}, shared.Validation("user is already a member of the company")
		}
	}

	pendingInvite, err := scope.Invites().Exists(ctx, shared.Eq("email", email), shared.Eq("company_id", cmd.CompanyID))
	if err != nil {
		return InviteDTO{}, err
	}
	if pendingInvite {
		return InviteDTO{}, shared.AlreadyExists("an invitation for this email is already pending")
	}

	invite, err := company.NewInvite(cmd.CompanyID, email)
	if err != nil {
		return InviteDTO{}, err
	}
	if err := scope.Invites().Add(ctx, invite); err != nil {
		return InviteDTO{}, err
	}
	if err := d.Email(invite.Email, "Invitation", "Invitation code: "+invite.InvitationCode); err != nil {
		return InviteDTO{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return InviteDTO{}, err
	}
	return toInviteDTO(invite), nil
}

func acceptInvitation(ctx context.Context, cmd AcceptInvitation, d *Deps) (MembershipDTO, error) {
	if len(cmd.Code) < company.MinInvitationCodeLength {
		return MembershipDTO{}, shared.Validation("invalid invitation code")
	}
	scope, err := d.Scope()
	if err != nil {
		return MembershipDTO{}, err
	}

	invite, err := scope.Invites().Get(ctx, shared.Eq("invitation_code", cmd.Code))
	if err != nil {
		return MembershipDTO{}, err
	}
	user, err := scope.Users().Get(ctx, shared.Eq("email", invite.Email))
	if err != nil {
		return MembershipDTO{}, err
	}

	membership := company.NewContractorMembership(invite.CompanyID, user.ID)
	if err := scope.ContractorMemberships().Add(ctx, membership); err != nil {
		return MembershipDTO{}, err
	}
	if _, err := scope.Invites().Delete(ctx, invite.ID); err != nil {
		return MembershipDTO{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return MembershipDTO{}, err
	}
	return MembershipDTO{
		ID:           membership.ID,
		CompanyID:    membership.CompanyID,
		ContractorID: membership.ContractorID,
		CreatedAt:    membership.CreatedAt,
	}, nil
}
