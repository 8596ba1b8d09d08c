package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/application/uow"
	"github.com/invoicing/backend/internal/domain/identity"
	"github.com/invoicing/backend/internal/domain/shared"
)

// CreateUser signs a new user up. The account stays inactive until the
// email or the phone is verified.
type CreateUser struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string
	Password  string
	Role      identity.Role
}

func (CreateUser) CommandName() string { return "users.create" }

// AuthenticateUser checks credentials and records the login
type AuthenticateUser struct {
	Email    string
	Password string
}

func (AuthenticateUser) CommandName() string { return "users.authenticate" }

// RetrieveUser loads an active user
type RetrieveUser struct {
	ID uuid.UUID
}

func (RetrieveUser) CommandName() string { return "users.retrieve" }

// UpdateUser changes the acting user's profile; nil fields are kept
type UpdateUser struct {
	Email     *string
	Phone     *string
	FirstName *string
	LastName  *string
}

func (UpdateUser) CommandName() string { return "users.update" }

// ChangePassword replaces the acting user's password
type ChangePassword struct {
	OldPassword string
	Password    string
}

func (ChangePassword) CommandName() string { return "users.change_password" }

// DeleteUser removes a user. Users can only delete themselves.
type DeleteUser struct {
	ID uuid.UUID
}

func (DeleteUser) CommandName() string { return "users.delete" }

// GenerateEmailCode issues a fresh email verification code
type GenerateEmailCode struct {
	Email string
}

func (GenerateEmailCode) CommandName() string { return "users.email_code.generate" }

// SendEmailCode emails the current verification code
type SendEmailCode struct {
	Email string
}

func (SendEmailCode) CommandName() string { return "users.email_code.send" }

// VerifyEmailCode consumes an email code
type VerifyEmailCode struct {
	Code string
}

func (VerifyEmailCode) CommandName() string { return "users.email_code.verify" }

// GeneratePhoneCode issues a fresh phone verification code
type GeneratePhoneCode struct {
	Phone string
}

func (GeneratePhoneCode) CommandName() string { return "users.phone_code.generate" }

// SendPhoneCode texts the current phone code
type SendPhoneCode struct {
	Phone string
}

func (SendPhoneCode) CommandName() string { return "users.phone_code.send" }

// VerifyPhoneCode consumes a phone code. Phone numbers are not unique,
// so the number is part of the lookup.
type VerifyPhoneCode struct {
	Phone string
	Code  string
}

func (VerifyPhoneCode) CommandName() string { return "users.phone_code.verify" }

// GenerateResetPasswordCode issues a password reset code
type GenerateResetPasswordCode struct {
	Email string
}

func (GenerateResetPasswordCode) CommandName() string { return "users.reset_code.generate" }

// SendResetPasswordCode emails the current reset code
type SendResetPasswordCode struct {
	Email string
}

func (SendResetPasswordCode) CommandName() string { return "users.reset_code.send" }

// ResetPassword consumes a reset code and sets a new password
type ResetPassword struct {
	Code     string
	Password string
}

func (ResetPassword) CommandName() string { return "users.reset_password" }

func createUser(ctx context.Context, cmd CreateUser, d *Deps) (UserDTO, error) {
	scope, err := d.Scope()
	if err != nil {
		return UserDTO{}, err
	}
	if cmd.Password == "" {
		return UserDTO{}, shared.Validation("password is required")
	}
	role := cmd.Role
	if role == "" {
		role = identity.RoleEmployer
	}
	user, err := identity.NewUser(cmd.Email, cmd.Phone, cmd.FirstName, cmd.LastName, role, cmd.Password)
	if err != nil {
		return UserDTO{}, err
	}

	taken, err := scope.Users().Exists(ctx, shared.Eq("email", user.Email))
	if err != nil {
		return UserDTO{}, err
	}
	if taken {
		return UserDTO{}, shared.AlreadyExists(fmt.Sprintf("user with email %s already exists", user.Email))
	}
	if err := scope.Users().Add(ctx, user); err != nil {
		return UserDTO{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return UserDTO{}, err
	}
	return toUserDTO(user), nil
}

func authenticateUser(ctx context.Context, cmd AuthenticateUser, d *Deps) (UserDTO, error) {
	scope, err := d.Scope()
	if err != nil {
		return UserDTO{}, err
	}
	user, err := scope.Users().First(ctx, shared.Eq("email", identity.NormalizeEmail(cmd.Email)))
	if err != nil {
		return UserDTO{}, err
	}
	if user == nil || !user.CheckPassword(cmd.Password) {
		return UserDTO{}, shared.PermissionDenied("invalid email or password")
	}
	if !user.IsActive {
		return UserDTO{}, shared.PermissionDenied("account is not active")
	}
	user.RecordLogin()
	if err := scope.Users().Update(ctx, user); err != nil {
		return UserDTO{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return UserDTO{}, err
	}
	return toUserDTO(user), nil
}

func retrieveUser(ctx context.Context, cmd RetrieveUser, d *Deps) (UserDTO, error) {
	scope, err := d.Scope()
	if err != nil {
		return UserDTO{}, err
	}
	user, err := scope.Users().Get(ctx, shared.ByID(cmd.ID), shared.Eq("is_active", true))
	if err != nil {
		return UserDTO{}, err
	}
	return toUserDTO(user), nil
}

func updateUser(ctx context.Context, cmd UpdateUser, d *Deps) (UserDTO, error) {
	user, scope, err := actingUser(ctx, d)
	if err != nil {
		return UserDTO{}, err
	}
	if cmd.Email != nil {
		email := identity.NormalizeEmail(*cmd.Email)
		if email == "" {
			return UserDTO{}, shared.Validation("email cannot be empty")
		}
		if email != user.Email {
			taken, err := scope.Users().Exists(ctx, shared.Eq("email", email))
			if err != nil {
				return UserDTO{}, err
			}
			if taken {
				return UserDTO{}, shared.AlreadyExists(fmt.Sprintf("user with email %s already exists", email))
			}
			user.Email = email
		}
	}
	if cmd.Phone != nil {
		user.Phone = *cmd.Phone
	}
	if cmd.FirstName != nil {
		user.FirstName = *cmd.FirstName
	}
	if cmd.LastName != nil {
		user.LastName = *cmd.LastName
	}
	user.Touch()
	if err := scope.Users().Update(ctx, user); err != nil {
		return UserDTO{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return UserDTO{}, err
	}
	return toUserDTO(user), nil
}

func changePassword(ctx context.Context, cmd ChangePassword, d *Deps) (UserDTO, error) {
	user, scope, err := actingUser(ctx, d)
	if err != nil {
		return UserDTO{}, err
	}
	if !user.CheckPassword(cmd.OldPassword) {
		return UserDTO{}, shared.Validation("current password is incorrect")
	}
	if err := user.SetPassword(cmd.Password); err != nil {
		return UserDTO{}, err
	}
	if err := scope.Users().Update(ctx, user); err != nil {
		return UserDTO{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return UserDTO{}, err
	}
	return toUserDTO(user), nil
}

func deleteUser(ctx context.Context, cmd DeleteUser, d *Deps) (Deleted, error) {
	userID, err := d.User()
	if err != nil {
		return Deleted{}, err
	}
	if cmd.ID != userID {
		return Deleted{}, shared.PermissionDenied("users can only delete themselves")
	}
	scope, err := d.Scope()
	if err != nil {
		return Deleted{}, err
	}

	employers, err := scope.EmployerMemberships().Filter(ctx, shared.Eq("employer_id", userID))
	if err != nil {
		return Deleted{}, err
	}
	for _, m := range employers {
		if _, err := scope.EmployerMemberships().Delete(ctx, m.ID); err != nil {
			return Deleted{}, err
		}
	}
	contractors, err := scope.ContractorMemberships().Filter(ctx, shared.Eq("contractor_id", userID))
	if err != nil {
		return Deleted{}, err
	}
	for _, m := range contractors {
		if _, err := scope.ContractorMemberships().Delete(ctx, m.ID); err != nil {
			return Deleted{}, err
		}
	}

	id, err := scope.Users().Delete(ctx, userID)
	if err != nil {
		return Deleted{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return Deleted{}, err
	}
	return Deleted{ID: id}, nil
}

func generateEmailCode(ctx context.Context, cmd GenerateEmailCode, d *Deps) (UserDTO, error) {
	return issueCode(ctx, d, shared.Eq("email", identity.NormalizeEmail(cmd.Email)), (*identity.User).IssueEmailCode)
}

func generatePhoneCode(ctx context.Context, cmd GeneratePhoneCode, d *Deps) (UserDTO, error) {
	return issueCode(ctx, d, shared.Eq("phone", cmd.Phone), (*identity.User).IssuePhoneCode)
}

func generateResetPasswordCode(ctx context.Context, cmd GenerateResetPasswordCode, d *Deps) (UserDTO, error) {
	return issueCode(ctx, d, shared.Eq("email", identity.NormalizeEmail(cmd.Email)), (*identity.User).IssuePasswordCode)
}

func issueCode(ctx context.Context, d *Deps, lookup shared.Condition, issue func(*identity.User) (string, error)) (UserDTO, error) {
	scope, err := d.Scope()
	if err != nil {
		return UserDTO{}, err
	}
	user, err := scope.Users().Get(ctx, lookup)
	if err != nil {
		return UserDTO{}, err
	}
	if _, err := issue(user); err != nil {
		return UserDTO{}, err
	}
	if err := scope.Users().Update(ctx, user); err != nil {
		return UserDTO{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return UserDTO{}, err
	}
	return toUserDTO(user), nil
}

func sendEmailCode(ctx context.Context, cmd SendEmailCode, d *Deps) (UserDTO, error) {
	return sendCode(ctx, d, cmd.Email, func(u *identity.User) error {
		if u.EmailCode == nil {
			return shared.Validation("no email code has been issued")
		}
		return d.Email(u.Email, "Email verification", "Verification code: "+*u.EmailCode)
	})
}

func sendResetPasswordCode(ctx context.Context, cmd SendResetPasswordCode, d *Deps) (UserDTO, error) {
	return sendCode(ctx, d, cmd.Email, func(u *identity.User) error {
		if u.PasswordCode == nil {
			return shared.Validation("no password reset code has been issued")
		}
		return d.Email(u.Email, "Reset password", "Verification code: "+*u.PasswordCode)
	})
}

func sendCode(ctx context.Context, d *Deps, email string, queue func(*identity.User) error) (UserDTO, error) {
	scope, err := d.Scope()
	if err != nil {
		return UserDTO{}, err
	}
	user, err := scope.Users().Get(ctx, shared.Eq("email", identity.NormalizeEmail(email)))
	if err != nil {
		return UserDTO{}, err
	}
	if err := queue(user); err != nil {
		return UserDTO{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return UserDTO{}, err
	}
	return toUserDTO(user), nil
}

func sendPhoneCode(ctx context.Context, cmd SendPhoneCode, d *Deps) (UserDTO, error) {
	scope, err := d.Scope()
	if err != nil {
		return UserDTO{}, err
	}
	user, err := scope.Users().Get(ctx, shared.Eq("phone", cmd.Phone))
	if err != nil {
		return UserDTO{}, err
	}
	if user.PhoneCode == nil {
		return UserDTO{}, shared.Validation("no phone code has been issued")
	}
	if err := d.SMS(user.Phone, "Code: "+*user.PhoneCode); err != nil {
		return UserDTO{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return UserDTO{}, err
	}
	return toUserDTO(user), nil
}

func verifyEmailCode(ctx context.Context, cmd VerifyEmailCode, d *Deps) (UserDTO, error) {
	return consumeCode(ctx, d, []shared.Condition{shared.Eq("email_code", cmd.Code)},
		"invalid email code", func(u *identity.User) error { return u.VerifyEmail(cmd.Code) })
}

func verifyPhoneCode(ctx context.Context, cmd VerifyPhoneCode, d *Deps) (UserDTO, error) {
	return consumeCode(ctx, d, []shared.Condition{shared.Eq("phone", cmd.Phone), shared.Eq("phone_code", cmd.Code)},
		"invalid phone code", func(u *identity.User) error { return u.VerifyPhone(cmd.Code) })
}

func resetPassword(ctx context.Context, cmd ResetPassword, d *Deps) (UserDTO, error) {
	return consumeCode(ctx, d, []shared.Condition{shared.Eq("password_code", cmd.Code)},
		"invalid password reset code", func(u *identity.User) error { return u.ResetPassword(cmd.Code, cmd.Password) })
}

func consumeCode(ctx context.Context, d *Deps, lookup []shared.Condition, invalid string, apply func(*identity.User) error) (UserDTO, error) {
	scope, err := d.Scope()
	if err != nil {
		return UserDTO{}, err
	}
	user, err := scope.Users().First(ctx, lookup...)
	if err != nil {
		return UserDTO{}, err
	}
	if user == nil {
		return UserDTO{}, shared.Validation(invalid)
	}
	if err := apply(user); err != nil {
		return UserDTO{}, err
	}
	if err := scope.Users().Update(ctx, user); err != nil {
		return UserDTO{}, err
	}
	if err := scope.Commit(ctx); err != nil {
		return UserDTO{}, err
	}
	return toUserDTO(user), nil
}

func actingUser(ctx context.Context, d *Deps) (*identity.User, uow.Scope, error) {
	userID, err := d.User()
	if err != nil {
		return nil, nil, err
	}
	scope, err := d.Scope()
	if err != nil {
		return nil, nil, err
	}
	user, err := scope.Users().Get(ctx, shared.ByID(userID))
	if err != nil {
		return nil, nil, err
	}
	return user, scope, nil
}
