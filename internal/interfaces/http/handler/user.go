package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invoicing/backend/internal/application/command"
	"github.com/invoicing/backend/internal/domain/identity"
)

// UserHandler serves signup, verification, password and profile routes
type UserHandler struct {
	BaseHandler
	sessions *Sessions
}

// NewUserHandler creates a new user handler
func NewUserHandler(bus *command.Bus, sessions *Sessions) *UserHandler {
	return &UserHandler{BaseHandler: NewBaseHandler(bus), sessions: sessions}
}

// SignUp godoc
// @Summary      Create an inactive user
// @Description  The account becomes active once its email or phone is verified
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body SignUpRequest true "New user"
// @Success      201 {object} dto.Response{data=command.UserDTO}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /users/sign-up [post]
func (h *UserHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if !bindJSON(c, &req) {
		return
	}
	respond[command.UserDTO](&h.BaseHandler, c, http.StatusCreated, command.CreateUser{
		Email:     req.Email,
		Phone:     req.Phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Role:      identity.Role(req.Role),
	})
}

// SendEmailCode godoc
// @Summary      Send an email verification code
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body EmailRequest true "Email"
// @Success      200 {object} dto.Response{data=command.UserDTO}
// @Router       /users/send-email-code [post]
func (h *UserHandler) SendEmailCode(c *gin.Context) {
	var req EmailRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, ok := dispatch[command.UserDTO](&h.BaseHandler, c, command.GenerateEmailCode{Email: req.Email}); !ok {
		return
	}
	respond[command.UserDTO](&h.BaseHandler, c, http.StatusOK, command.SendEmailCode{Email: req.Email})
}

// VerifyEmail godoc
// @Summary      Verify an email code
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body CodeRequest true "Code"
// @Success      200 {object} dto.Response{data=command.UserDTO}
// @Router       /users/verify-email [post]
func (h *UserHandler) VerifyEmail(c *gin.Context) {
	var req CodeRequest
	if !bindJSON(c, &req) {
		return
	}
	respond[command.UserDTO](&h.BaseHandler, c, http.StatusOK, command.VerifyEmailCode{Code: req.Code})
}

// SendPhoneCode generates a phone code and texts it
func (h *UserHandler) SendPhoneCode(c *gin.Context) {
	var req PhoneRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, ok := dispatch[command.UserDTO](&h.BaseHandler, c, command.GeneratePhoneCode{Phone: req.Phone}); !ok {
		return
	}
	respond[command.UserDTO](&h.BaseHandler, c, http.StatusOK, command.SendPhoneCode{Phone: req.Phone})
}

// VerifyPhone consumes a phone code
func (h *UserHandler) VerifyPhone(c *gin.Context) {
	var req PhoneCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	respond[command.UserDTO](&h.BaseHandler, c, http.StatusOK, command.VerifyPhoneCode{Phone: req.Phone, Code: req.Code})
}

// SendPasswordCode generates a password reset code and emails it
func (h *UserHandler) SendPasswordCode(c *gin.Context) {
	var req EmailRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, ok := dispatch[command.UserDTO](&h.BaseHandler, c, command.GenerateResetPasswordCode{Email: req.Email}); !ok {
		return
	}
	respond[command.UserDTO](&h.BaseHandler, c, http.StatusOK, command.SendResetPasswordCode{Email: req.Email})
}

// ResetPassword godoc
// @Summary      Reset a password
// @Description  Consume a password code, set the new password and end every open session
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Code and new password"
// @Success      200 {object} dto.Response{data=command.UserDTO}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /users/reset-password [post]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	user, ok := dispatch[command.UserDTO](&h.BaseHandler, c, command.ResetPassword{Code: req.Code, Password: req.Password})
	if !ok {
		return
	}
	h.sessions.RevokeUser(c.Request.Context(), user.ID)
	h.Success(c, user)
}

// GetProfile godoc
// @Summary      Get the authenticated user
// @Tags         users
// @Produce      json
// @Success      200 {object} dto.Response{data=command.UserDTO}
// @Security     BearerAuth
// @Router       /users/profile [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	a := actor(c)
	respond[command.UserDTO](&h.BaseHandler, c, http.StatusOK, command.RetrieveUser{ID: *a.UserID})
}

// UpdateProfile changes the authenticated user's profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	respond[command.UserDTO](&h.BaseHandler, c, http.StatusOK, command.UpdateUser{
		Email:     req.Email,
		Phone:     req.Phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
}

// DeleteProfile deletes the authenticated user and ends their sessions
func (h *UserHandler) DeleteProfile(c *gin.Context) {
	a := actor(c)
	deleted, ok := dispatch[command.Deleted](&h.BaseHandler, c, command.DeleteUser{ID: *a.UserID})
	if !ok {
		return
	}
	h.sessions.RevokeUser(c.Request.Context(), deleted.ID)
	h.Success(c, deleted)
}

// ChangePassword replaces the password and ends every open session,
// the current one included
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	user, ok := dispatch[command.UserDTO](&h.BaseHandler, c, command.ChangePassword{
		OldPassword: req.OldPassword,
		Password:    req.Password,
	})
	if !ok {
		return
	}
	h.sessions.RevokeUser(c.Request.Context(), user.ID)
	h.Success(c, user)
}
