package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/application/command"
	"github.com/invoicing/backend/internal/infrastructure/auth"
	"github.com/invoicing/backend/internal/infrastructure/logger"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
	"github.com/invoicing/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Sessions issues and revokes tokens. It is shared by the handlers that
// end sessions as a side effect of a command.
type Sessions struct {
	jwt       *auth.JWTService
	blacklist auth.TokenBlacklist
}

// NewSessions creates the session manager. blacklist may be nil, in
// which case tokens live until they expire.
func NewSessions(jwt *auth.JWTService, blacklist auth.TokenBlacklist) *Sessions {
	return &Sessions{jwt: jwt, blacklist: blacklist}
}

// RevokeUser ends every session of userID issued up to now
func (s *Sessions) RevokeUser(ctx context.Context, userID uuid.UUID) {
	if s == nil || s.blacklist == nil {
		return
	}
	if err := s.blacklist.RevokeUser(ctx, userID.String(), s.jwt.RefreshTokenExpiration()); err != nil {
		logger.FromContext(ctx).Error("Failed to revoke user sessions",
			zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func (s *Sessions) revoke(ctx context.Context, claims *auth.Claims) error {
	if s.blacklist == nil || claims == nil || claims.ID == "" {
		return nil
	}
	return s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL())
}

func (s *Sessions) isRevoked(ctx context.Context, claims *auth.Claims) (bool, error) {
	if s.blacklist == nil {
		return false, nil
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil || revoked {
		return revoked, err
	}
	return s.blacklist.IsUserRevoked(ctx, claims.UserID, claims.IssuedAtTime())
}

// AuthHandler handles sign-in, token refresh and sign-out
type AuthHandler struct {
	BaseHandler
	sessions *Sessions
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(bus *command.Bus, sessions *Sessions) *AuthHandler {
	return &AuthHandler{BaseHandler: NewBaseHandler(bus), sessions: sessions}
}

// SignIn godoc
// @Summary      Sign in
// @Description  Check credentials of an active user and issue a token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignInRequest true "Credentials"
// @Success      200 {object} dto.Response{data=SignInResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/sign-in [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if !bindJSON(c, &req) {
		return
	}

	user, ok := dispatch[command.UserDTO](&h.BaseHandler, c, command.AuthenticateUser{
		Email:    req.Email,
		Password: req.Password,
	})
	if !ok {
		return
	}

	pair, err := h.sessions.jwt.GenerateTokenPair(user.ID, user.Role)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, SignInResponse{Token: tokenResponse(pair), User: user})
}

// Refresh godoc
// @Summary      Refresh tokens
// @Description  Exchange a refresh token for a new pair. The old refresh token is revoked.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshTokenRequest true "Refresh token"
// @Success      200 {object} dto.Response{data=RefreshTokenResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, old, err := h.sessions.jwt.Refresh(req.RefreshToken)
	if err != nil {
		code := dto.ErrCodeUnauthorized
		if errors.Is(err, auth.ErrExpiredToken) {
			code = dto.ErrCodeTokenExpired
		}
		h.Unauthorized(c, code, "Invalid refresh token")
		return
	}

	ctx := c.Request.Context()
	revoked, err := h.sessions.isRevoked(ctx, old)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if revoked {
		h.Unauthorized(c, dto.ErrCodeTokenRevoked, "Refresh token has been revoked")
		return
	}
	if err := h.sessions.revoke(ctx, old); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RefreshTokenResponse{Token: tokenResponse(pair)})
}

// SignOut godoc
// @Summary      Sign out
// @Description  Revoke the current access token and, when given, the refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignOutRequest false "Refresh token to revoke"
// @Success      200 {object} dto.Response{data=MessageResponse}
// @Security     BearerAuth
// @Router       /auth/sign-out [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	var req SignOutRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if err := h.sessions.revoke(ctx, middleware.GetJWTClaims(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	if req.RefreshToken != "" {
		// A refresh token that no longer validates cannot be used anyway
		if claims, err := h.sessions.jwt.ValidateRefreshToken(req.RefreshToken); err == nil {
			if claims.UserID != middleware.GetJWTClaims(c).UserID {
				h.Error(c, http.StatusForbidden, dto.ErrCodeForbidden, "Refresh token belongs to another user")
				return
			}
			if err := h.sessions.revoke(ctx, claims); err != nil {
				h.HandleError(c, err)
				return
			}
		}
	}
	h.Success(c, MessageResponse{Message: "Signed out"})
}

func tokenResponse(p *auth.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:           p.AccessToken,
		RefreshToken:          p.RefreshToken,
		AccessTokenExpiresAt:  p.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: p.RefreshTokenExpiresAt,
		TokenType:             p.TokenType,
	}
}
