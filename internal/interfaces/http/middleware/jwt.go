package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/application/command"
	"github.com/invoicing/backend/internal/infrastructure/auth"
	"github.com/invoicing/backend/internal/infrastructure/logger"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Context keys and headers used by authentication
const (
	JWTClaimsKey    = "jwt_claims"
	ActorKey        = "actor"
	AuthHeaderKey   = "Authorization"
	BearerPrefix    = "Bearer "
	CompanyIDHeader = "X-Company-ID"
)

// JWTMiddlewareConfig holds configuration for the JWT middleware
type JWTMiddlewareConfig struct {
	// JWTService validates access tokens. Required.
	JWTService *auth.JWTService
	// TokenBlacklist is checked for revoked tokens when set
	TokenBlacklist auth.TokenBlacklist
	// SkipPaths are exact paths that don't require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// JWTAuth authenticates every request with a bearer access token and
// stores the resulting command.Actor in the context. The optional
// X-Company-ID header selects the company the actor is acting for.
func JWTAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		header := c.GetHeader(AuthHeaderKey)
		if !strings.HasPrefix(header, BearerPrefix) || strings.TrimPrefix(header, BearerPrefix) == "" {
			abortAuth(c, log, auth.ErrInvalidToken, "missing bearer token")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(strings.TrimPrefix(header, BearerPrefix))
		if err != nil {
			abortAuth(c, log, err, "token validation failed")
			return
		}
		userID, err := claims.UserUUID()
		if err != nil {
			abortAuth(c, log, auth.ErrInvalidToken, "malformed user id claim")
			return
		}

		if cfg.TokenBlacklist != nil {
			ctx := c.Request.Context()
			// Revocation checks fail open so a Redis outage does not lock everyone out
			if claims.ID != "" {
				revoked, err := cfg.TokenBlacklist.IsRevoked(ctx, claims.ID)
				if err != nil {
					log.Error("Failed to check token revocation", zap.String("jti", claims.ID), zap.Error(err))
				} else if revoked {
					abortAuth(c, log, auth.ErrTokenRevoked, "token revoked")
					return
				}
			}
			revoked, err := cfg.TokenBlacklist.IsUserRevoked(ctx, claims.UserID, claims.IssuedAtTime())
			if err != nil {
				log.Error("Failed to check user revocation", zap.String("user_id", claims.UserID), zap.Error(err))
			} else if revoked {
				abortAuth(c, log, auth.ErrTokenRevoked, "user sessions revoked")
				return
			}
		}

		actor := command.UserActor(userID)
		if raw := c.GetHeader(CompanyIDHeader); raw != "" {
			companyID, err := uuid.Parse(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest,
					dto.NewErrorResponse(dto.ErrCodeBadRequest, "Invalid "+CompanyIDHeader+" header", c.GetString(RequestIDKey)))
				return
			}
			actor = actor.WithCompany(companyID)
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(ActorKey, actor)

		ctx := c.Request.Context()
		reqLogger := logger.FromContext(ctx).With(zap.String("user_id", claims.UserID))
		c.Request = c.Request.WithContext(logger.WithContext(ctx, reqLogger))

		c.Next()
	}
}

// RequireCompany rejects requests that did not select a company with the
// X-Company-ID header. It runs after JWTAuth.
func RequireCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor, ok := GetActor(c); !ok || actor.CompanyID == nil {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.NewErrorResponse(dto.ErrCodeBadRequest, CompanyIDHeader+" header is required", c.GetString(RequestIDKey)))
			return
		}
		c.Next()
	}
}

func abortAuth(c *gin.Context, log *zap.Logger, err error, reason string) {
	log.Debug("JWT authentication failed",
		zap.String("reason", reason),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)

	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		code, message = dto.ErrCodeTokenRevoked, "Token has been revoked"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, message, c.GetString(RequestIDKey)))
}

// GetJWTClaims returns the validated claims, or nil on public routes
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetActor returns the authenticated actor. Public routes get the zero
// actor and false.
func GetActor(c *gin.Context) (command.Actor, bool) {
	if v, ok := c.Get(ActorKey); ok {
		if actor, ok := v.(command.Actor); ok {
			return actor, true
		}
	}
	return command.Actor{}, false
}
