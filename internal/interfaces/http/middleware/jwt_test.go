package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/infrastructure/auth"
	"github.com/invoicing/backend/internal/infrastructure/config"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWT(accessTTL time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-32-characters-long",
		AccessTokenExpiration:  accessTTL,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "test",
		MaxRefreshCount:        5,
	})
}

// brokenBlacklist fails every lookup
type brokenBlacklist struct{}

var errRedisDown = errors.New("redis down")

func (brokenBlacklist) Revoke(context.Context, string, time.Duration) error { return errRedisDown }
func (brokenBlacklist) IsRevoked(context.Context, string) (bool, error)     { return false, errRedisDown }
func (brokenBlacklist) RevokeUser(context.Context, string, time.Duration) error {
	return errRedisDown
}
func (brokenBlacklist) IsUserRevoked(context.Context, string, time.Time) (bool, error) {
	return false, errRedisDown
}

func jwtRouter(cfg JWTMiddlewareConfig, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), JWTAuth(cfg))
	r.Use(extra...)
	r.GET("/me", func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		company := ""
		if actor.CompanyID != nil {
			company = actor.CompanyID.String()
		}
		c.JSON(http.StatusOK, gin.H{
			"user":    actor.UserID.String(),
			"company": company,
			"claims":  GetJWTClaims(c) != nil,
		})
	})
	r.GET("/public", ok)
	return r
}

func bearer(path, token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	}
	return req
}

func TestJWTAuth(t *testing.T) {
	jwt := newJWT(15 * time.Minute)
	userID := uuid.New()
	pair, err := jwt.GenerateTokenPair(userID, "EMPLOYER")
	require.NoError(t, err)

	r := jwtRouter(JWTMiddlewareConfig{JWTService: jwt, SkipPaths: []string{"/public"}})

	t.Run("valid token sets the actor", func(t *testing.T) {
		w := serve(r, bearer("/me", pair.AccessToken))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
		assert.Contains(t, w.Body.String(), `"claims":true`)
	})

	t.Run("company header", func(t *testing.T) {
		companyID := uuid.New()
		req := bearer("/me", pair.AccessToken)
		req.Header.Set(CompanyIDHeader, companyID.String())
		w := serve(r, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), companyID.String())
	})

	t.Run("malformed company header", func(t *testing.T) {
		req := bearer("/me", pair.AccessToken)
		req.Header.Set(CompanyIDHeader, "acme")
		w := serve(r, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, errorCode(t, w))
	})

	t.Run("missing token", func(t *testing.T) {
		w := serve(r, bearer("/me", ""))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, errorCode(t, w))
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		w := serve(r, bearer("/me", pair.RefreshToken))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, errorCode(t, w))
	})

	t.Run("skip paths", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(r, bearer("/public", "")).Code)
	})
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	jwt := newJWT(-time.Minute)
	pair, err := jwt.GenerateTokenPair(uuid.New(), "EMPLOYER")
	require.NoError(t, err)

	w := serve(jwtRouter(JWTMiddlewareConfig{JWTService: jwt}), bearer("/me", pair.AccessToken))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenExpired, errorCode(t, w))
}

func TestJWTAuth_Revocation(t *testing.T) {
	jwt := newJWT(15 * time.Minute)
	blacklist := auth.NewInMemoryTokenBlacklist()
	r := jwtRouter(JWTMiddlewareConfig{JWTService: jwt, TokenBlacklist: blacklist})

	t.Run("revoked token", func(t *testing.T) {
		pair, err := jwt.GenerateTokenPair(uuid.New(), "EMPLOYER")
		require.NoError(t, err)
		claims, err := jwt.ValidateAccessToken(pair.AccessToken)
		require.NoError(t, err)
		require.NoError(t, blacklist.Revoke(t.Context(), claims.ID, time.Minute))

		w := serve(r, bearer("/me", pair.AccessToken))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenRevoked, errorCode(t, w))
	})

	t.Run("revoked user", func(t *testing.T) {
		userID := uuid.New()
		pair, err := jwt.GenerateTokenPair(userID, "CONTRACTOR")
		require.NoError(t, err)
		require.NoError(t, blacklist.RevokeUser(t.Context(), userID.String(), time.Hour))

		w := serve(r, bearer("/me", pair.AccessToken))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenRevoked, errorCode(t, w))
	})

	t.Run("lookup failures fail open", func(t *testing.T) {
		pair, err := jwt.GenerateTokenPair(uuid.New(), "EMPLOYER")
		require.NoError(t, err)
		r := jwtRouter(JWTMiddlewareConfig{JWTService: jwt, TokenBlacklist: brokenBlacklist{}})

		assert.Equal(t, http.StatusOK, serve(r, bearer("/me", pair.AccessToken)).Code)
	})
}

func TestRequireCompany(t *testing.T) {
	jwt := newJWT(15 * time.Minute)
	pair, err := jwt.GenerateTokenPair(uuid.New(), "CONTRACTOR")
	require.NoError(t, err)
	r := jwtRouter(JWTMiddlewareConfig{JWTService: jwt}, RequireCompany())

	w := serve(r, bearer("/me", pair.AccessToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, errorCode(t, w))

	req := bearer("/me", pair.AccessToken)
	req.Header.Set(CompanyIDHeader, uuid.NewString())
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestGetActor_PublicRoute(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	actor, ok := GetActor(c)
	assert.False(t, ok)
	assert.Nil(t, actor.UserID)
	assert.Nil(t, GetJWTClaims(c))
}
