package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/application/command"
	"github.com/invoicing/backend/internal/infrastructure/auth"
	"github.com/invoicing/backend/internal/infrastructure/config"
	"github.com/invoicing/backend/internal/infrastructure/notification"
	"github.com/invoicing/backend/internal/infrastructure/persistence/memory"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
	"github.com/invoicing/backend/internal/interfaces/http/handler"
	"github.com/invoicing/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testPassword = "correct-horse-battery"

// testAPI drives the full engine over an in-memory store
type testAPI struct {
	t      *testing.T
	engine *gin.Engine
	bus    *command.Bus
	email  *notification.Recorder
	sms    *notification.Recorder
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := zaptest.NewLogger(t)
	a := &testAPI{
		t:     t,
		email: notification.NewRecorder(),
		sms:   notification.NewRecorder(),
	}
	a.bus = command.NewDefaultBus(command.Dependencies{
		UnitOfWork: memory.NewStore(),
		Email:      a.email,
		SMS:        a.sms,
	}, command.WithLogger(log))

	engine, err := New(Options{
		Bus: a.bus,
		JWT: auth.NewJWTService(config.JWTConfig{
			Secret:                 "test-secret-key-32-characters-long",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: 24 * time.Hour,
			Issuer:                 "test",
			MaxRefreshCount:        5,
		}),
		Blacklist:     auth.NewInMemoryTokenBlacklist(),
		Logger:        log,
		CORS:          middleware.DefaultCORSConfig(),
		MaxBodySize:   1 << 20,
		AuthRateLimit: 1000,
		Version:       "test",
		HealthChecks: map[string]handler.HealthCheck{
			"store": func(context.Context) error { return nil },
		},
	})
	require.NoError(t, err)
	a.engine = engine
	return a
}

type reqOption func(*http.Request)

func withToken(token string) reqOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCompany(id uuid.UUID) reqOption {
	return func(r *http.Request) { r.Header.Set(middleware.CompanyIDHeader, id.String()) }
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

type result struct {
	t    *testing.T
	code int
	body envelope
}

func (a *testAPI) do(method, path string, body any, opts ...reqOption) *result {
	a.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(a.t, err)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	// Notifications go out after commit on a background dispatcher
	a.bus.Wait()

	res := &result{t: a.t, code: w.Code}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &res.body), w.Body.String())
	return res
}

func (r *result) status(code int) *result {
	r.t.Helper()
	require.Equal(r.t, code, r.code, "body: %s %+v", r.body.Data, r.body.Error)
	return r
}

func (r *result) errorCode(status int, code string) {
	r.t.Helper()
	r.status(status)
	require.NotNil(r.t, r.body.Error)
	assert.Equal(r.t, code, r.body.Error.Code)
}

func (r *result) into(v any) {
	r.t.Helper()
	require.NoError(r.t, json.Unmarshal(r.body.Data, v))
}

// lastCode returns the code from the latest message sent to addr
func lastCode(t *testing.T, rec *notification.Recorder, addr string) string {
	t.Helper()
	msgs := rec.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].To == addr {
			_, code, ok := strings.Cut(msgs[i].Body, ": ")
			require.True(t, ok, msgs[i].Body)
			return code
		}
	}
	t.Fatalf("no message sent to %s", addr)
	return ""
}

type session struct {
	user   command.UserDTO
	access string
	fresh  string
}

func (a *testAPI) signUp(email, role string) command.UserDTO {
	a.t.Helper()
	var user command.UserDTO
	a.do(http.MethodPost, "/users/sign-up", gin.H{
		"email":      email,
		"phone":      "+15550001",
		"first_name": "Test",
		"last_name":  "User",
		"password":   testPassword,
		"role":       role,
	}).status(http.StatusCreated).into(&user)
	return user
}

func (a *testAPI) verifyEmail(email string) {
	a.t.Helper()
	a.do(http.MethodPost, "/users/send-email-code", gin.H{"email": email}).status(http.StatusOK)
	a.do(http.MethodPost, "/users/verify-email", gin.H{"code": lastCode(a.t, a.email, email)}).status(http.StatusOK)
}

func (a *testAPI) signIn(email, password string) session {
	a.t.Helper()
	var resp handler.SignInResponse
	a.do(http.MethodPost, "/auth/sign-in", gin.H{"email": email, "password": password}).
		status(http.StatusOK).into(&resp)
	return session{user: resp.User, access: resp.Token.AccessToken, fresh: resp.Token.RefreshToken}
}

func (a *testAPI) member(role string) session {
	a.t.Helper()
	email := uuid.NewString() + "@" + strings.ToLower(role) + ".test"
	a.signUp(email, role)
	a.verifyEmail(email)
	return a.signIn(email, testPassword)
}

func TestAPI_SignUpRequiresVerificationBeforeSignIn(t *testing.T) {
	a := newTestAPI(t)

	user := a.signUp("New.User@Example.com", "CONTRACTOR")
	assert.Equal(t, "new.user@example.com", user.Email)
	assert.False(t, user.IsActive)

	a.do(http.MethodPost, "/auth/sign-in", gin.H{"email": user.Email, "password": testPassword}).
		errorCode(http.StatusForbidden, dto.ErrCodeForbidden)

	a.verifyEmail(user.Email)
	s := a.signIn(user.Email, testPassword)
	assert.Equal(t, user.ID, s.user.ID)
	assert.NotEmpty(t, s.access)

	var profile command.UserDTO
	a.do(http.MethodGet, "/users/profile", nil, withToken(s.access)).status(http.StatusOK).into(&profile)
	assert.True(t, profile.IsEmailVerified)
	assert.True(t, profile.IsActive)
}

func TestAPI_PhoneVerification(t *testing.T) {
	a := newTestAPI(t)
	user := a.signUp("phone@example.com", "EMPLOYER")

	a.do(http.MethodPost, "/users/send-phone-code", gin.H{"phone": user.Phone}).status(http.StatusOK)
	a.do(http.MethodPost, "/users/verify-phone", gin.H{"phone": user.Phone, "code": "000000x"}).
		errorCode(http.StatusUnprocessableEntity, dto.ErrCodeValidation)

	var verified command.UserDTO
	a.do(http.MethodPost, "/users/verify-phone", gin.H{"phone": user.Phone, "code": lastCode(t, a.sms, user.Phone)}).
		status(http.StatusOK).into(&verified)
	assert.True(t, verified.IsPhoneVerified)
}

func TestAPI_DuplicateSignUp(t *testing.T) {
	a := newTestAPI(t)
	a.signUp("dup@example.com", "EMPLOYER")
	a.do(http.MethodPost, "/users/sign-up", gin.H{
		"email": "dup@example.com", "phone": "+1", "first_name": "A", "last_name": "B",
		"password": testPassword, "role": "EMPLOYER",
	}).errorCode(http.StatusConflict, dto.ErrCodeAlreadyExists)
}

func TestAPI_RequestValidation(t *testing.T) {
	a := newTestAPI(t)

	res := a.do(http.MethodPost, "/users/sign-up", gin.H{
		"email": "not-an-email", "phone": "+1", "first_name": "A", "last_name": "B",
		"password": "short", "role": "ADMIN",
	})
	res.errorCode(http.StatusUnprocessableEntity, dto.ErrCodeValidation)
	fields := map[string]bool{}
	for _, d := range res.body.Error.Details {
		fields[d.Field] = true
	}
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
	assert.True(t, fields["role"])

	a.do(http.MethodPost, "/users/reset-password", gin.H{
		"code": "abc", "password": testPassword, "repeat_password": "different-password",
	}).errorCode(http.StatusUnprocessableEntity, dto.ErrCodeValidation)
}

func TestAPI_ProtectedRoutesNeedToken(t *testing.T) {
	a := newTestAPI(t)
	a.do(http.MethodGet, "/employer/companies", nil).errorCode(http.StatusUnauthorized, dto.ErrCodeUnauthorized)
	a.do(http.MethodGet, "/employer/companies", nil, withToken("garbage")).errorCode(http.StatusUnauthorized, dto.ErrCodeUnauthorized)
}

func TestAPI_RoleGuard(t *testing.T) {
	a := newTestAPI(t)
	contractor := a.member("CONTRACTOR")
	employer := a.member("EMPLOYER")

	a.do(http.MethodPost, "/employer/companies", gin.H{"name": "Acme"}, withToken(contractor.access)).
		errorCode(http.StatusForbidden, dto.ErrCodeForbidden)
	a.do(http.MethodGet, "/contractor/recipient-bank-accounts", nil, withToken(employer.access)).
		errorCode(http.StatusForbidden, dto.ErrCodeForbidden)
}

func TestAPI_InvitationAndInvoiceFlow(t *testing.T) {
	a := newTestAPI(t)
	employer := a.member("EMPLOYER")
	contractor := a.member("CONTRACTOR")

	var company command.CompanyDTO
	a.do(http.MethodPost, "/employer/companies", gin.H{"name": "Acme"}, withToken(employer.access)).
		status(http.StatusCreated).into(&company)
	assert.Equal(t, employer.user.ID, company.OwnerID)

	a.do(http.MethodPost, "/employer/companies/"+company.ID.String()+"/invitations",
		gin.H{"email": contractor.user.Email}, withToken(employer.access)).status(http.StatusCreated)
	a.do(http.MethodPost, "/invitations/accept", gin.H{"code": lastCode(t, a.email, contractor.user.Email)}).
		status(http.StatusOK)

	var companies []command.CompanyDTO
	res := a.do(http.MethodGet, "/contractor/companies", nil, withToken(contractor.access)).status(http.StatusOK)
	res.into(&companies)
	require.Len(t, companies, 1)
	assert.Equal(t, company.ID, companies[0].ID)
	assert.Equal(t, int64(1), res.body.Meta.Total)

	var account command.BankAccountDTO
	a.do(http.MethodPost, "/contractor/recipient-bank-accounts", gin.H{
		"title":          "main",
		"account_number": "40817810099910004312",
		"type":           "personal",
		"currency":       "usd",
		"country":        "US",
	}, withToken(contractor.access)).status(http.StatusCreated).into(&account)
	assert.Equal(t, "PERSONAL", account.Type)
	assert.Equal(t, "USD", account.Currency)
	assert.Equal(t, "USA", account.Country)

	invoiceBody := gin.H{
		"recipient_account_id": account.ID,
		"description":          "March",
		"items": []gin.H{
			{"amount": "10.50", "quantity": 2, "description": "design"},
			{"amount": "5", "quantity": 1, "description": "review"},
		},
	}
	a.do(http.MethodPost, "/contractor/invoices", invoiceBody, withToken(contractor.access)).
		errorCode(http.StatusBadRequest, dto.ErrCodeBadRequest)

	var inv command.InvoiceDTO
	a.do(http.MethodPost, "/contractor/invoices", invoiceBody,
		withToken(contractor.access), withCompany(company.ID)).status(http.StatusCreated).into(&inv)
	require.Len(t, inv.Items, 2)
	require.NotNil(t, inv.Total)
	assert.True(t, decimal.RequireFromString("26").Equal(*inv.Total), inv.Total.String())

	var keep command.InvoiceItemDTO
	for _, item := range inv.Items {
		if item.Description == "design" {
			keep = item
		}
	}
	require.NotEqual(t, uuid.Nil, keep.ID)
	var updated command.InvoiceDTO
	a.do(http.MethodPatch, "/contractor/invoices/"+inv.ID.String(), gin.H{
		"description": "March, revised",
		"items": []gin.H{
			{"id": keep.ID, "quantity": 3},
			{"amount": "7.25", "quantity": 4, "description": "support"},
		},
	}, withToken(contractor.access), withCompany(company.ID)).status(http.StatusOK).into(&updated)
	assert.Equal(t, "March, revised", updated.Description)
	require.Len(t, updated.Items, 2)
	assert.True(t, decimal.RequireFromString("60.5").Equal(*updated.Total), updated.Total.String())

	var invoices []command.InvoiceDTO
	a.do(http.MethodGet, "/employer/invoices?company_id="+company.ID.String(), nil, withToken(employer.access)).
		status(http.StatusOK).into(&invoices)
	require.Len(t, invoices, 1)
	assert.Equal(t, inv.ID, invoices[0].ID)

	a.do(http.MethodPost, "/employer/invoices/"+inv.ID.String()+"/pay",
		gin.H{"sender_account_id": uuid.New()}, withToken(employer.access)).
		errorCode(http.StatusInternalServerError, dto.ErrCodeUnsupported)

	outsider := a.member("EMPLOYER")
	a.do(http.MethodGet, "/employer/invoices/"+inv.ID.String(), nil, withToken(outsider.access)).
		errorCode(http.StatusNotFound, dto.ErrCodeNotFound)
}

func TestAPI_InvalidPathID(t *testing.T) {
	a := newTestAPI(t)
	employer := a.member("EMPLOYER")
	a.do(http.MethodGet, "/employer/companies/not-a-uuid", nil, withToken(employer.access)).
		errorCode(http.StatusBadRequest, dto.ErrCodeBadRequest)
	a.do(http.MethodGet, "/employer/companies", nil, withToken(employer.access), func(r *http.Request) {
		r.Header.Set(middleware.CompanyIDHeader, "nope")
	}).errorCode(http.StatusBadRequest, dto.ErrCodeBadRequest)
}

func TestAPI_ChangePasswordEndsSessions(t *testing.T) {
	a := newTestAPI(t)
	s := a.member("CONTRACTOR")

	a.do(http.MethodPost, "/users/profile/password", gin.H{"old_password": "wrong-password", "password": "another-password"},
		withToken(s.access)).errorCode(http.StatusUnprocessableEntity, dto.ErrCodeValidation)

	a.do(http.MethodPost, "/users/profile/password", gin.H{"old_password": testPassword, "password": "another-password"},
		withToken(s.access)).status(http.StatusOK)

	a.do(http.MethodGet, "/users/profile", nil, withToken(s.access)).
		errorCode(http.StatusUnauthorized, dto.ErrCodeTokenRevoked)
	a.do(http.MethodPost, "/auth/refresh", gin.H{"refresh_token": s.fresh}).
		errorCode(http.StatusUnauthorized, dto.ErrCodeTokenRevoked)
}

func TestAPI_RefreshRotatesTokens(t *testing.T) {
	a := newTestAPI(t)
	s := a.member("EMPLOYER")

	var resp handler.RefreshTokenResponse
	a.do(http.MethodPost, "/auth/refresh", gin.H{"refresh_token": s.fresh}).status(http.StatusOK).into(&resp)
	assert.NotEmpty(t, resp.Token.AccessToken)

	a.do(http.MethodPost, "/auth/refresh", gin.H{"refresh_token": s.fresh}).
		errorCode(http.StatusUnauthorized, dto.ErrCodeTokenRevoked)
}

func TestAPI_SignOut(t *testing.T) {
	a := newTestAPI(t)
	s := a.member("EMPLOYER")

	a.do(http.MethodPost, "/auth/sign-out", gin.H{"refresh_token": s.fresh}, withToken(s.access)).status(http.StatusOK)

	a.do(http.MethodGet, "/users/profile", nil, withToken(s.access)).
		errorCode(http.StatusUnauthorized, dto.ErrCodeTokenRevoked)
	a.do(http.MethodPost, "/auth/refresh", gin.H{"refresh_token": s.fresh}).
		errorCode(http.StatusUnauthorized, dto.ErrCodeTokenRevoked)
}

func TestAPI_PasswordReset(t *testing.T) {
	a := newTestAPI(t)
	s := a.member("CONTRACTOR")
	email := s.user.Email

	a.do(http.MethodPost, "/users/send-password-code", gin.H{"email": email}).status(http.StatusOK)
	code := lastCode(t, a.email, email)
	a.do(http.MethodPost, "/users/reset-password", gin.H{
		"code": code, "password": "brand-new-password", "repeat_password": "brand-new-password",
	}).status(http.StatusOK)

	a.do(http.MethodGet, "/users/profile", nil, withToken(s.access)).
		errorCode(http.StatusUnauthorized, dto.ErrCodeTokenRevoked)
	a.do(http.MethodPost, "/auth/sign-in", gin.H{"email": email, "password": testPassword}).
		errorCode(http.StatusForbidden, dto.ErrCodeForbidden)
}

func TestAPI_DeleteProfile(t *testing.T) {
	a := newTestAPI(t)
	s := a.member("CONTRACTOR")

	var deleted command.Deleted
	a.do(http.MethodDelete, "/users/profile", nil, withToken(s.access)).status(http.StatusOK).into(&deleted)
	assert.Equal(t, s.user.ID, deleted.ID)

	a.do(http.MethodGet, "/users/profile", nil, withToken(s.access)).
		errorCode(http.StatusUnauthorized, dto.ErrCodeTokenRevoked)
}

func TestAPI_SystemRoutes(t *testing.T) {
	a := newTestAPI(t)

	for _, path := range []string{"/health", "/ready"} {
		w := httptest.NewRecorder()
		a.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	}

	a.do(http.MethodGet, "/no/such/route", nil).errorCode(http.StatusNotFound, dto.ErrCodeNotFound)

	var info handler.SystemInfoResponse
	a.do(http.MethodGet, "/system/info", nil).status(http.StatusOK).into(&info)
	assert.Equal(t, "test", info.Version)
}
