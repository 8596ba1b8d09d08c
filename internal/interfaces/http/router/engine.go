package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invoicing/backend/internal/application/command"
	"github.com/invoicing/backend/internal/infrastructure/auth"
	"github.com/invoicing/backend/internal/infrastructure/logger"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
	"github.com/invoicing/backend/internal/interfaces/http/handler"
	"github.com/invoicing/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Options configures the HTTP engine
type Options struct {
	Bus       *command.Bus
	JWT       *auth.JWTService
	Blacklist auth.TokenBlacklist
	Logger    *zap.Logger

	// Meter enables request metrics when set
	Meter     metric.Meter
	Tracing   middleware.TracingConfig
	Profiling bool

	CORS           middleware.CORSConfig
	MaxBodySize    int64
	TrustedProxies []string

	// AuthRateLimit caps requests per client per minute on each public
	// auth and code route. Zero uses the default of 20.
	AuthRateLimit int

	Version      string
	HealthChecks map[string]handler.HealthCheck
}

// New builds the gin engine with the middleware chain and every route
func New(opts Options) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(opts.Tracing)...)
	engine.Use(logger.GinMiddleware(log), logger.Recovery(log))
	if opts.Meter != nil {
		metrics, err := middleware.HTTPMetrics(opts.Meter)
		if err != nil {
			return nil, err
		}
		engine.Use(metrics)
	}
	engine.Use(
		middleware.Profiling(opts.Profiling),
		middleware.CORS(opts.CORS),
		middleware.Secure(),
	)
	if opts.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.MaxBodySize))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, "Route not found", c.GetString(middleware.RequestIDKey)))
	})

	system := handler.NewSystemHandler(opts.Version, opts.HealthChecks)
	engine.GET("/health", system.Health)
	engine.GET("/ready", system.Ready)

	rate := opts.AuthRateLimit
	if rate <= 0 {
		rate = 20
	}
	limited := middleware.RateLimit(middleware.NewRateLimiter(rate, time.Minute), log)
	authenticated := middleware.JWTAuth(middleware.JWTMiddlewareConfig{
		JWTService:     opts.JWT,
		TokenBlacklist: opts.Blacklist,
		Logger:         log,
	})

	sessions := handler.NewSessions(opts.JWT, opts.Blacklist)
	h := handlers{
		system:    system,
		auth:      handler.NewAuthHandler(opts.Bus, sessions),
		user:      handler.NewUserHandler(opts.Bus, sessions),
		company:   handler.NewCompanyHandler(opts.Bus),
		account:   handler.NewBankAccountHandler(opts.Bus),
		invoice:   handler.NewInvoiceHandler(opts.Bus),
		operation: handler.NewOperationHandler(opts.Bus),
	}

	r := NewRouter(engine)
	r.Register(h.public(limited))
	r.Register(h.protected(authenticated))
	r.Setup()
	return engine, nil
}

type handlers struct {
	system    *handler.SystemHandler
	auth      *handler.AuthHandler
	user      *handler.UserHandler
	company   *handler.CompanyHandler
	account   *handler.BankAccountHandler
	invoice   *handler.InvoiceHandler
	operation *handler.OperationHandler
}

// public holds the routes reachable without a token. Everything that
// checks a secret sent by the client is rate limited.
func (h handlers) public(limited gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("public", "")
	g.GET("/system/info", h.system.Info)

	g.Group("auth", "/auth").Use(limited).
		POST("/sign-in", h.auth.SignIn).
		POST("/refresh", h.auth.Refresh)

	g.Group("users", "/users").Use(limited).
		POST("/sign-up", h.user.SignUp).
		POST("/send-email-code", h.user.SendEmailCode).
		POST("/verify-email", h.user.VerifyEmail).
		POST("/send-phone-code", h.user.SendPhoneCode).
		POST("/verify-phone", h.user.VerifyPhone).
		POST("/send-password-code", h.user.SendPasswordCode).
		POST("/reset-password", h.user.ResetPassword)

	g.Group("invitations", "/invitations").Use(limited).
		POST("/accept", h.company.AcceptInvitation)
	return g
}

// protected holds the routes that need a valid access token
func (h handlers) protected(authenticated gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("protected", "").Use(authenticated)

	g.Group("auth", "/auth").
		POST("/sign-out", h.auth.SignOut)

	g.Group("profile", "/users/profile").
		GET("", h.user.GetProfile).
		PATCH("", h.user.UpdateProfile).
		DELETE("", h.user.DeleteProfile).
		POST("/password", h.user.ChangePassword)

	employer := g.Group("employer", "/employer")
	employer.Group("companies", "/companies").
		GET("", h.company.EmployerList).
		POST("", h.company.EmployerCreate).
		GET("/:id", h.company.EmployerRetrieve).
		PATCH("/:id", h.company.EmployerUpdate).
		DELETE("/:id", h.company.EmployerDelete).
		POST("/:id/leave", h.company.EmployerLeave).
		POST("/:id/invitations", h.company.Invite)
	employer.Group("sender-bank-accounts", "/sender-bank-accounts").
		GET("", h.account.SenderList).
		POST("", h.account.SenderCreate).
		GET("/:id", h.account.SenderRetrieve).
		PATCH("/:id", h.account.SenderUpdate).
		DELETE("/:id", h.account.SenderDelete)
	employer.Group("invoices", "/invoices").
		GET("", h.invoice.EmployerList).
		POST("/bulk-pay", h.invoice.EmployerBulkPay).
		GET("/:id", h.invoice.EmployerRetrieve).
		POST("/:id/pay", h.invoice.EmployerPay)
	employer.Group("operations", "/operations").
		GET("", h.operation.EmployerList).
		GET("/:id", h.operation.EmployerRetrieve)

	contractor := g.Group("contractor", "/contractor")
	contractor.Group("companies", "/companies").
		GET("", h.company.ContractorList).
		GET("/:id", h.company.ContractorRetrieve).
		POST("/:id/leave", h.company.ContractorLeave)
	contractor.Group("recipient-bank-accounts", "/recipient-bank-accounts").
		GET("", h.account.RecipientList).
		POST("", h.account.RecipientCreate).
		GET("/:id", h.account.RecipientRetrieve).
		PATCH("/:id", h.account.RecipientUpdate).
		DELETE("/:id", h.account.RecipientDelete)
	contractor.Group("invoices", "/invoices").Use(middleware.RequireCompany()).
		GET("", h.invoice.ContractorList).
		POST("", h.invoice.ContractorCreate).
		GET("/:id", h.invoice.ContractorRetrieve).
		PATCH("/:id", h.invoice.ContractorUpdate).
		DELETE("/:id", h.invoice.ContractorDelete)
	contractor.Group("operations", "/operations").
		GET("", h.operation.ContractorList).
		GET("/:id", h.operation.ContractorRetrieve)
	return g
}
