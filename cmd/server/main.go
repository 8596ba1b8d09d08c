package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/invoicing/backend/internal/application/command"
	"github.com/invoicing/backend/internal/infrastructure/auth"
	"github.com/invoicing/backend/internal/infrastructure/config"
	"github.com/invoicing/backend/internal/infrastructure/logger"
	"github.com/invoicing/backend/internal/infrastructure/notification"
	"github.com/invoicing/backend/internal/infrastructure/persistence"
	"github.com/invoicing/backend/internal/infrastructure/telemetry"
	"github.com/invoicing/backend/internal/interfaces/http/handler"
	"github.com/invoicing/backend/internal/interfaces/http/middleware"
	"github.com/invoicing/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

//	@title			Invoicing API
//	@version		1.0
//	@description	Multi-tenant invoicing between employer companies and contractors

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("Server failed", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting invoicing backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	serviceName := cfg.Telemetry.ServiceName
	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	meters, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	logs, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	log = logs.Bridge(log, serviceName, logger.ParseLevel(cfg.Telemetry.LogsLevel))

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Profiling.Enabled,
		ServerAddress:   cfg.Profiling.ServerAddress,
		ApplicationName: cfg.Profiling.ApplicationName,
		Extended:        cfg.Profiling.Extended,
	}, log)
	if err != nil {
		return err
	}
	if profiler.IsEnabled() {
		tracer.EnableSpanProfiles()
	}

	db, err := persistence.NewDatabase(ctx, &cfg.Database, persistence.Options{
		Logger: log,
		Tracing: telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        "postgresql",
		},
	})
	if err != nil {
		return err
	}
	log.Info("Database connected")

	checks := map[string]handler.HealthCheck{"database": db.Ping}
	var blacklist auth.TokenBlacklist
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		blacklist = auth.NewRedisTokenBlacklist(rdb)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
		log.Warn("Redis disabled, token revocation is local to this process")
	}

	commandMetrics, err := telemetry.NewCommandMetrics(meters.Meter("invoicing/command"))
	if err != nil {
		return err
	}
	dispatcher := notification.NewDispatcher(log, cfg.Notification.Timeout)
	bus := command.NewDefaultBus(command.Dependencies{
		UnitOfWork: db.UnitOfWork(),
		Email:      notification.NewLogSender(notification.ChannelEmail, cfg.Notification.EmailFrom, log),
		SMS:        notification.NewLogSender(notification.ChannelSMS, cfg.Notification.SMSFrom, log),
	},
		command.WithLogger(log),
		command.WithMetrics(commandMetrics),
		command.WithDispatcher(dispatcher),
	)

	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	engine, err := router.New(router.Options{
		Bus:       bus,
		JWT:       auth.NewJWTService(cfg.JWT),
		Blacklist: blacklist,
		Logger:    log,
		Meter:     meters.Meter("invoicing/http"),
		Tracing: middleware.TracingConfig{
			ServiceName: serviceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Profiling:      cfg.Profiling.Enabled,
		CORS:           cors,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Version:        version,
		HealthChecks:   checks,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// Deliver notifications queued by requests that already committed
		dispatcher.Wait()
		return errors.Join(err, closeAll(shutdownCtx, log, db, rdb, profiler, tracer, meters, logs))
	})
	return g.Wait()
}

// closeAll releases every resource. Failures are logged and joined.
func closeAll(ctx context.Context, log *zap.Logger, db *persistence.Database, rdb *redis.Client,
	profiler *telemetry.Profiler, tracer *telemetry.TracerProvider, meters *telemetry.MeterProvider, logs *telemetry.LoggerProvider,
) error {
	var errs []error
	add := func(name string, err error) {
		if err != nil {
			log.Error("Shutdown step failed", zap.String("step", name), zap.Error(err))
			errs = append(errs, err)
		}
	}
	add("database", db.Close())
	if rdb != nil {
		add("redis", rdb.Close())
	}
	add("profiler", profiler.Stop())
	add("tracer", tracer.Shutdown(ctx))
	add("meter", meters.Shutdown(ctx))
	add("logs", logs.Shutdown(ctx))
	return errors.Join(errs...)
}
