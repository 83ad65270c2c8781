package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/converter"
	httpapi "github.com/aussiebroadwan/filekeep/internal/filekeep/http"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/objstore"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/service"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/store/drivers/sqlstore"
	"github.com/aussiebroadwan/filekeep/pkg/cryptox"
	"github.com/aussiebroadwan/filekeep/pkg/httpx"
	"github.com/aussiebroadwan/filekeep/pkg/jwtx"
	"github.com/aussiebroadwan/filekeep/pkg/kvx"
	"github.com/aussiebroadwan/filekeep/pkg/slogx"
	"github.com/aussiebroadwan/filekeep/pkg/throttle"
)

// BuildVersion is overridden at build time with
// -ldflags "-X github.com/aussiebroadwan/filekeep/internal/filekeep/app.BuildVersion=...".
var BuildVersion = "v0.1.0"

const sessionIssuer = "filekeep"

// Application owns every long-lived dependency of the server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      *sqlstore.Store
	objects objstore.Store
	kv      kvx.Store
	redis   *kvx.Redis // nil with the memory cache driver

	authService         *service.AuthService
	identities          *service.IdentityCache
	storageService      *service.StorageService
	conversionService   *service.ConversionService // nil without CONVERTER_BIN
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New builds the application. Failures leave nothing open.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "filekeep",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initBackends(ctx); err != nil {
		app.closeBackends()
		return nil, err
	}
	if err := app.initServices(); err != nil {
		app.closeBackends()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the routed HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Start launches the background workers without serving HTTP.
func (app *Application) Start() {
	app.housekeepingService.Start()
	if app.conversionService != nil {
		app.conversionService.Start()
	}
}

// Run serves HTTP and blocks until a signal arrives or the server fails.
func (app *Application) Run() error {
	app.Start()

	app.logger.Info("filekeep starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains HTTP, then the workers, then closes the backends.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down filekeep...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()
	if app.conversionService != nil {
		app.conversionService.Stop(ctx)
	}

	err := app.closeBackends()
	app.logger.Info("filekeep stopped")
	return err
}

func (app *Application) closeBackends() error {
	var errs []error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
			errs = append(errs, err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// initDatabase opens the catalog and applies migrations.
func (app *Application) initDatabase() error {
	dialect, err := sqlstore.ParseDialect(app.cfg.DatabaseDriver)
	if err != nil {
		return err
	}

	db, err := sqlstore.Open(dialect, app.cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		app.db = nil
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "dialect", dialect)
	return nil
}

// initBackends connects the object store and the shared cache.
func (app *Application) initBackends(ctx context.Context) error {
	objects, err := objstore.Open(ctx, app.cfg.ObjectStore)
	if err != nil {
		return fmt.Errorf("failed to initialize object store: %w", err)
	}
	app.objects = objects
	app.logger.Info("object store ready", "driver", app.cfg.ObjectStore.Driver, "bucket", app.cfg.ObjectStore.Bucket)

	if strings.EqualFold(app.cfg.CacheDriver, "redis") {
		app.redis = kvx.NewRedis(kvx.RedisConfig{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
		})
		app.kv = app.redis

		// An unreachable Redis is not fatal: callers fall back per request.
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := app.redis.Ping(pingCtx); err != nil {
			app.logger.Warn("redis unreachable at startup", "addr", app.cfg.RedisAddr, "error", err)
		}
		return nil
	}

	app.kv = kvx.NewMemory(app.cfg.CacheSize, max(app.cfg.IdentityTTL, time.Hour))
	return nil
}

// initServices wires the business services.
func (app *Application) initServices() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	secret := app.cfg.SessionSecret
	if secret == "" {
		secret, err = cryptox.GenerateToken(jwtx.MinSecretLength)
		if err != nil {
			return fmt.Errorf("failed to generate session secret: %w", err)
		}
		app.logger.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}
	codec, err := jwtx.NewCodec([]byte(secret), sessionIssuer)
	if err != nil {
		return fmt.Errorf("failed to initialize session codec: %w", err)
	}

	app.identities = service.NewIdentityCache(app.kv, app.db, app.cfg.IdentityTTL, app.logger)

	// Only Redis is shared across replicas; with the memory driver the
	// limiter's own local window is enough.
	var shared kvx.WindowCounter
	if app.redis != nil {
		shared = app.redis
	}

	app.authService = &service.AuthService{
		Store:      app.db,
		Vault:      cryptox.NewVault(pepper),
		Codec:      codec,
		Identities: app.identities,
		Limiter:    throttle.NewLoginLimiter(shared, app.cfg.LoginLimit, app.cfg.LoginWindow, app.logger),
		SessionTTL: app.cfg.SessionTTL,
	}

	app.storageService = service.NewStorageService(app.db, app.objects, app.kv, app.identities, service.StorageConfig{
		MaxUploadBytes:    app.cfg.MaxUploadBytes,
		DefaultQuotaBytes: app.cfg.DefaultQuotaBytes,
		AllowedExtensions: app.cfg.AllowedExtensions,
		StrictQuota:       app.cfg.StrictQuota,
	}, app.logger)

	if app.cfg.ConverterBin != "" {
		app.conversionService = service.NewConversionService(app.storageService, &converter.Process{
			Bin:     app.cfg.ConverterBin,
			Args:    app.cfg.ConverterArgs,
			Timeout: app.cfg.ConverterTimeout,
		}, service.ConversionConfig{
			Workers:    app.cfg.ConversionWorkers,
			QueueSize:  app.cfg.ConversionQueue,
			ScratchDir: app.cfg.ScratchDir,
		}, app.logger)
		app.logger.Info("conversion enabled", "bin", app.cfg.ConverterBin, "workers", app.cfg.ConversionWorkers)
	} else {
		app.logger.Info("conversion disabled, CONVERTER_BIN not set")
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.objects,
		app.identities,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// initHTTP builds the router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(httpapi.Config{
		Version:        BuildVersion,
		TrustProxy:     app.cfg.TrustProxy,
		SecureCookies:  app.cfg.SecureCookies,
		CSRF:           &httpx.CSRFGuard{Enabled: app.cfg.CSRFEnabled, Secure: app.cfg.SecureCookies},
		RateLimits:     app.cfg.RateLimits,
		MaxUploadBytes: app.cfg.MaxUploadBytes,
	}, app.logger)

	router.AuthService = app.authService
	router.Identities = app.identities
	router.StorageService = app.storageService
	router.ConversionService = app.conversionService

	router.AddReadinessCheck("database", httpapi.PingFunc(app.db.Ping), true)
	router.AddReadinessCheck("object_store", app.objects, true)
	router.AddReadinessCheck("cache", app.kv, false)
	if app.conversionService != nil {
		router.AddReadinessCheck("converter", httpapi.PingFunc(app.conversionService.SelfTest), false)
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
