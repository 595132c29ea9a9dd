package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/employee-management/internal"
	"github.com/frahmantamala/employee-management/internal/auth"
	"github.com/frahmantamala/employee-management/internal/notification"
	"github.com/frahmantamala/employee-management/internal/transport"
	"github.com/frahmantamala/employee-management/internal/transport/middleware"
	"github.com/frahmantamala/employee-management/internal/transport/rest"
	"github.com/frahmantamala/employee-management/internal/transport/swagger"
	"github.com/frahmantamala/employee-management/internal/user"
	userPostgres "github.com/frahmantamala/employee-management/internal/user/postgres"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config        *internal.Config
	DB            *sqlx.DB
	Redis         *redis.Client
	Router        *chi.Mux
	Logger        *slog.Logger
	Notifications *notificationPipeline
	Tracer        *sdktrace.TracerProvider
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	log := deps.Logger

	if err := setupRoutes(deps); err != nil {
		log.Error("failed to set up routes", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	log.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := internal.WithTimeout(context.Background(), deps.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			closeDependencies(deps)
			os.Exit(1)
		}
	}

	closeDependencies(deps)
	log.Info("Server stopped")
}

// closeDependencies drains queued notifications before closing the stores
// they might still need.
func closeDependencies(deps *Dependencies) {
	log := deps.Logger

	drainCtx, cancel := internal.WithTimeout(context.Background(), deps.Config.Notification.ShutdownTimeout)
	defer cancel()
	if err := deps.Notifications.shutdown(drainCtx); err != nil {
		log.Warn("notification queue not fully drained", "error", err)
	}

	if deps.Redis != nil {
		if err := deps.Redis.Close(); err != nil {
			log.Error("Redis close error", "error", err)
		}
	}
	if err := deps.DB.Close(); err != nil {
		log.Error("Database close error", "error", err)
	}
	if deps.Tracer != nil {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := deps.Tracer.Shutdown(flushCtx); err != nil {
			log.Error("Tracer shutdown error", "error", err)
		}
	}
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	log := deps.Logger

	if _, err := swagger.Load(context.Background()); err != nil {
		return err
	}

	gdb, err := initGorm(deps.DB, cfg.Env)
	if err != nil {
		return err
	}

	base := transport.NewBaseHandler(log)

	dispatcher := notification.NewDispatcher(deps.Notifications.sender, notificationSettings(cfg.Notification), log)
	userService := user.NewService(userPostgres.NewUserRepository(gdb), dispatcher, log)

	routeDeps := rest.Dependencies{
		Logger:         log,
		UserHandler:    user.NewHandler(base, userService),
		AllowedOrigins: cfg.Server.Origins(),
		HealthChecks: map[string]rest.Check{
			"postgres": deps.DB.PingContext,
		},
		TracingEnabled: deps.Tracer != nil,
		TracerName:     cfg.Observability.Tracing.ServiceName,
	}

	if cfg.Security.Enabled {
		routeDeps.AuthHandler = auth.NewHandler(base, auth.NewServiceFromConfig(cfg.Security, log))
	} else {
		log.Warn("security disabled, user writes are not authenticated")
	}

	if deps.Redis != nil {
		rdb := deps.Redis
		routeDeps.HealthChecks["redis"] = func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}
		if cfg.Idempotency.Enabled {
			routeDeps.Idempotency = middleware.NewRedisIdempotencyStore(rdb)
			routeDeps.IdempotencyTTL = cfg.Idempotency.TTL
		}
	}

	rest.RegisterAllRoutes(deps.Router, routeDeps)
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(config)
	ctx := context.Background()

	var tracer *sdktrace.TracerProvider
	if config.Observability.Tracing.Enabled {
		tracer, err = middleware.InitTracer(ctx, config.Observability.Tracing, config.Env)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := initRedis(ctx, config.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	pipeline, err := newNotificationPipeline(config, rdb, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize notifications: %w", err)
	}

	return &Dependencies{
		Config:        config,
		Logger:        log,
		DB:            db,
		Redis:         rdb,
		Router:        chi.NewRouter(),
		Notifications: pipeline,
		Tracer:        tracer,
	}, nil
}
