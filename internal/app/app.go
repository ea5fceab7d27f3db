package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	structValidator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/haguru/notedly/config"
	"github.com/haguru/notedly/internal/auth"
	"github.com/haguru/notedly/internal/graph"
	"github.com/haguru/notedly/internal/interfaces"
	"github.com/haguru/notedly/internal/metrics"
	"github.com/haguru/notedly/internal/middleware"
	"github.com/haguru/notedly/internal/noteservice"
	"github.com/haguru/notedly/internal/repository/memory"
	mongoRepo "github.com/haguru/notedly/internal/repository/mongo"
	postgresRepo "github.com/haguru/notedly/internal/repository/postgres"
	"github.com/haguru/notedly/internal/routes"
	"github.com/haguru/notedly/internal/server"
	"github.com/haguru/notedly/internal/userservice"
	"github.com/haguru/notedly/pkg/databases/mongo"
	"github.com/haguru/notedly/pkg/databases/postgres"
	pkgmetrics "github.com/haguru/notedly/pkg/metrics"
	"github.com/haguru/notedly/pkg/zerolog"
)

var (
	ConnectTimeout  = 15 * time.Second
	ShutdownTimeout = 10 * time.Second
)

// App owns the configured server and everything that has to be released when it stops.
type App struct {
	Server  interfaces.Server
	Config  *config.ServiceConfig
	Logger  interfaces.Logger
	Metrics interfaces.Metrics

	userRepo interfaces.UserRepository
	noteRepo interfaces.NoteRepository
	limiter  middleware.RateLimiter
}

// NewApp loads .env and the YAML file at configPath, applies environment
// overrides and builds the application.
func NewApp(configPath string) (*App, error) {
	if err := config.LoadDotEnv(config.ENV_PATH); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", config.ENV_PATH, err)
	}

	cfg, err := config.ReadLocalConfig(configPath)
	if err != nil {
		return nil, err
	}
	config.ApplyEnvOverrides(cfg)

	return New(cfg)
}

// New validates cfg and wires storage, services, middleware and routes.
func New(cfg *config.ServiceConfig) (*App, error) {
	validator := structValidator.New()
	if err := validator.Struct(cfg); err != nil {
		var validationErrors structValidator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return nil, fmt.Errorf("validation error: %s", validationErrors)
		}
		return nil, fmt.Errorf("validation error: %w", err)
	}

	logger := zerolog.NewZerologLogger(cfg.ServiceName)
	logger.SetLevel(cfg.LogLevel)

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: newMetrics(cfg.ServiceName),
	}

	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token manager: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ConnectTimeout)
	defer cancel()

	pinger, err := app.initializeRepositories(ctx)
	if err != nil {
		return nil, err
	}

	userService := userservice.NewUserService(app.userRepo, tokens, logger, app.Metrics)
	noteService := noteservice.NewNoteService(app.noteRepo, logger, app.Metrics, cfg.GraphQL.NotesLimit, cfg.GraphQL.FeedPageSize)
	executor := graph.NewExecutor(graph.NewResolver(userService, noteService), cfg.GraphQL.MaxDepth, cfg.GraphQL.MaxComplexity, logger)
	route := routes.NewRoute(app.Metrics, executor, pinger, logger)

	srv := server.NewServer(cfg.Host, cfg.Port, logger)
	app.Server = srv

	srv.Use(middleware.SecurityHeaders, middleware.CORS(cfg.CORS.AllowedOrigins))
	limiter, err := app.initializeRateLimiter()
	if err != nil {
		app.closeRepositories(context.Background())
		return nil, err
	}
	if limiter != nil {
		app.limiter = limiter
		srv.Use(middleware.RateLimitMiddleware(limiter, logger, app.Metrics))
	}
	srv.Use(middleware.IdentityMiddleware(tokens, logger))

	if err := app.addRoutes(route); err != nil {
		app.release(context.Background())
		return nil, err
	}

	return app, nil
}

// Run serves until ctx is cancelled or the listener fails, then shuts the
// server down and releases storage and the rate limiter.
func (app *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Server.ListenAndServe()
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
		app.Logger.Info("Shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := app.Server.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("Graceful shutdown failed", "error", err)
			runErr = err
		}
		if err := <-errCh; err != nil && runErr == nil {
			runErr = err
		}
	}

	app.release(context.Background())
	return runErr
}

func newMetrics(serviceName string) interfaces.Metrics {
	m := pkgmetrics.NewMetrics(serviceName)
	metrics.Register(m)
	return m
}

// initializeRepositories connects the configured store and returns what
// the health route should ping. The memory store has nothing to ping.
func (app *App) initializeRepositories(ctx context.Context) (routes.Pinger, error) {
	dbConfig := app.Config.Database

	switch dbConfig.Type {
	case config.DatabaseTypeMongo:
		client, err := mongo.NewMongoDB(&dbConfig.MongoDB, app.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
		}
		if err := client.Connect(ctx, dbConfig.MongoDB.DSN); err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		if app.userRepo, err = mongoRepo.NewMongoUserRepository(client); err != nil {
			return nil, err
		}
		if app.noteRepo, err = mongoRepo.NewMongoNoteRepository(client); err != nil {
			return nil, err
		}
		return client, app.ensureIndices(ctx)

	case config.DatabaseTypePostgres:
		client := postgres.NewPostgresDatabaseClient(dbConfig.Postgres.Options, app.Logger)
		if err := client.Connect(ctx, dbConfig.Postgres.DSN); err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		var err error
		if app.userRepo, err = postgresRepo.NewPostgresUserRepository(client); err != nil {
			return nil, err
		}
		if app.noteRepo, err = postgresRepo.NewPostgresNoteRepository(client); err != nil {
			return nil, err
		}
		return client, app.ensureIndices(ctx)

	case config.DatabaseTypeMemory:
		store := memory.NewStore()
		app.userRepo = memory.NewUserRepository(store)
		app.noteRepo = memory.NewNoteRepository(store)
		app.Logger.Warn("Using in-memory storage, data is lost on restart")
		return nil, nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbConfig.Type)
	}
}

func (app *App) ensureIndices(ctx context.Context) error {
	if err := app.userRepo.EnsureIndices(ctx); err != nil {
		app.closeRepositories(ctx)
		return fmt.Errorf("failed to ensure user indices: %w", err)
	}
	if err := app.noteRepo.EnsureIndices(ctx); err != nil {
		app.closeRepositories(ctx)
		return fmt.Errorf("failed to ensure note indices: %w", err)
	}
	return nil
}

// initializeRateLimiter prefers the shared Redis window when an address is
// configured. A zero rate disables per-process limiting.
func (app *App) initializeRateLimiter() (middleware.RateLimiter, error) {
	rl := app.Config.RateLimit
	if rl.RedisAddr != "" {
		limiter, err := middleware.NewRedisRateLimiter(rl.RedisAddr, rl.RedisPassword, rl.RedisDB, rl.Limit, rl.Window, app.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis rate limiter: %w", err)
		}
		return limiter, nil
	}
	if rl.RequestsPerSecond <= 0 {
		app.Logger.Warn("Rate limiting disabled")
		return nil, nil
	}
	return middleware.NewIPRateLimiter(rl.RequestsPerSecond, rl.Burst, app.Metrics), nil
}

type routeEntry struct {
	path    string
	handler http.Handler
}

func (app *App) addRoutes(route *routes.Route) error {
	gqlPath := app.Config.GraphQL.Path

	handlers := []routeEntry{
		{gqlPath, otelhttp.NewHandler(http.HandlerFunc(route.GraphQL), gqlPath)},
		{routes.HealthRouteAPI, otelhttp.NewHandler(http.HandlerFunc(route.Health), routes.HealthRouteAPI)},
		{routes.MetricsRouteAPI, otelhttp.NewHandler(
			promhttp.HandlerFor(app.Metrics.GetRegistry(), promhttp.HandlerOpts{}),
			routes.MetricsRouteAPI)},
	}
	if app.Config.GraphQL.EnablePlayground {
		handlers = append(handlers, routeEntry{routes.PlaygroundRouteAPI, routes.Playground(gqlPath)})
	}

	for _, h := range handlers {
		if err := app.Server.AddRoute(h.path, h.handler); err != nil {
			return fmt.Errorf("failed to add route %s: %w", h.path, err)
		}
	}
	return nil
}

func (app *App) closeRepositories(ctx context.Context) {
	if app.userRepo != nil {
		if err := app.userRepo.Close(ctx); err != nil {
			app.Logger.Error("Failed to close user repository", "error", err)
		}
	}
	if app.noteRepo != nil {
		if err := app.noteRepo.Close(ctx); err != nil {
			app.Logger.Error("Failed to close note repository", "error", err)
		}
	}
}

func (app *App) release(ctx context.Context) {
	app.closeRepositories(ctx)
	if app.limiter != nil {
		if err := app.limiter.Close(); err != nil {
			app.Logger.Error("Failed to close rate limiter", "error", err)
		}
	}
}
