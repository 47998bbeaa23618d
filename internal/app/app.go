package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"teahouse/internal/config"
	"teahouse/internal/database"
	"teahouse/internal/event"
	"teahouse/internal/handler"
	"teahouse/internal/middleware"
	"teahouse/internal/repository"
	"teahouse/internal/router"
	"teahouse/internal/service"
	"teahouse/internal/storage"
	"teahouse/internal/web"
)

// App owns one HTTP server plus whatever the server depends on.
type App struct {
	name            string
	server          *http.Server
	shutdownTimeout time.Duration
	workers         []func(ctx context.Context)
	cleanupFuncs    []func()
}

func newApp(name string, cfg *config.Config, addr string, h http.Handler) *App {
	return &App{
		name: name,
		server: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
			WriteTimeout:      cfg.ServerWriteTimeout,
			IdleTimeout:       cfg.ServerIdleTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

func NewHello(cfg *config.Config) *App {
	return newApp("hello", cfg, net.JoinHostPort(cfg.HelloHost, cfg.HelloPort), router.NewHello())
}

func NewTeas(ctx context.Context, cfg *config.Config) (*App, error) {
	var (
		store   service.TeaStore
		cleanup []func()
	)

	switch cfg.TeaStore {
	case "postgres":
		db, err := database.NewPostgres(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}
		store = repository.NewPostgresTeaRepository(db.Pool)
		cleanup = append(cleanup, db.Close)
	default:
		store = repository.NewMemoryTeaRepository()
	}
	slog.Info("tea store ready", "store", cfg.TeaStore)

	teas := handler.NewTeaHandler(service.NewTeaService(store))
	a := newApp("teas", cfg, ":"+cfg.TeaPort, router.NewTeas(cfg, teas))
	a.cleanupFuncs = cleanup
	return a, nil
}

func NewUsersAPI(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.ValidateUsersAPI(); err != nil {
		return nil, fmt.Errorf("invalid users API config: %w", err)
	}

	mongo, err := database.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to document store: %w", err)
	}
	closeMongo := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongo.Close(closeCtx)
	}

	if err := mongo.EnsureIndexes(ctx); err != nil {
		closeMongo()
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	host, mediaRoot, err := newMediaHost(ctx, cfg)
	if err != nil {
		closeMongo()
		return nil, err
	}

	logger := slog.Default()
	bus := event.NewBus(logger)
	media := service.NewMediaService(host, bus, cfg.ImageMaxDimension, logger)
	janitor := service.NewMediaJanitor(bus, media, logger.With("component", "media_janitor"))

	users := repository.NewMongoUserRepository(mongo.DB)
	tokens := service.NewTokenIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	authService := service.NewAuthService(users, media, tokens, bus, cfg.BcryptCost, logger)
	userService := service.NewUserService(users, media, logger)

	uploads := handler.UploadConfig{TempDir: cfg.UploadTempDir, MaxSize: cfg.MaxUploadSize}
	h := router.UsersHandlers{
		Auth:   handler.NewAuthHandler(authService, uploads, cfg.IsProduction()),
		User:   handler.NewUserHandler(userService, uploads),
		Health: handler.NewHealthHandler(mongo),
	}

	a := newApp("users", cfg, ":"+cfg.ServerPort, router.NewUsersAPI(cfg, middleware.NewAuthMiddleware(authService), h, mediaRoot))
	a.workers = append(a.workers, janitor.Run)
	a.cleanupFuncs = append(a.cleanupFuncs, closeMongo)
	return a, nil
}

// newMediaHost returns the configured host and, for the local host, the
// directory to serve under /static.
func newMediaHost(ctx context.Context, cfg *config.Config) (storage.MediaHost, string, error) {
	if cfg.MediaHost == "s3" {
		host, err := storage.NewS3Host(ctx, storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize s3 media host: %w", err)
		}
		slog.Info("media host ready", "host", "s3", "bucket", cfg.S3Bucket)
		return host, "", nil
	}

	host, err := storage.NewLocalHost(cfg.MediaRoot, cfg.MediaPublicURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to initialize local media host: %w", err)
	}
	slog.Info("media host ready", "host", "local", "root", host.RootAbs())
	return host, host.RootAbs(), nil
}

func NewWeb(cfg *config.Config) (*App, error) {
	pages, err := web.New(cfg.IsProduction())
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return newApp("web", cfg, ":"+cfg.WebPort, router.NewWeb(pages.Routes())), nil
}

// Run serves until SIGINT/SIGTERM or a listener failure, then drains the
// server, stops workers and releases resources.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	done := make(chan struct{}, len(a.workers))
	for _, work := range a.workers {
		work := work
		go func() {
			defer func() { done <- struct{}{} }()
			work(workerCtx)
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "app", a.name, "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("server failed: %w", err)
		}
	}

	timeout := a.shutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("graceful shutdown failed: %w", err)
	}

	cancelWorkers()
	for range a.workers {
		<-done
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if runErr == nil {
		slog.Info("server stopped", "app", a.name)
	}
	return runErr
}
