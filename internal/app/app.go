package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/vadim/planer/internal/auth"
	"github.com/vadim/planer/internal/config"
	httpcontroller "github.com/vadim/planer/internal/controller/http"
	"github.com/vadim/planer/internal/database"
	accountdao "github.com/vadim/planer/internal/domain/account/dao"
	calendardao "github.com/vadim/planer/internal/domain/calendar/dao"
	calendarsvc "github.com/vadim/planer/internal/domain/calendar/service"
	contentdao "github.com/vadim/planer/internal/domain/content/dao"
	contentsvc "github.com/vadim/planer/internal/domain/content/service"
	publicationdao "github.com/vadim/planer/internal/domain/publication/dao"
	"github.com/vadim/planer/internal/domain/publication/dispatcher"
	publicationsvc "github.com/vadim/planer/internal/domain/publication/service"
	sharelinkdao "github.com/vadim/planer/internal/domain/sharelink/dao"
	sharelinksvc "github.com/vadim/planer/internal/domain/sharelink/service"
	"github.com/vadim/planer/internal/domain/sharelink/sweeper"
	userdao "github.com/vadim/planer/internal/domain/user/dao"
	usersvc "github.com/vadim/planer/internal/domain/user/service"
	"github.com/vadim/planer/internal/httpx/upstream/facebook"
	"github.com/vadim/planer/internal/httpx/upstream/instagram"
	"github.com/vadim/planer/internal/httpx/upstream/tiktok"
	"github.com/vadim/planer/internal/httpx/upstream/x"
	"github.com/vadim/planer/internal/publisher"
	"github.com/vadim/planer/internal/storage"
	"github.com/vadim/planer/internal/tenancy"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	pool       *pgxpool.Pool
	dispatcher *dispatcher.Dispatcher
	sweeper    *sweeper.Sweeper
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	warnings, err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	for _, warning := range warnings {
		logger.Warn(warning)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MinConns)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	app := &App{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
	}

	// Repositories
	users := userdao.NewUserPostgres(pool)
	accounts := accountdao.NewAccountPostgres(pool)
	calendars := calendardao.NewCalendarPostgres(pool)
	kanban := calendardao.NewKanbanPostgres(pool)
	contents := contentdao.NewContentPostgres(pool)
	media := contentdao.NewMediaPostgres(pool)
	publications := publicationdao.NewPublicationPostgres(pool)
	links := sharelinkdao.NewShareLinkPostgres(pool)
	comments := sharelinkdao.NewCommentPostgres(pool)

	// Object storage
	r2 := storage.NewR2Storage(storage.R2Config{
		Endpoint:        cfg.R2.Endpoint(),
		AccessKeyID:     cfg.R2.AccessKeyID,
		SecretAccessKey: cfg.R2.SecretAccessKey,
		Bucket:          cfg.R2.Bucket,
		PublicDomain:    cfg.R2.PublicDomain,
	})

	// Platform drivers
	igClient := instagram.New(instagram.WithBaseURL(cfg.Instagram.APIURL))
	ttClient := tiktok.New(cfg.TikTok.ClientKey, cfg.TikTok.ClientSecret,
		tiktok.WithBaseURL(cfg.TikTok.APIURL),
		tiktok.WithTimeout(cfg.TikTok.CallTimeout),
		tiktok.WithUploadTimeout(cfg.TikTok.UploadTimeout))
	registry := publisher.NewRegistry(
		instagram.NewDriver(igClient, cfg.Instagram.MediaWaitTime, cfg.Instagram.VideoWaitTime, logger),
		tiktok.NewDriver(ttClient, accounts, r2, logger),
		facebook.NewDriver(),
		x.NewDriver(),
	)

	// Services
	userService := usersvc.New(users)
	calendarService := calendarsvc.New(calendars, kanban)
	contentService := contentsvc.New(contents, media, calendars, r2, cfg.Media.MaxPerContent)
	publicationService := publicationsvc.New(publications, accounts, contents, media)
	linkService := sharelinksvc.New(links, calendars)
	publicService := sharelinksvc.NewPublic(links, calendars, contents, media, publications, comments)

	// Background loops
	app.dispatcher = dispatcher.New(publications, registry,
		cfg.Publisher.Schedule, cfg.Publisher.BatchSize, cfg.Publisher.Workers,
		cfg.Publisher.ItemTimeout, logger)
	app.sweeper = sweeper.New(links, time.Minute, logger)

	// Auth and tenancy
	verifier := auth.NewVerifier(cfg.Auth.JWKSURL(), cfg.Auth.Issuer, cfg.Auth.Audience)
	tenant := tenancy.NewMiddleware(verifier, userService, logger)

	// Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", tenancy.ClientIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", app.healthHandler)
	r.Get("/readyz", app.readyHandler)

	// Public share surface: resolve limited to 60/min per IP,
	// creation-side endpoints to 20/h.
	resolveLimit := httpcontroller.NewIPRateLimiter(rate.Every(time.Minute/60), 10)
	createLimit := httpcontroller.NewIPRateLimiter(rate.Every(time.Hour/20), 5)

	r.Route("/api/v1", func(r chi.Router) {
		sharedHandler := httpcontroller.NewSharedHandler(publicService, cfg.IsProduction())
		sharedHandler.RegisterRoutes(r, resolveLimit.Middleware)

		// Authenticated surface
		r.Group(func(r chi.Router) {
			r.Use(tenant.Authenticate)

			userHandler := httpcontroller.NewUserHandler(userService)
			userHandler.RegisterRoutes(r)

			// Client-scoped surface
			r.Group(func(r chi.Router) {
				r.Use(tenant.ResolveClient)

				httpcontroller.NewAccountHandler(accounts).RegisterRoutes(r)
				httpcontroller.NewCalendarHandler(calendarService, linkService).RegisterRoutes(r, createLimit.Middleware)
				httpcontroller.NewContentHandler(contentService).RegisterRoutes(r)
				httpcontroller.NewPublicationHandler(publicationService).RegisterRoutes(r)
			})
		})
	})

	app.router = r
	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler reports readiness, checking database connectivity
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := a.pool.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// Run starts the application and blocks until a shutdown signal
func (a *App) Run(ctx context.Context) error {
	a.dispatcher.Start(ctx)
	a.sweeper.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	return a.Shutdown(context.Background())
}

// Shutdown gracefully stops the server, background loops and the pool
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	a.dispatcher.Stop()
	a.sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	a.pool.Close()

	a.logger.Info("shutdown complete")
	return nil
}
