// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/folio-go/internal/ai"
	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/backend"
	"github.com/olegiv/folio-go/internal/cache"
	"github.com/olegiv/folio-go/internal/captcha"
	"github.com/olegiv/folio-go/internal/cloudinary"
	"github.com/olegiv/folio-go/internal/config"
	"github.com/olegiv/folio-go/internal/contact"
	"github.com/olegiv/folio-go/internal/content"
	"github.com/olegiv/folio-go/internal/geoip"
	"github.com/olegiv/folio-go/internal/handler"
	"github.com/olegiv/folio-go/internal/handler/api"
	"github.com/olegiv/folio-go/internal/i18n"
	"github.com/olegiv/folio-go/internal/imaging"
	"github.com/olegiv/folio-go/internal/logging"
	"github.com/olegiv/folio-go/internal/markup"
	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/prefs"
	"github.com/olegiv/folio-go/internal/scheduler"
	"github.com/olegiv/folio-go/internal/service"
	"github.com/olegiv/folio-go/internal/session"
	"github.com/olegiv/folio-go/internal/store"
	"github.com/olegiv/folio-go/internal/version"
	"github.com/olegiv/folio-go/web"
)

// Timeouts for outbound integrations.
const (
	uploadTimeout  = 60 * time.Second
	contactTimeout = 10 * time.Second
)

// JPEG quality for re-encoded uploads.
const imageQuality = 85

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "folio - portfolio and blog front end\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_BACKEND_URL       REST backend base URL (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_DB_PATH           SQLite database path (default: ./data/folio.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_LANGUAGES         Comma-separated languages, first is default (default: en,ru)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_REDIS_URL         Redis URL for the content cache (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		v := version.Get()
		_, _ = fmt.Printf("folio %s (commit: %s, built: %s)\n", v.Version, v.GitCommit, v.BuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	matcher, err := i18n.New(cfg.Languages)
	if err != nil {
		return fmt.Errorf("initializing languages: %w", err)
	}

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// WARN and ERROR records also go to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	sessionManager := session.NewWithLifetime(db, cfg.IsDevelopment(), cfg.SessionLifetime, session.DefaultIdleTimeout)

	geo := geoip.NewLookup()
	if err := geo.Init(cfg.GeoIPDBPath); err != nil {
		slog.Warn("GeoIP database unavailable", "path", cfg.GeoIPDBPath, "error", err)
	}
	defer func() { _ = geo.Close() }()
	events := service.NewEventService(db, geo)

	cacher := cache.NewCache(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:    cfg.CacheMaxSize,
	}, logger)
	defer func() { _ = cacher.Close() }()
	contentCache := cache.NewContentCache(cacher, time.Duration(cfg.CacheTTL)*time.Second, logger)

	client := backend.New(cfg.BackendURL, cfg.BackendTimeout, logger)
	provider := auth.NewProvider(client, auth.Gate{LegacyAdminUsername: cfg.LegacyAdminUsername}, logger)
	contentService := service.NewContentService(client, contentCache, markup.New(), logger)

	// A nil interface keeps uploads disabled.
	var images service.ImageStore
	if cfg.CloudinaryEnabled() {
		cl, err := cloudinary.New(cloudinary.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryFolder,
		}, uploadTimeout)
		if err != nil {
			return fmt.Errorf("initializing cloudinary: %w", err)
		}
		images = cl
	} else {
		slog.Info("cloudinary not configured, image uploads disabled")
	}
	mediaService := service.NewMediaService(images, imaging.NewProcessor(cfg.ImageMaxWidth, imageQuality), logger)

	var generator api.Generator
	if cfg.GeminiEnabled() {
		g, err := ai.New(ai.Config{
			APIKey:     cfg.GeminiAPIKey,
			Model:      cfg.GeminiModel,
			BaseURL:    cfg.GeminiBaseURL,
			MaxRetries: 2,
		})
		if err != nil {
			return fmt.Errorf("initializing content generator: %w", err)
		}
		generator = g
	}

	relay, err := contact.NewRelay(cfg.FormspreeFormID, contactTimeout)
	if errors.Is(err, contact.ErrNotConfigured) {
		slog.Info("contact form not configured")
	} else if err != nil {
		return fmt.Errorf("initializing contact relay: %w", err)
	}

	var verifier *captcha.Verifier
	if cfg.HCaptchaEnabled() {
		verifier = captcha.New(cfg.HCaptchaSiteKey, cfg.HCaptchaSecretKey, logger)
	}

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	sched := scheduler.New(logger)
	jobs := []scheduler.Job{
		scheduler.CacheWarmJob(contentService, cfg.Languages),
		scheduler.LoginCleanupJob(loginProtection),
	}
	if cfg.GeoIPEnabled() {
		jobs = append(jobs, scheduler.GeoIPReloadJob(geo, logger))
	}
	if cfg.EventRetentionDays > 0 {
		jobs = append(jobs, scheduler.EventPruneJob(events, cfg.EventRetentionDays, logger))
	}
	for _, job := range jobs {
		if err := sched.Add(job); err != nil {
			return fmt.Errorf("scheduling %s: %w", job.Name, err)
		}
	}
	sched.Start()

	apiHandler := api.NewHandler(api.Deps{
		Provider:        provider,
		Content:         contentService,
		Media:           mediaService,
		Events:          events,
		Generator:       generator,
		Contact:         relay,
		Captcha:         verifier,
		Jobs:            sched.Registry(),
		Broker:          prefs.NewBroker(),
		Languages:       matcher,
		LoginProtection: loginProtection,
		ContactLimiter:  middleware.NewIPRateLimiter(0.05, 3),
		PageSize:        cfg.PageSize,
		Window:          content.WindowSizes{FirstPage: cfg.PortfolioFirstPage, Batch: cfg.PortfolioBatch},
		PublicURL:       cfg.PublicURL,
		Logger:          logger,
	})

	shell, err := handler.NewShell(web.Dist(), events)
	if err != nil {
		return fmt.Errorf("loading application shell: %w", err)
	}
	healthHandler := handler.NewHealthHandler(db, client, dataDir)
	seoHandler := handler.NewSEOHandler(contentService, cfg.PublicURL, matcher.Default(), cfg.IsDevelopment())

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.SecurityHeaders(middleware.SiteHeaderPolicy(cfg.IsDevelopment())))
	r.Use(middleware.RequestPath)
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.Language(matcher))
	r.Use(middleware.Session(sessionManager, provider))

	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)
	r.Get("/robots.txt", seoHandler.Robots)
	r.Get("/sitemap.xml", seoHandler.Sitemap)

	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.PublicURL))
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Mount("/api", apiHandler.Routes())
		r.Mount("/", shell.Routes())
	})

	// Request contexts derive from streams so open event streams end on shutdown.
	streams, stopStreams := context.WithCancel(context.Background())
	defer stopStreams()

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
		BaseContext:       func(net.Listener) context.Context { return streams },
	}
	srv.RegisterOnShutdown(stopStreams)

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "backend", client.BaseURL(), "version", version.Get().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("server shutdown", "error", err)
	}
	sched.Stop(ctx)

	slog.Info("server stopped")
	return nil
}
