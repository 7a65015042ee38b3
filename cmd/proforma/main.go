package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tendant/proforma-api/internal/config"
	"github.com/tendant/proforma-api/internal/db/migrate"
	httpserver "github.com/tendant/proforma-api/internal/http"
	"github.com/tendant/proforma-api/internal/httputil"
	"github.com/tendant/proforma-api/internal/notification"
	"github.com/tendant/proforma-api/pkg/auth"
	"github.com/tendant/proforma-api/pkg/directory"
	"github.com/tendant/proforma-api/pkg/repository"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Connect to database
	dbConfig := repository.Config{
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		User:            cfg.DBUser,
		Password:        cfg.DBPassword,
		DBName:          cfg.DBName,
		SSLMode:         cfg.DBSSLMode,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}
	if cfg.DBAutoMigrate {
		if err := migrate.Run(dbConfig.DSN(), migrate.Up); err != nil {
			logger.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}
	db, err := repository.NewDB(dbConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database")

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, cfg.DBName),
	)
	authMetrics := auth.NewMetrics(registry)

	// Initialize repositories
	usersRepo := repository.NewUsersRepository(db)
	credsRepo := repository.NewCredentialsRepository(db)
	sessionsRepo := repository.NewSessionsRepository(db)
	resetsRepo := repository.NewPasswordResetsRepository(db, credsRepo)
	orgsRepo := repository.NewOrganizationsRepository(db)
	clientsRepo := repository.NewClientsRepository(db)
	configsRepo := repository.NewConfigurationsRepository(db)
	articlesRepo := repository.NewArticlesRepository(db)
	inventoriesRepo := repository.NewInventoriesRepository(db)
	proformasRepo := repository.NewProformasRepository(db)
	templatesRepo := repository.NewPrintingTemplatesRepository(db)

	// Initialize services
	hasher := auth.NewArgon2Hasher()
	passwordPolicy := auth.NewPasswordPolicy(cfg.PasswordPolicy)
	signer := auth.NewJWTSigner([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.AccessTokenTTL)

	sessionService := auth.NewSessionService(auth.SessionConfig{
		RefreshTokenExpiryDays: cfg.RefreshTokenExpiryDays,
	}, sessionsRepo, usersRepo, credsRepo, hasher, signer, logger, authMetrics)

	var mailer auth.Mailer = notification.DisabledMailer{Logger: logger}
	if cfg.HasSMTP() {
		mailer = notification.NewEmailService(notification.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			ResetTTL: cfg.PasswordResetTTL,
		}, logger)
		logger.Info("email service enabled")
	} else {
		logger.Warn("SMTP is not configured; password reset emails are disabled")
	}

	resetService := auth.NewPasswordResetService(auth.PasswordResetConfig{
		TTL:      cfg.PasswordResetTTL,
		ResetURL: cfg.PasswordResetURL(),
	}, resetsRepo, usersRepo, sessionService, hasher, passwordPolicy, mailer, logger, authMetrics)

	userService := directory.NewUserService(usersRepo, sessionService, hasher, passwordPolicy, logger)
	orgService := directory.NewOrganizationService(orgsRepo)
	clientService := directory.NewClientService(clientsRepo, orgsRepo)
	configService := directory.NewConfigurationService(configsRepo)
	articleService := directory.NewArticleService(articlesRepo)
	inventoryService := directory.NewInventoryService(inventoriesRepo, orgsRepo, articlesRepo)
	proformaService := directory.NewProformaService(proformasRepo, orgsRepo, clientsRepo)
	templateService := directory.NewPrintingTemplateService(templatesRepo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SessionCleanupInterval > 0 {
		cleaner := auth.NewCleaner(sessionService, resetService, cfg.SessionCleanupInterval, cfg.SessionCleanupRetention, logger)
		go cleaner.Run(ctx)
		logger.Info("cleanup job enabled", "interval", cfg.SessionCleanupInterval)
	}

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:             logger,
		Sessions:           sessionService,
		PasswordResets:     resetService,
		Users:              userService,
		Organizations:      orgService,
		Clients:            clientService,
		Configurations:     configService,
		Articles:           articleService,
		Inventories:        inventoryService,
		Proformas:          proformaService,
		Templates:          templateService,
		TokenVerifier:      signer,
		Accounts:           sessionService,
		HealthCheck:        db.PingContext,
		Registerer:         registry,
		Gatherer:           registry,
		CookieConfig:       httputil.NewCookieConfig(cfg.CookieDomain, cfg.CookieSecure, cfg.RefreshCookieTTL),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		RateLimitConfig:    cfg.RateLimit,
		SecurityHeaders:    cfg.SecurityHeaders,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
