package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/proforma-api/internal/config"
	"github.com/tendant/proforma-api/internal/http/features/articles"
	"github.com/tendant/proforma-api/internal/http/features/configurations"
	"github.com/tendant/proforma-api/internal/http/features/inventories"
	"github.com/tendant/proforma-api/internal/http/features/organizations"
	"github.com/tendant/proforma-api/internal/http/features/password"
	"github.com/tendant/proforma-api/internal/http/features/printingtemplates"
	"github.com/tendant/proforma-api/internal/http/features/proformas"
	"github.com/tendant/proforma-api/internal/http/features/session"
	"github.com/tendant/proforma-api/internal/http/features/users"
	"github.com/tendant/proforma-api/internal/http/middleware"
	"github.com/tendant/proforma-api/internal/httputil"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger *slog.Logger

	Sessions       session.Manager
	PasswordResets password.Resetter
	Users          users.Service
	Organizations  organizations.OrganizationService
	Clients        organizations.ClientService
	Configurations configurations.Service
	Articles       articles.Service
	Inventories    inventories.Service
	Proformas      proformas.Service
	Templates      printingtemplates.Service
	TokenVerifier  middleware.TokenVerifier
	// Accounts, when set, rejects access tokens of deactivated or deleted
	// users before they expire.
	Accounts middleware.AccountChecker

	// HealthCheck reports whether dependencies are reachable. Nil means
	// always healthy.
	HealthCheck func(ctx context.Context) error

	// Registerer and Gatherer back the HTTP metrics and /metrics. Nil
	// disables both.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	CookieConfig       httputil.CookieConfig
	CORSAllowedOrigins []string
	MaxRequestBodySize int64
	RateLimitConfig    config.RateLimitConfig
	SecurityHeaders    config.SecurityHeadersConfig
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	if cfg.Registerer != nil {
		r.Use(middleware.NewHTTPMetrics(cfg.Registerer).Handler)
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", httputil.FingerprintHeader, "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.MaxRequestBodySize))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.HealthCheck != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.HealthCheck(ctx); err != nil {
				cfg.Logger.Warn("health check failed", "error", err)
				httputil.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// Create rate limiters for different endpoint types
	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)
	requireAuth := middleware.Auth(cfg.TokenVerifier, cfg.Accounts)

	// Session routes
	sessionHandler := session.NewHandler(cfg.Logger, cfg.Sessions, cfg.CookieConfig)
	r.Group(func(r chi.Router) {
		r.Use(rateLimiters[middleware.LimitAuth])
		r.Post("/v1/auth/login", sessionHandler.Login)
	})
	r.Group(func(r chi.Router) {
		r.Use(rateLimiters[middleware.LimitRefresh])
		r.Post("/v1/auth/refresh", sessionHandler.Refresh)
		r.Post("/v1/auth/logout", sessionHandler.Logout)
		r.Get("/v1/auth/me", sessionHandler.Me)
	})

	// Password reset routes
	passwordHandler := password.NewHandler(cfg.Logger, cfg.PasswordResets)
	r.Group(func(r chi.Router) {
		r.Use(rateLimiters[middleware.LimitReset])
		passwordHandler.RegisterRoutes(r)
	})

	// Sign-up is public; everything else on users needs an access token.
	usersHandler := users.NewHandler(cfg.Logger, cfg.Users)
	r.With(rateLimiters[middleware.LimitAuth]).Post("/v1/users", usersHandler.Create)

	organizationsHandler := organizations.NewHandler(cfg.Logger, cfg.Organizations, cfg.Clients)
	configurationsHandler := configurations.NewHandler(cfg.Logger, cfg.Configurations)
	articlesHandler := articles.NewHandler(cfg.Logger, cfg.Articles)
	inventoriesHandler := inventories.NewHandler(cfg.Logger, cfg.Inventories)
	proformasHandler := proformas.NewHandler(cfg.Logger, cfg.Proformas)
	templatesHandler := printingtemplates.NewHandler(cfg.Logger, cfg.Templates)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(rateLimiters[middleware.LimitAPI])
		usersHandler.RegisterRoutes(r)
		organizationsHandler.RegisterRoutes(r, inventoriesHandler.RegisterRoutes, proformasHandler.RegisterRoutes)
		configurationsHandler.RegisterRoutes(r)
		articlesHandler.RegisterRoutes(r)
		templatesHandler.RegisterRoutes(r)
	})

	return r
}
