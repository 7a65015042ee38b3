package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/tendant/proforma-api/internal/config"
	"github.com/tendant/proforma-api/internal/httputil"
)

// Rate limiter groups.
const (
	LimitAuth    = "auth"
	LimitReset   = "reset"
	LimitRefresh = "refresh"
	LimitAPI     = "api"
)

// RateLimitConfig holds rate limiting configuration for a specific endpoint type.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Logger   *slog.Logger
}

// RateLimit creates an IP-based rate limiter middleware with logging.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rate limit exceeded",
					"ip", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
				)
			}
			httputil.Error(w, http.StatusTooManyRequests, "rate limit exceeded. please try again later")
		}),
	)
}

// NoRateLimit returns a no-op middleware when rate limiting is disabled.
func NoRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// CreateRateLimiters creates one limiter per route group.
func CreateRateLimiters(cfg config.RateLimitConfig, logger *slog.Logger) map[string]func(http.Handler) http.Handler {
	if !cfg.Enabled {
		noOp := NoRateLimit()
		return map[string]func(http.Handler) http.Handler{
			LimitAuth:    noOp,
			LimitReset:   noOp,
			LimitRefresh: noOp,
			LimitAPI:     noOp,
		}
	}

	limit := func(requests, windowMinutes int) func(http.Handler) http.Handler {
		return RateLimit(RateLimitConfig{
			Requests: requests,
			Window:   time.Duration(windowMinutes) * time.Minute,
			Logger:   logger,
		})
	}
	return map[string]func(http.Handler) http.Handler{
		LimitAuth:    limit(cfg.AuthRequestsPerMinute, cfg.AuthWindowMinutes),
		LimitReset:   limit(cfg.ResetRequestsPerWindow, cfg.ResetWindowMinutes),
		LimitRefresh: limit(cfg.RefreshRequestsPerMinute, cfg.RefreshWindowMinutes),
		LimitAPI:     limit(cfg.APIRequestsPerMinute, cfg.APIWindowMinutes),
	}
}
