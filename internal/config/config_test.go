package config

import (
	"log/slog"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	for _, v := range []string{
		"SERVER_ADDR", "SERVER_PORT", "DB_HOST", "DB_PORT", "DB_NAME", "DB_SSLMODE",
		"ACCESS_TOKEN_TTL", "REFRESH_TOKEN_EXPIRY_DAYS", "REFRESH_COOKIE_TTL",
		"COOKIE_SECURE", "PASSWORD_RESET_TTL", "CORS_ALLOWED_ORIGINS", "APP_BASE_URL",
	} {
		t.Setenv(v, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr() != "0.0.0.0:8080" {
		t.Errorf("ListenAddr() = %q", cfg.ListenAddr())
	}
	if cfg.DBHost != "localhost" || cfg.DBPort != 5432 || cfg.DBName != "proforma" {
		t.Errorf("database defaults = %s:%d/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Errorf("AccessTokenTTL = %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenExpiryDays != 7 {
		t.Errorf("RefreshTokenExpiryDays = %d, want 7", cfg.RefreshTokenExpiryDays)
	}
	if cfg.RefreshCookieTTL != 7*24*time.Hour {
		t.Errorf("RefreshCookieTTL = %v", cfg.RefreshCookieTTL)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should default to true")
	}
	if cfg.PasswordResetTTL != time.Hour {
		t.Errorf("PasswordResetTTL = %v", cfg.PasswordResetTTL)
	}
	if cfg.SessionCleanupInterval != 0 {
		t.Errorf("SessionCleanupInterval = %v, want disabled", cfg.SessionCleanupInterval)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "https://localhost:5173" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.PasswordResetURL() != "http://localhost:5173/reset-password" {
		t.Errorf("PasswordResetURL() = %q", cfg.PasswordResetURL())
	}
	if !cfg.RateLimit.Enabled || cfg.PasswordPolicy.MinLength != 8 {
		t.Errorf("RateLimit = %+v, PasswordPolicy = %+v", cfg.RateLimit, cfg.PasswordPolicy)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"short secret", map[string]string{"JWT_SECRET": "too-short"}},
		{"zero expiry days", map[string]string{"JWT_SECRET": testSecret, "REFRESH_TOKEN_EXPIRY_DAYS": "0"}},
		{"negative reset ttl", map[string]string{"JWT_SECRET": testSecret, "PASSWORD_RESET_TTL": "-1h"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Load should fail")
			}
		})
	}
}

func TestLoadDatabase_SkipsServerChecks(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_HOST", "db.internal")

	cfg := LoadDatabase()
	if cfg.DBHost != "db.internal" {
		t.Errorf("DBHost = %q, want db.internal", cfg.DBHost)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "db.example.com")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	t.Setenv("REFRESH_TOKEN_EXPIRY_DAYS", "30")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")
	t.Setenv("APP_BASE_URL", "https://app.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerPort != 9090 || cfg.DBHost != "db.example.com" {
		t.Errorf("ServerPort = %d, DBHost = %q", cfg.ServerPort, cfg.DBHost)
	}
	if cfg.AccessTokenTTL != 30*time.Minute || cfg.RefreshTokenExpiryDays != 30 {
		t.Errorf("AccessTokenTTL = %v, RefreshTokenExpiryDays = %d", cfg.AccessTokenTTL, cfg.RefreshTokenExpiryDays)
	}
	if cfg.CookieSecure {
		t.Error("CookieSecure should be false")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("CORSAllowedOrigins = %q", cfg.CORSAllowedOrigins)
	}
	if cfg.PasswordResetURL() != "https://app.example.com/reset-password" {
		t.Errorf("PasswordResetURL() = %q", cfg.PasswordResetURL())
	}
}

func TestHasSMTP(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		from     string
		expected bool
	}{
		{"both set", "smtp.example.com", "noreply@example.com", true},
		{"only host", "smtp.example.com", "", false},
		{"only from", "", "noreply@example.com", false},
		{"neither set", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{SMTPHost: tt.host, SMTPFrom: tt.from}
			if cfg.HasSMTP() != tt.expected {
				t.Errorf("HasSMTP() = %v, want %v", cfg.HasSMTP(), tt.expected)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (&Config{LogLevel: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGetEnvInt_InvalidValue(t *testing.T) {
	t.Setenv("TEST_INT", "not-a-number")

	if result := getEnvInt("TEST_INT", 42); result != 42 {
		t.Errorf("getEnvInt should return default for invalid value, got %d", result)
	}
}

func TestGetEnvDuration_InvalidValue(t *testing.T) {
	t.Setenv("TEST_DURATION", "invalid")

	if result := getEnvDuration("TEST_DURATION", 5*time.Minute); result != 5*time.Minute {
		t.Errorf("getEnvDuration should return default for invalid value, got %v", result)
	}
}

func TestGetEnvBool_InvalidValue(t *testing.T) {
	t.Setenv("TEST_BOOL", "sometimes")

	if result := getEnvBool("TEST_BOOL", true); !result {
		t.Error("getEnvBool should return default for invalid value")
	}
}
