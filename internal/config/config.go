// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, contact throttling, SMTP and Telegram
// credentials, chat-state storage, and observability.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Chat-state storage backends.
const (
	ChatStateSQLite = "sqlite"
	ChatStateRedis  = "redis"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-notify-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// ContactConfig defines the contact submission guards.
type ContactConfig struct {
	HoneypotField   string        // attribution key that must stay blank
	RateLimitWindow time.Duration // fixed window per client and endpoint
	RateLimitMax    int           // accepted submissions per window
}

// SMTPConfig defines outgoing mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	From     string
	To       string // CONTACT_EMAIL_TO
	Timeout  time.Duration
}

// TelegramConfig defines bot credentials and webhook settings.
type TelegramConfig struct {
	Token              string
	WebhookSecret      string
	APIBaseURL         string
	WebhookPath        string
	FallbackChatID     *int64 // TELEGRAM_CHAT_ID, nil when unset
	PublicBaseURL      string
	AutoSetWebhook     bool
	DropPendingUpdates bool
	RepositoryName     string
	HTTPTimeout        time.Duration
}

// RedisConfig defines the Redis chat-state backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port                   string        // just the number
	ReadTimeout            time.Duration // e.g. 15s
	ReadHeaderTimeout      time.Duration // e.g. 10s
	WriteTimeout           time.Duration // e.g. 20s
	IdleTimeout            time.Duration // e.g. 60s
	MaxHeaderBytes         int           // bytes
	GinMode                string        // debug|release|test
	ShutdownTimeout        time.Duration // HTTP graceful shutdown
	BackgroundDrainTimeout time.Duration // wait for background jobs on exit

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Contact
	Contact ContactConfig

	// Edge rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Delivery
	SMTP     SMTPConfig
	Telegram TelegramConfig

	// Tasks
	TasksAPIKey string // optional X-API-Key for /tasks/start

	// Chat state
	ChatStateBackend string // sqlite|redis
	DBPath           string // SQLite path
	Redis            RedisConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:                   getenv("PORT", "8000"),
		ReadTimeout:            getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout:      getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:           getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:            getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:         getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:                strings.ToLower(getenv("GIN_MODE", "release")),
		ShutdownTimeout:        getdur("SHUTDOWN_TIMEOUT", 15*time.Second),
		BackgroundDrainTimeout: getdur("BACKGROUND_DRAIN_TIMEOUT", 11*time.Minute),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/")),

		// Contact
		Contact: ContactConfig{
			HoneypotField:   strings.TrimSpace(getenv("HONEYPOT_FIELD", "website")),
			RateLimitWindow: getdur("CONTACT_RATE_LIMIT_WINDOW", 60*time.Second),
			RateLimitMax:    getint("CONTACT_RATE_LIMIT_MAX", 5),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// SMTP
		SMTP: SMTPConfig{
			Host:     strings.TrimSpace(getenv("SMTP_HOST", "")),
			Port:     getint("SMTP_PORT", 587),
			Username: strings.TrimSpace(getenv("SMTP_USERNAME", "")),
			Password: getenv("SMTP_PASSWORD", ""),
			UseTLS:   getbool("SMTP_USE_TLS", true),
			From:     strings.TrimSpace(getenv("SMTP_FROM", "")),
			To:       strings.TrimSpace(getenv("CONTACT_EMAIL_TO", "")),
			Timeout:  getdur("SMTP_TIMEOUT", 20*time.Second),
		},

		// Telegram
		Telegram: TelegramConfig{
			Token:              strings.TrimSpace(getenv("TELEGRAM_TOKEN", "")),
			WebhookSecret:      getenv("TELEGRAM_WEBHOOK_SECRET", ""),
			APIBaseURL:         strings.TrimRight(getenv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"), "/"),
			WebhookPath:        normalizeBasePath(getenv("TELEGRAM_WEBHOOK_PATH", "/telegram/webhook")),
			PublicBaseURL:      strings.TrimRight(strings.TrimSpace(getenv("PUBLIC_BASE_URL", "")), "/"),
			AutoSetWebhook:     getbool("AUTO_SET_WEBHOOK", false),
			DropPendingUpdates: getbool("DROP_PENDING_UPDATES", true),
			RepositoryName:     strings.TrimSpace(getenv("REPOSITORY_NAME", "unknown-repository")),
			HTTPTimeout:        getdur("TELEGRAM_HTTP_TIMEOUT", 10*time.Second),
		},

		// Tasks
		TasksAPIKey: getenv("TASKS_API_KEY", ""),

		// Chat state
		ChatStateBackend: strings.ToLower(strings.TrimSpace(getenv("CHAT_STATE_BACKEND", ChatStateSQLite))),
		DBPath:           getenv("DB_PATH", "app.db"),
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", "localhost:6379"),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getint("REDIS_DB", 0),
			Key:      getenv("REDIS_KEY", "notify:last_chat_id"),
		},

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-notify-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.Telegram.RepositoryName == "" {
		cfg.Telegram.RepositoryName = "unknown-repository"
	}

	// TELEGRAM_CHAT_ID is optional but must be an integer when present.
	if raw := strings.TrimSpace(getenv("TELEGRAM_CHAT_ID", "")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("TELEGRAM_CHAT_ID must be an integer: %q", raw)
		}
		cfg.Telegram.FallbackChatID = &id
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.ShutdownTimeout <= 0 || cfg.BackgroundDrainTimeout <= 0 {
		return cfg, errors.New("SHUTDOWN_TIMEOUT and BACKGROUND_DRAIN_TIMEOUT must be > 0")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.Contact.HoneypotField == "" {
		return cfg, errors.New("HONEYPOT_FIELD must not be empty")
	}
	if cfg.Contact.RateLimitWindow < time.Second {
		return cfg, errors.New("CONTACT_RATE_LIMIT_WINDOW must be >= 1s")
	}
	if cfg.Contact.RateLimitMax < 1 {
		return cfg, errors.New("CONTACT_RATE_LIMIT_MAX must be >= 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.SMTP.Port <= 0 || cfg.SMTP.Port > 65535 {
		return cfg, errors.New("SMTP_PORT must be in [1,65535]")
	}
	if cfg.SMTP.Timeout <= 0 {
		return cfg, errors.New("SMTP_TIMEOUT must be > 0")
	}
	if cfg.Telegram.HTTPTimeout <= 0 {
		return cfg, errors.New("TELEGRAM_HTTP_TIMEOUT must be > 0")
	}
	if cfg.Telegram.AutoSetWebhook && cfg.Telegram.PublicBaseURL == "" {
		return cfg, errors.New("AUTO_SET_WEBHOOK requires PUBLIC_BASE_URL")
	}
	switch cfg.ChatStateBackend {
	case ChatStateSQLite:
		if strings.TrimSpace(cfg.DBPath) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case ChatStateRedis:
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			return cfg, errors.New("REDIS_ADDR must not be empty")
		}
		if cfg.Redis.DB < 0 {
			return cfg, errors.New("REDIS_DB must be >= 0")
		}
	default:
		return cfg, errors.New("CHAT_STATE_BACKEND must be one of: sqlite, redis")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// WebhookURL is the public URL Telegram should deliver updates to, or ""
// when PUBLIC_BASE_URL is not set.
func (c Config) WebhookURL() string {
	if c.Telegram.PublicBaseURL == "" {
		return ""
	}
	return c.Telegram.PublicBaseURL + c.Telegram.WebhookPath
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

// getdur accepts Go durations ("90s", "1m30s") and bare numbers of seconds ("60").
func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		v = strings.TrimSpace(v)
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if secs, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(secs) && !math.IsInf(secs, 0) {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
