package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAPIBaseURL is the public DUCA backend used when DUCA_API_URL is not set.
const DefaultAPIBaseURL = "https://aduanas-duca-api.onrender.com"

// Session store backends.
const (
	SessionBackendFile   = "file"
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App      AppSettings
	Log      LogSettings
	API      APISettings
	Session  SessionSettings
	Redis    RedisSettings
	Auth     AuthSettings
	Audit    AuditSettings
	Database DatabaseSettings
	Metrics  MetricsSettings
	Mock     MockSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type LogSettings struct {
	Level string
}

// APISettings configures the HTTP request executor.
type APISettings struct {
	BaseURL           string
	Timeout           time.Duration
	RetryMaxAttempts  int           // 1 disables retries
	RetryBackoff      time.Duration // linear step between attempts
	MaxConnsPerHost   int
	MaxErrorBodyBytes int64
	BreakerFailures   int // consecutive unavailability errors before failing fast, 0 disables
	BreakerCooldown   time.Duration
}

type SessionSettings struct {
	Backend string
	File    string
	Profile string
	TTL     time.Duration // only honored by the redis backend, 0 keeps the session until logout
}

type RedisSettings struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

type AuthSettings struct {
	JWKSetURI string // optional; when set, login tokens must verify against it
}

type AuditSettings struct {
	Enabled         bool
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodySize     int
}

type DatabaseSettings struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type MetricsSettings struct {
	TextfilePath string // when set, the CLI dumps its collectors here on exit
}

// MockSettings configures the in-memory reference backend.
type MockSettings struct {
	Port      int
	JWTSecret string
	TokenTTL  time.Duration
}

// Load resolves the application configuration from environment variables.
// It first attempts to load variables from a .env file if it exists.
// Environment variables set in the system take precedence over .env file values.
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "ducactl"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		Log: LogSettings{
			Level: getEnv("LOG_LEVEL", "warn"),
		},
		API: APISettings{
			BaseURL:           strings.TrimRight(strings.TrimSpace(getEnv("DUCA_API_URL", DefaultAPIBaseURL)), "/"),
			Timeout:           getEnvAsDuration("DUCA_API_TIMEOUT", 10*time.Second),
			RetryMaxAttempts:  getEnvAsInt("DUCA_RETRY_MAX_ATTEMPTS", 1),
			RetryBackoff:      getEnvAsDuration("DUCA_RETRY_BACKOFF", 500*time.Millisecond),
			MaxConnsPerHost:   getEnvAsInt("DUCA_MAX_CONNS_PER_HOST", 10),
			MaxErrorBodyBytes: int64(getEnvAsInt("DUCA_MAX_ERROR_BODY_BYTES", 64*1024)),
			BreakerFailures:   getEnvAsInt("DUCA_BREAKER_FAILURES", 3),
			BreakerCooldown:   getEnvAsDuration("DUCA_BREAKER_COOLDOWN", 30*time.Second),
		},
		Session: SessionSettings{
			Backend: strings.ToLower(getEnv("DUCA_SESSION_BACKEND", SessionBackendFile)),
			File:    strings.TrimSpace(os.Getenv("DUCA_SESSION_FILE")),
			Profile: getEnv("DUCA_PROFILE", "default"),
			TTL:     getEnvAsDuration("DUCA_SESSION_TTL", 0),
		},
		Redis: RedisSettings{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Timeout:  getEnvAsDuration("REDIS_TIMEOUT", 5*time.Second),
		},
		Auth: AuthSettings{
			JWKSetURI: strings.TrimSpace(os.Getenv("DUCA_JWKS_URL")),
		},
		Audit: AuditSettings{
			Enabled:         getEnvAsBool("AUDIT_ENABLED", false),
			LogRequestBody:  getEnvAsBool("AUDIT_LOG_REQUEST_BODY", true),
			LogResponseBody: getEnvAsBool("AUDIT_LOG_RESPONSE_BODY", true),
			MaxBodySize:     getEnvAsInt("AUDIT_MAX_BODY_SIZE", 102400),
		},
		Database: DatabaseSettings{
			Host:            strings.TrimSpace(os.Getenv("DB_HOST")),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "ducactl"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 4),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 1),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Metrics: MetricsSettings{
			TextfilePath: strings.TrimSpace(os.Getenv("DUCA_METRICS_TEXTFILE")),
		},
		Mock: MockSettings{
			Port:      getEnvAsInt("MOCK_PORT", 8081),
			JWTSecret: getEnv("MOCK_JWT_SECRET", "ducamock-dev-secret"),
			TokenTTL:  getEnvAsDuration("MOCK_TOKEN_TTL", 8*time.Hour),
		},
	}

	if cfg.Session.File == "" {
		cfg.Session.File = defaultSessionFile()
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints; Load calls it, flag overrides should call it again.
func (c AppConfig) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid config: DUCA_API_URL must be an absolute URL, got %q", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid config: DUCA_API_URL scheme must be http or https, got %q", u.Scheme)
	}
	if c.API.Timeout <= 0 {
		return errors.New("invalid config: DUCA_API_TIMEOUT must be greater than 0")
	}
	if c.API.RetryMaxAttempts < 1 || c.API.RetryMaxAttempts > 5 {
		return errors.New("invalid config: DUCA_RETRY_MAX_ATTEMPTS must be between 1 and 5")
	}
	if c.API.RetryBackoff < 0 {
		return errors.New("invalid config: DUCA_RETRY_BACKOFF cannot be negative")
	}
	if c.API.BreakerFailures < 0 {
		return errors.New("invalid config: DUCA_BREAKER_FAILURES cannot be negative")
	}

	switch c.Session.Backend {
	case SessionBackendFile, SessionBackendMemory, SessionBackendRedis:
	default:
		return fmt.Errorf("invalid config: DUCA_SESSION_BACKEND must be file, memory or redis, got %q", c.Session.Backend)
	}
	if c.Session.Backend == SessionBackendRedis && c.Redis.Addr == "" {
		return errors.New("invalid config: REDIS_ADDR is required when DUCA_SESSION_BACKEND=redis")
	}

	if c.Audit.Enabled && c.Database.Host == "" {
		return errors.New("invalid config: DB_HOST is required when AUDIT_ENABLED=true")
	}
	return nil
}

// DatabaseConfigured reports whether enough settings exist to open a pool.
func (d DatabaseSettings) DatabaseConfigured() bool {
	return d.Host != "" && d.Database != ""
}

// Address returns the mock backend listen address in host:port form.
func (m MockSettings) Address() string {
	return fmt.Sprintf(":%d", m.Port)
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "ducactl", "session.json")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
