package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Session backends.
const (
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// Config aggregates runtime configuration for the portal.
type Config struct {
	App          AppConfig
	Redis        RedisConfig
	Session      SessionConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	ProfileAPI   ProfileAPIConfig
	Profile      ProfileConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `validate:"required"`
	Env                   string `validate:"required"`
	Host                  string
	Port                  string `validate:"required,numeric"`
	Version               string
	RequestTimeoutSeconds int `validate:"gte=0"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string `validate:"required"`
	Password string
	DB       int `validate:"gte=0"`
}

// SessionConfig controls where page state is kept and for how long.
type SessionConfig struct {
	Backend    string `validate:"oneof=redis memory"`
	TTLMinutes int    `validate:"gt=0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level   string `validate:"oneof=debug info warn error dpanic panic fatal"`
	Format  string `validate:"oneof=json console"`
	Service string
	Env     string
}

// AuthConfig defines how the caller identity is read.
type AuthConfig struct {
	JWTSecret             string `validate:"required"`
	AccessTokenTTLMinutes int
	CookieName            string `validate:"required"`
}

// ProfileAPIConfig points at the remote profile service.
type ProfileAPIConfig struct {
	BaseURL        string `validate:"required,url"`
	TimeoutSeconds int    `validate:"gt=0"`
}

// ProfileConfig holds the fixed tags attached on submit and cancel behavior.
type ProfileConfig struct {
	Cohort            int    `validate:"gt=0"`
	Status            string `validate:"required"`
	KeepDraftOnCancel bool
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string `validate:"omitempty,url"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	backend := getEnv("SESSION_BACKEND", SessionBackendRedis)

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "student-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Session: SessionConfig{
			Backend:    backend,
			TTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 120),
		},
		Logger: LoggerConfig{
			Level:   getEnv("LOG_LEVEL", "info"),
			Format:  getEnv("LOG_FORMAT", "json"),
			Service: getEnv("APP_NAME", "student-portal"),
			Env:     getEnv("APP_ENV", "development"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			CookieName:            getEnv("AUTH_COOKIE_NAME", "access_token"),
		},
		ProfileAPI: ProfileAPIConfig{
			BaseURL:        getEnv("PROFILE_API_BASE_URL", "http://127.0.0.1:5000/api"),
			TimeoutSeconds: getEnvAsInt("PROFILE_API_TIMEOUT_SECONDS", 10),
		},
		Profile: ProfileConfig{
			Cohort:            getEnvAsInt("PROFILE_COHORT", 2025),
			Status:            getEnv("PROFILE_STATUS", "active"),
			KeepDraftOnCancel: getEnvAsBool("PROFILE_KEEP_DRAFT_ON_CANCEL", false),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values against their constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TTL returns how long page state is kept after the last write.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

// Timeout returns the per-request timeout for profile API calls.
func (p ProfileAPIConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
