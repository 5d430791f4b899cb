package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends for the ticket document.
const (
	StorageBackendFile     = "file"
	StorageBackendRedis    = "redis"
	StorageBackendPostgres = "postgres"
)

const minJWTSecretLength = 32

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Storage      StorageConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	AI           AIConfig
	Email        EmailConfig
	Notification NotificationConfig
	CORS         CORSConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// StorageConfig selects where the ticket document lives.
type StorageConfig struct {
	Backend      string
	FilePath     string
	RedisKey     string
	DocumentName string
	StrictDecode bool
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	Username              string
	Password              string
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// AIConfig configures summary generation.
type AIConfig struct {
	Enabled              bool
	APIKey               string
	Model                string
	BaseURL              string
	MaxTokens            int
	Temperature          float64
	TimeoutSeconds       int
	MaxDescriptionLength int
}

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
	FromEmail         string
	FromName          string
	MaxRetryAttempts  int
	RetryDelaySeconds int
}

// NotificationConfig sizes the background notification pool.
type NotificationConfig struct {
	Workers   int
	QueueSize int
}

// CORSConfig lists what browsers may call the API.
type CORSConfig struct {
	AllowedOrigins   string
	AllowedHeaders   string
	AllowedMethods   string
	AllowCredentials bool
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	smtpPort, err := strconv.Atoi(getEnv("EMAIL_SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid EMAIL_SMTP_PORT: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-tickets"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 45),
		},
		Storage: StorageConfig{
			Backend:      strings.ToLower(getEnv("STORAGE_BACKEND", StorageBackendFile)),
			FilePath:     getEnv("STORAGE_FILE_PATH", "data/tickets.json"),
			RedisKey:     getEnv("STORAGE_REDIS_KEY", "support-tickets:tickets"),
			DocumentName: getEnv("STORAGE_DOCUMENT_NAME", "tickets"),
			StrictDecode: getEnvAsBool("STORAGE_STRICT_DECODE", false),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			Username:              os.Getenv("AUTH_USERNAME"),
			Password:              os.Getenv("AUTH_PASSWORD"),
			JWTSecret:             os.Getenv("AUTH_JWT_SECRET"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 24*60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		AI: AIConfig{
			Enabled:              getEnvAsBool("AI_ENABLED", true),
			APIKey:               os.Getenv("AI_API_KEY"),
			Model:                getEnv("AI_MODEL", "gpt-4o-mini"),
			BaseURL:              getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
			MaxTokens:            getEnvAsInt("AI_MAX_TOKENS", 150),
			Temperature:          getEnvAsFloat("AI_TEMPERATURE", 0.7),
			TimeoutSeconds:       getEnvAsInt("AI_TIMEOUT_SECONDS", 30),
			MaxDescriptionLength: getEnvAsInt("AI_MAX_DESCRIPTION_LENGTH", 5000),
		},
		Email: EmailConfig{
			SMTPHost:          os.Getenv("EMAIL_SMTP_HOST"),
			SMTPPort:          smtpPort,
			SMTPUsername:      os.Getenv("EMAIL_SMTP_USERNAME"),
			SMTPPassword:      os.Getenv("EMAIL_SMTP_PASSWORD"),
			FromEmail:         getEnv("EMAIL_FROM", "noreply@example.com"),
			FromName:          getEnv("EMAIL_FROM_NAME", "Support Team"),
			MaxRetryAttempts:  getEnvAsInt("EMAIL_MAX_RETRY_ATTEMPTS", 3),
			RetryDelaySeconds: getEnvAsInt("EMAIL_RETRY_DELAY_SECONDS", 2),
		},
		Notification: NotificationConfig{
			Workers:   getEnvAsInt("NOTIFY_WORKERS", 4),
			QueueSize: getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
		},
		CORS: CORSConfig{
			AllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			AllowedHeaders:   getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
			AllowedMethods:   getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE"),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageBackendFile:
		if strings.TrimSpace(c.Storage.FilePath) == "" {
			return fmt.Errorf("STORAGE_FILE_PATH required for file backend")
		}
	case StorageBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR required for redis backend")
		}
	case StorageBackendPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("POSTGRES_DSN required for postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.AI.Enabled && c.App.RequestTimeout() > 0 && c.AI.Timeout() >= c.App.RequestTimeout() {
		return fmt.Errorf("AI_TIMEOUT_SECONDS (%d) must be below HTTP_REQUEST_TIMEOUT_SECONDS (%d)",
			c.AI.TimeoutSeconds, c.App.RequestTimeoutSeconds)
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least %d characters, got %d", minJWTSecretLength, len(c.Auth.JWTSecret))
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

// Timeout returns the per-call deadline for the AI provider.
func (a AIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// RetryDelay returns the base delay between SMTP attempts.
func (e EmailConfig) RetryDelay() time.Duration {
	return time.Duration(e.RetryDelaySeconds) * time.Second
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

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
