package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Queue backends for the triage handoff.
const (
	QueueBackendMemory = "memory"
	QueueBackendRedis  = "redis"
)

// descriptionLimit is the width of the description column.
const descriptionLimit = 1000

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Ollama       OllamaConfig
	Taxonomy     TaxonomyConfig
	Triage       TriageConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	BodyLimitBytes        int
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
	Level   string
	Service string
}

// OllamaConfig points the classifier at a text-generation endpoint.
type OllamaConfig struct {
	URL            string
	Model          string
	TimeoutSeconds int
}

// TaxonomyConfig locates the category list.
type TaxonomyConfig struct {
	Path string
}

// TriageConfig holds pipeline policy constants and worker sizing.
type TriageConfig struct {
	SimilarityThreshold  float64
	MinDescriptionLength int
	MaxDescriptionLength int
	Workers              int
	QueueBackend         string
	QueueSize            int
	QueueKey             string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	threshold, err := strconv.ParseFloat(getEnv("TRIAGE_SIMILARITY_THRESHOLD", "0.7"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TRIAGE_SIMILARITY_THRESHOLD: %w", err)
	}
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("TRIAGE_SIMILARITY_THRESHOLD must be within (0,1], got %v", threshold)
	}

	backend := strings.ToLower(getEnv("TRIAGE_QUEUE_BACKEND", QueueBackendMemory))
	if backend != QueueBackendMemory && backend != QueueBackendRedis {
		return nil, fmt.Errorf("invalid TRIAGE_QUEUE_BACKEND %q", backend)
	}

	maxDescription := getEnvAsInt("TRIAGE_MAX_DESCRIPTION_LENGTH", descriptionLimit)
	if maxDescription <= 0 || maxDescription > descriptionLimit {
		return nil, fmt.Errorf("TRIAGE_MAX_DESCRIPTION_LENGTH must be within [1,%d], got %d", descriptionLimit, maxDescription)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	appName := getEnv("APP_NAME", "facilities-feedback-service")

	cfg := &Config{
		App: AppConfig{
			Name:                  appName,
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("PORT", "3000"),
			Version:               getEnv("APP_VERSION", "1.0.0"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			BodyLimitBytes:        getEnvAsInt("HTTP_BODY_LIMIT_BYTES", 10*1024*1024),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:   getEnv("LOG_LEVEL", "info"),
			Service: appName,
		},
		Ollama: OllamaConfig{
			URL:            strings.TrimRight(getEnv("OLLAMA_URL", "http://localhost:11434"), "/"),
			Model:          getEnv("OLLAMA_MODEL", "gemma2:2b"),
			TimeoutSeconds: getEnvAsInt("OLLAMA_TIMEOUT_SECONDS", 60),
		},
		Taxonomy: TaxonomyConfig{
			Path: getEnv("TAXONOMY_PATH", "config/work-requests.json"),
		},
		Triage: TriageConfig{
			SimilarityThreshold:  threshold,
			MinDescriptionLength: getEnvAsInt("TRIAGE_MIN_DESCRIPTION_LENGTH", 15),
			MaxDescriptionLength: maxDescription,
			Workers:              getEnvAsInt("TRIAGE_WORKERS", 4),
			QueueBackend:         backend,
			QueueSize:            getEnvAsInt("TRIAGE_QUEUE_SIZE", 256),
			QueueKey:             getEnv("TRIAGE_QUEUE_KEY", "triage:queue"),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "facilities-noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
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

// Timeout returns the per-call deadline for the generate endpoint.
func (o OllamaConfig) Timeout() time.Duration {
	if o.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(o.TimeoutSeconds) * time.Second
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
