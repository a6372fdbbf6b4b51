package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Tickets   TicketConfig
	Activity  ActivityConfig
	Fanout    FanoutConfig
	Registry  RegistryConfig
	RateLimit RateLimitConfig
	Seed      SeedConfig
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

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Development bool
}

// AuthConfig defines principal token parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// TicketConfig holds ticket numbering settings.
type TicketConfig struct {
	IDPrefix string
}

// ActivityConfig tunes unread computation.
type ActivityConfig struct {
	GraceWindow time.Duration
}

// FanoutConfig selects and tunes the live event transport.
type FanoutConfig struct {
	Backend          string
	RedisChannel     string
	SubscriberBuffer int
	PollTimeout      time.Duration
}

// RegistryConfig tunes the building lookup cache.
type RegistryConfig struct {
	CacheTTL time.Duration
}

// RateLimitConfig configures per-principal request throttling. RPS <= 0 disables it.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// SeedConfig points at optional reference data loaded at startup.
type SeedConfig struct {
	File string
}

const (
	FanoutBackendMemory = "memory"
	FanoutBackendRedis  = "redis"
)

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "20"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	backend := strings.ToLower(getEnv("FANOUT_BACKEND", FanoutBackendMemory))
	if backend != FanoutBackendMemory && backend != FanoutBackendRedis {
		return nil, fmt.Errorf("invalid FANOUT_BACKEND %q", backend)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "issuetracker"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
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
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Tickets: TicketConfig{
			IDPrefix: getEnv("TICKET_ID_PREFIX", "TK-"),
		},
		Activity: ActivityConfig{
			GraceWindow: time.Duration(getEnvAsInt("ACTIVITY_GRACE_WINDOW_MS", 2000)) * time.Millisecond,
		},
		Fanout: FanoutConfig{
			Backend:          backend,
			RedisChannel:     getEnv("FANOUT_REDIS_CHANNEL", "issuetracker:events"),
			SubscriberBuffer: getEnvAsInt("FANOUT_SUBSCRIBER_BUFFER", 64),
			PollTimeout:      time.Duration(getEnvAsInt("FANOUT_POLL_TIMEOUT_SECONDS", 25)) * time.Second,
		},
		Registry: RegistryConfig{
			CacheTTL: time.Duration(getEnvAsInt("REGISTRY_CACHE_TTL_SECONDS", 300)) * time.Second,
		},
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Seed: SeedConfig{
			File: os.Getenv("REFERENCE_DATA_FILE"),
		},
	}

	if cfg.Fanout.Backend == FanoutBackendRedis && cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("FANOUT_BACKEND=redis requires REDIS_ADDR")
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
