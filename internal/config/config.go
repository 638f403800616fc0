package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Substrate   SubstrateConfig
	Workflow    WorkflowConfig
	JWT         JWTConfig
	Context     ContextConfig
	Logger      LoggerConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SubstrateConfig selects the persistence driver and its settings.
type SubstrateConfig struct {
	Driver string // memory | boltdb | redis | postgres

	BoltPath   string
	BoltBucket string

	RedisURL      string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	PostgresURL             string
	PostgresMaxOpenConns    int
	PostgresMaxIdleConns    int
	PostgresMaxConnLifetime time.Duration
	MigrationsEnabled       bool
	MigrationsPath          string
}

// WorkflowConfig controls the transition engine and its jobs.
type WorkflowConfig struct {
	PollInterval    time.Duration
	ApprovalDwell   time.Duration
	CodePeriod      time.Duration
	MonitorInterval time.Duration
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "crm-backend"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Substrate: SubstrateConfig{
			Driver:                  getString("SUBSTRATE_DRIVER", "boltdb"),
			BoltPath:                getString("BOLTDB_PATH", "./data/collections.db"),
			BoltBucket:              getString("BOLTDB_BUCKET", "collections"),
			RedisURL:                getString("REDIS_URL", "redis://localhost:6379"),
			RedisPassword:           os.Getenv("REDIS_PASSWORD"),
			RedisDB:                 getInt("REDIS_DB", 0),
			RedisPrefix:             getString("REDIS_PREFIX", "collection:"),
			PostgresURL:             os.Getenv("DATABASE_URL"),
			PostgresMaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			PostgresMaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			PostgresMaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			MigrationsEnabled:       getBool("RUN_MIGRATIONS", true),
			MigrationsPath:          getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
		Workflow: WorkflowConfig{
			PollInterval:    getDuration("WORKFLOW_POLL_INTERVAL", time.Second),
			ApprovalDwell:   getDuration("APPROVAL_DWELL", 4*time.Second),
			CodePeriod:      getDuration("ADMIN_CODE_PERIOD", 5*time.Minute),
			MonitorInterval: getDuration("MONITOR_INTERVAL", 10*time.Second),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getString("JWT_ISSUER", "crm-backend"),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
	}

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
