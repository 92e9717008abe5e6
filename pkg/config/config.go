package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration for the rentmanager-adapter.
type Config struct {
	ServiceName string
	Env         string
	LogLevel    string
	LogFile     string

	// Rent Manager API. Username/Password may instead come from AWS Secrets
	// Manager when CredentialsSecret is set.
	BaseURL           string
	Username          string
	Password          string
	HTTPTimeout       time.Duration
	CredentialsSecret string
	AWSRegion         string
	CacheTTL          time.Duration

	SyncProperties bool
	SyncUnits      bool

	// Optional sinks; an empty address disables the sink.
	NATSURL           string
	NATSSubjectPrefix string
	RedisAddr         string
	RedisDB           int
	RedisPass         string
	RecordTTL         time.Duration
	DatabaseURL       string
	PGMaxConns        int
	PGMaxConnLifetime time.Duration

	PushgatewayURL string
}

// Load loads configuration from environment variables and optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName:       GetEnv("SERVICE_NAME", "rentmanager-adapter"),
		Env:               GetEnv("ENV", "dev"),
		LogLevel:          GetEnv("LOG_LEVEL", "info"),
		LogFile:           GetEnv("LOG_FILE", ""),
		BaseURL:           GetEnv("RM_BASE_URL", ""),
		Username:          GetEnv("RM_USERNAME", ""),
		Password:          GetEnv("RM_PASSWORD", ""),
		HTTPTimeout:       GetEnvDuration("RM_HTTP_TIMEOUT", 30*time.Second),
		CredentialsSecret: GetEnv("RM_CREDENTIALS_SECRET", ""),
		AWSRegion:         GetEnv("AWS_REGION", "us-east-2"),
		CacheTTL:          GetEnvDuration("CACHE_TTL", 24*time.Hour),
		SyncProperties:    GetEnvBool("SYNC_PROPERTIES", true),
		SyncUnits:         GetEnvBool("SYNC_UNITS", true),
		NATSURL:           GetEnv("NATS_URL", ""),
		NATSSubjectPrefix: GetEnv("NATS_SUBJECT_PREFIX", "evt.rentmanager"),
		RedisAddr:         GetEnv("REDIS_ADDR", ""),
		RedisDB:           GetEnvInt("REDIS_DB", 0),
		RedisPass:         GetEnv("REDIS_PASS", ""),
		RecordTTL:         GetEnvDuration("RECORD_TTL", 48*time.Hour),
		DatabaseURL:       GetEnv("DATABASE_URL", ""),
		PGMaxConns:        GetEnvInt("PG_MAX_CONNS", 4),
		PGMaxConnLifetime: GetEnvDuration("PG_MAX_CONN_LIFETIME", 30*time.Minute),
		PushgatewayURL:    GetEnv("PUSHGATEWAY_URL", ""),
	}
}

// Validate reports configuration that cannot produce a working run.
// The base URL may be supplied by the credentials secret instead.
func (c *Config) Validate() error {
	if c.HTTPTimeout <= 0 {
		return errors.New("RM_HTTP_TIMEOUT must be positive")
	}
	if c.DatabaseURL != "" && (c.PGMaxConns < 1 || c.PGMaxConns > math.MaxInt32) {
		return fmt.Errorf("PG_MAX_CONNS must be between 1 and %d, got %d", math.MaxInt32, c.PGMaxConns)
	}
	if c.CredentialsSecret != "" {
		return nil
	}
	if c.BaseURL == "" {
		return errors.New("RM_BASE_URL is required when RM_CREDENTIALS_SECRET is not set")
	}
	if c.Username == "" || c.Password == "" {
		return errors.New("RM_USERNAME and RM_PASSWORD are required when RM_CREDENTIALS_SECRET is not set")
	}
	return nil
}
