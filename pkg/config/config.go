package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Geocoding  GeocodingConfig
	Matching   MatchingConfig
	Inventory  InventoryConfig
	PubSub     PubSubConfig
	Outbox     OutboxConfig
	Idempotent IdempotencyConfig
	Cron       CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DB.DSN) == "" {
		return fmt.Errorf("%s is required", EnvDBDSN)
	}
	switch c.DB.Driver {
	case DBDriverPostgres, DBDriverSQLite:
	default:
		return fmt.Errorf("unsupported %s %q", EnvDBDriver, c.DB.Driver)
	}
	switch c.Geocoding.CacheBackend {
	case GeocodeCacheRedis, GeocodeCacheMemory:
	default:
		return fmt.Errorf("unsupported %s %q", EnvGeocodingCacheBackend, c.Geocoding.CacheBackend)
	}
	if c.Matching.SearchRadiusKm <= 0 {
		return fmt.Errorf("%s must be positive", EnvSearchRadiusKm)
	}
	if c.Matching.SubscriptionRadiusKm <= 0 {
		return fmt.Errorf("%s must be positive", EnvSubscriptionRadiusKm)
	}
	return nil
}

type AppConfig struct {
	Env          string   `envconfig:"HANDCAR_APP_ENV" required:"true"`
	Port         string   `envconfig:"HANDCAR_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"HANDCAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"HANDCAR_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"HANDCAR_CORS_ORIGINS" default:"http://localhost:3000,https://handcar.ae,https://www.handcar.ae"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN         string `envconfig:"HANDCAR_DB_DSN"`
	Driver      string `envconfig:"HANDCAR_DB_DRIVER" default:"postgres"`
	AutoMigrate bool   `envconfig:"HANDCAR_DB_AUTO_MIGRATE" default:"false"`

	MaxOpenConns    int           `envconfig:"HANDCAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HANDCAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HANDCAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HANDCAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	Address      string        `envconfig:"HANDCAR_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"HANDCAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"HANDCAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HANDCAR_REDIS_POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"HANDCAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HANDCAR_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"HANDCAR_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// JWTConfig verifies identities issued by the external auth service.
type JWTConfig struct {
	Secret            string `envconfig:"HANDCAR_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"HANDCAR_JWT_ISSUER" default:"handcar-auth"`
	ExpirationMinutes int    `envconfig:"HANDCAR_JWT_EXPIRATION_MINUTES" default:"60"`
}

type GeocodingConfig struct {
	BaseURL         string        `envconfig:"HANDCAR_GEOCODING_BASE_URL" default:"https://api.opencagedata.com"`
	APIKey          string        `envconfig:"HANDCAR_GEOCODING_API_KEY"`
	Timeout         time.Duration `envconfig:"HANDCAR_GEOCODING_TIMEOUT" default:"5s"`
	CacheBackend    string        `envconfig:"HANDCAR_GEOCODING_CACHE_BACKEND" default:"redis"`
	CacheTTL        time.Duration `envconfig:"HANDCAR_GEOCODING_CACHE_TTL" default:"24h"`
	CacheMaxEntries int           `envconfig:"HANDCAR_GEOCODING_CACHE_MAX_ENTRIES" default:"10000"`
}

// MatchingConfig keeps the two radii independent on purpose.
type MatchingConfig struct {
	SearchRadiusKm       float64 `envconfig:"HANDCAR_MATCHING_SEARCH_RADIUS_KM" default:"20"`
	SubscriptionRadiusKm float64 `envconfig:"HANDCAR_MATCHING_SUBSCRIPTION_RADIUS_KM" default:"50"`
}

type InventoryConfig struct {
	MaxRetries uint64        `envconfig:"HANDCAR_INVENTORY_MAX_RETRIES" default:"5"`
	RetryBase  time.Duration `envconfig:"HANDCAR_INVENTORY_RETRY_BASE" default:"10ms"`
}

type PubSubConfig struct {
	ProjectID                 string `envconfig:"HANDCAR_PUBSUB_PROJECT_ID"`
	NotificationsTopic        string `envconfig:"HANDCAR_PUBSUB_NOTIFICATIONS_TOPIC" default:"handcar-notifications"`
	NotificationsSubscription string `envconfig:"HANDCAR_PUBSUB_NOTIFICATIONS_SUBSCRIPTION" default:"handcar-notifications-worker"`
}

type OutboxConfig struct {
	BatchSize    int           `envconfig:"HANDCAR_OUTBOX_BATCH_SIZE" default:"50"`
	PollInterval time.Duration `envconfig:"HANDCAR_OUTBOX_POLL_INTERVAL" default:"500ms"`
	MaxAttempts  int           `envconfig:"HANDCAR_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"HANDCAR_IDEMPOTENCY_TTL" default:"24h"`
}

// CronConfig drives the maintenance worker.
type CronConfig struct {
	Interval            time.Duration `envconfig:"HANDCAR_CRON_INTERVAL" default:"1h"`
	LockTTL             time.Duration `envconfig:"HANDCAR_CRON_LOCK_TTL" default:"55m"`
	OutboxRetentionDays int           `envconfig:"HANDCAR_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
}
