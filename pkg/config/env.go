package config

const (
	EnvPrefix = "HANDCAR"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
	AppEnvTest = "test"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	GeocodeCacheRedis  = "redis"
	GeocodeCacheMemory = "memory"
)

const (
	EnvAppEnv   = "HANDCAR_APP_ENV"
	EnvPort     = "HANDCAR_APP_PORT"
	EnvLogLevel = "HANDCAR_LOG_LEVEL"

	EnvDBDSN    = "HANDCAR_DB_DSN"
	EnvDBDriver = "HANDCAR_DB_DRIVER"

	EnvRedisAddr = "HANDCAR_REDIS_ADDR"

	EnvJWTSecret  = "HANDCAR_JWT_SECRET"
	EnvJWTIssuer  = "HANDCAR_JWT_ISSUER"
	EnvJWTExpMins = "HANDCAR_JWT_EXPIRATION_MINUTES"

	EnvGeocodingAPIKey       = "HANDCAR_GEOCODING_API_KEY"
	EnvGeocodingCacheBackend = "HANDCAR_GEOCODING_CACHE_BACKEND"

	EnvSearchRadiusKm       = "HANDCAR_MATCHING_SEARCH_RADIUS_KM"
	EnvSubscriptionRadiusKm = "HANDCAR_MATCHING_SUBSCRIPTION_RADIUS_KM"

	EnvPubSubProjectID          = "HANDCAR_PUBSUB_PROJECT_ID"
	EnvPubSubNotificationsTopic = "HANDCAR_PUBSUB_NOTIFICATIONS_TOPIC"
	EnvPubSubNotificationsSub   = "HANDCAR_PUBSUB_NOTIFICATIONS_SUBSCRIPTION"

	EnvCronInterval            = "HANDCAR_CRON_INTERVAL"
	EnvCronOutboxRetentionDays = "HANDCAR_CRON_OUTBOX_RETENTION_DAYS"
)
