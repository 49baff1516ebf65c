package config

const (
	EnvPrefix = "TRADEX"

	AppEnvDev = "dev"

	EnvAppEnv   = "TRADEX_APP_ENV"
	EnvPort     = "TRADEX_APP_PORT"
	EnvLogLevel = "TRADEX_LOG_LEVEL"

	EnvDBDSN  = "TRADEX_DB_DSN"
	EnvDBHost = "TRADEX_DB_HOST"
	EnvDBPort = "TRADEX_DB_PORT"
	EnvDBUser = "TRADEX_DB_USER"
	EnvDBName = "TRADEX_DB_NAME"

	EnvRedisURL = "TRADEX_REDIS_URL"

	EnvJWTSecret     = "TRADEX_JWT_SECRET"
	EnvJWTIssuer     = "TRADEX_JWT_ISSUER"
	EnvJWTExpMins    = "TRADEX_JWT_EXPIRATION_MINUTES"
	EnvSessionTTLMin = "TRADEX_SESSION_TTL_MINUTES"

	EnvCORSOrigins      = "TRADEX_CORS_ALLOWED_ORIGINS"
	EnvGCPProjectID     = "TRADEX_GCP_PROJECT_ID"
	EnvMarketplaceTopic = "TRADEX_PUBSUB_MARKETPLACE_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
