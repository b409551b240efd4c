package config

// EnvPrefix is passed to envconfig; every field carries an explicit key so it is mostly cosmetic.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:storefront.db?cache=shared&_foreign_keys=on"
)

const (
	EnvAppEnv                  = "STOREFRONT_APP_ENV"
	EnvPort                    = "STOREFRONT_APP_PORT"
	EnvLogLevel                = "STOREFRONT_LOG_LEVEL"
	EnvDBDSN                   = "STOREFRONT_DB_DSN"
	EnvDBDriver                = "STOREFRONT_DB_DRIVER"
	EnvDBHost                  = "STOREFRONT_DB_HOST"
	EnvDBPort                  = "STOREFRONT_DB_PORT"
	EnvDBUser                  = "STOREFRONT_DB_USER"
	EnvDBPassword              = "STOREFRONT_DB_PASSWORD"
	EnvDBName                  = "STOREFRONT_DB_NAME"
	EnvRedisURL                = "STOREFRONT_REDIS_URL"
	EnvJWTSecret               = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer               = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins              = "STOREFRONT_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes  = "STOREFRONT_REFRESH_TOKEN_TTL_MINUTES"
	EnvUseSQLite               = "STOREFRONT_USE_SQLITE"
	EnvGCPProjectID            = "STOREFRONT_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic       = "STOREFRONT_PUBSUB_ORDERS_TOPIC"
	EnvCartTTL                 = "STOREFRONT_CART_TTL"
	EnvCORSAllowedOrigins      = "STOREFRONT_CORS_ALLOWED_ORIGINS"
	EnvOutboxPublishBatchSize  = "STOREFRONT_OUTBOX_PUBLISH_BATCH_SIZE"
	EnvRateLimitLimit          = "STOREFRONT_RATE_LIMIT_LIMIT"
	EnvAuthRateLimitLoginLimit = "STOREFRONT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
