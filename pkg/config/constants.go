package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv    = "STOREFRONT_APP_ENV"
	EnvPort      = "STOREFRONT_APP_PORT"
	EnvPublicURL = "STOREFRONT_APP_PUBLIC_URL"
	EnvLogLevel  = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN      = "STOREFRONT_DB_DSN"
	EnvDBHost     = "STOREFRONT_DB_HOST"
	EnvDBPort     = "STOREFRONT_DB_PORT"
	EnvDBUser     = "STOREFRONT_DB_USER"
	EnvDBPassword = "STOREFRONT_DB_PASSWORD"
	EnvDBName     = "STOREFRONT_DB_NAME"
	EnvDBSSLMode  = "STOREFRONT_DB_SSLMODE"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret  = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer  = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins = "STOREFRONT_JWT_EXPIRATION_MINUTES"

	EnvMercadoPagoAccessToken   = "STOREFRONT_MERCADOPAGO_ACCESS_TOKEN"
	EnvMercadoPagoWebhookSecret = "STOREFRONT_MERCADOPAGO_WEBHOOK_SECRET"
	EnvMercadoPagoStatusTimeout = "STOREFRONT_MERCADOPAGO_STATUS_TIMEOUT"

	EnvGCPProjectID       = "STOREFRONT_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic  = "STOREFRONT_PUBSUB_ORDERS_TOPIC"
	EnvOutboxRetention    = "STOREFRONT_OUTBOX_RETENTION_DAYS"
	EnvCheckoutPendingTTL = "STOREFRONT_CHECKOUT_PENDING_PAYMENT_TTL"
)

// legacyDBEnvVars must all be present when no DSN is supplied.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
