package config

// EnvPrefix is handed to envconfig; individual struct tags spell the full
// variable names so the prefix stays informational.
const EnvPrefix = "indicert"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "INDICERT_APP_ENV"
	EnvPort     = "INDICERT_APP_PORT"
	EnvDBDSN    = "INDICERT_DB_DSN"
	EnvDBHost   = "INDICERT_DB_HOST"
	EnvDBUser   = "INDICERT_DB_USER"
	EnvDBName   = "INDICERT_DB_NAME"
	EnvRedisURL = "INDICERT_REDIS_URL"
	EnvCertBase = "INDICERT_CERT_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
