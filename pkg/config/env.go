package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageBackendMemory = "memory"
	StorageBackendRedis  = "redis"
	StorageBackendSQL    = "sql"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv         = "STOREFRONT_APP_ENV"
	EnvPort           = "STOREFRONT_APP_PORT"
	EnvLogLevel       = "STOREFRONT_LOG_LEVEL"
	EnvRemoteBaseURL  = "STOREFRONT_REMOTE_BASE_URL"
	EnvRemoteTimeout  = "STOREFRONT_REMOTE_TIMEOUT"
	EnvStorageBackend = "STOREFRONT_STORAGE_BACKEND"
	EnvDBDSN          = "STOREFRONT_DB_DSN"
	EnvDBDriver       = "STOREFRONT_DB_DRIVER"
	EnvDBHost         = "STOREFRONT_DB_HOST"
	EnvDBUser         = "STOREFRONT_DB_USER"
	EnvDBPassword     = "STOREFRONT_DB_PASSWORD"
	EnvDBName         = "STOREFRONT_DB_NAME"
	EnvRedisURL       = "STOREFRONT_REDIS_URL"
	EnvRedisAddr      = "STOREFRONT_REDIS_ADDR"
	EnvCatalogAllSize = "STOREFRONT_CATALOG_ALL_PAGE_SIZE"
	EnvSessionIdleTTL = "STOREFRONT_SESSION_IDLE_TTL"
	EnvCORSOrigins    = "STOREFRONT_APP_CORS_ORIGINS"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
