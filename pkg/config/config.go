package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Remote        RemoteConfig
	Storage       StorageConfig
	DB            DBConfig
	Redis         RedisConfig
	Catalog       CatalogConfig
	Receipts      ReceiptsConfig
	Session       SessionConfig
	JWT           JWTConfig
	AuthRateLimit AuthRateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	if cfg.Storage.Backend == StorageBackendSQL {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if cfg.Storage.Backend == StorageBackendRedis && cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("either %s or %s is required for redis storage", EnvRedisURL, EnvRedisAddr)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env             string        `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port            string        `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel        string        `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack    bool          `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	CORSOrigins     []string      `envconfig:"STOREFRONT_APP_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:4200"`
	ShutdownTimeout time.Duration `envconfig:"STOREFRONT_APP_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// RemoteConfig points at the EverREST shop API.
type RemoteConfig struct {
	BaseURL            string        `envconfig:"STOREFRONT_REMOTE_BASE_URL" default:"https://api.everrest.educata.dev"`
	Timeout            time.Duration `envconfig:"STOREFRONT_REMOTE_TIMEOUT" default:"10s"`
	BreakerMaxFailures uint32        `envconfig:"STOREFRONT_REMOTE_BREAKER_MAX_FAILURES" default:"5"`
	BreakerOpenTimeout time.Duration `envconfig:"STOREFRONT_REMOTE_BREAKER_OPEN_TIMEOUT" default:"30s"`
}

type StorageConfig struct {
	Backend string `envconfig:"STOREFRONT_STORAGE_BACKEND" default:"memory"`
}

func (s StorageConfig) validate() error {
	switch strings.ToLower(s.Backend) {
	case StorageBackendMemory, StorageBackendRedis, StorageBackendSQL:
		return nil
	default:
		return fmt.Errorf("%s must be one of %s, %s, %s (got %q)", EnvStorageBackend, StorageBackendMemory, StorageBackendRedis, StorageBackendSQL, s.Backend)
	}
}

type DBConfig struct {
	DSN         string `envconfig:"STOREFRONT_DB_DSN"`
	Driver      string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`
	AutoMigrate bool   `envconfig:"STOREFRONT_DB_AUTO_MIGRATE" default:"false"`

	Host     string `envconfig:"STOREFRONT_DB_HOST"`
	Port     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	User     string `envconfig:"STOREFRONT_DB_USER"`
	Password string `envconfig:"STOREFRONT_DB_PASSWORD"`
	Name     string `envconfig:"STOREFRONT_DB_NAME"`
	SSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type CatalogConfig struct {
	DefaultPageSize int           `envconfig:"STOREFRONT_CATALOG_DEFAULT_PAGE_SIZE" default:"9"`
	AllPageSize     int           `envconfig:"STOREFRONT_CATALOG_ALL_PAGE_SIZE" default:"38"`
	FilterBatchSize int           `envconfig:"STOREFRONT_CATALOG_FILTER_BATCH_SIZE" default:"1000"`
	BatchTTL        time.Duration `envconfig:"STOREFRONT_CATALOG_BATCH_TTL" default:"5m"`
}

type ReceiptsConfig struct {
	HistoryCap int    `envconfig:"STOREFRONT_RECEIPTS_HISTORY_CAP" default:"50"`
	DateLayout string `envconfig:"STOREFRONT_RECEIPTS_DATE_LAYOUT" default:"01/02/2006, 15:04:05"`
}

type SessionConfig struct {
	IdleTTL           time.Duration `envconfig:"STOREFRONT_SESSION_IDLE_TTL" default:"30m"`
	ReconcileInterval time.Duration `envconfig:"STOREFRONT_SESSION_RECONCILE_INTERVAL" default:"1m"`
	LockTTL           time.Duration `envconfig:"STOREFRONT_SESSION_LOCK_TTL" default:"50s"`
	StateTTL          time.Duration `envconfig:"STOREFRONT_SESSION_STATE_TTL" default:"720h"`
}

type JWTConfig struct {
	ExpirySkew time.Duration `envconfig:"STOREFRONT_JWT_EXPIRY_SKEW" default:"30s"`
}

// AuthRateLimitConfig throttles sign-in and sign-up attempts. Counters live
// in Redis, so the limits only apply with the redis storage backend.
type AuthRateLimitConfig struct {
	SignInWindow      time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_SIGN_IN_WINDOW" default:"1m"`
	SignInEmailLimit  int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_SIGN_IN_EMAIL_LIMIT" default:"5"`
	SignInIPLimit     int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_SIGN_IN_IP_LIMIT" default:"20"`
	SignUpWindow      time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_SIGN_UP_WINDOW" default:"5m"`
	SignUpEmailLimit  int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_SIGN_UP_EMAIL_LIMIT" default:"3"`
	SignUpIPLimit     int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_SIGN_UP_IP_LIMIT" default:"20"`
	CheckoutReplayTTL time.Duration `envconfig:"STOREFRONT_CHECKOUT_REPLAY_TTL" default:"168h"`
}

// ResolveDSN fills DSN from the discrete settings when it is unset.
func (db *DBConfig) ResolveDSN() error {
	return db.ensureDSN()
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, DBDriverSQLite) {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
