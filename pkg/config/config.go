package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Orders       OrdersConfig
	Idempotency  IdempotencyConfig
	Cron         CronConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HARBORLINE_APP_ENV" required:"true"`
	Port         string `envconfig:"HARBORLINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HARBORLINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HARBORLINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HARBORLINE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HARBORLINE_DB_DSN"`
	Driver string `envconfig:"HARBORLINE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HARBORLINE_DB_HOST"`
	LegacyPort     int    `envconfig:"HARBORLINE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HARBORLINE_DB_USER"`
	LegacyPassword string `envconfig:"HARBORLINE_DB_PASSWORD"`
	LegacyName     string `envconfig:"HARBORLINE_DB_NAME"`
	LegacySSLMode  string `envconfig:"HARBORLINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HARBORLINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HARBORLINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HARBORLINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HARBORLINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HARBORLINE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HARBORLINE_REDIS_ADDR"`
	Password     string        `envconfig:"HARBORLINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"HARBORLINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HARBORLINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HARBORLINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HARBORLINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HARBORLINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HARBORLINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"HARBORLINE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"HARBORLINE_AUTO_MIGRATE" default:"false"`
}

type OrdersConfig struct {
	// NumberPrefix is prepended to the zero padded counter value.
	NumberPrefix       string        `envconfig:"HARBORLINE_ORDERS_NUMBER_PREFIX" default:"ORD"`
	AllocatorAttempts  int           `envconfig:"HARBORLINE_ORDERS_ALLOCATOR_ATTEMPTS" default:"3"`
	AllocatorBackoff   time.Duration `envconfig:"HARBORLINE_ORDERS_ALLOCATOR_BACKOFF" default:"25ms"`
	DraftTTL           time.Duration `envconfig:"HARBORLINE_ORDERS_DRAFT_TTL" default:"72h"`
	DraftExpiryBatch   int           `envconfig:"HARBORLINE_ORDERS_DRAFT_EXPIRY_BATCH" default:"200"`
	DraftExpiryEnabled bool          `envconfig:"HARBORLINE_ORDERS_DRAFT_EXPIRY_ENABLED" default:"true"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"HARBORLINE_IDEMPOTENCY_TTL" default:"24h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"HARBORLINE_CRON_INTERVAL" default:"1m"`
	LockTTL  time.Duration `envconfig:"HARBORLINE_CRON_LOCK_TTL" default:"5m"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"HARBORLINE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"HARBORLINE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"HARBORLINE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"HARBORLINE_PUBSUB_ORDERS_TOPIC" default:"hl-order-events"`
	OrdersSubscription string `envconfig:"HARBORLINE_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"HARBORLINE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"HARBORLINE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"HARBORLINE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
