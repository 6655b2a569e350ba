package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "ZJ"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "ZJ_APP_ENV"
	EnvPort         = "ZJ_APP_PORT"
	EnvLogLevel     = "ZJ_LOG_LEVEL"
	EnvLogWarnStack = "ZJ_LOG_WARN_STACK"
	EnvCORSOrigins  = "ZJ_CORS_ALLOWED_ORIGINS"

	EnvDBDSN      = "ZJ_DB_DSN"
	EnvDBHost     = "ZJ_DB_HOST"
	EnvDBPort     = "ZJ_DB_PORT"
	EnvDBUser     = "ZJ_DB_USER"
	EnvDBPassword = "ZJ_DB_PASSWORD"
	EnvDBName     = "ZJ_DB_NAME"
	EnvDBSSLMode  = "ZJ_DB_SSLMODE"

	EnvRedisURL = "ZJ_REDIS_URL"

	EnvJWTSecret = "ZJ_JWT_SECRET"
	EnvJWTIssuer = "ZJ_JWT_ISSUER"

	EnvUseSQLite   = "ZJ_USE_SQLITE"
	EnvSQLitePath  = "ZJ_SQLITE_PATH"
	EnvAutoMigrate = "ZJ_AUTO_MIGRATE"

	EnvIconsBaseURL         = "ZJ_ICONS_API_BASE_URL"
	EnvIconsFetchTimeout    = "ZJ_ICONS_FETCH_TIMEOUT"
	EnvIconsRefreshInterval = "ZJ_ICONS_REFRESH_INTERVAL"

	EnvNotifySuccessDuration = "ZJ_NOTIFY_SUCCESS_DURATION"
	EnvNotifyErrorDuration   = "ZJ_NOTIFY_ERROR_DURATION"
	EnvNotifyInfoDuration    = "ZJ_NOTIFY_INFO_DURATION"
	EnvNotifyWarningDuration = "ZJ_NOTIFY_WARNING_DURATION"

	EnvRateLimitNotifyWindow = "ZJ_RATE_LIMIT_NOTIFY_WINDOW"
	EnvRateLimitNotifyLimit  = "ZJ_RATE_LIMIT_NOTIFY_LIMIT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	FeatureFlags  FeatureFlagsConfig
	Icons         IconsConfig
	Notifications NotificationsConfig
	RateLimit     RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Notifications.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ZJ_APP_ENV" required:"true"`
	Port         string `envconfig:"ZJ_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ZJ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ZJ_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"ZJ_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"ZJ_DB_DSN"`

	LegacyHost     string `envconfig:"ZJ_DB_HOST"`
	LegacyPort     int    `envconfig:"ZJ_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ZJ_DB_USER"`
	LegacyPassword string `envconfig:"ZJ_DB_PASSWORD"`
	LegacyName     string `envconfig:"ZJ_DB_NAME"`
	LegacySSLMode  string `envconfig:"ZJ_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"ZJ_SQLITE_PATH" default:"zauberjournal.db"`

	MaxOpenConns    int           `envconfig:"ZJ_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"ZJ_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"ZJ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ZJ_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// Queries slower than this are logged at warn. Zero disables the check.
	SlowQueryThreshold time.Duration `envconfig:"ZJ_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

// RedisConfig is optional; an empty URL disables idempotency replay and
// keeps rate limits per process.
type RedisConfig struct {
	URL          string        `envconfig:"ZJ_REDIS_URL"`
	KeyPrefix    string        `envconfig:"ZJ_REDIS_KEY_PREFIX" default:"zj"`
	PoolSize     int           `envconfig:"ZJ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ZJ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ZJ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ZJ_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"ZJ_REDIS_WRITE_TIMEOUT" default:"3s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

// JWTConfig verifies admin tokens minted by the recipe backend. Audience is
// optional; Leeway absorbs clock skew between the two services.
type JWTConfig struct {
	Secret    string        `envconfig:"ZJ_JWT_SECRET" required:"true"`
	Issuer    string        `envconfig:"ZJ_JWT_ISSUER" default:"zauberjournal"`
	Audience  string        `envconfig:"ZJ_JWT_AUDIENCE"`
	Leeway    time.Duration `envconfig:"ZJ_JWT_LEEWAY" default:"30s"`
	AccessTTL time.Duration `envconfig:"ZJ_JWT_ACCESS_TTL" default:"1h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ZJ_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ZJ_AUTO_MIGRATE" default:"false"`
}

type IconsConfig struct {
	BaseURL         string        `envconfig:"ZJ_ICONS_API_BASE_URL" default:"http://localhost:8080"`
	FetchTimeout    time.Duration `envconfig:"ZJ_ICONS_FETCH_TIMEOUT" default:"10s"`
	RefreshInterval time.Duration `envconfig:"ZJ_ICONS_REFRESH_INTERVAL" default:"0s"`
}

// RefreshEnabled reports whether the periodic cache refresh job should run.
func (i IconsConfig) RefreshEnabled() bool {
	return i.RefreshInterval > 0
}

type NotificationsConfig struct {
	SuccessDuration time.Duration `envconfig:"ZJ_NOTIFY_SUCCESS_DURATION" default:"4s"`
	ErrorDuration   time.Duration `envconfig:"ZJ_NOTIFY_ERROR_DURATION" default:"6s"`
	InfoDuration    time.Duration `envconfig:"ZJ_NOTIFY_INFO_DURATION" default:"4s"`
	WarningDuration time.Duration `envconfig:"ZJ_NOTIFY_WARNING_DURATION" default:"5s"`
}

func (n NotificationsConfig) validate() error {
	durations := map[string]time.Duration{
		EnvNotifySuccessDuration: n.SuccessDuration,
		EnvNotifyErrorDuration:   n.ErrorDuration,
		EnvNotifyInfoDuration:    n.InfoDuration,
		EnvNotifyWarningDuration: n.WarningDuration,
	}
	for key, d := range durations {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	return nil
}

// RateLimitConfig throttles the public notification POST per client IP.
// A zero window or limit disables the limiter.
type RateLimitConfig struct {
	NotifyWindow time.Duration `envconfig:"ZJ_RATE_LIMIT_NOTIFY_WINDOW" default:"1m"`
	NotifyLimit  int           `envconfig:"ZJ_RATE_LIMIT_NOTIFY_LIMIT" default:"30"`
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
