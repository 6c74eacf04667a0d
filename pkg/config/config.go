package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Ingest        IngestConfig
	Ranking       RankingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"INCENTIVES_APP_ENV" required:"true"`
	Port         string   `envconfig:"INCENTIVES_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"INCENTIVES_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"INCENTIVES_LOG_WARN_STACK" default:"false"`
	Timezone     string   `envconfig:"INCENTIVES_TIMEZONE" default:"UTC"`
	CORSOrigins  []string `envconfig:"INCENTIVES_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the timezone that time filters are evaluated in.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvTimezone, name, err)
	}
	return loc, nil
}

type DBConfig struct {
	DSN        string `envconfig:"INCENTIVES_DB_DSN"`
	Driver     string `envconfig:"INCENTIVES_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"INCENTIVES_DB_SQLITE_PATH" default:"incentives.db"`

	LegacyHost     string `envconfig:"INCENTIVES_DB_HOST"`
	LegacyPort     int    `envconfig:"INCENTIVES_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"INCENTIVES_DB_USER"`
	LegacyPassword string `envconfig:"INCENTIVES_DB_PASSWORD"`
	LegacyName     string `envconfig:"INCENTIVES_DB_NAME"`
	LegacySSLMode  string `envconfig:"INCENTIVES_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"INCENTIVES_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"INCENTIVES_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"INCENTIVES_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INCENTIVES_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"INCENTIVES_DB_SLOW_QUERY" default:"500ms"`
}

// IsSQLite reports whether the local file-backed store is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"INCENTIVES_REDIS_URL" required:"true"`
	Address      string        `envconfig:"INCENTIVES_REDIS_ADDR"`
	Password     string        `envconfig:"INCENTIVES_REDIS_PASSWORD"`
	DB           int           `envconfig:"INCENTIVES_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INCENTIVES_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INCENTIVES_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INCENTIVES_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INCENTIVES_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INCENTIVES_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"INCENTIVES_REDIS_KEY_PREFIX" default:"incentives"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"INCENTIVES_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"INCENTIVES_JWT_ISSUER" default:"warehouse-incentives"`
	ExpirationMinutes      int    `envconfig:"INCENTIVES_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"INCENTIVES_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"INCENTIVES_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"INCENTIVES_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"INCENTIVES_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"INCENTIVES_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"INCENTIVES_ARGON_KEY_LEN" default:"32"`
	MinLength        int `envconfig:"INCENTIVES_PASSWORD_MIN_LENGTH" default:"6"`
}

type AuthRateLimitConfig struct {
	LoginWindow       time.Duration `envconfig:"INCENTIVES_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginPickerLimit  int           `envconfig:"INCENTIVES_AUTH_RATE_LIMIT_LOGIN_PICKER_LIMIT" default:"5"`
	LoginIPLimit      int           `envconfig:"INCENTIVES_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"30"`
	PasswordWindow    time.Duration `envconfig:"INCENTIVES_AUTH_RATE_LIMIT_PASSWORD_WINDOW" default:"5m"`
	PasswordIPLimit   int           `envconfig:"INCENTIVES_AUTH_RATE_LIMIT_PASSWORD_IP_LIMIT" default:"10"`
	PasswordUserLimit int           `envconfig:"INCENTIVES_AUTH_RATE_LIMIT_PASSWORD_USER_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"INCENTIVES_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"INCENTIVES_AUTO_MIGRATE" default:"false"`
}

type IngestConfig struct {
	UploadDir    string        `envconfig:"INCENTIVES_UPLOAD_DIR" default:"csv_uploads"`
	BatchSize    int           `envconfig:"INCENTIVES_INGEST_BATCH_SIZE" default:"500"`
	PollInterval time.Duration `envconfig:"INCENTIVES_INGEST_POLL_INTERVAL" default:"10m"`
	MaxUploadMB  int           `envconfig:"INCENTIVES_MAX_UPLOAD_MB" default:"50"`
	ReplayTTL    time.Duration `envconfig:"INCENTIVES_IDEMPOTENCY_TTL" default:"24h"`
}

// MaxUploadBytes converts the configured upload ceiling into bytes.
func (i IngestConfig) MaxUploadBytes() int64 {
	if i.MaxUploadMB <= 0 {
		return 50 << 20
	}
	return int64(i.MaxUploadMB) << 20
}

type RankingConfig struct {
	LeaderboardTopN int           `envconfig:"INCENTIVES_LEADERBOARD_TOP_N" default:"15"`
	CacheTTL        time.Duration `envconfig:"INCENTIVES_RANKING_CACHE_TTL" default:"0s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.IsSQLite() {
		if strings.TrimSpace(db.SQLitePath) == "" {
			return fmt.Errorf("%s is required when the sqlite driver is selected", EnvDBSQLitePath)
		}
		return nil
	}
	if db.DSN == "" {
		db.DSN = os.Getenv(EnvPlatformDatabaseURL)
	}
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
