package config

const (
	EnvPrefix = "INCENTIVES"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "INCENTIVES_APP_ENV"
	EnvPort     = "INCENTIVES_APP_PORT"
	EnvLogLevel = "INCENTIVES_LOG_LEVEL"
	EnvTimezone = "INCENTIVES_TIMEZONE"

	EnvDBDSN        = "INCENTIVES_DB_DSN"
	EnvDBDriver     = "INCENTIVES_DB_DRIVER"
	EnvDBHost       = "INCENTIVES_DB_HOST"
	EnvDBUser       = "INCENTIVES_DB_USER"
	EnvDBName       = "INCENTIVES_DB_NAME"
	EnvDBSQLitePath = "INCENTIVES_DB_SQLITE_PATH"

	EnvRedisURL = "INCENTIVES_REDIS_URL"

	EnvJWTSecret              = "INCENTIVES_JWT_SECRET"
	EnvJWTIssuer              = "INCENTIVES_JWT_ISSUER"
	EnvJWTExpMins             = "INCENTIVES_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "INCENTIVES_REFRESH_TOKEN_TTL_MINUTES"

	EnvUseSQLite   = "INCENTIVES_USE_SQLITE"
	EnvAutoMigrate = "INCENTIVES_AUTO_MIGRATE"

	EnvUploadDir       = "INCENTIVES_UPLOAD_DIR"
	EnvIngestBatchSize = "INCENTIVES_INGEST_BATCH_SIZE"
	EnvPollInterval    = "INCENTIVES_INGEST_POLL_INTERVAL"
	EnvMaxUploadMB     = "INCENTIVES_MAX_UPLOAD_MB"

	EnvLeaderboardTopN = "INCENTIVES_LEADERBOARD_TOP_N"
	EnvRankingCacheTTL = "INCENTIVES_RANKING_CACHE_TTL"

	// DATABASE_URL is what Render and Heroku inject for managed Postgres.
	EnvPlatformDatabaseURL = "DATABASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
