package config

import "time"

// APIConfig holds runtime configuration for the telemetry API service.
type APIConfig struct {
	Environment        string
	Addr               string
	DatabaseURL        string
	MigrationsDir      string
	LogLevel           string
	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
	IngestRateLimit    int
	IngestRateWindow   time.Duration
	QueryRateLimit     int
	QueryRateWindow    time.Duration
	DefaultQueryRange  time.Duration
	StreamHeartbeat    time.Duration
	ShutdownTimeout    time.Duration
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:        GetString("APP_ENV", "development"),
		Addr:               GetString("API_ADDR", ":8000"),
		DatabaseURL:        GetString("DATABASE_URL", "postgres://cylestio:cylestio@db:5432/cylestio?sslmode=disable"),
		MigrationsDir:      GetString("DB_MIGRATIONS_DIR", "./migrations"),
		LogLevel:           GetString("LOG_LEVEL", "info"),
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
		IngestRateLimit:    GetInt("INGEST_RATE_LIMIT", 600),
		IngestRateWindow:   time.Duration(GetInt("INGEST_RATE_WINDOW_SECONDS", 60)) * time.Second,
		QueryRateLimit:     GetInt("QUERY_RATE_LIMIT", 120),
		QueryRateWindow:    time.Duration(GetInt("QUERY_RATE_WINDOW_SECONDS", 60)) * time.Second,
		DefaultQueryRange:  time.Duration(GetInt("METRICS_DEFAULT_RANGE_HOURS", 24)) * time.Hour,
		StreamHeartbeat:    time.Duration(GetInt("STREAM_HEARTBEAT_SECONDS", 30)) * time.Second,
		ShutdownTimeout:    time.Duration(GetInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}
