package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string
	MySQLDSN   string
	RedisAddr  string
	RedisDB    int
	RedisPass  string

	JWTSecret  string
	SessionTTL time.Duration

	SMTPAddr      string
	SMTPFrom      string
	NotifyTimeout time.Duration

	// Rate limits, per minute.
	LoginLimit  int
	APILimit    int
	AnonLimit   int
	MutateLimit int

	SeedAdminEmail    string
	SeedAdminPassword string

	SwaggerHost string
}

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		MySQLDSN:   getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/userdir?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:    getEnvInt("REDIS_DB", 0),
		RedisPass:  os.Getenv("REDIS_PASSWORD"),

		JWTSecret:  getEnv("JWT_SECRET", "change-me"),
		SessionTTL: time.Duration(getEnvInt("SESSION_TTL_MINUTES", 12*60)) * time.Minute,

		SMTPAddr:      os.Getenv("SMTP_ADDR"),
		SMTPFrom:      getEnv("SMTP_FROM", "no-reply@userdir.local"),
		NotifyTimeout: time.Duration(getEnvInt("NOTIFY_TIMEOUT_SECONDS", 10)) * time.Second,

		LoginLimit:  getEnvInt("RATE_LOGIN_PER_MIN", 5),
		APILimit:    getEnvInt("RATE_API_PER_MIN", 60),
		AnonLimit:   getEnvInt("RATE_ANON_PER_MIN", 30),
		MutateLimit: getEnvInt("RATE_MUTATE_PER_MIN", 10),

		SeedAdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@userdir.local"),
		SeedAdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),

		SwaggerHost: os.Getenv("SWAGGER_HOST"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
