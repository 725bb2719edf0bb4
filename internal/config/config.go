package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server configuration read from the environment
type Config struct {
	Environment string
	LogLevel    string
	HTTPPort    string

	MongoURI      string
	MongoDatabase string
	RedisAddr     string

	JWTSecret     string
	StaffUsername string
	StaffPassword string

	ReportCacheTTL time.Duration
	SurveyCacheTTL time.Duration
	AllowedOrigins []string

	Payment *PaymentConfig
}

// Load reads .env when present, then the process environment
func Load() *Config {
	_ = godotenv.Load()

	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	redisAddr = strings.TrimPrefix(redisAddr, "redis://")

	return &Config{
		Environment: getEnv("ENVIRONMENT", "local"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "surveys"),
		RedisAddr:     redisAddr,

		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
		StaffUsername: getEnv("STAFF_USERNAME", "staff"),
		StaffPassword: getEnv("STAFF_PASSWORD", "staff"),

		ReportCacheTTL: getDuration("REPORT_CACHE_TTL", time.Hour),
		SurveyCacheTTL: getDuration("SURVEY_CACHE_TTL", 10*time.Minute),
		AllowedOrigins: getList("ALLOWED_ORIGINS", "*"),

		Payment: DefaultPaymentConfig(),
	}
}

// IsLocal reports whether the server runs on a developer machine
func (c *Config) IsLocal() bool {
	return c.Environment == "" || c.Environment == "local"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}

func getList(key, defaultVal string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultVal), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
