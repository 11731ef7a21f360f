package config

import (
	"os"
	"strconv"
)

// Storage backend identifiers.
const (
	BackendMongo = "mongo"
	BackendFile  = "file"
)

// Config holds everything loaded from the environment at startup.
type Config struct {
	Environment string
	Port        string

	// Storage
	StorageBackend string
	DatabaseURL    string
	DatabaseName   string
	DataDir        string

	// Push provider
	FirebaseCredentials string

	// Optional Redis-backed rate limiting; disabled when RedisURL is empty.
	RedisURL         string
	RateLimitRequest int
	RateLimitWindow  int // minutes
}

// Load reads configuration from the environment with defaults.
func Load() *Config {
	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8080"),

		StorageBackend: getEnv("STORAGE_BACKEND", BackendMongo),
		DatabaseURL:    getEnv("MONGODB_URI", "mongodb://localhost:27017/push_notifications"),
		DatabaseName:   getEnv("MONGODB_DB_NAME", ""),
		DataDir:        getEnv("DATA_DIR", "./data"),

		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),

		RedisURL:         getEnv("REDIS_URL", ""),
		RateLimitRequest: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:  getEnvAsInt("RATE_LIMIT_WINDOW_MINUTES", 1),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
