package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"taskboard/internal/logger"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// StorageDriver selects the persistence backend: "postgres" or "memory".
	StorageDriver string

	ServerPort string
	JWTSecret  string
	JWTExpiry  time.Duration

	// NATSURL enables cross-instance event relay when set.
	NATSURL string
	// RedisURL enables the distributed per-task lock when set.
	RedisURL     string
	RedisLockTTL time.Duration

	SubscriberBuffer int
	RecentLogLimit   int

	Log logger.Config
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("⚠️  No .env file found, using system environment variables")
	}

	return &Config{
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "taskboard"),
		DBPassword:    getEnv("DB_PASSWORD", "taskboard"),
		DBName:        getEnv("DB_NAME", "taskboard"),
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		StorageDriver: getEnv("STORAGE_DRIVER", "postgres"),
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		JWTSecret:     getEnv("JWT_SECRET", "supersecretkey"),
		JWTExpiry:     time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		NATSURL:       getEnv("NATS_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisLockTTL:  time.Duration(getEnvInt("REDIS_LOCK_TTL_MS", 5000)) * time.Millisecond,

		SubscriberBuffer: getEnvInt("SUBSCRIBER_BUFFER", 64),
		RecentLogLimit:   getEnvInt("RECENT_LOG_LIMIT", 20),

		Log: logger.Config{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			Output:     getEnv("LOG_OUTPUT", "stdout"),
			FilePath:   getEnv("LOG_FILE_PATH", "logs/taskboard.log"),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnv("LOG_COMPRESS", "true") == "true",
		},
	}
}

// DSN returns the keyword/value connection string used by gorm.
func (c *Config) DSN() string {
	return "host=" + c.DBHost + " port=" + c.DBPort + " user=" + c.DBUser +
		" password=" + c.DBPassword + " dbname=" + c.DBName + " sslmode=" + c.DBSSLMode
}

// MigrationURL returns the URL form expected by the golang-migrate pgx driver.
func (c *Config) MigrationURL() string {
	return "pgx5://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort +
		"/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", value)
		return defaultVal
	}
	return n
}
