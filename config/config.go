package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv    string
	JWTSecret string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPass     string
	DBName     string
	DBNameTest string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	MinioHost     string
	MinioPort     string
	MinioUsername string
	MinioPassword string
	MinioUseSSL   bool

	RabbitMQURL   string
	RabbitMQHost  string
	RabbitMQPort  string
	RabbitMQUser  string
	RabbitMQPass  string
	RabbitMQVhost string

	CdnDriver        string
	CdnLocalRoot     string
	CdnCacheDir      string
	CdnCacheMaxAge   time.Duration
	CdnPublicBaseURL string
	CdnSecureBaseURL string

	TrashRetentionDays        int
	PermittedDimensions       []string
	AllowDangerousTransform   bool
	BucketDefaultAllowedTypes []string
	BucketDefaultMaxSize      int64

	ExpiringURLDuration time.Duration

	ImportHTTPTimeout  time.Duration
	ImportAllowPrivate bool
	ImportAllowedHosts []string
	ImportMaxBytes     int64
	ImportRate         float64
	ImportBurst        int
	ImportNotifyEmail  bool
}

var AppConfig Config

// getEnv returns the environment value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if value == "" {
		return defaultValue
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// InitConfig loads configuration from .env (if present) and the environment.
func InitConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment")
	}

	rabbitHost := getEnv("RABBITMQ_HOST", "localhost")
	rabbitPort := getEnv("RABBITMQ_PORT", "5672")
	rabbitUser := getEnv("RABBITMQ_USER", "guest")
	rabbitPass := getEnv("RABBITMQ_PASSWORD", "guest")
	rabbitVhost := getEnv("RABBITMQ_VHOST", "/")
	rabbitURL := getEnv("RABBITMQ_URL", "")
	if rabbitURL == "" {
		rabbitURL = fmt.Sprintf(
			"amqp://%s:%s@%s:%s/%s",
			url.PathEscape(rabbitUser),
			url.PathEscape(rabbitPass),
			rabbitHost,
			rabbitPort,
			url.PathEscape(rabbitVhost),
		)
	}

	AppConfig = Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		JWTSecret: getEnv("JWT_SECRET", "l=ax+b"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPass:     getEnv("DB_PASS", "root"),
		DBName:     getEnv("DB_NAME", "MediaVault"),
		DBNameTest: getEnv("DB_NAME_TEST", "MediaVault_Test"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioHost:     getEnv("MINIO_HOST", "localhost"),
		MinioPort:     getEnv("MINIO_PORT", "9000"),
		MinioUsername: getEnv("MINIO_USERNAME", "minioadmin"),
		MinioPassword: getEnv("MINIO_PASSWORD", "minioadmin"),
		MinioUseSSL:   getEnvBool("MINIO_USE_SSL", false),

		RabbitMQURL:   rabbitURL,
		RabbitMQHost:  rabbitHost,
		RabbitMQPort:  rabbitPort,
		RabbitMQUser:  rabbitUser,
		RabbitMQPass:  rabbitPass,
		RabbitMQVhost: rabbitVhost,

		CdnDriver:        getEnv("CDN_DRIVER", "local"),
		CdnLocalRoot:     getEnv("CDN_LOCAL_ROOT", "./data/cdn"),
		CdnCacheDir:      getEnv("CDN_CACHE_DIR", "./data/cache"),
		CdnCacheMaxAge:   getEnvDuration("CDN_CACHE_MAX_AGE", 0),
		CdnPublicBaseURL: getEnv("CDN_PUBLIC_BASE_URL", "http://localhost:8000/cdn"),
		CdnSecureBaseURL: getEnv("CDN_SECURE_BASE_URL", ""),

		TrashRetentionDays:        getEnvInt("TRASH_RETENTION_DAYS", 180),
		PermittedDimensions:       getEnvList("CDN_PERMITTED_DIMENSIONS", []string{"100x100", "150x150", "300x300", "640x480", "800x600", "1024x768"}),
		AllowDangerousTransform:   getEnvBool("CDN_ALLOW_DANGEROUS_TRANSFORM", false),
		BucketDefaultAllowedTypes: getEnvList("CDN_DEFAULT_ALLOWED_TYPES", []string{"jpg", "jpeg", "png", "gif", "pdf", "txt", "zip", "mp4"}),
		BucketDefaultMaxSize:      getEnvInt64("CDN_DEFAULT_MAX_SIZE", 50*1024*1024),

		ExpiringURLDuration: getEnvDuration("CDN_EXPIRING_URL_DURATION", 15*time.Minute),

		ImportHTTPTimeout:  getEnvDuration("IMPORT_HTTP_TIMEOUT", 30*time.Minute),
		ImportAllowPrivate: getEnvBool("IMPORT_ALLOW_PRIVATE", false),
		ImportAllowedHosts: getEnvList("IMPORT_ALLOW_HOSTS", nil),
		ImportMaxBytes:     getEnvInt64("IMPORT_MAX_BYTES", 0),
		ImportRate:         getEnvFloat("IMPORT_RATE", 2),
		ImportBurst:        getEnvInt("IMPORT_BURST", 4),
		ImportNotifyEmail:  getEnvBool("IMPORT_NOTIFY_EMAIL", false),
	}
}
