package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	Environment string
	ServiceName string
	LogLevel    string

	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	CORSOrigins string
	AdminEmails []string

	CacheTTL time.Duration

	AuthRatePerMinute int
	AuthRateBurst     int

	Storage StorageConfig
}

type StorageConfig struct {
	// Driver is "s3" or "local".
	Driver        string
	Bucket        string
	LocalDir      string
	PublicBaseURL string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSEndpoint        string
	ForcePathStyle     bool
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:        getEnv("SOUQ_ADDR", ":8080"),
		Environment: getEnv("APP_ENV", "development"),
		ServiceName: getEnv("SERVICE_NAME", "souq-backend"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DatabaseURL:     os.Getenv("DATABASE_URL"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  getEnvAsDuration("JWT_TTL", 72*time.Hour),

		CORSOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
		AdminEmails: getEnvAsSlice("ADMIN_EMAILS", ","),

		CacheTTL: getEnvAsDuration("CACHE_TTL", 30*time.Second),

		AuthRatePerMinute: getEnvAsInt("AUTH_RATE_PER_MINUTE", 10),
		AuthRateBurst:     getEnvAsInt("AUTH_RATE_BURST", 5),

		Storage: StorageConfig{
			Driver:             getEnv("STORAGE_DRIVER", "local"),
			Bucket:             getEnv("STORAGE_BUCKET", "product-images"),
			LocalDir:           getEnv("STORAGE_LOCAL_DIR", "./uploads"),
			PublicBaseURL:      getEnv("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080/uploads"),
			AWSRegion:          getEnv("AWS_REGION", "me-south-1"),
			AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			AWSEndpoint:        os.Getenv("AWS_S3_ENDPOINT"),
			ForcePathStyle:     getEnvAsBool("AWS_S3_FORCE_PATH_STYLE", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.Storage.Driver != "s3" && c.Storage.Driver != "local" {
		return errors.New("STORAGE_DRIVER must be s3 or local")
	}
	if c.Storage.Driver == "s3" && c.Storage.Bucket == "" {
		return errors.New("STORAGE_BUCKET is required for the s3 driver")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvAsSlice(key, sep string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	out := make([]string, 0)
	for _, part := range strings.Split(raw, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
