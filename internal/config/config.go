package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverCloudinary = "cloudinary"
	DriverLocal      = "local"
	DriverMinio      = "minio"
)

const (
	defaultPort          = "5001"
	defaultDatabaseURL   = "imagevault.db"
	defaultJWTSecret     = "change-me-jwt-secret"
	defaultJWTTTL        = "24h"
	defaultStoreTimeout  = "15s"
	defaultUploadDir     = "./uploads"
	defaultPublicBase    = "/uploads"
	defaultCloudFolder   = "uploads"
	defaultMaxFileSize   = 5 << 20
	defaultMaxBatchFiles = 5
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	StorageDriver string
	StoreTimeout  time.Duration
	MaxFileSize   int64
	MaxBatchFiles int

	CloudinaryURL    string
	CloudinaryFolder string

	UploadDir        string
	UploadPublicBase string

	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioUseSSL     bool
	MinioPublicBase string

	// APIKey, when set, is required as X-API-Key on every /api request.
	APIKey             string
	CORSAllowedOrigins []string
}

// Load reads a .env file (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading from environment")
	}
	return FromEnv()
}

// FromEnv builds the config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))

	defaultDriver := DriverLocal
	if isProdLike(cfg.AppEnv) {
		defaultDriver = DriverCloudinary
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(getEnv("STORAGE_DRIVER", defaultDriver)))

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.StoreTimeout, err = parseDurationEnv("STORE_TIMEOUT", defaultStoreTimeout); err != nil {
		return nil, err
	}
	maxFileSize, err := parseIntEnv("MAX_FILE_SIZE", defaultMaxFileSize)
	if err != nil {
		return nil, err
	}
	cfg.MaxFileSize = int64(maxFileSize)
	if cfg.MaxBatchFiles, err = parseIntEnv("MAX_BATCH_FILES", defaultMaxBatchFiles); err != nil {
		return nil, err
	}

	cfg.CloudinaryURL = strings.TrimSpace(os.Getenv("CLOUDINARY_URL"))
	cfg.CloudinaryFolder = strings.TrimSpace(getEnv("CLOUDINARY_FOLDER", defaultCloudFolder))

	cfg.UploadDir = strings.TrimSpace(getEnv("UPLOAD_DIR", defaultUploadDir))
	cfg.UploadPublicBase = strings.TrimRight(strings.TrimSpace(getEnv("UPLOAD_PUBLIC_BASE", defaultPublicBase)), "/")

	cfg.MinioEndpoint = strings.TrimSpace(os.Getenv("MINIO_ENDPOINT"))
	cfg.MinioAccessKey = strings.TrimSpace(os.Getenv("MINIO_ACCESS_KEY"))
	cfg.MinioSecretKey = strings.TrimSpace(os.Getenv("MINIO_SECRET_KEY"))
	cfg.MinioBucket = strings.TrimSpace(getEnv("MINIO_BUCKET", "images"))
	cfg.MinioUseSSL = parseBoolEnv("MINIO_USE_SSL", "false")
	cfg.MinioPublicBase = strings.TrimSpace(os.Getenv("MINIO_PUBLIC_BASE"))

	cfg.APIKey = strings.TrimSpace(os.Getenv("API_KEY"))
	if extra := os.Getenv("CORS_ALLOWED_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV names a production-like environment.
func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be > 0")
	}
	if cfg.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be > 0")
	}
	if cfg.MaxBatchFiles <= 0 {
		return fmt.Errorf("MAX_BATCH_FILES must be > 0")
	}

	switch cfg.StorageDriver {
	case DriverCloudinary:
		if cfg.CloudinaryURL == "" {
			return fmt.Errorf("CLOUDINARY_URL is required when STORAGE_DRIVER=cloudinary")
		}
	case DriverLocal:
		if cfg.UploadDir == "" {
			return fmt.Errorf("UPLOAD_DIR must not be empty")
		}
	case DriverMinio:
		if cfg.MinioEndpoint == "" || cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" {
			return fmt.Errorf("MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when STORAGE_DRIVER=minio")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of: cloudinary, local, minio")
	}

	if isProdLike(cfg.AppEnv) && isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
		return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
