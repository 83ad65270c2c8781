package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/filekeep/internal/filekeep/domain"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/objstore"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/service"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/store/drivers/sqlstore"
	"github.com/aussiebroadwan/filekeep/pkg/httpx"
	"github.com/aussiebroadwan/filekeep/pkg/jwtx"
	"github.com/aussiebroadwan/filekeep/pkg/throttle"
	"github.com/joho/godotenv"
)

type Config struct {
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Usage recompute interval (default: 1h)

	DatabaseDriver string // sqlite or postgres (default: sqlite)
	DatabaseDSN    string // default: file:filekeep.db

	ObjectStore objstore.Config

	CacheDriver   string // redis or memory (default: memory)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheSize     int // memory driver entry bound
	IdentityTTL   time.Duration

	SessionSecret string // HMAC key for session tokens, required in prod
	SessionTTL    time.Duration
	PepperFile    string

	LoginLimit  int
	LoginWindow time.Duration

	MaxUploadBytes    int64
	DefaultQuotaBytes int64
	AllowedExtensions []string
	StrictQuota       bool

	ConverterBin      string // empty disables conversion
	ConverterArgs     []string
	ConverterTimeout  time.Duration
	ConversionWorkers int
	ConversionQueue   int
	ScratchDir        string

	TrustProxy    bool
	SecureCookies bool
	CSRFEnabled   bool
	RateLimits    httpx.RateLimits
}

// LoadConfig reads the environment, after loading .env and .env.{ENV} when
// present. Variables already set in the environment win over the files.
func LoadConfig() Config {
	env := getEnvOrDefault("ENV", "dev")
	_ = godotenv.Load(".env." + env)
	_ = godotenv.Load(".env")

	cfg := Config{
		Env:                  env,
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		DatabaseDriver: getEnvOrDefault("DATABASE_DRIVER", "sqlite"),
		DatabaseDSN:    getEnvOrDefault("DATABASE_DSN", "file:filekeep.db"),

		ObjectStore: objstore.Config{
			Driver:    getEnvOrDefault("OBJECT_STORE_DRIVER", "memory"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    getEnvOrDefault("S3_REGION", "us-east-1"),
			Bucket:    getEnvOrDefault("S3_BUCKET", "filekeep"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			UseSSL:    getEnvBoolOrDefault("S3_USE_SSL", false),
		},

		CacheDriver:   getEnvOrDefault("CACHE_DRIVER", "memory"),
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("REDIS_DB", 0),
		CacheSize:     getEnvIntOrDefault("CACHE_SIZE", 10000),
		IdentityTTL:   getEnvDurationOrDefault("IDENTITY_CACHE_TTL", service.DefaultIdentityTTL),

		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    getEnvDurationOrDefault("SESSION_TTL", jwtx.DefaultSessionTTL),
		PepperFile:    getEnvOrDefault("PEPPER_FILE", "pepper"),

		LoginLimit:  getEnvIntOrDefault("LOGIN_LIMIT", throttle.DefaultLimit),
		LoginWindow: getEnvDurationOrDefault("LOGIN_WINDOW", throttle.DefaultWindow),

		MaxUploadBytes:    getEnvInt64OrDefault("MAX_UPLOAD_BYTES", service.DefaultMaxUploadBytes),
		DefaultQuotaBytes: getEnvInt64OrDefault("DEFAULT_QUOTA_BYTES", domain.DefaultQuotaBytes),
		AllowedExtensions: getEnvListOrDefault("ALLOWED_EXTENSIONS", service.DefaultAllowedExtensions),
		StrictQuota:       getEnvBoolOrDefault("STRICT_QUOTA", true),

		ConverterBin:      os.Getenv("CONVERTER_BIN"),
		ConverterArgs:     strings.Fields(os.Getenv("CONVERTER_ARGS")),
		ConverterTimeout:  getEnvDurationOrDefault("CONVERTER_TIMEOUT", 10*time.Minute),
		ConversionWorkers: getEnvIntOrDefault("CONVERTER_WORKERS", 2),
		ConversionQueue:   getEnvIntOrDefault("CONVERTER_QUEUE", 64),
		ScratchDir:        os.Getenv("SCRATCH_DIR"),

		TrustProxy:  getEnvBoolOrDefault("TRUST_PROXY", false),
		CSRFEnabled: getEnvBoolOrDefault("CSRF_ENABLED", true),
		RateLimits:  httpx.RateLimitsFromEnv(),
	}

	// cookies default to Secure outside dev
	cfg.SecureCookies = getEnvBoolOrDefault("SECURE_COOKIES", cfg.Env != "dev")

	return cfg
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	var errs []error

	if _, err := sqlstore.ParseDialect(c.DatabaseDriver); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.ObjectStore.Driver) {
	case "memory", "minio", "s3":
	default:
		errs = append(errs, fmt.Errorf("unknown OBJECT_STORE_DRIVER %q", c.ObjectStore.Driver))
	}
	switch strings.ToLower(c.CacheDriver) {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unknown CACHE_DRIVER %q", c.CacheDriver))
	}

	if c.SessionSecret == "" && c.Env == "prod" {
		errs = append(errs, errors.New("SESSION_SECRET is required in prod"))
	}
	if c.SessionSecret != "" && len(c.SessionSecret) < jwtx.MinSecretLength {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d bytes", jwtx.MinSecretLength))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.DefaultQuotaBytes <= 0 {
		errs = append(errs, errors.New("DEFAULT_QUOTA_BYTES must be positive"))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

// getEnvListOrDefault splits a comma separated value, dropping blanks.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
