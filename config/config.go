// config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings, read from the environment (and .env if present)
type Config struct {
	Env      string
	Port     string
	LogLevel string

	MongoURI string
	DBName   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret    string
	JWTExpiresIn time.Duration

	OTPStore       string // "memory" or "redis"
	OTPTTL         time.Duration
	OTPMaxAttempts int

	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	FromEmail string

	StorageBackend          string // "local" or "firebase"
	UploadDir               string
	FirebaseProjectID       string
	FirebaseBucket          string
	FirebaseCredentialsFile string
	FirebaseCredentials64   string

	CORSAllowedOrigins []string
}

// LoadEnvFile loads .env into the process environment. A missing file is not an error.
func LoadEnvFile(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Load reads the configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnv("PORT", "5000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		MongoURI: firstEnv("MONGO_URI", "MONGODB_URI"),
		DBName:   getEnv("DB_NAME", "moviemania"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		OTPStore: strings.ToLower(getEnv("OTP_STORE", "memory")),

		SMTPHost:  os.Getenv("SMTP_HOST"),
		SMTPUser:  os.Getenv("SMTP_USER"),
		SMTPPass:  os.Getenv("SMTP_PASS"),
		FromEmail: firstEnv("FROM_EMAIL", "EMAIL_USER"),

		StorageBackend:          strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
		UploadDir:               getEnv("UPLOAD_DIR", "uploads"),
		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseBucket:          os.Getenv("FIREBASE_BUCKET"),
		FirebaseCredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		FirebaseCredentials64:   os.Getenv("FIREBASE_CREDENTIALS_BASE64"),

		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if cfg.OTPMaxAttempts, err = getInt("OTP_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.JWTExpiresIn, err = getDuration("JWT_EXPIRES_IN", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.OTPTTL, err = getDuration("OTP_TTL", time.Hour); err != nil {
		return nil, err
	}

	if cfg.MongoURI == "" {
		if cfg.IsDevelopment() {
			cfg.MongoURI = "mongodb://localhost:27017"
		} else {
			return nil, errors.New("MONGO_URI or MONGODB_URI environment variable is required for production")
		}
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}
	switch cfg.OTPStore {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("invalid OTP_STORE %q: must be memory or redis", cfg.OTPStore)
	}
	switch cfg.StorageBackend {
	case "local", "firebase":
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND %q: must be local or firebase", cfg.StorageBackend)
	}

	return cfg, nil
}

// IsDevelopment reports whether ENV is development or dev
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

// SMTPConfigured reports whether outgoing mail can be sent
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPass != "" && c.FromEmail != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
