package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Mail     MailConfig
	SMS      SMSConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// AuthConfig holds token issuance parameters.
type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
}

// MailConfig holds the email channel configuration.
type MailConfig struct {
	SendGridKey string
	FromName    string
	FromAddress string
	// SendTimeout bounds a single delivery attempt so one slow send
	// cannot stall the whole notification fan-out.
	SendTimeout time.Duration
	// RetryAttempts and RetryDelay control the transient-failure retry
	// loop (delay doubles after each failed attempt).
	RetryAttempts int
	RetryDelay    time.Duration
}

// SMSConfig holds the optional phone channel configuration.
type SMSConfig struct {
	Enabled bool
	// DefaultCountryCode is prefixed to numbers without a leading +,
	// after stripping a local trunk 0 (e.g. "+91").
	DefaultCountryCode string
	// SendTimeout bounds a single SMS delivery attempt.
	SendTimeout time.Duration
}

func Load() (*Config, error) {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "meditracker"),
			Password: getEnv("DB_PASSWORD", "meditracker"),
			Database: getEnv("DB_NAME", "meditracker"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
			AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TOKEN_TTL", time.Hour),
			RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TOKEN_TTL", 30*24*time.Hour),
			BcryptCost:      getEnvInt("BCRYPT_COST", 12),
		},
		Mail: MailConfig{
			SendGridKey:   getEnv("SENDGRID_API_KEY", ""),
			FromName:      getEnv("MAIL_FROM_NAME", "MediTracker Emergency Alert"),
			FromAddress:   getEnv("MAIL_FROM_ADDRESS", "alerts@meditracker.app"),
			SendTimeout:   getEnvDuration("MAIL_SEND_TIMEOUT", 30*time.Second),
			RetryAttempts: getEnvInt("MAIL_RETRY_ATTEMPTS", 3),
			RetryDelay:    getEnvDuration("MAIL_RETRY_DELAY", 2*time.Second),
		},
		SMS: SMSConfig{
			Enabled:            getEnvBool("SMS_ENABLED", false),
			DefaultCountryCode: getEnv("SMS_DEFAULT_COUNTRY_CODE", "+91"),
			SendTimeout:        getEnvDuration("SMS_SEND_TIMEOUT", 15*time.Second),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// Plain integers are read as seconds for compatibility with the
		// older deployment env files.
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
