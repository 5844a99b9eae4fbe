package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// Enabled reports whether a database host is configured. Without one the
// service runs on the in-memory store.
func (c DatabaseConfig) Enabled() bool { return c.Host != "" }

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether attachment storage is configured.
func (c MinIOConfig) Enabled() bool { return c.Endpoint != "" }

// AuthConfig holds session token and login throttling settings.
type AuthConfig struct {
	Secret          string
	Issuer          string
	TokenTTLMin     int
	LoginRatePerSec int
	LoginRateBurst  int
}

// TokenTTL returns the session lifetime.
func (c AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMin) * time.Minute
}

// SchedulerConfig holds the periods of the background tasks.
type SchedulerConfig struct {
	ReminderIntervalSec int
	DeliveryIntervalSec int
}

func (c SchedulerConfig) ReminderInterval() time.Duration {
	return time.Duration(c.ReminderIntervalSec) * time.Second
}

func (c SchedulerConfig) DeliveryInterval() time.Duration {
	return time.Duration(c.DeliveryIntervalSec) * time.Second
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	Port      string
	Timezone  string
	SiteName  string
	SeedFile  string
	Database  DatabaseConfig
	MinIO     MinIOConfig
	Auth      AuthConfig
	Scheduler SchedulerConfig

	// Reminders is the default threshold set used until an admin saves settings.
	// Invalid entries in REMINDER_DAYS are dropped and reported in ReminderErr.
	Reminders   ReminderConfig
	ReminderErr error
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	reminders, remErr := ParseThresholds(getEnv("REMINDER_DAYS", DefaultReminderDays))
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		SiteName: getEnv("SITE_NAME", "Compliance CMS"),
		SeedFile: getEnv("SEED_FILE", ""),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Auth: AuthConfig{
			Secret:          getEnv("AUTH_SECRET", ""),
			Issuer:          getEnv("AUTH_ISSUER", "cmsapi"),
			TokenTTLMin:     getEnvInt("AUTH_TOKEN_TTL_MIN", 480),
			LoginRatePerSec: getEnvInt("LOGIN_RATE_PER_SEC", 1),
			LoginRateBurst:  getEnvInt("LOGIN_RATE_BURST", 5),
		},
		Scheduler: SchedulerConfig{
			ReminderIntervalSec: getEnvInt("REMINDER_INTERVAL_SEC", 60),
			DeliveryIntervalSec: getEnvInt("DELIVERY_INTERVAL_SEC", 8),
		},
		Reminders:   reminders,
		ReminderErr: remErr,
	}
}

// Location resolves Timezone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
