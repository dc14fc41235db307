package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable (e.g. "5s") or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// GetFloatEnv returns a float environment variable or a default value.
func GetFloatEnv(key string, defaultVal float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

type Config struct {
	Port        string
	CORSOrigins string

	// Storage is "postgres" or "memory".
	Storage  string
	Timezone string

	DB    DBConfig
	Redis RedisConfig
	Kafka KafkaConfig

	JWTSecret string
	JWTTTL    time.Duration
	AuthLimit int

	Payment PaymentConfig
	Retry   RetryConfig

	DefaultCurrency string
	NearbyRadiusKm  float64

	ReconcileEvery time.Duration
	ReconcileAfter time.Duration
}

type DBConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MigrationsPath string
	MaxIdleConns   int
	MaxOpenConns   int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
}

type PaymentConfig struct {
	Provider      string // "stripe" or "sandbox"
	KeyID         string
	KeySecret     string
	SigningSecret string
	StripeKey     string
	Timeout       time.Duration
	RatePerSecond int

	// StripeWebhookSecret verifies Stripe-Signature headers on webhooks.
	StripeWebhookSecret string
}

type RetryConfig struct {
	Attempts int
	Backoff  time.Duration
}

// Load builds the application configuration from the environment.
func Load() *Config {
	var brokers []string
	if raw := GetEnv("KAFKA_BROKERS", ""); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	keySecret := GetEnv("PAYMENT_KEY_SECRET", "scanpay-dev-secret")

	return &Config{
		Port:        GetEnv("PORT", "10000"),
		CORSOrigins: GetEnv("CORS_ORIGINS", "*"),
		Storage:     GetEnv("STORAGE", "postgres"),
		Timezone:    GetEnv("STORE_TIMEZONE", "Asia/Kolkata"),
		DB: DBConfig{
			Host:           GetEnv("DB_HOST", "localhost"),
			Port:           GetEnv("DB_PORT", "5432"),
			User:           GetEnv("DB_USER", "postgres"),
			Password:       GetEnv("DB_PASSWORD", "postgres"),
			Name:           GetEnv("DB_NAME", "scanpay"),
			SSLMode:        GetEnv("DB_SSLMODE", "disable"),
			MigrationsPath: GetEnv("MIGRATIONS_PATH", ""),
			MaxIdleConns:   GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:   GetIntEnv("DB_MAX_OPEN_CONNS", 100),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{Brokers: brokers},

		JWTSecret: GetEnv("JWT_SECRET", "scanpay"),
		JWTTTL:    GetDurationEnv("JWT_TTL", 7*24*time.Hour),
		AuthLimit: GetIntEnv("AUTH_RATE_LIMIT", 5),

		Payment: PaymentConfig{
			Provider:      GetEnv("PAYMENT_PROVIDER", "sandbox"),
			KeyID:         GetEnv("PAYMENT_KEY_ID", "sandbox_key"),
			KeySecret:     keySecret,
			SigningSecret: GetEnv("PAYMENT_SIGNING_SECRET", keySecret),
			StripeKey:     GetEnv("STRIPE_SECRET_KEY", ""),
			Timeout:       GetDurationEnv("PAYMENT_TIMEOUT", 10*time.Second),
			RatePerSecond: GetIntEnv("PAYMENT_RATE_PER_SECOND", 25),

			StripeWebhookSecret: GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
		Retry: RetryConfig{
			Attempts: GetIntEnv("RETRY_ATTEMPTS", 3),
			Backoff:  GetDurationEnv("RETRY_BACKOFF", 200*time.Millisecond),
		},

		DefaultCurrency: GetEnv("DEFAULT_CURRENCY", "INR"),
		NearbyRadiusKm:  GetFloatEnv("NEARBY_RADIUS_KM", 5),

		ReconcileEvery: GetDurationEnv("RECONCILE_EVERY", time.Minute),
		ReconcileAfter: GetDurationEnv("RECONCILE_AFTER", 30*time.Minute),
	}
}

// Validate rejects payment setups under which no order could ever be paid:
// the sandbox signer is not served in production, and Stripe orders are only
// settled by signed webhooks.
func (c *Config) Validate(production bool) error {
	switch c.Payment.Provider {
	case "stripe":
		if c.Payment.StripeKey == "" {
			return errors.New("STRIPE_SECRET_KEY is required for the stripe provider")
		}
		if c.Payment.StripeWebhookSecret == "" {
			return errors.New("STRIPE_WEBHOOK_SECRET is required for the stripe provider")
		}
	case "sandbox", "":
		if production {
			return errors.New("the sandbox payment provider cannot run in production")
		}
	default:
		return errors.New("unknown PAYMENT_PROVIDER " + c.Payment.Provider)
	}
	return nil
}
