package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	LogLevel string
	Port     uint16

	// BaseURL is this server's externally reachable address, used to
	// build checkout success/cancel URLs.
	BaseURL string

	// AllowedOrigins are the browser origins permitted to call the API.
	AllowedOrigins []string

	// StaticDir holds product and category images. Empty disables the
	// static file route.
	StaticDir string

	Cart   CartConfig
	Stripe StripeConfig
	Sentry SentryConfig

	// CatalogLatency simulates upstream latency in the mock catalog.
	CatalogLatency time.Duration
}

// CartConfig selects the cart persistence backend and pricing rules.
type CartConfig struct {
	Backend       string // "file" or "redis"
	Dir           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration

	ShippingFlatCents          int64
	FreeShippingThresholdCents int64
	Currency                   string
}

// SentryConfig enables error tracking when a DSN is provided.
type SentryConfig struct {
	DSN     string
	Release string
}

type StripeConfig struct {
	SecretKey                string
	PublishableKey           string
	EnableAutomaticTax       bool
	AllowedShippingCountries []string
	SettleOnProcessing       bool
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
		}
	}

	cfg := &Config{
		Env:            getEnv("ENV", "dev"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Port:           getEnvInt("PORT", 3000),
		BaseURL:        getEnv("BASE_URL", "http://localhost:3000"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3001"}),
		StaticDir:      getEnv("STATIC_DIR", "./web/static"),
		Cart: CartConfig{
			Backend:                    getEnv("CART_BACKEND", "file"),
			Dir:                        getEnv("CART_DIR", "./data/carts"),
			RedisAddr:                  getEnv("REDIS_ADDR", ""),
			RedisPassword:              getEnv("REDIS_PASSWORD", ""),
			RedisDB:                    int(getEnvInt("REDIS_DB", 0)),
			TTL:                        getEnvDuration("CART_TTL", 30*24*time.Hour),
			ShippingFlatCents:          getEnvInt64("SHIPPING_FLAT_CENTS", 500),
			FreeShippingThresholdCents: getEnvInt64("FREE_SHIPPING_THRESHOLD_CENTS", 10000),
			Currency:                   getEnv("CURRENCY", "usd"),
		},
		Stripe: StripeConfig{
			SecretKey:                getEnv("STRIPE_SECRET_KEY", ""),
			PublishableKey:           getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			EnableAutomaticTax:       getEnvBool("STRIPE_AUTOMATIC_TAX", false),
			AllowedShippingCountries: getEnvList("SHIPPING_COUNTRIES", []string{"US", "CA", "GB", "AU", "VN"}),
			SettleOnProcessing:       getEnvBool("SETTLE_ON_PROCESSING", true),
		},
		Sentry: SentryConfig{
			DSN:     getEnv("SENTRY_DSN", ""),
			Release: getEnv("SENTRY_RELEASE", ""),
		},
		CatalogLatency: getEnvDuration("CATALOG_LATENCY", 0),
	}

	// Validate env
	validEnv := cfg.Env == "dev" || cfg.Env == "prod"
	if !validEnv {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}

	// Validate log level
	validLevel := cfg.LogLevel == "info" || cfg.LogLevel == "debug" || cfg.LogLevel == "warn" || cfg.LogLevel == "error"
	if !validLevel {
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	if cfg.Env == "prod" && cfg.Stripe.SecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY must be set in production environment")
	}
	if cfg.Cart.Backend == "redis" && cfg.Cart.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR required when CART_BACKEND=redis")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue uint16) uint16 {
	if value := os.Getenv(key); value != "" {
		var intValue uint16
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		var intValue int64
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
