package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the typed configuration for the demo application. The container
// core takes no configuration of its own; this feeds the wiring in main.go.
type Config struct {
	App     AppConfig
	Payment PaymentConfig
	Mail    MailConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
	Port  string
}

// PaymentConfig selects and parameterises the payment gateway binding.
type PaymentConfig struct {
	Provider      string // paypal | stripe
	PayPalKey     string
	PayPalFeeRate float64
	StripeKey     string
	StripeTimeout int // milliseconds
}

type MailConfig struct {
	Host string
	Port string
	From string
}

// Load reads .env (if present) and populates a Config from environment
// variables. Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	for _, f := range files {
		_ = godotenv.Load(f)
	}

	return &Config{
		App: AppConfig{
			Name:  env("APP_NAME", "ChainDI"),
			Env:   env("APP_ENV", "local"),
			Debug: envBool("APP_DEBUG", true),
			Port:  env("APP_PORT", "8000"),
		},
		Payment: PaymentConfig{
			Provider:      env("PAYMENT_PROVIDER", "paypal"),
			PayPalKey:     env("PAYPAL_API_KEY", ""),
			PayPalFeeRate: envFloat("PAYPAL_FEE_RATE", 0.029),
			StripeKey:     env("STRIPE_SECRET_KEY", ""),
			StripeTimeout: envInt("STRIPE_TIMEOUT_MS", 5000),
		},
		Mail: MailConfig{
			Host: env("MAIL_HOST", "localhost"),
			Port: env("MAIL_PORT", "587"),
			From: env("MAIL_FROM_ADDRESS", "orders@example.com"),
		},
	}
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
