package config_test

import (
	"testing"

	"github.com/km-arc/go-chaindi/config"
)

// ── Load ─────────────────────────────────────────────────────────────────────

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load("testdata/nonexistent.env")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"App.Name", cfg.App.Name, "ChainDI"},
		{"App.Env", cfg.App.Env, "local"},
		{"App.Port", cfg.App.Port, "8000"},
		{"Payment.Provider", cfg.Payment.Provider, "paypal"},
		{"Mail.Port", cfg.Mail.Port, "587"},
		{"Mail.From", cfg.Mail.From, "orders@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}

	if cfg.Payment.PayPalFeeRate != 0.029 {
		t.Errorf("PayPalFeeRate: got %v, want 0.029", cfg.Payment.PayPalFeeRate)
	}
	if cfg.Payment.StripeTimeout != 5000 {
		t.Errorf("StripeTimeout: got %v, want 5000", cfg.Payment.StripeTimeout)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("APP_NAME", "MyApp")
	t.Setenv("APP_ENV", "production")
	t.Setenv("PAYMENT_PROVIDER", "stripe")
	t.Setenv("STRIPE_TIMEOUT_MS", "250")

	cfg := config.Load("testdata/nonexistent.env")

	if cfg.App.Name != "MyApp" {
		t.Errorf("App.Name: got %q want %q", cfg.App.Name, "MyApp")
	}
	if cfg.App.Env != "production" {
		t.Errorf("App.Env: got %q want %q", cfg.App.Env, "production")
	}
	if cfg.Payment.Provider != "stripe" {
		t.Errorf("Payment.Provider: got %q want %q", cfg.Payment.Provider, "stripe")
	}
	if cfg.Payment.StripeTimeout != 250 {
		t.Errorf("Payment.StripeTimeout: got %d want 250", cfg.Payment.StripeTimeout)
	}
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("PAYPAL_FEE_RATE", "not-a-float")
	t.Setenv("STRIPE_TIMEOUT_MS", "soon")

	cfg := config.Load("testdata/nonexistent.env")

	if cfg.Payment.PayPalFeeRate != 0.029 {
		t.Errorf("PayPalFeeRate: got %v, want fallback 0.029", cfg.Payment.PayPalFeeRate)
	}
	if cfg.Payment.StripeTimeout != 5000 {
		t.Errorf("StripeTimeout: got %v, want fallback 5000", cfg.Payment.StripeTimeout)
	}
}

func TestGet_Fallback(t *testing.T) {
	if got := config.Get("CHAINDI_UNSET_KEY", "fallback"); got != "fallback" {
		t.Errorf("Get: got %q, want %q", got, "fallback")
	}
	t.Setenv("CHAINDI_SET_KEY", "value")
	if got := config.Get("CHAINDI_SET_KEY", "fallback"); got != "value" {
		t.Errorf("Get: got %q, want %q", got, "value")
	}
}
