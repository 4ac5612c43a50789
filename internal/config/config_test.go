package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "ENVIRONMENT", "STORE_DRIVER", "MONGODB_URI", "JWT_SECRET", "JWKS_URL",
	"RAZORPAY_KEY_ID", "RAZORPAY_KEY_SECRET", "CURRENCY", "CORS_ORIGINS",
	"PENDING_BOOKING_TTL", "CONFIRMATION_GRACE", "TICKET_MAX_ATTEMPTS", "SMTP_PORT", "SUPABASE_URL", "SUPABASE_URL_ANON_KEY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, "INR", cfg.Currency)
	assert.Equal(t, 30*time.Minute, cfg.PendingBookingTTL)
	assert.Equal(t, 10*time.Minute, cfg.ConfirmationGrace)
	assert.Equal(t, DevRazorpayKeySecret, cfg.RazorpayKeySecret)
	assert.True(t, cfg.DevPaymentSignerEnabled())
	assert.Equal(t, 5, cfg.TicketMaxAttempts)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.SupabaseEnabled())
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWKS_URL", "https://auth.example.com/.well-known/jwks.json")
	t.Setenv("PENDING_BOOKING_TTL", "10m")
	t.Setenv("CONFIRMATION_GRACE", "2m")
	t.Setenv("TICKET_MAX_ATTEMPTS", "2")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 10*time.Minute, cfg.PendingBookingTTL)
	assert.Equal(t, 2*time.Minute, cfg.ConfirmationGrace)
	assert.Equal(t, 2, cfg.TicketMaxAttempts)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing mongo uri", map[string]string{"JWT_SECRET": "s"}},
		{"missing token keys", map[string]string{"MONGODB_URI": "mongodb://x"}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "sqlite", "JWT_SECRET": "s"}},
		{"memory in production", map[string]string{"STORE_DRIVER": "memory", "JWT_SECRET": "s", "ENVIRONMENT": "production", "RAZORPAY_KEY_ID": "k", "RAZORPAY_KEY_SECRET": "s"}},
		{"production without razorpay", map[string]string{"MONGODB_URI": "mongodb://x", "JWT_SECRET": "s", "ENVIRONMENT": "production"}},
		{"bad ttl", map[string]string{"MONGODB_URI": "mongodb://x", "JWT_SECRET": "s", "PENDING_BOOKING_TTL": "soon"}},
		{"zero attempts", map[string]string{"MONGODB_URI": "mongodb://x", "JWT_SECRET": "s", "TICKET_MAX_ATTEMPTS": "0"}},
		{"bad grace", map[string]string{"MONGODB_URI": "mongodb://x", "JWT_SECRET": "s", "CONFIRMATION_GRACE": "-1m"}},
		{"origin without scheme", map[string]string{"MONGODB_URI": "mongodb://x", "JWT_SECRET": "s", "CORS_ORIGINS": "app.example.com"}},
		{"origin with other scheme", map[string]string{"MONGODB_URI": "mongodb://x", "JWT_SECRET": "s", "CORS_ORIGINS": "https://a.example.com,ftp://files.example.com"}},
		{"wildcard origin", map[string]string{"MONGODB_URI": "mongodb://x", "JWT_SECRET": "s", "CORS_ORIGINS": "*"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestDevPaymentSignerEnabled(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		secret string
		want   bool
	}{
		{"development with built-in secret", "development", DevRazorpayKeySecret, true},
		{"development with real secret", "development", "real_live_secret", false},
		{"staging with built-in secret", "staging", DevRazorpayKeySecret, false},
		{"staging with real secret", "staging", "real_live_secret", false},
		{"production", "production", "real_live_secret", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.env, RazorpayKeySecret: tt.secret}
			assert.Equal(t, tt.want, cfg.DevPaymentSignerEnabled())
		})
	}
}
