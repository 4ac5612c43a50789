package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"

	// DevRazorpayKeySecret stands in when no gateway secret is configured.
	DevRazorpayKeySecret = "dev-only-secret"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	StoreDriver     string
	MongoDBURI      string
	MongoDBPassword string
	MongoDBName     string

	SupabaseURL     string
	SupabaseAnonKey string

	JWTSecret string
	JWKSURL   string

	RazorpayKeyID     string
	RazorpayKeySecret string
	Currency          string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	RedisURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	CORSOrigins       []string
	PendingBookingTTL time.Duration
	ConfirmationGrace time.Duration
	TicketMaxAttempts int
}

func LoadConfig() (*Config, error) {
	smtpPort, err := getIntWithDefault("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	maxAttempts, err := getIntWithDefault("TICKET_MAX_ATTEMPTS", 5)
	if err != nil {
		return nil, err
	}
	ttl, err := getDurationWithDefault("PENDING_BOOKING_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	grace, err := getDurationWithDefault("CONFIRMATION_GRACE", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        getEnvWithDefault("PORT", "8080"),
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),

		StoreDriver:     strings.ToLower(getEnvWithDefault("STORE_DRIVER", StoreMongo)),
		MongoDBURI:      os.Getenv("MONGODB_URI"),
		MongoDBPassword: os.Getenv("MONGODB_PASSWORD"),
		MongoDBName:     getEnvWithDefault("MONGODB_DATABASE", "eventzo"),

		SupabaseURL:     os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey: os.Getenv("SUPABASE_URL_ANON_KEY"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWKSURL:   os.Getenv("JWKS_URL"),

		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		Currency:          strings.ToUpper(getEnvWithDefault("CURRENCY", "INR")),

		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),

		RedisURL: os.Getenv("REDIS_URL"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     smtpPort,
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnvWithDefault("SMTP_FROM", "Eventzo <tickets@eventzo.app>"),

		CORSOrigins:       splitList(getEnvWithDefault("CORS_ORIGINS", "http://localhost:3000")),
		PendingBookingTTL: ttl,
		ConfirmationGrace: grace,
		TicketMaxAttempts: maxAttempts,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoDBURI == "" {
			return fmt.Errorf("MONGODB_URI is required")
		}
	case StoreMemory:
		if c.IsProduction() {
			return fmt.Errorf("STORE_DRIVER=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q (expected mongo or memory)", c.StoreDriver)
	}

	if c.JWTSecret == "" && c.JWKSURL == "" {
		return fmt.Errorf("JWT_SECRET or JWKS_URL is required")
	}
	if c.IsProduction() && (c.RazorpayKeyID == "" || c.RazorpayKeySecret == "") {
		return fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required")
	}
	if c.RazorpayKeySecret == "" {
		// signatures are still checked, against a key nobody else holds
		c.RazorpayKeySecret = DevRazorpayKeySecret
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"http://localhost:3000"}
	}
	for _, origin := range c.CORSOrigins {
		if err := validateOrigin(origin); err != nil {
			return fmt.Errorf("CORS_ORIGINS: %v", err)
		}
	}
	if c.PendingBookingTTL <= 0 {
		return fmt.Errorf("PENDING_BOOKING_TTL must be positive")
	}
	if c.ConfirmationGrace <= 0 {
		return fmt.Errorf("CONFIRMATION_GRACE must be positive")
	}
	if c.TicketMaxAttempts < 1 {
		return fmt.Errorf("TICKET_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

// validateOrigin accepts what gin-contrib/cors accepts without panicking:
// an http or https origin with a host.
func validateOrigin(origin string) error {
	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("bad origin %q: %v", origin, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("bad origin %q: expected http://host or https://host", origin)
	}
	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %v", key, err)
	}
	return v, nil
}

func getDurationWithDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 30m: %v", key, err)
	}
	return v, nil
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

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// DevPaymentSignerEnabled reports whether the local payment signer may be
// served. It never is when a real gateway secret is configured.
func (c *Config) DevPaymentSignerEnabled() bool {
	return c.IsDevelopment() && c.RazorpayKeySecret == DevRazorpayKeySecret
}

func (c *Config) SupabaseEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseAnonKey != ""
}

func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}
