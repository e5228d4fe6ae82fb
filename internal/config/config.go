package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type Config struct {
	Port          string `env:"PORT,default=5000"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN,default=*"`
	LogLevel      string `env:"LOG_LEVEL,default=info"`

	SupabaseURL        string `env:"SUPABASE_URL"`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_ROLE"`
	DatabaseURL        string `env:"DATABASE_URL"`
	AutoMigrate        bool   `env:"AUTO_MIGRATE,default=true"`

	RedisAddr            string `env:"REDIS_ADDR"`
	RedisPassword        string `env:"REDIS_PASSWORD"`
	RedisDB              int    `env:"REDIS_DB,default=0"`
	StoreCacheTTLSeconds int    `env:"STORE_CACHE_TTL_SECONDS,default=60"`

	SMTPHost   string `env:"SMTP_HOST"`
	SMTPPort   int    `env:"SMTP_PORT,default=587"`
	SMTPSecure bool   `env:"SMTP_SECURE,default=false"`
	SMTPUser   string `env:"SMTP_USER"`
	SMTPPass   string `env:"SMTP_PASS"`
	SMTPFrom   string `env:"SMTP_FROM"`

	PasswordResetRedirect string `env:"PASSWORD_RESET_REDIRECT,default=https://your-app.com/update-password"`
	DefaultUserPassword   string `env:"DEFAULT_USER_PASSWORD,default=12345678"`
	ResetTokenSecret      string `env:"RESET_TOKEN_SECRET"`
	ResetRatePerMinute    int    `env:"RESET_RATE_PER_MINUTE,default=5"`
}

// Load reads .env when present, then decodes the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.SupabaseURL = strings.TrimSpace(c.SupabaseURL)
	c.SupabaseServiceKey = strings.TrimSpace(c.SupabaseServiceKey)
	c.ResetTokenSecret = strings.TrimSpace(c.ResetTokenSecret)
	if c.StoreCacheTTLSeconds < 0 {
		c.StoreCacheTTLSeconds = 0
	}
	if c.ResetRatePerMinute < 1 {
		c.ResetRatePerMinute = 5
	}
}

// Validate rejects half-configured credentials.
func (c Config) Validate() error {
	if (c.SupabaseURL == "") != (c.SupabaseServiceKey == "") {
		return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE must be set together")
	}
	if len(c.DefaultUserPassword) < 6 {
		return fmt.Errorf("DEFAULT_USER_PASSWORD must be at least 6 characters")
	}
	if c.SMTPHost != "" && c.SMTPFrom == "" && c.SMTPUser == "" {
		return fmt.Errorf("SMTP_FROM or SMTP_USER must be set when SMTP_HOST is set")
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) StoreCacheTTL() time.Duration {
	return time.Duration(c.StoreCacheTTLSeconds) * time.Second
}
