// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// AccessTokenSecret signs access tokens (HS256). Must differ from RefreshTokenSecret
	// so compromise of one signing key cannot forge the other token class.
	AccessTokenSecret string `mapstructure:"ACCESS_TOKEN_SECRET"`
	// RefreshTokenSecret signs refresh tokens (HS256).
	RefreshTokenSecret string `mapstructure:"REFRESH_TOKEN_SECRET"`
	// AccessTokenTTL is the access token lifetime (e.g. "15m").
	AccessTokenTTL string `mapstructure:"ACCESS_TOKEN_TTL"`
	// RefreshTokenTTL is the refresh token lifetime (e.g. "168h").
	RefreshTokenTTL string `mapstructure:"REFRESH_TOKEN_TTL"`
	// VerificationTokenTTL is the email-verification token lifetime (e.g. "24h"). "0" means no expiry.
	VerificationTokenTTL string `mapstructure:"VERIFICATION_TOKEN_TTL"`
	// OTPTTL is the one-time-password lifetime (e.g. "10m").
	OTPTTL string `mapstructure:"OTP_TTL"`
	// OTPLength is the number of digits in generated one-time passwords (4–10); default 6.
	OTPLength int `mapstructure:"OTP_LENGTH"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// HashWorkers bounds concurrent bcrypt operations; default 4.
	HashWorkers int `mapstructure:"HASH_WORKERS"`
	// OTLPEndpoint is the OTLP collector endpoint (e.g. http://localhost:4317). Empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// CleanupInterval is how often the cleanup worker purges expired tokens and codes (e.g. "1h").
	CleanupInterval string `mapstructure:"CLEANUP_INTERVAL"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ACCESS_TOKEN_SECRET", "")
	v.SetDefault("REFRESH_TOKEN_SECRET", "")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h") // 7d
	v.SetDefault("VERIFICATION_TOKEN_TTL", "24h")
	v.SetDefault("OTP_TTL", "10m")
	v.SetDefault("OTP_LENGTH", 6)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("HASH_WORKERS", 4)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("CLEANUP_INTERVAL", "1h")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, errors.New("config: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, errors.New("config: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if cfg.OTPLength == 0 {
		cfg.OTPLength = 6
	}
	if cfg.OTPLength < 4 || cfg.OTPLength > 10 {
		return nil, errors.New("config: OTP_LENGTH must be between 4 and 10")
	}
	if cfg.HashWorkers <= 0 {
		cfg.HashWorkers = 4
	}

	return &cfg, nil
}

// AccessTTL parses AccessTokenTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.AccessTokenTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// RefreshTTL parses RefreshTokenTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	d, err := time.ParseDuration(c.RefreshTokenTTL)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// VerificationTTL parses VerificationTokenTTL as a time.Duration.
// Returns 24h if unset or invalid. "0" is honored and means tokens never expire.
func (c *Config) VerificationTTL() time.Duration {
	if c.VerificationTokenTTL == "0" {
		return 0
	}
	d, err := time.ParseDuration(c.VerificationTokenTTL)
	if err != nil || d < 0 {
		return 24 * time.Hour
	}
	return d
}

// OTPExpiry parses OTPTTL as a time.Duration. Returns 10m if unset or invalid.
func (c *Config) OTPExpiry() time.Duration {
	d, err := time.ParseDuration(c.OTPTTL)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// CleanupEvery parses CleanupInterval as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) CleanupEvery() time.Duration {
	d, err := time.ParseDuration(c.CleanupInterval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}
