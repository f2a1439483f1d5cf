package config

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/caarlos0/env/v10"

	"farmvet-auth.backend/internal/domain/entities"
)

// Config holds all configuration values
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Security     SecurityConfig
	Token        TokenConfig
	LoginOTP     LoginOTPConfig
	SMS          SMSConfig
	SMTP         SMTPConfig
	Twilio       TwilioConfig
	Notification NotificationConfig
	RateLimit    RateLimitConfig
	Upload       UploadConfig
	Cleanup      CleanupConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string        `env:"SERVER_PORT" envDefault:"8080"`
	Env             string        `env:"SERVER_ENV" envDefault:"development"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string        `env:"DB_HOST" envDefault:"localhost"`
	Port         int           `env:"DB_PORT" envDefault:"5432"`
	User         string        `env:"DB_USER" envDefault:"postgres"`
	Password     string        `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName       string        `env:"DB_NAME" envDefault:"farmvet"`
	SSLMode      string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	AutoMigrate  bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
	QueryTimeout time.Duration `env:"DB_QUERY_TIMEOUT" envDefault:"5s"`
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + strconv.Itoa(c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string        `env:"JWT_SECRET" envDefault:"change-this-in-production"`
	AccessExpiry  time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"15m"`
	RefreshExpiry time.Duration `env:"JWT_REFRESH_EXPIRY" envDefault:"168h"`
}

// SecurityConfig holds security encryption keys
type SecurityConfig struct {
	SessionEncryptionKey string `env:"SESSION_ENCRYPTION_KEY" envDefault:"0000000000000000000000000000000000000000000000000000000000000000"` // 32-bytes hex string
	BcryptCost           int    `env:"BCRYPT_COST" envDefault:"10"`
}

// TokenConfig holds the lifetime of every token kind
type TokenConfig struct {
	EmailTTL    time.Duration `env:"TOKEN_EMAIL_TTL" envDefault:"10m"`
	PhoneTTL    time.Duration `env:"TOKEN_PHONE_TTL" envDefault:"10m"`
	ResetTTL    time.Duration `env:"TOKEN_RESET_TTL" envDefault:"30m"`
	LoginOTPTTL time.Duration `env:"TOKEN_LOGIN_OTP_TTL" envDefault:"10m"`
}

// Policy converts the ttls into the domain token policy
func (c TokenConfig) Policy() entities.TokenPolicy {
	return entities.TokenPolicy{
		EmailTTL:    c.EmailTTL,
		PhoneTTL:    c.PhoneTTL,
		ResetTTL:    c.ResetTTL,
		LoginOTPTTL: c.LoginOTPTTL,
	}
}

// LoginOTPConfig holds the OTP login policy and send limits
type LoginOTPConfig struct {
	RequirePhoneCode       bool          `env:"LOGIN_OTP_REQUIRE_PHONE_CODE" envDefault:"false"`
	RequireVerifiedChannel bool          `env:"LOGIN_OTP_REQUIRE_VERIFIED_CHANNEL" envDefault:"false"`
	SendLimit              int           `env:"OTP_SEND_LIMIT" envDefault:"5"`
	SendWindow             time.Duration `env:"OTP_SEND_WINDOW" envDefault:"15m"`
	Limiter                string        `env:"OTP_LIMITER" envDefault:"redis"`
}

// Policy converts the flags into the domain OTP login policy
func (c LoginOTPConfig) Policy() entities.OTPLoginPolicy {
	return entities.OTPLoginPolicy{
		RequirePhoneCode:       c.RequirePhoneCode,
		RequireVerifiedChannel: c.RequireVerifiedChannel,
	}
}

// SMSConfig controls phone code delivery
type SMSConfig struct {
	Enabled       bool `env:"SMS_ENABLED" envDefault:"false"`
	EmailFallback bool `env:"SMS_EMAIL_FALLBACK" envDefault:"true"`
}

// SMTPConfig holds the outgoing mail server. An empty host logs mail instead of sending it.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	User     string `env:"SMTP_USER"`
	Pass     string `env:"SMTP_PASS"`
	From     string `env:"SMTP_FROM" envDefault:"no-reply@farmvet.local"`
	FromName string `env:"SMTP_FROM_NAME" envDefault:"FarmVet"`
	UseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`
}

// TwilioConfig holds SMS provider credentials
type TwilioConfig struct {
	AccountSID string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	FromNumber string `env:"TWILIO_FROM_NUMBER"`
}

// Configured reports whether all credentials are present
func (c TwilioConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

// NotificationConfig controls the outbound queue and its workers
type NotificationConfig struct {
	Queue          string        `env:"NOTIFY_QUEUE" envDefault:"redis"`
	QueueKey       string        `env:"NOTIFY_QUEUE_KEY" envDefault:"notifications:outbox"`
	Workers        int           `env:"NOTIFY_WORKERS" envDefault:"2"`
	EnqueueTimeout time.Duration `env:"NOTIFY_ENQUEUE_TIMEOUT" envDefault:"2s"`
	SendTimeout    time.Duration `env:"NOTIFY_SEND_TIMEOUT" envDefault:"15s"`
}

// RateLimitConfig holds the per-client HTTP limiter
type RateLimitConfig struct {
	RPS   float64 `env:"HTTP_RATE_LIMIT_RPS" envDefault:"10"`
	Burst int     `env:"HTTP_RATE_LIMIT_BURST" envDefault:"20"`
}

// UploadConfig holds identity document storage
type UploadConfig struct {
	Dir      string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	MaxBytes int64  `env:"UPLOAD_MAX_BYTES" envDefault:"2097152"`
}

// CleanupConfig holds the stale token cleanup job schedule
type CleanupConfig struct {
	Interval  time.Duration `env:"TOKEN_CLEANUP_INTERVAL" envDefault:"1h"`
	Retention time.Duration `env:"TOKEN_RETENTION" envDefault:"24h"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Notification.Workers < 1 {
		cfg.Notification.Workers = 1
	}
	return &cfg, nil
}
