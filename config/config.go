package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server    ServerConfig
	Mpesa     MpesaConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	Env          string
	Debug        bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MpesaConfig holds the Daraja API credentials and tuning knobs.
// Credentials are read once at startup and never mutated afterwards.
type MpesaConfig struct {
	ConsumerKey       string `validate:"required"`
	ConsumerSecret    string `validate:"required"`
	BusinessShortcode int    `validate:"required,gt=0"`
	Passkey           string `validate:"required"`
	CallbackURL       string `validate:"required,url"`
	Environment       string `validate:"oneof=sandbox production"`
	MaxAmount         float64
	RequestTimeout    time.Duration
	TokenValidity     time.Duration
	TokenMargin       time.Duration
}

// BaseURL selects the Daraja host for the configured environment.
func (m MpesaConfig) BaseURL() string {
	if m.Environment == "production" {
		return "https://api.safaricom.co.ke"
	}
	return "https://sandbox.safaricom.co.ke"
}

func (m MpesaConfig) OAuthURL() string {
	return m.BaseURL() + "/oauth/v1/generate?grant_type=client_credentials"
}

func (m MpesaConfig) STKPushURL() string {
	return m.BaseURL() + "/mpesa/stkpush/v1/processrequest"
}

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// RedisConfig is optional; an empty Addr keeps callback dedup in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads configuration from the environment. main calls godotenv first,
// so a local .env file works in development.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getenv("SERVER_HOST", "127.0.0.1"),
			Port:         getenv("SERVER_PORT", "8000"),
			Env:          getenv("SERVER_ENV", "development"),
			Debug:        getbool("SERVER_DEBUG", false),
			ReadTimeout:  getduration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getduration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Mpesa: MpesaConfig{
			ConsumerKey:       os.Getenv("MPESA_CONSUMER_KEY"),
			ConsumerSecret:    os.Getenv("MPESA_CONSUMER_SECRET"),
			BusinessShortcode: getint("MPESA_BUSINESS_SHORTCODE", 0),
			Passkey:           os.Getenv("MPESA_PASSKEY"),
			CallbackURL:       getenv("MPESA_CALLBACK_URL", "https://httpbin.org/post"),
			Environment:       getenv("MPESA_ENVIRONMENT", "sandbox"),
			MaxAmount:         getfloat("MPESA_MAX_AMOUNT", 70000),
			RequestTimeout:    getduration("MPESA_REQUEST_TIMEOUT", 20*time.Second),
			TokenValidity:     getduration("MPESA_TOKEN_VALIDITY", time.Hour),
			TokenMargin:       getduration("MPESA_TOKEN_MARGIN", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Limit:  getint("RATELIMIT_REQUESTS", 100),
			Window: getduration("RATELIMIT_WINDOW", time.Minute),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getint("REDIS_DB", 0),
		},
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg.Mpesa); err != nil {
		return nil, fmt.Errorf("mpesa config: %w", err)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getfloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getbool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
