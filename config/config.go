package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting, read once at process start and passed
// by reference into the components that need it.
type Config struct {
	DatabaseURL string
	HTTPAddr    string

	JWTSecret       string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	VerificationCodeTTL time.Duration
	Login2FATTL         time.Duration
	ResetTokenTTL       time.Duration

	Require2FA bool
	AppBaseURL string

	ResendAPIKey string
	MailFrom     string

	BcryptCost int
}

// Load reads configuration from the environment, with .env as a convenience
// overlay for local runs. The signing secret is the only hard requirement;
// everything else has a default.
func Load() (*Config, error) {
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		HTTPAddr:    envString("HTTP_ADDR", ":8080"),

		JWTSecret:       secret,
		JWTIssuer:       envString("JWT_ISSUER", "gatehouse"),
		AccessTokenTTL:  envSeconds("ACCESS_TOKEN_TTL", 900*time.Second),
		RefreshTokenTTL: envSeconds("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		VerificationCodeTTL: envSeconds("VERIFICATION_CODE_TTL", 15*time.Minute),
		Login2FATTL:         envSeconds("LOGIN_2FA_TTL", 10*time.Minute),
		ResetTokenTTL:       envSeconds("RESET_TOKEN_TTL", time.Hour),

		Require2FA: envBool("REQUIRE_2FA", true),
		AppBaseURL: envString("APP_BASE_URL", "http://localhost:8080"),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		MailFrom:     envString("MAIL_FROM", "noreply@example.com"),

		BcryptCost: envInt("BCRYPT_COST", 0),
	}, nil
}

func envString(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func envSeconds(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

func envBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}
