package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/paygrid/tx_engine_app/internal/apperrors"
	"github.com/spf13/viper"
	"github.com/ulule/limiter/v3"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	RedisURL     string
	Port         string
	IsProduction bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string
	APIKey            string

	// RateLimit uses the limiter format string, e.g. "600-M".
	RateLimit      string
	IdempotencyTTL time.Duration

	// ProcessorLanes > 1 shards the engine across per-client lanes.
	ProcessorLanes int
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "tx-engine")
	viper.SetDefault("API_KEY", "")
	viper.SetDefault("RATE_LIMIT", "600-M")
	viper.SetDefault("IDEMPOTENCY_TTL", "24h")
	viper.SetDefault("PROCESSOR_LANES", 1)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiryDuration, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiryDuration = time.Hour
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiryDuration.String())
	}
	cfg.JWTExpiryDuration = jwtExpiryDuration
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.APIKey = viper.GetString("API_KEY")
	if cfg.APIKey == "" {
		log.Println("Warning: API_KEY environment variable not set. Token issuance will reject all requests.")
	}

	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	if _, err := limiter.NewRateFromFormatted(cfg.RateLimit); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT %q: %w: %w", cfg.RateLimit, apperrors.ErrValidation, err)
	}

	idempotencyTTLStr := viper.GetString("IDEMPOTENCY_TTL")
	idempotencyTTL, err := time.ParseDuration(idempotencyTTLStr)
	if err != nil {
		idempotencyTTL = 24 * time.Hour
		log.Printf("Warning: Invalid value for IDEMPOTENCY_TTL ('%s'). Defaulting to %s.\n", idempotencyTTLStr, idempotencyTTL.String())
	}
	cfg.IdempotencyTTL = idempotencyTTL

	cfg.ProcessorLanes = viper.GetInt("PROCESSOR_LANES")
	if cfg.ProcessorLanes < 1 {
		cfg.ProcessorLanes = 1
	}

	return cfg, nil
}
