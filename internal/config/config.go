/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the ramp-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort             string `mapstructure:"SERVER_PORT"`
	DatabaseURL            string `mapstructure:"DATABASE_URL"`
	RedisURL               string `mapstructure:"REDIS_URL"`
	RedisIdempotencyPrefix string `mapstructure:"REDIS_IDEMPOTENCY_PREFIX"`
	RabbitMQURL            string `mapstructure:"RABBITMQ_URL"`
	TransferEventExchange  string `mapstructure:"TRANSFER_EVENT_EXCHANGE"`
	KycReviewQueue         string `mapstructure:"KYC_REVIEW_QUEUE"`
	SenderPrivateKey       string `mapstructure:"SENDER_PRIVATE_KEY"`
	ReceiverPrivateKey     string `mapstructure:"RECEIVER_PRIVATE_KEY"`
	SessionJWTSecret       string `mapstructure:"SESSION_JWT_SECRET"`
	ClientAuthStrategy     string `mapstructure:"CLIENT_AUTH_STRATEGY"`
	ClientAPIKey           string `mapstructure:"CLIENT_API_KEY"`
	OnExpiredQuote         string `mapstructure:"ON_EXPIRED_QUOTE"`
	MissingFeeEntry        string `mapstructure:"MISSING_FEE_ENTRY"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_IDEMPOTENCY_PREFIX", "ramp:idempotency")
	viper.SetDefault("TRANSFER_EVENT_EXCHANGE", "ramp.events")
	viper.SetDefault("KYC_REVIEW_QUEUE", "ramp_service.kyc_reviews")
	viper.SetDefault("CLIENT_AUTH_STRATEGY", "optional")
	viper.SetDefault("ON_EXPIRED_QUOTE", "proceed")
	viper.SetDefault("MISSING_FEE_ENTRY", "zero")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "RAMP_REDIS_URL")
	_ = viper.BindEnv("REDIS_IDEMPOTENCY_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("TRANSFER_EVENT_EXCHANGE")
	_ = viper.BindEnv("KYC_REVIEW_QUEUE")
	_ = viper.BindEnv("SENDER_PRIVATE_KEY")
	_ = viper.BindEnv("RECEIVER_PRIVATE_KEY")
	_ = viper.BindEnv("SESSION_JWT_SECRET")
	_ = viper.BindEnv("CLIENT_AUTH_STRATEGY")
	_ = viper.BindEnv("CLIENT_API_KEY")
	_ = viper.BindEnv("ON_EXPIRED_QUOTE")
	_ = viper.BindEnv("MISSING_FEE_ENTRY")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisIdempotencyPrefix = strings.TrimSpace(config.RedisIdempotencyPrefix)
	if config.RedisIdempotencyPrefix == "" {
		config.RedisIdempotencyPrefix = "ramp:idempotency"
	}
	config.TransferEventExchange = strings.TrimSpace(config.TransferEventExchange)
	if config.TransferEventExchange == "" {
		config.TransferEventExchange = "ramp.events"
	}

	// Policy knobs only accept their known values; anything else falls back to
	// the default so a typo in deployment config cannot flip behavior silently.
	config.OnExpiredQuote = normalizePolicy("ON_EXPIRED_QUOTE", config.OnExpiredQuote, "proceed", "reject")
	config.MissingFeeEntry = normalizePolicy("MISSING_FEE_ENTRY", config.MissingFeeEntry, "zero", "reject")
	config.ClientAuthStrategy = normalizePolicy("CLIENT_AUTH_STRATEGY", config.ClientAuthStrategy, "optional", "required")

	if config.ClientAuthStrategy == "required" && strings.TrimSpace(config.ClientAPIKey) == "" {
		log.Printf("level=warn component=config msg=\"client auth required but CLIENT_API_KEY is empty; downgrading to optional\"")
		config.ClientAuthStrategy = "optional"
	}

	return
}

// normalizePolicy lowercases and trims a policy value and coerces unknown
// values to the default (the first allowed value).
func normalizePolicy(name, value string, allowed ...string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range allowed {
		if normalized == candidate {
			return normalized
		}
	}
	log.Printf("level=warn component=config msg=\"unknown policy value; using default\" key=%s value=%q default=%q", name, value, allowed[0])
	return allowed[0]
}
