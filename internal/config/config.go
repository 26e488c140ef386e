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

// Config holds all the configuration variables for the ledger-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                     string `mapstructure:"SERVER_PORT"`
	DatabaseURL                    string `mapstructure:"DATABASE_URL"`
	RedisURL                       string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix           string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL                    string `mapstructure:"RABBITMQ_URL"`
	InternalAPIKey                 string `mapstructure:"INTERNAL_API_KEY"`
	PersistTimeoutSeconds          int    `mapstructure:"PERSIST_TIMEOUT_SECONDS"`
	WithdrawalRateLimitPerMinute   int    `mapstructure:"WITHDRAWAL_RATE_LIMIT_PER_MINUTE"`
	WithdrawalRateLimitingDisabled bool   `mapstructure:"WITHDRAWAL_RATE_LIMITING_DISABLED"`
	StatementDefaultLimit          int    `mapstructure:"STATEMENT_DEFAULT_LIMIT"`
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
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "corebank:rate_limit")
	viper.SetDefault("PERSIST_TIMEOUT_SECONDS", 5)
	viper.SetDefault("WITHDRAWAL_RATE_LIMIT_PER_MINUTE", 30)
	viper.SetDefault("WITHDRAWAL_RATE_LIMITING_DISABLED", false)
	viper.SetDefault("STATEMENT_DEFAULT_LIMIT", 50)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "LEDGER_REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("INTERNAL_API_KEY", "INTERNAL_API_KEY", "LEDGER_SERVICE_INTERNAL_API_KEY")
	_ = viper.BindEnv("PERSIST_TIMEOUT_SECONDS")
	_ = viper.BindEnv("WITHDRAWAL_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("WITHDRAWAL_RATE_LIMITING_DISABLED")
	_ = viper.BindEnv("STATEMENT_DEFAULT_LIMIT")

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
	if strings.TrimSpace(config.InternalAPIKey) == "" {
		config.InternalAPIKey = strings.TrimSpace(os.Getenv("LEDGER_SERVICE_INTERNAL_API_KEY"))
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "corebank:rate_limit"
	}

	if config.PersistTimeoutSeconds <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive persistence timeout configured; using default\" seconds=%d", config.PersistTimeoutSeconds)
		config.PersistTimeoutSeconds = 5
	}
	if config.WithdrawalRateLimitPerMinute <= 0 {
		config.WithdrawalRateLimitPerMinute = 30
	}
	if config.StatementDefaultLimit <= 0 {
		config.StatementDefaultLimit = 50
	}

	return
}
