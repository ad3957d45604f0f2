package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

const (
	DefaultDataFile   = "data.json"
	DefaultLogFile    = "tracker.log"
	DefaultLogLevel   = "info"
	DefaultExchange   = "expenses"
	DefaultRoutingKey = "expense_events"
)

type Config struct {
	// Storage
	DataFile string

	// Logging
	LogFile  string
	LogLevel string

	// AMQP event publishing, disabled when AMQPURL is empty
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
}

func Load() *Config {
	return &Config{
		DataFile: getEnv("EXPENSES_FILE", DefaultDataFile),

		LogFile:  getEnvAllowEmpty("EXPENSES_LOG_FILE", DefaultLogFile),
		LogLevel: getEnv("EXPENSES_LOG_LEVEL", DefaultLogLevel),

		AMQPURL:        getEnv("EXPENSES_AMQP_URL", ""),
		AMQPExchange:   getEnv("EXPENSES_AMQP_EXCHANGE", DefaultExchange),
		AMQPRoutingKey: getEnv("EXPENSES_AMQP_ROUTING_KEY", DefaultRoutingKey),
	}
}

// PublishingEnabled reports whether mutations should emit AMQP events.
func (c *Config) PublishingEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.DataFile) == "" {
		errors = append(errors, "data file path cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	isValidLevel := false
	for _, level := range validLevels {
		if strings.ToLower(c.LogLevel) == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty returns defaultValue only when key is unset, so an
// explicit empty value can switch a feature off.
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
