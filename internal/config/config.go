package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// Storage
	DataBackend  string
	DataFile     string
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// AMQP (optional, empty URL disables publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Notifier
	DigestSchedule string

	// Logging
	LogLevel string
	LogFile  string
}

var (
	validBackends  = []string{"csv", "memory", "sqlite", "sheets"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

func Load() *Config {
	cfg := &Config{
		DataBackend:  strings.ToLower(getEnv("DATA_BACKEND", "csv")),
		DataFile:     getEnv("DATA_FILE", "./data/clients.csv"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/duebook.db"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Clients"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "duebook"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "billing_events"),

		DigestSchedule: getEnv("DIGEST_SCHEDULE", "0 8 * * *"),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:  getEnv("LOG_FILE", "./data/duebook.log"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if !contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "csv":
		if strings.TrimSpace(c.DataFile) == "" {
			errors = append(errors, "data file path cannot be empty when using csv backend")
		}
	case "sqlite":
		if strings.TrimSpace(c.SQLiteDBPath) == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
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
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := cron.ParseStandard(c.DigestSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("invalid digest schedule '%s': %v", c.DigestSchedule, err))
	}

	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AMQPEnabled reports whether record events should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
