// Package cli provides common CLI initialization utilities shared by
// cmd/duebook and cmd/duebook-notifier.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"duebook/internal/amqp"
	"duebook/internal/backend"
	"duebook/internal/config"
	"duebook/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// BootstrapLogger returns a stderr logger used until the configuration is
// known.
func BootstrapLogger(component string) *log.Logger {
	return log.New(log.Config{
		Level:     log.DefaultConfig().Level,
		Component: component,
		Writer:    os.Stderr,
	})
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// SetupLogger builds the application logger from the configuration and
// sets it as the slog default. When toFile is set the output goes to
// cfg.LogFile, otherwise to stdout. The returned close function releases
// the log file.
func SetupLogger(cfg *config.Config, component string, toFile bool) (*log.Logger, func() error, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	var (
		w       io.Writer = os.Stdout
		closeFn           = func() error { return nil }
	)
	if toFile && cfg.LogFile != "" {
		f, err := openLogFile(cfg.LogFile)
		if err != nil {
			return nil, nil, err
		}
		w = f
		closeFn = f.Close
	}

	logger := log.New(log.Config{
		Level:     level,
		Component: component,
		Writer:    w,
	})
	log.SetDefault(logger)
	return logger, closeFn, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// InitBackend creates the repository selected by the configuration.
// Returns the backend or exits the process on failure.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend",
			log.FieldBackend, bcfg.Type.String(),
			log.FieldError, err)
		os.Exit(1)
	}
	return res
}

// InitPublisher connects to the broker when AMQP is configured. A failed
// connection is logged and nil is returned so the caller keeps working
// without events.
func InitPublisher(logger *log.Logger, cfg *config.Config) *amqp.Client {
	if !cfg.AMQPEnabled() {
		logger.Info("AMQP disabled, no events will be published")
		return nil
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return nil
	}

	logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client
}
