package main

import (
	"context"
	"fmt"
	"os"

	"duebook/internal/cli"
	"duebook/internal/log"
	"duebook/internal/services"
	"duebook/internal/store"
	"duebook/internal/tui"
)

func main() {
	cli.LoadEnvFile()

	bootstrap := cli.BootstrapLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(bootstrap)

	// The menu owns stdout, so logs go to the log file
	logger, closeLog, err := cli.SetupLogger(cfg, log.ComponentApp, true)
	if err != nil {
		bootstrap.Error("Failed to set up logging", log.FieldError, err)
		os.Exit(1)
	}
	defer closeLog()

	ctx := context.Background()

	logger.Info("Starting duebook",
		log.FieldOperation, log.OpStartup,
		log.FieldBackend, cfg.DataBackend)

	res := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	var publisher services.Publisher
	if client := cli.InitPublisher(logger, cfg); client != nil {
		defer client.Close()
		publisher = client
	}

	svc := services.NewBillingService(store.New(), res.Repository, publisher, logger)
	if err := svc.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Could not load saved clients, starting empty: %v\n", err)
	}

	app := tui.New(svc, os.Stdin, os.Stdout, logger)
	if err := app.Run(ctx); err != nil {
		logger.Error("Menu failed", log.FieldError, err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	logger.Info("duebook stopped", log.FieldOperation, log.OpShutdown)
}
