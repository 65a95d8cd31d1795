package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"duebook/internal/cli"
	"duebook/internal/log"
	"duebook/internal/services"
)

func main() {
	cli.LoadEnvFile()

	bootstrap := cli.BootstrapLogger(log.ComponentNotifier)
	cfg := cli.LoadAndValidateConfig(bootstrap)

	logger, closeLog, err := cli.SetupLogger(cfg, log.ComponentNotifier, false)
	if err != nil {
		bootstrap.Error("Failed to set up logging", log.FieldError, err)
		os.Exit(1)
	}
	defer closeLog()

	logger.Info("Starting duebook-notifier",
		log.FieldOperation, log.OpStartup,
		log.FieldBackend, cfg.DataBackend,
		"schedule", cfg.DigestSchedule)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := cli.InitBackend(ctx, logger, cfg)
	defer res.Close()

	var publisher services.DigestPublisher
	if client := cli.InitPublisher(logger, cfg); client != nil {
		defer client.Close()
		publisher = client
	} else {
		logger.Info("Digests will only be logged")
	}

	processor := services.NewDigestProcessor(res.Repository, publisher, logger)
	runDigest := func(now time.Time) {
		if _, err := processor.Process(ctx, now); err != nil {
			logger.Error("Digest run failed",
				log.FieldOperation, log.OpDigest,
				log.FieldError, err)
		}
	}

	// Run once at startup so a restart never skips a day
	logger.Info("Running initial digest")
	runDigest(time.Now())

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.DigestSchedule, func() { runDigest(time.Now()) }); err != nil {
		logger.Error("Invalid digest schedule", log.FieldError, err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scheduler.Start()
		logger.Info("Digest scheduler started")
		<-gctx.Done()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, waiting for running digest",
			log.FieldOperation, log.OpShutdown)

		stopped := scheduler.Stop()
		select {
		case <-stopped.Done():
		case <-time.After(30 * time.Second):
			logger.Warn("Shutdown timeout reached")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Notifier stopped with error", log.FieldError, err)
	}
	logger.Info("duebook-notifier shutdown complete")
}
