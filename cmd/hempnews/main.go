package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"HempNewsPipeline/internal/app"
	"HempNewsPipeline/internal/config"
	"HempNewsPipeline/internal/logging"
)

const usage = `usage: hempnews <command>

commands:
  run       ingest feeds and stage new drafts for moderation
  moderate  apply pending operator decisions and expire stale drafts once
  watch     run moderation cycles until interrupted`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application setup failed", "error", err)
		os.Exit(1)
	}

	switch command {
	case "run":
		err = application.Run(ctx)
	case "moderate":
		err = application.Moderate(ctx)
	case "watch":
		err = application.Watch(ctx)
	default:
		fmt.Fprintln(os.Stderr, usage)
		_ = application.Close()
		os.Exit(2)
	}

	if closeErr := application.Close(); closeErr != nil {
		logger.Warn("close state store", "error", closeErr)
	}
	if err != nil {
		logger.Error("application stopped", "command", command, "error", err)
		os.Exit(1)
	}
}
