package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/helptoken/helptoken/internal/app/settlementworker"
	"github.com/helptoken/helptoken/internal/config"
	"github.com/helptoken/helptoken/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.New(cfg.Env, os.Stdout)

	logger.Info("starting settlement-worker", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := settlementworker.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize settlement worker", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("settlement worker stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("settlement-worker stopped gracefully")
}
