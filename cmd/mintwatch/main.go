// cmd/mintwatch/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/app"
	"github.com/rovshanmuradov/mintwatch/internal/config"
	"github.com/rovshanmuradov/mintwatch/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.CreateLogger(cfg.LogFormat, cfg.DebugLogging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := app.NewRunner(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize", zap.Error(err))
		os.Exit(1)
	}
	if err := runner.Run(ctx); err != nil {
		log.Error("Runner stopped with error", zap.Error(err))
		os.Exit(1)
	}
}
