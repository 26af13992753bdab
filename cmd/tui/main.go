// cmd/tui/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rovshanmuradov/mintwatch/internal/logger"
	"github.com/rovshanmuradov/mintwatch/internal/ui"
)

func main() {
	addr := flag.String("url", "http://127.0.0.1:3000", "mintwatch HTTP address")
	replay := flag.Int("replay", 50, "Number of buffered events to replay on connect")
	rows := flag.Int("rows", ui.DefaultMaxRows, "Maximum events kept on screen")
	source := flag.String("source", "", "Comma separated source filter")
	stage := flag.String("stage", "", "Stage filter")
	logFile := flag.String("log-file", "", "Spill file for evicted log entries")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Лог в терминал сломает экран, пишем только в буфер.
	logBuffer, err := logger.NewLogBuffer(1000, *logFile, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to create log buffer: %v", err)
	}
	defer logBuffer.Close()

	appLogger, err := logger.CreateTUILoggerWithBuffer(*debug, logBuffer)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() {
		_ = appLogger.Sync()
	}()

	filter := url.Values{}
	if *source != "" {
		filter.Set("source", *source)
	}
	if *stage != "" {
		filter.Set("stage", *stage)
	}
	feedURL, err := ui.FeedURL(*addr, *replay, filter)
	if err != nil {
		log.Fatalf("Invalid feed address: %v", err)
	}

	msgs := make(chan tea.Msg, 1024)
	relay := ui.NewRelay(msgs, appLogger)
	defer relay.Close()

	ctx, cancel := context.WithCancel(rootCtx)
	defer cancel()

	client := ui.NewFeedClient(feedURL, relay, appLogger)
	go func() {
		_ = client.Run(ctx)
	}()

	model := ui.NewModel(feedURL, msgs, logBuffer, *rows)
	if *debug {
		model.SetLogLevel(zapcore.DebugLevel)
	}

	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	appLogger.Info("Starting mint feed", zap.String("url", feedURL))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		appLogger.Error("TUI application failed", zap.Error(err))
		fmt.Println("TUI application failed:", err)
	}
	cancel()
}
