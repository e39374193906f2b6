package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/pollbus/pkg/logging"
	"github.com/DeBrosOfficial/pollbus/pkg/mockbus"
)

func setupLogger() *logging.ColoredLogger {
	logger, err := logging.NewLogger(logging.Options{Level: "info", EnableColors: true})
	if err != nil {
		panic(err)
	}
	return logger
}

func main() {
	logger := setupLogger()
	defer logger.Sync()

	cfg, err := parseMockBusConfig(logger)
	if err != nil {
		logger.ComponentError(logging.ComponentGeneral, "failed to load configuration", zap.Error(err))
		os.Exit(1)
	}

	server := mockbus.New(mockbus.Options{
		HoldTimeout: cfg.HoldTimeout,
		Legacy:      cfg.Legacy,
		Logger:      logger,
	})

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx, cfg.ListenAddr); err != nil {
		logger.ComponentError(logging.ComponentMockBus, "mock bus stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.ComponentInfo(logging.ComponentGeneral, "Mock bus shutdown complete")
}
