package main

import (
	"errors"
	"flag"
	"fmt"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/pollbus/pkg/config"
	"github.com/DeBrosOfficial/pollbus/pkg/logging"
)

// parseMockBusConfig parses flags and environment variables into a MockBusConfig.
// Priority: flags > env > config file > defaults.
func parseMockBusConfig(logger *logging.ColoredLogger) (config.MockBusConfig, error) {
	path, exists, err := config.DefaultPath("")
	if err != nil {
		return config.MockBusConfig{}, err
	}
	cfg := config.DefaultConfig()
	if exists {
		if cfg, err = config.LoadFile(path); err != nil {
			return config.MockBusConfig{}, err
		}
	}
	cfg.ApplyEnv()

	addr := flag.String("addr", cfg.MockBus.ListenAddr, "HTTP listen address (e.g., :8090)")
	hold := flag.Duration("hold", cfg.MockBus.HoldTimeout, "how long an idle subscribe is held open")
	legacy := flag.Bool("legacy", cfg.MockBus.Legacy, "answer subscribes with the legacy array shape")

	// Do not call flag.Parse() elsewhere to avoid double-parsing
	flag.Parse()

	cfg.MockBus.ListenAddr = *addr
	cfg.MockBus.HoldTimeout = *hold
	cfg.MockBus.Legacy = *legacy

	if errs := cfg.Validate(); len(errs) > 0 {
		return config.MockBusConfig{}, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}

	logger.ComponentInfo(logging.ComponentGeneral, "Loaded mock bus configuration",
		zap.String("addr", cfg.MockBus.ListenAddr),
		zap.Duration("hold", cfg.MockBus.HoldTimeout),
		zap.Bool("legacy", cfg.MockBus.Legacy),
	)
	return cfg.MockBus, nil
}
