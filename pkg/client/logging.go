package client

import (
	"go.uber.org/zap"
)

// newClientLogger creates a zap.Logger based on quiet mode preference.
// Quiet mode returns a production logger at Warn+ so retries and failures
// still surface. Otherwise a development logger shows per-request detail.
func newClientLogger(quiet bool) (*zap.Logger, error) {
	if quiet {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		cfg.DisableCaller = true
		cfg.DisableStacktrace = true
		logger, err := cfg.Build()
		if err != nil {
			return nil, err
		}
		return logger.Named("pollbus"), nil
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return logger.Named("pollbus"), nil
}
