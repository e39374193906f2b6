package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigDir returns the path to the pollbus config directory (~/.pollbus).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".pollbus"), nil
}

// DefaultPath resolves the config file to use. An explicit path wins; then
// $POLLBUS_CONFIG; then ~/.pollbus/config.yaml. The second return value is
// false when the resolved file does not exist, so callers can fall back to
// defaults without treating it as an error.
func DefaultPath(explicit string) (string, bool, error) {
	if explicit != "" {
		return explicit, true, nil
	}
	if env := os.Getenv("POLLBUS_CONFIG"); env != "" {
		return env, true, nil
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", false, err
	}
	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return path, false, nil
	}
	return path, true, nil
}
