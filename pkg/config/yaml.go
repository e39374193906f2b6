package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DecodeStrict decodes YAML from a reader and rejects any unknown fields.
func DecodeStrict(r io.Reader, out interface{}) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadFile reads a YAML config file on top of DefaultConfig. Fields missing
// from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	if err := DecodeStrict(f, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
