package config

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits config input to prevent memory exhaustion (1MB).
var MaxInputSize = 1 << 20

var (
	ErrEmptyInput    = errors.New("config: empty input")
	ErrInputTooLarge = errors.New("config: input exceeds maximum size")
)

// decodeStrict unmarshals YAML into v, rejecting unknown fields.
func decodeStrict(data []byte, v any) error {
	if len(data) == 0 {
		return ErrEmptyInput
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return err
	}
	return nil
}

// Marshal renders a config as YAML, used by the --print-config flag.
func Marshal(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return out, nil
}
