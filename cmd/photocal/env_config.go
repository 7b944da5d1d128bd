package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alnah/go-photocal/internal/config"
)

// envPrefix namespaces photocal's environment variables. PORT is the one
// unprefixed variable, kept for platform compatibility.
const envPrefix = "PHOTOCAL_"

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring YAML files.
type envConfig struct {
	Port         int    // PORT: listen port
	ConfigPath   string // PHOTOCAL_CONFIG: config file name or path
	AssetDir     string // PHOTOCAL_ASSET_DIR: shared asset directory
	StaticDir    string // PHOTOCAL_STATIC_DIR: directory served under /
	Workers      int    // PHOTOCAL_WORKERS: concurrent renders
	Timeout      string // PHOTOCAL_TIMEOUT: per-render timeout
	LogLevel     string // PHOTOCAL_LOG_LEVEL
	LogFormat    string // PHOTOCAL_LOG_FORMAT
	StrictExport *bool  // PHOTOCAL_STRICT_EXPORT: nil when unset

	// Invalid lists variables that were set but could not be parsed.
	Invalid []string
}

// knownEnvVars lists valid PHOTOCAL_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"PHOTOCAL_CONFIG":        true,
	"PHOTOCAL_ASSET_DIR":     true,
	"PHOTOCAL_STATIC_DIR":    true,
	"PHOTOCAL_WORKERS":       true,
	"PHOTOCAL_TIMEOUT":       true,
	"PHOTOCAL_LOG_LEVEL":     true,
	"PHOTOCAL_LOG_FORMAT":    true,
	"PHOTOCAL_STRICT_EXPORT": true,
	"PHOTOCAL_CONTAINER":     true, // doctor override
}

// loadEnvConfig reads configuration from environment variables.
// Values that fail to parse are recorded in Invalid and otherwise ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("PHOTOCAL_CONFIG"),
		AssetDir:   os.Getenv("PHOTOCAL_ASSET_DIR"),
		StaticDir:  os.Getenv("PHOTOCAL_STATIC_DIR"),
		Timeout:    os.Getenv("PHOTOCAL_TIMEOUT"),
		LogLevel:   os.Getenv("PHOTOCAL_LOG_LEVEL"),
		LogFormat:  os.Getenv("PHOTOCAL_LOG_FORMAT"),
	}

	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 && p <= 65535 {
			cfg.Port = p
		} else {
			cfg.Invalid = append(cfg.Invalid, "PORT")
		}
	}

	if workers := os.Getenv("PHOTOCAL_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		} else {
			cfg.Invalid = append(cfg.Invalid, "PHOTOCAL_WORKERS")
		}
	}

	if strict := os.Getenv("PHOTOCAL_STRICT_EXPORT"); strict != "" {
		if b, err := strconv.ParseBool(strict); err == nil {
			cfg.StrictExport = &b
		} else {
			cfg.Invalid = append(cfg.Invalid, "PHOTOCAL_STRICT_EXPORT")
		}
	}

	return cfg
}

// warnUnknownEnvVars writes warnings for unrecognized PHOTOCAL_* variables.
// Helps catch typos like PHOTOCAL_WORKER instead of PHOTOCAL_WORKERS.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// warnInvalidEnvVars writes one warning per unparsable variable.
func warnInvalidEnvVars(w io.Writer, env *envConfig) {
	for _, name := range env.Invalid {
		fmt.Fprintf(w, "warning: ignoring invalid value of %s=%q\n", name, os.Getenv(name))
	}
}

// applyEnvConfig overlays set environment values on cfg.
// Layering: CLI flags > env vars > config file > defaults
// (CLI flags are applied afterwards by mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Port != 0 {
		cfg.Server.Port = env.Port
	}
	if env.AssetDir != "" {
		cfg.Assets.Dir = env.AssetDir
	}
	if env.StaticDir != "" {
		cfg.Server.StaticDir = env.StaticDir
	}
	if env.Workers != 0 {
		cfg.Render.Workers = env.Workers
	}
	if env.Timeout != "" {
		cfg.Render.Timeout = env.Timeout
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.LogFormat != "" {
		cfg.Log.Format = env.LogFormat
	}
	if env.StrictExport != nil {
		cfg.Render.StrictExport = *env.StrictExport
	}
}
