// Package config loads the photocal server configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-photocal/internal/dateutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength          = 4096
	MaxHeadingFormatLength = 30
	MaxPageSizeLength      = 10
	MaxOrientationLength   = 10
)

// Defaults.
const (
	DefaultPort            = 8080
	DefaultStaticDir       = "./dist"
	DefaultMaxBodyBytes    = 30 << 30 // 30 GiB
	DefaultShutdownTimeout = "10s"
	DefaultAssetDir        = "."
	DefaultRenderTimeout   = "60s"
	DefaultPageSize        = "a4"
	DefaultOrientation     = "landscape"
	DefaultMargin          = 0.4
	DefaultWeekStart       = "monday"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"

	// MaxWorkers mirrors the renderer pool cap.
	MaxWorkers = 8
)

// Config holds all configuration for the photocal server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Assets   AssetsConfig   `yaml:"assets"`
	Render   RenderConfig   `yaml:"render"`
	Calendar CalendarConfig `yaml:"calendar"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Port            int    `yaml:"port"`
	StaticDir       string `yaml:"staticDir"`
	MaxBodyBytes    int64  `yaml:"maxBodyBytes"`
	ShutdownTimeout string `yaml:"shutdownTimeout"` // Go duration, e.g. "10s"
}

// AssetsConfig defines where the calendar template looks for shared files.
type AssetsConfig struct {
	Dir string `yaml:"dir"` // Second search root after the staging dir
}

// RenderConfig defines compile and export behavior.
type RenderConfig struct {
	Workers      int        `yaml:"workers"`      // 0 = auto from GOMAXPROCS
	Timeout      string     `yaml:"timeout"`      // Go duration per render
	StrictExport bool       `yaml:"strictExport"` // Export failures become HTTP 500
	Page         PageConfig `yaml:"page"`
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Size        string  `yaml:"size"`        // "letter", "a4", "legal"
	Orientation string  `yaml:"orientation"` // "portrait", "landscape"
	Margin      float64 `yaml:"margin"`      // inches
}

// CalendarConfig defines the generated calendar layout.
type CalendarConfig struct {
	Year          int    `yaml:"year"`          // 0 = current year at request time
	HeadingFormat string `yaml:"headingFormat"` // dateutil layout, e.g. "MMMM YYYY"
	WeekStart     string `yaml:"weekStart"`     // "monday", "sunday", ...
}

// LogConfig defines logger construction.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills zero values. Booleans default to false and are left as-is.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = DefaultStaticDir
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Assets.Dir == "" {
		c.Assets.Dir = DefaultAssetDir
	}
	if c.Render.Timeout == "" {
		c.Render.Timeout = DefaultRenderTimeout
	}
	if c.Render.Page.Size == "" {
		c.Render.Page.Size = DefaultPageSize
	}
	if c.Render.Page.Orientation == "" {
		c.Render.Page.Orientation = DefaultOrientation
	}
	if c.Render.Page.Margin == 0 {
		c.Render.Page.Margin = DefaultMargin
	}
	if c.Calendar.HeadingFormat == "" {
		c.Calendar.HeadingFormat = dateutil.DefaultHeadingFormat
	}
	if c.Calendar.WeekStart == "" {
		c.Calendar.WeekStart = DefaultWeekStart
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// ShutdownTimeout returns server.shutdownTimeout as a duration.
func (c *Config) ShutdownTimeout() (time.Duration, error) {
	return parseDuration("server.shutdownTimeout", c.Server.ShutdownTimeout)
}

// RenderTimeout returns render.timeout as a duration.
func (c *Config) RenderTimeout() (time.Duration, error) {
	return parseDuration("render.timeout", c.Render.Timeout)
}

// Validate checks ranges and enumerations.
// Called automatically by LoadConfig, but available for callers that
// build or override a Config in code (env and flag layering).
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port must be between 1 and 65535, got %d", ErrInvalidValue, c.Server.Port)
	}
	if err := validateFieldLength("server.staticDir", c.Server.StaticDir, MaxPathLength); err != nil {
		return err
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: server.maxBodyBytes must be positive, got %d", ErrInvalidValue, c.Server.MaxBodyBytes)
	}
	if _, err := c.ShutdownTimeout(); err != nil {
		return err
	}

	if err := validateFieldLength("assets.dir", c.Assets.Dir, MaxPathLength); err != nil {
		return err
	}

	if c.Render.Workers < 0 || c.Render.Workers > MaxWorkers {
		return fmt.Errorf("%w: render.workers must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Render.Workers)
	}
	if _, err := c.RenderTimeout(); err != nil {
		return err
	}
	if err := c.Render.Page.validate(); err != nil {
		return err
	}

	if c.Calendar.Year < 0 || c.Calendar.Year > 9999 {
		return fmt.Errorf("%w: calendar.year must be between 0 and 9999, got %d", ErrInvalidValue, c.Calendar.Year)
	}
	if err := validateFieldLength("calendar.headingFormat", c.Calendar.HeadingFormat, MaxHeadingFormatLength); err != nil {
		return err
	}
	if _, err := dateutil.ParseDateFormat(c.Calendar.HeadingFormat); err != nil {
		return fmt.Errorf("calendar.headingFormat: %w", err)
	}
	if _, err := dateutil.ParseWeekday(c.Calendar.WeekStart); err != nil {
		return fmt.Errorf("calendar.weekStart: %w", err)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q (must be debug, info, warn, or error)", ErrInvalidValue, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log.format %q (must be console or json)", ErrInvalidValue, c.Log.Format)
	}

	return nil
}

func (p PageConfig) validate() error {
	if err := validateFieldLength("render.page.size", p.Size, MaxPageSizeLength); err != nil {
		return err
	}
	switch strings.ToLower(p.Size) {
	case "letter", "a4", "legal":
	default:
		return fmt.Errorf("%w: render.page.size %q (must be letter, a4, or legal)", ErrInvalidValue, p.Size)
	}
	if err := validateFieldLength("render.page.orientation", p.Orientation, MaxOrientationLength); err != nil {
		return err
	}
	switch strings.ToLower(p.Orientation) {
	case "portrait", "landscape":
	default:
		return fmt.Errorf("%w: render.page.orientation %q (must be portrait or landscape)", ErrInvalidValue, p.Orientation)
	}
	if p.Margin < 0.25 || p.Margin > 3.0 {
		return fmt.Errorf("%w: render.page.margin must be between 0.25 and 3.00, got %.2f", ErrInvalidValue, p.Margin)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

func parseDuration(fieldName, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", ErrInvalidValue, fieldName, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidValue, fieldName, value)
	}
	return d, nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their defaults.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is operator-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := decodeStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/photocal/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "photocal", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
