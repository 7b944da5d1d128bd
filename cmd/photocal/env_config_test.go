package main

// Notes:
// - loadEnvConfig: every recognized variable plus invalid values, which are
//   reported in Invalid and otherwise ignored.
// - applyEnvConfig: set values override the config file, unset ones leave it.
// - Tests use t.Setenv() which prevents t.Parallel() at parent level.

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alnah/go-photocal/internal/config"
)

// ---------------------------------------------------------------------------
// TestLoadEnvConfig - Environment variable loading
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Run("all variables", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("PHOTOCAL_CONFIG", "/etc/photocal.yaml")
		t.Setenv("PHOTOCAL_ASSET_DIR", "/srv/assets")
		t.Setenv("PHOTOCAL_STATIC_DIR", "/srv/dist")
		t.Setenv("PHOTOCAL_WORKERS", "3")
		t.Setenv("PHOTOCAL_TIMEOUT", "2m")
		t.Setenv("PHOTOCAL_LOG_LEVEL", "debug")
		t.Setenv("PHOTOCAL_LOG_FORMAT", "json")
		t.Setenv("PHOTOCAL_STRICT_EXPORT", "true")

		cfg := loadEnvConfig()

		if cfg.Port != 9090 {
			t.Errorf("Port = %d, want 9090", cfg.Port)
		}
		if cfg.ConfigPath != "/etc/photocal.yaml" {
			t.Errorf("ConfigPath = %q", cfg.ConfigPath)
		}
		if cfg.AssetDir != "/srv/assets" {
			t.Errorf("AssetDir = %q", cfg.AssetDir)
		}
		if cfg.StaticDir != "/srv/dist" {
			t.Errorf("StaticDir = %q", cfg.StaticDir)
		}
		if cfg.Workers != 3 {
			t.Errorf("Workers = %d, want 3", cfg.Workers)
		}
		if cfg.Timeout != "2m" {
			t.Errorf("Timeout = %q, want 2m", cfg.Timeout)
		}
		if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
			t.Errorf("log = %q/%q, want debug/json", cfg.LogLevel, cfg.LogFormat)
		}
		if cfg.StrictExport == nil || !*cfg.StrictExport {
			t.Errorf("StrictExport = %v, want true", cfg.StrictExport)
		}
		if len(cfg.Invalid) != 0 {
			t.Errorf("Invalid = %v, want none", cfg.Invalid)
		}
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		t.Setenv("PORT", "eighty")
		t.Setenv("PHOTOCAL_WORKERS", "-2")
		t.Setenv("PHOTOCAL_STRICT_EXPORT", "maybe")

		cfg := loadEnvConfig()

		if cfg.Port != 0 || cfg.Workers != 0 || cfg.StrictExport != nil {
			t.Errorf("invalid values applied: %+v", cfg)
		}
		want := []string{"PORT", "PHOTOCAL_WORKERS", "PHOTOCAL_STRICT_EXPORT"}
		if strings.Join(cfg.Invalid, ",") != strings.Join(want, ",") {
			t.Errorf("Invalid = %v, want %v", cfg.Invalid, want)
		}

		var buf bytes.Buffer
		warnInvalidEnvVars(&buf, cfg)
		if !strings.Contains(buf.String(), `PORT="eighty"`) {
			t.Errorf("warning missing PORT value: %q", buf.String())
		}
	})

	t.Run("port out of range", func(t *testing.T) {
		t.Setenv("PORT", "70000")

		if cfg := loadEnvConfig(); cfg.Port != 0 {
			t.Errorf("Port = %d, want 0", cfg.Port)
		}
	})
}

// ---------------------------------------------------------------------------
// TestWarnUnknownEnvVars - Typo detection
// ---------------------------------------------------------------------------

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Setenv("PHOTOCAL_WORKER", "2")
	t.Setenv("PHOTOCAL_TIMEOUT", "30s")

	var buf bytes.Buffer
	warnUnknownEnvVars(&buf)

	if !strings.Contains(buf.String(), "PHOTOCAL_WORKER ") {
		t.Errorf("expected warning for PHOTOCAL_WORKER, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "PHOTOCAL_TIMEOUT") {
		t.Errorf("known variable reported as unknown: %q", buf.String())
	}
}

// ---------------------------------------------------------------------------
// TestApplyEnvConfig - Layering over the config file
// ---------------------------------------------------------------------------

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	t.Run("set values override", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		strict := true
		applyEnvConfig(&envConfig{
			Port:         9000,
			AssetDir:     "/a",
			StaticDir:    "/s",
			Workers:      2,
			Timeout:      "5s",
			LogLevel:     "warn",
			LogFormat:    "json",
			StrictExport: &strict,
		}, cfg)

		if cfg.Server.Port != 9000 || cfg.Assets.Dir != "/a" || cfg.Server.StaticDir != "/s" {
			t.Errorf("server/assets not applied: %+v %+v", cfg.Server, cfg.Assets)
		}
		if cfg.Render.Workers != 2 || cfg.Render.Timeout != "5s" || !cfg.Render.StrictExport {
			t.Errorf("render not applied: %+v", cfg.Render)
		}
		if cfg.Log.Level != "warn" || cfg.Log.Format != "json" {
			t.Errorf("log not applied: %+v", cfg.Log)
		}
	})

	t.Run("unset values keep config", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Server.Port = 7000
		cfg.Render.StrictExport = true
		applyEnvConfig(&envConfig{}, cfg)

		if cfg.Server.Port != 7000 {
			t.Errorf("Port = %d, want 7000", cfg.Server.Port)
		}
		if !cfg.Render.StrictExport {
			t.Error("StrictExport reset by unset env")
		}
	})

	t.Run("explicit false disables strict export", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Render.StrictExport = true
		off := false
		applyEnvConfig(&envConfig{StrictExport: &off}, cfg)

		if cfg.Render.StrictExport {
			t.Error("StrictExport = true, want false")
		}
	})
}
