// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to log
// messages and startup errors.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-photocal/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser launch and connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}

	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing the render timeout.
func ForTimeout() string {
	return format("for many large photos, raise render.timeout or PHOTOCAL_TIMEOUT")
}

// ForPortInUse returns a hint for listener bind failures.
func ForPortInUse(port string) string {
	return format("port " + port + " is busy; set PORT or --port")
}

// ForAssetDir returns a hint for an unusable asset directory.
func ForAssetDir() string {
	return format("assets.dir must be an existing readable directory (default \".\")")
}

// ForConfigNotFound returns hints for config file not found errors.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/photocal") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}

// Plain strips the leading newline and "hint:" label, for structured log fields.
func Plain(hint string) string {
	return strings.TrimPrefix(hint, "\n  hint: ")
}
