package main

import (
	"errors"
	"os"

	"github.com/alnah/go-photocal"
	"github.com/alnah/go-photocal/internal/assets"
	"github.com/alnah/go-photocal/internal/config"
	"github.com/alnah/go-photocal/internal/dateutil"
	"github.com/alnah/go-photocal/internal/server"
)

// Exit codes for the photocal binary.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Clean shutdown
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // Assets unreadable, port unavailable
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, server.ErrListen) ||
		errors.Is(err, photocal.ErrInvalidAssetDir) ||
		errors.Is(err, photocal.ErrInvalidTemplate) ||
		errors.Is(err, photocal.ErrInvalidFont) ||
		errors.Is(err, assets.ErrInvalidBasePath) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, dateutil.ErrInvalidWeekday) ||
		errors.Is(err, dateutil.ErrInvalidDateFormat) ||
		errors.Is(err, photocal.ErrInvalidPageSize) ||
		errors.Is(err, photocal.ErrInvalidOrientation) ||
		errors.Is(err, photocal.ErrInvalidMargin) {
		return ExitUsage
	}

	return ExitGeneral
}
