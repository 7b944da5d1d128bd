package photocal

import (
	"fmt"
	"slices"
	"strings"
)

// Template keys with a fixed meaning in the calendar template.
const CoverKey = "cover"

// MonthKeys are the field names that fill the twelve month pages, in order.
var MonthKeys = [12]string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

// InputMap binds template keys to file names in the staging directory.
// Keys and values are both the upload field name.
type InputMap map[string]string

// Keys returns the keys in sorted order.
func (m InputMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// StageStats counts what happened to each upload field.
type StageStats struct {
	Accepted           int
	SkippedNoFile      int // filename="" declared
	SkippedEmpty       int // zero-byte body
	SkippedInvalidName int // field name unusable as a file name
	ReadFailures       int // transport error mid-field
}

// Skipped returns the number of fields that were not staged.
func (s StageStats) Skipped() int {
	return s.SkippedNoFile + s.SkippedEmpty + s.SkippedInvalidName + s.ReadFailures
}

// Document is a compiled calendar ready for export.
// References in HTML are absolute file:// URLs.
type Document struct {
	HTML string
}

// CompileRequest carries what a compilation needs from one request.
type CompileRequest struct {
	Inputs      InputMap
	SearchPaths []string // priority order, first match wins
}

// Result is the outcome of a successful Make.
type Result struct {
	PDF      []byte
	Inputs   InputMap
	Stats    StageStats
	Degraded bool // export failed under ExportLenient; PDF is empty
}

// ExportPolicy selects how export failures surface.
type ExportPolicy int

const (
	// ExportLenient reports export failures as an empty, successful result.
	ExportLenient ExportPolicy = iota
	// ExportStrict reports export failures as ErrExport.
	ExportStrict
)

func (p ExportPolicy) String() string {
	switch p {
	case ExportLenient:
		return "lenient"
	case ExportStrict:
		return "strict"
	default:
		return fmt.Sprintf("ExportPolicy(%d)", int(p))
	}
}

// Page size constants.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Margin bounds in inches.
const (
	MinMargin     = 0.25
	MaxMargin     = 3.0
	DefaultMargin = 0.4
)

// PageSettings configures PDF page dimensions.
type PageSettings struct {
	Size        string  // "letter", "a4", "legal"
	Orientation string  // "portrait", "landscape"
	Margin      float64 // inches, applied to all sides
}

// DefaultPageSettings returns A4 landscape, the calendar's native layout.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Size:        PageSizeA4,
		Orientation: OrientationLandscape,
		Margin:      DefaultMargin,
	}
}

// Validate checks that page settings are valid.
// Returns nil if p is nil (nil means use defaults).
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}

	if !isValidPageSize(p.Size) {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}

	if !isValidOrientation(p.Orientation) {
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}

	if p.Margin < MinMargin || p.Margin > MaxMargin {
		return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidMargin, p.Margin, MinMargin, MaxMargin)
	}

	return nil
}

func isValidPageSize(size string) bool {
	switch strings.ToLower(size) {
	case PageSizeLetter, PageSizeA4, PageSizeLegal:
		return true
	}
	return false
}

func isValidOrientation(orientation string) bool {
	switch strings.ToLower(orientation) {
	case OrientationPortrait, OrientationLandscape:
		return true
	}
	return false
}
