// Package dateutil provides date format parsing and month grid utilities
// for calendar pages.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for date utilities.
var (
	ErrInvalidDateFormat = errors.New("invalid date format")
	ErrInvalidWeekday    = errors.New("invalid weekday")
)

// MaxDateFormatLength limits format string length to prevent abuse.
const MaxDateFormatLength = 50

// DefaultHeadingFormat renders "January 2027".
const DefaultHeadingFormat = "MMMM YYYY"

// dateTokens maps user-friendly tokens to Go time format components.
// Ordered by length descending for greedy matching.
var dateTokens = []struct {
	token string
	goFmt string
}{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"dddd", "Monday"},
	{"MMM", "Jan"},
	{"ddd", "Mon"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"M", "1"},
	{"D", "2"},
}

// ParseDateFormat converts a user-friendly format string to Go's time format.
// Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D, dddd, ddd
// Use brackets to escape literal text: [Month] preserves "Month" literally.
// Any non-token characters outside brackets are preserved as literals.
// Returns ErrInvalidDateFormat if the format is empty, too long, or has unclosed brackets.
func ParseDateFormat(format string) (string, error) {
	if format == "" {
		return "", fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	}
	if len(format) > MaxDateFormatLength {
		return "", fmt.Errorf("%w: format exceeds %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}

	var result strings.Builder
	result.Grow(len(format) + 10)

	i := 0
	for i < len(format) {
		if format[i] == '[' {
			end := strings.Index(format[i+1:], "]")
			if end == -1 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, i)
			}
			result.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}

		matched := false
		for _, t := range dateTokens {
			if strings.HasPrefix(format[i:], t.token) {
				result.WriteString(t.goFmt)
				i += len(t.token)
				matched = true
				break
			}
		}

		if !matched {
			result.WriteByte(format[i])
			i++
		}
	}

	return result.String(), nil
}

// ParseWeekday accepts a weekday name ("monday", "Sun", ...), case-insensitive.
func ParseWeekday(name string) (time.Weekday, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if len(lower) >= 3 {
		for d := time.Sunday; d <= time.Saturday; d++ {
			full := strings.ToLower(d.String())
			if lower == full || lower == full[:3] {
				return d, nil
			}
		}
	}
	return time.Sunday, fmt.Errorf("%w: %q", ErrInvalidWeekday, name)
}

// WeekdayNames returns the seven abbreviated weekday names starting at start.
func WeekdayNames(start time.Weekday) []string {
	names := make([]string, 7)
	for i := range names {
		names[i] = time.Weekday((int(start) + i) % 7).String()[:3]
	}
	return names
}

// MonthGrid lays out the days of a month in rows of seven, the first column
// being start. Cells outside the month are zero.
func MonthGrid(year int, month time.Month, start time.Weekday) [][]int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()
	offset := (int(first.Weekday()) - int(start) + 7) % 7

	var weeks [][]int
	week := make([]int, 7)
	col := offset
	for day := 1; day <= days; day++ {
		week[col] = day
		col++
		if col == 7 {
			weeks = append(weeks, week)
			week = make([]int, 7)
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, week)
	}
	return weeks
}

// FormatMonth renders the first day of the month with a Go layout.
func FormatMonth(year int, month time.Month, layout string) string {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format(layout)
}
