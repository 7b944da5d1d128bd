package photocal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-photocal/internal/assets"
	"github.com/alnah/go-photocal/internal/dateutil"
	"github.com/alnah/go-photocal/internal/pipeline"
)

// Compiler turns staged inputs into a self-contained document.
type Compiler interface {
	Compile(ctx context.Context, req CompileRequest) (*Document, error)
}

// CompileStage names the step of compilation that failed.
type CompileStage string

const (
	StageTemplate CompileStage = "template"
	StageResolve  CompileStage = "resolve"
)

// CompileError describes a compilation failure. It wraps ErrCompile.
type CompileError struct {
	Stage  CompileStage
	Refs   []string // unresolved references, as written in the template
	Detail string   // engine message with filesystem paths removed
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCompile, e.Diagnostic())
}

func (e *CompileError) Unwrap() error { return ErrCompile }

// Diagnostic returns a message safe to show to the uploader.
func (e *CompileError) Diagnostic() string {
	if len(e.Refs) > 0 {
		quoted := make([]string, len(e.Refs))
		for i, r := range e.Refs {
			quoted[i] = fmt.Sprintf("%q", r)
		}
		return "file not found: " + strings.Join(quoted, ", ")
	}
	if e.Detail == "" {
		return string(e.Stage) + " failed"
	}
	return string(e.Stage) + ": " + e.Detail
}

// CalendarSettings shapes the generated calendar.
type CalendarSettings struct {
	Year          int          // 0 = current year at compile time
	HeadingFormat string       // dateutil format, e.g. "MMMM YYYY"
	WeekStart     time.Weekday // first column of the week grid
}

// CompilerConfig configures NewCompiler.
type CompilerConfig struct {
	// AssetDir, when set, may override templates/calendar.html and the fonts.
	AssetDir string
	Calendar CalendarSettings
	// Now is the clock used for Year 0. Defaults to time.Now.
	Now func() time.Time

	loader assets.AssetLoader // tests only
}

// TemplateCompiler executes the calendar template and resolves its file
// references. Safe for concurrent use: all state is read-only after
// construction.
type TemplateCompiler struct {
	tmpl          *template.Template
	fontCSS       string
	calendar      CalendarSettings
	headingLayout string
	now           func() time.Time
	cssInjector   pipeline.CSSInjector
}

// Compile-time interface check.
var _ Compiler = (*TemplateCompiler)(nil)

// NewCompiler loads the template and fonts once. Failures here are
// startup errors: the service cannot compile anything without them.
func NewCompiler(cfg CompilerConfig) (*TemplateCompiler, error) {
	loader := cfg.loader
	if loader == nil {
		resolver, err := assets.NewAssetResolver(cfg.AssetDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAssetDir, err)
		}
		loader = resolver
	}

	src, err := loader.LoadTemplate(assets.CalendarTemplateName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	tmpl, err := template.New(assets.CalendarTemplateName).Option("missingkey=zero").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	fonts, err := loadFonts(loader)
	if err != nil {
		return nil, err
	}

	settings := cfg.Calendar
	if settings.HeadingFormat == "" {
		settings.HeadingFormat = dateutil.DefaultHeadingFormat
	}
	layout, err := dateutil.ParseDateFormat(settings.HeadingFormat)
	if err != nil {
		return nil, err
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &TemplateCompiler{
		tmpl:          tmpl,
		fontCSS:       fontFaceCSS(fonts),
		calendar:      settings,
		headingLayout: layout,
		now:           now,
		cssInjector:   &pipeline.CSSInjection{},
	}, nil
}

// calendarData is the root value the template executes against.
type calendarData struct {
	Year   int
	Cover  string
	Months []monthPage
	Inputs InputMap
}

type monthPage struct {
	Key      string
	Heading  string
	Photo    string
	Weekdays []string
	Weeks    [][]int
}

// Compile executes the template with req.Inputs and rewrites every
// relative reference to a file in req.SearchPaths. Inputs the template
// does not use are ignored.
func (c *TemplateCompiler) Compile(ctx context.Context, req CompileRequest) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, c.buildData(req.Inputs)); err != nil {
		return nil, &CompileError{Stage: StageTemplate, Detail: maskPaths(err.Error(), req.SearchPaths)}
	}

	htmlContent := c.cssInjector.InjectCSS(ctx, buf.String(), c.fontCSS)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	searchPath, err := assets.NewSearchPath(req.SearchPaths...)
	if err != nil {
		return nil, &CompileError{Stage: StageResolve, Detail: maskPaths(err.Error(), req.SearchPaths)}
	}

	resolved, err := pipeline.ResolveReferences(htmlContent, searchPath)
	if err != nil {
		var unresolved *pipeline.UnresolvedError
		if errors.As(err, &unresolved) {
			return nil, &CompileError{Stage: StageResolve, Refs: unresolved.Refs}
		}
		roots := append(searchPath.Roots(), req.SearchPaths...)
		return nil, &CompileError{Stage: StageResolve, Detail: maskPaths(err.Error(), roots)}
	}

	return &Document{HTML: resolved}, nil
}

func (c *TemplateCompiler) buildData(inputs InputMap) calendarData {
	year := c.calendar.Year
	if year == 0 {
		year = c.now().Year()
	}

	weekdays := dateutil.WeekdayNames(c.calendar.WeekStart)
	months := make([]monthPage, 0, len(MonthKeys))
	for i, key := range MonthKeys {
		month := time.Month(i + 1)
		months = append(months, monthPage{
			Key:      key,
			Heading:  dateutil.FormatMonth(year, month, c.headingLayout),
			Photo:    inputs[key],
			Weekdays: weekdays,
			Weeks:    dateutil.MonthGrid(year, month, c.calendar.WeekStart),
		})
	}

	return calendarData{
		Year:   year,
		Cover:  inputs[CoverKey],
		Months: months,
		Inputs: inputs,
	}
}

// maskPaths removes directory prefixes from an engine message.
func maskPaths(msg string, roots []string) string {
	for _, root := range roots {
		candidates := []string{root}
		if abs, err := filepath.Abs(root); err == nil && abs != root {
			candidates = append(candidates, abs)
		}
		for _, dir := range candidates {
			if dir == "" || dir == "." || dir == string(filepath.Separator) {
				continue
			}
			msg = strings.ReplaceAll(msg, dir+string(filepath.Separator), "")
			msg = strings.ReplaceAll(msg, dir, "<dir>")
		}
	}
	return msg
}
