package photocal

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-photocal/internal/hints"
	"github.com/alnah/go-photocal/internal/process"
)

// pdfRenderer abstracts PDF rendering from an HTML file to enable testing without a browser.
type pdfRenderer interface {
	RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error)
	Close() error
}

// Compile-time interface check.
var _ pdfRenderer = (*rodRenderer)(nil)

// pdfOptions holds options for PDF generation.
type pdfOptions struct {
	Page *PageSettings
}

// defaultTimeout bounds a render when neither the context nor the caller set one.
const defaultTimeout = 60 * time.Second

// pageDimensions holds paper width and height in inches, portrait.
type pageDimensions struct {
	width  float64
	height float64
}

var paperSizes = map[string]pageDimensions{
	PageSizeLetter: {width: 8.5, height: 11},
	PageSizeA4:     {width: 8.27, height: 11.69},
	PageSizeLegal:  {width: 8.5, height: 14},
}

// resolvePageDimensions returns width, height and margin for the settings.
// nil uses DefaultPageSettings; unknown sizes fall back to letter.
func resolvePageDimensions(page *PageSettings) (width, height, margin float64) {
	if page == nil {
		page = DefaultPageSettings()
	}

	dims, ok := paperSizes[strings.ToLower(page.Size)]
	if !ok {
		dims = paperSizes[PageSizeLetter]
	}

	width, height = dims.width, dims.height
	if strings.EqualFold(page.Orientation, OrientationLandscape) {
		width, height = height, width
	}

	margin = page.Margin
	if margin <= 0 {
		margin = DefaultMargin
	}
	return width, height, margin
}

// rodRenderer implements pdfRenderer using go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodRenderer struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

// newRodRenderer creates a rodRenderer with the given timeout.
func newRodRenderer(timeout time.Duration) *rodRenderer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &rodRenderer{timeout: timeout}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New().Headless(true)

	// Use pre-installed browser if specified (Docker/containerized environments)
	bin := os.Getenv("ROD_BROWSER_BIN")
	if bin != "" {
		l = l.Bin(bin)
	}

	if noSandbox(bin) {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		process.KillProcessGroup(l.PID())
		l.Cleanup()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.browser = browser
	r.launcher = l
	return browser, nil
}

// noSandbox reports whether Chrome's sandbox must be disabled:
// CI, containers, and pre-installed browsers usually lack the privileges.
func noSandbox(bin string) bool {
	return os.Getenv("CI") == "true" ||
		os.Getenv("ROD_NO_SANDBOX") == "1" ||
		bin != "" ||
		hints.IsInContainer()
}

// Close releases browser resources and kills any leftover Chrome children.
func (r *rodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		process.KillProcessGroup(r.launcher.PID())
		r.launcher.Cleanup()
		r.launcher = nil
	}
	return err
}

// RenderFromFile opens a local HTML file in headless Chrome and renders it to PDF.
// Returns explicit errors instead of panicking when browser operations fail.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "file://" + filePath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	// Closed without ctx so a canceled request still frees its tab.
	defer page.Close()
	page = page.Context(ctx)

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(buildPDFOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}

	return pdfBuf, nil
}

// buildPDFOptions constructs proto.PagePrintToPDF from page settings.
// Backgrounds are printed so photo pages keep their layout colors.
func buildPDFOptions(opts *pdfOptions) *proto.PagePrintToPDF {
	var page *PageSettings
	if opts != nil {
		page = opts.Page
	}
	width, height, margin := resolvePageDimensions(page)

	return &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(width),
		PaperHeight:     floatPtr(height),
		MarginTop:       floatPtr(margin),
		MarginBottom:    floatPtr(margin),
		MarginLeft:      floatPtr(margin),
		MarginRight:     floatPtr(margin),
		PrintBackground: true,
	}
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
