package photocal

import (
	"context"
	"errors"
	"time"

	"github.com/alnah/go-photocal/internal/fileutil"
)

// Exporter encodes a compiled document as PDF bytes.
type Exporter interface {
	Export(ctx context.Context, doc *Document) ([]byte, error)
}

// rendererSource hands out renderers. *RendererPool implements it.
type rendererSource interface {
	Acquire(ctx context.Context) (pdfRenderer, error)
	Release(r pdfRenderer)
}

// ExporterConfig configures NewExporter.
type ExporterConfig struct {
	Page    *PageSettings // nil = DefaultPageSettings
	Timeout time.Duration // per export, 0 = no extra bound
}

// PDFExporter renders documents through a pool of headless browsers.
type PDFExporter struct {
	pool    rendererSource
	page    *PageSettings
	timeout time.Duration
}

// Compile-time interface check.
var _ Exporter = (*PDFExporter)(nil)

// errNilDocument guards against exporting nothing.
var errNilDocument = errors.New("nil document")

// NewExporter creates a PDFExporter drawing renderers from pool.
func NewExporter(pool *RendererPool, cfg ExporterConfig) *PDFExporter {
	return newExporter(pool, cfg)
}

func newExporter(pool rendererSource, cfg ExporterConfig) *PDFExporter {
	page := cfg.Page
	if page == nil {
		page = DefaultPageSettings()
	}
	return &PDFExporter{pool: pool, page: page, timeout: cfg.Timeout}
}

// Export writes the document to a temporary HTML file, renders it, and
// returns the PDF bytes. The temporary file is removed before returning.
func (e *PDFExporter) Export(ctx context.Context, doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, errNilDocument
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(doc.HTML, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	renderer, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer e.pool.Release(renderer)

	return renderer.RenderFromFile(ctx, tmpPath, &pdfOptions{Page: e.page})
}
