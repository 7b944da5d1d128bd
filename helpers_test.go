package photocal

// Notes:
// - Shared fakes and multipart builders for the package's unit tests
// - fakeRenderer reads the HTML file it is given so tests can assert the
//   temp file existed (and held the document) at render time

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"sync"
	"testing"

	"github.com/alnah/go-photocal/internal/hints"
)

// mockPDF is the payload fake renderers and exporters return.
var mockPDF = []byte("%PDF-1.4 mock")

// ---------------------------------------------------------------------------
// Multipart builders
// ---------------------------------------------------------------------------

// formField describes one multipart field.
type formField struct {
	name        string
	filename    string
	hasFilename bool
	body        []byte
}

// fileField is a field carrying an uploaded file.
func fileField(name string, body []byte) formField {
	return formField{name: name, filename: name + ".png", hasFilename: true, body: body}
}

// noFileField is a file input submitted with nothing selected: filename="".
func noFileField(name string) formField {
	return formField{name: name, filename: "", hasFilename: true}
}

// valueField is a plain form value without a filename parameter.
func valueField(name string, body []byte) formField {
	return formField{name: name, body: body}
}

// encodeMultipart returns the encoded body and its boundary.
func encodeMultipart(t *testing.T, fields ...formField) ([]byte, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range fields {
		h := make(textproto.MIMEHeader)
		cd := fmt.Sprintf(`form-data; name="%s"`, f.name)
		if f.hasFilename {
			cd += fmt.Sprintf(`; filename="%s"`, f.filename)
		}
		h.Set("Content-Disposition", cd)
		h.Set("Content-Type", "application/octet-stream")

		pw, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("creating part %q: %v", f.name, err)
		}
		if _, err := pw.Write(f.body); err != nil {
			t.Fatalf("writing part %q: %v", f.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return buf.Bytes(), w.Boundary()
}

// newMultipartReader builds a reader over the given fields.
func newMultipartReader(t *testing.T, fields ...formField) *multipart.Reader {
	t.Helper()
	body, boundary := encodeMultipart(t, fields...)
	return multipart.NewReader(bytes.NewReader(body), boundary)
}

// failingReader serves data and then fails with err instead of io.EOF.
type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

// ---------------------------------------------------------------------------
// Pipeline fakes
// ---------------------------------------------------------------------------

// compilerFunc adapts a function to Compiler.
type compilerFunc func(ctx context.Context, req CompileRequest) (*Document, error)

func (f compilerFunc) Compile(ctx context.Context, req CompileRequest) (*Document, error) {
	return f(ctx, req)
}

// exporterFunc adapts a function to Exporter.
type exporterFunc func(ctx context.Context, doc *Document) ([]byte, error)

func (f exporterFunc) Export(ctx context.Context, doc *Document) ([]byte, error) {
	return f(ctx, doc)
}

// fakeRenderer records calls and returns a canned result.
type fakeRenderer struct {
	mu       sync.Mutex
	result   []byte
	err      error
	closeErr error
	calls    int
	closed   bool
	lastPath string
	lastHTML string
	lastOpts *pdfOptions
}

func (r *fakeRenderer) RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	r.lastPath = filePath
	r.lastOpts = opts
	if content, err := os.ReadFile(filePath); err == nil {
		r.lastHTML = string(content)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

func (r *fakeRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return r.closeErr
}

// Compile-time interface checks.
var (
	_ pdfRenderer = (*fakeRenderer)(nil)
	_ io.Reader   = (*failingReader)(nil)
)

// hintsInContainer and setInContainer swap the container probe for tests.
func hintsInContainer() func() bool { return hints.IsInContainer }

func setInContainer(f func() bool) { hints.IsInContainer = f }
