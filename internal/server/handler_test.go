package server

// Notes:
// - fakeMaker stands in for photocal.Maker; body-limit tests use a real
//   Maker with function fakes for the compiler and exporter so the
//   413 path goes through the actual stager
// - Bodies are compared after TrimSpace because http.Error appends "\n"

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alnah/go-photocal"
)

var mockPDF = []byte("%PDF-1.4 mock")

// fakeMaker returns canned results and records what it received.
type fakeMaker struct {
	result *photocal.Result
	err    error
	fields []string
}

func (m *fakeMaker) Make(ctx context.Context, mr *multipart.Reader) (*photocal.Result, error) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		m.fields = append(m.fields, part.FormName())
		_ = part.Close()
	}
	return m.result, m.err
}

type compilerFunc func(ctx context.Context, req photocal.CompileRequest) (*photocal.Document, error)

func (f compilerFunc) Compile(ctx context.Context, req photocal.CompileRequest) (*photocal.Document, error) {
	return f(ctx, req)
}

type exporterFunc func(ctx context.Context, doc *photocal.Document) ([]byte, error)

func (f exporterFunc) Export(ctx context.Context, doc *photocal.Document) ([]byte, error) {
	return f(ctx, doc)
}

// multipartBody encodes name -> content file fields.
func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.CreateFormFile(name, name+".jpg")
		if err != nil {
			t.Fatalf("creating form file: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("writing form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func newMakeRequest(t *testing.T, files map[string][]byte) *http.Request {
	t.Helper()
	body, contentType := multipartBody(t, files)
	req := httptest.NewRequest(http.MethodPost, "/make", body)
	req.Header.Set("Content-Type", contentType)
	return req
}

// ---------------------------------------------------------------------------
// TestStatusFor
// ---------------------------------------------------------------------------

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "staging dir",
			err:        fmt.Errorf("%w: mkdir: permission denied", photocal.ErrStagingDir),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Failed to receive file",
		},
		{
			name:       "field write",
			err:        fmt.Errorf("%w: %q: no space left", photocal.ErrFieldWrite, "jan"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Failed to receive file",
		},
		{
			name:       "compile error with diagnostic",
			err:        &photocal.CompileError{Stage: photocal.StageResolve, Refs: []string{"feb"}},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `Failed to compile document: file not found: "feb"`,
		},
		{
			name:       "bare compile sentinel",
			err:        fmt.Errorf("wrapped: %w", photocal.ErrCompile),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Failed to compile document",
		},
		{
			name:       "strict export",
			err:        fmt.Errorf("%w: browser gone", photocal.ErrExport),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Failed to export document",
		},
		{
			name:       "upload too large",
			err:        fmt.Errorf("%w: limit 10 bytes", photocal.ErrUploadTooLarge),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantBody:   "Upload too large",
		},
		{
			name:       "canceled",
			err:        fmt.Errorf("%w: context canceled", photocal.ErrCanceled),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "Request canceled",
		},
		{
			name:       "unknown",
			err:        errors.New("internal error: nil map"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status, body := statusFor(tt.err)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestMakeHandler
// ---------------------------------------------------------------------------

func TestMakeHandler_Success(t *testing.T) {
	t.Parallel()

	maker := &fakeMaker{result: &photocal.Result{
		PDF:    mockPDF,
		Inputs: photocal.InputMap{"jan": "jan", "feb": "feb"},
		Stats:  photocal.StageStats{Accepted: 2},
	}}
	srv := New(maker, Config{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, newMakeRequest(t, map[string][]byte{"jan": []byte("J"), "feb": []byte("F")}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %q)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("Content-Type = %q, want application/pdf", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="calendar.pdf"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), mockPDF) {
		t.Errorf("body = %q, want %q", rec.Body.Bytes(), mockPDF)
	}
	if rec.Header().Get(DegradedHeader) != "" {
		t.Errorf("%s set on a full export", DegradedHeader)
	}
	if len(maker.fields) != 2 {
		t.Errorf("maker saw fields %v, want 2", maker.fields)
	}
}

func TestMakeHandler_Degraded(t *testing.T) {
	t.Parallel()

	maker := &fakeMaker{result: &photocal.Result{PDF: []byte{}, Degraded: true}}
	srv := New(maker, Config{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, newMakeRequest(t, map[string][]byte{"jan": []byte("J")}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
	if rec.Header().Get(DegradedHeader) != "true" {
		t.Errorf("%s = %q, want true", DegradedHeader, rec.Header().Get(DegradedHeader))
	}
}

func TestMakeHandler_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "receive failure",
			err:        fmt.Errorf("%w: /tmp/photocal-123: read-only", photocal.ErrStagingDir),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Failed to receive file",
		},
		{
			name:       "compile failure",
			err:        &photocal.CompileError{Stage: photocal.StageResolve, Refs: []string{"feb"}},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `Failed to compile document: file not found: "feb"`,
		},
		{
			name:       "canceled",
			err:        photocal.ErrCanceled,
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "Request canceled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := New(&fakeMaker{err: tt.err}, Config{})
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, newMakeRequest(t, map[string][]byte{"jan": []byte("J")}))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := strings.TrimSpace(rec.Body.String())
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
			if strings.Contains(body, "/tmp") {
				t.Errorf("body leaks a filesystem path: %q", body)
			}
		})
	}
}

func TestMakeHandler_NotMultipart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
	}{
		{name: "json", contentType: "application/json"},
		{name: "missing", contentType: ""},
		{name: "multipart without boundary", contentType: "multipart/form-data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			maker := &fakeMaker{}
			srv := New(maker, Config{})
			req := httptest.NewRequest(http.MethodPost, "/make", strings.NewReader(`{"jan":"x"}`))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != "Expected multipart/form-data" {
				t.Errorf("body = %q", got)
			}
		})
	}
}

func TestMakeHandler_BodyLimit(t *testing.T) {
	t.Parallel()

	exported := false
	maker := photocal.NewMaker(
		compilerFunc(func(ctx context.Context, req photocal.CompileRequest) (*photocal.Document, error) {
			return &photocal.Document{}, nil
		}),
		exporterFunc(func(ctx context.Context, doc *photocal.Document) ([]byte, error) {
			exported = true
			return mockPDF, nil
		}),
		photocal.WithStagingBase(t.TempDir()),
	)
	srv := New(maker, Config{MaxBodyBytes: 512})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, newMakeRequest(t, map[string][]byte{"jan": bytes.Repeat([]byte("x"), 4096)}))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "Upload too large" {
		t.Errorf("body = %q, want %q", got, "Upload too large")
	}
	if exported {
		t.Error("export ran for an oversized upload")
	}
}

func TestMakeHandler_LogsWithRequestID(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	srv := New(&fakeMaker{err: fmt.Errorf("%w: boom", photocal.ErrExport)}, Config{}, WithLogger(zap.New(core)))

	req := newMakeRequest(t, map[string][]byte{"jan": []byte("J")})
	req.Header.Set(RequestIDHeader, "req-42")
	srv.Handler().ServeHTTP(httptest.NewRecorder(), req)

	failures := logs.FilterMessage("calendar build failed").All()
	if len(failures) != 1 {
		t.Fatalf("got %d failure log entries, want 1", len(failures))
	}
	if got := failures[0].ContextMap()["request_id"]; got != "req-42" {
		t.Errorf("request_id = %v, want req-42", got)
	}

	access := logs.FilterMessage("request").All()
	if len(access) != 1 {
		t.Fatalf("got %d access log entries, want 1", len(access))
	}
	if got := access[0].ContextMap()["status"]; got != int64(http.StatusInternalServerError) {
		t.Errorf("logged status = %v, want 500", got)
	}
}
