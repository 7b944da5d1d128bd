package server

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/alnah/go-photocal"
)

// Maker runs one upload through the calendar pipeline.
// *photocal.Maker implements it.
type Maker interface {
	Make(ctx context.Context, mr *multipart.Reader) (*photocal.Result, error)
}

// Response bodies. They are part of the HTTP contract.
const (
	msgNotMultipart   = "Expected multipart/form-data"
	msgReceiveFailed  = "Failed to receive file"
	msgCompileFailed  = "Failed to compile document"
	msgExportFailed   = "Failed to export document"
	msgUploadTooLarge = "Upload too large"
	msgCanceled       = "Request canceled"
	msgInternal       = "Internal server error"
)

// DegradedHeader is set to "true" when export failed and the PDF is empty.
const DegradedHeader = "X-Photocal-Degraded"

// pdfFilename is the download name offered to browsers.
const pdfFilename = "calendar.pdf"

// makeHandler serves POST /make.
type makeHandler struct {
	maker   Maker
	logger  *zap.Logger
	metrics *Metrics
}

func (h *makeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With(zap.String("request_id", RequestIDFrom(r.Context())))

	mr, err := r.MultipartReader()
	if err != nil {
		log.Debug("rejecting non-multipart request", zap.Error(err))
		http.Error(w, msgNotMultipart, http.StatusBadRequest)
		return
	}

	if h.metrics != nil {
		h.metrics.inFlight.Inc()
		defer h.metrics.inFlight.Dec()
	}

	res, err := h.maker.Make(r.Context(), mr)
	if err != nil {
		status, body := statusFor(err)
		if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
			log.Error("calendar build failed", zap.Int("status", status), zap.Error(err))
		} else {
			log.Warn("calendar build rejected", zap.Int("status", status), zap.Error(err))
		}
		http.Error(w, body, status)
		return
	}

	if h.metrics != nil {
		h.metrics.observeResult(res)
	}
	log.Debug("calendar built",
		zap.Strings("inputs", res.Inputs.Keys()),
		zap.Int("skipped", res.Stats.Skipped()),
		zap.Int("pdf_bytes", len(res.PDF)),
		zap.Bool("degraded", res.Degraded))

	header := w.Header()
	header.Set("Content-Type", "application/pdf")
	header.Set("Content-Disposition", `attachment; filename="`+pdfFilename+`"`)
	header.Set("Content-Length", strconv.Itoa(len(res.PDF)))
	if res.Degraded {
		header.Set(DegradedHeader, "true")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.PDF); err != nil {
		log.Debug("writing response failed", zap.Error(err))
	}
}

// statusFor maps a Make error to its HTTP status and response body.
func statusFor(err error) (int, string) {
	var compileErr *photocal.CompileError

	switch {
	case errors.Is(err, photocal.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge, msgUploadTooLarge
	case errors.Is(err, photocal.ErrCanceled):
		return http.StatusServiceUnavailable, msgCanceled
	case errors.Is(err, photocal.ErrStagingDir), errors.Is(err, photocal.ErrFieldWrite):
		return http.StatusInternalServerError, msgReceiveFailed
	case errors.As(err, &compileErr):
		return http.StatusInternalServerError, msgCompileFailed + ": " + compileErr.Diagnostic()
	case errors.Is(err, photocal.ErrCompile):
		return http.StatusInternalServerError, msgCompileFailed
	case errors.Is(err, photocal.ErrExport):
		return http.StatusInternalServerError, msgExportFailed
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
