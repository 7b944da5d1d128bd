package photocal

import "errors"

// Sentinel errors for the upload-to-PDF pipeline.
var (
	ErrStagingDir     = errors.New("failed to create staging directory")
	ErrFieldWrite     = errors.New("failed to write upload field")
	ErrUploadTooLarge = errors.New("upload exceeds size limit")
	ErrCanceled       = errors.New("request canceled")
	ErrCompile        = errors.New("document compilation failed")
	ErrExport         = errors.New("document export failed")

	// Startup errors.
	ErrInvalidFont     = errors.New("invalid font asset")
	ErrInvalidTemplate = errors.New("invalid calendar template")
	ErrInvalidAssetDir = errors.New("invalid asset directory")

	// Renderer errors.
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPoolClosed     = errors.New("renderer pool closed")

	// Page settings validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")
)
