//go:build integration

package photocal

import (
	"context"
	"image/color"
	"os"
	"testing"
)

func TestMaker_Make_Integration(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	exp := NewExporter(testPool, ExporterConfig{Timeout: testTimeout})
	m := NewMaker(fixedCompiler(t, CompilerConfig{}), exp,
		WithStagingBase(base), WithExportPolicy(ExportStrict))

	res, err := m.Make(context.Background(), newMultipartReader(t,
		fileField("jan", tinyPNG(t, color.RGBA{R: 200, A: 255})),
		fileField("feb", tinyPNG(t, color.RGBA{B: 200, A: 255})),
	))
	if err != nil {
		t.Fatalf("Make() error = %v", err)
	}

	assertValidPDF(t, res.PDF)
	if res.Degraded {
		t.Error("Degraded = true, want false")
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		t.Fatalf("reading staging base: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("staging base holds %d entries, want 0", len(entries))
	}
}

func TestMaker_Make_NoPhotos_Integration(t *testing.T) {
	t.Parallel()

	exp := NewExporter(testPool, ExporterConfig{Timeout: testTimeout})
	m := NewMaker(fixedCompiler(t, CompilerConfig{}), exp,
		WithStagingBase(t.TempDir()), WithExportPolicy(ExportStrict))

	res, err := m.Make(context.Background(), newMultipartReader(t))
	if err != nil {
		t.Fatalf("Make() error = %v", err)
	}
	assertValidPDF(t, res.PDF)
}

func TestRodRenderer_PageSizes_Integration(t *testing.T) {
	t.Parallel()

	for _, size := range []string{PageSizeLetter, PageSizeA4, PageSizeLegal} {
		t.Run(size, func(t *testing.T) {
			t.Parallel()

			page := &PageSettings{Size: size, Orientation: OrientationPortrait, Margin: DefaultMargin}
			exp := NewExporter(testPool, ExporterConfig{Page: page, Timeout: testTimeout})
			pdf, err := exp.Export(context.Background(), &Document{
				HTML: "<!DOCTYPE html><html><head></head><body><h1>" + size + "</h1></body></html>",
			})
			if err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			assertValidPDF(t, pdf)
		})
	}
}
