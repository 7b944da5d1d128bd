// Package photocal turns a set of uploaded photos into a printable calendar PDF.
//
// A request flows through four stages:
//
//	multipart upload -> staging directory -> template compilation -> PDF export
//
// Basic usage:
//
//	pool := photocal.NewRendererPool(photocal.ResolvePoolSize(0), time.Minute)
//	defer pool.Close()
//
//	compiler, err := photocal.NewCompiler(photocal.CompilerConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	exporter := photocal.NewExporter(pool, photocal.ExporterConfig{})
//
//	maker := photocal.NewMaker(compiler, exporter)
//	result, err := maker.Make(ctx, multipartReader)
//
// Each upload field becomes a file named after the field inside a private,
// per-request staging directory. The calendar template refers to photos by
// field name: "jan" through "dec" fill the month pages and "cover" the
// cover page. The staging directory is removed when Make returns, whatever
// the outcome.
//
// Export uses headless Chrome through go-rod. Rod downloads Chromium on
// first use unless ROD_BROWSER_BIN points to an installed browser.
package photocal
