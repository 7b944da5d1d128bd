package photocal_test

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/alnah/go-photocal"
)

// htmlSizeExporter stands in for Chrome so the example runs anywhere.
type htmlSizeExporter struct{}

func (htmlSizeExporter) Export(ctx context.Context, doc *photocal.Document) ([]byte, error) {
	return []byte(fmt.Sprintf("%d bytes of HTML", len(doc.HTML))), nil
}

// Example demonstrates staging two photos and compiling the calendar.
// A real server passes photocal.NewExporter(pool, ...) instead.
func Example() {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, month := range []string{"jan", "feb"} {
		fw, _ := w.CreateFormFile(month, month+".jpg")
		_, _ = fw.Write([]byte("not really a jpeg"))
	}
	_ = w.Close()

	compiler, err := photocal.NewCompiler(photocal.CompilerConfig{
		Calendar: photocal.CalendarSettings{Year: 2027},
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	maker := photocal.NewMaker(compiler, htmlSizeExporter{})
	result, err := maker.Make(context.Background(), multipart.NewReader(&body, w.Boundary()))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println("staged:", strings.Join(result.Inputs.Keys(), ","))
	fmt.Println("degraded:", result.Degraded)
	// Output:
	// staged: feb,jan
	// degraded: false
}
