package photocal

import (
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/image/font/sfnt"

	"github.com/alnah/go-photocal/internal/assets"
)

// FontFamily is the CSS family name the calendar template uses.
const FontFamily = "Photocal Sans"

// fontFace describes one embedded face of FontFamily.
type fontFace struct {
	asset  string
	weight int
}

// calendarFaces are the two faces the template needs: body text and headings.
var calendarFaces = []fontFace{
	{asset: assets.FontMediumName, weight: 500},
	{asset: assets.FontBoldName, weight: 700},
}

// loadedFont is a validated font ready for embedding.
type loadedFont struct {
	face   fontFace
	family string // family name read from the font's name table
	data   []byte
}

// loadFonts loads and parses every calendar face.
// Any unreadable or unparseable font is an ErrInvalidFont.
func loadFonts(loader assets.AssetLoader) ([]loadedFont, error) {
	fonts := make([]loadedFont, 0, len(calendarFaces))
	for _, face := range calendarFaces {
		data, err := loader.LoadFont(face.asset)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFont, face.asset, err)
		}

		f, err := sfnt.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFont, face.asset, err)
		}
		if f.NumGlyphs() == 0 {
			return nil, fmt.Errorf("%w: %s: no glyphs", ErrInvalidFont, face.asset)
		}

		var buf sfnt.Buffer
		family, err := f.Name(&buf, sfnt.NameIDFamily)
		if err != nil {
			family = face.asset
		}

		fonts = append(fonts, loadedFont{face: face, family: family, data: data})
	}
	return fonts, nil
}

// fontFaceCSS renders @font-face rules embedding each font as a data URL,
// so the document needs no font files at render time.
func fontFaceCSS(fonts []loadedFont) string {
	var b strings.Builder
	for _, f := range fonts {
		fmt.Fprintf(&b, "@font-face { font-family: %q; font-style: normal; font-weight: %d; src: url(data:font/ttf;base64,%s) format(\"truetype\"); }\n",
			FontFamily, f.face.weight, base64.StdEncoding.EncodeToString(f.data))
	}
	return b.String()
}
