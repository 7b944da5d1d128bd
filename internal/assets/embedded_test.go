package assets

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestEmbeddedLoader_LoadTemplate(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()

	tests := []struct {
		name         string
		templateName string
		wantErr      error
		wantContain  string
	}{
		{
			name:         "loads calendar template",
			templateName: CalendarTemplateName,
			wantContain:  "{{- range .Months}}",
		},
		{
			name:         "returns ErrTemplateNotFound for nonexistent",
			templateName: "nonexistent-template-xyz",
			wantErr:      ErrTemplateNotFound,
		},
		{
			name:         "returns ErrInvalidAssetName for empty name",
			templateName: "",
			wantErr:      ErrInvalidAssetName,
		},
		{
			name:         "returns ErrInvalidAssetName for path traversal",
			templateName: "../secret",
			wantErr:      ErrInvalidAssetName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := loader.LoadTemplate(tt.templateName)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LoadTemplate(%q) error = %v, want %v", tt.templateName, err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("LoadTemplate(%q) unexpected error: %v", tt.templateName, err)
			}
			if !strings.Contains(got, tt.wantContain) {
				t.Errorf("LoadTemplate(%q) content should contain %q", tt.templateName, tt.wantContain)
			}
		})
	}
}

func TestEmbeddedLoader_LoadFont(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()

	// TrueType fonts start with the 0x00010000 sfnt version tag.
	ttfMagic := []byte{0x00, 0x01, 0x00, 0x00}

	for _, name := range []string{FontMediumName, FontBoldName} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			data, err := loader.LoadFont(name)
			if err != nil {
				t.Fatalf("LoadFont(%q) error = %v", name, err)
			}
			if !bytes.HasPrefix(data, ttfMagic) {
				t.Errorf("LoadFont(%q) does not look like a TrueType font", name)
			}
		})
	}

	t.Run("missing font", func(t *testing.T) {
		t.Parallel()

		if _, err := loader.LoadFont("Comic"); !errors.Is(err, ErrFontNotFound) {
			t.Errorf("LoadFont(Comic) error = %v, want ErrFontNotFound", err)
		}
	})
}
