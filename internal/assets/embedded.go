package assets

import (
	"embed"
	"fmt"
)

//go:embed templates/*.html
var templates embed.FS

//go:embed fonts/*.ttf
var fonts embed.FS

// EmbeddedLoader loads assets from embedded filesystem.
// Implements AssetLoader interface.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadTemplate loads an HTML template from embedded assets by name.
func (e *EmbeddedLoader) LoadTemplate(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	content, err := templates.ReadFile("templates/" + name + ".html")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}

	return string(content), nil
}

// LoadFont loads a TrueType font from embedded assets by name.
// The returned slice aliases read-only embedded data and must not be modified.
func (e *EmbeddedLoader) LoadFont(name string) ([]byte, error) {
	if err := ValidateAssetName(name); err != nil {
		return nil, err
	}

	content, err := fonts.ReadFile("fonts/" + name + ".ttf")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrFontNotFound, name)
	}

	return content, nil
}

// Compile-time interface check.
var _ AssetLoader = (*EmbeddedLoader)(nil)
