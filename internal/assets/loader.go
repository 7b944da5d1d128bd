package assets

// AssetLoader defines the contract for loading templates and fonts.
type AssetLoader interface {
	// LoadTemplate loads an HTML template by name (without .html extension).
	// Returns ErrTemplateNotFound if the template doesn't exist.
	// Returns ErrInvalidAssetName if the name contains invalid characters.
	LoadTemplate(name string) (string, error)

	// LoadFont loads a TrueType font by name (without .ttf extension).
	// Returns ErrFontNotFound if the font doesn't exist.
	// Returns ErrInvalidAssetName if the name contains invalid characters.
	LoadFont(name string) ([]byte, error)
}

// Built-in asset names.
const (
	CalendarTemplateName = "calendar"
	FontMediumName       = "DejaVuSans"
	FontBoldName         = "DejaVuSans-Bold"
)
