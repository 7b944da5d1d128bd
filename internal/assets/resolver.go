package assets

import "errors"

// Asset origins reported by AssetResolver.Origin.
const (
	OriginCustom   = "custom"
	OriginEmbedded = "embedded"
)

// source is one loader in the lookup chain.
type source struct {
	origin string
	loader AssetLoader
}

// AssetResolver looks assets up in the asset directory, then in the
// embedded files. Only "not found" moves on to the next source; a name or
// I/O error from the asset directory is returned as is.
type AssetResolver struct {
	chain []source
}

// NewAssetResolver creates an AssetResolver.
// An empty customBasePath uses the embedded assets only.
func NewAssetResolver(customBasePath string) (*AssetResolver, error) {
	r := &AssetResolver{}
	if customBasePath != "" {
		fsLoader, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		r.chain = append(r.chain, source{origin: OriginCustom, loader: fsLoader})
	}
	r.chain = append(r.chain, source{origin: OriginEmbedded, loader: NewEmbeddedLoader()})
	return r, nil
}

// LoadTemplate returns the first template found along the chain.
func (r *AssetResolver) LoadTemplate(name string) (string, error) {
	tmpl, _, err := lookup(r, func(l AssetLoader) (string, error) {
		return l.LoadTemplate(name)
	})
	return tmpl, err
}

// LoadFont returns the first font found along the chain.
func (r *AssetResolver) LoadFont(name string) ([]byte, error) {
	font, _, err := lookup(r, func(l AssetLoader) ([]byte, error) {
		return l.LoadFont(name)
	})
	return font, err
}

// TemplateOrigin reports which source serves the named template.
func (r *AssetResolver) TemplateOrigin(name string) (string, error) {
	_, origin, err := lookup(r, func(l AssetLoader) (string, error) {
		return l.LoadTemplate(name)
	})
	return origin, err
}

// HasCustomLoader reports whether an asset directory is configured.
func (r *AssetResolver) HasCustomLoader() bool {
	return len(r.chain) > 1
}

func lookup[T any](r *AssetResolver, load func(AssetLoader) (T, error)) (T, string, error) {
	var (
		zero T
		err  error
	)
	for _, s := range r.chain {
		var v T
		v, err = load(s.loader)
		if err == nil {
			return v, s.origin, nil
		}
		if !errors.Is(err, ErrTemplateNotFound) && !errors.Is(err, ErrFontNotFound) {
			return zero, "", err
		}
	}
	return zero, "", err
}

var _ AssetLoader = (*AssetResolver)(nil)
