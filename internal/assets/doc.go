// Package assets provides the calendar template, the embedded fonts, and the
// filesystem roots that compiled documents resolve their references against.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in template and fonts)
//	    ├── FilesystemLoader  - loads from a directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver is what the compiler uses at startup: a template placed in
// the asset directory overrides the embedded one, anything missing falls
// back to the embedded copy.
//
// # Search Path
//
// SearchPath is an ordered list of FilesystemLoader roots. Each request
// builds its own SearchPath (staging directory first, shared asset
// directory second) so a reference to an uploaded file only ever resolves
// to that request's copy.
//
// # Directory Structure
//
//	{basePath}/
//	├── fonts/
//	│   └── {name}.ttf
//	└── templates/
//	    └── {name}.html
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
