// Package assets provides the in-page scripts and the HTML page template
// used to drive the viewer and compose documents.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in assets)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// Overriding a script is how a different viewer build is supported without a
// rebuild: drop a replacement next.js or query.js in the custom directory and
// the rest falls back to the built-in copies.
//
// # Directory Structure
//
//	{basePath}/
//	├── scripts/
//	│   └── {name}.js            # query, probe, pixels, snapshot, next
//	└── templates/
//	    └── {name}.html          # document
//
// # Scripts
//
// Every script is a single JavaScript arrow function. Drivers call it with
// JSON-encoded arguments and read back a JSON value.
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
