package assets

import "fmt"

// Script names.
const (
	ScriptQuery    = "query"
	ScriptProbe    = "probe"
	ScriptPixels   = "pixels"
	ScriptSnapshot = "snapshot"
	ScriptNext     = "next"
)

// TemplateDocument is the page layout template used by the chrome composer.
const TemplateDocument = "document"

// Scripts holds every in-page script a viewer driver evaluates.
type Scripts struct {
	Query    string // (selector) => [{index, width, height}]
	Probe    string // (index, stride) => bool
	Pixels   string // (index) => base64 RGBA
	Snapshot string // (index) => PNG data URL
	Next     string // (selector, disabledClass) => clicked
}

// LoadScripts loads the full script set from loader.
func LoadScripts(loader AssetLoader) (*Scripts, error) {
	s := &Scripts{}
	for _, entry := range []struct {
		name string
		dst  *string
	}{
		{ScriptQuery, &s.Query},
		{ScriptProbe, &s.Probe},
		{ScriptPixels, &s.Pixels},
		{ScriptSnapshot, &s.Snapshot},
		{ScriptNext, &s.Next},
	} {
		content, err := loader.LoadScript(entry.name)
		if err != nil {
			return nil, fmt.Errorf("loading %s script: %w", entry.name, err)
		}
		*entry.dst = content
	}
	return s, nil
}

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// DefaultScripts loads the built-in script set.
func DefaultScripts() (*Scripts, error) {
	return LoadScripts(defaultLoader)
}

// LoadTemplate loads an HTML template by name using the embedded loader.
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}
