package assets

import (
	"fmt"
	"strings"
)

// maxAssetNameLength bounds asset names; built-in names are short words.
const maxAssetNameLength = 64

// ValidateAssetName rejects names that are empty, too long, or that could
// address another file: path separators, dots or NUL bytes.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if len(name) > maxAssetNameLength {
		return fmt.Errorf("%w: name longer than %d characters", ErrInvalidAssetName, maxAssetNameLength)
	}
	if strings.ContainsAny(name, "/\\.\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
