package bookroll

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"
)

// pngDataURLPrefix is what HTMLCanvasElement.toDataURL("image/png") emits.
const pngDataURLPrefix = "data:image/png;base64,"

// Snapshot is an immutable PNG-encoded raster captured from a Surface.
// Two snapshots are equal when their encodings are byte-identical; this is
// the only stability and duplicate signal the capture loop uses.
type Snapshot struct {
	data []byte
}

// NewSnapshot copies data into a new Snapshot.
func NewSnapshot(data []byte) Snapshot {
	return Snapshot{data: bytes.Clone(data)}
}

// SnapshotFromDataURL decodes a base64 PNG data URL.
func SnapshotFromDataURL(dataURL string) (Snapshot, error) {
	payload, ok := strings.CutPrefix(dataURL, pngDataURLPrefix)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: not a PNG data URL", ErrSurfaceRead)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: decoding data URL: %v", ErrSurfaceRead, err)
	}
	return Snapshot{data: data}, nil
}

// IsZero reports whether s holds no data.
func (s Snapshot) IsZero() bool {
	return len(s.data) == 0
}

// Equal reports whether s and o have identical encodings.
func (s Snapshot) Equal(o Snapshot) bool {
	return bytes.Equal(s.data, o.data)
}

// Len returns the encoded size in bytes.
func (s Snapshot) Len() int {
	return len(s.data)
}

// Bytes returns a copy of the encoded PNG.
func (s Snapshot) Bytes() []byte {
	return bytes.Clone(s.data)
}

// Reader returns a reader over the encoded PNG without copying.
func (s Snapshot) Reader() *bytes.Reader {
	return bytes.NewReader(s.data)
}

// Config decodes the PNG header and returns the image dimensions.
func (s Snapshot) Config() (image.Config, error) {
	cfg, err := png.DecodeConfig(s.Reader())
	if err != nil {
		return image.Config{}, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return cfg, nil
}

// DataURL returns the snapshot as a base64 PNG data URL.
func (s Snapshot) DataURL() string {
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(s.data)
}

// WriteFile writes the encoded PNG to path.
func (s Snapshot) WriteFile(path string) error {
	return os.WriteFile(path, s.data, 0o644) // #nosec G306 -- output images are user-facing
}
