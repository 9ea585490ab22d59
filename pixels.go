package bookroll

import "encoding/binary"

// Packed pixel values as seen through a little-endian uint32 view of RGBA
// bytes: alpha lives in the most significant byte.
const (
	packedAlphaMask   = 0xFF000000
	packedOpaqueWhite = 0xFFFFFFFF
)

// HasContent reports whether pix (RGBA, 4 bytes per pixel) contains any
// visible pixel that is not opaque white. Only every stride-th pixel is
// inspected; fully transparent pixels are ignored whatever their RGB.
// A stride below 1 inspects every pixel.
func HasContent(pix []byte, stride int) bool {
	if stride < 1 {
		stride = 1
	}
	n := len(pix) / 4
	for i := 0; i < n; i += stride {
		p := binary.LittleEndian.Uint32(pix[i*4:])
		if p&packedAlphaMask == 0 {
			continue
		}
		if p != packedOpaqueWhite {
			return true
		}
	}
	return false
}
