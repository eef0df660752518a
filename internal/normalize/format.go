// Package normalize rewrites raw screencopy buffers into top-left-origin
// RGBA8 images, undoing the output transform and the wire pixel layout.
package normalize

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat    = errors.New("unsupported pixel format")
	ErrUnsupportedTransform = errors.New("unsupported output transform")
	ErrInvalidBuffer        = errors.New("invalid frame buffer")
)

// Format is a wl_shm pixel format code.
type Format uint32

// Only the 32-bit layouts below are accepted. Codes match wl_shm.format:
// the two legacy formats are 0 and 1, the rest are DRM fourcc values.
const (
	FormatARGB8888 Format = 0
	FormatXRGB8888 Format = 1
	FormatXBGR8888 Format = 0x34324258
)

func (f Format) Supported() bool {
	switch f {
	case FormatARGB8888, FormatXRGB8888, FormatXBGR8888:
		return true
	default:
		return false
	}
}

func (f Format) String() string {
	switch f {
	case FormatARGB8888:
		return "argb8888"
	case FormatXRGB8888:
		return "xrgb8888"
	case FormatXBGR8888:
		return "xbgr8888"
	default:
		return fmt.Sprintf("0x%08x", uint32(f))
	}
}

// toRGBA writes the 4 bytes of one pixel in format f from src into dst as
// R, G, B, A. Formats are little-endian packed words, so ARGB8888 sits in
// memory as B, G, R, A.
func toRGBA(f Format, dst, src []byte) {
	switch f {
	case FormatARGB8888:
		dst[0], dst[1], dst[2], dst[3] = src[2], src[1], src[0], src[3]
	case FormatXRGB8888:
		dst[0], dst[1], dst[2], dst[3] = src[2], src[1], src[0], 0xff
	case FormatXBGR8888:
		dst[0], dst[1], dst[2], dst[3] = src[0], src[1], src[2], 0xff
	}
}
