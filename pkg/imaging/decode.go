// Package imaging decodes raster images into pixel grids without external
// image libraries.
//
// Three containers are supported: PNG (non-interlaced), baseline JPEG, and
// the PNM family (P1–P6). The decoders differ deliberately in their failure
// policy: PNG decoding is fail-fast and never returns a partial image, while
// JPEG decoding keeps whatever pixels were produced before an entropy-stream
// failure and stops cleanly (see Image.Partial).
package imaging

import (
	"strings"

	"github.com/tracevec/tracevec/pkg/errors"
)

// Image is the output of a container decoder.
type Image struct {
	Width, Height int

	// Gray holds the luma plane, always populated. Color sources are
	// converted with the BT.601 weights (0.299, 0.587, 0.114).
	Gray *Grid

	// RGB holds interleaved 8-bit RGB samples (3*Width*Height bytes) for
	// color sources, nil when the source was grayscale.
	RGB []uint8

	// Partial is true when a JPEG entropy-stream failure stopped decoding
	// early; the pixels produced up to that point are kept. PNG and PNM
	// decoding never set this.
	Partial bool

	// Reason describes why decoding stopped early when Partial is true.
	Reason error
}

// supportedExtensions is the set accepted by Decode, in display order.
var supportedExtensions = []string{"png", "jpg", "jpeg", "ppm", "pgm", "pbm"}

// SupportedExtensions returns the file extensions Decode accepts.
func SupportedExtensions() []string {
	out := make([]string, len(supportedExtensions))
	copy(out, supportedExtensions)
	return out
}

// Decode dispatches raw image bytes to the decoder selected by ext.
// The extension is case-insensitive and may carry a leading dot. An
// unrecognized extension fails immediately, naming the supported set.
func Decode(data []byte, ext string) (*Image, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return DecodePNG(data)
	case "jpg", "jpeg":
		return DecodeJPEG(data)
	case "ppm", "pgm", "pbm":
		return DecodePNM(data)
	default:
		return nil, errors.New(errors.ErrCodeFormatUnsupported,
			"unsupported image format %q (supported: %s)", ext, strings.Join(supportedExtensions, ", "))
	}
}

// grayFromRGB fills the Gray plane of img from its RGB buffer.
func grayFromRGB(img *Image) {
	img.Gray = NewGrid(img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := (y*img.Width + x) * 3
			r := int(img.RGB[i])
			g := int(img.RGB[i+1])
			b := int(img.RGB[i+2])
			img.Gray.Set(x, y, luma(r, g, b))
		}
	}
}

// luma converts RGB to grayscale with integer BT.601 weights.
func luma(r, g, b int) int {
	return (299*r + 587*g + 114*b) / 1000
}
