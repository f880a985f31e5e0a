package imaging

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/tracevec/tracevec/pkg/errors"
)

// pngSignature is the fixed 8-byte prefix of every PNG file.
var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// PNG filter types, one byte preceding each scanline in the inflated stream.
const (
	pngFilterNone    = 0
	pngFilterSub     = 1
	pngFilterUp      = 2
	pngFilterAverage = 3
	pngFilterPaeth   = 4
)

// pngHeader holds the fields of the IHDR chunk.
type pngHeader struct {
	width, height int
	bitDepth      int
	colorType     int
	interlace     int
}

// channelsPerPixel maps PNG color types to sample counts.
// 0 grayscale, 2 RGB, 3 palette index, 4 grayscale+alpha, 6 RGBA.
var channelsPerPixel = map[int]int{0: 1, 2: 3, 3: 1, 4: 2, 6: 4}

// DecodePNG decodes a non-interlaced PNG image.
//
// The chunk stream is walked sequentially; chunk CRCs are parsed but not
// verified. All IDAT payloads are concatenated and inflated, scanline
// filters are undone, and the samples are packed into pixels according to
// the color type and bit depth (sub-byte depths unpack most significant
// bits first; 16-bit samples keep only the high byte).
//
// Decoding is fail-fast: a bad signature, Adam7 interlacing, an unsupported
// color type or bit depth, or a truncated chunk stream returns an error and
// no partial image.
func DecodePNG(data []byte) (*Image, error) {
	if len(data) < len(pngSignature) || !bytes.Equal(data[:len(pngSignature)], pngSignature) {
		return nil, errors.New(errors.ErrCodeFormatSignature, "invalid PNG signature")
	}

	var (
		hdr     *pngHeader
		palette [][3]uint8
		idat    []byte
	)

	pos := len(pngSignature)
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		chunkType := string(data[pos+4 : pos+8])
		if pos+12+length > len(data) {
			return nil, errors.New(errors.ErrCodeDecodeTruncated, "truncated %s chunk", chunkType)
		}
		chunk := data[pos+8 : pos+8+length]
		pos += 12 + length // length + type + payload + CRC (not verified)

		switch chunkType {
		case "IHDR":
			h, err := parseIHDR(chunk)
			if err != nil {
				return nil, err
			}
			hdr = h
		case "PLTE":
			palette = parsePLTE(chunk)
		case "IDAT":
			idat = append(idat, chunk...)
		case "IEND":
			pos = len(data)
		}
	}

	if hdr == nil {
		return nil, errors.New(errors.ErrCodeDecodeTruncated, "missing IHDR chunk")
	}

	raw, err := inflate(idat)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecodeCorrupt, err, "inflate IDAT stream")
	}

	return unpackScanlines(hdr, palette, raw)
}

// parseIHDR validates and extracts the image header.
func parseIHDR(chunk []byte) (*pngHeader, error) {
	if len(chunk) < 13 {
		return nil, errors.New(errors.ErrCodeDecodeTruncated, "short IHDR chunk (%d bytes)", len(chunk))
	}
	h := &pngHeader{
		width:     int(binary.BigEndian.Uint32(chunk[0:4])),
		height:    int(binary.BigEndian.Uint32(chunk[4:8])),
		bitDepth:  int(chunk[8]),
		colorType: int(chunk[9]),
		interlace: int(chunk[12]),
	}
	if h.width <= 0 || h.height <= 0 {
		return nil, errors.New(errors.ErrCodeDecodeCorrupt, "invalid dimensions %dx%d", h.width, h.height)
	}
	if h.interlace != 0 {
		return nil, errors.New(errors.ErrCodeFormatInterlaced, "Adam7 interlaced PNG not supported")
	}
	if _, ok := channelsPerPixel[h.colorType]; !ok {
		return nil, errors.New(errors.ErrCodeFormatUnsupported, "unsupported color type %d", h.colorType)
	}
	switch h.bitDepth {
	case 1, 2, 4, 8, 16:
	default:
		return nil, errors.New(errors.ErrCodeFormatUnsupported, "unsupported bit depth %d", h.bitDepth)
	}
	return h, nil
}

// parsePLTE splits the palette chunk into RGB triplets.
func parsePLTE(chunk []byte) [][3]uint8 {
	palette := make([][3]uint8, 0, len(chunk)/3)
	for i := 0; i+2 < len(chunk); i += 3 {
		palette = append(palette, [3]uint8{chunk[i], chunk[i+1], chunk[i+2]})
	}
	return palette
}

// inflate decompresses the concatenated IDAT payloads.
func inflate(idat []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(idat))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// unpackScanlines undoes the per-row filters and packs bytes into pixels.
func unpackScanlines(hdr *pngHeader, palette [][3]uint8, raw []byte) (*Image, error) {
	channels := channelsPerPixel[hdr.colorType]
	bpp := (hdr.bitDepth*channels + 7) / 8 // filter offset, at least one byte
	rowBytes := (hdr.width*channels*hdr.bitDepth + 7) / 8

	if len(raw) < hdr.height*(rowBytes+1) {
		return nil, errors.New(errors.ErrCodeDecodeTruncated,
			"inflated stream too short: %d bytes for %d scanlines of %d", len(raw), hdr.height, rowBytes+1)
	}

	img := &Image{Width: hdr.width, Height: hdr.height}
	color := hdr.colorType == 2 || hdr.colorType == 3 || hdr.colorType == 6
	if color {
		img.RGB = make([]uint8, 3*hdr.width*hdr.height)
	} else {
		img.Gray = NewGrid(hdr.width, hdr.height)
	}

	prev := make([]uint8, rowBytes)
	for y := 0; y < hdr.height; y++ {
		off := y * (rowBytes + 1)
		filter := raw[off]
		row := raw[off+1 : off+1+rowBytes]
		if err := unfilterRow(filter, row, prev, bpp); err != nil {
			return nil, err
		}
		prev = row

		if err := packRow(img, hdr, palette, row, y); err != nil {
			return nil, err
		}
	}

	if color {
		grayFromRGB(img)
	}
	return img, nil
}

// unfilterRow undoes one PNG scanline filter in place. prev must hold the
// previous unfiltered row (all zeros for the first scanline), and bpp is the
// filter byte offset for this pixel format.
func unfilterRow(filter uint8, row, prev []uint8, bpp int) error {
	switch filter {
	case pngFilterNone:
	case pngFilterSub:
		for i := bpp; i < len(row); i++ {
			row[i] += row[i-bpp]
		}
	case pngFilterUp:
		for i := range row {
			row[i] += prev[i]
		}
	case pngFilterAverage:
		for i := range row {
			left := 0
			if i >= bpp {
				left = int(row[i-bpp])
			}
			row[i] += uint8((left + int(prev[i])) / 2)
		}
	case pngFilterPaeth:
		for i := range row {
			var left, upLeft uint8
			if i >= bpp {
				left = row[i-bpp]
				upLeft = prev[i-bpp]
			}
			row[i] += paeth(left, prev[i], upLeft)
		}
	default:
		return errors.New(errors.ErrCodeDecodeCorrupt, "invalid scanline filter type %d", filter)
	}
	return nil
}

// paeth returns the Paeth predictor: whichever of (left, up, up-left) is
// closest to left + up - upLeft, preferring left, then up.
func paeth(left, up, upLeft uint8) uint8 {
	p := int(left) + int(up) - int(upLeft)
	pa := abs(p - int(left))
	pb := abs(p - int(up))
	pc := abs(p - int(upLeft))
	if pa <= pb && pa <= pc {
		return left
	}
	if pb <= pc {
		return up
	}
	return upLeft
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// packRow converts one unfiltered scanline into pixels of row y.
func packRow(img *Image, hdr *pngHeader, palette [][3]uint8, row []uint8, y int) error {
	switch {
	case hdr.bitDepth == 8:
		packRow8(img, hdr, palette, row, y)
	case hdr.bitDepth < 8:
		packRowSubByte(img, hdr, palette, row, y)
	default: // 16-bit: keep only the high byte of each sample
		packRow16(img, hdr, row, y)
	}
	return nil
}

// packRow8 handles the common one-byte-per-sample layouts.
func packRow8(img *Image, hdr *pngHeader, palette [][3]uint8, row []uint8, y int) {
	channels := channelsPerPixel[hdr.colorType]
	for x := 0; x < hdr.width; x++ {
		i := x * channels
		switch hdr.colorType {
		case 0: // grayscale
			img.Gray.Set(x, y, int(row[i]))
		case 4: // grayscale + alpha: alpha is dropped
			img.Gray.Set(x, y, int(row[i]))
		case 2, 6: // RGB / RGBA: alpha is dropped
			setRGB(img, x, y, row[i], row[i+1], row[i+2])
		case 3:
			setPaletteRGB(img, palette, x, y, int(row[i]))
		}
	}
}

// packRowSubByte unpacks 1/2/4-bit samples, most significant bits first.
// Sub-byte depths are only defined for grayscale and palette color types;
// grayscale values are scaled to the full [0, 255] range.
func packRowSubByte(img *Image, hdr *pngHeader, palette [][3]uint8, row []uint8, y int) {
	mask := (1 << hdr.bitDepth) - 1
	x := 0
	for _, b := range row {
		for shift := 8 - hdr.bitDepth; shift >= 0 && x < hdr.width; shift -= hdr.bitDepth {
			idx := (int(b) >> shift) & mask
			if hdr.colorType == 3 {
				setPaletteRGB(img, palette, x, y, idx)
			} else {
				img.Gray.Set(x, y, idx*255/mask)
			}
			x++
		}
	}
}

// packRow16 down-converts 16-bit samples by keeping the high byte.
func packRow16(img *Image, hdr *pngHeader, row []uint8, y int) {
	channels := channelsPerPixel[hdr.colorType]
	for x := 0; x < hdr.width; x++ {
		i := x * channels * 2
		switch hdr.colorType {
		case 0, 4:
			img.Gray.Set(x, y, int(row[i]))
		case 2, 6:
			setRGB(img, x, y, row[i], row[i+2], row[i+4])
		}
	}
}

// setRGB writes one pixel into the interleaved RGB buffer.
func setRGB(img *Image, x, y int, r, g, b uint8) {
	i := (y*img.Width + x) * 3
	img.RGB[i] = r
	img.RGB[i+1] = g
	img.RGB[i+2] = b
}

// setPaletteRGB resolves a palette index, falling back to black for indices
// outside the palette.
func setPaletteRGB(img *Image, palette [][3]uint8, x, y, idx int) {
	var c [3]uint8
	if idx >= 0 && idx < len(palette) {
		c = palette[idx]
	}
	setRGB(img, x, y, c[0], c[1], c[2])
}
