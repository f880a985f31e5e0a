package imaging

import (
	"github.com/tracevec/tracevec/pkg/errors"
)

// DecodePNM decodes the netpbm family: plain (P1, P2, P3) and binary
// (P4, P5, P6) bitmaps, graymaps, and pixmaps.
//
// The header is a whitespace-separated token stream in which '#' starts a
// comment running to end of line. Bitmaps (P1, P4) carry no maxval and use
// 1 for black, which maps to gray 0. Samples with maxval other than 255
// are rescaled to the full 8-bit range. Truncated pixel data is fatal.
func DecodePNM(data []byte) (*Image, error) {
	if len(data) < 2 || data[0] != 'P' || data[1] < '1' || data[1] > '6' {
		return nil, errors.New(errors.ErrCodeFormatSignature, "invalid PNM signature")
	}
	format := int(data[1] - '0')

	s := &pnmScanner{data: data, pos: 2}

	width, err := s.nextInt("width")
	if err != nil {
		return nil, err
	}
	height, err := s.nextInt("height")
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeDecodeCorrupt, "invalid dimensions %dx%d", width, height)
	}

	maxval := 1
	if format != 1 && format != 4 {
		maxval, err = s.nextInt("maxval")
		if err != nil {
			return nil, err
		}
		if maxval <= 0 || maxval > 65535 {
			return nil, errors.New(errors.ErrCodeDecodeCorrupt, "invalid maxval %d", maxval)
		}
	}

	img := &Image{Width: width, Height: height}
	color := format == 3 || format == 6
	if color {
		img.RGB = make([]uint8, 3*width*height)
	} else {
		img.Gray = NewGrid(width, height)
	}

	switch format {
	case 1:
		err = decodePlainBitmap(s, img)
	case 2, 3:
		err = decodePlainSamples(s, img, maxval, color)
	case 4:
		err = decodeRawBitmap(s, img)
	case 5, 6:
		err = decodeRawSamples(s, img, maxval, color)
	}
	if err != nil {
		return nil, err
	}

	if color {
		grayFromRGB(img)
	}
	return img, nil
}

// pnmScanner tokenizes a PNM header and plain-format body.
type pnmScanner struct {
	data []byte
	pos  int
}

// skipSpace advances past whitespace and '#' comments.
func (s *pnmScanner) skipSpace() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		switch {
		case c == '#':
			for s.pos < len(s.data) && s.data[s.pos] != '\n' {
				s.pos++
			}
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			s.pos++
		default:
			return
		}
	}
}

// nextInt reads the next decimal token.
func (s *pnmScanner) nextInt(what string) (int, error) {
	s.skipSpace()
	if s.pos >= len(s.data) || s.data[s.pos] < '0' || s.data[s.pos] > '9' {
		return 0, errors.New(errors.ErrCodeDecodeTruncated, "missing %s in PNM header", what)
	}
	v := 0
	for s.pos < len(s.data) && s.data[s.pos] >= '0' && s.data[s.pos] <= '9' {
		v = v*10 + int(s.data[s.pos]-'0')
		s.pos++
	}
	return v, nil
}

// skipSingleSpace consumes the one whitespace byte separating the header
// from raw pixel data in binary formats.
func (s *pnmScanner) skipSingleSpace() {
	if s.pos < len(s.data) {
		c := s.data[s.pos]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			s.pos++
		}
	}
}

// decodePlainBitmap reads P1 pixels: ASCII 0/1, where 1 is black.
func decodePlainBitmap(s *pnmScanner, img *Image) error {
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			v, err := s.nextInt("pixel")
			if err != nil {
				return err
			}
			if v != 0 {
				img.Gray.Set(x, y, 0)
			} else {
				img.Gray.Set(x, y, 255)
			}
		}
	}
	return nil
}

// decodePlainSamples reads P2/P3 pixels as ASCII integers.
func decodePlainSamples(s *pnmScanner, img *Image, maxval int, color bool) error {
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if color {
				var rgb [3]uint8
				for c := 0; c < 3; c++ {
					v, err := s.nextInt("sample")
					if err != nil {
						return err
					}
					rgb[c] = uint8(min(v*255/maxval, 255))
				}
				setRGB(img, x, y, rgb[0], rgb[1], rgb[2])
			} else {
				v, err := s.nextInt("sample")
				if err != nil {
					return err
				}
				img.Gray.Set(x, y, v*255/maxval)
			}
		}
	}
	return nil
}

// decodeRawBitmap reads P4 pixels: packed bits, most significant first,
// rows padded to whole bytes, 1 is black.
func decodeRawBitmap(s *pnmScanner, img *Image) error {
	s.skipSingleSpace()
	rowBytes := (img.Width + 7) / 8
	if s.pos+rowBytes*img.Height > len(s.data) {
		return errors.New(errors.ErrCodeDecodeTruncated, "truncated PNM pixel data")
	}
	for y := 0; y < img.Height; y++ {
		row := s.data[s.pos+y*rowBytes:]
		for x := 0; x < img.Width; x++ {
			bit := (row[x/8] >> (7 - x%8)) & 1
			if bit != 0 {
				img.Gray.Set(x, y, 0)
			} else {
				img.Gray.Set(x, y, 255)
			}
		}
	}
	return nil
}

// decodeRawSamples reads P5/P6 pixels: one byte per sample up to maxval 255,
// two big-endian bytes above that.
func decodeRawSamples(s *pnmScanner, img *Image, maxval int, color bool) error {
	s.skipSingleSpace()

	channels := 1
	if color {
		channels = 3
	}
	bytesPerSample := 1
	if maxval > 255 {
		bytesPerSample = 2
	}
	need := img.Width * img.Height * channels * bytesPerSample
	if s.pos+need > len(s.data) {
		return errors.New(errors.ErrCodeDecodeTruncated, "truncated PNM pixel data")
	}

	sample := func(i int) int {
		off := s.pos + i*bytesPerSample
		v := int(s.data[off])
		if bytesPerSample == 2 {
			v = v<<8 | int(s.data[off+1])
		}
		return min(v*255/maxval, 255)
	}

	i := 0
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if color {
				setRGB(img, x, y, uint8(sample(i)), uint8(sample(i+1)), uint8(sample(i+2)))
				i += 3
			} else {
				img.Gray.Set(x, y, sample(i))
				i++
			}
		}
	}
	return nil
}
