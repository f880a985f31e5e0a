package imaging

import (
	"encoding/binary"
	"math"

	"github.com/tracevec/tracevec/pkg/errors"
)

// JPEG marker bytes handled by the decoder.
const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOF0 = 0xC0
	markerDHT  = 0xC4
	markerDQT  = 0xDB
	markerSOS  = 0xDA
)

// zigzag maps the stream order of coefficients to their natural position in
// an 8x8 block.
var zigzag = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// jpegComponent describes one color component from the frame header.
type jpegComponent struct {
	id     int
	h, v   int // sampling factors
	quant  int // quantization table selector
	dcSel  int // DC Huffman table selector (from SOS)
	acSel  int // AC Huffman table selector (from SOS)
	dcPred int // DC predictor for differential coding
}

// jpegDecoder holds the state of one decode call.
type jpegDecoder struct {
	quant    [4][64]int
	dcTables [4]*huffTable
	acTables [4]*huffTable
	comps    []jpegComponent
	width    int
	height   int
}

// errEntropy signals a failure inside the entropy-coded segment. It is
// internal: the decoder converts it into a partial-success result.
var errEntropy = errors.New(errors.ErrCodeDecodeCorrupt, "entropy-coded segment exhausted or corrupt")

// DecodeJPEG decodes a baseline (non-progressive) DCT JPEG image.
//
// Markers are scanned sequentially: DQT loads quantization tables, SOF0
// captures dimensions and component sampling, DHT builds canonical Huffman
// tables, and SOS starts entropy decoding. Any SOF marker other than SOF0
// is a fatal unsupported-format error.
//
// Unlike the PNG decoder, a failure inside the entropy-coded stream does
// not discard the image: the pixels decoded up to that point are kept, the
// image is marked Partial, and the call returns without error. Failures in
// the marker segments before any pixel is produced remain fatal.
func DecodeJPEG(data []byte) (*Image, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, errors.New(errors.ErrCodeFormatSignature, "invalid JPEG signature")
	}

	d := &jpegDecoder{}

	pos := 2
	for pos < len(data)-1 {
		if data[pos] != 0xFF {
			pos++
			continue
		}
		marker := data[pos+1]
		pos += 2

		switch {
		case marker == markerSOI || marker == 0x00:
			continue
		case marker == markerEOI:
			return nil, errors.New(errors.ErrCodeDecodeTruncated, "end of image before scan data")
		case marker >= 0xD0 && marker <= 0xD7: // restart markers carry no payload
			continue
		}

		if pos+2 > len(data) {
			return nil, errors.New(errors.ErrCodeDecodeTruncated, "truncated marker 0x%02X", marker)
		}
		length := int(binary.BigEndian.Uint16(data[pos : pos+2]))
		if length < 2 || pos+length > len(data) {
			return nil, errors.New(errors.ErrCodeDecodeTruncated, "truncated segment for marker 0x%02X", marker)
		}
		segment := data[pos+2 : pos+length]
		pos += length

		switch marker {
		case markerDQT:
			if err := d.parseDQT(segment); err != nil {
				return nil, err
			}
		case markerSOF0:
			if err := d.parseSOF0(segment); err != nil {
				return nil, err
			}
		case markerDHT:
			if err := d.parseDHT(segment); err != nil {
				return nil, err
			}
		case markerSOS:
			return d.decodeScan(segment, data[pos:])
		default:
			if isUnsupportedSOF(marker) {
				return nil, errors.New(errors.ErrCodeFormatProgressive,
					"progressive or non-baseline JPEG not supported (SOF marker 0x%02X)", marker)
			}
			// APPn, COM, DRI and friends: skipped
		}
	}
	return nil, errors.New(errors.ErrCodeDecodeTruncated, "no scan data found")
}

// isUnsupportedSOF reports whether marker is a start-of-frame for a coding
// mode other than baseline sequential DCT.
func isUnsupportedSOF(marker uint8) bool {
	if marker < 0xC1 || marker > 0xCF {
		return false
	}
	// 0xC4 is DHT, 0xC8 is reserved (JPG), 0xCC is DAC — not frame headers.
	return marker != markerDHT && marker != 0xC8 && marker != 0xCC
}

// parseDQT loads one or more 64-entry quantization tables, de-zigzagged to
// natural order. Precision 0 means 8-bit entries, 1 means 16-bit.
func (d *jpegDecoder) parseDQT(segment []byte) error {
	pos := 0
	for pos < len(segment) {
		info := int(segment[pos])
		precision := info >> 4
		id := info & 0x0F
		pos++
		if id > 3 {
			return errors.New(errors.ErrCodeDecodeCorrupt, "quantization table id %d out of range", id)
		}

		size := 64
		if precision != 0 {
			size = 128
		}
		if pos+size > len(segment) {
			return errors.New(errors.ErrCodeDecodeTruncated, "truncated quantization table %d", id)
		}
		for i := 0; i < 64; i++ {
			var v int
			if precision == 0 {
				v = int(segment[pos+i])
			} else {
				v = int(binary.BigEndian.Uint16(segment[pos+2*i:]))
			}
			d.quant[id][zigzag[i]] = v
		}
		pos += size
	}
	return nil
}

// parseSOF0 captures image dimensions and per-component sampling factors
// from the baseline frame header.
func (d *jpegDecoder) parseSOF0(segment []byte) error {
	if len(segment) < 6 {
		return errors.New(errors.ErrCodeDecodeTruncated, "short SOF0 segment")
	}
	d.height = int(binary.BigEndian.Uint16(segment[1:3]))
	d.width = int(binary.BigEndian.Uint16(segment[3:5]))
	n := int(segment[5])
	if d.width <= 0 || d.height <= 0 {
		return errors.New(errors.ErrCodeDecodeCorrupt, "invalid dimensions %dx%d", d.width, d.height)
	}
	if n != 1 && n != 3 {
		return errors.New(errors.ErrCodeFormatUnsupported, "unsupported component count %d", n)
	}
	if len(segment) < 6+3*n {
		return errors.New(errors.ErrCodeDecodeTruncated, "short SOF0 component list")
	}

	d.comps = make([]jpegComponent, n)
	for i := 0; i < n; i++ {
		sampling := segment[7+3*i]
		c := jpegComponent{
			id:    int(segment[6+3*i]),
			h:     int(sampling >> 4),
			v:     int(sampling & 0x0F),
			quant: int(segment[8+3*i]),
		}
		if c.h < 1 || c.h > 4 || c.v < 1 || c.v > 4 || c.quant > 3 {
			return errors.New(errors.ErrCodeDecodeCorrupt, "invalid component %d parameters", c.id)
		}
		d.comps[i] = c
	}
	return nil
}

// parseDHT builds canonical Huffman tables from the standard
// length-count/symbol-list encoding.
func (d *jpegDecoder) parseDHT(segment []byte) error {
	pos := 0
	for pos < len(segment) {
		info := int(segment[pos])
		class := info >> 4
		id := info & 0x0F
		pos++
		if class > 1 || id > 3 {
			return errors.New(errors.ErrCodeDecodeCorrupt, "invalid Huffman table spec 0x%02X", info)
		}
		if pos+16 > len(segment) {
			return errors.New(errors.ErrCodeDecodeTruncated, "truncated Huffman table counts")
		}

		var counts [16]int
		total := 0
		for i := 0; i < 16; i++ {
			counts[i] = int(segment[pos+i])
			total += counts[i]
		}
		pos += 16
		if pos+total > len(segment) {
			return errors.New(errors.ErrCodeDecodeTruncated, "truncated Huffman table symbols")
		}
		symbols := segment[pos : pos+total]
		pos += total

		t := buildHuffTable(counts, symbols)
		if class == 0 {
			d.dcTables[id] = t
		} else {
			d.acTables[id] = t
		}
	}
	return nil
}

// huffTable is a canonical Huffman table, decoded per code length.
type huffTable struct {
	minCode [17]int
	maxCode [17]int // -1 where no codes of that length exist
	valPtr  [17]int
	values  []uint8
}

// buildHuffTable assigns canonical codes in order of increasing length.
func buildHuffTable(counts [16]int, symbols []byte) *huffTable {
	t := &huffTable{values: append([]uint8(nil), symbols...)}
	code := 0
	k := 0
	for l := 1; l <= 16; l++ {
		if counts[l-1] == 0 {
			t.maxCode[l] = -1
		} else {
			t.valPtr[l] = k
			t.minCode[l] = code
			code += counts[l-1]
			k += counts[l-1]
			t.maxCode[l] = code - 1
		}
		code <<= 1
	}
	return t
}

// decodeSymbol reads bits until they form a code present in the table.
// It fails once 16 bits have been consumed without a match or the reader
// is exhausted.
func (t *huffTable) decodeSymbol(r *bitReader) (int, bool) {
	code := 0
	for l := 1; l <= 16; l++ {
		bit, ok := r.readBit()
		if !ok {
			return 0, false
		}
		code = code<<1 | bit
		if t.maxCode[l] >= 0 && code >= t.minCode[l] && code <= t.maxCode[l] {
			return int(t.values[t.valPtr[l]+code-t.minCode[l]]), true
		}
	}
	return 0, false
}

// bitReader reads the unstuffed entropy-coded segment MSB first.
type bitReader struct {
	data []byte
	pos  int
	bit  int
}

func (r *bitReader) readBit() (int, bool) {
	if r.pos >= len(r.data) {
		return 0, false
	}
	b := int(r.data[r.pos]>>(7-r.bit)) & 1
	r.bit++
	if r.bit == 8 {
		r.bit = 0
		r.pos++
	}
	return b, true
}

func (r *bitReader) readBits(n int) (int, bool) {
	v := 0
	for i := 0; i < n; i++ {
		bit, ok := r.readBit()
		if !ok {
			return 0, false
		}
		v = v<<1 | bit
	}
	return v, true
}

// extend reconstructs a signed value from the category/extra-bits scheme:
// a value below its category's half-range is negative and is shifted down
// by 2^category - 1.
func extend(v, category int) int {
	if v < 1<<(category-1) {
		v -= (1 << category) - 1
	}
	return v
}

// unstuffScan extracts the entropy-coded bytes following SOS: byte
// stuffing (0xFF 0x00) collapses to 0xFF, restart markers are dropped, and
// the segment ends at EOI.
func unstuffScan(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == 0xFF && i+1 < len(data) {
			next := data[i+1]
			switch {
			case next == 0x00:
				out = append(out, 0xFF)
				i++
				continue
			case next == markerEOI:
				return out
			case next >= 0xD0 && next <= 0xD7:
				i++
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}

// decodeScan runs the entropy decoder over all MCUs and assembles pixels.
// Entropy failures mark the image partial instead of returning an error.
func (d *jpegDecoder) decodeScan(sos, rest []byte) (*Image, error) {
	if len(d.comps) == 0 {
		return nil, errors.New(errors.ErrCodeDecodeCorrupt, "SOS before SOF0")
	}
	if len(sos) < 1+2*len(d.comps) {
		return nil, errors.New(errors.ErrCodeDecodeTruncated, "short SOS segment")
	}
	n := int(sos[0])
	if n != len(d.comps) {
		return nil, errors.New(errors.ErrCodeDecodeCorrupt, "scan component count %d does not match frame", n)
	}
	for i := range d.comps {
		sel := sos[2+2*i]
		d.comps[i].dcSel = int(sel >> 4)
		d.comps[i].acSel = int(sel & 0x0F)
	}

	maxH, maxV := 1, 1
	for _, c := range d.comps {
		maxH = max(maxH, c.h)
		maxV = max(maxV, c.v)
	}
	mcuW, mcuH := 8*maxH, 8*maxV
	mcusX := (d.width + mcuW - 1) / mcuW
	mcusY := (d.height + mcuH - 1) / mcuH

	img := &Image{Width: d.width, Height: d.height}
	if len(d.comps) == 1 {
		img.Gray = NewGrid(d.width, d.height)
	} else {
		img.RGB = make([]uint8, 3*d.width*d.height)
	}

	r := &bitReader{data: unstuffScan(rest)}
	blocks := make([][][64]int, len(d.comps))
	for ci, c := range d.comps {
		blocks[ci] = make([][64]int, c.h*c.v)
	}

scan:
	for mcuY := 0; mcuY < mcusY; mcuY++ {
		for mcuX := 0; mcuX < mcusX; mcuX++ {
			for ci := range d.comps {
				c := &d.comps[ci]
				for i := 0; i < c.h*c.v; i++ {
					block, err := d.decodeBlock(r, c)
					if err != nil {
						img.Partial = true
						img.Reason = err
						break scan
					}
					blocks[ci][i] = block
				}
			}
			d.assembleMCU(img, blocks, mcuX, mcuY, maxH, maxV)
		}
	}

	if img.RGB != nil {
		grayFromRGB(img)
	}
	return img, nil
}

// decodeBlock decodes one 8x8 block: DC predictor plus Huffman-coded
// difference, run-length/category AC coefficients, dequantization, and the
// inverse DCT.
func (d *jpegDecoder) decodeBlock(r *bitReader, c *jpegComponent) ([64]int, error) {
	var block [64]int

	dcTab := d.dcTables[c.dcSel]
	acTab := d.acTables[c.acSel]
	if dcTab == nil || acTab == nil {
		return block, errors.New(errors.ErrCodeDecodeCorrupt, "missing Huffman table for component %d", c.id)
	}

	category, ok := dcTab.decodeSymbol(r)
	if !ok {
		return block, errEntropy
	}
	if category > 0 {
		bits, ok := r.readBits(category)
		if !ok {
			return block, errEntropy
		}
		c.dcPred += extend(bits, category)
	}
	block[0] = c.dcPred

	for i := 1; i < 64; {
		symbol, ok := acTab.decodeSymbol(r)
		if !ok {
			return block, errEntropy
		}
		if symbol == 0x00 { // end of block
			break
		}
		if symbol == 0xF0 { // sixteen-zero run
			i += 16
			continue
		}
		i += symbol >> 4
		if i >= 64 {
			break
		}
		if category := symbol & 0x0F; category > 0 {
			bits, ok := r.readBits(category)
			if !ok {
				return block, errEntropy
			}
			block[zigzag[i]] = extend(bits, category)
		}
		i++
	}

	q := &d.quant[c.quant]
	for i := 0; i < 64; i++ {
		block[i] *= q[i]
	}
	return idct8x8(block), nil
}

// Cosine basis for the inverse DCT, indexed [frequency][position].
var (
	idctCos [8][8]float64
	idctCn  [8]float64
)

func init() {
	for u := 0; u < 8; u++ {
		idctCn[u] = 1.0
		for x := 0; x < 8; x++ {
			idctCos[u][x] = math.Cos(float64(2*x+1) * float64(u) * math.Pi / 16)
		}
	}
	idctCn[0] = 1 / math.Sqrt2
}

// idct8x8 applies the inverse DCT as a direct double sum and performs the
// +128 level shift with clamping to [0, 255]. Performance is not a goal
// here; the direct formulation keeps the output levels exact.
func idct8x8(block [64]int) [64]int {
	var out [64]int
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			sum := 0.0
			for v := 0; v < 8; v++ {
				for u := 0; u < 8; u++ {
					sum += idctCn[u] * idctCn[v] * float64(block[v*8+u]) * idctCos[u][x] * idctCos[v][y]
				}
			}
			out[y*8+x] = clamp255(int(sum/4 + 128))
		}
	}
	return out
}

// assembleMCU writes one decoded MCU into the image, sampling each
// component's blocks according to its sampling factors and converting
// YCbCr to RGB with BT.601 coefficients.
func (d *jpegDecoder) assembleMCU(img *Image, blocks [][][64]int, mcuX, mcuY, maxH, maxV int) {
	mcuW, mcuH := 8*maxH, 8*maxV
	for by := 0; by < mcuH; by++ {
		py := mcuY*mcuH + by
		if py >= d.height {
			break
		}
		for bx := 0; bx < mcuW; bx++ {
			px := mcuX*mcuW + bx
			if px >= d.width {
				continue
			}

			var vals [3]int
			for ci := range d.comps {
				c := &d.comps[ci]
				cx := bx * c.h / maxH
				cy := by * c.v / maxV
				idx := (cy/8)*c.h + cx/8
				vals[ci] = blocks[ci][idx][(cy%8)*8+cx%8]
			}

			if len(d.comps) == 1 {
				img.Gray.Set(px, py, vals[0])
				continue
			}
			yy, cb, cr := float64(vals[0]), float64(vals[1]), float64(vals[2])
			r := clamp255(int(yy + 1.402*(cr-128)))
			g := clamp255(int(yy - 0.344136*(cb-128) - 0.714136*(cr-128)))
			b := clamp255(int(yy + 1.772*(cb-128)))
			setRGB(img, px, py, uint8(r), uint8(g), uint8(b))
		}
	}
}

func clamp255(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
