package imaging

import (
	"testing"

	"github.com/tracevec/tracevec/pkg/errors"
)

// jpegSegment assembles one marker segment with its length prefix.
func jpegSegment(marker uint8, payload []byte) []byte {
	seg := []byte{0xFF, marker}
	seg = append(seg, uint8((len(payload)+2)>>8), uint8(len(payload)+2))
	return append(seg, payload...)
}

// unitDQT is an all-ones 8-bit quantization table in slot 0, which makes
// dequantization the identity.
func unitDQT() []byte {
	payload := make([]byte, 65)
	for i := 1; i < 65; i++ {
		payload[i] = 1
	}
	return jpegSegment(markerDQT, payload)
}

// graySOF0 declares a single-component frame with 1x1 sampling.
func graySOF0(width, height int) []byte {
	return jpegSegment(markerSOF0, []byte{
		8, // precision
		uint8(height >> 8), uint8(height),
		uint8(width >> 8), uint8(width),
		1,          // one component
		1, 0x11, 0, // id 1, sampling 1x1, quant table 0
	})
}

// singleCodeDHT defines a table with exactly one 1-bit code (0) mapping to
// symbol.
func singleCodeDHT(class, id, symbol uint8) []byte {
	payload := make([]byte, 0, 18)
	payload = append(payload, class<<4|id)
	counts := make([]byte, 16)
	counts[0] = 1
	payload = append(payload, counts...)
	return jpegSegment(markerDHT, append(payload, symbol))
}

func graySOS() []byte {
	return jpegSegment(markerSOS, []byte{1, 1, 0x00, 0, 63, 0})
}

// buildGrayJPEG assembles a baseline grayscale JPEG whose DC table maps
// code 0 to dcSymbol and whose AC table maps code 0 to end-of-block.
func buildGrayJPEG(width, height int, dcSymbol uint8, scan []byte) []byte {
	data := []byte{0xFF, markerSOI}
	data = append(data, unitDQT()...)
	data = append(data, graySOF0(width, height)...)
	data = append(data, singleCodeDHT(0, 0, dcSymbol)...)
	data = append(data, singleCodeDHT(1, 0, 0x00)...)
	data = append(data, graySOS()...)
	data = append(data, scan...)
	return append(data, 0xFF, markerEOI)
}

func TestDecodeJPEGBadSignature(t *testing.T) {
	_, err := DecodeJPEG([]byte("not a jpeg at all"))
	if errors.GetCode(err) != errors.ErrCodeFormatSignature {
		t.Fatalf("got %v, want FORMAT_SIGNATURE", err)
	}
}

func TestDecodeJPEGProgressiveFatal(t *testing.T) {
	data := []byte{0xFF, markerSOI}
	data = append(data, unitDQT()...)
	data = append(data, jpegSegment(0xC2, []byte{8, 0, 8, 0, 8, 1, 1, 0x11, 0})...)

	_, err := DecodeJPEG(data)
	if errors.GetCode(err) != errors.ErrCodeFormatProgressive {
		t.Fatalf("got %v, want FORMAT_PROGRESSIVE", err)
	}
}

func TestDecodeJPEGFlatGray(t *testing.T) {
	// DC category 0 and an immediate end-of-block give an all-zero
	// coefficient block; the IDCT level shift makes every pixel 128.
	img, err := DecodeJPEG(buildGrayJPEG(8, 8, 0x00, []byte{0x00}))
	if err != nil {
		t.Fatalf("DecodeJPEG() error = %v", err)
	}

	if img.Width != 8 || img.Height != 8 {
		t.Fatalf("dimensions = %dx%d, want 8x8", img.Width, img.Height)
	}
	if img.Partial {
		t.Fatal("image unexpectedly partial")
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if got := img.Gray.At(x, y); got != 128 {
				t.Fatalf("pixel (%d,%d) = %d, want 128", x, y, got)
			}
		}
	}
}

func TestDecodeJPEGSkipsUnhandledSegments(t *testing.T) {
	// DRI (0xDD) and APP0 (0xE0) carry length-prefixed payloads the decoder
	// does not interpret; both must fall through the generic segment skip.
	data := []byte{0xFF, markerSOI}
	data = append(data, jpegSegment(0xE0, []byte("JFIF\x00"))...)
	data = append(data, unitDQT()...)
	data = append(data, graySOF0(8, 8)...)
	data = append(data, jpegSegment(0xDD, []byte{0x00, 0x04})...)
	data = append(data, singleCodeDHT(0, 0, 0x00)...)
	data = append(data, singleCodeDHT(1, 0, 0x00)...)
	data = append(data, graySOS()...)
	data = append(data, 0x00)
	data = append(data, 0xFF, markerEOI)

	img, err := DecodeJPEG(data)
	if err != nil {
		t.Fatalf("DecodeJPEG() error = %v", err)
	}
	if img.Partial {
		t.Fatal("image unexpectedly partial")
	}
	if got := img.Gray.At(0, 0); got != 128 {
		t.Errorf("pixel (0,0) = %d, want 128", got)
	}
}

func TestDecodeJPEGDCLevel(t *testing.T) {
	// DC category 6 with extra bits 111111 decodes to +63. With a unit
	// quant table the DC-only IDCT gives int(63/8 + 128) = 135 everywhere.
	// Scan bits: 0 (DC code), 111111 (extra), 0 (AC end-of-block).
	img, err := DecodeJPEG(buildGrayJPEG(8, 8, 0x06, []byte{0x7E}))
	if err != nil {
		t.Fatalf("DecodeJPEG() error = %v", err)
	}

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if got := img.Gray.At(x, y); got != 135 {
				t.Fatalf("pixel (%d,%d) = %d, want 135", x, y, got)
			}
		}
	}
}

func TestDecodeJPEGTruncatedScanIsPartial(t *testing.T) {
	// Two MCUs but scan bits for only one: the second MCU exhausts the
	// bit reader, which must keep the first MCU's pixels and mark the
	// image partial instead of failing.
	img, err := DecodeJPEG(buildGrayJPEG(16, 8, 0x06, []byte{0x7E}))
	if err != nil {
		t.Fatalf("DecodeJPEG() error = %v", err)
	}

	if !img.Partial {
		t.Fatal("image should be partial")
	}
	if img.Reason == nil {
		t.Fatal("partial image should carry a reason")
	}
	if got := img.Gray.At(0, 0); got != 135 {
		t.Errorf("first MCU pixel = %d, want 135", got)
	}
	if got := img.Gray.At(15, 0); got != 0 {
		t.Errorf("undecoded MCU pixel = %d, want 0", got)
	}
}

func TestUnstuffScan(t *testing.T) {
	in := []byte{0x12, 0xFF, 0x00, 0x34, 0xFF, 0xD3, 0x56, 0xFF, 0xD9, 0x99}
	want := []byte{0x12, 0xFF, 0x34, 0x56}

	got := unstuffScan(in)
	if len(got) != len(want) {
		t.Fatalf("unstuffScan() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unstuffScan() = %v, want %v", got, want)
		}
	}
}

func TestExtend(t *testing.T) {
	tests := []struct {
		v, category, want int
	}{
		{0, 1, -1},
		{1, 1, 1},
		{0b011111, 6, -32},
		{0b111111, 6, 63},
		{0b100000, 6, 32},
	}
	for _, tt := range tests {
		if got := extend(tt.v, tt.category); got != tt.want {
			t.Errorf("extend(%d, %d) = %d, want %d", tt.v, tt.category, got, tt.want)
		}
	}
}

func TestHuffTableDecode(t *testing.T) {
	// Canonical table: 0 -> A (1 bit), 10 -> B, 11x unused (2 bits).
	var counts [16]int
	counts[0] = 1
	counts[1] = 1
	table := buildHuffTable(counts, []byte{'A', 'B'})

	r := &bitReader{data: []byte{0b01000000}}
	if sym, ok := table.decodeSymbol(r); !ok || sym != 'A' {
		t.Fatalf("first symbol = %c (%v), want A", sym, ok)
	}
	if sym, ok := table.decodeSymbol(r); !ok || sym != 'B' {
		t.Fatalf("second symbol = %c (%v), want B", sym, ok)
	}
}

func TestDecodeJPEGNoScan(t *testing.T) {
	data := []byte{0xFF, markerSOI}
	data = append(data, unitDQT()...)
	data = append(data, graySOF0(8, 8)...)

	_, err := DecodeJPEG(data)
	if errors.GetCode(err) != errors.ErrCodeDecodeTruncated {
		t.Fatalf("got %v, want DECODE_TRUNCATED", err)
	}
}
