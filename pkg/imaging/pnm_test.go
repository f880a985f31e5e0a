package imaging

import (
	"testing"

	"github.com/tracevec/tracevec/pkg/errors"
)

func TestDecodePNMBadSignature(t *testing.T) {
	_, err := DecodePNM([]byte("P9\n1 1\n255\n\x00"))
	if errors.GetCode(err) != errors.ErrCodeFormatSignature {
		t.Fatalf("got %v, want FORMAT_SIGNATURE", err)
	}
}

func TestDecodePNMPlainGraymap(t *testing.T) {
	data := []byte("P2\n# a comment\n2 2\n255\n0 64\n128 255\n")
	img, err := DecodePNM(data)
	if err != nil {
		t.Fatalf("DecodePNM() error = %v", err)
	}

	want := [][]int{{0, 64}, {128, 255}}
	for y, row := range want {
		for x, v := range row {
			if got := img.Gray.At(x, y); got != v {
				t.Errorf("pixel (%d,%d) = %d, want %d", x, y, got, v)
			}
		}
	}
}

func TestDecodePNMMaxvalScaling(t *testing.T) {
	data := []byte("P2\n1 1\n100\n50\n")
	img, err := DecodePNM(data)
	if err != nil {
		t.Fatalf("DecodePNM() error = %v", err)
	}

	// 50 * 255 / 100 = 127
	if got := img.Gray.At(0, 0); got != 127 {
		t.Errorf("scaled pixel = %d, want 127", got)
	}
}

func TestDecodePNMRawGraymap(t *testing.T) {
	data := append([]byte("P5\n2 1\n255\n"), 7, 200)
	img, err := DecodePNM(data)
	if err != nil {
		t.Fatalf("DecodePNM() error = %v", err)
	}

	if got := img.Gray.At(0, 0); got != 7 {
		t.Errorf("pixel (0,0) = %d, want 7", got)
	}
	if got := img.Gray.At(1, 0); got != 200 {
		t.Errorf("pixel (1,0) = %d, want 200", got)
	}
}

func TestDecodePNMRawPixmapToGray(t *testing.T) {
	// One pure-green pixel: luma = 587*255/1000 = 149.
	data := append([]byte("P6\n1 1\n255\n"), 0, 255, 0)
	img, err := DecodePNM(data)
	if err != nil {
		t.Fatalf("DecodePNM() error = %v", err)
	}

	if img.RGB == nil {
		t.Fatal("RGB buffer not populated for P6")
	}
	if got := img.Gray.At(0, 0); got != 149 {
		t.Errorf("gray = %d, want 149", got)
	}
}

func TestDecodePNMPlainBitmap(t *testing.T) {
	// PBM: 1 is black (gray 0), 0 is white (gray 255).
	data := []byte("P1\n2 2\n1 0\n0 1\n")
	img, err := DecodePNM(data)
	if err != nil {
		t.Fatalf("DecodePNM() error = %v", err)
	}

	want := [][]int{{0, 255}, {255, 0}}
	for y, row := range want {
		for x, v := range row {
			if got := img.Gray.At(x, y); got != v {
				t.Errorf("pixel (%d,%d) = %d, want %d", x, y, got, v)
			}
		}
	}
}

func TestDecodePNMRawBitmap(t *testing.T) {
	// P4 rows pad to whole bytes: 10 pixels use 2 bytes per row.
	data := append([]byte("P4\n10 1\n"), 0b10000000, 0b01000000)
	img, err := DecodePNM(data)
	if err != nil {
		t.Fatalf("DecodePNM() error = %v", err)
	}

	for x := 0; x < 10; x++ {
		want := 255
		if x == 0 || x == 9 {
			want = 0
		}
		if got := img.Gray.At(x, 0); got != want {
			t.Errorf("pixel (%d,0) = %d, want %d", x, got, want)
		}
	}
}

func TestDecodePNMTruncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"missing pixels raw", []byte("P5\n2 2\n255\n\x01\x02")},
		{"missing pixels plain", []byte("P2\n2 2\n255\n1 2 3\n")},
		{"missing maxval", []byte("P5\n2 2\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePNM(tt.data)
			if errors.GetCode(err) != errors.ErrCodeDecodeTruncated {
				t.Fatalf("got %v, want DECODE_TRUNCATED", err)
			}
		})
	}
}

func TestDecodeDispatch(t *testing.T) {
	pgm := []byte("P2\n1 1\n255\n42\n")

	img, err := Decode(pgm, ".PGM")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := img.Gray.At(0, 0); got != 42 {
		t.Errorf("pixel = %d, want 42", got)
	}

	if _, err := Decode(pgm, "tiff"); errors.GetCode(err) != errors.ErrCodeFormatUnsupported {
		t.Fatalf("got %v, want FORMAT_UNSUPPORTED", err)
	}
}
