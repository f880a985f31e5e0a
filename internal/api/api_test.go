package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/tracevec/tracevec/pkg/vectorize"
)

func newTestHandler() http.Handler {
	logger := log.New(io.Discard)
	return New(logger, vectorize.DefaultOptions(), 1<<20).Router()
}

// testPGM is a 6x6 white canvas with a 3x3 black square.
func testPGM() []byte {
	var b strings.Builder
	b.WriteString("P2\n6 6\n255\n")
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			if x < 3 && y < 3 {
				b.WriteString("0 ")
			} else {
				b.WriteString("255 ")
			}
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func postVectorize(t *testing.T, h http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/vectorize", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if id := rec.Header().Get("X-Request-Id"); id == "" {
		t.Error("response missing request id header")
	}
}

func TestInfoEndpoint(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/v1/info", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var info vectorize.Info
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info.Name != "tracevec" {
		t.Errorf("name = %q, want tracevec", info.Name)
	}
	if len(info.Formats) == 0 || len(info.Modes) == 0 {
		t.Error("info should list formats and modes")
	}
}

func TestVectorizeEndpoint(t *testing.T) {
	h := newTestHandler()
	opts := vectorize.DefaultOptions()
	opts.MinArea = 1
	opts.MinLength = 3

	rec := postVectorize(t, h, map[string]any{
		"image":   base64.StdEncoding.EncodeToString(testPGM()),
		"ext":     "pgm",
		"options": opts,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success    bool `json:"success"`
		TotalLines int  `json:"total_lines"`
		Width      int  `json:"width"`
		Height     int  `json:"height"`
		Components int  `json:"components"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("response should report success")
	}
	if resp.Width != 6 || resp.Height != 6 {
		t.Errorf("dimensions = %dx%d, want 6x6", resp.Width, resp.Height)
	}
	if resp.Components != 1 {
		t.Errorf("components = %d, want 1", resp.Components)
	}
	if resp.TotalLines == 0 {
		t.Error("square image should produce lines")
	}
}

func TestVectorizeEndpointDataURI(t *testing.T) {
	h := newTestHandler()
	opts := vectorize.DefaultOptions()
	opts.MinArea = 1
	opts.MinLength = 3

	uri := fmt.Sprintf("data:image/x-portable-graymap;base64,%s",
		base64.StdEncoding.EncodeToString(testPGM()))
	rec := postVectorize(t, h, map[string]any{"image": uri, "ext": "pgm", "options": opts})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestVectorizeEndpointErrors(t *testing.T) {
	h := newTestHandler()

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing image",
			body:       map[string]any{"ext": "png"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "missing ext",
			body:       map[string]any{"image": "aGVsbG8="},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "bad base64",
			body:       map[string]any{"image": "!!!", "ext": "png"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name: "unsupported format",
			body: map[string]any{
				"image": base64.StdEncoding.EncodeToString(testPGM()),
				"ext":   "tiff",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "FORMAT_UNSUPPORTED",
		},
		{
			name: "corrupt image",
			body: map[string]any{
				"image": base64.StdEncoding.EncodeToString([]byte("not a png")),
				"ext":   "png",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "FORMAT_SIGNATURE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postVectorize(t, h, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}

			var resp struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestRequestIDPropagation(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "test-id-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "test-id-42" {
		t.Errorf("request id = %q, want test-id-42", got)
	}
}
