package coverart

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// makeJPEG creates a JPEG-encoded image of the given dimensions.
func makeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encoding test jpeg: %v", err)
	}
	return buf.Bytes()
}

// makePNG creates a PNG-encoded image of the given dimensions.
func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", makeJPEG(t, 10, 10), FormatJPEG},
		{"png", makePNG(t, 10, 10), FormatPNG},
		{"webp header", []byte("RIFF\x00\x00\x00\x00WEBP"), FormatWebP},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, _, err := DetectFormat(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if format != tt.want {
				t.Errorf("got format %q, want %q", format, tt.want)
			}
		})
	}
}

func TestDetectFormat_Unknown(t *testing.T) {
	_, _, err := DetectFormat(bytes.NewReader([]byte("not an image")))
	if err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestPrepare_Downscales(t *testing.T) {
	f := NewFetcher(newTestLogger())
	art, err := f.Prepare(makeJPEG(t, 2400, 1600))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if art.MIMEType != "image/jpeg" {
		t.Errorf("got MIME type %q, want image/jpeg", art.MIMEType)
	}
	// 2400x1600 scaled to fit 1200 keeps the 3:2 ratio.
	if art.Width != 1200 || art.Height != 800 {
		t.Errorf("expected 1200x800, got %dx%d", art.Width, art.Height)
	}
	w, h, err := GetDimensions(bytes.NewReader(art.Data))
	if err != nil {
		t.Fatalf("reading result dimensions: %v", err)
	}
	if w != 1200 || h != 800 {
		t.Errorf("encoded result is %dx%d, want 1200x800", w, h)
	}
}

func TestPrepare_KeepsSmallImages(t *testing.T) {
	f := NewFetcher(newTestLogger())
	art, err := f.Prepare(makeJPEG(t, 600, 600))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if art.Width != 600 || art.Height != 600 {
		t.Errorf("expected 600x600, got %dx%d", art.Width, art.Height)
	}
}

func TestPrepare_ConvertsPNG(t *testing.T) {
	f := NewFetcher(newTestLogger())
	art, err := f.Prepare(makePNG(t, 300, 300))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if art.MIMEType != "image/jpeg" {
		t.Errorf("got MIME type %q, want image/jpeg", art.MIMEType)
	}
	format, _, err := DetectFormat(bytes.NewReader(art.Data))
	if err != nil {
		t.Fatalf("detecting output format: %v", err)
	}
	if format != FormatJPEG {
		t.Errorf("output format %q, want %q", format, FormatJPEG)
	}
}

func TestPrepare_RejectsGarbage(t *testing.T) {
	f := NewFetcher(newTestLogger())
	if _, err := f.Prepare([]byte("definitely not an image")); err == nil {
		t.Error("expected error for non-image data")
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(makeJPEG(t, 2400, 1600)) //nolint:errcheck
	}))
	defer srv.Close()

	f := NewFetcher(newTestLogger())
	art, err := f.Fetch(context.Background(), srv.URL+"/front.jpg")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if art.Width != 1200 || art.Height != 800 {
		t.Errorf("expected 1200x800, got %dx%d", art.Width, art.Height)
	}
}

func TestFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(newTestLogger())
	if _, err := f.Fetch(context.Background(), srv.URL+"/front.jpg"); err == nil {
		t.Error("expected error for 404 response")
	}
}

func TestFetch_NotAnImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>soft 404</html>")) //nolint:errcheck
	}))
	defer srv.Close()

	f := NewFetcher(newTestLogger())
	if _, err := f.Fetch(context.Background(), srv.URL+"/front.jpg"); err == nil {
		t.Error("expected error for HTML response")
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	f := NewFetcher(newTestLogger())
	art, err := f.Prepare(makeJPEG(t, 100, 100))
	if err != nil {
		t.Fatalf("preparing art: %v", err)
	}

	path, err := f.Save(dir, art)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(path) != CoverFileName {
		t.Errorf("expected filename %q, got %q", CoverFileName, filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("saved file should decode as jpeg: %v", err)
	}
}

func TestFitDimensions(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		maxW, maxH   int
		wantW, wantH int
	}{
		{"already fits", 800, 600, 1200, 1200, 800, 600},
		{"wide", 2400, 1200, 1200, 1200, 1200, 600},
		{"tall", 1000, 4000, 1200, 1200, 300, 1200},
		{"square", 2000, 2000, 1200, 1200, 1200, 1200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitDimensions(tt.w, tt.h, tt.maxW, tt.maxH)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("got %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}
