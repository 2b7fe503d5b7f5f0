package ragprep

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func makeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNormalizeImageDecorativeDrop(t *testing.T) {
	opts := DefaultOptions()
	opts.ExcludeDecorative = true

	tests := []struct {
		name string
		w, h int
		want ImageDecision
	}{
		{"both below threshold", 30, 30, DecisionDropped},
		{"wide banner kept", 400, 10, DecisionFile},
		{"tall sidebar kept", 10, 400, DecisionFile},
		{"at threshold kept", 50, 50, DecisionFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asset, err := normalizeImage(makePNG(t, tt.w, tt.h), OriginEmbedded, &opts)
			if err != nil {
				t.Fatalf("normalizeImage error: %v", err)
			}
			if asset.Decision != tt.want {
				t.Errorf("decision = %q, want %q", asset.Decision, tt.want)
			}
		})
	}
}

func TestNormalizeImageDownsample(t *testing.T) {
	opts := DefaultOptions()
	opts.ApplyMaxResolution = true
	opts.MaxImageResPx = 100

	asset, err := normalizeImage(makePNG(t, 400, 200), OriginEmbedded, &opts)
	if err != nil {
		t.Fatal(err)
	}
	if asset.Width != 100 {
		t.Errorf("width = %d, want 100", asset.Width)
	}
	if asset.Height != 50 {
		t.Errorf("height = %d, want 50", asset.Height)
	}

	// Images within bounds are untouched, byte for byte.
	raw := makePNG(t, 80, 60)
	asset, err = normalizeImage(raw, OriginEmbedded, &opts)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(asset.Bytes, raw) {
		t.Error("in-bounds image was re-encoded")
	}
}

func TestNormalizeImageInline(t *testing.T) {
	opts := DefaultOptions()
	opts.EmbedSmallImages = true

	asset, err := normalizeImage(makePNG(t, 10, 10), OriginEmbedded, &opts)
	if err != nil {
		t.Fatal(err)
	}
	if asset.Decision != DecisionInline {
		t.Fatalf("decision = %q, want %q", asset.Decision, DecisionInline)
	}
	if !strings.HasPrefix(asset.DataURI, "data:image/png;base64,") {
		t.Errorf("data URI has wrong prefix: %.40s", asset.DataURI)
	}
	if asset.Key != "" {
		t.Errorf("inlined asset should have no media key, got %q", asset.Key)
	}
}

func TestNormalizeImageKeyStability(t *testing.T) {
	opts := DefaultOptions()
	raw := makePNG(t, 64, 64)

	a1, err := normalizeImage(raw, OriginEmbedded, &opts)
	if err != nil {
		t.Fatal(err)
	}
	a2, err := normalizeImage(raw, OriginRemote, &opts)
	if err != nil {
		t.Fatal(err)
	}
	if a1.Key != a2.Key {
		t.Errorf("same content produced different keys: %q vs %q", a1.Key, a2.Key)
	}
	if !strings.HasPrefix(a1.Key, "img_") || !strings.HasSuffix(a1.Key, ".png") {
		t.Errorf("unexpected key shape: %q", a1.Key)
	}

	other, err := normalizeImage(makePNG(t, 65, 64), OriginEmbedded, &opts)
	if err != nil {
		t.Fatal(err)
	}
	if other.Key == a1.Key {
		t.Error("different content produced the same key")
	}
}

func TestNormalizeImageJPEGStaysJPEG(t *testing.T) {
	opts := DefaultOptions()
	asset, err := normalizeImage(makeJPEG(t, 64, 64), OriginEmbedded, &opts)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(asset.Key, ".jpg") {
		t.Errorf("JPEG source should keep a .jpg key, got %q", asset.Key)
	}
}

func TestNormalizeImageUnsupported(t *testing.T) {
	opts := DefaultOptions()
	_, err := normalizeImage([]byte("not an image at all"), OriginEmbedded, &opts)
	if err == nil {
		t.Fatal("expected error for undecodable bytes")
	}
	var target *UnsupportedImageFormatError
	if !errors.As(err, &target) {
		t.Errorf("error type = %T, want UnsupportedImageFormatError", err)
	}
}
