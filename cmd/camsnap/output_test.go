package main

import (
	"bytes"
	"image"
	"testing"
	"time"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/google/go-cmp/cmp"

	camsnap "github.com/kevmo314/go-camsnap"
)

func solidFrame(w, h int, r, g, b byte) *camsnap.Frame {
	pix := make([]byte, w*h*3)
	for i := 0; i < len(pix); i += 3 {
		pix[i], pix[i+1], pix[i+2] = r, g, b
	}
	return &camsnap.Frame{Width: uint32(w), Height: uint32(h), Pix: pix}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]string{"raw": "raw", "JPG": "jpeg", " png ": "png", "tiff": "tiff", "bmp": "bmp"} {
		got, err := parseFormat(in)
		if err != nil {
			t.Errorf("parseFormat(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("parseFormat(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := parseFormat("gif"); err == nil {
		t.Error("parseFormat(\"gif\") succeeded, want error")
	}
}

func TestDefaultOutputPath(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	if got, want := defaultOutputPath("integrated_camera", "jpeg", ts), "integrated_camera_1700000000.jpg"; got != want {
		t.Errorf("defaultOutputPath() = %q, want %q", got, want)
	}
	if got, want := defaultOutputPath("camera_0", "raw", ts), "camera_0_1700000000.rgb"; got != want {
		t.Errorf("defaultOutputPath() = %q, want %q", got, want)
	}
}

func TestThumbnail(t *testing.T) {
	f := solidFrame(64, 32, 10, 200, 30)

	if got := thumbnail(f, 0); got != f {
		t.Error("thumbnail with no limit returned a new frame")
	}
	if got := thumbnail(f, 64); got != f {
		t.Error("thumbnail at full width returned a new frame")
	}

	got := thumbnail(f, 16)
	if got.Width != 16 || got.Height != 8 {
		t.Fatalf("thumbnail size = %dx%d, want 16x8", got.Width, got.Height)
	}
	if len(got.Pix) != 16*8*3 {
		t.Fatalf("len(Pix) = %d, want %d", len(got.Pix), 16*8*3)
	}
	if diff := cmp.Diff([]byte{10, 200, 30}, got.Pix[:3]); diff != "" {
		t.Errorf("pixel mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeFrame(t *testing.T) {
	f := solidFrame(8, 4, 0, 0, 255)
	for _, format := range []string{"jpeg", "png", "bmp", "tiff"} {
		var buf bytes.Buffer
		if err := encodeFrame(&buf, f, format, 90); err != nil {
			t.Errorf("encodeFrame(%s) error: %v", format, err)
			continue
		}
		img, name, err := image.Decode(&buf)
		if err != nil {
			t.Errorf("decoding %s output: %v", format, err)
			continue
		}
		if name != format {
			t.Errorf("decoded format = %q, want %q", name, format)
		}
		if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
			t.Errorf("%s size = %dx%d, want 8x4", format, b.Dx(), b.Dy())
		}
	}

	var buf bytes.Buffer
	if err := encodeFrame(&buf, f, "raw", 0); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != f.Size() {
		t.Errorf("raw length = %d, want %d", buf.Len(), f.Size())
	}
}
