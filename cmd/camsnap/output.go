package main

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	camsnap "github.com/kevmo314/go-camsnap"
	"github.com/kevmo314/go-camsnap/pkg/decode"
)

// outputFormats maps a --format value to its file extension.
var outputFormats = map[string]string{
	"raw":  "rgb",
	"jpeg": "jpg",
	"jpg":  "jpg",
	"png":  "png",
	"bmp":  "bmp",
	"tiff": "tiff",
}

func parseFormat(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if _, ok := outputFormats[s]; !ok {
		return "", fmt.Errorf("unsupported output format %q", s)
	}
	if s == "jpg" {
		s = "jpeg"
	}
	return s, nil
}

// defaultOutputPath names a capture after the device and the capture time.
func defaultOutputPath(id, format string, t time.Time) string {
	return fmt.Sprintf("%s_%d.%s", id, t.Unix(), outputFormats[format])
}

// thumbnail scales f down so it is at most maxWidth pixels wide, keeping the
// aspect ratio. Frames already narrow enough are returned unchanged.
func thumbnail(f *camsnap.Frame, maxWidth int) *camsnap.Frame {
	if maxWidth <= 0 || int(f.Width) <= maxWidth {
		return f
	}
	w := maxWidth
	h := int(f.Height) * w / int(f.Width)
	if h < 1 {
		h = 1
	}
	dst := decode.NewRGB(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), f.Image(), f.Image().Bounds(), draw.Src, nil)
	return &camsnap.Frame{
		Width:  uint32(w),
		Height: uint32(h),
		Format: camsnap.FormatRGB,
		Pix:    dst.Pix,
	}
}

func encodeFrame(w io.Writer, f *camsnap.Frame, format string, quality int) error {
	switch format {
	case "raw":
		buf, err := f.MarshalBinary()
		if err != nil {
			return err
		}
		_, err = w.Write(buf)
		return err
	case "jpeg":
		return f.EncodeJPEG(w, quality)
	case "png":
		return png.Encode(w, f.Image())
	case "bmp":
		return bmp.Encode(w, f.Image())
	case "tiff":
		return tiff.Encode(w, f.Image(), &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("unsupported output format %q", format)
}
