package camsnap

import (
	"encoding/binary"
	"fmt"
	"image/jpeg"
	"io"

	"github.com/kevmo314/go-camsnap/pkg/decode"
)

// FormatTag is the pixel layout recorded in a frame buffer header.
type FormatTag uint32

const (
	// FormatRGB is packed 8-bit R, G, B, row-major, 3 bytes per pixel.
	FormatRGB FormatTag = 0
)

// HeaderSize is the length of the little-endian width, height and format
// fields that prefix a frame buffer.
const HeaderSize = 12

// Frame is one captured still image. Width and Height are the negotiated
// size, which may differ from the size that was requested.
type Frame struct {
	Width  uint32
	Height uint32
	Format FormatTag
	Pix    []byte
}

// Size returns the length of the frame's binary encoding.
func (f *Frame) Size() int {
	return HeaderSize + int(f.Width)*int(f.Height)*3
}

// MarshalBinary encodes the frame as a 12 byte header followed by
// width*height*3 pixel bytes.
func (f *Frame) MarshalBinary() ([]byte, error) {
	buf := make([]byte, f.Size())
	if err := f.MarshalInto(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// MarshalInto writes the frame encoding into buf, which must be at least
// Size() bytes.
func (f *Frame) MarshalInto(buf []byte) error {
	n := int(f.Width) * int(f.Height) * 3
	if len(buf) < HeaderSize+n {
		return io.ErrShortBuffer
	}
	if len(f.Pix) < n {
		return fmt.Errorf("frame has %d pixel bytes, want %d: %w", len(f.Pix), n, ErrShortFrame)
	}
	binary.LittleEndian.PutUint32(buf[0:4], f.Width)
	binary.LittleEndian.PutUint32(buf[4:8], f.Height)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(f.Format))
	copy(buf[HeaderSize:], f.Pix[:n])
	return nil
}

func (f *Frame) UnmarshalBinary(buf []byte) error {
	if len(buf) < HeaderSize {
		return ErrShortFrame
	}
	f.Width = binary.LittleEndian.Uint32(buf[0:4])
	f.Height = binary.LittleEndian.Uint32(buf[4:8])
	f.Format = FormatTag(binary.LittleEndian.Uint32(buf[8:12]))
	if f.Format != FormatRGB {
		return fmt.Errorf("format tag %d: %w", f.Format, ErrUnknownFormat)
	}
	n := int(f.Width) * int(f.Height) * 3
	if len(buf)-HeaderSize < n {
		return fmt.Errorf("got %d pixel bytes, expected %d: %w", len(buf)-HeaderSize, n, ErrShortFrame)
	}
	f.Pix = buf[HeaderSize : HeaderSize+n]
	return nil
}

// Image returns an image view over the frame's pixels.
func (f *Frame) Image() *decode.RGB {
	return decode.WrapRGB(f.Pix, int(f.Width), int(f.Height))
}

// EncodeJPEG writes the frame as a baseline JPEG. quality is clamped to
// [1, 100].
func (f *Frame) EncodeJPEG(w io.Writer, quality int) error {
	return jpeg.Encode(w, f.Image(), &jpeg.Options{Quality: ClampQuality(quality)})
}

// ClampQuality limits a JPEG quality value to [1, 100].
func ClampQuality(quality int) int {
	if quality < 1 {
		return 1
	}
	if quality > 100 {
		return 100
	}
	return quality
}
