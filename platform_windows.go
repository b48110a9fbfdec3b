//go:build windows

package camsnap

import (
	"fmt"
	"unsafe"

	"github.com/kevmo314/go-camsnap/pkg/formats"
)

// mfPlatform drives Windows Media Foundation. COM is joined to the
// multithreaded apartment and stays initialized for the life of the process;
// MFStartup and MFShutdown are reference counted by Media Foundation itself.
type mfPlatform struct{}

// NewPlatform returns the Media Foundation backend.
func NewPlatform() Platform {
	return mfPlatform{}
}

func (mfPlatform) Startup() error {
	if err := coInitialize(); err != nil {
		return err
	}
	return mfStartup()
}

func (mfPlatform) Shutdown() {
	mfShutdown()
}

func (mfPlatform) EnumerateDevices() ([]Device, error) {
	activates, err := mfEnumVideoCaptureDevices()
	if err != nil {
		return nil, err
	}
	devices := make([]Device, len(activates))
	for i, a := range activates {
		devices[i] = &mfDevice{activate: a}
	}
	return devices, nil
}

type mfDevice struct {
	activate *IMFActivate
}

func (d *mfDevice) FriendlyName() (string, error) {
	if d.activate == nil {
		return "", fmt.Errorf("device released")
	}
	return d.activate.AsAttributes().GetAllocatedString(&MF_DEVSOURCE_ATTRIBUTE_FRIENDLY_NAME)
}

func (d *mfDevice) Activate() (Source, error) {
	if d.activate == nil {
		return nil, fmt.Errorf("device released")
	}
	// Captures run on whatever thread the calling goroutine lands on.
	if err := coInitialize(); err != nil {
		return nil, err
	}
	ptr, err := d.activate.ActivateObject(&IID_IMFMediaSource)
	if err != nil {
		return nil, err
	}
	return &mfSource{source: (*IMFMediaSource)(unsafe.Pointer(ptr))}, nil
}

func (d *mfDevice) Release() {
	d.activate.Release()
	d.activate = nil
}

type mfSource struct {
	source *IMFMediaSource
}

func (s *mfSource) NewReader() (Reader, error) {
	// Without attributes the reader still works, it just cannot convert
	// formats, so an attribute failure is not fatal here.
	attrs, err := mfCreateAttributes(1)
	if err == nil {
		defer attrs.Release()
		attrs.SetUINT32(&MF_SOURCE_READER_ENABLE_VIDEO_PROCESSING, 1)
	}

	reader, err := mfCreateSourceReader(s.source, attrs)
	if err != nil {
		return nil, err
	}
	return &mfReader{reader: reader}, nil
}

func (s *mfSource) Release() {
	if s.source == nil {
		return
	}
	s.source.Shutdown()
	s.source.Release()
	s.source = nil
}

type mfReader struct {
	reader *IMFSourceReader
}

func (r *mfReader) SetOutputFormat(width, height uint32) error {
	mediaType, err := mfCreateMediaType()
	if err != nil {
		return err
	}
	defer mediaType.Release()

	attrs := mediaType.AsAttributes()
	if err := attrs.SetGUID(&MF_MT_MAJOR_TYPE, &MFMediaType_Video); err != nil {
		return err
	}
	if err := attrs.SetGUID(&MF_MT_SUBTYPE, &MFVideoFormat_RGB32); err != nil {
		return err
	}
	if width > 0 && height > 0 {
		if err := attrs.SetFrameSize(width, height); err != nil {
			return err
		}
	}
	if err := r.reader.SetCurrentMediaType(MF_SOURCE_READER_FIRST_VIDEO_STREAM, mediaType); err != nil {
		return fmt.Errorf("%s %dx%d: %w", formats.VideoFormatRGB32.FourCC(), width, height, err)
	}
	return nil
}

func (r *mfReader) CurrentSize() (uint32, uint32, error) {
	mediaType, err := r.reader.GetCurrentMediaType(MF_SOURCE_READER_FIRST_VIDEO_STREAM)
	if err != nil {
		return 0, 0, err
	}
	defer mediaType.Release()
	return mediaType.AsAttributes().GetFrameSize()
}

func (r *mfReader) ReadSample() (Sample, error) {
	flags, sample, err := r.reader.ReadSample(MF_SOURCE_READER_FIRST_VIDEO_STREAM)
	if err != nil {
		return nil, err
	}
	switch {
	case flags&MF_SOURCE_READERF_ERROR != 0:
		sample.Release()
		return nil, fmt.Errorf("source reader error, flags: 0x%x", flags)
	case flags&MF_SOURCE_READERF_ENDOFSTREAM != 0:
		sample.Release()
		return nil, ErrStreamEOS
	case sample == nil:
		return nil, ErrNoSample
	}
	return &mfSample{sample: sample}, nil
}

func (r *mfReader) Release() {
	r.reader.Release()
	r.reader = nil
}

type mfSample struct {
	sample *IMFSample
}

func (s *mfSample) Bytes() ([]byte, error) {
	buf, err := s.sample.ConvertToContiguousBuffer()
	if err != nil {
		return nil, err
	}
	defer buf.Release()
	return buf.CopyBytes()
}

func (s *mfSample) Release() {
	s.sample.Release()
	s.sample = nil
}
