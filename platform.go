package camsnap

// Platform is the media subsystem a capture adapter drives. Every handle it
// hands out must be released exactly once by the caller; Release methods
// tolerate repeated calls.
type Platform interface {
	// Startup brings the media subsystem up. Calls are reference counted by
	// the platform and paired with Shutdown.
	Startup() error
	Shutdown()
	// EnumerateDevices returns the video-capture devices in enumeration order.
	EnumerateDevices() ([]Device, error)
}

// Device is an enumerated, not yet activated, capture device.
type Device interface {
	FriendlyName() (string, error)
	// Activate creates a live media source for the device.
	Activate() (Source, error)
	Release()
}

// Source is an activated capture device.
type Source interface {
	// NewReader creates a sample reader over the source with the platform's
	// video processing (format conversion) enabled.
	NewReader() (Reader, error)
	Release()
}

// Reader pulls frames from a Source.
type Reader interface {
	// SetOutputFormat requests 32 bit BGRA output. A zero width or height
	// requests the format without a frame size constraint.
	SetOutputFormat(width, height uint32) error
	// CurrentSize returns the negotiated frame size.
	CurrentSize() (width, height uint32, err error)
	// ReadSample blocks until the next frame is delivered. It returns
	// ErrStreamEOS at end of stream and ErrNoSample if the reader reported
	// success without a frame.
	ReadSample() (Sample, error)
	Release()
}

// Sample is one delivered frame.
type Sample interface {
	// Bytes copies the sample's contiguous pixel data.
	Bytes() ([]byte, error)
	Release()
}
