//go:build !windows

package camsnap

type unsupportedPlatform struct{}

// NewPlatform returns the platform backend for this OS. Only Windows Media
// Foundation is supported; elsewhere Startup always fails.
func NewPlatform() Platform {
	return unsupportedPlatform{}
}

func (unsupportedPlatform) Startup() error {
	return ErrUnsupportedPlatform
}

func (unsupportedPlatform) Shutdown() {}

func (unsupportedPlatform) EnumerateDevices() ([]Device, error) {
	return nil, ErrUnsupportedPlatform
}
