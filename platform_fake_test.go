package camsnap

import (
	"errors"
	"sync"
)

var errFake = errors.New("fake failure")

// read is one scripted ReadSample result.
type read struct {
	data []byte
	err  error
}

type fakePlatform struct {
	mu         sync.Mutex
	startupErr error
	enumErr    error
	devices    []*fakeDevice

	startups    int
	shutdowns   int
	enumerated  int
	devReleased int
}

func (p *fakePlatform) Startup() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startupErr != nil {
		return p.startupErr
	}
	p.startups++
	return nil
}

func (p *fakePlatform) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdowns++
}

func (p *fakePlatform) EnumerateDevices() ([]Device, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enumerated++
	out := make([]Device, len(p.devices))
	for i, d := range p.devices {
		d.platform = p
		out[i] = d
	}
	return out, p.enumErr
}

// fakeDevice scripts every step of a capture and counts the handles it hands
// out so tests can check nothing leaks.
type fakeDevice struct {
	platform *fakePlatform

	name    string
	nameErr error

	activateErr error
	readerErr   error
	sizedErr    error
	formatErr   error

	width, height uint32
	sizeErr       error

	// reads are returned in order; afterwards every read returns a full
	// frame of the negotiated size.
	reads []read
	block chan struct{}

	mu          sync.Mutex
	released    bool
	activations int
	open        int
	readCount   int
	formats     [][2]uint32
}

func (d *fakeDevice) FriendlyName() (string, error) {
	return d.name, d.nameErr
}

func (d *fakeDevice) Activate() (Source, error) {
	if d.activateErr != nil {
		return nil, d.activateErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.activations++
	d.open++
	return &fakeSource{dev: d}, nil
}

func (d *fakeDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return
	}
	d.released = true
	if d.platform != nil {
		d.platform.mu.Lock()
		d.platform.devReleased++
		d.platform.mu.Unlock()
	}
}

func (d *fakeDevice) openHandles() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

func (d *fakeDevice) readsDone() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readCount
}

func (d *fakeDevice) release(done *bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if *done {
		return
	}
	*done = true
	d.open--
}

// bgra returns a full BGRA frame of w x h where every pixel is (B=1, G=2, R=3).
func bgra(w, h int) []byte {
	buf := make([]byte, w*h*4)
	for i := 0; i < len(buf); i += 4 {
		buf[i], buf[i+1], buf[i+2], buf[i+3] = 1, 2, 3, 0xff
	}
	return buf
}

type fakeSource struct {
	dev      *fakeDevice
	released bool
}

func (s *fakeSource) NewReader() (Reader, error) {
	if s.dev.readerErr != nil {
		return nil, s.dev.readerErr
	}
	s.dev.mu.Lock()
	s.dev.open++
	s.dev.mu.Unlock()
	return &fakeReader{dev: s.dev}, nil
}

func (s *fakeSource) Release() { s.dev.release(&s.released) }

type fakeReader struct {
	dev      *fakeDevice
	released bool
	w, h     uint32
}

func (r *fakeReader) SetOutputFormat(width, height uint32) error {
	d := r.dev
	d.mu.Lock()
	d.formats = append(d.formats, [2]uint32{width, height})
	d.mu.Unlock()
	if width > 0 && height > 0 {
		if d.sizedErr != nil {
			return d.sizedErr
		}
		r.w, r.h = width, height
		return nil
	}
	return d.formatErr
}

func (r *fakeReader) CurrentSize() (uint32, uint32, error) {
	if r.dev.sizeErr != nil {
		return 0, 0, r.dev.sizeErr
	}
	if r.dev.width > 0 {
		return r.dev.width, r.dev.height, nil
	}
	return r.w, r.h, nil
}

func (r *fakeReader) ReadSample() (Sample, error) {
	d := r.dev
	if d.block != nil {
		<-d.block
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.readCount
	d.readCount++

	var rd read
	if i < len(d.reads) {
		rd = d.reads[i]
	} else {
		w, h := r.w, r.h
		if d.width > 0 {
			w, h = d.width, d.height
		}
		rd = read{data: bgra(int(w), int(h))}
	}
	if rd.err != nil {
		return nil, rd.err
	}
	d.open++
	return &fakeSample{dev: d, data: rd.data}, nil
}

func (r *fakeReader) Release() { r.dev.release(&r.released) }

type fakeSample struct {
	dev      *fakeDevice
	data     []byte
	released bool
}

func (s *fakeSample) Bytes() ([]byte, error) {
	return append([]byte(nil), s.data...), nil
}

func (s *fakeSample) Release() { s.dev.release(&s.released) }
