//go:build cgo

package main

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"

	camsnap "github.com/kevmo314/go-camsnap"
)

// testPlatform exposes one camera that delivers 2x1 frames of (R=3, G=2, B=1).
type testPlatform struct {
	mu        sync.Mutex
	shutdowns int
}

func (p *testPlatform) Startup() error { return nil }

func (p *testPlatform) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdowns++
}

func (p *testPlatform) EnumerateDevices() ([]camsnap.Device, error) {
	return []camsnap.Device{testDevice{}}, nil
}

type testDevice struct{}

func (testDevice) FriendlyName() (string, error)     { return "Test Camera", nil }
func (testDevice) Activate() (camsnap.Source, error) { return testSource{}, nil }
func (testDevice) Release()                          {}

type testSource struct{}

func (testSource) NewReader() (camsnap.Reader, error) { return testReader{}, nil }
func (testSource) Release()                           {}

type testReader struct{}

func (testReader) SetOutputFormat(width, height uint32) error { return nil }
func (testReader) CurrentSize() (uint32, uint32, error)       { return 2, 1, nil }
func (testReader) ReadSample() (camsnap.Sample, error)        { return testSample{}, nil }
func (testReader) Release()                                   {}

type testSample struct{}

func (testSample) Bytes() ([]byte, error) { return []byte{1, 2, 3, 0xff, 1, 2, 3, 0xff}, nil }
func (testSample) Release()               {}

// useTestAdapter swaps the exported functions onto an adapter over a
// testPlatform for the duration of the test.
func useTestAdapter(t *testing.T) *testPlatform {
	t.Helper()
	p := &testPlatform{}
	prev := adapter
	adapter = camsnap.New(p, camsnap.WithWarmupFrames(0))
	lastErr.Store(0)
	t.Cleanup(func() {
		adapter.Cleanup()
		adapter = prev
		lastErr.Store(0)
	})
	return p
}

func checkLastError(t *testing.T, want camsnap.Kind) {
	t.Helper()
	if got := camsnap.Kind(camera_get_last_error()); got != want {
		t.Errorf("camera_get_last_error() = %v, want %v", got, want)
	}
}

func TestFreeBufferNil(t *testing.T) {
	camera_free_buffer(nil)
}

func TestGetNameInvalidArguments(t *testing.T) {
	useTestAdapter(t)
	if n := camera_init(); n != 1 {
		t.Fatalf("camera_init() = %d, want 1", n)
	}

	if n := camera_get_name(0, nil, 16); n != 0 {
		t.Errorf("camera_get_name(nil buffer) = %d, want 0", n)
	}
	checkLastError(t, camsnap.KindInvalidArgument)

	buf := []byte("xxxxxxxxxxxxxxxx")
	ptr := (*cChar)(unsafe.Pointer(&buf[0]))
	if n := camera_get_name(0, ptr, 0); n != 0 {
		t.Errorf("camera_get_name(size 0) = %d, want 0", n)
	}
	if n := camera_get_name(5, ptr, cInt(len(buf))); n != 0 {
		t.Errorf("camera_get_name(5) = %d, want 0", n)
	}
	checkLastError(t, camsnap.KindInvalidIndex)
	if got := string(buf); got != "xxxxxxxxxxxxxxxx" {
		t.Errorf("buffer changed to %q", got)
	}
}

func TestGetName(t *testing.T) {
	useTestAdapter(t)
	camera_init()

	buf := make([]byte, 8)
	n := camera_get_name(0, (*cChar)(unsafe.Pointer(&buf[0])), cInt(len(buf)))
	if n != 7 {
		t.Fatalf("camera_get_name() = %d, want 7", n)
	}
	if diff := cmp.Diff([]byte("Test Ca\x00"), buf); diff != "" {
		t.Errorf("name mismatch (-want +got):\n%s", diff)
	}
	checkLastError(t, camsnap.KindNone)
}

func TestCaptureBeforeInit(t *testing.T) {
	useTestAdapter(t)

	stale := byte(1)
	data := (*cUchar)(unsafe.Pointer(&stale))
	size := cInt(99)
	if r := camera_capture(0, 640, 480, 85, &data, &size); r != 0 {
		t.Errorf("camera_capture() = %d, want 0", r)
	}
	if data != nil {
		t.Error("camera_capture() left a buffer pointer on failure")
	}
	if size != 0 {
		t.Errorf("size = %d, want 0", size)
	}
	checkLastError(t, camsnap.KindNotInitialized)
}

func TestCaptureNilOutputs(t *testing.T) {
	useTestAdapter(t)
	camera_init()

	if r := camera_capture(0, 640, 480, 85, nil, nil); r != 0 {
		t.Errorf("camera_capture(nil outputs) = %d, want 0", r)
	}
	checkLastError(t, camsnap.KindInvalidArgument)
}

func TestCapture(t *testing.T) {
	useTestAdapter(t)
	camera_init()

	var data *cUchar
	var size cInt
	if r := camera_capture(0, 640, 480, 85, &data, &size); r != 1 {
		t.Fatalf("camera_capture() = %d, want 1 (last error %v)", r, camsnap.Kind(camera_get_last_error()))
	}
	defer camera_free_buffer(data)

	if size != 12+2*1*3 {
		t.Fatalf("size = %d, want %d", size, 12+2*1*3)
	}
	got := unsafe.Slice((*byte)(unsafe.Pointer(data)), int(size))
	want := []byte{
		2, 0, 0, 0,
		1, 0, 0, 0,
		0, 0, 0, 0,
		3, 2, 1, 3, 2, 1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("buffer mismatch (-want +got):\n%s", diff)
	}
	checkLastError(t, camsnap.KindNone)
}

func TestCleanupTwice(t *testing.T) {
	p := useTestAdapter(t)
	if n := camera_init(); n != 1 {
		t.Fatalf("camera_init() = %d, want 1", n)
	}

	camera_cleanup()
	camera_cleanup()
	if p.shutdowns != 1 {
		t.Errorf("shutdowns = %d, want 1", p.shutdowns)
	}

	var data *cUchar
	var size cInt
	if r := camera_capture(0, 640, 480, 85, &data, &size); r != 0 {
		t.Errorf("camera_capture() after cleanup = %d, want 0", r)
	}
	checkLastError(t, camsnap.KindNotInitialized)

	if n := camera_init(); n != 1 {
		t.Errorf("camera_init() after cleanup = %d, want 1", n)
	}
}
