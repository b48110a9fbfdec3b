// Command capi builds the capture adapter as a C shared library:
//
//	go build -buildmode=c-shared -o camera.dll ./cmd/capi
//
// Every entry point reports failure with a zero or NULL result. The kind of
// the most recent failure is available from camera_get_last_error.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"context"
	"sync/atomic"
	"unsafe"

	camsnap "github.com/kevmo314/go-camsnap"
)

// Go names for the C types in the exported signatures.
type (
	cChar  = C.char
	cUchar = C.uchar
	cInt   = C.int
)

var (
	adapter = camsnap.New(nil)
	lastErr atomic.Uint32
)

func setLastError(err error) {
	lastErr.Store(uint32(camsnap.KindOf(err)))
}

//export camera_init
func camera_init() C.int {
	n, err := adapter.Init()
	setLastError(err)
	return C.int(n)
}

//export camera_get_name
func camera_get_name(device C.int, buf *C.char, size C.int) C.int {
	if buf == nil || size <= 0 {
		setLastError(camsnap.ErrInvalidArgument)
		return 0
	}
	if _, err := adapter.Name(int(device)); err != nil {
		setLastError(err)
		return 0
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(size))
	n := adapter.CopyName(int(device), dst)
	setLastError(nil)
	return C.int(n)
}

//export camera_capture
func camera_capture(device, width, height, quality C.int, outData **C.uchar, outSize *C.int) C.int {
	if outData == nil || outSize == nil {
		setLastError(camsnap.ErrInvalidArgument)
		return 0
	}
	*outData = nil
	*outSize = 0

	f, err := adapter.Capture(context.Background(), int(device), camsnap.Request{
		Width:   int(width),
		Height:  int(height),
		Quality: int(quality),
	})
	if err != nil {
		setLastError(err)
		return 0
	}

	size := f.Size()
	ptr := C.malloc(C.size_t(size))
	if ptr == nil {
		setLastError(camsnap.ErrAllocation)
		return 0
	}
	if err := f.MarshalInto(unsafe.Slice((*byte)(ptr), size)); err != nil {
		C.free(ptr)
		setLastError(camsnap.ErrAllocation)
		return 0
	}

	*outData = (*cUchar)(ptr)
	*outSize = cInt(size)
	setLastError(nil)
	return 1
}

//export camera_free_buffer
func camera_free_buffer(data *C.uchar) {
	if data != nil {
		C.free(unsafe.Pointer(data))
	}
}

//export camera_cleanup
func camera_cleanup() {
	adapter.Cleanup()
	setLastError(nil)
}

//export camera_get_last_error
func camera_get_last_error() C.uint {
	return C.uint(lastErr.Load())
}

func main() {}
