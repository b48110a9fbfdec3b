package camsnap

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/kevmo314/go-camsnap/pkg/formats"
)

// Media Foundation GUIDs
var (
	MF_DEVSOURCE_ATTRIBUTE_SOURCE_TYPE        = windows.GUID{0xc60ac5fe, 0x252a, 0x478f, [8]byte{0xa0, 0xef, 0xbc, 0x8f, 0xa5, 0xf7, 0xca, 0xd3}}
	MF_DEVSOURCE_ATTRIBUTE_SOURCE_TYPE_VIDCAP = windows.GUID{0x8ac3587a, 0x4ae7, 0x42d8, [8]byte{0x99, 0xe0, 0x0a, 0x60, 0x13, 0xee, 0xf9, 0x0f}}
	MF_DEVSOURCE_ATTRIBUTE_FRIENDLY_NAME      = windows.GUID{0x60d0e559, 0x52f8, 0x4fa2, [8]byte{0xbb, 0xce, 0xac, 0xdb, 0x34, 0xa8, 0xec, 0x01}}
	MF_SOURCE_READER_ENABLE_VIDEO_PROCESSING  = windows.GUID{0xfb394f3d, 0xccf1, 0x42ee, [8]byte{0xbb, 0xb3, 0xf9, 0xb8, 0x45, 0xd5, 0x68, 0x1d}}
	MF_MT_MAJOR_TYPE                          = windows.GUID{0x48eba18e, 0xf8c9, 0x4687, [8]byte{0xbf, 0x11, 0x0a, 0x74, 0xc9, 0xf9, 0x6a, 0x8f}}
	MF_MT_SUBTYPE                             = windows.GUID{0xf7e34c9a, 0x42e8, 0x4714, [8]byte{0xb7, 0x4b, 0xcb, 0x29, 0xd7, 0x2c, 0x35, 0xe5}}
	MF_MT_FRAME_SIZE                          = windows.GUID{0x1652c33d, 0xd6b2, 0x4012, [8]byte{0xb8, 0x34, 0x72, 0x03, 0x08, 0x49, 0xa3, 0x7d}}

	MFMediaType_Video   = windowsGUID(formats.MediaTypeVideo)
	MFVideoFormat_RGB32 = windowsGUID(formats.VideoFormatRGB32)
	IID_IMFMediaSource  = windows.GUID{0x279a808d, 0xaec7, 0x40c8, [8]byte{0x9c, 0x6b, 0xa6, 0xb4, 0x92, 0xc7, 0x8a, 0x66}}
)

// Media Foundation constants
const (
	MF_SOURCE_READER_FIRST_VIDEO_STREAM = 0xFFFFFFFC

	// ReadSample stream flags
	MF_SOURCE_READERF_ERROR       = 0x00000001
	MF_SOURCE_READERF_ENDOFSTREAM = 0x00000002

	MF_VERSION           = 0x00020070 // MF 2.0
	MFSTARTUP_FULL       = 0x0
	COINIT_MULTITHREADED = 0x0

	S_OK               = 0x0
	S_FALSE            = 0x1
	RPC_E_CHANGED_MODE = 0x80010106
)

var (
	modmfplat      = windows.NewLazySystemDLL("mfplat.dll")
	modmfreadwrite = windows.NewLazySystemDLL("mfreadwrite.dll")
	modmf          = windows.NewLazySystemDLL("mf.dll")
	modole32       = windows.NewLazySystemDLL("ole32.dll")

	procMFStartup                           = modmfplat.NewProc("MFStartup")
	procMFShutdown                          = modmfplat.NewProc("MFShutdown")
	procMFCreateAttributes                  = modmfplat.NewProc("MFCreateAttributes")
	procMFCreateMediaType                   = modmfplat.NewProc("MFCreateMediaType")
	procMFEnumDeviceSources                 = modmf.NewProc("MFEnumDeviceSources")
	procMFCreateSourceReaderFromMediaSource = modmfreadwrite.NewProc("MFCreateSourceReaderFromMediaSource")
	procCoInitializeEx                      = modole32.NewProc("CoInitializeEx")
)

func windowsGUID(s formats.Subtype) windows.GUID {
	d1, d2, d3, d4 := s.Fields()
	return windows.GUID{Data1: d1, Data2: d2, Data3: d3, Data4: d4}
}

func hresultError(call string, hr uintptr) error {
	return fmt.Errorf("%s failed: 0x%08x", call, uint32(hr))
}

// IMFAttributes vtable
type IMFAttributesVtbl struct {
	QueryInterface     uintptr
	AddRef             uintptr
	Release            uintptr
	GetItem            uintptr
	GetItemType        uintptr
	CompareItem        uintptr
	Compare            uintptr
	GetUINT32          uintptr
	GetUINT64          uintptr
	GetDouble          uintptr
	GetGUID            uintptr
	GetStringLength    uintptr
	GetString          uintptr
	GetAllocatedString uintptr
	GetBlobSize        uintptr
	GetBlob            uintptr
	GetAllocatedBlob   uintptr
	GetUnknown         uintptr
	SetItem            uintptr
	DeleteItem         uintptr
	DeleteAllItems     uintptr
	SetUINT32          uintptr
	SetUINT64          uintptr
	SetDouble          uintptr
	SetGUID            uintptr
	SetString          uintptr
	SetBlob            uintptr
	SetUnknown         uintptr
	LockStore          uintptr
	UnlockStore        uintptr
	GetCount           uintptr
	GetItemByIndex     uintptr
	CopyAllItems       uintptr
}

type IMFAttributes struct {
	vtbl *IMFAttributesVtbl
}

func (a *IMFAttributes) Release() {
	if a != nil && a.vtbl != nil {
		syscall.SyscallN(a.vtbl.Release, uintptr(unsafe.Pointer(a)))
	}
}

func (a *IMFAttributes) SetGUID(key *windows.GUID, value *windows.GUID) error {
	hr, _, _ := syscall.SyscallN(a.vtbl.SetGUID,
		uintptr(unsafe.Pointer(a)),
		uintptr(unsafe.Pointer(key)),
		uintptr(unsafe.Pointer(value)))
	if hr != S_OK {
		return hresultError("SetGUID", hr)
	}
	return nil
}

func (a *IMFAttributes) SetUINT32(key *windows.GUID, value uint32) error {
	hr, _, _ := syscall.SyscallN(a.vtbl.SetUINT32,
		uintptr(unsafe.Pointer(a)),
		uintptr(unsafe.Pointer(key)),
		uintptr(value))
	if hr != S_OK {
		return hresultError("SetUINT32", hr)
	}
	return nil
}

// SetUINT64 passes value as one argument word on 64 bit targets and as two
// on 32 bit ones.
func (a *IMFAttributes) SetUINT64(key *windows.GUID, value uint64) error {
	var hr uintptr
	switch args := uint64Args(value); len(args) {
	case 1:
		hr, _, _ = syscall.SyscallN(a.vtbl.SetUINT64,
			uintptr(unsafe.Pointer(a)),
			uintptr(unsafe.Pointer(key)),
			args[0])
	default:
		hr, _, _ = syscall.SyscallN(a.vtbl.SetUINT64,
			uintptr(unsafe.Pointer(a)),
			uintptr(unsafe.Pointer(key)),
			args[0], args[1])
	}
	if hr != S_OK {
		return hresultError("SetUINT64", hr)
	}
	return nil
}

func (a *IMFAttributes) GetUINT64(key *windows.GUID) (uint64, error) {
	var val uint64
	hr, _, _ := syscall.SyscallN(a.vtbl.GetUINT64,
		uintptr(unsafe.Pointer(a)),
		uintptr(unsafe.Pointer(key)),
		uintptr(unsafe.Pointer(&val)))
	if hr != S_OK {
		return 0, hresultError("GetUINT64", hr)
	}
	return val, nil
}

// GetAllocatedString returns a string attribute, freeing the COM allocation.
func (a *IMFAttributes) GetAllocatedString(key *windows.GUID) (string, error) {
	var str *uint16
	var length uint32
	hr, _, _ := syscall.SyscallN(a.vtbl.GetAllocatedString,
		uintptr(unsafe.Pointer(a)),
		uintptr(unsafe.Pointer(key)),
		uintptr(unsafe.Pointer(&str)),
		uintptr(unsafe.Pointer(&length)))
	if hr != S_OK {
		return "", hresultError("GetAllocatedString", hr)
	}
	if str == nil {
		return "", nil
	}
	defer windows.CoTaskMemFree(unsafe.Pointer(str))
	return windows.UTF16PtrToString(str), nil
}

// SetFrameSize packs width and height into MF_MT_FRAME_SIZE.
func (a *IMFAttributes) SetFrameSize(width, height uint32) error {
	return a.SetUINT64(&MF_MT_FRAME_SIZE, uint64(width)<<32|uint64(height))
}

func (a *IMFAttributes) GetFrameSize() (uint32, uint32, error) {
	v, err := a.GetUINT64(&MF_MT_FRAME_SIZE)
	if err != nil {
		return 0, 0, err
	}
	return uint32(v >> 32), uint32(v & 0xFFFFFFFF), nil
}

// IMFActivate is an activation object that can create media sources
type IMFActivateVtbl struct {
	IMFAttributesVtbl
	ActivateObject uintptr
	ShutdownObject uintptr
	DetachObject   uintptr
}

type IMFActivate struct {
	vtbl *IMFActivateVtbl
}

func (a *IMFActivate) AsAttributes() *IMFAttributes {
	return (*IMFAttributes)(unsafe.Pointer(a))
}

func (a *IMFActivate) Release() {
	if a != nil && a.vtbl != nil {
		syscall.SyscallN(a.vtbl.Release, uintptr(unsafe.Pointer(a)))
	}
}

func (a *IMFActivate) ActivateObject(iid *windows.GUID) (uintptr, error) {
	var obj uintptr
	hr, _, _ := syscall.SyscallN(a.vtbl.ActivateObject,
		uintptr(unsafe.Pointer(a)),
		uintptr(unsafe.Pointer(iid)),
		uintptr(unsafe.Pointer(&obj)))
	if hr != S_OK {
		return 0, hresultError("ActivateObject", hr)
	}
	return obj, nil
}

// IMFMediaSource vtable
type IMFMediaSourceVtbl struct {
	QueryInterface               uintptr
	AddRef                       uintptr
	Release                      uintptr
	GetEvent                     uintptr
	BeginGetEvent                uintptr
	EndGetEvent                  uintptr
	QueueEvent                   uintptr
	GetCharacteristics           uintptr
	CreatePresentationDescriptor uintptr
	Start                        uintptr
	Stop                         uintptr
	Pause                        uintptr
	Shutdown                     uintptr
}

type IMFMediaSource struct {
	vtbl *IMFMediaSourceVtbl
}

func (s *IMFMediaSource) Release() {
	if s != nil && s.vtbl != nil {
		syscall.SyscallN(s.vtbl.Release, uintptr(unsafe.Pointer(s)))
	}
}

func (s *IMFMediaSource) Shutdown() {
	if s != nil && s.vtbl != nil {
		syscall.SyscallN(s.vtbl.Shutdown, uintptr(unsafe.Pointer(s)))
	}
}

// IMFSourceReader vtable
type IMFSourceReaderVtbl struct {
	QueryInterface      uintptr
	AddRef              uintptr
	Release             uintptr
	GetStreamSelection  uintptr
	SetStreamSelection  uintptr
	GetNativeMediaType  uintptr
	GetCurrentMediaType uintptr
	SetCurrentMediaType uintptr
	SetCurrentPosition  uintptr
	ReadSample          uintptr
	Flush               uintptr
	GetServiceForStream uintptr
}

type IMFSourceReader struct {
	vtbl *IMFSourceReaderVtbl
}

func (r *IMFSourceReader) Release() {
	if r != nil && r.vtbl != nil {
		syscall.SyscallN(r.vtbl.Release, uintptr(unsafe.Pointer(r)))
	}
}

func (r *IMFSourceReader) GetCurrentMediaType(streamIndex uint32) (*IMFMediaType, error) {
	var mediaType *IMFMediaType
	hr, _, _ := syscall.SyscallN(r.vtbl.GetCurrentMediaType,
		uintptr(unsafe.Pointer(r)),
		uintptr(streamIndex),
		uintptr(unsafe.Pointer(&mediaType)))
	if hr != S_OK {
		return nil, hresultError("GetCurrentMediaType", hr)
	}
	return mediaType, nil
}

func (r *IMFSourceReader) SetCurrentMediaType(streamIndex uint32, mediaType *IMFMediaType) error {
	hr, _, _ := syscall.SyscallN(r.vtbl.SetCurrentMediaType,
		uintptr(unsafe.Pointer(r)),
		uintptr(streamIndex),
		0,
		uintptr(unsafe.Pointer(mediaType)))
	if hr != S_OK {
		return hresultError("SetCurrentMediaType", hr)
	}
	return nil
}

// ReadSample synchronously reads the next sample. sample is nil when the
// reader delivered only flags (end of stream, stream tick).
func (r *IMFSourceReader) ReadSample(streamIndex uint32) (flags uint32, sample *IMFSample, err error) {
	var actualStreamIndex uint32
	var timestamp int64

	hr, _, _ := syscall.SyscallN(r.vtbl.ReadSample,
		uintptr(unsafe.Pointer(r)),
		uintptr(streamIndex),
		0,
		uintptr(unsafe.Pointer(&actualStreamIndex)),
		uintptr(unsafe.Pointer(&flags)),
		uintptr(unsafe.Pointer(&timestamp)),
		uintptr(unsafe.Pointer(&sample)))
	if hr != S_OK {
		return 0, nil, hresultError("ReadSample", hr)
	}
	return flags, sample, nil
}

// IMFMediaType vtable (extends IMFAttributes)
type IMFMediaTypeVtbl struct {
	IMFAttributesVtbl
	GetMajorType       uintptr
	IsCompressedFormat uintptr
	IsEqual            uintptr
	GetRepresentation  uintptr
	FreeRepresentation uintptr
}

type IMFMediaType struct {
	vtbl *IMFMediaTypeVtbl
}

func (t *IMFMediaType) AsAttributes() *IMFAttributes {
	return (*IMFAttributes)(unsafe.Pointer(t))
}

func (t *IMFMediaType) Release() {
	if t != nil && t.vtbl != nil {
		syscall.SyscallN(t.vtbl.Release, uintptr(unsafe.Pointer(t)))
	}
}

// IMFSample vtable (extends IMFAttributes)
type IMFSampleVtbl struct {
	IMFAttributesVtbl
	GetSampleFlags            uintptr
	SetSampleFlags            uintptr
	GetSampleTime             uintptr
	SetSampleTime             uintptr
	GetSampleDuration         uintptr
	SetSampleDuration         uintptr
	GetBufferCount            uintptr
	GetBufferByIndex          uintptr
	ConvertToContiguousBuffer uintptr
	AddBuffer                 uintptr
	RemoveBufferByIndex       uintptr
	RemoveAllBuffers          uintptr
	GetTotalLength            uintptr
	CopyToBuffer              uintptr
}

type IMFSample struct {
	vtbl *IMFSampleVtbl
}

func (s *IMFSample) Release() {
	if s != nil && s.vtbl != nil {
		syscall.SyscallN(s.vtbl.Release, uintptr(unsafe.Pointer(s)))
	}
}

func (s *IMFSample) ConvertToContiguousBuffer() (*IMFMediaBuffer, error) {
	var buf *IMFMediaBuffer
	hr, _, _ := syscall.SyscallN(s.vtbl.ConvertToContiguousBuffer,
		uintptr(unsafe.Pointer(s)),
		uintptr(unsafe.Pointer(&buf)))
	if hr != S_OK {
		return nil, hresultError("ConvertToContiguousBuffer", hr)
	}
	return buf, nil
}

// IMFMediaBuffer vtable
type IMFMediaBufferVtbl struct {
	QueryInterface   uintptr
	AddRef           uintptr
	Release          uintptr
	Lock             uintptr
	Unlock           uintptr
	GetCurrentLength uintptr
	SetCurrentLength uintptr
	GetMaxLength     uintptr
}

type IMFMediaBuffer struct {
	vtbl *IMFMediaBufferVtbl
}

func (b *IMFMediaBuffer) Release() {
	if b != nil && b.vtbl != nil {
		syscall.SyscallN(b.vtbl.Release, uintptr(unsafe.Pointer(b)))
	}
}

// CopyBytes locks the buffer, copies its current contents and unlocks it.
func (b *IMFMediaBuffer) CopyBytes() ([]byte, error) {
	var ptr uintptr
	var maxLen, curLen uint32

	hr, _, _ := syscall.SyscallN(b.vtbl.Lock,
		uintptr(unsafe.Pointer(b)),
		uintptr(unsafe.Pointer(&ptr)),
		uintptr(unsafe.Pointer(&maxLen)),
		uintptr(unsafe.Pointer(&curLen)))
	if hr != S_OK {
		return nil, hresultError("Lock", hr)
	}
	defer syscall.SyscallN(b.vtbl.Unlock, uintptr(unsafe.Pointer(b)))

	if ptr == 0 {
		return nil, fmt.Errorf("Lock returned no data")
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), curLen)
	result := make([]byte, curLen)
	copy(result, data)
	return result, nil
}

func coInitialize() error {
	hr, _, _ := syscall.SyscallN(procCoInitializeEx.Addr(), 0, COINIT_MULTITHREADED)
	switch uint32(hr) {
	case S_OK, S_FALSE, RPC_E_CHANGED_MODE:
		return nil
	}
	return hresultError("CoInitializeEx", hr)
}

func mfStartup() error {
	hr, _, _ := syscall.SyscallN(procMFStartup.Addr(), MF_VERSION, MFSTARTUP_FULL)
	if hr != S_OK {
		return hresultError("MFStartup", hr)
	}
	return nil
}

func mfShutdown() {
	syscall.SyscallN(procMFShutdown.Addr())
}

func mfCreateAttributes(count uint32) (*IMFAttributes, error) {
	var attrs *IMFAttributes
	hr, _, _ := syscall.SyscallN(procMFCreateAttributes.Addr(),
		uintptr(unsafe.Pointer(&attrs)),
		uintptr(count))
	if hr != S_OK {
		return nil, hresultError("MFCreateAttributes", hr)
	}
	return attrs, nil
}

func mfCreateMediaType() (*IMFMediaType, error) {
	var mediaType *IMFMediaType
	hr, _, _ := syscall.SyscallN(procMFCreateMediaType.Addr(),
		uintptr(unsafe.Pointer(&mediaType)))
	if hr != S_OK {
		return nil, hresultError("MFCreateMediaType", hr)
	}
	return mediaType, nil
}

// mfEnumVideoCaptureDevices returns the activation objects of every video
// capture device. The caller releases each one.
func mfEnumVideoCaptureDevices() ([]*IMFActivate, error) {
	attrs, err := mfCreateAttributes(1)
	if err != nil {
		return nil, err
	}
	defer attrs.Release()

	if err := attrs.SetGUID(&MF_DEVSOURCE_ATTRIBUTE_SOURCE_TYPE, &MF_DEVSOURCE_ATTRIBUTE_SOURCE_TYPE_VIDCAP); err != nil {
		return nil, err
	}

	var devices **IMFActivate
	var count uint32
	hr, _, _ := syscall.SyscallN(procMFEnumDeviceSources.Addr(),
		uintptr(unsafe.Pointer(attrs)),
		uintptr(unsafe.Pointer(&devices)),
		uintptr(unsafe.Pointer(&count)))
	if hr != S_OK {
		return nil, hresultError("MFEnumDeviceSources", hr)
	}
	if devices == nil {
		return nil, nil
	}
	defer windows.CoTaskMemFree(unsafe.Pointer(devices))

	result := make([]*IMFActivate, count)
	copy(result, unsafe.Slice(devices, count))
	return result, nil
}

func mfCreateSourceReader(source *IMFMediaSource, attrs *IMFAttributes) (*IMFSourceReader, error) {
	var reader *IMFSourceReader
	hr, _, _ := syscall.SyscallN(procMFCreateSourceReaderFromMediaSource.Addr(),
		uintptr(unsafe.Pointer(source)),
		uintptr(unsafe.Pointer(attrs)),
		uintptr(unsafe.Pointer(&reader)))
	if hr != S_OK {
		return nil, hresultError("MFCreateSourceReaderFromMediaSource", hr)
	}
	return reader, nil
}
