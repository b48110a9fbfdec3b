package camsnap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/kevmo314/go-camsnap/pkg/decode"
)

const (
	// DefaultWarmupFrames is the number of frames discarded before the
	// captured one so auto exposure and focus can settle.
	DefaultWarmupFrames = 5

	// maxPixels bounds the negotiated frame size accepted from a driver.
	maxPixels = 1 << 26
)

// Request is the caller's desired capture. Width and Height are a hint: the
// returned Frame carries whatever size the device negotiated. Quality is not
// used by the capture itself; it is carried for the encoder that consumes the
// frame.
type Request struct {
	Width   int
	Height  int
	Quality int
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithWarmupFrames sets how many frames are read and discarded before the
// captured frame. Negative values are treated as zero.
func WithWarmupFrames(n int) Option {
	return func(a *Adapter) {
		if n < 0 {
			n = 0
		}
		a.warmup = n
	}
}

// WithReadTimeout bounds how long Capture waits for the pipeline. Zero waits
// indefinitely.
func WithReadTimeout(d time.Duration) Option {
	return func(a *Adapter) { a.timeout = d }
}

// WithLogger sets the logger for enumeration and capture events. The default
// logger discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Adapter) { a.log = l }
}

// session is the state between a successful Init and the matching Cleanup.
type session struct {
	devices []Device
	// captures counts pipelines still holding one of devices.
	captures sync.WaitGroup
}

// Adapter enumerates capture devices on a Platform and captures single
// frames from them. The zero value is not usable; construct with New.
//
// Device indices are valid between Init and Cleanup. An Adapter is safe for
// concurrent use, but each Capture activates its device from scratch, so
// concurrent captures on the same device will usually fail in the driver.
type Adapter struct {
	platform Platform
	warmup   int
	timeout  time.Duration
	log      logrus.FieldLogger

	mu   sync.Mutex
	sess *session
}

// New returns an uninitialized Adapter over p. A nil p selects the backend
// for the current OS.
func New(p Platform, opts ...Option) *Adapter {
	if p == nil {
		p = NewPlatform()
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	a := &Adapter{
		platform: p,
		warmup:   DefaultWarmupFrames,
		log:      discard,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init starts the media subsystem and enumerates capture devices. It is
// idempotent: once initialized it returns the existing count without
// enumerating again. On failure the adapter stays uninitialized and Init may
// be retried.
func (a *Adapter) Init() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sess != nil {
		return len(a.sess.devices), nil
	}

	if err := a.platform.Startup(); err != nil {
		return 0, wrap(KindStartup, "init", err)
	}

	devices, err := a.platform.EnumerateDevices()
	if err != nil {
		for _, d := range devices {
			d.Release()
		}
		a.platform.Shutdown()
		return 0, wrap(KindStartup, "init", err)
	}

	a.sess = &session{devices: devices}
	a.log.WithField("count", len(devices)).Info("enumerated capture devices")
	return len(devices), nil
}

// Count returns the number of enumerated devices, or 0 when uninitialized.
func (a *Adapter) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sess == nil {
		return 0
	}
	return len(a.sess.devices)
}

// Initialized reports whether Init has succeeded since the last Cleanup.
func (a *Adapter) Initialized() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sess != nil
}

// device must be called with a.mu held.
func (a *Adapter) device(op string, index int) (Device, error) {
	if a.sess == nil {
		return nil, newError(KindNotInitialized, op, nil)
	}
	if len(a.sess.devices) == 0 {
		return nil, newError(KindNoDevice, op, nil)
	}
	if index < 0 || index >= len(a.sess.devices) {
		return nil, newError(KindInvalidIndex, op, fmt.Errorf("index %d out of range [0, %d)", index, len(a.sess.devices)))
	}
	return a.sess.devices[index], nil
}

// Name returns the device's friendly name. When the platform cannot provide
// one, "Camera <index>" is returned instead.
func (a *Adapter) Name(index int) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	d, err := a.device("name", index)
	if err != nil {
		return "", err
	}
	name, err := d.FriendlyName()
	if err != nil || name == "" {
		a.log.WithField("device", index).WithError(err).Debug("friendly name unavailable")
		return fallbackName(index), nil
	}
	return name, nil
}

// CopyName writes the device name into dst as a NUL terminated UTF-8 string,
// truncated to len(dst)-1 bytes on a rune boundary. It returns the number of
// bytes written before the terminator, or 0 without touching dst if the index
// is invalid, the adapter is uninitialized or dst is empty.
func (a *Adapter) CopyName(index int, dst []byte) int {
	if len(dst) == 0 {
		return 0
	}
	name, err := a.Name(index)
	if err != nil {
		return 0
	}
	n := truncateUTF8(name, len(dst)-1)
	copy(dst, name[:n])
	dst[n] = 0
	return n
}

func truncateUTF8(s string, max int) int {
	if len(s) <= max {
		return len(s)
	}
	n := max
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}

// Devices describes every enumerated device with a unique identifier.
func (a *Adapter) Devices() ([]DeviceInfo, error) {
	if !a.Initialized() {
		return nil, newError(KindNotInitialized, "devices", nil)
	}
	names := make([]string, a.Count())
	for i := range names {
		name, err := a.Name(i)
		if err != nil {
			return nil, err
		}
		names[i] = name
	}
	return assignIDs(names), nil
}

// Lookup resolves ref as a device index, identifier or friendly name.
func (a *Adapter) Lookup(ref string) (int, error) {
	infos, err := a.Devices()
	if err != nil {
		return 0, err
	}
	if i, err := strconv.Atoi(ref); err == nil {
		if i < 0 || i >= len(infos) {
			return 0, newError(KindInvalidIndex, "lookup", fmt.Errorf("index %d out of range [0, %d)", i, len(infos)))
		}
		return i, nil
	}
	for _, info := range infos {
		if info.ID == ref {
			return info.Index, nil
		}
	}
	for _, info := range infos {
		if strings.EqualFold(info.Name, ref) {
			return info.Index, nil
		}
	}
	return 0, newError(KindNoDevice, "lookup", fmt.Errorf("no device matches %q", ref))
}

// Capture activates the device at index, negotiates 32 bit BGRA output,
// discards the warm-up frames and returns the next frame converted to RGB.
//
// The platform read cannot be interrupted. When ctx is done or the read
// timeout expires first, Capture returns ErrTimeout or ErrCanceled and the
// pipeline finishes in the background, releasing its handles; Cleanup waits
// for it.
func (a *Adapter) Capture(ctx context.Context, index int, req Request) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, ctxError(err)
	}

	a.mu.Lock()
	d, err := a.device("capture", index)
	if err != nil {
		a.mu.Unlock()
		return nil, err
	}
	sess := a.sess
	sess.captures.Add(1)
	a.mu.Unlock()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	type result struct {
		frame *Frame
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer sess.captures.Done()
		f, err := a.capture(d, index, req)
		done <- result{f, err}
	}()

	select {
	case r := <-done:
		return r.frame, r.err
	case <-ctx.Done():
		a.log.WithField("device", index).WithError(ctx.Err()).Warn("abandoning capture")
		return nil, ctxError(ctx.Err())
	}
}

func ctxError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, "capture", err)
	}
	return newError(KindCanceled, "capture", err)
}

func (a *Adapter) capture(d Device, index int, req Request) (*Frame, error) {
	log := a.log.WithField("device", index)

	src, err := d.Activate()
	if err != nil {
		return nil, newError(KindActivate, "capture", err)
	}
	defer src.Release()

	r, err := src.NewReader()
	if err != nil {
		return nil, newError(KindReaderCreate, "capture", err)
	}
	defer r.Release()

	width, height, err := negotiate(r, req, log)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"width": width, "height": height}).Debug("negotiated output format")

	a.warmUp(r, log)

	s, err := r.ReadSample()
	if err != nil {
		if errors.Is(err, ErrStreamEOS) {
			return nil, newError(KindEndOfStream, "capture", err)
		}
		return nil, newError(KindReadFailed, "capture", err)
	}
	defer s.Release()

	data, err := s.Bytes()
	if err != nil {
		return nil, newError(KindReadFailed, "capture", err)
	}
	if want := width * height * 4; len(data) < want {
		log.WithFields(logrus.Fields{"got": len(data), "want": want}).Warn("short sample, remaining pixels left blank")
	}

	pix := make([]byte, width*height*3)
	decode.BGRAToRGB(pix, data, width, height)

	return &Frame{
		Width:  uint32(width),
		Height: uint32(height),
		Format: FormatRGB,
		Pix:    pix,
	}, nil
}

// negotiate requests BGRA output at the requested size, then without a size
// constraint, and returns the size the reader settled on.
func negotiate(r Reader, req Request, log logrus.FieldLogger) (int, int, error) {
	width, height := req.Width, req.Height
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	var err error
	if width > 0 && height > 0 {
		err = r.SetOutputFormat(uint32(width), uint32(height))
		if err != nil {
			log.WithError(err).Debug("sized format rejected, retrying without size")
		}
	}
	if err != nil || width == 0 || height == 0 {
		if err = r.SetOutputFormat(0, 0); err != nil {
			return 0, 0, newError(KindFormatNegotiation, "capture", err)
		}
	}

	if w, h, err := r.CurrentSize(); err == nil {
		if w > 0 {
			width = int(w)
		}
		if h > 0 {
			height = int(h)
		}
	} else {
		log.WithError(err).Debug("negotiated size unavailable, keeping requested size")
	}

	if width == 0 || height == 0 {
		return 0, 0, newError(KindFormatNegotiation, "capture", fmt.Errorf("no frame size negotiated"))
	}
	if width > maxPixels/height {
		return 0, 0, newError(KindAllocation, "capture", fmt.Errorf("frame size %dx%d too large", width, height))
	}
	return width, height, nil
}

// warmUp discards frames. A failed read or end of stream ends the warm-up
// early; a read that delivers no frame still counts.
func (a *Adapter) warmUp(r Reader, log logrus.FieldLogger) {
	for i := 0; i < a.warmup; i++ {
		s, err := r.ReadSample()
		if s != nil {
			s.Release()
		}
		if err != nil && !errors.Is(err, ErrNoSample) {
			log.WithError(err).WithField("frame", i).Debug("warm-up ended early")
			return
		}
	}
}

// Cleanup releases every device handle and shuts the media subsystem down.
// It waits for abandoned captures to finish first. Calling Cleanup on an
// uninitialized adapter does nothing.
func (a *Adapter) Cleanup() {
	a.mu.Lock()
	sess := a.sess
	a.sess = nil
	a.mu.Unlock()

	if sess == nil {
		return
	}
	sess.captures.Wait()
	for _, d := range sess.devices {
		d.Release()
	}
	a.platform.Shutdown()
	a.log.Debug("capture devices released")
}

// Close calls Cleanup.
func (a *Adapter) Close() error {
	a.Cleanup()
	return nil
}

// wrap returns err unchanged if it already carries a Kind.
func wrap(kind Kind, op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return newError(kind, op, err)
}
