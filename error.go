package camsnap

import (
	"errors"
	"fmt"
)

// Kind classifies a capture failure. Kinds are matched with errors.Is.
type Kind int

const (
	KindNone Kind = iota
	KindNotInitialized
	KindNoDevice
	KindInvalidIndex
	KindActivate
	KindReaderCreate
	KindFormatNegotiation
	KindReadFailed
	KindTimeout
	KindEndOfStream
	KindAllocation
	KindUnsupportedPlatform
	KindStartup
	KindCanceled
	KindInvalidArgument
)

var kindNames = map[Kind]string{
	KindNone:                "none",
	KindNotInitialized:      "not initialized",
	KindNoDevice:            "no device",
	KindInvalidIndex:        "invalid device index",
	KindActivate:            "device activation failed",
	KindReaderCreate:        "source reader creation failed",
	KindFormatNegotiation:   "format negotiation failed",
	KindReadFailed:          "frame read failed",
	KindTimeout:             "frame read timed out",
	KindEndOfStream:         "end of stream",
	KindAllocation:          "allocation failed",
	KindUnsupportedPlatform: "unsupported platform",
	KindStartup:             "media subsystem startup failed",
	KindCanceled:            "capture canceled",
	KindInvalidArgument:     "invalid argument",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error reports which step of an operation failed and why.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a *Error against the kind sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrNotInitialized      = &Error{Kind: KindNotInitialized}
	ErrNoDevice            = &Error{Kind: KindNoDevice}
	ErrInvalidIndex        = &Error{Kind: KindInvalidIndex}
	ErrActivate            = &Error{Kind: KindActivate}
	ErrReaderCreate        = &Error{Kind: KindReaderCreate}
	ErrFormatNegotiation   = &Error{Kind: KindFormatNegotiation}
	ErrReadFailed          = &Error{Kind: KindReadFailed}
	ErrTimeout             = &Error{Kind: KindTimeout}
	ErrEndOfStream         = &Error{Kind: KindEndOfStream}
	ErrAllocation          = &Error{Kind: KindAllocation}
	ErrUnsupportedPlatform = &Error{Kind: KindUnsupportedPlatform}
	ErrStartup             = &Error{Kind: KindStartup}
	ErrCanceled            = &Error{Kind: KindCanceled}
	ErrInvalidArgument     = &Error{Kind: KindInvalidArgument}
)

// Errors returned by Platform implementations for sample delivery.
var (
	ErrNoSample  = errors.New("no sample delivered")
	ErrStreamEOS = errors.New("stream ended")
)

// Frame decoding errors.
var (
	ErrShortFrame    = errors.New("frame buffer too short")
	ErrUnknownFormat = errors.New("unknown frame format")
)

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind carried by err, or KindNone.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}
