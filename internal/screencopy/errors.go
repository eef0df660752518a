package screencopy

import (
	"errors"
	"fmt"

	"go2tv.app/wlshot/internal/composite"
	"go2tv.app/wlshot/internal/normalize"
)

var (
	ErrConnectionFailed       = errors.New("wayland connection failed")
	ErrProtocolUnsupported    = errors.New("compositor does not support a required protocol")
	ErrNoOutput               = errors.New("no such output")
	ErrNoCaptures             = composite.ErrNoCaptures
	ErrUnsupportedPixelFormat = normalize.ErrUnsupportedFormat
	ErrUnsupportedTransform   = normalize.ErrUnsupportedTransform
	ErrScreencopyFailed       = errors.New("screencopy failed")
	ErrTimeout                = errors.New("timed out waiting for compositor")
	ErrProtocolError          = errors.New("wayland protocol error")
)

// ProtocolError is a wl_display.error raised by the compositor, e.g. for a
// rejected region or buffer.
type ProtocolError struct {
	Object  uint32
	Code    uint32
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: object %d code %d: %s", ErrProtocolError, e.Object, e.Code, e.Message)
}

func (e *ProtocolError) Unwrap() error {
	return ErrProtocolError
}

// NoOutputError reports a named-output request that matched nothing.
type NoOutputError struct {
	Name string
}

func (e *NoOutputError) Error() string {
	return fmt.Sprintf("%s: %q", ErrNoOutput, e.Name)
}

func (e *NoOutputError) Unwrap() error {
	return ErrNoOutput
}

// FrameError is a per-output capture failure. Err is ErrScreencopyFailed
// when the compositor rejected the copy, or the negotiation error that made
// the frame unusable.
type FrameError struct {
	Output string
	Err    error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("output %s: %v", e.Output, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

func unsupportedProtocol(iface string) error {
	return fmt.Errorf("%w: %s", ErrProtocolUnsupported, iface)
}

func wireError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrConnectionFailed, op, err)
}
