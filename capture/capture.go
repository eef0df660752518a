// Package capture takes screenshots of Wayland outputs through the
// wlr-screencopy protocol. Every call opens its own compositor connection
// and returns one RGBA image laid out in logical compositor space.
package capture

import (
	"context"
	"errors"
	"image"
	"time"

	"go2tv.app/wlshot/internal/geometry"
	"go2tv.app/wlshot/internal/screencopy"
)

const (
	// PixelFormatRGBA is the layout of Result.Pix on every platform.
	PixelFormatRGBA = "RGBA"
)

var (
	ErrNotImplemented = errors.New("screen capture backend is not implemented on this platform")
	ErrInvalidOptions = errors.New("invalid screen capture options")
)

// Errors reported by the capture engine. Match them with errors.Is.
var (
	ErrConnectionFailed       = screencopy.ErrConnectionFailed
	ErrProtocolUnsupported    = screencopy.ErrProtocolUnsupported
	ErrNoOutput               = screencopy.ErrNoOutput
	ErrNoCaptures             = screencopy.ErrNoCaptures
	ErrUnsupportedPixelFormat = screencopy.ErrUnsupportedPixelFormat
	ErrUnsupportedTransform   = screencopy.ErrUnsupportedTransform
	ErrScreencopyFailed       = screencopy.ErrScreencopyFailed
	ErrTimeout                = screencopy.ErrTimeout
	ErrProtocolError          = screencopy.ErrProtocolError
)

type (
	// NoOutputError names the output a NamedOutput call could not find.
	NoOutputError = screencopy.NoOutputError
	// FrameError carries the name of the output whose frame failed.
	FrameError = screencopy.FrameError
	// ProtocolError is a fatal error the compositor raised on the connection.
	ProtocolError = screencopy.ProtocolError
)

// Options configures a capture. A nil *Options means all defaults.
type Options struct {
	// IncludeCursor composites the pointer into the frames.
	IncludeCursor bool
	// SkipFailedOutputs leaves out outputs whose frame the compositor
	// rejected. By default one failed output fails the whole capture.
	SkipFailedOutputs bool
	// Timeout bounds the whole call. Zero means WLSHOT_TIMEOUT_MS, or 5s.
	Timeout time.Duration
	// Display is a Wayland socket name or absolute path. Empty means
	// WAYLAND_DISPLAY.
	Display string
}

// Result is a tightly packed RGBA8 image, top-left origin.
type Result struct {
	Width  int
	Height int
	Pix    []byte
}

// Image wraps the result without copying.
func (r *Result) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    r.Pix,
		Stride: r.Width * 4,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}

// Gray returns one luminance byte per pixel, averaging the three colour
// channels after dividing each by three.
func (r *Result) Gray() []byte {
	out := make([]byte, r.Width*r.Height)
	for i := range out {
		p := r.Pix[i*4 : i*4+3]
		out[i] = p[0]/3 + p[1]/3 + p[2]/3
	}
	return out
}

// OutputInfo describes one output as the compositor lays it out.
type OutputInfo struct {
	Name        string
	Description string
	X, Y        int32
	Width       int32
	Height      int32
	Transform   string
	Scale       int32
}

// AllOutputs captures every output.
func AllOutputs(ctx context.Context, options *Options) (*Result, error) {
	return grab(ctx, screencopy.Request{Mode: screencopy.ModeAll}, options)
}

// NamedOutput captures the output called name, e.g. "DP-1".
func NamedOutput(ctx context.Context, name string, options *Options) (*Result, error) {
	return grab(ctx, screencopy.Request{Mode: screencopy.ModeNamed, Name: name}, options)
}

// Region captures the absolute logical rectangle at x,y of the given size.
// The result is cropped to the outputs the rectangle touches; gaps between
// them stay transparent.
func Region(ctx context.Context, x, y, width, height int32, options *Options) (*Result, error) {
	return grab(ctx, screencopy.Request{
		Mode:   screencopy.ModeRegion,
		Region: geometry.Rect(x, y, width, height),
	}, options)
}

// Outputs lists the outputs the compositor currently advertises.
func Outputs(ctx context.Context, options *Options) ([]OutputInfo, error) {
	return outputs(ctx, options)
}
