package screencopy

import "go2tv.app/wlshot/internal/geometry"

// Interface names and the highest version of each this package speaks.
const (
	shmInterface        = "wl_shm"
	outputInterface     = "wl_output"
	xdgManagerInterface = "zxdg_output_manager_v1"
	screencopyInterface = "zwlr_screencopy_manager_v1"

	maxShmVersion        = 1
	maxOutputVersion     = 4
	maxXdgManagerVersion = 3
	maxScreencopyVersion = 3
)

// BufferSpec is the wl_shm layout chosen for one frame.
type BufferSpec struct {
	Format uint32
	Width  int
	Height int
	Stride int
}

// Size is the number of bytes the layout needs.
func (b BufferSpec) Size() int {
	return b.Stride * b.Height
}

// transport is the wire side of a session. Requests never block. Dispatch
// blocks until at least one event has been read and returns everything
// decoded so far; it is the only method that may run on another goroutine,
// and Interrupt is the only method that may be called while it does.
type transport interface {
	GetRegistry() error
	Sync() error

	BindShm(name, version uint32) error
	BindScreencopyManager(name, version uint32) error
	BindXdgOutputManager(name, version uint32) error
	BindOutput(output int, name, version uint32) error

	GetXdgOutput(output int) error
	ReleaseOutput(output int) error

	CaptureOutput(output int, overlayCursor bool) error
	CaptureOutputRegion(output int, overlayCursor bool, local geometry.Rectangle) error
	// AttachBuffer allocates shared memory for the frame of output and asks
	// the compositor to copy into it.
	AttachBuffer(output int, spec BufferSpec) error
	// FramePixels maps the frame's buffer read-only and returns its bytes.
	FramePixels(output int) ([]byte, error)

	Dispatch() ([]Event, error)
	Interrupt() error
	Close() error
}

// dialer opens a transport to the compositor named by display. An empty
// display means the environment default.
type dialer func(display string) (transport, error)
