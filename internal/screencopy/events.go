package screencopy

// Event is one protocol event, already decoded and tagged with the arena
// index of the output it concerns. The set is closed: only types in this
// file implement it.
type Event interface {
	event()
}

// GlobalEvent announces a registry global.
type GlobalEvent struct {
	Name      uint32
	Interface string
	Version   uint32
}

// DisplayErrorEvent is a fatal wl_display.error. The compositor closes the
// connection right after sending it.
type DisplayErrorEvent struct {
	Object  uint32
	Code    uint32
	Message string
}

// SyncDoneEvent fires when the compositor has processed every request sent
// before the matching sync.
type SyncDoneEvent struct{}

type OutputGeometryEvent struct {
	Output    int
	Transform int32
}

type OutputScaleEvent struct {
	Output int
	Factor int32
}

type OutputNameEvent struct {
	Output int
	Name   string
}

type OutputDescriptionEvent struct {
	Output      int
	Description string
}

// OutputDoneEvent closes a burst of wl_output property events.
type OutputDoneEvent struct {
	Output int
}

type LogicalPositionEvent struct {
	Output int
	X, Y   int32
}

type LogicalSizeEvent struct {
	Output        int
	Width, Height int32
}

type XdgNameEvent struct {
	Output int
	Name   string
}

type XdgDescriptionEvent struct {
	Output      int
	Description string
}

type XdgDoneEvent struct {
	Output int
}

// FrameBufferEvent offers one wl_shm buffer layout for a frame.
type FrameBufferEvent struct {
	Output int
	Format uint32
	Width  uint32
	Height uint32
	Stride uint32
}

type FrameFlagsEvent struct {
	Output int
	Flags  uint32
}

// FrameBufferDoneEvent ends the list of offered layouts (screencopy v3).
type FrameBufferDoneEvent struct {
	Output int
}

type FrameReadyEvent struct {
	Output int
}

type FrameFailedEvent struct {
	Output int
}

type FrameDamageEvent struct {
	Output int
}

type FrameLinuxDmabufEvent struct {
	Output int
	Format uint32
}

func (GlobalEvent) event()            {}
func (SyncDoneEvent) event()          {}
func (OutputGeometryEvent) event()    {}
func (OutputScaleEvent) event()       {}
func (OutputNameEvent) event()        {}
func (OutputDescriptionEvent) event() {}
func (OutputDoneEvent) event()        {}
func (LogicalPositionEvent) event()   {}
func (LogicalSizeEvent) event()       {}
func (XdgNameEvent) event()           {}
func (XdgDescriptionEvent) event()    {}
func (XdgDoneEvent) event()           {}
func (DisplayErrorEvent) event()      {}
func (FrameBufferEvent) event()       {}
func (FrameFlagsEvent) event()        {}
func (FrameBufferDoneEvent) event()   {}
func (FrameReadyEvent) event()        {}
func (FrameFailedEvent) event()       {}
func (FrameDamageEvent) event()       {}
func (FrameLinuxDmabufEvent) event()  {}
