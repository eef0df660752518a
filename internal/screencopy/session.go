// Package screencopy drives one wlr-screencopy capture against a Wayland
// compositor: it enumerates outputs, selects the ones a request touches,
// negotiates shared-memory frames and returns them normalized.
package screencopy

import (
	"context"
	"errors"
	"fmt"

	"go2tv.app/wlshot/internal/composite"
	"go2tv.app/wlshot/internal/debuglog"
	"go2tv.app/wlshot/internal/geometry"
	"go2tv.app/wlshot/internal/normalize"
)

const logComponent = "screencopy"

type Mode int

const (
	ModeAll Mode = iota
	ModeNamed
	ModeRegion
)

func (m Mode) String() string {
	switch m {
	case ModeAll:
		return "all"
	case ModeNamed:
		return "named"
	case ModeRegion:
		return "region"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Request describes one capture.
type Request struct {
	Mode Mode
	// Name selects the output for ModeNamed.
	Name string
	// Region is the absolute logical rectangle for ModeRegion.
	Region        geometry.Rectangle
	IncludeCursor bool
	// SkipFailed drops outputs whose frame failed instead of failing the
	// whole capture.
	SkipFailed bool
	// Display is a socket name or path. Empty uses WAYLAND_DISPLAY.
	Display string
}

// Output describes one wl_output in logical compositor space.
type Output struct {
	// Index is the output's position in registration order.
	Index       int
	Name        string
	Description string
	Position    geometry.Position
	Size        geometry.Size
	Transform   normalize.Transform
	Scale       int32
}

func (o Output) Rect() geometry.Rectangle {
	return geometry.Rectangle{Position: o.Position, Size: o.Size}
}

type stage int

const (
	stageConnecting stage = iota
	stageGlobals
	stageGeometry
	stageSelection
	stageFrameRequest
	stageBufferNegotiation
	stageAwaitReady
	stageComplete
)

func (s stage) String() string {
	switch s {
	case stageConnecting:
		return "connecting"
	case stageGlobals:
		return "globals"
	case stageGeometry:
		return "geometry"
	case stageSelection:
		return "selection"
	case stageFrameRequest:
		return "frame-request"
	case stageBufferNegotiation:
		return "buffer-negotiation"
	case stageAwaitReady:
		return "await-ready"
	case stageComplete:
		return "complete"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

type frameState struct {
	// target is the absolute logical rectangle this frame covers.
	target    geometry.Rectangle
	spec      BufferSpec
	haveSpec  bool
	attached  bool
	yInverted bool
	ready     bool
	err       error
}

func (f *frameState) settled() bool {
	return f.ready || f.err != nil
}

type outputState struct {
	Output

	global  uint32
	version uint32

	wlName         string
	xdgName        string
	xdgDescription string

	haveTransform bool
	havePosition  bool
	haveSize      bool
	// done and xdgDone are cleared by every xdg_output property and set
	// again by the event that commits them.
	done    bool
	xdgDone bool

	// frame is nil for outputs the request does not touch.
	frame *frameState
}

// name prefers wl_output.name and falls back to the xdg_output name, which
// older compositors send instead.
func (o *outputState) name() string {
	if o.wlName != "" {
		return o.wlName
	}
	return o.xdgName
}

func (o *outputState) label() string {
	if n := o.name(); n != "" {
		return n
	}
	return fmt.Sprintf("#%d", o.Index)
}

// described reports whether the output's properties, including the
// xdg_output name and description, have been committed. xdg_output v3
// commits through wl_output.done, older managers through xdg_output.done.
// wl_output before version 2 has no done event, so with a v3 manager
// position and size are all there is to wait for.
func (o *outputState) described(xdgVersion uint32) bool {
	if !o.haveTransform || !o.havePosition || !o.haveSize {
		return false
	}
	switch {
	case xdgVersion < 3:
		return o.xdgDone
	case o.version >= 2:
		return o.done
	default:
		return true
	}
}

func (o *outputState) xdgChanged() {
	o.done = false
	o.xdgDone = false
}

func (o *outputState) descriptor() Output {
	d := o.Output
	d.Name = o.name()
	if d.Description == "" {
		d.Description = o.xdgDescription
	}
	return d
}

type session struct {
	t     transport
	req   Request
	stage stage

	// outputs is indexed by Output.Index.
	outputs []*outputState

	haveShm           bool
	haveXdgManager    bool
	xdgVersion        uint32
	haveScreencopy    bool
	screencopyVersion uint32
	synced            bool
}

var dial dialer = dialWayland

// Run performs the capture described by req and returns one normalized
// capture per output that contributed pixels, in registration order.
func Run(ctx context.Context, req Request) ([]composite.Capture, error) {
	return runWith(ctx, dial, req)
}

// ListOutputs connects, describes every output and disconnects.
func ListOutputs(ctx context.Context, req Request) ([]Output, error) {
	return listWith(ctx, dial, req)
}

func connect(d dialer, display string) (transport, error) {
	debuglog.Printf(logComponent, "stage=%s display=%q", stageConnecting, display)
	t, err := d(display)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return t, nil
}

func runWith(ctx context.Context, d dialer, req Request) ([]composite.Capture, error) {
	t, err := connect(d, req.Display)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	s := &session{t: t, req: req}
	if err := s.describeOutputs(ctx); err != nil {
		return nil, err
	}
	if err := s.selectOutputs(); err != nil {
		return nil, err
	}
	if err := s.requestFrames(); err != nil {
		return nil, err
	}
	if err := s.awaitFrames(ctx); err != nil {
		return nil, err
	}
	return s.collect()
}

func listWith(ctx context.Context, d dialer, req Request) ([]Output, error) {
	t, err := connect(d, req.Display)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	s := &session{t: t, req: req}
	if err := s.describeOutputs(ctx); err != nil {
		return nil, err
	}

	outputs := make([]Output, 0, len(s.outputs))
	for _, o := range s.outputs {
		outputs = append(outputs, o.descriptor())
	}
	return outputs, nil
}

func (s *session) enter(st stage) {
	s.stage = st
	debuglog.Printf(logComponent, "stage=%s outputs=%d", st, len(s.outputs))
}

func (s *session) describeOutputs(ctx context.Context) error {
	s.enter(stageGlobals)
	if err := s.t.GetRegistry(); err != nil {
		return wireError("get registry", err)
	}
	if err := s.t.Sync(); err != nil {
		return wireError("sync", err)
	}
	if err := s.dispatchUntil(ctx, func() bool { return s.synced }); err != nil {
		return err
	}

	if !s.haveXdgManager {
		return unsupportedProtocol(xdgManagerInterface)
	}

	s.enter(stageGeometry)
	for _, o := range s.outputs {
		if err := s.t.GetXdgOutput(o.Index); err != nil {
			return wireError("get xdg output", err)
		}
	}
	return s.dispatchUntil(ctx, func() bool {
		for _, o := range s.outputs {
			if !o.described(s.xdgVersion) {
				return false
			}
		}
		return true
	})
}

func (s *session) selectOutputs() error {
	s.enter(stageSelection)

	switch s.req.Mode {
	case ModeAll:
		for _, o := range s.outputs {
			if !o.Rect().IsEmpty() {
				o.frame = &frameState{target: o.Rect()}
			}
		}
	case ModeNamed:
		for _, o := range s.outputs {
			if o.name() == s.req.Name {
				o.frame = &frameState{target: o.Rect()}
				break
			}
		}
		if !s.anySelected() {
			return &NoOutputError{Name: s.req.Name}
		}
	case ModeRegion:
		for _, o := range s.outputs {
			if r, ok := o.Rect().Intersect(s.req.Region); ok {
				o.frame = &frameState{target: r}
			}
		}
	default:
		return fmt.Errorf("unknown capture mode %s", s.req.Mode)
	}

	for _, o := range s.outputs {
		if o.frame != nil {
			debuglog.Printf(logComponent, "selected output=%s target=%s transform=%s scale=%d", o.label(), o.frame.target, o.Transform, o.Scale)
			continue
		}
		if err := s.t.ReleaseOutput(o.Index); err != nil {
			return wireError("release output", err)
		}
	}

	if !s.anySelected() {
		return ErrNoCaptures
	}
	return nil
}

func (s *session) anySelected() bool {
	for _, o := range s.outputs {
		if o.frame != nil {
			return true
		}
	}
	return false
}

// localRegion converts an absolute target rectangle into the output-local
// coordinates capture_output_region expects. Outputs rotated by 90 or 270
// degrees put the logical origin at the opposite corner of the buffer, and
// the same correction is applied to flipped-90 and flipped-270. The flipped
// variants have not been checked against a compositor.
func localRegion(o Output, target geometry.Rectangle) geometry.Rectangle {
	local := target.Position.Sub(o.Position)
	if o.Transform.QuarterTurn() {
		slack := o.Size.Sub(target.Size)
		local = geometry.Position{X: slack.Width - local.X, Y: slack.Height - local.Y}
	}
	return geometry.Rectangle{Position: local, Size: target.Size}
}

func (s *session) requestFrames() error {
	s.enter(stageFrameRequest)

	if !s.haveScreencopy {
		return unsupportedProtocol(screencopyInterface)
	}
	if !s.haveShm {
		return unsupportedProtocol(shmInterface)
	}

	for _, o := range s.outputs {
		if o.frame != nil && !o.Transform.Valid() {
			return fmt.Errorf("%w: output %s reports %d", ErrUnsupportedTransform, o.label(), int32(o.Transform))
		}
	}

	for _, o := range s.outputs {
		if o.frame == nil {
			continue
		}
		var err error
		if s.req.Mode == ModeRegion {
			local := localRegion(o.Output, o.frame.target)
			debuglog.Printf(logComponent, "capture_output_region output=%s local=%s", o.label(), local)
			err = s.t.CaptureOutputRegion(o.Index, s.req.IncludeCursor, local)
		} else {
			debuglog.Printf(logComponent, "capture_output output=%s", o.label())
			err = s.t.CaptureOutput(o.Index, s.req.IncludeCursor)
		}
		if err != nil {
			return wireError("capture", err)
		}
	}
	return nil
}

func (s *session) awaitFrames(ctx context.Context) error {
	s.enter(stageBufferNegotiation)
	err := s.dispatchUntil(ctx, s.framesMatch(func(f *frameState) bool {
		return f.attached || f.settled()
	}))
	if err != nil {
		return err
	}

	s.enter(stageAwaitReady)
	return s.dispatchUntil(ctx, s.framesMatch((*frameState).settled))
}

func (s *session) framesMatch(pred func(*frameState) bool) func() bool {
	return func() bool {
		for _, o := range s.outputs {
			if o.frame != nil && !pred(o.frame) {
				return false
			}
		}
		return true
	}
}

func (s *session) collect() ([]composite.Capture, error) {
	s.enter(stageComplete)

	caps := make([]composite.Capture, 0, len(s.outputs))
	for _, o := range s.outputs {
		f := o.frame
		if f == nil || !f.ready || f.err != nil {
			continue
		}

		pix, err := s.t.FramePixels(o.Index)
		if err != nil {
			return nil, fmt.Errorf("output %s: map frame: %w", o.label(), err)
		}
		img, err := normalize.Frame(normalize.Raw{
			Pix:       pix,
			Width:     f.spec.Width,
			Height:    f.spec.Height,
			Stride:    f.spec.Stride,
			Format:    normalize.Format(f.spec.Format),
			Transform: o.Transform,
			YInverted: f.yInverted,
		})
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", o.label(), err)
		}

		caps = append(caps, composite.Capture{
			Position: f.target.Position,
			Size:     f.target.Size,
			Image:    img,
		})
	}

	if len(caps) == 0 {
		return nil, ErrNoCaptures
	}
	return caps, nil
}

type dispatchResult struct {
	events []Event
	err    error
}

// dispatch reads one batch of events. The read runs on its own goroutine so
// that ctx can interrupt it; on expiry the transport is interrupted and the
// reader joined before returning.
func (s *session) dispatch(ctx context.Context) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, s.contextError(err)
	}

	done := make(chan dispatchResult, 1)
	go func() {
		events, err := s.t.Dispatch()
		done <- dispatchResult{events: events, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, wireError("dispatch", r.err)
		}
		return r.events, nil
	case <-ctx.Done():
		_ = s.t.Interrupt()
		<-done
		return nil, s.contextError(ctx.Err())
	}
}

func (s *session) contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w during %s: %w", ErrTimeout, s.stage, err)
	}
	return err
}

func (s *session) dispatchUntil(ctx context.Context, cond func() bool) error {
	for !cond() {
		events, err := s.dispatch(ctx)
		if err != nil {
			return err
		}
		for _, ev := range events {
			if err := s.handle(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *session) output(i int) *outputState {
	if i < 0 || i >= len(s.outputs) {
		return nil
	}
	return s.outputs[i]
}

// pending returns the output owning an unsettled frame, or nil.
func (s *session) pending(i int) *outputState {
	o := s.output(i)
	if o == nil || o.frame == nil || o.frame.settled() {
		return nil
	}
	return o
}

func (s *session) handle(ev Event) error {
	switch e := ev.(type) {
	case GlobalEvent:
		return s.handleGlobal(e)
	case SyncDoneEvent:
		s.synced = true
	case OutputGeometryEvent:
		if o := s.output(e.Output); o != nil {
			o.Transform = normalize.Transform(e.Transform)
			o.haveTransform = true
		}
	case OutputScaleEvent:
		if o := s.output(e.Output); o != nil && e.Factor > 0 {
			o.Scale = e.Factor
		}
	case OutputNameEvent:
		if o := s.output(e.Output); o != nil {
			o.wlName = e.Name
		}
	case OutputDescriptionEvent:
		if o := s.output(e.Output); o != nil {
			o.Description = e.Description
		}
	case OutputDoneEvent:
		if o := s.output(e.Output); o != nil {
			o.done = true
		}
	case LogicalPositionEvent:
		if o := s.output(e.Output); o != nil {
			o.Position = geometry.Position{X: e.X, Y: e.Y}
			o.havePosition = true
			o.xdgChanged()
		}
	case LogicalSizeEvent:
		if o := s.output(e.Output); o != nil {
			o.Size = geometry.Size{Width: e.Width, Height: e.Height}
			o.haveSize = true
			o.xdgChanged()
		}
	case XdgNameEvent:
		if o := s.output(e.Output); o != nil {
			o.xdgName = e.Name
			o.xdgChanged()
		}
	case XdgDescriptionEvent:
		if o := s.output(e.Output); o != nil {
			o.xdgDescription = e.Description
			o.xdgChanged()
		}
	case XdgDoneEvent:
		if o := s.output(e.Output); o != nil {
			o.xdgDone = true
		}
	case DisplayErrorEvent:
		return &ProtocolError{Object: e.Object, Code: e.Code, Message: e.Message}
	case FrameBufferEvent:
		return s.handleBuffer(e)
	case FrameFlagsEvent:
		if o := s.pending(e.Output); o != nil {
			o.frame.yInverted = e.Flags&1 != 0
		}
	case FrameBufferDoneEvent:
		return s.handleBufferDone(e)
	case FrameReadyEvent:
		if o := s.pending(e.Output); o != nil {
			o.frame.ready = true
			debuglog.Printf(logComponent, "ready output=%s", o.label())
		}
	case FrameFailedEvent:
		if o := s.pending(e.Output); o != nil {
			return s.fail(o, ErrScreencopyFailed)
		}
	case FrameDamageEvent, FrameLinuxDmabufEvent:
		// only wl_shm copies without damage tracking are used
	default:
		debuglog.Printf(logComponent, "ignored event=%T", ev)
	}
	return nil
}

func (s *session) handleGlobal(e GlobalEvent) error {
	switch e.Interface {
	case shmInterface:
		if s.haveShm {
			return nil
		}
		if err := s.t.BindShm(e.Name, min(e.Version, maxShmVersion)); err != nil {
			return wireError("bind "+e.Interface, err)
		}
		s.haveShm = true
	case xdgManagerInterface:
		if s.haveXdgManager {
			return nil
		}
		version := min(e.Version, maxXdgManagerVersion)
		if err := s.t.BindXdgOutputManager(e.Name, version); err != nil {
			return wireError("bind "+e.Interface, err)
		}
		s.haveXdgManager = true
		s.xdgVersion = version
	case screencopyInterface:
		if s.haveScreencopy {
			return nil
		}
		version := min(e.Version, maxScreencopyVersion)
		if err := s.t.BindScreencopyManager(e.Name, version); err != nil {
			return wireError("bind "+e.Interface, err)
		}
		s.haveScreencopy = true
		s.screencopyVersion = version
	case outputInterface:
		return s.addOutput(e)
	}
	return nil
}

func (s *session) addOutput(e GlobalEvent) error {
	if s.stage > stageGeometry {
		debuglog.Printf(logComponent, "ignoring output global=%d announced during %s", e.Name, s.stage)
		return nil
	}

	o := &outputState{
		Output:  Output{Index: len(s.outputs), Scale: 1},
		global:  e.Name,
		version: min(e.Version, maxOutputVersion),
	}
	if err := s.t.BindOutput(o.Index, o.global, o.version); err != nil {
		return wireError("bind "+e.Interface, err)
	}
	s.outputs = append(s.outputs, o)

	if s.stage == stageGeometry {
		if err := s.t.GetXdgOutput(o.Index); err != nil {
			return wireError("get xdg output", err)
		}
	}
	return nil
}

func (s *session) handleBuffer(e FrameBufferEvent) error {
	o := s.pending(e.Output)
	if o == nil || o.frame.haveSpec {
		return nil
	}

	format := normalize.Format(e.Format)
	debuglog.Printf(logComponent, "buffer output=%s format=%s size=%dx%d stride=%d", o.label(), format, e.Width, e.Height, e.Stride)

	if !format.Supported() {
		// v3 may still offer another layout before buffer_done
		if s.screencopyVersion < 3 {
			return s.fail(o, fmt.Errorf("%w: %s", ErrUnsupportedPixelFormat, format))
		}
		return nil
	}

	spec := BufferSpec{
		Format: e.Format,
		Width:  int(e.Width),
		Height: int(e.Height),
		Stride: int(e.Stride),
	}
	if spec.Width <= 0 || spec.Height <= 0 || spec.Stride < spec.Width*4 {
		return s.fail(o, fmt.Errorf("%w: invalid buffer %dx%d stride %d", ErrScreencopyFailed, spec.Width, spec.Height, spec.Stride))
	}

	o.frame.spec = spec
	o.frame.haveSpec = true

	if s.screencopyVersion < 3 {
		return s.attach(o)
	}
	return nil
}

func (s *session) handleBufferDone(e FrameBufferDoneEvent) error {
	o := s.pending(e.Output)
	if o == nil || o.frame.attached {
		return nil
	}
	if !o.frame.haveSpec {
		return s.fail(o, fmt.Errorf("%w: no wl_shm layout offered", ErrUnsupportedPixelFormat))
	}
	return s.attach(o)
}

func (s *session) attach(o *outputState) error {
	if err := s.t.AttachBuffer(o.Index, o.frame.spec); err != nil {
		return fmt.Errorf("output %s: allocate %d byte frame buffer: %w", o.label(), o.frame.spec.Size(), err)
	}
	o.frame.attached = true
	return nil
}

// fail records a frame failure. Unless the request skips failed outputs the
// failure ends the whole capture.
func (s *session) fail(o *outputState, err error) error {
	fe := &FrameError{Output: o.label(), Err: err}
	o.frame.err = fe
	if !s.req.SkipFailed {
		return fe
	}
	debuglog.Printf(logComponent, "skipping output=%s err=%q", o.label(), err)
	return nil
}
