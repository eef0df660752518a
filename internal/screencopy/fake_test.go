package screencopy

import (
	"errors"
	"fmt"

	"go2tv.app/wlshot/internal/geometry"
	"go2tv.app/wlshot/internal/normalize"
)

// fakeOutput is one monitor as the fake compositor advertises it.
type fakeOutput struct {
	name           string
	xdgName        string
	xdgDescription string
	pos       geometry.Position
	size      geometry.Size
	transform int32
	scale     int32
	version   uint32

	// formats are offered in order; empty means XRGB8888 only.
	formats    []uint32
	padStride  int
	badStride  bool
	fail       bool
	yInvert    bool
	pixel      [4]byte
	silentDone bool
}

type captureCall struct {
	output int
	region bool
	local  geometry.Rectangle
	cursor bool
}

// fakeCompositor answers transport requests by queueing the events a real
// compositor would send back.
type fakeCompositor struct {
	outputs           []fakeOutput
	screencopyVersion uint32
	xdgVersion        uint32
	// oneByOne hands out one event per Dispatch, the way go-wayland reads
	// one message at a time.
	oneByOne bool
	// displayError is raised in reply to the first capture request.
	displayError *DisplayErrorEvent
	noXdg             bool
	noShm             bool
	stallSync         bool
	dialErr           error

	queue       []Event
	bound       map[int]int
	versions    map[int]uint32
	xdgBound    map[int]bool
	released    []int
	captures    []captureCall
	attached    map[int]BufferSpec
	buffers     map[int][]byte
	closed      bool
	interrupted chan struct{}
}

func newFake(outputs ...fakeOutput) *fakeCompositor {
	return &fakeCompositor{
		outputs:           outputs,
		screencopyVersion: 3,
		xdgVersion:        3,
		bound:             make(map[int]int),
		versions:          make(map[int]uint32),
		xdgBound:          make(map[int]bool),
		attached:          make(map[int]BufferSpec),
		buffers:           make(map[int][]byte),
		interrupted:       make(chan struct{}),
	}
}

func (f *fakeCompositor) dial(string) (transport, error) {
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	return f, nil
}

func (f *fakeCompositor) push(evs ...Event) {
	f.queue = append(f.queue, evs...)
}

const outputGlobalBase = 100

func (f *fakeCompositor) GetRegistry() error {
	f.push(GlobalEvent{Name: 1, Interface: "wl_compositor", Version: 6})
	if !f.noShm {
		f.push(GlobalEvent{Name: 2, Interface: shmInterface, Version: 2})
	}
	if !f.noXdg {
		f.push(GlobalEvent{Name: 3, Interface: xdgManagerInterface, Version: f.xdgVersion})
	}
	if f.screencopyVersion > 0 {
		f.push(GlobalEvent{Name: 4, Interface: screencopyInterface, Version: f.screencopyVersion})
	}
	for i, o := range f.outputs {
		v := o.version
		if v == 0 {
			v = 4
		}
		f.push(GlobalEvent{Name: uint32(outputGlobalBase + i), Interface: outputInterface, Version: v})
	}
	return nil
}

func (f *fakeCompositor) Sync() error {
	if !f.stallSync {
		f.push(SyncDoneEvent{})
	}
	return nil
}

func (f *fakeCompositor) BindShm(uint32, uint32) error               { return nil }
func (f *fakeCompositor) BindScreencopyManager(uint32, uint32) error { return nil }
func (f *fakeCompositor) BindXdgOutputManager(uint32, uint32) error  { return nil }

func (f *fakeCompositor) BindOutput(output int, name, version uint32) error {
	idx := int(name) - outputGlobalBase
	if idx < 0 || idx >= len(f.outputs) {
		return fmt.Errorf("unknown global %d", name)
	}
	f.bound[output] = idx
	f.versions[output] = version
	o := f.outputs[idx]

	f.push(OutputGeometryEvent{Output: output, Transform: o.transform})
	if version >= 2 && o.scale != 0 {
		f.push(OutputScaleEvent{Output: output, Factor: o.scale})
	}
	if version >= 4 && o.name != "" {
		f.push(OutputNameEvent{Output: output, Name: o.name})
	}
	if version >= 2 && !o.silentDone {
		f.push(OutputDoneEvent{Output: output})
	}
	return nil
}

func (f *fakeCompositor) fakeFor(output int) (fakeOutput, error) {
	idx, ok := f.bound[output]
	if !ok {
		return fakeOutput{}, fmt.Errorf("output %d not bound", output)
	}
	return f.outputs[idx], nil
}

func (f *fakeCompositor) GetXdgOutput(output int) error {
	o, err := f.fakeFor(output)
	if err != nil {
		return err
	}
	f.xdgBound[output] = true
	f.push(
		LogicalPositionEvent{Output: output, X: o.pos.X, Y: o.pos.Y},
		LogicalSizeEvent{Output: output, Width: o.size.Width, Height: o.size.Height},
	)
	if o.xdgName != "" {
		f.push(XdgNameEvent{Output: output, Name: o.xdgName})
	}
	if o.xdgDescription != "" {
		f.push(XdgDescriptionEvent{Output: output, Description: o.xdgDescription})
	}

	// xdg_output v3 drops its own done in favour of wl_output.done
	switch {
	case f.xdgVersion < 3:
		f.push(XdgDoneEvent{Output: output})
	case f.versions[output] >= 2 && !o.silentDone:
		f.push(OutputDoneEvent{Output: output})
	}
	return nil
}

func (f *fakeCompositor) ReleaseOutput(output int) error {
	f.released = append(f.released, output)
	return nil
}

func (f *fakeCompositor) CaptureOutput(output int, cursor bool) error {
	o, err := f.fakeFor(output)
	if err != nil {
		return err
	}
	f.captures = append(f.captures, captureCall{output: output, cursor: cursor})
	if f.raiseDisplayError() {
		return nil
	}
	f.offerBuffers(output, o, o.size)
	return nil
}

func (f *fakeCompositor) CaptureOutputRegion(output int, cursor bool, local geometry.Rectangle) error {
	o, err := f.fakeFor(output)
	if err != nil {
		return err
	}
	f.captures = append(f.captures, captureCall{output: output, region: true, local: local, cursor: cursor})
	if f.raiseDisplayError() {
		return nil
	}
	f.offerBuffers(output, o, local.Size)
	return nil
}

func (f *fakeCompositor) raiseDisplayError() bool {
	if f.displayError == nil {
		return false
	}
	f.push(*f.displayError)
	f.displayError = nil
	return true
}

// offerBuffers sends the buffer events for a logical area of the given size,
// in buffer space: scaled, and swapped for quarter-turn outputs.
func (f *fakeCompositor) offerBuffers(output int, o fakeOutput, logical geometry.Size) {
	scale := max(o.scale, 1)
	w, h := logical.Width*scale, logical.Height*scale
	if normalize.Transform(o.transform).QuarterTurn() {
		w, h = h, w
	}
	stride := int(w)*4 + o.padStride
	if o.badStride {
		stride = int(w)*4 - 4
	}

	formats := o.formats
	if len(formats) == 0 {
		formats = []uint32{uint32(normalize.FormatXRGB8888)}
	}
	for _, format := range formats {
		f.push(FrameBufferEvent{Output: output, Format: format, Width: uint32(w), Height: uint32(h), Stride: uint32(stride)})
	}
	f.push(FrameLinuxDmabufEvent{Output: output, Format: 0x34325258})
	if f.screencopyVersion >= 3 {
		f.push(FrameBufferDoneEvent{Output: output})
	}
}

func (f *fakeCompositor) AttachBuffer(output int, spec BufferSpec) error {
	o, err := f.fakeFor(output)
	if err != nil {
		return err
	}
	f.attached[output] = spec

	if o.fail {
		f.push(FrameFailedEvent{Output: output})
		return nil
	}

	buf := make([]byte, spec.Size())
	for i := 0; i+4 <= len(buf); i += 4 {
		copy(buf[i:i+4], o.pixel[:])
	}
	f.buffers[output] = buf

	var flags uint32
	if o.yInvert {
		flags = 1
	}
	f.push(
		FrameFlagsEvent{Output: output, Flags: flags},
		FrameDamageEvent{Output: output},
		FrameReadyEvent{Output: output},
	)
	return nil
}

func (f *fakeCompositor) FramePixels(output int) ([]byte, error) {
	buf, ok := f.buffers[output]
	if !ok {
		return nil, fmt.Errorf("output %d has no buffer", output)
	}
	return buf, nil
}

func (f *fakeCompositor) Dispatch() ([]Event, error) {
	if len(f.queue) == 0 {
		<-f.interrupted
		return nil, errors.New("connection closed")
	}
	if f.oneByOne {
		ev := f.queue[0]
		f.queue = f.queue[1:]
		return []Event{ev}, nil
	}
	evs := f.queue
	f.queue = nil
	return evs, nil
}

func (f *fakeCompositor) Interrupt() error {
	select {
	case <-f.interrupted:
	default:
		close(f.interrupted)
	}
	return nil
}

func (f *fakeCompositor) Close() error {
	f.closed = true
	return f.Interrupt()
}
