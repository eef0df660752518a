//go:build linux

package screencopy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rajveermalviya/go-wayland/wayland/client"

	"go2tv.app/wlshot/internal/geometry"
	"go2tv.app/wlshot/internal/proto/wlr_screencopy"
	"go2tv.app/wlshot/internal/proto/xdg_output"
	"go2tv.app/wlshot/internal/shm"
)

type waylandOutput struct {
	wl      *client.Output
	version uint32
	xdg     *xdg_output.ZxdgOutputV1
}

type waylandFrame struct {
	frame *wlr_screencopy.ZwlrScreencopyFrameV1
	buf   *shm.Buffer
	pool  *client.ShmPool
	wlBuf *client.Buffer
}

type waylandTransport struct {
	display  *client.Display
	ctx      *client.Context
	registry *client.Registry

	shm        *client.Shm
	xdgManager *xdg_output.ZxdgOutputManagerV1
	screencopy *wlr_screencopy.ZwlrScreencopyManagerV1

	outputs map[int]*waylandOutput
	frames  map[int]*waylandFrame

	// pending collects events decoded by handlers during Dispatch.
	pending []Event

	interruptOnce sync.Once
	closeOnce     sync.Once
	closeErr      error
}

// socketPath resolves display the way libwayland does: absolute paths are
// used as is, bare names live in XDG_RUNTIME_DIR. An empty result lets
// go-wayland apply WAYLAND_DISPLAY itself.
func socketPath(display string) (string, error) {
	if display == "" || filepath.IsAbs(display) {
		return display, nil
	}
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(runtimeDir, display), nil
}

func dialWayland(display string) (transport, error) {
	addr, err := socketPath(display)
	if err != nil {
		return nil, err
	}
	d, err := client.Connect(addr)
	if err != nil {
		return nil, err
	}
	w := &waylandTransport{
		display: d,
		ctx:     d.Context(),
		outputs: make(map[int]*waylandOutput),
		frames:  make(map[int]*waylandFrame),
	}
	d.SetErrorHandler(func(e client.DisplayErrorEvent) {
		var object uint32
		if e.ObjectId != nil {
			object = e.ObjectId.ID()
		}
		w.emit(DisplayErrorEvent{Object: object, Code: e.Code, Message: e.Message})
	})
	return w, nil
}

func (w *waylandTransport) emit(ev Event) {
	w.pending = append(w.pending, ev)
}

func (w *waylandTransport) GetRegistry() error {
	registry, err := w.display.GetRegistry()
	if err != nil {
		return err
	}
	registry.SetGlobalHandler(func(e client.RegistryGlobalEvent) {
		w.emit(GlobalEvent{Name: e.Name, Interface: e.Interface, Version: e.Version})
	})
	w.registry = registry
	return nil
}

func (w *waylandTransport) Sync() error {
	cb, err := w.display.Sync()
	if err != nil {
		return err
	}
	cb.SetDoneHandler(func(client.CallbackDoneEvent) {
		w.emit(SyncDoneEvent{})
	})
	return nil
}

func (w *waylandTransport) BindShm(name, version uint32) error {
	s := client.NewShm(w.ctx)
	if err := w.registry.Bind(name, shmInterface, version, s); err != nil {
		return err
	}
	w.shm = s
	return nil
}

func (w *waylandTransport) BindXdgOutputManager(name, version uint32) error {
	m := xdg_output.NewZxdgOutputManagerV1(w.ctx)
	if err := w.registry.Bind(name, xdg_output.ZxdgOutputManagerV1InterfaceName, version, m); err != nil {
		return err
	}
	w.xdgManager = m
	return nil
}

func (w *waylandTransport) BindScreencopyManager(name, version uint32) error {
	m := wlr_screencopy.NewZwlrScreencopyManagerV1(w.ctx)
	if err := w.registry.Bind(name, wlr_screencopy.ZwlrScreencopyManagerV1InterfaceName, version, m); err != nil {
		return err
	}
	w.screencopy = m
	return nil
}

func (w *waylandTransport) BindOutput(output int, name, version uint32) error {
	o := client.NewOutput(w.ctx)
	o.SetGeometryHandler(func(e client.OutputGeometryEvent) {
		w.emit(OutputGeometryEvent{Output: output, Transform: int32(e.Transform)})
	})
	o.SetScaleHandler(func(e client.OutputScaleEvent) {
		w.emit(OutputScaleEvent{Output: output, Factor: e.Factor})
	})
	o.SetNameHandler(func(e client.OutputNameEvent) {
		w.emit(OutputNameEvent{Output: output, Name: e.Name})
	})
	o.SetDescriptionHandler(func(e client.OutputDescriptionEvent) {
		w.emit(OutputDescriptionEvent{Output: output, Description: e.Description})
	})
	o.SetDoneHandler(func(client.OutputDoneEvent) {
		w.emit(OutputDoneEvent{Output: output})
	})

	if err := w.registry.Bind(name, outputInterface, version, o); err != nil {
		return err
	}
	w.outputs[output] = &waylandOutput{wl: o, version: version}
	return nil
}

func (w *waylandTransport) output(i int) (*waylandOutput, error) {
	o, ok := w.outputs[i]
	if !ok {
		return nil, fmt.Errorf("output %d is not bound", i)
	}
	return o, nil
}

func (w *waylandTransport) GetXdgOutput(output int) error {
	o, err := w.output(output)
	if err != nil {
		return err
	}
	x, err := w.xdgManager.GetXdgOutput(o.wl)
	if err != nil {
		return err
	}
	x.SetLogicalPositionHandler(func(e xdg_output.ZxdgOutputV1LogicalPositionEvent) {
		w.emit(LogicalPositionEvent{Output: output, X: e.X, Y: e.Y})
	})
	x.SetLogicalSizeHandler(func(e xdg_output.ZxdgOutputV1LogicalSizeEvent) {
		w.emit(LogicalSizeEvent{Output: output, Width: e.Width, Height: e.Height})
	})
	x.SetNameHandler(func(e xdg_output.ZxdgOutputV1NameEvent) {
		w.emit(XdgNameEvent{Output: output, Name: e.Name})
	})
	x.SetDescriptionHandler(func(e xdg_output.ZxdgOutputV1DescriptionEvent) {
		w.emit(XdgDescriptionEvent{Output: output, Description: e.Description})
	})
	x.SetDoneHandler(func(xdg_output.ZxdgOutputV1DoneEvent) {
		w.emit(XdgDoneEvent{Output: output})
	})
	o.xdg = x
	return nil
}

// ReleaseOutput drops the xdg_output and, where the bound version allows,
// the wl_output itself.
func (w *waylandTransport) ReleaseOutput(output int) error {
	o, err := w.output(output)
	if err != nil {
		return err
	}
	delete(w.outputs, output)
	return releaseOutput(o)
}

func releaseOutput(o *waylandOutput) error {
	var xdgErr, wlErr error
	if o.xdg != nil {
		xdgErr = o.xdg.Destroy()
	}
	if o.version >= 3 {
		wlErr = o.wl.Release()
	}
	return errors.Join(xdgErr, wlErr)
}

func (w *waylandTransport) CaptureOutput(output int, overlayCursor bool) error {
	o, err := w.output(output)
	if err != nil {
		return err
	}
	frame, err := w.screencopy.CaptureOutput(cursorFlag(overlayCursor), o.wl)
	if err != nil {
		return err
	}
	w.trackFrame(output, frame)
	return nil
}

func (w *waylandTransport) CaptureOutputRegion(output int, overlayCursor bool, local geometry.Rectangle) error {
	o, err := w.output(output)
	if err != nil {
		return err
	}
	frame, err := w.screencopy.CaptureOutputRegion(cursorFlag(overlayCursor), o.wl, local.X, local.Y, local.Width, local.Height)
	if err != nil {
		return err
	}
	w.trackFrame(output, frame)
	return nil
}

func cursorFlag(on bool) int32 {
	if on {
		return 1
	}
	return 0
}

func (w *waylandTransport) trackFrame(output int, frame *wlr_screencopy.ZwlrScreencopyFrameV1) {
	frame.SetBufferHandler(func(e wlr_screencopy.ZwlrScreencopyFrameV1BufferEvent) {
		w.emit(FrameBufferEvent{Output: output, Format: e.Format, Width: e.Width, Height: e.Height, Stride: e.Stride})
	})
	frame.SetFlagsHandler(func(e wlr_screencopy.ZwlrScreencopyFrameV1FlagsEvent) {
		w.emit(FrameFlagsEvent{Output: output, Flags: e.Flags})
	})
	frame.SetBufferDoneHandler(func(wlr_screencopy.ZwlrScreencopyFrameV1BufferDoneEvent) {
		w.emit(FrameBufferDoneEvent{Output: output})
	})
	frame.SetReadyHandler(func(wlr_screencopy.ZwlrScreencopyFrameV1ReadyEvent) {
		w.emit(FrameReadyEvent{Output: output})
	})
	frame.SetFailedHandler(func(wlr_screencopy.ZwlrScreencopyFrameV1FailedEvent) {
		w.emit(FrameFailedEvent{Output: output})
	})
	frame.SetDamageHandler(func(wlr_screencopy.ZwlrScreencopyFrameV1DamageEvent) {
		w.emit(FrameDamageEvent{Output: output})
	})
	frame.SetLinuxDmabufHandler(func(e wlr_screencopy.ZwlrScreencopyFrameV1LinuxDmabufEvent) {
		w.emit(FrameLinuxDmabufEvent{Output: output, Format: e.Format})
	})
	w.frames[output] = &waylandFrame{frame: frame}
}

func (w *waylandTransport) AttachBuffer(output int, spec BufferSpec) error {
	f, ok := w.frames[output]
	if !ok {
		return fmt.Errorf("output %d has no frame", output)
	}

	buf, err := shm.New("wlshot-frame", spec.Size())
	if err != nil {
		return err
	}
	f.buf = buf

	pool, err := w.shm.CreatePool(buf.Fd(), int32(buf.Size()))
	if err != nil {
		return err
	}
	f.pool = pool

	wlBuf, err := pool.CreateBuffer(0, int32(spec.Width), int32(spec.Height), int32(spec.Stride), spec.Format)
	if err != nil {
		return err
	}
	f.wlBuf = wlBuf

	return f.frame.Copy(wlBuf)
}

func (w *waylandTransport) FramePixels(output int) ([]byte, error) {
	f, ok := w.frames[output]
	if !ok || f.buf == nil {
		return nil, fmt.Errorf("output %d has no frame buffer", output)
	}
	if err := f.buf.Map(); err != nil {
		return nil, err
	}
	return f.buf.Bytes(f.buf.Size())
}

// Dispatch reads one message. Events decoded before a read error are still
// returned so that a wl_display.error is seen before the closed socket.
func (w *waylandTransport) Dispatch() ([]Event, error) {
	if err := w.ctx.Dispatch(); err != nil && len(w.pending) == 0 {
		return nil, err
	}
	events := w.pending
	w.pending = nil
	return events, nil
}

// Interrupt closes the socket so a blocked Dispatch returns.
func (w *waylandTransport) Interrupt() error {
	var err error
	w.interruptOnce.Do(func() {
		err = w.ctx.Close()
	})
	return err
}

// Close destroys every protocol object, releases the frame buffers and
// closes the connection. Requests after an Interrupt fail and are ignored.
func (w *waylandTransport) Close() error {
	w.closeOnce.Do(func() {
		var errs []error
		for _, f := range w.frames {
			if f.wlBuf != nil {
				_ = f.wlBuf.Destroy()
			}
			if f.pool != nil {
				_ = f.pool.Destroy()
			}
			_ = f.frame.Destroy()
			if f.buf != nil {
				errs = append(errs, f.buf.Close())
			}
		}
		for _, o := range w.outputs {
			_ = releaseOutput(o)
		}
		if w.screencopy != nil {
			_ = w.screencopy.Destroy()
		}
		if w.xdgManager != nil {
			_ = w.xdgManager.Destroy()
		}
		errs = append(errs, w.Interrupt())
		w.closeErr = errors.Join(errs...)
	})
	return w.closeErr
}
