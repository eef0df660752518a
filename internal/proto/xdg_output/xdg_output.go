// Package xdg_output implements the client side of the
// xdg-output-unstable-v1 protocol on top of go-wayland.
package xdg_output

import (
	"encoding/binary"

	"github.com/rajveermalviya/go-wayland/wayland/client"
)

// ZxdgOutputManagerV1InterfaceName is the name of the interface as it
// appears in the registry.
const ZxdgOutputManagerV1InterfaceName = "zxdg_output_manager_v1"

// ZxdgOutputManagerV1 : manage xdg_output objects
//
// A global factory interface for xdg_output objects.
type ZxdgOutputManagerV1 struct {
	client.BaseProxy
}

// NewZxdgOutputManagerV1 : manage xdg_output objects
func NewZxdgOutputManagerV1(ctx *client.Context) *ZxdgOutputManagerV1 {
	zxdgOutputManagerV1 := &ZxdgOutputManagerV1{}
	ctx.Register(zxdgOutputManagerV1)
	return zxdgOutputManagerV1
}

// Destroy : destroy the xdg_output_manager object
//
// Using this request a client can tell the server that it is not going to
// use the xdg_output_manager object anymore.
//
// Any objects already created through this instance are not affected.
func (i *ZxdgOutputManagerV1) Destroy() error {
	defer i.Context().Unregister(i)
	const opcode = 0
	const _reqBufLen = 8
	var _reqBuf [_reqBufLen]byte
	l := 0
	putUint32(_reqBuf[l:l+4], i.ID())
	l += 4
	putUint32(_reqBuf[l:l+4], uint32(_reqBufLen<<16|opcode&0x0000ffff))
	err := i.Context().WriteMsg(_reqBuf[:], nil)
	return err
}

// GetXdgOutput : create an xdg output from a wl_output
//
// This creates a new xdg_output object for the given wl_output.
func (i *ZxdgOutputManagerV1) GetXdgOutput(output *client.Output) (*ZxdgOutputV1, error) {
	id := NewZxdgOutputV1(i.Context())
	const opcode = 1
	const _reqBufLen = 8 + 4 + 4
	var _reqBuf [_reqBufLen]byte
	l := 0
	putUint32(_reqBuf[l:l+4], i.ID())
	l += 4
	putUint32(_reqBuf[l:l+4], uint32(_reqBufLen<<16|opcode&0x0000ffff))
	l += 4
	putUint32(_reqBuf[l:l+4], id.ID())
	l += 4
	putUint32(_reqBuf[l:l+4], output.ID())
	err := i.Context().WriteMsg(_reqBuf[:], nil)
	return id, err
}

// ZxdgOutputV1InterfaceName is the name of the interface as it appears in
// the registry.
const ZxdgOutputV1InterfaceName = "zxdg_output_v1"

// ZxdgOutputV1 : compositor logical output region
//
// An xdg_output describes part of the compositor geometry.
//
// This typically corresponds to a monitor that displays part of the
// compositor space.
type ZxdgOutputV1 struct {
	client.BaseProxy
	logicalPositionHandler ZxdgOutputV1LogicalPositionHandlerFunc
	logicalSizeHandler     ZxdgOutputV1LogicalSizeHandlerFunc
	doneHandler            ZxdgOutputV1DoneHandlerFunc
	nameHandler            ZxdgOutputV1NameHandlerFunc
	descriptionHandler     ZxdgOutputV1DescriptionHandlerFunc
}

// NewZxdgOutputV1 : compositor logical output region
func NewZxdgOutputV1(ctx *client.Context) *ZxdgOutputV1 {
	zxdgOutputV1 := &ZxdgOutputV1{}
	ctx.Register(zxdgOutputV1)
	return zxdgOutputV1
}

// Destroy : destroy the xdg_output object
func (i *ZxdgOutputV1) Destroy() error {
	defer i.Context().Unregister(i)
	const opcode = 0
	const _reqBufLen = 8
	var _reqBuf [_reqBufLen]byte
	l := 0
	putUint32(_reqBuf[l:l+4], i.ID())
	l += 4
	putUint32(_reqBuf[l:l+4], uint32(_reqBufLen<<16|opcode&0x0000ffff))
	err := i.Context().WriteMsg(_reqBuf[:], nil)
	return err
}

// ZxdgOutputV1LogicalPositionEvent : position of the output within the global compositor space
type ZxdgOutputV1LogicalPositionEvent struct {
	X int32
	Y int32
}
type ZxdgOutputV1LogicalPositionHandlerFunc func(ZxdgOutputV1LogicalPositionEvent)

// SetLogicalPositionHandler : sets handler for ZxdgOutputV1LogicalPositionEvent
func (i *ZxdgOutputV1) SetLogicalPositionHandler(f ZxdgOutputV1LogicalPositionHandlerFunc) {
	i.logicalPositionHandler = f
}

// ZxdgOutputV1LogicalSizeEvent : size of the output in the global compositor space
type ZxdgOutputV1LogicalSizeEvent struct {
	Width  int32
	Height int32
}
type ZxdgOutputV1LogicalSizeHandlerFunc func(ZxdgOutputV1LogicalSizeEvent)

// SetLogicalSizeHandler : sets handler for ZxdgOutputV1LogicalSizeEvent
func (i *ZxdgOutputV1) SetLogicalSizeHandler(f ZxdgOutputV1LogicalSizeHandlerFunc) {
	i.logicalSizeHandler = f
}

// ZxdgOutputV1DoneEvent : all information about the output have been sent
//
// Deprecated since version 3: the wl_output.done event is sent instead.
type ZxdgOutputV1DoneEvent struct{}
type ZxdgOutputV1DoneHandlerFunc func(ZxdgOutputV1DoneEvent)

// SetDoneHandler : sets handler for ZxdgOutputV1DoneEvent
func (i *ZxdgOutputV1) SetDoneHandler(f ZxdgOutputV1DoneHandlerFunc) {
	i.doneHandler = f
}

// ZxdgOutputV1NameEvent : name of this output
type ZxdgOutputV1NameEvent struct {
	Name string
}
type ZxdgOutputV1NameHandlerFunc func(ZxdgOutputV1NameEvent)

// SetNameHandler : sets handler for ZxdgOutputV1NameEvent
func (i *ZxdgOutputV1) SetNameHandler(f ZxdgOutputV1NameHandlerFunc) {
	i.nameHandler = f
}

// ZxdgOutputV1DescriptionEvent : human-readable description of this output
type ZxdgOutputV1DescriptionEvent struct {
	Description string
}
type ZxdgOutputV1DescriptionHandlerFunc func(ZxdgOutputV1DescriptionEvent)

// SetDescriptionHandler : sets handler for ZxdgOutputV1DescriptionEvent
func (i *ZxdgOutputV1) SetDescriptionHandler(f ZxdgOutputV1DescriptionHandlerFunc) {
	i.descriptionHandler = f
}

func (i *ZxdgOutputV1) Dispatch(opcode uint32, fd int, data []byte) {
	switch opcode {
	case 0:
		if i.logicalPositionHandler == nil {
			return
		}
		var e ZxdgOutputV1LogicalPositionEvent
		e.X = int32(uint32At(data[0:4]))
		e.Y = int32(uint32At(data[4:8]))

		i.logicalPositionHandler(e)
	case 1:
		if i.logicalSizeHandler == nil {
			return
		}
		var e ZxdgOutputV1LogicalSizeEvent
		e.Width = int32(uint32At(data[0:4]))
		e.Height = int32(uint32At(data[4:8]))

		i.logicalSizeHandler(e)
	case 2:
		if i.doneHandler == nil {
			return
		}
		i.doneHandler(ZxdgOutputV1DoneEvent{})
	case 3:
		if i.nameHandler == nil {
			return
		}
		var e ZxdgOutputV1NameEvent
		e.Name = stringAt(data)

		i.nameHandler(e)
	case 4:
		if i.descriptionHandler == nil {
			return
		}
		var e ZxdgOutputV1DescriptionEvent
		e.Description = stringAt(data)

		i.descriptionHandler(e)
	}
}

func putUint32(dst []byte, v uint32) {
	binary.NativeEndian.PutUint32(dst, v)
}

func uint32At(src []byte) uint32 {
	return binary.NativeEndian.Uint32(src)
}

// stringAt decodes a wire string: a length that counts the trailing NUL,
// then the bytes.
func stringAt(src []byte) string {
	if len(src) < 4 {
		return ""
	}
	n := int(uint32At(src[0:4]))
	if n == 0 || 4+n > len(src) {
		return ""
	}
	return string(src[4 : 4+n-1])
}
