// Package notify posts desktop notifications for saved screenshots.
package notify

import (
	"fmt"
	"image"
	"time"

	"github.com/godbus/dbus/v5"
	xdraw "golang.org/x/image/draw"

	"go2tv.app/wlshot/internal/apis"
	"go2tv.app/wlshot/internal/convert"
)

const (
	appName           = "wlshot"
	appIcon           = "camera-photo"
	thumbnailMaxEdge  = 256
	defaultExpiration = 5 * time.Second
)

type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Notification is one screenshot announcement.
type Notification struct {
	Summary string
	Body    string
	// Path of the saved image, if any.
	Path string
	// Thumbnail is scaled down and attached as image-data.
	Thumbnail image.Image
	Urgency   Urgency
	// Expire is how long the server should show it. Zero uses 5s.
	Expire time.Duration
}

// imageData matches the (iiibiiay) image-data hint.
type imageData struct {
	Width         int32
	Height        int32
	RowStride     int32
	HasAlpha      bool
	BitsPerSample int32
	Channels      int32
	Data          []byte
}

// Send posts n on the session bus and returns the server's notification id.
func Send(n Notification) (uint32, error) {
	obj, err := apis.SessionObject()
	if err != nil {
		return 0, fmt.Errorf("notify: session bus: %w", err)
	}
	return send(obj, n)
}

func send(obj apis.Caller, n Notification) (uint32, error) {
	expire := n.Expire
	if expire <= 0 {
		expire = defaultExpiration
	}

	call, err := apis.Call(obj, "Notify",
		appName,
		uint32(0),
		appIcon,
		n.Summary,
		n.Body,
		[]string{},
		hints(n),
		int32(expire/time.Millisecond),
	)
	if err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("notify: reply: %w", err)
	}
	return id, nil
}

func hints(n Notification) map[string]dbus.Variant {
	h := map[string]dbus.Variant{
		"urgency":   convert.FromByte(byte(n.Urgency)),
		"transient": convert.FromBool(n.Path == ""),
	}
	if n.Path != "" {
		h["image-path"] = convert.FromString(n.Path)
	}
	if n.Thumbnail != nil {
		h["image-data"] = dbus.MakeVariant(toImageData(thumbnail(n.Thumbnail, thumbnailMaxEdge)))
	}
	return h
}

// thumbnail scales img so its longer edge is at most maxEdge.
func thumbnail(img image.Image, maxEdge int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxEdge || h > maxEdge {
		if w >= h {
			h = max(1, h*maxEdge/w)
			w = maxEdge
		} else {
			w = max(1, w*maxEdge/h)
			h = maxEdge
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

func toImageData(img *image.RGBA) imageData {
	return imageData{
		Width:         int32(img.Rect.Dx()),
		Height:        int32(img.Rect.Dy()),
		RowStride:     int32(img.Stride),
		HasAlpha:      true,
		BitsPerSample: 8,
		Channels:      4,
		Data:          img.Pix,
	}
}
