// Package composite assembles per-output captures into one image laid out in
// compositor space.
package composite

import (
	"errors"
	"image"

	xdraw "golang.org/x/image/draw"

	"go2tv.app/wlshot/internal/geometry"
)

var ErrNoCaptures = errors.New("no captures to composite")

// Capture is one normalized output image and the logical rectangle it
// covers. The image may be larger or smaller than the rectangle when the
// output is scaled; it is resampled to fit.
type Capture struct {
	Position geometry.Position
	Size     geometry.Size
	Image    *image.RGBA
}

func (c Capture) rect() geometry.Rectangle {
	return geometry.Rectangle{Position: c.Position, Size: c.Size}
}

// Bounds returns the bounding rectangle of all captures.
func Bounds(caps []Capture) geometry.Rectangle {
	rects := make([]geometry.Rectangle, 0, len(caps))
	for _, c := range caps {
		rects = append(rects, c.rect())
	}
	return geometry.Union(rects...)
}

// Assemble copies every capture into a new image sized to Bounds(caps).
// Pixels no capture covers stay transparent black. Where captures overlap,
// the one earliest in caps wins.
func Assemble(caps []Capture) (*image.RGBA, geometry.Rectangle, error) {
	bounds := Bounds(caps)
	if bounds.IsEmpty() {
		return nil, geometry.Rectangle{}, ErrNoCaptures
	}

	dst := image.NewRGBA(image.Rect(0, 0, int(bounds.Width), int(bounds.Height)))

	for i := len(caps) - 1; i >= 0; i-- {
		c := caps[i]
		if c.rect().IsEmpty() || c.Image == nil {
			continue
		}
		src := fit(c.Image, int(c.Size.Width), int(c.Size.Height))
		offset := c.Position.Sub(bounds.Position)
		blit(dst, src, int(offset.X), int(offset.Y))
	}

	return dst, bounds, nil
}

// fit returns img resampled to w×h, or img itself when it already matches.
func fit(img *image.RGBA, w, h int) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
	return out
}

func blit(dst, src *image.RGBA, dx, dy int) {
	sb := src.Bounds()
	rowBytes := sb.Dx() * 4
	for y := 0; y < sb.Dy(); y++ {
		si := src.PixOffset(sb.Min.X, sb.Min.Y+y)
		di := dst.PixOffset(dx, dy+y)
		copy(dst.Pix[di:di+rowBytes], src.Pix[si:si+rowBytes])
	}
}
