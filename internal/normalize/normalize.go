package normalize

import (
	"fmt"
	"image"
)

// Raw describes one buffer as the compositor wrote it.
type Raw struct {
	Pix       []byte
	Width     int
	Height    int
	Stride    int
	Format    Format
	Transform Transform
	// YInverted is set when the compositor flagged the rows as bottom-up.
	YInverted bool
}

func (r Raw) validate() error {
	if !r.Format.Supported() {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, r.Format)
	}
	if !r.Transform.Valid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedTransform, r.Transform)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidBuffer, r.Width, r.Height)
	}
	if r.Stride < r.Width*4 {
		return fmt.Errorf("%w: stride %d shorter than row of %d pixels", ErrInvalidBuffer, r.Stride, r.Width)
	}
	if need := r.Stride*(r.Height-1) + r.Width*4; len(r.Pix) < need {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrInvalidBuffer, len(r.Pix), need)
	}
	return nil
}

// Frame converts r into a new RGBA image with a top-left origin. The image
// is r.Width×r.Height, or r.Height×r.Width for quarter-turn transforms.
func Frame(r Raw) (*image.RGBA, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	dw, dh := r.Transform.OutputSize(r.Width, r.Height)
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	move := r.Transform.mapper(r.Width, r.Height)

	for y := 0; y < r.Height; y++ {
		srcRow := y
		if r.YInverted {
			srcRow = r.Height - 1 - y
		}
		row := r.Pix[srcRow*r.Stride : srcRow*r.Stride+r.Width*4]

		for x := 0; x < r.Width; x++ {
			dx, dy := move(x, y)
			di := dy*dst.Stride + dx*4
			toRGBA(r.Format, dst.Pix[di:di+4], row[x*4:x*4+4])
		}
	}

	return dst, nil
}
