package normalize

import "fmt"

// Transform mirrors the wl_output.transform enum.
type Transform int32

const (
	TransformNormal Transform = iota
	Transform90
	Transform180
	Transform270
	TransformFlipped
	TransformFlipped90
	TransformFlipped180
	TransformFlipped270
)

func (t Transform) Valid() bool {
	return t >= TransformNormal && t <= TransformFlipped270
}

// QuarterTurn reports whether t rotates by 90 or 270 degrees, in which case
// the stored buffer has its width and height swapped relative to the
// logical output.
func (t Transform) QuarterTurn() bool {
	return t.rotation() == Transform90 || t.rotation() == Transform270
}

// Flipped reports whether t includes a mirror around the vertical axis.
func (t Transform) Flipped() bool {
	return t >= TransformFlipped && t <= TransformFlipped270
}

func (t Transform) rotation() Transform {
	return t &^ TransformFlipped
}

func (t Transform) String() string {
	switch t {
	case TransformNormal:
		return "normal"
	case Transform90:
		return "90"
	case Transform180:
		return "180"
	case Transform270:
		return "270"
	case TransformFlipped:
		return "flipped"
	case TransformFlipped90:
		return "flipped-90"
	case TransformFlipped180:
		return "flipped-180"
	case TransformFlipped270:
		return "flipped-270"
	default:
		return fmt.Sprintf("%d", int32(t))
	}
}

// OutputSize returns the dimensions of a w×h buffer after t is applied.
func (t Transform) OutputSize(w, h int) (int, int) {
	if t.QuarterTurn() {
		return h, w
	}
	return w, h
}

// mapper returns the function sending a source pixel (x, y) of a w×h buffer
// to its destination after t.
func (t Transform) mapper(w, h int) func(x, y int) (int, int) {
	dw, _ := t.OutputSize(w, h)

	var rotate func(x, y int) (int, int)
	switch t.rotation() {
	case Transform90:
		rotate = func(x, y int) (int, int) { return h - 1 - y, x }
	case Transform180:
		rotate = func(x, y int) (int, int) { return w - 1 - x, h - 1 - y }
	case Transform270:
		rotate = func(x, y int) (int, int) { return y, w - 1 - x }
	default:
		rotate = func(x, y int) (int, int) { return x, y }
	}

	if !t.Flipped() {
		return rotate
	}
	return func(x, y int) (int, int) {
		dx, dy := rotate(x, y)
		return dw - 1 - dx, dy
	}
}
