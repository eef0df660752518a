package capture

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var ErrInvalidRegion = errors.New("invalid region")

// Rect is an absolute logical rectangle.
type Rect struct {
	X, Y          int32
	Width, Height int32
}

func (r Rect) String() string {
	return fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.Width, r.Height)
}

var regionPattern = regexp.MustCompile(`^\s*(-?\d+),(-?\d+) (\d+)x(\d+)\s*$`)

// ParseRegion parses the "x,y wxh" form printed by slurp, e.g.
// "-1920,0 800x600".
func ParseRegion(s string) (Rect, error) {
	if s == "" {
		return Rect{}, fmt.Errorf("%w: empty", ErrInvalidRegion)
	}

	m := regionPattern.FindStringSubmatch(s)
	if m == nil {
		return Rect{}, fmt.Errorf("%w: %q does not match \"{x},{y} {width}x{height}\"", ErrInvalidRegion, s)
	}

	var v [4]int32
	for i, field := range m[1:] {
		n, err := strconv.ParseInt(field, 10, 32)
		if err != nil {
			return Rect{}, fmt.Errorf("%w: %q: %w", ErrInvalidRegion, field, err)
		}
		v[i] = int32(n)
	}

	r := Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	if r.Width == 0 || r.Height == 0 {
		return Rect{}, fmt.Errorf("%w: %s has no area", ErrInvalidRegion, r)
	}
	return r, nil
}
