// Package geometry holds the integer position, size and rectangle types used
// throughout wlshot. All values are in compositor-space pixels unless a
// caller says otherwise.
package geometry

import "fmt"

// Position is a point in compositor space. Coordinates may be negative.
type Position struct {
	X int32
	Y int32
}

func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Position) Sub(o Position) Position {
	return Position{X: p.X - o.X, Y: p.Y - o.Y}
}

// Size is a width and height. Only strictly positive sizes cover pixels.
type Size struct {
	Width  int32
	Height int32
}

func (s Size) Sub(o Size) Size {
	return Size{Width: s.Width - o.Width, Height: s.Height - o.Height}
}

// Rectangle is a position plus a size.
type Rectangle struct {
	Position
	Size
}

// Rect is shorthand for building a Rectangle from its four components.
func Rect(x, y, width, height int32) Rectangle {
	return Rectangle{
		Position: Position{X: x, Y: y},
		Size:     Size{Width: width, Height: height},
	}
}

// IsEmpty reports whether r covers no pixels.
func (r Rectangle) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Max returns the exclusive bottom-right corner of r.
func (r Rectangle) Max() Position {
	return Position{X: r.X + r.Width, Y: r.Y + r.Height}
}

// Contains reports whether p lies in r using half-open bounds:
// x in [left, left+width) and y in [top, top+height).
func (r Rectangle) Contains(p Position) bool {
	if r.IsEmpty() {
		return false
	}
	return p.X >= r.X && p.X < r.X+r.Width &&
		p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Intersect returns the largest rectangle contained in both r and o.
// The second result is false when either rectangle is empty or the overlap
// has no area; rectangles that only share an edge do not intersect.
func (r Rectangle) Intersect(o Rectangle) (Rectangle, bool) {
	if r.IsEmpty() || o.IsEmpty() {
		return Rectangle{}, false
	}

	left := max(r.X, o.X)
	top := max(r.Y, o.Y)
	right := min(r.X+r.Width, o.X+o.Width)
	bottom := min(r.Y+r.Height, o.Y+o.Height)

	if right <= left || bottom <= top {
		return Rectangle{}, false
	}

	return Rect(left, top, right-left, bottom-top), true
}

// Union returns the bounding rectangle of all non-empty rectangles in rects.
// The result is empty when none of them cover any pixels.
func Union(rects ...Rectangle) Rectangle {
	var (
		upperLeft   Position
		bottomRight Position
		first       = true
	)

	for _, r := range rects {
		if r.IsEmpty() {
			continue
		}
		end := r.Max()
		if first {
			upperLeft, bottomRight = r.Position, end
			first = false
			continue
		}
		upperLeft.X = min(upperLeft.X, r.X)
		upperLeft.Y = min(upperLeft.Y, r.Y)
		bottomRight.X = max(bottomRight.X, end.X)
		bottomRight.Y = max(bottomRight.Y, end.Y)
	}

	if first {
		return Rectangle{}
	}

	return Rectangle{
		Position: upperLeft,
		Size:     Size{Width: bottomRight.X - upperLeft.X, Height: bottomRight.Y - upperLeft.Y},
	}
}

// String formats r the way slurp prints a selection: "x,y wxh".
func (r Rectangle) String() string {
	return fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.Width, r.Height)
}
