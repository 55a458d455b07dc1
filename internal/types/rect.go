package types

import "fmt"

// Rect is an axis-aligned rectangle in the tree's coordinate space.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// IsEmpty reports whether the rect has no area.
func (r Rect) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Offset returns the rect translated by (dx, dy).
func (r Rect) Offset(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Union returns the smallest rect containing both r and o. An empty rect
// does not contribute.
func (r Rect) Union(o Rect) Rect {
	if o.IsEmpty() {
		return r
	}
	if r.IsEmpty() {
		return o
	}
	x := min(r.X, o.X)
	y := min(r.Y, o.Y)
	right := max(r.Right(), o.Right())
	bottom := max(r.Bottom(), o.Bottom())
	return Rect{X: x, Y: y, Width: right - x, Height: bottom - y}
}

// Intersect returns the overlap of r and o, or a zero rect when disjoint.
func (r Rect) Intersect(o Rect) Rect {
	x := max(r.X, o.X)
	y := max(r.Y, o.Y)
	right := min(r.Right(), o.Right())
	bottom := min(r.Bottom(), o.Bottom())
	if right <= x || bottom <= y {
		return Rect{}
	}
	return Rect{X: x, Y: y, Width: right - x, Height: bottom - y}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%g, %g)-(%gx%g)", r.X, r.Y, r.Width, r.Height)
}

// RelativeBounds is a node's bounding box relative to its offset container,
// or to the tree's root when no container is set.
type RelativeBounds struct {
	OffsetContainerID NodeID
	Bounds            Rect
}
