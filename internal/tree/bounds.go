package tree

import (
	"github.com/standardbeagle/axtree/internal/types"
)

// RelativeToTreeBounds converts a node's bounds into the tree's coordinate
// space by walking its chain of offset containers, applying scroll offsets
// and, when clipBounds is set, clipping against containers that clip their
// children. offscreen reports whether the node ended up outside its clipping
// containers or had to inherit its size from an ancestor.
func (t *Tree) RelativeToTreeBounds(n *Node, clipBounds bool) (bounds types.Rect, offscreen bool) {
	return t.relativeToTreeBounds(n, types.Rect{}, clipBounds, true)
}

func (t *Tree) relativeToTreeBounds(n *Node, bounds types.Rect, clipBounds, allowRecursion bool) (types.Rect, bool) {
	offscreen := false

	// A zero-sized input means "start from the node's own bounds", which is
	// not the same as an empty rect at a real position.
	if bounds.Width == 0 && bounds.Height == 0 {
		bounds = n.data.RelativeBounds.Bounds

		// An empty node can still enclose content; fall back to the union of
		// its children's bounds. Skipped mid-update, when children may be in
		// a bad state.
		if bounds.IsEmpty() && !t.updateInProgress && allowRecursion {
			for _, child := range n.children {
				childBounds, _ := t.relativeToTreeBounds(child, types.Rect{}, clipBounds, false)
				bounds = bounds.Union(childBounds)
			}
			if bounds.Width > 0 && bounds.Height > 0 {
				return bounds, false
			}
		}
	} else {
		bounds = bounds.Offset(n.data.RelativeBounds.Bounds.X, n.data.RelativeBounds.Bounds.Y)
	}

	originalNode := n
	for n != nil {
		// Walk up to the offset container; unset means relative to the root.
		container := t.FromID(n.data.RelativeBounds.OffsetContainerID)
		if container == nil {
			container = t.root
		}
		if container == nil || container == n {
			break
		}

		containerBounds := container.data.RelativeBounds.Bounds
		bounds = bounds.Offset(containerBounds.X, containerBounds.Y)

		scrollX, haveX := container.data.GetIntAttribute(types.IntAttrScrollX)
		scrollY, haveY := container.data.GetIntAttribute(types.IntAttrScrollY)
		if haveX && haveY {
			bounds = bounds.Offset(-float64(scrollX), -float64(scrollY))
		}

		intersection := bounds.Intersect(containerBounds)

		clipped := bounds
		if container.data.BoolAttributeOr(types.BoolAttrClipsChildren, false) {
			if !intersection.IsEmpty() {
				clipped = intersection
			} else {
				// Entirely outside the container: snap a degenerate 1px rect
				// to the nearest edge or corner so the position survives.
				if clipped.X >= containerBounds.Width {
					clipped.X = containerBounds.Right() - 1
					clipped.Width = 1
				} else if clipped.X+clipped.Width <= 0 {
					clipped.X = containerBounds.X
					clipped.Width = 1
				}
				if clipped.Y >= containerBounds.Height {
					clipped.Y = containerBounds.Bottom() - 1
					clipped.Height = 1
				} else if clipped.Y+clipped.Height <= 0 {
					clipped.Y = containerBounds.Y
					clipped.Height = 1
				}
			}
		}

		if clipBounds {
			bounds = clipped
		}

		// Clipped out by a container with real size: offscreen, in the
		// extended sense of "clipped by any ancestor", not just the root.
		if container.data.BoolAttributeOr(types.BoolAttrClipsChildren, false) &&
			intersection.IsEmpty() && !clipped.IsEmpty() {
			offscreen = true
		}

		n = container
	}

	// Zero-sized nodes inherit the bounds of the nearest ancestor that has
	// any, and are flagged offscreen since the size is not their own.
	if bounds.Width == 0 && bounds.Height == 0 {
		ancestor := originalNode.parent
		for ancestor != nil {
			ab := ancestor.data.RelativeBounds.Bounds
			if ab.Width > 0 || ab.Height > 0 {
				break
			}
			ancestor = ancestor.parent
		}

		if ancestor != nil && allowRecursion {
			ancestorBounds, _ := t.relativeToTreeBounds(ancestor, types.Rect{}, clipBounds, false)
			original := originalNode.data.RelativeBounds.Bounds
			if original.X == 0 && original.Y == 0 {
				bounds = ancestorBounds
			} else {
				bounds.Width = max(0, ancestorBounds.Right()-bounds.X)
				bounds.Height = max(0, ancestorBounds.Bottom()-bounds.Y)
			}
			offscreen = true
		}
	}

	return bounds, offscreen
}
