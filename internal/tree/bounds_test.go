package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/axtree/internal/types"
)

// bnd builds a node with bounds relative to the given offset container
// (0 means relative to the root).
func bnd(id types.NodeID, role types.Role, container types.NodeID, r types.Rect, childIDs ...types.NodeID) types.NodeData {
	d := nd(id, role, childIDs...)
	d.RelativeBounds = types.RelativeBounds{OffsetContainerID: container, Bounds: r}
	return d
}

func TestBounds_RelativeToRoot(t *testing.T) {
	tr := mustTree(t, up(1,
		bnd(1, types.RoleRootArea, 0, types.Rect{Width: 800, Height: 600}, 2),
		bnd(2, types.RoleButton, 0, types.Rect{X: 10, Y: 10, Width: 100, Height: 20}),
	))

	bounds, offscreen := tr.RelativeToTreeBounds(tr.FromID(2), false)
	assert.Equal(t, types.Rect{X: 10, Y: 10, Width: 100, Height: 20}, bounds)
	assert.False(t, offscreen)
}

func TestBounds_NestedOffsetContainer(t *testing.T) {
	tr := mustTree(t, up(1,
		bnd(1, types.RoleRootArea, 0, types.Rect{Width: 800, Height: 600}, 2),
		bnd(2, types.RoleGenericContainer, 0, types.Rect{X: 100, Y: 50, Width: 300, Height: 200}, 3),
		bnd(3, types.RoleButton, 2, types.Rect{X: 10, Y: 10, Width: 50, Height: 20}),
	))

	bounds, offscreen := tr.RelativeToTreeBounds(tr.FromID(3), false)
	assert.Equal(t, types.Rect{X: 110, Y: 60, Width: 50, Height: 20}, bounds)
	assert.False(t, offscreen)
}

func TestBounds_ScrollOffsetsRequireBothAxes(t *testing.T) {
	scrolled := bnd(2, types.RoleGenericContainer, 0,
		types.Rect{X: 100, Y: 50, Width: 300, Height: 200}, 3)
	scrolled.AddIntAttribute(types.IntAttrScrollX, 5)
	scrolled.AddIntAttribute(types.IntAttrScrollY, 7)
	tr := mustTree(t, up(1,
		bnd(1, types.RoleRootArea, 0, types.Rect{Width: 800, Height: 600}, 2),
		scrolled,
		bnd(3, types.RoleButton, 2, types.Rect{X: 10, Y: 10, Width: 50, Height: 20}),
	))

	bounds, _ := tr.RelativeToTreeBounds(tr.FromID(3), false)
	assert.Equal(t, types.Rect{X: 105, Y: 53, Width: 50, Height: 20}, bounds)

	// With only one scroll axis present the offset is not applied at all.
	partial := scrolled
	partial.IntAttributes = nil
	partial.AddIntAttribute(types.IntAttrScrollX, 5)
	require.NoError(t, tr.Unserialize(up(1, partial)))

	bounds, _ = tr.RelativeToTreeBounds(tr.FromID(3), false)
	assert.Equal(t, types.Rect{X: 110, Y: 60, Width: 50, Height: 20}, bounds)
}

func TestBounds_ClippingContainer(t *testing.T) {
	clipper := bnd(2, types.RoleGenericContainer, 0,
		types.Rect{Width: 100, Height: 100}, 3)
	clipper.AddBoolAttribute(types.BoolAttrClipsChildren, true)
	tr := mustTree(t, up(1,
		bnd(1, types.RoleRootArea, 0, types.Rect{Width: 800, Height: 600}, 2),
		clipper,
		bnd(3, types.RoleButton, 2, types.Rect{X: 90, Y: 90, Width: 50, Height: 50}),
	))

	// Partially overlapping: clipped to the intersection, not offscreen.
	bounds, offscreen := tr.RelativeToTreeBounds(tr.FromID(3), true)
	assert.Equal(t, types.Rect{X: 90, Y: 90, Width: 10, Height: 10}, bounds)
	assert.False(t, offscreen)

	// Unclipped query keeps the full rect.
	bounds, _ = tr.RelativeToTreeBounds(tr.FromID(3), false)
	assert.Equal(t, types.Rect{X: 90, Y: 90, Width: 50, Height: 50}, bounds)
}

func TestBounds_ClippedOutSnapsToNearestEdge(t *testing.T) {
	clipper := bnd(2, types.RoleGenericContainer, 0,
		types.Rect{Width: 100, Height: 100}, 3)
	clipper.AddBoolAttribute(types.BoolAttrClipsChildren, true)
	tr := mustTree(t, up(1,
		bnd(1, types.RoleRootArea, 0, types.Rect{Width: 800, Height: 600}, 2),
		clipper,
		bnd(3, types.RoleButton, 2, types.Rect{X: 200, Y: 30, Width: 50, Height: 50}),
	))

	// Entirely to the right of the clip: a 1px-wide rect at the right edge.
	bounds, offscreen := tr.RelativeToTreeBounds(tr.FromID(3), true)
	assert.Equal(t, types.Rect{X: 99, Y: 30, Width: 1, Height: 50}, bounds)
	assert.True(t, offscreen)
}

func TestBounds_EmptyNodeUnionsChildren(t *testing.T) {
	tr := mustTree(t, up(1,
		bnd(1, types.RoleRootArea, 0, types.Rect{Width: 800, Height: 600}, 2),
		bnd(2, types.RoleGenericContainer, 0, types.Rect{}, 3, 4),
		bnd(3, types.RoleButton, 0, types.Rect{X: 10, Y: 10, Width: 30, Height: 30}),
		bnd(4, types.RoleButton, 0, types.Rect{X: 20, Y: 20, Width: 40, Height: 40}),
	))

	bounds, offscreen := tr.RelativeToTreeBounds(tr.FromID(2), false)
	assert.Equal(t, types.Rect{X: 10, Y: 10, Width: 50, Height: 50}, bounds)
	assert.False(t, offscreen)
}

func TestBounds_ZeroSizeInheritsAncestorBounds(t *testing.T) {
	tr := mustTree(t, up(1,
		bnd(1, types.RoleRootArea, 0, types.Rect{Width: 800, Height: 600}, 2),
		bnd(2, types.RoleGenericContainer, 0, types.Rect{X: 100, Y: 50, Width: 300, Height: 200}, 3),
		bnd(3, types.RoleStaticText, 2, types.Rect{}),
	))

	// A node with no bounds of its own takes the nearest sized ancestor's,
	// and is reported offscreen because the size is borrowed.
	bounds, offscreen := tr.RelativeToTreeBounds(tr.FromID(3), false)
	assert.Equal(t, types.Rect{X: 100, Y: 50, Width: 300, Height: 200}, bounds)
	assert.True(t, offscreen)
}

func TestBounds_ZeroSizeWithPositionExtendsToAncestorEdge(t *testing.T) {
	tr := mustTree(t, up(1,
		bnd(1, types.RoleRootArea, 0, types.Rect{Width: 800, Height: 600}, 2),
		bnd(2, types.RoleGenericContainer, 0, types.Rect{X: 100, Y: 50, Width: 300, Height: 200}, 3),
		bnd(3, types.RoleStaticText, 2, types.Rect{X: 30, Y: 20}),
	))

	// The node keeps its position and stretches to the ancestor's far edges.
	bounds, offscreen := tr.RelativeToTreeBounds(tr.FromID(3), false)
	assert.Equal(t, types.Rect{X: 130, Y: 70, Width: 270, Height: 180}, bounds)
	assert.True(t, offscreen)
}
