package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/axtree/internal/types"
)

func selectionTree(t *testing.T, td types.TreeData) *Tree {
	t.Helper()
	text := nd(3, types.RoleStaticText)
	text.AddStringAttribute(types.StringAttrName, "hello")
	ignored := nd(4, types.RoleGenericContainer)
	ignored.State = types.StateIgnored
	tail := nd(5, types.RoleStaticText)
	tail.AddStringAttribute(types.StringAttrName, "world")
	tr := mustTree(t, types.TreeUpdate{
		HasTreeData: true,
		TreeData:    td,
		RootID:      1,
		Nodes: []types.NodeData{
			nd(1, types.RoleRootArea, 2),
			nd(2, types.RoleParagraph, 3, 4, 5),
			text,
			ignored,
			tail,
		},
	})
	return tr
}

func TestUnignoredSelection_PassThrough(t *testing.T) {
	tr := selectionTree(t, types.TreeData{
		SelAnchorID: 3, SelAnchorOffset: 1,
		SelFocusID: 5, SelFocusOffset: 4,
	})

	sel := tr.UnignoredSelection()
	assert.Equal(t, types.NodeID(3), sel.AnchorID)
	assert.Equal(t, int32(1), sel.AnchorOffset)
	assert.Equal(t, types.NodeID(5), sel.FocusID)
	assert.Equal(t, int32(4), sel.FocusOffset)
	assert.False(t, sel.IsBackward)
}

func TestUnignoredSelection_AnchorOnIgnoredNodeMovesBackward(t *testing.T) {
	// Forward selection: the anchor is the start of the range and adjusts
	// backward, landing at the end of the preceding text leaf.
	tr := selectionTree(t, types.TreeData{
		SelAnchorID: 4, SelAnchorOffset: 0,
		SelFocusID: 5, SelFocusOffset: 2,
	})

	sel := tr.UnignoredSelection()
	assert.Equal(t, types.NodeID(3), sel.AnchorID)
	assert.Equal(t, int32(len("hello")), sel.AnchorOffset)
	assert.Equal(t, types.NodeID(5), sel.FocusID)
	assert.Equal(t, int32(2), sel.FocusOffset)
}

func TestUnignoredSelection_FocusOnIgnoredNodeMovesForward(t *testing.T) {
	tr := selectionTree(t, types.TreeData{
		SelAnchorID: 3, SelAnchorOffset: 0,
		SelFocusID: 4, SelFocusOffset: 0,
	})

	sel := tr.UnignoredSelection()
	assert.Equal(t, types.NodeID(3), sel.AnchorID)
	assert.Equal(t, types.NodeID(5), sel.FocusID)
	assert.Equal(t, int32(0), sel.FocusOffset)
}

func TestUnignoredSelection_BackwardSelectionSwapsAdjustment(t *testing.T) {
	// Backward selection: the anchor is the end of the range, so an ignored
	// anchor adjusts forward instead.
	tr := selectionTree(t, types.TreeData{
		SelectionIsBackward: true,
		SelAnchorID:         4, SelAnchorOffset: 0,
		SelFocusID: 3, SelFocusOffset: 1,
	})

	sel := tr.UnignoredSelection()
	assert.True(t, sel.IsBackward)
	assert.Equal(t, types.NodeID(5), sel.AnchorID)
	assert.Equal(t, int32(0), sel.AnchorOffset)
	assert.Equal(t, types.NodeID(3), sel.FocusID)
}

func TestUnignoredSelection_InvalidEndpointUnsetsBoth(t *testing.T) {
	tr := selectionTree(t, types.TreeData{
		SelAnchorID: 3, SelAnchorOffset: 1,
		SelFocusID: 99, SelFocusOffset: 0,
	})

	sel := tr.UnignoredSelection()
	assert.Equal(t, types.InvalidNodeID, sel.AnchorID)
	assert.Equal(t, int32(-1), sel.AnchorOffset)
	assert.Equal(t, types.InvalidNodeID, sel.FocusID)
	assert.Equal(t, int32(-1), sel.FocusOffset)
	assert.Equal(t, types.AffinityDownstream, sel.FocusAffinity)
}

func TestUnignoredSelection_InlineTextBoxLiftsToParent(t *testing.T) {
	ignored := nd(3, types.RoleGenericContainer)
	ignored.State = types.StateIgnored
	text := nd(4, types.RoleStaticText, 5)
	text.State = types.StateIgnored
	box := nd(5, types.RoleInlineTextBox)
	box.AddStringAttribute(types.StringAttrName, "chunk")
	tr := mustTree(t, types.TreeUpdate{
		HasTreeData: true,
		TreeData: types.TreeData{
			SelAnchorID: 3, SelAnchorOffset: 0,
			SelFocusID: 3, SelFocusOffset: 0,
		},
		RootID: 1,
		Nodes: []types.NodeData{
			nd(1, types.RoleRootArea, 2),
			nd(2, types.RoleParagraph, 3, 4),
			ignored,
			text,
			box,
		},
	})

	sel := tr.UnignoredSelection()
	// The forward-adjusted focus lands on the inline text box and is lifted
	// to its static text parent.
	require.Equal(t, types.NodeID(4), sel.FocusID)
	assert.Equal(t, int32(0), sel.FocusOffset)
}
