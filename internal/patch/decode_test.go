package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/axtree/internal/types"
)

func TestDecode_FullDocument(t *testing.T) {
	doc := `{
		"rootId": 1,
		"nodeIdToClear": 7,
		"treeData": {
			"treeId": "frame-main",
			"title": "Example",
			"focusId": 2,
			"selection": {
				"anchorId": 2, "anchorOffset": 1,
				"focusId": 2, "focusOffset": 4, "focusAffinity": "upstream"
			}
		},
		"nodes": [
			{
				"id": 1,
				"role": "rootArea",
				"states": ["focusable"],
				"childIds": [2],
				"bounds": {"width": 800, "height": 600}
			},
			{
				"id": 2,
				"role": "staticText",
				"stringAttributes": {"name": "hello"},
				"intAttributes": {"posInSet": 3},
				"intListAttributes": {"labelledbyIds": [1]},
				"bounds": {"offsetContainerId": 1, "x": 10, "y": 20, "width": 100, "height": 16}
			}
		]
	}`

	u, err := Decode([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, types.NodeID(1), u.RootID)
	assert.Equal(t, types.NodeID(7), u.NodeIDToClear)
	require.True(t, u.HasTreeData)
	assert.Equal(t, "frame-main", u.TreeData.TreeID)
	assert.Equal(t, "Example", u.TreeData.Title)
	assert.Equal(t, types.NodeID(2), u.TreeData.FocusID)
	assert.Equal(t, int32(1), u.TreeData.SelAnchorOffset)
	assert.Equal(t, types.AffinityDownstream, u.TreeData.SelAnchorAffinity)
	assert.Equal(t, types.AffinityUpstream, u.TreeData.SelFocusAffinity)

	require.Len(t, u.Nodes, 2)
	root := u.Nodes[0]
	assert.Equal(t, types.RoleRootArea, root.Role)
	assert.True(t, root.State.Has(types.StateFocusable))
	assert.Equal(t, []types.NodeID{2}, root.ChildIDs)
	assert.Equal(t, types.Rect{Width: 800, Height: 600}, root.RelativeBounds.Bounds)

	text := u.Nodes[1]
	assert.Equal(t, types.RoleStaticText, text.Role)
	assert.Equal(t, "hello", text.StringAttributeOr(types.StringAttrName, ""))
	assert.Equal(t, int32(3), text.IntAttributeOr(types.IntAttrPosInSet, 0))
	assert.Equal(t, types.NodeID(1), text.RelativeBounds.OffsetContainerID)
}

func TestDecode_MinimalDocument(t *testing.T) {
	u, err := Decode([]byte(`{"rootId": 1, "nodes": [{"id": 1, "role": "rootArea"}]}`))
	require.NoError(t, err)
	assert.False(t, u.HasTreeData)
	assert.Equal(t, types.InvalidNodeID, u.NodeIDToClear)
	require.Len(t, u.Nodes, 1)
}

func TestDecode_Rejections(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "malformed json",
			doc:  `{"rootId": `,
			want: "parsing patch",
		},
		{
			name: "missing root id",
			doc:  `{"nodes": []}`,
			want: "invalid patch",
		},
		{
			name: "node without role",
			doc:  `{"rootId": 1, "nodes": [{"id": 1}]}`,
			want: "invalid patch",
		},
		{
			name: "string id",
			doc:  `{"rootId": "1", "nodes": []}`,
			want: "invalid patch",
		},
		{
			name: "unknown role",
			doc:  `{"rootId": 1, "nodes": [{"id": 1, "role": "blink"}]}`,
			want: `unknown role "blink"`,
		},
		{
			name: "unknown state",
			doc:  `{"rootId": 1, "nodes": [{"id": 1, "role": "rootArea", "states": ["warp"]}]}`,
			want: `unknown state "warp"`,
		},
		{
			name: "unknown attribute",
			doc:  `{"rootId": 1, "nodes": [{"id": 1, "role": "rootArea", "intAttributes": {"zoom": 2}}]}`,
			want: `unknown int attribute "zoom"`,
		},
		{
			name: "unknown affinity",
			doc:  `{"rootId": 1, "treeData": {"selection": {"anchorId": 1, "focusId": 1, "anchorAffinity": "sideways"}}, "nodes": []}`,
			want: "invalid patch",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestDecode_Deterministic(t *testing.T) {
	doc := `{"rootId": 1, "nodes": [{
		"id": 1, "role": "rootArea",
		"stringAttributes": {"value": "v", "name": "n", "description": "d"}
	}]}`

	first, err := Decode([]byte(doc))
	require.NoError(t, err)
	for range 10 {
		again, err := Decode([]byte(doc))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
