package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNodeData() NodeData {
	d := NodeData{
		ID:       7,
		Role:     RoleListItem,
		State:    StateFocusable,
		ChildIDs: []NodeID{8, 9},
		RelativeBounds: RelativeBounds{
			OffsetContainerID: 1,
			Bounds:            Rect{X: 10, Y: 20, Width: 100, Height: 30},
		},
	}
	d.AddStringAttribute(StringAttrName, "item")
	d.AddIntAttribute(IntAttrPosInSet, 2)
	d.AddIntListAttribute(IntListAttrLabelledByIDs, []int32{3, 4})
	return d
}

func TestNodeDataEqualAndHash(t *testing.T) {
	a := sampleNodeData()
	b := sampleNodeData()
	require.True(t, a.Equal(&b))
	assert.Equal(t, a.Hash(), b.Hash())

	mutations := map[string]func(*NodeData){
		"role":        func(d *NodeData) { d.Role = RoleTreeItem },
		"state":       func(d *NodeData) { d.State |= StateIgnored },
		"string attr": func(d *NodeData) { d.AddStringAttribute(StringAttrName, "other") },
		"int attr":    func(d *NodeData) { d.AddIntAttribute(IntAttrPosInSet, 3) },
		"int list":    func(d *NodeData) { d.AddIntListAttribute(IntListAttrLabelledByIDs, []int32{3}) },
		"children":    func(d *NodeData) { d.ChildIDs = []NodeID{8} },
		"bounds":      func(d *NodeData) { d.RelativeBounds.Bounds.Width = 101 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			c := sampleNodeData()
			mutate(&c)
			assert.False(t, a.Equal(&c))
			assert.NotEqual(t, a.Hash(), c.Hash())
		})
	}
}

func TestNodeDataCloneIsIndependent(t *testing.T) {
	a := sampleNodeData()
	c := a.Clone()
	require.True(t, a.Equal(&c))

	// Mutating the clone's list values must not reach the original.
	c.IntListAttributes[0].Value[0] = 99
	c.ChildIDs[0] = 99
	assert.Equal(t, int32(3), a.IntListAttributes[0].Value[0])
	assert.Equal(t, NodeID(8), a.ChildIDs[0])
}
