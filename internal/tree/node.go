package tree

import (
	"github.com/standardbeagle/axtree/internal/types"
)

// Node is one element of a live tree. Nodes are owned exclusively by the
// tree's store: external callers hold borrowed references and must not
// retain them across an update.
type Node struct {
	tree *Tree
	id   types.NodeID
	data types.NodeData

	parent        *Node
	children      []*Node
	indexInParent int

	// Cached values derived from the unignored view of the tree. Refreshed
	// after an update for every invalidated subtree.
	unignoredIndexInParent int
	unignoredChildCount    int
}

// ID returns the node's identifier.
func (n *Node) ID() types.NodeID { return n.id }

// Data returns the node's current record. The returned pointer is valid
// until the next update; callers must not modify it.
func (n *Node) Data() *types.NodeData { return &n.data }

// Parent returns the parent node, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's children in order. The slice is owned by the
// node.
func (n *Node) Children() []*Node { return n.children }

// IndexInParent returns the node's position within its parent's child list.
func (n *Node) IndexInParent() int { return n.indexInParent }

// IsIgnored reports whether the node is excluded from the unignored view.
func (n *Node) IsIgnored() bool { return n.data.HasState(types.StateIgnored) }

// IsInvisible reports whether the node carries the invisible state.
func (n *Node) IsInvisible() bool { return n.data.HasState(types.StateInvisible) }

// IsCollapsed reports whether the node carries the collapsed state.
func (n *Node) IsCollapsed() bool { return n.data.HasState(types.StateCollapsed) }

func (n *Node) setData(d types.NodeData) { n.data = d }

// takeData moves the record out of the node, leaving an empty record that
// keeps only the id. Used to snapshot pre-update data for change events.
func (n *Node) takeData() types.NodeData {
	old := n.data
	n.data = types.NodeData{ID: n.id}
	return old
}

// swapChildren installs a new child list and renumbers it, returning the old
// list.
func (n *Node) swapChildren(children []*Node) []*Node {
	old := n.children
	n.children = children
	for i, c := range n.children {
		c.indexInParent = i
	}
	return old
}

// UnignoredParent returns the nearest ancestor not marked ignored.
func (n *Node) UnignoredParent() *Node {
	p := n.parent
	for p != nil && p.IsIgnored() {
		p = p.parent
	}
	return p
}

// UnignoredIndexInParent returns the cached position of this node among the
// unignored children of its unignored parent.
func (n *Node) UnignoredIndexInParent() int { return n.unignoredIndexInParent }

// UnignoredChildCount returns the cached number of unignored children,
// counting through ignored intermediates.
func (n *Node) UnignoredChildCount() int { return n.unignoredChildCount }

// UnignoredChildren returns the unignored children in order. Ignored
// children are transparent: their own unignored children surface here.
func (n *Node) UnignoredChildren() []*Node {
	var out []*Node
	n.appendUnignoredChildren(&out)
	return out
}

func (n *Node) appendUnignoredChildren(out *[]*Node) {
	for _, c := range n.children {
		if c.IsIgnored() {
			c.appendUnignoredChildren(out)
		} else {
			*out = append(*out, c)
		}
	}
}

// updateUnignoredCachedValues recomputes the unignored child count and
// unignored index for every node in the subtree rooted here.
func (n *Node) updateUnignoredCachedValues() {
	n.unignoredChildCount = n.refreshUnignored(0)
}

// refreshUnignored assigns unignored indexes to the unignored descendants
// surfacing through this node's children, starting at idx, and returns the
// running count. Ignored children are transparent: their unignored
// descendants take positions in this node's numbering.
func (n *Node) refreshUnignored(idx int) int {
	for _, child := range n.children {
		if child.IsIgnored() {
			start := idx
			idx = child.refreshUnignored(idx)
			child.unignoredChildCount = idx - start
			child.unignoredIndexInParent = 0
		} else {
			child.unignoredIndexInParent = idx
			idx++
			child.unignoredChildCount = child.refreshUnignored(0)
		}
	}
	return idx
}

// RoleMatchesSetItem reports whether this node's role is a valid item role
// for an ordered-set container with the given role.
func (n *Node) RoleMatchesSetItem(setRole types.Role) bool {
	switch setRole {
	case types.RoleFeed:
		return n.data.Role == types.RoleArticle
	case types.RoleList:
		return n.data.Role == types.RoleListItem
	case types.RoleListBox:
		return n.data.Role == types.RoleListBoxOption
	case types.RoleMenu, types.RoleMenuBar:
		return n.data.Role == types.RoleMenuItem ||
			n.data.Role == types.RoleMenuItemCheckBox ||
			n.data.Role == types.RoleMenuItemRadio
	case types.RoleMenuListPopup:
		return n.data.Role == types.RoleMenuListOption
	case types.RolePopUpButton:
		return n.data.Role == types.RoleMenuListPopup
	case types.RoleRadioGroup:
		return n.data.Role == types.RoleRadioButton
	case types.RoleTabList:
		return n.data.Role == types.RoleTab
	case types.RoleTree, types.RoleTreeGrid:
		return n.data.Role == types.RoleTreeItem ||
			(setRole == types.RoleTreeGrid && n.data.Role == types.RoleRow)
	case types.RoleGrid, types.RoleTable:
		return n.data.Role == types.RoleRow
	}
	return false
}

// IsOrderedSetRole reports whether a role acts as an ordered-set container.
func IsOrderedSetRole(r types.Role) bool {
	switch r {
	case types.RoleFeed, types.RoleList, types.RoleListBox, types.RoleMenu,
		types.RoleMenuBar, types.RoleMenuListPopup, types.RolePopUpButton,
		types.RoleRadioGroup, types.RoleTabList, types.RoleTree,
		types.RoleTreeGrid, types.RoleGrid, types.RoleTable:
		return true
	}
	return false
}

// IsSetItemRole reports whether a role can carry pos-in-set/set-size.
func IsSetItemRole(r types.Role) bool {
	switch r {
	case types.RoleArticle, types.RoleComment, types.RoleListItem,
		types.RoleListBoxOption, types.RoleMenuItem, types.RoleMenuItemCheckBox,
		types.RoleMenuItemRadio, types.RoleMenuListOption, types.RoleRadioButton,
		types.RoleTab, types.RoleTreeItem, types.RoleRow:
		return true
	}
	return false
}
