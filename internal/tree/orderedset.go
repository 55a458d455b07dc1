package tree

import (
	"github.com/standardbeagle/axtree/internal/axerrors"
	"github.com/standardbeagle/axtree/internal/types"
)

// orderedSetInfo is one cached pos-in-set/set-size result. The whole cache
// is cleared on every update and repopulated lazily, one ordered set at a
// time.
type orderedSetInfo struct {
	posInSet                int32
	setSize                 int32
	lowestHierarchicalLevel int32
}

// PosInSet returns the node's 1-based position within its ordered set,
// computing and caching results for the whole set on first access. Returns 0
// for nodes that are not set items or have no containing set.
func (t *Tree) PosInSet(n *Node) int32 {
	if t.updateInProgress {
		panic(axerrors.NewPrecondition("PosInSet", "tree update in progress"))
	}
	if n == nil || n.IsIgnored() || !IsSetItemRole(n.data.Role) {
		return 0
	}
	orderedSet := t.orderedSetForItem(n)
	if orderedSet == nil {
		return 0
	}
	if _, ok := t.orderedSetInfoMap[n.id]; !ok {
		t.computeSetSizePosInSetAndCache(n, orderedSet)
	}
	return t.orderedSetInfoMap[n.id].posInSet
}

// SetSize returns the size of the node's ordered set. The node may be the
// set container itself or one of its items. Returns 0 when neither applies.
func (t *Tree) SetSize(n *Node) int32 {
	if t.updateInProgress {
		panic(axerrors.NewPrecondition("SetSize", "tree update in progress"))
	}
	if n == nil || n.IsIgnored() {
		return 0
	}
	var orderedSet *Node
	switch {
	case IsOrderedSetRole(n.data.Role):
		orderedSet = n
	case IsSetItemRole(n.data.Role):
		orderedSet = t.orderedSetForItem(n)
	}
	if orderedSet == nil {
		return 0
	}
	if _, ok := t.orderedSetInfoMap[n.id]; !ok {
		t.computeSetSizePosInSetAndCache(n, orderedSet)
	}
	return t.orderedSetInfoMap[n.id].setSize
}

// orderedSetForItem finds the containing ordered set by walking up through
// ancestors that don't break up a set: ignored nodes, generic containers and
// unknowns. Radio buttons may be grouped without a dedicated container, so
// for them the first structural ancestor counts.
func (t *Tree) orderedSetForItem(n *Node) *Node {
	p := n.parent
	for p != nil && (p.IsIgnored() ||
		p.data.Role == types.RoleGenericContainer ||
		p.data.Role == types.RoleUnknown) {
		p = p.parent
	}
	if p == nil {
		return nil
	}
	if n.data.Role == types.RoleRadioButton || IsOrderedSetRole(p.data.Role) {
		return p
	}
	return nil
}

// populateOrderedSetItems finds the items belonging to orderedSet, seen from
// originalNode's hierarchical level.
func (t *Tree) populateOrderedSetItems(originalNode *Node, orderedSet *Node) []*Node {
	// Ignored nodes are not part of ordered sets.
	if originalNode.IsIgnored() {
		return nil
	}

	// Level 0 means no hierarchical level was assigned. When the query is on
	// the set container itself, adopt the minimum level assigned among its
	// direct unignored children.
	minLevel := originalNode.data.IntAttributeOr(types.IntAttrHierarchicalLevel, 0)
	if originalNode == orderedSet {
		for _, child := range originalNode.UnignoredChildren() {
			childLevel := child.data.IntAttributeOr(types.IntAttrHierarchicalLevel, 0)
			if childLevel > 0 && (minLevel == 0 || childLevel < minLevel) {
				minLevel = childLevel
			}
		}
	}

	var items []*Node
	t.recursivelyPopulateOrderedSetItems(originalNode, orderedSet, orderedSet, minLevel, &items)
	return items
}

func (t *Tree) recursivelyPopulateOrderedSetItems(originalNode, orderedSet, localParent *Node, minLevel int32, items *[]*Node) {
	// A nested set of the same role starts its own numbering; don't descend
	// into it.
	if orderedSet.data.Role == localParent.data.Role && orderedSet != localParent {
		return
	}

	for _, child := range localParent.UnignoredChildren() {
		// Invisible children don't count, except inside a collapsed
		// container (a combo box keeps its options navigable while marked
		// invisible). Containers sit at most two levels up.
		if child.IsInvisible() && !nodeIsCollapsed(localParent) && !nodeIsCollapsed(localParent.parent) {
			continue
		}

		// Comments always group together. Radio buttons only group with
		// other radio buttons. Everything else groups by matching the set
		// container's item role.
		matches := child.data.Role == types.RoleComment ||
			(originalNode.data.Role == types.RoleRadioButton && child.data.Role == types.RoleRadioButton) ||
			(originalNode.data.Role != types.RoleRadioButton && child.RoleMatchesSetItem(orderedSet.data.Role))

		if matches {
			childLevel := child.data.IntAttributeOr(types.IntAttrHierarchicalLevel, 0)

			// Items on a different level belong to a different set. Tabs are
			// the exception: tab lists may carry a level while tabs cannot,
			// so sibling tabs always count as one flat set.
			if childLevel != minLevel && child.data.Role != types.RoleTab {
				if childLevel < minLevel && originalNode.UnignoredParent() == child.UnignoredParent() {
					// Flattened structure, same parent. A level decrease
					// after the queried node ends its set; a decrease before
					// it means everything collected so far belonged to an
					// earlier set.
					if originalNode.UnignoredIndexInParent() < child.UnignoredIndexInParent() {
						break
					}
					*items = (*items)[:0]
				}
				continue
			}

			*items = append(*items, child)
		}

		// Descend through containers that don't break up a set. Ignored
		// nodes never surface here: unignored child iteration already looks
		// through them.
		if child.data.Role == types.RoleGenericContainer ||
			child.data.Role == types.RoleUnknown {
			t.recursivelyPopulateOrderedSetItems(originalNode, orderedSet, child, minLevel, items)
		}
	}
}

func nodeIsCollapsed(n *Node) bool {
	return n != nil && n.IsCollapsed()
}

// computeSetSizePosInSetAndCache computes pos-in-set and set-size for every
// item of node's ordered set and stores them in the cache.
func (t *Tree) computeSetSizePosInSetAndCache(node, orderedSet *Node) {
	items := t.populateOrderedSetItems(node, orderedSet)

	// A pop-up button wrapping a menu list popup inherits the popup's set
	// size: treat the popup as the set. The popup is the only item role
	// matching a pop-up button container, so it is the sole entry.
	if node.data.Role == types.RolePopUpButton && len(items) != 0 {
		menuListPopup := items[0]
		items = t.populateOrderedSetItems(node, menuListPopup)
	}

	var numElements int32
	var largestAssignedSetSize int32

	for _, item := range items {
		info := orderedSetInfo{}
		level := item.data.IntAttributeOr(types.IntAttrHierarchicalLevel, 0)

		posInSet := numElements + 1

		// A valid author-assigned pos-in-set takes precedence. Decreasing or
		// duplicate assignments are invalid and ignored.
		if author := item.data.IntAttributeOr(types.IntAttrPosInSet, 0); author > posInSet {
			posInSet = author
		}

		// Within a levelled set the author value wins outright.
		if level != 0 && item.data.HasIntAttribute(types.IntAttrPosInSet) {
			posInSet = item.data.IntAttributeOr(types.IntAttrPosInSet, 0)
		}

		info.posInSet = posInSet
		t.orderedSetInfoMap[item.id] = info
		numElements = posInSet

		if author := item.data.IntAttributeOr(types.IntAttrSetSize, 0); author > largestAssignedSetSize {
			largestAssignedSetSize = author
		}
	}

	// The set size is the maximum of the element count, the largest size
	// assigned on an item, and the size assigned on the container itself.
	setSize := numElements
	if largestAssignedSetSize > setSize {
		setSize = largestAssignedSetSize
	}
	if containerAssigned := orderedSet.data.IntAttributeOr(types.IntAttrSetSize, 0); containerAssigned > setSize {
		setSize = containerAssigned
	}

	// The container itself also carries the set size, keyed to the lowest
	// hierarchical level that computed it.
	if node.RoleMatchesSetItem(orderedSet.data.Role) || orderedSet == node {
		level := node.data.IntAttributeOr(types.IntAttrHierarchicalLevel, 0)
		if existing, ok := t.orderedSetInfoMap[orderedSet.id]; !ok {
			t.orderedSetInfoMap[orderedSet.id] = orderedSetInfo{
				setSize:                 setSize,
				lowestHierarchicalLevel: level,
			}
		} else if existing.lowestHierarchicalLevel > level {
			existing.setSize = setSize
			existing.lowestHierarchicalLevel = level
			t.orderedSetInfoMap[orderedSet.id] = existing
		}
	}

	for _, item := range items {
		info := t.orderedSetInfoMap[item.id]
		level := item.data.IntAttributeOr(types.IntAttrHierarchicalLevel, 0)
		if level != 0 && item.data.HasIntAttribute(types.IntAttrSetSize) {
			info.setSize = item.data.IntAttributeOr(types.IntAttrSetSize, 0)
		} else {
			info.setSize = setSize
		}
		t.orderedSetInfoMap[item.id] = info
	}
}
