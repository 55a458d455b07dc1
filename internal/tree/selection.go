package tree

import (
	"github.com/standardbeagle/axtree/internal/axerrors"
	"github.com/standardbeagle/axtree/internal/types"
)

// UnignoredSelection returns the tree's selection with both endpoints
// resolved onto unignored nodes. An endpoint anchored on an ignored node is
// moved to the nearest unignored node in the direction that preserves the
// selected range: the start of the range moves forward, the end moves
// backward. If either endpoint cannot be resolved, both are reported unset.
func (t *Tree) UnignoredSelection() types.Selection {
	if t.updateInProgress {
		panic(axerrors.NewPrecondition("UnignoredSelection", "tree update in progress"))
	}

	sel := types.Selection{
		IsBackward:     t.data.SelectionIsBackward,
		AnchorID:       t.data.SelAnchorID,
		AnchorOffset:   t.data.SelAnchorOffset,
		AnchorAffinity: t.data.SelAnchorAffinity,
		FocusID:        t.data.SelFocusID,
		FocusOffset:    t.data.SelFocusOffset,
		FocusAffinity:  t.data.SelFocusAffinity,
	}

	// In a backward selection the anchor is the end of the range, so it
	// adjusts forward; the focus is the start and adjusts backward. Forward
	// selections are the mirror image.
	anchorID, anchorOffset, anchorAffinity, anchorOK :=
		t.resolveSelectionEndpoint(sel.AnchorID, sel.AnchorOffset, sel.AnchorAffinity, sel.IsBackward)
	focusID, focusOffset, focusAffinity, focusOK :=
		t.resolveSelectionEndpoint(sel.FocusID, sel.FocusOffset, sel.FocusAffinity, !sel.IsBackward)

	if !anchorOK || !focusOK {
		sel.AnchorID = types.InvalidNodeID
		sel.AnchorOffset = -1
		sel.AnchorAffinity = types.AffinityDownstream
		sel.FocusID = types.InvalidNodeID
		sel.FocusOffset = -1
		sel.FocusAffinity = types.AffinityDownstream
		return sel
	}

	sel.AnchorID, sel.AnchorOffset, sel.AnchorAffinity = anchorID, anchorOffset, anchorAffinity
	sel.FocusID, sel.FocusOffset, sel.FocusAffinity = focusID, focusOffset, focusAffinity
	return sel
}

// resolveSelectionEndpoint maps one selection endpoint onto an unignored
// node. moveForward picks the adjustment direction when the endpoint sits on
// an ignored node. ok is false when no unignored replacement exists.
func (t *Tree) resolveSelectionEndpoint(id types.NodeID, offset int32, affinity types.TextAffinity, moveForward bool) (types.NodeID, int32, types.TextAffinity, bool) {
	n := t.FromID(id)
	if n == nil {
		return types.InvalidNodeID, -1, types.AffinityDownstream, false
	}
	if !n.IsIgnored() {
		return id, offset, affinity, true
	}

	var replacement *Node
	if moveForward {
		replacement = nextUnignoredInTreeOrder(n)
	} else {
		replacement = previousUnignoredInTreeOrder(n)
	}
	if replacement == nil {
		return types.InvalidNodeID, -1, types.AffinityDownstream, false
	}

	// Inline text boxes are an implementation detail of text layout; lift
	// the endpoint to their parent.
	if replacement.data.Role == types.RoleInlineTextBox && replacement.parent != nil {
		idx := int32(replacement.UnignoredIndexInParent())
		if !moveForward {
			idx++
		}
		return replacement.parent.id, idx, types.AffinityDownstream, true
	}

	// A leaf endpoint is a text position: the start or end of the node's
	// text depending on the direction we moved.
	if replacement.UnignoredChildCount() == 0 {
		var textOffset int32
		if !moveForward {
			textOffset = int32(len(replacement.data.StringAttributeOr(types.StringAttrName, "")))
		}
		return replacement.id, textOffset, types.AffinityDownstream, true
	}

	// Otherwise a tree position before the first or after the last child.
	var childIndex int32
	if !moveForward {
		childIndex = int32(replacement.UnignoredChildCount())
	}
	return replacement.id, childIndex, types.AffinityDownstream, true
}

// nextUnignoredInTreeOrder returns the first unignored node at or after n in
// preorder, excluding n itself.
func nextUnignoredInTreeOrder(n *Node) *Node {
	for cur := nextInTreeOrder(n); cur != nil; cur = nextInTreeOrder(cur) {
		if !cur.IsIgnored() {
			return cur
		}
	}
	return nil
}

// previousUnignoredInTreeOrder returns the last unignored node before n in
// preorder.
func previousUnignoredInTreeOrder(n *Node) *Node {
	for cur := previousInTreeOrder(n); cur != nil; cur = previousInTreeOrder(cur) {
		if !cur.IsIgnored() {
			return cur
		}
	}
	return nil
}

func nextInTreeOrder(n *Node) *Node {
	if len(n.children) > 0 {
		return n.children[0]
	}
	for n != nil {
		if sib := nextSibling(n); sib != nil {
			return sib
		}
		n = n.parent
	}
	return nil
}

func previousInTreeOrder(n *Node) *Node {
	sib := previousSibling(n)
	if sib == nil {
		return n.parent
	}
	for len(sib.children) > 0 {
		sib = sib.children[len(sib.children)-1]
	}
	return sib
}

func nextSibling(n *Node) *Node {
	if n.parent == nil {
		return nil
	}
	if i := n.indexInParent + 1; i < len(n.parent.children) {
		return n.parent.children[i]
	}
	return nil
}

func previousSibling(n *Node) *Node {
	if n.parent == nil {
		return nil
	}
	if i := n.indexInParent - 1; i >= 0 {
		return n.parent.children[i]
	}
	return nil
}
