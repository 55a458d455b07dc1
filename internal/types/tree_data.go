package types

import "fmt"

// TreeData is whole-tree metadata carried alongside node records: identity,
// focus, and the raw text selection as reported by the producer.
type TreeData struct {
	TreeID       string
	ParentTreeID string
	Title        string
	FocusID      NodeID

	SelectionIsBackward bool
	SelAnchorID         NodeID
	SelAnchorOffset     int32
	SelAnchorAffinity   TextAffinity
	SelFocusID          NodeID
	SelFocusOffset      int32
	SelFocusAffinity    TextAffinity
}

func (d TreeData) String() string {
	s := ""
	if d.TreeID != "" {
		s += fmt.Sprintf(" tree_id=%s", d.TreeID)
	}
	if d.Title != "" {
		s += fmt.Sprintf(" title=%q", d.Title)
	}
	if d.FocusID != InvalidNodeID {
		s += fmt.Sprintf(" focus_id=%d", d.FocusID)
	}
	return s
}

// Selection is a resolved text selection: both endpoints adjusted to land on
// unignored nodes. Offsets are child indexes for container positions and
// text offsets for leaf positions.
type Selection struct {
	IsBackward     bool
	AnchorID       NodeID
	AnchorOffset   int32
	AnchorAffinity TextAffinity
	FocusID        NodeID
	FocusOffset    int32
	FocusAffinity  TextAffinity
}

// TreeUpdate is one serialized patch: an ordered list of node records, the
// id of the (possibly new) root, an optional node whose children are
// discarded up front, and optional replacement tree metadata.
//
// Required producer invariants, enforced during validation:
//   - a record's id either already exists in the tree, or it is the new
//     root, or it appeared in an earlier record's ChildIDs;
//   - a node may not appear in the ChildIDs of two surviving parents
//     (moving a node requires destroy + recreate within one update);
//   - every id introduced through ChildIDs must have its own record in the
//     same update.
type TreeUpdate struct {
	HasTreeData   bool
	TreeData      TreeData
	NodeIDToClear NodeID
	RootID        NodeID
	Nodes         []NodeData
}
