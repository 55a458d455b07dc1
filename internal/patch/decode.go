package patch

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/standardbeagle/axtree/internal/types"
)

type wireUpdate struct {
	RootID        types.NodeID  `json:"rootId"`
	NodeIDToClear types.NodeID  `json:"nodeIdToClear"`
	TreeData      *wireTreeData `json:"treeData"`
	Nodes         []wireNode    `json:"nodes"`
}

type wireTreeData struct {
	TreeID       string         `json:"treeId"`
	ParentTreeID string         `json:"parentTreeId"`
	Title        string         `json:"title"`
	FocusID      types.NodeID   `json:"focusId"`
	Selection    *wireSelection `json:"selection"`
}

type wireSelection struct {
	IsBackward     bool         `json:"isBackward"`
	AnchorID       types.NodeID `json:"anchorId"`
	AnchorOffset   int32        `json:"anchorOffset"`
	AnchorAffinity string       `json:"anchorAffinity"`
	FocusID        types.NodeID `json:"focusId"`
	FocusOffset    int32        `json:"focusOffset"`
	FocusAffinity  string       `json:"focusAffinity"`
}

type wireNode struct {
	ID                   types.NodeID        `json:"id"`
	Role                 string              `json:"role"`
	States               []string            `json:"states"`
	ChildIDs             []types.NodeID      `json:"childIds"`
	StringAttributes     map[string]string   `json:"stringAttributes"`
	BoolAttributes       map[string]bool     `json:"boolAttributes"`
	IntAttributes        map[string]int32    `json:"intAttributes"`
	FloatAttributes      map[string]float64  `json:"floatAttributes"`
	IntListAttributes    map[string][]int32  `json:"intListAttributes"`
	StringListAttributes map[string][]string `json:"stringListAttributes"`
	Bounds               *wireBounds         `json:"bounds"`
}

type wireBounds struct {
	OffsetContainerID types.NodeID `json:"offsetContainerId"`
	X                 float64      `json:"x"`
	Y                 float64      `json:"y"`
	Width             float64      `json:"width"`
	Height            float64      `json:"height"`
}

// Decode parses one JSON patch document into a TreeUpdate. The document is
// schema-validated first; names (roles, states, attributes) are then resolved
// against the wire vocabulary, and any unknown name fails the whole patch.
func Decode(data []byte) (types.TreeUpdate, error) {
	resolved, err := resolvedSchema()
	if err != nil {
		return types.TreeUpdate{}, fmt.Errorf("resolving patch schema: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return types.TreeUpdate{}, fmt.Errorf("parsing patch: %w", err)
	}
	if err := resolved.Validate(raw); err != nil {
		return types.TreeUpdate{}, fmt.Errorf("invalid patch: %w", err)
	}

	var w wireUpdate
	if err := json.Unmarshal(data, &w); err != nil {
		return types.TreeUpdate{}, fmt.Errorf("parsing patch: %w", err)
	}

	u := types.TreeUpdate{
		RootID:        w.RootID,
		NodeIDToClear: w.NodeIDToClear,
		Nodes:         make([]types.NodeData, 0, len(w.Nodes)),
	}

	if w.TreeData != nil {
		u.HasTreeData = true
		u.TreeData, err = decodeTreeData(w.TreeData)
		if err != nil {
			return types.TreeUpdate{}, err
		}
	}

	for _, wn := range w.Nodes {
		nd, err := decodeNode(wn)
		if err != nil {
			return types.TreeUpdate{}, err
		}
		u.Nodes = append(u.Nodes, nd)
	}
	return u, nil
}

func decodeTreeData(w *wireTreeData) (types.TreeData, error) {
	td := types.TreeData{
		TreeID:       w.TreeID,
		ParentTreeID: w.ParentTreeID,
		Title:        w.Title,
		FocusID:      w.FocusID,
	}
	if w.Selection == nil {
		return td, nil
	}

	anchorAffinity, err := decodeAffinity(w.Selection.AnchorAffinity)
	if err != nil {
		return types.TreeData{}, err
	}
	focusAffinity, err := decodeAffinity(w.Selection.FocusAffinity)
	if err != nil {
		return types.TreeData{}, err
	}

	td.SelectionIsBackward = w.Selection.IsBackward
	td.SelAnchorID = w.Selection.AnchorID
	td.SelAnchorOffset = w.Selection.AnchorOffset
	td.SelAnchorAffinity = anchorAffinity
	td.SelFocusID = w.Selection.FocusID
	td.SelFocusOffset = w.Selection.FocusOffset
	td.SelFocusAffinity = focusAffinity
	return td, nil
}

func decodeAffinity(name string) (types.TextAffinity, error) {
	switch name {
	case "", "downstream":
		return types.AffinityDownstream, nil
	case "upstream":
		return types.AffinityUpstream, nil
	}
	return 0, fmt.Errorf("unknown text affinity %q", name)
}

func decodeNode(w wireNode) (types.NodeData, error) {
	role, ok := types.ParseRole(w.Role)
	if !ok {
		return types.NodeData{}, fmt.Errorf("node %d: unknown role %q", w.ID, w.Role)
	}

	d := types.NodeData{
		ID:       w.ID,
		Role:     role,
		ChildIDs: w.ChildIDs,
	}
	for _, name := range w.States {
		s, ok := types.ParseState(name)
		if !ok {
			return types.NodeData{}, fmt.Errorf("node %d: unknown state %q", w.ID, name)
		}
		d.State |= s
	}

	// Attribute maps are decoded in sorted key order so the same document
	// always yields the same NodeData.
	for _, name := range slices.Sorted(maps.Keys(w.StringAttributes)) {
		a, ok := types.ParseStringAttribute(name)
		if !ok {
			return types.NodeData{}, unknownAttr(w.ID, "string", name)
		}
		d.AddStringAttribute(a, w.StringAttributes[name])
	}
	for _, name := range slices.Sorted(maps.Keys(w.BoolAttributes)) {
		a, ok := types.ParseBoolAttribute(name)
		if !ok {
			return types.NodeData{}, unknownAttr(w.ID, "bool", name)
		}
		d.AddBoolAttribute(a, w.BoolAttributes[name])
	}
	for _, name := range slices.Sorted(maps.Keys(w.IntAttributes)) {
		a, ok := types.ParseIntAttribute(name)
		if !ok {
			return types.NodeData{}, unknownAttr(w.ID, "int", name)
		}
		d.AddIntAttribute(a, w.IntAttributes[name])
	}
	for _, name := range slices.Sorted(maps.Keys(w.FloatAttributes)) {
		a, ok := types.ParseFloatAttribute(name)
		if !ok {
			return types.NodeData{}, unknownAttr(w.ID, "float", name)
		}
		d.AddFloatAttribute(a, w.FloatAttributes[name])
	}
	for _, name := range slices.Sorted(maps.Keys(w.IntListAttributes)) {
		a, ok := types.ParseIntListAttribute(name)
		if !ok {
			return types.NodeData{}, unknownAttr(w.ID, "intList", name)
		}
		d.AddIntListAttribute(a, w.IntListAttributes[name])
	}
	for _, name := range slices.Sorted(maps.Keys(w.StringListAttributes)) {
		a, ok := types.ParseStringListAttribute(name)
		if !ok {
			return types.NodeData{}, unknownAttr(w.ID, "stringList", name)
		}
		d.AddStringListAttribute(a, w.StringListAttributes[name])
	}

	if w.Bounds != nil {
		d.RelativeBounds = types.RelativeBounds{
			OffsetContainerID: w.Bounds.OffsetContainerID,
			Bounds: types.Rect{
				X:      w.Bounds.X,
				Y:      w.Bounds.Y,
				Width:  w.Bounds.Width,
				Height: w.Bounds.Height,
			},
		}
	}
	return d, nil
}

func unknownAttr(id types.NodeID, family, name string) error {
	return fmt.Errorf("node %d: unknown %s attribute %q", id, family, name)
}
