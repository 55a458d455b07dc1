package tree

import "github.com/standardbeagle/axtree/internal/types"

// ChangeType classifies what happened to one node during an update, as
// reported in the terminal OnAtomicUpdateFinished notification.
type ChangeType int

const (
	NodeChanged ChangeType = iota
	NodeCreated
	SubtreeCreated
	NodeReparented
	SubtreeReparented
)

func (c ChangeType) String() string {
	switch c {
	case NodeCreated:
		return "node_created"
	case SubtreeCreated:
		return "subtree_created"
	case NodeReparented:
		return "node_reparented"
	case SubtreeReparented:
		return "subtree_reparented"
	default:
		return "node_changed"
	}
}

// Change pairs a node with its change classification.
type Change struct {
	Node *Node
	Type ChangeType
}

// Observer receives tree mutation notifications. Callback ordering is part
// of the contract:
//
//  1. Before mutation: the will-be-deleted/reparented family, against the
//     still-unmodified tree, then OnNodeDataWillChange once per updated id.
//  2. After mutation: OnTreeDataChanged (if tree metadata changed), then
//     OnNodeDeleted for removals, then OnNodeCreated/OnNodeReparented for
//     additions, then per-field change callbacks followed by OnNodeChanged,
//     and finally exactly one OnAtomicUpdateFinished.
//
// Implementations typically embed BaseObserver and override what they need.
type Observer interface {
	OnNodeDataWillChange(t *Tree, old, new types.NodeData)
	OnNodeDataChanged(t *Tree, old, new types.NodeData)

	OnNodeWillBeDeleted(t *Tree, n *Node)
	OnSubtreeWillBeDeleted(t *Tree, n *Node)
	OnNodeWillBeReparented(t *Tree, n *Node)
	OnSubtreeWillBeReparented(t *Tree, n *Node)

	OnNodeCreated(t *Tree, n *Node)
	OnNodeDeleted(t *Tree, id types.NodeID)
	OnNodeReparented(t *Tree, n *Node)
	OnSubtreeCreated(t *Tree, n *Node)
	OnSubtreeReparented(t *Tree, n *Node)
	OnNodeChanged(t *Tree, n *Node)

	OnRoleChanged(t *Tree, n *Node, old, new types.Role)
	OnStateChanged(t *Tree, n *Node, state types.State, set bool)
	OnStringAttributeChanged(t *Tree, n *Node, attr types.StringAttribute, old, new string)
	OnBoolAttributeChanged(t *Tree, n *Node, attr types.BoolAttribute, new bool)
	OnFloatAttributeChanged(t *Tree, n *Node, attr types.FloatAttribute, old, new float64)
	OnIntAttributeChanged(t *Tree, n *Node, attr types.IntAttribute, old, new int32)
	OnIntListAttributeChanged(t *Tree, n *Node, attr types.IntListAttribute, old, new []int32)
	OnStringListAttributeChanged(t *Tree, n *Node, attr types.StringListAttribute, old, new []string)

	OnTreeDataChanged(t *Tree, old, new types.TreeData)
	OnAtomicUpdateFinished(t *Tree, rootChanged bool, changes []Change)
}

// BaseObserver is a no-op Observer for embedding.
type BaseObserver struct{}

func (BaseObserver) OnNodeDataWillChange(*Tree, types.NodeData, types.NodeData) {}
func (BaseObserver) OnNodeDataChanged(*Tree, types.NodeData, types.NodeData)    {}
func (BaseObserver) OnNodeWillBeDeleted(*Tree, *Node)                           {}
func (BaseObserver) OnSubtreeWillBeDeleted(*Tree, *Node)                        {}
func (BaseObserver) OnNodeWillBeReparented(*Tree, *Node)                        {}
func (BaseObserver) OnSubtreeWillBeReparented(*Tree, *Node)                     {}
func (BaseObserver) OnNodeCreated(*Tree, *Node)                                 {}
func (BaseObserver) OnNodeDeleted(*Tree, types.NodeID)                          {}
func (BaseObserver) OnNodeReparented(*Tree, *Node)                              {}
func (BaseObserver) OnSubtreeCreated(*Tree, *Node)                              {}
func (BaseObserver) OnSubtreeReparented(*Tree, *Node)                           {}
func (BaseObserver) OnNodeChanged(*Tree, *Node)                                 {}
func (BaseObserver) OnRoleChanged(*Tree, *Node, types.Role, types.Role)         {}
func (BaseObserver) OnStateChanged(*Tree, *Node, types.State, bool)             {}
func (BaseObserver) OnStringAttributeChanged(*Tree, *Node, types.StringAttribute, string, string) {
}
func (BaseObserver) OnBoolAttributeChanged(*Tree, *Node, types.BoolAttribute, bool)            {}
func (BaseObserver) OnFloatAttributeChanged(*Tree, *Node, types.FloatAttribute, float64, float64) {
}
func (BaseObserver) OnIntAttributeChanged(*Tree, *Node, types.IntAttribute, int32, int32)      {}
func (BaseObserver) OnIntListAttributeChanged(*Tree, *Node, types.IntListAttribute, []int32, []int32) {
}
func (BaseObserver) OnStringListAttributeChanged(*Tree, *Node, types.StringListAttribute, []string, []string) {
}
func (BaseObserver) OnTreeDataChanged(*Tree, types.TreeData, types.TreeData) {}
func (BaseObserver) OnAtomicUpdateFinished(*Tree, bool, []Change)            {}
