package tree

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/standardbeagle/axtree/internal/axerrors"
	"github.com/standardbeagle/axtree/internal/types"
)

// Tree is a live node tree kept in sync through atomic updates. All methods
// must be called from a single goroutine; Unserialize is not reentrant, and
// observer callbacks must not mutate the tree.
type Tree struct {
	store nodeStore
	root  *Node
	data  types.TreeData

	observers []Observer

	// Reverse relation indexes: attr -> target id -> set of source ids.
	// Maintained incrementally as node data changes.
	intReverseRelations     map[types.IntAttribute]map[types.NodeID]map[types.NodeID]struct{}
	intListReverseRelations map[types.IntListAttribute]map[types.NodeID]map[types.NodeID]struct{}

	// childTreeIDReverseMap: child tree id -> set of hosting node ids.
	childTreeIDReverseMap map[string]map[types.NodeID]struct{}

	// tableInfoMap caches per-table derived structure, invalidated when an
	// update touches the table's subtree and recomputed on demand.
	tableInfoMap map[types.NodeID]*TableInfo

	// orderedSetInfoMap caches pos-in-set/set-size results, cleared on every
	// update and repopulated lazily.
	orderedSetInfoMap map[types.NodeID]orderedSetInfo

	updateInProgress bool

	// unusable is set when a mutation-phase failure leaves the tree in an
	// undefined state. All further updates are refused.
	unusable bool
}

// New returns an empty tree. The first successful Unserialize must establish
// a root.
func New() *Tree {
	return &Tree{
		store:                   newNodeStore(),
		intReverseRelations:     make(map[types.IntAttribute]map[types.NodeID]map[types.NodeID]struct{}),
		intListReverseRelations: make(map[types.IntListAttribute]map[types.NodeID]map[types.NodeID]struct{}),
		childTreeIDReverseMap:   make(map[string]map[types.NodeID]struct{}),
		tableInfoMap:            make(map[types.NodeID]*TableInfo),
		orderedSetInfoMap:       make(map[types.NodeID]orderedSetInfo),
	}
}

// NewFromUpdate builds a tree from an initial update.
func NewFromUpdate(initial types.TreeUpdate) (*Tree, error) {
	t := New()
	if err := t.Unserialize(initial); err != nil {
		return nil, err
	}
	return t, nil
}

// AddObserver registers an observer. Observers are notified in registration
// order.
func (t *Tree) AddObserver(o Observer) {
	t.observers = append(t.observers, o)
}

// HasObserver reports whether o is registered.
func (t *Tree) HasObserver(o Observer) bool {
	return slices.Contains(t.observers, o)
}

// RemoveObserver unregisters an observer. Unknown observers are ignored.
func (t *Tree) RemoveObserver(o Observer) {
	if i := slices.Index(t.observers, o); i >= 0 {
		t.observers = slices.Delete(t.observers, i, i+1)
	}
}

// Root returns the root node, nil before the first successful update.
func (t *Tree) Root() *Node { return t.root }

// Data returns the tree-level metadata.
func (t *Tree) Data() types.TreeData { return t.data }

// Size returns the number of live nodes.
func (t *Tree) Size() int { return t.store.len() }

// FromID returns the node for id, or nil.
func (t *Tree) FromID(id types.NodeID) *Node {
	return t.store.get(id)
}

// UpdateInProgress reports whether an update is being applied. Derived
// queries refuse to run mid-update.
func (t *Tree) UpdateInProgress() bool { return t.updateInProgress }

// UpdateData replaces the tree-level metadata outside of an update and
// notifies observers when it changed.
func (t *Tree) UpdateData(newData types.TreeData) {
	if t.data == newData {
		return
	}
	oldData := t.data
	t.data = newData
	for _, o := range t.observers {
		o.OnTreeDataChanged(t, oldData, newData)
	}
}

// ReverseIntRelations returns the sorted ids of nodes whose attr points at
// dstID.
func (t *Tree) ReverseIntRelations(attr types.IntAttribute, dstID types.NodeID) []types.NodeID {
	if !types.IsNodeIDIntAttribute(attr) {
		panic(axerrors.NewPrecondition("ReverseIntRelations",
			fmt.Sprintf("%s is not a node-reference attribute", attr)))
	}
	return sortedIDSet(t.intReverseRelations[attr][dstID])
}

// ReverseIntListRelations returns the sorted ids of nodes whose attr list
// contains dstID.
func (t *Tree) ReverseIntListRelations(attr types.IntListAttribute, dstID types.NodeID) []types.NodeID {
	if !types.IsNodeIDIntListAttribute(attr) {
		panic(axerrors.NewPrecondition("ReverseIntListRelations",
			fmt.Sprintf("%s is not a node-reference attribute", attr)))
	}
	return sortedIDSet(t.intListReverseRelations[attr][dstID])
}

// NodeIDsForChildTreeID returns the sorted ids of nodes hosting the given
// child tree.
func (t *Tree) NodeIDsForChildTreeID(childTreeID string) []types.NodeID {
	return sortedIDSet(t.childTreeIDReverseMap[childTreeID])
}

// AllChildTreeIDs returns every hosted child tree id, sorted.
func (t *Tree) AllChildTreeIDs() []string {
	return slices.Sorted(maps.Keys(t.childTreeIDReverseMap))
}

func sortedIDSet(set map[types.NodeID]struct{}) []types.NodeID {
	if len(set) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(set))
}

// Unserialize atomically applies one update. On a validation failure the
// tree is left untouched and a non-fatal error describes the first problem
// found. A fatal error means a mid-mutation failure left the tree in an
// undefined state; it accepts no further updates.
func (t *Tree) Unserialize(update types.TreeUpdate) error {
	if t.unusable {
		return axerrors.NewStructural(axerrors.KindTreeUnusable,
			"tree was left in an undefined state by an earlier failed update", nil, true)
	}
	if t.updateInProgress {
		return axerrors.NewStructural(axerrors.KindUpdateInProgress,
			"update already in progress; observer callbacks must not reenter", nil, false)
	}

	state := newUpdateState(t)
	oldRootID := types.InvalidNodeID
	if t.root != nil {
		oldRootID = t.root.id
	}

	// Dry run. Walks every record against a simulated structure and
	// accumulates the exact create/destroy plan. No tree state, observer, or
	// index is touched; any error here leaves the tree as it was.
	if err := t.computePendingChanges(update, state); err != nil {
		state.status = pendingFailed
		return err
	}

	// Notify observers of subtrees and nodes about to be destroyed or
	// reparented, against the still-unmodified tree. Iterate in id order so
	// observers see a deterministic sequence.
	for _, id := range slices.Sorted(maps.Keys(state.byID)) {
		p := state.byID[id]
		if !p.expectsDestroy() {
			continue
		}
		n := t.FromID(id)
		if n == nil {
			continue
		}
		if p.destroySubtreeCount > 0 {
			t.notifySubtreeWillBeReparentedOrDeleted(n, state)
		}
		if p.destroyNodeCount > 0 {
			t.notifyNodeWillBeReparentedOrDeleted(n, state)
		}
	}

	// Notify observers of records about to change node data. Walk the
	// records in reverse so each id is notified once, with its initial data
	// against its final data.
	notified := make(map[types.NodeID]struct{})
	for i := len(update.Nodes) - 1; i >= 0; i-- {
		newData := &update.Nodes[i]
		isNewRoot := state.rootWillBeCreated && newData.ID == update.RootID
		if isNewRoot {
			continue
		}
		if n := t.FromID(newData.ID); n != nil {
			if _, seen := notified[newData.ID]; !seen {
				notified[newData.ID] = struct{}{}
				t.notifyNodeDataWillChange(n.data, *newData)
			}
		}
	}

	// Mutation phase. From here on a failure leaves the tree undefined.
	t.updateInProgress = true
	defer func() { t.updateInProgress = false }()

	// Handle NodeIDToClear before ordinary record processing. Clearing the
	// current root while RootID names a different node means the root is
	// replaced wholesale; clearing it while RootID still names it means the
	// root is updated in place and only its children are dropped.
	rootUpdated := false
	if update.NodeIDToClear != types.InvalidNodeID {
		if cleared := t.FromID(update.NodeIDToClear); cleared != nil {
			if cleared == t.root {
				if update.RootID != oldRootID {
					oldRoot := t.root
					t.root = nil
					t.destroySubtree(oldRoot, state)
				} else {
					rootUpdated = true
				}
			}
			if t.root != nil {
				for _, child := range cleared.children {
					t.destroySubtree(child, state)
				}
				cleared.swapChildren(nil)
				state.pendingNodes[cleared.id] = struct{}{}
			}
		}
	}

	// Stage the new tree metadata; OnTreeDataChanged is deferred until the
	// structure is stable again.
	if update.HasTreeData && t.data != update.TreeData {
		old := t.data
		state.oldTreeData = &old
		t.data = update.TreeData
	}

	for i := range update.Nodes {
		isNewRoot := state.rootWillBeCreated && update.Nodes[i].ID == update.RootID
		if err := t.updateNode(&update.Nodes[i], isNewRoot, state); err != nil {
			return t.fail(err)
		}
	}

	if t.root == nil {
		return t.fail(axerrors.NewStructural(axerrors.KindNoRoot,
			"update left the tree without a root", nil, true))
	}

	// The dry run accounted for every structural change, so by now every
	// counter must read zero and no placeholder may remain. Anything left is
	// an engine bug, not a malformed update.
	if err := t.validatePendingChangesComplete(state); err != nil {
		return t.fail(err)
	}

	// Invalidate the table info of any table whose subtree was touched.
	// Walk each updated node's ancestry once, deduping visited ids.
	tableIDsChecked := make(map[types.NodeID]struct{})
	for i := range update.Nodes {
		n := t.FromID(update.Nodes[i].ID)
		for n != nil {
			if _, done := tableIDsChecked[n.id]; done {
				break
			}
			if info, ok := t.tableInfoMap[n.id]; ok {
				info.invalidate()
			}
			tableIDsChecked[n.id] = struct{}{}
			n = n.parent
		}
	}

	// Ordered-set results are cheap to recompute; drop them all.
	clear(t.orderedSetInfoMap)

	// Classify every updated node for the terminal notification, before the
	// unignored caches refresh, deduping repeated records.
	changes := make([]Change, 0, len(update.Nodes))
	visited := make(map[types.NodeID]struct{})
	for i := range update.Nodes {
		id := update.Nodes[i].ID
		n := t.FromID(id)
		if n == nil {
			continue
		}
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		changes = append(changes, Change{Node: n, Type: t.classifyChange(n, rootUpdated, state)})
	}

	// Refresh unignored cached values once per invalidated subtree. Ignored
	// nodes refresh from their nearest unignored ancestor.
	refreshed := make(map[types.NodeID]struct{})
	for _, id := range slices.Sorted(maps.Keys(state.invalidateUnignored)) {
		n := t.FromID(id)
		for n != nil && n.IsIgnored() {
			n = n.parent
		}
		if n == nil {
			continue
		}
		if _, done := refreshed[n.id]; done {
			continue
		}
		refreshed[n.id] = struct{}{}
		n.updateUnignoredCachedValues()
	}

	t.updateInProgress = false

	if state.oldTreeData != nil {
		for _, o := range t.observers {
			o.OnTreeDataChanged(t, *state.oldTreeData, t.data)
		}
	}

	// Deletions first, skipping ids that were reparented rather than
	// removed.
	for _, id := range slices.Sorted(maps.Keys(state.removedNodeIDs)) {
		if !state.isCreatedID(id) {
			for _, o := range t.observers {
				o.OnNodeDeleted(t, id)
			}
		}
	}

	for _, id := range slices.Sorted(maps.Keys(state.newNodeIDs)) {
		t.notifyNodeHasBeenReparentedOrCreated(t.FromID(id), state)
	}

	for _, id := range slices.Sorted(maps.Keys(state.nodeDataChangedIDs)) {
		n := t.FromID(id)
		if n == nil {
			continue
		}
		isNewRoot := state.rootWillBeCreated && id == update.RootID
		if !isNewRoot {
			if oldData, ok := state.oldNodeData[id]; ok {
				t.notifyNodeDataChanged(n, oldData, n.data)
			}
		}
		for _, o := range t.observers {
			o.OnNodeChanged(t, n)
		}
	}

	rootChanged := t.root.id != oldRootID
	for _, o := range t.observers {
		o.OnAtomicUpdateFinished(t, rootChanged, changes)
	}
	return nil
}

// classifyChange picks the ChangeType reported for one updated node.
func (t *Tree) classifyChange(n *Node, rootUpdated bool, state *updateState) ChangeType {
	if !state.isCreatedID(n.id) {
		return NodeChanged
	}
	if state.isReparented(n) {
		// A reparented subtree is any reparented node whose parent either
		// doesn't exist or is not itself new. Updating the root in place
		// counts: children attached to it start their own subtrees.
		if n.parent == nil || !state.isCreatedID(n.parent.id) ||
			(n.parent == t.root && rootUpdated) {
			return SubtreeReparented
		}
		return NodeReparented
	}
	// A new subtree is any new node whose parent is not new, or whose
	// parent is only new because it was itself reparented.
	if n.parent == nil || !state.isCreatedID(n.parent.id) ||
		state.isRemovedID(n.parent.id) ||
		(n.parent == t.root && rootUpdated) {
		return SubtreeCreated
	}
	return NodeCreated
}

// fail marks the tree unusable after a mutation-phase error.
func (t *Tree) fail(err error) error {
	t.unusable = true
	return err
}

// computePendingChanges simulates the whole update against the current
// structure without touching it, accumulating the create/destroy plan and
// validating every record. Returning nil guarantees the mutation phase will
// succeed.
func (t *Tree) computePendingChanges(update types.TreeUpdate, state *updateState) error {
	if state.status != pendingNotStarted {
		panic(axerrors.NewPrecondition("computePendingChanges",
			"pending changes have already been computed"))
	}
	state.status = pendingComputing

	if t.root != nil {
		state.pendingRootID = t.root.id
	}

	if update.NodeIDToClear != types.InvalidNodeID {
		if cleared := t.FromID(update.NodeIDToClear); cleared != nil {
			if cleared == t.root && update.RootID != state.pendingRootID {
				t.markSubtreeForDestruction(state.pendingRootID, state)
			}
			// Unless the whole tree was just marked for destruction, drop the
			// cleared node's children and require a fresh record for it.
			if t.root != nil && state.shouldExistInTree(t.root.id) {
				state.invalidateUnignoredFor(cleared.id)
				state.clearLastKnownData(cleared.id)
				for _, child := range cleared.children {
					t.markSubtreeForDestruction(child.id, state)
				}
			}
		}
	}

	state.rootWillBeCreated = t.FromID(update.RootID) == nil ||
		!state.shouldExistInTree(update.RootID)

	for i := range update.Nodes {
		isNewRoot := state.rootWillBeCreated && update.Nodes[i].ID == update.RootID
		if err := t.computePendingChangesToNode(&update.Nodes[i], isNewRoot, state); err != nil {
			state.status = pendingFailed
			return err
		}
	}

	// Every node the plan leaves in the tree must have received data from
	// some record. A remaining placeholder means the update referenced a
	// child it never defined.
	var uninitialized []types.NodeID
	for id, p := range state.byID {
		if p.requiresInit() {
			uninitialized = append(uninitialized, id)
		}
	}
	if len(uninitialized) > 0 {
		slices.Sort(uninitialized)
		state.status = pendingFailed
		return axerrors.NewStructural(axerrors.KindPendingNodes,
			"update references children it never defines", uninitialized, false)
	}

	if state.pendingRootID == types.InvalidNodeID {
		state.status = pendingFailed
		return axerrors.NewStructural(axerrors.KindNoRoot,
			"update would leave the tree without a root", nil, false)
	}

	state.status = pendingComplete
	return nil
}

func (t *Tree) computePendingChangesToNode(newData *types.NodeData, isNewRoot bool, state *updateState) error {
	// A child whose index in parent moves invalidates the parent's unignored
	// numbering even when nothing is created or destroyed.
	for j, childID := range newData.ChildIDs {
		if n := t.FromID(childID); n != nil && n.indexInParent != j {
			state.invalidateParentUnignored(childID)
		}
	}

	if !state.shouldExistInTree(newData.ID) {
		if !isNewRoot {
			return axerrors.NewStructural(axerrors.KindNotInTree,
				fmt.Sprintf("node %d will not be in the tree and is not the new root", newData.ID),
				[]types.NodeID{newData.ID}, false)
		}

		// Creation is implicit for a new root. Failing to register it means
		// the id is already pending creation, i.e. a duplicate record.
		if !state.markCreateNode(newData.ID, types.InvalidNodeID) {
			return axerrors.NewStructural(axerrors.KindDuplicateRecord,
				fmt.Sprintf("node %d is already pending creation, cannot be the new root", newData.ID),
				[]types.NodeID{newData.ID}, false)
		}
		if state.pendingRootID != types.InvalidNodeID {
			t.markSubtreeForDestruction(state.pendingRootID, state)
		}
		state.pendingRootID = newData.ID
	}

	newChildSet := make(map[types.NodeID]struct{}, len(newData.ChildIDs))
	for _, childID := range newData.ChildIDs {
		if _, dup := newChildSet[childID]; dup {
			return axerrors.NewStructural(axerrors.KindDuplicateChild,
				fmt.Sprintf("node %d lists child %d twice", newData.ID, childID),
				[]types.NodeID{newData.ID, childID}, false)
		}
		newChildSet[childID] = struct{}{}
	}

	// A node without data was either cleared through NodeIDToClear or is
	// brand new. Either way all of its children must be created.
	if state.requiresInit(newData.ID) {
		state.invalidateUnignoredFor(newData.ID)
		state.invalidateParentUnignored(newData.ID)

		for _, childID := range newData.ChildIDs {
			state.invalidateUnignoredFor(childID)
			if !state.markCreateNode(childID, newData.ID) {
				return axerrors.NewStructural(axerrors.KindDuplicateRecord,
					fmt.Sprintf("node %d is already pending creation, cannot be a new child of %d", childID, newData.ID),
					[]types.NodeID{childID, newData.ID}, false)
			}
		}

		state.setLastKnownData(newData)
		return nil
	}

	oldData := state.lastKnownData(newData.ID)
	oldChildSet := make(map[types.NodeID]struct{}, len(oldData.ChildIDs))
	for _, childID := range oldData.ChildIDs {
		oldChildSet[childID] = struct{}{}
	}

	var createOrDestroy []types.NodeID
	for _, childID := range oldData.ChildIDs {
		if _, kept := newChildSet[childID]; !kept {
			createOrDestroy = append(createOrDestroy, childID)
		}
	}
	for _, childID := range newData.ChildIDs {
		if _, had := oldChildSet[childID]; !had {
			createOrDestroy = append(createOrDestroy, childID)
		}
	}

	ignoredChanged := oldData.HasState(types.StateIgnored) != newData.HasState(types.StateIgnored)
	if len(createOrDestroy) > 0 || ignoredChanged {
		state.invalidateUnignoredFor(newData.ID)
		state.invalidateParentUnignored(newData.ID)
	}

	for _, childID := range createOrDestroy {
		if _, added := newChildSet[childID]; added {
			// A child gaining a new parent must first have been removed from
			// its old one. Adopting a live node would silently steal it.
			if state.shouldExistInTree(childID) {
				return axerrors.NewStructural(axerrors.KindImplicitMove,
					fmt.Sprintf("node %d is not marked for destruction, would be moved under %d", childID, newData.ID),
					[]types.NodeID{childID, newData.ID}, false)
			}
			state.invalidateUnignoredFor(childID)
			if !state.markCreateNode(childID, newData.ID) {
				return axerrors.NewStructural(axerrors.KindDuplicateRecord,
					fmt.Sprintf("node %d is already pending creation, cannot be a new child of %d", childID, newData.ID),
					[]types.NodeID{childID, newData.ID}, false)
			}
		} else {
			t.markSubtreeForDestruction(childID, state)
		}
	}

	state.setLastKnownData(newData)
	return nil
}

func (t *Tree) markSubtreeForDestruction(id types.NodeID, state *updateState) {
	state.markDestroySubtree(id)
	t.markNodesForDestructionRecursive(id, state)
}

func (t *Tree) markNodesForDestructionRecursive(id types.NodeID, state *updateState) {
	// Already marked: don't walk the subtree twice.
	if !state.shouldExistInTree(id) {
		return
	}
	lastKnown := state.lastKnownData(id)
	state.markDestroyNode(id)
	for _, childID := range lastKnown.ChildIDs {
		t.markNodesForDestructionRecursive(childID, state)
	}
}

// updateNode applies one record against the live tree.
func (t *Tree) updateNode(src *types.NodeData, isNewRoot bool, state *updateState) error {
	n := t.FromID(src.ID)
	if n != nil {
		delete(state.pendingNodes, n.id)
		t.updateReverseRelations(n, src)
		if !state.isCreatedID(n.id) || state.isReparented(n) {
			if _, have := state.oldNodeData[n.id]; !have {
				state.oldNodeData[n.id] = n.takeData()
			}
		}
		n.setData(*src)
	} else {
		if !isNewRoot {
			return axerrors.NewStructural(axerrors.KindNotInTree,
				fmt.Sprintf("node %d is not in the tree and not the new root", src.ID),
				[]types.NodeID{src.ID}, true)
		}
		n = t.createNode(nil, src.ID, 0, state)
		t.updateReverseRelations(n, src)
		n.setData(*src)
	}

	state.nodeDataChangedIDs[n.id] = struct{}{}

	t.deleteOldChildren(n, src.ChildIDs, state)

	newChildren, err := t.createNewChildVector(n, src.ChildIDs, state)
	n.swapChildren(newChildren)
	if err != nil {
		return err
	}

	if isNewRoot {
		// Keep root valid at all times, including inside destroySubtree.
		oldRoot := t.root
		t.root = n
		if oldRoot != nil && oldRoot != n {
			t.destroySubtree(oldRoot, state)
		}
	}
	return nil
}

func (t *Tree) createNode(parent *Node, id types.NodeID, index int, state *updateState) *Node {
	state.consumeCreateNode(id)
	state.newNodeIDs[id] = struct{}{}
	return t.store.create(t, parent, id, index)
}

func (t *Tree) destroySubtree(n *Node, state *updateState) {
	state.consumeDestroySubtree(n.id)
	t.destroyNodeAndSubtree(n, state)
}

func (t *Tree) destroyNodeAndSubtree(n *Node, state *updateState) {
	t.store.destroy(n, func(dying *Node) {
		// Drop reverse relations by diffing against an empty record, and any
		// cached table structure.
		t.updateReverseRelations(dying, &types.NodeData{ID: dying.id})
		delete(t.tableInfoMap, dying.id)

		delete(state.pendingNodes, dying.id)
		state.consumeDestroyNode(dying.id)
		state.removedNodeIDs[dying.id] = struct{}{}
		delete(state.newNodeIDs, dying.id)
		delete(state.nodeDataChangedIDs, dying.id)
		if state.isReparented(dying) {
			if _, have := state.oldNodeData[dying.id]; !have {
				state.oldNodeData[dying.id] = dying.takeData()
			}
		}
	})
}

func (t *Tree) deleteOldChildren(n *Node, newChildIDs []types.NodeID, state *updateState) {
	newChildSet := make(map[types.NodeID]struct{}, len(newChildIDs))
	for _, id := range newChildIDs {
		newChildSet[id] = struct{}{}
	}
	for _, child := range n.children {
		if _, kept := newChildSet[child.id]; !kept {
			t.destroySubtree(child, state)
		}
	}
}

func (t *Tree) createNewChildVector(n *Node, newChildIDs []types.NodeID, state *updateState) ([]*Node, error) {
	var err error
	newChildren := make([]*Node, 0, len(newChildIDs))
	for i, childID := range newChildIDs {
		child := t.FromID(childID)
		if child != nil {
			if child.parent != n {
				// Guarded against by the dry run; hitting it here means the
				// plan and the mutation disagree. Finish wiring the child
				// list so the node isn't left half-updated, then fail.
				oldParent := types.InvalidNodeID
				if child.parent != nil {
					oldParent = child.parent.id
				}
				err = axerrors.NewStructural(axerrors.KindImplicitMove,
					fmt.Sprintf("node %d moved from %d to %d during mutation", childID, oldParent, n.id),
					[]types.NodeID{childID, oldParent, n.id}, true)
				continue
			}
			child.indexInParent = i
		} else {
			child = t.createNode(n, childID, i, state)
			state.pendingNodes[childID] = struct{}{}
		}
		newChildren = append(newChildren, child)
	}
	return newChildren, err
}

func (t *Tree) validatePendingChangesComplete(state *updateState) error {
	if len(state.pendingNodes) > 0 {
		return axerrors.NewStructural(axerrors.KindPendingNodes,
			"nodes left pending after mutation", sortedIDSet(state.pendingNodes), true)
	}
	var leftover []types.NodeID
	for id, p := range state.byID {
		if p.expectsAnyChange() {
			leftover = append(leftover, id)
		}
	}
	if len(leftover) > 0 {
		slices.Sort(leftover)
		return axerrors.NewStructural(axerrors.KindPendingNodes,
			"structural changes left unapplied after mutation", leftover, true)
	}
	return nil
}

// updateReverseRelations diffs the node's current data against newData and
// adjusts the reverse relation indexes. Must run before the node's data is
// replaced.
func (t *Tree) updateReverseRelations(n *Node, newData *types.NodeData) {
	oldData := &n.data
	srcID := newData.ID

	forEachChangedAttr(oldData.IntAttributes, newData.IntAttributes, 0, eqComparable[int32],
		func(attr types.IntAttribute, oldVal, newVal int32) {
			if !types.IsNodeIDIntAttribute(attr) {
				return
			}
			byTarget := t.intReverseRelations[attr]
			if byTarget == nil {
				byTarget = make(map[types.NodeID]map[types.NodeID]struct{})
				t.intReverseRelations[attr] = byTarget
			}
			removeReverseRelation(byTarget, types.NodeID(oldVal), srcID)
			// Zero means the relation was only removed.
			if newVal != 0 {
				addReverseRelation(byTarget, types.NodeID(newVal), srcID)
			}
		})

	forEachChangedAttr(oldData.IntListAttributes, newData.IntListAttributes, nil, eqInt32Slice,
		func(attr types.IntListAttribute, oldList, newList []int32) {
			if !types.IsNodeIDIntListAttribute(attr) {
				return
			}
			byTarget := t.intListReverseRelations[attr]
			if byTarget == nil {
				byTarget = make(map[types.NodeID]map[types.NodeID]struct{})
				t.intListReverseRelations[attr] = byTarget
			}
			for _, oldID := range oldList {
				removeReverseRelation(byTarget, types.NodeID(oldID), srcID)
			}
			for _, newID := range newList {
				addReverseRelation(byTarget, types.NodeID(newID), srcID)
			}
		})

	forEachChangedAttr(oldData.StringAttributes, newData.StringAttributes, "", eqComparable[string],
		func(attr types.StringAttribute, oldStr, newStr string) {
			if attr != types.StringAttrChildTreeID {
				return
			}
			if set, ok := t.childTreeIDReverseMap[oldStr]; ok {
				delete(set, srcID)
				if len(set) == 0 {
					delete(t.childTreeIDReverseMap, oldStr)
				}
			}
			if newStr != "" {
				set := t.childTreeIDReverseMap[newStr]
				if set == nil {
					set = make(map[types.NodeID]struct{})
					t.childTreeIDReverseMap[newStr] = set
				}
				set[srcID] = struct{}{}
			}
		})
}

func addReverseRelation(byTarget map[types.NodeID]map[types.NodeID]struct{}, target, src types.NodeID) {
	set := byTarget[target]
	if set == nil {
		set = make(map[types.NodeID]struct{})
		byTarget[target] = set
	}
	set[src] = struct{}{}
}

func removeReverseRelation(byTarget map[types.NodeID]map[types.NodeID]struct{}, target, src types.NodeID) {
	if set, ok := byTarget[target]; ok {
		delete(set, src)
		if len(set) == 0 {
			delete(byTarget, target)
		}
	}
}

func (t *Tree) notifySubtreeWillBeReparentedOrDeleted(n *Node, state *updateState) {
	for _, o := range t.observers {
		if state.isReparented(n) {
			o.OnSubtreeWillBeReparented(t, n)
		} else {
			o.OnSubtreeWillBeDeleted(t, n)
		}
	}
}

func (t *Tree) notifyNodeWillBeReparentedOrDeleted(n *Node, state *updateState) {
	for _, o := range t.observers {
		if state.isReparented(n) {
			o.OnNodeWillBeReparented(t, n)
		} else {
			o.OnNodeWillBeDeleted(t, n)
		}
	}
}

func (t *Tree) notifyNodeHasBeenReparentedOrCreated(n *Node, state *updateState) {
	if n == nil {
		return
	}
	for _, o := range t.observers {
		if state.isReparented(n) {
			o.OnNodeReparented(t, n)
		} else {
			o.OnNodeCreated(t, n)
		}
	}
}

func (t *Tree) notifyNodeDataWillChange(oldData, newData types.NodeData) {
	for _, o := range t.observers {
		o.OnNodeDataWillChange(t, oldData, newData)
	}
}

// notifyNodeDataChanged fires the coarse data-changed callback followed by
// one callback per changed field.
func (t *Tree) notifyNodeDataChanged(n *Node, oldData, newData types.NodeData) {
	for _, o := range t.observers {
		o.OnNodeDataChanged(t, oldData, newData)
	}

	if oldData.Role != newData.Role {
		for _, o := range t.observers {
			o.OnRoleChanged(t, n, oldData.Role, newData.Role)
		}
	}

	if oldData.State != newData.State {
		types.EachState(func(s types.State) {
			if oldData.State.Has(s) != newData.State.Has(s) {
				for _, o := range t.observers {
					o.OnStateChanged(t, n, s, newData.State.Has(s))
				}
			}
		})
	}

	forEachChangedAttr(oldData.StringAttributes, newData.StringAttributes, "", eqComparable[string],
		func(attr types.StringAttribute, oldVal, newVal string) {
			for _, o := range t.observers {
				o.OnStringAttributeChanged(t, n, attr, oldVal, newVal)
			}
		})
	forEachChangedAttr(oldData.BoolAttributes, newData.BoolAttributes, false, eqComparable[bool],
		func(attr types.BoolAttribute, _, newVal bool) {
			for _, o := range t.observers {
				o.OnBoolAttributeChanged(t, n, attr, newVal)
			}
		})
	forEachChangedAttr(oldData.FloatAttributes, newData.FloatAttributes, 0, eqComparable[float64],
		func(attr types.FloatAttribute, oldVal, newVal float64) {
			for _, o := range t.observers {
				o.OnFloatAttributeChanged(t, n, attr, oldVal, newVal)
			}
		})
	forEachChangedAttr(oldData.IntAttributes, newData.IntAttributes, 0, eqComparable[int32],
		func(attr types.IntAttribute, oldVal, newVal int32) {
			for _, o := range t.observers {
				o.OnIntAttributeChanged(t, n, attr, oldVal, newVal)
			}
		})
	forEachChangedAttr(oldData.IntListAttributes, newData.IntListAttributes, nil, eqInt32Slice,
		func(attr types.IntListAttribute, oldVal, newVal []int32) {
			for _, o := range t.observers {
				o.OnIntListAttributeChanged(t, n, attr, oldVal, newVal)
			}
		})
	forEachChangedAttr(oldData.StringListAttributes, newData.StringListAttributes, nil, eqStringSlice,
		func(attr types.StringListAttribute, oldVal, newVal []string) {
			for _, o := range t.observers {
				o.OnStringListAttributeChanged(t, n, attr, oldVal, newVal)
			}
		})
}

// Destroy tears the tree down, firing OnNodeDeleted for every node in
// preorder. The tree is empty but reusable afterwards.
func (t *Tree) Destroy() {
	if t.root == nil {
		return
	}
	root := t.root
	t.root = nil
	t.recursivelyNotifyNodeDeletedForTreeTeardown(root)
	t.store.destroy(root, func(dying *Node) {
		delete(t.tableInfoMap, dying.id)
	})
	clear(t.intReverseRelations)
	clear(t.intListReverseRelations)
	clear(t.childTreeIDReverseMap)
	clear(t.orderedSetInfoMap)
}

func (t *Tree) recursivelyNotifyNodeDeletedForTreeTeardown(n *Node) {
	for _, o := range t.observers {
		o.OnNodeDeleted(t, n.id)
	}
	for _, child := range n.children {
		t.recursivelyNotifyNodeDeletedForTreeTeardown(child)
	}
}

// String renders the tree as an indented dump, one node per line.
func (t *Tree) String() string {
	var b strings.Builder
	b.WriteString("Tree ")
	b.WriteString(t.data.String())
	b.WriteByte('\n')
	t.dumpSubtree(&b, t.root, 0)
	return b.String()
}

func (t *Tree) dumpSubtree(b *strings.Builder, n *Node, depth int) {
	if n == nil {
		return
	}
	for i := 0; i < 2*depth; i++ {
		b.WriteByte(' ')
	}
	b.WriteString(n.data.String())
	b.WriteByte('\n')
	for _, child := range n.children {
		t.dumpSubtree(b, child, depth+1)
	}
}
