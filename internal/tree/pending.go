package tree

import (
	"github.com/standardbeagle/axtree/internal/axerrors"
	"github.com/standardbeagle/axtree/internal/types"
)

// pendingChanges tracks the structural consequences one update has for a
// single node id: how many times the update is expected to destroy the
// subtree rooted at the id, destroy the node itself, and create the node.
//
// These are counters, not flags. An update may carry multiple records for
// one id — the normal result of merging several smaller updates — so an id
// can be created, destroyed and created again within one apply. A
// "reparent" is exactly the destroy-then-create sequence for one id.
type pendingChanges struct {
	destroySubtreeCount int32
	destroyNodeCount    int32
	createNodeCount     int32

	// nodeExists tracks whether the node would exist in the tree as of the
	// last record processed by the dry run.
	nodeExists bool

	// parentID is the node's parent as of the last record processed.
	// InvalidNodeID means no parent (root, or not in the tree).
	parentID types.NodeID

	// lastKnownData is the most recent record seen for the node: the live
	// data on first encounter, then each patch-provided record in turn. Nil
	// when the node does not exist or was introduced through a ChildIDs
	// reference and has not received its own record yet.
	lastKnownData *types.NodeData
}

func (p *pendingChanges) expectsAnyChange() bool {
	return p.destroySubtreeCount > 0 || p.destroyNodeCount > 0 || p.createNodeCount > 0
}

func (p *pendingChanges) expectsDestroy() bool {
	return p.destroySubtreeCount > 0 || p.destroyNodeCount > 0
}

// requiresInit reports a node that should exist in the tree but has not been
// given data by any record yet.
func (p *pendingChanges) requiresInit() bool {
	return p.nodeExists && p.lastKnownData == nil
}

type pendingStatus int

const (
	pendingNotStarted pendingStatus = iota
	pendingComputing
	pendingComplete
	pendingFailed
)

// updateState carries all intermediate bookkeeping for one apply: the
// per-id pending change plan computed by the dry run, plus the sets of
// created/removed/changed ids accumulated while mutating, which drive
// post-update notifications.
type updateState struct {
	tree   *Tree
	status pendingStatus

	// pendingRootID is the root id as of the last record processed by the
	// dry run. InvalidNodeID when the tree is (or becomes) rootless.
	pendingRootID types.NodeID

	// rootWillBeCreated is set when the update introduces a new root node
	// rather than updating the existing one.
	rootWillBeCreated bool

	// pendingNodes holds ids referenced through ChildIDs whose own record
	// has not been applied yet. Must drain to empty by the end of the apply.
	pendingNodes map[types.NodeID]struct{}

	// invalidateUnignored collects ids whose cached unignored child count /
	// index must be recomputed after mutation.
	invalidateUnignored map[types.NodeID]struct{}

	nodeDataChangedIDs map[types.NodeID]struct{}
	newNodeIDs         map[types.NodeID]struct{}

	// removedNodeIDs holds every id destroyed during the apply. An id both
	// removed and created is a reparent.
	removedNodeIDs map[types.NodeID]struct{}

	byID map[types.NodeID]*pendingChanges

	// oldNodeData snapshots pre-update records for post-update change
	// events.
	oldNodeData map[types.NodeID]types.NodeData

	// oldTreeData is set only when the update replaces tree metadata.
	oldTreeData *types.TreeData
}

func newUpdateState(t *Tree) *updateState {
	return &updateState{
		tree:                t,
		status:              pendingNotStarted,
		pendingNodes:        make(map[types.NodeID]struct{}),
		invalidateUnignored: make(map[types.NodeID]struct{}),
		nodeDataChangedIDs:  make(map[types.NodeID]struct{}),
		newNodeIDs:          make(map[types.NodeID]struct{}),
		removedNodeIDs:      make(map[types.NodeID]struct{}),
		byID:                make(map[types.NodeID]*pendingChanges),
		oldNodeData:         make(map[types.NodeID]types.NodeData),
	}
}

func (s *updateState) pending(id types.NodeID) *pendingChanges {
	return s.byID[id]
}

// pendingOrCreate lazily seeds the entry for id from the live tree.
func (s *updateState) pendingOrCreate(id types.NodeID) *pendingChanges {
	if p, ok := s.byID[id]; ok {
		return p
	}
	p := &pendingChanges{}
	if n := s.tree.FromID(id); n != nil {
		p.nodeExists = true
		if n.parent != nil {
			p.parentID = n.parent.id
		}
		p.lastKnownData = &n.data
	}
	s.byID[id] = p
	return p
}

func (s *updateState) isCreatedID(id types.NodeID) bool {
	_, ok := s.newNodeIDs[id]
	return ok
}

func (s *updateState) isRemovedID(id types.NodeID) bool {
	_, ok := s.removedNodeIDs[id]
	return ok
}

// isReparented reports whether the update moves the node to a new parent:
// it is (or was) destroyed at least once during the apply and still exists
// once all records are accounted for. Only valid after the dry run.
func (s *updateState) isReparented(n *Node) bool {
	s.mustBeComplete("isReparented")
	p := s.pending(n.id)
	if p == nil {
		return false
	}
	return (p.destroyNodeCount > 0 || s.isRemovedID(n.id)) && p.nodeExists
}

// shouldExistInTree reports whether the node would be in the tree as of the
// records processed so far. Dry-run only.
func (s *updateState) shouldExistInTree(id types.NodeID) bool {
	s.mustBeComputing("shouldExistInTree")
	return s.pendingOrCreate(id).nodeExists
}

func (s *updateState) requiresInit(id types.NodeID) bool {
	s.mustBeComputing("requiresInit")
	p := s.pending(id)
	return p != nil && p.requiresInit()
}

// lastKnownData returns the most recent record for id, or an empty record.
func (s *updateState) lastKnownData(id types.NodeID) types.NodeData {
	s.mustBeComputing("lastKnownData")
	if p := s.pending(id); p != nil && p.lastKnownData != nil {
		return *p.lastKnownData
	}
	return types.NodeData{ID: id}
}

func (s *updateState) clearLastKnownData(id types.NodeID) {
	s.mustBeComputing("clearLastKnownData")
	s.pendingOrCreate(id).lastKnownData = nil
}

func (s *updateState) setLastKnownData(d *types.NodeData) {
	s.mustBeComputing("setLastKnownData")
	s.pendingOrCreate(d.ID).lastKnownData = d
}

// parentIDForPendingNode returns the last-known parent of id, which may be
// InvalidNodeID.
func (s *updateState) parentIDForPendingNode(id types.NodeID) types.NodeID {
	s.mustBeComputing("parentIDForPendingNode")
	return s.pendingOrCreate(id).parentID
}

// markDestroySubtree registers one expected subtree destruction rooted at
// id. Fails when the node will not exist at that point in the update.
func (s *updateState) markDestroySubtree(id types.NodeID) bool {
	s.mustBeComputing("markDestroySubtree")
	p := s.pendingOrCreate(id)
	if !p.nodeExists {
		return false
	}
	p.destroySubtreeCount++
	return true
}

// markDestroyNode registers one expected destruction of the node itself and
// transitions the pending state to "absent".
func (s *updateState) markDestroyNode(id types.NodeID) bool {
	s.mustBeComputing("markDestroyNode")
	p := s.pendingOrCreate(id)
	if !p.nodeExists {
		return false
	}
	p.destroyNodeCount++
	p.nodeExists = false
	p.lastKnownData = nil
	p.parentID = types.InvalidNodeID
	if s.pendingRootID == id {
		s.pendingRootID = types.InvalidNodeID
	}
	return true
}

// markCreateNode registers one expected creation of id under parentID and
// transitions the pending state to "present". Fails when the node would
// already exist, which indicates a duplicate entry in the update.
func (s *updateState) markCreateNode(id, parentID types.NodeID) bool {
	s.mustBeComputing("markCreateNode")
	p := s.pendingOrCreate(id)
	if p.nodeExists {
		return false
	}
	p.createNodeCount++
	p.nodeExists = true
	p.parentID = parentID
	return true
}

// Consume-side decrements, called while mutating. Each mirrors one mark*
// registration made by the dry run; going negative is a precondition
// violation surfaced by the final validation pass.

func (s *updateState) consumeDestroySubtree(id types.NodeID) {
	s.mustBeComplete("consumeDestroySubtree")
	if p := s.pending(id); p != nil && p.destroySubtreeCount > 0 {
		p.destroySubtreeCount--
	}
}

func (s *updateState) consumeDestroyNode(id types.NodeID) {
	s.mustBeComplete("consumeDestroyNode")
	if p := s.pending(id); p != nil && p.destroyNodeCount > 0 {
		p.destroyNodeCount--
	}
}

func (s *updateState) consumeCreateNode(id types.NodeID) {
	s.mustBeComplete("consumeCreateNode")
	if p := s.pending(id); p != nil && p.createNodeCount > 0 {
		p.createNodeCount--
	}
}

func (s *updateState) destroySubtreeCount(id types.NodeID) int32 {
	if p := s.pending(id); p != nil {
		return p.destroySubtreeCount
	}
	return 0
}

func (s *updateState) createNodeCount(id types.NodeID) int32 {
	if p := s.pending(id); p != nil {
		return p.createNodeCount
	}
	return 0
}

// invalidateUnignoredFor flags id for unignored-cache recomputation.
func (s *updateState) invalidateUnignoredFor(id types.NodeID) {
	s.invalidateUnignored[id] = struct{}{}
}

// invalidateParentUnignored flags id's last-known parent, when it has one.
func (s *updateState) invalidateParentUnignored(id types.NodeID) {
	s.mustBeComputing("invalidateParentUnignored")
	if parentID := s.parentIDForPendingNode(id); parentID != types.InvalidNodeID {
		s.invalidateUnignoredFor(parentID)
	}
}

func (s *updateState) mustBeComputing(op string) {
	if s.status != pendingComputing {
		panic(axerrors.NewPrecondition(op,
			"only valid while computing pending changes, before the tree is modified"))
	}
}

func (s *updateState) mustBeComplete(op string) {
	if s.status != pendingComplete {
		panic(axerrors.NewPrecondition(op,
			"only valid after pending changes have finished computing"))
	}
}
