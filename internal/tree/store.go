package tree

import (
	"fmt"

	"github.com/standardbeagle/axtree/internal/axerrors"
	"github.com/standardbeagle/axtree/internal/types"
)

// nodeStore is the single owner of all live nodes, keyed by id. Nodes are
// allocated and released only here; everything else in the engine works with
// ids or borrowed *Node references resolved through the store.
type nodeStore struct {
	byID map[types.NodeID]*Node
}

func newNodeStore() nodeStore {
	return nodeStore{byID: make(map[types.NodeID]*Node, 64)}
}

// get returns the live node for id, or nil when the id is not in the tree.
func (s *nodeStore) get(id types.NodeID) *Node {
	return s.byID[id]
}

func (s *nodeStore) len() int { return len(s.byID) }

// create allocates a node bound to id under parent at the given child index.
// Creating an id that is already live is a precondition violation.
func (s *nodeStore) create(tree *Tree, parent *Node, id types.NodeID, index int) *Node {
	if _, live := s.byID[id]; live {
		panic(axerrors.NewPrecondition("nodeStore.create",
			fmt.Sprintf("node %d is already live", id)))
	}
	n := &Node{
		tree:          tree,
		id:            id,
		data:          types.NodeData{ID: id},
		parent:        parent,
		indexInParent: index,
	}
	s.byID[id] = n
	return n
}

// destroy releases the node and, postorder, any children still attached to
// it. onDestroy runs for every released node before its children are
// visited, so per-node cleanup observes an intact subtree below it.
func (s *nodeStore) destroy(n *Node, onDestroy func(*Node)) {
	if onDestroy != nil {
		onDestroy(n)
	}
	delete(s.byID, n.id)
	for _, child := range n.children {
		s.destroy(child, onDestroy)
	}
	n.parent = nil
	n.children = nil
	n.tree = nil
}
