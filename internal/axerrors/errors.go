// Package axerrors defines the error taxonomy for tree updates.
//
// Structural violations are producer bugs detected during validation: the
// update, as serialized, cannot be applied to any tree. Precondition
// violations are programmer errors inside this process: an engine invariant
// was broken by a caller.
package axerrors

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/axtree/internal/types"
)

// Kind classifies tree-update errors.
type Kind string

const (
	// Structural update errors
	KindDuplicateChild  Kind = "duplicate_child"
	KindImplicitMove    Kind = "implicit_move"
	KindNotInTree       Kind = "not_in_tree"
	KindDuplicateRecord Kind = "duplicate_record"
	KindPendingNodes    Kind = "pending_nodes"
	KindNoRoot          Kind = "no_root"

	// Engine state errors
	KindUpdateInProgress Kind = "update_in_progress"
	KindTreeUnusable     Kind = "tree_unusable"
)

// StructuralError reports a malformed update. The tree was not modified
// unless Fatal is set, in which case the tree instance must be discarded.
type StructuralError struct {
	Kind    Kind
	Message string
	IDs     []types.NodeID
	Fatal   bool
}

// NewStructural creates a structural violation error naming the ids involved.
func NewStructural(kind Kind, msg string, ids []types.NodeID, fatal bool) *StructuralError {
	return &StructuralError{Kind: kind, Message: msg, IDs: ids, Fatal: fatal}
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if len(e.IDs) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	parts := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		parts[i] = id.String()
	}
	return fmt.Sprintf("%s: %s (ids: %s)", e.Kind, e.Message, strings.Join(parts, " "))
}

// PreconditionError reports a broken engine invariant. These are defensive
// checks that should be unreachable in correct operation; callers must treat
// them as fatal.
type PreconditionError struct {
	Operation string
	Message   string
}

// NewPrecondition creates a precondition violation error.
func NewPrecondition(op, msg string) *PreconditionError {
	return &PreconditionError{Operation: op, Message: msg}
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition violated in %s: %s", e.Operation, e.Message)
}
