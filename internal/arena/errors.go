package arena

import (
	"errors"
	"fmt"

	"github.com/dshills/arbor/internal/mutation"
)

// Arena errors.
var (
	// ErrUnknownID indicates an identity that is not bound to a live node.
	ErrUnknownID = errors.New("unknown element id")

	// ErrIDInUse indicates an attempt to bind an identity that is already bound.
	ErrIDInUse = errors.New("element id already bound")

	// ErrStackUnderflow indicates a pop or peek on a stack with too few entries.
	ErrStackUnderflow = errors.New("node stack underflow")

	// ErrBadPath indicates a path that does not locate a replaceable node.
	ErrBadPath = errors.New("path does not locate a node")

	// ErrUnknownTemplate indicates a LoadTemplate for an unregistered template
	// or an out of range root index.
	ErrUnknownTemplate = errors.New("unknown template")

	// ErrTemplateConflict indicates two different templates registered under
	// one name.
	ErrTemplateConflict = errors.New("conflicting template registration")

	// ErrNotText indicates SetText on a node that is not a text node.
	ErrNotText = errors.New("node is not a text node")

	// ErrNotElement indicates an attribute or listener edit on a node that is
	// not an element.
	ErrNotElement = errors.New("node is not an element")

	// ErrDetached indicates a placement relative to a node without a parent.
	ErrDetached = errors.New("node has no parent")

	// ErrRootRemoval indicates an attempt to remove or replace the mount root.
	ErrRootRemoval = errors.New("cannot remove the mount root")

	// ErrCycle indicates a placement that would make a node its own ancestor.
	ErrCycle = errors.New("placement would create a cycle")

	// ErrBadRange indicates a RemoveRange extending past the last sibling.
	ErrBadRange = errors.New("range extends past last sibling")
)

// Error describes a failed arena operation.
type Error struct {
	Op    string             // Operation name, as in mutation.Mutation.Op
	ID    mutation.ElementID // Identity the operation targeted, if any
	Index int                // Position of the edit in its stream, -1 for direct calls
	Err   error              // Underlying error
}

func (e *Error) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("arena: edit %d %s (id %d): %v", e.Index, e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("arena: %s (id %d): %v", e.Op, e.ID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func opError(op string, id mutation.ElementID, err error) error {
	return &Error{Op: op, ID: id, Index: -1, Err: err}
}
