package state

// Input is everything an update may read.
type Input struct {
	// Node is the node being updated, restricted to the kind's mask.
	Node NodeView

	// Prev is the kind's previous value on the node, nil on the first
	// update.
	Prev any

	// Context is the pass context.
	Context *Context

	deps      []any
	parent    []any
	hasParent bool
	children  [][]any
}

// Dep returns the value of the kind's i-th same-node dependency.
func (in Input) Dep(i int) any { return in.deps[i] }

// HasParent reports whether the node has a parent in the kind's view of
// the tree.
func (in Input) HasParent() bool { return in.hasParent }

// ParentDep returns the parent's value of the kind's i-th parent
// dependency, nil without a parent.
func (in Input) ParentDep(i int) any {
	if !in.hasParent {
		return nil
	}
	return in.parent[i]
}

// NumChildren returns the number of children in the kind's view of the
// tree.
func (in Input) NumChildren() int { return len(in.children) }

// ChildDep returns child c's value of the kind's i-th child dependency.
func (in Input) ChildDep(c, i int) any { return in.children[c][i] }

// ChildDeps returns every child's value of the kind's i-th child
// dependency, in child order.
func (in Input) ChildDeps(i int) []any {
	out := make([]any, len(in.children))
	for c, vals := range in.children {
		out[c] = vals[i]
	}
	return out
}
