// Package traverse walks an arena depth first.
//
// Walks follow the same child relation as derived state: without shadow
// crossing a node's children are its light children and shadow trees are
// not visited; with it a host's only child is its shadow root and the
// host's light children are visited below the slot.
//
// Every call walks the arena as it is when iteration starts. Mutating the
// arena during a walk is not supported.
package traverse

import (
	"iter"

	"github.com/dshills/arbor/internal/arena"
	"github.com/dshills/arbor/internal/mutation"
)

// Visit is one node reached by a walk.
type Visit struct {
	// Depth is the distance from the walk's start node, which has depth 0.
	Depth  int
	Handle arena.Handle
	Node   *arena.Node
}

// ID returns the visited node's identity, if it has one.
func (v Visit) ID() (mutation.ElementID, bool) {
	return v.Node.ID()
}

// State returns the derived state stored in slot.
func (v Visit) State(slot int) any {
	return v.Node.State(slot)
}

// Options controls a walk.
type Options struct {
	// CrossShadow descends into shadow trees.
	CrossShadow bool

	// From is the start node. The zero value starts at the mount root.
	From arena.Handle

	// SkipPlaceholders leaves placeholder nodes out.
	SkipPlaceholders bool
}

func (o Options) start(a *arena.Arena) arena.Handle {
	if o.From == 0 || o.From == arena.None {
		return a.Root()
	}
	return o.From
}

// Walk yields nodes in pre-order.
func Walk(a *arena.Arena, opts Options) iter.Seq[Visit] {
	return func(yield func(Visit) bool) {
		type frame struct {
			h     arena.Handle
			depth int
		}
		stack := []frame{{h: opts.start(a)}}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			n := a.Node(f.h)
			if n == nil {
				continue
			}
			if !(opts.SkipPlaceholders && n.Kind() == arena.KindPlaceholder) {
				if !yield(Visit{Depth: f.depth, Handle: f.h, Node: n}) {
					return
				}
			}
			children := a.StateChildren(f.h, opts.CrossShadow)
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, frame{h: children[i], depth: f.depth + 1})
			}
		}
	}
}

// PostOrder yields nodes after their children.
func PostOrder(a *arena.Arena, opts Options) iter.Seq[Visit] {
	return func(yield func(Visit) bool) {
		var visit func(h arena.Handle, depth int) bool
		visit = func(h arena.Handle, depth int) bool {
			n := a.Node(h)
			if n == nil {
				return true
			}
			for _, c := range a.StateChildren(h, opts.CrossShadow) {
				if !visit(c, depth+1) {
					return false
				}
			}
			if opts.SkipPlaceholders && n.Kind() == arena.KindPlaceholder {
				return true
			}
			return yield(Visit{Depth: depth, Handle: h, Node: n})
		}
		visit(opts.start(a), 0)
	}
}

// Ancestors yields the parents of h from the nearest up to the root of its
// tree.
func Ancestors(a *arena.Arena, h arena.Handle, crossShadow bool) iter.Seq[arena.Handle] {
	return func(yield func(arena.Handle) bool) {
		for p := a.StateParent(h, crossShadow); p != arena.None; p = a.StateParent(p, crossShadow) {
			if !yield(p) {
				return
			}
		}
	}
}

// Find returns the first node in pre-order for which match returns true.
func Find(a *arena.Arena, opts Options, match func(Visit) bool) (Visit, bool) {
	for v := range Walk(a, opts) {
		if match(v) {
			return v, true
		}
	}
	return Visit{}, false
}

// Count returns the number of nodes a walk visits.
func Count(a *arena.Arena, opts Options) int {
	n := 0
	for range Walk(a, opts) {
		n++
	}
	return n
}
