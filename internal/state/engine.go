package state

import (
	"fmt"
	"slices"

	"github.com/dshills/arbor/internal/arena"
)

// maxRounds bounds the up/down alternation of a kind that reads itself in
// both directions.
const maxRounds = 64

// Engine keeps derived state up to date. Each kind's values live in the
// arena's state slot numbered by the kind's position in dependency order.
type Engine struct {
	kinds []*Kind
	index map[*Kind]int

	// For kind i: the kinds reading it on the same node, from the
	// children and from the parent.
	sameNode     [][]int
	fromChildren [][]int
	fromParent   [][]int

	passes int
}

// NewEngine validates kinds and orders them by dependency. Every kind a
// kind depends on must be among kinds.
func NewEngine(kinds ...*Kind) (*Engine, error) {
	names := make(map[string]bool, len(kinds))
	known := make(map[*Kind]bool, len(kinds))
	for _, k := range kinds {
		if k == nil || k.Name == "" || k.Update == nil {
			return nil, fmt.Errorf("%w: every kind needs a name and an update", ErrInvalidKind)
		}
		if names[k.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKind, k.Name)
		}
		names[k.Name] = true
		known[k] = true
	}
	for _, k := range kinds {
		for _, d := range slices.Concat(k.Node, k.Parent, k.Children) {
			if !known[d] {
				return nil, fmt.Errorf("%w: %q depends on %s", ErrUnknownKind, k.Name, kindName(d))
			}
		}
	}

	order, err := topoSort(kinds)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		kinds:        order,
		index:        make(map[*Kind]int, len(order)),
		sameNode:     make([][]int, len(order)),
		fromChildren: make([][]int, len(order)),
		fromParent:   make([][]int, len(order)),
	}
	for i, k := range order {
		e.index[k] = i
	}
	for j, k := range order {
		for _, d := range k.Node {
			e.sameNode[e.index[d]] = appendUnique(e.sameNode[e.index[d]], j)
		}
		for _, d := range k.Children {
			e.fromChildren[e.index[d]] = appendUnique(e.fromChildren[e.index[d]], j)
		}
		for _, d := range k.Parent {
			e.fromParent[e.index[d]] = appendUnique(e.fromParent[e.index[d]], j)
		}
	}
	return e, nil
}

func kindName(k *Kind) string {
	if k == nil {
		return "a nil kind"
	}
	return fmt.Sprintf("%q", k.Name)
}

func appendUnique(s []int, v int) []int {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}

// topoSort orders kinds so that each comes after the kinds it reads.
// Reading oneself through the parent or the children is not an edge;
// reading oneself on the same node is a cycle. Ties keep registration
// order.
func topoSort(kinds []*Kind) ([]*Kind, error) {
	pending := make(map[*Kind]map[*Kind]bool, len(kinds))
	for _, k := range kinds {
		deps := make(map[*Kind]bool)
		for _, d := range k.Node {
			if d == k {
				return nil, fmt.Errorf("%w: %q reads itself on the same node", ErrDependencyCycle, k.Name)
			}
			deps[d] = true
		}
		for _, d := range slices.Concat(k.Parent, k.Children) {
			if d != k {
				deps[d] = true
			}
		}
		pending[k] = deps
	}

	order := make([]*Kind, 0, len(kinds))
	done := make(map[*Kind]bool, len(kinds))
	for len(order) < len(kinds) {
		progressed := false
		for _, k := range kinds {
			if done[k] || !ready(pending[k], done) {
				continue
			}
			order = append(order, k)
			done[k] = true
			progressed = true
		}
		if !progressed {
			var stuck []string
			for _, k := range kinds {
				if !done[k] {
					stuck = append(stuck, k.Name)
				}
			}
			return nil, fmt.Errorf("%w: %v", ErrDependencyCycle, stuck)
		}
	}
	return order, nil
}

func ready(deps, done map[*Kind]bool) bool {
	for d := range deps {
		if !done[d] {
			return false
		}
	}
	return true
}

// Kinds returns the kinds in evaluation order.
func (e *Engine) Kinds() []*Kind {
	return slices.Clone(e.kinds)
}

// Slot returns the arena state slot holding k's values.
func (e *Engine) Slot(k *Kind) (int, bool) {
	i, ok := e.index[k]
	return i, ok
}

// Passes returns the number of passes run.
func (e *Engine) Passes() int {
	return e.passes
}

// Value returns k's value on n, nil if k is unknown or not computed.
func (e *Engine) Value(n *arena.Node, k *Kind) any {
	i, ok := e.index[k]
	if !ok {
		return nil
	}
	return n.State(i)
}

// Get returns k's value on n as a T.
func Get[T any](e *Engine, n *arena.Node, k *Kind) (T, bool) {
	v, ok := e.Value(n, k).(T)
	return v, ok
}
