package arena

import (
	"fmt"

	"github.com/dshills/arbor/internal/mutation"
)

// Arena owns the materialized tree.
//
// Arena is not safe for concurrent use. The runtime drives it from a single
// goroutine.
type Arena struct {
	slab []*Node
	free []Handle

	ids  map[mutation.ElementID]Handle
	root Handle

	stack []Handle

	store  *TemplateStore
	custom map[string]CustomElement

	changes map[Handle]*Change
}

// New creates an arena holding only the mount root, bound to
// mutation.RootID.
func New() *Arena {
	a := &Arena{
		ids:     make(map[mutation.ElementID]Handle),
		store:   NewTemplateStore(),
		custom:  make(map[string]CustomElement),
		changes: make(map[Handle]*Change),
	}

	root := newNode(KindElement)
	root.tag = "root"
	a.root = a.alloc(root)
	a.bind(a.root, mutation.RootID)
	return a
}

// Root returns the mount root handle.
func (a *Arena) Root() Handle {
	return a.root
}

// Store returns the arena's template store.
func (a *Arena) Store() *TemplateStore {
	return a.store
}

// Node returns the live node for h, or nil.
func (a *Arena) Node(h Handle) *Node {
	if h < 0 || int(h) >= len(a.slab) {
		return nil
	}
	return a.slab[h]
}

// Get returns the live node bound to id.
func (a *Arena) Get(id mutation.ElementID) (*Node, bool) {
	h, ok := a.ids[id]
	if !ok {
		return nil, false
	}
	return a.slab[h], true
}

// Lookup returns the handle bound to id.
func (a *Arena) Lookup(id mutation.ElementID) (Handle, bool) {
	h, ok := a.ids[id]
	return h, ok
}

// Len returns the number of live nodes, including the mount root and
// shadow trees.
func (a *Arena) Len() int {
	return len(a.slab) - len(a.free)
}

// IDs returns the number of bound identities, including the mount root.
func (a *Arena) IDs() int {
	return len(a.ids)
}

// StackLen returns the depth of the node stack. A well formed stream
// leaves it empty.
func (a *Arena) StackLen() int {
	return len(a.stack)
}

// SetState stores derived state for h in slot. It is used by the state
// engine.
func (a *Arena) SetState(h Handle, slot int, v any) {
	n := a.Node(h)
	if n == nil {
		panic(fmt.Sprintf("arena: SetState on released handle %d", h))
	}
	if slot >= len(n.states) {
		grown := make([]any, slot+1)
		copy(grown, n.states)
		n.states = grown
	}
	n.states[slot] = v
}

func (a *Arena) alloc(n *Node) Handle {
	var h Handle
	if k := len(a.free); k > 0 {
		h = a.free[k-1]
		a.free = a.free[:k-1]
		a.slab[h] = n
	} else {
		h = Handle(len(a.slab))
		a.slab = append(a.slab, n)
	}
	n.handle = h
	a.change(h).Created = true
	return h
}

func (a *Arena) bind(h Handle, id mutation.ElementID) {
	n := a.slab[h]
	n.id = id
	n.hasID = true
	a.ids[id] = h
}

// release frees h and its whole subtree, shadow tree included. Freed
// handles are dropped from the stack so a later reuse of the handle
// cannot be reached through a stale entry.
func (a *Arena) release(h Handle) {
	a.releaseTree(h)
	a.pruneStack()
}

func (a *Arena) releaseTree(h Handle) {
	n := a.slab[h]
	for _, c := range n.children {
		a.releaseTree(c)
	}
	if n.shadow != nil {
		a.releaseTree(n.shadow.Root)
	}
	if n.hasID {
		if bound, ok := a.ids[n.id]; ok && bound == h {
			delete(a.ids, n.id)
		}
	}
	delete(a.changes, h)
	a.slab[h] = nil
	a.free = append(a.free, h)
}

func (a *Arena) pruneStack() {
	out := a.stack[:0]
	for _, s := range a.stack {
		if a.slab[s] != nil {
			out = append(out, s)
		}
	}
	a.stack = out
}

// cloneProto materializes a live, detached copy of p.
func (a *Arena) cloneProto(p *proto) Handle {
	n := p.node.clone()
	h := a.alloc(n)
	if len(p.children) > 0 {
		n.children = make([]Handle, len(p.children))
		for i, c := range p.children {
			ch := a.cloneProto(c)
			a.slab[ch].parent = h
			n.children[i] = ch
		}
	}
	if n.kind == KindElement {
		if ce, ok := a.custom[n.tag]; ok {
			a.attachShadow(h, ce)
		}
	}
	return h
}

// detach unlinks h from its parent. The subtree stays live.
func (a *Arena) detach(h Handle) {
	n := a.slab[h]
	if n.parent == None {
		return
	}
	p := a.slab[n.parent]
	for i, c := range p.children {
		if c == h {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	a.change(n.parent).Children = true
	n.parent = None
}

// insert links nodes under parent starting at index, detaching each from
// any previous parent first.
func (a *Arena) insert(parent Handle, index int, nodes []Handle) {
	for _, h := range nodes {
		if a.slab[h].parent == parent {
			// Moving within the same parent shifts the insertion index.
			if i := a.indexOf(h); i >= 0 && i < index {
				index--
			}
		}
		a.detach(h)
	}

	p := a.slab[parent]
	grown := make([]Handle, 0, len(p.children)+len(nodes))
	grown = append(grown, p.children[:index]...)
	grown = append(grown, nodes...)
	grown = append(grown, p.children[index:]...)
	p.children = grown

	for _, h := range nodes {
		n := a.slab[h]
		n.parent = parent
		a.setDepth(h, p.depth+1)
		a.change(h).Parent = true
	}
	a.change(parent).Children = true
}

func (a *Arena) setDepth(h Handle, depth int) {
	n := a.slab[h]
	n.depth = depth
	for _, c := range n.children {
		a.setDepth(c, depth+1)
	}
	if n.shadow != nil {
		a.setDepth(n.shadow.Root, depth+1)
	}
}

// indexOf returns h's position among its siblings, or -1.
func (a *Arena) indexOf(h Handle) int {
	n := a.slab[h]
	if n.parent == None {
		return -1
	}
	for i, c := range a.slab[n.parent].children {
		if c == h {
			return i
		}
	}
	return -1
}

// isAncestor reports whether anc is h or one of h's ancestors, following
// shadow roots to their hosts.
func (a *Arena) isAncestor(anc, h Handle) bool {
	for h != None {
		if h == anc {
			return true
		}
		n := a.slab[h]
		if n.parent == None {
			h = n.host
		} else {
			h = n.parent
		}
	}
	return false
}

func (a *Arena) peek(m int) ([]Handle, error) {
	if m < 0 || m > len(a.stack) {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrStackUnderflow, m, len(a.stack))
	}
	nodes := a.stack[len(a.stack)-m:]
	for _, h := range nodes {
		if a.slab[h] == nil {
			return nil, fmt.Errorf("%w: released handle %d on stack", ErrUnknownID, h)
		}
	}
	return nodes, nil
}

func (a *Arena) pop(m int) []Handle {
	top := a.stack[len(a.stack)-m:]
	out := make([]Handle, m)
	copy(out, top)
	a.stack = a.stack[:len(a.stack)-m]
	return out
}

func (a *Arena) top() (Handle, error) {
	if len(a.stack) == 0 {
		return None, ErrStackUnderflow
	}
	h := a.stack[len(a.stack)-1]
	if a.slab[h] == nil {
		return None, fmt.Errorf("%w: released handle %d on stack", ErrUnknownID, h)
	}
	return h, nil
}

// resolve follows child indices from h.
func (a *Arena) resolve(h Handle, path []uint8) (Handle, bool) {
	for _, idx := range path {
		n := a.slab[h]
		if int(idx) >= len(n.children) {
			return None, false
		}
		h = n.children[idx]
	}
	return h, true
}

func (a *Arena) live(id mutation.ElementID) (Handle, error) {
	h, ok := a.ids[id]
	if !ok {
		return None, ErrUnknownID
	}
	return h, nil
}
