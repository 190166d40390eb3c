package state

import (
	"container/heap"
	"fmt"
	"slices"

	"github.com/dshills/arbor/internal/arena"
)

type direction int

const (
	none direction = iota
	upward
	downward
)

// Result describes one pass.
type Result struct {
	// Calls counts Update calls per kind name.
	Calls map[string]int

	// Changed lists, per kind name, the nodes whose value changed, in
	// handle order.
	Changed map[string][]arena.Handle
}

// TotalCalls returns the number of Update calls in the pass.
func (r *Result) TotalCalls() int {
	n := 0
	for _, c := range r.Calls {
		n += c
	}
	return n
}

// ChangedNodes returns every node with at least one changed value, in
// handle order.
func (r *Result) ChangedNodes() []arena.Handle {
	var out []arena.Handle
	for _, hs := range r.Changed {
		out = append(out, hs...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Update brings every kind up to date with the changes the arena recorded
// since the previous pass. New nodes get every kind computed; other nodes
// only have the kinds whose inputs changed.
func (e *Engine) Update(a *arena.Arena, ctx *Context) *Result {
	if ctx == nil {
		ctx = NewContext()
	}
	p := &pass{
		e:     e,
		a:     a,
		ctx:   ctx,
		dirty: make([]map[arena.Handle]struct{}, len(e.kinds)),
		depth: make(map[bool]map[arena.Handle]int),
		res: &Result{
			Calls:   make(map[string]int),
			Changed: make(map[string][]arena.Handle),
		},
	}
	p.seed(a.TakeChanges())
	for i := range e.kinds {
		p.run(i)
	}
	for name := range p.res.Changed {
		slices.Sort(p.res.Changed[name])
	}
	e.passes++
	return p.res
}

type pass struct {
	e     *Engine
	a     *arena.Arena
	ctx   *Context
	dirty []map[arena.Handle]struct{}
	res   *Result

	// depth caches distances to the root, per shadow crossing mode.
	depth map[bool]map[arena.Handle]int

	// The sweep in progress.
	kind  int
	dir   direction
	queue *nodeHeap
}

func (p *pass) mark(i int, h arena.Handle) {
	if p.dirty[i] == nil {
		p.dirty[i] = make(map[arena.Handle]struct{})
	}
	p.dirty[i][h] = struct{}{}
}

// seed turns recorded changes into dirty nodes.
func (p *pass) seed(changes map[arena.Handle]*arena.Change) {
	for h, c := range changes {
		n := p.a.Node(h)
		if n == nil {
			continue
		}
		for i, k := range p.e.kinds {
			if k.Mask.touchedBy(c) {
				p.mark(i, h)
				continue
			}
			if c.Parent && k.down() {
				p.mark(i, h)
			}
			if c.Children && k.up() {
				// With shadow crossing a host's light children belong to
				// its slot.
				if sh := n.Shadow(); k.CrossShadow && sh != nil && sh.Slot != arena.None {
					p.mark(i, sh.Slot)
				} else {
					p.mark(i, h)
				}
			}
		}
	}
}

// run brings kind i up to date.
func (p *pass) run(i int) {
	k := p.e.kinds[i]
	if !k.up() && !k.down() {
		for _, h := range p.take(i) {
			p.call(i, h)
		}
		return
	}
	for round := 0; len(p.dirty[i]) > 0; round++ {
		if round == maxRounds {
			panic(fmt.Errorf("%w: %q after %d rounds", ErrNoFixedPoint, k.Name, maxRounds))
		}
		if k.up() {
			p.sweep(i, upward)
		}
		if k.down() {
			p.sweep(i, downward)
		}
	}
}

// take empties kind i's dirty set and returns it in handle order.
func (p *pass) take(i int) []arena.Handle {
	hs := make([]arena.Handle, 0, len(p.dirty[i]))
	for h := range p.dirty[i] {
		hs = append(hs, h)
	}
	p.dirty[i] = nil
	slices.Sort(hs)
	return hs
}

// sweep processes kind i's dirty nodes in tree order: deepest first when
// going up, shallowest first when going down. Nodes reached in the same
// direction join the sweep.
func (p *pass) sweep(i int, dir direction) {
	cross := p.e.kinds[i].CrossShadow
	p.kind, p.dir = i, dir
	p.queue = &nodeHeap{up: dir == upward, queued: make(map[arena.Handle]bool)}
	for _, h := range p.take(i) {
		p.queue.add(h, p.depthOf(h, cross))
	}
	for p.queue.Len() > 0 {
		h := heap.Pop(p.queue).(queued).h
		p.call(i, h)
	}
	p.kind, p.dir, p.queue = -1, none, nil
}

// depthOf returns h's distance to the root of its tree.
func (p *pass) depthOf(h arena.Handle, cross bool) int {
	cache := p.depth[cross]
	if cache == nil {
		cache = make(map[arena.Handle]int)
		p.depth[cross] = cache
	}
	if d, ok := cache[h]; ok {
		return d
	}
	d := 0
	if parent := p.a.StateParent(h, cross); parent != arena.None {
		d = p.depthOf(parent, cross) + 1
	}
	cache[h] = d
	return d
}

// call runs kind i's update on h and propagates a change.
func (p *pass) call(i int, h arena.Handle) {
	k := p.e.kinds[i]
	n := p.a.Node(h)
	in := Input{
		Node:    NodeView{node: n, kind: k},
		Prev:    n.State(i),
		Context: p.ctx,
	}
	if len(k.Node) > 0 {
		in.deps = make([]any, len(k.Node))
		for j, d := range k.Node {
			in.deps[j] = n.State(p.e.index[d])
		}
	}
	if k.down() {
		if ph := p.a.StateParent(h, k.CrossShadow); ph != arena.None {
			pn := p.a.Node(ph)
			in.hasParent = true
			in.parent = make([]any, len(k.Parent))
			for j, d := range k.Parent {
				in.parent[j] = pn.State(p.e.index[d])
			}
		}
	}
	if k.up() {
		children := p.a.StateChildren(h, k.CrossShadow)
		in.children = make([][]any, len(children))
		for c, ch := range children {
			cn := p.a.Node(ch)
			vals := make([]any, len(k.Children))
			for j, d := range k.Children {
				vals[j] = cn.State(p.e.index[d])
			}
			in.children[c] = vals
		}
	}

	v, changed := k.Update(in)
	p.res.Calls[k.Name]++
	first := in.Prev == nil && v != nil
	p.a.SetState(h, i, v)
	if changed || first {
		p.res.Changed[k.Name] = append(p.res.Changed[k.Name], h)
		p.propagate(i, h)
	}
}

// propagate marks the values that read kind i on h.
func (p *pass) propagate(i int, h arena.Handle) {
	for _, j := range p.e.sameNode[i] {
		p.mark(j, h)
	}
	for _, j := range p.e.fromChildren[i] {
		if ph := p.a.StateParent(h, p.e.kinds[j].CrossShadow); ph != arena.None {
			p.reach(j, ph, upward)
		}
	}
	for _, j := range p.e.fromParent[i] {
		for _, c := range p.a.StateChildren(h, p.e.kinds[j].CrossShadow) {
			p.reach(j, c, downward)
		}
	}
}

// reach marks h for kind j, joining the running sweep when it goes the
// same way.
func (p *pass) reach(j int, h arena.Handle, dir direction) {
	if j == p.kind && dir == p.dir {
		p.queue.add(h, p.depthOf(h, p.e.kinds[j].CrossShadow))
		return
	}
	p.mark(j, h)
}

type queued struct {
	h     arena.Handle
	depth int
}

// nodeHeap orders nodes by depth, deepest first when up is set.
type nodeHeap struct {
	items  []queued
	up     bool
	queued map[arena.Handle]bool
}

func (q *nodeHeap) add(h arena.Handle, depth int) {
	if q.queued[h] {
		return
	}
	q.queued[h] = true
	heap.Push(q, queued{h: h, depth: depth})
}

func (q *nodeHeap) Len() int { return len(q.items) }

func (q *nodeHeap) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.depth != b.depth {
		if q.up {
			return a.depth > b.depth
		}
		return a.depth < b.depth
	}
	return a.h < b.h
}

func (q *nodeHeap) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *nodeHeap) Push(x any) { q.items = append(q.items, x.(queued)) }

func (q *nodeHeap) Pop() any {
	old := q.items
	x := old[len(old)-1]
	q.items = old[:len(old)-1]
	return x
}
