package arena

import (
	"fmt"

	"github.com/dshills/arbor/internal/mutation"
)

// Every operation validates its inputs before touching the tree, so a
// failing operation leaves the arena unchanged.

// AssignID binds id to the node at path, relative to the node on top of
// the stack. path[0] is the template root index and is skipped.
func (a *Arena) AssignID(path []uint8, id mutation.ElementID) error {
	const op = "AssignId"
	top, err := a.top()
	if err != nil {
		return opError(op, id, err)
	}
	if len(path) == 0 {
		return opError(op, id, ErrBadPath)
	}
	h, ok := a.resolve(top, path[1:])
	if !ok {
		return opError(op, id, fmt.Errorf("%w: %v", ErrBadPath, path))
	}
	if _, bound := a.ids[id]; bound {
		return opError(op, id, ErrIDInUse)
	}
	if n := a.slab[h]; n.hasID {
		delete(a.ids, n.id)
	}
	a.bind(h, id)
	return nil
}

// CreatePlaceholder pushes a new placeholder bound to id.
func (a *Arena) CreatePlaceholder(id mutation.ElementID) error {
	if _, bound := a.ids[id]; bound {
		return opError("CreatePlaceholder", id, ErrIDInUse)
	}
	h := a.alloc(newNode(KindPlaceholder))
	a.bind(h, id)
	a.stack = append(a.stack, h)
	return nil
}

// CreateText pushes a new text node bound to id.
func (a *Arena) CreateText(value string, id mutation.ElementID) error {
	if _, bound := a.ids[id]; bound {
		return opError("CreateText", id, ErrIDInUse)
	}
	n := newNode(KindText)
	n.text = value
	h := a.alloc(n)
	a.bind(h, id)
	a.stack = append(a.stack, h)
	return nil
}

// LoadTemplate pushes a clone of root index of the named template, bound
// to id.
func (a *Arena) LoadTemplate(name string, index int, id mutation.ElementID) error {
	const op = "LoadTemplate"
	p, err := a.store.root(name, index)
	if err != nil {
		return opError(op, id, err)
	}
	if _, bound := a.ids[id]; bound {
		return opError(op, id, ErrIDInUse)
	}
	h := a.cloneProto(p)
	a.store.clones++
	a.bind(h, id)
	a.stack = append(a.stack, h)
	return nil
}

// AppendChildren pops m nodes and appends them to the node bound to id.
func (a *Arena) AppendChildren(id mutation.ElementID, m int) error {
	const op = "AppendChildren"
	parent, err := a.live(id)
	if err != nil {
		return opError(op, id, err)
	}
	nodes, err := a.peek(m)
	if err != nil {
		return opError(op, id, err)
	}
	if err := a.checkPlacement(parent, nodes); err != nil {
		return opError(op, id, err)
	}
	a.insert(parent, len(a.slab[parent].children), a.pop(m))
	return nil
}

// InsertBefore pops m nodes and inserts them before the node bound to id.
func (a *Arena) InsertBefore(id mutation.ElementID, m int) error {
	return a.insertRelative("InsertBefore", id, m, 0)
}

// InsertAfter pops m nodes and inserts them after the node bound to id.
func (a *Arena) InsertAfter(id mutation.ElementID, m int) error {
	return a.insertRelative("InsertAfter", id, m, 1)
}

func (a *Arena) insertRelative(op string, id mutation.ElementID, m, offset int) error {
	anchor, err := a.live(id)
	if err != nil {
		return opError(op, id, err)
	}
	parent := a.slab[anchor].parent
	if parent == None {
		return opError(op, id, ErrDetached)
	}
	nodes, err := a.peek(m)
	if err != nil {
		return opError(op, id, err)
	}
	if err := a.checkPlacement(parent, nodes); err != nil {
		return opError(op, id, err)
	}
	for _, h := range nodes {
		if h == anchor {
			return opError(op, id, ErrCycle)
		}
	}
	nodes = a.pop(m)
	// Nodes moved out from before the anchor shift its index, so compute
	// the position after detaching them.
	for _, h := range nodes {
		a.detach(h)
	}
	a.insert(parent, a.indexOf(anchor)+offset, nodes)
	return nil
}

// ReplaceWith pops m nodes, puts them where the node bound to id is, and
// removes that node's subtree.
func (a *Arena) ReplaceWith(id mutation.ElementID, m int) error {
	const op = "ReplaceWith"
	anchor, err := a.live(id)
	if err != nil {
		return opError(op, id, err)
	}
	if anchor == a.root {
		return opError(op, id, ErrRootRemoval)
	}
	parent := a.slab[anchor].parent
	if parent == None {
		return opError(op, id, ErrDetached)
	}
	nodes, err := a.peek(m)
	if err != nil {
		return opError(op, id, err)
	}
	if err := a.checkPlacement(parent, nodes); err != nil {
		return opError(op, id, err)
	}
	for _, h := range nodes {
		if a.isAncestor(anchor, h) {
			return opError(op, id, ErrCycle)
		}
	}
	a.replace(anchor, a.pop(m))
	return nil
}

// ReplacePlaceholder pops m nodes and replaces the node at path, relative
// to the node left on top of the stack, with them.
func (a *Arena) ReplacePlaceholder(path []uint8, m int) error {
	const op = "ReplacePlaceholder"
	if m < 0 {
		return opError(op, 0, fmt.Errorf("%w: need %d, have %d", ErrStackUnderflow, m+1, len(a.stack)))
	}
	entries, err := a.peek(m + 1)
	if err != nil {
		return opError(op, 0, err)
	}
	if len(path) < 2 {
		return opError(op, 0, fmt.Errorf("%w: %v", ErrBadPath, path))
	}
	base, nodes := entries[0], entries[1:]
	target, ok := a.resolve(base, path[1:])
	if !ok {
		return opError(op, 0, fmt.Errorf("%w: %v", ErrBadPath, path))
	}
	parent := a.slab[target].parent
	if err := a.checkPlacement(parent, nodes); err != nil {
		return opError(op, 0, err)
	}
	a.replace(target, a.pop(m))
	return nil
}

// replace puts nodes at old's position and releases old.
func (a *Arena) replace(old Handle, nodes []Handle) {
	for _, h := range nodes {
		a.detach(h)
	}
	parent := a.slab[old].parent
	a.insert(parent, a.indexOf(old), nodes)
	a.detach(old)
	a.release(old)
}

// Remove detaches the node bound to id and releases its subtree,
// unbinding every identity in it. Removing an unbound identity is a no-op:
// the producer may remove a node that an ancestor's removal already took.
func (a *Arena) Remove(id mutation.ElementID) error {
	h, ok := a.ids[id]
	if !ok {
		return nil
	}
	if h == a.root {
		return opError("Remove", id, ErrRootRemoval)
	}
	a.detach(h)
	a.release(h)
	return nil
}

// RemoveRange removes the node bound to id and its m-1 following siblings.
// Like Remove it is a no-op for an unbound identity.
func (a *Arena) RemoveRange(id mutation.ElementID, m int) error {
	const op = "RemoveRange"
	h, ok := a.ids[id]
	if !ok || m == 0 {
		return nil
	}
	if h == a.root {
		return opError(op, id, ErrRootRemoval)
	}
	if m < 0 {
		return opError(op, id, ErrBadRange)
	}
	parent := a.slab[h].parent
	if parent == None {
		return opError(op, id, ErrDetached)
	}
	start := a.indexOf(h)
	siblings := a.slab[parent].children
	if start+m > len(siblings) {
		return opError(op, id, ErrBadRange)
	}
	doomed := make([]Handle, m)
	copy(doomed, siblings[start:start+m])
	for _, d := range doomed {
		a.detach(d)
		a.release(d)
	}
	return nil
}

// PushRoot pushes the node bound to id onto the stack.
func (a *Arena) PushRoot(id mutation.ElementID) error {
	h, err := a.live(id)
	if err != nil {
		return opError("PushRoot", id, err)
	}
	if h == a.root {
		return opError("PushRoot", id, ErrRootRemoval)
	}
	a.stack = append(a.stack, h)
	return nil
}

// SetText updates the payload of the text node bound to id.
func (a *Arena) SetText(id mutation.ElementID, value string) error {
	h, err := a.live(id)
	if err != nil {
		return opError("SetText", id, err)
	}
	n := a.slab[h]
	if n.kind != KindText {
		return opError("SetText", id, ErrNotText)
	}
	if n.text != value {
		n.text = value
		a.change(h).Text = true
	}
	return nil
}

// SetAttribute sets an attribute of the element bound to id, or clears it
// when value is nil.
func (a *Arena) SetAttribute(id mutation.ElementID, name, namespace string, value *string) error {
	h, err := a.live(id)
	if err != nil {
		return opError("SetAttribute", id, err)
	}
	n := a.slab[h]
	if n.kind != KindElement {
		return opError("SetAttribute", id, ErrNotElement)
	}
	key := AttrKey{Name: name, Namespace: namespace}
	old, had := n.attrs[key]
	switch {
	case value == nil:
		if !had {
			return nil
		}
		delete(n.attrs, key)
	case had && old == *value:
		return nil
	default:
		if n.attrs == nil {
			n.attrs = make(map[AttrKey]string)
		}
		n.attrs[key] = *value
	}
	a.change(h).markAttr(name)
	return nil
}

// NewEventListener registers interest in the named event.
func (a *Arena) NewEventListener(name string, id mutation.ElementID) error {
	return a.setListener("NewEventListener", name, id, true)
}

// RemoveEventListener removes interest in the named event.
func (a *Arena) RemoveEventListener(name string, id mutation.ElementID) error {
	return a.setListener("RemoveEventListener", name, id, false)
}

func (a *Arena) setListener(op, name string, id mutation.ElementID, on bool) error {
	h, err := a.live(id)
	if err != nil {
		return opError(op, id, err)
	}
	n := a.slab[h]
	if n.kind != KindElement {
		return opError(op, id, ErrNotElement)
	}
	_, had := n.listeners[name]
	if had == on {
		return nil
	}
	if on {
		if n.listeners == nil {
			n.listeners = make(map[string]struct{})
		}
		n.listeners[name] = struct{}{}
	} else {
		delete(n.listeners, name)
	}
	a.change(h).Listeners = true
	return nil
}

// checkPlacement rejects placing a node under itself or a descendant, and
// placing the same node twice.
func (a *Arena) checkPlacement(parent Handle, nodes []Handle) error {
	seen := make(map[Handle]struct{}, len(nodes))
	for _, h := range nodes {
		if _, dup := seen[h]; dup {
			return ErrCycle
		}
		seen[h] = struct{}{}
		if a.isAncestor(h, parent) {
			return ErrCycle
		}
	}
	return nil
}
