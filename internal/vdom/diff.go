package vdom

import (
	"fmt"
	"reflect"

	"github.com/dshills/arbor/internal/mutation"
)

// diff brings the rendered old up to date with next and moves old's mount
// to next.
func (vd *VirtualDOM) diff(old, next *VNode) {
	if old == next {
		return
	}
	if next.mount != nil {
		panic(fmt.Errorf("%w: template %q", ErrAlreadyMounted, next.Template.Name))
	}
	if next.Template == nil || old.Template.Name != next.Template.Name || old.Key != next.Key {
		vd.replace(old, next)
		return
	}
	checkSlots(next)
	vd.useTemplate(next.Template)

	m := old.mount
	old.mount = nil
	next.mount = m

	for slot := range next.DynamicAttrs {
		vd.diffAttr(m.attrs[slot], old.DynamicAttrs[slot], next.DynamicAttrs[slot])
	}
	for slot := range next.DynamicNodes {
		vd.diffSlot(old.DynamicNodes[slot], next.DynamicNodes[slot], &m.nodes[slot])
	}
}

// replace builds next in place of old.
func (vd *VirtualDOM) replace(old, next *VNode) {
	n := vd.create(next)
	vd.replaceIDs(topIDs(old, nil), n)
	vd.release(old)
}

// replaceIDs puts the n nodes on top of the stack where ids are.
func (vd *VirtualDOM) replaceIDs(ids []mutation.ElementID, n int) {
	vd.push(mutation.ReplaceWith{ID: ids[0], M: n})
	for _, id := range ids[1:] {
		vd.push(mutation.Remove{ID: id})
	}
}

func (vd *VirtualDOM) diffSlot(old, next DynamicNode, sm *slotMount) {
	if rendersEmpty(old) && rendersEmpty(next) {
		return
	}
	switch o := old.(type) {
	case Text:
		if n, ok := next.(Text); ok {
			if o.Value != n.Value {
				vd.push(mutation.SetText{ID: sm.id, Value: n.Value})
			}
			return
		}
	case Fragment:
		if n, ok := next.(Fragment); ok {
			vd.diffFragment(o.Nodes, n.Nodes, sm)
			return
		}
	case Component:
		if n, ok := next.(Component); ok && n.Name == o.Name {
			vd.diffComponent(o, n, sm)
			return
		}
	}
	vd.replaceSlot(old, next, sm)
}

// replaceSlot builds next in place of whatever old rendered.
func (vd *VirtualDOM) replaceSlot(old, next DynamicNode, sm *slotMount) {
	ids := slotTopIDs(old, sm, nil)
	prev := *sm
	*sm = slotMount{}
	n := vd.createSlot(next, sm)
	vd.replaceIDs(ids, n)
	vd.releaseSlot(old, &prev)
}

// diffFragment compares children by position. Growth inserts the new
// tail after the last kept child; shrinking removes the old tail with a
// single RemoveRange.
func (vd *VirtualDOM) diffFragment(old, next []*VNode, sm *slotMount) {
	switch {
	case len(old) == 0:
		n := 0
		for _, child := range next {
			n += vd.create(child)
		}
		vd.push(mutation.ReplaceWith{ID: sm.id, M: n})
		vd.ids.release(sm.id)
		sm.id = 0

	case len(next) == 0:
		ids := fragmentIDs(old)
		vd.createPlaceholder(sm)
		vd.push(mutation.ReplaceWith{ID: ids[0], M: 1})
		if len(ids) > 1 {
			vd.push(mutation.RemoveRange{ID: ids[1], M: len(ids) - 1})
		}
		for _, child := range old {
			vd.release(child)
		}

	default:
		shared := min(len(old), len(next))
		for i := range shared {
			vd.diff(old[i], next[i])
		}
		switch {
		case len(next) > shared:
			anchor := lastID(next[shared-1])
			n := 0
			for _, child := range next[shared:] {
				n += vd.create(child)
			}
			vd.push(mutation.InsertAfter{ID: anchor, M: n})
		case len(old) > shared:
			ids := fragmentIDs(old[shared:])
			vd.push(mutation.RemoveRange{ID: ids[0], M: len(ids)})
			for _, child := range old[shared:] {
				vd.release(child)
			}
		}
	}
}

func fragmentIDs(nodes []*VNode) []mutation.ElementID {
	var ids []mutation.ElementID
	for _, v := range nodes {
		ids = topIDs(v, ids)
	}
	return ids
}

func (vd *VirtualDOM) diffComponent(old, next Component, sm *slotMount) {
	if propsEqual(old.Props, next.Props) {
		vd.skipped++
		return
	}
	rendered := vd.renderComponent(next)
	prev := sm.rendered
	switch {
	case prev == nil && rendered == nil:
	case prev == nil:
		n := vd.create(rendered)
		vd.push(mutation.ReplaceWith{ID: sm.id, M: n})
		vd.ids.release(sm.id)
		sm.id = 0
	case rendered == nil:
		ids := topIDs(prev, nil)
		vd.createPlaceholder(sm)
		vd.replaceIDs(ids, 1)
		vd.release(prev)
	default:
		vd.diff(prev, rendered)
	}
	sm.rendered = rendered
}

// propsEqual reports whether a component can skip rendering.
func propsEqual(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return va.Equal(vb)
}

func (vd *VirtualDOM) diffAttr(id mutation.ElementID, old, next Attribute) {
	if old.Name != next.Name || old.Namespace != next.Namespace {
		vd.clearAttr(id, old)
		vd.writeAttr(id, next)
		return
	}
	oldL, nextL := isListener(old.Value), isListener(next.Value)
	switch {
	case oldL && nextL:
	case oldL:
		vd.push(mutation.RemoveEventListener{Name: old.Name, ID: id})
		vd.writeAttr(id, next)
	case nextL:
		vd.clearAttr(id, old)
		vd.push(mutation.NewEventListener{Name: next.Name, ID: id})
	default:
		was, now := vd.falsy.render(old), vd.falsy.render(next)
		if !sameString(was, now) {
			vd.push(mutation.SetAttribute{ID: id, Name: next.Name, Namespace: next.Namespace, Value: now})
		}
	}
}

func (vd *VirtualDOM) clearAttr(id mutation.ElementID, a Attribute) {
	if isListener(a.Value) {
		vd.push(mutation.RemoveEventListener{Name: a.Name, ID: id})
		return
	}
	if vd.falsy.render(a) != nil {
		vd.push(mutation.SetAttribute{ID: id, Name: a.Name, Namespace: a.Namespace})
	}
}
