package vdom

import (
	"fmt"
	"slices"

	"github.com/dshills/arbor/internal/mutation"
	"github.com/dshills/arbor/internal/template"
)

// create emits the mutations that build v and leaves its top level nodes
// on the stack. It returns how many nodes it pushed.
//
// For each Element or Text root the order is: LoadTemplate, the
// attributes and AssignIDs of everything under the root, then the dynamic
// nodes under it in reverse document order so that replacing one
// placeholder never shifts the path of another still to be replaced.
func (vd *VirtualDOM) create(v *VNode) int {
	if v.mount != nil {
		panic(fmt.Errorf("%w: template %q", ErrAlreadyMounted, v.Template.Name))
	}
	checkSlots(v)
	t := v.Template
	vd.useTemplate(t)

	m := &mount{
		roots: make([]mutation.ElementID, len(t.Roots)),
		attrs: make([]mutation.ElementID, t.AttrSlots()),
		nodes: make([]slotMount, t.NodeSlots()),
	}
	v.mount = m

	pushed := 0
	for i, root := range t.Roots {
		switch r := root.(type) {
		case template.Dynamic:
			pushed += vd.createSlot(v.DynamicNodes[r.ID], &m.nodes[r.ID])
		case template.DynamicText:
			id := vd.ids.alloc()
			m.nodes[r.ID].id = id
			vd.push(mutation.CreateText{Value: v.DynamicNodes[r.ID].(Text).Value, ID: id})
			pushed++
		default:
			vd.createRoot(v, i)
			pushed++
		}
	}
	return pushed
}

// createRoot loads template root i and fills the slots under it.
func (vd *VirtualDOM) createRoot(v *VNode, i int) {
	t, m := v.Template, v.mount
	rootID := vd.ids.alloc()
	m.roots[i] = rootID
	vd.push(mutation.LoadTemplate{Name: t.Name, Index: i, ID: rootID})

	// Several attribute slots may sit on the same element.
	byPath := make(map[string]mutation.ElementID)
	for _, slot := range t.AttrSlotsUnder(i) {
		path := t.AttrPaths[slot]
		id := rootID
		if len(path) > 1 {
			var ok bool
			if id, ok = byPath[string(path)]; !ok {
				id = vd.ids.alloc()
				byPath[string(path)] = id
				vd.push(mutation.AssignID{Path: slices.Clone(path), ID: id})
			}
		}
		m.attrs[slot] = id
		vd.writeAttr(id, v.DynamicAttrs[slot])
	}

	nodeSlots := t.NodeSlotsUnder(i)
	var dynamic []int
	for _, slot := range nodeSlots {
		path := t.NodePaths[slot]
		n, _ := t.Resolve(path)
		if _, ok := n.(template.DynamicText); !ok {
			dynamic = append(dynamic, slot)
			continue
		}
		id := vd.ids.alloc()
		m.nodes[slot].id = id
		vd.push(mutation.AssignID{Path: slices.Clone(path), ID: id})
		if s := v.DynamicNodes[slot].(Text).Value; s != "" {
			vd.push(mutation.SetText{ID: id, Value: s})
		}
	}

	for j := len(dynamic) - 1; j >= 0; j-- {
		slot := dynamic[j]
		path := t.NodePaths[slot]
		dn, sm := v.DynamicNodes[slot], &m.nodes[slot]
		// Anything that renders as a single placeholder reuses the
		// template's own placeholder.
		if rendersEmpty(dn) {
			sm.id = vd.ids.alloc()
			vd.push(mutation.AssignID{Path: slices.Clone(path), ID: sm.id})
			continue
		}
		n := vd.createSlot(dn, sm)
		vd.push(mutation.ReplacePlaceholder{Path: slices.Clone(path), M: n})
	}
}

// rendersEmpty reports whether dn renders as a bare placeholder.
// Components are not considered: they must render to find out.
func rendersEmpty(dn DynamicNode) bool {
	switch dn := dn.(type) {
	case Placeholder:
		return true
	case Fragment:
		return len(dn.Nodes) == 0
	}
	return false
}

// createSlot emits a dynamic node and returns how many nodes it pushed.
func (vd *VirtualDOM) createSlot(dn DynamicNode, sm *slotMount) int {
	switch dn := dn.(type) {
	case Text:
		sm.id = vd.ids.alloc()
		vd.push(mutation.CreateText{Value: dn.Value, ID: sm.id})
		return 1
	case Placeholder:
		return vd.createPlaceholder(sm)
	case Fragment:
		if len(dn.Nodes) == 0 {
			return vd.createPlaceholder(sm)
		}
		n := 0
		for _, child := range dn.Nodes {
			n += vd.create(child)
		}
		return n
	case Component:
		sm.rendered = vd.renderComponent(dn)
		if sm.rendered == nil {
			return vd.createPlaceholder(sm)
		}
		return vd.create(sm.rendered)
	default:
		panic(fmt.Errorf("%w: %T", ErrSlotKind, dn))
	}
}

func (vd *VirtualDOM) createPlaceholder(sm *slotMount) int {
	sm.id = vd.ids.alloc()
	vd.push(mutation.CreatePlaceholder{ID: sm.id})
	return 1
}

func (vd *VirtualDOM) renderComponent(c Component) *VNode {
	if c.Render == nil {
		panic(fmt.Errorf("%w: component %q has no render function", ErrSlotKind, c.Name))
	}
	vd.renders++
	return c.Render(c.Props)
}

// writeAttr emits the mutations for a freshly created attribute.
func (vd *VirtualDOM) writeAttr(id mutation.ElementID, a Attribute) {
	if isListener(a.Value) {
		vd.push(mutation.NewEventListener{Name: a.Name, ID: id})
		return
	}
	if s := vd.falsy.render(a); s != nil {
		vd.push(mutation.SetAttribute{ID: id, Name: a.Name, Namespace: a.Namespace, Value: s})
	}
}
