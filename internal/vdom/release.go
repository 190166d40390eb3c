package vdom

import "github.com/dshills/arbor/internal/mutation"

// release returns every identity held by v and its descendants to the
// slab. It emits nothing: removing v's top level nodes takes the rest
// with them.
func (vd *VirtualDOM) release(v *VNode) {
	m := v.mount
	if m == nil {
		return
	}
	v.mount = nil

	freed := make(map[mutation.ElementID]struct{})
	free := func(id mutation.ElementID) {
		if id == mutation.RootID {
			return
		}
		if _, dup := freed[id]; dup {
			return
		}
		freed[id] = struct{}{}
		vd.ids.release(id)
	}
	for _, id := range m.roots {
		free(id)
	}
	for _, id := range m.attrs {
		free(id)
	}
	for slot, dn := range v.DynamicNodes {
		vd.releaseSlot(dn, &m.nodes[slot])
	}
}

func (vd *VirtualDOM) releaseSlot(dn DynamicNode, sm *slotMount) {
	switch dn := dn.(type) {
	case Fragment:
		for _, child := range dn.Nodes {
			vd.release(child)
		}
	case Component:
		if sm.rendered != nil {
			vd.release(sm.rendered)
		}
	}
	vd.ids.release(sm.id)
	*sm = slotMount{}
}
