package arena

import "fmt"

// Shadow is the hidden tree of a custom element host.
type Shadow struct {
	// Root is the top of the shadow tree.
	Root Handle
	// Slot receives the host's light children when the tree is composed.
	Slot Handle
}

// CustomElement builds the shadow tree of a host element. It is called once
// for every element with the registered tag, when the element is created.
type CustomElement func(b *ShadowBuilder)

// RegisterCustomElement makes every element created with tag a shadow host.
// Registration affects elements created afterwards only.
func (a *Arena) RegisterCustomElement(tag string, ce CustomElement) {
	a.custom[tag] = ce
}

// ShadowBuilder creates the nodes of one shadow tree. Shadow nodes never
// get an ElementID; they are invisible to the mutation protocol.
type ShadowBuilder struct {
	a     *Arena
	host  Handle
	first Handle
	root  Handle
	slot  Handle
}

// Host returns the host element being built.
func (b *ShadowBuilder) Host() *Node {
	return b.a.slab[b.host]
}

// Element creates a detached shadow element.
func (b *ShadowBuilder) Element(tag string, attrs ...Attr) Handle {
	n := newNode(KindElement)
	n.tag = tag
	if len(attrs) > 0 {
		n.attrs = make(map[AttrKey]string, len(attrs))
		for _, at := range attrs {
			n.attrs[at.AttrKey] = at.Value
		}
	}
	return b.created(n)
}

// Text creates a detached shadow text node.
func (b *ShadowBuilder) Text(s string) Handle {
	n := newNode(KindText)
	n.text = s
	return b.created(n)
}

func (b *ShadowBuilder) created(n *Node) Handle {
	h := b.a.alloc(n)
	if b.first == None {
		b.first = h
	}
	return h
}

// Append appends child to parent inside the shadow tree.
func (b *ShadowBuilder) Append(parent, child Handle) {
	p := b.a.slab[parent]
	c := b.a.slab[child]
	c.parent = parent
	p.children = append(p.children, child)
}

// Root designates the shadow root. Defaults to the first created node.
func (b *ShadowBuilder) Root(h Handle) {
	b.root = h
}

// Slot designates the node that receives the host's light children.
// Without a slot the light children are not projected.
func (b *ShadowBuilder) Slot(h Handle) {
	b.slot = h
}

func (a *Arena) attachShadow(host Handle, ce CustomElement) {
	b := &ShadowBuilder{a: a, host: host, first: None, root: None, slot: None}
	ce(b)
	if b.root == None {
		if b.first == None {
			panic(fmt.Sprintf("arena: custom element %q built no shadow root", a.slab[host].tag))
		}
		b.root = b.first
	}

	root := a.slab[b.root]
	if root.parent != None {
		panic(fmt.Sprintf("arena: shadow root of %q has a parent", a.slab[host].tag))
	}
	root.host = host
	if b.slot != None {
		a.slab[b.slot].slotOf = host
	}
	a.slab[host].shadow = &Shadow{Root: b.root, Slot: b.slot}
	a.setDepth(b.root, a.slab[host].depth+1)
}

// StateParent returns the parent of h for derived state purposes. With
// crossShadow, a shadow root's parent is its host and a light child's
// parent is the host's slot. Without it, a shadow root has no parent.
func (a *Arena) StateParent(h Handle, crossShadow bool) Handle {
	n := a.slab[h]
	if n.parent == None {
		if n.host != None && crossShadow {
			return n.host
		}
		return None
	}
	if crossShadow {
		if p := a.slab[n.parent]; p.shadow != nil && p.shadow.Slot != None {
			return p.shadow.Slot
		}
	}
	return n.parent
}

// StateChildren returns the children of h for derived state purposes. With
// crossShadow, a host's only child is its shadow root and a slot's children
// are followed by the host's light children.
func (a *Arena) StateChildren(h Handle, crossShadow bool) []Handle {
	n := a.slab[h]
	if !crossShadow {
		return n.children
	}
	if n.shadow != nil {
		return []Handle{n.shadow.Root}
	}
	if n.slotOf != None {
		light := a.slab[n.slotOf].children
		if len(n.children) == 0 {
			return light
		}
		out := make([]Handle, 0, len(n.children)+len(light))
		out = append(out, n.children...)
		return append(out, light...)
	}
	return n.children
}
