package vdom

import (
	"fmt"

	"github.com/dshills/arbor/internal/mutation"
	"github.com/dshills/arbor/internal/template"
)

// VNode is one instantiation of a template: the template plus the values
// filling its dynamic slots. DynamicNodes[i] fills node slot i and
// DynamicAttrs[i] fills attribute slot i.
//
// A VNode may be mounted in one place at a time. Passing the VNode that is
// already mounted at a position back to Diff at the same position skips it.
type VNode struct {
	// Key distinguishes instances of the same template. Two VNodes with the
	// same template and different keys are never diffed against each other.
	Key string

	Template     *template.Template
	DynamicNodes []DynamicNode
	DynamicAttrs []Attribute

	mount *mount
}

// NewVNode builds a VNode and checks the dynamic values against the
// template's slots. It panics on a mismatch.
func NewVNode(t *template.Template, nodes []DynamicNode, attrs []Attribute) *VNode {
	v := &VNode{Template: t, DynamicNodes: nodes, DynamicAttrs: attrs}
	checkSlots(v)
	return v
}

// WithKey sets the key and returns v.
func (v *VNode) WithKey(key string) *VNode {
	v.Key = key
	return v
}

// Mounted reports whether v is part of a rendered tree.
func (v *VNode) Mounted() bool {
	return v.mount != nil
}

// RootIDs returns the identities of v's top level nodes in sibling order.
// It returns nil for an unmounted VNode.
func (v *VNode) RootIDs() []mutation.ElementID {
	if v.mount == nil {
		return nil
	}
	return topIDs(v, nil)
}

// checkSlots panics unless the dynamic values fit the template.
func checkSlots(v *VNode) {
	t := v.Template
	if t == nil {
		panic(fmt.Errorf("%w: vnode has no template", ErrArity))
	}
	if len(v.DynamicNodes) != t.NodeSlots() || len(v.DynamicAttrs) != t.AttrSlots() {
		panic(fmt.Errorf("%w: template %q has %d node and %d attr slots, got %d and %d",
			ErrArity, t.Name, t.NodeSlots(), t.AttrSlots(), len(v.DynamicNodes), len(v.DynamicAttrs)))
	}
	for i, path := range t.NodePaths {
		n, _ := t.Resolve(path)
		if _, text := n.(template.DynamicText); !text {
			continue
		}
		if _, ok := v.DynamicNodes[i].(Text); !ok {
			panic(fmt.Errorf("%w: template %q slot %d takes text, got %T",
				ErrSlotKind, t.Name, i, v.DynamicNodes[i]))
		}
	}
	for i, dn := range v.DynamicNodes {
		if dn == nil {
			panic(fmt.Errorf("%w: template %q slot %d is nil", ErrSlotKind, t.Name, i))
		}
	}
}

// DynamicNode fills a Dynamic or DynamicText slot.
// The set of implementations is closed: Text, Placeholder, Fragment,
// Component.
type DynamicNode interface {
	dynamicNode()
}

// Text is a text node. It is the only value a DynamicText slot accepts.
type Text struct {
	Value string
}

// Placeholder renders nothing but holds the slot's position.
type Placeholder struct{}

// Fragment is an ordered list of VNodes. An empty fragment renders as a
// placeholder.
type Fragment struct {
	Nodes []*VNode
}

// Component is a nested unit that produces its own VNode. Render is called
// with Props; returning nil renders a placeholder.
//
// When Props is non-nil, comparable and equal to the previous render's
// Props, the component is not rendered again.
type Component struct {
	Name   string
	Props  any
	Render func(props any) *VNode
}

func (Text) dynamicNode()        {}
func (Placeholder) dynamicNode() {}
func (Fragment) dynamicNode()    {}
func (Component) dynamicNode()   {}

// Frag builds a Fragment from its arguments.
func Frag(nodes ...*VNode) Fragment {
	return Fragment{Nodes: nodes}
}

// mount is the rendered state of a VNode, moved from the old VNode to the
// new one when they are diffed.
type mount struct {
	// roots holds the identity of each Element or Text template root.
	// Dynamic roots are found through nodes.
	roots []mutation.ElementID

	// attrs holds the identity of the element carrying each attribute slot.
	attrs []mutation.ElementID

	nodes []slotMount
}

// slotMount is the rendered state of one dynamic node slot.
type slotMount struct {
	// id is the text or placeholder node, or the anchor of an empty
	// fragment or of a component that rendered nothing.
	id mutation.ElementID

	// rendered is a component's output.
	rendered *VNode
}

// topIDs appends the identities of v's top level nodes to out.
func topIDs(v *VNode, out []mutation.ElementID) []mutation.ElementID {
	for i, root := range v.Template.Roots {
		switch r := root.(type) {
		case template.Dynamic:
			out = slotTopIDs(v.DynamicNodes[r.ID], &v.mount.nodes[r.ID], out)
		case template.DynamicText:
			out = append(out, v.mount.nodes[r.ID].id)
		default:
			out = append(out, v.mount.roots[i])
		}
	}
	return out
}

func slotTopIDs(dn DynamicNode, sm *slotMount, out []mutation.ElementID) []mutation.ElementID {
	switch dn := dn.(type) {
	case Fragment:
		if len(dn.Nodes) == 0 {
			return append(out, sm.id)
		}
		for _, child := range dn.Nodes {
			out = topIDs(child, out)
		}
		return out
	case Component:
		if sm.rendered == nil {
			return append(out, sm.id)
		}
		return topIDs(sm.rendered, out)
	default:
		return append(out, sm.id)
	}
}

func firstID(v *VNode) mutation.ElementID {
	return topIDs(v, nil)[0]
}

func lastID(v *VNode) mutation.ElementID {
	ids := topIDs(v, nil)
	return ids[len(ids)-1]
}
