package arena

import (
	"sort"

	"github.com/dshills/arbor/internal/mutation"
)

// Handle is an index into the arena's node slab.
type Handle int

// None is the null handle.
const None Handle = -1

// Kind distinguishes node records.
type Kind uint8

const (
	KindElement Kind = iota
	KindText
	KindPlaceholder
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindPlaceholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

// AttrKey identifies an attribute.
type AttrKey struct {
	Name      string
	Namespace string
}

// Attr is an attribute and its value.
type Attr struct {
	AttrKey
	Value string
}

// Node is a materialized node record.
// Callers outside the arena only read nodes; all writes go through Arena.
type Node struct {
	handle    Handle
	kind      Kind
	tag       string
	namespace string
	attrs     map[AttrKey]string
	text      string
	listeners map[string]struct{}

	id    mutation.ElementID
	hasID bool

	parent   Handle
	children []Handle
	depth    int

	// shadow is set on custom element hosts.
	shadow *Shadow
	// host is set on shadow roots and points at their host.
	host Handle
	// slotOf is set on shadow slots and points at the host whose light
	// children they receive.
	slotOf Handle

	states []any
}

func newNode(kind Kind) *Node {
	return &Node{
		kind:   kind,
		parent: None,
		host:   None,
		slotOf: None,
	}
}

// Handle returns the node's slab index.
func (n *Node) Handle() Handle { return n.handle }

// Kind returns the node kind.
func (n *Node) Kind() Kind { return n.kind }

// Tag returns the element tag, or "" for non elements.
func (n *Node) Tag() string { return n.tag }

// Namespace returns the element namespace.
func (n *Node) Namespace() string { return n.namespace }

// Text returns the text payload of a text node.
func (n *Node) Text() string { return n.text }

// ID returns the node's external identity, if one is bound.
func (n *Node) ID() (mutation.ElementID, bool) { return n.id, n.hasID }

// Parent returns the parent handle, or None.
func (n *Node) Parent() Handle { return n.parent }

// Children returns the child handles in sibling order. The slice must not be
// modified.
func (n *Node) Children() []Handle { return n.children }

// Depth returns the distance from the mount root. Shadow roots are one
// deeper than their host.
func (n *Node) Depth() int { return n.depth }

// Attr returns the value of an attribute without a namespace.
func (n *Node) Attr(name string) (string, bool) {
	return n.AttrNS(name, "")
}

// AttrNS returns the value of a namespaced attribute.
func (n *Node) AttrNS(name, namespace string) (string, bool) {
	v, ok := n.attrs[AttrKey{Name: name, Namespace: namespace}]
	return v, ok
}

// Attrs returns all attributes sorted by namespace and name.
func (n *Node) Attrs() []Attr {
	out := make([]Attr, 0, len(n.attrs))
	for k, v := range n.attrs {
		out = append(out, Attr{AttrKey: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Namespace != out[j].Namespace {
			return out[i].Namespace < out[j].Namespace
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Listeners returns the registered event names, sorted.
func (n *Node) Listeners() []string {
	out := make([]string, 0, len(n.listeners))
	for name := range n.listeners {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// HasListener reports whether the node listens for the named event.
func (n *Node) HasListener(name string) bool {
	_, ok := n.listeners[name]
	return ok
}

// Shadow returns the shadow tree hosted by this node, or nil.
func (n *Node) Shadow() *Shadow { return n.shadow }

// Host returns the host of a shadow root, or None.
func (n *Node) Host() Handle { return n.host }

// SlotOf returns the host whose light children this slot receives, or None.
func (n *Node) SlotOf() Handle { return n.slotOf }

// State returns derived state stored in slot, or nil.
func (n *Node) State(slot int) any {
	if slot < 0 || slot >= len(n.states) {
		return nil
	}
	return n.states[slot]
}

// clone copies the record's content without relations or identity.
func (n *Node) clone() *Node {
	c := newNode(n.kind)
	c.tag = n.tag
	c.namespace = n.namespace
	c.text = n.text
	if len(n.attrs) > 0 {
		c.attrs = make(map[AttrKey]string, len(n.attrs))
		for k, v := range n.attrs {
			c.attrs[k] = v
		}
	}
	return c
}
