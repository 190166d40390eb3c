package state

import (
	"fmt"

	"github.com/dshills/arbor/internal/arena"
	"github.com/dshills/arbor/internal/mutation"
)

// NodeView is a node as seen by one kind: only the content in the kind's
// mask is readable. Reading anything else panics with ErrOutsideMask.
type NodeView struct {
	node *arena.Node
	kind *Kind
}

func (v NodeView) deny(what string) {
	panic(fmt.Errorf("%w: kind %q read %s", ErrOutsideMask, v.kind.Name, what))
}

// Handle returns the node's arena handle.
func (v NodeView) Handle() arena.Handle { return v.node.Handle() }

// ID returns the node's identity, if it has one.
func (v NodeView) ID() (mutation.ElementID, bool) { return v.node.ID() }

// NodeKind returns whether the node is an element, text or placeholder.
func (v NodeView) NodeKind() arena.Kind { return v.node.Kind() }

// Tag returns the element tag.
func (v NodeView) Tag() string {
	if !v.kind.Mask.Tag {
		v.deny("the tag")
	}
	return v.node.Tag()
}

// Text returns the text payload.
func (v NodeView) Text() string {
	if !v.kind.Mask.Text {
		v.deny("the text")
	}
	return v.node.Text()
}

// Attr returns an attribute value.
func (v NodeView) Attr(name string) (string, bool) {
	if !v.kind.Mask.Attrs.has(name) {
		v.deny(fmt.Sprintf("attribute %q", name))
	}
	return v.node.Attr(name)
}

// Attrs returns the masked attributes sorted by namespace and name.
func (v NodeView) Attrs() []arena.Attr {
	all := v.node.Attrs()
	if v.kind.Mask.Attrs.All {
		return all
	}
	out := all[:0:0]
	for _, a := range all {
		if v.kind.Mask.Attrs.has(a.Name) {
			out = append(out, a)
		}
	}
	return out
}

// Listeners returns the registered event names.
func (v NodeView) Listeners() []string {
	if !v.kind.Mask.Listeners {
		v.deny("the listeners")
	}
	return v.node.Listeners()
}
