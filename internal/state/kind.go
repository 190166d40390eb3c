package state

import (
	"slices"

	"github.com/dshills/arbor/internal/arena"
)

// AttrMask selects the attributes a kind reads.
type AttrMask struct {
	// All selects every attribute.
	All bool

	// Names selects attributes by name when All is false.
	Names []string
}

// AttrNames returns a mask over the named attributes.
func AttrNames(names ...string) AttrMask {
	return AttrMask{Names: names}
}

// AllAttrs is the mask over every attribute.
var AllAttrs = AttrMask{All: true}

func (m AttrMask) has(name string) bool {
	return m.All || slices.Contains(m.Names, name)
}

// Mask declares the node content a kind reads. A change to anything
// outside the mask never causes the kind to run.
type Mask struct {
	Attrs     AttrMask
	Text      bool
	Tag       bool
	Listeners bool
}

// touchedBy reports whether c changed content inside the mask.
func (m Mask) touchedBy(c *arena.Change) bool {
	if c.Created {
		return true
	}
	if (m.Text && c.Text) || (m.Listeners && c.Listeners) {
		return true
	}
	if len(c.Attrs) == 0 {
		return false
	}
	if m.Attrs.All {
		return true
	}
	for _, name := range m.Attrs.Names {
		if c.AttrChanged(name) {
			return true
		}
	}
	return false
}

// Kind is one kind of derived state.
type Kind struct {
	Name string
	Mask Mask

	// Node lists kinds read on the same node. They must not form a cycle.
	Node []*Kind

	// Parent lists kinds read on the parent. It may include the kind
	// itself.
	Parent []*Kind

	// Children lists kinds read on every child. It may include the kind
	// itself.
	Children []*Kind

	// CrossShadow makes the kind see through custom element boundaries:
	// a shadow root's parent is its host and the host's light children
	// hang below its slot. Without it shadow trees are separate.
	CrossShadow bool

	// Update computes the node's value and reports whether it differs
	// from the previous one.
	Update func(in Input) (any, bool)
}

func (k *Kind) up() bool   { return len(k.Children) > 0 }
func (k *Kind) down() bool { return len(k.Parent) > 0 }
