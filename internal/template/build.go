package template

import (
	"errors"
	"fmt"
)

// Validation errors.
var (
	// ErrNoName indicates a template without a name.
	ErrNoName = errors.New("template has no name")

	// ErrNoRoots indicates a template without any root node.
	ErrNoRoots = errors.New("template has no roots")

	// ErrSlot indicates a dynamic slot that is missing, duplicated, or not
	// located by its path.
	ErrSlot = errors.New("invalid dynamic slot")

	// ErrTooWide indicates an element with more children than a path can
	// address.
	ErrTooWide = errors.New("too many children to address")
)

// maxChildren is the number of children addressable by a path element.
const maxChildren = 256

// Build creates a template from its roots, recording the path of every
// dynamic slot. It panics if the shape is invalid; templates come from a
// compiler and a malformed one is a bug, not a runtime condition.
func Build(name string, roots ...Node) *Template {
	t := &Template{Name: name, Roots: roots}

	nodePaths := map[int][]uint8{}
	attrPaths := map[int][]uint8{}
	for i, root := range roots {
		if i >= maxChildren {
			panic(fmt.Errorf("template %q: %w", name, ErrTooWide))
		}
		collectPaths(name, root, []uint8{uint8(i)}, nodePaths, attrPaths)
	}

	t.NodePaths = densePaths(name, "node", nodePaths)
	t.AttrPaths = densePaths(name, "attr", attrPaths)

	if err := t.Validate(); err != nil {
		panic(err)
	}
	return t
}

func collectPaths(name string, n Node, path []uint8, nodes, attrs map[int][]uint8) {
	switch n := n.(type) {
	case Element:
		for _, a := range n.Attrs {
			if d, ok := a.(DynamicAttr); ok {
				if _, dup := attrs[d.ID]; dup {
					panic(fmt.Errorf("template %q: attr slot %d used twice: %w", name, d.ID, ErrSlot))
				}
				attrs[d.ID] = clonePath(path)
			}
		}
		if len(n.Children) > maxChildren {
			panic(fmt.Errorf("template %q: %w", name, ErrTooWide))
		}
		for i, c := range n.Children {
			collectPaths(name, c, append(clonePath(path), uint8(i)), nodes, attrs)
		}
	case DynamicText:
		if _, dup := nodes[n.ID]; dup {
			panic(fmt.Errorf("template %q: node slot %d used twice: %w", name, n.ID, ErrSlot))
		}
		nodes[n.ID] = clonePath(path)
	case Dynamic:
		if _, dup := nodes[n.ID]; dup {
			panic(fmt.Errorf("template %q: node slot %d used twice: %w", name, n.ID, ErrSlot))
		}
		nodes[n.ID] = clonePath(path)
	case Text:
	}
}

func densePaths(name, kind string, m map[int][]uint8) [][]uint8 {
	out := make([][]uint8, len(m))
	for id, p := range m {
		if id < 0 || id >= len(m) {
			panic(fmt.Errorf("template %q: %s slot %d is not dense: %w", name, kind, id, ErrSlot))
		}
		out[id] = p
	}
	return out
}

func clonePath(p []uint8) []uint8 {
	out := make([]uint8, len(p))
	copy(out, p)
	return out
}

// Validate checks the template's internal consistency: every slot has
// exactly one path and every path locates the slot it belongs to.
func (t *Template) Validate() error {
	if t.Name == "" {
		return ErrNoName
	}
	if len(t.Roots) == 0 {
		return fmt.Errorf("template %q: %w", t.Name, ErrNoRoots)
	}

	seenNodes := make([]bool, len(t.NodePaths))
	seenAttrs := make([]bool, len(t.AttrPaths))
	var walk func(n Node) error
	walk = func(n Node) error {
		switch n := n.(type) {
		case Element:
			for _, a := range n.Attrs {
				if d, ok := a.(DynamicAttr); ok {
					if d.ID < 0 || d.ID >= len(seenAttrs) || seenAttrs[d.ID] {
						return fmt.Errorf("template %q: attr slot %d: %w", t.Name, d.ID, ErrSlot)
					}
					seenAttrs[d.ID] = true
				}
			}
			for _, c := range n.Children {
				if err := walk(c); err != nil {
					return err
				}
			}
		case DynamicText:
			if n.ID < 0 || n.ID >= len(seenNodes) || seenNodes[n.ID] {
				return fmt.Errorf("template %q: node slot %d: %w", t.Name, n.ID, ErrSlot)
			}
			seenNodes[n.ID] = true
		case Dynamic:
			if n.ID < 0 || n.ID >= len(seenNodes) || seenNodes[n.ID] {
				return fmt.Errorf("template %q: node slot %d: %w", t.Name, n.ID, ErrSlot)
			}
			seenNodes[n.ID] = true
		}
		return nil
	}
	for _, r := range t.Roots {
		if err := walk(r); err != nil {
			return err
		}
	}
	for i, ok := range seenNodes {
		if !ok {
			return fmt.Errorf("template %q: node slot %d has a path but no node: %w", t.Name, i, ErrSlot)
		}
	}
	for i, ok := range seenAttrs {
		if !ok {
			return fmt.Errorf("template %q: attr slot %d has a path but no attribute: %w", t.Name, i, ErrSlot)
		}
	}

	for i, p := range t.NodePaths {
		n, ok := t.Resolve(p)
		if !ok {
			return fmt.Errorf("template %q: node path %v does not resolve: %w", t.Name, p, ErrSlot)
		}
		switch n := n.(type) {
		case Dynamic:
			ok = n.ID == i
		case DynamicText:
			ok = n.ID == i
		default:
			ok = false
		}
		if !ok {
			return fmt.Errorf("template %q: node path %v does not locate slot %d: %w", t.Name, p, i, ErrSlot)
		}
	}
	for i, p := range t.AttrPaths {
		n, ok := t.Resolve(p)
		el, isEl := n.(Element)
		if !ok || !isEl || !hasDynamicAttr(el, i) {
			return fmt.Errorf("template %q: attr path %v does not locate slot %d: %w", t.Name, p, i, ErrSlot)
		}
	}
	return nil
}

func hasDynamicAttr(el Element, id int) bool {
	for _, a := range el.Attrs {
		if d, ok := a.(DynamicAttr); ok && d.ID == id {
			return true
		}
	}
	return false
}

// El is a convenience constructor for an Element without a namespace.
func El(tag string, attrs []Attr, children ...Node) Element {
	return Element{Tag: tag, Attrs: attrs, Children: children}
}

// Attrs is a convenience constructor for an attribute list.
func Attrs(attrs ...Attr) []Attr {
	return attrs
}

// Static is a convenience constructor for a StaticAttr without a namespace.
func Static(name, value string) StaticAttr {
	return StaticAttr{Name: name, Value: value}
}
