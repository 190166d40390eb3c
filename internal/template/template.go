package template

import (
	"fmt"
	"strconv"
)

// Template is an immutable description of a static tree shape.
type Template struct {
	// Name identifies the template. It is the cache key used by renderers
	// and must be unique per distinct shape.
	Name string

	// Roots are the top level nodes in sibling order.
	Roots []Node

	// NodePaths[i] locates the Dynamic or DynamicText node with ID i.
	NodePaths [][]uint8

	// AttrPaths[i] locates the element carrying DynamicAttr i.
	AttrPaths [][]uint8
}

// Node is a node of a template's static shape.
// The set of implementations is closed: Element, Text, DynamicText, Dynamic.
type Node interface {
	templateNode()
}

// Element is a static element with attributes and children.
type Element struct {
	Tag       string
	Namespace string
	Attrs     []Attr
	Children  []Node
}

// Text is a literal text node.
type Text struct {
	Text string
}

// DynamicText is a text node whose content is supplied per instance.
type DynamicText struct {
	ID int
}

// Dynamic is a hole filled by a dynamic node per instance.
type Dynamic struct {
	ID int
}

func (Element) templateNode()     {}
func (Text) templateNode()        {}
func (DynamicText) templateNode() {}
func (Dynamic) templateNode()     {}

// Attr is an attribute of a template element.
// The set of implementations is closed: StaticAttr, DynamicAttr.
type Attr interface {
	templateAttr()
}

// StaticAttr is an attribute whose value is fixed by the template.
type StaticAttr struct {
	Name      string
	Namespace string
	Value     string
}

// DynamicAttr is an attribute supplied per instance.
type DynamicAttr struct {
	ID int
}

func (StaticAttr) templateAttr()  {}
func (DynamicAttr) templateAttr() {}

// NodeSlots returns the number of dynamic node slots.
func (t *Template) NodeSlots() int {
	return len(t.NodePaths)
}

// AttrSlots returns the number of dynamic attribute slots.
func (t *Template) AttrSlots() int {
	return len(t.AttrPaths)
}

// Resolve returns the node located by path.
func (t *Template) Resolve(path []uint8) (Node, bool) {
	if len(path) == 0 || int(path[0]) >= len(t.Roots) {
		return nil, false
	}
	node := t.Roots[path[0]]
	for _, idx := range path[1:] {
		el, ok := node.(Element)
		if !ok || int(idx) >= len(el.Children) {
			return nil, false
		}
		node = el.Children[idx]
	}
	return node, true
}

// NodeSlotsUnder returns the dynamic node slots located under root, in
// document order.
func (t *Template) NodeSlotsUnder(root int) []int {
	return slotsUnder(t.NodePaths, root)
}

// AttrSlotsUnder returns the dynamic attribute slots located under root, in
// document order.
func (t *Template) AttrSlotsUnder(root int) []int {
	return slotsUnder(t.AttrPaths, root)
}

func slotsUnder(paths [][]uint8, root int) []int {
	var out []int
	for i, p := range paths {
		if len(p) > 0 && int(p[0]) == root {
			out = append(out, i)
		}
	}
	// Paths are recorded in document order by Build, but hand written
	// templates may list them in any order.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && ComparePaths(paths[out[j]], paths[out[j-1]]) < 0; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// ComparePaths orders two paths in document (pre-order) order.
func ComparePaths(a, b []uint8) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Location builds a template name from a source location. The compiler
// names templates this way so names are stable across builds.
func Location(file string, line, column, index int) string {
	return file + ":" + strconv.Itoa(line) + ":" + strconv.Itoa(column) + ":" + strconv.Itoa(index)
}

// String returns a short description of the template.
func (t *Template) String() string {
	return fmt.Sprintf("template %q (%d roots, %d node slots, %d attr slots)",
		t.Name, len(t.Roots), len(t.NodePaths), len(t.AttrPaths))
}
