package arena

import (
	"fmt"
	"strings"
)

// Snapshot is a comparable copy of a subtree's observable content:
// tags, attributes, text, listeners and child order. Identities and
// shadow trees are not part of it.
type Snapshot struct {
	Kind      string
	Tag       string
	Namespace string
	Attrs     map[string]string
	Text      string
	Listeners []string
	Children  []Snapshot
}

// Snapshot captures the subtree rooted at h.
func (a *Arena) Snapshot(h Handle) Snapshot {
	n := a.slab[h]
	s := Snapshot{
		Kind:      n.kind.String(),
		Tag:       n.tag,
		Namespace: n.namespace,
		Text:      n.text,
	}
	if len(n.attrs) > 0 {
		s.Attrs = make(map[string]string, len(n.attrs))
		for k, v := range n.attrs {
			s.Attrs[attrLabel(k)] = v
		}
	}
	if len(n.listeners) > 0 {
		s.Listeners = n.Listeners()
	}
	for _, c := range n.children {
		s.Children = append(s.Children, a.Snapshot(c))
	}
	return s
}

func attrLabel(k AttrKey) string {
	if k.Namespace == "" {
		return k.Name
	}
	return k.Namespace + ":" + k.Name
}

// Dump renders the live tree below the mount root, one node per line,
// with identities and shadow trees.
func (a *Arena) Dump() string {
	var b strings.Builder
	a.dump(&b, a.root, 0, "")
	return b.String()
}

func (a *Arena) dump(b *strings.Builder, h Handle, indent int, prefix string) {
	n := a.slab[h]
	b.WriteString(strings.Repeat("  ", indent))
	b.WriteString(prefix)
	if n.hasID {
		fmt.Fprintf(b, "#%d ", n.id)
	}
	switch n.kind {
	case KindText:
		fmt.Fprintf(b, "%q", n.text)
	case KindPlaceholder:
		b.WriteString("<placeholder>")
	default:
		b.WriteByte('<')
		if n.namespace != "" {
			b.WriteString(n.namespace + ":")
		}
		b.WriteString(n.tag)
		for _, at := range n.Attrs() {
			fmt.Fprintf(b, " %s=%q", attrLabel(at.AttrKey), at.Value)
		}
		for _, l := range n.Listeners() {
			fmt.Fprintf(b, " on%s", l)
		}
		b.WriteByte('>')
	}
	b.WriteByte('\n')
	if n.shadow != nil {
		a.dump(b, n.shadow.Root, indent+1, "shadow ")
	}
	for _, c := range n.children {
		a.dump(b, c, indent+1, "")
	}
}
