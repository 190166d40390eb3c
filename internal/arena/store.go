package arena

import (
	"fmt"
	"reflect"

	"github.com/dshills/arbor/internal/template"
)

// proto is a materialized template node kept outside the live slab.
type proto struct {
	node     *Node
	children []*proto
}

// TemplateStore caches the materialized shape of each template.
// The cache is append only: a template is materialized on first
// registration and cloned on every load after that.
type TemplateStore struct {
	templates map[string]*template.Template
	roots     map[string][]*proto

	// materialized counts template walks, clones counts prototype clones.
	materialized int
	clones       int
}

// NewTemplateStore creates an empty store.
func NewTemplateStore() *TemplateStore {
	return &TemplateStore{
		templates: make(map[string]*template.Template),
		roots:     make(map[string][]*proto),
	}
}

// Register materializes t unless a template with its name is already
// cached. It reports whether t was new. Registering a different shape
// under an existing name panics with ErrTemplateConflict.
func (s *TemplateStore) Register(t *template.Template) bool {
	if prev, ok := s.templates[t.Name]; ok {
		if prev != t && !reflect.DeepEqual(prev, t) {
			panic(fmt.Errorf("template %q: %w", t.Name, ErrTemplateConflict))
		}
		return false
	}
	if err := t.Validate(); err != nil {
		panic(err)
	}

	roots := make([]*proto, len(t.Roots))
	for i, r := range t.Roots {
		roots[i] = materialize(r)
	}
	s.templates[t.Name] = t
	s.roots[t.Name] = roots
	s.materialized++
	return true
}

// Has reports whether a template is cached.
func (s *TemplateStore) Has(name string) bool {
	_, ok := s.templates[name]
	return ok
}

// Template returns a cached template.
func (s *TemplateStore) Template(name string) (*template.Template, bool) {
	t, ok := s.templates[name]
	return t, ok
}

// Len returns the number of cached templates.
func (s *TemplateStore) Len() int {
	return len(s.templates)
}

// Materialized returns how many templates have been walked.
func (s *TemplateStore) Materialized() int {
	return s.materialized
}

// Clones returns how many prototype roots have been cloned.
func (s *TemplateStore) Clones() int {
	return s.clones
}

func (s *TemplateStore) root(name string, index int) (*proto, error) {
	roots, ok := s.roots[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	if index < 0 || index >= len(roots) {
		return nil, fmt.Errorf("%w: %q has no root %d", ErrUnknownTemplate, name, index)
	}
	return roots[index], nil
}

// materialize converts a template node into a prototype. Dynamic holes
// become placeholders and dynamic text becomes an empty text node; both
// are filled by the producer after loading.
func materialize(n template.Node) *proto {
	switch n := n.(type) {
	case template.Element:
		node := newNode(KindElement)
		node.tag = n.Tag
		node.namespace = n.Namespace
		for _, a := range n.Attrs {
			if sa, ok := a.(template.StaticAttr); ok {
				if node.attrs == nil {
					node.attrs = make(map[AttrKey]string)
				}
				node.attrs[AttrKey{Name: sa.Name, Namespace: sa.Namespace}] = sa.Value
			}
		}
		p := &proto{node: node, children: make([]*proto, len(n.Children))}
		for i, c := range n.Children {
			p.children[i] = materialize(c)
		}
		return p
	case template.Text:
		node := newNode(KindText)
		node.text = n.Text
		return &proto{node: node}
	case template.DynamicText:
		return &proto{node: newNode(KindText)}
	case template.Dynamic:
		return &proto{node: newNode(KindPlaceholder)}
	default:
		panic(fmt.Sprintf("arena: unknown template node %T", n))
	}
}
