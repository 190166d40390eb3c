package mutation

import (
	"fmt"
	"strings"

	"github.com/dshills/arbor/internal/template"
)

// ElementID is the renderer visible identity of a materialized node.
type ElementID uint32

// RootID is the mount point supplied by the driver. It always exists and is
// never removed.
const RootID ElementID = 0

// Mutation is one edit of the protocol.
// The set of implementations is closed and listed in this file.
type Mutation interface {
	// Op returns the operation name, as used by the wire codec.
	Op() string
	mutation()
}

// AssignID binds ID to the node at Path relative to the top of the stack.
type AssignID struct {
	Path []uint8
	ID   ElementID
}

// CreatePlaceholder pushes a new empty placeholder bound to ID.
type CreatePlaceholder struct {
	ID ElementID
}

// CreateText pushes a new text node bound to ID.
type CreateText struct {
	Value string
	ID    ElementID
}

// LoadTemplate pushes a clone of root Index of template Name bound to ID.
type LoadTemplate struct {
	Name  string
	Index int
	ID    ElementID
}

// AppendChildren pops M nodes and appends them to ID in stack order.
type AppendChildren struct {
	ID ElementID
	M  int
}

// InsertBefore pops M nodes and inserts them before ID.
type InsertBefore struct {
	ID ElementID
	M  int
}

// InsertAfter pops M nodes and inserts them after ID.
type InsertAfter struct {
	ID ElementID
	M  int
}

// ReplaceWith pops M nodes and replaces the subtree of ID with them.
type ReplaceWith struct {
	ID ElementID
	M  int
}

// ReplacePlaceholder pops M nodes and replaces the placeholder at Path,
// relative to the node left on top of the stack.
type ReplacePlaceholder struct {
	Path []uint8
	M    int
}

// Remove detaches ID and invalidates it and its descendants.
// Removing an identity that is no longer bound is a no-op.
type Remove struct {
	ID ElementID
}

// RemoveRange removes ID and the M-1 siblings that follow it.
type RemoveRange struct {
	ID ElementID
	M  int
}

// PushRoot pushes an existing node onto the stack.
type PushRoot struct {
	ID ElementID
}

// SetText updates the payload of a text node.
type SetText struct {
	ID    ElementID
	Value string
}

// SetAttribute sets or, when Value is nil, clears an attribute.
type SetAttribute struct {
	ID        ElementID
	Name      string
	Namespace string
	Value     *string
}

// NewEventListener registers interest in the named event on ID.
type NewEventListener struct {
	Name string
	ID   ElementID
}

// RemoveEventListener removes interest in the named event on ID.
type RemoveEventListener struct {
	Name string
	ID   ElementID
}

func (AssignID) Op() string            { return "AssignId" }
func (CreatePlaceholder) Op() string   { return "CreatePlaceholder" }
func (CreateText) Op() string          { return "CreateText" }
func (LoadTemplate) Op() string        { return "LoadTemplate" }
func (AppendChildren) Op() string      { return "AppendChildren" }
func (InsertBefore) Op() string        { return "InsertBefore" }
func (InsertAfter) Op() string         { return "InsertAfter" }
func (ReplaceWith) Op() string         { return "ReplaceWith" }
func (ReplacePlaceholder) Op() string  { return "ReplacePlaceholder" }
func (Remove) Op() string              { return "Remove" }
func (RemoveRange) Op() string         { return "RemoveRange" }
func (PushRoot) Op() string            { return "PushRoot" }
func (SetText) Op() string             { return "SetText" }
func (SetAttribute) Op() string        { return "SetAttribute" }
func (NewEventListener) Op() string    { return "NewEventListener" }
func (RemoveEventListener) Op() string { return "RemoveEventListener" }

func (AssignID) mutation()            {}
func (CreatePlaceholder) mutation()   {}
func (CreateText) mutation()          {}
func (LoadTemplate) mutation()        {}
func (AppendChildren) mutation()      {}
func (InsertBefore) mutation()        {}
func (InsertAfter) mutation()         {}
func (ReplaceWith) mutation()         {}
func (ReplacePlaceholder) mutation()  {}
func (Remove) mutation()              {}
func (RemoveRange) mutation()         {}
func (PushRoot) mutation()            {}
func (SetText) mutation()             {}
func (SetAttribute) mutation()        {}
func (NewEventListener) mutation()    {}
func (RemoveEventListener) mutation() {}

// IsStructural reports whether m changes the shape of the tree.
func IsStructural(m Mutation) bool {
	switch m.(type) {
	case AppendChildren, InsertBefore, InsertAfter, ReplaceWith, ReplacePlaceholder, Remove, RemoveRange:
		return true
	default:
		return false
	}
}

// Str returns a pointer to s, for SetAttribute values.
func Str(s string) *string {
	return &s
}

// Mutations is the output of one reconciliation pass.
type Mutations struct {
	// Templates lists templates referenced for the first time by this
	// stream. A consumer registers them before applying Edits.
	Templates []*template.Template

	// Edits is the ordered edit stream.
	Edits []Mutation
}

// Push appends an edit.
func (m *Mutations) Push(edit Mutation) {
	m.Edits = append(m.Edits, edit)
}

// Len returns the number of edits.
func (m *Mutations) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Edits)
}

// Empty reports whether the stream carries no edits and no templates.
func (m *Mutations) Empty() bool {
	return m == nil || (len(m.Edits) == 0 && len(m.Templates) == 0)
}

// Count returns how many edits have the given operation name.
func (m *Mutations) Count(op string) int {
	if m == nil {
		return 0
	}
	n := 0
	for _, e := range m.Edits {
		if e.Op() == op {
			n++
		}
	}
	return n
}

// Structural returns the number of structural edits.
func (m *Mutations) Structural() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, e := range m.Edits {
		if IsStructural(e) {
			n++
		}
	}
	return n
}

// String renders the stream one edit per line.
func (m *Mutations) String() string {
	if m == nil {
		return ""
	}
	var b strings.Builder
	for _, t := range m.Templates {
		fmt.Fprintf(&b, "template %s\n", t.Name)
	}
	for _, e := range m.Edits {
		b.WriteString(Format(e))
		b.WriteByte('\n')
	}
	return b.String()
}

// Format renders a single edit.
func Format(m Mutation) string {
	switch m := m.(type) {
	case SetAttribute:
		if m.Value == nil {
			return fmt.Sprintf("SetAttribute{ID:%d Name:%s Namespace:%s Value:<nil>}", m.ID, m.Name, m.Namespace)
		}
		return fmt.Sprintf("SetAttribute{ID:%d Name:%s Namespace:%s Value:%q}", m.ID, m.Name, m.Namespace, *m.Value)
	default:
		return fmt.Sprintf("%s%+v", m.Op(), m)
	}
}

// Sink consumes mutation streams.
type Sink interface {
	Apply(m *Mutations) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(m *Mutations) error

// Apply calls f(m).
func (f SinkFunc) Apply(m *Mutations) error {
	return f(m)
}

// Tee returns a Sink that applies each stream to every sink in order and
// stops at the first error.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(m *Mutations) error {
		for _, s := range sinks {
			if err := s.Apply(m); err != nil {
				return err
			}
		}
		return nil
	})
}
