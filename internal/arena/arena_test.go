package arena

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/arbor/internal/mutation"
	"github.com/dshills/arbor/internal/template"
)

func cardTemplate() *template.Template {
	return template.Build("card",
		template.El("div", template.Attrs(template.Static("class", "card"), template.DynamicAttr{ID: 0}),
			template.El("h1", nil, template.DynamicText{ID: 0}),
			template.Dynamic{ID: 1},
		),
	)
}

func mustApply(t *testing.T, a *Arena, tmpls []*template.Template, edits ...mutation.Mutation) {
	t.Helper()
	if err := a.Apply(&mutation.Mutations{Templates: tmpls, Edits: edits}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
}

// mountCard loads the card template with root id, heading text id+1 and
// body placeholder id+2. The dynamic attribute sits on the root, so it is
// addressed by the root id.
func mountCard(t *testing.T, a *Arena, id mutation.ElementID, title string) {
	t.Helper()
	mustApply(t, a, []*template.Template{cardTemplate()},
		mutation.LoadTemplate{Name: "card", Index: 0, ID: id},
		mutation.SetAttribute{ID: id, Name: "title", Value: mutation.Str(title)},
		mutation.AssignID{Path: []uint8{0, 0, 0}, ID: id + 1},
		mutation.SetText{ID: id + 1, Value: title},
		mutation.CreatePlaceholder{ID: id + 2},
		mutation.ReplacePlaceholder{Path: []uint8{0, 1}, M: 1},
		mutation.AppendChildren{ID: mutation.RootID, M: 1},
	)
}

func checkParents(t *testing.T, a *Arena) {
	t.Helper()
	var walk func(h Handle)
	walk = func(h Handle) {
		n := a.Node(h)
		for _, c := range n.Children() {
			child := a.Node(c)
			if child == nil {
				t.Fatalf("node %d has released child %d", h, c)
			}
			if child.Parent() != h {
				t.Errorf("child %d parent = %d, want %d", c, child.Parent(), h)
			}
			if child.Depth() != n.Depth()+1 {
				t.Errorf("child %d depth = %d, want %d", c, child.Depth(), n.Depth()+1)
			}
			walk(c)
		}
	}
	walk(a.Root())
}

func TestNewArenaHasRoot(t *testing.T) {
	a := New()
	n, ok := a.Get(mutation.RootID)
	if !ok {
		t.Fatal("root id should be bound")
	}
	if n.Handle() != a.Root() {
		t.Errorf("root handle = %d, want %d", n.Handle(), a.Root())
	}
	if a.Len() != 1 || a.IDs() != 1 {
		t.Errorf("Len = %d, IDs = %d, want 1, 1", a.Len(), a.IDs())
	}
}

func TestFirstPaint(t *testing.T) {
	a := New()
	mountCard(t, a, 1, "hello")

	root := a.Node(a.Root())
	if len(root.Children()) != 1 {
		t.Fatalf("root children = %d, want 1", len(root.Children()))
	}

	want := Snapshot{
		Kind: "element",
		Tag:  "root",
		Children: []Snapshot{{
			Kind:  "element",
			Tag:   "div",
			Attrs: map[string]string{"class": "card", "title": "hello"},
			Children: []Snapshot{
				{Kind: "element", Tag: "h1", Children: []Snapshot{{Kind: "text", Text: "hello"}}},
				{Kind: "placeholder"},
			},
		}},
	}
	if diff := cmp.Diff(want, a.Snapshot(a.Root())); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if a.StackLen() != 0 {
		t.Errorf("StackLen = %d, want 0", a.StackLen())
	}
	checkParents(t, a)
}

func TestTemplateStoreClonesAfterFirstWalk(t *testing.T) {
	a := New()
	mountCard(t, a, 1, "one")
	mountCard(t, a, 10, "two")

	if got := a.Store().Materialized(); got != 1 {
		t.Errorf("Materialized = %d, want 1", got)
	}
	if got := a.Store().Clones(); got != 2 {
		t.Errorf("Clones = %d, want 2", got)
	}

	one, _ := a.Get(1)
	two, _ := a.Get(10)
	if v, _ := one.Attr("title"); v != "one" {
		t.Errorf("first card title = %q", v)
	}
	if v, _ := two.Attr("title"); v != "two" {
		t.Errorf("second card title = %q, clones must not share attribute maps", v)
	}
}

func TestTemplateConflictPanics(t *testing.T) {
	s := NewTemplateStore()
	s.Register(cardTemplate())
	if s.Register(cardTemplate()) {
		t.Error("re-registering an equal template should report false")
	}

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrTemplateConflict) {
			t.Errorf("panic = %v, want ErrTemplateConflict", r)
		}
	}()
	s.Register(template.Build("card", template.Text{Text: "other"}))
}

func TestRemoveCascadesAndIsIdempotent(t *testing.T) {
	a := New()
	mountCard(t, a, 1, "x")
	before := a.Len()

	if err := a.Remove(1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	for _, id := range []mutation.ElementID{1, 2, 3} {
		if _, ok := a.Get(id); ok {
			t.Errorf("id %d should be unbound after cascade", id)
		}
	}
	if a.Len() != 1 {
		t.Errorf("Len = %d after removal, want 1 (was %d)", a.Len(), before)
	}

	// Descendant already gone with its ancestor.
	if err := a.Remove(2); err != nil {
		t.Errorf("Remove of cascaded id = %v, want nil", err)
	}
	if err := a.Remove(1); err != nil {
		t.Errorf("second Remove = %v, want nil", err)
	}
}

func TestRemoveDropsPushedDescendants(t *testing.T) {
	tests := []struct {
		name   string
		remove mutation.Mutation
	}{
		{"Remove", mutation.Remove{ID: 1}},
		{"RemoveRange", mutation.RemoveRange{ID: 1, M: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New()
			mountCard(t, a, 1, "x")
			mountCard(t, a, 4, "y")

			err := a.Apply(&mutation.Mutations{Edits: []mutation.Mutation{
				mutation.PushRoot{ID: 2},
				tt.remove,
				mutation.AppendChildren{ID: mutation.RootID, M: 1},
			}})
			if !errors.Is(err, ErrStackUnderflow) {
				t.Fatalf("error = %v, want ErrStackUnderflow", err)
			}
			if a.StackLen() != 0 {
				t.Errorf("StackLen = %d, want 0", a.StackLen())
			}

			// A reused handle is reachable only through its new push.
			mustApply(t, a, nil,
				mutation.CreateText{Value: "fresh", ID: 9},
				mutation.AppendChildren{ID: mutation.RootID, M: 1},
			)
			root := a.Node(a.Root())
			last := a.Node(root.Children()[len(root.Children())-1])
			if last.Text() != "fresh" {
				t.Errorf("last root child = %q, want fresh", last.Text())
			}
			if a.StackLen() != 0 {
				t.Errorf("StackLen = %d after append, want 0", a.StackLen())
			}
			checkParents(t, a)
		})
	}
}

func TestStaleIDIsAnError(t *testing.T) {
	a := New()
	mountCard(t, a, 1, "x")
	if err := a.Remove(1); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		fn   func() error
	}{
		{"SetText", func() error { return a.SetText(2, "y") }},
		{"SetAttribute", func() error { return a.SetAttribute(1, "a", "", nil) }},
		{"PushRoot", func() error { return a.PushRoot(1) }},
		{"AppendChildren", func() error { return a.AppendChildren(3, 0) }},
		{"NewEventListener", func() error { return a.NewEventListener("click", 1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			if !errors.Is(err, ErrUnknownID) {
				t.Errorf("error = %v, want ErrUnknownID", err)
			}
			var ae *Error
			if !errors.As(err, &ae) || ae.Op != tt.name {
				t.Errorf("error = %#v, want *Error with Op %s", err, tt.name)
			}
		})
	}
}

func TestRemoveRootFails(t *testing.T) {
	a := New()
	if err := a.Remove(mutation.RootID); !errors.Is(err, ErrRootRemoval) {
		t.Errorf("Remove(root) = %v, want ErrRootRemoval", err)
	}
}

func TestInsertBeforeAfter(t *testing.T) {
	a := New()
	mustApply(t, a, nil,
		mutation.CreateText{Value: "b", ID: 2},
		mutation.AppendChildren{ID: mutation.RootID, M: 1},
		mutation.CreateText{Value: "a", ID: 1},
		mutation.InsertBefore{ID: 2, M: 1},
		mutation.CreateText{Value: "c", ID: 3},
		mutation.CreateText{Value: "d", ID: 4},
		mutation.InsertAfter{ID: 2, M: 2},
	)
	if got := texts(a); got != "abcd" {
		t.Errorf("order = %q, want abcd", got)
	}
	checkParents(t, a)
}

func TestPushRootMovesNode(t *testing.T) {
	a := New()
	mustApply(t, a, nil,
		mutation.CreateText{Value: "a", ID: 1},
		mutation.CreateText{Value: "b", ID: 2},
		mutation.CreateText{Value: "c", ID: 3},
		mutation.AppendChildren{ID: mutation.RootID, M: 3},
		mutation.PushRoot{ID: 1},
		mutation.InsertAfter{ID: 3, M: 1},
	)
	if got := texts(a); got != "bca" {
		t.Errorf("order = %q, want bca", got)
	}
	mustApply(t, a, nil,
		mutation.PushRoot{ID: 1},
		mutation.AppendChildren{ID: mutation.RootID, M: 1},
	)
	if got := texts(a); got != "bca" {
		t.Errorf("order after re-append = %q, want bca", got)
	}
	checkParents(t, a)
}

func TestReplaceWith(t *testing.T) {
	a := New()
	mountCard(t, a, 1, "x")
	mustApply(t, a, nil,
		mutation.CreateText{Value: "p", ID: 20},
		mutation.CreateText{Value: "q", ID: 21},
		mutation.ReplaceWith{ID: 1, M: 2},
	)
	if got := texts(a); got != "pq" {
		t.Errorf("order = %q, want pq", got)
	}
	if _, ok := a.Get(2); ok {
		t.Error("replaced subtree ids should be unbound")
	}
	checkParents(t, a)
}

func TestRemoveRange(t *testing.T) {
	a := New()
	mustApply(t, a, nil,
		mutation.CreateText{Value: "a", ID: 1},
		mutation.CreateText{Value: "b", ID: 2},
		mutation.CreateText{Value: "c", ID: 3},
		mutation.CreateText{Value: "d", ID: 4},
		mutation.AppendChildren{ID: mutation.RootID, M: 4},
		mutation.RemoveRange{ID: 2, M: 2},
	)
	if got := texts(a); got != "ad" {
		t.Errorf("order = %q, want ad", got)
	}
	if err := a.RemoveRange(1, 5); !errors.Is(err, ErrBadRange) {
		t.Errorf("RemoveRange past end = %v, want ErrBadRange", err)
	}
	if err := a.RemoveRange(2, 2); err != nil {
		t.Errorf("RemoveRange of removed id = %v, want nil", err)
	}
}

func TestFailedEditLeavesArenaUnchanged(t *testing.T) {
	a := New()
	mustApply(t, a, nil, mutation.CreateText{Value: "a", ID: 1})

	err := a.Apply(&mutation.Mutations{Edits: []mutation.Mutation{
		mutation.AppendChildren{ID: mutation.RootID, M: 2},
	}})
	if !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("Apply = %v, want ErrStackUnderflow", err)
	}
	var ae *Error
	if !errors.As(err, &ae) || ae.Index != 0 {
		t.Errorf("error index = %v, want 0", err)
	}
	if a.StackLen() != 1 {
		t.Errorf("StackLen = %d, want 1", a.StackLen())
	}
	if len(a.Node(a.Root()).Children()) != 0 {
		t.Error("root should have no children after failed append")
	}
}

func TestCycleRejected(t *testing.T) {
	a := New()
	mountCard(t, a, 1, "x")
	mustApply(t, a, nil, mutation.PushRoot{ID: 1})
	if err := a.AppendChildren(3, 1); !errors.Is(err, ErrCycle) {
		t.Errorf("AppendChildren into descendant = %v, want ErrCycle", err)
	}
}

func TestIDInUse(t *testing.T) {
	a := New()
	mustApply(t, a, nil, mutation.CreateText{Value: "a", ID: 1})
	if err := a.CreatePlaceholder(1); !errors.Is(err, ErrIDInUse) {
		t.Errorf("CreatePlaceholder = %v, want ErrIDInUse", err)
	}
}

func TestUnknownTemplate(t *testing.T) {
	a := New()
	if err := a.LoadTemplate("missing", 0, 1); !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("LoadTemplate = %v, want ErrUnknownTemplate", err)
	}
	a.Store().Register(cardTemplate())
	if err := a.LoadTemplate("card", 3, 1); !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("LoadTemplate bad index = %v, want ErrUnknownTemplate", err)
	}
}

func TestSetTextOnElement(t *testing.T) {
	a := New()
	mountCard(t, a, 1, "x")
	if err := a.SetText(1, "nope"); !errors.Is(err, ErrNotText) {
		t.Errorf("SetText on element = %v, want ErrNotText", err)
	}
	if err := a.SetAttribute(2, "a", "", nil); !errors.Is(err, ErrNotElement) {
		t.Errorf("SetAttribute on text = %v, want ErrNotElement", err)
	}
}

func TestListeners(t *testing.T) {
	a := New()
	mountCard(t, a, 1, "x")
	mustApply(t, a, nil,
		mutation.NewEventListener{Name: "click", ID: 1},
		mutation.NewEventListener{Name: "input", ID: 1},
		mutation.RemoveEventListener{Name: "input", ID: 1},
	)
	n, _ := a.Get(1)
	if diff := cmp.Diff([]string{"click"}, n.Listeners()); diff != "" {
		t.Errorf("listeners mismatch (-want +got):\n%s", diff)
	}
	if !n.HasListener("click") || n.HasListener("input") {
		t.Error("HasListener disagrees with Listeners")
	}
}

func TestChangeTracking(t *testing.T) {
	a := New()
	mountCard(t, a, 1, "x")
	first := a.TakeChanges()
	if len(first) != a.Len() {
		t.Errorf("changes after first paint = %d, want every live node (%d)", len(first), a.Len())
	}
	for h, c := range first {
		if h != a.Root() && !c.Created {
			t.Errorf("node %d should be marked created", h)
		}
	}

	mustApply(t, a, nil,
		mutation.SetAttribute{ID: 1, Name: "title", Value: mutation.Str("y")},
		mutation.SetText{ID: 2, Value: "x"}, // unchanged
	)
	changes := a.TakeChanges()
	if len(changes) != 1 {
		t.Fatalf("changes = %d, want 1", len(changes))
	}
	h, _ := a.Lookup(1)
	c := changes[h]
	if c == nil || !c.AttrChanged("title") || c.Text || c.Created {
		t.Errorf("change = %+v, want only title", c)
	}

	mustApply(t, a, nil, mutation.Remove{ID: 3})
	changes = a.TakeChanges()
	parent, _ := a.Lookup(1)
	if c := changes[parent]; c == nil || !c.Children {
		t.Errorf("parent change = %+v, want Children", c)
	}
}

func TestDump(t *testing.T) {
	a := New()
	mountCard(t, a, 1, "hi")
	got := a.Dump()
	want := strings.Join([]string{
		`#0 <root>`,
		`  #1 <div class="card" title="hi">`,
		`    <h1>`,
		`      #2 "hi"`,
		`    #3 <placeholder>`,
		``,
	}, "\n")
	if got != want {
		t.Errorf("Dump mismatch:\n got:\n%s\nwant:\n%s", got, want)
	}
}

func texts(a *Arena) string {
	var b strings.Builder
	for _, c := range a.Node(a.Root()).Children() {
		b.WriteString(a.Node(c).Text())
	}
	return b.String()
}
