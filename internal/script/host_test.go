package script

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/arbor/internal/arena"
	"github.com/dshills/arbor/internal/logging"
	"github.com/dshills/arbor/internal/mutation"
	"github.com/dshills/arbor/internal/state"
	"github.com/dshills/arbor/internal/state/kinds"
	"github.com/dshills/arbor/internal/template"
)

var docT = template.Build("doc",
	template.El("div", nil,
		template.El("p", nil, template.Text{Text: "hello big world"}),
		template.El("p", template.Attrs(template.Static("lang", "fr"), template.Static("class", "x")),
			template.Text{Text: "un deux"}),
	),
)

// mountDoc builds root > div#1 > (p#2 > "hello big world", p#3 > "un deux").
func mountDoc(t *testing.T) *arena.Arena {
	t.Helper()
	a := arena.New()
	err := a.Apply(&mutation.Mutations{
		Templates: []*template.Template{docT},
		Edits: []mutation.Mutation{
			mutation.LoadTemplate{Name: "doc", Index: 0, ID: 1},
			mutation.AssignID{Path: []uint8{0, 0}, ID: 2},
			mutation.AssignID{Path: []uint8{0, 1}, ID: 3},
			mutation.AppendChildren{ID: mutation.RootID, M: 1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func node(t *testing.T, a *arena.Arena, id mutation.ElementID) *arena.Node {
	t.Helper()
	n, ok := a.Get(id)
	if !ok {
		t.Fatalf("no node #%d", id)
	}
	return n
}

func textOf(a *arena.Arena, n *arena.Node) *arena.Node {
	return a.Node(n.Children()[0])
}

const wordsScript = `
arbor.kind {
  name = "words",
  text = true,
  children = {"words"},
  update = function(node, prev, deps)
    local n = 0
    if node.text then
      for _ in node.text:gmatch("%S+") do n = n + 1 end
    end
    for _, c in ipairs(deps.children) do n = n + c.words end
    return n
  end,
}
`

func engineFor(t *testing.T, h *Host, builtin ...*state.Kind) (*state.Engine, []*state.Kind) {
	t.Helper()
	ks, err := h.Kinds(builtin...)
	if err != nil {
		t.Fatalf("Kinds: %v", err)
	}
	e, err := state.NewEngine(append(append([]*state.Kind{}, builtin...), ks...)...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e, ks
}

func TestScriptedChildKind(t *testing.T) {
	h := New()
	defer h.Close()
	if err := h.LoadString("words.lua", wordsScript); err != nil {
		t.Fatal(err)
	}
	e, ks := engineFor(t, h)
	words := ks[0]

	a := mountDoc(t)
	e.Update(a, nil)

	div, p1, p2 := node(t, a, 1), node(t, a, 2), node(t, a, 3)
	got := map[string]any{
		"root": e.Value(a.Node(a.Root()), words),
		"div":  e.Value(div, words),
		"p1":   e.Value(p1, words),
		"p2":   e.Value(p2, words),
		"t2":   e.Value(textOf(a, p2), words),
	}
	want := map[string]any{"root": int64(5), "div": int64(5), "p1": int64(3), "p2": int64(2), "t2": int64(2)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("words (-want +got):\n%s", diff)
	}

	calls := h.Calls()
	if res := e.Update(a, nil); res.TotalCalls() != 0 || h.Calls() != calls {
		t.Errorf("quiet pass made %d calls", res.TotalCalls())
	}

	// A second text node under the second paragraph.
	if err := a.Apply(&mutation.Mutations{Edits: []mutation.Mutation{
		mutation.CreateText{Value: "one two three four", ID: 9},
		mutation.AppendChildren{ID: 3, M: 1},
	}}); err != nil {
		t.Fatal(err)
	}
	e.Update(a, nil)
	if got := e.Value(div, words); got != int64(9) {
		t.Errorf("div words after append = %v, want 9", got)
	}
}

func TestMaskedAttributesAndParentDeps(t *testing.T) {
	h := New()
	defer h.Close()
	err := h.LoadString("lang.lua", `
arbor.kind {
  name = "lang",
  attrs = {"lang"},
  parent = {"lang"},
  update = function(node, prev, deps)
    if node.attrs.class ~= nil then error("class leaked") end
    if node.attrs.lang then return node.attrs.lang end
    if deps.parent then return deps.parent.lang end
    return "en"
  end,
}`)
	if err != nil {
		t.Fatal(err)
	}
	e, ks := engineFor(t, h)
	lang := ks[0]
	a := mountDoc(t)
	e.Update(a, nil)

	p1, p2 := node(t, a, 2), node(t, a, 3)
	got := []any{e.Value(p1, lang), e.Value(textOf(a, p1), lang), e.Value(p2, lang), e.Value(textOf(a, p2), lang)}
	if diff := cmp.Diff([]any{"en", "en", "fr", "fr"}, got); diff != "" {
		t.Errorf("lang (-want +got):\n%s", diff)
	}
}

func TestDependsOnBuiltinKind(t *testing.T) {
	h := New()
	defer h.Close()
	err := h.LoadString("double.lua", `
arbor.kind {
  name = "double",
  node = {"size"},
  update = function(node, prev, deps) return deps.node.size * 2 end,
}`)
	if err != nil {
		t.Fatal(err)
	}
	size := kinds.Size()
	e, ks := engineFor(t, h, size)
	a := mountDoc(t)
	e.Update(a, nil)

	text := textOf(a, node(t, a, 2))
	if got := e.Value(text, ks[0]); got != int64(30) {
		t.Errorf("double = %v, want 30", got)
	}
}

func TestWidthHelper(t *testing.T) {
	h := New()
	defer h.Close()
	if err := h.LoadString("w.lua", `w = arbor.width("ab世界")`); err != nil {
		t.Fatal(err)
	}
	if got := toGo(h.L.GetGlobal("w")); got != int64(6) {
		t.Errorf("width = %v, want 6", got)
	}
}

func TestSandbox(t *testing.T) {
	h := New()
	defer h.Close()
	for _, src := range []string{
		`dofile("/etc/passwd")`,
		`os.exit(1)`,
		`io.write("x")`,
		`require("os")`,
		`load("return 1")()`,
	} {
		if err := h.LoadString("evil.lua", src); err == nil {
			t.Errorf("%s: expected an error", src)
		}
	}
}

func TestLoadTimeout(t *testing.T) {
	h := New(WithTimeout(20 * time.Millisecond))
	defer h.Close()
	start := time.Now()
	if err := h.LoadString("spin.lua", `while true do end`); err == nil {
		t.Fatal("expected a timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout did not stop the script promptly")
	}
}

func TestUpdateErrorPanicsWithErrScript(t *testing.T) {
	h := New(WithTimeout(20 * time.Millisecond))
	defer h.Close()
	err := h.LoadString("bad.lua", `
arbor.kind { name = "bad", update = function() error("nope") end }`)
	if err != nil {
		t.Fatal(err)
	}
	e, _ := engineFor(t, h)

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrScript) {
			t.Fatalf("recovered %v, want ErrScript", r)
		}
		if !strings.Contains(err.Error(), "nope") {
			t.Errorf("error %q lacks the script message", err)
		}
	}()
	e.Update(mountDoc(t), nil)
}

func TestDeclarationErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no name", `arbor.kind { update = function() end }`},
		{"no update", `arbor.kind { name = "x" }`},
		{"bad attrs", `arbor.kind { name = "x", attrs = "lang", update = function() end }`},
		{"bad deps", `arbor.kind { name = "x", children = {1}, update = function() end }`},
		{"twice", `
arbor.kind { name = "x", update = function() end }
arbor.kind { name = "x", update = function() end }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			defer h.Close()
			err := h.LoadString("decl.lua", tt.src)
			if err == nil || !strings.Contains(err.Error(), ErrDeclaration.Error()) {
				t.Fatalf("err = %v, want a declaration error", err)
			}
			if ks, _ := h.Kinds(); len(ks) != 0 {
				t.Errorf("failed load kept %d declarations", len(ks))
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	h := New()
	defer h.Close()
	if err := h.LoadString("a.lua", `arbor.kind { name = "a", node = {"missing"}, update = function() end }`); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Kinds(); !errors.Is(err, ErrUnknownDependency) {
		t.Errorf("err = %v, want ErrUnknownDependency", err)
	}

	h2 := New()
	defer h2.Close()
	if err := h2.LoadString("size.lua", `arbor.kind { name = "size", update = function() end }`); err != nil {
		t.Fatal(err)
	}
	if _, err := h2.Kinds(kinds.Size()); !errors.Is(err, state.ErrDuplicateKind) {
		t.Errorf("err = %v, want ErrDuplicateKind", err)
	}
}

func TestPrintGoesToLogger(t *testing.T) {
	var buf bytes.Buffer
	h := New(WithLogger(logging.New(logging.Config{Level: logging.LevelInfo, Output: &buf})))
	defer h.Close()
	if err := h.LoadString("p.lua", `print("hello", 42)`); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "hello\t42") || !strings.Contains(buf.String(), "component=script") {
		t.Errorf("log = %q", buf.String())
	}
}

func TestClosedHost(t *testing.T) {
	h := New()
	h.Close()
	h.Close()
	if err := h.LoadString("x.lua", ""); !errors.Is(err, ErrClosed) {
		t.Errorf("LoadString err = %v", err)
	}
	if _, err := h.Kinds(); !errors.Is(err, ErrClosed) {
		t.Errorf("Kinds err = %v", err)
	}
}

func TestConversions(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	if err := L.DoString(`t = {1, 2.5, {a = "x", b = true}}; m = {[1] = "a", [3] = "c"}`); err != nil {
		t.Fatal(err)
	}
	want := []any{int64(1), 2.5, map[string]any{"a": "x", "b": true}}
	if diff := cmp.Diff(want, toGo(L.GetGlobal("t"))); diff != "" {
		t.Errorf("sequence (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"1": "a", "3": "c"}, toGo(L.GetGlobal("m"))); diff != "" {
		t.Errorf("sparse table (-want +got):\n%s", diff)
	}

	type opaque struct{ n int }
	back := toGo(toLua(L, map[string]any{"o": opaque{3}, "l": []any{"x"}}))
	if diff := cmp.Diff(map[string]any{"o": opaque{3}, "l": []any{"x"}}, back, cmp.AllowUnexported(opaque{})); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}
