package renderer

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/arbor/internal/renderer/backend"
	"github.com/dshills/arbor/internal/renderer/core"
	"github.com/dshills/arbor/internal/runtime"
	"github.com/dshills/arbor/internal/state"
	"github.com/dshills/arbor/internal/state/kinds"
	"github.com/dshills/arbor/internal/template"
	"github.com/dshills/arbor/internal/vdom"
)

var (
	itemT = template.Build("item", template.El("li", nil, template.DynamicText{ID: 0}))
	pageT = template.Build("page", template.El("div", nil,
		template.El("h1", template.Attrs(template.Static("color", "#ff0000"), template.Static("bold", "")),
			template.Text{Text: "Title"}),
		template.El("ul", nil, template.Dynamic{ID: 0}),
	))
)

func page(items ...string) *vdom.VNode {
	rows := make([]*vdom.VNode, len(items))
	for i, s := range items {
		rows[i] = vdom.NewVNode(itemT, []vdom.DynamicNode{vdom.Text{Value: s}}, nil)
	}
	return vdom.NewVNode(pageT, []vdom.DynamicNode{vdom.Frag(rows...)}, nil)
}

func items(n int) []string {
	s := make([]string, n)
	for i := range s {
		s[i] = fmt.Sprintf("item %d", i)
	}
	return s
}

type harness struct {
	null *backend.NullBackend
	r    *Renderer
	rt   *runtime.Runtime
}

func newHarness(t *testing.T, width, height int, opts Options) *harness {
	t.Helper()
	null := backend.NewNullBackend(width, height)
	r := New(null, opts)
	if err := r.Init(); err != nil {
		t.Fatal(err)
	}
	var ks []*state.Kind
	for _, k := range []*state.Kind{opts.Color, opts.Extent} {
		if k != nil {
			ks = append(ks, k)
		}
	}
	rt, err := runtime.New(
		runtime.WithKinds(ks...),
		runtime.WithContext(func() *state.Context { return state.NewContext(kinds.DefaultTheme()) }),
		runtime.WithRenderer(r),
	)
	if err != nil {
		t.Fatal(err)
	}
	return &harness{null: null, r: r, rt: rt}
}

func (h *harness) step(t *testing.T, v *vdom.VNode) {
	t.Helper()
	if _, err := h.rt.Step(v); err != nil {
		t.Fatal(err)
	}
}

func TestRenderOutline(t *testing.T) {
	h := newHarness(t, 20, 5, DefaultOptions())
	h.step(t, page(items(2)...))

	want := []string{"    Title", "      item 0", "      item 1", "", ""}
	if diff := cmp.Diff(want, h.null.Lines()); diff != "" {
		t.Errorf("screen (-want +got):\n%s", diff)
	}
	if h.r.Frames() != 1 || h.null.Shows() != 1 {
		t.Errorf("frames = %d, shows = %d", h.r.Frames(), h.null.Shows())
	}
}

func TestRenderShowTags(t *testing.T) {
	opts := DefaultOptions()
	opts.ShowTags = true
	h := newHarness(t, 20, 8, opts)
	h.step(t, page("only"))

	want := []string{"<div>", "  <h1>", "    Title", "  <ul>", "    <li>", "      only", "", ""}
	if diff := cmp.Diff(want, h.null.Lines()); diff != "" {
		t.Errorf("screen (-want +got):\n%s", diff)
	}
	if !h.null.GetCell(0, 0).Style.Attributes.Has(core.AttrDim) {
		t.Error("element rows should be dim")
	}
}

func TestRenderColors(t *testing.T) {
	opts := DefaultOptions()
	opts.ShowTags = true
	opts.Color = kinds.Color()
	h := newHarness(t, 20, 8, opts)
	h.step(t, page("a"))

	red := core.ColorFromRGB(255, 0, 0)
	heading := h.null.GetCell(2, 1).Style
	if heading.Foreground != red || !heading.Attributes.Has(core.AttrBold) {
		t.Errorf("h1 row style = %+v, want bold red", heading)
	}
	if got := h.null.GetCell(4, 2).Style.Foreground; got != red {
		t.Errorf("title text color = %v, want inherited red", got)
	}
	theme := core.FromColorful(kinds.DefaultTheme().Foreground)
	if got := h.null.GetCell(6, 5).Style.Foreground; got != theme {
		t.Errorf("item text color = %v, want theme %v", got, theme)
	}
}

func TestRenderOverflowCountsHiddenLines(t *testing.T) {
	opts := DefaultOptions()
	opts.Extent = kinds.Extent()
	h := newHarness(t, 20, 3, opts)
	h.step(t, page(items(5)...))

	want := []string{"    Title", "      item 0", "... 4 more lines"}
	if diff := cmp.Diff(want, h.null.Lines()); diff != "" {
		t.Errorf("screen (-want +got):\n%s", diff)
	}
	if !h.null.GetCell(0, 2).Style.Attributes.Has(core.AttrReverse) {
		t.Error("overflow row should be reversed")
	}
}

func TestRenderOverflowWithoutExtent(t *testing.T) {
	h := newHarness(t, 20, 2, DefaultOptions())
	h.step(t, page(items(3)...))

	want := []string{"    Title", "..."}
	if diff := cmp.Diff(want, h.null.Lines()); diff != "" {
		t.Errorf("screen (-want +got):\n%s", diff)
	}
}

func TestRenderFlushesOnlyChanges(t *testing.T) {
	h := newHarness(t, 20, 5, DefaultOptions())
	h.step(t, page("item 0", "item 1"))
	if got := h.r.screen.Flushed(); got != 100 {
		t.Errorf("first frame flushed %d cells, want all 100", got)
	}

	h.step(t, page("item 9", "item 1"))
	if got := h.r.screen.Flushed(); got != 1 {
		t.Errorf("second frame flushed %d cells, want 1", got)
	}
	if got := h.null.Lines()[1]; got != "      item 9" {
		t.Errorf("row 1 = %q", got)
	}
}

func TestRenderClipsWideText(t *testing.T) {
	h := newHarness(t, 8, 2, DefaultOptions())
	h.step(t, page("世界世界"))

	if got := h.null.Lines()[1]; got != "      世" {
		t.Errorf("row 1 = %q, want the text clipped at the edge", got)
	}
}
