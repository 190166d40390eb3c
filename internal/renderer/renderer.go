package renderer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/arbor/internal/arena"
	"github.com/dshills/arbor/internal/renderer/backend"
	"github.com/dshills/arbor/internal/renderer/core"
	"github.com/dshills/arbor/internal/runtime"
	"github.com/dshills/arbor/internal/state"
	"github.com/dshills/arbor/internal/traverse"
)

// Options configures the renderer.
type Options struct {
	// Indent is the number of columns per tree level.
	Indent int

	// CrossShadow draws shadow trees in place of their hosts' light
	// children, which then appear below the slot.
	CrossShadow bool

	// ShowTags draws a row per element.
	ShowTags bool

	// Color, when set, is the kind holding each node's foreground as a
	// colorful.Color.
	Color *state.Kind

	// Extent, when set, is the kind holding each subtree's line count. It
	// lets the overflow row report how many lines were cut.
	Extent *state.Kind
}

// DefaultOptions returns two-column indentation across shadow trees.
func DefaultOptions() Options {
	return Options{Indent: 2, CrossShadow: true}
}

// Renderer draws frames. It implements runtime.Renderer.
type Renderer struct {
	mu     sync.Mutex
	opts   Options
	screen *backend.BufferedBackend
	frames uint64
}

var _ runtime.Renderer = (*Renderer)(nil)

// New creates a renderer drawing on b.
func New(b backend.Backend, opts Options) *Renderer {
	screen, ok := b.(*backend.BufferedBackend)
	if !ok {
		screen = backend.NewBufferedBackend(b)
	}
	return &Renderer{opts: opts, screen: screen}
}

// Init initializes the backend.
func (r *Renderer) Init() error {
	return r.screen.Init()
}

// Shutdown releases the backend.
func (r *Renderer) Shutdown() {
	r.screen.Shutdown()
}

// PollEvent waits for the next backend event.
func (r *Renderer) PollEvent() backend.Event {
	return r.screen.PollEvent()
}

// Frames returns how many frames were drawn.
func (r *Renderer) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// row is one line of output.
type row struct {
	x     int
	text  string
	style core.Style
	// lines is the number of extent lines the row stands for: 1 for a text
	// line, 0 for an element row.
	lines int
}

// Render draws f and flushes the changed cells.
func (r *Renderer) Render(f *runtime.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	width, height := r.screen.Size()
	if width <= 0 || height <= 0 {
		return nil
	}
	rows, overflow := r.layout(f, height)
	if overflow {
		rows = append(rows[:height-1], r.overflowRow(f, rows[:height-1]))
	}

	r.screen.Clear()
	for y, rw := range rows {
		r.screen.SetLine(rw.x, y, core.CellsFromString(rw.text, rw.style))
	}
	r.screen.Show()
	r.frames++
	return nil
}

// layout walks the tree until height rows are filled. overflow reports
// that at least one more row was pending.
func (r *Renderer) layout(f *runtime.Frame, height int) (rows []row, overflow bool) {
	a := f.Arena
	walk := traverse.Walk(a, traverse.Options{CrossShadow: r.opts.CrossShadow, SkipPlaceholders: true})
	for v := range walk {
		if v.Depth == 0 {
			continue
		}
		x := (v.Depth - 1) * r.opts.Indent
		style := r.style(f, v.Node)
		var next []row
		switch v.Node.Kind() {
		case arena.KindText:
			if v.Node.Text() == "" {
				continue
			}
			for _, line := range strings.Split(v.Node.Text(), "\n") {
				next = append(next, row{x: x, text: line, style: style, lines: 1})
			}
		case arena.KindElement:
			if !r.opts.ShowTags {
				continue
			}
			next = append(next, row{x: x, text: "<" + v.Node.Tag() + ">", style: style.With(core.AttrDim)})
		}
		for _, rw := range next {
			if len(rows) == height {
				return rows, true
			}
			rows = append(rows, rw)
		}
	}
	return rows, false
}

func (r *Renderer) style(f *runtime.Frame, n *arena.Node) core.Style {
	s := core.DefaultStyle()
	if r.opts.Color == nil {
		return s
	}
	if c, ok := state.Get[colorful.Color](f.Engine, n, r.opts.Color); ok {
		s = s.WithForeground(core.FromColorful(c))
	}
	if n.Kind() == arena.KindElement {
		if _, ok := n.Attr("bold"); ok {
			s = s.With(core.AttrBold)
		}
	}
	return s
}

// overflowRow reports the lines left out after shown.
func (r *Renderer) overflowRow(f *runtime.Frame, shown []row) row {
	text := "..."
	if r.opts.Extent != nil {
		if total, ok := state.Get[int](f.Engine, f.Arena.Node(f.Arena.Root()), r.opts.Extent); ok {
			drawn := 0
			for _, rw := range shown {
				drawn += rw.lines
			}
			text = fmt.Sprintf("... %d more lines", total-drawn)
		}
	}
	return row{text: text, style: core.DefaultStyle().With(core.AttrReverse)}
}
