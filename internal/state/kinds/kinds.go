// Package kinds provides the built-in derived state kinds: text width,
// line extent, inherited color and depth.
package kinds

import (
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"

	"github.com/dshills/arbor/internal/arena"
	"github.com/dshills/arbor/internal/state"
)

// Set holds one instance of every built-in kind.
type Set struct {
	Size   *state.Kind
	Extent *state.Kind
	Color  *state.Kind
	Depth  *state.Kind
}

// New returns fresh built-in kinds.
func New() *Set {
	return &Set{
		Size:   Size(),
		Extent: Extent(),
		Color:  Color(),
		Depth:  Depth(),
	}
}

// All returns the kinds for state.NewEngine.
func (s *Set) All() []*state.Kind {
	return []*state.Kind{s.Size, s.Extent, s.Color, s.Depth}
}

// Size is the display width of a subtree in terminal cells: the grapheme
// width of a text node, or the widest child of an element. A numeric
// width attribute overrides an element's width. It crosses shadow
// boundaries, so a custom element is as wide as its composed tree.
func Size() *state.Kind {
	k := &state.Kind{
		Name:        "size",
		Mask:        state.Mask{Attrs: state.AttrNames("width"), Text: true},
		CrossShadow: true,
	}
	k.Children = []*state.Kind{k}
	k.Update = func(in state.Input) (any, bool) {
		w := 0
		switch in.Node.NodeKind() {
		case arena.KindText:
			for _, line := range strings.Split(in.Node.Text(), "\n") {
				w = max(w, uniseg.StringWidth(line))
			}
		case arena.KindElement:
			if n, ok := intAttr(in.Node, "width"); ok {
				w = n
				break
			}
			for _, c := range in.ChildDeps(0) {
				w = max(w, asInt(c))
			}
		}
		return w, changedInt(in.Prev, w)
	}
	return k
}

// Extent is the number of lines a subtree occupies when its text nodes are
// stacked: the line count of a text node, or the sum over an element's
// children. A numeric height attribute overrides it. It crosses shadow
// boundaries.
func Extent() *state.Kind {
	k := &state.Kind{
		Name:        "extent",
		Mask:        state.Mask{Attrs: state.AttrNames("height"), Text: true},
		CrossShadow: true,
	}
	k.Children = []*state.Kind{k}
	k.Update = func(in state.Input) (any, bool) {
		h := 0
		switch in.Node.NodeKind() {
		case arena.KindText:
			if t := in.Node.Text(); t != "" {
				h = strings.Count(t, "\n") + 1
			}
		case arena.KindElement:
			if n, ok := intAttr(in.Node, "height"); ok {
				h = n
				break
			}
			for _, c := range in.ChildDeps(0) {
				h += asInt(c)
			}
		}
		return h, changedInt(in.Prev, h)
	}
	return k
}

// Theme is the pass context entry Color needs.
type Theme struct {
	// Foreground is the color of nodes that inherit from nothing.
	Foreground colorful.Color
}

// DefaultTheme returns a light gray foreground.
func DefaultTheme() Theme {
	return Theme{Foreground: colorful.Color{R: 0.8, G: 0.8, B: 0.8}}
}

// Color is the foreground color of a node: its color attribute, or its
// parent's color. A dim attribute blends the result halfway to black.
// Colors stop at shadow boundaries: a shadow tree starts from the theme.
//
// Color reads a Theme from the pass context.
func Color() *state.Kind {
	k := &state.Kind{
		Name: "color",
		Mask: state.Mask{Attrs: state.AttrNames("color", "dim")},
	}
	k.Parent = []*state.Kind{k}
	k.Update = func(in state.Input) (any, bool) {
		c := state.MustContext[Theme](in.Context).Foreground
		if p, ok := in.ParentDep(0).(colorful.Color); ok {
			c = p
		}
		if in.Node.NodeKind() == arena.KindElement {
			if s, ok := in.Node.Attr("color"); ok {
				if parsed, err := ParseColor(s); err == nil {
					c = parsed
				}
			}
			if _, ok := in.Node.Attr("dim"); ok {
				c = c.BlendLab(colorful.Color{}, 0.5).Clamped()
			}
		}
		prev, ok := in.Prev.(colorful.Color)
		return c, !ok || prev.Hex() != c.Hex()
	}
	return k
}

// named maps the color names accepted besides hex notation.
var named = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#00ff00",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"cyan":    "#00ffff",
	"magenta": "#ff00ff",
	"gray":    "#808080",
}

// ParseColor accepts "#rrggbb", "#rgb" and a few color names.
func ParseColor(s string) (colorful.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if hex, ok := named[s]; ok {
		s = hex
	}
	if len(s) == 4 && s[0] == '#' {
		s = "#" + strings.Repeat(s[1:2], 2) + strings.Repeat(s[2:3], 2) + strings.Repeat(s[3:4], 2)
	}
	return colorful.Hex(s)
}

// Depth is the distance from the mount root in the composed tree, shadow
// trees included.
func Depth() *state.Kind {
	k := &state.Kind{Name: "depth", CrossShadow: true}
	k.Parent = []*state.Kind{k}
	k.Update = func(in state.Input) (any, bool) {
		d := 0
		if in.HasParent() {
			d = asInt(in.ParentDep(0)) + 1
		}
		return d, changedInt(in.Prev, d)
	}
	return k
}

func intAttr(v state.NodeView, name string) (int, bool) {
	s, ok := v.Attr(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func asInt(v any) int {
	n, _ := v.(int)
	return n
}

func changedInt(prev any, v int) bool {
	p, ok := prev.(int)
	return !ok || p != v
}
