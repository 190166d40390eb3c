package main

import (
	"fmt"
	"strconv"

	"github.com/dshills/arbor/internal/arena"
	"github.com/dshills/arbor/internal/template"
	"github.com/dshills/arbor/internal/vdom"
)

// Demo templates. The panel is a custom element whose shadow tree draws a
// caption above the slotted content.
var (
	appTemplate = template.Build("app",
		template.El("div", nil,
			template.El("x-panel", nil,
				template.El("h1", template.Attrs(template.Static("color", "#5fafff"), template.Static("bold", "")),
					template.DynamicText{ID: 0}),
			),
			template.El("ul", nil, template.Dynamic{ID: 1}),
			template.El("p", template.Attrs(template.Static("dim", "")), template.DynamicText{ID: 2}),
		),
	)
	counterTemplate = template.Build("counter",
		template.El("li", template.Attrs(template.DynamicAttr{ID: 0}), template.DynamicText{ID: 0}),
	)
	// rowTemplate wraps one counter component so it can be a fragment item.
	rowTemplate = template.Build("row", template.Dynamic{ID: 0})
)

// registerElements installs the demo's custom elements on a.
func registerElements(a *arena.Arena) {
	a.RegisterCustomElement("x-panel", func(b *arena.ShadowBuilder) {
		frame := b.Element("frame")
		b.Append(frame, b.Text("== arbor =="))
		slot := b.Element("slot")
		b.Append(frame, slot)
		b.Slot(slot)
	})
}

// hot is the value above which a counter is drawn in the alert color.
const hot = 5

// counters is the demo model: a growing list of counters, one of which
// is bumped per tick.
type counters struct {
	max    int
	tick   int
	values []int
}

func newCounters(max int) *counters {
	return &counters{max: max, values: []int{0}}
}

// advance bumps one counter and adds a new one every third tick until
// max counters exist.
func (c *counters) advance() {
	c.tick++
	if c.tick%3 == 0 && len(c.values) < c.max {
		c.values = append(c.values, 0)
	}
	c.values[c.tick%len(c.values)]++
}

// counterProps is comparable, so unchanged rows skip rendering.
type counterProps struct {
	index int
	value int
}

func renderCounter(p any) *vdom.VNode {
	props := p.(counterProps)
	var color vdom.Value = vdom.None{}
	if props.value > hot {
		color = vdom.String("#ff5f5f")
	}
	return vdom.NewVNode(counterTemplate,
		[]vdom.DynamicNode{vdom.Text{Value: fmt.Sprintf("counter %d: %d", props.index, props.value)}},
		[]vdom.Attribute{vdom.Attr("color", color)},
	)
}

// view describes the current model.
func (c *counters) view() *vdom.VNode {
	rows := make([]*vdom.VNode, len(c.values))
	for i, v := range c.values {
		rows[i] = vdom.NewVNode(rowTemplate, []vdom.DynamicNode{vdom.Component{
			Name:   "counter-" + strconv.Itoa(i),
			Props:  counterProps{index: i, value: v},
			Render: renderCounter,
		}}, nil)
	}
	return vdom.NewVNode(appTemplate, []vdom.DynamicNode{
		vdom.Text{Value: fmt.Sprintf("Counters (tick %d)", c.tick)},
		vdom.Frag(rows...),
		vdom.Text{Value: "press q to quit"},
	}, nil)
}
