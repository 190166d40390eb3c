package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/arbor/internal/state"
)

// declaration is one arbor.kind table, before dependency names are
// resolved.
type declaration struct {
	name     string
	mask     state.Mask
	node     []string
	parent   []string
	children []string
	cross    bool
	update   *lua.LFunction
}

// declare implements arbor.kind.
func (h *Host) declare(L *lua.LState) int {
	t := L.CheckTable(1)
	d, err := parseDeclaration(t)
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	for _, prev := range h.decls {
		if prev.name == d.name {
			L.RaiseError("%v", fmt.Errorf("%w: kind %q declared twice", ErrDeclaration, d.name))
			return 0
		}
	}
	h.decls = append(h.decls, d)
	return 0
}

func parseDeclaration(t *lua.LTable) (*declaration, error) {
	d := &declaration{}
	name, ok := t.RawGetString("name").(lua.LString)
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: name must be a non-empty string", ErrDeclaration)
	}
	d.name = string(name)

	fn, ok := t.RawGetString("update").(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("%w: kind %q: update must be a function", ErrDeclaration, d.name)
	}
	d.update = fn

	var err error
	switch v := t.RawGetString("attrs").(type) {
	case *lua.LNilType:
	case lua.LString:
		if v != "*" {
			return nil, fmt.Errorf("%w: kind %q: attrs must be a list or \"*\"", ErrDeclaration, d.name)
		}
		d.mask.Attrs = state.AllAttrs
	case *lua.LTable:
		names, err := stringList(v)
		if err != nil {
			return nil, fmt.Errorf("%w: kind %q: attrs: %v", ErrDeclaration, d.name, err)
		}
		d.mask.Attrs = state.AttrNames(names...)
	default:
		return nil, fmt.Errorf("%w: kind %q: attrs must be a list or \"*\"", ErrDeclaration, d.name)
	}
	d.mask.Text = lua.LVAsBool(t.RawGetString("text"))
	d.mask.Tag = lua.LVAsBool(t.RawGetString("tag"))
	d.mask.Listeners = lua.LVAsBool(t.RawGetString("listeners"))
	d.cross = lua.LVAsBool(t.RawGetString("cross_shadow"))

	for _, f := range []struct {
		key  string
		dest *[]string
	}{
		{"node", &d.node},
		{"parent", &d.parent},
		{"children", &d.children},
	} {
		switch v := t.RawGetString(f.key).(type) {
		case *lua.LNilType:
		case *lua.LTable:
			if *f.dest, err = stringList(v); err != nil {
				return nil, fmt.Errorf("%w: kind %q: %s: %v", ErrDeclaration, d.name, f.key, err)
			}
		default:
			return nil, fmt.Errorf("%w: kind %q: %s must be a list of kind names", ErrDeclaration, d.name, f.key)
		}
	}
	return d, nil
}

func stringList(t *lua.LTable) ([]string, error) {
	n := t.Len()
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		s, ok := t.RawGetInt(i).(lua.LString)
		if !ok {
			return nil, fmt.Errorf("entry %d is not a string", i)
		}
		out = append(out, string(s))
	}
	return out, nil
}
