package script

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/arbor/internal/arena"
	"github.com/dshills/arbor/internal/state"
)

// nodeTable exposes the masked part of a node.
func nodeTable(L *lua.LState, v state.NodeView, m state.Mask) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("kind", lua.LString(v.NodeKind().String()))
	if m.Tag && v.NodeKind() == arena.KindElement {
		t.RawSetString("tag", lua.LString(v.Tag()))
	}
	if m.Text && v.NodeKind() == arena.KindText {
		t.RawSetString("text", lua.LString(v.Text()))
	}
	attrs := L.NewTable()
	for _, a := range v.Attrs() {
		attrs.RawSetString(a.Name, lua.LString(a.Value))
	}
	t.RawSetString("attrs", attrs)
	if m.Listeners && v.NodeKind() == arena.KindElement {
		ls := L.NewTable()
		for _, name := range v.Listeners() {
			ls.Append(lua.LString(name))
		}
		t.RawSetString("listeners", ls)
	}
	return t
}

// depsTable exposes the dependency values an update may read.
func depsTable(L *lua.LState, in state.Input, d *declaration) *lua.LTable {
	t := L.NewTable()

	node := L.NewTable()
	for i, name := range d.node {
		node.RawSetString(name, toLua(L, in.Dep(i)))
	}
	t.RawSetString("node", node)

	if in.HasParent() && len(d.parent) > 0 {
		parent := L.NewTable()
		for i, name := range d.parent {
			parent.RawSetString(name, toLua(L, in.ParentDep(i)))
		}
		t.RawSetString("parent", parent)
	}

	children := L.NewTable()
	for c := 0; c < in.NumChildren(); c++ {
		child := L.NewTable()
		for i, name := range d.children {
			child.RawSetString(name, toLua(L, in.ChildDep(c, i)))
		}
		children.Append(child)
	}
	t.RawSetString("children", children)
	return t
}

// toLua converts a Go value. Values with no Lua counterpart travel as
// userdata and come back unchanged.
func toLua(L *lua.LState, v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case string:
		return lua.LString(v)
	case []any:
		t := L.NewTable()
		for _, e := range v {
			t.Append(toLua(L, e))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.RawSetString(k, toLua(L, v[k]))
		}
		return t
	default:
		ud := L.NewUserData()
		ud.Value = v
		return ud
	}
}

// toGo converts a Lua value. Whole numbers become int64, sequences
// become []any and other tables map[string]any. Functions and cyclic
// references become nil.
func toGo(v lua.LValue) any {
	return toGoSeen(v, make(map[*lua.LTable]bool))
}

func toGoSeen(v lua.LValue, seen map[*lua.LTable]bool) any {
	switch v := v.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LUserData:
		return v.Value
	case *lua.LTable:
		if seen[v] {
			return nil
		}
		seen[v] = true
		defer delete(seen, v)
		return tableToGo(v, seen)
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, seen map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(lua.LValue, lua.LValue) { count++ })
	if n > 0 && n == count {
		out := make([]any, n)
		for i := 1; i <= n; i++ {
			out[i-1] = toGoSeen(t.RawGetInt(i), seen)
		}
		return out
	}
	out := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch k := k.(type) {
		case lua.LString:
			key = string(k)
		case lua.LNumber:
			key = fmt.Sprint(toGoSeen(k, seen))
		default:
			key = k.String()
		}
		out[key] = toGoSeen(v, seen)
	})
	return out
}
