package script

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/rivo/uniseg"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/arbor/internal/logging"
	"github.com/dshills/arbor/internal/state"
)

// DefaultTimeout bounds one load or update call.
const DefaultTimeout = 250 * time.Millisecond

// Host owns a sandboxed Lua state and the kinds its scripts declared.
// Lua states are not goroutine safe; Host serializes every call.
type Host struct {
	mu      sync.Mutex
	L       *lua.LState
	timeout time.Duration
	log     *logging.Logger
	decls   []*declaration
	calls   int
	closed  bool
}

// Option configures a Host.
type Option func(*Host)

// WithTimeout bounds every load and update call; zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(h *Host) {
		if d >= 0 {
			h.timeout = d
		}
	}
}

// WithLogger routes the scripts' print calls and load reports.
func WithLogger(l *logging.Logger) Option {
	return func(h *Host) { h.log = l }
}

// New creates a host with an empty sandbox.
func New(opts ...Option) *Host {
	h := &Host{
		timeout: DefaultTimeout,
		log:     logging.NullLogger,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.WithComponent("script")

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("print", L.NewFunction(h.print))
	L.SetGlobal("arbor", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"kind":  h.declare,
		"width": luaWidth,
	}))
	h.L = L
	return h
}

// LoadString runs a script. name labels errors and log lines.
func (h *Host) LoadString(name, src string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	before := len(h.decls)
	err := h.bounded(func() error {
		fn, err := h.L.Load(strings.NewReader(src), name)
		if err != nil {
			return err
		}
		h.L.Push(fn)
		return h.L.PCall(0, 0, nil)
	})
	if err != nil {
		h.decls = h.decls[:before]
		return fmt.Errorf("loading %s: %w", name, err)
	}
	h.log.Debug("%s declared %d kinds", name, len(h.decls)-before)
	return nil
}

// LoadFile runs the script at path.
func (h *Host) LoadFile(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	before := len(h.decls)
	err := h.bounded(func() error { return h.L.DoFile(path) })
	if err != nil {
		h.decls = h.decls[:before]
		return fmt.Errorf("loading %s: %w", path, err)
	}
	h.log.Debug("%s declared %d kinds", path, len(h.decls)-before)
	return nil
}

// Kinds builds a state kind per declaration, in declaration order.
// Dependencies resolve against the declared kinds and the given builtin
// kinds, which must be registered with the engine alongside the result.
func (h *Host) Kinds(builtin ...*state.Kind) ([]*state.Kind, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}

	byName := make(map[string]*state.Kind, len(builtin)+len(h.decls))
	for _, k := range builtin {
		byName[k.Name] = k
	}
	out := make([]*state.Kind, len(h.decls))
	for i, d := range h.decls {
		if _, clash := byName[d.name]; clash {
			return nil, fmt.Errorf("%w: %q", state.ErrDuplicateKind, d.name)
		}
		k := &state.Kind{Name: d.name, Mask: d.mask, CrossShadow: d.cross}
		byName[d.name] = k
		out[i] = k
	}

	resolve := func(d *declaration, names []string) ([]*state.Kind, error) {
		ks := make([]*state.Kind, len(names))
		for i, n := range names {
			k, ok := byName[n]
			if !ok {
				return nil, fmt.Errorf("%w: kind %q reads %q", ErrUnknownDependency, d.name, n)
			}
			ks[i] = k
		}
		return ks, nil
	}
	for i, d := range h.decls {
		k := out[i]
		var err error
		if k.Node, err = resolve(d, d.node); err != nil {
			return nil, err
		}
		if k.Parent, err = resolve(d, d.parent); err != nil {
			return nil, err
		}
		if k.Children, err = resolve(d, d.children); err != nil {
			return nil, err
		}
		k.Update = h.updater(d)
	}
	return out, nil
}

// Calls returns the number of update calls made so far.
func (h *Host) Calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

// Close releases the Lua state. Kinds built by the host panic with
// ErrClosed afterwards.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.L.Close()
}

// updater adapts a declaration's Lua function to state.Kind.Update.
func (h *Host) updater(d *declaration) func(state.Input) (any, bool) {
	return func(in state.Input) (any, bool) {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.closed {
			panic(ErrClosed)
		}
		h.calls++

		L := h.L
		top := L.GetTop()
		defer L.SetTop(top)
		var ret lua.LValue
		err := h.bounded(func() error {
			L.Push(d.update)
			L.Push(nodeTable(L, in.Node, d.mask))
			L.Push(toLua(L, in.Prev))
			L.Push(depsTable(L, in, d))
			if err := L.PCall(3, 1, nil); err != nil {
				return err
			}
			ret = L.Get(-1)
			return nil
		})
		if err != nil {
			panic(fmt.Errorf("%w: kind %q: %v", ErrScript, d.name, err))
		}
		v := toGo(ret)
		return v, !reflect.DeepEqual(in.Prev, v)
	}
}

// bounded runs fn with the host's timeout installed on the Lua state.
func (h *Host) bounded(fn func() error) (err error) {
	if h.timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()
		h.L.SetContext(ctx)
		defer h.L.RemoveContext()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

func (h *Host) print(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	h.log.Info("%s", strings.Join(parts, "\t"))
	return 0
}

// luaWidth is arbor.width(s): the terminal cell width of s.
func luaWidth(L *lua.LState) int {
	L.Push(lua.LNumber(uniseg.StringWidth(L.CheckString(1))))
	return 1
}
