// Package runtime drives the render loop: it waits for a description,
// diffs it, applies the mutations to the arena, brings derived state up
// to date and hands the result to the renderer, one pass at a time.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/arbor/internal/arena"
	"github.com/dshills/arbor/internal/logging"
	"github.com/dshills/arbor/internal/mutation"
	"github.com/dshills/arbor/internal/state"
	"github.com/dshills/arbor/internal/vdom"
)

// Renderer receives every completed pass.
type Renderer interface {
	Render(f *Frame) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(f *Frame) error

// Render calls fn.
func (fn RendererFunc) Render(f *Frame) error { return fn(f) }

// Frame is the outcome of one pass.
type Frame struct {
	Session   uuid.UUID
	Pass      int
	Mutations *mutation.Mutations
	State     *state.Result
	Arena     *arena.Arena
	Engine    *state.Engine
	Duration  time.Duration
}

// Runtime owns the diff engine, the arena and the state engine of one
// mounted tree. It is not safe for concurrent use.
type Runtime struct {
	session  uuid.UUID
	vd       *vdom.VirtualDOM
	arena    *arena.Arena
	engine   *state.Engine
	sink     mutation.Sink
	context  func() *state.Context
	renderer Renderer
	log      *logging.Logger

	passes int
	failed error
}

type options struct {
	vdom     []vdom.Option
	arena    *arena.Arena
	kinds    []*state.Kind
	sinks    []mutation.Sink
	context  func() *state.Context
	renderer Renderer
	log      *logging.Logger
}

// Option configures a Runtime.
type Option func(*options)

// WithVDOMOptions passes options to the diff engine.
func WithVDOMOptions(opts ...vdom.Option) Option {
	return func(o *options) { o.vdom = append(o.vdom, opts...) }
}

// WithArena mounts into a, which lets the caller register custom
// elements first. It must be empty.
func WithArena(a *arena.Arena) Option {
	return func(o *options) { o.arena = a }
}

// WithKinds registers state kinds.
func WithKinds(kinds ...*state.Kind) Option {
	return func(o *options) { o.kinds = append(o.kinds, kinds...) }
}

// WithSink forwards every applied stream to s after the arena.
func WithSink(s mutation.Sink) Option {
	return func(o *options) { o.sinks = append(o.sinks, s) }
}

// WithContext supplies a fresh state context for every pass.
func WithContext(fn func() *state.Context) Option {
	return func(o *options) { o.context = fn }
}

// WithRenderer sets the renderer.
func WithRenderer(r Renderer) Option {
	return func(o *options) { o.renderer = r }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.log = l }
}

// New creates a runtime with a fresh session id.
func New(opts ...Option) (*Runtime, error) {
	o := options{log: logging.NullLogger}
	for _, opt := range opts {
		opt(&o)
	}
	engine, err := state.NewEngine(o.kinds...)
	if err != nil {
		return nil, err
	}
	a := o.arena
	if a == nil {
		a = arena.New()
	}
	if a.Len() != 1 {
		return nil, fmt.Errorf("runtime: arena already holds %d nodes", a.Len()-1)
	}
	if o.context == nil {
		o.context = func() *state.Context { return state.NewContext() }
	}

	session := uuid.New()
	return &Runtime{
		session:  session,
		vd:       vdom.New(nil, o.vdom...),
		arena:    a,
		engine:   engine,
		sink:     mutation.Tee(append([]mutation.Sink{a}, o.sinks...)...),
		context:  o.context,
		renderer: o.renderer,
		log:      o.log.WithComponent("runtime").WithField("session", session.String()[:8]),
	}, nil
}

// Session identifies this runtime in logs and frames.
func (r *Runtime) Session() uuid.UUID { return r.session }

// Arena returns the mounted tree.
func (r *Runtime) Arena() *arena.Arena { return r.arena }

// Engine returns the state engine.
func (r *Runtime) Engine() *state.Engine { return r.engine }

// VDOM returns the diff engine.
func (r *Runtime) VDOM() *vdom.VirtualDOM { return r.vd }

// Passes returns the number of completed passes.
func (r *Runtime) Passes() int { return r.passes }

// Run performs a pass for every description src yields. It returns nil
// when src is exhausted, ctx's error when ctx ends while waiting, and the
// *PassError of the first failed pass.
func (r *Runtime) Run(ctx context.Context, src Source) error {
	r.log.Info("run started")
	for {
		next, err := src.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			r.log.Info("run finished after %d passes", r.passes)
			return nil
		case err != nil:
			r.log.Info("run stopped: %v", err)
			return err
		}
		if _, err := r.Step(next); err != nil {
			r.log.Error("%v", err)
			return err
		}
	}
}

// Step performs one pass. A diff failure leaves every sink untouched.
// After a diff, apply or state failure every later Step returns
// ErrFailed. A render failure is returned with the completed frame and
// does not stop the runtime.
func (r *Runtime) Step(next *vdom.VNode) (*Frame, error) {
	if r.failed != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, r.failed)
	}
	pass := r.passes + 1
	log := r.log.WithField("pass", pass)
	start := time.Now()
	log.Debug("pass started")

	f := &Frame{Session: r.session, Pass: pass, Arena: r.arena, Engine: r.engine}

	var err error
	if f.Mutations, err = guard(pass, StageDiff, func() *mutation.Mutations { return r.vd.Diff(next) }); err != nil {
		return nil, r.fail(err)
	}
	if err := r.sink.Apply(f.Mutations); err != nil {
		return nil, r.fail(&PassError{Pass: pass, Stage: StageApply, Err: err})
	}
	if f.State, err = guard(pass, StageState, func() *state.Result { return r.engine.Update(r.arena, r.context()) }); err != nil {
		return nil, r.fail(err)
	}
	f.Duration = time.Since(start)
	r.passes = pass

	log.WithFields(map[string]any{
		"edits":     f.Mutations.Len(),
		"templates": len(f.Mutations.Templates),
		"updates":   f.State.TotalCalls(),
	}).Debug("pass finished in %s", f.Duration)

	if r.renderer != nil {
		rerr, err := guard(pass, StageRender, func() error { return r.renderer.Render(f) })
		if err == nil && rerr != nil {
			err = &PassError{Pass: pass, Stage: StageRender, Err: rerr}
		}
		if err != nil {
			return f, err
		}
	}
	return f, nil
}

func (r *Runtime) fail(err error) error {
	r.failed = err
	return err
}

// guard runs fn and converts a panic into a *PassError.
func guard[T any](pass int, stage Stage, fn func() T) (v T, err error) {
	defer func() {
		if p := recover(); p != nil {
			perr, ok := p.(error)
			if !ok {
				perr = fmt.Errorf("%v", p)
			}
			err = &PassError{Pass: pass, Stage: stage, Err: perr}
		}
	}()
	return fn(), nil
}
