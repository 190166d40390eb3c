package vdom

import (
	"fmt"
	"reflect"

	"github.com/dshills/arbor/internal/mutation"
	"github.com/dshills/arbor/internal/template"
)

// ComponentFunc produces the application's root VNode.
type ComponentFunc func() *VNode

// VirtualDOM holds the last rendered tree and turns new descriptions into
// mutation streams.
type VirtualDOM struct {
	root    ComponentFunc
	current *VNode
	ids     *idSlab
	seen    map[string]*template.Template
	falsy   falseRules

	// out collects the pass in progress.
	out *mutation.Mutations

	renders  int
	skipped  int
	poisoned bool
}

// Option configures a VirtualDOM.
type Option func(*VirtualDOM)

// WithPreserveFalse replaces the list of attributes whose false value is
// sent as "false". Entries ending in '*' match by prefix.
func WithPreserveFalse(names ...string) Option {
	return func(vd *VirtualDOM) {
		vd.falsy = newFalseRules(names)
	}
}

// New creates a VirtualDOM rendering root. root may be nil when the caller
// only uses Diff.
func New(root ComponentFunc, opts ...Option) *VirtualDOM {
	vd := &VirtualDOM{
		root:  root,
		ids:   newIDSlab(),
		seen:  make(map[string]*template.Template),
		falsy: newFalseRules(DefaultPreserveFalse),
	}
	for _, opt := range opts {
		opt(vd)
	}
	return vd
}

// Rebuild renders the root component and returns the stream that mounts
// it under the mount root. On an already mounted tree it behaves like
// Render.
func (vd *VirtualDOM) Rebuild() *mutation.Mutations {
	return vd.Diff(vd.renderRoot())
}

// Render renders the root component again and returns the stream that
// brings the previous tree up to date.
func (vd *VirtualDOM) Render() *mutation.Mutations {
	return vd.Diff(vd.renderRoot())
}

func (vd *VirtualDOM) renderRoot() *VNode {
	if vd.root == nil {
		panic("vdom: no root component")
	}
	vd.renders++
	return vd.root()
}

// Diff compares next with the tree rendered last and returns the stream
// that turns one into the other. The first call mounts next under the
// mount root.
//
// Diff panics on a contract violation, such as dynamic values that do not
// match their template. No stream is returned in that case, and the
// VirtualDOM refuses further use.
func (vd *VirtualDOM) Diff(next *VNode) *mutation.Mutations {
	if vd.poisoned {
		panic(ErrPoisoned)
	}
	if next == nil {
		panic(fmt.Errorf("%w: nil root", ErrArity))
	}
	vd.out = &mutation.Mutations{}
	defer func() {
		if r := recover(); r != nil {
			vd.poisoned = true
			vd.out = nil
			panic(r)
		}
	}()

	if vd.current == nil {
		m := vd.create(next)
		vd.push(mutation.AppendChildren{ID: mutation.RootID, M: m})
	} else {
		vd.diff(vd.current, next)
	}
	vd.current = next

	out := vd.out
	vd.out = nil
	return out
}

// Current returns the tree rendered last, or nil before the first pass.
func (vd *VirtualDOM) Current() *VNode {
	return vd.current
}

// LiveIDs returns the number of identities currently allocated.
func (vd *VirtualDOM) LiveIDs() int {
	return vd.ids.live
}

// ComponentRenders returns how many times components, the root included,
// have been rendered.
func (vd *VirtualDOM) ComponentRenders() int {
	return vd.renders
}

// SkippedRenders returns how many component renders were skipped because
// their props did not change.
func (vd *VirtualDOM) SkippedRenders() int {
	return vd.skipped
}

// Templates returns the number of distinct templates sent so far.
func (vd *VirtualDOM) Templates() int {
	return len(vd.seen)
}

func (vd *VirtualDOM) push(m mutation.Mutation) {
	vd.out.Push(m)
}

// useTemplate validates a template the first time it is seen and queues it
// for the renderer.
func (vd *VirtualDOM) useTemplate(t *template.Template) {
	prev, ok := vd.seen[t.Name]
	if ok {
		if prev != t && !reflect.DeepEqual(prev, t) {
			panic(fmt.Errorf("%w: %q", ErrTemplateConflict, t.Name))
		}
		return
	}
	if err := t.Validate(); err != nil {
		panic(err)
	}
	vd.seen[t.Name] = t
	vd.out.Templates = append(vd.out.Templates, t)
}
