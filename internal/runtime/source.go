package runtime

import (
	"context"
	"io"

	"github.com/dshills/arbor/internal/vdom"
)

// Source yields the next description of the UI. Next blocks until one is
// ready and returns io.EOF when there are no more.
type Source interface {
	Next(ctx context.Context) (*vdom.VNode, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*vdom.VNode, error)

// Next calls f.
func (f SourceFunc) Next(ctx context.Context) (*vdom.VNode, error) {
	return f(ctx)
}

// Chan reads descriptions from ch until it is closed.
func Chan(ch <-chan *vdom.VNode) Source {
	return SourceFunc(func(ctx context.Context) (*vdom.VNode, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case v, ok := <-ch:
			if !ok {
				return nil, io.EOF
			}
			return v, nil
		}
	})
}

// Slice yields the given descriptions in order.
func Slice(vs ...*vdom.VNode) Source {
	i := 0
	return SourceFunc(func(ctx context.Context) (*vdom.VNode, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i == len(vs) {
			return nil, io.EOF
		}
		i++
		return vs[i-1], nil
	})
}

// Ticks renders root each time tick fires, starting immediately.
func Ticks(tick <-chan struct{}, root vdom.ComponentFunc) Source {
	first := true
	return SourceFunc(func(ctx context.Context) (*vdom.VNode, error) {
		if first {
			first = false
			return root(), nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case _, ok := <-tick:
			if !ok {
				return nil, io.EOF
			}
			return root(), nil
		}
	})
}
