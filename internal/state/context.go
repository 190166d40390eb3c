package state

import (
	"fmt"
	"reflect"
)

// Context carries values shared by every update of a pass, such as font
// metrics. Entries are keyed by type. The driver builds a Context for each
// pass; kinds must not keep it.
type Context struct {
	values map[reflect.Type]any
}

// NewContext returns a context holding values, each keyed by its dynamic
// type.
func NewContext(values ...any) *Context {
	c := &Context{values: make(map[reflect.Type]any, len(values))}
	for _, v := range values {
		if v != nil {
			c.values[reflect.TypeOf(v)] = v
		}
	}
	return c
}

// Provide stores v under type T and returns c.
func Provide[T any](c *Context, v T) *Context {
	c.values[reflect.TypeFor[T]()] = v
	return c
}

// Lookup returns the entry of type T.
func Lookup[T any](c *Context) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	v, ok := c.values[reflect.TypeFor[T]()]
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// MustContext returns the entry of type T. A missing entry is a
// configuration error and panics.
func MustContext[T any](c *Context) T {
	v, ok := Lookup[T](c)
	if !ok {
		panic(fmt.Errorf("%w: %v", ErrMissingContext, reflect.TypeFor[T]()))
	}
	return v
}

// Len returns the number of entries.
func (c *Context) Len() int {
	if c == nil {
		return 0
	}
	return len(c.values)
}
