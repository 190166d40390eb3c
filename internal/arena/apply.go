package arena

import (
	"errors"
	"fmt"

	"github.com/dshills/arbor/internal/mutation"
)

// Apply registers the stream's templates and applies its edits in order.
// It stops at the first failing edit and returns an *Error carrying the
// edit's position; edits before it stay applied.
//
// Apply makes Arena a mutation.Sink.
func (a *Arena) Apply(m *mutation.Mutations) error {
	if m == nil {
		return nil
	}
	for _, t := range m.Templates {
		a.store.Register(t)
	}
	for i, e := range m.Edits {
		if err := a.ApplyEdit(e); err != nil {
			var ae *Error
			if errors.As(err, &ae) {
				ae.Index = i
				return ae
			}
			return &Error{Op: e.Op(), Index: i, Err: err}
		}
	}
	return nil
}

// ApplyEdit applies a single edit.
func (a *Arena) ApplyEdit(e mutation.Mutation) error {
	switch e := e.(type) {
	case mutation.AssignID:
		return a.AssignID(e.Path, e.ID)
	case mutation.CreatePlaceholder:
		return a.CreatePlaceholder(e.ID)
	case mutation.CreateText:
		return a.CreateText(e.Value, e.ID)
	case mutation.LoadTemplate:
		return a.LoadTemplate(e.Name, e.Index, e.ID)
	case mutation.AppendChildren:
		return a.AppendChildren(e.ID, e.M)
	case mutation.InsertBefore:
		return a.InsertBefore(e.ID, e.M)
	case mutation.InsertAfter:
		return a.InsertAfter(e.ID, e.M)
	case mutation.ReplaceWith:
		return a.ReplaceWith(e.ID, e.M)
	case mutation.ReplacePlaceholder:
		return a.ReplacePlaceholder(e.Path, e.M)
	case mutation.Remove:
		return a.Remove(e.ID)
	case mutation.RemoveRange:
		return a.RemoveRange(e.ID, e.M)
	case mutation.PushRoot:
		return a.PushRoot(e.ID)
	case mutation.SetText:
		return a.SetText(e.ID, e.Value)
	case mutation.SetAttribute:
		return a.SetAttribute(e.ID, e.Name, e.Namespace, e.Value)
	case mutation.NewEventListener:
		return a.NewEventListener(e.Name, e.ID)
	case mutation.RemoveEventListener:
		return a.RemoveEventListener(e.Name, e.ID)
	default:
		return fmt.Errorf("arena: unsupported mutation %T", e)
	}
}
