package vdom

import "errors"

// Contract violations. The engine panics with an error wrapping one of
// these; they indicate a bug in the template compiler or the application,
// never a runtime condition to recover from.
var (
	// ErrArity indicates dynamic values that do not match the template's
	// slot counts.
	ErrArity = errors.New("dynamic values do not match template slots")

	// ErrSlotKind indicates a dynamic value of the wrong kind for its slot,
	// such as a fragment in a DynamicText slot.
	ErrSlotKind = errors.New("dynamic value does not fit its slot")

	// ErrAlreadyMounted indicates a VNode rendered in two places at once.
	ErrAlreadyMounted = errors.New("vnode is already mounted")

	// ErrTemplateConflict indicates two different templates sharing a name.
	ErrTemplateConflict = errors.New("conflicting templates share a name")

	// ErrPoisoned indicates use of a VirtualDOM after a contract violation
	// left it inconsistent.
	ErrPoisoned = errors.New("virtual dom is unusable after a contract violation")
)
