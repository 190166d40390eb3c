package state

import "errors"

var (
	// ErrInvalidKind indicates a kind without a name or update function.
	ErrInvalidKind = errors.New("invalid state kind")

	// ErrDuplicateKind indicates two kinds registered under one name.
	ErrDuplicateKind = errors.New("duplicate state kind")

	// ErrUnknownKind indicates a dependency on a kind the engine does not
	// know.
	ErrUnknownKind = errors.New("unknown state kind")

	// ErrDependencyCycle indicates kinds that depend on each other.
	ErrDependencyCycle = errors.New("state kind dependency cycle")

	// ErrOutsideMask indicates an update reading node content it did not
	// declare.
	ErrOutsideMask = errors.New("read outside the declared mask")

	// ErrMissingContext indicates a required context entry absent from
	// the pass.
	ErrMissingContext = errors.New("missing context entry")

	// ErrNoFixedPoint indicates a kind that reads itself both up and down
	// the tree and never settles.
	ErrNoFixedPoint = errors.New("state kind does not settle")
)
