package script

import "errors"

var (
	// ErrClosed is returned by a closed Host.
	ErrClosed = errors.New("script host closed")

	// ErrDeclaration reports a malformed arbor.kind table.
	ErrDeclaration = errors.New("invalid kind declaration")

	// ErrUnknownDependency reports a dependency naming no known kind.
	ErrUnknownDependency = errors.New("unknown dependency")

	// ErrScript wraps runtime errors raised by an update function. Update
	// calls panic with it, like every other update contract violation.
	ErrScript = errors.New("script error")
)
