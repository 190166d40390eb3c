package loader

import "errors"

// ErrUnknownFormat is returned by ForPath for an unsupported extension.
var ErrUnknownFormat = errors.New("unknown config format")
