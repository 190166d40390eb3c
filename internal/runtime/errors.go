package runtime

import (
	"errors"
	"fmt"
)

// ErrFailed is returned by every pass after one has failed. The arena and
// the diff engine may disagree at that point, so the runtime stops.
var ErrFailed = errors.New("runtime stopped after a failed pass")

// Stage names the part of a pass that failed.
type Stage string

const (
	StageDiff   Stage = "diff"
	StageApply  Stage = "apply"
	StageState  Stage = "state"
	StageRender Stage = "render"
)

// PassError reports a failed pass. A panic inside the pass is recovered
// into a PassError; Err is the panic value when it was an error.
type PassError struct {
	Pass  int
	Stage Stage
	Err   error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("pass %d: %s: %v", e.Pass, e.Stage, e.Err)
}

func (e *PassError) Unwrap() error {
	return e.Err
}
