package arena

// Change records what happened to a node since changes were last taken.
// The state engine uses it to decide which derived values are stale.
type Change struct {
	// Created is set for nodes allocated since the last take.
	Created bool

	// Text is set when a text payload changed.
	Text bool

	// Attrs holds the names of changed attributes.
	Attrs map[string]struct{}

	// Listeners is set when the listener set changed.
	Listeners bool

	// Children is set when the child list changed.
	Children bool

	// Parent is set when the node was placed under a (new) parent.
	Parent bool
}

// AttrChanged reports whether the named attribute changed.
func (c *Change) AttrChanged(name string) bool {
	_, ok := c.Attrs[name]
	return ok
}

func (c *Change) markAttr(name string) {
	if c.Attrs == nil {
		c.Attrs = make(map[string]struct{})
	}
	c.Attrs[name] = struct{}{}
}

func (a *Arena) change(h Handle) *Change {
	c, ok := a.changes[h]
	if !ok {
		c = &Change{}
		a.changes[h] = c
	}
	return c
}

// TakeChanges returns the changes recorded for live nodes since the last
// call and starts a new recording.
func (a *Arena) TakeChanges() map[Handle]*Change {
	out := a.changes
	a.changes = make(map[Handle]*Change)
	return out
}

// PendingChanges returns the number of nodes with recorded changes.
func (a *Arena) PendingChanges() int {
	return len(a.changes)
}
