// Package arena owns materialized tree nodes.
//
// The Arena is the single source of truth for which ElementID maps to which
// node and is the only component that mutates node records. Nodes live in a
// slab indexed by Handle; parent, child and shadow relations are handles into
// the same slab, never pointers, so removing a subtree only has to clear
// slab entries and unbind identities.
//
// A renderer drives the arena with mutation streams:
//
//	a := arena.New()
//	if err := a.Apply(muts); err != nil {
//	    // the stream is invalid; the arena is left at the failing edit
//	}
//
// Templates listed in a stream are materialized once into prototypes by the
// TemplateStore. LoadTemplate then clones the prototype instead of walking
// the template again.
package arena
