// Package renderer draws a runtime frame onto a backend.
//
// The tree is drawn as an outline: one row per text line, indented by
// tree depth, colored by the Color state kind when one is configured.
// Element rows can be shown too. When the tree does not fit, the last row
// reports how many lines were left out, using the Extent state kind to
// count them without walking the rest of the tree.
//
// Drawing goes through a BufferedBackend, so each frame only sends the
// cells that changed since the previous one.
//
// Usage:
//
//	term, _ := backend.NewTerminal()
//	r := renderer.New(term, renderer.DefaultOptions())
//	_ = r.Init()
//	rt, _ := runtime.New(runtime.WithRenderer(r))
package renderer
