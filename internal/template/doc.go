// Package template defines the static shape of a UI tree.
//
// A Template is produced once by a compiler (or by hand in tests) and shared
// read-only by every instantiation. Dynamic parts of the shape are holes that
// are filled per instance: Dynamic and DynamicText nodes index into a
// per-instance slice of dynamic nodes, DynamicAttr attributes index into a
// per-instance slice of attributes.
//
// For every hole the template records the path from a root to the hole:
//
//	path[0]   root index
//	path[1:]  child indices, outermost first
//
// Paths let a renderer locate a hole inside a freshly cloned template
// without the producer sending identities for the static nodes around it.
package template
