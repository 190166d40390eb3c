// Package vdom is the reconciliation engine.
//
// An application describes its UI as a tree of VNodes: a shared template
// plus per-instance dynamic nodes and attributes. VirtualDOM keeps the tree
// it rendered last, compares it with the next description and emits the
// mutation stream that turns one into the other.
//
// Static parts of a template are never compared: two VNodes built from the
// same template differ only in their dynamic slots, so the cost of a diff
// follows the amount of dynamic content rather than the size of the tree.
//
// Fragments are diffed by position. Reordering keyed children is reported
// as in-place changes, not moves.
//
// A VirtualDOM is not safe for concurrent use.
package vdom
