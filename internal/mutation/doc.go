// Package mutation defines the stack machine protocol between the
// reconciliation engine and a renderer.
//
// Producer and consumer share an implicit stack of node identities.
// Create operations (CreatePlaceholder, CreateText, LoadTemplate, PushRoot)
// push onto the stack; placement operations (AppendChildren, InsertBefore,
// InsertAfter, ReplaceWith, ReplacePlaceholder) pop M entries off it.
// AssignID and ReplacePlaceholder address static nodes by a path relative
// to the node on top of the stack, which is the most recent template load.
//
// A stream is not commutative. A consumer must apply edits in order and may
// apply each edit as soon as it is received.
package mutation
