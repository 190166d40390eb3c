// Package state computes derived per-node values over an arena.
//
// A Kind declares what node content it reads, which other kinds it reads
// on the same node, on the parent and on the children, and how to compute
// its value. An Engine orders the kinds so that every value is computed
// after the values it reads, then keeps them up to date pass after pass,
// calling a kind's Update only for nodes whose inputs changed.
//
// Kinds that read their children run bottom up, kinds that read their
// parent run top down. A kind may read itself across the tree, which is
// how inherited and aggregated values are written.
package state
