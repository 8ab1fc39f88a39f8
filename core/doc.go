// Package core defines the central Value, Node, and Graph types that every
// rewrite in this module operates on, and the Feature callback contract
// rewrite drivers use to observe graph mutation.
//
// A Graph is a DAG of Values connected by Nodes: a Node applies an Op to an
// ordered list of input Values and produces an ordered list of output
// Values. Values come in three kinds — Constant, Computed (produced by a
// Node), and InputPlaceholder (a free variable supplied by the host
// compiler) — see Kind.
//
// Unlike the locking, multi-goroutine style used elsewhere in this module's
// ancestry, Graph is deliberately NOT internally synchronized: a rewrite
// session drives one Graph from a single goroutine at a time, the same way
// a compiler pass runs start-to-finish before the next one begins. Callers
// who need to share a Graph across goroutines must serialize access
// themselves; see the package-level concurrency note in graphopt's root
// doc.go.
package core
