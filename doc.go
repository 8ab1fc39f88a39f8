// Package graphopt is a graph rewriting engine for a computation-graph
// compiler.
//
// A compiler builds a directed acyclic graph of typed value nodes produced
// by operator applications. This module transforms that graph through a
// composable library of rewrites that preserve observable semantics while
// canonicalizing, simplifying, and specializing it ahead of code generation.
//
// Subpackages:
//
//	core/    — the Value/Node/Graph data model and the Feature callback
//	           contract every rewrite driver observes.
//	rewrite/ — the rewrite driver framework: sequential composition,
//	           topological and op-indexed traversal, local-optimizer
//	           dispatch, and the equilibrium (fixed-point) driver.
//	merge/   — an incremental common-subexpression merger built as a Feature.
//	pattern/ — a syntactic pattern matcher and substituter.
//
// graphopt intentionally knows nothing about operator semantics, numeric
// type lattices, code generation, or the surrounding compilation pipeline —
// those are supplied by the host compiler. It also runs single-threaded: a
// Graph and its rewriters are meant to be driven from one goroutine at a
// time, the same way a compiler pass runs to completion before the next one
// starts.
package graphopt
