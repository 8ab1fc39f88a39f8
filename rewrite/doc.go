// Package rewrite is the rewrite driver framework: the Rewriter
// abstractions, sequential composition, traversal-ordered drivers, local
// rewriter dispatch, and the equilibrium (fixed-point) driver that run
// node-local and whole-graph rewrites over a core.Graph.
//
// Every driver in this package is built from the same small set of parts:
//
//	GlobalRewriter / NodeRewriter — what a rewrite does (§4.1)
//	SeqOptimizer                 — sequential composition with a failure
//	                                policy (§4.2)
//	NavigatorOptimizer            — the shared base every traversal driver
//	                                embeds: outcome normalization and the
//	                                single call into core.Graph's validated
//	                                replace family (each driver attaches its
//	                                own Updater)
//	TopoOptimizer / OpKeyOptimizer — single-pass traversal orders (§4.6)
//	LocalOptTracker / LocalOptGroup — dispatch and composition of local
//	                                   rewriters by operator (§4.7)
//	EquilibriumOptimizer          — fixed-point driver with a use-ratio
//	                                safety bound (§4.8)
//
// None of these types know anything about what a rewrite actually computes;
// that is supplied by the host compiler as a NodeRewriter or GlobalRewriter
// implementation, or composed from merge.MergeOptimizer / pattern.PatternSub.
package rewrite
