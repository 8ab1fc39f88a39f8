// File: outcome.go
// Role: the Outcome type a NodeRewriter returns, and the Rewriter
// abstractions (§4.1) every driver in this package consumes.
package rewrite

import "github.com/graphopt/graphopt/core"

// Outcome is what a NodeRewriter.Transform call reports: either "this
// rewriter does not apply here" (the zero value), or a set of Old→New
// Replacements to install, plus any Nodes the rewriter knows become dead as
// a direct result (Remove) — mirroring the dict-or-list-of-replacements
// shape a node-local rewrite can hand back, normalized into one type.
type Outcome struct {
	Applicable   bool
	Replacements []core.Replacement
	Remove       []*core.Node
}

// NotApplicable is the Outcome a NodeRewriter returns when it has nothing
// to do for the node it was given.
func NotApplicable() Outcome { return Outcome{} }

// ReplaceOutputs builds an Outcome pairing node's outputs, in order, with
// replacements. len(replacements) must equal len(node.Outputs); this is
// the common case where a rewriter produces one replacement per output.
func ReplaceOutputs(node *core.Node, replacements ...*core.Value) Outcome {
	pairs := make([]core.Replacement, len(replacements))
	for i, r := range replacements {
		pairs[i] = core.Replacement{Old: node.Outputs[i], New: r}
	}
	return Outcome{Applicable: true, Replacements: pairs}
}

// Replace builds an Outcome from explicit Old/New pairs, for rewriters that
// replace something other than a 1:1 mapping of a single node's outputs
// (e.g. PatternSub substituting a deeper subgraph).
func Replace(pairs ...core.Replacement) Outcome {
	return Outcome{Applicable: true, Replacements: pairs}
}

// WithRemove attaches an explicit removal list to an Outcome, authorizing
// the driver to prune those Nodes once the replacement lands even if
// residency bookkeeping alone wouldn't have freed them yet.
func (o Outcome) WithRemove(nodes ...*core.Node) Outcome {
	o.Remove = append(o.Remove, nodes...)
	return o
}

// NodeRewriter inspects one resident Node and optionally proposes a
// replacement for it. Implementations must be side-effect free on Transform
// itself: any graph mutation happens only through the Outcome a driver
// installs via core.Graph's validated replace methods.
type NodeRewriter interface {
	Transform(g *core.Graph, node *core.Node) (Outcome, error)
}

// NodeRewriterFunc adapts a plain function to NodeRewriter.
type NodeRewriterFunc func(g *core.Graph, node *core.Node) (Outcome, error)

func (f NodeRewriterFunc) Transform(g *core.Graph, node *core.Node) (Outcome, error) {
	return f(g, node)
}

// GlobalRewriter inspects (and may rewrite) an entire Graph in one Apply
// call, returning a Profile a caller can print or merge with others.
// AddRequirements lets a GlobalRewriter attach any core.Feature it depends
// on (e.g. merge.MergeOptimizer needs merge.MergeFeature) before Apply is
// ever called; drivers that compose GlobalRewriters call it once up front.
type GlobalRewriter interface {
	Apply(g *core.Graph) (Profile, error)
	AddRequirements(g *core.Graph) error
}

// GlobalRewriterFunc adapts a plain function to GlobalRewriter.
// AddRequirements calls Requirements when it is set and is a no-op
// otherwise. Apply returns Fn's Profile unchanged; RewriterName is not
// copied into it.
type GlobalRewriterFunc struct {
	RewriterName string
	Fn           func(g *core.Graph) (Profile, error)
	Requirements func(g *core.Graph) error
}

func (f GlobalRewriterFunc) Apply(g *core.Graph) (Profile, error) { return f.Fn(g) }

func (f GlobalRewriterFunc) AddRequirements(g *core.Graph) error {
	if f.Requirements == nil {
		return nil
	}
	return f.Requirements(g)
}

// FromFunc builds a named GlobalRewriter from a plain Apply function, the
// Go analogue of Aesara's FromFunctionOptimizer/@optimizer decorator.
func FromFunc(name string, fn func(g *core.Graph) (Profile, error)) GlobalRewriter {
	return GlobalRewriterFunc{RewriterName: name, Fn: fn}
}

// FromFuncLocal builds a NodeRewriter from a plain Transform function, the
// analogue of Aesara's FromFunctionLocalOptimizer/@local_optimizer decorator.
func FromFuncLocal(fn func(g *core.Graph, node *core.Node) (Outcome, error)) NodeRewriter {
	return NodeRewriterFunc(fn)
}
