// File: opsub.go
// Role: OpSub and OpRemove — the two simplest node-local rewrites (§4.5):
// swap one Op for another with the same inputs, or splice a pass-through
// Node out of the graph entirely.
package rewrite

import (
	"fmt"

	"github.com/graphopt/graphopt/core"
)

// OpSub rewrites every Node whose Op equals From into an application of To
// over the same Inputs, copying Tags across. It is not reentrant: a Node
// produced by To is not itself a candidate for further OpSub rewriting
// unless a driver's worklist independently revisits it.
type OpSub struct {
	From, To core.Op
}

func (s OpSub) Transform(g *core.Graph, node *core.Node) (Outcome, error) {
	if node.Op == nil || !node.Op.Equal(s.From) {
		return NotApplicable(), nil
	}
	replacement, err := s.To.MakeNode(node.Inputs...)
	if err != nil {
		return Outcome{}, fmt.Errorf("rewrite: OpSub %s->%s: %w", s.From.Name(), s.To.Name(), err)
	}
	if node.Tags != nil {
		replacement.Tags = make(map[string]any, len(node.Tags))
		for k, v := range node.Tags {
			replacement.Tags[k] = v
		}
	}
	if len(replacement.Outputs) != len(node.Outputs) {
		return Outcome{}, fmt.Errorf("rewrite: OpSub %s->%s: output arity mismatch (%d vs %d)",
			s.From.Name(), s.To.Name(), len(node.Outputs), len(replacement.Outputs))
	}
	// node itself becomes dead the instant its outputs are rewired away; it
	// must be pruned explicitly since nothing else will reclaim it.
	return ReplaceOutputs(node, replacement.Outputs...).WithRemove(node), nil
}

// OpRemove rewrites every Node whose Op equals Target by rebinding each of
// its outputs directly to the corresponding input, splicing the Node out
// of the graph — the Go analogue of Aesara's identity-Op removal (e.g.
// dropping a no-op cast once its presence is no longer needed). It requires
// len(node.Inputs) == len(node.Outputs).
type OpRemove struct {
	Target core.Op
}

func (r OpRemove) Transform(g *core.Graph, node *core.Node) (Outcome, error) {
	if node.Op == nil || !node.Op.Equal(r.Target) {
		return NotApplicable(), nil
	}
	if len(node.Inputs) != len(node.Outputs) {
		return Outcome{}, fmt.Errorf("rewrite: OpRemove %s: arity mismatch, cannot splice through", r.Target.Name())
	}
	return ReplaceOutputs(node, node.Inputs...).WithRemove(node), nil
}
