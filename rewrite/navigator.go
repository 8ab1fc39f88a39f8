// File: navigator.go
// Role: NavigatorOptimizer — the shared base TopoOptimizer and
// OpKeyOptimizer embed: outcome normalization and the one call into
// core.Graph's validated replace family every node-local application goes
// through (§4.6).
package rewrite

import "github.com/graphopt/graphopt/core"

// NavigatorOptimizer holds the pieces common to every single-pass,
// node-local traversal driver: a failure policy and the normalization step
// that turns a NodeRewriter's Outcome into a validated Graph mutation.
type NavigatorOptimizer struct {
	Config *RewriteConfig
}

func newNavigator(cfg *RewriteConfig) NavigatorOptimizer {
	if cfg == nil {
		cfg = NewRewriteConfig()
	}
	return NavigatorOptimizer{Config: cfg}
}

// processNode applies rewriter to node, installing the Outcome (if any)
// through core.Graph's validated replace methods. It reports whether a
// replacement was applied.
//
// Identity replacements (New == Old) are filtered out before validation, a
// defensive no-op guard rewriters occasionally produce when a rewrite rule
// degenerates to its own input.
func (n *NavigatorOptimizer) processNode(g *core.Graph, node *core.Node, rewriter NodeRewriter) (bool, error) {
	outcome, err := rewriter.Transform(g, node)
	if err != nil {
		if cbErr := n.Config.OnFailure(err, "node-rewrite"); cbErr != nil {
			return false, cbErr
		}
		return false, nil
	}
	if !outcome.Applicable || len(outcome.Replacements) == 0 {
		return false, nil
	}

	pairs := outcome.Replacements[:0:0]
	for _, p := range outcome.Replacements {
		if p.Old == p.New {
			continue
		}
		pairs = append(pairs, p)
	}
	if len(pairs) == 0 {
		return false, nil
	}

	if len(outcome.Remove) > 0 {
		if err := g.ReplaceAllValidateRemove(pairs, outcome.Remove, "node-rewrite"); err != nil {
			if cbErr := n.Config.OnFailure(err, "node-rewrite"); cbErr != nil {
				return false, cbErr
			}
			return false, nil
		}
		return true, nil
	}
	if err := g.ReplaceAllValidate(pairs, "node-rewrite"); err != nil {
		if cbErr := n.Config.OnFailure(err, "node-rewrite"); cbErr != nil {
			return false, cbErr
		}
		return false, nil
	}
	return true, nil
}
