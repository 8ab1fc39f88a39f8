// File: choice.go
// Role: LocalOptChoice — choose among several candidate NodeRewriters by a
// caller-supplied score, the structural descendant of Aesara's
// LocalMetaOptimizer now that there is no code-generation backend here to
// time compiled alternatives against (see SPEC_FULL.md §7).
package rewrite

import "github.com/graphopt/graphopt/core"

// Score rates an Outcome; the candidate with the lowest Score wins. A
// candidate whose Transform call errors is skipped entirely, mirroring
// Aesara's LocalMetaOptimizerSkipAssertionError always-swallow behavior for
// a per-candidate failure.
type Score func(Outcome) int

// ReplacementCount is a Score that prefers the candidate producing the
// fewest replacement pairs, a reasonable default stand-in for "simplest
// result" when the host has no cost model of its own.
func ReplacementCount(o Outcome) int { return len(o.Replacements) }

// LocalOptChoice tries every Candidate against a Node and keeps the
// Applicable Outcome with the lowest Score, breaking ties by registration
// order.
type LocalOptChoice struct {
	Candidates []NodeRewriter
	ScoreFn    Score
}

// NewLocalOptChoice builds a LocalOptChoice; scoreFn defaults to
// ReplacementCount if nil.
func NewLocalOptChoice(scoreFn Score, candidates ...NodeRewriter) *LocalOptChoice {
	if scoreFn == nil {
		scoreFn = ReplacementCount
	}
	return &LocalOptChoice{Candidates: candidates, ScoreFn: scoreFn}
}

func (c *LocalOptChoice) Transform(g *core.Graph, node *core.Node) (Outcome, error) {
	best := NotApplicable()
	bestScore := 0
	haveBest := false
	for _, cand := range c.Candidates {
		outcome, err := cand.Transform(g, node)
		if err != nil {
			continue // skip-this-choice, matching LocalMetaOptimizerSkipAssertionError
		}
		if !outcome.Applicable {
			continue
		}
		score := c.ScoreFn(outcome)
		if !haveBest || score < bestScore {
			best, bestScore, haveBest = outcome, score, true
		}
	}
	return best, nil
}
