// File: optimizer.go
// Role: MergeOptimizer — the GlobalRewriter that drains MergeFeature's
// scheduled candidates, installing each through core.Graph's validated
// replace family and blacklisting any pair validation rejects (§4.3).
package merge

import (
	"errors"

	"github.com/graphopt/graphopt/core"
	"github.com/graphopt/graphopt/rewrite"
)

// MergeOptimizer owns one MergeFeature and, on Apply, repeatedly pops its
// most recently scheduled candidate pair and tries to install it,
// re-validating residency and input identity first since the graph may
// have changed since the pair was scheduled.
type MergeOptimizer struct {
	feature *MergeFeature
}

// NewMergeOptimizer returns a MergeOptimizer with a fresh MergeFeature.
func NewMergeOptimizer() *MergeOptimizer {
	return &MergeOptimizer{feature: NewMergeFeature()}
}

// AddRequirements attaches the owned MergeFeature to g. Callers must do
// this (directly or via a driver that calls it for them) before any Node
// is imported, or earlier Nodes will never have been observed.
func (m *MergeOptimizer) AddRequirements(g *core.Graph) error {
	return g.AddFeature(m.feature)
}

// Apply drains every currently scheduled candidate. A pair rejected by
// core.Graph's validation (an *core.InconsistencyError) is blacklisted so
// MergeFeature never re-schedules it, and processing continues with the
// next candidate rather than aborting the whole pass.
func (m *MergeOptimizer) Apply(g *core.Graph) (rewrite.Profile, error) {
	p := rewrite.Profile{RewriterName: "merge"}
	for {
		cand, ok := m.feature.popScheduled()
		if !ok {
			break
		}
		if !g.Resident(cand.keep) || !g.Resident(cand.dup) || !signatureMatches(cand.dup, cand.keep) {
			continue
		}
		pairs := make([]core.Replacement, len(cand.dup.Outputs))
		for i := range cand.dup.Outputs {
			// Names are arbitrary; the newcomer (dup) wins over whatever
			// name keep's output already carries.
			if cand.dup.Outputs[i].Name != "" {
				cand.keep.Outputs[i].Name = cand.dup.Outputs[i].Name
			}
			pairs[i] = core.Replacement{Old: cand.dup.Outputs[i], New: cand.keep.Outputs[i]}
		}
		err := g.ReplaceAllValidateRemove(pairs, []*core.Node{cand.dup}, "merge")
		if err != nil {
			var inconsistency *core.InconsistencyError
			if errors.As(err, &inconsistency) {
				m.feature.blacklistPair(cand.keep, cand.dup)
				p.Warnings = append(p.Warnings, err.Error())
				continue
			}
			return p, err
		}
		p.NumApplied++
	}
	return p, nil
}
