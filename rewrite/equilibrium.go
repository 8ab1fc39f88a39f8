// File: equilibrium.go
// Role: EquilibriumOptimizer — the fixed-point driver interleaving
// whole-graph and node-local rewrites until the graph stops changing, with
// a use-ratio safety bound against oscillation (§4.8).
package rewrite

import (
	"fmt"

	"github.com/graphopt/graphopt/core"
)

// EquilibriumOptimizer repeatedly runs, in order: Globals, then Cleanups,
// then one toposort-ordered pass of Locals (dispatched through a
// LocalOptTracker built from each LocalRule's Matcher, so a rule scoped to
// one Op is only ever tried against nodes applying that Op), then Finals,
// then Cleanups again — until a full round makes no change (a GlobalRewriter
// counts as a change only when its Profile reports NumApplied > 0), or MaxUseRatio
// aborts the session as a safety net against a rewrite set that oscillates
// forever.
//
// MaxUseRatio bounds the total number of local-rewrite applications at
// maxNodesSeen * MaxUseRatio, where maxNodesSeen is the largest resident
// Node count observed during the session; a ratio of 0 disables the bound.
type EquilibriumOptimizer struct {
	Name     string
	Globals  []GlobalRewriter
	Locals   []LocalRule
	Finals   []GlobalRewriter
	Cleanups []GlobalRewriter
	Config   *RewriteConfig
}

// NewEquilibriumOptimizer builds an EquilibriumOptimizer. cfg may be nil.
func NewEquilibriumOptimizer(name string, cfg *RewriteConfig) *EquilibriumOptimizer {
	if cfg == nil {
		cfg = NewRewriteConfig()
	}
	return &EquilibriumOptimizer{Name: name, Config: cfg}
}

// ErrMaxUseExceeded is returned by Apply when the use-ratio safety bound
// aborts the session before reaching a fixed point.
var ErrMaxUseExceeded = fmt.Errorf("rewrite: equilibrium use-ratio bound exceeded")

func (e *EquilibriumOptimizer) AddRequirements(g *core.Graph) error {
	for _, r := range e.Globals {
		if err := r.AddRequirements(g); err != nil {
			return err
		}
	}
	for _, r := range e.Finals {
		if err := r.AddRequirements(g); err != nil {
			return err
		}
	}
	for _, r := range e.Cleanups {
		if err := r.AddRequirements(g); err != nil {
			return err
		}
	}
	return nil
}

func (e *EquilibriumOptimizer) runGlobalList(g *core.Graph, list []GlobalRewriter, parent *Profile) (bool, error) {
	changed := false
	for _, r := range list {
		sub, err := r.Apply(g)
		parent.Sub = append(parent.Sub, sub)
		parent.NumApplied += sub.NumApplied
		if err != nil {
			if cbErr := e.Config.OnFailure(err, e.Name); cbErr != nil {
				return changed, cbErr
			}
			parent.Warnings = append(parent.Warnings, err.Error())
			continue
		}
		if sub.NumApplied > 0 {
			changed = true
		}
	}
	return changed, nil
}

// Apply runs rounds until no Global, Local, or Final rewrite changes the
// graph in a round, or MaxUseRatio aborts the session.
func (e *EquilibriumOptimizer) Apply(g *core.Graph) (Profile, error) {
	start := timeNow()
	p := newProfile(e.Name)

	tracker := NewLocalOptTracker()
	for _, l := range e.Locals {
		match := l.Match
		if match == nil {
			match = func(core.Op) bool { return true }
		}
		tracker.Register(match, l.Rewriter)
	}

	maxNodesSeen := len(g.ApplyNodes())
	totalApplied := 0

	for {
		roundChanged := false

		if changed, err := e.runGlobalList(g, e.Globals, &p); err != nil {
			p.Duration = timeNow().Sub(start)
			return p, err
		} else if changed {
			roundChanged = true
		}

		if changed, err := e.runGlobalList(g, e.Cleanups, &p); err != nil {
			p.Duration = timeNow().Sub(start)
			return p, err
		} else if changed {
			roundChanged = true
		}

		order, err := g.Toposort()
		if err != nil {
			p.Duration = timeNow().Sub(start)
			return p, err
		}
		nav := newNavigator(e.Config)
		for _, node := range order {
			if !g.Resident(node) {
				continue
			}
			applied, err := nav.processNode(g, node, tracker)
			if err != nil {
				p.Duration = timeNow().Sub(start)
				return p, err
			}
			if applied {
				roundChanged = true
				p.NumApplied++
				totalApplied++
				if n := len(g.ApplyNodes()); n > maxNodesSeen {
					maxNodesSeen = n
				}
				if e.Config.MaxUseRatio > 0 && float64(totalApplied) > float64(maxNodesSeen)*e.Config.MaxUseRatio {
					p.Duration = timeNow().Sub(start)
					return p, ErrMaxUseExceeded
				}
			}
		}

		if changed, err := e.runGlobalList(g, e.Finals, &p); err != nil {
			p.Duration = timeNow().Sub(start)
			return p, err
		} else if changed {
			roundChanged = true
		}

		if changed, err := e.runGlobalList(g, e.Cleanups, &p); err != nil {
			p.Duration = timeNow().Sub(start)
			return p, err
		} else if changed {
			roundChanged = true
		}

		if !roundChanged {
			break
		}
	}

	p.Duration = timeNow().Sub(start)
	return p, nil
}
