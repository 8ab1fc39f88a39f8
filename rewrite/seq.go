// File: seq.go
// Role: SeqOptimizer — sequential composition of GlobalRewriters under one
// failure policy (§4.2).
package rewrite

import (
	"time"

	"github.com/graphopt/graphopt/core"
)

// SeqOptimizer runs Rewriters in order against the same Graph, accumulating
// one Profile per member under a parent Profile. When a member's Apply
// returns an error, Config.OnFailure decides whether the session continues
// (Warn, recording the failure as a warning) or aborts (Reraise, the
// default, returning the wrapped error immediately).
type SeqOptimizer struct {
	Name      string
	Rewriters []GlobalRewriter
	Config    *RewriteConfig
}

// NewSeqOptimizer builds a SeqOptimizer with the given name and members,
// defaulting Config to NewRewriteConfig() (Reraise on failure) if cfg is
// nil.
func NewSeqOptimizer(name string, cfg *RewriteConfig, rewriters ...GlobalRewriter) *SeqOptimizer {
	if cfg == nil {
		cfg = NewRewriteConfig()
	}
	return &SeqOptimizer{Name: name, Rewriters: rewriters, Config: cfg}
}

// AddRequirements delegates to every member in order.
func (s *SeqOptimizer) AddRequirements(g *core.Graph) error {
	for _, r := range s.Rewriters {
		if err := r.AddRequirements(g); err != nil {
			return err
		}
	}
	return nil
}

// Apply runs each member's Apply in order. A member that changes nothing
// still contributes its Profile. On a member error, Config.OnFailure is
// consulted: nil continues to the next member (the error is recorded in
// Warnings), a non-nil error aborts and is returned as-is.
func (s *SeqOptimizer) Apply(g *core.Graph) (Profile, error) {
	start := timeNow()
	parent := newProfile(s.Name)
	for _, r := range s.Rewriters {
		sub, err := r.Apply(g)
		parent.Sub = append(parent.Sub, sub)
		parent.NumApplied += sub.NumApplied
		if err != nil {
			if cbErr := s.Config.OnFailure(err, s.Name); cbErr != nil {
				parent.Duration = timeNow().Sub(start)
				return parent, cbErr
			}
			parent.Warnings = append(parent.Warnings, err.Error())
		}
	}
	parent.Duration = timeNow().Sub(start)
	return parent, nil
}

// timeNow is a thin indirection so tests can stay deterministic without
// stubbing time.Now directly throughout this package.
var timeNow = time.Now
