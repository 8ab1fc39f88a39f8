// File: tracker.go
// Role: LocalOptTracker and LocalOptGroup — dispatching and composing
// node-local rewriters by operator (§4.7).
//
// Aesara dispatches by exact Op instance first, then by walking the Op
// class's MRO. Go has no class hierarchy to walk, so LocalOptTracker
// dispatches by an explicit predicate instead: each registration names the
// core.Op(s) it fires on, by equality or by a caller-supplied match
// function, which is the idiomatic Go replacement for MRO-based lookup and
// is exercised the same way — registering a rewriter once and having it
// apply to every structurally-equal Op.
package rewrite

import "github.com/graphopt/graphopt/core"

// Matcher reports whether a LocalOptTracker entry fires for op.
type Matcher func(op core.Op) bool

// MatchOp returns a Matcher that fires only on Ops equal to op.
func MatchOp(op core.Op) Matcher {
	return func(candidate core.Op) bool { return candidate != nil && candidate.Equal(op) }
}

// MatchName returns a Matcher that fires on any Op whose Name() equals
// name, the Go analogue of Aesara's type-level (rather than
// instance-level) tracking.
func MatchName(name string) Matcher {
	return func(candidate core.Op) bool { return candidate != nil && candidate.Name() == name }
}

type trackerEntry struct {
	match    Matcher
	rewriter NodeRewriter
}

// LocalRule pairs a NodeRewriter with the Matcher that scopes which Ops it
// is tried against. A nil Match fires on every Op, matching Aesara's
// untyped local optimizers that register against the generic root.
type LocalRule struct {
	Match    Matcher
	Rewriter NodeRewriter
}

// LocalOptTracker collects (Matcher, NodeRewriter) registrations and
// resolves, for a given core.Op, every rewriter registered against it, in
// registration order.
type LocalOptTracker struct {
	entries []trackerEntry
}

// NewLocalOptTracker returns an empty tracker.
func NewLocalOptTracker() *LocalOptTracker { return &LocalOptTracker{} }

// Register adds rewriter under match.
func (t *LocalOptTracker) Register(match Matcher, rewriter NodeRewriter) {
	t.entries = append(t.entries, trackerEntry{match: match, rewriter: rewriter})
}

// Get returns every rewriter whose Matcher fires on op, in registration
// order.
func (t *LocalOptTracker) Get(op core.Op) []NodeRewriter {
	var out []NodeRewriter
	for _, e := range t.entries {
		if e.match(op) {
			out = append(out, e.rewriter)
		}
	}
	return out
}

// Transform implements NodeRewriter by looking up node.Op in the tracker
// and applying the first matching rewriter whose Outcome is Applicable.
func (t *LocalOptTracker) Transform(g *core.Graph, node *core.Node) (Outcome, error) {
	for _, r := range t.Get(node.Op) {
		outcome, err := r.Transform(g, node)
		if err != nil {
			return Outcome{}, err
		}
		if outcome.Applicable {
			return outcome, nil
		}
	}
	return NotApplicable(), nil
}

// LocalOptGroup composes a fixed list of NodeRewriters against the same
// Node. In first-win mode (ApplyAll == false) it returns the first
// Applicable Outcome. In ApplyAll mode it keeps trying rewriters against
// the node, re-resolving to the newly produced Node after each successful
// application (so later rewriters in the list see the edited node),
// looping until a full pass over the list produces no further change.
type LocalOptGroup struct {
	Rewriters []NodeRewriter
	ApplyAll  bool
}

// NewLocalOptGroup builds a first-win LocalOptGroup from rewriters.
func NewLocalOptGroup(rewriters ...NodeRewriter) *LocalOptGroup {
	return &LocalOptGroup{Rewriters: rewriters}
}

func (g *LocalOptGroup) Transform(graph *core.Graph, node *core.Node) (Outcome, error) {
	if !g.ApplyAll {
		for _, r := range g.Rewriters {
			outcome, err := r.Transform(graph, node)
			if err != nil {
				return Outcome{}, err
			}
			if outcome.Applicable {
				return outcome, nil
			}
		}
		return NotApplicable(), nil
	}

	var accumulated Outcome
	current := node
	for changed := true; changed; {
		changed = false
		for _, r := range g.Rewriters {
			outcome, err := r.Transform(graph, current)
			if err != nil {
				return Outcome{}, err
			}
			if !outcome.Applicable {
				continue
			}
			accumulated.Applicable = true
			accumulated.Replacements = append(accumulated.Replacements, outcome.Replacements...)
			accumulated.Remove = append(accumulated.Remove, outcome.Remove...)
			if len(outcome.Replacements) > 0 && outcome.Replacements[0].New != nil && outcome.Replacements[0].New.Owner != nil {
				current = outcome.Replacements[0].New.Owner
			}
			changed = true
		}
	}
	return accumulated, nil
}
