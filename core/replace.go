// File: replace.go
// Role: the Replace/ReplaceAll/ReplaceAllValidate/ReplaceAllValidateRemove
// family — the only way rewrites install their output back into the Graph.
package core

import "fmt"

// Replacement pairs an existing resident Value with the Value that should
// take its place in every client that currently references it.
type Replacement struct {
	Old, New *Value
}

// ReplaceAll rewires every client of each pair's Old to reference New
// instead, importing New's owning Node (and its not-yet-resident inputs)
// as needed, with no validation of type compatibility, acyclicity, or
// destroy-map conflicts. It is the primitive ReplaceAllValidate builds on;
// callers that have already satisfied those invariants by construction
// (e.g. a pattern substitution known to preserve type) may call it
// directly.
func (g *Graph) ReplaceAll(pairs []Replacement, reason string) error {
	for _, p := range pairs {
		if p.Old == nil {
			return ErrNilValue
		}
		if p.New == nil {
			return fmt.Errorf("core: ReplaceAll: pair for %v: %w", p.Old, ErrNilValue)
		}
		if p.New.Owner != nil && !g.Resident(p.New.Owner) {
			if err := g.importNode(p.New.Owner, reason); err != nil {
				return err
			}
		}
		for _, c := range g.Clients(p.Old) {
			if c.Node == nil {
				g.outputs[c.Index] = p.New
			} else {
				c.Node.Inputs[c.Index] = p.New
				if destroysInput(c.Node.Op, c.Index) {
					if g.destroyers[p.Old] == c.Node {
						delete(g.destroyers, p.Old)
					}
					g.destroyers[p.New] = c.Node
				}
			}
			g.removeClient(p.Old, c)
			g.recordClient(p.New, c)
			g.fireChangeInput(c.Node, c.Index, p.Old, p.New, reason)
		}
	}
	return nil
}

// ReplaceAllValidate behaves like ReplaceAll but first checks, for every
// pair, that New's type is equal to or convertible into Old's type and
// that installing New would not introduce a cycle or a second destructive
// owner of an already-claimed value. On any check failure it applies
// nothing and returns an *InconsistencyError identifying the offending
// pair.
func (g *Graph) ReplaceAllValidate(pairs []Replacement, reason string) error {
	resolved := make([]Replacement, len(pairs))
	for i, p := range pairs {
		if p.Old == nil {
			return ErrNilValue
		}
		if p.New == nil {
			return &InconsistencyError{Old: p.Old, Reason: "nil replacement", Err: ErrNilValue}
		}
		newVal, ok := typeCompatible(p.Old, p.New)
		if !ok {
			return &InconsistencyError{Old: p.Old, New: p.New, Reason: "type mismatch", Err: ErrTypeMismatch}
		}
		for _, c := range g.Clients(p.Old) {
			if c.Node != nil && newVal.Owner != nil && g.dependsOn(newVal.Owner, c.Node) {
				return &InconsistencyError{Old: p.Old, New: newVal, Reason: "would introduce a cycle", Err: ErrWouldCycle}
			}
		}
		// Unconditional: the union of Old's and New's clients could each
		// already have a destroyer (e.g. a node merge where both endpoints
		// are already resident), so this must run regardless of whether
		// New's owner is newly imported.
		if err := g.checkDestroyUnion(p.Old, newVal); err != nil {
			return &InconsistencyError{Old: p.Old, New: newVal, Reason: "destroy-map conflict", Err: ErrMultipleDestroyers}
		}
		if newVal.Owner != nil && !g.Resident(newVal.Owner) {
			if err := g.checkDestroys(newVal.Owner); err != nil {
				return &InconsistencyError{Old: p.Old, New: newVal, Reason: "destroy-map conflict", Err: ErrMultipleDestroyers}
			}
		}
		resolved[i] = Replacement{Old: p.Old, New: newVal}
	}
	return g.ReplaceAll(resolved, reason)
}

// ReplaceAllValidateRemove behaves like ReplaceAllValidate and then, once
// the replacement is installed, prunes every node in toRemove. If any of
// those nodes still has clients after the replacement (i.e. the caller's
// belief that the replacement frees it was wrong), it returns an
// *InconsistencyError wrapping ErrStillInUse; the nodes of toRemove pruned
// before the failing one are imported again, but the replacement itself
// stays installed.
func (g *Graph) ReplaceAllValidateRemove(pairs []Replacement, toRemove []*Node, reason string) error {
	if err := g.ReplaceAllValidate(pairs, reason); err != nil {
		return err
	}
	var pruned []*Node
	for _, n := range toRemove {
		if err := g.Prune(n, reason); err != nil {
			// Roll back the prunes we already performed; the replacement
			// itself is not undone (matching Aesara, which treats a failed
			// remove as a bug report, not a transactional abort of the
			// substitution).
			for _, p := range pruned {
				_ = g.importNode(p, reason)
			}
			return &InconsistencyError{Reason: "remove target still in use", Err: ErrStillInUse}
		}
		pruned = append(pruned, n)
	}
	return nil
}

// typeCompatible returns the Value to actually install in place of old,
// after checking old's declared Type against cand's, trying cand's own
// ConvertVariable as a fallback when old's declined. Aesara's
// merge_signature and replace_all_validate both special-case this
// asymmetric direction: a candidate's type may know how to present itself
// as the old type even when the old type doesn't know how to accept the
// candidate.
func typeCompatible(old, cand *Value) (*Value, bool) {
	if old.Typ == nil || cand.Typ == nil || old.Typ.Equal(cand.Typ) {
		return cand, true
	}
	if converted, ok := old.Typ.ConvertVariable(cand); ok {
		return converted, true
	}
	if converted, ok := cand.Typ.ConvertVariable(old); ok {
		return converted, true
	}
	return nil, false
}

// dependsOn reports whether target is reachable from start by following
// Inputs[*].Owner edges, i.e. whether start's subgraph already consumes
// target's output(s). Used to reject a replacement that would make target
// consume a Value produced (transitively) by itself.
func (g *Graph) dependsOn(start *Node, target *Node) bool {
	if start == target {
		return true
	}
	seen := make(map[*Node]bool)
	var walk func(n *Node) bool
	walk = func(n *Node) bool {
		if n == nil || seen[n] {
			return false
		}
		seen[n] = true
		for _, in := range n.Inputs {
			if in == nil {
				continue
			}
			if in.Owner == target {
				return true
			}
			if walk(in.Owner) {
				return true
			}
		}
		return false
	}
	return walk(start)
}

// checkDestroyUnion reports whether replacing old with newVal would give
// newVal two simultaneous destroyers: one from whatever node already
// destroys newVal (if any) and one from whatever node already destroys old
// (if any, necessarily one of old's current clients, since claimDestroys
// enforces at most one destroyer per value at import time). Installing the
// replacement would union both nodes' destructive claims onto newVal alone.
func (g *Graph) checkDestroyUnion(old, newVal *Value) error {
	oldDestroyer, oldHas := g.destroyers[old]
	newDestroyer, newHas := g.destroyers[newVal]
	if oldHas && newHas && oldDestroyer != newDestroyer {
		return ErrMultipleDestroyers
	}
	return nil
}

// destroysInput reports whether op's DestroyMap claims destructive
// ownership of input index idx.
func destroysInput(op Op, idx int) bool {
	if op == nil {
		return false
	}
	for _, idxs := range op.DestroyMap() {
		for _, i := range idxs {
			if i == idx {
				return true
			}
		}
	}
	return false
}

// checkDestroys reports whether importing node would create a second
// destructive owner of any value it destroys, without mutating any
// bookkeeping.
func (g *Graph) checkDestroys(node *Node) error {
	if node.Op == nil {
		return nil
	}
	for _, inputIdxs := range node.Op.DestroyMap() {
		for _, idx := range inputIdxs {
			if idx < 0 || idx >= len(node.Inputs) {
				continue
			}
			if owner, ok := g.destroyers[node.Inputs[idx]]; ok && owner != node {
				return ErrMultipleDestroyers
			}
		}
	}
	return nil
}
