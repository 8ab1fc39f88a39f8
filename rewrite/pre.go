// File: pre.go
// Role: PreConstantMerge and PreGreedyLocalOptimizer — detached utilities
// that operate directly on a not-yet-installed Value tree, in place,
// before it is ever attached to a core.Graph (§4.9).
package rewrite

import (
	"reflect"

	"github.com/graphopt/graphopt/core"
)

// PreConstantMerge canonicalizes structurally-equal Constant Values within
// roots and their input trees: the first occurrence of a given (Type,
// Data) pair is kept, and every later occurrence is rewritten in place
// (node.Inputs[idx] = canonical) to point at it instead. Nodes already
// resident in existing (an optional reference Graph the fragment will
// eventually be merged into) are left untouched, since this utility must
// not reach into a Graph it does not own.
func PreConstantMerge(existing *core.Graph, roots []*core.Value) []*core.Value {
	var seenConstants []*core.Value
	visited := make(map[*core.Node]bool)

	canonicalize := func(v *core.Value) *core.Value {
		for _, s := range seenConstants {
			if s.Typ.Equal(v.Typ) && reflect.DeepEqual(s.Data, v.Data) {
				return s
			}
		}
		seenConstants = append(seenConstants, v)
		return v
	}

	var walk func(v *core.Value) *core.Value
	walk = func(v *core.Value) *core.Value {
		if v == nil {
			return nil
		}
		if v.IsConstant() {
			return canonicalize(v)
		}
		node := v.Owner
		if node == nil {
			return v
		}
		if existing != nil && existing.Resident(node) {
			return v
		}
		if !visited[node] {
			visited[node] = true
			for i, in := range node.Inputs {
				node.Inputs[i] = walk(in)
			}
		}
		return v
	}

	out := make([]*core.Value, len(roots))
	for i, r := range roots {
		out[i] = walk(r)
	}
	return out
}

// PreGreedyLocalOptimizer walks roots in pre-order (a Node before its
// inputs), applying rewriter greedily to each not-yet-visited Node and
// splicing its Outcome in by direct pointer mutation of the consuming
// Node's Inputs slot, rather than through core.Graph's validated replace
// family.
//
// Precondition: every Node reachable from roots must not be observed by
// any structure other than roots while this function runs — the in-place
// mutation it performs would otherwise corrupt a shared subgraph. Callers
// that need the validated path should Import the fragment into a Graph and
// use a driver from this package instead.
func PreGreedyLocalOptimizer(rewriter NodeRewriter, roots []*core.Value) ([]*core.Value, error) {
	visited := make(map[*core.Node]bool)

	var walk func(v *core.Value) (*core.Value, error)
	walk = func(v *core.Value) (*core.Value, error) {
		if v == nil || v.Owner == nil {
			return v, nil
		}
		node := v.Owner
		if visited[node] {
			return v, nil
		}
		visited[node] = true

		scratch, err := core.NewGraph([]*core.Value{v}, nil)
		if err != nil {
			return nil, err
		}
		outcome, err := rewriter.Transform(scratch, node)
		if err != nil {
			return nil, err
		}
		if outcome.Applicable {
			for _, p := range outcome.Replacements {
				if p.Old == v {
					v = p.New
				}
			}
		}
		if v.Owner == nil {
			return v, nil
		}
		node = v.Owner
		for i, in := range node.Inputs {
			newIn, err := walk(in)
			if err != nil {
				return nil, err
			}
			node.Inputs[i] = newIn
		}
		return v, nil
	}

	out := make([]*core.Value, len(roots))
	for i, r := range roots {
		nv, err := walk(r)
		if err != nil {
			return nil, err
		}
		out[i] = nv
	}
	return out, nil
}
