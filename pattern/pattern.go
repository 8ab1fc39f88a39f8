// File: pattern.go
// Role: the Pattern grammar, the match/reify environment, and PatternSub —
// a NodeRewriter that matches a syntactic template against a Node and, on
// success, reifies a replacement template against the resulting bindings
// (§4.4).
package pattern

import (
	"fmt"
	"reflect"

	"github.com/graphopt/graphopt/core"
	"github.com/graphopt/graphopt/rewrite"
)

// Env holds the variable bindings accumulated while matching a Pattern
// against a Value tree. A second occurrence of a bound Var must reoccur as
// the identical *core.Value, not merely an equal one.
type Env map[string]*core.Value

// Pattern is one tree node of the match/reify grammar. Exactly one of the
// three leaf/interior shapes applies to any given Pattern:
//
//   - name != "" is a Var leaf: matches anything, binding name in Env.
//   - constVal != nil is a ConstLit leaf: matches only an equal Constant.
//   - op != nil is an Apply interior node: matches a Value produced by a
//     Node whose Op.Equal(op) holds, recursing into inputs pairwise.
type Pattern struct {
	name     string
	constVal *core.Value
	op       core.Op
	inputs   []Pattern
	outIndex int

	constraint func(Env, *core.Value) bool
}

// Var builds a Pattern leaf that matches any Value and binds it to name.
func Var(name string) Pattern { return Pattern{name: name} }

// ConstLit builds a Pattern leaf that matches only a Constant Value equal
// (by Type and Data) to v.
func ConstLit(v *core.Value) Pattern { return Pattern{constVal: v} }

// Apply builds a Pattern interior node matching a Value produced at output
// index 0 of a Node applying an Op equal to op, recursing into inputs.
func Apply(op core.Op, inputs ...Pattern) Pattern {
	return Pattern{op: op, inputs: inputs}
}

// ApplyOut is Apply for an Op with more than one output, matching the Value
// at outIndex specifically.
func ApplyOut(op core.Op, outIndex int, inputs ...Pattern) Pattern {
	return Pattern{op: op, inputs: inputs, outIndex: outIndex}
}

// Where attaches a constraint checked when p's match is first bound (for a
// Var, at bind time; for any pattern shape, after a successful structural
// match against the candidate Value). A false constraint fails the whole
// match attempt for this subtree.
func (p Pattern) Where(fn func(Env, *core.Value) bool) Pattern {
	p.constraint = fn
	return p
}

// match attempts to match p against v, threading and extending env. isRoot
// is true only for the Value passed directly to PatternSub.Transform; every
// other Value matched by an Apply pattern is an intermediate one, subject to
// the single-client constraint unless allowMulti is set. Var and ConstLit
// leaves are never subject to it.
func match(p Pattern, v *core.Value, g *core.Graph, isRoot bool, allowMulti bool, env Env) bool {
	if v == nil {
		return false
	}

	switch {
	case p.name != "":
		if bound, ok := env[p.name]; ok {
			if bound != v {
				return false
			}
		} else {
			env[p.name] = v
		}
	case p.constVal != nil:
		if !v.IsConstant() || !v.Typ.Equal(p.constVal.Typ) || !reflect.DeepEqual(v.Data, p.constVal.Data) {
			return false
		}
	case p.op != nil:
		// An interior Apply match treats owner as a Node the rewrite folds
		// away; a Node with any other client besides this match would lose
		// that computation if the substitution proceeded, so (unless the
		// caller opted in) only the root Node itself is exempt from the
		// single-client constraint.
		if !isRoot && !allowMulti && len(g.Clients(v)) > 1 {
			return false
		}
		owner := v.Owner
		if owner == nil || owner.Op == nil || !owner.Op.Equal(p.op) {
			return false
		}
		if v.OwnerIndex != p.outIndex {
			return false
		}
		if len(owner.Inputs) != len(p.inputs) {
			return false
		}
		for i, sub := range p.inputs {
			if !match(sub, owner.Inputs[i], g, false, allowMulti, env) {
				return false
			}
		}
	default:
		return false
	}

	if p.constraint != nil && !p.constraint(env, v) {
		return false
	}
	return true
}

// reify builds the replacement Value p denotes, substituting env's bindings
// for every Var leaf. Building an Apply interior node calls its Op's
// MakeNode fresh, so the replacement is always a newly constructed subgraph
// fragment rather than aliasing the matched one.
func reify(p Pattern, env Env) (*core.Value, error) {
	switch {
	case p.name != "":
		v, ok := env[p.name]
		if !ok {
			return nil, fmt.Errorf("pattern: reify: unbound variable %q", p.name)
		}
		return v, nil
	case p.constVal != nil:
		return p.constVal, nil
	case p.op != nil:
		inputs := make([]*core.Value, len(p.inputs))
		for i, sub := range p.inputs {
			v, err := reify(sub, env)
			if err != nil {
				return nil, err
			}
			inputs[i] = v
		}
		node, err := p.op.MakeNode(inputs...)
		if err != nil {
			return nil, fmt.Errorf("pattern: reify: %w", err)
		}
		if p.outIndex < 0 || p.outIndex >= len(node.Outputs) {
			return nil, fmt.Errorf("pattern: reify: output index %d out of range", p.outIndex)
		}
		return node.Outputs[p.outIndex], nil
	default:
		return nil, fmt.Errorf("pattern: reify: empty pattern")
	}
}

// PatternSub is a NodeRewriter that matches From against a candidate Node's
// single output and, on success, installs To reified against the resulting
// bindings in its place.
//
// AllowMultipleClients relaxes the default single-client constraint on
// intermediate matched Values (every Value matched by an Apply pattern other
// than the root; Var and ConstLit leaves are never restricted): without it,
// a rewrite like a*x+b*x -> (a+b)*x is refused if a*x or b*x is also read
// somewhere else in the graph, since that other reader would keep the
// folded-away Node alive.
//
// GetNodes lets a caller add further Node(s) a match is attempted against:
// Transform tries the Node it was called with first, then each Node
// GetNodes returns, in order — Aesara's get_nodes hook, used by its
// assert-dropping rewrites to also try the inputs of a CheckAndRaise
// wrapping the real candidate.
type PatternSub struct {
	From Pattern
	To   Pattern

	AllowMultipleClients bool
	GetNodes             func(node *core.Node) []*core.Node
}

// Transform implements rewrite.NodeRewriter.
func (ps PatternSub) Transform(g *core.Graph, node *core.Node) (rewrite.Outcome, error) {
	candidates := []*core.Node{node}
	if ps.GetNodes != nil {
		candidates = append(candidates, ps.GetNodes(node)...)
	}

	for _, cand := range candidates {
		if cand == nil || len(cand.Outputs) == 0 {
			continue
		}
		env := Env{}
		if !match(ps.From, cand.Outputs[0], g, true, ps.AllowMultipleClients, env) {
			continue
		}
		replacement, err := reify(ps.To, env)
		if err != nil {
			return rewrite.Outcome{}, err
		}
		if !cand.Outputs[0].Typ.Equal(replacement.Typ) {
			continue
		}
		if cand == node {
			return rewrite.ReplaceOutputs(node, replacement), nil
		}
		return rewrite.Replace(core.Replacement{Old: cand.Outputs[0], New: replacement}), nil
	}
	return rewrite.NotApplicable(), nil
}
