package pattern_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphopt/graphopt/core"
	"github.com/graphopt/graphopt/pattern"
)

type scalarType struct{ name string }

func (t scalarType) Equal(other core.Type) bool {
	o, ok := other.(scalarType)
	return ok && o.name == t.name
}
func (t scalarType) ConvertVariable(*core.Value) (*core.Value, bool) { return nil, false }

var f64 = scalarType{name: "float64"}

type namedOp struct{ name string }

func (o namedOp) Name() string              { return o.name }
func (o namedOp) Equal(other core.Op) bool  { n, ok := other.(namedOp); return ok && n.name == o.name }
func (o namedOp) DestroyMap() map[int][]int { return nil }
func (o namedOp) MakeNode(inputs ...*core.Value) (*core.Node, error) {
	out := &core.Value{Typ: f64}
	return core.NewNode(o, inputs, []*core.Value{out}), nil
}

var addOp = namedOp{"add"}
var mulOp = namedOp{"mul"}
var identityOp = namedOp{"identity"}

func TestPatternSub_CollapsesSelfAdd(t *testing.T) {
	x := core.NewInput("x", f64)
	node, err := addOp.MakeNode(x, x)
	require.NoError(t, err)
	g, err := core.NewGraph([]*core.Value{node.Outputs[0]}, nil)
	require.NoError(t, err)

	ps := pattern.PatternSub{
		From: pattern.Apply(addOp, pattern.Var("a"), pattern.Var("a")),
		To:   pattern.Var("a"),
	}

	outcome, err := ps.Transform(g, node)
	require.NoError(t, err)
	require.True(t, outcome.Applicable)
	require.Len(t, outcome.Replacements, 1)
	require.Equal(t, x, outcome.Replacements[0].New)
}

func TestPatternSub_RejectsDifferingOperands(t *testing.T) {
	x := core.NewInput("x", f64)
	y := core.NewInput("y", f64)
	node, err := addOp.MakeNode(x, y)
	require.NoError(t, err)
	g, err := core.NewGraph([]*core.Value{node.Outputs[0]}, nil)
	require.NoError(t, err)

	ps := pattern.PatternSub{
		From: pattern.Apply(addOp, pattern.Var("a"), pattern.Var("a")),
		To:   pattern.Var("a"),
	}

	outcome, err := ps.Transform(g, node)
	require.NoError(t, err)
	require.False(t, outcome.Applicable)
}

func TestPatternSub_MatchesConstantLeaf(t *testing.T) {
	zero := core.NewConstant(f64, 0.0)
	x := core.NewInput("x", f64)
	node, err := addOp.MakeNode(x, zero)
	require.NoError(t, err)
	g, err := core.NewGraph([]*core.Value{node.Outputs[0]}, nil)
	require.NoError(t, err)

	ps := pattern.PatternSub{
		From: pattern.Apply(addOp, pattern.Var("a"), pattern.ConstLit(zero)),
		To:   pattern.Var("a"),
	}

	outcome, err := ps.Transform(g, node)
	require.NoError(t, err)
	require.True(t, outcome.Applicable)
	require.Equal(t, x, outcome.Replacements[0].New)
}

func TestPatternSub_RejectsMultiClientIntermediateUnlessAllowed(t *testing.T) {
	x := core.NewInput("x", f64)
	y := core.NewInput("y", f64)
	inner, err := addOp.MakeNode(x, y)
	require.NoError(t, err)
	consumer1, err := mulOp.MakeNode(inner.Outputs[0], x)
	require.NoError(t, err)
	consumer2, err := addOp.MakeNode(inner.Outputs[0], y)
	require.NoError(t, err)
	g, err := core.NewGraph([]*core.Value{consumer1.Outputs[0], consumer2.Outputs[0]}, nil)
	require.NoError(t, err)
	require.Len(t, g.Clients(inner.Outputs[0]), 2)

	strict := pattern.PatternSub{
		From: pattern.Apply(mulOp, pattern.Apply(addOp, pattern.Var("a"), pattern.Var("b")), pattern.Var("c")),
		To:   pattern.Var("a"),
	}
	outcome, err := strict.Transform(g, consumer1)
	require.NoError(t, err)
	require.False(t, outcome.Applicable)

	lenient := strict
	lenient.AllowMultipleClients = true
	outcome, err = lenient.Transform(g, consumer1)
	require.NoError(t, err)
	require.True(t, outcome.Applicable)
}

func TestPatternSub_GetNodesRetargetsThroughWrapper(t *testing.T) {
	x := core.NewInput("x", f64)
	added, err := addOp.MakeNode(x, x)
	require.NoError(t, err)
	wrapper, err := identityOp.MakeNode(added.Outputs[0])
	require.NoError(t, err)
	g, err := core.NewGraph([]*core.Value{wrapper.Outputs[0]}, nil)
	require.NoError(t, err)

	ps := pattern.PatternSub{
		From: pattern.Apply(addOp, pattern.Var("a"), pattern.Var("a")),
		To:   pattern.Var("a"),
		GetNodes: func(n *core.Node) []*core.Node {
			if len(n.Inputs) == 1 && n.Inputs[0].Owner != nil {
				return []*core.Node{n.Inputs[0].Owner}
			}
			return nil
		},
	}

	outcome, err := ps.Transform(g, wrapper)
	require.NoError(t, err)
	require.True(t, outcome.Applicable)
	require.Equal(t, added.Outputs[0], outcome.Replacements[0].Old)
	require.Equal(t, x, outcome.Replacements[0].New)
}

func TestPatternSub_RejectsUnboundReplacementVariable(t *testing.T) {
	x := core.NewInput("x", f64)
	node, err := addOp.MakeNode(x, x)
	require.NoError(t, err)
	g, err := core.NewGraph([]*core.Value{node.Outputs[0]}, nil)
	require.NoError(t, err)

	ps := pattern.PatternSub{
		From: pattern.Apply(addOp, pattern.Var("a"), pattern.Var("a")),
		To:   pattern.Var("b"),
	}

	// "b" is never bound by From, so reify must fail fast with an error
	// rather than silently matching.
	_, err = ps.Transform(g, node)
	require.Error(t, err)
}
