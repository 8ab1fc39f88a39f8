package rewrite_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphopt/graphopt/core"
	"github.com/graphopt/graphopt/rewrite"
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

func buildAdd(t *testing.T, a, b *core.Value) *core.Node {
	t.Helper()
	n, err := addOp.MakeNode(a, b)
	require.NoError(t, err)
	return n
}

func TestSeqOptimizer_RunsMemberAndReportsItsApplications(t *testing.T) {
	x := core.NewInput("x", f64)
	y := core.NewInput("y", f64)
	n := buildAdd(t, x, y)
	g, err := core.NewGraph([]*core.Value{n.Outputs[0]}, nil)
	require.NoError(t, err)

	opsub := rewrite.In2Out("add-to-mul", rewrite.OpSub{From: addOp, To: mulOp})
	seq := rewrite.NewSeqOptimizer("pipeline", nil, opsub)

	p, err := seq.Apply(g)
	require.NoError(t, err)
	require.Equal(t, 1, p.NumApplied)

	order, err := g.Toposort()
	require.NoError(t, err)
	require.Len(t, order, 1)
	require.True(t, order[0].Op.Equal(mulOp))
}

func TestTopoOptimizer_RewritesEveryMatchingNode(t *testing.T) {
	x := core.NewInput("x", f64)
	y := core.NewInput("y", f64)
	n1 := buildAdd(t, x, y)
	n2 := buildAdd(t, n1.Outputs[0], x)
	g, err := core.NewGraph([]*core.Value{n2.Outputs[0]}, nil)
	require.NoError(t, err)

	driver := rewrite.In2Out("add-to-mul", rewrite.OpSub{From: addOp, To: mulOp})
	p, err := driver.Apply(g)
	require.NoError(t, err)
	require.Equal(t, 2, p.NumApplied)

	for _, node := range g.ApplyNodes() {
		require.True(t, node.Op.Equal(mulOp))
	}
}

func TestOpRemove_SplicesIdentityOut(t *testing.T) {
	x := core.NewInput("x", f64)
	idNode, err := identityOp.MakeNode(x)
	require.NoError(t, err)
	consumer := buildAdd(t, idNode.Outputs[0], x)

	g, err := core.NewGraph([]*core.Value{consumer.Outputs[0]}, nil)
	require.NoError(t, err)
	require.Len(t, g.ApplyNodes(), 2)

	driver := rewrite.In2Out("drop-identity", rewrite.OpRemove{Target: identityOp})
	_, err = driver.Apply(g)
	require.NoError(t, err)

	require.Len(t, g.ApplyNodes(), 1)
	require.Equal(t, x, consumer.Inputs[0])
}

func TestLocalOptTracker_DispatchesByRegisteredMatcher(t *testing.T) {
	tracker := rewrite.NewLocalOptTracker()
	tracker.Register(rewrite.MatchOp(addOp), rewrite.OpSub{From: addOp, To: mulOp})

	x := core.NewInput("x", f64)
	y := core.NewInput("y", f64)
	n := buildAdd(t, x, y)
	g, err := core.NewGraph([]*core.Value{n.Outputs[0]}, nil)
	require.NoError(t, err)

	outcome, err := tracker.Transform(g, n)
	require.NoError(t, err)
	require.True(t, outcome.Applicable)
}

func TestLocalOptGroup_FirstWinStopsAtFirstApplicable(t *testing.T) {
	group := rewrite.NewLocalOptGroup(
		rewrite.OpSub{From: mulOp, To: identityOp}, // does not match add
		rewrite.OpSub{From: addOp, To: mulOp},
	)
	x := core.NewInput("x", f64)
	y := core.NewInput("y", f64)
	n := buildAdd(t, x, y)
	g, err := core.NewGraph([]*core.Value{n.Outputs[0]}, nil)
	require.NoError(t, err)

	outcome, err := group.Transform(g, n)
	require.NoError(t, err)
	require.True(t, outcome.Applicable)
}

func TestEquilibriumOptimizer_ReachesFixedPointAndStops(t *testing.T) {
	x := core.NewInput("x", f64)
	y := core.NewInput("y", f64)
	n := buildAdd(t, x, y)
	g, err := core.NewGraph([]*core.Value{n.Outputs[0]}, nil)
	require.NoError(t, err)

	eq := rewrite.NewEquilibriumOptimizer("fold-adds", nil)
	eq.Locals = []rewrite.LocalRule{
		{Match: rewrite.MatchOp(addOp), Rewriter: rewrite.OpSub{From: addOp, To: mulOp}},
	}

	p, err := eq.Apply(g)
	require.NoError(t, err)
	require.Equal(t, 1, p.NumApplied)

	// A second Apply call finds nothing left to rewrite.
	p2, err := eq.Apply(g)
	require.NoError(t, err)
	require.Equal(t, 0, p2.NumApplied)
}

func TestEquilibriumOptimizer_LocalsAreScopedByMatcher(t *testing.T) {
	x := core.NewInput("x", f64)
	y := core.NewInput("y", f64)
	mulNode, err := mulOp.MakeNode(x, y)
	require.NoError(t, err)
	g, err := core.NewGraph([]*core.Value{mulNode.Outputs[0]}, nil)
	require.NoError(t, err)

	eq := rewrite.NewEquilibriumOptimizer("scoped", nil)
	eq.Locals = []rewrite.LocalRule{
		// Scoped to addOp only: must never fire against the mul node below,
		// even though OpSub itself would happily rewrite any matching node.
		{Match: rewrite.MatchOp(addOp), Rewriter: rewrite.OpSub{From: mulOp, To: identityOp}},
	}

	p, err := eq.Apply(g)
	require.NoError(t, err)
	require.Equal(t, 0, p.NumApplied)
	require.True(t, mulNode.Op.Equal(mulOp))
}

func TestPreConstantMerge_CanonicalizesDuplicateConstants(t *testing.T) {
	a := core.NewConstant(f64, 1.0)
	b := core.NewConstant(f64, 1.0)
	n, err := addOp.MakeNode(a, b)
	require.NoError(t, err)

	out := rewrite.PreConstantMerge(nil, []*core.Value{n.Outputs[0]})
	require.Same(t, n.Outputs[0].Owner.Inputs[0], n.Outputs[0].Owner.Inputs[1])
	require.NotNil(t, out[0])
}

func TestCheckChain_MatchesFixedOpPath(t *testing.T) {
	x := core.NewInput("x", f64)
	idNode, err := identityOp.MakeNode(x)
	require.NoError(t, err)
	outer, err := addOp.MakeNode(idNode.Outputs[0], x)
	require.NoError(t, err)

	require.True(t, rewrite.CheckChain(outer.Outputs[0],
		rewrite.ChainStep{Op: addOp, InputIndex: 0},
		rewrite.ChainStep{Op: identityOp, InputIndex: 0},
	))
	require.False(t, rewrite.CheckChain(outer.Outputs[0],
		rewrite.ChainStep{Op: addOp, InputIndex: 1},
		rewrite.ChainStep{Op: identityOp, InputIndex: 0},
	))
}
