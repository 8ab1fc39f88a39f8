package core_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphopt/graphopt/core"
)

// scalarType is a minimal core.Type used across this package's tests: two
// scalarTypes are Equal iff their names match, and neither ever converts.
type scalarType struct{ name string }

func (t scalarType) Equal(other core.Type) bool {
	o, ok := other.(scalarType)
	return ok && o.name == t.name
}

func (t scalarType) ConvertVariable(*core.Value) (*core.Value, bool) { return nil, false }

var f64 = scalarType{name: "float64"}

// addOp is a minimal binary Op with no destroy map.
type addOp struct{}

func (addOp) Name() string          { return "add" }
func (addOp) Equal(o core.Op) bool  { _, ok := o.(addOp); return ok }
func (addOp) DestroyMap() map[int][]int { return nil }
func (addOp) MakeNode(inputs ...*core.Value) (*core.Node, error) {
	out := &core.Value{Typ: f64}
	return core.NewNode(addOp{}, inputs, []*core.Value{out}), nil
}

// inplaceAddOp destructively overwrites its first input, like Aesara's
// inplace elemwise Ops.
type inplaceAddOp struct{}

func (inplaceAddOp) Name() string         { return "add_inplace" }
func (inplaceAddOp) Equal(o core.Op) bool { _, ok := o.(inplaceAddOp); return ok }
func (inplaceAddOp) DestroyMap() map[int][]int { return map[int][]int{0: {0}} }
func (inplaceAddOp) MakeNode(inputs ...*core.Value) (*core.Node, error) {
	out := &core.Value{Typ: f64}
	return core.NewNode(inplaceAddOp{}, inputs, []*core.Value{out}), nil
}

func buildAdd(t *testing.T, a, b *core.Value) *core.Node {
	t.Helper()
	n, err := addOp{}.MakeNode(a, b)
	require.NoError(t, err)
	return n
}

func TestNewGraph_ImportsTransitively(t *testing.T) {
	x := core.NewInput("x", f64)
	y := core.NewInput("y", f64)
	n1 := buildAdd(t, x, y)
	n2 := buildAdd(t, n1.Outputs[0], x)

	g, err := core.NewGraph([]*core.Value{n2.Outputs[0]}, []*core.Value{x, y})
	require.NoError(t, err)

	require.True(t, g.Resident(n1))
	require.True(t, g.Resident(n2))
	require.Len(t, g.ApplyNodes(), 2)
}

func TestClients_TracksOutputsAndConsumers(t *testing.T) {
	x := core.NewInput("x", f64)
	y := core.NewInput("y", f64)
	n1 := buildAdd(t, x, y)
	n2 := buildAdd(t, n1.Outputs[0], x)

	g, err := core.NewGraph([]*core.Value{n2.Outputs[0]}, nil)
	require.NoError(t, err)

	clients := g.Clients(n1.Outputs[0])
	require.Len(t, clients, 1)
	require.Equal(t, n2, clients[0].Node)
	require.Equal(t, 0, clients[0].Index)

	rootClients := g.Clients(n2.Outputs[0])
	require.Len(t, rootClients, 1)
	require.Nil(t, rootClients[0].Node)
}

func TestToposort_ParentsBeforeChildren(t *testing.T) {
	x := core.NewInput("x", f64)
	y := core.NewInput("y", f64)
	n1 := buildAdd(t, x, y)
	n2 := buildAdd(t, n1.Outputs[0], x)

	g, err := core.NewGraph([]*core.Value{n2.Outputs[0]}, nil)
	require.NoError(t, err)

	order, err := g.Toposort()
	require.NoError(t, err)
	require.Equal(t, []*core.Node{n1, n2}, order)
}

func TestReplaceAllValidate_RejectsTypeMismatch(t *testing.T) {
	x := core.NewInput("x", f64)
	y := core.NewInput("y", f64)
	n1 := buildAdd(t, x, y)

	g, err := core.NewGraph([]*core.Value{n1.Outputs[0]}, nil)
	require.NoError(t, err)

	bad := core.NewInput("bad", scalarType{name: "int32"})
	err = g.ReplaceAllValidate([]core.Replacement{{Old: n1.Outputs[0], New: bad}}, "test")
	require.Error(t, err)
	var ie *core.InconsistencyError
	require.True(t, errors.As(err, &ie))
	require.ErrorIs(t, ie, core.ErrTypeMismatch)
}

func TestReplaceAllValidate_RejectsCycle(t *testing.T) {
	x := core.NewInput("x", f64)
	y := core.NewInput("y", f64)
	n1 := buildAdd(t, x, y)
	n2 := buildAdd(t, n1.Outputs[0], x)

	g, err := core.NewGraph([]*core.Value{n2.Outputs[0]}, nil)
	require.NoError(t, err)

	// Replacing x with n2's own output would make n1 consume something
	// produced (transitively) by its own consumer n2.
	err = g.ReplaceAllValidate([]core.Replacement{{Old: x, New: n2.Outputs[0]}}, "test")
	require.Error(t, err)
	var ie *core.InconsistencyError
	require.True(t, errors.As(err, &ie))
	require.ErrorIs(t, ie, core.ErrWouldCycle)
}

func TestReplaceAll_RewiresOutputAndClients(t *testing.T) {
	x := core.NewInput("x", f64)
	y := core.NewInput("y", f64)
	n1 := buildAdd(t, x, y)

	g, err := core.NewGraph([]*core.Value{n1.Outputs[0]}, nil)
	require.NoError(t, err)

	replacement := core.NewConstant(f64, 0.0)
	require.NoError(t, g.ReplaceAll([]core.Replacement{{Old: n1.Outputs[0], New: replacement}}, "fold"))
	require.Equal(t, []*core.Value{replacement}, g.Outputs())
}

func TestPrune_RejectsNodesStillInUse(t *testing.T) {
	x := core.NewInput("x", f64)
	y := core.NewInput("y", f64)
	n1 := buildAdd(t, x, y)
	n2 := buildAdd(t, n1.Outputs[0], x)

	g, err := core.NewGraph([]*core.Value{n2.Outputs[0]}, nil)
	require.NoError(t, err)

	err = g.Prune(n1, "test")
	require.ErrorIs(t, err, core.ErrStillInUse)
}

func TestImport_RejectsSecondDestructiveOwner(t *testing.T) {
	x := core.NewInput("x", f64)
	y := core.NewInput("y", f64)
	n1, err := inplaceAddOp{}.MakeNode(x, y)
	require.NoError(t, err)
	n2, err := inplaceAddOp{}.MakeNode(x, n1.Outputs[0])
	require.NoError(t, err)

	_, err = core.NewGraph([]*core.Value{n1.Outputs[0], n2.Outputs[0]}, nil)
	require.Error(t, err)
	var ie *core.InconsistencyError
	require.True(t, errors.As(err, &ie))
	require.ErrorIs(t, ie, core.ErrMultipleDestroyers)
}
