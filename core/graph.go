// File: graph.go
// Role: the Graph type — residency bookkeeping, client tracking, Feature
// dispatch, and the Import/Prune/Replace family of mutation primitives.
package core

import "fmt"

// Client records one consumer of a Value: either an input slot of another
// Node, or a slot in the Graph's own Outputs list (Node == nil).
type Client struct {
	Node  *Node // nil if this Client is a graph output reference
	Index int   // input index into Node.Inputs, or index into Graph.Outputs()
}

// Graph is the mutable DAG of Values and Nodes that rewrites operate on.
//
// Graph is NOT safe for concurrent use — see the package doc comment. All
// bookkeeping (apply-node set, per-value client lists, the op index used by
// GetNodesByOp, and the destroy-ownership map) is maintained incrementally
// by Import/Prune/Replace* so that it never needs to be recomputed from
// scratch.
type Graph struct {
	inputs  []*Value
	outputs []*Value

	applyNodes map[*Node]struct{}
	clients    map[*Value][]Client
	opIndex    map[string][]*Node // Op.Name() -> nodes currently applying an Op with that name
	destroyers map[*Value]*Node   // value -> the one live node that destructively owns it

	features []Feature
}

// NewGraph builds an empty Graph with the given outputs as its initial
// roots, importing every Node reachable from them. inputs, if non-nil,
// restricts which KindInput values are expected; it is purely informational
// bookkeeping (returned by Inputs) and is not validated against reachable
// input values.
func NewGraph(outputs []*Value, inputs []*Value) (*Graph, error) {
	g := &Graph{
		inputs:     append([]*Value(nil), inputs...),
		outputs:    append([]*Value(nil), outputs...),
		applyNodes: make(map[*Node]struct{}),
		clients:    make(map[*Value][]Client),
		opIndex:    make(map[string][]*Node),
		destroyers: make(map[*Value]*Node),
	}
	for i, out := range outputs {
		if out == nil {
			return nil, fmt.Errorf("core: NewGraph: output %d: %w", i, ErrNilValue)
		}
		g.recordClient(out, Client{Node: nil, Index: i})
		if out.Owner != nil {
			if err := g.importNode(out.Owner, "initial"); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// Outputs returns the Graph's root values, in order.
func (g *Graph) Outputs() []*Value { return append([]*Value(nil), g.outputs...) }

// Inputs returns the Graph's declared free-variable values, in order.
func (g *Graph) Inputs() []*Value { return append([]*Value(nil), g.inputs...) }

// ApplyNodes returns every Node currently resident in the Graph, in no
// particular order; use Toposort for an ordered traversal.
func (g *Graph) ApplyNodes() []*Node {
	nodes := make([]*Node, 0, len(g.applyNodes))
	for n := range g.applyNodes {
		nodes = append(nodes, n)
	}
	return nodes
}

// Resident reports whether node is currently tracked by the Graph.
func (g *Graph) Resident(node *Node) bool {
	_, ok := g.applyNodes[node]
	return ok
}

// Clients returns every recorded consumer of v: input slots of other
// resident Nodes, plus any Graph.Outputs() slots that reference v directly.
func (g *Graph) Clients(v *Value) []Client {
	return append([]Client(nil), g.clients[v]...)
}

// GetNodesByOp returns every resident Node whose Op.Name() matches op's,
// restricted further to Nodes whose Op.Equal(op) holds. This backs
// OpKeyOptimizer's worklist seeding.
func (g *Graph) GetNodesByOp(op Op) []*Node {
	var out []*Node
	for _, n := range g.opIndex[op.Name()] {
		if n.Op.Equal(op) {
			out = append(out, n)
		}
	}
	return out
}

// AddFeature attaches f to the Graph, calling f.OnAttach first. If OnAttach
// returns an error, f is not installed and the error is returned unwrapped.
func (g *Graph) AddFeature(f Feature) error {
	if err := f.OnAttach(g); err != nil {
		return err
	}
	g.features = append(g.features, f)
	return nil
}

// RemoveFeature detaches f, calling f.OnDetach. It is a no-op if f was never
// attached.
func (g *Graph) RemoveFeature(f Feature) {
	for i, existing := range g.features {
		if existing == f {
			g.features = append(g.features[:i], g.features[i+1:]...)
			f.OnDetach(g)
			return
		}
	}
}

func (g *Graph) fireImport(node *Node, reason string) {
	for _, f := range g.features {
		f.OnImport(g, node, reason)
	}
}

func (g *Graph) firePrune(node *Node, reason string) {
	for _, f := range g.features {
		f.OnPrune(g, node, reason)
	}
}

func (g *Graph) fireChangeInput(node *Node, idx int, oldVal, newVal *Value, reason string) {
	for _, f := range g.features {
		f.OnChangeInput(g, node, idx, oldVal, newVal, reason)
	}
}

func (g *Graph) recordClient(v *Value, c Client) {
	g.clients[v] = append(g.clients[v], c)
}

// removeClient deletes one occurrence of c from v's client list, if
// present. It does not complain if c is absent, matching the Aesara
// fgraph's tolerant client-list bookkeeping.
func (g *Graph) removeClient(v *Value, c Client) {
	list := g.clients[v]
	for i, existing := range list {
		if existing == c {
			g.clients[v] = append(list[:i], list[i+1:]...)
			if len(g.clients[v]) == 0 {
				delete(g.clients, v)
			}
			return
		}
	}
}

// importNode recursively imports node and every not-yet-resident Node that
// feeds it, depth-first over inputs, firing OnImport once per newly
// resident Node in post-order (inputs before the Node that consumes them),
// matching Aesara's fgraph import walk.
func (g *Graph) importNode(node *Node, reason string) error {
	if node == nil {
		return ErrNilNode
	}
	if g.Resident(node) {
		return nil
	}
	for idx, in := range node.Inputs {
		if in == nil {
			return fmt.Errorf("core: import: node input %d: %w", idx, ErrNilValue)
		}
		g.recordClient(in, Client{Node: node, Index: idx})
		if in.Owner != nil {
			if err := g.importNode(in.Owner, reason); err != nil {
				return err
			}
		}
	}
	g.applyNodes[node] = struct{}{}
	if node.Op != nil {
		g.opIndex[node.Op.Name()] = append(g.opIndex[node.Op.Name()], node)
	}
	if err := g.claimDestroys(node); err != nil {
		return err
	}
	g.fireImport(node, reason)
	return nil
}

// Import makes node (and anything it transitively depends on) resident in
// the Graph without attaching it to any output. A rewrite does not need it
// before installing a replacement: ReplaceAll imports the owner of each
// replacement Value itself.
func (g *Graph) Import(node *Node, reason string) error {
	return g.importNode(node, reason)
}

func (g *Graph) claimDestroys(node *Node) error {
	if node.Op == nil {
		return nil
	}
	dm := node.Op.DestroyMap()
	for _, inputIdxs := range dm {
		for _, idx := range inputIdxs {
			if idx < 0 || idx >= len(node.Inputs) {
				continue
			}
			v := node.Inputs[idx]
			if owner, ok := g.destroyers[v]; ok && owner != node {
				return &InconsistencyError{Old: v, Reason: "multiple destroyers", Err: ErrMultipleDestroyers}
			}
			g.destroyers[v] = node
		}
	}
	return nil
}

func (g *Graph) releaseDestroys(node *Node) {
	for v, owner := range g.destroyers {
		if owner == node {
			delete(g.destroyers, v)
		}
	}
}

// Prune removes node from the Graph if it has no remaining clients on any
// of its outputs. It returns ErrStillInUse if any output is still
// referenced. Prune does not cascade: the owners of node's inputs stay
// resident even when node was their last client.
func (g *Graph) Prune(node *Node, reason string) error {
	if node == nil {
		return ErrNilNode
	}
	if !g.Resident(node) {
		return ErrNotResident
	}
	for _, out := range node.Outputs {
		if len(g.clients[out]) != 0 {
			return ErrStillInUse
		}
	}
	for idx, in := range node.Inputs {
		g.removeClient(in, Client{Node: node, Index: idx})
	}
	delete(g.applyNodes, node)
	if node.Op != nil {
		list := g.opIndex[node.Op.Name()]
		for i, n := range list {
			if n == node {
				g.opIndex[node.Op.Name()] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	g.releaseDestroys(node)
	g.firePrune(node, reason)
	return nil
}
