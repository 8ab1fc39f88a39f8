package core

// Feature is the callback contract a Graph fires synchronously on every
// mutation. Rewrite drivers, the common-subexpression merger, and any host
// bookkeeping all attach as Features rather than polling the Graph.
//
// Callbacks fire in attachment order, after the mutation they describe has
// already been applied to the Graph's bookkeeping (clients, apply-node set,
// op index) — a Feature observing OnImport can already call Graph.Clients
// on the new Node's outputs.
type Feature interface {
	// OnAttach is called once when the Feature is added to g, before any
	// other callback. Returning a non-nil error aborts the attach and the
	// Feature is not installed.
	OnAttach(g *Graph) error

	// OnDetach is called once when the Feature is removed from g.
	OnDetach(g *Graph)

	// OnImport is called after node becomes resident in g, for every node
	// newly imported (including nodes pulled in transitively as inputs of
	// an imported node). reason is a short caller-supplied label for
	// diagnostics.
	OnImport(g *Graph, node *Node, reason string)

	// OnPrune is called after node is removed from g because it is no
	// longer reachable from any graph output.
	OnPrune(g *Graph, node *Node, reason string)

	// OnChangeInput is called after node.Inputs[inputIdx] is changed from
	// oldVal to newVal (as part of a replacement). node is the consuming
	// Node; for a replacement of a graph output itself, node is nil.
	OnChangeInput(g *Graph, node *Node, inputIdx int, oldVal, newVal *Value, reason string)
}

// FeatureBase implements Feature with no-op methods. Concrete Features
// embed FeatureBase and override only the callbacks they care about,
// mirroring how most rewrite-driver Features only need OnImport/OnPrune.
type FeatureBase struct{}

func (FeatureBase) OnAttach(*Graph) error { return nil }
func (FeatureBase) OnDetach(*Graph)       {}
func (FeatureBase) OnImport(*Graph, *Node, string)                 {}
func (FeatureBase) OnPrune(*Graph, *Node, string)                  {}
func (FeatureBase) OnChangeInput(*Graph, *Node, int, *Value, *Value, string) {}
