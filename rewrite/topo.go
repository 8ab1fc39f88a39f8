// File: topo.go
// Role: TopoOptimizer — single-pass, toposort-ordered application of one
// NodeRewriter over every resident Node (§4.6).
package rewrite

import "github.com/graphopt/graphopt/core"

// Order selects the direction TopoOptimizer walks the graph in.
type Order int

const (
	// InToOut visits producers before their consumers (the default).
	InToOut Order = iota
	// OutToIn visits consumers before their producers.
	OutToIn
)

// TopoOptimizer applies Rewriter to every resident Node exactly once per
// Apply call, in toposort order (or its reverse), using a worklist seeded
// from core.Graph.Toposort and kept current as the rewrite installs new
// Nodes: an attached Updater pushes newly imported Nodes onto the back of
// the worklist so they get a chance to rewrite too, unless the Node being
// pushed is the one currently being processed.
type TopoOptimizer struct {
	NavigatorOptimizer
	Name     string
	Rewriter NodeRewriter
	Order    Order
}

// NewTopoOptimizer builds a TopoOptimizer. cfg may be nil for defaults.
func NewTopoOptimizer(name string, rewriter NodeRewriter, order Order, cfg *RewriteConfig) *TopoOptimizer {
	return &TopoOptimizer{NavigatorOptimizer: newNavigator(cfg), Name: name, Rewriter: rewriter, Order: order}
}

// In2Out is sugar for NewTopoOptimizer(name, rewriter, InToOut, nil).
func In2Out(name string, rewriter NodeRewriter) *TopoOptimizer {
	return NewTopoOptimizer(name, rewriter, InToOut, nil)
}

// Out2In is sugar for NewTopoOptimizer(name, rewriter, OutToIn, nil).
func Out2In(name string, rewriter NodeRewriter) *TopoOptimizer {
	return NewTopoOptimizer(name, rewriter, OutToIn, nil)
}

func (t *TopoOptimizer) AddRequirements(g *core.Graph) error { return nil }

// Apply walks the worklist once, applying Rewriter to each Node still
// resident by the time it is dequeued (a Node pruned by an earlier
// replacement in this same pass is skipped).
func (t *TopoOptimizer) Apply(g *core.Graph) (Profile, error) {
	start := timeNow()
	p := newProfile(t.Name)

	order, err := g.Toposort()
	if err != nil {
		return p, err
	}
	if t.Order == OutToIn {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}

	worklist := append([]*core.Node(nil), order...)
	var current *core.Node
	updater := &Updater{
		OnImportFn: func(node *core.Node) {
			if node != current {
				worklist = append(worklist, node)
			}
		},
	}
	detach, err := attachUpdater(g, updater)
	if err != nil {
		return p, err
	}
	defer detach()

	seen := make(map[*core.Node]bool, len(order))
	for len(worklist) > 0 {
		current, worklist = worklist[0], worklist[1:]
		if seen[current] || !g.Resident(current) {
			continue
		}
		seen[current] = true
		applied, err := t.processNode(g, current, t.Rewriter)
		if err != nil {
			p.Duration = timeNow().Sub(start)
			return p, err
		}
		if applied {
			p.NumApplied++
		}
	}
	p.Duration = timeNow().Sub(start)
	return p, nil
}
