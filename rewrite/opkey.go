// File: opkey.go
// Role: OpKeyOptimizer — a worklist seeded from every resident Node
// applying a specific Op, rather than a full toposort pass (§4.6). Useful
// when a rewrite only ever fires on one Op and re-scanning the whole graph
// each time would be wasted work.
package rewrite

import "github.com/graphopt/graphopt/core"

// OpKeyOptimizer applies Rewriter to every resident Node whose Op matches
// Key (via core.Graph.GetNodesByOp), and to any newly imported Node that
// also matches Key, until the worklist drains.
type OpKeyOptimizer struct {
	NavigatorOptimizer
	Name     string
	Key      core.Op
	Rewriter NodeRewriter
}

// NewOpKeyOptimizer builds an OpKeyOptimizer. cfg may be nil for defaults.
func NewOpKeyOptimizer(name string, key core.Op, rewriter NodeRewriter, cfg *RewriteConfig) *OpKeyOptimizer {
	return &OpKeyOptimizer{NavigatorOptimizer: newNavigator(cfg), Name: name, Key: key, Rewriter: rewriter}
}

func (o *OpKeyOptimizer) AddRequirements(g *core.Graph) error { return nil }

func (o *OpKeyOptimizer) Apply(g *core.Graph) (Profile, error) {
	start := timeNow()
	p := newProfile(o.Name)

	worklist := g.GetNodesByOp(o.Key)
	var current *core.Node
	updater := &Updater{
		OnImportFn: func(node *core.Node) {
			if node == current || node.Op == nil || !node.Op.Equal(o.Key) {
				return
			}
			worklist = append(worklist, node)
		},
	}
	detach, err := attachUpdater(g, updater)
	if err != nil {
		return p, err
	}
	defer detach()

	seen := make(map[*core.Node]bool)
	for len(worklist) > 0 {
		current, worklist = worklist[0], worklist[1:]
		if seen[current] || !g.Resident(current) {
			continue
		}
		seen[current] = true
		applied, err := o.processNode(g, current, o.Rewriter)
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
