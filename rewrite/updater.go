// File: updater.go
// Role: Updater and ChangeTracker — core.Features that observe graph
// mutation as it happens instead of re-scanning the Graph after every
// rewrite. TopoOptimizer and OpKeyOptimizer attach an Updater.
package rewrite

import "github.com/graphopt/graphopt/core"

// Updater is a core.Feature that forwards import/prune/change-input events
// to caller-supplied callbacks. NavigatorOptimizer-based drivers attach one
// per Apply call so a rewrite that pulls in new Nodes gets them pushed onto
// the driver's own worklist, and detach it when Apply returns.
type Updater struct {
	core.FeatureBase
	OnImportFn      func(node *core.Node)
	OnPruneFn       func(node *core.Node)
	OnChangeInputFn func(node *core.Node, idx int, oldVal, newVal *core.Value)
}

func (u *Updater) OnImport(g *core.Graph, node *core.Node, reason string) {
	if u.OnImportFn != nil {
		u.OnImportFn(node)
	}
}

func (u *Updater) OnPrune(g *core.Graph, node *core.Node, reason string) {
	if u.OnPruneFn != nil {
		u.OnPruneFn(node)
	}
}

func (u *Updater) OnChangeInput(g *core.Graph, node *core.Node, idx int, oldVal, newVal *core.Value, reason string) {
	if u.OnChangeInputFn != nil {
		u.OnChangeInputFn(node, idx, oldVal, newVal)
	}
}

// attachUpdater attaches u to g and returns a detach func, so callers can
// `defer detach()` around one Apply call.
func attachUpdater(g *core.Graph, u *Updater) (func(), error) {
	if err := g.AddFeature(u); err != nil {
		return nil, err
	}
	return func() { g.RemoveFeature(u) }, nil
}

// ChangeTracker is a core.Feature recording whether any mutation happened
// and how many Nodes were imported, since it was attached or last Reset.
// No driver in this package attaches one: EquilibriumOptimizer detects
// change from the NumApplied counts its rewriters report, not from a
// ChangeTracker.
type ChangeTracker struct {
	core.FeatureBase
	Changed     bool
	NumImported int
}

func (c *ChangeTracker) OnImport(g *core.Graph, node *core.Node, reason string) {
	c.Changed = true
	c.NumImported++
}

func (c *ChangeTracker) OnChangeInput(g *core.Graph, node *core.Node, idx int, oldVal, newVal *core.Value, reason string) {
	c.Changed = true
}

// Reset clears Changed and NumImported without detaching the Feature.
func (c *ChangeTracker) Reset() {
	c.Changed = false
	c.NumImported = 0
}
