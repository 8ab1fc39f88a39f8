// File: merge.go
// Role: MergeFeature — the incremental signature bookkeeping that watches
// every Node import and schedules a candidate merge whenever a duplicate
// shows up (§4.3).
package merge

import (
	"fmt"
	"reflect"

	"github.com/graphopt/graphopt/core"
)

// candidatePair is a scheduled merge opportunity: dup was found to
// duplicate keep, so dup's outputs can be replaced by keep's.
type candidatePair struct {
	keep, dup *core.Node
}

// blacklistKey identifies one previously-rejected pair so it is never
// retried.
type blacklistKey struct{ keep, dup *core.Node }

// MergeFeature tracks, as Nodes are imported, a bucket of candidate Nodes
// per (Op, pointwise-identical-inputs) signature, and a LIFO of scheduled
// candidatePairs discovered along the way. It never mutates the Graph
// itself beyond canonicalizing constant inputs — MergeOptimizer performs
// the actual replacement.
type MergeFeature struct {
	core.FeatureBase

	constants []*core.Value          // canonical constants seen so far, by (Type, Data)
	buckets   map[string][]*core.Node // signature key -> candidate nodes sharing it
	nodeKey   map[*core.Node]string   // node -> the bucket key it is currently filed under
	scheduled []candidatePair
	blacklist map[blacklistKey]bool
}

// NewMergeFeature returns an empty, ready-to-attach MergeFeature.
func NewMergeFeature() *MergeFeature {
	return &MergeFeature{
		buckets:   make(map[string][]*core.Node),
		nodeKey:   make(map[*core.Node]string),
		blacklist: make(map[blacklistKey]bool),
	}
}

func (f *MergeFeature) OnAttach(g *core.Graph) error {
	if f.buckets == nil {
		f.buckets = make(map[string][]*core.Node)
	}
	if f.nodeKey == nil {
		f.nodeKey = make(map[*core.Node]string)
	}
	if f.blacklist == nil {
		f.blacklist = make(map[blacklistKey]bool)
	}
	return nil
}

// canonicalConstant returns the canonical Value for v: an earlier constant
// with equal Type and Data if one was already seen, else v itself (recorded
// as the new canonical). A matched incumbent keeps its identity but adopts
// v's Name when v has one set, so a later, more descriptively named
// occurrence of the same constant doesn't leave the canonical anonymous.
func (f *MergeFeature) canonicalConstant(v *core.Value) *core.Value {
	for _, s := range f.constants {
		if s.Typ.Equal(v.Typ) && reflect.DeepEqual(s.Data, v.Data) {
			if v.Name != "" {
				s.Name = v.Name
			}
			return s
		}
	}
	f.constants = append(f.constants, v)
	return v
}

// processConstants canonicalizes node's constant inputs in place,
// rewiring through the Graph so client bookkeeping stays correct. This is
// safe to call on a just-imported node: a constant built fresh for one use
// site has no other clients yet, so ReplaceAll's "rewire every client"
// behavior only ever touches this one input slot.
func (f *MergeFeature) processConstants(g *core.Graph, node *core.Node) error {
	for i, in := range node.Inputs {
		if in == nil || !in.IsConstant() {
			continue
		}
		canon := f.canonicalConstant(in)
		if canon == in {
			continue
		}
		if err := g.ReplaceAll([]core.Replacement{{Old: in, New: canon}}, "merge: canonicalize constant"); err != nil {
			return fmt.Errorf("merge: canonicalize constant input %d: %w", i, err)
		}
	}
	return nil
}

// signature returns node's bucket key: its Op's name plus a pointer-derived
// token per input. Two Nodes land in the same bucket only if they apply
// same-named Ops to identical input Value pointers; signatureMatches then
// confirms true Op equality (not just name) before scheduling a merge.
func signature(node *core.Node) string {
	key := ""
	if node.Op != nil {
		key = node.Op.Name()
	}
	for _, in := range node.Inputs {
		key += fmt.Sprintf("|%p", in)
	}
	return key
}

func signatureMatches(a, b *core.Node) bool {
	if a.Op == nil || b.Op == nil || !a.Op.Equal(b.Op) {
		return false
	}
	if len(a.Inputs) != len(b.Inputs) {
		return false
	}
	for i := range a.Inputs {
		if a.Inputs[i] != b.Inputs[i] {
			return false
		}
	}
	return true
}

// destroys reports whether node's Op claims destructive ownership of any
// input. Nodes that destroy an input are never scheduled as merge
// candidates: collapsing two distinct destructive call sites into one
// would conflate what each one overwrites.
func destroys(node *core.Node) bool {
	return node.Op != nil && len(node.Op.DestroyMap()) > 0
}

// fileNode computes node's current signature, schedules a merge candidate
// against any matching resident Node already filed under that signature,
// and records node in that bucket (keyed by nodeKey so a later input change
// can find and evict it again without having to reconstruct its old key
// from its now-changed Inputs).
func (f *MergeFeature) fileNode(g *core.Graph, node *core.Node) {
	key := signature(node)
	for _, existing := range f.buckets[key] {
		if existing == node || !g.Resident(existing) {
			continue
		}
		if !signatureMatches(node, existing) {
			continue
		}
		bk := blacklistKey{keep: existing, dup: node}
		if f.blacklist[bk] {
			continue
		}
		f.scheduled = append(f.scheduled, candidatePair{keep: existing, dup: node})
		break
	}
	f.buckets[key] = append(f.buckets[key], node)
	f.nodeKey[node] = key
}

// evictNode removes node from whatever bucket it is currently filed under,
// if any (a node that was never filed, e.g. a destructive one, is a no-op).
func (f *MergeFeature) evictNode(node *core.Node) {
	key, ok := f.nodeKey[node]
	if !ok {
		return
	}
	list := f.buckets[key]
	for i, n := range list {
		if n == node {
			f.buckets[key] = append(list[:i], list[i+1:]...)
			break
		}
	}
	delete(f.nodeKey, node)
}

// dropScheduledInvolving removes every scheduled candidatePair referencing
// node, on either side.
func (f *MergeFeature) dropScheduledInvolving(node *core.Node) {
	kept := f.scheduled[:0]
	for _, c := range f.scheduled {
		if c.keep == node || c.dup == node {
			continue
		}
		kept = append(kept, c)
	}
	f.scheduled = kept
}

func (f *MergeFeature) OnImport(g *core.Graph, node *core.Node, reason string) {
	if err := f.processConstants(g, node); err != nil {
		return // best-effort: a failed canonicalization just forgoes that merge opportunity
	}
	if destroys(node) {
		return
	}
	f.fileNode(g, node)
}

func (f *MergeFeature) OnPrune(g *core.Graph, node *core.Node, reason string) {
	f.evictNode(node)
	f.dropScheduledInvolving(node)
}

// OnChangeInput re-runs candidate discovery for node whenever one of its
// inputs is rewired elsewhere in the graph: node's signature just changed,
// so its old bucket membership is stale and must be dropped before it can
// be correctly re-filed (or correctly recognized as no longer a candidate,
// if it is now destructive — DestroyMap is static per Op, so that can't
// actually change, but the check is kept for symmetry with OnImport). A
// newly-arrived constant input is canonicalized the same way a freshly
// imported node's constant inputs are.
func (f *MergeFeature) OnChangeInput(g *core.Graph, node *core.Node, idx int, oldVal, newVal *core.Value, reason string) {
	if newVal.IsConstant() {
		canon := f.canonicalConstant(newVal)
		if canon != newVal {
			if err := g.ReplaceAll([]core.Replacement{{Old: newVal, New: canon}}, "merge: canonicalize constant"); err != nil {
				return
			}
		}
	}
	if _, tracked := f.nodeKey[node]; !tracked {
		return
	}
	f.evictNode(node)
	f.dropScheduledInvolving(node)
	if destroys(node) {
		return
	}
	f.fileNode(g, node)
}

// popScheduled pops the most recently scheduled candidate (LIFO), matching
// Aesara's MergeOptimizer.apply stack-based processing order.
func (f *MergeFeature) popScheduled() (candidatePair, bool) {
	if len(f.scheduled) == 0 {
		return candidatePair{}, false
	}
	last := f.scheduled[len(f.scheduled)-1]
	f.scheduled = f.scheduled[:len(f.scheduled)-1]
	return last, true
}

func (f *MergeFeature) blacklistPair(keep, dup *core.Node) {
	f.blacklist[blacklistKey{keep: keep, dup: dup}] = true
}
