// File: traverse.go
// Role: deterministic topological ordering of resident Nodes.
package core

import "sort"

// visitState marks a Node's place in the depth-first walk Toposort performs:
// white (unvisited), gray (on the current recursion stack), black (done).
type visitState int

const (
	white visitState = iota
	gray
	black
)

// Toposort returns every resident Node in an order where each Node appears
// after every Node that produces one of its Inputs. Because Graph is
// maintained as an acyclic structure by construction (ReplaceAllValidate
// rejects cycle-introducing replacements), Toposort only returns an error
// if that invariant has somehow been violated — e.g. by a caller using the
// unchecked ReplaceAll — in which case it reports an *InvariantError rather
// than silently truncating the order.
//
// Iteration seeds from ApplyNodes in a stable, deterministic order (sorted
// by each Node's NewNode construction sequence number) so that two
// calls against the same Graph content always produce the same order,
// matching the determinism the rewrite drivers depend on for reproducible
// profiles.
func (g *Graph) Toposort() ([]*Node, error) {
	nodes := g.ApplyNodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].seq < nodes[j].seq })

	state := make(map[*Node]visitState, len(nodes))
	order := make([]*Node, 0, len(nodes))

	var visit func(n *Node) error
	visit = func(n *Node) error {
		switch state[n] {
		case black:
			return nil
		case gray:
			return &InvariantError{Msg: "cycle detected during toposort"}
		}
		state[n] = gray
		for _, in := range n.Inputs {
			if in == nil || in.Owner == nil {
				continue
			}
			if !g.Resident(in.Owner) {
				continue
			}
			if err := visit(in.Owner); err != nil {
				return err
			}
		}
		state[n] = black
		order = append(order, n)
		return nil
	}

	for _, n := range nodes {
		if state[n] == white {
			if err := visit(n); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}
