// Copyright The Argus Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pointsto

// forEachEdge dispatches the outgoing edges of n under the traversal's edge
// choice rule: successor edges always, plus CALL -> callee entry and
// RETURN -> call-return edges when interprocedural.
func (g *Graph) forEachEdge(n *Node, interproc bool, dispatch func(NodeID)) {
	if interproc {
		switch n.kind {
		case KindCall, KindFork:
			for _, sub := range n.Callees() {
				if e := g.Subgraph(sub).Entry(); e != InvalidNode {
					dispatch(e)
				}
			}
		case KindReturn:
			for _, site := range n.returnSites {
				dispatch(site)
			}
		}
	}
	for _, s := range n.succs {
		dispatch(s)
	}
}

// NodesFrom returns the nodes reachable from start in BFS order over
// successor edges, crossing call and return edges when interproc is set.
// Visitation marks nodes with a per-graph epoch, so two traversals of the
// same graph must not overlap.
func (g *Graph) NodesFrom(start NodeID, interproc bool) []NodeID {
	g.dfsEpoch++
	epoch := g.dfsEpoch

	first := g.mustNode(start)
	first.dfsEpoch = epoch

	order := []NodeID{start}
	for i := 0; i < len(order); i++ {
		cur := g.mustNode(order[i])
		g.forEachEdge(cur, interproc, func(next NodeID) {
			nd := g.Node(next)
			if nd == nil || nd.dfsEpoch == epoch {
				return
			}
			nd.dfsEpoch = epoch
			order = append(order, next)
		})
	}
	return order
}

// ReachableFrom returns the set of nodes reachable from start, stopping
// (exclusively) at exit when exit is a valid id, under the same edge choice
// rule as NodesFrom.
func (g *Graph) ReachableFrom(start, exit NodeID, interproc bool) map[NodeID]struct{} {
	g.mustNode(start)
	seen := make(map[NodeID]struct{})
	fifo := []NodeID{start}
	for len(fifo) > 0 {
		cur := fifo[0]
		fifo = fifo[1:]
		if _, ok := seen[cur]; ok {
			continue
		}
		seen[cur] = struct{}{}
		g.forEachEdge(g.mustNode(cur), interproc, func(next NodeID) {
			if next == exit {
				return
			}
			fifo = append(fifo, next)
		})
	}
	return seen
}
