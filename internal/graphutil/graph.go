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

package graphutil

import (
	"sort"

	"gonum.org/v1/gonum/graph"
)

// CGraph is a labeled directed graph in a shape both Gonum's graph.Graph and
// yourbasic's graph.Iterator accept, so call graphs can be fed to existing
// graph algorithms without re-implementing them.
type CGraph struct {
	order int

	// IDMap maps node ids to their labeled nodes.
	IDMap map[int64]CNode

	// Keys holds every node id in ascending order.
	Keys []int64

	// Edges is the adjacency relation: Edges[x][y] means x has a directed
	// edge to y.
	Edges map[int64]map[int64]bool
}

// NewCGraph builds a CGraph from labeled nodes and their outgoing edge
// lists. Edge endpoints missing from labels get an empty label.
func NewCGraph(labels map[int64]string, out map[int64][]int64) CGraph {
	idmap := make(map[int64]CNode, len(labels))
	edges := make(map[int64]map[int64]bool, len(labels))

	for id, label := range labels {
		idmap[id] = CNode{Id: id, Label: label}
		edges[id] = map[int64]bool{}
	}
	for from, tos := range out {
		if _, ok := idmap[from]; !ok {
			idmap[from] = CNode{Id: from}
			edges[from] = map[int64]bool{}
		}
		for _, to := range tos {
			if _, ok := idmap[to]; !ok {
				idmap[to] = CNode{Id: to}
				edges[to] = map[int64]bool{}
			}
			edges[from][to] = true
		}
	}

	keys := make([]int64, 0, len(idmap))
	for id := range idmap {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return CGraph{
		order: len(idmap),
		IDMap: idmap,
		Edges: edges,
		Keys:  keys,
	}
}

// Subgraph restricts the graph to the nodes in include, keeping only the
// edges whose both endpoints survive. Order and IDMap carry over from the
// original so node indices stay stable across subgraphs.
func Subgraph(original CGraph, include []int64) CGraph {
	idmap := make(map[int64]CNode, len(include))
	edges := make(map[int64]map[int64]bool, len(include))
	keys := make([]int64, len(include))

	for j, i := range include {
		keys[j] = i
		idmap[i] = original.IDMap[i]
	}

	for _, i := range include {
		edges[i] = map[int64]bool{}
		for e := range original.Edges[i] {
			if _, ok := idmap[e]; ok {
				edges[i][e] = true
			}
		}
	}

	return CGraph{
		order: original.Order(),
		IDMap: original.IDMap,
		Edges: edges,
		Keys:  keys,
	}
}

// Order returns the number of nodes, as yourbasic's graph.Iterator wants.
func (c CGraph) Order() int {
	return c.order
}

// Visit calls do on every successor of v, as yourbasic's graph.Iterator wants.
func (c CGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if _, ok := c.IDMap[int64(v)]; !ok {
		return false
	}
	for w := range c.Edges[int64(v)] {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// Gonum graph.Graph implementation, used by the dot encoder.

// Node returns the node with the given id.
func (c CGraph) Node(v int64) graph.Node {
	return c.IDMap[v]
}

// Nodes returns an iterator over every node.
func (c CGraph) Nodes() graph.Nodes {
	keys := make([]int64, 0, len(c.IDMap))
	for k := range c.IDMap {
		keys = append(keys, k)
	}
	return &NodeSet{nodes: c.IDMap, ids: keys, cur: -1}
}

// From returns an iterator over the direct successors of id.
func (c CGraph) From(id int64) graph.Nodes {
	var keys []int64
	for out := range c.Edges[id] {
		keys = append(keys, out)
	}
	return &NodeSet{nodes: c.IDMap, ids: keys, cur: -1}
}

// HasEdgeBetween reports whether an edge exists between the two nodes,
// ignoring direction.
func (c CGraph) HasEdgeBetween(xid, yid int64) bool {
	return c.Edges[xid][yid] || c.Edges[yid][xid]
}

// Edge returns the directed edge from uid to vid, or nil.
func (c CGraph) Edge(uid, vid int64) graph.Edge {
	if c.Edges[uid][vid] {
		return CEdge{from: c.IDMap[uid], to: c.IDMap[vid]}
	}
	return nil
}

// HasEdgeFromTo reports whether there is a directed edge from uid to vid.
func (c CGraph) HasEdgeFromTo(uid, vid int64) bool {
	return c.Edges[uid][vid]
}

// To returns an iterator over the direct predecessors of id.
func (c CGraph) To(id int64) graph.Nodes {
	var keys []int64
	for from, outs := range c.Edges {
		if outs[id] {
			keys = append(keys, from)
		}
	}
	return &NodeSet{nodes: c.IDMap, ids: keys, cur: -1}
}

// CNode is a labeled node implementing the graph.Node interface.
type CNode struct {
	Id    int64
	Label string
}

// ID returns the id of the node.
func (n CNode) ID() int64 {
	return n.Id
}

func (n CNode) String() string {
	return n.Label
}

// DOTID returns the node name used in dot renderings of the graph.
func (n CNode) DOTID() string {
	return n.Label
}

// NodeSet is an iterator over a fixed set of nodes, implementing graph.Nodes.
// The current node is nodes[ids[cur]].
type NodeSet struct {
	nodes map[int64]CNode
	ids   []int64
	cur   int
}

// Next advances the iterator and reports whether a node remains.
func (ns *NodeSet) Next() bool {
	if ns.cur < len(ns.ids)-1 {
		ns.cur++
		return true
	}
	return false
}

// Len returns the number of nodes in the set.
func (ns *NodeSet) Len() int {
	return len(ns.ids)
}

// Reset rewinds the iterator to the first node.
func (ns *NodeSet) Reset() {
	ns.cur = -1
}

// Node returns the current node.
func (ns *NodeSet) Node() graph.Node {
	return ns.nodes[ns.ids[ns.cur]]
}

// CEdge is a directed edge implementing the graph.Edge interface.
type CEdge struct {
	from CNode
	to   CNode
}

// From returns the origin of the edge.
func (e CEdge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge.
func (e CEdge) To() graph.Node {
	return e.to
}

// ReversedEdge returns the edge with its endpoints swapped.
func (e CEdge) ReversedEdge() graph.Edge {
	return CEdge{from: e.to, to: e.from}
}
