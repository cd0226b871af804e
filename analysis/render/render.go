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

// Package render turns the call graph resolved by the pointer analysis into
// renderable and queryable forms: a GraphViz dot document, the
// procedure-level call relation, and the recursion groups of the program.
package render

import (
	"fmt"

	"gonum.org/v1/gonum/graph/encoding/dot"

	"github.com/dgruntime/argus/analysis/pointsto"
	"github.com/dgruntime/argus/internal/funcutil"
	"github.com/dgruntime/argus/internal/graphutil"
)

// CallGraphDot renders the resolved call graph in GraphViz format. Nodes
// are call sites and procedure entries; entries carry the procedure name.
func CallGraphDot(g *pointsto.Graph) ([]byte, error) {
	cg := g.CallGraph()
	labels := make(map[int64]string)
	out := make(map[int64][]int64)

	names := entryNames(g)
	for _, site := range cg.Sites() {
		labels[int64(site)] = fmt.Sprintf("site_%d", site)
		for _, entry := range cg.Callees(site) {
			if _, ok := labels[int64(entry)]; !ok {
				labels[int64(entry)] = names[entry]
			}
			out[int64(site)] = append(out[int64(site)], int64(entry))
		}
	}
	return dot.Marshal(graphutil.NewCGraph(labels, out), "callgraph", "", "  ")
}

func entryNames(g *pointsto.Graph) map[pointsto.NodeID]string {
	names := make(map[pointsto.NodeID]string)
	for _, sg := range g.Subgraphs() {
		if e := sg.Entry(); e != pointsto.InvalidNode {
			name := sg.Name()
			if name == "" {
				name = fmt.Sprintf("fn_%d", sg.ID())
			}
			names[e] = name
		}
	}
	return names
}

// SubgraphCallEdges lifts the node-level call graph to the procedure level:
// for every subgraph, the subgraphs its body may invoke. Sites are
// attributed to a procedure by walking the procedure body from its entry.
func SubgraphCallEdges(g *pointsto.Graph) map[pointsto.SubgraphID][]pointsto.SubgraphID {
	edges := make(map[pointsto.SubgraphID][]pointsto.SubgraphID)
	for _, sg := range g.Subgraphs() {
		entry := sg.Entry()
		if entry == pointsto.InvalidNode {
			continue
		}
		seen := make(map[pointsto.SubgraphID]bool)
		for _, id := range g.NodesFrom(entry, false) {
			n := g.Node(id)
			if n == nil {
				continue
			}
			for _, callee := range n.Callees() {
				if !seen[callee] {
					seen[callee] = true
					edges[sg.ID()] = append(edges[sg.ID()], callee)
				}
			}
		}
	}
	return edges
}

// RecursiveGroups returns the sets of mutually recursive procedures: the
// strongly connected components of the procedure-level call relation that
// have more than one member or a self call.
func RecursiveGroups(g *pointsto.Graph) [][]pointsto.SubgraphID {
	edges := SubgraphCallEdges(g)
	var all []pointsto.SubgraphID
	for _, sg := range g.Subgraphs() {
		all = append(all, sg.ID())
	}
	sccs := graphutil.StronglyConnectedComponents(all, func(s pointsto.SubgraphID) []pointsto.SubgraphID {
		return edges[s]
	})
	var groups [][]pointsto.SubgraphID
	for _, scc := range sccs {
		if len(scc) > 1 || funcutil.Contains(edges[scc[0]], scc[0]) {
			groups = append(groups, scc)
		}
	}
	return groups
}

// CallCycles returns the elementary cycles of the procedure-level call
// relation, each as a sequence of subgraph ids starting and ending at the
// same procedure.
func CallCycles(g *pointsto.Graph) [][]pointsto.SubgraphID {
	edges := SubgraphCallEdges(g)
	labels := make(map[int64]string)
	out := make(map[int64][]int64)
	// the cycle finder wants dense 0-based ids, so shift subgraph ids down
	for _, sg := range g.Subgraphs() {
		labels[int64(sg.ID())-1] = sg.Name()
		for _, callee := range edges[sg.ID()] {
			out[int64(sg.ID())-1] = append(out[int64(sg.ID())-1], int64(callee)-1)
		}
	}
	var cycles [][]pointsto.SubgraphID
	for _, c := range graphutil.FindAllElementaryCycles(graphutil.NewCGraph(labels, out)) {
		cycles = append(cycles, funcutil.Map(c, func(id int64) pointsto.SubgraphID {
			return pointsto.SubgraphID(id + 1)
		}))
	}
	return cycles
}
