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

import (
	"fmt"
	"io"
)

// GraphStats summarizes a pointer graph, usually after analysis.
type GraphStats struct {
	Nodes     int
	Removed   int
	PerKind   map[NodeKind]int
	Subgraphs int
	CallEdges int

	// Pointees is the total number of (target, offset) pairs over all
	// live nodes; MaxSetSize the largest single set.
	Pointees   int
	MaxSetSize int
	EmptySets  int
	// UnknownSets counts sets containing unknown memory, a rough measure
	// of how much precision was lost.
	UnknownSets int
}

// ComputeGraphStats walks the graph once and tallies its statistics.
func ComputeGraphStats(g *Graph) *GraphStats {
	s := &GraphStats{
		PerKind:   make(map[NodeKind]int),
		Subgraphs: len(g.Subgraphs()),
		CallEdges: g.CallGraph().NumEdges(),
		Removed:   g.Size() - 1,
	}
	g.Nodes(func(n *Node) bool {
		s.Nodes++
		s.Removed--
		s.PerKind[n.kind]++
		sz := n.pointsTo.Size()
		s.Pointees += sz
		if sz > s.MaxSetSize {
			s.MaxSetSize = sz
		}
		if sz == 0 {
			s.EmptySets++
		}
		if n.pointsTo.HasUnknown() {
			s.UnknownSets++
		}
		return true
	})
	return s
}

// Report writes a human-readable summary to w.
func (s *GraphStats) Report(w io.Writer) {
	fmt.Fprintf(w, "nodes: %d (%d removed)\n", s.Nodes, s.Removed)
	for k := KindNoop; k <= KindEntry; k++ {
		if c := s.PerKind[k]; c > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", k, c)
		}
	}
	fmt.Fprintf(w, "subgraphs: %d\n", s.Subgraphs)
	fmt.Fprintf(w, "call edges: %d\n", s.CallEdges)
	fmt.Fprintf(w, "points-to pairs: %d (max %d per node, %d empty, %d unknown)\n",
		s.Pointees, s.MaxSetSize, s.EmptySets, s.UnknownSets)
}
