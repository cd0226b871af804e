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

// WriteGraph writes a textual rendering of every live node: id, kind,
// operands, control successors and the node's points-to set. Subgraph
// boundaries are annotated on their entry nodes.
func WriteGraph(w io.Writer, g *Graph) {
	byEntry := make(map[NodeID]*Subgraph)
	for _, sg := range g.Subgraphs() {
		if sg.Entry() != InvalidNode {
			byEntry[sg.Entry()] = sg
		}
	}
	g.Nodes(func(n *Node) bool {
		if sg := byEntry[n.id]; sg != nil {
			fmt.Fprintf(w, "; subgraph %d %s\n", sg.ID(), sg.Name())
		}
		fmt.Fprintf(w, "%4d %-12s", n.id, n.kind)
		if len(n.operands) > 0 {
			fmt.Fprintf(w, " ops=%v", n.operands)
		}
		if len(n.succs) > 0 {
			fmt.Fprintf(w, " succ=%v", n.succs)
		}
		if !n.pointsTo.Empty() {
			fmt.Fprintf(w, " -> %s", FormatSet(n.pointsTo))
		}
		fmt.Fprintln(w)
		return true
	})
}

// WriteMemory writes the memory states of a flow-sensitive run, one block
// per node with a non-empty incoming memory, cells in deterministic order.
func WriteMemory(w io.Writer, g *Graph, res *FlowResult) {
	g.Nodes(func(n *Node) bool {
		m := res.MemoryAt(n.id)
		if m == nil {
			return true
		}
		objs := m.Objects()
		if len(objs) == 0 {
			return true
		}
		fmt.Fprintf(w, "at %d (%s):\n", n.id, n.kind)
		for _, t := range objs {
			for _, off := range m.CellOffsets(t) {
				cell := m.objects[t][off]
				fmt.Fprintf(w, "  [%d+%s] = %s\n", t, off, FormatSet(cell))
			}
		}
		return true
	})
}
