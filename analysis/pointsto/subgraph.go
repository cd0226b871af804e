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

// SubgraphID identifies a procedure subgraph; ids start at 1 and equal the
// position in the graph's subgraph list.
type SubgraphID uint32

// Subgraph is the pointer graph of a single procedure: an entry node, the
// formal parameter nodes, the return nodes, and an optional vararg gather
// node. The graph owns all subgraphs.
type Subgraph struct {
	g      *Graph
	id     SubgraphID
	name   string
	entry  NodeID
	params []NodeID
	rets   []NodeID
	vararg NodeID
}

// ID returns the subgraph id.
func (sg *Subgraph) ID() SubgraphID { return sg.id }

// Name returns the frontend-supplied name, possibly empty.
func (sg *Subgraph) Name() string { return sg.name }

// Entry returns the subgraph's ENTRY node, or InvalidNode before SetEntry.
func (sg *Subgraph) Entry() NodeID { return sg.entry }

// SetEntry installs the subgraph's ENTRY node. The node must be of kind
// ENTRY.
func (sg *Subgraph) SetEntry(n NodeID) {
	nd := sg.g.mustNode(n)
	if nd.kind != KindEntry {
		panic("pointsto: subgraph entry must be an ENTRY node")
	}
	nd.sub = sg.id
	sg.entry = n
}

// Params returns the formal parameter nodes, in declaration order.
func (sg *Subgraph) Params() []NodeID { return sg.params }

// AddParam appends a formal parameter node. Arguments bound by the linker
// flow into these nodes in order, so they are typically PHI nodes.
func (sg *Subgraph) AddParam(n NodeID) {
	sg.g.mustNode(n).sub = sg.id
	sg.params = append(sg.params, n)
}

// Returns returns the subgraph's RETURN nodes.
func (sg *Subgraph) Returns() []NodeID { return sg.rets }

// AddReturn registers a RETURN node as one of the subgraph's returns.
func (sg *Subgraph) AddReturn(n NodeID) {
	nd := sg.g.mustNode(n)
	if nd.kind != KindReturn {
		panic("pointsto: subgraph return must be a RETURN node")
	}
	nd.sub = sg.id
	sg.rets = append(sg.rets, n)
}

// Vararg returns the vararg gather node, or InvalidNode.
func (sg *Subgraph) Vararg() NodeID { return sg.vararg }

// SetVararg installs the node gathering variadic arguments.
func (sg *Subgraph) SetVararg(n NodeID) {
	sg.g.mustNode(n).sub = sg.id
	sg.vararg = n
}
