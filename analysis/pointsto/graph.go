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

// Package pointsto implements the core of a static pointer analysis: an
// interprocedural pointer graph and the points-to lattice attached to its
// nodes. A frontend lowers the program to graph nodes (allocations, loads,
// stores, offsets, copies, calls, phis); Analyze then computes a sound
// over-approximation of the abstract memory locations every node may hold,
// either flow-insensitively or flow-sensitively.
package pointsto

import "fmt"

// GraphOptions configures a graph at construction time.
type GraphOptions struct {
	// Representation selects the points-to set implementation for every
	// node of the graph. Empty means RepMapBits.
	Representation Representation
	// Divisor is the slot granularity of RepDivisible; ignored otherwise.
	Divisor uint64
	// WordSize is the width in bytes of a single pointer slot, used by
	// the flow-sensitive engine to decide strong updates. Zero means 8.
	WordSize uint64
}

// Graph is a whole-program pointer graph: a dense arena of nodes, the
// per-procedure subgraphs, and the dynamic call graph discovered during
// analysis. All mutation goes through the builder API; node ids are
// monotonic and never reused.
type Graph struct {
	rep      Representation
	divisor  uint64
	wordSize uint64

	// nodes[0] is the invalid id and always nil. A removed node leaves
	// a nil hole; its id is never reassigned.
	nodes     []*Node
	subgraphs []*Subgraph
	entry     *Subgraph
	globals   NodeID

	callgraph *CallGraph

	dfsEpoch uint32
}

// NewGraph returns an empty graph. A nil opts selects the default
// representation (map-of-bitvectors) and an 8-byte word. The three sentinel
// targets NullPtr, UnknownMemory and Invalidated are pre-created at their
// reserved ids.
func NewGraph(opts *GraphOptions) *Graph {
	g := &Graph{
		rep:       RepMapBits,
		wordSize:  8,
		nodes:     []*Node{nil},
		callgraph: NewCallGraph(),
	}
	if opts != nil {
		if opts.Representation != "" {
			g.rep = opts.Representation
		}
		g.divisor = opts.Divisor
		if opts.WordSize != 0 {
			g.wordSize = opts.WordSize
		}
	}
	for id := NullPtr; id <= Invalidated; id++ {
		n := g.newNode(KindNoop)
		if n.id != id {
			panic("pointsto: sentinel id mismatch")
		}
	}
	return g
}

// WordSize returns the width in bytes of one pointer slot.
func (g *Graph) WordSize() uint64 { return g.wordSize }

// SetRepresentation is not provided: the representation is fixed at
// construction so every set in the graph is interchangeable.

func (g *Graph) newSet() PointsToSet {
	return NewSet(g.rep, g.divisor)
}

func (g *Graph) newNode(kind NodeKind) *Node {
	n := &Node{
		id:       NodeID(len(g.nodes)),
		kind:     kind,
		pointsTo: g.newSet(),
	}
	g.nodes = append(g.nodes, n)
	return n
}

// Node returns the node with the given id, or nil for the invalid id and
// removed nodes.
func (g *Graph) Node(id NodeID) *Node {
	if id == InvalidNode || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

func (g *Graph) mustNode(id NodeID) *Node {
	n := g.Node(id)
	if n == nil {
		panic(fmt.Sprintf("pointsto: no live node with id %d", id))
	}
	return n
}

// Size returns the number of node slots, including the invalid slot 0 and
// removed holes.
func (g *Graph) Size() int { return len(g.nodes) }

// Nodes calls f on every live node in id order.
func (g *Graph) Nodes(f func(*Node) bool) {
	for _, n := range g.nodes[1:] {
		if n != nil && !f(n) {
			return
		}
	}
}

// CallGraph returns the dynamic call graph discovered so far.
func (g *Graph) CallGraph() *CallGraph { return g.callgraph }

// RegisterCall records that call site a may invoke entry b. It is
// idempotent and reports whether the edge is new.
func (g *Graph) RegisterCall(a, b NodeID) bool {
	return g.callgraph.AddCall(a, b)
}

// CreateSubgraph returns a fresh procedure subgraph. The first subgraph
// created is the program entry until SetEntry overrides it.
func (g *Graph) CreateSubgraph(name string) *Subgraph {
	sg := &Subgraph{g: g, id: SubgraphID(len(g.subgraphs) + 1), name: name}
	g.subgraphs = append(g.subgraphs, sg)
	if g.entry == nil {
		g.entry = sg
	}
	return sg
}

// Subgraph returns the subgraph with the given id, or nil.
func (g *Graph) Subgraph(id SubgraphID) *Subgraph {
	if id == 0 || int(id) > len(g.subgraphs) {
		return nil
	}
	return g.subgraphs[id-1]
}

// Subgraphs returns all subgraphs in creation order.
func (g *Graph) Subgraphs() []*Subgraph { return g.subgraphs }

// SetEntry marks sg as the program entry.
func (g *Graph) SetEntry(sg *Subgraph) { g.entry = sg }

// Entry returns the program entry subgraph.
func (g *Graph) Entry() *Subgraph { return g.entry }

// SetGlobals installs the first node of the global initialization chain.
// Globals are connected by successor edges in initialization order.
func (g *Graph) SetGlobals(n NodeID) {
	g.mustNode(n)
	g.globals = n
}

// FirstGlobal returns the head of the global initialization chain.
func (g *Graph) FirstGlobal() NodeID { return g.globals }

// CreateAlloc creates a static allocation node. The node is its own
// abstract memory object: its points-to set is seeded with (self, 0).
func (g *Graph) CreateAlloc(info AllocInfo) NodeID {
	n := g.newNode(KindAlloc)
	n.alloc = &info
	n.pointsTo.Add(n.id, 0)
	return n.id
}

// CreateDynAlloc creates a dynamic allocation node, seeded like an ALLOC.
func (g *Graph) CreateDynAlloc(info AllocInfo) NodeID {
	n := g.newNode(KindDynAlloc)
	info.Heap = true
	n.alloc = &info
	n.pointsTo.Add(n.id, 0)
	return n.id
}

// CreateLoad creates a node reading the pointer values stored at src's
// targets.
func (g *Graph) CreateLoad(src NodeID) NodeID {
	n := g.newNode(KindLoad)
	g.addOperand(n, src)
	return n.id
}

// CreateStore creates a node writing val's targets into dst's targets.
func (g *Graph) CreateStore(val, dst NodeID) NodeID {
	n := g.newNode(KindStore)
	g.addOperand(n, val)
	g.addOperand(n, dst)
	return n.id
}

// CreateGEP creates a node computing base plus a byte offset.
func (g *Graph) CreateGEP(base NodeID, offset Offset) NodeID {
	n := g.newNode(KindGEP)
	n.gepOffset = offset
	g.addOperand(n, base)
	return n.id
}

// CreateMemcpy creates a node copying the pointer contents of src's targets
// into dst's targets over the byte range [0, length).
func (g *Graph) CreateMemcpy(dst, src NodeID, length Offset) NodeID {
	n := g.newNode(KindMemcpy)
	n.memcpyLen = length
	g.addOperand(n, dst)
	g.addOperand(n, src)
	return n.id
}

// CreatePhi creates a weak join of the given operands. Operands may also be
// added later with AddOperand.
func (g *Graph) CreatePhi(operands ...NodeID) NodeID {
	n := g.newNode(KindPhi)
	for _, op := range operands {
		g.addOperand(n, op)
	}
	return n.id
}

// CreateConstant creates a literal pointer node seeded with (target, off).
func (g *Graph) CreateConstant(target NodeID, off Offset) NodeID {
	g.mustNode(target)
	n := g.newNode(KindConstant)
	n.constant = Ptr(target, off)
	n.pointsTo.Add(target, off)
	return n.id
}

// CreateCall creates a call site. A direct call passes InvalidNode as
// callee and registers its targets with AddCallee; an indirect call names
// the operand computing the function pointer, and the linker resolves the
// targets during analysis. args are bound to the callee's formal
// parameters in order.
func (g *Graph) CreateCall(callee NodeID, args ...NodeID) NodeID {
	n := g.newNode(KindCall)
	n.call = &callInfo{callee: callee, nargs: len(args)}
	if callee != InvalidNode {
		g.addOperand(n, callee)
	}
	for _, a := range args {
		g.addOperand(n, a)
	}
	return n.id
}

// CreateFork creates a thread-spawning site. Like a call, its callee is
// resolved by the linker, but no caller data flows in or out.
func (g *Graph) CreateFork(callee NodeID) NodeID {
	n := g.newNode(KindFork)
	n.call = &callInfo{callee: callee}
	if callee != InvalidNode {
		g.addOperand(n, callee)
	}
	return n.id
}

// CreateJoin creates a thread-join site.
func (g *Graph) CreateJoin() NodeID {
	return g.newNode(KindJoin).id
}

// CreateCallReturn creates the node receiving returned values for the
// given CALL and pairs the two.
func (g *Graph) CreateCallReturn(call NodeID) NodeID {
	c := g.mustNode(call)
	if c.kind != KindCall {
		panic("pointsto: call-return must pair with a CALL node")
	}
	n := g.newNode(KindCallReturn)
	n.pairedCall = call
	c.call.callRet = n.id
	return n.id
}

// CreateReturn creates a node carrying the given returned values. Register
// it with its subgraph via AddReturn.
func (g *Graph) CreateReturn(values ...NodeID) NodeID {
	n := g.newNode(KindReturn)
	for _, v := range values {
		g.addOperand(n, v)
	}
	return n.id
}

// CreateEntry creates the distinguished first node of a subgraph.
func (g *Graph) CreateEntry() NodeID {
	return g.newNode(KindEntry).id
}

// CreateNoop creates a control-flow placeholder.
func (g *Graph) CreateNoop() NodeID {
	return g.newNode(KindNoop).id
}

// AddCallee statically registers that call site call invokes sub. The
// linker performs the same wiring for targets discovered during analysis.
func (g *Graph) AddCallee(call NodeID, sub *Subgraph) {
	c := g.mustNode(call)
	if c.call == nil {
		panic("pointsto: AddCallee on a non-call node")
	}
	if !c.hasCallee(sub.id) {
		c.call.callees = append(c.call.callees, sub.id)
	}
}

// AddSuccessor adds the control-flow edge a -> b. Successor and
// predecessor sets stay symmetric; a duplicate edge is a no-op.
func (g *Graph) AddSuccessor(a, b NodeID) {
	na, nb := g.mustNode(a), g.mustNode(b)
	for _, s := range na.succs {
		if s == b {
			return
		}
	}
	na.succs = append(na.succs, b)
	nb.preds = append(nb.preds, a)
}

// AddOperand appends src to n's operand list and mirrors the user edge.
// Operands are ordered and may repeat.
func (g *Graph) AddOperand(n, src NodeID) {
	g.addOperand(g.mustNode(n), src)
}

func (g *Graph) addOperand(n *Node, src NodeID) {
	s := g.mustNode(src)
	n.operands = append(n.operands, src)
	s.users = append(s.users, n.id)
}

// addOperandOnce adds the operand edge only if not already present. The
// linker uses it so re-linking a known callee never duplicates data-flow
// edges.
func (g *Graph) addOperandOnce(n *Node, src NodeID) {
	for _, op := range n.operands {
		if op == src {
			return
		}
	}
	g.addOperand(n, src)
}

// Remove clears the node's slot. The node must be fully isolated: no
// successors, predecessors, operands or users. Violating the precondition
// is a caller bug and panics. The id is never reassigned.
func (g *Graph) Remove(id NodeID) {
	n := g.mustNode(id)
	if id <= Invalidated {
		panic("pointsto: cannot remove a sentinel node")
	}
	if len(n.succs) != 0 || len(n.preds) != 0 {
		panic("pointsto: removed node still has control-flow edges")
	}
	if len(n.users) != 0 {
		panic("pointsto: removed node is still used by other nodes")
	}
	if len(n.operands) != 0 {
		panic("pointsto: removed node still uses other nodes")
	}
	g.nodes[id] = nil
}

// DetachOperands removes every operand edge of n, restoring the symmetry
// invariant on the former operands' user lists.
func (g *Graph) DetachOperands(id NodeID) {
	n := g.mustNode(id)
	for _, op := range n.operands {
		o := g.Node(op)
		if o == nil {
			continue
		}
		for i, u := range o.users {
			if u == id {
				o.users = append(o.users[:i], o.users[i+1:]...)
				break
			}
		}
	}
	n.operands = nil
}

// DetachUsers removes n from the operand lists of all its users.
func (g *Graph) DetachUsers(id NodeID) {
	n := g.mustNode(id)
	for _, uid := range n.users {
		u := g.Node(uid)
		if u == nil {
			continue
		}
		kept := u.operands[:0]
		for _, op := range u.operands {
			if op != id {
				kept = append(kept, op)
			}
		}
		u.operands = kept
	}
	n.users = nil
}
