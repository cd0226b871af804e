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

// NodeKind discriminates the pointer-relevant operations a node can stand
// for. Per-kind payloads live in side structs on the node rather than in an
// open class hierarchy.
type NodeKind uint8

const (
	// KindNoop is a control-flow placeholder with no transfer function.
	KindNoop NodeKind = iota
	// KindAlloc is a static allocation; it is its own abstract memory
	// object.
	KindAlloc
	// KindDynAlloc is a dynamic (heap) allocation.
	KindDynAlloc
	// KindLoad reads pointer values stored at its operand's targets.
	KindLoad
	// KindStore writes its value operand's targets into its destination
	// operand's targets.
	KindStore
	// KindGEP computes base plus a byte offset.
	KindGEP
	// KindMemcpy copies pointer contents between memory objects over a
	// byte range.
	KindMemcpy
	// KindPhi joins the sets of all its operands.
	KindPhi
	// KindConstant is a literal pointer (target, offset).
	KindConstant
	// KindCall transfers control and arguments to resolved callees.
	KindCall
	// KindReturn carries returned values out of a subgraph.
	KindReturn
	// KindCallReturn receives returned values at the caller.
	KindCallReturn
	// KindFork spawns a thread running a resolved callee.
	KindFork
	// KindJoin awaits a forked thread.
	KindJoin
	// KindEntry is the distinguished first node of a subgraph.
	KindEntry
)

var kindNames = [...]string{
	KindNoop:       "noop",
	KindAlloc:      "alloc",
	KindDynAlloc:   "dyn-alloc",
	KindLoad:       "load",
	KindStore:      "store",
	KindGEP:        "gep",
	KindMemcpy:     "memcpy",
	KindPhi:        "phi",
	KindConstant:   "constant",
	KindCall:       "call",
	KindReturn:     "return",
	KindCallReturn: "call-return",
	KindFork:       "fork",
	KindJoin:       "join",
	KindEntry:      "entry",
}

func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// AllocInfo carries the allocation payload of ALLOC and DYN_ALLOC nodes.
// A zero Size means the allocation size is not known.
type AllocInfo struct {
	Size            uint64
	Heap            bool
	ZeroInitialized bool
	Global          bool
}

// callInfo is the payload of CALL and FORK nodes.
type callInfo struct {
	// callee is the operand computing the function pointer, or
	// InvalidNode for a direct call.
	callee NodeID
	// callRet is the paired CALL_RETURN node, if any.
	callRet NodeID
	// callees are the subgraphs this site is known to invoke.
	callees []SubgraphID
	// nargs is the number of actual argument operands. The argument
	// slice starts after the callee operand, if any; entry nodes the
	// linker appends for callee-set propagation come after it.
	nargs int
}

// Node is a single vertex of the pointer graph. Nodes are created through
// the graph's per-kind constructors and referenced by id; the graph owns
// them all.
type Node struct {
	id   NodeID
	kind NodeKind

	// operands are the nodes this node reads, in operation order.
	// Mirrored by users on the operand side.
	operands []NodeID
	users    []NodeID

	// succs and preds are the intra-procedural control-flow edges,
	// kept symmetric and duplicate-free.
	succs []NodeID
	preds []NodeID

	pointsTo PointsToSet

	// sub is the owning subgraph for ENTRY, RETURN and parameter nodes.
	sub SubgraphID

	userData any
	dfsEpoch uint32

	alloc       *AllocInfo // KindAlloc, KindDynAlloc
	gepOffset   Offset     // KindGEP
	memcpyLen   Offset     // KindMemcpy
	constant    Pointer    // KindConstant
	call        *callInfo  // KindCall, KindFork
	returnSites []NodeID   // KindReturn: linked CALL_RETURN nodes
	pairedCall  NodeID     // KindCallReturn
}

// ID returns the node id.
func (n *Node) ID() NodeID { return n.id }

// Kind returns the node kind.
func (n *Node) Kind() NodeKind { return n.kind }

// PointsTo returns the node's points-to set. The returned set is a live
// read-only view: callers must not mutate it.
func (n *Node) PointsTo() PointsToSet { return n.pointsTo }

// Operands returns the nodes this node reads, in order.
func (n *Node) Operands() []NodeID { return n.operands }

// Users returns the nodes reading this node.
func (n *Node) Users() []NodeID { return n.users }

// Successors returns the control-flow successors.
func (n *Node) Successors() []NodeID { return n.succs }

// Predecessors returns the control-flow predecessors.
func (n *Node) Predecessors() []NodeID { return n.preds }

// UserData returns the opaque handle attached by the frontend, or nil.
func (n *Node) UserData() any { return n.userData }

// SetUserData attaches an opaque frontend handle for diagnostics.
func (n *Node) SetUserData(d any) { n.userData = d }

// Alloc returns the allocation payload, or nil for non-allocation nodes.
func (n *Node) Alloc() *AllocInfo { return n.alloc }

// GEPOffset returns the byte offset of a GEP node.
func (n *Node) GEPOffset() Offset { return n.gepOffset }

// MemcpyLen returns the copied length of a MEMCPY node.
func (n *Node) MemcpyLen() Offset { return n.memcpyLen }

// Constant returns the literal pointer of a CONSTANT node.
func (n *Node) Constant() Pointer { return n.constant }

// Subgraph returns the owning subgraph id for ENTRY, RETURN and parameter
// nodes, 0 otherwise.
func (n *Node) Subgraph() SubgraphID { return n.sub }

// Callees returns the subgraphs a CALL or FORK node is known to invoke.
// The list grows as the linker resolves indirect targets.
func (n *Node) Callees() []SubgraphID {
	if n.call == nil {
		return nil
	}
	return n.call.callees
}

// CalleeOperand returns the operand computing the function pointer of an
// indirect CALL or FORK, or InvalidNode.
func (n *Node) CalleeOperand() NodeID {
	if n.call == nil {
		return InvalidNode
	}
	return n.call.callee
}

// CallReturn returns the CALL_RETURN node paired with a CALL, or
// InvalidNode.
func (n *Node) CallReturn() NodeID {
	if n.call == nil {
		return InvalidNode
	}
	return n.call.callRet
}

// PairedCall returns the CALL node a CALL_RETURN receives from.
func (n *Node) PairedCall() NodeID { return n.pairedCall }

// ReturnSites returns the CALL_RETURN nodes linked to a RETURN node.
func (n *Node) ReturnSites() []NodeID { return n.returnSites }

// argOperands returns the actual argument operands of a CALL node,
// excluding the callee operand and any linker-appended edges.
func (n *Node) argOperands() []NodeID {
	start := 0
	if n.call.callee != InvalidNode {
		start = 1
	}
	return n.operands[start : start+n.call.nargs]
}

func (n *Node) hasCallee(sub SubgraphID) bool {
	for _, c := range n.call.callees {
		if c == sub {
			return true
		}
	}
	return false
}

func (n *Node) hasReturnSite(cr NodeID) bool {
	for _, s := range n.returnSites {
		if s == cr {
			return true
		}
	}
	return false
}
