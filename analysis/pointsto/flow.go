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

	"github.com/dgruntime/argus/analysis/config"
)

// FlowResult gives access to the per-program-point memory states computed
// by the flow-sensitive engine.
type FlowResult struct {
	in map[NodeID]*MemoryMap
}

// MemoryAt returns the memory state on entry to the given node, or nil if
// the node was never reached.
func (r *FlowResult) MemoryAt(id NodeID) *MemoryMap { return r.in[id] }

// AnalyzeFlowSensitive runs the flow-sensitive analysis to fixpoint and
// returns the per-node memory states along with any exhaustion error.
func AnalyzeFlowSensitive(g *Graph, logger *config.LogGroup) (*FlowResult, error) {
	e := newFSEngine(g, logger)
	err := e.run()
	return &FlowResult{in: e.in}, err
}

// fsEngine threads a memory map along control-flow edges. Each node has an
// IN state accumulated by joining the OUT states of its predecessors; OUT
// is recomputed from IN on every visit, so strong updates kill cell
// contents locally while the accumulated INs keep the fixpoint monotone.
// Interprocedural propagation follows call and return edges.
type fsEngine struct {
	g      *Graph
	wl     *worklist
	link   *linker
	logger *config.LogGroup

	in map[NodeID]*MemoryMap

	steps int
}

func newFSEngine(g *Graph, logger *config.LogGroup) *fsEngine {
	e := &fsEngine{
		g:      g,
		wl:     newWorklist(g.Size()),
		logger: logger,
		in:     make(map[NodeID]*MemoryMap),
	}
	e.link = &linker{g: g, enqueue: e.wl.push}
	return e
}

func (e *fsEngine) inOf(id NodeID) *MemoryMap {
	m := e.in[id]
	if m == nil {
		m = newMemoryMap(e.g)
		e.in[id] = m
	}
	return m
}

func (e *fsEngine) run() error {
	e.g.Nodes(func(n *Node) bool {
		e.wl.push(n.id)
		return true
	})
	for {
		id, ok := e.wl.pop()
		if !ok {
			break
		}
		if e.steps++; e.steps > maxSolverSteps {
			return fmt.Errorf("pointer analysis exhausted its iteration budget after %d steps", e.steps)
		}
		e.process(e.g.mustNode(id))
	}
	if e.logger != nil {
		e.logger.Debugf("flow-sensitive fixpoint reached after %d steps, %d call edges",
			e.steps, e.g.callgraph.NumEdges())
	}
	return nil
}

func (e *fsEngine) process(n *Node) {
	if e.transferSet(n) {
		for _, u := range n.users {
			e.wl.push(u)
		}
	}
	out := e.outOf(n)
	e.g.forEachEdge(n, true, func(next NodeID) {
		if e.inOf(next).join(out) {
			e.wl.push(next)
		}
	})
}

// transferSet updates n's own points-to set from its operands and the IN
// memory and reports whether it grew.
func (e *fsEngine) transferSet(n *Node) bool {
	switch n.kind {
	case KindGEP:
		base := e.g.mustNode(n.operands[0])
		changed := false
		base.pointsTo.ForEach(func(p Pointer) bool {
			changed = n.pointsTo.Add(p.Target, p.Offset.Add(n.gepOffset)) || changed
			return true
		})
		return changed
	case KindLoad:
		return e.transferLoad(n)
	case KindPhi, KindCallReturn, KindReturn:
		return unionOperands(e.g, n)
	case KindCall, KindFork:
		e.link.resolve(n)
		if n.kind == KindCall && n.call.callee != InvalidNode {
			callee := e.g.mustNode(n.call.callee)
			if callee.pointsTo.HasUnknown() && n.call.callRet != InvalidNode {
				cr := e.g.mustNode(n.call.callRet)
				if cr.pointsTo.Add(UnknownMemory, UnknownOffset) {
					for _, u := range cr.users {
						e.wl.push(u)
					}
				}
			}
		}
		return false
	default:
		return false
	}
}

func (e *fsEngine) transferLoad(n *Node) bool {
	src := e.g.mustNode(n.operands[0])
	in := e.inOf(n.id)
	changed := false
	src.pointsTo.ForEach(func(p Pointer) bool {
		if p.Target == UnknownMemory {
			changed = n.pointsTo.Add(UnknownMemory, UnknownOffset) || changed
			return true
		}
		changed = in.read(p.Target, p.Offset, n.pointsTo) || changed
		return true
	})
	return changed
}

// outOf computes the OUT memory state of n from its IN state. Only stores,
// copies and allocations have memory effects; every other node passes its
// IN state through unchanged.
func (e *fsEngine) outOf(n *Node) *MemoryMap {
	in := e.inOf(n.id)
	switch n.kind {
	case KindStore:
		out := in.clone()
		e.applyStore(n, out)
		return out
	case KindMemcpy:
		out := in.clone()
		e.applyMemcpy(n, out)
		return out
	case KindAlloc, KindDynAlloc:
		if n.alloc.ZeroInitialized {
			out := in.clone()
			null := e.g.newSet()
			null.Add(NullPtr, 0)
			out.weakStore(n.id, UnknownOffset, null)
			return out
		}
	}
	return in
}

func (e *fsEngine) applyStore(n *Node, out *MemoryMap) {
	val := e.g.mustNode(n.operands[0])
	dst := e.g.mustNode(n.operands[1])
	if dst.pointsTo.IsSingleton() {
		p := Elements(dst.pointsTo)[0]
		if e.strongUpdatable(p) {
			out.strongStore(p.Target, p.Offset, val.pointsTo)
			return
		}
	}
	dst.pointsTo.ForEach(func(p Pointer) bool {
		if p.Target <= Invalidated {
			return true
		}
		out.weakStore(p.Target, p.Offset, val.pointsTo)
		return true
	})
}

// strongUpdatable reports whether a store through p may overwrite the cell
// exactly: the target is a single static allocation of known size and the
// store lands on a whole word inside it.
func (e *fsEngine) strongUpdatable(p Pointer) bool {
	if p.Offset.IsUnknown() || p.Target <= Invalidated {
		return false
	}
	t := e.g.mustNode(p.Target)
	a := t.alloc
	if a == nil || a.Heap || a.Size == 0 {
		return false
	}
	return uint64(p.Offset)+e.g.wordSize <= a.Size
}

func (e *fsEngine) applyMemcpy(n *Node, out *MemoryMap) {
	dst := e.g.mustNode(n.operands[0])
	src := e.g.mustNode(n.operands[1])
	length := n.memcpyLen
	in := e.inOf(n.id)
	src.pointsTo.ForEach(func(ps Pointer) bool {
		if ps.Target <= Invalidated {
			return true
		}
		dst.pointsTo.ForEach(func(pd Pointer) bool {
			if pd.Target <= Invalidated {
				return true
			}
			e.copyCells(in, out, ps, pd, length)
			return true
		})
		return true
	})
}

// copyCells copies the cells of src's object covered by [src.Offset,
// src.Offset+length) into dst's object, preserving relative offsets. Any
// unknown offset collapses the copy into the destination's unknown cell.
func (e *fsEngine) copyCells(in, out *MemoryMap, src, dst Pointer, length Offset) {
	cells := in.objects[src.Target]
	if cells == nil {
		return
	}
	if src.Offset.IsUnknown() || dst.Offset.IsUnknown() {
		for _, s := range cells {
			out.weakStore(dst.Target, UnknownOffset, s)
		}
		return
	}
	end := src.Offset.Add(length)
	for off, s := range cells {
		if s.Empty() {
			continue
		}
		if off.IsUnknown() {
			out.weakStore(dst.Target, UnknownOffset, s)
			continue
		}
		if off.Less(src.Offset) || !off.Less(end) {
			continue
		}
		rel := Offset(uint64(off) - uint64(src.Offset))
		out.weakStore(dst.Target, dst.Offset.Add(rel), s)
	}
}
