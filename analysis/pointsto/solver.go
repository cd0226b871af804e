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

// Mode selects the analysis engine.
type Mode int

const (
	// FlowInsensitive maintains one points-to set per node over the whole
	// program.
	FlowInsensitive Mode = iota
	// FlowSensitive additionally threads a memory map along control-flow
	// edges, with union meets and strong/weak store updates.
	FlowSensitive
)

func (m Mode) String() string {
	if m == FlowSensitive {
		return "flow-sensitive"
	}
	return "flow-insensitive"
}

// maxSolverSteps bounds the fixpoint iteration. The lattice has finite
// height so the bound is unreachable for well-formed graphs; hitting it is
// reported as resource exhaustion rather than looping forever.
const maxSolverSteps = 1 << 30

// Analyze runs the analysis to fixpoint. After a nil return, every live
// node's points-to set is final. On resource exhaustion an error describes
// the reason and the graph remains queryable in its partial state.
func Analyze(g *Graph, mode Mode) error {
	return AnalyzeWithLog(g, mode, nil)
}

// AnalyzeWithLog is Analyze with progress reporting through the given log
// group. A nil logger disables logging.
func AnalyzeWithLog(g *Graph, mode Mode, logger *config.LogGroup) error {
	if mode == FlowSensitive {
		e := newFSEngine(g, logger)
		return e.run()
	}
	e := newFIEngine(g, logger)
	return e.run()
}

// worklist is a FIFO queue of node ids with membership dedup.
type worklist struct {
	fifo   []NodeID
	queued []bool
}

func newWorklist(size int) *worklist {
	return &worklist{queued: make([]bool, size)}
}

func (w *worklist) push(id NodeID) {
	if id == InvalidNode || w.queued[id] {
		return
	}
	w.queued[id] = true
	w.fifo = append(w.fifo, id)
}

func (w *worklist) pop() (NodeID, bool) {
	if len(w.fifo) == 0 {
		return InvalidNode, false
	}
	id := w.fifo[0]
	w.fifo = w.fifo[1:]
	w.queued[id] = false
	return id, true
}

func (w *worklist) empty() bool { return len(w.fifo) == 0 }

// fiEngine is the Andersen-style flow-insensitive solver: one saturated
// points-to set per node, iterated over a worklist until nothing changes.
type fiEngine struct {
	g      *Graph
	wl     *worklist
	link   *linker
	logger *config.LogGroup

	// readers maps a memory target to the LOAD nodes that read it, so a
	// store into the target re-enqueues exactly the affected loads.
	readers map[NodeID]map[NodeID]struct{}

	steps int
}

func newFIEngine(g *Graph, logger *config.LogGroup) *fiEngine {
	e := &fiEngine{
		g:       g,
		wl:      newWorklist(g.Size()),
		logger:  logger,
		readers: make(map[NodeID]map[NodeID]struct{}),
	}
	e.link = &linker{g: g, enqueue: e.wl.push}
	return e
}

func (e *fiEngine) logf(format string, v ...any) {
	if e.logger != nil {
		e.logger.Tracef(format, v...)
	}
}

func (e *fiEngine) run() error {
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
		e.logger.Debugf("flow-insensitive fixpoint reached after %d steps, %d call edges",
			e.steps, e.g.callgraph.NumEdges())
	}
	return nil
}

// markRead records that load reads memory target t.
func (e *fiEngine) markRead(t, load NodeID) {
	m := e.readers[t]
	if m == nil {
		m = make(map[NodeID]struct{})
		e.readers[t] = m
	}
	m[load] = struct{}{}
}

// touched re-enqueues everything whose transfer depends on t's set: t's
// users and the loads that read t as memory.
func (e *fiEngine) touched(t NodeID) {
	for _, u := range e.g.mustNode(t).users {
		e.wl.push(u)
	}
	for r := range e.readers[t] {
		e.wl.push(r)
	}
}

func (e *fiEngine) process(n *Node) {
	switch n.kind {
	case KindGEP:
		if e.transferGEP(n) {
			e.touched(n.id)
		}
	case KindLoad:
		if e.transferLoad(n) {
			e.touched(n.id)
		}
	case KindStore:
		e.transferStore(n)
	case KindMemcpy:
		e.transferMemcpy(n)
	case KindPhi, KindCallReturn, KindReturn:
		if unionOperands(e.g, n) {
			e.touched(n.id)
		}
	case KindCall, KindFork:
		e.transferCall(n)
	default:
		// alloc, constant, entry, join, noop: seeded or inert
	}
}

// unionOperands joins every operand set into n.
func unionOperands(g *Graph, n *Node) bool {
	changed := false
	for _, op := range n.operands {
		changed = n.pointsTo.Union(g.mustNode(op).pointsTo) || changed
	}
	return changed
}

func (e *fiEngine) transferGEP(n *Node) bool {
	base := e.g.mustNode(n.operands[0])
	changed := false
	base.pointsTo.ForEach(func(p Pointer) bool {
		changed = n.pointsTo.Add(p.Target, p.Offset.Add(n.gepOffset)) || changed
		return true
	})
	return changed
}

func (e *fiEngine) transferLoad(n *Node) bool {
	src := e.g.mustNode(n.operands[0])
	changed := false
	src.pointsTo.ForEach(func(p Pointer) bool {
		if p.Target == UnknownMemory {
			changed = n.pointsTo.Add(UnknownMemory, UnknownOffset) || changed
			return true
		}
		e.markRead(p.Target, n.id)
		changed = n.pointsTo.Union(e.g.mustNode(p.Target).pointsTo) || changed
		return true
	})
	return changed
}

func (e *fiEngine) transferStore(n *Node) {
	val := e.g.mustNode(n.operands[0])
	dst := e.g.mustNode(n.operands[1])
	dst.pointsTo.ForEach(func(p Pointer) bool {
		if p.Target <= Invalidated {
			return true
		}
		t := e.g.mustNode(p.Target)
		if t.pointsTo.Union(val.pointsTo) {
			e.touched(t.id)
		}
		return true
	})
}

func (e *fiEngine) transferMemcpy(n *Node) {
	dst := e.g.mustNode(n.operands[0])
	src := e.g.mustNode(n.operands[1])
	src.pointsTo.ForEach(func(ps Pointer) bool {
		if ps.Target <= Invalidated {
			return true
		}
		content := e.g.mustNode(ps.Target).pointsTo
		e.markRead(ps.Target, n.id)
		dst.pointsTo.ForEach(func(pd Pointer) bool {
			if pd.Target <= Invalidated {
				return true
			}
			t := e.g.mustNode(pd.Target)
			if t.pointsTo.Union(content) {
				e.touched(t.id)
			}
			return true
		})
		return true
	})
}

func (e *fiEngine) transferCall(n *Node) {
	e.link.resolve(n)
	if n.kind == KindCall && n.call.callee != InvalidNode {
		// a call through a completely unknown pointer can return anything
		callee := e.g.mustNode(n.call.callee)
		if callee.pointsTo.HasUnknown() && n.call.callRet != InvalidNode {
			cr := e.g.mustNode(n.call.callRet)
			if cr.pointsTo.Add(UnknownMemory, UnknownOffset) {
				e.touched(cr.id)
			}
		}
	}
}
