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

// linker resolves call sites during the fixpoint. Direct callees are wired
// on the first visit; indirect callees are discovered from the callee
// operand's points-to set as it grows. Linking a (site, callee) pair is
// guarded by the call graph so it happens exactly once, and all wiring uses
// dedup'd operand edges, making resolve safe to run on every visit.
type linker struct {
	g       *Graph
	enqueue func(NodeID)
}

// resolve wires every callee currently known for the CALL or FORK node n:
// the statically registered subgraphs plus, for an indirect site, every
// ENTRY node in the callee operand's points-to set.
func (l *linker) resolve(n *Node) {
	for _, sub := range n.call.callees {
		l.link(n, l.g.Subgraph(sub))
	}
	if n.call.callee == InvalidNode {
		return
	}
	callee := l.g.mustNode(n.call.callee)
	callee.pointsTo.ForEach(func(p Pointer) bool {
		t := l.g.Node(p.Target)
		if t == nil || t.kind != KindEntry {
			return true
		}
		if sub := l.g.Subgraph(t.sub); sub != nil {
			l.link(n, sub)
		}
		return true
	})
}

// link connects call site n to subgraph sub: it binds the actual arguments
// to the formal parameters, routes the subgraph's returns into the paired
// CALL_RETURN, and enqueues every node whose inputs changed. The first
// linking of a pair records the call edge; later calls are no-ops.
func (l *linker) link(n *Node, sub *Subgraph) {
	entry := sub.Entry()
	if entry == InvalidNode {
		return
	}
	if !l.g.RegisterCall(n.id, entry) {
		return
	}
	if !n.hasCallee(sub.id) {
		n.call.callees = append(n.call.callees, sub.id)
	}
	l.g.addOperandOnce(n, entry)
	l.enqueue(entry)

	if n.kind == KindFork {
		// a fork transfers control but no caller data
		return
	}

	params := sub.Params()
	vararg := sub.Vararg()
	for i, a := range n.argOperands() {
		var formal NodeID
		switch {
		case i < len(params):
			formal = params[i]
		case vararg != InvalidNode:
			formal = vararg
		default:
			continue
		}
		l.g.addOperandOnce(l.g.mustNode(formal), a)
		l.enqueue(formal)
	}

	cr := n.call.callRet
	for _, r := range sub.Returns() {
		rn := l.g.mustNode(r)
		if cr != InvalidNode {
			l.g.addOperandOnce(l.g.mustNode(cr), r)
			if !rn.hasReturnSite(cr) {
				rn.returnSites = append(rn.returnSites, cr)
			}
		}
		l.enqueue(r)
	}
	if cr != InvalidNode {
		l.enqueue(cr)
	}
}
