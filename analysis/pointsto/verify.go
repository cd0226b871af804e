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

import "fmt"

// minOperands is the number of operands each kind requires before analysis
// can run. Kinds absent from the table have no requirement.
var minOperands = map[NodeKind]int{
	KindLoad:   1,
	KindStore:  2,
	KindGEP:    1,
	KindMemcpy: 2,
}

// VerifyGraph checks the structural invariants of a built graph: edge
// symmetry, per-kind operand arity, call pairing and subgraph wiring. It
// returns an error describing the first violation found, or nil. Frontends
// run it after lowering; the engines assume it holds.
func VerifyGraph(g *Graph) error {
	var err error
	g.Nodes(func(n *Node) bool {
		err = verifyNode(g, n)
		return err == nil
	})
	if err != nil {
		return err
	}
	for _, sg := range g.Subgraphs() {
		if err := verifySubgraph(g, sg); err != nil {
			return err
		}
	}
	return nil
}

func verifyNode(g *Graph, n *Node) error {
	if min := minOperands[n.kind]; len(n.operands) < min {
		return fmt.Errorf("node %d (%s) has %d operands, needs at least %d", n.id, n.kind, len(n.operands), min)
	}
	for _, op := range n.operands {
		o := g.Node(op)
		if o == nil {
			return fmt.Errorf("node %d (%s) has a removed operand %d", n.id, n.kind, op)
		}
		if !containsID(o.users, n.id) {
			return fmt.Errorf("node %d is missing from the users of its operand %d", n.id, op)
		}
	}
	for _, u := range n.users {
		un := g.Node(u)
		if un == nil || !containsID(un.operands, n.id) {
			return fmt.Errorf("node %d is missing from the operands of its user %d", n.id, u)
		}
	}
	for _, s := range n.succs {
		sn := g.Node(s)
		if sn == nil || !containsID(sn.preds, n.id) {
			return fmt.Errorf("successor edge %d -> %d has no matching predecessor edge", n.id, s)
		}
	}
	for _, p := range n.preds {
		pn := g.Node(p)
		if pn == nil || !containsID(pn.succs, n.id) {
			return fmt.Errorf("predecessor edge %d -> %d has no matching successor edge", p, n.id)
		}
	}
	switch n.kind {
	case KindCall, KindFork:
		if n.call == nil {
			return fmt.Errorf("node %d (%s) has no call payload", n.id, n.kind)
		}
		if cr := n.call.callRet; cr != InvalidNode {
			crn := g.Node(cr)
			if crn == nil || crn.pairedCall != n.id {
				return fmt.Errorf("call %d and call-return %d are not paired both ways", n.id, cr)
			}
		}
		for _, sub := range n.call.callees {
			if g.Subgraph(sub) == nil {
				return fmt.Errorf("call %d names unknown subgraph %d as callee", n.id, sub)
			}
		}
	case KindCallReturn:
		c := g.Node(n.pairedCall)
		if c == nil || c.kind != KindCall || c.call.callRet != n.id {
			return fmt.Errorf("call-return %d is not paired with a live call", n.id)
		}
	}
	return nil
}

func verifySubgraph(g *Graph, sg *Subgraph) error {
	if sg.entry != InvalidNode {
		e := g.Node(sg.entry)
		if e == nil || e.kind != KindEntry || e.sub != sg.id {
			return fmt.Errorf("subgraph %d (%s) has a bad entry node %d", sg.id, sg.name, sg.entry)
		}
	}
	for _, p := range sg.params {
		pn := g.Node(p)
		if pn == nil || pn.sub != sg.id {
			return fmt.Errorf("subgraph %d (%s) has a bad parameter node %d", sg.id, sg.name, p)
		}
	}
	for _, r := range sg.rets {
		rn := g.Node(r)
		if rn == nil || rn.kind != KindReturn || rn.sub != sg.id {
			return fmt.Errorf("subgraph %d (%s) has a bad return node %d", sg.id, sg.name, r)
		}
	}
	return nil
}

func containsID(ids []NodeID, id NodeID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
