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

package pointsto_test

import (
	"testing"

	"github.com/dgruntime/argus/analysis/pointsto"
)

func TestNewGraphSentinels(t *testing.T) {
	g := pointsto.NewGraph(nil)
	for _, id := range []pointsto.NodeID{pointsto.NullPtr, pointsto.UnknownMemory, pointsto.Invalidated} {
		n := g.Node(id)
		if n == nil {
			t.Fatalf("sentinel %d should be pre-created", id)
		}
		if n.Kind() != pointsto.KindNoop {
			t.Errorf("sentinel %d has kind %v, expected noop", id, n.Kind())
		}
	}
	if g.Node(pointsto.InvalidNode) != nil {
		t.Error("the invalid id should never name a node")
	}
}

func TestCreateAllocSeedsSelf(t *testing.T) {
	g := pointsto.NewGraph(nil)
	a := g.CreateAlloc(pointsto.AllocInfo{Size: 16})
	s := g.Node(a).PointsTo()
	if !s.MustPointTo(a, 0) {
		t.Errorf("alloc should point to (self, 0), got %s", pointsto.FormatSet(s))
	}
}

func TestCreateConstantSeeds(t *testing.T) {
	g := pointsto.NewGraph(nil)
	a := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	p := g.CreateConstant(a, 4)
	s := g.Node(p).PointsTo()
	if !s.MustPointTo(a, 4) {
		t.Errorf("constant should point to (%d, 4), got %s", a, pointsto.FormatSet(s))
	}
	if g.Node(p).Constant() != pointsto.Ptr(a, 4) {
		t.Error("Constant() should return the seeded pointer")
	}
}

// Operand/user and successor/predecessor edges are mirror images after any
// builder sequence.
func TestEdgeSymmetry(t *testing.T) {
	g := pointsto.NewGraph(nil)
	a := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	p := g.CreateConstant(a, 0)
	l := g.CreateLoad(p)
	st := g.CreateStore(l, p)
	g.AddSuccessor(l, st)
	g.AddSuccessor(l, st) // duplicates are ignored

	if err := pointsto.VerifyGraph(g); err != nil {
		t.Fatalf("verification failed: %v", err)
	}
	if got := g.Node(l).Successors(); len(got) != 1 || got[0] != st {
		t.Errorf("load successors = %v, expected [%d]", got, st)
	}
	if got := g.Node(st).Predecessors(); len(got) != 1 || got[0] != l {
		t.Errorf("store predecessors = %v, expected [%d]", got, l)
	}
	if got := g.Node(p).Users(); len(got) != 2 {
		t.Errorf("constant should have two users, got %v", got)
	}
}

func TestRemoveIsolation(t *testing.T) {
	g := pointsto.NewGraph(nil)
	a := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	l := g.CreateLoad(a)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("removing a node with users should panic")
			}
		}()
		g.Remove(a)
	}()

	g.DetachUsers(a)
	g.Remove(a)
	if g.Node(a) != nil {
		t.Error("removed node should be gone")
	}
	if ops := g.Node(l).Operands(); len(ops) != 0 {
		t.Errorf("detached user still has operands %v", ops)
	}
	// removed ids are never reassigned
	if next := g.CreateNoop(); next <= a {
		t.Errorf("next id %d should be above the removed id %d", next, a)
	}
}

func TestRemoveSentinelPanics(t *testing.T) {
	g := pointsto.NewGraph(nil)
	defer func() {
		if recover() == nil {
			t.Error("removing a sentinel should panic")
		}
	}()
	g.Remove(pointsto.NullPtr)
}

func TestSubgraphRoles(t *testing.T) {
	g := pointsto.NewGraph(nil)
	sg := g.CreateSubgraph("f")
	e := g.CreateEntry()
	sg.SetEntry(e)
	param := g.CreatePhi()
	sg.AddParam(param)
	r := g.CreateReturn(param)
	sg.AddReturn(r)

	if sg.Entry() != e {
		t.Errorf("entry = %d, expected %d", sg.Entry(), e)
	}
	if got := sg.Params(); len(got) != 1 || got[0] != param {
		t.Errorf("params = %v, expected [%d]", got, param)
	}
	if got := sg.Returns(); len(got) != 1 || got[0] != r {
		t.Errorf("returns = %v, expected [%d]", got, r)
	}
	if g.Node(e).Subgraph() != sg.ID() {
		t.Error("entry node should belong to the subgraph")
	}
	if err := pointsto.VerifyGraph(g); err != nil {
		t.Fatalf("verification failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("SetEntry with a non-entry node should panic")
		}
	}()
	sg.SetEntry(param)
}

func TestCallReturnPairing(t *testing.T) {
	g := pointsto.NewGraph(nil)
	fp := g.CreatePhi()
	c := g.CreateCall(fp)
	cr := g.CreateCallReturn(c)

	if g.Node(c).CallReturn() != cr {
		t.Errorf("call return of %d should be %d", c, cr)
	}
	if g.Node(cr).PairedCall() != c {
		t.Errorf("paired call of %d should be %d", cr, c)
	}
	if g.Node(c).CalleeOperand() != fp {
		t.Errorf("callee operand should be %d", fp)
	}
	if err := pointsto.VerifyGraph(g); err != nil {
		t.Fatalf("verification failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("pairing a call-return with a non-call should panic")
		}
	}()
	g.CreateCallReturn(fp)
}

func TestGraphStats(t *testing.T) {
	g := pointsto.NewGraph(nil)
	a := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	g.CreateConstant(a, 0)
	stats := pointsto.ComputeGraphStats(g)
	if stats.PerKind[pointsto.KindAlloc] != 1 {
		t.Errorf("expected one alloc, got %d", stats.PerKind[pointsto.KindAlloc])
	}
	if stats.PerKind[pointsto.KindConstant] != 1 {
		t.Errorf("expected one constant, got %d", stats.PerKind[pointsto.KindConstant])
	}
	if stats.EmptySets == 0 {
		t.Error("the sentinel nodes should count as empty sets")
	}
}
