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

func mustAnalyze(t *testing.T, g *pointsto.Graph, mode pointsto.Mode) {
	t.Helper()
	if err := pointsto.Analyze(g, mode); err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
}

func setOf(t *testing.T, g *pointsto.Graph, id pointsto.NodeID) pointsto.PointsToSet {
	t.Helper()
	n := g.Node(id)
	if n == nil {
		t.Fatalf("no node %d", id)
	}
	return n.PointsTo()
}

func TestAnalyzeDirectAlias(t *testing.T) {
	g := pointsto.NewGraph(nil)
	a := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	p := g.CreateConstant(a, 0)
	q := g.CreateConstant(a, 0)
	mustAnalyze(t, g, pointsto.FlowInsensitive)

	for _, id := range []pointsto.NodeID{p, q} {
		s := setOf(t, g, id)
		if !s.MustPointTo(a, 0) {
			t.Errorf("node %d should must-point-to (%d, 0), got %s", id, a, pointsto.FormatSet(s))
		}
	}
}

func TestAnalyzeGEPSum(t *testing.T) {
	g := pointsto.NewGraph(nil)
	a := g.CreateAlloc(pointsto.AllocInfo{Size: 16})
	p := g.CreateConstant(a, 0)
	gep := g.CreateGEP(p, 4)
	mustAnalyze(t, g, pointsto.FlowInsensitive)

	if s := setOf(t, g, gep); !s.MustPointTo(a, 4) {
		t.Errorf("gep should point to (%d, 4), got %s", a, pointsto.FormatSet(s))
	}
}

// A gep over a base with an unknown offset stays unknown for any constant
// offset added on top.
func TestAnalyzeGEPSaturation(t *testing.T) {
	g := pointsto.NewGraph(nil)
	a := g.CreateAlloc(pointsto.AllocInfo{Size: 64})
	p := g.CreateConstant(a, pointsto.UnknownOffset)
	gep := g.CreateGEP(p, 8)
	mustAnalyze(t, g, pointsto.FlowInsensitive)

	s := setOf(t, g, gep)
	if !s.PointsTo(a, pointsto.UnknownOffset) {
		t.Errorf("gep over an unknown base should stay unknown, got %s", pointsto.FormatSet(s))
	}
	if !s.MayPointTo(a, 24) {
		t.Error("an unknown offset should absorb every concrete offset")
	}
}

func TestAnalyzeStoreLoadFlowInsensitive(t *testing.T) {
	g := pointsto.NewGraph(nil)
	a := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	b := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	p := g.CreateConstant(a, 0)
	v := g.CreateConstant(b, 0)
	g.CreateStore(v, p)
	l := g.CreateLoad(p)
	mustAnalyze(t, g, pointsto.FlowInsensitive)

	if s := setOf(t, g, l); !s.MayPointTo(b, 0) {
		t.Errorf("load should see the stored pointer, got %s", pointsto.FormatSet(s))
	}
}

// The order of store and load creation must not matter for the
// flow-insensitive engine: a store processed after the load re-enqueues it.
func TestAnalyzeStoreAfterLoad(t *testing.T) {
	g := pointsto.NewGraph(nil)
	a := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	b := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	p := g.CreateConstant(a, 0)
	l := g.CreateLoad(p)
	v := g.CreateConstant(b, 0)
	g.CreateStore(v, p)
	mustAnalyze(t, g, pointsto.FlowInsensitive)

	if s := setOf(t, g, l); !s.MayPointTo(b, 0) {
		t.Errorf("load created before the store should still see it, got %s", pointsto.FormatSet(s))
	}
}

func TestAnalyzePhiJoins(t *testing.T) {
	g := pointsto.NewGraph(nil)
	a := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	b := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	pa := g.CreateConstant(a, 0)
	pb := g.CreateConstant(b, 0)
	phi := g.CreatePhi(pa, pb)
	mustAnalyze(t, g, pointsto.FlowInsensitive)

	s := setOf(t, g, phi)
	for _, id := range []pointsto.NodeID{a, b} {
		if !s.MayPointTo(id, 0) {
			t.Errorf("phi should contain (%d, 0), got %s", id, pointsto.FormatSet(s))
		}
	}
}

func TestAnalyzeMemcpy(t *testing.T) {
	g := pointsto.NewGraph(nil)
	src := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	dst := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	b := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	ps := g.CreateConstant(src, 0)
	pd := g.CreateConstant(dst, 0)
	v := g.CreateConstant(b, 0)
	g.CreateStore(v, ps)
	g.CreateMemcpy(pd, ps, 8)
	l := g.CreateLoad(pd)
	mustAnalyze(t, g, pointsto.FlowInsensitive)

	if s := setOf(t, g, l); !s.MayPointTo(b, 0) {
		t.Errorf("load through the copy destination should see the pointer, got %s", pointsto.FormatSet(s))
	}
}

// buildCallee creates a one-parameter procedure that returns a pointer to
// its own allocation and echoes its parameter.
func buildCallee(g *pointsto.Graph, name string) (*pointsto.Subgraph, pointsto.NodeID, pointsto.NodeID) {
	sg := g.CreateSubgraph(name)
	e := g.CreateEntry()
	sg.SetEntry(e)
	param := g.CreatePhi()
	sg.AddParam(param)
	inner := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	ret := g.CreateReturn(g.CreateConstant(inner, 0), param)
	sg.AddReturn(ret)
	g.AddSuccessor(e, ret)
	return sg, inner, ret
}

func TestAnalyzeDirectCall(t *testing.T) {
	g := pointsto.NewGraph(nil)
	sg, inner, _ := buildCallee(g, "callee")
	argObj := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	arg := g.CreateConstant(argObj, 0)
	c := g.CreateCall(pointsto.InvalidNode, arg)
	g.AddCallee(c, sg)
	cr := g.CreateCallReturn(c)
	mustAnalyze(t, g, pointsto.FlowInsensitive)

	s := setOf(t, g, cr)
	if !s.MayPointTo(inner, 0) {
		t.Errorf("call return should see the callee's allocation, got %s", pointsto.FormatSet(s))
	}
	if !s.MayPointTo(argObj, 0) {
		t.Errorf("call return should see the echoed argument, got %s", pointsto.FormatSet(s))
	}
	param := sg.Params()[0]
	if ps := setOf(t, g, param); !ps.MayPointTo(argObj, 0) {
		t.Errorf("parameter should be bound to the argument, got %s", pointsto.FormatSet(ps))
	}
}

func TestAnalyzeIndirectCall(t *testing.T) {
	g := pointsto.NewGraph(nil)
	sg, inner, _ := buildCallee(g, "callee")

	// store a function pointer into a cell, load it back and call it
	cell := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	pcell := g.CreateConstant(cell, 0)
	fptr := g.CreateConstant(sg.Entry(), 0)
	g.CreateStore(fptr, pcell)
	ld := g.CreateLoad(pcell)
	argObj := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	c := g.CreateCall(ld, g.CreateConstant(argObj, 0))
	cr := g.CreateCallReturn(c)
	mustAnalyze(t, g, pointsto.FlowInsensitive)

	if s := setOf(t, g, cr); !s.MayPointTo(inner, 0) {
		t.Errorf("indirect call return should see the callee result, got %s", pointsto.FormatSet(s))
	}
	callees := g.CallGraph().Callees(c)
	if len(callees) != 1 || callees[0] != sg.Entry() {
		t.Errorf("call graph should contain %d -> %d, got %v", c, sg.Entry(), callees)
	}
}

func TestAnalyzeVarargBinding(t *testing.T) {
	g := pointsto.NewGraph(nil)
	sg := g.CreateSubgraph("variadic")
	e := g.CreateEntry()
	sg.SetEntry(e)
	first := g.CreatePhi()
	sg.AddParam(first)
	rest := g.CreatePhi()
	sg.SetVararg(rest)

	objs := make([]pointsto.NodeID, 3)
	args := make([]pointsto.NodeID, 3)
	for i := range objs {
		objs[i] = g.CreateAlloc(pointsto.AllocInfo{Size: 8})
		args[i] = g.CreateConstant(objs[i], 0)
	}
	c := g.CreateCall(pointsto.InvalidNode, args...)
	g.AddCallee(c, sg)
	mustAnalyze(t, g, pointsto.FlowInsensitive)

	if s := setOf(t, g, first); !s.MayPointTo(objs[0], 0) || s.PointsToTarget(objs[1]) {
		t.Errorf("first parameter should get only the first argument, got %s", pointsto.FormatSet(s))
	}
	s := setOf(t, g, rest)
	for _, obj := range objs[1:] {
		if !s.MayPointTo(obj, 0) {
			t.Errorf("vararg should gather (%d, 0), got %s", obj, pointsto.FormatSet(s))
		}
	}
}

func TestAnalyzeUnknownCallee(t *testing.T) {
	g := pointsto.NewGraph(nil)
	fp := g.CreateConstant(pointsto.UnknownMemory, pointsto.UnknownOffset)
	c := g.CreateCall(fp)
	cr := g.CreateCallReturn(c)
	mustAnalyze(t, g, pointsto.FlowInsensitive)

	if s := setOf(t, g, cr); !s.HasUnknown() {
		t.Errorf("a call through an unknown pointer can return anything, got %s", pointsto.FormatSet(s))
	}
}

func TestAnalyzeForkNoDataBinding(t *testing.T) {
	g := pointsto.NewGraph(nil)
	sg, _, _ := buildCallee(g, "spawned")
	fptr := g.CreateConstant(sg.Entry(), 0)
	f := g.CreateFork(fptr)
	mustAnalyze(t, g, pointsto.FlowInsensitive)

	// the fork is linked in the call graph but no data is bound
	callees := g.CallGraph().Callees(f)
	if len(callees) != 1 || callees[0] != sg.Entry() {
		t.Errorf("fork should be linked to the spawned procedure, got %v", callees)
	}
	param := sg.Params()[0]
	if s := setOf(t, g, param); !s.Empty() {
		t.Errorf("fork must not bind caller data, got %s", pointsto.FormatSet(s))
	}
}

// The flow-sensitive result refines the flow-insensitive one: every
// flow-sensitive pair is a may-member of the flow-insensitive set.
func TestFlowSensitiveRefinesFlowInsensitive(t *testing.T) {
	build := func() *pointsto.Graph {
		g := pointsto.NewGraph(nil)
		a := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
		b := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
		c := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
		p := g.CreateConstant(a, 0)
		st1 := g.CreateStore(g.CreateConstant(b, 0), p)
		st2 := g.CreateStore(g.CreateConstant(c, 0), p)
		l := g.CreateLoad(p)
		g.AddSuccessor(st1, st2)
		g.AddSuccessor(st2, l)
		return g
	}

	fi := build()
	mustAnalyze(t, fi, pointsto.FlowInsensitive)
	fs := build()
	if _, err := pointsto.AnalyzeFlowSensitive(fs, nil); err != nil {
		t.Fatalf("flow-sensitive analysis failed: %v", err)
	}

	fs.Nodes(func(n *pointsto.Node) bool {
		ref := fi.Node(n.ID()).PointsTo()
		n.PointsTo().ForEach(func(p pointsto.Pointer) bool {
			if !ref.MayPointTo(p.Target, p.Offset) {
				t.Errorf("node %d: flow-sensitive pair %v missing flow-insensitively", n.ID(), p)
			}
			return true
		})
		return true
	})
}
