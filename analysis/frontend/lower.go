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

package frontend

import (
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/dgruntime/argus/analysis/config"
	"github.com/dgruntime/argus/analysis/pointsto"
)

// builder lowers the SSA form of a program into a pointer graph. Only
// pointer-relevant instructions become nodes; everything else is either
// skipped or folded into an unknown-valued constant.
type builder struct {
	g      *pointsto.Graph
	prog   *ssa.Program
	cfg    *config.Config
	logger *config.LogGroup
	sizes  types.Sizes

	// values memoizes the graph node of each lowered ssa.Value.
	values map[ssa.Value]pointsto.NodeID
	// subs maps each lowered function to its subgraph.
	subs map[*ssa.Function]*pointsto.Subgraph
	// phis are the phi nodes whose edges are wired after all bodies are
	// lowered, since back edges reference values lowered later.
	phis []phiFixup
	// unknown is a shared constant pointing to unknown memory.
	unknown pointsto.NodeID
}

type phiFixup struct {
	val *ssa.Phi
	id  pointsto.NodeID
}

// BuildGraph lowers every function of the loaded program whose package
// matches the config's package filter, and returns the resulting graph with
// its entry subgraph set to the first entry point named in the config
// (main.main when unspecified).
func BuildGraph(prog LoadedProgram, cfg *config.Config, logger *config.LogGroup) (*pointsto.Graph, error) {
	g := pointsto.NewGraph(&pointsto.GraphOptions{
		Representation: pointsto.Representation(cfg.Representation),
		Divisor:        cfg.Divisor,
		WordSize:       cfg.WordSize,
	})
	b := &builder{
		g:      g,
		prog:   prog.Program,
		cfg:    cfg,
		logger: logger,
		sizes:  types.SizesFor("gc", "amd64"),
		values: make(map[ssa.Value]pointsto.NodeID),
		subs:   make(map[*ssa.Function]*pointsto.Subgraph),
	}
	b.unknown = g.CreateConstant(pointsto.UnknownMemory, pointsto.UnknownOffset)

	fns := ssautil.AllFunctions(prog.Program)
	lowered := 0
	for fn := range fns {
		if b.includes(fn) {
			b.declare(fn)
		}
	}
	for fn := range b.subs {
		b.lowerBody(fn)
		lowered++
	}
	for _, p := range b.phis {
		for _, e := range p.val.Edges {
			if pointerLike(e.Type()) {
				g.AddOperand(p.id, b.valueNode(e))
			}
		}
	}
	logger.Infof("lowered %d of %d functions to the pointer graph", lowered, len(fns))

	b.setEntry(cfg)
	if err := pointsto.VerifyGraph(g); err != nil {
		return nil, err
	}
	return g, nil
}

func (b *builder) includes(fn *ssa.Function) bool {
	if len(fn.Blocks) == 0 {
		return false
	}
	if fn.Pkg == nil {
		return fn.Parent() != nil && b.includes(origin(fn))
	}
	return b.cfg.MatchPkgFilter(fn.Pkg.Pkg.Path())
}

func origin(fn *ssa.Function) *ssa.Function {
	for fn.Parent() != nil {
		fn = fn.Parent()
	}
	return fn
}

// declare creates the subgraph skeleton of fn: entry, one PHI per formal
// parameter, and the vararg gather node for variadic functions.
func (b *builder) declare(fn *ssa.Function) {
	sg := b.g.CreateSubgraph(fn.String())
	sg.SetEntry(b.g.CreateEntry())
	for _, p := range fn.Params {
		node := b.g.CreatePhi()
		sg.AddParam(node)
		b.values[p] = node
	}
	if fn.Signature.Variadic() {
		sg.SetVararg(b.g.CreatePhi())
	}
	b.subs[fn] = sg
}

func (b *builder) setEntry(cfg *config.Config) {
	want := "main.main"
	if len(cfg.EntryPoints) > 0 {
		want = cfg.EntryPoints[0]
	}
	for fn, sg := range b.subs {
		if fn.String() == want || fn.Name() == want {
			b.g.SetEntry(sg)
			return
		}
	}
	b.logger.Warnf("entry point %q not found in the lowered program", want)
}

// lowerBody lowers the instructions of fn and chains them with successor
// edges following the block structure.
func (b *builder) lowerBody(fn *ssa.Function) {
	sg := b.subs[fn]

	type span struct{ first, last pointsto.NodeID }
	blocks := make([]span, len(fn.Blocks))

	// dominance order guarantees every non-phi use is lowered after its
	// definition
	for _, blk := range fn.DomPreorder() {
		first, last := pointsto.InvalidNode, pointsto.InvalidNode
		for _, instr := range blk.Instrs {
			id := b.lowerInstr(sg, instr)
			if id == pointsto.InvalidNode {
				continue
			}
			if first == pointsto.InvalidNode {
				first = id
			} else {
				b.g.AddSuccessor(last, id)
			}
			last = id
		}
		if first == pointsto.InvalidNode {
			// empty block, keep the control flow connected
			first = b.g.CreateNoop()
			last = first
		}
		blocks[blk.Index] = span{first, last}
	}

	b.g.AddSuccessor(sg.Entry(), blocks[0].first)
	for _, blk := range fn.Blocks {
		for _, succ := range blk.Succs {
			b.g.AddSuccessor(blocks[blk.Index].last, blocks[succ.Index].first)
		}
	}
}

// lowerInstr lowers one instruction, returning the node carrying its effect
// or InvalidNode when the instruction is not pointer-relevant.
func (b *builder) lowerInstr(sg *pointsto.Subgraph, instr ssa.Instruction) pointsto.NodeID {
	switch v := instr.(type) {
	case *ssa.Alloc:
		return b.valueNode(v)
	case *ssa.Store:
		if !pointerLike(v.Val.Type()) {
			return pointsto.InvalidNode
		}
		return b.g.CreateStore(b.valueNode(v.Val), b.valueNode(v.Addr))
	case *ssa.Call:
		return b.lowerCall(v.Common(), v)
	case *ssa.Go:
		return b.lowerFork(v.Common())
	case *ssa.Defer:
		return b.lowerCall(v.Common(), nil)
	case *ssa.Return:
		var vals []pointsto.NodeID
		for _, r := range v.Results {
			if pointerLike(r.Type()) {
				vals = append(vals, b.valueNode(r))
			}
		}
		ret := b.g.CreateReturn(vals...)
		sg.AddReturn(ret)
		return ret
	case ssa.Value:
		if !pointerLike(v.Type()) {
			return pointsto.InvalidNode
		}
		id := b.valueNode(v)
		if id == b.unknown {
			// shared constant, must not join the control-flow chain
			return pointsto.InvalidNode
		}
		return id
	}
	return pointsto.InvalidNode
}

func (b *builder) lowerCall(common *ssa.CallCommon, call *ssa.Call) pointsto.NodeID {
	var args []pointsto.NodeID
	for _, a := range common.Args {
		if pointerLike(a.Type()) {
			args = append(args, b.valueNode(a))
		} else {
			args = append(args, b.g.CreateNoop())
		}
	}

	callee := pointsto.InvalidNode
	static := common.StaticCallee()
	if static == nil || b.subs[static] == nil {
		callee = b.calleeNode(common)
	}
	id := b.g.CreateCall(callee, args...)
	if static != nil {
		if sub := b.subs[static]; sub != nil {
			b.g.AddCallee(id, sub)
		}
	}

	if call != nil && pointerLike(call.Type()) {
		cr := b.g.CreateCallReturn(id)
		b.values[call] = cr
		b.g.AddSuccessor(id, cr)
	}
	return id
}

func (b *builder) lowerFork(common *ssa.CallCommon) pointsto.NodeID {
	callee := pointsto.InvalidNode
	static := common.StaticCallee()
	if static == nil || b.subs[static] == nil {
		callee = b.calleeNode(common)
	}
	id := b.g.CreateFork(callee)
	if static != nil {
		if sub := b.subs[static]; sub != nil {
			b.g.AddCallee(id, sub)
		}
	}
	return id
}

// calleeNode returns the node computing the function value of an indirect
// or unresolvable call. Interface method invocations are opaque, so their
// callee is unknown.
func (b *builder) calleeNode(common *ssa.CallCommon) pointsto.NodeID {
	if common.IsInvoke() {
		return b.unknown
	}
	return b.valueNode(common.Value)
}

// valueNode returns the graph node of v, lowering it on first use.
func (b *builder) valueNode(v ssa.Value) pointsto.NodeID {
	if id, ok := b.values[v]; ok {
		return id
	}
	id := b.lowerValue(v)
	b.values[v] = id
	return id
}

//gocyclo:ignore
func (b *builder) lowerValue(v ssa.Value) pointsto.NodeID {
	switch val := v.(type) {
	case *ssa.Alloc:
		return b.g.CreateAlloc(pointsto.AllocInfo{
			Size:            b.sizeOf(deref(val.Type())),
			Heap:            val.Heap,
			ZeroInitialized: true,
		})
	case *ssa.Global:
		return b.g.CreateAlloc(pointsto.AllocInfo{
			Size:            b.sizeOf(deref(val.Type())),
			ZeroInitialized: true,
			Global:          true,
		})
	case *ssa.MakeSlice, *ssa.MakeMap, *ssa.MakeChan:
		return b.g.CreateDynAlloc(pointsto.AllocInfo{ZeroInitialized: true})
	case *ssa.MakeInterface:
		return b.passThrough(val.X)
	case *ssa.Function:
		if sub := b.subs[val]; sub != nil {
			return b.g.CreateConstant(sub.Entry(), 0)
		}
		return b.unknown
	case *ssa.MakeClosure:
		return b.valueNode(val.Fn)
	case *ssa.Const:
		if val.IsNil() {
			return b.g.CreateConstant(pointsto.NullPtr, 0)
		}
		return b.unknown
	case *ssa.FieldAddr:
		return b.g.CreateGEP(b.valueNode(val.X), b.fieldOffset(val))
	case *ssa.IndexAddr:
		return b.g.CreateGEP(b.valueNode(val.X), pointsto.UnknownOffset)
	case *ssa.Phi:
		id := b.g.CreatePhi()
		b.values[val] = id
		b.phis = append(b.phis, phiFixup{val: val, id: id})
		return id
	case *ssa.UnOp:
		if val.Op == token.MUL && pointerLike(val.Type()) {
			return b.g.CreateLoad(b.valueNode(val.X))
		}
		return b.unknown
	case *ssa.Convert:
		return b.passThrough(val.X)
	case *ssa.ChangeType:
		return b.passThrough(val.X)
	case *ssa.ChangeInterface:
		return b.passThrough(val.X)
	case *ssa.Slice:
		return b.passThrough(val.X)
	default:
		// extracts, lookups, binops and unmodeled builtins can hold
		// any pointer
		return b.unknown
	}
}

// passThrough forwards a pointer value through a type-changing operation.
func (b *builder) passThrough(x ssa.Value) pointsto.NodeID {
	if !pointerLike(x.Type()) {
		return b.unknown
	}
	return b.g.CreatePhi(b.valueNode(x))
}

func (b *builder) fieldOffset(f *ssa.FieldAddr) pointsto.Offset {
	st, ok := deref(f.X.Type()).Underlying().(*types.Struct)
	if !ok {
		return pointsto.UnknownOffset
	}
	fields := make([]*types.Var, st.NumFields())
	for i := 0; i < st.NumFields(); i++ {
		fields[i] = st.Field(i)
	}
	offsets := b.sizes.Offsetsof(fields)
	if f.Field < 0 || f.Field >= len(offsets) {
		return pointsto.UnknownOffset
	}
	return pointsto.Offset(offsets[f.Field])
}

func (b *builder) sizeOf(t types.Type) uint64 {
	if s := b.sizes.Sizeof(t); s > 0 {
		return uint64(s)
	}
	return 0
}

func deref(t types.Type) types.Type {
	if p, ok := t.Underlying().(*types.Pointer); ok {
		return p.Elem()
	}
	return t
}

// pointerLike reports whether values of type t can carry pointers the
// analysis tracks.
func pointerLike(t types.Type) bool {
	switch u := t.Underlying().(type) {
	case *types.Pointer, *types.Slice, *types.Map, *types.Chan,
		*types.Signature, *types.Interface:
		return true
	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			if pointerLike(u.Field(i).Type()) {
				return true
			}
		}
		return false
	case *types.Array:
		return pointerLike(u.Elem())
	default:
		return false
	}
}
