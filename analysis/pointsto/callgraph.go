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
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// CallGraph records which entry nodes each call site may invoke. Edges are
// discovered both at build time (direct calls) and during the fixpoint
// (indirect calls); adding an edge is idempotent.
type CallGraph struct {
	out map[NodeID]map[NodeID]struct{}
	in  map[NodeID]map[NodeID]struct{}
}

// NewCallGraph returns an empty call graph.
func NewCallGraph() *CallGraph {
	return &CallGraph{
		out: make(map[NodeID]map[NodeID]struct{}),
		in:  make(map[NodeID]map[NodeID]struct{}),
	}
}

// AddCall records "site may invoke entry" and reports whether the edge is
// new.
func (cg *CallGraph) AddCall(site, entry NodeID) bool {
	outs := cg.out[site]
	if outs == nil {
		outs = make(map[NodeID]struct{})
		cg.out[site] = outs
	}
	if _, ok := outs[entry]; ok {
		return false
	}
	outs[entry] = struct{}{}
	ins := cg.in[entry]
	if ins == nil {
		ins = make(map[NodeID]struct{})
		cg.in[entry] = ins
	}
	ins[site] = struct{}{}
	return true
}

// HasCall reports whether the edge site -> entry is present.
func (cg *CallGraph) HasCall(site, entry NodeID) bool {
	_, ok := cg.out[site][entry]
	return ok
}

// Callees returns the entries site may invoke, in ascending id order.
func (cg *CallGraph) Callees(site NodeID) []NodeID {
	return sortedIDs(cg.out[site])
}

// Callers returns the sites that may invoke entry, in ascending id order.
func (cg *CallGraph) Callers(entry NodeID) []NodeID {
	return sortedIDs(cg.in[entry])
}

// Sites returns every call site with at least one callee.
func (cg *CallGraph) Sites() []NodeID {
	ids := maps.Keys(cg.out)
	slices.Sort(ids)
	return ids
}

// NumEdges returns the number of distinct call edges.
func (cg *CallGraph) NumEdges() int {
	n := 0
	for _, outs := range cg.out {
		n += len(outs)
	}
	return n
}

func sortedIDs(set map[NodeID]struct{}) []NodeID {
	if len(set) == 0 {
		return nil
	}
	ids := maps.Keys(set)
	slices.Sort(ids)
	return ids
}
