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

package graphutil

import (
	"sort"

	"github.com/yourbasic/graph"
)

// FindAllElementaryCycles lists the elementary cycles of cg using Johnson's
// algorithm ("Finding All The Elementary Circuits of a Directed Graph",
// 1975). Each cycle starts and ends on its root node, the smallest node of
// its strongly connected component. Components with a single node are not
// explored, so self loops do not appear in the result.
func FindAllElementaryCycles(cg CGraph) [][]int64 {
	j := &johnson{
		blocked: map[int64]bool{},
		noCycle: map[int64]map[int64]bool{},
	}
	start := 0
	for start < len(cg.Keys) {
		sub := Subgraph(cg, cg.Keys[start:])
		root, ok := leastCycleRoot(sub)
		if !ok {
			break
		}
		j.stack = j.stack[:0]
		j.blocked = map[int64]bool{}
		j.noCycle = map[int64]map[int64]bool{}
		j.circuit(root, root, sub)
		start = int(root) + 1
	}
	return j.cycles
}

// leastCycleRoot returns the smallest node belonging to a strongly connected
// component of at least two nodes, if any.
func leastCycleRoot(sub CGraph) (int64, bool) {
	root := int64(-1)
	for _, component := range graph.StrongComponents(sub) {
		if len(component) < 2 {
			continue
		}
		sort.Ints(component)
		if root < 0 || int64(component[0]) < root {
			root = int64(component[0])
		}
	}
	return root, root >= 0
}

type johnson struct {
	blocked map[int64]bool
	// noCycle[w] holds the nodes to unblock when w itself gets unblocked.
	noCycle map[int64]map[int64]bool
	stack   []int64
	cycles  [][]int64
}

func (j *johnson) unblock(u int64) {
	j.blocked[u] = false
	for w := range j.noCycle[u] {
		if j.blocked[w] {
			j.unblock(w)
		}
	}
	delete(j.noCycle, u)
}

func (j *johnson) circuit(v, root int64, g CGraph) bool {
	found := false
	j.stack = append(j.stack, v)
	j.blocked[v] = true

	for w := range g.Edges[v] {
		if w == root {
			cycle := make([]int64, len(j.stack), len(j.stack)+1)
			copy(cycle, j.stack)
			j.cycles = append(j.cycles, append(cycle, w))
			found = true
		} else if !j.blocked[w] && j.circuit(w, root, g) {
			found = true
		}
	}

	if found {
		j.unblock(v)
	} else {
		for w := range g.Edges[v] {
			if j.noCycle[w] == nil {
				j.noCycle[w] = map[int64]bool{}
			}
			j.noCycle[w][v] = true
		}
	}
	j.stack = j.stack[:len(j.stack)-1]
	return found
}
