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

package graphutil_test

import (
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/dgruntime/argus/internal/funcutil"
	"github.com/dgruntime/argus/internal/graphutil"
	"golang.org/x/exp/slices"
)

func makeGraph(out map[int64][]int64) graphutil.CGraph {
	labels := make(map[int64]string)
	for v, succs := range out {
		labels[v] = strconv.Itoa(int(v))
		for _, w := range succs {
			labels[w] = strconv.Itoa(int(w))
		}
	}
	return graphutil.NewCGraph(labels, out)
}

func cycleStrings(cycles [][]int64) []string {
	results := make([]string, len(cycles))
	for i, cycle := range cycles {
		results[i] = strings.Join(
			funcutil.Map(cycle, func(_x int64) string { return strconv.Itoa(int(_x)) }),
			"")
	}
	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	return results
}

func TestFindAllElementaryCycles(t *testing.T) {
	// 0 -> 1 -> 2 -> 0 and 1 -> 3 -> 1, sharing node 1
	cg := makeGraph(map[int64][]int64{
		0: {1},
		1: {2, 3},
		2: {0},
		3: {1},
	})
	cycles := graphutil.FindAllElementaryCycles(cg)
	expected := []string{"0120", "131"}
	if results := cycleStrings(cycles); !slices.Equal(results, expected) {
		t.Fatalf("Expected cycles %v, got %v", expected, results)
	}
}

func TestFindAllElementaryCyclesSelfLoop(t *testing.T) {
	// single-node components are skipped, so a self loop is not reported
	cg := makeGraph(map[int64][]int64{
		0: {0, 1},
		1: {2},
		2: {},
	})
	if cycles := graphutil.FindAllElementaryCycles(cg); len(cycles) != 0 {
		t.Fatalf("Expected no cycles, got %v", cycles)
	}
}

func TestFindAllElementaryCyclesAcyclic(t *testing.T) {
	cg := makeGraph(map[int64][]int64{
		0: {1, 2},
		1: {3},
		2: {3},
		3: {},
	})
	if cycles := graphutil.FindAllElementaryCycles(cg); len(cycles) != 0 {
		t.Fatalf("Expected no cycles in a DAG, got %v", cycles)
	}
}

func TestFindAllElementaryCyclesTwoComponents(t *testing.T) {
	cg := makeGraph(map[int64][]int64{
		0: {1},
		1: {0},
		2: {3},
		3: {2},
		4: {0, 2},
	})
	cycles := graphutil.FindAllElementaryCycles(cg)
	expected := []string{"010", "232"}
	if results := cycleStrings(cycles); !slices.Equal(results, expected) {
		t.Fatalf("Expected cycles %v, got %v", expected, results)
	}
}
