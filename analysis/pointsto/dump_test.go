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
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/dgruntime/argus/analysis/pointsto"
)

func TestWriteGraph(t *testing.T) {
	g := pointsto.NewGraph(nil)
	sg := g.CreateSubgraph("proc")
	e := g.CreateEntry()
	sg.SetEntry(e)
	a := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	g.CreateConstant(a, 0)

	var buf bytes.Buffer
	pointsto.WriteGraph(&buf, g)
	out := buf.String()
	if !strings.Contains(out, "; subgraph 1 proc") {
		t.Errorf("output should annotate the subgraph entry:\n%s", out)
	}
	if !strings.Contains(out, "alloc") || !strings.Contains(out, "constant") {
		t.Errorf("output should name the node kinds:\n%s", out)
	}
	if !strings.Contains(out, fmt.Sprintf("(%d, 0)", a)) {
		t.Errorf("output should render the points-to sets:\n%s", out)
	}
}

func TestWriteMemory(t *testing.T) {
	g := pointsto.NewGraph(nil)
	a := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	b := g.CreateAlloc(pointsto.AllocInfo{Size: 8})
	p := g.CreateConstant(a, 0)
	st := g.CreateStore(g.CreateConstant(b, 0), p)
	l := g.CreateLoad(p)
	g.AddSuccessor(st, l)
	res := mustAnalyzeFS(t, g)

	var buf bytes.Buffer
	pointsto.WriteMemory(&buf, g, res)
	out := buf.String()
	if !strings.Contains(out, fmt.Sprintf("at %d (load):", l)) {
		t.Errorf("output should list the load's program point:\n%s", out)
	}
	if !strings.Contains(out, fmt.Sprintf("[%d+0]", a)) {
		t.Errorf("output should render the written cell:\n%s", out)
	}
}
