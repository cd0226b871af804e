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
	"fmt"
	"io"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/dgruntime/argus/analysis/config"
)

// ProgramStats summarizes the SSA form of a loaded program before lowering.
type ProgramStats struct {
	Functions         uint
	NonemptyFunctions uint
	Blocks            uint
	Instructions      uint
	Calls             uint
	Allocs            uint
	Gos               uint
}

// ComputeProgramStats walks every function of the program that passes the
// configured package filter and tallies its SSA shape.
func ComputeProgramStats(prog LoadedProgram, cfg *config.Config) ProgramStats {
	var stats ProgramStats
	for f := range ssautil.AllFunctions(prog.Program) {
		if f.Pkg != nil && !cfg.MatchPkgFilter(f.Pkg.Pkg.Path()) {
			continue
		}
		stats.Functions++
		if len(f.Blocks) == 0 {
			continue
		}
		stats.NonemptyFunctions++
		for _, b := range f.Blocks {
			stats.Blocks++
			stats.Instructions += uint(len(b.Instrs))
			for _, instr := range b.Instrs {
				switch instr.(type) {
				case *ssa.Call:
					stats.Calls++
				case *ssa.Alloc:
					stats.Allocs++
				case *ssa.Go:
					stats.Gos++
				}
			}
		}
	}
	return stats
}

// Report writes the statistics in a fixed-width layout.
func (s ProgramStats) Report(w io.Writer) {
	fmt.Fprintf(w, "%-24s %d\n", "functions:", s.Functions)
	fmt.Fprintf(w, "%-24s %d\n", "nonempty functions:", s.NonemptyFunctions)
	fmt.Fprintf(w, "%-24s %d\n", "basic blocks:", s.Blocks)
	fmt.Fprintf(w, "%-24s %d\n", "instructions:", s.Instructions)
	fmt.Fprintf(w, "%-24s %d\n", "call instructions:", s.Calls)
	fmt.Fprintf(w, "%-24s %d\n", "alloc instructions:", s.Allocs)
	fmt.Fprintf(w, "%-24s %d\n", "go instructions:", s.Gos)
}
