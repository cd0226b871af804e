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

package main

import (
	"flag"
	"fmt"
	"go/build"
	"os"
	"path"
	"strings"

	"github.com/dgruntime/argus/analysis/config"
	"github.com/dgruntime/argus/analysis/frontend"
	"github.com/dgruntime/argus/analysis/pointsto"
	"github.com/dgruntime/argus/analysis/render"
	"github.com/dgruntime/argus/internal/formatutil"
	"github.com/dgruntime/argus/internal/funcutil"
	"golang.org/x/tools/go/buildutil"
	"golang.org/x/tools/go/ssa"
)

// flags
var (
	configFilename = ""
	representation = ""
	flowSensitive  = false
	ssaStats       = false
	verbose        = false
	mode           = ssa.InstantiateGenerics
)

func init() {
	flag.StringVar(&configFilename, "config", "", "configuration file")
	flag.StringVar(&representation, "representation", "", "points-to set representation (mapbits, separate, single, small, divisible)")
	flag.BoolVar(&flowSensitive, "flow-sensitive", false, "run the flow-sensitive engine")
	flag.BoolVar(&ssaStats, "ssa-stats", false, "print statistics about the SSA form before analysis")
	flag.BoolVar(&verbose, "verbose", false, "verbose output")
	flag.Var(&mode, "build", ssa.BuilderModeDoc)
	flag.Var((*buildutil.TagsFlag)(&build.Default.BuildTags), "tags", buildutil.TagsFlagDoc)
}

const usage = `Run the pointer analysis on your Go packages.

Usage:
  argus package...
  argus source.go

prefix with GOOS and/or GOARCH to analyze a different architecture:
  GOOS=windows GOARCH=amd64 argus agent/agent.go agent/agent_windows.go

Use the -help flag to display the options.

Examples:
% argus -flow-sensitive hello.go
`

func main() {
	if err := doMain(); err != nil {
		fmt.Fprintf(os.Stderr, "argus: %s\n", err)
		os.Exit(1)
	}
}

func doMain() error {
	flag.Parse()

	if len(flag.Args()) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	var err error
	var cfg *config.Config
	if configFilename == "" {
		cfg = config.NewDefault()
	} else {
		cfg, err = config.Load(configFilename)
		if err != nil {
			return fmt.Errorf("failed to load config %s: %s", configFilename, err)
		}
	}
	if representation != "" {
		cfg.Representation = representation
	}
	if flowSensitive {
		cfg.FlowSensitive = true
	}
	if verbose && cfg.LogLevel < int(config.DebugLevel) {
		cfg.LogLevel = int(config.DebugLevel)
	}
	logger := config.NewLogGroup(cfg)

	fmt.Fprintln(os.Stderr, formatutil.Faint("Reading sources"))
	prog, err := frontend.LoadProgram(nil, "", mode, flag.Args())
	if err != nil {
		return fmt.Errorf("failed to load program: %s", err)
	}

	if ssaStats {
		frontend.ComputeProgramStats(prog, cfg).Report(os.Stdout)
	}

	fmt.Fprintln(os.Stderr, formatutil.Faint("Lowering to the pointer graph"))
	g, err := frontend.BuildGraph(prog, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build pointer graph: %s", err)
	}

	fmt.Fprintln(os.Stderr, formatutil.Faint("Analyzing"))
	var flowResult *pointsto.FlowResult
	if cfg.FlowSensitive {
		flowResult, err = pointsto.AnalyzeFlowSensitive(g, logger)
	} else {
		err = pointsto.AnalyzeWithLog(g, pointsto.FlowInsensitive, logger)
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %s", err)
	}

	stats := pointsto.ComputeGraphStats(g)
	stats.Report(os.Stdout)

	reportRecursion(g, os.Stdout)

	if cfg.ReportCallgraph {
		if err := writeCallgraph(g, cfg, logger); err != nil {
			return err
		}
	}
	if cfg.ReportMemory && flowResult != nil {
		if err := writeMemory(g, flowResult, cfg, logger); err != nil {
			return err
		}
	}
	return nil
}

func reportRecursion(g *pointsto.Graph, w *os.File) {
	groups := render.RecursiveGroups(g)
	if len(groups) == 0 {
		return
	}
	fmt.Fprintf(w, "%s\n", formatutil.Bold("Recursive groups:"))
	for _, group := range groups {
		names := funcutil.Map(group, func(id pointsto.SubgraphID) string {
			return g.Subgraph(id).Name()
		})
		fmt.Fprintf(w, "  %s\n", strings.Join(names, ", "))
	}
}

func writeCallgraph(g *pointsto.Graph, cfg *config.Config, logger *config.LogGroup) error {
	buf, err := render.CallGraphDot(g)
	if err != nil {
		return fmt.Errorf("failed to render call graph: %s", err)
	}
	f, err := os.CreateTemp(cfg.ReportsDir, "callgraph-*.out")
	if err != nil {
		return fmt.Errorf("could not create callgraph report: %s", err)
	}
	defer f.Close()
	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("could not write callgraph report: %s", err)
	}
	logger.Infof("Call graph written to %s", path.Join(cfg.ReportsDir, path.Base(f.Name())))
	return nil
}

func writeMemory(g *pointsto.Graph, res *pointsto.FlowResult, cfg *config.Config, logger *config.LogGroup) error {
	f, err := os.CreateTemp(cfg.ReportsDir, "memory-*.out")
	if err != nil {
		return fmt.Errorf("could not create memory report: %s", err)
	}
	defer f.Close()
	pointsto.WriteMemory(f, g, res)
	logger.Infof("Memory states written to %s", path.Join(cfg.ReportsDir, path.Base(f.Name())))
	return nil
}
