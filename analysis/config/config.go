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

package config

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/dgruntime/argus/internal/funcutil"
	"gopkg.in/yaml.v3"
)

// The global config file
var configFile string

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// validRepresentations are the accepted values of the representation option.
var validRepresentations = []string{"", "mapbits", "separate", "single", "small", "divisible"}

// Config holds the options of a pointer analysis run. Fields not defined in
// the config file are empty/zero in the struct; private fields are computed
// after loading rather than populated from yaml.
type Config struct {
	Options `yaml:",inline"`

	sourceFile string

	// if the PkgFilter is specified
	pkgFilterRegex *regexp.Regexp

	// EntryPoints names the functions whose subgraphs seed the analysis.
	// Empty means the program's main function.
	EntryPoints []string `yaml:"entry-points"`
}

// Options are the scalar knobs of the analysis, shared by the config file
// and the command line.
type Options struct {
	// ReportsDir is the directory where reports will be stored. If the
	// config file does not specify a ReportsDir but sets any Report*
	// option to true, a temporary directory is created next to the
	// config file.
	ReportsDir string `yaml:"reports-dir"`

	// PkgFilter restricts which packages are lowered to the pointer
	// graph. Functions of non-matching packages become opaque calls.
	PkgFilter string `yaml:"pkg-filter"`

	// Representation selects the points-to set implementation: one of
	// mapbits, separate, single, small, divisible. Empty means mapbits.
	Representation string `yaml:"representation"`

	// Divisor is the slot granularity of the divisible representation.
	Divisor uint64 `yaml:"divisor"`

	// WordSize is the width in bytes of one pointer slot, used to decide
	// strong updates. Zero means 8.
	WordSize uint64 `yaml:"word-size"`

	// FlowSensitive switches from the flow-insensitive engine to the
	// flow-sensitive one.
	FlowSensitive bool `yaml:"flow-sensitive"`

	// ReportMemory dumps the memory state at every program point after a
	// flow-sensitive run. The dump is written to memory-*.out in the
	// reports directory.
	ReportMemory bool `yaml:"report-memory"`

	// ReportCallgraph writes the resolved call graph to callgraph-*.out
	// in the reports directory.
	ReportCallgraph bool `yaml:"report-callgraph"`

	// Loglevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// Suppress warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		sourceFile:  "",
		EntryPoints: nil,
		Options: Options{
			ReportsDir:      "",
			PkgFilter:       "",
			Representation:  "",
			Divisor:         0,
			WordSize:        0,
			FlowSensitive:   false,
			ReportMemory:    false,
			ReportCallgraph: false,
			LogLevel:        int(InfoLevel),
			SilenceWarn:     false,
		},
	}
}

// Load reads a configuration from a yaml file.
func Load(filename string) (*Config, error) {
	cfg := NewDefault()
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}

	cfg.sourceFile = filename

	if !funcutil.Contains(validRepresentations, cfg.Representation) {
		return nil, fmt.Errorf("unknown representation %q (one of mapbits, separate, single, small, divisible)",
			cfg.Representation)
	}
	if cfg.Representation == "divisible" && cfg.Divisor == 0 {
		cfg.Divisor = 4
	}

	if cfg.ReportMemory || cfg.ReportCallgraph {
		if err := setReportsDir(cfg, filename); err != nil {
			return nil, err
		}
	}

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}

	if cfg.PkgFilter != "" {
		r, err := regexp.Compile(cfg.PkgFilter)
		if err == nil {
			cfg.pkgFilterRegex = r
		}
	}

	return cfg, nil
}

func setReportsDir(c *Config, filename string) error {
	if c.ReportsDir == "" {
		tmpdir, err := os.MkdirTemp(path.Dir(filename), "*-report")
		if err != nil {
			return fmt.Errorf("could not create temp dir for reports")
		}
		c.ReportsDir = tmpdir
		return nil
	}
	if err := os.Mkdir(c.ReportsDir, 0750); err != nil && !os.IsExist(err) {
		return fmt.Errorf("could not create directory %s", c.ReportsDir)
	}
	return nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// MatchPkgFilter returns true if the package name pkgname matches the
// package filter set in the config file. An unset filter matches anything.
// If the filter string did not compile to a regex, it is used as a plain
// prefix instead.
func (c Config) MatchPkgFilter(pkgname string) bool {
	if c.pkgFilterRegex != nil {
		return c.pkgFilterRegex.MatchString(pkgname)
	}
	if c.PkgFilter != "" {
		return strings.HasPrefix(pkgname, c.PkgFilter)
	}
	return true
}
