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
	"path/filepath"
	"testing"
)

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "full-config.yaml"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Representation != "small" {
		t.Errorf("representation = %q, expected %q", cfg.Representation, "small")
	}
	if !cfg.FlowSensitive {
		t.Error("flow-sensitive should be set")
	}
	if cfg.WordSize != 8 {
		t.Errorf("word-size = %d, expected 8", cfg.WordSize)
	}
	if cfg.LogLevel != int(DebugLevel) {
		t.Errorf("log-level = %d, expected %d", cfg.LogLevel, int(DebugLevel))
	}
	if len(cfg.EntryPoints) != 2 || cfg.EntryPoints[0] != "main.main" {
		t.Errorf("entry-points = %v", cfg.EntryPoints)
	}
}

func TestLoadDivisibleDefaultsDivisor(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "divisible-config.yaml"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Divisor != 4 {
		t.Errorf("divisor = %d, expected the default 4", cfg.Divisor)
	}
}

func TestLoadBadRepresentation(t *testing.T) {
	if _, err := Load(filepath.Join("testdata", "bad-representation.yaml")); err == nil {
		t.Fatal("loading an unknown representation should fail")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join("testdata", "does-not-exist.yaml")); err == nil {
		t.Fatal("loading a missing file should fail")
	}
}

func TestMatchPkgFilter(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "full-config.yaml"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !cfg.MatchPkgFilter("github.com/example/foo") {
		t.Error("filter should match packages under github.com/example")
	}
	if cfg.MatchPkgFilter("github.com/other/foo") {
		t.Error("filter should reject other packages")
	}
}

func TestMatchPkgFilterUnsetMatchesAll(t *testing.T) {
	cfg := NewDefault()
	if !cfg.MatchPkgFilter("anything/at/all") {
		t.Error("an unset filter should match everything")
	}
}

func TestMatchPkgFilterPrefixFallback(t *testing.T) {
	cfg := NewDefault()
	// an unparsable regex falls back to prefix matching
	cfg.PkgFilter = "example.com/(unclosed"
	if !cfg.MatchPkgFilter("example.com/(unclosedpkg") {
		t.Error("prefix fallback should match")
	}
	if cfg.MatchPkgFilter("other.com/pkg") {
		t.Error("prefix fallback should reject non-prefixed names")
	}
}

func TestNewLogGroupLevels(t *testing.T) {
	cfg := NewDefault()
	cfg.LogLevel = int(WarnLevel)
	logger := NewLogGroup(cfg)
	if logger.Level() != WarnLevel {
		t.Errorf("level = %v, expected %v", logger.Level(), WarnLevel)
	}
}
