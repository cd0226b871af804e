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

package bitvector

import (
	"math"
	"math/rand"
	"testing"

	"golang.org/x/exp/slices"
)

func elements(s *Sparse) []uint64 {
	var out []uint64
	s.ForEach(func(i uint64) bool {
		out = append(out, i)
		return true
	})
	return out
}

func TestSetUnsetGet(t *testing.T) {
	var s Sparse
	if !s.Set(3) || !s.Set(64) || !s.Set(1 << 40) {
		t.Fatal("setting fresh bits should change the vector")
	}
	if s.Set(3) {
		t.Error("setting a present bit should not change the vector")
	}
	if !s.Get(3) || !s.Get(64) || !s.Get(1<<40) || s.Get(4) {
		t.Error("membership does not match the set bits")
	}
	if s.Count() != 3 {
		t.Errorf("count = %d, expected 3", s.Count())
	}
	if !s.Unset(64) || s.Unset(64) {
		t.Error("unset should change the vector exactly once")
	}
	if s.Get(64) || s.Count() != 2 {
		t.Error("bit 64 should be gone")
	}
}

func TestForEachAscending(t *testing.T) {
	var s Sparse
	want := []uint64{0, 5, 63, 64, 65, 1000, 1 << 33, 1 << 63, math.MaxUint64}
	shuffled := slices.Clone(want)
	rand.New(rand.NewSource(1)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	for _, i := range shuffled {
		s.Set(i)
	}
	if got := elements(&s); !slices.Equal(got, want) {
		t.Errorf("iteration = %v, expected %v", got, want)
	}
}

func TestForEachStopsEarly(t *testing.T) {
	var s Sparse
	s.Set(1)
	s.Set(2)
	s.Set(3)
	n := 0
	s.ForEach(func(uint64) bool {
		n++
		return n < 2
	})
	if n != 2 {
		t.Errorf("iteration visited %d bits after stopping, expected 2", n)
	}
}

func TestUnionWith(t *testing.T) {
	var a, b Sparse
	a.Set(1)
	a.Set(100)
	b.Set(100)
	b.Set(200)
	if !a.UnionWith(&b) {
		t.Error("union with a new bit should change the vector")
	}
	if a.UnionWith(&b) {
		t.Error("repeating the union should be a no-op")
	}
	if got := elements(&a); !slices.Equal(got, []uint64{1, 100, 200}) {
		t.Errorf("union = %v", got)
	}
	var empty Sparse
	if a.UnionWith(&empty) || a.UnionWith(nil) {
		t.Error("union with nothing should not change the vector")
	}
}

func TestCloneIndependence(t *testing.T) {
	var s Sparse
	s.Set(7)
	c := s.Clone()
	c.Set(8)
	if s.Get(8) {
		t.Error("mutating the clone should not affect the original")
	}
	if !c.Get(7) {
		t.Error("the clone should keep the original bits")
	}
}

func TestEqualAndReset(t *testing.T) {
	var a, b Sparse
	a.Set(9)
	b.Set(9)
	if !a.Equal(&b) {
		t.Error("identical vectors should be equal")
	}
	b.Set(10)
	if a.Equal(&b) {
		t.Error("vectors with different bits should not be equal")
	}
	b.Reset()
	if !b.Empty() {
		t.Error("reset should empty the vector")
	}
	// a word emptied by Unset must compare equal to a never-set word
	var c, d Sparse
	c.Set(5)
	c.Unset(5)
	if !c.Equal(&d) {
		t.Error("an emptied vector should equal a fresh one")
	}
}
