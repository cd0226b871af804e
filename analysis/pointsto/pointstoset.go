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
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/dgruntime/argus/internal/bitvector"
)

// PointsToSet is the lattice element of the analysis: a finite set of
// (target, offset) pairs. Five interchangeable representations implement the
// same observable contract; the engines are agnostic to the choice. Adding a
// pair with an unknown offset may canonicalize away the concrete offsets of
// the same target (the unknown offset subsumes them).
//
// Mutation during iteration is undefined. Iteration visits every concrete
// pair exactly once, in a deterministic order for a given snapshot.
type PointsToSet interface {
	// Add inserts (t, o) and reports whether the set changed.
	Add(t NodeID, o Offset) bool
	// AddPointer inserts p and reports whether the set changed.
	AddPointer(p Pointer) bool
	// Union adds every element of s and reports whether the set changed.
	Union(s PointsToSet) bool
	// Remove removes exactly (t, o) and reports whether the set changed.
	Remove(t NodeID, o Offset) bool
	// RemoveAny removes every pair with target t and reports whether the
	// set changed.
	RemoveAny(t NodeID) bool
	// Clear empties the set.
	Clear()

	// PointsTo reports exact membership of (t, o).
	PointsTo(t NodeID, o Offset) bool
	// MayPointTo reports membership of (t, o) or (t, unknown).
	MayPointTo(t NodeID, o Offset) bool
	// MustPointTo reports whether (t, o) is the only element. The offset
	// must be concrete.
	MustPointTo(t NodeID, o Offset) bool
	// PointsToTarget reports whether some offset of t is present.
	PointsToTarget(t NodeID) bool

	// Size returns the number of pairs in the set.
	Size() int
	// Empty reports whether the set has no element.
	Empty() bool
	// IsSingleton reports whether the set holds exactly one pair.
	IsSingleton() bool
	// HasUnknown reports whether the set contains unknown memory.
	HasUnknown() bool
	// HasNull reports whether the set contains the null pointer.
	HasNull() bool
	// HasInvalidated reports whether the set contains invalidated memory.
	HasInvalidated() bool

	// ForEach calls f on every element; iteration stops when f returns
	// false.
	ForEach(f func(Pointer) bool)
	// Clone returns an independent copy with the same representation.
	Clone() PointsToSet
}

// Representation selects a PointsToSet implementation. The choice is made
// once per graph, before any node is created.
type Representation string

const (
	// RepMapBits keeps one sparse offset bitvector per target. It is the
	// precision reference and the default.
	RepMapBits Representation = "mapbits"
	// RepSeparate keeps one bitvector of targets and one of offsets.
	// Membership is their cross product, an upward approximation.
	RepSeparate Representation = "separate"
	// RepSingle keeps a single bitvector over interned (target, offset)
	// pairs.
	RepSingle Representation = "single"
	// RepSmall packs offsets 0..62 of each target into a 64-bit slot, bit
	// 63 meaning unknown; larger offsets spill to a side set.
	RepSmall Representation = "small"
	// RepDivisible is RepSmall with slot bits meaning multiples of a fixed
	// divisor; non-divisible offsets spill.
	RepDivisible Representation = "divisible"
)

// NewSet returns an empty set of the given representation. The divisible
// representation uses divisor when positive, 4 otherwise. An unrecognized
// representation falls back to RepMapBits.
func NewSet(r Representation, divisor uint64) PointsToSet {
	switch r {
	case RepSeparate:
		return &separateOffsetsSet{}
	case RepSingle:
		return &singleBitvectorSet{}
	case RepSmall:
		return &smallOffsetsSet{}
	case RepDivisible:
		if divisor == 0 {
			divisor = 4
		}
		return &divisibleOffsetsSet{divisor: divisor}
	default:
		return &mapBitvectorSet{}
	}
}

// Elements returns the contents of s as a slice, in iteration order.
func Elements(s PointsToSet) []Pointer {
	out := make([]Pointer, 0, s.Size())
	s.ForEach(func(p Pointer) bool {
		out = append(out, p)
		return true
	})
	return out
}

// FormatSet renders a set as "{(t, o), ...}" for diagnostics.
func FormatSet(s PointsToSet) string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	s.ForEach(func(p Pointer) bool {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(p.String())
		return true
	})
	b.WriteByte('}')
	return b.String()
}

// mapBitvectorSet is the map-of-bitvectors representation: each target maps
// to a sparse bitvector of its offsets, the unknown offset being a
// distinguished high bit. Setting the unknown bit drops the concrete bits
// for that target.
type mapBitvectorSet struct {
	ptrs map[NodeID]*bitvector.Sparse
}

func (s *mapBitvectorSet) vec(t NodeID) *bitvector.Sparse {
	if s.ptrs == nil {
		s.ptrs = make(map[NodeID]*bitvector.Sparse)
	}
	v := s.ptrs[t]
	if v == nil {
		v = &bitvector.Sparse{}
		s.ptrs[t] = v
	}
	return v
}

func (s *mapBitvectorSet) Add(t NodeID, o Offset) bool {
	if o.IsUnknown() {
		v, ok := s.ptrs[t]
		if ok {
			if v.Get(uint64(UnknownOffset)) {
				return false
			}
			v.Reset()
			v.Set(uint64(UnknownOffset))
			return true
		}
		return s.vec(t).Set(uint64(UnknownOffset))
	}
	if v, ok := s.ptrs[t]; ok && v.Get(uint64(UnknownOffset)) {
		return false
	}
	return s.vec(t).Set(uint64(o))
}

func (s *mapBitvectorSet) AddPointer(p Pointer) bool {
	return s.Add(p.Target, p.Offset)
}

func (s *mapBitvectorSet) Union(rhs PointsToSet) bool {
	if o, ok := rhs.(*mapBitvectorSet); ok {
		changed := false
		for t, v := range o.ptrs {
			if v.Get(uint64(UnknownOffset)) {
				changed = s.Add(t, UnknownOffset) || changed
				continue
			}
			if mine, ok := s.ptrs[t]; ok && mine.Get(uint64(UnknownOffset)) {
				continue
			}
			changed = s.vec(t).UnionWith(v) || changed
		}
		return changed
	}
	return unionPairs(s, rhs)
}

func (s *mapBitvectorSet) Remove(t NodeID, o Offset) bool {
	v, ok := s.ptrs[t]
	if !ok {
		return false
	}
	if !v.Unset(uint64(o)) {
		return false
	}
	if v.Empty() {
		delete(s.ptrs, t)
	}
	return true
}

func (s *mapBitvectorSet) RemoveAny(t NodeID) bool {
	if _, ok := s.ptrs[t]; !ok {
		return false
	}
	delete(s.ptrs, t)
	return true
}

func (s *mapBitvectorSet) Clear() {
	s.ptrs = nil
}

func (s *mapBitvectorSet) PointsTo(t NodeID, o Offset) bool {
	v, ok := s.ptrs[t]
	return ok && v.Get(uint64(o))
}

func (s *mapBitvectorSet) MayPointTo(t NodeID, o Offset) bool {
	return s.PointsTo(t, o) || s.PointsTo(t, UnknownOffset)
}

func (s *mapBitvectorSet) MustPointTo(t NodeID, o Offset) bool {
	assertConcrete(o)
	return s.PointsTo(t, o) && s.IsSingleton()
}

func (s *mapBitvectorSet) PointsToTarget(t NodeID) bool {
	_, ok := s.ptrs[t]
	return ok
}

func (s *mapBitvectorSet) Size() int {
	n := 0
	for _, v := range s.ptrs {
		n += v.Count()
	}
	return n
}

func (s *mapBitvectorSet) Empty() bool {
	return len(s.ptrs) == 0
}

func (s *mapBitvectorSet) IsSingleton() bool {
	return s.Size() == 1
}

func (s *mapBitvectorSet) HasUnknown() bool     { return s.PointsToTarget(UnknownMemory) }
func (s *mapBitvectorSet) HasNull() bool        { return s.PointsToTarget(NullPtr) }
func (s *mapBitvectorSet) HasInvalidated() bool { return s.PointsToTarget(Invalidated) }

func (s *mapBitvectorSet) ForEach(f func(Pointer) bool) {
	ts := maps.Keys(s.ptrs)
	slices.Sort(ts)
	for _, t := range ts {
		stop := false
		s.ptrs[t].ForEach(func(i uint64) bool {
			if !f(Ptr(t, Offset(i))) {
				stop = true
				return false
			}
			return true
		})
		if stop {
			return
		}
	}
}

func (s *mapBitvectorSet) Clone() PointsToSet {
	c := &mapBitvectorSet{}
	if len(s.ptrs) > 0 {
		c.ptrs = make(map[NodeID]*bitvector.Sparse, len(s.ptrs))
		for t, v := range s.ptrs {
			c.ptrs[t] = v.Clone()
		}
	}
	return c
}

// unionPairs is the generic slow path for unions across representations.
func unionPairs(dst PointsToSet, src PointsToSet) bool {
	changed := false
	src.ForEach(func(p Pointer) bool {
		changed = dst.AddPointer(p) || changed
		return true
	})
	return changed
}

func assertConcrete(o Offset) {
	if o.IsUnknown() {
		panic("pointsto: must-point-to query with unknown offset")
	}
}
