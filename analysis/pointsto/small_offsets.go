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

	"github.com/dgruntime/argus/internal/bitvector"
)

const (
	slotBits   = 64
	unknownBit = 63
)

// smallOffsetsSet reserves a 64-bit slot per interned target: bits 0..62 are
// the offsets 0..62, bit 63 is the unknown offset. Offsets above 62 spill to
// a side set of pointers. Most field offsets in practice are small, so the
// spill set stays near empty.
type smallOffsetsSet struct {
	bits  bitvector.Sparse
	spill map[Pointer]struct{}
}

func smallSlot(t NodeID) uint64 {
	return (targets.intern(t) - 1) * slotBits
}

func (s *smallOffsetsSet) Add(t NodeID, o Offset) bool {
	pos := smallSlot(t)
	if o.IsUnknown() {
		if s.bits.Get(pos + unknownBit) {
			return false
		}
		for b := uint64(0); b < unknownBit; b++ {
			s.bits.Unset(pos + b)
		}
		for p := range s.spill {
			if p.Target == t {
				delete(s.spill, p)
			}
		}
		return s.bits.Set(pos + unknownBit)
	}
	if s.bits.Get(pos + unknownBit) {
		return false
	}
	if o < unknownBit {
		return s.bits.Set(pos + uint64(o))
	}
	if s.spill == nil {
		s.spill = make(map[Pointer]struct{})
	}
	if _, ok := s.spill[Ptr(t, o)]; ok {
		return false
	}
	s.spill[Ptr(t, o)] = struct{}{}
	return true
}

func (s *smallOffsetsSet) AddPointer(p Pointer) bool {
	return s.Add(p.Target, p.Offset)
}

func (s *smallOffsetsSet) Union(rhs PointsToSet) bool {
	return unionPairs(s, rhs)
}

func (s *smallOffsetsSet) Remove(t NodeID, o Offset) bool {
	pos := smallSlot(t)
	switch {
	case o.IsUnknown():
		return s.bits.Unset(pos + unknownBit)
	case o < unknownBit:
		return s.bits.Unset(pos + uint64(o))
	default:
		if _, ok := s.spill[Ptr(t, o)]; !ok {
			return false
		}
		delete(s.spill, Ptr(t, o))
		return true
	}
}

func (s *smallOffsetsSet) RemoveAny(t NodeID) bool {
	pos := smallSlot(t)
	changed := false
	for b := uint64(0); b < slotBits; b++ {
		changed = s.bits.Unset(pos+b) || changed
	}
	for p := range s.spill {
		if p.Target == t {
			delete(s.spill, p)
			changed = true
		}
	}
	return changed
}

func (s *smallOffsetsSet) Clear() {
	s.bits.Reset()
	s.spill = nil
}

func (s *smallOffsetsSet) PointsTo(t NodeID, o Offset) bool {
	id, ok := targets.lookupID(t)
	if !ok {
		return false
	}
	pos := (id - 1) * slotBits
	switch {
	case o.IsUnknown():
		return s.bits.Get(pos + unknownBit)
	case o < unknownBit:
		return s.bits.Get(pos + uint64(o))
	default:
		_, ok := s.spill[Ptr(t, o)]
		return ok
	}
}

func (s *smallOffsetsSet) MayPointTo(t NodeID, o Offset) bool {
	return s.PointsTo(t, o) || s.PointsTo(t, UnknownOffset)
}

func (s *smallOffsetsSet) MustPointTo(t NodeID, o Offset) bool {
	assertConcrete(o)
	return s.PointsTo(t, o) && s.IsSingleton()
}

func (s *smallOffsetsSet) PointsToTarget(t NodeID) bool {
	id, ok := targets.lookupID(t)
	if !ok {
		return false
	}
	pos := (id - 1) * slotBits
	for b := uint64(0); b < slotBits; b++ {
		if s.bits.Get(pos + b) {
			return true
		}
	}
	for p := range s.spill {
		if p.Target == t {
			return true
		}
	}
	return false
}

func (s *smallOffsetsSet) Size() int {
	return s.bits.Count() + len(s.spill)
}

func (s *smallOffsetsSet) Empty() bool {
	return s.bits.Empty() && len(s.spill) == 0
}

func (s *smallOffsetsSet) IsSingleton() bool {
	return s.Size() == 1
}

func (s *smallOffsetsSet) HasUnknown() bool     { return s.PointsToTarget(UnknownMemory) }
func (s *smallOffsetsSet) HasNull() bool        { return s.PointsToTarget(NullPtr) }
func (s *smallOffsetsSet) HasInvalidated() bool { return s.PointsToTarget(Invalidated) }

func (s *smallOffsetsSet) ForEach(f func(Pointer) bool) {
	stop := false
	s.bits.ForEach(func(i uint64) bool {
		t := targets.lookup(i/slotBits + 1)
		o := Offset(i % slotBits)
		if i%slotBits == unknownBit {
			o = UnknownOffset
		}
		if !f(Ptr(t, o)) {
			stop = true
			return false
		}
		return true
	})
	if stop {
		return
	}
	for _, p := range sortedSpill(s.spill) {
		if !f(p) {
			return
		}
	}
}

func (s *smallOffsetsSet) Clone() PointsToSet {
	c := &smallOffsetsSet{bits: *s.bits.Clone()}
	if len(s.spill) > 0 {
		c.spill = make(map[Pointer]struct{}, len(s.spill))
		for p := range s.spill {
			c.spill[p] = struct{}{}
		}
	}
	return c
}

func sortedSpill(spill map[Pointer]struct{}) []Pointer {
	ps := maps.Keys(spill)
	slices.SortFunc(ps, func(a, b Pointer) bool {
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Offset < b.Offset
	})
	return ps
}
