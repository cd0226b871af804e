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

import "github.com/dgruntime/argus/internal/bitvector"

// divisibleOffsetsSet is the small-offsets layout with a fixed divisor m:
// bit k of a target's slot is the offset k*m, bit 63 the unknown offset.
// Offsets that are not multiples of m, or at least 63*m, spill to a side
// set. Word-aligned programs with m set to the word size keep almost every
// offset in the packed slots.
type divisibleOffsetsSet struct {
	divisor uint64
	bits    bitvector.Sparse
	spill   map[Pointer]struct{}
}

// slotBit returns the in-slot bit for a concrete offset, or false when the
// offset must spill.
func (s *divisibleOffsetsSet) slotBit(o Offset) (uint64, bool) {
	if uint64(o)%s.divisor != 0 {
		return 0, false
	}
	k := uint64(o) / s.divisor
	if k >= unknownBit {
		return 0, false
	}
	return k, true
}

func (s *divisibleOffsetsSet) Add(t NodeID, o Offset) bool {
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
	if b, ok := s.slotBit(o); ok {
		return s.bits.Set(pos + b)
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

func (s *divisibleOffsetsSet) AddPointer(p Pointer) bool {
	return s.Add(p.Target, p.Offset)
}

func (s *divisibleOffsetsSet) Union(rhs PointsToSet) bool {
	return unionPairs(s, rhs)
}

func (s *divisibleOffsetsSet) Remove(t NodeID, o Offset) bool {
	pos := smallSlot(t)
	if o.IsUnknown() {
		return s.bits.Unset(pos + unknownBit)
	}
	if b, ok := s.slotBit(o); ok {
		return s.bits.Unset(pos + b)
	}
	if _, ok := s.spill[Ptr(t, o)]; !ok {
		return false
	}
	delete(s.spill, Ptr(t, o))
	return true
}

func (s *divisibleOffsetsSet) RemoveAny(t NodeID) bool {
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

func (s *divisibleOffsetsSet) Clear() {
	s.bits.Reset()
	s.spill = nil
}

func (s *divisibleOffsetsSet) PointsTo(t NodeID, o Offset) bool {
	id, ok := targets.lookupID(t)
	if !ok {
		return false
	}
	pos := (id - 1) * slotBits
	if o.IsUnknown() {
		return s.bits.Get(pos + unknownBit)
	}
	if b, ok := s.slotBit(o); ok {
		return s.bits.Get(pos + b)
	}
	_, ok = s.spill[Ptr(t, o)]
	return ok
}

func (s *divisibleOffsetsSet) MayPointTo(t NodeID, o Offset) bool {
	return s.PointsTo(t, o) || s.PointsTo(t, UnknownOffset)
}

func (s *divisibleOffsetsSet) MustPointTo(t NodeID, o Offset) bool {
	assertConcrete(o)
	return s.PointsTo(t, o) && s.IsSingleton()
}

func (s *divisibleOffsetsSet) PointsToTarget(t NodeID) bool {
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

func (s *divisibleOffsetsSet) Size() int {
	return s.bits.Count() + len(s.spill)
}

func (s *divisibleOffsetsSet) Empty() bool {
	return s.bits.Empty() && len(s.spill) == 0
}

func (s *divisibleOffsetsSet) IsSingleton() bool {
	return s.Size() == 1
}

func (s *divisibleOffsetsSet) HasUnknown() bool     { return s.PointsToTarget(UnknownMemory) }
func (s *divisibleOffsetsSet) HasNull() bool        { return s.PointsToTarget(NullPtr) }
func (s *divisibleOffsetsSet) HasInvalidated() bool { return s.PointsToTarget(Invalidated) }

func (s *divisibleOffsetsSet) ForEach(f func(Pointer) bool) {
	stop := false
	s.bits.ForEach(func(i uint64) bool {
		t := targets.lookup(i/slotBits + 1)
		o := Offset((i % slotBits) * s.divisor)
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

func (s *divisibleOffsetsSet) Clone() PointsToSet {
	c := &divisibleOffsetsSet{divisor: s.divisor, bits: *s.bits.Clone()}
	if len(s.spill) > 0 {
		c.spill = make(map[Pointer]struct{}, len(s.spill))
		for p := range s.spill {
			c.spill[p] = struct{}{}
		}
	}
	return c
}
