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

// singleBitvectorSet keeps one sparse bitvector indexed by process-wide
// interned (target, offset) pair ids. Best for dense small programs where
// the same pointers recur across many sets. Adding an unknown offset drops
// the concrete offsets interned so far for that target; pairs interned
// later are rejected by the unknown check in Add.
type singleBitvectorSet struct {
	bits bitvector.Sparse
}

func (s *singleBitvectorSet) Add(t NodeID, o Offset) bool {
	if o.IsUnknown() {
		changed := false
		for i, p := range pointers.snapshot() {
			if p.Target == t && !p.Offset.IsUnknown() {
				changed = s.bits.Unset(uint64(i)+1) || changed
			}
		}
		return s.bits.Set(pointers.intern(Ptr(t, UnknownOffset))) || changed
	}
	if id, ok := pointers.lookupID(Ptr(t, UnknownOffset)); ok && s.bits.Get(id) {
		return false
	}
	return s.bits.Set(pointers.intern(Ptr(t, o)))
}

func (s *singleBitvectorSet) AddPointer(p Pointer) bool {
	return s.Add(p.Target, p.Offset)
}

func (s *singleBitvectorSet) Union(rhs PointsToSet) bool {
	return unionPairs(s, rhs)
}

func (s *singleBitvectorSet) Remove(t NodeID, o Offset) bool {
	id, ok := pointers.lookupID(Ptr(t, o))
	if !ok {
		return false
	}
	return s.bits.Unset(id)
}

func (s *singleBitvectorSet) RemoveAny(t NodeID) bool {
	changed := false
	for i, p := range pointers.snapshot() {
		if p.Target == t {
			changed = s.bits.Unset(uint64(i)+1) || changed
		}
	}
	return changed
}

func (s *singleBitvectorSet) Clear() {
	s.bits.Reset()
}

func (s *singleBitvectorSet) PointsTo(t NodeID, o Offset) bool {
	id, ok := pointers.lookupID(Ptr(t, o))
	return ok && s.bits.Get(id)
}

func (s *singleBitvectorSet) MayPointTo(t NodeID, o Offset) bool {
	return s.PointsTo(t, o) || s.PointsTo(t, UnknownOffset)
}

func (s *singleBitvectorSet) MustPointTo(t NodeID, o Offset) bool {
	assertConcrete(o)
	return s.PointsTo(t, o) && s.IsSingleton()
}

func (s *singleBitvectorSet) PointsToTarget(t NodeID) bool {
	found := false
	s.bits.ForEach(func(id uint64) bool {
		if pointers.lookup(id).Target == t {
			found = true
			return false
		}
		return true
	})
	return found
}

func (s *singleBitvectorSet) Size() int {
	return s.bits.Count()
}

func (s *singleBitvectorSet) Empty() bool {
	return s.bits.Empty()
}

func (s *singleBitvectorSet) IsSingleton() bool {
	return s.bits.Count() == 1
}

func (s *singleBitvectorSet) HasUnknown() bool     { return s.PointsToTarget(UnknownMemory) }
func (s *singleBitvectorSet) HasNull() bool        { return s.PointsToTarget(NullPtr) }
func (s *singleBitvectorSet) HasInvalidated() bool { return s.PointsToTarget(Invalidated) }

func (s *singleBitvectorSet) ForEach(f func(Pointer) bool) {
	s.bits.ForEach(func(id uint64) bool {
		return f(pointers.lookup(id))
	})
}

func (s *singleBitvectorSet) Clone() PointsToSet {
	return &singleBitvectorSet{bits: *s.bits.Clone()}
}
