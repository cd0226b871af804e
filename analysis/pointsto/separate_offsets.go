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

// separateOffsetsSet keeps one bitvector of interned target ids and one
// bitvector of offsets. Membership is their cross product, so the set is an
// upward approximation of the true set: adding (a, 0) and (b, 8) also makes
// (a, 8) and (b, 0) members. Still sound for a may analysis, and only
// precise when every target has the same offsets by construction.
//
// Exact removal of a single pair is not expressible in this representation;
// Remove only succeeds when one of the two dimensions is a singleton, and
// otherwise leaves the set unchanged (keeping extra pairs is sound).
type separateOffsetsSet struct {
	targets bitvector.Sparse
	offsets bitvector.Sparse
}

func (s *separateOffsetsSet) Add(t NodeID, o Offset) bool {
	changed := s.targets.Set(targets.intern(t))
	return s.offsets.Set(uint64(o)) || changed
}

func (s *separateOffsetsSet) AddPointer(p Pointer) bool {
	return s.Add(p.Target, p.Offset)
}

func (s *separateOffsetsSet) Union(rhs PointsToSet) bool {
	if o, ok := rhs.(*separateOffsetsSet); ok {
		changed := s.targets.UnionWith(&o.targets)
		return s.offsets.UnionWith(&o.offsets) || changed
	}
	return unionPairs(s, rhs)
}

func (s *separateOffsetsSet) Remove(t NodeID, o Offset) bool {
	id, ok := targets.lookupID(t)
	if !ok || !s.targets.Get(id) || !s.offsets.Get(uint64(o)) {
		return false
	}
	if s.offsets.Count() == 1 {
		if s.targets.Unset(id); s.targets.Empty() {
			s.offsets.Reset()
		}
		return true
	}
	if s.targets.Count() == 1 {
		return s.offsets.Unset(uint64(o))
	}
	// Both dimensions are plural: the pair cannot be removed without
	// dropping unrelated pairs.
	return false
}

func (s *separateOffsetsSet) RemoveAny(t NodeID) bool {
	id, ok := targets.lookupID(t)
	if !ok || !s.targets.Unset(id) {
		return false
	}
	if s.targets.Empty() {
		s.offsets.Reset()
	}
	return true
}

func (s *separateOffsetsSet) Clear() {
	s.targets.Reset()
	s.offsets.Reset()
}

func (s *separateOffsetsSet) PointsTo(t NodeID, o Offset) bool {
	id, ok := targets.lookupID(t)
	return ok && s.targets.Get(id) && s.offsets.Get(uint64(o))
}

func (s *separateOffsetsSet) MayPointTo(t NodeID, o Offset) bool {
	return s.PointsTo(t, o) || s.PointsTo(t, UnknownOffset)
}

func (s *separateOffsetsSet) MustPointTo(t NodeID, o Offset) bool {
	assertConcrete(o)
	return s.PointsTo(t, o) && s.IsSingleton()
}

func (s *separateOffsetsSet) PointsToTarget(t NodeID) bool {
	id, ok := targets.lookupID(t)
	return ok && s.targets.Get(id)
}

func (s *separateOffsetsSet) Size() int {
	return s.targets.Count() * s.offsets.Count()
}

func (s *separateOffsetsSet) Empty() bool {
	return s.targets.Empty()
}

func (s *separateOffsetsSet) IsSingleton() bool {
	return s.targets.Count() == 1 && s.offsets.Count() == 1
}

func (s *separateOffsetsSet) HasUnknown() bool     { return s.PointsToTarget(UnknownMemory) }
func (s *separateOffsetsSet) HasNull() bool        { return s.PointsToTarget(NullPtr) }
func (s *separateOffsetsSet) HasInvalidated() bool { return s.PointsToTarget(Invalidated) }

func (s *separateOffsetsSet) ForEach(f func(Pointer) bool) {
	stop := false
	s.targets.ForEach(func(id uint64) bool {
		t := targets.lookup(id)
		s.offsets.ForEach(func(o uint64) bool {
			if !f(Ptr(t, Offset(o))) {
				stop = true
				return false
			}
			return true
		})
		return !stop
	})
}

func (s *separateOffsetsSet) Clone() PointsToSet {
	return &separateOffsetsSet{
		targets: *s.targets.Clone(),
		offsets: *s.offsets.Clone(),
	}
}
