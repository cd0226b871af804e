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

// Package bitvector implements a sparse bit set over the full uint64 index
// range, backed by x/tools intsets. It is the backing container for
// points-to set representations: bit indices are node ids, interned pointer
// ids, or byte offsets, all of which are sparse in practice.
package bitvector

import (
	"golang.org/x/tools/container/intsets"
)

// intsets is int-domain, so the uint64 range is split in two halves. The
// upper half stores indices shifted down by split; iterating low then high
// keeps the order ascending over the whole range, with the unknown-offset
// index (MaxUint64) always last.
const split = uint64(1) << 63

// Sparse is a set of uint64 indices. The zero value is an empty,
// ready-to-use vector. Copying a Sparse by assignment aliases its storage;
// use Clone for an independent copy.
type Sparse struct {
	low  *intsets.Sparse
	high *intsets.Sparse
}

func toHalf(i uint64) (high bool, x int) {
	if i < split {
		return false, int(i)
	}
	return true, int(i - split)
}

// Set sets bit i and reports whether the vector changed.
func (s *Sparse) Set(i uint64) bool {
	high, x := toHalf(i)
	if high {
		if s.high == nil {
			s.high = new(intsets.Sparse)
		}
		return s.high.Insert(x)
	}
	if s.low == nil {
		s.low = new(intsets.Sparse)
	}
	return s.low.Insert(x)
}

// Unset clears bit i and reports whether the vector changed.
func (s *Sparse) Unset(i uint64) bool {
	high, x := toHalf(i)
	if high {
		return s.high != nil && s.high.Remove(x)
	}
	return s.low != nil && s.low.Remove(x)
}

// Get reports whether bit i is set.
func (s *Sparse) Get(i uint64) bool {
	high, x := toHalf(i)
	if high {
		return s.high != nil && s.high.Has(x)
	}
	return s.low != nil && s.low.Has(x)
}

// UnionWith sets every bit of rhs in s and reports whether s changed.
func (s *Sparse) UnionWith(rhs *Sparse) bool {
	if rhs == nil {
		return false
	}
	changed := false
	if rhs.low != nil && !rhs.low.IsEmpty() {
		if s.low == nil {
			s.low = new(intsets.Sparse)
		}
		changed = s.low.UnionWith(rhs.low)
	}
	if rhs.high != nil && !rhs.high.IsEmpty() {
		if s.high == nil {
			s.high = new(intsets.Sparse)
		}
		changed = s.high.UnionWith(rhs.high) || changed
	}
	return changed
}

// Reset removes every bit.
func (s *Sparse) Reset() {
	s.low, s.high = nil, nil
}

// Empty reports whether no bit is set.
func (s *Sparse) Empty() bool {
	return (s.low == nil || s.low.IsEmpty()) && (s.high == nil || s.high.IsEmpty())
}

// Count returns the number of set bits.
func (s *Sparse) Count() int {
	n := 0
	if s.low != nil {
		n += s.low.Len()
	}
	if s.high != nil {
		n += s.high.Len()
	}
	return n
}

// ForEach calls f on every set bit in ascending index order. Iteration stops
// early if f returns false.
func (s *Sparse) ForEach(f func(i uint64) bool) {
	if s.low != nil {
		for _, x := range s.low.AppendTo(nil) {
			if !f(uint64(x)) {
				return
			}
		}
	}
	if s.high != nil {
		for _, x := range s.high.AppendTo(nil) {
			if !f(uint64(x) + split) {
				return
			}
		}
	}
}

// Clone returns an independent copy of the vector.
func (s *Sparse) Clone() *Sparse {
	c := &Sparse{}
	if s.low != nil && !s.low.IsEmpty() {
		c.low = new(intsets.Sparse)
		c.low.Copy(s.low)
	}
	if s.high != nil && !s.high.IsEmpty() {
		c.high = new(intsets.Sparse)
		c.high.Copy(s.high)
	}
	return c
}

// Equal reports whether both vectors contain exactly the same bits.
func (s *Sparse) Equal(rhs *Sparse) bool {
	return halfEqual(s.low, rhs.low) && halfEqual(s.high, rhs.high)
}

func halfEqual(a, b *intsets.Sparse) bool {
	if a == nil || a.IsEmpty() {
		return b == nil || b.IsEmpty()
	}
	if b == nil || b.IsEmpty() {
		return false
	}
	return a.Equals(b)
}
