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
	"golang.org/x/exp/slices"
)

// MemoryMap is the abstract memory state at one program point: for every
// abstract object, the points-to set stored in each of its cells. Cells are
// keyed by byte offset; the unknown-offset cell stands for every offset of
// the object, so reads at a concrete offset also see it.
type MemoryMap struct {
	rep     Representation
	divisor uint64
	objects map[NodeID]map[Offset]PointsToSet
}

func newMemoryMap(g *Graph) *MemoryMap {
	return &MemoryMap{
		rep:     g.rep,
		divisor: g.divisor,
		objects: make(map[NodeID]map[Offset]PointsToSet),
	}
}

func (m *MemoryMap) newSet() PointsToSet { return NewSet(m.rep, m.divisor) }

func (m *MemoryMap) cell(target NodeID, off Offset) PointsToSet {
	cells := m.objects[target]
	if cells == nil {
		cells = make(map[Offset]PointsToSet)
		m.objects[target] = cells
	}
	s := cells[off]
	if s == nil {
		s = m.newSet()
		cells[off] = s
	}
	return s
}

func (m *MemoryMap) clone() *MemoryMap {
	c := &MemoryMap{
		rep:     m.rep,
		divisor: m.divisor,
		objects: make(map[NodeID]map[Offset]PointsToSet, len(m.objects)),
	}
	for t, cells := range m.objects {
		cc := make(map[Offset]PointsToSet, len(cells))
		for off, s := range cells {
			cc[off] = s.Clone()
		}
		c.objects[t] = cc
	}
	return c
}

// join unions other into m cell-wise and reports whether m changed.
func (m *MemoryMap) join(other *MemoryMap) bool {
	changed := false
	for t, cells := range other.objects {
		for off, s := range cells {
			if s.Empty() {
				continue
			}
			changed = m.cell(t, off).Union(s) || changed
		}
	}
	return changed
}

// read unions into dst the contents of object target visible through a
// pointer with the given offset, and reports whether dst changed. An
// unknown offset reads every cell; a concrete offset reads its own cell and
// the unknown-offset cell.
func (m *MemoryMap) read(target NodeID, off Offset, dst PointsToSet) bool {
	cells := m.objects[target]
	if cells == nil {
		return false
	}
	changed := false
	if off.IsUnknown() {
		for _, s := range cells {
			changed = dst.Union(s) || changed
		}
		return changed
	}
	if s := cells[off]; s != nil {
		changed = dst.Union(s) || changed
	}
	if s := cells[UnknownOffset]; s != nil {
		changed = dst.Union(s) || changed
	}
	return changed
}

// weakStore unions val into the cell (target, off).
func (m *MemoryMap) weakStore(target NodeID, off Offset, val PointsToSet) {
	m.cell(target, off).Union(val)
}

// strongStore replaces the cell (target, off) with val, killing its
// previous contents.
func (m *MemoryMap) strongStore(target NodeID, off Offset, val PointsToSet) {
	s := m.newSet()
	s.Union(val)
	cells := m.objects[target]
	if cells == nil {
		cells = make(map[Offset]PointsToSet)
		m.objects[target] = cells
	}
	cells[off] = s
}

// Objects returns the ids of every object with at least one non-empty
// cell, in ascending order.
func (m *MemoryMap) Objects() []NodeID {
	var ids []NodeID
	for t, cells := range m.objects {
		for _, s := range cells {
			if !s.Empty() {
				ids = append(ids, t)
				break
			}
		}
	}
	slices.Sort(ids)
	return ids
}

// CellOffsets returns the offsets of target's non-empty cells in ascending
// order, with the unknown offset last.
func (m *MemoryMap) CellOffsets(target NodeID) []Offset {
	cells := m.objects[target]
	var offs []Offset
	for off, s := range cells {
		if !s.Empty() {
			offs = append(offs, off)
		}
	}
	slices.Sort(offs)
	return offs
}

// Pointees returns the pointers stored in object target as seen through a
// pointer with the given offset.
func (m *MemoryMap) Pointees(target NodeID, off Offset) []Pointer {
	s := m.newSet()
	m.read(target, off, s)
	return Elements(s)
}
