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

import "sync"

// The bitvector-backed set representations embed targets and pointers into
// bit positions through process-wide interning tables. Ids are assigned
// monotonically starting at 1 and the reverse lookup stays stable for the
// process lifetime. All access goes through a single mutex: insertions are
// rare relative to lookups but a reader must never observe a torn append.

// targetInterner maps node ids to dense interned ids and back.
type targetInterner struct {
	mu  sync.Mutex
	ids map[NodeID]uint64
	rev []NodeID
}

func (ti *targetInterner) intern(t NodeID) uint64 {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	if id, ok := ti.ids[t]; ok {
		return id
	}
	if ti.ids == nil {
		ti.ids = make(map[NodeID]uint64)
	}
	ti.rev = append(ti.rev, t)
	id := uint64(len(ti.rev))
	ti.ids[t] = id
	return id
}

// lookupID returns the interned id of t without assigning one.
func (ti *targetInterner) lookupID(t NodeID) (uint64, bool) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	id, ok := ti.ids[t]
	return id, ok
}

// lookup returns the target interned under id. It panics on an id that was
// never assigned: such an id cannot come from a well-formed set.
func (ti *targetInterner) lookup(id uint64) NodeID {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	return ti.rev[id-1]
}

// snapshot returns every interned target in id order: the target with id i
// is at index i-1.
func (ti *targetInterner) snapshot() []NodeID {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	out := make([]NodeID, len(ti.rev))
	copy(out, ti.rev)
	return out
}

// pointerInterner maps whole pointers to dense interned ids and back.
type pointerInterner struct {
	mu  sync.Mutex
	ids map[Pointer]uint64
	rev []Pointer
}

func (pi *pointerInterner) intern(p Pointer) uint64 {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	if id, ok := pi.ids[p]; ok {
		return id
	}
	if pi.ids == nil {
		pi.ids = make(map[Pointer]uint64)
	}
	pi.rev = append(pi.rev, p)
	id := uint64(len(pi.rev))
	pi.ids[p] = id
	return id
}

func (pi *pointerInterner) lookupID(p Pointer) (uint64, bool) {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	id, ok := pi.ids[p]
	return id, ok
}

func (pi *pointerInterner) lookup(id uint64) Pointer {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	return pi.rev[id-1]
}

// snapshot returns every interned pointer in id order.
func (pi *pointerInterner) snapshot() []Pointer {
	pi.mu.Lock()
	defer pi.mu.Unlock()
	out := make([]Pointer, len(pi.rev))
	copy(out, pi.rev)
	return out
}

var (
	targets  = &targetInterner{}
	pointers = &pointerInterner{}
)

// InternTarget assigns (or retrieves) the process-wide dense id of target t.
// Exposed for diagnostics; representations call it internally.
func InternTarget(t NodeID) uint64 { return targets.intern(t) }

// LookupTarget is the inverse of InternTarget.
func LookupTarget(id uint64) NodeID { return targets.lookup(id) }

// InternPointer assigns (or retrieves) the process-wide dense id of p.
func InternPointer(p Pointer) uint64 { return pointers.intern(p) }

// LookupPointer is the inverse of InternPointer.
func LookupPointer(id uint64) Pointer { return pointers.lookup(id) }
