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

import "fmt"

// NodeID identifies a node of a pointer graph. IDs are assigned densely
// starting at 1 and are never reused; 0 is the invalid sentinel.
type NodeID uint32

// InvalidNode is the id of no node. It is never assigned to a live node.
const InvalidNode NodeID = 0

// Every graph reserves the first three ids for the distinguished sentinel
// targets. They participate in points-to sets as ordinary targets but carry
// semantic meaning for consumers: a pointer may be null, may point anywhere,
// or may point to freed memory.
const (
	NullPtr       NodeID = 1
	UnknownMemory NodeID = 2
	Invalidated   NodeID = 3
)

// Pointer is an element of a points-to set: an abstract memory object
// together with a byte offset into it.
type Pointer struct {
	Target NodeID
	Offset Offset
}

// Ptr is shorthand for constructing a Pointer.
func Ptr(t NodeID, o Offset) Pointer {
	return Pointer{Target: t, Offset: o}
}

// IsNull reports whether the pointer is the null pointer.
func (p Pointer) IsNull() bool { return p.Target == NullPtr }

// IsUnknown reports whether the pointer refers to unknown memory.
func (p Pointer) IsUnknown() bool { return p.Target == UnknownMemory }

// IsInvalidated reports whether the pointer refers to invalidated memory.
func (p Pointer) IsInvalidated() bool { return p.Target == Invalidated }

func (p Pointer) String() string {
	return fmt.Sprintf("(%d, %s)", uint32(p.Target), p.Offset)
}
