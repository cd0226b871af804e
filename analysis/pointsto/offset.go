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
	"fmt"
	"math"
)

// Offset is a byte offset into an abstract memory object. It is either a
// concrete non-negative integer or UnknownOffset, the top element of the
// offset domain. UnknownOffset is absorbing: any arithmetic involving it
// yields UnknownOffset again.
type Offset uint64

// UnknownOffset is the top element of the offset domain.
const UnknownOffset Offset = math.MaxUint64

// IsUnknown reports whether o is the top element.
func (o Offset) IsUnknown() bool {
	return o == UnknownOffset
}

// Add returns o + k, saturating to UnknownOffset on top operands or on
// arithmetic overflow.
func (o Offset) Add(k Offset) Offset {
	if o.IsUnknown() || k.IsUnknown() {
		return UnknownOffset
	}
	if sum := o + k; sum >= o {
		return sum
	}
	return UnknownOffset
}

// Less reports whether o is strictly smaller than k. UnknownOffset compares
// greater than every concrete offset and is not smaller than itself.
func (o Offset) Less(k Offset) bool {
	return o < k
}

// InRange reports whether o lies in [lo, hi]. An unknown offset or bound
// makes the answer conservatively true.
func (o Offset) InRange(lo, hi Offset) bool {
	if o.IsUnknown() || lo.IsUnknown() || hi.IsUnknown() {
		return true
	}
	return lo <= o && o <= hi
}

func (o Offset) String() string {
	if o.IsUnknown() {
		return "?"
	}
	return fmt.Sprintf("%d", uint64(o))
}
