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

package pointsto_test

import (
	"math"
	"testing"

	"github.com/dgruntime/argus/analysis/pointsto"
)

func TestOffsetAdd(t *testing.T) {
	if got := pointsto.Offset(4).Add(8); got != 12 {
		t.Errorf("4+8 = %v, expected 12", got)
	}
	if got := pointsto.UnknownOffset.Add(8); !got.IsUnknown() {
		t.Errorf("unknown+8 = %v, expected unknown", got)
	}
	if got := pointsto.Offset(8).Add(pointsto.UnknownOffset); !got.IsUnknown() {
		t.Errorf("8+unknown = %v, expected unknown", got)
	}
	// additions near the top of the range saturate instead of wrapping
	if got := pointsto.Offset(math.MaxUint64 - 1).Add(8); !got.IsUnknown() {
		t.Errorf("saturating add = %v, expected unknown", got)
	}
}

func TestOffsetInRange(t *testing.T) {
	cases := []struct {
		o, lo, hi pointsto.Offset
		want      bool
	}{
		{4, 0, 8, true},
		{0, 0, 8, true},
		{8, 0, 8, true},
		{9, 0, 8, false},
		{4, 5, 8, false},
		{pointsto.UnknownOffset, 0, 8, true},
		{4, pointsto.UnknownOffset, 8, true},
		{4, 0, pointsto.UnknownOffset, true},
	}
	for _, c := range cases {
		if got := c.o.InRange(c.lo, c.hi); got != c.want {
			t.Errorf("InRange(%v, %v, %v) = %v, expected %v", c.o, c.lo, c.hi, got, c.want)
		}
	}
}

func TestOffsetLess(t *testing.T) {
	if !pointsto.Offset(3).Less(4) {
		t.Error("3 < 4 expected true")
	}
	if pointsto.Offset(4).Less(4) {
		t.Error("4 < 4 expected false")
	}
	// unknown is the top element, nothing is above it
	if pointsto.UnknownOffset.Less(4) {
		t.Error("unknown < 4 expected false")
	}
	if !pointsto.Offset(4).Less(pointsto.UnknownOffset) {
		t.Error("4 < unknown expected true")
	}
}

func TestOffsetString(t *testing.T) {
	if got := pointsto.Offset(16).String(); got != "16" {
		t.Errorf("String() = %q, expected %q", got, "16")
	}
	if got := pointsto.UnknownOffset.String(); got != "?" {
		t.Errorf("String() = %q, expected %q", got, "?")
	}
}
