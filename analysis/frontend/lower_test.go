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

package frontend

import (
	"go/token"
	"go/types"
	"testing"
)

func field(name string, t types.Type) *types.Var {
	return types.NewField(token.NoPos, nil, name, t, false)
}

func TestPointerLike(t *testing.T) {
	intT := types.Typ[types.Int]
	strT := types.Typ[types.String]
	ptrT := types.NewPointer(intT)

	cases := []struct {
		name string
		t    types.Type
		want bool
	}{
		{"int", intT, false},
		{"string", strT, false},
		{"pointer", ptrT, true},
		{"slice", types.NewSlice(intT), true},
		{"map", types.NewMap(intT, intT), true},
		{"chan", types.NewChan(types.SendRecv, intT), true},
		{"interface", types.NewInterfaceType(nil, nil), true},
		{"flat struct", types.NewStruct([]*types.Var{field("a", intT), field("b", intT)}, nil), false},
		{"struct with pointer", types.NewStruct([]*types.Var{field("a", intT), field("p", ptrT)}, nil), true},
		{"array of int", types.NewArray(intT, 4), false},
		{"array of pointer", types.NewArray(ptrT, 4), true},
	}
	for _, c := range cases {
		if got := pointerLike(c.t); got != c.want {
			t.Errorf("pointerLike(%s) = %v, expected %v", c.name, got, c.want)
		}
	}
}

func TestDeref(t *testing.T) {
	intT := types.Typ[types.Int]
	if got := deref(types.NewPointer(intT)); got != intT {
		t.Errorf("deref(*int) = %v, expected int", got)
	}
	if got := deref(intT); got != intT {
		t.Errorf("deref(int) = %v, expected int", got)
	}
}

func TestSizeOf(t *testing.T) {
	b := &builder{sizes: types.SizesFor("gc", "amd64")}
	if got := b.sizeOf(types.Typ[types.Int64]); got != 8 {
		t.Errorf("sizeOf(int64) = %d, expected 8", got)
	}
	st := types.NewStruct([]*types.Var{
		field("a", types.Typ[types.Int64]),
		field("p", types.NewPointer(types.Typ[types.Int])),
	}, nil)
	if got := b.sizeOf(st); got != 16 {
		t.Errorf("sizeOf(struct) = %d, expected 16", got)
	}
}
