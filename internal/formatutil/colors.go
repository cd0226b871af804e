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

// Package formatutil decorates terminal output.
package formatutil

import (
	"fmt"

	"golang.org/x/term"
)

const reset = "\033[0m"

// Color returns a function wrapping its arguments in the given ANSI escape
// code. The escape codes are only emitted when stdout is a terminal.
func Color(code string) func(...interface{}) string {
	return func(args ...interface{}) string {
		s := fmt.Sprint(args...)
		if !term.IsTerminal(1) {
			return s
		}
		return code + s + reset
	}
}

var (
	Bold   = Color("\033[1m")
	Faint  = Color("\033[2m")
	Red    = Color("\033[1;31m")
	Green  = Color("\033[1;32m")
	Yellow = Color("\033[1;33m")
)
