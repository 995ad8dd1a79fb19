// Copyright 2025-26 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package encoder

import "sort"

const (
	notUsed = ""
)

// Strings collects the distinct strings of a block.
type Strings struct {
	tbl map[string]struct{}
}

// Table is the sorted string table of a block.  Index 0 is the empty string,
// which doubles as the dense tags delimiter.
type Table struct {
	tbl     map[string]int32
	strings []string
}

func NewStrings() *Strings {
	return &Strings{
		tbl: make(map[string]struct{}),
	}
}

func (s *Strings) Add(value string) {
	s.tbl[value] = struct{}{}
}

func (s *Strings) CalcTable() *Table {
	strings := make([]string, 0, len(s.tbl)+1)

	// Index 0 is used by pb.DenseNodes to encode tags.  We insert an empty
	// string that will be at index 0 after the array has been sorted.
	strings = append(strings, notUsed)

	for k := range s.tbl {
		if k != notUsed {
			strings = append(strings, k)
		}
	}

	sort.Strings(strings)

	tbl := make(map[string]int32, len(strings))
	for i, k := range strings {
		tbl[k] = int32(i)
	}

	return &Table{
		tbl:     tbl,
		strings: strings,
	}
}

// IndexOf returns the index of value, which must have been added to the
// Strings the table was calculated from.
func (t *Table) IndexOf(value string) int32 {
	index, ok := t.tbl[value]
	if !ok {
		panic("string " + value + " is not in the table")
	}

	return index
}

func (t *Table) AsArray() []string {
	return t.strings
}
