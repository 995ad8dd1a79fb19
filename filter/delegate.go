// Copyright 2017-26 the original author or authors.
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

package filter

import (
	"m4o.io/osmstream"
	"m4o.io/osmstream/model"
)

// DelegateFunc maps an entity to the entity to pass on, or to nil to drop
// it.  It may return its argument modified.
type DelegateFunc func(e model.Entity) model.Entity

// DelegateFilter passes every upstream entity through a DelegateFunc.  The
// ignore flags given to MoveNext apply to the entities the function returns.
type DelegateFilter struct {
	src osmstream.Source
	fn  DelegateFunc

	current model.Entity
}

var _ osmstream.Source = (*DelegateFilter)(nil)

func NewDelegateFilter(src osmstream.Source, fn DelegateFunc) *DelegateFilter {
	return &DelegateFilter{src: src, fn: fn}
}

func (f *DelegateFilter) Initialize() error {
	return f.src.Initialize()
}

func (f *DelegateFilter) MoveNext(ignore osmstream.Ignore) bool {
	f.current = nil

	for f.src.MoveNext(osmstream.IgnoreNone) {
		e := f.fn(f.src.Current())
		if e == nil || ignore.Skips(e.Type()) {
			continue
		}

		f.current = e

		return true
	}

	return false
}

func (f *DelegateFilter) Current() model.Entity {
	if f.current == nil {
		osmstream.NoCurrent("delegate filter")
	}

	return f.current
}

func (f *DelegateFilter) Err() error {
	return f.src.Err()
}

func (f *DelegateFilter) CanReset() bool {
	return f.src.CanReset()
}

func (f *DelegateFilter) Reset() error {
	f.current = nil

	return f.src.Reset()
}
