// Copyright 2026 the original author or authors.
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

package osmstream

import (
	"fmt"

	"m4o.io/osmstream/model"
)

// Target is the write side of a stream.
type Target interface {
	Initialize() error
	AddNode(n *model.Node) error
	AddWay(w *model.Way) error
	AddRelation(r *model.Relation) error
	Close() error
}

// Pull initializes src and tgt, then drains src into tgt.  Closing tgt is
// left to the caller.
func Pull(src Source, tgt Target, ignore Ignore) error {
	if err := src.Initialize(); err != nil {
		return fmt.Errorf("error initializing source: %w", err)
	}

	if err := tgt.Initialize(); err != nil {
		return fmt.Errorf("error initializing target: %w", err)
	}

	for src.MoveNext(ignore) {
		if err := Dispatch(tgt, src.Current()); err != nil {
			return err
		}
	}

	return src.Err()
}

// Dispatch adds e to tgt using the method matching its type.
func Dispatch(tgt Target, e model.Entity) error {
	var err error

	switch e := e.(type) {
	case *model.Node:
		err = tgt.AddNode(e)
	case *model.Way:
		err = tgt.AddWay(e)
	case *model.Relation:
		err = tgt.AddRelation(e)
	}

	if err != nil {
		return fmt.Errorf("error adding %s %d: %w", e.Type(), e.GetID(), err)
	}

	return nil
}
