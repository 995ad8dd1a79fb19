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

// Package osmstream defines the pull-based stream contracts shared by the
// OpenStreetMap sources, filters and targets of this module.
//
// A Source is drained by calling MoveNext until it returns false and then
// checking Err:
//
//	if err := src.Initialize(); err != nil {
//		return err
//	}
//	for src.MoveNext(osmstream.Ignore{}) {
//		switch e := src.Current().(type) {
//		case *model.Node:
//		case *model.Way:
//		case *model.Relation:
//		}
//	}
//	return src.Err()
package osmstream

import (
	"fmt"

	"m4o.io/osmstream/model"
)

// Ignore selects the entity types a MoveNext call skips.
type Ignore struct {
	Nodes     bool
	Ways      bool
	Relations bool
}

// IgnoreNone ignores nothing.
var IgnoreNone = Ignore{}

// Skips reports whether an entity of type t is ignored.
func (i Ignore) Skips(t model.EntityType) bool {
	switch t {
	case model.NODE:
		return i.Nodes
	case model.WAY:
		return i.Ways
	case model.RELATION:
		return i.Relations
	default:
		return true
	}
}

// Source is a forward-only stream of entities.  Implementations are not safe
// for concurrent use.
type Source interface {
	// Initialize prepares the source and must be called exactly once before
	// the first MoveNext.
	Initialize() error

	// MoveNext advances to the next entity whose type is not ignored.  It
	// returns false when the stream is exhausted or failed; Err tells the two
	// apart.
	MoveNext(ignore Ignore) bool

	// Current returns the entity produced by the last successful MoveNext.
	// It panics with ErrNoCurrent when there is none.
	Current() model.Entity

	// Err returns the error that ended the stream, or nil at a clean end.
	Err() error

	// CanReset reports whether Reset is supported.
	CanReset() bool

	// Reset rewinds the source to its first entity, ready for MoveNext.  It
	// returns ErrUnsupportedReset when CanReset is false.
	Reset() error
}

// GeoSource looks entities up by id.  Absence is reported with an error
// matching ErrNotFound.
type GeoSource interface {
	GetNode(id model.ID) (*model.Node, error)
	GetWay(id model.ID) (*model.Way, error)
	GetRelation(id model.ID) (*model.Relation, error)
}

// NoCurrent panics with ErrNoCurrent, naming the misused source.
func NoCurrent(source string) {
	panic(fmt.Errorf("%s: %w", source, ErrNoCurrent))
}
