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
	"errors"
	"fmt"
	"strings"

	"m4o.io/osmstream/model"
)

var (
	// ErrMalformedBlock is wrapped by every error raised while reading or
	// decoding truncated or otherwise unparseable PBF data.
	ErrMalformedBlock = errors.New("malformed block")

	// ErrUnsupportedReset is returned by Reset when CanReset is false.
	ErrUnsupportedReset = errors.New("reset not supported")

	// ErrNoCurrent is the panic value of Current when there is no current
	// entity.
	ErrNoCurrent = errors.New("no current entity")

	// ErrNotInitialized is reported when a source is advanced before
	// Initialize was called.
	ErrNotInitialized = errors.New("not initialized")

	// ErrAlreadyInitialized is returned by a second call to Initialize.
	ErrAlreadyInitialized = errors.New("already initialized")

	// ErrNotFound is returned by a GeoSource when it has no entity with the
	// requested id.
	ErrNotFound = errors.New("entity not found")

	// ErrDanglingReference is matched by *DanglingReferenceError.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrCircularRelation is matched by *CircularRelationError.
	ErrCircularRelation = errors.New("circular relation")
)

// DanglingReferenceError reports a way or relation that references an entity
// absent from the lookup source.
type DanglingReferenceError struct {
	Type    model.EntityType
	ID      model.ID
	RefType model.EntityType
	RefID   model.ID
	Err     error
}

func (e *DanglingReferenceError) Error() string {
	msg := fmt.Sprintf("%s %d references missing %s %d", e.Type, e.ID, e.RefType, e.RefID)
	if e.Err != nil && !errors.Is(e.Err, ErrNotFound) {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *DanglingReferenceError) Is(target error) bool {
	return target == ErrDanglingReference
}

func (e *DanglingReferenceError) Unwrap() error {
	return e.Err
}

// CircularRelationError reports a relation that contains itself, directly or
// through nested relations.  Path lists the relations from the outermost one
// down to the repeated one.
type CircularRelationError struct {
	ID   model.ID
	Path []model.ID
}

func (e *CircularRelationError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = fmt.Sprint(id)
	}

	return fmt.Sprintf("relation %d is circular: %s", e.ID, strings.Join(parts, " -> "))
}

func (e *CircularRelationError) Is(target error) bool {
	return target == ErrCircularRelation
}
