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
	"m4o.io/osmstream/model"
)

// Collection is an ordered, in-memory list of entities.  It is a Target that
// appends what it is given and a resettable Source over what it holds.
type Collection struct {
	Entities []model.Entity

	initialized bool
	pos         int
	current     model.Entity
}

var (
	_ Source = (*Collection)(nil)
	_ Target = (*Collection)(nil)
)

// NewCollection returns a collection holding entities.
func NewCollection(entities ...model.Entity) *Collection {
	return &Collection{Entities: entities}
}

// Initialize implements Source and Target.  As a Target, a collection can be
// initialized any number of times and keeps its contents.
func (c *Collection) Initialize() error {
	c.initialized = true
	c.pos = 0
	c.current = nil

	return nil
}

func (c *Collection) MoveNext(ignore Ignore) bool {
	if !c.initialized {
		return false
	}

	for c.pos < len(c.Entities) {
		e := c.Entities[c.pos]
		c.pos++

		if !ignore.Skips(e.Type()) {
			c.current = e

			return true
		}
	}

	c.current = nil

	return false
}

func (c *Collection) Current() model.Entity {
	if c.current == nil {
		NoCurrent("collection")
	}

	return c.current
}

func (c *Collection) Err() error {
	if !c.initialized {
		return ErrNotInitialized
	}

	return nil
}

func (c *Collection) CanReset() bool {
	return true
}

func (c *Collection) Reset() error {
	c.pos = 0
	c.current = nil

	return nil
}

func (c *Collection) AddNode(n *model.Node) error {
	c.Entities = append(c.Entities, n)

	return nil
}

func (c *Collection) AddWay(w *model.Way) error {
	c.Entities = append(c.Entities, w)

	return nil
}

func (c *Collection) AddRelation(r *model.Relation) error {
	c.Entities = append(c.Entities, r)

	return nil
}

func (c *Collection) Close() error {
	return nil
}
