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

package complete

import (
	"fmt"

	"m4o.io/osmstream"
	"m4o.io/osmstream/model"
)

// Buffer is an in-memory osmstream.GeoSource filled as an osmstream.Target.
// It holds every entity it is given for as long as it lives.
type Buffer struct {
	nodes     map[model.ID]*model.Node
	ways      map[model.ID]*model.Way
	relations map[model.ID]*model.Relation
}

var (
	_ osmstream.GeoSource = (*Buffer)(nil)
	_ osmstream.Target    = (*Buffer)(nil)
)

func NewBuffer() *Buffer {
	return &Buffer{
		nodes:     make(map[model.ID]*model.Node),
		ways:      make(map[model.ID]*model.Way),
		relations: make(map[model.ID]*model.Relation),
	}
}

func (b *Buffer) Initialize() error {
	return nil
}

func (b *Buffer) AddNode(n *model.Node) error {
	b.nodes[n.ID] = n

	return nil
}

func (b *Buffer) AddWay(w *model.Way) error {
	b.ways[w.ID] = w

	return nil
}

func (b *Buffer) AddRelation(r *model.Relation) error {
	b.relations[r.ID] = r

	return nil
}

func (b *Buffer) Close() error {
	return nil
}

// Len returns the number of entities held.
func (b *Buffer) Len() int {
	return len(b.nodes) + len(b.ways) + len(b.relations)
}

func (b *Buffer) GetNode(id model.ID) (*model.Node, error) {
	if n, ok := b.nodes[id]; ok {
		return n, nil
	}

	return nil, notFound(model.NODE, id)
}

func (b *Buffer) GetWay(id model.ID) (*model.Way, error) {
	if w, ok := b.ways[id]; ok {
		return w, nil
	}

	return nil, notFound(model.WAY, id)
}

func (b *Buffer) GetRelation(id model.ID) (*model.Relation, error) {
	if r, ok := b.relations[id]; ok {
		return r, nil
	}

	return nil, notFound(model.RELATION, id)
}

func notFound(t model.EntityType, id model.ID) error {
	return fmt.Errorf("%s %d: %w", t, id, osmstream.ErrNotFound)
}
