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

package model_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"m4o.io/osmstream/model"
)

func triangle() *model.CompleteWay {
	n1 := &model.Node{ID: 1, Lat: 0, Lon: 0}
	n2 := &model.Node{ID: 2, Lat: 1, Lon: 0}
	n3 := &model.Node{ID: 3, Lat: 0, Lon: 1}

	return &model.CompleteWay{
		ID:    1,
		Tags:  map[string]string{"area": "yes"},
		Nodes: []*model.Node{n1, n2, n3, n1},
	}
}

func TestCompleteWayGeometry(t *testing.T) {
	w := triangle()

	assert.True(t, w.IsClosed())
	assert.Equal(t, orb.LineString{{0, 0}, {0, 1}, {1, 0}, {0, 0}}, w.LineString())
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}, w.Bound())
	assert.Equal(t, model.WAY, w.Type())
	assert.Equal(t, "yes", w.GetTags()["area"])
}

func TestCompleteWayOpen(t *testing.T) {
	w := triangle()
	w.Nodes = w.Nodes[:3]
	assert.False(t, w.IsClosed())

	w.Nodes = []*model.Node{w.Nodes[0], w.Nodes[0]}
	assert.False(t, w.IsClosed())
}

func TestCompleteEntities(t *testing.T) {
	r := &model.CompleteRelation{
		ID: 9,
		Members: []model.CompleteMember{
			{Role: "outer", Entity: triangle()},
			{Role: "label", Entity: &model.Node{ID: 4}},
		},
	}

	types := make([]model.EntityType, 0, len(r.Members))
	for _, m := range r.Members {
		types = append(types, m.Entity.Type())
	}

	assert.Equal(t, []model.EntityType{model.WAY, model.NODE}, types)
	assert.Equal(t, model.RELATION, r.Type())
	assert.Equal(t, model.ID(9), r.GetID())
	assert.Nil(t, r.GetInfo())
}

func TestCompleteWayLength(t *testing.T) {
	w := triangle()
	w.Nodes = w.Nodes[:2]

	assert.True(t, model.Degrees(1).Angle().EqualWithin(w.Length(), model.E9))
	assert.InDelta(t, 111.195, w.Length().Kilometers(), 0.001)

	w.Nodes = w.Nodes[:1]
	assert.Zero(t, w.Length())
}

func TestBoundingBoxOf(t *testing.T) {
	r := &model.CompleteRelation{
		ID: 9,
		Members: []model.CompleteMember{
			{Role: "outer", Entity: triangle()},
			{Role: "label", Entity: &model.Node{ID: 4, Lat: 2, Lon: -1}},
			{Role: "subarea", Entity: &model.CompleteRelation{ID: 10}},
		},
	}

	bbox := model.BoundingBoxOf(r)
	assert.Equal(t, &model.BoundingBox{Top: 2, Left: -1, Bottom: 0, Right: 1}, bbox)
	assert.False(t, bbox.IsEmpty())

	assert.True(t, model.BoundingBoxOf(&model.CompleteRelation{ID: 10}).IsEmpty())
	assert.Equal(t, &model.BoundingBox{Top: 1, Left: 0, Bottom: 0, Right: 1}, model.BoundingBoxOf(triangle()))
}

func TestEntityTypeString(t *testing.T) {
	assert.Equal(t, "node", model.NODE.String())
	assert.Equal(t, "way", model.WAY.String())
	assert.Equal(t, "relation", model.RELATION.String())
	assert.Equal(t, "unknown", model.EntityType(7).String())
}
