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

package model

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// CompleteEntity is an entity whose references have been resolved into the
// referenced entities themselves: one of *Node, *CompleteWay or
// *CompleteRelation.
type CompleteEntity interface {
	isComplete() // prevents extensions

	GetID() ID

	GetTags() map[string]string

	GetInfo() *Info

	Type() EntityType
}

// CompleteWay is a Way that owns its resolved nodes, in reference order.
type CompleteWay struct {
	ID    ID
	Tags  map[string]string
	Info  *Info
	Nodes []*Node
}

var _ CompleteEntity = (*CompleteWay)(nil)

func (w *CompleteWay) isComplete() {}

func (w *CompleteWay) GetID() ID {
	return w.ID
}

func (w *CompleteWay) GetTags() map[string]string {
	return w.Tags
}

func (w *CompleteWay) GetInfo() *Info {
	return w.Info
}

func (w *CompleteWay) Type() EntityType {
	return WAY
}

// IsClosed reports whether the first and last node are the same node.
func (w *CompleteWay) IsClosed() bool {
	return len(w.Nodes) > 2 && w.Nodes[0].ID == w.Nodes[len(w.Nodes)-1].ID
}

// LineString returns the way's nodes as an orb.LineString of lon/lat points.
func (w *CompleteWay) LineString() orb.LineString {
	ls := make(orb.LineString, 0, len(w.Nodes))
	for _, n := range w.Nodes {
		ls = append(ls, orb.Point{float64(n.Lon), float64(n.Lat)})
	}

	return ls
}

// Bound returns the bounding box of the way's nodes.
func (w *CompleteWay) Bound() orb.Bound {
	return w.LineString().Bound()
}

// Length returns the great-circle length of the way on the unit sphere.
func (w *CompleteWay) Length() Angle {
	var length s1.Angle

	for i := 1; i < len(w.Nodes); i++ {
		length += latLng(w.Nodes[i-1]).Distance(latLng(w.Nodes[i]))
	}

	return Angle(length)
}

func latLng(n *Node) s2.LatLng {
	return s2.LatLng{Lat: s1.Angle(n.Lat.Angle()), Lng: s1.Angle(n.Lon.Angle())}
}

// BoundingBoxOf returns the bounding box of the nodes held by e.  It is
// empty when e holds no node.
func BoundingBoxOf(e CompleteEntity) *BoundingBox {
	bbox := InitialBoundingBox()

	switch e := e.(type) {
	case *Node:
		bbox.ExpandWithLatLng(e.Lat, e.Lon)
	case *CompleteWay:
		for _, n := range e.Nodes {
			bbox.ExpandWithLatLng(n.Lat, n.Lon)
		}
	case *CompleteRelation:
		for _, m := range e.Members {
			bbox.ExpandWithBoundingBox(BoundingBoxOf(m.Entity))
		}
	}

	return bbox
}

// CompleteMember is a resolved relation member.
type CompleteMember struct {
	Role   string
	Entity CompleteEntity
}

// CompleteRelation is a Relation that owns its resolved members.
type CompleteRelation struct {
	ID      ID
	Tags    map[string]string
	Info    *Info
	Members []CompleteMember
}

var _ CompleteEntity = (*CompleteRelation)(nil)

func (r *CompleteRelation) isComplete() {}

func (r *CompleteRelation) GetID() ID {
	return r.ID
}

func (r *CompleteRelation) GetTags() map[string]string {
	return r.Tags
}

func (r *CompleteRelation) GetInfo() *Info {
	return r.Info
}

func (r *CompleteRelation) Type() EntityType {
	return RELATION
}
