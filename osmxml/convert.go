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

package osmxml

import (
	"fmt"
	"slices"
	"time"

	"github.com/paulmach/osm"

	"m4o.io/osmstream/model"
)

// info holds the metadata attributes shared by the osm element types.
type info struct {
	user      string
	uid       osm.UserID
	visible   bool
	version   int
	changeset osm.ChangesetID
	timestamp time.Time
}

// toModel returns nil when the element carried no metadata.
func (i info) toModel() *model.Info {
	if i.user == "" && i.uid == 0 && i.version == 0 && i.changeset == 0 && i.timestamp.IsZero() {
		return nil
	}

	return &model.Info{
		Version:   int32(i.version),
		UID:       model.UID(i.uid),
		Timestamp: i.timestamp.UTC(),
		Changeset: int64(i.changeset),
		User:      i.user,
		Visible:   i.visible,
	}
}

func fromModelInfo(mi *model.Info) info {
	if mi == nil {
		return info{visible: true}
	}

	return info{
		user:      mi.User,
		uid:       osm.UserID(mi.UID),
		visible:   mi.Visible,
		version:   int(mi.Version),
		changeset: osm.ChangesetID(mi.Changeset),
		timestamp: mi.Timestamp,
	}
}

func fromTags(tags osm.Tags) map[string]string {
	m := make(map[string]string, len(tags))
	for _, t := range tags {
		m[t.Key] = t.Value
	}

	return m
}

// toTags sorts by key so that output is stable.
func toTags(tags map[string]string) osm.Tags {
	if len(tags) == 0 {
		return nil
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	out := make(osm.Tags, len(keys))
	for i, k := range keys {
		out[i] = osm.Tag{Key: k, Value: tags[k]}
	}

	return out
}

func fromNode(n *osm.Node) *model.Node {
	return &model.Node{
		ID:   model.ID(n.ID),
		Tags: fromTags(n.Tags),
		Info: info{n.User, n.UserID, n.Visible, n.Version, n.ChangesetID, n.Timestamp}.toModel(),
		Lat:  model.Degrees(n.Lat),
		Lon:  model.Degrees(n.Lon),
	}
}

func fromWay(w *osm.Way) *model.Way {
	ids := make([]model.ID, len(w.Nodes))
	for i, wn := range w.Nodes {
		ids[i] = model.ID(wn.ID)
	}

	return &model.Way{
		ID:      model.ID(w.ID),
		Tags:    fromTags(w.Tags),
		Info:    info{w.User, w.UserID, w.Visible, w.Version, w.ChangesetID, w.Timestamp}.toModel(),
		NodeIDs: ids,
	}
}

func fromMemberType(t osm.Type) (model.EntityType, bool) {
	switch t {
	case osm.TypeNode:
		return model.NODE, true
	case osm.TypeWay:
		return model.WAY, true
	case osm.TypeRelation:
		return model.RELATION, true
	default:
		return 0, false
	}
}

func toMemberType(t model.EntityType) osm.Type {
	switch t {
	case model.NODE:
		return osm.TypeNode
	case model.WAY:
		return osm.TypeWay
	default:
		return osm.TypeRelation
	}
}

func fromRelation(r *osm.Relation) (*model.Relation, error) {
	members := make([]model.Member, len(r.Members))

	for i, m := range r.Members {
		t, ok := fromMemberType(m.Type)
		if !ok {
			return nil, fmt.Errorf("relation %d: unknown member type %q", r.ID, m.Type)
		}

		members[i] = model.Member{ID: model.ID(m.Ref), Type: t, Role: m.Role}
	}

	return &model.Relation{
		ID:      model.ID(r.ID),
		Tags:    fromTags(r.Tags),
		Info:    info{r.User, r.UserID, r.Visible, r.Version, r.ChangesetID, r.Timestamp}.toModel(),
		Members: members,
	}, nil
}

func toNode(n *model.Node) *osm.Node {
	i := fromModelInfo(n.Info)

	return &osm.Node{
		ID:          osm.NodeID(n.ID),
		Lat:         float64(n.Lat),
		Lon:         float64(n.Lon),
		User:        i.user,
		UserID:      i.uid,
		Visible:     i.visible,
		Version:     i.version,
		ChangesetID: i.changeset,
		Timestamp:   i.timestamp,
		Tags:        toTags(n.Tags),
	}
}

func toWay(w *model.Way) *osm.Way {
	i := fromModelInfo(w.Info)

	nodes := make(osm.WayNodes, len(w.NodeIDs))
	for j, id := range w.NodeIDs {
		nodes[j] = osm.WayNode{ID: osm.NodeID(id)}
	}

	return &osm.Way{
		ID:          osm.WayID(w.ID),
		User:        i.user,
		UserID:      i.uid,
		Visible:     i.visible,
		Version:     i.version,
		ChangesetID: i.changeset,
		Timestamp:   i.timestamp,
		Nodes:       nodes,
		Tags:        toTags(w.Tags),
	}
}

func toRelation(r *model.Relation) *osm.Relation {
	i := fromModelInfo(r.Info)

	members := make(osm.Members, len(r.Members))
	for j, m := range r.Members {
		members[j] = osm.Member{Type: toMemberType(m.Type), Ref: int64(m.ID), Role: m.Role}
	}

	return &osm.Relation{
		ID:          osm.RelationID(r.ID),
		User:        i.user,
		UserID:      i.uid,
		Visible:     i.visible,
		Version:     i.version,
		ChangesetID: i.changeset,
		Timestamp:   i.timestamp,
		Members:     members,
		Tags:        toTags(r.Tags),
	}
}
