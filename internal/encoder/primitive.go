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

import (
	"sort"
	"time"

	"golang.org/x/exp/constraints"

	"m4o.io/osmstream/internal/pb"
	"m4o.io/osmstream/model"
)

const (
	DateGranularityMs = 1000
	Granularity       = 100
	LatOffset         = 0
	LonOffset         = 0

	// EntityLimit is the max number of entities in a pb.PrimitiveBlock.
	// Certain programs (e.g. osmosis 0.38) limit the number of entities in
	// each block to 8000 when writing PBF format.
	EntityLimit = 8000
)

type blockContext struct {
	table    *Table
	entities []model.Entity
}

func newBlockContext(entities []model.Entity) *blockContext {
	strings := NewStrings()

	for _, e := range entities {
		extractTagsAndInfo(strings, e)

		if r, ok := e.(*model.Relation); ok {
			extractMemberRoles(strings, r)
		}
	}

	return &blockContext{
		table:    strings.CalcTable(),
		entities: entities,
	}
}

// extractPrimitiveBlock encodes the entities, which must all be of the same
// type, as a block holding a single group.
func (bc *blockContext) extractPrimitiveBlock() *pb.PrimitiveBlock {
	pg := &pb.PrimitiveGroup{}

	if len(bc.entities) > 0 {
		switch bc.entities[0].(type) {
		case *model.Node:
			pg.Dense = bc.extractDenseNodes()
		case *model.Way:
			pg.Ways = bc.extractWays()
		case *model.Relation:
			pg.Relations = bc.extractRelations()
		}
	}

	return &pb.PrimitiveBlock{
		StringTable:     bc.table.AsArray(),
		PrimitiveGroups: []*pb.PrimitiveGroup{pg},
		Granularity:     Granularity,
		LatOffset:       LatOffset,
		LonOffset:       LonOffset,
		DateGranularity: DateGranularityMs,
	}
}

func (bc *blockContext) extractDenseNodes() *pb.DenseNodes {
	dn := &pb.DenseNodes{}

	ids := make([]int64, 0, len(bc.entities))

	lats := make([]int64, 0, len(bc.entities))
	lons := make([]int64, 0, len(bc.entities))

	versions := make([]int32, 0, len(bc.entities))
	uids := make([]int32, 0, len(bc.entities))
	ts := make([]int64, 0, len(bc.entities))
	cs := make([]int64, 0, len(bc.entities))
	usids := make([]int32, 0, len(bc.entities))
	visible := make([]bool, 0, len(bc.entities))

	var hasInfo, hasHidden bool

	keyValIDs := make([]int32, 0)

	for _, e := range bc.entities {
		n, ok := e.(*model.Node)
		if !ok {
			continue
		}

		ids = append(ids, int64(n.ID))
		lats = append(lats, model.ToCoordinate(LatOffset, Granularity, n.Lat))
		lons = append(lons, model.ToCoordinate(LonOffset, Granularity, n.Lon))

		// Nodes without metadata share the columns with zero values.
		info := n.GetInfo()
		if info == nil {
			info = &model.Info{Visible: true}
		} else {
			hasInfo = true
		}

		hasHidden = hasHidden || !info.Visible

		versions = append(versions, info.Version)
		uids = append(uids, int32(info.UID))
		ts = append(ts, fromTimestamp(DateGranularityMs, info.Timestamp))
		cs = append(cs, info.Changeset)
		usids = append(usids, bc.table.IndexOf(info.User))
		visible = append(visible, info.Visible)

		kIDs, vIDs := calcTagIDs(n.Tags, bc.table)
		for i, k := range kIDs {
			keyValIDs = append(keyValIDs, int32(k), int32(vIDs[i]))
		}

		keyValIDs = append(keyValIDs, 0)
	}

	dn.ID = calcDeltas(ids)
	dn.Lat = calcDeltas(lats)
	dn.Lon = calcDeltas(lons)
	dn.KeysVals = keyValIDs

	if hasInfo {
		dn.DenseInfo = &pb.DenseInfo{
			Version:   versions, // not delta coded
			Timestamp: calcDeltas(ts),
			Changeset: calcDeltas(cs),
			UID:       calcDeltas(uids),
			UserSID:   calcDeltas(usids),
		}

		if hasHidden {
			dn.DenseInfo.Visible = visible
		}
	}

	return dn
}

func (bc *blockContext) extractWays() []*pb.Way {
	var ways []*pb.Way

	for _, e := range bc.entities {
		if w, ok := e.(*model.Way); ok {
			refs := make([]int64, len(w.NodeIDs))

			for i, r := range w.NodeIDs {
				refs[i] = int64(r)
			}

			keyIDs, valIDs := calcTagIDs(w.Tags, bc.table)

			way := &pb.Way{
				ID:   int64(w.ID),
				Keys: keyIDs,
				Vals: valIDs,
				Info: toInfoPb(w.Info, bc.table),
				Refs: calcDeltas(refs),
			}

			ways = append(ways, way)
		}
	}

	return ways
}

func (bc *blockContext) extractRelations() []*pb.Relation {
	var relations []*pb.Relation

	for _, e := range bc.entities {
		if r, ok := e.(*model.Relation); ok {
			keyIDs, valIDs := calcTagIDs(r.Tags, bc.table)
			memids := make([]int64, len(r.Members))
			roleids := make([]int32, len(r.Members))
			types := make([]pb.MemberType, len(r.Members))

			for i, m := range r.Members {
				memids[i] = int64(m.ID)
				roleids[i] = bc.table.IndexOf(m.Role)
				types[i] = pb.MemberType(m.Type)
			}

			relation := &pb.Relation{
				ID:       int64(r.ID),
				Keys:     keyIDs,
				Vals:     valIDs,
				Info:     toInfoPb(r.Info, bc.table),
				RolesSID: roleids,
				MemIDs:   calcDeltas(memids),
				Types:    types,
			}

			relations = append(relations, relation)
		}
	}

	return relations
}

func extractMemberRoles(strings *Strings, r *model.Relation) {
	for _, m := range r.Members {
		strings.Add(m.Role)
	}
}

func extractTagsAndInfo(strings *Strings, e model.Entity) {
	for k, v := range e.GetTags() {
		strings.Add(k)
		strings.Add(v)
	}

	if info := e.GetInfo(); info != nil {
		strings.Add(info.User)
	}
}

// calcDeltas calculates the delta-encoding of the values.
func calcDeltas[T interface {
	constraints.Integer | constraints.Float
}](values []T) []T {
	prev := T(0)
	deltas := make([]T, len(values))

	for i, id := range values {
		deltas[i] = id - prev
		prev = id
	}

	return deltas
}

func calcTagIDs(tags map[string]string, table *Table) (keyIDs []uint32, valIDs []uint32) {
	keys := make([]string, 0, len(tags))

	for k := range tags {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		keyIDs = append(keyIDs, uint32(table.IndexOf(k)))
		valIDs = append(valIDs, uint32(table.IndexOf(tags[k])))
	}

	return keyIDs, valIDs
}

func toInfoPb(info *model.Info, table *Table) *pb.Info {
	if info == nil {
		return nil
	}

	visible := info.Visible

	return &pb.Info{
		Version:   info.Version,
		Timestamp: fromTimestamp(DateGranularityMs, info.Timestamp),
		Changeset: info.Changeset,
		UID:       int32(info.UID),
		UserSID:   uint32(table.IndexOf(info.User)),
		Visible:   &visible,
	}
}

// fromTimestamp converts a UTC timestamp of type Time to a timestamp with a
// specific granularity, in units of milliseconds.
func fromTimestamp(granularity int32, timestamp time.Time) int64 {
	if timestamp.IsZero() {
		return 0
	}

	millis := timestamp.UnixMilli()

	return millis / int64(granularity)
}
