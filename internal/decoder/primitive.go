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

package decoder

import (
	"fmt"
	"time"

	"m4o.io/osmstream"
	"m4o.io/osmstream/internal/pb"
	"m4o.io/osmstream/model"
)

// Consumer receives the primitives of a block in the order they are stored.
// Each primitive is handed over exactly once.
type Consumer interface {
	ProcessNode(n *model.Node)
	ProcessWay(w *model.Way)
	ProcessRelation(r *model.Relation)
}

// ProcessPrimitiveBlock decodes every group of block and hands the decoded
// primitives, minus those ignored, to c.  It reports whether anything was
// handed over.  A malformed block may have been partially consumed when the
// error is returned.
func ProcessPrimitiveBlock(block *pb.PrimitiveBlock, c Consumer, ignore osmstream.Ignore) (bool, error) {
	bc := newBlockContext(block)

	var emitted bool

	for i, pg := range block.PrimitiveGroups {
		n, err := bc.processGroup(pg, c, ignore)
		if err != nil {
			return emitted, fmt.Errorf("primitive group %d: %w", i, err)
		}

		emitted = emitted || n > 0
	}

	return emitted, nil
}

func (c *blockContext) processGroup(pg *pb.PrimitiveGroup, consumer Consumer, ignore osmstream.Ignore) (int, error) {
	var n int

	if !ignore.Nodes {
		for _, node := range pg.Nodes {
			nd, err := c.decodeNode(node)
			if err != nil {
				return n, err
			}

			consumer.ProcessNode(nd)
			n++
		}

		if pg.Dense != nil {
			m, err := c.decodeDenseNodes(pg.Dense, consumer)
			n += m

			if err != nil {
				return n, err
			}
		}
	}

	if !ignore.Ways {
		for _, way := range pg.Ways {
			w, err := c.decodeWay(way)
			if err != nil {
				return n, err
			}

			consumer.ProcessWay(w)
			n++
		}
	}

	if !ignore.Relations {
		for _, relation := range pg.Relations {
			r, err := c.decodeRelation(relation)
			if err != nil {
				return n, err
			}

			consumer.ProcessRelation(r)
			n++
		}
	}

	return n, nil
}

type blockContext struct {
	strings         []string
	granularity     int32
	latOffset       int64
	lonOffset       int64
	dateGranularity int32
}

func newBlockContext(blk *pb.PrimitiveBlock) *blockContext {
	return &blockContext{
		strings:         blk.StringTable,
		granularity:     blk.Granularity,
		latOffset:       blk.LatOffset,
		lonOffset:       blk.LonOffset,
		dateGranularity: blk.DateGranularity,
	}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), osmstream.ErrMalformedBlock)
}

func (c *blockContext) str(i int64) (string, error) {
	if i < 0 || i >= int64(len(c.strings)) {
		return "", malformed("string index %d out of range [0, %d)", i, len(c.strings))
	}

	return c.strings[i], nil
}

func (c *blockContext) decodeNode(node *pb.Node) (*model.Node, error) {
	tags, err := c.decodeTags(node.Keys, node.Vals)
	if err != nil {
		return nil, fmt.Errorf("node %d: %w", node.ID, err)
	}

	info, err := c.decodeInfo(node.Info)
	if err != nil {
		return nil, fmt.Errorf("node %d: %w", node.ID, err)
	}

	return &model.Node{
		ID:   model.ID(node.ID),
		Tags: tags,
		Info: info,
		Lat:  model.ToDegrees(c.latOffset, c.granularity, node.Lat),
		Lon:  model.ToDegrees(c.lonOffset, c.granularity, node.Lon),
	}, nil
}

// decodeDenseNodes undoes the delta coding of the dense columns.  Every node
// is built from the running totals, except for the version which is stored
// as is, and the tags of node i start at the
// keys_vals cursor left behind by node i-1.
func (c *blockContext) decodeDenseNodes(dn *pb.DenseNodes, consumer Consumer) (int, error) {
	count := len(dn.ID)
	if len(dn.Lat) != count || len(dn.Lon) != count {
		return 0, malformed("dense nodes have %d ids, %d lats and %d lons", count, len(dn.Lat), len(dn.Lon))
	}

	di := dn.DenseInfo
	if di != nil {
		if err := checkDenseInfo(di, count); err != nil {
			return 0, err
		}
	}

	var (
		id, lat, lon         int64
		timestamp, changeset int64
		uid, sid             int32
	)

	cursor := 0

	for i := range count {
		id += dn.ID[i]
		lat += dn.Lat[i]
		lon += dn.Lon[i]

		node := &model.Node{
			ID:  model.ID(id),
			Lat: model.ToDegrees(c.latOffset, c.granularity, lat),
			Lon: model.ToDegrees(c.lonOffset, c.granularity, lon),
		}

		if di != nil {
			timestamp += di.Timestamp[i]
			changeset += di.Changeset[i]
			uid += di.UID[i]
			sid += di.UserSID[i]

			user, err := c.str(int64(sid))
			if err != nil {
				return i, fmt.Errorf("dense node %d: user: %w", id, err)
			}

			node.Info = &model.Info{
				Version:   di.Version[i],
				UID:       model.UID(uid),
				Timestamp: toTimestamp(c.dateGranularity, timestamp),
				Changeset: changeset,
				User:      user,
				Visible:   len(di.Visible) == 0 || di.Visible[i],
			}
		}

		tags, next, err := c.decodeDenseTags(dn.KeysVals, cursor)
		if err != nil {
			return i, fmt.Errorf("dense node %d: %w", id, err)
		}

		cursor = next
		node.Tags = tags

		consumer.ProcessNode(node)
	}

	if len(dn.KeysVals) > 0 && cursor != len(dn.KeysVals) {
		return count, malformed("%d trailing keys_vals entries", len(dn.KeysVals)-cursor)
	}

	return count, nil
}

func checkDenseInfo(di *pb.DenseInfo, count int) error {
	lengths := []struct {
		column string
		n      int
	}{
		{"version", len(di.Version)},
		{"timestamp", len(di.Timestamp)},
		{"changeset", len(di.Changeset)},
		{"uid", len(di.UID)},
		{"user_sid", len(di.UserSID)},
	}

	for _, l := range lengths {
		if l.n != count {
			return malformed("dense info has %d %s values for %d nodes", l.n, l.column, count)
		}
	}

	if len(di.Visible) != 0 && len(di.Visible) != count {
		return malformed("dense info has %d visible values for %d nodes", len(di.Visible), count)
	}

	return nil
}

// decodeDenseTags reads the key/value pairs of one node starting at cursor,
// up to and including the terminating 0, and returns the cursor of the next
// node.  An empty keysVals means that no node in the block has tags.
func (c *blockContext) decodeDenseTags(keysVals []int32, cursor int) (map[string]string, int, error) {
	tags := make(map[string]string)

	if len(keysVals) == 0 {
		return tags, cursor, nil
	}

	for {
		if cursor >= len(keysVals) {
			return nil, cursor, malformed("keys_vals exhausted at %d", cursor)
		}

		k := keysVals[cursor]
		if k == 0 {
			return tags, cursor + 1, nil
		}

		if cursor+1 >= len(keysVals) {
			return nil, cursor, malformed("key at %d has no value", cursor)
		}

		key, err := c.str(int64(k))
		if err != nil {
			return nil, cursor, err
		}

		val, err := c.str(int64(keysVals[cursor+1]))
		if err != nil {
			return nil, cursor, err
		}

		tags[key] = val
		cursor += 2
	}
}

func (c *blockContext) decodeWay(way *pb.Way) (*model.Way, error) {
	tags, err := c.decodeTags(way.Keys, way.Vals)
	if err != nil {
		return nil, fmt.Errorf("way %d: %w", way.ID, err)
	}

	info, err := c.decodeInfo(way.Info)
	if err != nil {
		return nil, fmt.Errorf("way %d: %w", way.ID, err)
	}

	nodeIDs := make([]model.ID, len(way.Refs))

	var nodeID int64

	for i, delta := range way.Refs {
		nodeID += delta
		nodeIDs[i] = model.ID(nodeID)
	}

	return &model.Way{
		ID:      model.ID(way.ID),
		Tags:    tags,
		Info:    info,
		NodeIDs: nodeIDs,
	}, nil
}

func (c *blockContext) decodeRelation(relation *pb.Relation) (*model.Relation, error) {
	tags, err := c.decodeTags(relation.Keys, relation.Vals)
	if err != nil {
		return nil, fmt.Errorf("relation %d: %w", relation.ID, err)
	}

	info, err := c.decodeInfo(relation.Info)
	if err != nil {
		return nil, fmt.Errorf("relation %d: %w", relation.ID, err)
	}

	members, err := c.decodeMembers(relation)
	if err != nil {
		return nil, fmt.Errorf("relation %d: %w", relation.ID, err)
	}

	return &model.Relation{
		ID:      model.ID(relation.ID),
		Tags:    tags,
		Info:    info,
		Members: members,
	}, nil
}

func (c *blockContext) decodeMembers(relation *pb.Relation) ([]model.Member, error) {
	memids := relation.MemIDs
	if len(relation.Types) != len(memids) || len(relation.RolesSID) != len(memids) {
		return nil, malformed("%d member ids, %d types and %d roles", len(memids), len(relation.Types), len(relation.RolesSID))
	}

	members := make([]model.Member, len(memids))

	var memid int64

	for i := range memids {
		memid += memids[i]

		t, err := decodeMemberType(relation.Types[i])
		if err != nil {
			return nil, err
		}

		role, err := c.str(int64(relation.RolesSID[i]))
		if err != nil {
			return nil, err
		}

		members[i] = model.Member{
			ID:   model.ID(memid),
			Type: t,
			Role: role,
		}
	}

	return members, nil
}

func (c *blockContext) decodeTags(keyIDs, valIDs []uint32) (map[string]string, error) {
	if len(keyIDs) != len(valIDs) {
		return nil, malformed("%d keys but %d values", len(keyIDs), len(valIDs))
	}

	tags := make(map[string]string, len(keyIDs))

	for i, keyID := range keyIDs {
		key, err := c.str(int64(keyID))
		if err != nil {
			return nil, err
		}

		val, err := c.str(int64(valIDs[i]))
		if err != nil {
			return nil, err
		}

		tags[key] = val
	}

	return tags, nil
}

// decodeInfo returns nil when the primitive carries no metadata.
func (c *blockContext) decodeInfo(info *pb.Info) (*model.Info, error) {
	if info == nil {
		return nil, nil
	}

	user, err := c.str(int64(info.UserSID))
	if err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}

	i := &model.Info{
		Version:   info.Version,
		UID:       model.UID(info.UID),
		Timestamp: toTimestamp(c.dateGranularity, info.Timestamp),
		Changeset: info.Changeset,
		User:      user,
		Visible:   true,
	}

	if info.Visible != nil {
		i.Visible = *info.Visible
	}

	return i, nil
}

// decodeMemberType converts a pb.MemberType to a EntityType.
func decodeMemberType(mt pb.MemberType) (model.EntityType, error) {
	switch mt {
	case pb.MemberNode:
		return model.NODE, nil
	case pb.MemberWay:
		return model.WAY, nil
	case pb.MemberRelation:
		return model.RELATION, nil
	default:
		return 0, malformed("unrecognized member type %d", mt)
	}
}

// toTimestamp converts a timestamp with a specific granularity, in units of
// milliseconds, to a UTC timestamp of type Time.
func toTimestamp(granularity int32, timestamp int64) time.Time {
	return time.UnixMilli(timestamp * int64(granularity)).UTC()
}
