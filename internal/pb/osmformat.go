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

package pb

import (
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	// DefaultGranularity is the coordinate granularity, in nanodegrees, of a
	// block that does not set one.
	DefaultGranularity = 100

	// DefaultDateGranularity is the timestamp granularity, in milliseconds, of
	// a block that does not set one.
	DefaultDateGranularity = 1000

	// DefaultVersion is the version of an Info that does not set one.
	DefaultVersion = -1
)

type unmarshaler interface {
	Unmarshal(b []byte) error
}

// message decodes an embedded message field into m.
func message(typ protowire.Type, v []byte, m unmarshaler) error {
	b, err := length(typ, v)
	if err != nil {
		return err
	}

	return m.Unmarshal(b)
}

// PrimitiveBlock is the content of an OSMData blob.
type PrimitiveBlock struct {
	// StringTable holds the block's strings.  Index 0 is reserved as a
	// delimiter and is always the empty string.
	StringTable     []string
	PrimitiveGroups []*PrimitiveGroup
	Granularity     int32
	LatOffset       int64
	LonOffset       int64
	DateGranularity int32
}

func (blk *PrimitiveBlock) Unmarshal(b []byte) error {
	*blk = PrimitiveBlock{
		Granularity:     DefaultGranularity,
		DateGranularity: DefaultDateGranularity,
	}

	return walk("PrimitiveBlock", b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 1:
			return message(typ, v, (*stringTable)(&blk.StringTable))
		case 2:
			pg := &PrimitiveGroup{}
			if err := message(typ, v, pg); err != nil {
				return err
			}

			blk.PrimitiveGroups = append(blk.PrimitiveGroups, pg)
		case 17, 18, 19, 20:
			x, err := varint(typ, v)
			if err != nil {
				return err
			}

			switch num {
			case 17:
				blk.Granularity = int32(x)
			case 18:
				blk.DateGranularity = int32(x)
			case 19:
				blk.LatOffset = int64(x)
			case 20:
				blk.LonOffset = int64(x)
			}
		}

		return nil
	})
}

func (blk *PrimitiveBlock) Marshal() []byte {
	var b []byte

	b = appendBytes(b, 1, stringTable(blk.StringTable).Marshal())

	for _, pg := range blk.PrimitiveGroups {
		b = appendBytes(b, 2, pg.Marshal())
	}

	b = appendVarint(b, 17, fromInt32(blk.Granularity))
	b = appendVarint(b, 18, fromInt32(blk.DateGranularity))

	if blk.LatOffset != 0 {
		b = appendVarint(b, 19, fromInt64(blk.LatOffset))
	}

	if blk.LonOffset != 0 {
		b = appendVarint(b, 20, fromInt64(blk.LonOffset))
	}

	return b
}

type stringTable []string

func (st *stringTable) Unmarshal(b []byte) error {
	return walk("StringTable", b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num != 1 {
			return nil
		}

		s, err := length(typ, v)
		if err != nil {
			return err
		}

		*st = append(*st, string(s))

		return nil
	})
}

func (st stringTable) Marshal() []byte {
	var b []byte

	for _, s := range st {
		b = appendString(b, 1, s)
	}

	return b
}

// PrimitiveGroup holds primitives of a single kind.
type PrimitiveGroup struct {
	Nodes      []*Node
	Dense      *DenseNodes
	Ways       []*Way
	Relations  []*Relation
	Changesets int
}

func (pg *PrimitiveGroup) Unmarshal(b []byte) error {
	*pg = PrimitiveGroup{}

	return walk("PrimitiveGroup", b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 1:
			n := &Node{}
			if err := message(typ, v, n); err != nil {
				return err
			}

			pg.Nodes = append(pg.Nodes, n)
		case 2:
			pg.Dense = &DenseNodes{}

			return message(typ, v, pg.Dense)
		case 3:
			w := &Way{}
			if err := message(typ, v, w); err != nil {
				return err
			}

			pg.Ways = append(pg.Ways, w)
		case 4:
			r := &Relation{}
			if err := message(typ, v, r); err != nil {
				return err
			}

			pg.Relations = append(pg.Relations, r)
		case 5:
			pg.Changesets++
		}

		return nil
	})
}

func (pg *PrimitiveGroup) Marshal() []byte {
	var b []byte

	for _, n := range pg.Nodes {
		b = appendBytes(b, 1, n.Marshal())
	}

	if pg.Dense != nil {
		b = appendBytes(b, 2, pg.Dense.Marshal())
	}

	for _, w := range pg.Ways {
		b = appendBytes(b, 3, w.Marshal())
	}

	for _, r := range pg.Relations {
		b = appendBytes(b, 4, r.Marshal())
	}

	return b
}

// Info is the optional metadata of a non-dense primitive.
type Info struct {
	Version   int32
	Timestamp int64
	Changeset int64
	UID       int32
	UserSID   uint32
	Visible   *bool
}

func (in *Info) Unmarshal(b []byte) error {
	*in = Info{Version: DefaultVersion}

	return walk("Info", b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num < 1 || num > 6 {
			return nil
		}

		x, err := varint(typ, v)
		if err != nil {
			return err
		}

		switch num {
		case 1:
			in.Version = int32(x)
		case 2:
			in.Timestamp = int64(x)
		case 3:
			in.Changeset = int64(x)
		case 4:
			in.UID = int32(x)
		case 5:
			in.UserSID = uint32(x)
		case 6:
			visible := boolv(x)
			in.Visible = &visible
		}

		return nil
	})
}

func (in *Info) Marshal() []byte {
	var b []byte

	b = appendVarint(b, 1, fromInt32(in.Version))
	b = appendVarint(b, 2, fromInt64(in.Timestamp))
	b = appendVarint(b, 3, fromInt64(in.Changeset))
	b = appendVarint(b, 4, fromInt32(in.UID))
	b = appendVarint(b, 5, fromUint32(in.UserSID))

	if in.Visible != nil {
		b = appendVarint(b, 6, fromBool(*in.Visible))
	}

	return b
}

// DenseInfo is the column-oriented metadata of DenseNodes.  All columns but
// Visible are delta coded.
type DenseInfo struct {
	Version   []int32
	Timestamp []int64
	Changeset []int64
	UID       []int32
	UserSID   []int32
	Visible   []bool
}

func (di *DenseInfo) Unmarshal(b []byte) error {
	*di = DenseInfo{}

	return walk("DenseInfo", b, func(num protowire.Number, typ protowire.Type, v []byte) (err error) {
		switch num {
		case 1:
			di.Version, err = packed(di.Version, typ, v, int32v)
		case 2:
			di.Timestamp, err = packed(di.Timestamp, typ, v, sint64)
		case 3:
			di.Changeset, err = packed(di.Changeset, typ, v, sint64)
		case 4:
			di.UID, err = packed(di.UID, typ, v, sint32)
		case 5:
			di.UserSID, err = packed(di.UserSID, typ, v, sint32)
		case 6:
			di.Visible, err = packed(di.Visible, typ, v, boolv)
		}

		return err
	})
}

func (di *DenseInfo) Marshal() []byte {
	var b []byte

	b = appendPacked(b, 1, di.Version, fromInt32)
	b = appendPacked(b, 2, di.Timestamp, zigzag64)
	b = appendPacked(b, 3, di.Changeset, zigzag64)
	b = appendPacked(b, 4, di.UID, zigzag32)
	b = appendPacked(b, 5, di.UserSID, zigzag32)

	return appendPacked(b, 6, di.Visible, fromBool)
}

// Node is a non-dense node.
type Node struct {
	ID   int64
	Keys []uint32
	Vals []uint32
	Info *Info
	Lat  int64
	Lon  int64
}

func (n *Node) Unmarshal(b []byte) error {
	*n = Node{}

	return walk("Node", b, func(num protowire.Number, typ protowire.Type, v []byte) (err error) {
		switch num {
		case 1, 8, 9:
			var x uint64
			if x, err = varint(typ, v); err != nil {
				return err
			}

			switch num {
			case 1:
				n.ID = sint64(x)
			case 8:
				n.Lat = sint64(x)
			case 9:
				n.Lon = sint64(x)
			}
		case 2:
			n.Keys, err = packed(n.Keys, typ, v, uint32v)
		case 3:
			n.Vals, err = packed(n.Vals, typ, v, uint32v)
		case 4:
			n.Info = &Info{}
			err = message(typ, v, n.Info)
		}

		return err
	})
}

func (n *Node) Marshal() []byte {
	var b []byte

	b = appendVarint(b, 1, zigzag64(n.ID))
	b = appendPacked(b, 2, n.Keys, fromUint32)
	b = appendPacked(b, 3, n.Vals, fromUint32)

	if n.Info != nil {
		b = appendBytes(b, 4, n.Info.Marshal())
	}

	b = appendVarint(b, 8, zigzag64(n.Lat))

	return appendVarint(b, 9, zigzag64(n.Lon))
}

// DenseNodes is the column-oriented, delta coded form of a run of nodes.
// KeysVals holds, per node, alternating key and value string indices closed
// by a 0.
type DenseNodes struct {
	ID        []int64
	DenseInfo *DenseInfo
	Lat       []int64
	Lon       []int64
	KeysVals  []int32
}

func (dn *DenseNodes) Unmarshal(b []byte) error {
	*dn = DenseNodes{}

	return walk("DenseNodes", b, func(num protowire.Number, typ protowire.Type, v []byte) (err error) {
		switch num {
		case 1:
			dn.ID, err = packed(dn.ID, typ, v, sint64)
		case 5:
			dn.DenseInfo = &DenseInfo{}
			err = message(typ, v, dn.DenseInfo)
		case 8:
			dn.Lat, err = packed(dn.Lat, typ, v, sint64)
		case 9:
			dn.Lon, err = packed(dn.Lon, typ, v, sint64)
		case 10:
			dn.KeysVals, err = packed(dn.KeysVals, typ, v, int32v)
		}

		return err
	})
}

func (dn *DenseNodes) Marshal() []byte {
	var b []byte

	b = appendPacked(b, 1, dn.ID, zigzag64)

	if dn.DenseInfo != nil {
		b = appendBytes(b, 5, dn.DenseInfo.Marshal())
	}

	b = appendPacked(b, 8, dn.Lat, zigzag64)
	b = appendPacked(b, 9, dn.Lon, zigzag64)

	return appendPacked(b, 10, dn.KeysVals, fromInt32)
}

// Way is a way whose Refs are delta coded node ids.
type Way struct {
	ID   int64
	Keys []uint32
	Vals []uint32
	Info *Info
	Refs []int64
}

func (w *Way) Unmarshal(b []byte) error {
	*w = Way{}

	return walk("Way", b, func(num protowire.Number, typ protowire.Type, v []byte) (err error) {
		switch num {
		case 1:
			var x uint64
			if x, err = varint(typ, v); err == nil {
				w.ID = int64(x)
			}
		case 2:
			w.Keys, err = packed(w.Keys, typ, v, uint32v)
		case 3:
			w.Vals, err = packed(w.Vals, typ, v, uint32v)
		case 4:
			w.Info = &Info{}
			err = message(typ, v, w.Info)
		case 8:
			w.Refs, err = packed(w.Refs, typ, v, sint64)
		}

		return err
	})
}

func (w *Way) Marshal() []byte {
	var b []byte

	b = appendVarint(b, 1, fromInt64(w.ID))
	b = appendPacked(b, 2, w.Keys, fromUint32)
	b = appendPacked(b, 3, w.Vals, fromUint32)

	if w.Info != nil {
		b = appendBytes(b, 4, w.Info.Marshal())
	}

	return appendPacked(b, 8, w.Refs, zigzag64)
}

// MemberType is the type of relation member.
type MemberType int32

const (
	MemberNode     MemberType = 0
	MemberWay      MemberType = 1
	MemberRelation MemberType = 2
)

// Relation is a relation whose MemIDs are delta coded.  RolesSID, MemIDs and
// Types are parallel.
type Relation struct {
	ID       int64
	Keys     []uint32
	Vals     []uint32
	Info     *Info
	RolesSID []int32
	MemIDs   []int64
	Types    []MemberType
}

func (r *Relation) Unmarshal(b []byte) error {
	*r = Relation{}

	return walk("Relation", b, func(num protowire.Number, typ protowire.Type, v []byte) (err error) {
		switch num {
		case 1:
			var x uint64
			if x, err = varint(typ, v); err == nil {
				r.ID = int64(x)
			}
		case 2:
			r.Keys, err = packed(r.Keys, typ, v, uint32v)
		case 3:
			r.Vals, err = packed(r.Vals, typ, v, uint32v)
		case 4:
			r.Info = &Info{}
			err = message(typ, v, r.Info)
		case 8:
			r.RolesSID, err = packed(r.RolesSID, typ, v, int32v)
		case 9:
			r.MemIDs, err = packed(r.MemIDs, typ, v, sint64)
		case 10:
			r.Types, err = packed(r.Types, typ, v, func(x uint64) MemberType { return MemberType(x) })
		}

		return err
	})
}

func (r *Relation) Marshal() []byte {
	var b []byte

	b = appendVarint(b, 1, fromInt64(r.ID))
	b = appendPacked(b, 2, r.Keys, fromUint32)
	b = appendPacked(b, 3, r.Vals, fromUint32)

	if r.Info != nil {
		b = appendBytes(b, 4, r.Info.Marshal())
	}

	b = appendPacked(b, 8, r.RolesSID, fromInt32)
	b = appendPacked(b, 9, r.MemIDs, zigzag64)

	return appendPacked(b, 10, r.Types, func(t MemberType) uint64 { return uint64(t) })
}
