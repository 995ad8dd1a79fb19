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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"m4o.io/osmstream"
)

func TestPrimitiveBlockDefaults(t *testing.T) {
	var blk PrimitiveBlock

	require.NoError(t, blk.Unmarshal(nil))

	assert.Equal(t, int32(DefaultGranularity), blk.Granularity)
	assert.Equal(t, int32(DefaultDateGranularity), blk.DateGranularity)
	assert.Zero(t, blk.LatOffset)
	assert.Zero(t, blk.LonOffset)
}

func TestPrimitiveBlockRoundTrip(t *testing.T) {
	visible := false
	in := &PrimitiveBlock{
		StringTable: []string{"", "highway", "primary", "alice", "outer"},
		PrimitiveGroups: []*PrimitiveGroup{
			{
				Dense: &DenseNodes{
					ID:  []int64{10, 1, -3},
					Lat: []int64{515000000, -200, 100},
					Lon: []int64{-1000, 5, -5},
					DenseInfo: &DenseInfo{
						Version:   []int32{1, 1, -1},
						Timestamp: []int64{1600000000, 10, -5},
						Changeset: []int64{42, 0, -1},
						UID:       []int32{7, -7, 3},
						UserSID:   []int32{3, 0, 0},
						Visible:   []bool{true, true, false},
					},
					KeysVals: []int32{1, 2, 0, 0, 0},
				},
			},
			{
				Nodes: []*Node{{ID: -5, Keys: []uint32{1}, Vals: []uint32{2}, Lat: -1, Lon: 1}},
			},
			{
				Ways: []*Way{{
					ID:   100,
					Keys: []uint32{1},
					Vals: []uint32{2},
					Info: &Info{Version: 2, Timestamp: 99, Changeset: 3, UID: 7, UserSID: 3, Visible: &visible},
					Refs: []int64{10, 1, -11},
				}},
			},
			{
				Relations: []*Relation{{
					ID:       200,
					RolesSID: []int32{4, 0},
					MemIDs:   []int64{100, -90},
					Types:    []MemberType{MemberWay, MemberNode},
				}},
			},
		},
		Granularity:     1000,
		LatOffset:       -7,
		LonOffset:       9,
		DateGranularity: 500,
	}

	var out PrimitiveBlock

	require.NoError(t, out.Unmarshal(in.Marshal()))
	assert.Equal(t, in, &out)
}

func TestBlobRoundTrip(t *testing.T) {
	in := &Blob{RawSize: 5, Compression: Zstd, Data: []byte{1, 2, 3}}

	var out Blob

	require.NoError(t, out.Unmarshal(in.Marshal()))
	assert.Equal(t, in, &out)
}

func TestHeaderBlockRoundTrip(t *testing.T) {
	in := &HeaderBlock{
		BBox:                             &HeaderBBox{Left: -1800000000, Right: 1800000000, Top: 900000000, Bottom: -900000000},
		RequiredFeatures:                 []string{"OsmSchema-V0.6", "DenseNodes"},
		OptionalFeatures:                 []string{"Sort.Type_then_ID"},
		WritingProgram:                   "osmstream",
		Source:                           "test",
		OsmosisReplicationTimestamp:      1644784822,
		OsmosisReplicationSequenceNumber: 12,
		OsmosisReplicationBaseURL:        "https://example.org/replication",
	}

	var out HeaderBlock

	require.NoError(t, out.Unmarshal(in.Marshal()))
	assert.Equal(t, in, &out)
}

func TestUnpackedRepeatedFields(t *testing.T) {
	var b []byte
	for _, id := range []int64{3, -1, 4} {
		b = appendVarint(b, 1, zigzag64(id))
	}

	b = appendVarint(b, 10, 0)

	var dn DenseNodes

	require.NoError(t, dn.Unmarshal(b))
	assert.Equal(t, []int64{3, -1, 4}, dn.ID)
	assert.Equal(t, []int32{0}, dn.KeysVals)
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	b := (&Way{ID: 5, Refs: []int64{1, 1}}).Marshal()
	b = appendString(b, 99, "unknown")
	b = protowire.AppendTag(b, 98, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, 12345)

	var w Way

	require.NoError(t, w.Unmarshal(b))
	assert.Equal(t, int64(5), w.ID)
	assert.Equal(t, []int64{1, 1}, w.Refs)
}

func TestInfoDefaults(t *testing.T) {
	var in Info

	require.NoError(t, in.Unmarshal(nil))
	assert.Equal(t, int32(DefaultVersion), in.Version)
	assert.Nil(t, in.Visible)
}

func TestMalformed(t *testing.T) {
	block := (&PrimitiveBlock{
		StringTable:     []string{""},
		PrimitiveGroups: []*PrimitiveGroup{{Dense: &DenseNodes{ID: []int64{1, 2, 3}}}},
		Granularity:     DefaultGranularity,
		DateGranularity: DefaultDateGranularity,
	}).Marshal()

	tests := []struct {
		name string
		data []byte
	}{
		{"truncated", block[:len(block)/2]},
		{"wrong wire type", protowire.AppendFixed32(protowire.AppendTag(nil, 17, protowire.Fixed32Type), 1)},
		{"bad tag", []byte{0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var blk PrimitiveBlock

			err := blk.Unmarshal(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, osmstream.ErrMalformedBlock)
		})
	}
}
