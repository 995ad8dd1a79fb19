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

package pbf

import (
	"bytes"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/osmstream"
	"m4o.io/osmstream/model"
)

var ts = time.Date(2023, 4, 5, 6, 7, 8, 0, time.UTC)

func fixture() []model.Entity {
	return []model.Entity{
		&model.Node{ID: 1, Lat: 0, Lon: 0, Tags: map[string]string{},
			Info: &model.Info{Version: 1, UID: 42, Timestamp: ts, Changeset: 7, User: "ann", Visible: true}},
		&model.Node{ID: 2, Lat: 1, Lon: 0, Tags: map[string]string{"barrier": "gate"},
			Info: &model.Info{Version: 2, UID: 42, Timestamp: ts, Changeset: 8, User: "ann", Visible: true}},
		&model.Node{ID: 3, Lat: 0, Lon: 1, Tags: map[string]string{},
			Info: &model.Info{Version: 1, UID: 43, Timestamp: ts, Changeset: 9, User: "bo", Visible: true}},
		&model.Way{ID: 10, NodeIDs: []model.ID{1, 2, 3, 1}, Tags: map[string]string{"area": "yes"},
			Info: &model.Info{Version: 1, UID: 42, Timestamp: ts, Changeset: 7, User: "ann", Visible: true}},
		&model.Relation{ID: 20, Tags: map[string]string{"type": "multipolygon"},
			Members: []model.Member{{ID: 10, Type: model.WAY, Role: "outer"}, {ID: 2, Type: model.NODE, Role: ""}},
			Info:    &model.Info{Version: 3, UID: 43, Timestamp: ts, Changeset: 9, User: "bo", Visible: true}},
	}
}

func write(t *testing.T, entities []model.Entity, opts ...WriterOption) []byte {
	t.Helper()

	var buf bytes.Buffer

	w := NewWriter(&buf, opts...)
	require.NoError(t, w.Initialize())

	for _, e := range entities {
		require.NoError(t, osmstream.Dispatch(w, e))
	}

	require.NoError(t, w.Close())

	return buf.Bytes()
}

func drain(t *testing.T, src osmstream.Source, ignore osmstream.Ignore) []model.Entity {
	t.Helper()

	var out []model.Entity
	for src.MoveNext(ignore) {
		out = append(out, src.Current())
	}

	require.NoError(t, src.Err())

	return out
}

func assertSameEntities(t *testing.T, want, got []model.Entity) {
	t.Helper()

	require.Len(t, got, len(want))

	for i := range want {
		wn, ok := want[i].(*model.Node)
		if !ok {
			assert.Equal(t, want[i], got[i])

			continue
		}

		gn, ok := got[i].(*model.Node)
		require.True(t, ok, "entity %d is a %T", i, got[i])

		assert.Equal(t, wn.ID, gn.ID)
		assert.Equal(t, wn.Tags, gn.Tags)
		assert.Equal(t, wn.Info, gn.Info)
		assert.True(t, wn.Lat.EqualWithin(gn.Lat, model.E7), "lat of node %d", wn.ID)
		assert.True(t, wn.Lon.EqualWithin(gn.Lon, model.E7), "lon of node %d", wn.ID)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, c := range []Compression{RAW, ZLIB, LZMA, LZ4, ZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			data := write(t, fixture(), WithCompression(c))

			r := NewReader(bytes.NewReader(data))
			defer r.Close()

			require.NoError(t, r.Initialize())
			assertSameEntities(t, fixture(), drain(t, r, osmstream.IgnoreNone))
		})
	}
}

func TestHeader(t *testing.T) {
	bbox := &model.BoundingBox{Top: 1, Left: 0, Bottom: 0, Right: 1}
	data := write(t, fixture(),
		WithBoundingBox(bbox),
		WithWritingProgram("test"),
		WithSource("survey"),
		WithOptionalFeatures("Sort.Type_then_ID"),
		WithOsmosisReplicationTimestamp(ts),
		WithOsmosisReplicationSequenceNumber(12),
		WithOsmosisReplicationBaseURL("https://example.org/replication"))

	r := NewReader(bytes.NewReader(data))
	require.NoError(t, r.Initialize())

	hdr := r.Header()
	assert.True(t, bbox.EqualWithin(hdr.BoundingBox, model.E9))
	assert.Equal(t, []string{"OsmSchema-V0.6", "DenseNodes"}, hdr.RequiredFeatures)
	assert.Equal(t, []string{"Sort.Type_then_ID"}, hdr.OptionalFeatures)
	assert.Equal(t, "test", hdr.WritingProgram)
	assert.Equal(t, "survey", hdr.Source)
	assert.Equal(t, ts, hdr.OsmosisReplicationTimestamp)
	assert.Equal(t, int64(12), hdr.OsmosisReplicationSequenceNumber)
	assert.Equal(t, "https://example.org/replication", hdr.OsmosisReplicationBaseURL)
}

func TestInitialize(t *testing.T) {
	r := NewReader(bytes.NewReader(write(t, fixture())))

	assert.False(t, r.MoveNext(osmstream.IgnoreNone))
	assert.ErrorIs(t, r.Err(), osmstream.ErrNotInitialized)

	r = NewReader(bytes.NewReader(write(t, fixture())))
	require.NoError(t, r.Initialize())
	assert.ErrorIs(t, r.Initialize(), osmstream.ErrAlreadyInitialized)
}

func TestCurrentPanics(t *testing.T) {
	r := NewReader(bytes.NewReader(write(t, fixture()[:1])))
	require.NoError(t, r.Initialize())

	assert.Panics(t, func() { r.Current() })

	require.True(t, r.MoveNext(osmstream.IgnoreNone))
	assert.NotPanics(t, func() { r.Current() })

	require.False(t, r.MoveNext(osmstream.IgnoreNone))
	assert.Panics(t, func() { r.Current() })
}

func TestResetIdempotence(t *testing.T) {
	r := NewReader(bytes.NewReader(write(t, fixture())))
	require.NoError(t, r.Initialize())
	require.True(t, r.CanReset())

	first := drain(t, r, osmstream.IgnoreNone)

	require.NoError(t, r.Reset())
	second := drain(t, r, osmstream.IgnoreNone)

	assert.Equal(t, first, second)

	// reset in the middle of a block
	require.NoError(t, r.Reset())
	require.True(t, r.MoveNext(osmstream.IgnoreNone))
	require.NoError(t, r.Reset())
	assert.Equal(t, first, drain(t, r, osmstream.IgnoreNone))
}

func TestUseAfterClose(t *testing.T) {
	r := NewReader(bytes.NewReader(write(t, fixture())))
	require.NoError(t, r.Initialize())
	require.True(t, r.MoveNext(osmstream.IgnoreNone))
	require.NoError(t, r.Close())

	assert.ErrorIs(t, r.Reset(), ErrReaderClosed)
	assert.NotPanics(t, func() { assert.False(t, r.MoveNext(osmstream.IgnoreNone)) })
	assert.ErrorIs(t, r.Err(), ErrReaderClosed)
	assert.Panics(t, func() { r.Current() })

	unused := NewReader(bytes.NewReader(write(t, fixture())))
	require.NoError(t, unused.Close())
	assert.ErrorIs(t, unused.Initialize(), ErrReaderClosed)
}

func TestNonSeekableReset(t *testing.T) {
	r := NewReader(io.MultiReader(bytes.NewReader(write(t, fixture()))))
	require.NoError(t, r.Initialize())

	assert.False(t, r.CanReset())
	assert.ErrorIs(t, r.Reset(), osmstream.ErrUnsupportedReset)

	assert.Len(t, drain(t, r, osmstream.IgnoreNone), len(fixture()))
}

func TestIgnoreFlags(t *testing.T) {
	data := write(t, fixture())

	for mask := range 8 {
		ignore := osmstream.Ignore{Nodes: mask&1 != 0, Ways: mask&2 != 0, Relations: mask&4 != 0}

		t.Run(fmt.Sprintf("%+v", ignore), func(t *testing.T) {
			var want []model.Entity

			for _, e := range fixture() {
				if !ignore.Skips(e.Type()) {
					want = append(want, e)
				}
			}

			r := NewReader(bytes.NewReader(data))
			require.NoError(t, r.Initialize())
			assertSameEntities(t, want, drain(t, r, ignore))
		})
	}
}

func TestTruncatedStream(t *testing.T) {
	data := write(t, fixture())

	r := NewReader(bytes.NewReader(data[:len(data)-5]))
	require.NoError(t, r.Initialize())

	for r.MoveNext(osmstream.IgnoreNone) {
	}

	assert.ErrorIs(t, r.Err(), osmstream.ErrMalformedBlock)
	assert.Contains(t, r.Err().Error(), "offset")
	assert.False(t, r.MoveNext(osmstream.IgnoreNone))
}

func TestTruncatedHeader(t *testing.T) {
	data := write(t, fixture())

	r := NewReader(bytes.NewReader(data[:10]))
	assert.ErrorIs(t, r.Initialize(), osmstream.ErrMalformedBlock)
	assert.False(t, r.MoveNext(osmstream.IgnoreNone))
}
