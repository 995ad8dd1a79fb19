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

package convert

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/osmstream"
	"m4o.io/osmstream/model"
	"m4o.io/osmstream/osmxml"
	"m4o.io/osmstream/pbf"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

var ts = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func entities() []model.Entity {
	info := &model.Info{Version: 2, UID: 7, Timestamp: ts, Changeset: 99, User: "ann", Visible: true}

	return []model.Entity{
		&model.Node{ID: 1, Lat: 51.5, Lon: -0.125, Tags: map[string]string{"name": "here"}, Info: info},
		&model.Node{ID: 2, Lat: 51.25, Lon: 0.5, Info: info},
		&model.Way{ID: 10, NodeIDs: []model.ID{1, 2}, Tags: map[string]string{"highway": "path"}, Info: info},
		&model.Relation{ID: 20, Members: []model.Member{{ID: 10, Type: model.WAY, Role: "outer"}},
			Tags: map[string]string{"type": "route"}, Info: info},
	}
}

func read(t *testing.T, src osmstream.Source) []model.Entity {
	t.Helper()

	c := osmstream.NewCollection()
	require.NoError(t, osmstream.Pull(src, c, osmstream.IgnoreNone))

	return c.Entities
}

// assertSame compares entities, treating empty and missing tags alike and
// allowing for the precision of PBF coordinates.
func assertSame(t *testing.T, want, got []model.Entity) {
	t.Helper()

	require.Len(t, got, len(want))

	for i, w := range want {
		g := got[i]

		require.Equal(t, w.Type(), g.Type())
		assert.Equal(t, w.GetID(), g.GetID())
		assert.Equal(t, w.GetInfo(), g.GetInfo())

		if len(w.GetTags()) > 0 || len(g.GetTags()) > 0 {
			assert.Equal(t, w.GetTags(), g.GetTags())
		}

		switch w := w.(type) {
		case *model.Node:
			g := g.(*model.Node)
			assert.True(t, w.Lat.EqualWithin(g.Lat, model.E7), "lat of node %d", w.ID)
			assert.True(t, w.Lon.EqualWithin(g.Lon, model.E7), "lon of node %d", w.ID)
		case *model.Way:
			assert.Equal(t, w.NodeIDs, g.(*model.Way).NodeIDs)
		case *model.Relation:
			assert.Equal(t, w.Members, g.(*model.Relation).Members)
		}
	}
}

func TestPBFToXMLAndBack(t *testing.T) {
	bbox := &model.BoundingBox{Top: 52, Left: -1, Bottom: 51, Right: 1}

	var in bytes.Buffer

	w := pbf.NewWriter(&in, pbf.WithBoundingBox(bbox))
	require.NoError(t, osmstream.Pull(osmstream.NewCollection(entities()...), w, osmstream.IgnoreNone))
	require.NoError(t, w.Close())

	var doc bytes.Buffer
	require.NoError(t, runConvert(bytes.NewReader(in.Bytes()), "in.pbf", &doc, "out.osm", pbf.ZLIB, logger))

	assert.Contains(t, doc.String(), `<tag k="highway" v="path"></tag>`)
	assertSame(t, entities(), read(t, osmxml.NewReader(bytes.NewReader(doc.Bytes()))))

	var back bytes.Buffer
	require.NoError(t, runConvert(bytes.NewReader(doc.Bytes()), "in.osm", &back, "out.pbf", pbf.ZSTD, logger))

	r := pbf.NewReader(bytes.NewReader(back.Bytes()))
	assertSame(t, entities(), read(t, r))

	want := &model.BoundingBox{Top: 51.5, Left: -0.125, Bottom: 51.25, Right: 0.5}
	require.NotNil(t, r.Header().BoundingBox)
	assert.True(t, want.EqualWithin(r.Header().BoundingBox, model.E7), r.Header().BoundingBox.String())
}

func TestXMLFromPipeHasNoBoundingBox(t *testing.T) {
	var doc bytes.Buffer

	w := osmxml.NewWriter(&doc)
	require.NoError(t, osmstream.Pull(osmstream.NewCollection(entities()...), w, osmstream.IgnoreNone))
	require.NoError(t, w.Close())

	var out bytes.Buffer
	require.NoError(t, runConvert(io.MultiReader(&doc), "in.osm", &out, "out.pbf", pbf.ZLIB, logger))

	r := pbf.NewReader(bytes.NewReader(out.Bytes()))
	assertSame(t, entities(), read(t, r))
	assert.Nil(t, r.Header().BoundingBox)
}

func TestScanBoundingBoxWithoutNodes(t *testing.T) {
	src := osmstream.NewCollection(entities()[2:]...)
	require.NoError(t, src.Initialize())

	bbox, err := scanBoundingBox(src)
	require.NoError(t, err)
	assert.Nil(t, bbox)

	require.True(t, src.MoveNext(osmstream.IgnoreNone))
	assert.Equal(t, model.ID(10), src.Current().GetID())
}

func TestPBFToPBFKeepsBoundingBox(t *testing.T) {
	bbox := &model.BoundingBox{Top: 52, Left: -1, Bottom: 51, Right: 1}

	var in bytes.Buffer

	w := pbf.NewWriter(&in, pbf.WithBoundingBox(bbox))
	require.NoError(t, osmstream.Pull(osmstream.NewCollection(entities()...), w, osmstream.IgnoreNone))
	require.NoError(t, w.Close())

	var out bytes.Buffer
	require.NoError(t, runConvert(bytes.NewReader(in.Bytes()), "in.pbf", &out, "out.pbf", pbf.RAW, logger))

	r := pbf.NewReader(bytes.NewReader(out.Bytes()))
	require.NoError(t, r.Initialize())
	assert.True(t, bbox.EqualWithin(r.Header().BoundingBox, model.E7))
}

func TestConvertMalformed(t *testing.T) {
	var out bytes.Buffer

	err := runConvert(bytes.NewReader([]byte("<osm><node id=")), "in.osm", &out, "out.pbf", pbf.ZLIB, logger)
	assert.Error(t, err)
}
