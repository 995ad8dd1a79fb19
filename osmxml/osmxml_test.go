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
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/osmstream"
	"m4o.io/osmstream/model"
)

const document = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="hand">
  <node id="1" lat="51.5" lon="-0.1" user="ann" uid="42" visible="true" version="2" changeset="7" timestamp="2023-04-05T06:07:08Z">
    <tag k="amenity" v="cafe"/>
  </node>
  <node id="2" lat="51.6" lon="-0.2"/>
  <way id="10">
    <nd ref="1"/>
    <nd ref="2"/>
    <tag k="highway" v="service"/>
  </way>
  <relation id="20" visible="false" version="1">
    <member type="way" ref="10" role="outer"/>
    <member type="node" ref="2" role=""/>
  </relation>
</osm>
`

func drain(t *testing.T, src osmstream.Source, ignore osmstream.Ignore) []model.Entity {
	t.Helper()

	var out []model.Entity
	for src.MoveNext(ignore) {
		out = append(out, src.Current())
	}

	require.NoError(t, src.Err())

	return out
}

func TestReadDocument(t *testing.T) {
	r := NewReader(strings.NewReader(document))
	defer r.Close()

	require.NoError(t, r.Initialize())

	out := drain(t, r, osmstream.IgnoreNone)
	require.Len(t, out, 4)

	assert.Equal(t, &model.Node{
		ID:   1,
		Tags: map[string]string{"amenity": "cafe"},
		Info: &model.Info{
			Version:   2,
			UID:       42,
			Timestamp: time.Date(2023, 4, 5, 6, 7, 8, 0, time.UTC),
			Changeset: 7,
			User:      "ann",
			Visible:   true,
		},
		Lat: 51.5,
		Lon: -0.1,
	}, out[0])

	n2 := out[1].(*model.Node)
	assert.Nil(t, n2.Info)
	assert.Empty(t, n2.Tags)

	assert.Equal(t, &model.Way{
		ID:      10,
		Tags:    map[string]string{"highway": "service"},
		NodeIDs: []model.ID{1, 2},
	}, out[2])

	rel := out[3].(*model.Relation)
	assert.Equal(t, []model.Member{
		{ID: 10, Type: model.WAY, Role: "outer"},
		{ID: 2, Type: model.NODE, Role: ""},
	}, rel.Members)
	require.NotNil(t, rel.Info)
	assert.False(t, rel.Info.Visible)
	assert.Equal(t, int32(1), rel.Info.Version)
}

func TestReadIgnore(t *testing.T) {
	r := NewReader(strings.NewReader(document))
	require.NoError(t, r.Initialize())

	out := drain(t, r, osmstream.Ignore{Nodes: true, Relations: true})
	require.Len(t, out, 1)
	assert.Equal(t, model.WAY, out[0].Type())
}

func TestReaderReset(t *testing.T) {
	r := NewReader(strings.NewReader(document))
	require.NoError(t, r.Initialize())
	require.True(t, r.CanReset())

	first := drain(t, r, osmstream.IgnoreNone)
	require.NoError(t, r.Reset())
	assert.Equal(t, first, drain(t, r, osmstream.IgnoreNone))

	nr := NewReader(io.MultiReader(strings.NewReader(document)))
	require.NoError(t, nr.Initialize())
	assert.False(t, nr.CanReset())
	assert.ErrorIs(t, nr.Reset(), osmstream.ErrUnsupportedReset)
}

func TestReaderLifecycle(t *testing.T) {
	r := NewReader(strings.NewReader(document))
	assert.False(t, r.MoveNext(osmstream.IgnoreNone))
	assert.ErrorIs(t, r.Err(), osmstream.ErrNotInitialized)

	r = NewReader(strings.NewReader(document))
	require.NoError(t, r.Initialize())
	assert.ErrorIs(t, r.Initialize(), osmstream.ErrAlreadyInitialized)
	assert.Panics(t, func() { r.Current() })
}

func TestReadMalformed(t *testing.T) {
	r := NewReader(strings.NewReader(`<osm><node id="1" lat="x"`))
	require.NoError(t, r.Initialize())

	for r.MoveNext(osmstream.IgnoreNone) {
	}

	assert.Error(t, r.Err())
}

func TestRoundTrip(t *testing.T) {
	ts := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	in := []model.Entity{
		&model.Node{ID: 1, Lat: 0.1234567, Lon: -179.9999999, Tags: map[string]string{"b": "2", "a": "1"},
			Info: &model.Info{Version: 1, UID: 3, Timestamp: ts, Changeset: 4, User: "bo & co", Visible: true}},
		&model.Node{ID: 2, Lat: -90, Lon: 180, Tags: map[string]string{}},
		&model.Way{ID: 3, NodeIDs: []model.ID{1, 2, 1}, Tags: map[string]string{"name": "<Main>"}},
		&model.Relation{ID: 4, Tags: map[string]string{}, Members: []model.Member{
			{ID: 3, Type: model.WAY, Role: "outer"},
			{ID: 4, Type: model.RELATION, Role: "self"},
		}, Info: &model.Info{Version: 2, Timestamp: ts, User: "ann", Visible: false}},
	}

	var buf bytes.Buffer

	w := NewWriter(&buf, WithGenerator("test"))
	require.NoError(t, osmstream.Pull(osmstream.NewCollection(in...), w, osmstream.IgnoreNone))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.True(t, strings.HasPrefix(buf.String(), `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, buf.String(), `<osm version="0.6" generator="test">`)
	assert.True(t, strings.HasSuffix(buf.String(), "</osm>\n"))

	r := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, r.Initialize())
	assert.Equal(t, in, drain(t, r, osmstream.IgnoreNone))
}

func TestWriterLifecycle(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf)
	assert.ErrorIs(t, w.AddNode(&model.Node{ID: 1}), osmstream.ErrNotInitialized)

	require.NoError(t, w.Initialize())
	assert.ErrorIs(t, w.Initialize(), osmstream.ErrAlreadyInitialized)
	require.NoError(t, w.Close())
	assert.Error(t, w.AddNode(&model.Node{ID: 1}))
}
