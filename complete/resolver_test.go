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

package complete

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/osmstream"
	"m4o.io/osmstream/model"
)

var (
	n1 = &model.Node{ID: 1, Lat: 0, Lon: 0}
	n2 = &model.Node{ID: 2, Lat: 1, Lon: 0}
	n3 = &model.Node{ID: 3, Lat: 0, Lon: 1}
	w1 = &model.Way{ID: 1, NodeIDs: []model.ID{1, 2, 3, 1}, Tags: map[string]string{"area": "yes"}}
)

func drain(t *testing.T, r *Resolver, ignore osmstream.Ignore) []model.CompleteEntity {
	t.Helper()

	var out []model.CompleteEntity
	for r.MoveNext(ignore) {
		out = append(out, r.Current())
	}

	return out
}

func TestCompleteWay(t *testing.T) {
	r := NewResolver(osmstream.NewCollection(n1, n2, n3, w1))
	require.NoError(t, r.Initialize())

	out := drain(t, r, osmstream.IgnoreNone)
	require.NoError(t, r.Err())
	require.Len(t, out, 4)

	assert.Same(t, n1, out[0])

	cw, ok := out[3].(*model.CompleteWay)
	require.True(t, ok)
	assert.Equal(t, model.ID(1), cw.ID)
	assert.Equal(t, map[string]string{"area": "yes"}, cw.Tags)
	assert.Equal(t, []*model.Node{n1, n2, n3, n1}, cw.Nodes)
	assert.True(t, cw.IsClosed())
	assert.Len(t, cw.LineString(), 4)
}

func TestIgnoredTypesStillBuffered(t *testing.T) {
	r := NewResolver(osmstream.NewCollection(n1, n2, n3, w1))
	require.NoError(t, r.Initialize())

	out := drain(t, r, osmstream.Ignore{Nodes: true})
	require.NoError(t, r.Err())
	require.Len(t, out, 1)
	assert.Len(t, out[0].(*model.CompleteWay).Nodes, 4)
	assert.Equal(t, 4, r.buffer.Len())
}

func TestDanglingReferenceAborts(t *testing.T) {
	w := &model.Way{ID: 7, NodeIDs: []model.ID{1, 99}}
	r := NewResolver(osmstream.NewCollection(n1, w, n2))
	require.NoError(t, r.Initialize())

	out := drain(t, r, osmstream.IgnoreNone)
	assert.Len(t, out, 1)

	err := r.Err()
	require.ErrorIs(t, err, osmstream.ErrDanglingReference)
	require.ErrorIs(t, err, osmstream.ErrNotFound)

	var dre *osmstream.DanglingReferenceError
	require.ErrorAs(t, err, &dre)
	assert.Equal(t, model.WAY, dre.Type)
	assert.Equal(t, model.ID(7), dre.ID)
	assert.Equal(t, model.NODE, dre.RefType)
	assert.Equal(t, model.ID(99), dre.RefID)
	assert.Equal(t, "way 7 references missing node 99", dre.Error())

	assert.False(t, r.MoveNext(osmstream.IgnoreNone))
}

func TestSkipOnError(t *testing.T) {
	var skipped []error

	w := &model.Way{ID: 7, NodeIDs: []model.ID{1, 99}}
	rel := &model.Relation{ID: 8, Members: []model.Member{{ID: 7, Type: model.WAY, Role: "outer"}}}
	r := NewResolver(osmstream.NewCollection(n1, n2, n3, w, w1, rel),
		WithErrorPolicy(SkipOnError),
		WithErrorHandler(func(err error) { skipped = append(skipped, err) }))
	require.NoError(t, r.Initialize())

	out := drain(t, r, osmstream.IgnoreNone)
	require.NoError(t, r.Err())
	require.Len(t, out, 4)
	assert.Equal(t, model.ID(1), out[3].GetID())

	require.Len(t, skipped, 2)
	assert.ErrorIs(t, skipped[0], osmstream.ErrDanglingReference)
	assert.ErrorIs(t, skipped[1], osmstream.ErrDanglingReference)
}

func TestCompleteRelation(t *testing.T) {
	inner := &model.Relation{ID: 11, Members: []model.Member{{ID: 3, Type: model.NODE, Role: "label"}}}
	outer := &model.Relation{ID: 10, Tags: map[string]string{"type": "site"}, Members: []model.Member{
		{ID: 1, Type: model.WAY, Role: "outer"},
		{ID: 2, Type: model.NODE, Role: "entrance"},
		{ID: 11, Type: model.RELATION, Role: ""},
	}}

	r := NewResolver(osmstream.NewCollection(n1, n2, n3, w1, inner, outer))
	require.NoError(t, r.Initialize())

	out := drain(t, r, osmstream.Ignore{Nodes: true, Ways: true})
	require.NoError(t, r.Err())
	require.Len(t, out, 2)

	cr, ok := out[1].(*model.CompleteRelation)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"type": "site"}, cr.Tags)
	require.Len(t, cr.Members, 3)

	assert.Equal(t, "outer", cr.Members[0].Role)
	assert.Len(t, cr.Members[0].Entity.(*model.CompleteWay).Nodes, 4)
	assert.Same(t, n2, cr.Members[1].Entity)

	sub, ok := cr.Members[2].Entity.(*model.CompleteRelation)
	require.True(t, ok)
	assert.Same(t, n3, sub.Members[0].Entity)
}

func TestSelfReferencingRelation(t *testing.T) {
	rel := &model.Relation{ID: 5, Members: []model.Member{{ID: 5, Type: model.RELATION}}}

	r := NewResolver(osmstream.NewCollection(rel))
	require.NoError(t, r.Initialize())

	assert.False(t, r.MoveNext(osmstream.IgnoreNone))

	var cre *osmstream.CircularRelationError
	require.ErrorAs(t, r.Err(), &cre)
	assert.Equal(t, model.ID(5), cre.ID)
	assert.Equal(t, []model.ID{5, 5}, cre.Path)
}

func TestCircularRelations(t *testing.T) {
	r1 := &model.Relation{ID: 1, Members: []model.Member{{ID: 2, Type: model.RELATION}}}
	r2 := &model.Relation{ID: 2, Members: []model.Member{{ID: 3, Type: model.RELATION}}}
	r3 := &model.Relation{ID: 3, Members: []model.Member{{ID: 1, Type: model.RELATION}}}

	lookup := NewBuffer()
	require.NoError(t, osmstream.Pull(osmstream.NewCollection(r1, r2, r3), lookup, osmstream.IgnoreNone))

	r := NewResolver(osmstream.NewCollection(r1), WithLookup(lookup))
	require.NoError(t, r.Initialize())

	assert.False(t, r.MoveNext(osmstream.IgnoreNone))

	err := r.Err()
	require.ErrorIs(t, err, osmstream.ErrCircularRelation)

	var cre *osmstream.CircularRelationError
	require.ErrorAs(t, err, &cre)
	assert.Equal(t, []model.ID{1, 2, 3, 1}, cre.Path)
	assert.Contains(t, err.Error(), "1 -> 2 -> 3 -> 1")
}

func TestSharedMemberIsNotCircular(t *testing.T) {
	shared := &model.Relation{ID: 3, Members: []model.Member{{ID: 1, Type: model.NODE}}}
	left := &model.Relation{ID: 1, Members: []model.Member{{ID: 3, Type: model.RELATION}}}
	top := &model.Relation{ID: 2, Members: []model.Member{
		{ID: 3, Type: model.RELATION},
		{ID: 1, Type: model.RELATION},
	}}

	r := NewResolver(osmstream.NewCollection(n1, shared, left, top))
	require.NoError(t, r.Initialize())

	out := drain(t, r, osmstream.IgnoreNone)
	require.NoError(t, r.Err())
	assert.Len(t, out, 4)
}

type brokenLookup struct{ *Buffer }

var errIO = errors.New("io failure")

func (brokenLookup) GetNode(model.ID) (*model.Node, error) { return nil, errIO }

func TestLookupFailure(t *testing.T) {
	r := NewResolver(osmstream.NewCollection(w1), WithLookup(brokenLookup{NewBuffer()}))
	require.NoError(t, r.Initialize())

	assert.False(t, r.MoveNext(osmstream.IgnoreNone))
	assert.ErrorIs(t, r.Err(), errIO)
	assert.NotErrorIs(t, r.Err(), osmstream.ErrNotFound)
	assert.Contains(t, r.Err().Error(), "io failure")
}

func TestResolverLifecycle(t *testing.T) {
	r := NewResolver(osmstream.NewCollection(n1, n2, n3, w1))

	assert.False(t, r.MoveNext(osmstream.IgnoreNone))
	assert.ErrorIs(t, r.Err(), osmstream.ErrNotInitialized)

	r = NewResolver(osmstream.NewCollection(n1, n2, n3, w1))
	require.NoError(t, r.Initialize())
	assert.ErrorIs(t, r.Initialize(), osmstream.ErrAlreadyInitialized)

	assert.Panics(t, func() { r.Current() })

	first := drain(t, r, osmstream.IgnoreNone)
	assert.Panics(t, func() { r.Current() })

	require.True(t, r.CanReset())
	require.NoError(t, r.Reset())
	assert.Equal(t, first, drain(t, r, osmstream.IgnoreNone))
}

func TestResolve(t *testing.T) {
	lookup := NewBuffer()
	require.NoError(t, lookup.AddNode(n1))

	r := NewResolver(osmstream.NewCollection(), WithLookup(lookup))

	_, err := r.Resolve(&model.Way{ID: 2, NodeIDs: []model.ID{1, 2}})
	assert.ErrorIs(t, err, osmstream.ErrDanglingReference)

	ce, err := r.Resolve(&model.Way{ID: 2, NodeIDs: []model.ID{1, 1}})
	require.NoError(t, err)
	assert.False(t, ce.(*model.CompleteWay).IsClosed())
}
