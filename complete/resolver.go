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

// Package complete turns a stream of entities into a stream of complete
// entities: ways carrying their nodes and relations carrying their members,
// resolved recursively.
package complete

import (
	"fmt"
	"slices"

	"m4o.io/osmstream"
	"m4o.io/osmstream/model"
)

// Resolver reads entities from a source and completes them using a lookup
// source.  Without WithLookup, every entity read is added to an in-memory
// Buffer first, so a way or relation can be completed when everything it
// references came before it.  The buffer grows with the stream.
//
// A way or relation that cannot be completed is never emitted in part.
type Resolver struct {
	src    osmstream.Source
	cfg    resolverOptions
	lookup osmstream.GeoSource
	buffer *Buffer

	initialized bool
	current     model.CompleteEntity
	err         error
}

// NewResolver returns a resolver over src.
func NewResolver(src osmstream.Source, opts ...Option) *Resolver {
	cfg := defaultResolverConfig()

	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Resolver{
		src:    src,
		cfg:    cfg,
		lookup: cfg.lookup,
	}

	if r.lookup == nil {
		r.buffer = NewBuffer()
		r.lookup = r.buffer
	}

	return r
}

func (r *Resolver) Initialize() error {
	if r.initialized {
		return osmstream.ErrAlreadyInitialized
	}

	if err := r.src.Initialize(); err != nil {
		return err
	}

	r.initialized = true

	return nil
}

// MoveNext advances to the next complete entity whose type is not ignored.
func (r *Resolver) MoveNext(ignore osmstream.Ignore) bool {
	r.current = nil

	if !r.initialized {
		r.err = osmstream.ErrNotInitialized

		return false
	}

	if r.err != nil {
		return false
	}

	// the buffer has to see everything, whatever is being ignored
	upstream := ignore
	if r.buffer != nil {
		upstream = osmstream.IgnoreNone
	}

	for r.src.MoveNext(upstream) {
		e := r.src.Current()

		if r.buffer != nil {
			if err := osmstream.Dispatch(r.buffer, e); err != nil {
				r.err = err

				return false
			}
		}

		if ignore.Skips(e.Type()) {
			continue
		}

		ce, err := r.resolve(e)
		if err == nil {
			r.current = ce

			return true
		}

		if r.cfg.policy == AbortOnError {
			r.cfg.logger.Error("unable to complete entity", "type", e.Type(), "id", e.GetID(), "error", err)
			r.err = err

			return false
		}

		r.cfg.logger.Warn("skipping incomplete entity", "type", e.Type(), "id", e.GetID(), "error", err)
		r.cfg.handler(err)
	}

	return false
}

func (r *Resolver) Current() model.CompleteEntity {
	if r.current == nil {
		osmstream.NoCurrent("resolver")
	}

	return r.current
}

func (r *Resolver) Err() error {
	if r.err != nil {
		return r.err
	}

	return r.src.Err()
}

func (r *Resolver) CanReset() bool {
	return r.src.CanReset()
}

// Reset resets the upstream source.  A default buffer keeps what it holds.
func (r *Resolver) Reset() error {
	if err := r.src.Reset(); err != nil {
		return err
	}

	r.current = nil
	r.err = nil

	return nil
}

// Resolve completes a single entity against the lookup source.
func (r *Resolver) Resolve(e model.Entity) (model.CompleteEntity, error) {
	return r.resolve(e)
}

func (r *Resolver) resolve(e model.Entity) (model.CompleteEntity, error) {
	switch e := e.(type) {
	case *model.Node:
		return e, nil
	case *model.Way:
		return r.resolveWay(e)
	case *model.Relation:
		return r.resolveRelation(e, nil)
	default:
		return nil, fmt.Errorf("unknown entity %T", e)
	}
}

func (r *Resolver) resolveWay(w *model.Way) (*model.CompleteWay, error) {
	nodes := make([]*model.Node, len(w.NodeIDs))

	for i, id := range w.NodeIDs {
		n, err := r.lookup.GetNode(id)
		if err != nil {
			return nil, &osmstream.DanglingReferenceError{
				Type: model.WAY, ID: w.ID, RefType: model.NODE, RefID: id, Err: err,
			}
		}

		nodes[i] = n
	}

	return &model.CompleteWay{
		ID:    w.ID,
		Tags:  w.Tags,
		Info:  w.Info,
		Nodes: nodes,
	}, nil
}

// resolveRelation completes rel.  path holds the relations being completed
// around it, outermost first.
func (r *Resolver) resolveRelation(rel *model.Relation, path []model.ID) (*model.CompleteRelation, error) {
	if slices.Contains(path, rel.ID) {
		return nil, &osmstream.CircularRelationError{
			ID:   rel.ID,
			Path: append(slices.Clone(path), rel.ID),
		}
	}

	path = append(path, rel.ID)
	members := make([]model.CompleteMember, len(rel.Members))

	for i, m := range rel.Members {
		ce, err := r.resolveMember(rel, m, path)
		if err != nil {
			return nil, err
		}

		members[i] = model.CompleteMember{Role: m.Role, Entity: ce}
	}

	return &model.CompleteRelation{
		ID:      rel.ID,
		Tags:    rel.Tags,
		Info:    rel.Info,
		Members: members,
	}, nil
}

func (r *Resolver) resolveMember(rel *model.Relation, m model.Member, path []model.ID) (model.CompleteEntity, error) {
	dangling := func(err error) error {
		return &osmstream.DanglingReferenceError{
			Type: model.RELATION, ID: rel.ID, RefType: m.Type, RefID: m.ID, Err: err,
		}
	}

	switch m.Type {
	case model.NODE:
		n, err := r.lookup.GetNode(m.ID)
		if err != nil {
			return nil, dangling(err)
		}

		return n, nil
	case model.WAY:
		w, err := r.lookup.GetWay(m.ID)
		if err != nil {
			return nil, dangling(err)
		}

		cw, err := r.resolveWay(w)
		if err != nil {
			return nil, fmt.Errorf("relation %d: %w", rel.ID, err)
		}

		return cw, nil
	case model.RELATION:
		if slices.Contains(path, m.ID) {
			return nil, &osmstream.CircularRelationError{
				ID:   m.ID,
				Path: append(slices.Clone(path), m.ID),
			}
		}

		sub, err := r.lookup.GetRelation(m.ID)
		if err != nil {
			return nil, dangling(err)
		}

		cr, err := r.resolveRelation(sub, path)
		if err != nil {
			return nil, fmt.Errorf("relation %d: %w", rel.ID, err)
		}

		return cr, nil
	default:
		return nil, dangling(fmt.Errorf("unknown member type %s", m.Type))
	}
}
