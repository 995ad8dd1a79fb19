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

package filter

import (
	"fmt"

	"m4o.io/osmstream"
	"m4o.io/osmstream/model"
)

// NodePredicate decides whether a node is accepted.
type NodePredicate func(lat, lon model.Degrees, tags map[string]string) bool

type idSet map[model.ID]struct{}

func (s idSet) add(id model.ID) { s[id] = struct{}{} }

func (s idSet) has(id model.ID) bool {
	_, ok := s[id]

	return ok
}

// NodeFilter passes on the nodes accepted by a predicate.  Ways and
// relations pass through untouched unless WithCompleteWays was given; then
// only the ways referencing an accepted node are kept, along with all of
// their nodes.
//
// With WithCompleteWays, Initialize reads the upstream source once to find
// the nodes and ways to keep and then resets it, so the upstream must
// support Reset and must list nodes before the ways referencing them.
type NodeFilter struct {
	src  osmstream.Source
	pred NodePredicate
	cfg  filterOptions

	nodes idSet
	ways  idSet

	initialized bool
	current     model.Entity
	err         error
}

var _ osmstream.Source = (*NodeFilter)(nil)

// NewNodeFilter returns a filter over src keeping the nodes pred accepts.
func NewNodeFilter(src osmstream.Source, pred NodePredicate, opts ...Option) *NodeFilter {
	cfg := defaultFilterConfig()

	for _, opt := range opts {
		opt(&cfg)
	}

	return &NodeFilter{
		src:  src,
		pred: pred,
		cfg:  cfg,
	}
}

func (f *NodeFilter) Initialize() error {
	if f.initialized {
		return osmstream.ErrAlreadyInitialized
	}

	if f.cfg.completeWays && !f.src.CanReset() {
		return fmt.Errorf("complete ways need a second pass: %w", osmstream.ErrUnsupportedReset)
	}

	if err := f.src.Initialize(); err != nil {
		return err
	}

	f.initialized = true

	if f.cfg.completeWays {
		return f.scan()
	}

	return nil
}

// scan is the first pass of the complete ways mode.
func (f *NodeFilter) scan() error {
	f.nodes = make(idSet)
	f.ways = make(idSet)

	accepted := make(idSet)

	for f.src.MoveNext(osmstream.Ignore{Relations: true}) {
		switch e := f.src.Current().(type) {
		case *model.Node:
			if f.pred(e.Lat, e.Lon, e.Tags) {
				accepted.add(e.ID)
				f.nodes.add(e.ID)
			}
		case *model.Way:
			if !f.keepsWay(accepted, e) {
				continue
			}

			f.ways.add(e.ID)

			for _, id := range e.NodeIDs {
				f.nodes.add(id)
			}
		}
	}

	if err := f.src.Err(); err != nil {
		f.err = err

		return fmt.Errorf("error scanning for complete ways: %w", err)
	}

	f.cfg.logger.Debug("scanned for complete ways",
		"accepted_nodes", len(accepted),
		"retained_nodes", len(f.nodes),
		"ways", len(f.ways))

	if err := f.src.Reset(); err != nil {
		f.err = err

		return fmt.Errorf("error resetting after scan: %w", err)
	}

	return nil
}

func (f *NodeFilter) keepsWay(accepted idSet, w *model.Way) bool {
	for _, id := range w.NodeIDs {
		if accepted.has(id) {
			return true
		}
	}

	return false
}

func (f *NodeFilter) keeps(e model.Entity) bool {
	switch e := e.(type) {
	case *model.Node:
		if f.cfg.completeWays {
			return f.nodes.has(e.ID)
		}

		return f.pred(e.Lat, e.Lon, e.Tags)
	case *model.Way:
		return !f.cfg.completeWays || f.ways.has(e.ID)
	default:
		return true
	}
}

func (f *NodeFilter) MoveNext(ignore osmstream.Ignore) bool {
	f.current = nil

	if !f.initialized {
		f.err = osmstream.ErrNotInitialized

		return false
	}

	if f.err != nil {
		return false
	}

	for f.src.MoveNext(ignore) {
		if e := f.src.Current(); f.keeps(e) {
			f.current = e

			return true
		}
	}

	return false
}

func (f *NodeFilter) Current() model.Entity {
	if f.current == nil {
		osmstream.NoCurrent("node filter")
	}

	return f.current
}

func (f *NodeFilter) Err() error {
	if f.err != nil {
		return f.err
	}

	return f.src.Err()
}

func (f *NodeFilter) CanReset() bool {
	return f.src.CanReset()
}

// Reset resets the upstream source.  The nodes and ways found by the first
// pass of the complete ways mode are kept.
func (f *NodeFilter) Reset() error {
	if err := f.src.Reset(); err != nil {
		return err
	}

	f.current = nil

	return nil
}
