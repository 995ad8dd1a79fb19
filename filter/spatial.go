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
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"m4o.io/osmstream"
	"m4o.io/osmstream/model"
)

// NewSpatialFilter returns a node filter keeping the nodes inside poly.
// Polygon coordinates are longitude, latitude pairs.
func NewSpatialFilter(src osmstream.Source, poly orb.Polygon, opts ...Option) *NodeFilter {
	return NewNodeFilter(src, func(lat, lon model.Degrees, _ map[string]string) bool {
		return planar.PolygonContains(poly, orb.Point{float64(lon), float64(lat)})
	}, opts...)
}

// NewBoundFilter returns a node filter keeping the nodes inside bound.
func NewBoundFilter(src osmstream.Source, bound orb.Bound, opts ...Option) *NodeFilter {
	return NewNodeFilter(src, func(lat, lon model.Degrees, _ map[string]string) bool {
		return bound.Contains(orb.Point{float64(lon), float64(lat)})
	}, opts...)
}

// NewTagFilter returns a node filter keeping the nodes tagged key=value, or
// carrying key with any value when value is empty.
func NewTagFilter(src osmstream.Source, key, value string, opts ...Option) *NodeFilter {
	return NewNodeFilter(src, func(_, _ model.Degrees, tags map[string]string) bool {
		v, ok := tags[key]

		return ok && (value == "" || v == value)
	}, opts...)
}
