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

package cli

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/spf13/pflag"

	"m4o.io/osmstream/model"
	"m4o.io/osmstream/pbf"
)

// -- orb.Bound Value
type boundValue struct {
	value *orb.Bound
}

// NewBoundValue creates a cobra Value object for a bounding box given as
// minlon,minlat,maxlon,maxlat.
func NewBoundValue(p *orb.Bound) pflag.Value {
	return &boundValue{value: p}
}

func (b *boundValue) Set(val string) error {
	parts := strings.Split(val, ",")
	if len(parts) != 4 {
		return fmt.Errorf("bounding box %q must be minlon,minlat,maxlon,maxlat", val)
	}

	var coords [4]float64

	for i, p := range parts {
		d, err := model.ParseDegrees(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("bounding box %q: %w", val, err)
		}

		lo, hi := model.MinLon, model.MaxLon
		if i%2 == 1 {
			lo, hi = model.MinLat, model.MaxLat
		}

		if d < lo || d > hi {
			return fmt.Errorf("bounding box %q: %s out of range [%s, %s]", val, d, lo, hi)
		}

		coords[i] = float64(d)
	}

	bound := orb.Bound{
		Min: orb.Point{coords[0], coords[1]},
		Max: orb.Point{coords[2], coords[3]},
	}

	if bound.Min.X() > bound.Max.X() || bound.Min.Y() > bound.Max.Y() {
		return fmt.Errorf("bounding box %q has its minimum above its maximum", val)
	}

	*b.value = bound

	return nil
}

func (b *boundValue) Type() string {
	return "bbox"
}

func (b *boundValue) String() string {
	if b.value.IsZero() {
		return ""
	}

	return fmt.Sprintf("%g,%g,%g,%g", b.value.Min.X(), b.value.Min.Y(), b.value.Max.X(), b.value.Max.Y())
}

// BoundingBox converts a bound into the bounding box of a PBF header.
func BoundingBox(bound orb.Bound) *model.BoundingBox {
	return &model.BoundingBox{
		Top:    model.Degrees(bound.Max.Lat()),
		Left:   model.Degrees(bound.Min.Lon()),
		Bottom: model.Degrees(bound.Min.Lat()),
		Right:  model.Degrees(bound.Max.Lon()),
	}
}

// -- pbf.Compression Value
type compressionValue struct {
	value *pbf.Compression
}

// NewCompressionValue creates a cobra Value object for a blob compression.
func NewCompressionValue(def pbf.Compression, p *pbf.Compression) pflag.Value {
	*p = def

	return &compressionValue{value: p}
}

func (c *compressionValue) Set(val string) error {
	compression, err := pbf.ParseCompression(val)
	if err != nil {
		return err
	}

	*c.value = compression

	return nil
}

func (c *compressionValue) Type() string {
	return "compression"
}

func (c *compressionValue) String() string {
	return strings.ToLower(c.value.String())
}
