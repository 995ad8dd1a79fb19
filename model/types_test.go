// Copyright 2017-25 the original author or authors.
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

package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"m4o.io/osmstream/model"
)

func TestDegreesAngle(t *testing.T) {
	assert.True(t, model.Angle(0.78539816).EqualWithin(model.Degrees(45.0).Angle(), model.E7))
}

func TestAngleKilometers(t *testing.T) {
	assert.InDelta(t, 111.195, model.Degrees(1).Angle().Kilometers(), 0.001)
}

func TestDegreesParse(t *testing.T) {
	d, err := model.ParseDegrees("53.123450")
	if err != nil {
		t.Error(err)
	}

	assert.True(t, model.Degrees(53.123450).EqualWithin(d, model.E5))

	_, err = model.ParseDegrees("abc")
	if err == nil {
		t.Error("Parsing should have failed")
	}
}

func TestDegreesEqualWithin(t *testing.T) {
	assert.True(t, model.Degrees(53.123450).EqualWithin(model.Degrees(53.123454), model.E5))
	assert.False(t, model.Degrees(53.123450).EqualWithin(model.Degrees(53.123455), model.E5))
}

func TestDegreesString(t *testing.T) {
	assert.Equal(t, "53° 7' 24.42\"", model.Degrees(53.123450).String())
}

func TestCoordinates(t *testing.T) {
	assert.Equal(t, int64(515000000), model.ToCoordinate(0, 100, 51.5))
	assert.Equal(t, int64(-1200000), model.ToCoordinate(0, 100, -0.12))
	assert.Equal(t, int64(515000), model.ToCoordinate(500, 1000, 0.5150005))

	for _, d := range []model.Degrees{0, 51.5, -0.1234567, 179.9999999, -90} {
		c := model.ToCoordinate(0, 100, d)
		assert.True(t, d.EqualWithin(model.ToDegrees(0, 100, c), model.E7), "%v", d)
	}

	assert.Equal(t, int64(-1234567), model.Degrees(-0.001234567).Coordinate())
}
