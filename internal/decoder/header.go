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

package decoder

import (
	"errors"
	"fmt"
	"io"
	"time"

	"m4o.io/osmstream"
	"m4o.io/osmstream/internal/core"
	"m4o.io/osmstream/internal/pb"
	"m4o.io/osmstream/model"
)

var ErrUnsupportedFeature = errors.New("unsupported required feature")

// SupportedFeatures lists the required features a stream may declare.
var SupportedFeatures = []string{"OsmSchema-V0.6", "DenseNodes", "HistoricalInformation"}

// LoadHeader reads the first blob of the stream, which must be the
// OSMHeader, and checks that every required feature is supported.
func LoadHeader(br *BlobReader) (model.Header, error) {
	h, b, err := br.Next()
	if errors.Is(err, io.EOF) {
		return model.Header{}, fmt.Errorf("missing %s blob: %w", pb.TypeOSMHeader, osmstream.ErrMalformedBlock)
	} else if err != nil {
		return model.Header{}, err
	}

	if h.Type != pb.TypeOSMHeader {
		return model.Header{}, fmt.Errorf("expected %s blob but got %q: %w", pb.TypeOSMHeader, h.Type, osmstream.ErrMalformedBlock)
	}

	buf := core.NewPooledBuffer()
	defer buf.Close()

	data, err := Unpack(buf, b)
	if err != nil {
		return model.Header{}, fmt.Errorf("error unpacking header: %w", err)
	}

	hb := &pb.HeaderBlock{}
	if err := hb.Unmarshal(data); err != nil {
		return model.Header{}, fmt.Errorf("error unmarshalling header: %w", err)
	}

	for _, f := range hb.RequiredFeatures {
		if !isSupported(f) {
			return model.Header{}, fmt.Errorf("%w: %s", ErrUnsupportedFeature, f)
		}
	}

	return ToHeader(hb), nil
}

func isSupported(feature string) bool {
	for _, f := range SupportedFeatures {
		if f == feature {
			return true
		}
	}

	return false
}

// ToHeader converts a header block into its model.
func ToHeader(hb *pb.HeaderBlock) model.Header {
	header := model.Header{
		RequiredFeatures:                 hb.RequiredFeatures,
		OptionalFeatures:                 hb.OptionalFeatures,
		WritingProgram:                   hb.WritingProgram,
		Source:                           hb.Source,
		OsmosisReplicationSequenceNumber: hb.OsmosisReplicationSequenceNumber,
		OsmosisReplicationBaseURL:        hb.OsmosisReplicationBaseURL,
	}

	if hb.BBox != nil {
		header.BoundingBox = &model.BoundingBox{
			Left:   model.ToDegrees(0, 1, hb.BBox.Left),
			Right:  model.ToDegrees(0, 1, hb.BBox.Right),
			Top:    model.ToDegrees(0, 1, hb.BBox.Top),
			Bottom: model.ToDegrees(0, 1, hb.BBox.Bottom),
		}
	}

	if hb.OsmosisReplicationTimestamp != 0 {
		header.OsmosisReplicationTimestamp = time.Unix(hb.OsmosisReplicationTimestamp, 0).UTC()
	}

	return header
}

// DecodeBlock unpacks and unmarshals an OSMData blob.
func DecodeBlock(buf *core.PooledBuffer, blob *pb.Blob) (*pb.PrimitiveBlock, error) {
	data, err := Unpack(buf, blob)
	if err != nil {
		return nil, fmt.Errorf("error unpacking block: %w", err)
	}

	block := &pb.PrimitiveBlock{}
	if err := block.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("error unmarshalling block: %w", err)
	}

	return block, nil
}
