// Copyright 2025-26 the original author or authors.
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

package encoder

import (
	"fmt"
	"io"

	"m4o.io/osmstream/internal/pb"
	"m4o.io/osmstream/model"
)

// SaveHeader writes hdr as the OSMHeader blob.
func SaveHeader(wrtr io.Writer, hdr model.Header, compression BlobCompression) error {
	bb, err := Pack(ToHeaderBlock(hdr), compression)
	if err != nil {
		return fmt.Errorf("could not pack header: %w", err)
	}

	if err := WriteBlob(wrtr, pb.TypeOSMHeader, bb); err != nil {
		return fmt.Errorf("could not write header: %w", err)
	}

	return nil
}

// ToHeaderBlock converts hdr into its wire form.
func ToHeaderBlock(hdr model.Header) *pb.HeaderBlock {
	hb := &pb.HeaderBlock{
		RequiredFeatures:                 hdr.RequiredFeatures,
		OptionalFeatures:                 hdr.OptionalFeatures,
		WritingProgram:                   hdr.WritingProgram,
		Source:                           hdr.Source,
		OsmosisReplicationSequenceNumber: hdr.OsmosisReplicationSequenceNumber,
		OsmosisReplicationBaseURL:        hdr.OsmosisReplicationBaseURL,
	}

	if bbox := hdr.BoundingBox; bbox != nil && !bbox.IsEmpty() {
		hb.BBox = &pb.HeaderBBox{
			Top:    bbox.Top.Coordinate(),
			Left:   bbox.Left.Coordinate(),
			Bottom: bbox.Bottom.Coordinate(),
			Right:  bbox.Right.Coordinate(),
		}
	}

	if !hdr.OsmosisReplicationTimestamp.IsZero() {
		hb.OsmosisReplicationTimestamp = hdr.OsmosisReplicationTimestamp.Unix()
	}

	return hb
}
