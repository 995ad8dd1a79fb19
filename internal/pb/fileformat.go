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

package pb

import (
	"bytes"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	// TypeOSMHeader is the blob type of the file's header block.
	TypeOSMHeader = "OSMHeader"

	// TypeOSMData is the blob type of primitive blocks.
	TypeOSMData = "OSMData"
)

// BlobHeader precedes every blob and gives its type and size.
type BlobHeader struct {
	Type      string
	IndexData []byte
	Datasize  int32
}

func (h *BlobHeader) Unmarshal(b []byte) error {
	*h = BlobHeader{}

	return walk("BlobHeader", b, func(num protowire.Number, typ protowire.Type, v []byte) (err error) {
		switch num {
		case 1:
			var s []byte
			if s, err = length(typ, v); err == nil {
				h.Type = string(s)
			}
		case 2:
			var s []byte
			if s, err = length(typ, v); err == nil {
				h.IndexData = bytes.Clone(s)
			}
		case 3:
			var x uint64
			if x, err = varint(typ, v); err == nil {
				h.Datasize = int32(x)
			}
		}

		return err
	})
}

func (h *BlobHeader) Marshal() []byte {
	var b []byte

	b = appendString(b, 1, h.Type)
	if h.IndexData != nil {
		b = appendBytes(b, 2, h.IndexData)
	}

	return appendVarint(b, 3, fromInt32(h.Datasize))
}

// Compression identifies how the data of a Blob is stored.  The values are
// the field numbers of the corresponding members of the data oneof.
type Compression protowire.Number

const (
	None  Compression = 0
	Raw   Compression = 1
	Zlib  Compression = 3
	Lzma  Compression = 4
	Bzip2 Compression = 5
	Lz4   Compression = 6
	Zstd  Compression = 7
)

func (c Compression) String() string {
	switch c {
	case Raw:
		return "raw"
	case Zlib:
		return "zlib"
	case Lzma:
		return "lzma"
	case Bzip2:
		return "bzip2"
	case Lz4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return "none"
	}
}

// Blob holds the possibly compressed bytes of a header or primitive block.
type Blob struct {
	RawSize     int32
	Compression Compression
	Data        []byte
}

func (bl *Blob) Unmarshal(b []byte) error {
	*bl = Blob{}

	return walk("Blob", b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch c := Compression(num); c {
		case 2:
			x, err := varint(typ, v)
			if err != nil {
				return err
			}

			bl.RawSize = int32(x)
		case Raw, Zlib, Lzma, Bzip2, Lz4, Zstd:
			d, err := length(typ, v)
			if err != nil {
				return err
			}

			bl.Compression = c
			bl.Data = bytes.Clone(d)
		}

		return nil
	})
}

func (bl *Blob) Marshal() []byte {
	var b []byte

	if bl.Compression != None {
		b = appendBytes(b, protowire.Number(bl.Compression), bl.Data)
	}

	if bl.Compression != Raw || bl.RawSize != 0 {
		b = appendVarint(b, 2, fromInt32(bl.RawSize))
	}

	return b
}

// HeaderBBox is the header's bounding box in nanodegrees.
type HeaderBBox struct {
	Left   int64
	Right  int64
	Top    int64
	Bottom int64
}

func (bb *HeaderBBox) Unmarshal(b []byte) error {
	*bb = HeaderBBox{}

	return walk("HeaderBBox", b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		var dst *int64

		switch num {
		case 1:
			dst = &bb.Left
		case 2:
			dst = &bb.Right
		case 3:
			dst = &bb.Top
		case 4:
			dst = &bb.Bottom
		default:
			return nil
		}

		x, err := varint(typ, v)
		if err != nil {
			return err
		}

		*dst = sint64(x)

		return nil
	})
}

func (bb *HeaderBBox) Marshal() []byte {
	var b []byte

	b = appendVarint(b, 1, zigzag64(bb.Left))
	b = appendVarint(b, 2, zigzag64(bb.Right))
	b = appendVarint(b, 3, zigzag64(bb.Top))

	return appendVarint(b, 4, zigzag64(bb.Bottom))
}

// HeaderBlock is the content of the OSMHeader blob.
type HeaderBlock struct {
	BBox                             *HeaderBBox
	RequiredFeatures                 []string
	OptionalFeatures                 []string
	WritingProgram                   string
	Source                           string
	OsmosisReplicationTimestamp      int64
	OsmosisReplicationSequenceNumber int64
	OsmosisReplicationBaseURL        string
}

func (hb *HeaderBlock) Unmarshal(b []byte) error {
	*hb = HeaderBlock{}

	return walk("HeaderBlock", b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 1:
			s, err := length(typ, v)
			if err != nil {
				return err
			}

			hb.BBox = &HeaderBBox{}

			return hb.BBox.Unmarshal(s)
		case 4, 5, 16, 17, 34:
			s, err := length(typ, v)
			if err != nil {
				return err
			}

			switch num {
			case 4:
				hb.RequiredFeatures = append(hb.RequiredFeatures, string(s))
			case 5:
				hb.OptionalFeatures = append(hb.OptionalFeatures, string(s))
			case 16:
				hb.WritingProgram = string(s)
			case 17:
				hb.Source = string(s)
			case 34:
				hb.OsmosisReplicationBaseURL = string(s)
			}
		case 32, 33:
			x, err := varint(typ, v)
			if err != nil {
				return err
			}

			if num == 32 {
				hb.OsmosisReplicationTimestamp = int64(x)
			} else {
				hb.OsmosisReplicationSequenceNumber = int64(x)
			}
		}

		return nil
	})
}

func (hb *HeaderBlock) Marshal() []byte {
	var b []byte

	if hb.BBox != nil {
		b = appendBytes(b, 1, hb.BBox.Marshal())
	}

	for _, f := range hb.RequiredFeatures {
		b = appendString(b, 4, f)
	}

	for _, f := range hb.OptionalFeatures {
		b = appendString(b, 5, f)
	}

	if hb.WritingProgram != "" {
		b = appendString(b, 16, hb.WritingProgram)
	}

	if hb.Source != "" {
		b = appendString(b, 17, hb.Source)
	}

	if hb.OsmosisReplicationTimestamp != 0 {
		b = appendVarint(b, 32, fromInt64(hb.OsmosisReplicationTimestamp))
	}

	if hb.OsmosisReplicationSequenceNumber != 0 {
		b = appendVarint(b, 33, fromInt64(hb.OsmosisReplicationSequenceNumber))
	}

	if hb.OsmosisReplicationBaseURL != "" {
		b = appendString(b, 34, hb.OsmosisReplicationBaseURL)
	}

	return b
}
