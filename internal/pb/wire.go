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

// Package pb is the in-memory model of the OpenStreetMap PBF messages
// declared in fileformat.proto and osmformat.proto, together with their
// protobuf wire encoding.
package pb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"m4o.io/osmstream"
)

// fieldFunc handles one field of a message.  v holds the field's raw value,
// without its tag.
type fieldFunc func(num protowire.Number, typ protowire.Type, v []byte) error

// walk calls fn for every field of the message encoded in b.
func walk(msg string, b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("invalid tag in %s: %w: %w", msg, protowire.ParseError(n), osmstream.ErrMalformedBlock)
		}

		b = b[n:]

		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return fmt.Errorf("invalid field %d in %s: %w: %w", num, msg, protowire.ParseError(m), osmstream.ErrMalformedBlock)
		}

		if err := fn(num, typ, b[:m]); err != nil {
			return fmt.Errorf("invalid field %d in %s: %w", num, msg, err)
		}

		b = b[m:]
	}

	return nil
}

func wrongType(typ protowire.Type) error {
	return fmt.Errorf("unexpected wire type %d: %w", typ, osmstream.ErrMalformedBlock)
}

func varint(typ protowire.Type, v []byte) (uint64, error) {
	if typ != protowire.VarintType {
		return 0, wrongType(typ)
	}

	x, n := protowire.ConsumeVarint(v)
	if n < 0 {
		return 0, fmt.Errorf("%w: %w", protowire.ParseError(n), osmstream.ErrMalformedBlock)
	}

	return x, nil
}

func length(typ protowire.Type, v []byte) ([]byte, error) {
	if typ != protowire.BytesType {
		return nil, wrongType(typ)
	}

	b, n := protowire.ConsumeBytes(v)
	if n < 0 {
		return nil, fmt.Errorf("%w: %w", protowire.ParseError(n), osmstream.ErrMalformedBlock)
	}

	return b, nil
}

// packed decodes a repeated varint field, accepting both the packed and the
// unpacked encoding.
func packed[T any](dst []T, typ protowire.Type, v []byte, conv func(uint64) T) ([]T, error) {
	switch typ {
	case protowire.VarintType:
		x, err := varint(typ, v)
		if err != nil {
			return dst, err
		}

		return append(dst, conv(x)), nil

	case protowire.BytesType:
		b, err := length(typ, v)
		if err != nil {
			return dst, err
		}

		for len(b) > 0 {
			x, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return dst, fmt.Errorf("%w: %w", protowire.ParseError(n), osmstream.ErrMalformedBlock)
			}

			dst = append(dst, conv(x))
			b = b[n:]
		}

		return dst, nil

	default:
		return dst, wrongType(typ)
	}
}

func sint64(x uint64) int64 { return protowire.DecodeZigZag(x) }

func sint32(x uint64) int32 { return int32(protowire.DecodeZigZag(x & 0xffffffff)) }

func int32v(x uint64) int32 { return int32(x) }

func uint32v(x uint64) uint32 { return uint32(x) }

func boolv(x uint64) bool { return protowire.DecodeBool(x) }

func zigzag64(v int64) uint64 { return protowire.EncodeZigZag(v) }

func zigzag32(v int32) uint64 { return uint64(uint32(int32(v<<1) ^ (v >> 31))) }

func appendVarint(b []byte, num protowire.Number, x uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)

	return protowire.AppendVarint(b, x)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)

	return protowire.AppendBytes(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)

	return protowire.AppendString(b, s)
}

func appendPacked[T any](b []byte, num protowire.Number, vs []T, conv func(T) uint64) []byte {
	if len(vs) == 0 {
		return b
	}

	var p []byte
	for _, v := range vs {
		p = protowire.AppendVarint(p, conv(v))
	}

	return appendBytes(b, num, p)
}

func fromInt64(v int64) uint64 { return uint64(v) }

func fromInt32(v int32) uint64 { return uint64(int64(v)) }

func fromUint32(v uint32) uint64 { return uint64(v) }

func fromBool(v bool) uint64 { return protowire.EncodeBool(v) }
