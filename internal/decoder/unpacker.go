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

package decoder

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
	"github.com/ulikunitz/xz/lzma"

	"m4o.io/osmstream"
	"m4o.io/osmstream/internal/core"
	"m4o.io/osmstream/internal/pb"
)

var ErrUnknownCompressionType = errors.New("unknown blob compression type")

// Unpack uncompresses the blob into buf and returns the uncompressed bytes,
// which are only valid until buf is reset.
//
// This method is not "buried" within the blob reader so that decompression
// of blobs can be performed concurrently.
func Unpack(buf *core.PooledBuffer, blob *pb.Blob) ([]byte, error) {
	var factory func(data []byte) (io.Reader, error)

	switch blob.Compression {
	case pb.Raw:
		return blob.Data, nil
	case pb.Zlib:
		factory = func(data []byte) (io.Reader, error) {
			return zlib.NewReader(bytes.NewReader(data))
		}
	case pb.Lzma:
		factory = func(data []byte) (io.Reader, error) {
			return lzma.NewReader(bytes.NewReader(data))
		}
	case pb.Lz4:
		factory = func(data []byte) (io.Reader, error) {
			return lz4.NewReader(bytes.NewReader(data)), nil
		}
	case pb.Zstd:
		factory = func(data []byte) (io.Reader, error) {
			d, err := zstd.NewReader(bytes.NewReader(data))
			if err != nil {
				return nil, err
			}

			return d.IOReadCloser(), nil
		}
	default:
		return nil, fmt.Errorf("%w %s: %w", ErrUnknownCompressionType, blob.Compression, osmstream.ErrMalformedBlock)
	}

	if blob.RawSize < 0 || blob.RawSize > MaxBlobSize {
		return nil, fmt.Errorf("raw blob size %d out of range [0, %d]: %w", blob.RawSize, MaxBlobSize, osmstream.ErrMalformedBlock)
	}

	buf.Reset()

	rawBufferSize := int(blob.RawSize) + bytes.MinRead
	if rawBufferSize > buf.Cap() {
		buf.Grow(rawBufferSize)
	}

	rdr, err := factory(blob.Data)
	if err != nil {
		return nil, fmt.Errorf("unpacker factory error: %w: %w", err, osmstream.ErrMalformedBlock)
	}

	if c, ok := rdr.(io.Closer); ok {
		defer c.Close()
	}

	if n, err := buf.ReadFrom(io.LimitReader(rdr, int64(MaxBlobSize)+1)); err != nil {
		return nil, fmt.Errorf("unpacker read error: %w: %w", err, osmstream.ErrMalformedBlock)
	} else if n != int64(blob.RawSize) {
		return nil, fmt.Errorf("raw blob data size %d but expected %d: %w", n, blob.RawSize, osmstream.ErrMalformedBlock)
	}

	return buf.Bytes(), nil
}
