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
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"m4o.io/osmstream"
	"m4o.io/osmstream/internal/core"
	"m4o.io/osmstream/internal/pb"
)

const (
	// MaxBlobHeaderSize is the largest blob header a reader accepts.
	MaxBlobHeaderSize = 64 * 1024

	// MaxBlobSize is the largest blob a reader accepts.
	MaxBlobSize = 32 * 1024 * 1024
)

// BlobReader reads the blobs of a PBF stream one at a time, keeping track of
// the index and byte offset of the blob being read.
type BlobReader struct {
	rdr    io.Reader
	buf    *core.PooledBuffer
	index  int
	offset int64
}

// NewBlobReader returns a BlobReader positioned at the start of rdr.
func NewBlobReader(rdr io.Reader) *BlobReader {
	return &BlobReader{rdr: rdr}
}

// Index is the index of the next blob to be read.
func (br *BlobReader) Index() int {
	return br.index
}

// Offset is the byte offset of the next blob to be read.
func (br *BlobReader) Offset() int64 {
	return br.offset
}

// Rewind tells the reader that the underlying stream has been repositioned
// to its start.
func (br *BlobReader) Rewind() {
	br.index = 0
	br.offset = 0
}

// Close releases the reader's buffer.
func (br *BlobReader) Close() {
	if br.buf != nil {
		br.buf.Close()
		br.buf = nil
	}
}

// Next reads the next blob.  It returns io.EOF, unwrapped, when the stream
// ends cleanly between two blobs.  Any other failure wraps
// osmstream.ErrMalformedBlock and names the blob's index and offset.
func (br *BlobReader) Next() (*pb.BlobHeader, *pb.Blob, error) {
	if br.buf == nil {
		br.buf = core.NewPooledBuffer()
	}

	h, n, err := br.readBlobHeader()
	if errors.Is(err, io.EOF) && n == 0 {
		return nil, nil, io.EOF
	} else if err != nil {
		return nil, nil, br.wrap("error reading blob header", err)
	}

	b, err := br.readBlobData(int64(h.Datasize))
	if err != nil {
		return nil, nil, br.wrap(fmt.Sprintf("error reading %s blob", h.Type), err)
	}

	br.offset += n + int64(h.Datasize)
	br.index++

	return h, b, nil
}

func (br *BlobReader) wrap(msg string, err error) error {
	if !errors.Is(err, osmstream.ErrMalformedBlock) {
		err = fmt.Errorf("%w: %w", err, osmstream.ErrMalformedBlock)
	}

	return fmt.Errorf("block %d at offset %d: %s: %w", br.index, br.offset, msg, err)
}

// readBlobHeader reads the size prefixed header of a blob.  The header is
// used when decoding blobs into OSM entities.  It returns the number of bytes
// consumed.
func (br *BlobReader) readBlobHeader() (*pb.BlobHeader, int64, error) {
	var size uint32

	if err := binary.Read(br.rdr, binary.BigEndian, &size); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, io.EOF
		}

		return nil, 4, fmt.Errorf("error reading blob header size: %w", err)
	}

	if size > MaxBlobHeaderSize {
		return nil, 4, fmt.Errorf("blob header size %d exceeds %d: %w", size, MaxBlobHeaderSize, osmstream.ErrMalformedBlock)
	}

	if err := br.fill(int64(size)); err != nil {
		return nil, 4, err
	}

	header := &pb.BlobHeader{}

	if err := header.Unmarshal(br.buf.Bytes()); err != nil {
		return nil, 4, fmt.Errorf("error unmarshalling blob header: %w", err)
	}

	if header.Datasize < 0 || header.Datasize > MaxBlobSize {
		return nil, 4, fmt.Errorf("blob size %d out of range [0, %d]: %w", header.Datasize, MaxBlobSize, osmstream.ErrMalformedBlock)
	}

	return header, 4 + int64(size), nil
}

// readBlobData reads a blob of size bytes.  The blob still needs to be
// unpacked and decoded into OSM entities.
func (br *BlobReader) readBlobData(size int64) (*pb.Blob, error) {
	if err := br.fill(size); err != nil {
		return nil, err
	}

	blob := &pb.Blob{}

	if err := blob.Unmarshal(br.buf.Bytes()); err != nil {
		return nil, fmt.Errorf("error unmarshalling blob: %w", err)
	}

	return blob, nil
}

func (br *BlobReader) fill(size int64) error {
	br.buf.Reset()

	if n, err := io.CopyN(br.buf, br.rdr, size); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}

		return fmt.Errorf("expected %d bytes, got %d: %w", size, n, err)
	}

	return nil
}
