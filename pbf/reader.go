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

// Package pbf reads and writes OpenStreetMap PBF streams as osmstream
// sources and targets.
package pbf

import (
	"errors"
	"fmt"
	"io"

	"m4o.io/osmstream"
	"m4o.io/osmstream/internal/core"
	"m4o.io/osmstream/internal/decoder"
	"m4o.io/osmstream/internal/pb"
	"m4o.io/osmstream/model"
)

type state int

const (
	uninitialized state = iota
	ready
	exhausted
	failed
	closed
)

// ErrReaderClosed is returned by a Reader used after Close.
var ErrReaderClosed = errors.New("pbf reader closed")

// block collects the entities decoded from one primitive block.
type block []model.Entity

func (b *block) ProcessNode(n *model.Node) { *b = append(*b, n) }

func (b *block) ProcessWay(w *model.Way) { *b = append(*b, w) }

func (b *block) ProcessRelation(r *model.Relation) { *b = append(*b, r) }

// Reader is an osmstream.Source over a PBF stream.  Blocks are read and
// decoded one at a time, when the entities of the previous block have all
// been consumed, so memory use is bounded by the largest block.
//
// The ignore flags given to MoveNext also apply to the decoding of the block
// that call triggers; a pass over the stream is expected to use the same
// flags throughout.
type Reader struct {
	rdr io.Reader
	cfg readerOptions

	blobs  *decoder.BlobReader
	buf    *core.PooledBuffer
	header model.Header

	state   state
	pending block
	pos     int
	current model.Entity
	err     error
}

var _ osmstream.Source = (*Reader)(nil)

// NewReader returns a new reader, configured with options, that reads from
// rdr.  Nothing is read until Initialize is called.
func NewReader(rdr io.Reader, opts ...ReaderOption) *Reader {
	cfg := defaultReaderConfig()

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Reader{
		rdr:   rdr,
		cfg:   cfg,
		blobs: decoder.NewBlobReader(rdr),
	}
}

// Header returns the header read by Initialize.
func (r *Reader) Header() model.Header {
	return r.header
}

// Initialize reads and validates the OSMHeader blob.  It may be called only
// once.
func (r *Reader) Initialize() error {
	if r.state == closed {
		return ErrReaderClosed
	}

	if r.state != uninitialized {
		return osmstream.ErrAlreadyInitialized
	}

	r.buf = core.NewPooledBuffer()
	if r.cfg.protoBufferSize > r.buf.Cap() {
		r.buf.Grow(r.cfg.protoBufferSize)
	}

	if err := r.loadHeader(); err != nil {
		return err
	}

	r.state = ready

	return nil
}

func (r *Reader) loadHeader() error {
	hdr, err := decoder.LoadHeader(r.blobs)
	if err != nil {
		r.fail(fmt.Errorf("error reading header: %w", err))

		return r.err
	}

	r.header = hdr

	r.cfg.logger.Debug("read pbf header",
		"writing_program", hdr.WritingProgram,
		"required_features", hdr.RequiredFeatures)

	return nil
}

func (r *Reader) fail(err error) {
	r.cfg.logger.Error("unable to read pbf stream", "error", err)

	r.state = failed
	r.err = err
	r.current = nil
	r.pending = r.pending[:0]
	r.pos = 0
}

func (r *Reader) MoveNext(ignore osmstream.Ignore) bool {
	r.current = nil

	switch r.state {
	case uninitialized:
		r.fail(osmstream.ErrNotInitialized)

		return false
	case closed:
		r.err = ErrReaderClosed

		return false
	case exhausted, failed:
		return false
	}

	for {
		for r.pos < len(r.pending) {
			e := r.pending[r.pos]
			r.pos++

			if !ignore.Skips(e.Type()) {
				r.current = e

				return true
			}
		}

		if !r.nextBlock(ignore) {
			return false
		}
	}
}

// nextBlock decodes the next data block holding entities not ignored.  It
// returns false at the end of the stream or on error.
func (r *Reader) nextBlock(ignore osmstream.Ignore) bool {
	r.pending = r.pending[:0]
	r.pos = 0

	for {
		index, offset := r.blobs.Index(), r.blobs.Offset()

		h, b, err := r.blobs.Next()
		if errors.Is(err, io.EOF) {
			r.state = exhausted

			return false
		} else if err != nil {
			r.fail(err)

			return false
		}

		if h.Type != pb.TypeOSMData {
			r.cfg.logger.Debug("skipping blob", "type", h.Type, "index", index, "offset", offset)

			continue
		}

		blk, err := decoder.DecodeBlock(r.buf, b)
		if err == nil {
			_, err = decoder.ProcessPrimitiveBlock(blk, &r.pending, ignore)
		}

		if err != nil {
			r.fail(fmt.Errorf("block %d at offset %d: %w", index, offset, err))

			return false
		}

		if len(r.pending) > 0 {
			return true
		}
	}
}

func (r *Reader) Current() model.Entity {
	if r.current == nil {
		osmstream.NoCurrent("pbf reader")
	}

	return r.current
}

func (r *Reader) Err() error {
	return r.err
}

// CanReset reports whether the underlying reader can seek back to the start
// of the stream.  Pipes and terminals cannot.
func (r *Reader) CanReset() bool {
	s, ok := r.rdr.(io.Seeker)
	if !ok {
		return false
	}

	_, err := s.Seek(0, io.SeekCurrent)

	return err == nil
}

// Reset seeks back to the start of the stream and rereads the header.
func (r *Reader) Reset() error {
	if r.state == closed {
		return ErrReaderClosed
	}

	if !r.CanReset() {
		return osmstream.ErrUnsupportedReset
	}

	if r.state == uninitialized {
		return osmstream.ErrNotInitialized
	}

	if _, err := r.rdr.(io.Seeker).Seek(0, io.SeekStart); err != nil {
		r.fail(fmt.Errorf("error seeking to start: %w", err))

		return r.err
	}

	r.blobs.Rewind()
	r.pending = r.pending[:0]
	r.pos = 0
	r.current = nil
	r.err = nil

	if err := r.loadHeader(); err != nil {
		return err
	}

	r.state = ready

	return nil
}

// Close releases the reader's buffers.  It does not close the underlying
// reader.  A closed reader cannot be reset or read again.
func (r *Reader) Close() error {
	r.blobs.Close()

	if r.buf != nil {
		r.buf.Close()
		r.buf = nil
	}

	r.state = closed
	r.current = nil
	r.pending = nil
	r.pos = 0

	return nil
}
