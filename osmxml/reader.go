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

// Package osmxml reads and writes OpenStreetMap XML documents as osmstream
// sources and targets.
package osmxml

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmxml"

	"m4o.io/osmstream"
	"m4o.io/osmstream/model"
)

// Reader is an osmstream.Source over an OSM XML document.  Elements other
// than nodes, ways and relations are skipped.
type Reader struct {
	rdr io.Reader
	cfg readerOptions

	scanner     *osmxml.Scanner
	initialized bool
	current     model.Entity
	err         error
}

var _ osmstream.Source = (*Reader)(nil)

func NewReader(rdr io.Reader, opts ...ReaderOption) *Reader {
	cfg := readerOptions{
		ctx:    context.Background(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Reader{rdr: rdr, cfg: cfg}
}

func (r *Reader) Initialize() error {
	if r.initialized {
		return osmstream.ErrAlreadyInitialized
	}

	r.initialized = true
	r.scanner = osmxml.New(r.cfg.ctx, r.rdr)

	return nil
}

func (r *Reader) MoveNext(ignore osmstream.Ignore) bool {
	r.current = nil

	if !r.initialized {
		r.err = osmstream.ErrNotInitialized

		return false
	}

	if r.err != nil {
		return false
	}

	for r.scanner.Scan() {
		e, err := r.convert(r.scanner.Object())
		if err != nil {
			r.cfg.logger.Error("unable to read osm xml", "error", err)
			r.err = err

			return false
		}

		if e == nil || ignore.Skips(e.Type()) {
			continue
		}

		r.current = e

		return true
	}

	if err := r.scanner.Err(); err != nil {
		r.cfg.logger.Error("unable to read osm xml", "error", err)
		r.err = fmt.Errorf("error scanning osm xml: %w", err)
	}

	return false
}

func (r *Reader) convert(o osm.Object) (model.Entity, error) {
	switch o := o.(type) {
	case *osm.Node:
		return fromNode(o), nil
	case *osm.Way:
		return fromWay(o), nil
	case *osm.Relation:
		return fromRelation(o)
	default:
		r.cfg.logger.Debug("skipping element", "type", fmt.Sprintf("%T", o))

		return nil, nil
	}
}

func (r *Reader) Current() model.Entity {
	if r.current == nil {
		osmstream.NoCurrent("osm xml reader")
	}

	return r.current
}

func (r *Reader) Err() error {
	return r.err
}

// CanReset reports whether the underlying reader can seek back to the start
// of the document.
func (r *Reader) CanReset() bool {
	s, ok := r.rdr.(io.Seeker)
	if !ok {
		return false
	}

	_, err := s.Seek(0, io.SeekCurrent)

	return err == nil
}

// Reset seeks back to the start of the document and starts a new scanner.
func (r *Reader) Reset() error {
	if !r.CanReset() {
		return osmstream.ErrUnsupportedReset
	}

	if !r.initialized {
		return osmstream.ErrNotInitialized
	}

	if err := r.scanner.Close(); err != nil {
		return fmt.Errorf("error closing scanner: %w", err)
	}

	if _, err := r.rdr.(io.Seeker).Seek(0, io.SeekStart); err != nil {
		r.err = fmt.Errorf("error seeking to start: %w", err)

		return r.err
	}

	r.scanner = osmxml.New(r.cfg.ctx, r.rdr)
	r.current = nil
	r.err = nil

	return nil
}

// Close stops the scanner.  It does not close the underlying reader.
func (r *Reader) Close() error {
	if r.scanner == nil {
		return nil
	}

	return r.scanner.Close()
}
