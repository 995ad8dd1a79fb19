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

package pbf

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/destel/rill"

	"m4o.io/osmstream"
	"m4o.io/osmstream/internal/encoder"
	"m4o.io/osmstream/model"
)

var errWriterClosed = errors.New("pbf writer is closed")

// Writer is an osmstream.Target writing a PBF stream.  Entities are batched
// per type into blocks of at most encoder.EntityLimit entities; a change of
// type or a full batch hands the block to a background pipeline that encodes
// and compresses blocks concurrently and writes them in order.
//
// Entities must not be modified once added.
type Writer struct {
	wrtr io.Writer
	cfg  writerOptions

	batch   []model.Entity
	batches chan rill.Try[[]model.Entity]

	mu  sync.Mutex
	err error

	initialized bool
	done        sync.WaitGroup
	close       sync.Once
}

var _ osmstream.Target = (*Writer)(nil)

// NewWriter returns a new writer, configured with options, that writes to
// wrtr.  Nothing is written until Initialize is called.
func NewWriter(wrtr io.Writer, opts ...WriterOption) *Writer {
	cfg := defaultWriterConfig()

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Writer{
		wrtr: wrtr,
		cfg:  cfg,
	}
}

// Header returns the header the writer writes.
func (w *Writer) Header() model.Header {
	return w.cfg.header
}

// Initialize writes the OSMHeader blob and starts the encoding pipeline.
func (w *Writer) Initialize() error {
	if w.initialized {
		return osmstream.ErrAlreadyInitialized
	}

	w.initialized = true

	if err := encoder.SaveHeader(w.wrtr, w.cfg.header, w.cfg.compression); err != nil {
		w.setErr(fmt.Errorf("error writing header: %w", err))

		return w.Err()
	}

	w.batches = make(chan rill.Try[[]model.Entity])

	var batches <-chan rill.Try[[]model.Entity] = w.batches

	encoded := rill.OrderedMap(batches, w.cfg.nCPU, encoder.EncodeBatch)
	packed := rill.OrderedMap(encoded, w.cfg.nCPU, encoder.GenerateBatchPacker(w.cfg.compression))
	statuses := encoder.SavePacked(w.wrtr, packed)

	w.done.Add(1)

	go w.consumeStatuses(statuses)

	return nil
}

func (w *Writer) consumeStatuses(statuses <-chan rill.Try[struct{}]) {
	defer w.done.Done()

	for status := range statuses {
		if status.Error != nil {
			w.cfg.logger.Error("unable to write block", "error", status.Error)
			w.setErr(status.Error)
		}
	}
}

func (w *Writer) setErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err == nil {
		w.err = err
	}
}

// Err returns the first error met while writing.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.err
}

func (w *Writer) AddNode(n *model.Node) error {
	return w.add(n)
}

func (w *Writer) AddWay(way *model.Way) error {
	return w.add(way)
}

func (w *Writer) AddRelation(r *model.Relation) error {
	return w.add(r)
}

func (w *Writer) add(e model.Entity) error {
	if !w.initialized {
		return osmstream.ErrNotInitialized
	}

	if w.batches == nil {
		if err := w.Err(); err != nil {
			return err
		}

		return errWriterClosed
	}

	if err := w.Err(); err != nil {
		return err
	}

	if len(w.batch) > 0 && w.batch[0].Type() != e.Type() {
		w.flush()
	}

	w.batch = append(w.batch, e)

	if len(w.batch) >= encoder.EntityLimit {
		w.flush()
	}

	return nil
}

func (w *Writer) flush() {
	if len(w.batch) == 0 {
		return
	}

	w.batches <- rill.Wrap(w.batch, nil)
	w.batch = make([]model.Entity, 0, encoder.EntityLimit)
}

// Close flushes the pending batch, waits for every block to be written and
// returns the first error met.  It does not close the underlying writer.
func (w *Writer) Close() error {
	w.close.Do(func() {
		if w.batches == nil {
			return
		}

		w.flush()
		close(w.batches)
		w.done.Wait()
		w.batches = nil
	})

	return w.Err()
}
