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

package store

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"m4o.io/osmstream"
	"m4o.io/osmstream/model"
)

// DefaultBatchSize is the number of writes batched together by default.
const DefaultBatchSize = 50000

type levelDBOptions struct {
	batchSize int
	sync      bool
	logger    *slog.Logger
}

// LevelDBOption configures a LevelDB store.
type LevelDBOption func(*levelDBOptions)

// WithBatchSize sets the number of writes batched before they are written
// to the database.
func WithBatchSize(n int) LevelDBOption {
	return func(o *levelDBOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithSync makes every batch write wait for the data to reach the disk.
func WithSync(sync bool) LevelDBOption {
	return func(o *levelDBOptions) {
		o.sync = sync
	}
}

// WithLogger lets you set the logger the store reports to.
func WithLogger(logger *slog.Logger) LevelDBOption {
	return func(o *levelDBOptions) {
		o.logger = logger
	}
}

// LevelDB stores entities on disk.  It is an osmstream.Target for filling
// it and an osmstream.GeoSource for looking entities up.  Writes are
// batched; a lookup writes the pending batch first.
type LevelDB struct {
	db    *leveldb.DB
	batch *leveldb.Batch
	cfg   levelDBOptions
}

var (
	_ osmstream.Target    = (*LevelDB)(nil)
	_ osmstream.GeoSource = (*LevelDB)(nil)
)

// OpenLevelDB opens, creating it if needed, the database in directory path.
func OpenLevelDB(path string, opts ...LevelDBOption) (*LevelDB, error) {
	cfg := levelDBOptions{
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}

	for _, o := range opts {
		o(&cfg)
	}

	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("error opening leveldb %s: %w", path, err)
	}

	return &LevelDB{
		db:    db,
		batch: new(leveldb.Batch),
		cfg:   cfg,
	}, nil
}

func (s *LevelDB) Initialize() error {
	return nil
}

func (s *LevelDB) put(e model.Entity) error {
	val, err := encode(e)
	if err != nil {
		return err
	}

	s.batch.Put(key(e.Type(), e.GetID()), val)

	if s.batch.Len() >= s.cfg.batchSize {
		return s.Flush()
	}

	return nil
}

func (s *LevelDB) AddNode(n *model.Node) error {
	return s.put(n)
}

func (s *LevelDB) AddWay(w *model.Way) error {
	return s.put(w)
}

func (s *LevelDB) AddRelation(r *model.Relation) error {
	return s.put(r)
}

// Flush writes the pending batch.
func (s *LevelDB) Flush() error {
	if s.batch.Len() == 0 {
		return nil
	}

	n := s.batch.Len()

	if err := s.db.Write(s.batch, &opt.WriteOptions{NoWriteMerge: true, Sync: s.cfg.sync}); err != nil {
		return fmt.Errorf("error writing batch: %w", err)
	}

	s.batch.Reset()
	s.cfg.logger.Debug("flushed batch", "entities", n)

	return nil
}

func (s *LevelDB) get(t model.EntityType, id model.ID) ([]byte, error) {
	if err := s.Flush(); err != nil {
		return nil, err
	}

	data, err := s.db.Get(key(t, id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, notFound(t, id)
	} else if err != nil {
		return nil, fmt.Errorf("error reading %s %d: %w", t, id, err)
	}

	return data, nil
}

func (s *LevelDB) GetNode(id model.ID) (*model.Node, error) {
	data, err := s.get(model.NODE, id)
	if err != nil {
		return nil, err
	}

	return decode[model.Node](data)
}

func (s *LevelDB) GetWay(id model.ID) (*model.Way, error) {
	data, err := s.get(model.WAY, id)
	if err != nil {
		return nil, err
	}

	return decode[model.Way](data)
}

func (s *LevelDB) GetRelation(id model.ID) (*model.Relation, error) {
	data, err := s.get(model.RELATION, id)
	if err != nil {
		return nil, err
	}

	return decode[model.Relation](data)
}

// Close writes the pending batch and closes the database.
func (s *LevelDB) Close() error {
	err := s.Flush()

	if cerr := s.db.Close(); err == nil {
		err = cerr
	}

	return err
}

// Source returns a resettable source over the stored entities: nodes, then
// ways, then relations, each by increasing non-negative id.  Negative ids
// follow the non-negative ones of their type.
func (s *LevelDB) Source() *Scanner {
	return &Scanner{store: s}
}

// Scanner is an osmstream.Source iterating over a LevelDB store.
type Scanner struct {
	store *LevelDB
	iter  iterator.Iterator

	current model.Entity
	err     error
}

var _ osmstream.Source = (*Scanner)(nil)

func (sc *Scanner) Initialize() error {
	if sc.iter != nil {
		return osmstream.ErrAlreadyInitialized
	}

	if err := sc.store.Flush(); err != nil {
		return err
	}

	sc.iter = sc.store.db.NewIterator(nil, nil)

	return nil
}

func (sc *Scanner) MoveNext(ignore osmstream.Ignore) bool {
	sc.current = nil

	if sc.iter == nil {
		sc.err = osmstream.ErrNotInitialized

		return false
	}

	if sc.err != nil {
		return false
	}

	for sc.iter.Next() {
		k := sc.iter.Key()
		if len(k) == keySize && ignore.Skips(typeOf(k[0])) {
			continue
		}

		e, err := decodeEntity(k, sc.iter.Value())
		if err != nil {
			sc.err = err

			return false
		}

		sc.current = e

		return true
	}

	if err := sc.iter.Error(); err != nil {
		sc.err = fmt.Errorf("error iterating leveldb: %w", err)
	}

	return false
}

func typeOf(p byte) model.EntityType {
	switch p {
	case nodePrefix:
		return model.NODE
	case wayPrefix:
		return model.WAY
	default:
		return model.RELATION
	}
}

func (sc *Scanner) Current() model.Entity {
	if sc.current == nil {
		osmstream.NoCurrent("leveldb scanner")
	}

	return sc.current
}

func (sc *Scanner) Err() error {
	return sc.err
}

func (sc *Scanner) CanReset() bool {
	return true
}

func (sc *Scanner) Reset() error {
	if sc.iter == nil {
		return osmstream.ErrNotInitialized
	}

	sc.iter.Release()
	sc.iter = sc.store.db.NewIterator(nil, nil)
	sc.current = nil
	sc.err = nil

	return nil
}

// Close releases the iterator.
func (sc *Scanner) Close() {
	if sc.iter != nil {
		sc.iter.Release()
	}
}
