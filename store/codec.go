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

// Package store holds lookup sources for complete-object resolution that do
// not keep the whole stream in memory: an on-disk LevelDB store and an LRU
// cache that can front any osmstream.GeoSource.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"m4o.io/osmstream"
	"m4o.io/osmstream/model"
)

// Key prefixes.  They order nodes before ways before relations.
const (
	nodePrefix byte = iota + 1
	wayPrefix
	relationPrefix
)

const keySize = 9

func prefix(t model.EntityType) byte {
	switch t {
	case model.NODE:
		return nodePrefix
	case model.WAY:
		return wayPrefix
	default:
		return relationPrefix
	}
}

// key is the type prefix followed by the big-endian id.
func key(t model.EntityType, id model.ID) []byte {
	k := make([]byte, keySize)
	k[0] = prefix(t)
	binary.BigEndian.PutUint64(k[1:], uint64(id))

	return k
}

func encode(e model.Entity) ([]byte, error) {
	var buf bytes.Buffer

	var err error

	switch e := e.(type) {
	case *model.Node:
		err = gob.NewEncoder(&buf).Encode(e)
	case *model.Way:
		err = gob.NewEncoder(&buf).Encode(e)
	case *model.Relation:
		err = gob.NewEncoder(&buf).Encode(e)
	}

	if err != nil {
		return nil, fmt.Errorf("error encoding %s %d: %w", e.Type(), e.GetID(), err)
	}

	return buf.Bytes(), nil
}

func decode[T model.Node | model.Way | model.Relation](data []byte) (*T, error) {
	v := new(T)
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return nil, fmt.Errorf("error decoding entity: %w", err)
	}

	return v, nil
}

// decodeEntity decodes a value stored under key k.
func decodeEntity(k, data []byte) (model.Entity, error) {
	if len(k) != keySize {
		return nil, fmt.Errorf("invalid key %x", k)
	}

	switch k[0] {
	case nodePrefix:
		return decode[model.Node](data)
	case wayPrefix:
		return decode[model.Way](data)
	case relationPrefix:
		return decode[model.Relation](data)
	default:
		return nil, fmt.Errorf("invalid key prefix %d", k[0])
	}
}

func notFound(t model.EntityType, id model.ID) error {
	return fmt.Errorf("%s %d: %w", t, id, osmstream.ErrNotFound)
}
