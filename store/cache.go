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

	"github.com/coocood/freecache"

	"m4o.io/osmstream"
	"m4o.io/osmstream/model"
)

// MinCacheSize is the smallest cache freecache supports.
const MinCacheSize = 512 * 1024

// Cache is a read-through LRU cache in front of an osmstream.GeoSource.
// Entities are kept encoded, so the memory used is bounded by the size given
// to NewCache.  Entities too large for the cache are fetched every time.
type Cache struct {
	src   osmstream.GeoSource
	cache *freecache.Cache
}

var _ osmstream.GeoSource = (*Cache)(nil)

// NewCache returns a cache of size bytes in front of src.
func NewCache(src osmstream.GeoSource, size int) *Cache {
	return &Cache{
		src:   src,
		cache: freecache.NewCache(max(size, MinCacheSize)),
	}
}

func lookup[T model.Node | model.Way | model.Relation, P interface {
	*T
	model.Entity
}](c *Cache, t model.EntityType, id model.ID, fetch func(model.ID) (P, error)) (P, error) {
	k := key(t, id)

	if data, err := c.cache.Get(k); err == nil {
		v, err := decode[T](data)

		return P(v), err
	} else if !errors.Is(err, freecache.ErrNotFound) {
		return nil, err
	}

	v, err := fetch(id)
	if err != nil {
		return nil, err
	}

	if data, err := encode(v); err == nil {
		// entries over a 1024th of the cache are refused
		_ = c.cache.Set(k, data, 0)
	}

	return v, nil
}

func (c *Cache) GetNode(id model.ID) (*model.Node, error) {
	return lookup[model.Node](c, model.NODE, id, c.src.GetNode)
}

func (c *Cache) GetWay(id model.ID) (*model.Way, error) {
	return lookup[model.Way](c, model.WAY, id, c.src.GetWay)
}

func (c *Cache) GetRelation(id model.ID) (*model.Relation, error) {
	return lookup[model.Relation](c, model.RELATION, id, c.src.GetRelation)
}

// Hits is the number of lookups served from the cache.
func (c *Cache) Hits() int64 {
	return c.cache.HitCount()
}

// Misses is the number of lookups passed on to the underlying source.
func (c *Cache) Misses() int64 {
	return c.cache.MissCount()
}

// Len is the number of entities in the cache.
func (c *Cache) Len() int64 {
	return c.cache.EntryCount()
}
