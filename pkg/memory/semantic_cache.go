// Copyright 2025 Kadir Pekel
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

package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/councilrun/council/pkg/vector"
)

// cacheEntry is one cached query/response pair.
type cacheEntry struct {
	query     string
	response  string
	createdAt time.Time
	hits      int
}

// SemanticCache caches model responses keyed by query similarity rather
// than exact text match: a new query that means the same thing as one
// already answered reuses the cached response instead of paying for
// another model call.
type SemanticCache struct {
	store               vector.Provider
	collection          string
	similarityThreshold float32
	ttl                 time.Duration
	maxEntries           int

	mu    sync.Mutex
	exact map[string]*cacheEntry
	hits  int
	misses int
}

// NewSemanticCache builds a cache over store, using collection to hold
// query embeddings. similarityThreshold is in [0,1]; ttl expires entries
// regardless of hit count.
func NewSemanticCache(store vector.Provider, collection string, similarityThreshold float32, ttl time.Duration, maxEntries int) *SemanticCache {
	if collection == "" {
		collection = "council_semantic_cache"
	}
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &SemanticCache{
		store:               store,
		collection:          collection,
		similarityThreshold: similarityThreshold,
		ttl:                 ttl,
		maxEntries:           maxEntries,
		exact:                make(map[string]*cacheEntry),
	}
}

func queryHash(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])[:16]
}

// Get looks up a cached response for query: first an exact hash match,
// then a semantic nearest-neighbor search against queryEmbedding.
func (c *SemanticCache) Get(ctx context.Context, query string, queryEmbedding []float32) (string, bool) {
	c.mu.Lock()
	if entry, ok := c.exact[queryHash(query)]; ok {
		if time.Since(entry.createdAt) <= c.ttl || c.ttl == 0 {
			entry.hits++
			c.hits++
			c.mu.Unlock()
			return entry.response, true
		}
		delete(c.exact, queryHash(query))
	}
	c.mu.Unlock()

	if c.store == nil || queryEmbedding == nil {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return "", false
	}

	results, err := c.store.Search(ctx, c.collection, queryEmbedding, 1)
	if err != nil || len(results) == 0 {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return "", false
	}

	top := results[0]
	if top.Score < c.similarityThreshold {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return "", false
	}

	cached, ok := top.Metadata["cached_response"].(string)
	if !ok {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return "", false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return cached, true
}

// Set stores query/response, both in the exact-match map and (when a
// real embedding is supplied) in the vector store for fuzzy lookups.
func (c *SemanticCache) Set(ctx context.Context, query, response string, queryEmbedding []float32) error {
	c.evictExpired()

	entry := &cacheEntry{query: query, response: response, createdAt: time.Now()}

	c.mu.Lock()
	c.exact[queryHash(query)] = entry
	if len(c.exact) > c.maxEntries {
		c.evictOldestLocked()
	}
	c.mu.Unlock()

	if c.store == nil || queryEmbedding == nil {
		return nil
	}

	return c.store.Upsert(ctx, c.collection, queryHash(query), queryEmbedding, map[string]any{
		"cached_response": response,
		"cached_at":       time.Now().UTC().Format(time.RFC3339),
		"type":            "semantic_cache",
	})
}

func (c *SemanticCache) evictExpired() {
	if c.ttl == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.exact {
		if time.Since(e.createdAt) > c.ttl {
			delete(c.exact, k)
		}
	}
}

// evictOldestLocked drops the single oldest entry; caller holds c.mu.
func (c *SemanticCache) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for k, e := range c.exact {
		if first || e.createdAt.Before(oldestTime) {
			oldestKey, oldestTime, first = k, e.createdAt, false
		}
	}
	if oldestKey != "" {
		delete(c.exact, oldestKey)
	}
}

// Stats reports hit/miss counters for observability.
type CacheStats struct {
	Hits    int
	Misses  int
	Entries int
}

// Stats returns current cache hit/miss/size counters.
func (c *SemanticCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Entries: len(c.exact)}
}
