package search

import (
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/hiro0218/kanren/internal/cache"
	"github.com/hiro0218/kanren/internal/models"
)

// DefaultCacheSize is the query result cache capacity. Entries invalidate
// naturally through LRU eviction; there is no TTL.
const DefaultCacheSize = 50

// CachedEngine memoizes query results in an LRU cache so repeated and
// incremental queries (a user typing) skip the scorer. Concurrent identical
// queries are collapsed to a single computation.
type CachedEngine struct {
	engine  *Engine
	results *cache.LRU[[]models.SearchResultItem]
	group   singleflight.Group
}

// NewCachedEngine wraps engine with a result cache of the given capacity
// (DefaultCacheSize when size is 0 or negative).
func NewCachedEngine(engine *Engine, size int) *CachedEngine {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &CachedEngine{
		engine:  engine,
		results: cache.New[[]models.SearchResultItem](size),
	}
}

// Search returns cached results for the query when present, computing and
// caching them otherwise. The cache key includes the corpus size so a
// reloaded index of different shape does not serve stale hits.
func (c *CachedEngine) Search(query string) []models.SearchResultItem {
	key := fmt.Sprintf("%s-%d", query, c.engine.RecordCount())
	if results, ok := c.results.Get(key); ok {
		return results
	}

	v, _, _ := c.group.Do(key, func() (interface{}, error) {
		results := c.engine.Search(query)
		c.results.Set(key, results)
		return results, nil
	})
	return v.([]models.SearchResultItem)
}

// Clear drops all cached results. Called after an index reload.
func (c *CachedEngine) Clear() {
	c.results.Clear()
}
