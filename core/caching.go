package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
)

// currentCacheVersion defines the version of the fetch cache schema
const currentCacheVersion = 1

// defaultCacheTTL bounds how long a cached fetch stays usable when the
// config does not set its own TTL.
const defaultCacheTTL = 7 * 24 * time.Hour

// cachedFetch wraps one adapter fetch with the fetch cache. A hit skips
// the network entirely; a clean miss is stored for the next run. Failed
// fetches are never cached, so a source outage cannot be replayed as data.
func cachedFetch(ctx context.Context, cfg *contract.Config, adapter contract.SourceAdapter, actorID string) (schema.FetchResult, error) {
	if cfg.NoCache {
		return adapter.Fetch(ctx, actorID, cfg.Window)
	}
	mgr := cacheManagerFromContext(ctx)
	if mgr == nil {
		// Fallback to direct fetch
		return adapter.Fetch(ctx, actorID, cfg.Window)
	}
	store := mgr.GetFetchStore()
	if store == nil {
		return adapter.Fetch(ctx, actorID, cfg.Window)
	}

	key := generateCacheKey(adapter.Name(), actorID, cfg.Window)

	// Check for cache hit
	if result := checkCacheHit(store, key, cacheTTL(cfg)); result != nil {
		return *result, nil
	}

	// Cache miss: fetch and store
	return fetchAndStore(ctx, cfg, adapter, actorID, store, key)
}

// checkCacheHit attempts to retrieve and validate a cached fetch result
func checkCacheHit(store contract.CacheStore, key string, ttl time.Duration) *schema.FetchResult {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version == currentCacheVersion {
		entryTimestamp := time.Unix(ts, 0)
		if time.Since(entryTimestamp) <= ttl {
			var result schema.FetchResult
			if err := json.Unmarshal(data, &result); err == nil {
				return &result // Cache hit
			}
		}
	}

	return nil // Cache miss (stale or version mismatch)
}

// fetchAndStore performs the fetch and stores a clean result in cache
func fetchAndStore(ctx context.Context, cfg *contract.Config, adapter contract.SourceAdapter, actorID string, store contract.CacheStore, key string) (schema.FetchResult, error) {
	result, err := adapter.Fetch(ctx, actorID, cfg.Window)
	if err != nil {
		return result, err
	}

	// Store in cache
	if data, err := json.Marshal(result); err == nil {
		_ = store.Set(key, data, currentCacheVersion, time.Now().Unix())
	}

	return result, nil
}

// cacheTTL resolves the staleness bound for cached fetch results.
func cacheTTL(cfg *contract.Config) time.Duration {
	if cfg.CacheTTL > 0 {
		return cfg.CacheTTL
	}
	return defaultCacheTTL
}

// generateCacheKey creates a unique key based on fetch parameters. The
// window bounds are part of the key, so shifting a quarter never reuses
// stale data.
func generateCacheKey(source schema.SourceID, actorID string, window schema.ReportingWindow) string {
	key := fmt.Sprintf("%s:%s:%d:%d:%d",
		source,
		actorID,
		window.Start.Unix(),
		window.End.Unix(),
		currentCacheVersion,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
