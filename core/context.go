package core

import (
	"context"

	"github.com/huangsam/recap/internal/contract"
)

// Context keys for run options
type contextKey string

const (
	runIDKey        contextKey = "runID"
	cacheManagerKey contextKey = "cacheManager"
)

// withRunID sets the ledger run ID in the context
func withRunID(ctx context.Context, runID int64) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// getRunID returns the ledger run ID from context, if one was set
func getRunID(ctx context.Context) (int64, bool) {
	val := ctx.Value(runIDKey)
	if val == nil {
		return 0, false // default: no run tracking
	}
	runID, ok := val.(int64)
	return runID, ok
}

// contextWithCacheManager sets the cache manager in the context
func contextWithCacheManager(ctx context.Context, mgr contract.CacheManager) context.Context {
	return context.WithValue(ctx, cacheManagerKey, mgr)
}

// cacheManagerFromContext returns the cache manager from context
func cacheManagerFromContext(ctx context.Context) contract.CacheManager {
	val := ctx.Value(cacheManagerKey)
	if val == nil {
		return nil // default: no cache manager
	}
	mgr, ok := val.(contract.CacheManager)
	if !ok {
		return nil
	}
	return mgr
}
