package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/huangsam/recap/internal/iocache"
)

// TestContextConcurrentAccess tests that context values can be safely accessed concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	ctx := context.Background()

	// Test concurrent reads of context values
	const numGoroutines = 50
	done := make(chan bool, numGoroutines)

	// Set up context with various values
	mgr := &iocache.MockCacheManager{}
	ctx = withRunID(ctx, 12345)
	ctx = contextWithCacheManager(ctx, mgr)

	for i := range numGoroutines {
		go func(id int) {
			defer func() { done <- true }()

			// Concurrent reads should be safe
			runID, ok := getRunID(ctx)
			got := cacheManagerFromContext(ctx)

			// Verify values are correct
			assert.True(t, ok, "Goroutine %d: getRunID should return true", id)
			assert.Equal(t, int64(12345), runID, "Goroutine %d: runID should be 12345", id)
			assert.Same(t, mgr, got, "Goroutine %d: cache manager should round-trip", id)
		}(i)
	}

	// Wait for all goroutines to complete
	for range numGoroutines {
		<-done
	}
}

// TestContextIsolation tests that different contexts maintain isolation.
func TestContextIsolation(t *testing.T) {
	baseCtx := context.Background()

	// Create multiple contexts with different values
	ctx1 := withRunID(baseCtx, 1)
	ctx2 := withRunID(baseCtx, 2)
	ctx3 := contextWithCacheManager(baseCtx, &iocache.MockCacheManager{})

	// Test concurrent access to different contexts
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		id1, ok1 := getRunID(ctx1)
		assert.True(t, ok1)
		assert.Equal(t, int64(1), id1)
		assert.Nil(t, cacheManagerFromContext(ctx1))
	}()

	go func() {
		defer wg.Done()
		id2, ok2 := getRunID(ctx2)
		assert.True(t, ok2)
		assert.Equal(t, int64(2), id2)
		assert.Nil(t, cacheManagerFromContext(ctx2))
	}()

	go func() {
		defer wg.Done()
		id3, ok3 := getRunID(ctx3)
		assert.False(t, ok3)
		assert.Equal(t, int64(0), id3)
		assert.NotNil(t, cacheManagerFromContext(ctx3))
	}()

	wg.Wait()
}
