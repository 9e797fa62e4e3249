// Package iocache is for caching I/O calls and tracking run telemetry.
package iocache

import (
	"sync"

	"github.com/huangsam/recap/internal/contract"
)

// CacheStoreManager manages the fetch cache and run ledger stores.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	fetch        contract.CacheStore
	ledger       contract.LedgerStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetFetchStore returns the fetch CacheStore.
func (mgr *CacheStoreManager) GetFetchStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.fetch
}

// GetLedgerStore returns the run LedgerStore.
func (mgr *CacheStoreManager) GetLedgerStore() contract.LedgerStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.ledger
}
