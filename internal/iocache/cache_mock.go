package iocache

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
)

// MockCacheManager is a mock implementation of CacheManager for testing.
type MockCacheManager struct {
	mock.Mock
}

var _ contract.CacheManager = &MockCacheManager{} // Compile-time check

// GetFetchStore implements the CacheManager interface.
func (m *MockCacheManager) GetFetchStore() contract.CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.CacheStore)
	return store
}

// GetLedgerStore implements the CacheManager interface.
func (m *MockCacheManager) GetLedgerStore() contract.LedgerStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.LedgerStore)
	return store
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ contract.CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	return args.Get(0).([]byte), args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.CacheStatus), args.Error(1)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockLedgerStore is a mock implementation of LedgerStore for testing.
type MockLedgerStore struct {
	mock.Mock
}

var _ contract.LedgerStore = &MockLedgerStore{} // Compile-time check

// BeginRun implements the LedgerStore interface.
func (m *MockLedgerStore) BeginRun(startTime time.Time, window schema.ReportingWindow, configParams map[string]any) (int64, error) {
	args := m.Called(startTime, window, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the LedgerStore interface.
func (m *MockLedgerStore) EndRun(runID int64, endTime time.Time, totalRecords int) error {
	args := m.Called(runID, endTime, totalRecords)
	return args.Error(0)
}

// RecordFetch implements the LedgerStore interface.
func (m *MockLedgerStore) RecordFetch(runID int64, rec schema.RunRecord) error {
	args := m.Called(runID, rec)
	return args.Error(0)
}

// GetStatus implements the LedgerStore interface.
func (m *MockLedgerStore) GetStatus() (schema.LedgerStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.LedgerStatus), args.Error(1)
}

// GetAllRuns implements the LedgerStore interface.
func (m *MockLedgerStore) GetAllRuns() ([]schema.RunSummary, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RunSummary)
	return runs, args.Error(1)
}

// GetAllRecords implements the LedgerStore interface.
func (m *MockLedgerStore) GetAllRecords() ([]schema.RunRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.RunRecord)
	return records, args.Error(1)
}

// Close implements the LedgerStore interface.
func (m *MockLedgerStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
