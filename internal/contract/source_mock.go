package contract

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/huangsam/recap/schema"
)

// --- MockSourceAdapter Implementation ---

// MockSourceAdapter is an autogenerated mock type for the SourceAdapter type.
type MockSourceAdapter struct {
	mock.Mock
}

var _ SourceAdapter = &MockSourceAdapter{} // Compile-time check

// Name implements the contract.SourceAdapter interface.
func (m *MockSourceAdapter) Name() schema.SourceID {
	ret := m.Called()
	name, _ := ret.Get(0).(schema.SourceID)
	return name
}

// Fetch implements the contract.SourceAdapter interface.
func (m *MockSourceAdapter) Fetch(ctx context.Context, actor string, window schema.ReportingWindow) (schema.FetchResult, error) {
	ret := m.Called(ctx, actor, window)
	result, _ := ret.Get(0).(schema.FetchResult)
	return result, ret.Error(1)
}

// Probe implements the contract.SourceAdapter interface.
func (m *MockSourceAdapter) Probe(ctx context.Context) error {
	ret := m.Called(ctx)
	return ret.Error(0)
}
