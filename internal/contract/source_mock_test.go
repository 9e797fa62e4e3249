package contract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/huangsam/recap/schema"
)

// TestMockSourceAdapter_Fetch ensures the mock correctly records and returns
// expected values when its Fetch method is called.
func TestMockSourceAdapter_Fetch(t *testing.T) {
	// 1. Setup the Mock
	mockAdapter := new(MockSourceAdapter)

	ctx := context.Background()
	window := schema.ReportingWindow{
		Start: time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
	}

	// Define the expected output values.
	expectedResult := schema.FetchResult{
		Records: []schema.RawRecord{
			{Source: schema.GitHubSource, Form: schema.EventForm, Payload: []byte(`{"id":"1"}`)},
		},
		Stats: schema.FetchStats{Requests: 1, Pages: 1},
	}
	expectedError := errors.New("mocked fetch error")

	// 2. Program the Mock Behavior
	mockAdapter.
		On("Fetch", ctx, "alice", window).      // Expect a call with these arguments.
		Return(expectedResult, expectedError).  // Program the values to return.
		Once()                                  // Expect the call to happen exactly once.

	// 3. Execute the Code Under Test (i.e., call the mock method)
	actualResult, actualError := mockAdapter.Fetch(ctx, "alice", window)

	// 4. Assertions
	assert.Equal(t, expectedResult, actualResult, "Fetch should return the programmed result")
	assert.Equal(t, expectedError, actualError, "Fetch should return the programmed error")

	// Verify that the expected method call actually occurred.
	mockAdapter.AssertExpectations(t)
}

// TestMockSourceAdapter_NameAndProbe covers the remaining interface methods.
func TestMockSourceAdapter_NameAndProbe(t *testing.T) {
	mockAdapter := new(MockSourceAdapter)
	ctx := context.Background()

	mockAdapter.On("Name").Return(schema.BugzillaSource)
	mockAdapter.On("Probe", ctx).Return(nil).Once()

	assert.Equal(t, schema.BugzillaSource, mockAdapter.Name())
	assert.NoError(t, mockAdapter.Probe(ctx))
	mockAdapter.AssertExpectations(t)
}
