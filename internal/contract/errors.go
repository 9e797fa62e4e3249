package contract

import (
	"errors"
	"fmt"

	"github.com/huangsam/recap/schema"
)

// Sentinel errors for pipeline-level failure classification.
var (
	// ErrSourceUnavailable marks a source that could not be reached or
	// exhausted its retry budget. It is reported as a per-source status
	// and never aborts the other sources.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrNoData marks a run where every configured source was
	// unavailable. This is the only adapter failure that fails the run.
	ErrNoData = errors.New("no data available from any source")

	// ErrConfigInvalid marks configuration rejected before any fetch
	// begins.
	ErrConfigInvalid = errors.New("invalid configuration")
)

// MalformedRecordError reports a single raw record that failed
// normalization. The record is dropped and counted; the rest of the
// batch continues.
type MalformedRecordError struct {
	Source schema.SourceID
	Form   schema.RecordForm
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record from %s: %s", e.Form, e.Source, e.Reason)
}

// IsMalformed reports whether err is a MalformedRecordError.
func IsMalformed(err error) bool {
	var target *MalformedRecordError
	return errors.As(err, &target)
}
