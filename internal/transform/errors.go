package transform

import (
	"fmt"
	"strings"

	"github.com/alecacerestel/AppASO/internal/schema"
)

// EmptySourceError signals that one platform's raw table arrived with no
// rows. The affected data type cannot produce meaningful output, but the
// other data types still run.
type EmptySourceError struct {
	DataType schema.DataType
	Platform schema.Platform
}

func (e *EmptySourceError) Error() string {
	return fmt.Sprintf("%s/%s: source table has no rows", e.DataType, e.Platform)
}

// Failure records why one data type's pipeline did not complete.
type Failure struct {
	DataType schema.DataType
	Err      error
}

// TransformError aggregates the per-data-type failures of a run. The
// Result returned alongside it still carries every table that completed,
// so the caller can load partial output.
type TransformError struct {
	Failures []Failure
}

func (e *TransformError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.DataType, f.Err)
	}
	return "transform failed for " + strings.Join(parts, "; ")
}

// Failed returns the failure recorded for a data type, or nil.
func (e *TransformError) Failed(dataType schema.DataType) error {
	for _, f := range e.Failures {
		if f.DataType == dataType {
			return f.Err
		}
	}
	return nil
}
