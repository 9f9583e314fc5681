package state

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrMissingShapeHash - Document can't be matched across snapshots without a shape hash
var ErrMissingShapeHash error = errors.New("document has no queryShapeHash")

// MetricError - A single metric of a query shape could not be diffed
type MetricError struct {
	ShapeHash string
	Key       string
	Err       error
}

func (e *MetricError) Error() string {
	if e.ShapeHash == "" {
		return fmt.Sprintf("metric %s: %s", e.Key, e.Err)
	}
	return fmt.Sprintf("query shape %s: metric %s: %s", e.ShapeHash, e.Key, e.Err)
}

func (e *MetricError) Unwrap() error {
	return e.Err
}
