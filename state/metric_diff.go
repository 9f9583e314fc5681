package state

import (
	"fmt"
	"math/big"
	"sort"

	multierror "github.com/hashicorp/go-multierror"
)

// DiffSince - Sum and SumOfSquares are differenced, Min and Max are high/low-water
// marks over the whole series and are carried forward from curr.
func (curr Accumulator) DiffSince(prev Accumulator) (Accumulator, error) {
	sum, err := SubtractNumbers(curr.Sum, prev.Sum)
	if err != nil {
		return Accumulator{}, fmt.Errorf("sum: %s", err)
	}

	currSquares, err := ExactInteger(curr.SumOfSquares)
	if err != nil {
		return Accumulator{}, fmt.Errorf("sumOfSquares: %s", err)
	}
	prevSquares, err := ExactInteger(prev.SumOfSquares)
	if err != nil {
		return Accumulator{}, fmt.Errorf("sumOfSquares: %s", err)
	}
	squares, err := IntegerValue(new(big.Int).Sub(currSquares, prevSquares))
	if err != nil {
		return Accumulator{}, fmt.Errorf("sumOfSquares: %s", err)
	}

	return Accumulator{
		Sum:          sum,
		SumOfSquares: squares,
		Min:          curr.Min,
		Max:          curr.Max,
	}, nil
}

func (curr BooleanCounter) DiffSince(prev BooleanCounter) (BooleanCounter, error) {
	t, err := SubtractNumbers(curr.True, prev.True)
	if err != nil {
		return BooleanCounter{}, fmt.Errorf("true: %s", err)
	}
	f, err := SubtractNumbers(curr.False, prev.False)
	if err != nil {
		return BooleanCounter{}, fmt.Errorf("false: %s", err)
	}
	return BooleanCounter{True: t, False: f}, nil
}

func (curr Scalar) DiffSince(prev Scalar) (interface{}, error) {
	return SubtractNumbers(curr.Value, prev.Value)
}

// DiffMetric - Computes the delta of a single metric present in both snapshots.
//
// Negative results (e.g. after the server's statistics were reset) are returned
// as-is, callers need to treat a negative delta as a reset, not as corrupt data.
func DiffMetric(name string, curr interface{}, prev interface{}) (interface{}, error) {
	currValue, err := ClassifyMetric(name, curr)
	if err != nil {
		return nil, err
	}

	if currValue.Kind() == TimestampMetric {
		return curr, nil
	}

	prevValue, err := ClassifyMetric(name, prev)
	if err != nil {
		return nil, fmt.Errorf("previous value: %s", err)
	}
	if prevValue.Kind() != currValue.Kind() {
		return nil, fmt.Errorf("changed from %s to %s", prevValue.Kind(), currValue.Kind())
	}

	switch c := currValue.(type) {
	case Accumulator:
		return c.DiffSince(prevValue.(Accumulator))
	case BooleanCounter:
		return c.DiffSince(prevValue.(BooleanCounter))
	case Scalar:
		return c.DiffSince(prevValue.(Scalar))
	}
	return nil, fmt.Errorf("unhandled metric kind %s", currValue.Kind())
}

// DiffMetrics - Computes the delta for every metric in curr. Metrics that didn't
// exist in prev are returned verbatim. Failures are reported per metric as
// *MetricError, and the failed metrics are left out of the returned delta.
func DiffMetrics(curr Metrics, prev Metrics) (Metrics, error) {
	var result *multierror.Error

	names := make([]string, 0, len(curr))
	for name := range curr {
		names = append(names, name)
	}
	sort.Strings(names)

	diff := make(Metrics, len(curr))
	for _, name := range names {
		prevValue, exists := prev[name]
		if !exists {
			diff[name] = curr[name]
			continue
		}

		delta, err := DiffMetric(name, curr[name], prevValue)
		if err != nil {
			result = multierror.Append(result, &MetricError{Key: name, Err: err})
			continue
		}
		diff[name] = delta
	}

	return diff, result.ErrorOrNil()
}
