package state

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Metrics - Metric name to value, as reported in the "metrics" sub-document of a
// $queryStats entry. The set of names is defined by the server and not fixed here.
type Metrics map[string]interface{}

type MetricKind int

const (
	ScalarMetric MetricKind = iota
	AccumulatorMetric
	BooleanCounterMetric
	TimestampMetric
)

func (k MetricKind) String() string {
	switch k {
	case ScalarMetric:
		return "scalar"
	case AccumulatorMetric:
		return "accumulator"
	case BooleanCounterMetric:
		return "boolean counter"
	case TimestampMetric:
		return "timestamp"
	}
	return fmt.Sprintf("MetricKind(%d)", int(k))
}

// Point-in-time markers, recognized by name instead of structure
var timestampMetricNames = map[string]bool{
	"firstSeenTimestamp":  true,
	"latestSeenTimestamp": true,
}

// MetricValue - One classified metric. The concrete type is one of Accumulator,
// BooleanCounter, Timestamp or Scalar.
type MetricValue interface {
	Kind() MetricKind
}

// Accumulator - Running statistics over repeated observations. Sum and Min/Max
// are kept in the server's numeric representation, SumOfSquares is typically
// a Decimal128.
type Accumulator struct {
	Sum          interface{} `bson:"sum"`
	SumOfSquares interface{} `bson:"sumOfSquares"`
	Min          interface{} `bson:"min"`
	Max          interface{} `bson:"max"`
}

// BooleanCounter - Tally of boolean outcomes
type BooleanCounter struct {
	True  interface{} `bson:"true"`
	False interface{} `bson:"false"`
}

type Timestamp struct {
	Value interface{}
}

// Scalar - Plain monotonically increasing counter
type Scalar struct {
	Value interface{}
}

func (Accumulator) Kind() MetricKind    { return AccumulatorMetric }
func (BooleanCounter) Kind() MetricKind { return BooleanCounterMetric }
func (Timestamp) Kind() MetricKind      { return TimestampMetric }
func (Scalar) Kind() MetricKind         { return ScalarMetric }

// ClassifyMetric - Determines the kind of a metric from the structure of its value
// (and for timestamps, its name), and returns the matching variant.
func ClassifyMetric(name string, value interface{}) (MetricValue, error) {
	if doc, ok := asDocument(value); ok {
		if _, ok := doc["sum"]; ok {
			return classifyAccumulator(doc)
		}
		if _, ok := doc["true"]; ok {
			return classifyBooleanCounter(doc)
		}
	}

	if timestampMetricNames[name] {
		return Timestamp{Value: value}, nil
	}

	if !IsNumber(value) {
		return nil, fmt.Errorf("unsupported value of type %T", value)
	}
	return Scalar{Value: value}, nil
}

func classifyAccumulator(doc bson.M) (MetricValue, error) {
	var acc Accumulator
	fields := []struct {
		name string
		dst  *interface{}
	}{
		{"sum", &acc.Sum},
		{"sumOfSquares", &acc.SumOfSquares},
		{"min", &acc.Min},
		{"max", &acc.Max},
	}
	for _, f := range fields {
		v, ok := doc[f.name]
		if !ok {
			return nil, fmt.Errorf("accumulator is missing %q", f.name)
		}
		if !IsNumber(v) {
			return nil, fmt.Errorf("accumulator field %q has unsupported type %T", f.name, v)
		}
		*f.dst = v
	}
	return acc, nil
}

func classifyBooleanCounter(doc bson.M) (MetricValue, error) {
	var counter BooleanCounter
	t, ok := doc["true"]
	if !ok || !IsNumber(t) {
		return nil, fmt.Errorf("boolean counter has invalid \"true\" count")
	}
	f, ok := doc["false"]
	if !ok {
		return nil, fmt.Errorf("boolean counter is missing \"false\"")
	}
	if !IsNumber(f) {
		return nil, fmt.Errorf("boolean counter has invalid \"false\" count")
	}
	counter.True = t
	counter.False = f
	return counter, nil
}

// asDocument accepts the document shapes the driver may decode a sub-document into
func asDocument(v interface{}) (bson.M, bool) {
	switch d := v.(type) {
	case bson.M:
		return d, true
	case map[string]interface{}:
		return bson.M(d), true
	case bson.D:
		return d.Map(), true
	}
	return nil, false
}
