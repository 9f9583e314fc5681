package state

import "math"

// ReportRow - One line of the per-run report of the most expensive query shapes
type ReportRow struct {
	ShapeHash   string      `bson:"queryShapeHash"`
	ExecSeconds float64     `bson:"exec_time"`
	ExecCount   interface{} `bson:"num"`
	Namespace   string      `bson:"namespace"`
	Client      string      `bson:"client"`
	Query       string      `bson:"query"`
}

// ExecSeconds - Execution time accrued between the two runs, from totalExecMicros.sum
func (r ResultRecord) ExecSeconds() float64 {
	var sum interface{}
	switch v := r.Metrics["totalExecMicros"].(type) {
	case Accumulator:
		sum = v.Sum
	default:
		if doc, ok := asDocument(v); ok {
			sum = doc["sum"]
		}
	}
	f, err := NumberToFloat(sum)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return f / 1e6
}

func (r ResultRecord) ReportRow() ReportRow {
	return ReportRow{
		ShapeHash:   r.ShapeHash,
		ExecSeconds: r.ExecSeconds(),
		ExecCount:   r.Metrics["execCount"],
		Namespace:   r.Namespace,
		Client:      r.Client,
		Query:       r.Query,
	}
}
