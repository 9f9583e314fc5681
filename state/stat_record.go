package state

import (
	"fmt"
	"time"

	multierror "github.com/hashicorp/go-multierror"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RecordKind string

const (
	RecordKindRaw    RecordKind = "raw"
	RecordKindResult RecordKind = "result"
)

// Namespace - Database and collection a query shape targeted
type Namespace struct {
	Database   string
	Collection string
}

func (ns Namespace) String() string {
	return ns.Database + "." + ns.Collection
}

// Client - Driver and OS of the application that issued the query
type Client struct {
	DriverName string
	OSType     string
}

func (c Client) String() string {
	return fmt.Sprintf("%s on %s", c.DriverName, c.OSType)
}

// StatRecord - Statistics for one query shape, as captured by one collection run
type StatRecord struct {
	ShapeHash   string
	Namespace   Namespace
	Client      Client
	CommandType string
	QueryBody   interface{} // Pipeline for aggregate, filter otherwise; only used for display
	Metrics     Metrics

	RunID      string
	CapturedAt time.Time
	Kind       RecordKind

	// Document as reported by the server, stored as-is with the run fields added
	Document bson.M
}

// ResultRecord - Metric delta of one query shape between two runs
type ResultRecord struct {
	ShapeHash      string     `bson:"queryShapeHash"`
	Namespace      string     `bson:"namespace"`
	Client         string     `bson:"client"`
	CommandType    string     `bson:"command"`
	Query          string     `bson:"query"`
	StartTimestamp time.Time  `bson:"start_timestamp"`
	EndTimestamp   time.Time  `bson:"end_timestamp"`
	RunID          string     `bson:"run_id"`
	Metrics        Metrics    `bson:"metrics"`
	Kind           RecordKind `bson:"doc_type"`
}

// Run - A completed collection cycle
type Run struct {
	ID        string    `bson:"run_id"`
	Timestamp time.Time `bson:"timestamp"`
}

// DiffSince - Metric delta of this record against the same shape in an earlier run
func (curr StatRecord) DiffSince(prev StatRecord) (Metrics, error) {
	diff, err := DiffMetrics(curr.Metrics, prev.Metrics)
	if merr, ok := err.(*multierror.Error); ok {
		for _, e := range merr.Errors {
			if metricErr, ok := e.(*MetricError); ok {
				metricErr.ShapeHash = curr.ShapeHash
			}
		}
	}
	return diff, err
}

// Stamp - Returns a copy tagged as belonging to the given run
func (curr StatRecord) Stamp(runID string, capturedAt time.Time) StatRecord {
	curr.RunID = runID
	curr.CapturedAt = capturedAt
	curr.Kind = RecordKindRaw
	return curr
}

// ToDocument - The document persisted for a raw record: the server document with
// run_id, run_timestamp and doc_type added
func (curr StatRecord) ToDocument() bson.M {
	doc := make(bson.M, len(curr.Document)+3)
	for k, v := range curr.Document {
		doc[k] = v
	}
	if curr.Document == nil {
		queryShape := bson.M{
			"cmdNs":   bson.M{"db": curr.Namespace.Database, "coll": curr.Namespace.Collection},
			"command": curr.CommandType,
		}
		if curr.CommandType == "aggregate" {
			queryShape["pipeline"] = curr.QueryBody
		} else {
			queryShape["filter"] = curr.QueryBody
		}
		doc["key"] = bson.M{
			"queryShape": queryShape,
			"client": bson.M{
				"driver": bson.M{"name": curr.Client.DriverName},
				"os":     bson.M{"type": curr.Client.OSType},
			},
		}
		doc["queryShapeHash"] = curr.ShapeHash
		doc["metrics"] = bson.M(curr.Metrics)
	}
	doc["run_id"] = curr.RunID
	doc["run_timestamp"] = curr.CapturedAt
	doc["doc_type"] = string(curr.Kind)
	return doc
}

// StatRecordFromDocument - Decodes a $queryStats entry, or a previously stored raw
// document, into a StatRecord
func StatRecordFromDocument(doc bson.M) (StatRecord, error) {
	var record StatRecord

	hash, _ := lookupString(doc, "queryShapeHash")
	if hash == "" {
		return record, ErrMissingShapeHash
	}
	record.ShapeHash = hash
	record.Document = doc

	record.Namespace.Database, _ = lookupString(doc, "key", "queryShape", "cmdNs", "db")
	record.Namespace.Collection, _ = lookupString(doc, "key", "queryShape", "cmdNs", "coll")
	record.CommandType, _ = lookupString(doc, "key", "queryShape", "command")
	record.Client.DriverName, _ = lookupString(doc, "key", "client", "driver", "name")
	record.Client.OSType, _ = lookupString(doc, "key", "client", "os", "type")

	if record.CommandType == "aggregate" {
		record.QueryBody, _ = lookup(doc, "key", "queryShape", "pipeline")
	} else {
		record.QueryBody, _ = lookup(doc, "key", "queryShape", "filter")
	}

	if m, ok := lookup(doc, "metrics"); ok {
		metrics, ok := asDocument(m)
		if !ok {
			return record, fmt.Errorf("query shape %s: metrics has unsupported type %T", hash, m)
		}
		record.Metrics = Metrics(metrics)
	} else {
		record.Metrics = Metrics{}
	}

	record.RunID, _ = lookupString(doc, "run_id")
	if kind, ok := lookupString(doc, "doc_type"); ok {
		record.Kind = RecordKind(kind)
	}
	if ts, ok := lookup(doc, "run_timestamp"); ok {
		record.CapturedAt = toTime(ts)
	}

	return record, nil
}

func lookup(doc bson.M, path ...string) (interface{}, bool) {
	var current interface{} = doc
	for _, key := range path {
		d, ok := asDocument(current)
		if !ok {
			return nil, false
		}
		current, ok = d[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func lookupString(doc bson.M, path ...string) (string, bool) {
	v, ok := lookup(doc, path...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func toTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case primitive.DateTime:
		ms := int64(t)
		return time.Unix(ms/1000, (ms%1000)*int64(time.Millisecond)).UTC()
	}
	return time.Time{}
}
