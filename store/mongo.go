package store

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pganalyze/querystats-collector/state"
	"github.com/pganalyze/querystats-collector/util"
)

// RunsCollection - Audit trail of completed runs, next to the snapshot collection
const RunsCollection = "run_ids"

// Mongo - Store backed by a collection on the logger deployment. Raw snapshots and
// results share the collection and are told apart by doc_type.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
	runs       *mongo.Collection
	logger     *util.Logger
}

func NewMongo(client *mongo.Client, database string, collection string, logger *util.Logger) *Mongo {
	db := client.Database(database)
	return &Mongo{
		client:     client,
		collection: db.Collection(collection),
		runs:       db.Collection(RunsCollection),
		logger:     logger,
	}
}

func (m *Mongo) AppendSnapshot(ctx context.Context, records []state.StatRecord) (int, error) {
	docs := make([]interface{}, 0, len(records))
	keys := make([]string, 0, len(records))
	for _, record := range records {
		docs = append(docs, record.ToDocument())
		keys = append(keys, record.ShapeHash)
	}
	return m.insertUnordered(ctx, docs, keys)
}

func (m *Mongo) FindByRun(ctx context.Context, runID string) ([]state.StatRecord, error) {
	cursor, err := m.collection.Find(ctx, bson.M{"run_id": runID, "doc_type": string(state.RecordKindRaw)})
	if err != nil {
		return nil, errors.Wrapf(err, "could not query snapshot of run %s", runID)
	}

	var docs []bson.M
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrapf(err, "could not read snapshot of run %s", runID)
	}

	records := make([]state.StatRecord, 0, len(docs))
	for _, doc := range docs {
		record, err := state.StatRecordFromDocument(doc)
		if err != nil {
			m.logger.PrintWarning("Skipping stored document of run %s: %s", runID, err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (m *Mongo) AppendResults(ctx context.Context, results []state.ResultRecord) (int, error) {
	docs := make([]interface{}, 0, len(results))
	keys := make([]string, 0, len(results))
	for _, result := range results {
		docs = append(docs, result)
		keys = append(keys, result.ShapeHash)
	}
	return m.insertUnordered(ctx, docs, keys)
}

func (m *Mongo) AppendRun(ctx context.Context, run state.Run) error {
	_, err := m.runs.InsertOne(ctx, run)
	return errors.Wrapf(err, "could not record run %s", run.ID)
}

func (m *Mongo) LatestRun(ctx context.Context) (state.Run, bool, error) {
	runs, err := m.ListRuns(ctx, 1)
	if err != nil || len(runs) == 0 {
		return state.Run{}, false, err
	}
	return runs[0], true, nil
}

func (m *Mongo) ListRuns(ctx context.Context, limit int) ([]state.Run, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := m.runs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "could not query runs")
	}

	var runs []state.Run
	if err = cursor.All(ctx, &runs); err != nil {
		return nil, errors.Wrap(err, "could not read runs")
	}
	return runs, nil
}

func (m *Mongo) TopResults(ctx context.Context, runID string, limit int) ([]state.ReportRow, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"doc_type": string(state.RecordKindResult), "run_id": runID}}},
		{{Key: "$project", Value: bson.M{
			"exec_time": bson.M{"$toDouble": bson.M{"$divide": bson.A{
				bson.M{"$ifNull": bson.A{"$metrics.totalExecMicros.sum", 0}}, 1000000,
			}}},
			"num":            "$metrics.execCount",
			"queryShapeHash": 1,
			"namespace":      1,
			"client":         1,
			"query":          1,
		}}},
		{{Key: "$sort", Value: bson.M{"exec_time": -1}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}

	cursor, err := m.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrapf(err, "could not aggregate results of run %s", runID)
	}

	var rows []state.ReportRow
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, errors.Wrapf(err, "could not read results of run %s", runID)
	}
	return rows, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// insertUnordered writes all documents without stopping at the first failure, and
// maps failed write indexes back to their keys
func (m *Mongo) insertUnordered(ctx context.Context, docs []interface{}, keys []string) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	_, err := m.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return len(docs), nil
	}

	written, failed, ok := failedKeys(err, keys)
	if !ok {
		// Nothing is known to be written (e.g. the connection failed)
		return 0, &WriteError{Attempted: len(docs), Keys: keys, Err: err}
	}
	if len(failed) == 0 {
		m.logger.PrintWarning("Wrote %d documents, but the write concern was not satisfied: %s", written, err)
		return written, nil
	}
	return written, &WriteError{Attempted: len(docs), Keys: failed, Err: err}
}

// failedKeys tells from an InsertMany error which documents were not written. ok is
// false if the error doesn't identify the failed documents.
//
// A write concern error without write errors means every document was written,
// but not acknowledged by enough members.
func failedKeys(err error, keys []string) (written int, failed []string, ok bool) {
	var bulkErr mongo.BulkWriteException
	if !errors.As(err, &bulkErr) {
		return 0, keys, false
	}
	if len(bulkErr.WriteErrors) == 0 {
		if bulkErr.WriteConcernError != nil {
			return len(keys), nil, true
		}
		return 0, keys, false
	}

	failed = make([]string, 0, len(bulkErr.WriteErrors))
	for _, writeErr := range bulkErr.WriteErrors {
		if writeErr.Index >= 0 && writeErr.Index < len(keys) {
			failed = append(failed, keys[writeErr.Index])
		}
	}
	return len(keys) - len(failed), failed, true
}
