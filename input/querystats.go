package input

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/pganalyze/querystats-collector/state"
	"github.com/pganalyze/querystats-collector/util"
)

// Source - Where the live query statistics of a cycle come from
type Source interface {
	CollectQueryStats(ctx context.Context) ([]state.StatRecord, error)
}

// QueryStatsSource - Reads the $queryStats aggregation stage of a MongoDB deployment
type QueryStatsSource struct {
	client   *mongo.Client
	database string
	logger   *util.Logger
}

// NewQueryStatsSource - $queryStats has to run against the admin database, which
// is what database should normally be set to
func NewQueryStatsSource(client *mongo.Client, database string, logger *util.Logger) *QueryStatsSource {
	return &QueryStatsSource{client: client, database: database, logger: logger}
}

func (s *QueryStatsSource) CollectQueryStats(ctx context.Context) ([]state.StatRecord, error) {
	pipeline := mongo.Pipeline{{{Key: "$queryStats", Value: bson.M{}}}}

	cursor, err := s.client.Database(s.database).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "could not run $queryStats")
	}
	defer cursor.Close(ctx)

	var records []state.StatRecord
	skipped := 0
	for cursor.Next(ctx) {
		var doc bson.M
		if err = cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "could not decode $queryStats entry")
		}

		record, err := state.StatRecordFromDocument(doc)
		if err != nil {
			s.logger.PrintVerbose("Skipping $queryStats entry: %s", err)
			skipped++
			continue
		}
		records = append(records, record)
	}
	if err = cursor.Err(); err != nil {
		return nil, errors.Wrap(err, "could not read $queryStats")
	}

	if skipped > 0 {
		s.logger.PrintWarning("Skipped %d $queryStats entries that could not be decoded", skipped)
	}

	return records, nil
}

func (s *QueryStatsSource) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
