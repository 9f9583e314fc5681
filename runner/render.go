package runner

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// RenderQuery - Multi-line JSON rendering of a query filter or pipeline. Fields keep
// the order of the query, since for stages like $sort the order is significant.
func RenderQuery(body interface{}) (string, error) {
	// Extended JSON can only be produced for documents, so wrap the body
	extJSON, err := bson.MarshalExtJSON(bson.D{{Key: "query", Value: body}}, false, false)
	if err != nil {
		return "", errors.Wrap(err, "could not convert query to JSON")
	}

	var wrapper struct {
		Query json.RawMessage `json:"query"`
	}
	if err = json.Unmarshal(extJSON, &wrapper); err != nil {
		return "", errors.Wrap(err, "could not unwrap query JSON")
	}

	var formatted bytes.Buffer
	if err = json.Indent(&formatted, wrapper.Query, "", "  "); err != nil {
		return "", errors.Wrap(err, "could not format query JSON")
	}
	return formatted.String(), nil
}
