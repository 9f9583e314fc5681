package runner

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

var renderQueryTests = []struct {
	body     interface{}
	contains []string
}{
	{
		bson.M{"title": "?string"},
		[]string{`"title": "?string"`},
	},
	{
		bson.A{
			bson.D{{Key: "$match", Value: bson.M{"year": bson.M{"$gt": "?number"}}}},
			bson.D{{Key: "$limit", Value: "?number"}},
		},
		[]string{`"$match": {`, `"$gt": "?number"`, `"$limit": "?number"`},
	},
	{
		nil,
		[]string{"null"},
	},
}

func TestRenderQuery(t *testing.T) {
	for _, test := range renderQueryTests {
		actual, err := RenderQuery(test.body)
		if err != nil {
			t.Errorf("RenderQuery(%v): unexpected error: %s", test.body, err)
			continue
		}
		for _, expected := range test.contains {
			if !strings.Contains(actual, expected) {
				t.Errorf("RenderQuery(%v)\nexpected to contain %s\nactual %s\n\n", test.body, expected, actual)
			}
		}
		if strings.Contains(actual, "\x1b[") {
			t.Errorf("RenderQuery(%v): expected no color codes, got %q", test.body, actual)
		}
	}
}

func TestRenderQueryKeepsFieldOrder(t *testing.T) {
	body := bson.A{bson.D{{Key: "$sort", Value: bson.D{{Key: "year", Value: -1}, {Key: "title", Value: 1}}}}}

	actual, err := RenderQuery(body)
	if err != nil {
		t.Fatalf("Error: %s", err)
	}
	year := strings.Index(actual, `"year": -1`)
	title := strings.Index(actual, `"title": 1`)
	if year < 0 || title < 0 || year > title {
		t.Errorf("Expected year before title, got\n%s", actual)
	}
}

func TestRenderQueryMultiLine(t *testing.T) {
	actual, err := RenderQuery(bson.D{{Key: "a", Value: "?number"}, {Key: "b", Value: "?string"}})
	if err != nil {
		t.Fatalf("Error: %s", err)
	}
	if strings.Count(actual, "\n") < 3 {
		t.Errorf("Expected one line per field, got %q", actual)
	}
}
