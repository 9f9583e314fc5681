package config

import (
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/pganalyze/querystats-collector/util"
)

var testLogger = &util.Logger{Destination: log.New(ioutil.Discard, "", 0)}

const testConfigFile = `
[querystats]
match_database = sample_mflix
match_driver = nodejs
state_file = /tmp/querystats-state
feed_interval = 0 * * * * * *
feed_iterations = 12

[source]
uri = mongodb+srv://cluster0.example.net/?retryWrites=true
username = monitor
password = secret
password_env_var = TEST_SOURCE_PWD

[logger]
uri = mongodb://localhost:27017
database = perf
collection = query_stats
`

func TestParse(t *testing.T) {
	actual, err := parse(testLogger, []byte(testConfigFile))
	if err != nil {
		t.Fatalf("Error: %s", err)
	}

	expected := Config{
		MatchDatabase:  "sample_mflix",
		MatchDriver:    "nodejs",
		StateFilename:  "/tmp/querystats-state",
		FeedInterval:   "0 * * * * * *",
		FeedIterations: 12,
		ReportLimit:    DefaultReportLimit,
		Source: DatabaseConfig{
			URI:            "mongodb+srv://cluster0.example.net/?retryWrites=true",
			Username:       "monitor",
			Password:       "secret",
			PasswordEnvVar: "TEST_SOURCE_PWD",
			Database:       "admin",
		},
		Logger: DatabaseConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "perf",
			Collection: "query_stats",
		},
	}

	if diff := pretty.Compare(expected, actual); diff != "" {
		t.Errorf("config diff: (-want +got)\n%s", diff)
	}
}

var invalidConfigTests = []struct {
	name   string
	source string
}{
	{"missing source", "[querystats]\nmatch_database = db\n[logger]\nuri = mongodb://localhost\n"},
	{"missing match_database", "[querystats]\nmatch_driver = nodejs\n[source]\nuri = mongodb://localhost\n"},
	{"bad interval", "[querystats]\nmatch_database = db\nfeed_interval = every now and then\n[source]\nuri = mongodb://localhost\n"},
	{"negative iterations", "[querystats]\nmatch_database = db\nfeed_iterations = -1\n[source]\nuri = mongodb://localhost\n"},
}

func TestParseInvalid(t *testing.T) {
	for _, test := range invalidConfigTests {
		_, err := parse(testLogger, []byte(test.source))
		if err == nil {
			t.Errorf("%s: expected error, got nil", test.name)
		}
	}
}

func TestReadFallsBackToEnvironment(t *testing.T) {
	os.Setenv("SOURCE_URI", "mongodb://source.example.com")
	os.Setenv("MATCH_DATABASE", "sample_mflix")
	os.Setenv("MATCH_DRIVER", "pymongo")
	defer os.Unsetenv("SOURCE_URI")
	defer os.Unsetenv("MATCH_DATABASE")
	defer os.Unsetenv("MATCH_DRIVER")

	actual, err := Read(testLogger, filepath.Join(t.TempDir(), "missing.conf"))
	if err != nil {
		t.Fatalf("Error: %s", err)
	}
	if actual.Source.URI != "mongodb://source.example.com" {
		t.Errorf("Source.URI: expected %q, got %q", "mongodb://source.example.com", actual.Source.URI)
	}
	if actual.MatchDriver != "pymongo" {
		t.Errorf("MatchDriver: expected %q, got %q", "pymongo", actual.MatchDriver)
	}
	if actual.FeedInterval != DefaultFeedInterval {
		t.Errorf("FeedInterval: expected %q, got %q", DefaultFeedInterval, actual.FeedInterval)
	}
}

func TestReadWithoutFileOrEnvironment(t *testing.T) {
	os.Unsetenv("SOURCE_URI")
	_, err := Read(testLogger, filepath.Join(t.TempDir(), "missing.conf"))
	if err == nil {
		t.Errorf("expected error, got nil")
	}
}

func TestReadFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "querystats-collector.conf")
	if err := ioutil.WriteFile(filename, []byte(testConfigFile), 0600); err != nil {
		t.Fatalf("Error: %s", err)
	}

	actual, err := Read(testLogger, filename)
	if err != nil {
		t.Fatalf("Error: %s", err)
	}
	if actual.MatchDatabase != "sample_mflix" {
		t.Errorf("MatchDatabase: expected %q, got %q", "sample_mflix", actual.MatchDatabase)
	}
}

func TestReadEnvironmentOverridesFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "querystats-collector.conf")
	if err := ioutil.WriteFile(filename, []byte(testConfigFile), 0600); err != nil {
		t.Fatalf("Error: %s", err)
	}
	os.Setenv("MATCH_DRIVER", "pymongo")
	os.Setenv("LOGGER_COLLECTION", "from_env")
	defer os.Unsetenv("MATCH_DRIVER")
	defer os.Unsetenv("LOGGER_COLLECTION")

	actual, err := Read(testLogger, filename)
	if err != nil {
		t.Fatalf("Error: %s", err)
	}
	if actual.MatchDriver != "pymongo" {
		t.Errorf("MatchDriver: expected %q, got %q", "pymongo", actual.MatchDriver)
	}
	if actual.Logger.Collection != "from_env" {
		t.Errorf("Logger.Collection: expected %q, got %q", "from_env", actual.Logger.Collection)
	}
	if actual.MatchDatabase != "sample_mflix" {
		t.Errorf("MatchDatabase: expected file value %q, got %q", "sample_mflix", actual.MatchDatabase)
	}
}
