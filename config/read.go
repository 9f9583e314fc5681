package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-ini/ini"
	"github.com/gorhill/cronexpr"

	"github.com/pganalyze/querystats-collector/util"
)

const (
	DefaultFeedInterval   = "0 */5 * * * * *"
	DefaultFeedIterations = 100
	DefaultReportLimit    = 10
	DefaultStateFilename  = "/var/lib/querystats-collector/state"
)

func getDefaultConfig() *Config {
	return &Config{
		StateFilename:  DefaultStateFilename,
		FeedInterval:   DefaultFeedInterval,
		FeedIterations: DefaultFeedIterations,
		ReportLimit:    DefaultReportLimit,
		Source: DatabaseConfig{
			Database: "admin",
		},
		Logger: DatabaseConfig{
			Database:   "querystats",
			Collection: "stats_output",
		},
	}
}

// applyEnvironment overrides settings with the environment variables that are set.
// The environment variables are the default way to configure when running inside a container.
func applyEnvironment(config *Config) {
	if matchDatabase := os.Getenv("MATCH_DATABASE"); matchDatabase != "" {
		config.MatchDatabase = matchDatabase
	}
	if matchDriver := os.Getenv("MATCH_DRIVER"); matchDriver != "" {
		config.MatchDriver = matchDriver
	}
	if stateFilename := os.Getenv("STATE_FILE"); stateFilename != "" {
		config.StateFilename = stateFilename
	}
	if feedInterval := os.Getenv("FEED_INTERVAL"); feedInterval != "" {
		config.FeedInterval = feedInterval
	}
	if feedIterations := os.Getenv("FEED_ITERATIONS"); feedIterations != "" {
		config.FeedIterations, _ = strconv.Atoi(feedIterations)
	}
	if sentryDsn := os.Getenv("SENTRY_DSN"); sentryDsn != "" {
		config.SentryDsn = sentryDsn
	}
	if metricsAddr := os.Getenv("METRICS_ADDR"); metricsAddr != "" {
		config.MetricsAddr = metricsAddr
	}
	readDatabaseEnv(&config.Source, "SOURCE")
	readDatabaseEnv(&config.Logger, "LOGGER")
}

func readDatabaseEnv(config *DatabaseConfig, prefix string) {
	if uri := os.Getenv(prefix + "_URI"); uri != "" {
		config.URI = uri
	}
	if username := os.Getenv(prefix + "_USERNAME"); username != "" {
		config.Username = username
	}
	if password := os.Getenv(prefix + "_PASSWORD"); password != "" {
		config.Password = password
	}
	if database := os.Getenv(prefix + "_DATABASE"); database != "" {
		config.Database = database
	}
	if collection := os.Getenv(prefix + "_COLLECTION"); collection != "" {
		config.Collection = collection
	}
}

// Read - Reads the configuration from the specified filename, or falls back to the environment
func Read(logger *util.Logger, filename string) (Config, error) {
	if _, err := os.Stat(filename); err == nil {
		return parse(logger, filename)
	}

	if os.Getenv("SOURCE_URI") == "" {
		return Config{}, fmt.Errorf("No configuration file found at %s, and no environment variables set", filename)
	}

	config := getDefaultConfig()
	applyEnvironment(config)
	if err := validate(config); err != nil {
		return Config{}, err
	}
	return *config, nil
}

// parse accepts anything ini.Load does (a filename or raw []byte). Environment
// variables take precedence over the file.
func parse(logger *util.Logger, source interface{}) (Config, error) {
	configFile, err := ini.Load(source)
	if err != nil {
		return Config{}, err
	}

	config := getDefaultConfig()

	if err = configFile.Section("querystats").MapTo(config); err != nil {
		return Config{}, fmt.Errorf("section querystats: %s", err)
	}
	if err = configFile.Section("source").MapTo(&config.Source); err != nil {
		return Config{}, fmt.Errorf("section source: %s", err)
	}
	if err = configFile.Section("logger").MapTo(&config.Logger); err != nil {
		return Config{}, fmt.Errorf("section logger: %s", err)
	}

	applyEnvironment(config)

	for _, section := range configFile.Sections() {
		switch section.Name() {
		case ini.DEFAULT_SECTION, "querystats", "source", "logger":
		default:
			logger.PrintWarning("Ignoring unknown config section %s", section.Name())
		}
	}

	if err = validate(config); err != nil {
		return Config{}, err
	}
	return *config, nil
}

func validate(config *Config) error {
	if config.Source.URI == "" {
		return fmt.Errorf("No uri configured for the source deployment")
	}
	if config.MatchDatabase == "" {
		return fmt.Errorf("No match_database configured")
	}
	if config.FeedIterations < 0 {
		return fmt.Errorf("feed_iterations must not be negative")
	}
	if _, err := cronexpr.Parse(config.FeedInterval); err != nil {
		return fmt.Errorf("Invalid feed_interval %q: %s", config.FeedInterval, err)
	}
	return nil
}
