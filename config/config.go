package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// DefaultConfigFile - Location of the configuration file unless overridden with --config
const DefaultConfigFile = "/etc/querystats-collector.conf"

// DefaultPasswordEnvVar - Environment variable holding the password when the
// configured password is a "secret" placeholder
const DefaultPasswordEnvVar = "_PWD_"

type Config struct {
	// Only query shapes against this database are diffed, required
	MatchDatabase string `ini:"match_database"`

	// Only query shapes from clients whose driver name contains this are diffed
	MatchDriver string `ini:"match_driver"`

	// Marker file remembering the last completed run across restarts
	StateFilename string `ini:"state_file"`

	// Schedule of the stats feed, as a cron expression with seconds and years
	// (e.g. "0 */5 * * * * *" for every 5 minutes)
	FeedInterval   string `ini:"feed_interval"`
	FeedIterations int    `ini:"feed_iterations"`

	ReportLimit int `ini:"report_limit"`

	SentryDsn string `ini:"sentry_dsn"`

	// Listen address for the Prometheus metrics endpoint, disabled when empty
	MetricsAddr string `ini:"metrics_addr"`

	Source DatabaseConfig // Deployment whose $queryStats are collected
	Logger DatabaseConfig // Deployment snapshots and results are written to
}

// DatabaseConfig - How to connect to one MongoDB deployment
type DatabaseConfig struct {
	URI            string `ini:"uri"`
	Username       string `ini:"username"`
	Password       string `ini:"password"`
	PasswordEnvVar string `ini:"password_env_var"`
	Database       string `ini:"database"`
	Collection     string `ini:"collection"`
}

// GetPassword - Resolves "secret" placeholders from the environment
func (config DatabaseConfig) GetPassword() (string, error) {
	if !strings.Contains(config.Password, "secret") {
		return config.Password, nil
	}

	envVar := config.PasswordEnvVar
	if envVar == "" {
		envVar = DefaultPasswordEnvVar
	}
	password := os.Getenv(envVar)
	if password == "" {
		return "", fmt.Errorf("password is a secret placeholder, but %s is not set in the environment", envVar)
	}
	return password, nil
}

// GetURI - Connection string with the configured credentials added
func (config DatabaseConfig) GetURI() (string, error) {
	if config.URI == "" {
		return "", fmt.Errorf("no uri configured")
	}

	u, err := url.Parse(config.URI)
	if err != nil {
		return "", fmt.Errorf("invalid uri: %s", err)
	}

	if config.Username == "" {
		return u.String(), nil
	}

	password, err := config.GetPassword()
	if err != nil {
		return "", err
	}
	// Passwords may be given URL-encoded already
	if strings.Contains(password, "%") {
		if unescaped, err := url.QueryUnescape(password); err == nil {
			password = unescaped
		}
	}
	u.User = url.UserPassword(config.Username, password)

	return u.String(), nil
}
