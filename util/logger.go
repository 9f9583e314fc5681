package util

import (
	"fmt"
	"log"
	"os"

	"github.com/juju/syslog"
)

const (
	levelVerbose = "V"
	levelInfo    = "I"
	levelWarning = "W"
	levelError   = "E"
)

type Logger struct {
	Verbose     bool
	Quiet       bool
	Prefix      *string
	Destination *log.Logger
}

// NewStderrLogger - Logger writing to standard error, the default outside of a service manager
func NewStderrLogger(verbose bool, quiet bool) *Logger {
	return &Logger{
		Verbose:     verbose,
		Quiet:       quiet,
		Destination: log.New(os.Stderr, "", log.LstdFlags),
	}
}

// NewSyslogLogger - Logger writing to the local syslog daemon, tagged with the program name
func NewSyslogLogger(tag string, verbose bool, quiet bool) (*Logger, error) {
	writer, err := syslog.New(syslog.LOG_INFO|syslog.LOG_DAEMON, tag)
	if err != nil {
		return nil, err
	}
	return &Logger{
		Verbose:     verbose,
		Quiet:       quiet,
		Destination: log.New(writer, "", 0),
	}, nil
}

func (logger *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{Verbose: logger.Verbose, Quiet: logger.Quiet, Destination: logger.Destination, Prefix: &prefix}
}

func (logger *Logger) print(logLevel string, format string, args ...interface{}) {
	if logger.Prefix != nil {
		format = fmt.Sprintf("[%s] %s", *logger.Prefix, format)
	}

	format = fmt.Sprintf("%s %s", logLevel, format)

	logger.Destination.Printf(format, args...)
}

func (logger *Logger) PrintVerbose(format string, args ...interface{}) {
	if logger.Quiet || !logger.Verbose {
		return
	}

	logger.print(levelVerbose, format, args...)
}

func (logger *Logger) PrintInfo(format string, args ...interface{}) {
	if logger.Quiet {
		return
	}

	logger.print(levelInfo, format, args...)
}

func (logger *Logger) PrintWarning(format string, args ...interface{}) {
	logger.print(levelWarning, format, args...)
}

func (logger *Logger) PrintError(format string, args ...interface{}) {
	logger.print(levelError, format, args...)
}
