// Package logging builds the process-wide *logrus.Logger and routes
// error-level records to stderr while everything else goes to stdout, so
// container log collectors can apply different handling per stream.
package logging

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
)

// OutputSplitter routes formatted log lines to stderr or stdout based on
// their level, without parsing the line beyond a literal substring match.
type OutputSplitter struct{}

func (OutputSplitter) Write(p []byte) (int, error) {
	if bytes.Contains(p, []byte("level=error")) || bytes.Contains(p, []byte(`"level":"error"`)) {
		return os.Stderr.Write(p)
	}
	return os.Stdout.Write(p)
}

// Config mirrors the engine's log{level, dumpLevel} option: Level sets
// the logrus threshold, DumpLevel controls whether parsed request bodies
// are logged at debug. Response bodies are not logged.
type Config struct {
	Level     string
	DumpLevel bool
}

// New constructs a logger configured per cfg. An unrecognized Level falls
// back to info rather than failing startup over a log-config typo.
func New(cfg Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&OutputSplitter{})
	logger.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

// ShouldDumpBody reports whether parsed request bodies should be logged at
// debug: cfg.DumpLevel is set and log has debug enabled.
func ShouldDumpBody(cfg Config, log *logrus.Logger) bool {
	return cfg.DumpLevel && log.IsLevelEnabled(logrus.DebugLevel)
}
