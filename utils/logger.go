package utils

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// InitLogger configures the global logrus logger. Production logs are JSON,
// everything else is human-readable text.
func InitLogger(level string, production bool) {
	log.SetOutput(os.Stdout)

	if production {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("Unknown log level, falling back to info")
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}
