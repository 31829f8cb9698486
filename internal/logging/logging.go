package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// RFC3339Milli is RFC3339 restricted to millisecond precision.
const RFC3339Milli = "2006-01-02T15:04:05.000Z07:00"

// Setup returns a root entry writing to stdout.
func Setup(json bool, level string) (*logrus.Entry, error) {
	return SetupWriter(os.Stdout, json, level)
}

func SetupWriter(w io.Writer, json bool, level string) (*logrus.Entry, error) {
	log := logrus.NewEntry(logrus.New())
	log.Logger.SetOutput(w)

	if json {
		log.Logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: RFC3339Milli,
		})
	} else {
		log.Logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: RFC3339Milli,
			FullTimestamp:   true,
		})
	}

	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		log.Logger.SetLevel(lvl)
	}
	return log, nil
}
