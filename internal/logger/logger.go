package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the service logger. Format is "json" (default) or "text";
// an unknown level falls back to info.
func NewLogger(serviceName, level, format string) *logrus.Entry {
	return newLogger(os.Stdout, serviceName, level, format)
}

func newLogger(out io.Writer, serviceName, level, format string) *logrus.Entry {
	log := logrus.New()
	log.SetOutput(out)

	if strings.EqualFold(format, "text") {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	return log.WithField("service", serviceName)
}
