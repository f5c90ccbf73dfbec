// Package logging wraps logrus so every component logs through the same
// level, format and writer.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	level  string
	output io.Writer
}

func New(level string, output io.Writer) *Logger {
	return &Logger{level: level, output: output}
}

// Get returns an entry tagged with the given context. Unknown levels fall
// back to info.
func (l *Logger) Get(context string) *logrus.Entry {
	log := logrus.New()
	level, err := logrus.ParseLevel(l.level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(l.output)
	return log.WithFields(logrus.Fields{
		"Context": context,
	})
}
