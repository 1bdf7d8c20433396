package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

type Options struct {
	Service string
	Level   string
	Format  string
}

func New(w io.Writer, opts Options) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(parseLevel(opts.Level))
	if strings.EqualFold(opts.Format, "text") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return l.WithField("service", opts.Service)
}

func parseLevel(lvl string) logrus.Level {
	level, err := logrus.ParseLevel(strings.TrimSpace(lvl))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
