package config

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

// InitLogger builds the process logger from cfg and stores it in Log.
func InitLogger(cfg LogConfig) *logrus.Logger {
	Log = logrus.New()

	if strings.EqualFold(cfg.Format, "text") {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		Log.SetFormatter(&logrus.JSONFormatter{})
	}

	Log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
		Log.WithField("level", cfg.Level).Warn("Unknown log level, using info")
	}
	Log.SetLevel(level)

	return Log
}
