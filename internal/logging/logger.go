package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var Logger = newLogger(os.Stdout, logrus.InfoLevel)

func newLogger(out io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(out)
	l.SetLevel(level)
	return l
}

// InitLogger replaces the package logger. Unknown levels fall back to info.
func InitLogger(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger = newLogger(os.Stdout, lvl)
}

func LogInfo(message string, fields logrus.Fields) {
	Logger.WithFields(fields).Info(message)
}

func LogWarn(message string, fields logrus.Fields) {
	Logger.WithFields(fields).Warn(message)
}

func LogError(message string, err error, fields logrus.Fields) {
	if fields == nil {
		fields = logrus.Fields{}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	Logger.WithFields(fields).Error(message)
}

func LogDebug(message string, fields logrus.Fields) {
	Logger.WithFields(fields).Debug(message)
}
