package log

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	easy "github.com/t-tomalak/logrus-easy-formatter"
)

var logger *customLogger

// nolint:gochecknoinits
func init() {
	logger = newLogger(os.Stderr)
}

type customLogger struct {
	*logrus.Logger
}

func newLogger(out io.Writer) *customLogger {
	l := &logrus.Logger{
		Out:   out,
		Level: logrus.InfoLevel,
		Hooks: make(logrus.LevelHooks),
		Formatter: &easy.Formatter{
			TimestampFormat: "01-02 15:04:05.000",
			LogFormat:       "[%lvl%]   [%time%]   -   %msg%\r\n",
		},
	}
	return &customLogger{l}
}

// SetLevel accepts a logrus level name ("debug", "info", "warn", "error").
// Unknown names fall back to info.
func SetLevel(name string) {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.Level = lvl
	Infof("log level set to %s.", lvl)
}

// SetOutput redirects log output, mostly for tests
func SetOutput(out io.Writer) {
	logger.Out = out
}

// Logger exposes the underlying logrus logger for libraries that want one
func Logger() *logrus.Logger {
	return logger.Logger
}

func Debug(content interface{}) {
	logger.Debug(content)
}

func Debugf(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(format, args...))
}

func Info(content interface{}) {
	logger.Info(content)
}

func Infof(format string, args ...interface{}) {
	logger.Info(fmt.Sprintf(format, args...))
}

func Warn(content interface{}) {
	logger.Warn(content)
}

func Warnf(format string, args ...interface{}) {
	logger.Warn(fmt.Sprintf(format, args...))
}

func Error(content interface{}) {
	logger.Error(content)
}

func Errorf(format string, args ...interface{}) {
	logger.Error(fmt.Sprintf(format, args...))
}

func Fatal(content interface{}) {
	logger.Fatal(content)
}

func Fatalf(format string, args ...interface{}) {
	logger.Fatal(fmt.Sprintf(format, args...))
}
