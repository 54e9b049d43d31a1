package ledger

import (
	"context"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// Log levels accepted by config.LogLevel, lowest first.
const (
	levelTrace = iota
	levelDebug
	levelInfo
	levelWarn
	levelError
)

func parseLevel(name string) int {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// levelLogger drops records below min before they reach the wrapped logger.
type levelLogger struct {
	base glog.Logger
	min  int
}

var _ glog.Logger = (*levelLogger)(nil)

func newLevelLogger(base glog.Logger, level string) glog.Logger {
	return &levelLogger{base: glog.Ensure(base), min: parseLevel(level)}
}

func (l *levelLogger) Trace(msg string, args ...any) {
	if l.min <= levelTrace {
		l.base.Trace(msg, args...)
	}
}

func (l *levelLogger) Debug(msg string, args ...any) {
	if l.min <= levelDebug {
		l.base.Debug(msg, args...)
	}
}

func (l *levelLogger) Info(msg string, args ...any) {
	if l.min <= levelInfo {
		l.base.Info(msg, args...)
	}
}

func (l *levelLogger) Warn(msg string, args ...any) {
	if l.min <= levelWarn {
		l.base.Warn(msg, args...)
	}
}

func (l *levelLogger) Error(msg string, args ...any) {
	l.base.Error(msg, args...)
}

func (l *levelLogger) Fatal(msg string, args ...any) {
	l.base.Fatal(msg, args...)
}

func (l *levelLogger) WithContext(ctx context.Context) glog.Logger {
	return &levelLogger{base: l.base.WithContext(ctx), min: l.min}
}

func (l *levelLogger) WithFields(fields map[string]any) glog.Logger {
	if fl, ok := l.base.(glog.FieldsLogger); ok {
		return &levelLogger{base: fl.WithFields(fields), min: l.min}
	}
	return l
}
