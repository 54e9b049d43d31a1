package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelLogger_Filters(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"trace", []string{"trace", "debug", "info", "warn", "error"}},
		{"debug", []string{"debug", "info", "warn", "error"}},
		{"info", []string{"info", "warn", "error"}},
		{"", []string{"info", "warn", "error"}},
		{"WARN", []string{"warn", "error"}},
		{"error", []string{"error"}},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			capture := newCaptureLogger()
			logger := newLevelLogger(capture, tt.level).WithContext(context.Background())
			logger.Trace("t")
			logger.Debug("d")
			logger.Info("i")
			logger.Warn("w")
			logger.Error("e")

			var got []string
			for _, r := range capture.entries() {
				got = append(got, r.level)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelLogger_NilBase(t *testing.T) {
	logger := newLevelLogger(nil, "debug")
	assert.NotPanics(t, func() {
		logger.Info("dropped")
		logger.(*levelLogger).WithFields(map[string]any{"k": "v"}).Warn("dropped")
	})
}

func TestLevelLogger_WithFieldsKeepsLevel(t *testing.T) {
	capture := newCaptureLogger()
	logger := newLevelLogger(capture, "warn")
	scoped := logger.(*levelLogger).WithFields(map[string]any{"op": "x"})
	scoped.Info("dropped")
	scoped.Warn("kept")

	entries := capture.entries()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "kept", entries[0].msg)
	}
}
