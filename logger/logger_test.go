package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect zapcore.Level
		ok     bool
	}{
		{name: "empty defaults to info", input: "", expect: zapcore.InfoLevel, ok: true},
		{name: "debug", input: "debug", expect: zapcore.DebugLevel, ok: true},
		{name: "warn", input: "warn", expect: zapcore.WarnLevel, ok: true},
		{name: "unknown", input: "loud", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			level, err := ParseLevel(tc.input)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, level)
		})
	}
}

func TestInitWritesRotatedFile(t *testing.T) {
	previous := coreLogger
	defer SetCoreLogger(previous)

	dir := t.TempDir()
	require.NoError(t, Init(Options{Level: "info", Dir: dir}))

	Infof("artifact %s loaded", "model")
	Sync()

	data, err := os.ReadFile(filepath.Join(dir, CoreLogFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "artifact model loaded")
}

func TestInitRejectsBadLevel(t *testing.T) {
	assert.Error(t, Init(Options{Level: "verbose"}))
}
