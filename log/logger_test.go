package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kataras/golog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGologLogger_LevelControl(t *testing.T) {
	t.Parallel()

	logger := NewGologLogger(golog.New())
	assert.Equal(t, LevelInfo, logger.GetLevel())

	logger.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, logger.GetLevel())

	logger.SetLevel(LevelNone)
	assert.Equal(t, LevelNone, logger.GetLevel())
}

func TestGologLogger_Filtering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	glogger := golog.New()
	glogger.SetOutput(&buf)

	logger := NewGologLogger(glogger)
	logger.SetLevel(LevelError)

	logger.Debug("filtered")
	logger.Info("filtered")
	logger.Error("kept %d", 1)

	out := buf.String()
	assert.NotContains(t, out, "filtered")
	assert.Contains(t, out, "kept 1")
}

func TestStdLogger_Filtering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelWarn)

	logger.Debug("nope")
	logger.Info("nope")
	logger.Warn("warned about %s", "disk")
	logger.Error("failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[WARN] warned about disk")
	assert.Contains(t, lines[1], "[ERROR] failed")
	assert.NotContains(t, buf.String(), "nope")
}

func TestLevelString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "NONE", LevelNone.String())
	assert.Equal(t, "UNKNOWN(42)", Level(42).String())
}
