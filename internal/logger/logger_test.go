package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Noashop/test-pago-sub003/internal/conf"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, log.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, log.LevelError, ParseLevel("error"))
	assert.Equal(t, log.LevelInfo, ParseLevel(""))
	assert.Equal(t, log.LevelInfo, ParseLevel("verbose"))
}

func TestWriter(t *testing.T) {
	assert.Equal(t, os.Stdout, writer(&conf.Log{Output: "stdout"}))
	assert.Equal(t, os.Stderr, writer(&conf.Log{Output: "stderr"}))
	assert.Equal(t, os.Stdout, writer(&conf.Log{Output: "file"}))

	path := filepath.Join(t.TempDir(), "settlement.log")
	w := writer(&conf.Log{Output: "file", FilePath: path, MaxSize: 10})
	lj, ok := w.(*lumberjack.Logger)
	require.True(t, ok)
	assert.Equal(t, path, lj.Filename)
	defer lj.Close()
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settlement.log")
	l := NewLogger(&conf.Log{Level: "warn", Output: "file", FilePath: path})

	h := log.NewHelper(l)
	h.Info("dropped by level filter")
	h.Warn("payout alert")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "payout alert")
	assert.NotContains(t, string(data), "dropped by level filter")
}
