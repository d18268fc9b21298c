package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	logger, closeFn, err := New(Options{Console: &console})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.WithField("page", 2).Info("Page done")
	require.NoError(t, closeFn())

	out := console.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "Page done")
	assert.Contains(t, out, "page=2")
}

func TestNew_WritesToConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "run.log")

	logger, closeFn, err := New(Options{File: path, Verbose: true, Console: &console})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.Debug("Started")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Started")
	assert.Contains(t, console.String(), "Started")
}

func TestNew_JSON(t *testing.T) {
	var console bytes.Buffer
	logger, _, err := New(Options{JSON: true, Console: &console})
	require.NoError(t, err)

	logger.WithField("run_id", "abc").Warn("Something")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(console.Bytes(), &entry))
	assert.Equal(t, "abc", entry["run_id"])
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "Something", entry["msg"])
}

func TestNew_BadFile(t *testing.T) {
	dir := t.TempDir()
	_, _, err := New(Options{File: dir})
	assert.Error(t, err)
}
