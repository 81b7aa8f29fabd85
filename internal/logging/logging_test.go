package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnableFileLoggingWritesServiceRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "machinevision.log")

	closeLog, err := EnableFileLogging(path, slog.LevelInfo, Rotation{})
	require.NoError(t, err)

	ForService("mapper").Info("mapping table loaded", "rows", 3)
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"service":"mapper"`)
	assert.Contains(t, string(data), "mapping table loaded")
	assert.Contains(t, string(data), `"rows":3`)
}

func TestEnableFileLoggingFiltersBelowLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machinevision.log")

	closeLog, err := EnableFileLogging(path, slog.LevelInfo, Rotation{})
	require.NoError(t, err)

	ForService("datastore").Debug("connection pool stats")
	ForService("datastore").Info("database opened")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "connection pool stats")
	assert.Contains(t, string(data), "database opened")
}
