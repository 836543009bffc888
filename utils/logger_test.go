package utils

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogBuildWriter(t *testing.T) {
	var buf bytes.Buffer
	logData, err := NewLogBuild().FromWriter(&buf).Level("warn").Make()
	require.NoError(t, err)
	assert.Nil(t, logData.LogFile)

	logData.Logger.Info().Msg("dropped")
	logData.Logger.Warn().Str("note", "avl").Msg("kept")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "avl", entry["note"])
	assert.Contains(t, entry, "time")
}

func TestLogBuildFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notemate.log")
	logData, err := NewLogBuild().FromPath(path).Console(true).Make()
	require.NoError(t, err)
	require.NotNil(t, logData.LogFile)

	logData.Logger.Info().Msg("server started")
	require.NoError(t, logData.LogFile.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"message":"server started"`)

	_, err = NewLogBuild().FromPath(filepath.Join(t.TempDir(), "missing", "x.log")).Make()
	assert.Error(t, err)
}
