package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/justestif/playlist-curator/internal/config"
)

func TestReadIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	require.NoError(t, os.WriteFile(path, []byte("# liked songs\nT1\n\n  T2  \n#T3\n"), 0o644))

	ids, err := readIDs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"T1", "T2"}, ids)

	_, err = readIDs(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	log, err := newLogger("debug", "console")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = newLogger("warn", "json")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))

	_, err = newLogger("loud", "json")
	assert.Error(t, err)
}

func TestRunUnknownCommand(t *testing.T) {
	err := run([]string{"dance"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestServeRequiresClassifier(t *testing.T) {
	t.Setenv("CLASSIFIER_URL", "")
	t.Setenv("CATALOG_CSV", "tracks.csv")

	err := run([]string{"serve"})
	assert.ErrorIs(t, err, config.ErrMissingClassifierURL)
}

func TestImportRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	err := run([]string{"import", "T1"})
	assert.ErrorIs(t, err, config.ErrMissingDatabaseURL)
}
