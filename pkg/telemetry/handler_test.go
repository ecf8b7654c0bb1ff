package telemetry

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*ParquetHandler, string) {
	t.Helper()
	dir := t.TempDir()
	h, err := NewParquetHandler(slog.NewTextHandler(io.Discard, nil), dir)
	require.NoError(t, err)
	return h, dir
}

func parquetFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "errors_") && strings.HasSuffix(e.Name(), ".parquet") {
			out = append(out, e.Name())
		}
	}
	return out
}

func TestParquetHandlerPersistsErrors(t *testing.T) {
	h, dir := newTestHandler(t)
	logger := slog.New(h)

	logger.Error("ingest failed", "document", "doc-1")
	require.NoError(t, h.Flush())

	assert.Len(t, parquetFiles(t, dir), 1)
}

func TestParquetHandlerSkipsBelowError(t *testing.T) {
	h, dir := newTestHandler(t)
	logger := slog.New(h)

	logger.Info("document added")
	logger.Warn("ordered edge runs backward in time")
	require.NoError(t, h.Flush())

	assert.Empty(t, parquetFiles(t, dir))
}

func TestParquetHandlerFlushesAtBatchLimit(t *testing.T) {
	h, dir := newTestHandler(t)
	logger := slog.New(h)

	for i := 0; i < flushBatchLimit; i++ {
		logger.Error("ingest failed", "attempt", i)
	}

	// The batch limit was hit, so a file exists without an explicit Flush.
	assert.Len(t, parquetFiles(t, dir), 1)

	// Nothing pending afterwards.
	require.NoError(t, h.Flush())
	assert.Len(t, parquetFiles(t, dir), 1)
}
