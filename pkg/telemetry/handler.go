// Package telemetry persists diagnostic data as Parquet files: error logs
// via a slog.Handler and full graph snapshots for offline inspection.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/soundprediction/tempograph/pkg/types"
)

// Batching policy: records accumulate until the batch limit is hit or the
// oldest pending record exceeds the age limit, whichever comes first. Flushes
// happen on the logging goroutine, so the age limit only triggers when
// another error arrives; Flush covers shutdown.
const (
	flushBatchLimit = 64
	flushAgeLimit   = 30 * time.Second
)

// ErrorRecord is the flattened Parquet row for one persisted log entry.
type ErrorRecord struct {
	ID            string    `parquet:"id"`
	Timestamp     time.Time `parquet:"timestamp"`
	Level         string    `parquet:"level"`
	Message       string    `parquet:"message"`
	RequestID     string    `parquet:"request_id"`
	RequestSource string    `parquet:"request_source"`
	SourceFile    string    `parquet:"source_file"`
	LineNumber    int       `parquet:"line_number"`
	Attributes    string    `parquet:"attributes"` // JSON string
}

// ParquetHandler is a slog.Handler that forwards every record to the next
// handler and additionally persists error-level records to Parquet batches
// under a fixed directory.
type ParquetHandler struct {
	next      slog.Handler
	outputDir string

	mu        sync.Mutex
	pending   []ErrorRecord
	lastFlush time.Time
}

// NewParquetHandler creates a ParquetHandler writing under outputDir.
func NewParquetHandler(next slog.Handler, outputDir string) (*ParquetHandler, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}

	return &ParquetHandler{
		next:      next,
		outputDir: outputDir,
		pending:   make([]ErrorRecord, 0, flushBatchLimit),
		lastFlush: time.Now(),
	}, nil
}

// Enabled implements slog.Handler
func (h *ParquetHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler. The record always reaches the next handler;
// persistence failures never block logging.
func (h *ParquetHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.next.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level < slog.LevelError {
		return nil
	}

	record := newErrorRecord(ctx, r)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.pending = append(h.pending, record)
	if len(h.pending) >= flushBatchLimit || time.Since(h.lastFlush) >= flushAgeLimit {
		return h.flushLocked()
	}
	return nil
}

// newErrorRecord flattens a slog record plus its request context into a
// Parquet row.
func newErrorRecord(ctx context.Context, r slog.Record) ErrorRecord {
	var requestID, requestSource string
	if v, ok := ctx.Value(types.ContextKeyRequestID).(string); ok {
		requestID = v
	}
	if v, ok := ctx.Value(types.ContextKeyRequestSource).(string); ok {
		requestSource = v
	}

	attrs := make(map[string]interface{})
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})
	attrsJSON, _ := json.Marshal(attrs)

	frames := runtime.CallersFrames([]uintptr{r.PC})
	frame, _ := frames.Next()

	return ErrorRecord{
		ID:            uuid.NewString(),
		Timestamp:     r.Time.UTC(),
		Level:         r.Level.String(),
		Message:       r.Message,
		RequestID:     requestID,
		RequestSource: requestSource,
		SourceFile:    frame.File,
		LineNumber:    frame.Line,
		Attributes:    string(attrsJSON),
	}
}

// Flush writes any pending records to disk immediately. Callers should flush
// before process exit; the age-based flush only runs when new errors arrive.
func (h *ParquetHandler) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.flushLocked()
}

func (h *ParquetHandler) flushLocked() error {
	if len(h.pending) == 0 {
		return nil
	}

	name := fmt.Sprintf("errors_%s.parquet", time.Now().UTC().Format("20060102T150405.000000000"))
	path := filepath.Join(h.outputDir, name)

	if err := parquet.WriteFile(path, h.pending); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write telemetry parquet file: %v\n", err)
		return err
	}

	h.pending = h.pending[:0]
	h.lastFlush = time.Now()
	return nil
}

// WithAttrs implements slog.Handler. The clone shares nothing with the
// original, so each handler flushes its own batches.
func (h *ParquetHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ParquetHandler{
		next:      h.next.WithAttrs(attrs),
		outputDir: h.outputDir,
		pending:   make([]ErrorRecord, 0, flushBatchLimit),
		lastFlush: time.Now(),
	}
}

// WithGroup implements slog.Handler
func (h *ParquetHandler) WithGroup(name string) slog.Handler {
	return &ParquetHandler{
		next:      h.next.WithGroup(name),
		outputDir: h.outputDir,
		pending:   make([]ErrorRecord, 0, flushBatchLimit),
		lastFlush: time.Now(),
	}
}
