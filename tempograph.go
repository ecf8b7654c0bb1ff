package tempograph

import (
	"context"
	"log/slog"
	"time"

	"github.com/soundprediction/tempograph/pkg/analyzer"
	"github.com/soundprediction/tempograph/pkg/similarity"
	"github.com/soundprediction/tempograph/pkg/store"
	"github.com/soundprediction/tempograph/pkg/temporal"
	"github.com/soundprediction/tempograph/pkg/traversal"
	"github.com/soundprediction/tempograph/pkg/types"
)

// Tempograph is the main interface for interacting with a temporal document
// graph: documents with canonical timestamps, typed relationships, bounded
// traversal, similarity-ranked attention and chunked bounded-memory
// analysis.
type Tempograph interface {
	// AddDocument normalizes the timestamp and inserts a document.
	AddDocument(ctx context.Context, id, content string, timestamp time.Time, metadata map[string]interface{}) (*types.Document, error)

	// AddRelationship creates a typed, directed edge between two documents.
	AddRelationship(ctx context.Context, from, to string, kind types.RelationKind, weight float64, metadata map[string]interface{}) (*types.Relationship, error)

	// GetDocument retrieves a document by id.
	GetDocument(ctx context.Context, id string) (*types.Document, error)

	// DocumentsInRange returns documents within the inclusive time range in
	// ascending timestamp order.
	DocumentsInRange(ctx context.Context, start, end time.Time) ([]*types.Document, error)

	// ForwardDocuments returns documents reachable forward in time from id.
	ForwardDocuments(ctx context.Context, id string, timeWindowDays, maxHops, maxResults int) (*traversal.Result, error)

	// BackwardDocuments returns documents reachable backward in time from id.
	BackwardDocuments(ctx context.Context, id string, timeWindowDays, maxHops, maxResults int) (*traversal.Result, error)

	// FindPath returns the shortest hop-count path between two documents.
	FindPath(ctx context.Context, from, to string, maxHops int) (*types.PathResult, error)

	// Similarity returns the content similarity of two documents in [0, 1].
	Similarity(ctx context.Context, a, b string) (float64, error)

	// ComputeAttention ranks a document's temporal neighborhood by
	// similarity in both directions.
	ComputeAttention(ctx context.Context, id string, timeWindowDays, maxHops, maxPerDirection int) (*types.AttentionResult, error)

	// AnalyzeChain runs the chunked, carryover-bounded analysis over the
	// span between two documents.
	AnalyzeChain(ctx context.Context, startID, endID string, maxDays int) (*types.AnalysisResult, error)

	// TemporalSummary summarizes the span in independent equal windows.
	TemporalSummary(ctx context.Context, startID, endID string, numChunks int) (*types.SummaryResult, error)

	// Statistics returns store counters.
	Statistics(ctx context.Context) types.Statistics

	// Export dumps the full node and edge sets.
	Export(ctx context.Context) *types.GraphExport
}

// Config holds configuration for the engine.
type Config struct {
	// LayerDays is the layer index bucket width; zero selects weekly.
	LayerDays int
	// Analyzer tunes the chunked analyzer.
	Analyzer analyzer.Config
}

// Engine is the main implementation of the Tempograph interface. All
// components share one in-memory store; individual operations are safe for
// concurrent use.
type Engine struct {
	store      *store.Store
	traversal  *traversal.Engine
	similarity *similarity.Engine
	analyzer   *analyzer.Analyzer
	config     *Config
	logger     *slog.Logger
}

// New creates an engine with the provided configuration. A nil config or
// logger selects defaults.
func New(config *Config, logger *slog.Logger) *Engine {
	if config == nil {
		config = &Config{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := store.New(config.LayerDays, logger)
	trav := traversal.New(s, logger)
	sim := similarity.New(s, trav, logger)
	anl := analyzer.New(s, trav, config.Analyzer, logger)

	return &Engine{
		store:      s,
		traversal:  trav,
		similarity: sim,
		analyzer:   anl,
		config:     config,
		logger:     logger,
	}
}

// Store exposes the underlying graph store.
func (e *Engine) Store() *store.Store {
	return e.store
}

func (e *Engine) AddDocument(ctx context.Context, id, content string, timestamp time.Time, metadata map[string]interface{}) (*types.Document, error) {
	return e.store.AddDocument(id, content, temporal.Canonicalize(timestamp), metadata)
}

// AddDocumentString is AddDocument for callers holding a textual timestamp;
// the accepted formats are those of temporal.Parse.
func (e *Engine) AddDocumentString(ctx context.Context, id, content, timestamp string, metadata map[string]interface{}) (*types.Document, error) {
	ts, err := temporal.Parse(timestamp)
	if err != nil {
		return nil, err
	}
	return e.store.AddDocument(id, content, ts, metadata)
}

func (e *Engine) AddRelationship(ctx context.Context, from, to string, kind types.RelationKind, weight float64, metadata map[string]interface{}) (*types.Relationship, error) {
	return e.store.AddRelationship(from, to, kind, weight, metadata)
}

func (e *Engine) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	return e.store.GetDocument(id)
}

func (e *Engine) DocumentsInRange(ctx context.Context, start, end time.Time) ([]*types.Document, error) {
	return e.store.DocumentsInRange(temporal.Canonicalize(start), temporal.Canonicalize(end))
}

func (e *Engine) ForwardDocuments(ctx context.Context, id string, timeWindowDays, maxHops, maxResults int) (*traversal.Result, error) {
	return e.traversal.ForwardReachable(ctx, id, timeWindowDays, maxHops, maxResults)
}

func (e *Engine) BackwardDocuments(ctx context.Context, id string, timeWindowDays, maxHops, maxResults int) (*traversal.Result, error) {
	return e.traversal.BackwardReachable(ctx, id, timeWindowDays, maxHops, maxResults)
}

func (e *Engine) FindPath(ctx context.Context, from, to string, maxHops int) (*types.PathResult, error) {
	return e.traversal.FindPath(ctx, from, to, maxHops)
}

func (e *Engine) Similarity(ctx context.Context, a, b string) (float64, error) {
	return e.similarity.Similarity(a, b)
}

func (e *Engine) ComputeAttention(ctx context.Context, id string, timeWindowDays, maxHops, maxPerDirection int) (*types.AttentionResult, error) {
	return e.similarity.ComputeAttention(ctx, id, timeWindowDays, maxHops, maxPerDirection)
}

func (e *Engine) AnalyzeChain(ctx context.Context, startID, endID string, maxDays int) (*types.AnalysisResult, error) {
	return e.analyzer.AnalyzeChain(ctx, startID, endID, maxDays)
}

func (e *Engine) TemporalSummary(ctx context.Context, startID, endID string, numChunks int) (*types.SummaryResult, error) {
	return e.analyzer.TemporalSummary(ctx, startID, endID, numChunks)
}

func (e *Engine) Statistics(ctx context.Context) types.Statistics {
	return e.store.Statistics()
}

func (e *Engine) Export(ctx context.Context) *types.GraphExport {
	return e.store.Export()
}

// Re-exported sentinel errors so callers can match without importing the
// internal packages.
var (
	ErrNotFound              = types.ErrNotFound
	ErrDuplicateDocument     = types.ErrDuplicateDocument
	ErrUnknownDocument       = types.ErrUnknownDocument
	ErrNoPath                = types.ErrNoPath
	ErrInvalidRelation       = types.ErrInvalidRelation
	ErrInvalidRange          = types.ErrInvalidRange
	ErrIncomparableTimestamp = temporal.ErrIncomparableTimestamp
)

// Commonly used types re-exported for convenience.
type (
	Document       = types.Document
	Relationship   = types.Relationship
	RelationKind   = types.RelationKind
	PathResult     = types.PathResult
	AnalysisResult = types.AnalysisResult
	SummaryResult  = types.SummaryResult
	GraphExport    = types.GraphExport
)
