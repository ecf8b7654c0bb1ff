package types

import (
	"errors"
	"time"

	"github.com/soundprediction/tempograph/pkg/temporal"
)

// ErrInvalidRange is returned when an analysis span starts after it ends.
var ErrInvalidRange = errors.New("invalid range: start after end")

// Event is a high-importance document carried across window boundaries.
type Event struct {
	DocumentID  string        `json:"document_id"`
	Timestamp   temporal.Time `json:"timestamp"`
	Description string        `json:"description"`
	Importance  float64       `json:"importance"`
}

// Entity is a named actor mentioned in a window's documents.
type Entity struct {
	Name     string        `json:"name"`
	Mentions int           `json:"mentions"`
	LastSeen temporal.Time `json:"last_seen"`
}

// CausalChain is an ordered run of documents linked by causal edges.
// Complete is false when the chain's tail still has causal successors
// outside the analyzed window, which surfaces as an open question.
type CausalChain struct {
	DocumentIDs []string `json:"document_ids"`
	Complete    bool     `json:"complete"`
}

// Carryover is the bounded state handed from one analysis window to the
// next. Its three lists are hard-capped, so carryover size is constant
// regardless of how many documents a window contains.
type Carryover struct {
	KeyEvents       []Event            `json:"key_events"`
	ActiveEntities  []Entity           `json:"active_entities"`
	OpenChains      []CausalChain      `json:"open_chains"`
	AttentionScores map[string]float64 `json:"attention_scores,omitempty"`

	// OpenQuestions flags causal chains that ran past the window boundary,
	// phrased for the next window (and the final result) to pick up.
	OpenQuestions []string `json:"open_questions,omitempty"`
}

// ChunkResult is the local outcome of analyzing one window.
type ChunkResult struct {
	Index         int           `json:"index"`
	WindowStart   temporal.Time `json:"window_start"`
	WindowEnd     temporal.Time `json:"window_end"`
	DocumentCount int           `json:"document_count"`
	KeyEvents     []Event       `json:"key_events"`
	Chains        []CausalChain `json:"chains"`
	OpenQuestions []string      `json:"open_questions,omitempty"`
	Summary       string        `json:"summary"`
	Elapsed       time.Duration `json:"elapsed_ns"`
}

// AnalysisPerformance records the cost of a chunked run next to an estimate
// of what the same span would cost without windowing.
type AnalysisPerformance struct {
	Elapsed          time.Duration `json:"elapsed_ns"`
	EstimatedFullCtx time.Duration `json:"estimated_full_context_ns"`
	Speedup          float64       `json:"speedup"`
	WindowCount      int           `json:"window_count"`
	DocumentCount    int           `json:"document_count"`
}

// AnalysisResult is the full outcome of a chunked chain analysis.
type AnalysisResult struct {
	RunID       string              `json:"run_id"`
	StartID     string              `json:"start_id"`
	EndID       string              `json:"end_id"`
	Chunks      []ChunkResult       `json:"chunks"`
	Synthesis   string              `json:"synthesis"`
	KeyEvents   []Event             `json:"key_events"`

	// FinalCarryover is the bounded state left after the last window.
	FinalCarryover Carryover `json:"final_carryover"`

	Performance AnalysisPerformance `json:"performance"`
	Cancelled   bool                `json:"cancelled,omitempty"`
}

// WindowSummary is one independent slice of a temporal summary.
type WindowSummary struct {
	Index         int           `json:"index"`
	WindowStart   temporal.Time `json:"window_start"`
	WindowEnd     temporal.Time `json:"window_end"`
	DocumentCount int           `json:"document_count"`
	TopDocuments  []string      `json:"top_documents,omitempty"`
	Summary       string        `json:"summary"`
}

// SummaryResult covers a span with equal, non-overlapping windows.
type SummaryResult struct {
	RunID     string          `json:"run_id"`
	StartID   string          `json:"start_id"`
	EndID     string          `json:"end_id"`
	Windows   []WindowSummary `json:"windows"`
	Cancelled bool            `json:"cancelled,omitempty"`
}
