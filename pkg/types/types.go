package types

import (
	"errors"

	"github.com/soundprediction/tempograph/pkg/temporal"
)

// Structural errors abort the single operation and are returned to the
// caller verbatim; they are never retried internally.
var (
	// ErrNotFound is returned when a document id is unknown.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateDocument is returned on an id collision at insert.
	ErrDuplicateDocument = errors.New("duplicate document id")
	// ErrUnknownDocument is returned when a relationship endpoint is absent.
	ErrUnknownDocument = errors.New("unknown document endpoint")
	// ErrNoPath is returned when traversal found no route within the hop bound.
	ErrNoPath = errors.New("no path within hop bound")
	// ErrInvalidRelation is returned for a relation kind outside the fixed set.
	ErrInvalidRelation = errors.New("invalid relation kind")
)

// Validation errors
var (
	ErrEmptyID      = errors.New("id cannot be empty")
	ErrEmptyContent = errors.New("content cannot be empty")
	ErrInvalidLimit = errors.New("limit must be positive")
)

// RelationKind is the type of a temporal relationship.
type RelationKind string

const (
	// RelationSequential orders one document strictly after another.
	RelationSequential RelationKind = "sequential"
	// RelationCausal marks the source as a cause of the target.
	RelationCausal RelationKind = "causal"
	// RelationConcurrent marks two documents as overlapping in time.
	RelationConcurrent RelationKind = "concurrent"
	// RelationBranch marks a divergence point.
	RelationBranch RelationKind = "branch"
	// RelationMerge marks a convergence point.
	RelationMerge RelationKind = "merge"
)

// ParseRelationKind validates a relation kind string against the fixed set.
func ParseRelationKind(s string) (RelationKind, error) {
	switch RelationKind(s) {
	case RelationSequential, RelationCausal, RelationConcurrent, RelationBranch, RelationMerge:
		return RelationKind(s), nil
	}
	return "", ErrInvalidRelation
}

// IsOrdered reports whether the kind implies a forward-in-time ordering
// between its endpoints. Ordered edges going backward in time carry a
// TemporalOrderWarning.
func (k RelationKind) IsOrdered() bool {
	return k == RelationSequential || k == RelationCausal
}

// Document is a node in the temporal graph. Immutable once created except
// for its metadata. Owned exclusively by the store.
type Document struct {
	ID        string                 `json:"id"`
	Content   string                 `json:"content"`
	Timestamp temporal.Time          `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`

	// LayerID is the coarse time bucket, derived from the canonical
	// timestamp at insert and never mutated in place.
	LayerID string `json:"layer_id,omitempty"`
}

// Validate checks the fields required for insertion.
func (d *Document) Validate() error {
	if d.ID == "" {
		return ErrEmptyID
	}
	if d.Content == "" {
		return ErrEmptyContent
	}
	return nil
}

// Relationship is a directed, typed edge between two documents, referenced
// by id pair only. Multiple edges between the same pair with different kinds
// are permitted.
type Relationship struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	Kind   RelationKind `json:"kind"`
	Weight float64      `json:"weight"`

	// Warning records the non-fatal TemporalOrderWarning attached when an
	// ordered edge runs backward in time. Empty means no warning.
	Warning string `json:"warning,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// TemporalOrderWarning is the warning text attached to ordered edges whose
// source timestamp is after their target timestamp. The insert still
// succeeds; callers audit the flag per edge.
const TemporalOrderWarning = "temporal order warning: edge runs backward in time"

// HasTemporalOrderWarning reports whether the edge was flagged at creation.
func (r *Relationship) HasTemporalOrderWarning() bool {
	return r.Warning != ""
}

// PathResult is the outcome of a shortest-path query. Cancelled marks a
// search that was cut short before it could decide either way.
type PathResult struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	Path      []string `json:"path,omitempty"`
	Length    int      `json:"length"`
	Exists    bool     `json:"exists"`
	Cancelled bool     `json:"cancelled,omitempty"`
}

// ScoredDocument pairs a document id with a relevance score.
type ScoredDocument struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// AttentionSummary aggregates attention weights per direction.
type AttentionSummary struct {
	TotalForward  float64 `json:"total_forward_weight"`
	TotalBackward float64 `json:"total_backward_weight"`
	Balance       float64 `json:"attention_balance"`
}

// AttentionResult holds ranked forward/backward neighbors for one document.
type AttentionResult struct {
	DocumentID string           `json:"document_id"`
	Forward    []ScoredDocument `json:"forward"`
	Backward   []ScoredDocument `json:"backward"`
	Summary    AttentionSummary `json:"summary"`
	Cancelled  bool             `json:"cancelled,omitempty"`
}

// Statistics is the read-only diagnostic snapshot of the store.
type Statistics struct {
	TotalDocuments      int     `json:"total_documents"`
	TotalRelationships  int     `json:"total_relationships"`
	TotalLayers         int     `json:"total_layers"`
	TraversalsPerformed int64   `json:"traversals_performed"`
	AvgEdgesPerDocument float64 `json:"avg_edges_per_document"`
	AvgLayerSize        float64 `json:"avg_layer_size"`
	TimeSpanDays        int     `json:"time_span_days"`
}

// GraphExport is the full node/edge dump used for diagnostics. Read-only,
// no side effects.
type GraphExport struct {
	Documents     []*Document     `json:"documents"`
	Relationships []*Relationship `json:"relationships"`
	Statistics    Statistics      `json:"statistics"`
}
