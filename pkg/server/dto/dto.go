// Package dto defines the request and response bodies of the HTTP API.
package dto

// ErrorResponse is the uniform error body. Message carries the engine error
// text verbatim.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// AddDocumentRequest is the body of POST /api/v1/documents. Timestamp
// accepts RFC3339 with or without an offset, or a bare date.
type AddDocumentRequest struct {
	ID        string                 `json:"id" binding:"required"`
	Content   string                 `json:"content" binding:"required"`
	Timestamp string                 `json:"timestamp" binding:"required"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// AddRelationshipRequest is the body of POST /api/v1/relationships.
type AddRelationshipRequest struct {
	From     string                 `json:"from" binding:"required"`
	To       string                 `json:"to" binding:"required"`
	Kind     string                 `json:"kind" binding:"required"`
	Weight   float64                `json:"weight"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// AnalyzeRequest is the body of POST /api/v1/analyze.
type AnalyzeRequest struct {
	StartID string `json:"start_id" binding:"required"`
	EndID   string `json:"end_id" binding:"required"`
	MaxDays int    `json:"max_days"`
}

// SummaryRequest is the body of POST /api/v1/summary.
type SummaryRequest struct {
	StartID   string `json:"start_id" binding:"required"`
	EndID     string `json:"end_id" binding:"required"`
	NumChunks int    `json:"num_chunks" binding:"required"`
}

// SimilarityResponse is the body of GET /api/v1/similarity.
type SimilarityResponse struct {
	A          string  `json:"a"`
	B          string  `json:"b"`
	Similarity float64 `json:"similarity"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status string `json:"status"`
}
