// Package handlers implements the HTTP handlers of the graph API.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/tempograph"
	"github.com/soundprediction/tempograph/pkg/server/dto"
	"github.com/soundprediction/tempograph/pkg/temporal"
	"github.com/soundprediction/tempograph/pkg/types"
)

// GraphHandler serves the document graph endpoints.
type GraphHandler struct {
	engine tempograph.Tempograph
}

// NewGraphHandler creates a new graph handler.
func NewGraphHandler(engine tempograph.Tempograph) *GraphHandler {
	return &GraphHandler{engine: engine}
}

// writeError maps engine errors to HTTP status codes. The error text goes
// out verbatim so clients see the same message library callers would.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrUnknownDocument),
		errors.Is(err, types.ErrNoPath):
		status = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, types.ErrDuplicateDocument):
		status = http.StatusConflict
		code = "conflict"
	case errors.Is(err, types.ErrInvalidRelation),
		errors.Is(err, types.ErrInvalidRange),
		errors.Is(err, types.ErrInvalidLimit),
		errors.Is(err, types.ErrEmptyID),
		errors.Is(err, types.ErrEmptyContent),
		errors.Is(err, temporal.ErrIncomparableTimestamp):
		status = http.StatusBadRequest
		code = "invalid_request"
	}

	c.JSON(status, dto.ErrorResponse{Error: code, Message: err.Error()})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// Health handles GET /health.
func (h *GraphHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}

// AddDocument handles POST /api/v1/documents.
func (h *GraphHandler) AddDocument(c *gin.Context) {
	var req dto.AddDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	ts, err := temporal.Parse(req.Timestamp)
	if err != nil {
		writeError(c, err)
		return
	}

	doc, err := h.engine.AddDocument(c.Request.Context(), req.ID, req.Content, ts.Std(), req.Metadata)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// AddRelationship handles POST /api/v1/relationships.
func (h *GraphHandler) AddRelationship(c *gin.Context) {
	var req dto.AddRelationshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	kind, err := types.ParseRelationKind(req.Kind)
	if err != nil {
		writeError(c, err)
		return
	}

	rel, err := h.engine.AddRelationship(c.Request.Context(), req.From, req.To, kind, req.Weight, req.Metadata)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rel)
}

// GetDocument handles GET /api/v1/documents/:id.
func (h *GraphHandler) GetDocument(c *gin.Context) {
	doc, err := h.engine.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// DocumentsInRange handles GET /api/v1/documents?start=...&end=...
func (h *GraphHandler) DocumentsInRange(c *gin.Context) {
	start, err := temporal.Parse(c.Query("start"))
	if err != nil {
		writeError(c, err)
		return
	}
	end, err := temporal.Parse(c.Query("end"))
	if err != nil {
		writeError(c, err)
		return
	}

	docs, err := h.engine.DocumentsInRange(c.Request.Context(), start.Std(), end.Std())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs, "count": len(docs)})
}

// Forward handles GET /api/v1/documents/:id/forward.
func (h *GraphHandler) Forward(c *gin.Context) {
	res, err := h.engine.ForwardDocuments(c.Request.Context(), c.Param("id"),
		intQuery(c, "window_days", 0), intQuery(c, "max_hops", 0), intQuery(c, "max_results", 0))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Backward handles GET /api/v1/documents/:id/backward.
func (h *GraphHandler) Backward(c *gin.Context) {
	res, err := h.engine.BackwardDocuments(c.Request.Context(), c.Param("id"),
		intQuery(c, "window_days", 0), intQuery(c, "max_hops", 0), intQuery(c, "max_results", 0))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// FindPath handles GET /api/v1/path?from=...&to=...
func (h *GraphHandler) FindPath(c *gin.Context) {
	path, err := h.engine.FindPath(c.Request.Context(), c.Query("from"), c.Query("to"), intQuery(c, "max_hops", 0))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, path)
}

// Similarity handles GET /api/v1/similarity?a=...&b=...
func (h *GraphHandler) Similarity(c *gin.Context) {
	a, b := c.Query("a"), c.Query("b")
	sim, err := h.engine.Similarity(c.Request.Context(), a, b)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SimilarityResponse{A: a, B: b, Similarity: sim})
}

// Attention handles GET /api/v1/documents/:id/attention.
func (h *GraphHandler) Attention(c *gin.Context) {
	res, err := h.engine.ComputeAttention(c.Request.Context(), c.Param("id"),
		intQuery(c, "window_days", 0), intQuery(c, "max_hops", 0), intQuery(c, "max_per_direction", 0))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Analyze handles POST /api/v1/analyze.
func (h *GraphHandler) Analyze(c *gin.Context) {
	var req dto.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	res, err := h.engine.AnalyzeChain(c.Request.Context(), req.StartID, req.EndID, req.MaxDays)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Summary handles POST /api/v1/summary.
func (h *GraphHandler) Summary(c *gin.Context) {
	var req dto.SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	res, err := h.engine.TemporalSummary(c.Request.Context(), req.StartID, req.EndID, req.NumChunks)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Stats handles GET /api/v1/stats.
func (h *GraphHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Statistics(c.Request.Context()))
}

// Export handles GET /api/v1/export.
func (h *GraphHandler) Export(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Export(c.Request.Context()))
}
