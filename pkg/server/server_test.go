package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/tempograph"
	"github.com/soundprediction/tempograph/pkg/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 0

	srv := New(cfg, tempograph.New(nil, nil))
	srv.Setup()
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func seedDocuments(t *testing.T, srv *Server) {
	t.Helper()
	docs := []map[string]interface{}{
		{"id": "contract", "content": "Contract signed covering warehouse", "timestamp": "2024-03-01T12:00:00Z"},
		{"id": "claim", "content": "Claim filed for warehouse water damage", "timestamp": "2024-03-05T12:00:00Z"},
		{"id": "settlement", "content": "Settlement reached on warehouse claim", "timestamp": "2024-03-12T12:00:00Z"},
	}
	for _, doc := range docs {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/documents", doc)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	for _, rel := range [][2]string{{"contract", "claim"}, {"claim", "settlement"}} {
		w := doJSON(t, srv, http.MethodPost, "/api/v1/relationships", map[string]interface{}{
			"from": rel[0], "to": rel[1], "kind": "causal", "weight": 1.0,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAddAndGetDocument(t *testing.T) {
	srv := newTestServer(t)
	seedDocuments(t, srv)

	w := doJSON(t, srv, http.MethodGet, "/api/v1/documents/claim", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "claim", doc["id"])
	// Timestamps serialize in the fixed RFC3339 UTC profile.
	assert.Equal(t, "2024-03-05T12:00:00Z", doc["timestamp"])
}

func TestDocumentErrors(t *testing.T) {
	srv := newTestServer(t)
	seedDocuments(t, srv)

	w := doJSON(t, srv, http.MethodGet, "/api/v1/documents/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "document not found", resp["message"])

	// Duplicate insert.
	w = doJSON(t, srv, http.MethodPost, "/api/v1/documents", map[string]interface{}{
		"id": "claim", "content": "again", "timestamp": "2024-03-20T00:00:00Z",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Unparseable timestamp.
	w = doJSON(t, srv, http.MethodPost, "/api/v1/documents", map[string]interface{}{
		"id": "bad", "content": "x", "timestamp": "whenever",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown relation kind.
	w = doJSON(t, srv, http.MethodPost, "/api/v1/relationships", map[string]interface{}{
		"from": "contract", "to": "claim", "kind": "related",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRangeQuery(t *testing.T) {
	srv := newTestServer(t)
	seedDocuments(t, srv)

	w := doJSON(t, srv, http.MethodGet, "/api/v1/documents?start=2024-03-01&end=2024-03-06", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestTraversalEndpoints(t *testing.T) {
	srv := newTestServer(t)
	seedDocuments(t, srv)

	w := doJSON(t, srv, http.MethodGet, "/api/v1/documents/contract/forward?window_days=30", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Documents []map[string]interface{} `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Len(t, res.Documents, 2)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/path?from=contract&to=settlement", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var path struct {
		Path []string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &path))
	assert.Equal(t, []string{"contract", "claim", "settlement"}, path.Path)

	// Unreachable pair.
	w = doJSON(t, srv, http.MethodPost, "/api/v1/documents", map[string]interface{}{
		"id": "island", "content": "unrelated note", "timestamp": "2024-03-20T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, srv, http.MethodGet, "/api/v1/path?from=contract&to=island", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSimilarityAndAttention(t *testing.T) {
	srv := newTestServer(t)
	seedDocuments(t, srv)

	w := doJSON(t, srv, http.MethodGet, "/api/v1/similarity?a=claim&b=settlement", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sim struct {
		Similarity float64 `json:"similarity"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sim))
	assert.GreaterOrEqual(t, sim.Similarity, 0.0)
	assert.LessOrEqual(t, sim.Similarity, 1.0)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/documents/claim/attention", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAnalyzeAndSummaryEndpoints(t *testing.T) {
	srv := newTestServer(t)
	seedDocuments(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/analyze", map[string]interface{}{
		"start_id": "contract", "end_id": "settlement",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var analysis struct {
		RunID  string                   `json:"run_id"`
		Chunks []map[string]interface{} `json:"chunks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analysis))
	assert.NotEmpty(t, analysis.RunID)
	assert.NotEmpty(t, analysis.Chunks)

	w = doJSON(t, srv, http.MethodPost, "/api/v1/summary", map[string]interface{}{
		"start_id": "contract", "end_id": "settlement", "num_chunks": 2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Inverted span.
	w = doJSON(t, srv, http.MethodPost, "/api/v1/analyze", map[string]interface{}{
		"start_id": "settlement", "end_id": "contract",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsAndExport(t *testing.T) {
	srv := newTestServer(t)
	seedDocuments(t, srv)

	w := doJSON(t, srv, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		TotalDocuments int `json:"total_documents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.TotalDocuments)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var export struct {
		Documents     []map[string]interface{} `json:"documents"`
		Relationships []map[string]interface{} `json:"relationships"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &export))
	assert.Len(t, export.Documents, 3)
	assert.Len(t, export.Relationships, 2)
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t)
	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
