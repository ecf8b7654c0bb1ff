package tempograph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/tempograph/pkg/types"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC)
}

func seedEngine(t *testing.T) *Engine {
	t.Helper()
	engine := New(nil, nil)
	ctx := context.Background()

	docs := []struct {
		id      string
		content string
		d       int
	}{
		{"contract", "Contract signed between Acme and Baker for warehouse coverage", 1},
		{"claim", "Insurance claim filed by Acme for warehouse water damage", 5},
		{"response", "Insurer response requesting inspection of warehouse damage", 9},
		{"settlement", "Settlement agreement signed covering warehouse claim", 14},
	}
	for _, d := range docs {
		_, err := engine.AddDocument(ctx, d.id, d.content, day(d.d), nil)
		require.NoError(t, err)
	}
	for _, e := range [][2]string{{"contract", "claim"}, {"claim", "response"}, {"response", "settlement"}} {
		_, err := engine.AddRelationship(ctx, e[0], e[1], types.RelationCausal, 1, nil)
		require.NoError(t, err)
	}
	return engine
}

func TestEngineEndToEnd(t *testing.T) {
	engine := seedEngine(t)
	ctx := context.Background()

	doc, err := engine.GetDocument(ctx, "claim")
	require.NoError(t, err)
	assert.Equal(t, "claim", doc.ID)

	docs, err := engine.DocumentsInRange(ctx, day(1), day(9))
	require.NoError(t, err)
	require.Len(t, docs, 3)

	forward, err := engine.ForwardDocuments(ctx, "contract", 30, 10, 0)
	require.NoError(t, err)
	require.Len(t, forward.Documents, 3)

	backward, err := engine.BackwardDocuments(ctx, "settlement", 30, 10, 0)
	require.NoError(t, err)
	require.Len(t, backward.Documents, 3)

	path, err := engine.FindPath(ctx, "contract", "settlement", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"contract", "claim", "response", "settlement"}, path.Path)

	sim, err := engine.Similarity(ctx, "claim", "settlement")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sim, 0.0)
	assert.LessOrEqual(t, sim, 1.0)

	att, err := engine.ComputeAttention(ctx, "claim", 30, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, "claim", att.DocumentID)
	assert.NotEmpty(t, att.Forward)
	assert.NotEmpty(t, att.Backward)

	analysis, err := engine.AnalyzeChain(ctx, "contract", "settlement", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, analysis.Chunks)
	assert.False(t, analysis.Cancelled)

	summary, err := engine.TemporalSummary(ctx, "contract", "settlement", 2)
	require.NoError(t, err)
	assert.Len(t, summary.Windows, 2)

	stats := engine.Statistics(ctx)
	assert.Equal(t, 4, stats.TotalDocuments)
	assert.Equal(t, 3, stats.TotalRelationships)

	export := engine.Export(ctx)
	assert.Len(t, export.Documents, 4)
	assert.Len(t, export.Relationships, 3)
}

func TestEngineErrorSurface(t *testing.T) {
	engine := seedEngine(t)
	ctx := context.Background()

	_, err := engine.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = engine.AddDocument(ctx, "claim", "duplicate", day(20), nil)
	assert.ErrorIs(t, err, ErrDuplicateDocument)

	_, err = engine.AddRelationship(ctx, "claim", "ghost", types.RelationCausal, 1, nil)
	assert.ErrorIs(t, err, ErrUnknownDocument)

	_, err = engine.AddDocumentString(ctx, "bad-ts", "content", "not a timestamp", nil)
	assert.ErrorIs(t, err, ErrIncomparableTimestamp)
}

func TestEngineAddDocumentString(t *testing.T) {
	engine := New(nil, nil)
	ctx := context.Background()

	doc, err := engine.AddDocumentString(ctx, "d1", "event logged", "2024-03-01T12:30:00+01:00", nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T11:30:00Z", doc.Timestamp.String())
}
