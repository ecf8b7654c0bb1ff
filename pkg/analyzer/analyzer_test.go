package analyzer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/tempograph/pkg/store"
	"github.com/soundprediction/tempograph/pkg/temporal"
	"github.com/soundprediction/tempograph/pkg/traversal"
	"github.com/soundprediction/tempograph/pkg/types"
)

func ts(day int) temporal.Time {
	return temporal.Canonicalize(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, day))
}

func newAnalyzer(s *store.Store, cfg Config) *Analyzer {
	return New(s, traversal.New(s, nil), cfg, nil)
}

// seedCorpus adds n documents spaced one day apart with a causal edge
// between consecutive documents, returning the first and last ids.
func seedCorpus(t *testing.T, s *store.Store, n int) (string, string) {
	t.Helper()
	prev := ""
	first := ""
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("doc-%03d", i)
		content := fmt.Sprintf("Acme incident report %d filed by Baker", i)
		_, err := s.AddDocument(id, content, ts(i), nil)
		require.NoError(t, err)
		if prev != "" {
			_, err = s.AddRelationship(prev, id, types.RelationCausal, 1, nil)
			require.NoError(t, err)
		} else {
			first = id
		}
		prev = id
	}
	return first, prev
}

func TestAnalyzeChainWindows(t *testing.T) {
	s := store.New(0, nil)
	first, last := seedCorpus(t, s, 30)

	cfg := DefaultConfig()
	cfg.ChunkSizeDays = 10
	a := newAnalyzer(s, cfg)

	res, err := a.AnalyzeChain(context.Background(), first, last, 0)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.False(t, res.Cancelled)
	// 29 days of span in 10-day windows.
	require.Len(t, res.Chunks, 3)

	total := 0
	for _, chunk := range res.Chunks {
		total += chunk.DocumentCount
	}
	assert.Equal(t, 30, total, "every document counted exactly once")

	assert.Equal(t, 3, res.Performance.WindowCount)
	assert.Equal(t, 30, res.Performance.DocumentCount)
	assert.Greater(t, res.Performance.EstimatedFullCtx, time.Duration(0))
	assert.NotEmpty(t, res.Synthesis)
}

func TestAnalyzeChainSingleWindow(t *testing.T) {
	s := store.New(0, nil)
	first, last := seedCorpus(t, s, 5)

	a := newAnalyzer(s, DefaultConfig())
	res, err := a.AnalyzeChain(context.Background(), first, last, 0)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 1)
	assert.Equal(t, 5, res.Chunks[0].DocumentCount)
}

func TestAnalyzeChainInvalidRange(t *testing.T) {
	s := store.New(0, nil)
	first, last := seedCorpus(t, s, 3)

	a := newAnalyzer(s, DefaultConfig())
	_, err := a.AnalyzeChain(context.Background(), last, first, 0)
	assert.ErrorIs(t, err, types.ErrInvalidRange)

	_, err = a.AnalyzeChain(context.Background(), "missing", first, 0)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestAnalyzeChainMaxDaysTruncates(t *testing.T) {
	s := store.New(0, nil)
	first, last := seedCorpus(t, s, 40)

	cfg := DefaultConfig()
	cfg.ChunkSizeDays = 10
	a := newAnalyzer(s, cfg)

	res, err := a.AnalyzeChain(context.Background(), first, last, 20)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 2)

	total := 0
	for _, chunk := range res.Chunks {
		total += chunk.DocumentCount
	}
	// Days 0..20 inclusive.
	assert.Equal(t, 21, total)
}

func TestAnalyzeChainCancellation(t *testing.T) {
	s := store.New(0, nil)
	first, last := seedCorpus(t, s, 30)

	cfg := DefaultConfig()
	cfg.ChunkSizeDays = 10
	a := newAnalyzer(s, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := a.AnalyzeChain(ctx, first, last, 0)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Empty(t, res.Chunks)
}

func TestWindowDroppedWhenCancelledMidScoring(t *testing.T) {
	s := store.New(0, nil)
	first, last := seedCorpus(t, s, 10)

	a := newAnalyzer(s, DefaultConfig())

	startDoc, err := s.GetDocument(first)
	require.NoError(t, err)
	endDoc, err := s.GetDocument(last)
	require.NoError(t, err)
	w := buildWindows(startDoc.Timestamp, endDoc.Timestamp, 90)[0]

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A window whose scoring ran against a cancelled context must not be
	// emitted with zeroed importance scores.
	chunk, _, err := a.analyzeWindow(ctx, 0, w, types.Carryover{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, chunk)
}

func TestCarryoverBounded(t *testing.T) {
	cfg := DefaultConfig()

	for _, corpusSize := range []int{50, 500, 5000} {
		t.Run(fmt.Sprintf("%d documents", corpusSize), func(t *testing.T) {
			s := store.New(0, nil)
			first, last := seedCorpus(t, s, corpusSize)

			windowCfg := cfg
			windowCfg.ChunkSizeDays = 30
			a := newAnalyzer(s, windowCfg)

			// Drive the real window loop and inspect every intermediate
			// carryover by re-running extraction per chunk.
			res, err := a.AnalyzeChain(context.Background(), first, last, 0)
			require.NoError(t, err)

			carry := types.Carryover{}
			startDoc, err := s.GetDocument(first)
			require.NoError(t, err)
			endDoc, err := s.GetDocument(last)
			require.NoError(t, err)

			for i, w := range buildWindows(startDoc.Timestamp, endDoc.Timestamp, windowCfg.ChunkSizeDays) {
				_, next, err := a.analyzeWindow(context.Background(), i, w, carry)
				require.NoError(t, err)

				assert.LessOrEqual(t, len(next.KeyEvents), windowCfg.MaxCarryoverEvents)
				assert.LessOrEqual(t, len(next.ActiveEntities), windowCfg.MaxCarryoverEntities)
				assert.LessOrEqual(t, len(next.OpenChains), windowCfg.MaxCarryoverChains)
				carry = next
			}

			assert.Equal(t, corpusSize, res.Performance.DocumentCount)
			assert.LessOrEqual(t, len(res.FinalCarryover.KeyEvents), windowCfg.MaxCarryoverEvents)
			assert.LessOrEqual(t, len(res.FinalCarryover.ActiveEntities), windowCfg.MaxCarryoverEntities)
			assert.LessOrEqual(t, len(res.FinalCarryover.OpenChains), windowCfg.MaxCarryoverChains)
		})
	}
}

func TestChainContinuesAcrossBoundary(t *testing.T) {
	s := store.New(0, nil)
	first, last := seedCorpus(t, s, 20)

	cfg := DefaultConfig()
	cfg.ChunkSizeDays = 10
	a := newAnalyzer(s, cfg)

	res, err := a.AnalyzeChain(context.Background(), first, last, 0)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 2)

	// The causal run crosses the first boundary, so window 0 must flag it
	// as an open question.
	assert.NotEmpty(t, res.Chunks[0].OpenQuestions)
	require.NotEmpty(t, res.Chunks[0].Chains)
	assert.False(t, res.Chunks[0].Chains[0].Complete)
}

func TestBuildWindows(t *testing.T) {
	start := ts(0)
	end := ts(25)
	windows := buildWindows(start, end, 10)

	require.Len(t, windows, 3)
	assert.True(t, windows[0].start.Equal(start))
	assert.True(t, windows[2].end.Equal(end))
	assert.True(t, windows[2].final)
	for i := 1; i < len(windows); i++ {
		assert.True(t, windows[i].start.Equal(windows[i-1].end), "windows must tile without gaps")
	}
}

func TestScoreImportanceComponents(t *testing.T) {
	s := store.New(0, nil)
	_, err := s.AddDocument("hub", "central event", ts(5), nil)
	require.NoError(t, err)
	_, err = s.AddDocument("leaf", "minor event", ts(1), nil)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("spoke-%d", i)
		_, err = s.AddDocument(id, "spoke event", ts(2+i), nil)
		require.NoError(t, err)
		_, err = s.AddRelationship("hub", id, types.RelationCausal, 1, nil)
		require.NoError(t, err)
	}

	a := newAnalyzer(s, DefaultConfig())
	w := window{start: ts(0), end: ts(10), final: true}

	hub, err := s.GetDocument("hub")
	require.NoError(t, err)
	leaf, err := s.GetDocument("leaf")
	require.NoError(t, err)

	hubScore := a.scoreImportance(hub, w, types.Carryover{})
	leafScore := a.scoreImportance(leaf, w, types.Carryover{})
	assert.Greater(t, hubScore, leafScore)

	// Carried attention lifts a document's score.
	attended := a.scoreImportance(leaf, w, types.Carryover{
		AttentionScores: map[string]float64{"leaf": 1.0},
	})
	assert.Greater(t, attended, leafScore)
}

func TestExtractEntityNames(t *testing.T) {
	names := extractEntityNames("Acme filed against Baker in the county court.")
	assert.Equal(t, []string{"Acme", "Baker"}, names)

	assert.Empty(t, extractEntityNames("all lowercase words here"))
	assert.Empty(t, extractEntityNames(""))
}

func TestTemporalSummary(t *testing.T) {
	s := store.New(0, nil)
	first, last := seedCorpus(t, s, 30)

	a := newAnalyzer(s, DefaultConfig())
	res, err := a.TemporalSummary(context.Background(), first, last, 3)
	require.NoError(t, err)

	require.Len(t, res.Windows, 3)
	total := 0
	for _, w := range res.Windows {
		total += w.DocumentCount
		assert.NotEmpty(t, w.Summary)
	}
	assert.Equal(t, 30, total, "windows must cover the span without double counting")

	assert.True(t, res.Windows[0].WindowStart.Equal(ts(0)))
	assert.True(t, res.Windows[2].WindowEnd.Equal(ts(29)))
}

func TestTemporalSummaryValidation(t *testing.T) {
	s := store.New(0, nil)
	first, last := seedCorpus(t, s, 5)
	a := newAnalyzer(s, DefaultConfig())

	_, err := a.TemporalSummary(context.Background(), first, last, 0)
	assert.ErrorIs(t, err, types.ErrInvalidLimit)

	_, err = a.TemporalSummary(context.Background(), last, first, 2)
	assert.ErrorIs(t, err, types.ErrInvalidRange)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, 90, cfg.ChunkSizeDays)
	assert.Equal(t, 10, cfg.MaxCarryoverEvents)
	assert.Equal(t, 15, cfg.MaxCarryoverEntities)
	assert.Equal(t, 20, cfg.MaxCarryoverChains)
	assert.InDelta(t, 0.6, cfg.ImportanceThreshold, 1e-9)
	assert.InDelta(t, 0.4, cfg.Weights.Connectivity, 1e-9)
}
