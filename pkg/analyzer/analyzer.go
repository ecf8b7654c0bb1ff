// Package analyzer implements bounded-memory chunked analysis over the
// temporal graph. A long span is cut into fixed-size windows which are
// analyzed in sequence; the only state that crosses a window boundary is a
// hard-capped carryover of key events, active entities and open causal
// chains, so memory stays constant no matter how many documents the span
// holds.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soundprediction/tempograph/pkg/store"
	"github.com/soundprediction/tempograph/pkg/temporal"
	"github.com/soundprediction/tempograph/pkg/traversal"
	"github.com/soundprediction/tempograph/pkg/types"
	"github.com/soundprediction/tempograph/pkg/utils"
)

// Cost model for the unwindowed baseline estimate: linear per-document work
// plus quadratic attention over the whole span, with a fixed per-document
// overhead dominating small corpora.
const (
	baseTimePerDoc      = 100 * time.Microsecond
	attentionCostPerSq  = 10 * time.Microsecond
	smallCorpusOverhead = 10 * time.Millisecond
	smallCorpusCutoff   = 50
)

// eventDescriptionLimit truncates carried event descriptions so carryover
// payloads stay small.
const eventDescriptionLimit = 100

// recentAttentionDocs is how many trailing window documents receive the
// recency attention score in the next window.
const recentAttentionDocs = 3

const (
	criticalAttention = 1.0
	recentAttention   = 0.8
)

// Analyzer runs chunked, carryover-bounded analyses against a store.
type Analyzer struct {
	store     *store.Store
	traversal *traversal.Engine
	logger    *slog.Logger
	cfg       Config
}

// New creates an analyzer. Zero fields in cfg fall back to defaults.
func New(s *store.Store, t *traversal.Engine, cfg Config, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		store:     s,
		traversal: t,
		logger:    logger,
		cfg:       cfg.withDefaults(),
	}
}

// Config returns the effective analyzer configuration.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// AnalyzeChain analyzes the span between two documents in fixed-size
// windows. Each window sees only its own documents plus the carryover from
// the previous window. maxDays, when positive, truncates the analyzed span.
//
// Cancellation is honored between windows: the windows finished so far are
// returned with the Cancelled marker set.
func (a *Analyzer) AnalyzeChain(ctx context.Context, startID, endID string, maxDays int) (*types.AnalysisResult, error) {
	startDoc, err := a.store.GetDocument(startID)
	if err != nil {
		return nil, err
	}
	endDoc, err := a.store.GetDocument(endID)
	if err != nil {
		return nil, err
	}
	if endDoc.Timestamp.Before(startDoc.Timestamp) {
		return nil, types.ErrInvalidRange
	}

	spanStart := startDoc.Timestamp
	spanEnd := endDoc.Timestamp
	if maxDays > 0 {
		if capped := spanStart.AddDays(maxDays); spanEnd.After(capped) {
			spanEnd = capped
		}
	}

	began := time.Now()
	result := &types.AnalysisResult{
		RunID:   uuid.NewString(),
		StartID: startID,
		EndID:   endID,
	}

	carryover := types.Carryover{}
	totalDocs := 0

	windows := buildWindows(spanStart, spanEnd, a.cfg.ChunkSizeDays)
	for i, w := range windows {
		select {
		case <-ctx.Done():
			result.Cancelled = true
		default:
		}
		if result.Cancelled {
			a.logger.Info("analysis cancelled", "run_id", result.RunID, "completed_windows", i)
			break
		}

		chunk, next, err := a.analyzeWindow(ctx, i, w, carryover)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			result.Cancelled = true
			a.logger.Info("analysis cancelled mid-window", "run_id", result.RunID, "completed_windows", i)
			break
		}
		if err != nil {
			return nil, err
		}
		result.Chunks = append(result.Chunks, *chunk)
		totalDocs += chunk.DocumentCount
		carryover = next
	}

	result.KeyEvents = synthesizeKeyEvents(result.Chunks)
	result.Synthesis = synthesize(result.Chunks, result.KeyEvents, totalDocs)
	result.FinalCarryover = carryover

	elapsed := time.Since(began)
	estimated := estimateFullContextCost(totalDocs)
	result.Performance = types.AnalysisPerformance{
		Elapsed:          elapsed,
		EstimatedFullCtx: estimated,
		WindowCount:      len(result.Chunks),
		DocumentCount:    totalDocs,
	}
	if elapsed > 0 {
		result.Performance.Speedup = float64(estimated) / float64(elapsed)
	}

	a.logger.Info("chain analysis finished",
		"run_id", result.RunID,
		"windows", len(result.Chunks),
		"documents", totalDocs,
		"elapsed", elapsed,
		"cancelled", result.Cancelled)
	return result, nil
}

// window is a half-open [start, end) slice of the span; the final window
// closes at the span end.
type window struct {
	start temporal.Time
	end   temporal.Time
	final bool
}

func buildWindows(spanStart, spanEnd temporal.Time, chunkDays int) []window {
	var out []window
	cursor := spanStart
	for {
		next := cursor.AddDays(chunkDays)
		if !next.Before(spanEnd) {
			out = append(out, window{start: cursor, end: spanEnd, final: true})
			return out
		}
		out = append(out, window{start: cursor, end: next})
		cursor = next
	}
}

// analyzeWindow runs one window against the carryover and produces the next
// carryover. The document set is the window's range plus the carried key
// event documents, nothing else.
func (a *Analyzer) analyzeWindow(ctx context.Context, index int, w window, carryover types.Carryover) (*types.ChunkResult, types.Carryover, error) {
	began := time.Now()

	queryEnd := w.end
	if !w.final {
		// Documents exactly on the boundary belong to the next window.
		queryEnd = w.end.Add(-time.Nanosecond)
	}
	docs, err := a.store.DocumentsInRange(w.start, queryEnd)
	if err != nil {
		return nil, types.Carryover{}, err
	}

	inWindow := make(map[string]bool, len(docs))
	for _, doc := range docs {
		inWindow[doc.ID] = true
	}

	// Carried key events join the working set so chains can continue
	// across the boundary.
	working := append([]*types.Document(nil), docs...)
	for _, ev := range carryover.KeyEvents {
		if inWindow[ev.DocumentID] {
			continue
		}
		doc, err := a.store.GetDocument(ev.DocumentID)
		if err != nil {
			continue
		}
		working = append(working, doc)
	}

	scored := a.scoreDocuments(ctx, working, w, carryover)
	// Workers stop scoring the moment the context is cancelled, leaving
	// zeroed scores behind. Drop the tainted window instead of emitting a
	// chunk with silently degraded key events.
	if err := ctx.Err(); err != nil {
		return nil, carryover, err
	}

	var keyEvents []types.Event
	for _, sd := range scored {
		if sd.Score < a.cfg.ImportanceThreshold {
			continue
		}
		doc := sd.Item
		keyEvents = append(keyEvents, types.Event{
			DocumentID:  doc.ID,
			Timestamp:   doc.Timestamp,
			Description: truncate(doc.Content, eventDescriptionLimit),
			Importance:  sd.Score,
		})
	}

	chains, openQuestions := a.extractChains(index, working, carryover.OpenChains)

	chunk := &types.ChunkResult{
		Index:         index,
		WindowStart:   w.start,
		WindowEnd:     w.end,
		DocumentCount: len(docs),
		KeyEvents:     keyEvents,
		Chains:        chains,
		OpenQuestions: openQuestions,
		Summary: fmt.Sprintf("window %d (%s to %s): %d documents, %d key events, %d chains",
			index, w.start, w.end, len(docs), len(keyEvents), len(chains)),
		Elapsed: time.Since(began),
	}

	next := a.extractCarryover(carryover, docs, keyEvents, chains, working)
	// Questions track open chains, so they share the chain cap.
	if len(openQuestions) > a.cfg.MaxCarryoverChains {
		openQuestions = openQuestions[:a.cfg.MaxCarryoverChains]
	}
	next.OpenQuestions = openQuestions
	return chunk, next, nil
}

// scoreDocuments computes importance for every working document in parallel
// and returns them sorted by score descending, ties by id, so the merge is
// deterministic regardless of worker scheduling.
func (a *Analyzer) scoreDocuments(ctx context.Context, working []*types.Document, w window, carryover types.Carryover) []utils.ScoredItem[*types.Document] {
	pool := utils.NewWorkerPool(a.cfg.Workers, func(ctx context.Context, doc *types.Document) (float64, error) {
		return a.scoreImportance(doc, w, carryover), nil
	})
	scores, _ := pool.ProcessItems(ctx, working)

	scored := make([]utils.ScoredItem[*types.Document], len(working))
	for i, doc := range working {
		scored[i] = utils.ScoredItem[*types.Document]{Item: doc, Score: scores[i]}
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})
	return scored
}

// scoreImportance blends connectivity, carried attention and in-window
// recency per the configured weights. Each component lies in [0, 1].
func (a *Analyzer) scoreImportance(doc *types.Document, w window, carryover types.Carryover) float64 {
	degree := 0
	if succ, err := a.store.Successors(doc.ID); err == nil {
		degree += len(succ)
	}
	if pred, err := a.store.Predecessors(doc.ID); err == nil {
		degree += len(pred)
	}
	connectivity := float64(degree) / 4
	if connectivity > 1 {
		connectivity = 1
	}

	attention := carryover.AttentionScores[doc.ID]

	recency := 0.0
	if span := w.end.Sub(w.start); span > 0 {
		recency = float64(doc.Timestamp.Sub(w.start)) / float64(span)
		if recency < 0 {
			recency = 0
		}
		if recency > 1 {
			recency = 1
		}
	}

	weights := a.cfg.Weights
	return weights.Connectivity*connectivity + weights.Attention*attention + weights.Recency*recency
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func synthesizeKeyEvents(chunks []types.ChunkResult) []types.Event {
	best := make(map[string]types.Event)
	for _, chunk := range chunks {
		for _, ev := range chunk.KeyEvents {
			if prev, ok := best[ev.DocumentID]; !ok || ev.Importance > prev.Importance {
				best[ev.DocumentID] = ev
			}
		}
	}
	out := make([]types.Event, 0, len(best))
	for _, ev := range best {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].DocumentID < out[j].DocumentID
	})
	return out
}

func synthesize(chunks []types.ChunkResult, keyEvents []types.Event, totalDocs int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "analyzed %d documents across %d windows; %d key events\n",
		totalDocs, len(chunks), len(keyEvents))
	for _, chunk := range chunks {
		sb.WriteString(chunk.Summary)
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

func estimateFullContextCost(docs int) time.Duration {
	cost := time.Duration(docs) * baseTimePerDoc
	cost += time.Duration(docs*docs) * attentionCostPerSq
	if docs < smallCorpusCutoff {
		cost += time.Duration(docs) * smallCorpusOverhead
	}
	return cost
}

// TemporalSummary summarizes the span between two documents in numChunks
// equal windows analyzed independently. No state crosses windows and no
// document is counted twice; together the windows cover the whole span.
func (a *Analyzer) TemporalSummary(ctx context.Context, startID, endID string, numChunks int) (*types.SummaryResult, error) {
	startDoc, err := a.store.GetDocument(startID)
	if err != nil {
		return nil, err
	}
	endDoc, err := a.store.GetDocument(endID)
	if err != nil {
		return nil, err
	}
	if endDoc.Timestamp.Before(startDoc.Timestamp) {
		return nil, types.ErrInvalidRange
	}
	if numChunks <= 0 {
		return nil, types.ErrInvalidLimit
	}

	result := &types.SummaryResult{
		RunID:   uuid.NewString(),
		StartID: startID,
		EndID:   endID,
	}

	span := endDoc.Timestamp.Sub(startDoc.Timestamp)
	step := span / time.Duration(numChunks)

	for i := 0; i < numChunks; i++ {
		select {
		case <-ctx.Done():
			result.Cancelled = true
		default:
		}
		if result.Cancelled {
			break
		}

		ws := startDoc.Timestamp.Add(time.Duration(i) * step)
		we := startDoc.Timestamp.Add(time.Duration(i+1) * step)
		final := i == numChunks-1
		if final {
			we = endDoc.Timestamp
		}

		queryEnd := we
		if !final {
			queryEnd = we.Add(-time.Nanosecond)
		}
		docs, err := a.store.DocumentsInRange(ws, queryEnd)
		if err != nil {
			return nil, err
		}

		scored := a.scoreDocuments(ctx, docs, window{start: ws, end: we, final: final}, types.Carryover{})
		var top []string
		for _, sd := range scored {
			top = append(top, sd.Item.ID)
			if len(top) == recentAttentionDocs {
				break
			}
		}

		result.Windows = append(result.Windows, types.WindowSummary{
			Index:         i,
			WindowStart:   ws,
			WindowEnd:     we,
			DocumentCount: len(docs),
			TopDocuments:  top,
			Summary:       fmt.Sprintf("window %d (%s to %s): %d documents", i, ws, we, len(docs)),
		})
	}

	return result, nil
}
