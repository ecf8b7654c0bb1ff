// Package similarity scores document relatedness with TF-IDF term vectors
// and cosine similarity, and ranks temporal neighbors into attention lists.
package similarity

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/soundprediction/tempograph/pkg/store"
	"github.com/soundprediction/tempograph/pkg/traversal"
	"github.com/soundprediction/tempograph/pkg/types"
	"github.com/soundprediction/tempograph/pkg/utils"
)

// minTokenLength drops short function words the stopword list misses.
const minTokenLength = 3

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"was": true, "were": true, "been": true, "have": true, "has": true,
	"did": true, "does": true, "will": true, "would": true, "could": true,
	"should": true, "may": true, "might": true, "must": true, "shall": true,
	"this": true, "that": true, "these": true, "those": true, "its": true,
	"with": true, "from": true, "into": true, "onto": true, "over": true,
	"under": true, "about": true, "after": true, "before": true,
	"between": true, "during": true, "they": true, "them": true,
	"their": true, "there": true, "then": true, "than": true, "when": true,
	"where": true, "which": true, "while": true, "who": true, "whom": true,
	"what": true, "why": true, "how": true,
}

// pairKey identifies an unordered document pair. Callers must order the two
// ids before building the key.
type pairKey struct {
	a, b string
}

func makePairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// Engine computes similarities against the current corpus. Term vectors and
// pairwise results are cached and invalidated together whenever the store's
// corpus version moves, so stale IDF weights are never served.
type Engine struct {
	store     *store.Store
	traversal *traversal.Engine
	logger    *slog.Logger

	mu        sync.Mutex
	version   uint64
	vectors   map[string]map[string]float64
	pairCache map[pairKey]float64
}

// New creates a similarity engine over a store, using the traversal engine
// to gather attention candidates.
func New(s *store.Store, t *traversal.Engine, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:     s,
		traversal: t,
		logger:    logger,
		vectors:   make(map[string]map[string]float64),
		pairCache: make(map[pairKey]float64),
	}
}

// Tokenize lowercases content and splits it on non-alphanumeric runs,
// dropping stopwords and tokens shorter than three characters.
func Tokenize(content string) []string {
	fields := strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) < minTokenLength || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Similarity returns the cosine similarity of two documents' TF-IDF vectors,
// in [0, 1]. The result is symmetric and memoized per unordered pair; the
// memo survives until the corpus changes. A document compared with itself
// scores exactly 1.
func (e *Engine) Similarity(a, b string) (float64, error) {
	if _, err := e.store.GetDocument(a); err != nil {
		return 0, err
	}
	if _, err := e.store.GetDocument(b); err != nil {
		return 0, err
	}
	if a == b {
		return 1, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshLocked()

	key := makePairKey(a, b)
	if sim, ok := e.pairCache[key]; ok {
		return sim, nil
	}

	sim := utils.SparseCosine(e.vectors[a], e.vectors[b])
	e.pairCache[key] = sim
	return sim, nil
}

// refreshLocked rebuilds every term vector when the corpus version moved
// since the last build. The pair cache is dropped in the same step so it can
// never outlive the vectors it was computed from.
func (e *Engine) refreshLocked() {
	current := e.store.CorpusVersion()
	if current == e.version {
		return
	}

	docs := e.store.AllDocuments()

	// Document frequency per term.
	df := make(map[string]int)
	tokenized := make(map[string][]string, len(docs))
	for _, doc := range docs {
		tokens := Tokenize(doc.Content)
		tokenized[doc.ID] = tokens
		seen := make(map[string]bool, len(tokens))
		for _, tok := range tokens {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	// Smoothed IDF keeps every weight positive, so cosine stays in [0, 1].
	n := float64(len(docs))
	vectors := make(map[string]map[string]float64, len(docs))
	for _, doc := range docs {
		tokens := tokenized[doc.ID]
		if len(tokens) == 0 {
			vectors[doc.ID] = nil
			continue
		}
		tf := make(map[string]float64, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		vec := make(map[string]float64, len(tf))
		for tok, count := range tf {
			idf := math.Log((1+n)/(1+float64(df[tok]))) + 1
			vec[tok] = (count / float64(len(tokens))) * idf
		}
		vectors[doc.ID] = vec
	}

	e.vectors = vectors
	e.pairCache = make(map[pairKey]float64)
	e.version = current
	e.logger.Debug("term vectors rebuilt", "documents", len(docs), "version", current)
}

// ComputeAttention gathers the temporal neighborhood of a document in both
// directions and ranks each side by content similarity, most similar first.
// Equal scores are broken by temporal proximity to the source, then by id.
// maxPerDirection truncates each ranked list; non-positive keeps everything.
func (e *Engine) ComputeAttention(ctx context.Context, id string, timeWindowDays, maxHops, maxPerDirection int) (*types.AttentionResult, error) {
	source, err := e.store.GetDocument(id)
	if err != nil {
		return nil, err
	}

	forward, err := e.traversal.ForwardReachable(ctx, id, timeWindowDays, maxHops, 0)
	if err != nil {
		return nil, err
	}
	backward, err := e.traversal.BackwardReachable(ctx, id, timeWindowDays, maxHops, 0)
	if err != nil {
		return nil, err
	}

	rank := func(docs []*types.Document) ([]types.ScoredDocument, float64, error) {
		scored := make([]types.ScoredDocument, 0, len(docs))
		var total float64
		for _, doc := range docs {
			sim, err := e.Similarity(id, doc.ID)
			if err != nil {
				return nil, 0, err
			}
			scored = append(scored, types.ScoredDocument{ID: doc.ID, Score: sim})
			total += sim
		}
		byID := make(map[string]*types.Document, len(docs))
		for _, doc := range docs {
			byID[doc.ID] = doc
		}
		sort.Slice(scored, func(i, j int) bool {
			if scored[i].Score != scored[j].Score {
				return scored[i].Score > scored[j].Score
			}
			di := byID[scored[i].ID].Timestamp.Sub(source.Timestamp).Abs()
			dj := byID[scored[j].ID].Timestamp.Sub(source.Timestamp).Abs()
			if di != dj {
				return di < dj
			}
			return scored[i].ID < scored[j].ID
		})
		if maxPerDirection > 0 && len(scored) > maxPerDirection {
			scored = scored[:maxPerDirection]
		}
		return scored, total, nil
	}

	forwardScored, forwardTotal, err := rank(forward.Documents)
	if err != nil {
		return nil, err
	}
	backwardScored, backwardTotal, err := rank(backward.Documents)
	if err != nil {
		return nil, err
	}

	summary := types.AttentionSummary{
		TotalForward:  forwardTotal,
		TotalBackward: backwardTotal,
	}
	if forwardTotal+backwardTotal > 0 {
		summary.Balance = (forwardTotal - backwardTotal) / (forwardTotal + backwardTotal)
	}

	return &types.AttentionResult{
		DocumentID: id,
		Forward:    forwardScored,
		Backward:   backwardScored,
		Summary:    summary,
		Cancelled:  forward.Cancelled || backward.Cancelled,
	}, nil
}
