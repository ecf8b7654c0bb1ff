// Package store implements the in-memory temporal graph: documents, typed
// relationships, forward and reverse adjacency, and a coarse time-bucketed
// layer index used to skip irrelevant spans during range queries.
package store

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/soundprediction/tempograph/pkg/temporal"
	"github.com/soundprediction/tempograph/pkg/types"
)

// Store owns the document and relationship sets. A single mutex gives
// writers exclusive access and readers shared access; individual operations
// are atomic with respect to each other.
type Store struct {
	mu     sync.RWMutex
	logger *slog.Logger

	layerDays int

	documents map[string]*types.Document
	forward   map[string][]*types.Relationship
	reverse   map[string][]*types.Relationship

	// layers buckets document ids by temporal.Time.LayerIndex. Each
	// document appears in exactly one bucket, assigned at insert.
	layers map[int][]string

	// ordered holds document ids sorted by (timestamp, id). Inserts only
	// append and set orderedDirty; readers that need the order sort lazily,
	// keeping AddDocument O(1) amortized.
	ordered      []string
	orderedDirty bool

	relationshipCount int

	// corpusVersion increments on every document mutation. The similarity
	// engine compares it to decide when cached vectors are stale.
	corpusVersion atomic.Uint64

	traversals atomic.Int64
}

// New creates an empty store. layerDays controls the width of the layer
// index buckets; zero or negative selects the default weekly buckets.
func New(layerDays int, logger *slog.Logger) *Store {
	if layerDays <= 0 {
		layerDays = temporal.DefaultLayerDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger:    logger,
		layerDays: layerDays,
		documents: make(map[string]*types.Document),
		forward:   make(map[string][]*types.Relationship),
		reverse:   make(map[string][]*types.Relationship),
		layers:    make(map[int][]string),
	}
}

// LayerDays returns the configured layer bucket width in days.
func (s *Store) LayerDays() int {
	return s.layerDays
}

// AddDocument inserts a document with a canonical timestamp. The id must be
// unique; a collision returns ErrDuplicateDocument and leaves the store
// unchanged.
func (s *Store) AddDocument(id, content string, ts temporal.Time, metadata map[string]interface{}) (*types.Document, error) {
	if ts.IsZero() {
		return nil, temporal.ErrIncomparableTimestamp
	}

	doc := &types.Document{
		ID:        id,
		Content:   content,
		Timestamp: ts,
		Metadata:  metadata,
		LayerID:   ts.LayerID(s.layerDays),
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.documents[id]; exists {
		return nil, types.ErrDuplicateDocument
	}

	s.documents[id] = doc

	layer := ts.LayerIndex(s.layerDays)
	s.layers[layer] = append(s.layers[layer], id)

	s.ordered = append(s.ordered, id)
	s.orderedDirty = true

	s.corpusVersion.Add(1)

	s.logger.Debug("document added", "id", id, "timestamp", ts.String(), "layer", doc.LayerID)
	return doc, nil
}

// AddRelationship creates a directed, typed edge. Both endpoints must exist.
// Ordered kinds (sequential, causal) whose source is after their target in
// time are still created, but flagged with the temporal order warning.
func (s *Store) AddRelationship(from, to string, kind types.RelationKind, weight float64, metadata map[string]interface{}) (*types.Relationship, error) {
	if _, err := types.ParseRelationKind(string(kind)); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fromDoc, ok := s.documents[from]
	if !ok {
		return nil, types.ErrUnknownDocument
	}
	toDoc, ok := s.documents[to]
	if !ok {
		return nil, types.ErrUnknownDocument
	}

	rel := &types.Relationship{
		From:     from,
		To:       to,
		Kind:     kind,
		Weight:   weight,
		Metadata: metadata,
	}

	if kind.IsOrdered() && fromDoc.Timestamp.After(toDoc.Timestamp) {
		rel.Warning = types.TemporalOrderWarning
		s.logger.Warn("ordered edge runs backward in time",
			"from", from, "to", to, "kind", string(kind))
	}

	s.forward[from] = append(s.forward[from], rel)
	s.reverse[to] = append(s.reverse[to], rel)
	s.relationshipCount++

	return rel, nil
}

// GetDocument returns the document for id, or ErrNotFound.
func (s *Store) GetDocument(id string) (*types.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return doc, nil
}

// HasDocument reports whether id exists.
func (s *Store) HasDocument(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.documents[id]
	return ok
}

// DocumentsInRange returns all documents with start <= timestamp <= end in
// ascending timestamp order (ties by id). The layer index is consulted first
// so buckets entirely outside the range are never scanned; the result is
// identical to a linear scan over all documents.
func (s *Store) DocumentsInRange(start, end temporal.Time) ([]*types.Document, error) {
	if start.IsZero() || end.IsZero() {
		return nil, temporal.ErrIncomparableTimestamp
	}
	if start.After(end) {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	first := start.LayerIndex(s.layerDays)
	last := end.LayerIndex(s.layerDays)

	var out []*types.Document
	for layer := first; layer <= last; layer++ {
		ids, ok := s.layers[layer]
		if !ok {
			continue
		}
		for _, id := range ids {
			doc := s.documents[id]
			if doc.Timestamp.Before(start) || doc.Timestamp.After(end) {
				continue
			}
			out = append(out, doc)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Successors returns the direct forward neighbors of id via outgoing edges.
func (s *Store) Successors(id string) ([]*types.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.documents[id]; !ok {
		return nil, types.ErrNotFound
	}
	out := make([]*types.Relationship, len(s.forward[id]))
	copy(out, s.forward[id])
	return out, nil
}

// Predecessors returns the direct backward neighbors of id via incoming edges.
func (s *Store) Predecessors(id string) ([]*types.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.documents[id]; !ok {
		return nil, types.ErrNotFound
	}
	out := make([]*types.Relationship, len(s.reverse[id]))
	copy(out, s.reverse[id])
	return out, nil
}

// HasEdge reports whether at least one edge from -> to exists.
func (s *Store) HasEdge(from, to string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rel := range s.forward[from] {
		if rel.To == to {
			return true
		}
	}
	return false
}

// ensureOrdered sorts the id index if inserts dirtied it since the last
// ordered read.
func (s *Store) ensureOrdered() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.orderedDirty {
		return
	}
	sort.Slice(s.ordered, func(i, j int) bool {
		a, b := s.documents[s.ordered[i]], s.documents[s.ordered[j]]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.ID < b.ID
	})
	s.orderedDirty = false
}

// AllDocuments returns every document in ascending timestamp order.
func (s *Store) AllDocuments() []*types.Document {
	s.ensureOrdered()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Document, 0, len(s.ordered))
	for _, id := range s.ordered {
		out = append(out, s.documents[id])
	}
	return out
}

// CorpusVersion returns the current document mutation counter.
func (s *Store) CorpusVersion() uint64 {
	return s.corpusVersion.Load()
}

// RecordTraversal bumps the diagnostic traversal counter.
func (s *Store) RecordTraversal() {
	s.traversals.Add(1)
}

// Statistics returns a read-only snapshot of store counters.
func (s *Store) Statistics() types.Statistics {
	s.ensureOrdered()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.Statistics{
		TotalDocuments:      len(s.documents),
		TotalRelationships:  s.relationshipCount,
		TotalLayers:         len(s.layers),
		TraversalsPerformed: s.traversals.Load(),
	}
	if len(s.documents) > 0 {
		stats.AvgEdgesPerDocument = float64(s.relationshipCount) / float64(len(s.documents))
	}
	if len(s.layers) > 0 {
		stats.AvgLayerSize = float64(len(s.documents)) / float64(len(s.layers))
	}
	if len(s.ordered) > 0 {
		first := s.documents[s.ordered[0]].Timestamp
		last := s.documents[s.ordered[len(s.ordered)-1]].Timestamp
		stats.TimeSpanDays = int(last.Sub(first).Hours() / 24)
	}
	return stats
}

// Export dumps the full node and edge sets for diagnostics. Documents come
// out in ascending timestamp order; edges in source-document order. The
// export has no side effects on the store.
func (s *Store) Export() *types.GraphExport {
	stats := s.Statistics()
	s.ensureOrdered()

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*types.Document, 0, len(s.ordered))
	rels := make([]*types.Relationship, 0, s.relationshipCount)
	for _, id := range s.ordered {
		docs = append(docs, s.documents[id])
		rels = append(rels, s.forward[id]...)
	}

	return &types.GraphExport{
		Documents:     docs,
		Relationships: rels,
		Statistics:    stats,
	}
}
