// Package traversal implements bounded BFS over the temporal graph: forward
// and backward reachability within a time window and shortest hop-count
// paths.
package traversal

import (
	"context"
	"log/slog"
	"sort"

	"github.com/soundprediction/tempograph/pkg/store"
	"github.com/soundprediction/tempograph/pkg/temporal"
	"github.com/soundprediction/tempograph/pkg/types"
)

// Defaults applied when a caller passes a non-positive bound.
const (
	DefaultTimeWindowDays = 30
	DefaultMaxHops        = 10
)

// Result is the outcome of a reachability query. Cancelled marks a result
// that was cut short by context cancellation; the documents gathered before
// the cut are still returned.
type Result struct {
	Documents []*types.Document `json:"documents"`
	Cancelled bool              `json:"cancelled,omitempty"`
}

// Engine runs graph traversals against a store.
type Engine struct {
	store  *store.Store
	logger *slog.Logger
}

// New creates a traversal engine.
func New(s *store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: s, logger: logger}
}

// ForwardReachable returns every document reachable from id over outgoing
// edges, restricted to documents strictly after the source and within
// timeWindowDays of it. Traversal is breadth-first with a visited set, so
// cycles terminate and each document appears at most once. Documents outside
// the window are neither returned nor expanded. Results come back in
// ascending timestamp order and are truncated to maxResults after ordering.
//
// Cancellation is honored between hops: a cancelled context yields the
// partial result with the Cancelled marker set, not an error.
func (e *Engine) ForwardReachable(ctx context.Context, id string, timeWindowDays, maxHops, maxResults int) (*Result, error) {
	return e.reachable(ctx, id, timeWindowDays, maxHops, maxResults, true)
}

// BackwardReachable is the mirror of ForwardReachable: incoming edges,
// documents strictly before the source, descending timestamp order (most
// recent first).
func (e *Engine) BackwardReachable(ctx context.Context, id string, timeWindowDays, maxHops, maxResults int) (*Result, error) {
	return e.reachable(ctx, id, timeWindowDays, maxHops, maxResults, false)
}

func (e *Engine) reachable(ctx context.Context, id string, timeWindowDays, maxHops, maxResults int, forward bool) (*Result, error) {
	if timeWindowDays <= 0 {
		timeWindowDays = DefaultTimeWindowDays
	}
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}

	source, err := e.store.GetDocument(id)
	if err != nil {
		return nil, err
	}
	e.store.RecordTraversal()

	windowStart := source.Timestamp
	windowEnd := source.Timestamp.AddDays(timeWindowDays)
	if !forward {
		windowStart = source.Timestamp.AddDays(-timeWindowDays)
		windowEnd = source.Timestamp
	}

	visited := map[string]bool{id: true}
	frontier := []string{id}
	var found []*types.Document
	cancelled := false

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		select {
		case <-ctx.Done():
			cancelled = true
		default:
		}
		if cancelled {
			e.logger.Debug("traversal cancelled", "source", id, "hop", hop, "found", len(found))
			break
		}

		var next []string
		for _, current := range frontier {
			for _, neighbor := range e.neighbors(current, forward) {
				if visited[neighbor] {
					continue
				}
				doc, err := e.store.GetDocument(neighbor)
				if err != nil {
					continue
				}
				// A document outside the window is a dead end: it is
				// neither collected nor expanded through.
				if !inWindow(doc, source, windowStart, windowEnd, forward) {
					continue
				}
				visited[neighbor] = true
				found = append(found, doc)
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	sort.Slice(found, func(i, j int) bool {
		if !found[i].Timestamp.Equal(found[j].Timestamp) {
			if forward {
				return found[i].Timestamp.Before(found[j].Timestamp)
			}
			return found[i].Timestamp.After(found[j].Timestamp)
		}
		return found[i].ID < found[j].ID
	})

	if maxResults > 0 && len(found) > maxResults {
		found = found[:maxResults]
	}

	return &Result{Documents: found, Cancelled: cancelled}, nil
}

func inWindow(doc, source *types.Document, windowStart, windowEnd temporal.Time, forward bool) bool {
	if forward {
		return doc.Timestamp.After(source.Timestamp) && !doc.Timestamp.After(windowEnd)
	}
	return doc.Timestamp.Before(source.Timestamp) && !doc.Timestamp.Before(windowStart)
}

func (e *Engine) neighbors(id string, forward bool) []string {
	var rels []*types.Relationship
	var err error
	if forward {
		rels, err = e.store.Successors(id)
	} else {
		rels, err = e.store.Predecessors(id)
	}
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(rels))
	for _, rel := range rels {
		if forward {
			out = append(out, rel.To)
		} else {
			out = append(out, rel.From)
		}
	}
	return out
}

// FindPath returns the shortest path (by hop count) from one document to
// another over forward edges, bounded by maxHops. When several shortest
// paths exist, neighbors are expanded in ascending timestamp order so the
// path through earlier documents wins deterministically. An unreachable
// target within the bound returns ErrNoPath.
//
// Cancellation is honored between hops: a cancelled context yields a result
// with the Cancelled marker set and no path, not an error.
func (e *Engine) FindPath(ctx context.Context, from, to string, maxHops int) (*types.PathResult, error) {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}

	if _, err := e.store.GetDocument(from); err != nil {
		return nil, err
	}
	if _, err := e.store.GetDocument(to); err != nil {
		return nil, err
	}
	e.store.RecordTraversal()

	if from == to {
		return &types.PathResult{From: from, To: to, Path: []string{from}, Length: 0, Exists: true}, nil
	}

	parent := map[string]string{from: ""}
	frontier := []string{from}

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		select {
		case <-ctx.Done():
			e.logger.Debug("path search cancelled", "from", from, "to", to, "hop", hop)
			return &types.PathResult{From: from, To: to, Cancelled: true}, nil
		default:
		}

		var next []string
		for _, current := range frontier {
			for _, neighbor := range e.sortedNeighbors(current) {
				if _, seen := parent[neighbor]; seen {
					continue
				}
				parent[neighbor] = current
				if neighbor == to {
					return &types.PathResult{
						From:   from,
						To:     to,
						Path:   rebuildPath(parent, from, to),
						Length: hop + 1,
						Exists: true,
					}, nil
				}
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return nil, types.ErrNoPath
}

// sortedNeighbors returns forward neighbor ids ordered by target timestamp,
// ties by id. The order fixes which shortest path BFS discovers first.
func (e *Engine) sortedNeighbors(id string) []string {
	ids := e.neighbors(id, true)
	sort.Slice(ids, func(i, j int) bool {
		a, errA := e.store.GetDocument(ids[i])
		b, errB := e.store.GetDocument(ids[j])
		if errA != nil || errB != nil {
			return ids[i] < ids[j]
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.ID < b.ID
	})
	return ids
}

func rebuildPath(parent map[string]string, from, to string) []string {
	var reversed []string
	for node := to; node != ""; node = parent[node] {
		reversed = append(reversed, node)
		if node == from {
			break
		}
	}
	path := make([]string, len(reversed))
	for i, node := range reversed {
		path[len(reversed)-1-i] = node
	}
	return path
}
