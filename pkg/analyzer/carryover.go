package analyzer

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/soundprediction/tempograph/pkg/types"
	"github.com/soundprediction/tempograph/pkg/utils"
)

// extractChains walks causal edges restricted to the working set. Carried
// open chains are extended first when their tail connects into this window;
// remaining chain roots are working documents with no causal predecessor in
// the set. A chain whose tail still has causal successors outside the set is
// left open and reported as an open question.
func (a *Analyzer) extractChains(index int, working []*types.Document, openChains []types.CausalChain) ([]types.CausalChain, []string) {
	inSet := make(map[string]bool, len(working))
	byID := make(map[string]*types.Document, len(working))
	for _, doc := range working {
		inSet[doc.ID] = true
		byID[doc.ID] = doc
	}

	causalNext := func(id string) []string {
		rels, err := a.store.Successors(id)
		if err != nil {
			return nil
		}
		var out []string
		for _, rel := range rels {
			if rel.Kind == types.RelationCausal {
				out = append(out, rel.To)
			}
		}
		return out
	}

	hasCausalPredInSet := func(id string) bool {
		rels, err := a.store.Predecessors(id)
		if err != nil {
			return false
		}
		for _, rel := range rels {
			if rel.Kind == types.RelationCausal && inSet[rel.From] {
				return true
			}
		}
		return false
	}

	// walk extends a chain from its tail, always taking the earliest
	// causal successor inside the set.
	walk := func(chain []string) []string {
		seen := make(map[string]bool, len(chain))
		for _, id := range chain {
			seen[id] = true
		}
		for {
			tail := chain[len(chain)-1]
			var candidates []string
			for _, next := range causalNext(tail) {
				if inSet[next] && !seen[next] {
					candidates = append(candidates, next)
				}
			}
			if len(candidates) == 0 {
				return chain
			}
			sort.Slice(candidates, func(i, j int) bool {
				di, dj := byID[candidates[i]], byID[candidates[j]]
				if !di.Timestamp.Equal(dj.Timestamp) {
					return di.Timestamp.Before(dj.Timestamp)
				}
				return candidates[i] < candidates[j]
			})
			chain = append(chain, candidates[0])
			seen[candidates[0]] = true
		}
	}

	var chains []types.CausalChain
	var questions []string
	claimed := make(map[string]bool)

	finish := func(ids []string) {
		tail := ids[len(ids)-1]
		successors := causalNext(tail)
		complete := true
		for _, next := range successors {
			if !inSet[next] {
				complete = false
				questions = append(questions,
					fmt.Sprintf("causal chain ending at %q continues beyond window %d", tail, index))
				break
			}
		}
		chains = append(chains, types.CausalChain{DocumentIDs: ids, Complete: complete})
		for _, id := range ids {
			claimed[id] = true
		}
	}

	// Continue carried chains whose tail links into this set.
	for _, carried := range openChains {
		if len(carried.DocumentIDs) == 0 {
			continue
		}
		tail := carried.DocumentIDs[len(carried.DocumentIDs)-1]
		connects := false
		for _, next := range causalNext(tail) {
			if inSet[next] {
				connects = true
				break
			}
		}
		if !connects {
			continue
		}
		// Extend within the set only; carried prefix ids may be outside it.
		extended := walk(append([]string(nil), carried.DocumentIDs...))
		if len(extended) > len(carried.DocumentIDs) {
			finish(extended)
		}
	}

	// Fresh chains rooted in this window.
	roots := make([]*types.Document, 0, len(working))
	for _, doc := range working {
		if !claimed[doc.ID] && !hasCausalPredInSet(doc.ID) {
			roots = append(roots, doc)
		}
	}
	sort.Slice(roots, func(i, j int) bool {
		if !roots[i].Timestamp.Equal(roots[j].Timestamp) {
			return roots[i].Timestamp.Before(roots[j].Timestamp)
		}
		return roots[i].ID < roots[j].ID
	})
	for _, root := range roots {
		if claimed[root.ID] {
			continue
		}
		chain := walk([]string{root.ID})
		if len(chain) < 2 {
			continue
		}
		finish(chain)
	}

	return chains, questions
}

// extractCarryover builds the bounded state for the next window. Each list
// is capped by configuration; nothing else survives the boundary.
func (a *Analyzer) extractCarryover(prev types.Carryover, windowDocs []*types.Document, keyEvents []types.Event, chains []types.CausalChain, working []*types.Document) types.Carryover {
	next := types.Carryover{
		AttentionScores: make(map[string]float64),
	}

	// Events: previous carryover merged with this window's key events,
	// deduplicated by document, highest importance wins, top N kept.
	bestEvents := make(map[string]types.Event)
	for _, ev := range append(append([]types.Event(nil), prev.KeyEvents...), keyEvents...) {
		if cur, ok := bestEvents[ev.DocumentID]; !ok || ev.Importance > cur.Importance {
			bestEvents[ev.DocumentID] = ev
		}
	}
	eventItems := make([]utils.ScoredItem[types.Event], 0, len(bestEvents))
	ids := make([]string, 0, len(bestEvents))
	for id := range bestEvents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		ev := bestEvents[id]
		eventItems = append(eventItems, utils.ScoredItem[types.Event]{Item: ev, Score: ev.Importance})
	}
	for _, item := range utils.TopKByScore(eventItems, a.cfg.MaxCarryoverEvents) {
		next.KeyEvents = append(next.KeyEvents, item.Item)
	}

	// Entities: window mentions merged into the carried tallies.
	merged := make(map[string]types.Entity)
	for _, ent := range prev.ActiveEntities {
		merged[ent.Name] = ent
	}
	for _, doc := range windowDocs {
		for _, name := range extractEntityNames(doc.Content) {
			ent, ok := merged[name]
			if !ok {
				ent = types.Entity{Name: name}
			}
			ent.Mentions++
			if ent.LastSeen.IsZero() || doc.Timestamp.After(ent.LastSeen) {
				ent.LastSeen = doc.Timestamp
			}
			merged[name] = ent
		}
	}
	entities := make([]types.Entity, 0, len(merged))
	for _, ent := range merged {
		entities = append(entities, ent)
	}
	sort.Slice(entities, func(i, j int) bool {
		if entities[i].Mentions != entities[j].Mentions {
			return entities[i].Mentions > entities[j].Mentions
		}
		return entities[i].Name < entities[j].Name
	})
	if len(entities) > a.cfg.MaxCarryoverEntities {
		entities = entities[:a.cfg.MaxCarryoverEntities]
	}
	next.ActiveEntities = entities

	// Chains: only incomplete ones continue, most recent tails first.
	byID := make(map[string]*types.Document, len(working))
	for _, doc := range working {
		byID[doc.ID] = doc
	}
	var open []types.CausalChain
	for _, chain := range chains {
		if !chain.Complete {
			open = append(open, chain)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		ti := byID[open[i].DocumentIDs[len(open[i].DocumentIDs)-1]]
		tj := byID[open[j].DocumentIDs[len(open[j].DocumentIDs)-1]]
		if ti == nil || tj == nil {
			return ti != nil
		}
		return ti.Timestamp.After(tj.Timestamp)
	})
	if len(open) > a.cfg.MaxCarryoverChains {
		open = open[:a.cfg.MaxCarryoverChains]
	}
	next.OpenChains = open

	// Attention: carried events are critical, the window's trailing
	// documents get the recency score.
	for _, ev := range next.KeyEvents {
		next.AttentionScores[ev.DocumentID] = criticalAttention
	}
	for i := len(windowDocs) - recentAttentionDocs; i < len(windowDocs); i++ {
		if i < 0 {
			continue
		}
		id := windowDocs[i].ID
		if _, ok := next.AttentionScores[id]; !ok {
			next.AttentionScores[id] = recentAttention
		}
	}

	return next
}

// extractEntityNames pulls capitalized tokens out of content as a cheap
// stand-in for entity mentions. Tokens shorter than three characters are
// skipped.
func extractEntityNames(content string) []string {
	var out []string
	for _, field := range strings.Fields(content) {
		name := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len(name) < 3 {
			continue
		}
		runes := []rune(name)
		if !unicode.IsUpper(runes[0]) {
			continue
		}
		out = append(out, name)
	}
	return out
}
