// Package related ranks a pool of candidate documents by relevance to a
// reference document and selects the top matches, guaranteeing a minimum
// output count via tiered fallback (similarity, shared category, recency).
//
// Everything here is pure and synchronous: no I/O, no shared state, safe to
// call from concurrent request handlers.
package related

import (
	"sort"
	"time"
)

// Document is one article as seen by the relevance engine. Title, Excerpt
// and Content may carry HTML; the engine normalizes them itself.
type Document struct {
	ID         string
	Title      string
	Slug       string
	Excerpt    string
	Content    string
	Categories []string
	Tags       []string
	Date       time.Time
}

// PrimaryCategory returns the first category, used for display grouping.
func (d Document) PrimaryCategory() string {
	if len(d.Categories) == 0 {
		return ""
	}
	return d.Categories[0]
}

// Result is the outcome of FindRelated: the ranked documents plus the
// reference document's own taxonomy for caller display.
type Result struct {
	Documents  []Document
	Categories []string
	Tags       []string
}

// Engine scores and selects related documents under a fixed set of weights.
type Engine struct {
	weights Weights
}

// NewEngine creates an engine. A zero Weights value selects DefaultWeights.
func NewEngine(w Weights) *Engine {
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	return &Engine{weights: w}
}

// FindRelated returns up to limit documents from pool ranked by relevance
// to ref, together with ref's categories and tags. The reference itself is
// excluded from the pool by slug.
func (e *Engine) FindRelated(ref Document, pool []Document, limit int) Result {
	return Result{
		Documents:  e.Select(ref, pool, limit),
		Categories: ref.Categories,
		Tags:       ref.Tags,
	}
}

// Select picks up to limit documents from pool in three tiers:
//
//  1. candidates with a positive similarity score, best first
//  2. candidates sharing a category with ref, in pool order
//  3. remaining candidates by publication date, newest first
//
// Later tiers only run while the output is under limit. Results are
// deduplicated by ID; ref is excluded by slug. limit <= 0 yields nil.
func (e *Engine) Select(ref Document, pool []Document, limit int) []Document {
	if limit <= 0 || len(pool) == 0 {
		return nil
	}

	view := e.newRefView(ref)
	selected := make([]Document, 0, limit)
	picked := make(map[string]struct{}, limit)

	// Tier 1: similarity.
	type scoredCandidate struct {
		doc   Document
		score float64
	}
	var scored []scoredCandidate
	for _, d := range pool {
		if d.Slug == ref.Slug {
			continue
		}
		if s := e.scoreAgainst(view, d); s > 0 {
			scored = append(scored, scoredCandidate{doc: d, score: s})
		}
	}
	// Stable sort keeps pool order on ties, so results are deterministic.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	for _, sc := range scored {
		if len(selected) == limit {
			return selected
		}
		if _, dup := picked[sc.doc.ID]; dup {
			continue
		}
		picked[sc.doc.ID] = struct{}{}
		selected = append(selected, sc.doc)
	}

	// Tier 2: shared category, pool order.
	for _, d := range pool {
		if len(selected) == limit {
			return selected
		}
		if d.Slug == ref.Slug {
			continue
		}
		if _, dup := picked[d.ID]; dup {
			continue
		}
		if countShared(view.categories, d.Categories) == 0 {
			continue
		}
		picked[d.ID] = struct{}{}
		selected = append(selected, d)
	}

	// Tier 3: recency.
	var rest []Document
	for _, d := range pool {
		if d.Slug == ref.Slug {
			continue
		}
		if _, dup := picked[d.ID]; dup {
			continue
		}
		rest = append(rest, d)
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].Date.After(rest[j].Date)
	})
	for _, d := range rest {
		if len(selected) == limit {
			break
		}
		if _, dup := picked[d.ID]; dup {
			continue
		}
		picked[d.ID] = struct{}{}
		selected = append(selected, d)
	}

	return selected
}
