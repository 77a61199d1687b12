package related

import "strings"

const (
	// minBodyTokens is the excerpt token count below which Content is
	// pulled in as an additional text source.
	minBodyTokens = 8
	// contentSampleBytes bounds how much of Content is tokenized.
	contentSampleBytes = 2000
)

// Weights tunes the composite similarity score. Category matches dominate
// tag matches, which dominate raw lexical overlap: curated taxonomy is a
// stronger relevance signal than noisy text.
type Weights struct {
	Category   float64 // per shared category
	Tag        float64 // per shared tag
	Text       float64 // scales the Jaccard overlap of token sets
	TitleBoost float64 // added once when title overlap passes TitleThreshold
	// TitleThreshold is the minimum Jaccard overlap between title token
	// sets for the boost to apply.
	TitleThreshold float64
}

// DefaultWeights returns the tuning used in production.
func DefaultWeights() Weights {
	return Weights{
		Category:       5.0,
		Tag:            3.0,
		Text:           2.0,
		TitleBoost:     1.5,
		TitleThreshold: 0.5,
	}
}

// refView caches the reference document's normalized fields so a single
// selection pass does not re-tokenize the reference per candidate.
type refView struct {
	categories map[string]struct{}
	tags       map[string]struct{}
	body       map[string]struct{}
	title      map[string]struct{}
}

func (e *Engine) newRefView(ref Document) *refView {
	return &refView{
		categories: foldSet(ref.Categories),
		tags:       foldSet(ref.Tags),
		body:       bodyTokens(ref),
		title:      Tokens(ref.Title),
	}
}

// Score computes the composite similarity between a reference and a
// candidate document. Zero means no detected relation. It never panics:
// empty or missing fields contribute nothing to their term.
func (e *Engine) Score(ref, cand Document) float64 {
	return e.scoreAgainst(e.newRefView(ref), cand)
}

func (e *Engine) scoreAgainst(v *refView, cand Document) float64 {
	score := e.weights.Category * float64(countShared(v.categories, cand.Categories))
	score += e.weights.Tag * float64(countShared(v.tags, cand.Tags))
	score += e.weights.Text * jaccard(v.body, bodyTokens(cand))

	if e.weights.TitleBoost > 0 && jaccard(v.title, Tokens(cand.Title)) >= e.weights.TitleThreshold {
		score += e.weights.TitleBoost
	}
	return score
}

// bodyTokens builds the lexical token set for a document from its title and
// excerpt, falling back to a bounded slice of Content when the excerpt is
// too thin to compare on.
func bodyTokens(d Document) map[string]struct{} {
	tokens := Tokens(d.Title + " " + d.Excerpt)
	if len(tokens) < minBodyTokens && d.Content != "" {
		sample := d.Content
		if len(sample) > contentSampleBytes {
			sample = sample[:contentSampleBytes]
		}
		for tok := range Tokens(sample) {
			tokens[tok] = struct{}{}
		}
	}
	return tokens
}

// foldSet lowercases a name list into a set for case-insensitive matching.
func foldSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// countShared counts distinct names present in both the folded set and the
// candidate list.
func countShared(ref map[string]struct{}, names []string) int {
	if len(ref) == 0 || len(names) == 0 {
		return 0
	}
	count := 0
	for n := range foldSet(names) {
		if _, ok := ref[n]; ok {
			count++
		}
	}
	return count
}

// jaccard returns |intersection| / |union| of two token sets, 0 when either
// is empty.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	inter := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
