package related

import (
	"fmt"
	"reflect"
	"testing"
	"time"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func doc(id, title string, cats []string, date string) Document {
	return Document{
		ID:         id,
		Slug:       id,
		Title:      title,
		Categories: cats,
		Date:       day(date),
	}
}

func ids(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestSelectExcludesReferenceBySlug(t *testing.T) {
	e := NewEngine(DefaultWeights())
	ref := doc("ref", "Link Building Guide", []string{"SEO"}, "2026-01-10")
	pool := []Document{
		ref, // reference present in its own pool
		doc("other", "Link Building Tactics", []string{"SEO"}, "2026-01-09"),
	}

	got := e.Select(ref, pool, 6)
	for _, d := range got {
		if d.Slug == ref.Slug {
			t.Fatalf("reference leaked into results: %v", ids(got))
		}
	}
	if len(got) != 1 {
		t.Errorf("expected 1 result, got %v", ids(got))
	}
}

func TestSelectRespectsLimit(t *testing.T) {
	e := NewEngine(DefaultWeights())
	ref := doc("ref", "On-Page SEO", []string{"SEO"}, "2026-01-10")
	var pool []Document
	for i := 0; i < 20; i++ {
		pool = append(pool, doc(fmt.Sprintf("p%d", i), "On-Page SEO Tips", []string{"SEO"}, "2026-01-01"))
	}

	for _, limit := range []int{1, 3, 6, 19, 25} {
		got := e.Select(ref, pool, limit)
		want := limit
		if want > len(pool) {
			want = len(pool)
		}
		if len(got) != want {
			t.Errorf("limit %d: expected %d results, got %d", limit, want, len(got))
		}
	}
}

func TestSelectLimitZeroOrNegative(t *testing.T) {
	e := NewEngine(DefaultWeights())
	ref := doc("ref", "Anything", nil, "2026-01-10")
	pool := []Document{doc("a", "Anything Else", nil, "2026-01-09")}

	if got := e.Select(ref, pool, 0); len(got) != 0 {
		t.Errorf("limit 0: expected empty, got %v", ids(got))
	}
	if got := e.Select(ref, pool, -3); len(got) != 0 {
		t.Errorf("negative limit: expected empty, got %v", ids(got))
	}
}

func TestSelectEmptyPool(t *testing.T) {
	e := NewEngine(DefaultWeights())
	ref := doc("ref", "Anything", []string{"SEO"}, "2026-01-10")
	if got := e.Select(ref, nil, 6); len(got) != 0 {
		t.Errorf("empty pool: expected empty, got %v", ids(got))
	}
}

func TestSelectDeterministic(t *testing.T) {
	e := NewEngine(DefaultWeights())
	ref := doc("ref", "Content Strategy Playbook", []string{"Strategy"}, "2026-01-10")
	var pool []Document
	for i := 0; i < 12; i++ {
		cats := []string{"Strategy"}
		if i%3 == 0 {
			cats = []string{"Design"}
		}
		pool = append(pool, doc(fmt.Sprintf("p%d", i), "Content Strategy Notes", cats, "2026-01-02"))
	}

	first := e.Select(ref, pool, 6)
	second := e.Select(ref, pool, 6)
	if !reflect.DeepEqual(ids(first), ids(second)) {
		t.Errorf("same inputs produced different output: %v vs %v", ids(first), ids(second))
	}
}

func TestSelectOrdersByScoreDescending(t *testing.T) {
	e := NewEngine(DefaultWeights())
	ref := Document{
		ID: "ref", Slug: "ref", Title: "Technical SEO Audit",
		Categories: []string{"SEO"}, Tags: []string{"audit", "crawling"},
	}
	pool := []Document{
		// Category only.
		{ID: "cat", Slug: "cat", Title: titleB, Categories: []string{"SEO"}, Date: day("2026-01-01")},
		// Category + both tags: strongest match, listed later in the pool.
		{ID: "best", Slug: "best", Title: titleB, Categories: []string{"SEO"}, Tags: []string{"audit", "crawling"}, Date: day("2026-01-01")},
		// Category + one tag.
		{ID: "mid", Slug: "mid", Title: titleB, Categories: []string{"SEO"}, Tags: []string{"audit"}, Date: day("2026-01-01")},
	}

	got := ids(e.Select(ref, pool, 3))
	want := []string{"best", "mid", "cat"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	// The ranking must agree with pairwise scores.
	docs := e.Select(ref, pool, 3)
	for i := 1; i < len(docs); i++ {
		if e.Score(ref, docs[i-1]) < e.Score(ref, docs[i]) {
			t.Errorf("results not ordered by score at position %d", i)
		}
	}
}

func TestSelectTieBreakByPoolOrder(t *testing.T) {
	e := NewEngine(DefaultWeights())
	ref := doc("ref", titleA, []string{"SEO"}, "2026-01-10")
	pool := []Document{
		doc("first", titleB, []string{"SEO"}, "2026-01-01"),
		doc("second", titleB, []string{"SEO"}, "2026-01-05"),
		doc("third", titleB, []string{"SEO"}, "2026-01-03"),
	}

	got := ids(e.Select(ref, pool, 3))
	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("equal scores should keep pool order: expected %v, got %v", want, got)
	}
}

func TestSelectCategoryFallbackTier(t *testing.T) {
	// Under a lexical-only regime a shared category contributes nothing to
	// the score, so category holders arrive through the fallback tier,
	// ahead of fresher posts that share nothing.
	e := NewEngine(Weights{Tag: 3, Text: 2, TitleThreshold: 1})
	ref := Document{
		ID: "ref", Slug: "ref", Title: titleA,
		Categories: []string{"Media"}, Tags: []string{"video"},
	}
	pool := []Document{
		{ID: "scored", Slug: "scored", Title: titleB, Tags: []string{"video"}, Date: day("2026-01-01")},
		{ID: "catmatch", Slug: "catmatch", Title: titleB, Categories: []string{"media"}, Date: day("2026-01-02")},
		{ID: "newest", Slug: "newest", Title: titleB, Date: day("2026-02-01")},
	}

	got := ids(e.Select(ref, pool, 2))
	if !reflect.DeepEqual(got, []string{"scored", "catmatch"}) {
		t.Errorf("category match should outrank recency: got %v", got)
	}

	// With room for everyone the recency tier closes the gap.
	got = ids(e.Select(ref, pool, 6))
	if !reflect.DeepEqual(got, []string{"scored", "catmatch", "newest"}) {
		t.Errorf("expected all three in tier order, got %v", got)
	}
}

func TestSelectRecencyFallbackOrder(t *testing.T) {
	e := NewEngine(DefaultWeights())
	ref := doc("ref", titleA, nil, "2026-01-10")
	pool := []Document{
		doc("old", titleB, nil, "2025-03-01"),
		doc("newest", "Coal Steam Engines History Review Update Report Issue", nil, "2026-02-01"),
		doc("mid", "Granite Basalt Quartz Slate Marble Chalk Flint Shale", nil, "2025-12-01"),
	}

	// Nothing scores, nothing shares a category: pure recency.
	got := ids(e.Select(ref, pool, 3))
	want := []string{"newest", "mid", "old"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected newest-first fill, got %v", got)
	}
}

func TestSelectScenarioCategoryThenRecency(t *testing.T) {
	// Reference has category SEO; 3 of 10 candidates share it, 7 share
	// nothing. With limit 6 the SEO posts rank first by score, then 3 more
	// fill from the recency tier.
	e := NewEngine(DefaultWeights())
	ref := Document{
		ID: "ref", Slug: "ref", Title: "Keyword Research Basics",
		Categories: []string{"SEO"},
	}

	var pool []Document
	pool = append(pool,
		Document{ID: "seo1", Slug: "seo1", Title: "Keyword Research Advanced Guide", Categories: []string{"SEO"}, Date: day("2025-06-01")},
		Document{ID: "seo2", Slug: "seo2", Title: titleB, Categories: []string{"SEO"}, Date: day("2025-05-01")},
		Document{ID: "seo3", Slug: "seo3", Title: "Keyword Research Basics", Categories: []string{"SEO"}, Date: day("2025-04-01")},
	)
	for i := 0; i < 7; i++ {
		pool = append(pool, Document{
			ID:   fmt.Sprintf("misc%d", i),
			Slug: fmt.Sprintf("misc%d", i),
			// Disjoint vocabulary, no taxonomy.
			Title: "Quarterly Finance Report Numbers Spreadsheet Summary",
			Date:  day(fmt.Sprintf("2025-07-%02d", i+1)),
		})
	}

	got := e.Select(ref, pool, 6)
	if len(got) != 6 {
		t.Fatalf("expected 6 results, got %d", len(got))
	}

	seen := map[string]bool{}
	for _, d := range got[:3] {
		seen[d.ID] = true
	}
	if !seen["seo1"] || !seen["seo2"] || !seen["seo3"] {
		t.Errorf("first three should be the SEO-category posts, got %v", ids(got))
	}
	// seo3 shares the full title, seo1 shares most tokens, seo2 only the
	// category: composite score must rank them in that order.
	if got[0].ID != "seo3" || got[1].ID != "seo1" || got[2].ID != "seo2" {
		t.Errorf("unexpected similarity ranking: %v", ids(got[:3]))
	}
	// Remaining three fill newest-first from the misc posts.
	if got[3].ID != "misc6" || got[4].ID != "misc5" || got[5].ID != "misc4" {
		t.Errorf("unexpected recency fill: %v", ids(got[3:]))
	}
}

func TestSelectDeduplicatesByID(t *testing.T) {
	e := NewEngine(DefaultWeights())
	ref := doc("ref", titleA, []string{"SEO"}, "2026-01-10")
	dup := doc("dup", titleB, []string{"SEO"}, "2026-01-01")
	pool := []Document{dup, dup, dup, doc("other", titleB, []string{"SEO"}, "2026-01-02")}

	got := e.Select(ref, pool, 6)
	seen := map[string]bool{}
	for _, d := range got {
		if seen[d.ID] {
			t.Fatalf("duplicate ID %q in results: %v", d.ID, ids(got))
		}
		seen[d.ID] = true
	}
	if len(got) != 2 {
		t.Errorf("expected 2 distinct results, got %v", ids(got))
	}
}

func TestSelectBareDocumentParticipates(t *testing.T) {
	// A candidate with no taxonomy and no text still shows up via the
	// recency tier rather than causing a failure.
	e := NewEngine(DefaultWeights())
	ref := doc("ref", titleA, []string{"SEO"}, "2026-01-10")
	bare := Document{ID: "bare", Slug: "bare", Date: day("2026-01-05")}

	got := e.Select(ref, []Document{bare}, 6)
	if len(got) != 1 || got[0].ID != "bare" {
		t.Errorf("bare document should fill via recency, got %v", ids(got))
	}
}

func TestFindRelatedEchoesReferenceTaxonomy(t *testing.T) {
	e := NewEngine(DefaultWeights())
	ref := Document{
		ID: "ref", Slug: "ref", Title: "Editorial Calendars",
		Categories: []string{"Strategy", "Planning"},
		Tags:       []string{"calendar"},
	}
	pool := []Document{doc("a", "Editorial Calendars Explained", []string{"Strategy"}, "2026-01-01")}

	res := e.FindRelated(ref, pool, 6)
	if !reflect.DeepEqual(res.Categories, ref.Categories) {
		t.Errorf("expected reference categories, got %v", res.Categories)
	}
	if !reflect.DeepEqual(res.Tags, ref.Tags) {
		t.Errorf("expected reference tags, got %v", res.Tags)
	}
	if len(res.Documents) != 1 {
		t.Errorf("expected 1 related document, got %v", ids(res.Documents))
	}
}

func TestFindRelatedDoesNotMutatePool(t *testing.T) {
	e := NewEngine(DefaultWeights())
	ref := doc("ref", titleA, []string{"SEO"}, "2026-01-10")
	pool := []Document{
		doc("b", titleB, nil, "2025-01-01"),
		doc("a", titleB, nil, "2026-01-01"),
	}
	before := ids(pool)

	e.FindRelated(ref, pool, 6)
	if !reflect.DeepEqual(ids(pool), before) {
		t.Errorf("pool order changed: %v", ids(pool))
	}
}
