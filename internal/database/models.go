package database

import (
	"time"

	"github.com/fbruhn/crosslink/internal/related"
)

// Post is a cached article from a content source.
type Post struct {
	ID             string // source-scoped identifier, e.g. "wp-42"
	Slug           string
	URL            string
	Title          string
	Excerpt        string
	Content        string
	ContentFetched bool
	Categories     []string
	Tags           []string
	PublishedAt    string // RFC 3339 or YYYY-MM-DD, as provided by the source
	Source         string
	CollectedAt    *string
}

// Document converts a cached post into the relevance engine's input shape.
// An unparseable publication date degrades to the zero time, which only
// affects the recency fallback tier.
func (p Post) Document() related.Document {
	return related.Document{
		ID:         p.ID,
		Title:      p.Title,
		Slug:       p.Slug,
		Excerpt:    p.Excerpt,
		Content:    p.Content,
		Categories: p.Categories,
		Tags:       p.Tags,
		Date:       parseDate(p.PublishedAt),
	}
}

func parseDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Documents converts a slice of posts.
func Documents(posts []Post) []related.Document {
	docs := make([]related.Document, len(posts))
	for i, p := range posts {
		docs[i] = p.Document()
	}
	return docs
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalPosts   int
	WithContent  int
	Sources      int
	NewestPost   string
}
