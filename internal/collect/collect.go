package collect

import (
	"log"
	"net/url"
	"regexp"
	"strings"

	"github.com/fbruhn/crosslink/internal/config"
	"github.com/fbruhn/crosslink/internal/database"
)

// Source supplies posts from one content backend.
type Source interface {
	Name() string
	Posts() ([]database.Post, error)
}

// Result holds the results of a collection run.
type Result struct {
	TotalFound int
	NewPosts   int
	Refreshed  int
	Errors     int
	Sources    map[string]int
}

// Collector pulls posts from all configured sources into the cache.
type Collector struct {
	db      *database.DB
	sources []Source
}

// NewCollector creates a collector with the sources enabled in cfg.
func NewCollector(cfg *config.Config, db *database.DB) *Collector {
	c := &Collector{db: db}

	if cfg.Sources.WordPress.BaseURL != "" {
		c.sources = append(c.sources,
			NewWordPressSource(cfg.Sources.WordPress.BaseURL, cfg.Sources.WordPress.PerPage))
	}
	if len(cfg.Sources.Feeds) > 0 {
		c.sources = append(c.sources, NewFeedSource(cfg.Sources.Feeds))
	}
	if cfg.Sources.MarkdownDir != "" {
		c.sources = append(c.sources, NewMarkdownSource(cfg.Sources.MarkdownDir))
	}

	return c
}

// AddSource registers an extra source.
func (c *Collector) AddSource(s Source) {
	c.sources = append(c.sources, s)
}

// Collect gathers posts from every source and upserts them into the cache.
// A failing source is logged and skipped; the run continues.
func (c *Collector) Collect() *Result {
	r := &Result{Sources: make(map[string]int)}

	for _, src := range c.sources {
		log.Printf("Collecting from %s...", src.Name())
		posts, err := src.Posts()
		if err != nil {
			log.Printf("Source %s failed: %v", src.Name(), err)
			r.Errors++
			continue
		}

		r.TotalFound += len(posts)
		for _, p := range posts {
			created, err := c.db.UpsertPost(p)
			if err != nil {
				log.Printf("Storing %s: %v", p.Slug, err)
				r.Errors++
				continue
			}
			if created {
				r.NewPosts++
			} else {
				r.Refreshed++
			}
			r.Sources[src.Name()]++
		}
	}

	log.Printf("Collection complete: %d found, %d new, %d refreshed, %d errors",
		r.TotalFound, r.NewPosts, r.Refreshed, r.Errors)
	return r
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify turns free text into a URL-safe identifier.
func slugify(s string) string {
	s = slugUnsafe.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// slugFromURL derives a slug from the last path segment of a link,
// falling back to slugifying the whole link.
func slugFromURL(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Path == "" || u.Path == "/" {
		return slugify(link)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := segments[len(segments)-1]
	last = strings.TrimSuffix(last, ".html")
	if s := slugify(last); s != "" {
		return s
	}
	return slugify(link)
}
