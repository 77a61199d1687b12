package collect

import (
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/fbruhn/crosslink/internal/config"
	"github.com/fbruhn/crosslink/internal/database"
)

const maxPerFeed = 50

// FeedSource collects posts from RSS/Atom feeds.
type FeedSource struct {
	feeds []config.Feed
}

// NewFeedSource creates a feed source for the configured feeds.
func NewFeedSource(feeds []config.Feed) *FeedSource {
	return &FeedSource{feeds: feeds}
}

// Name identifies the source in logs and the post cache.
func (fs *FeedSource) Name() string {
	return "feed"
}

// Posts parses all configured feeds. A feed that fails to parse is logged
// and skipped.
func (fs *FeedSource) Posts() ([]database.Post, error) {
	parser := gofeed.NewParser()
	var all []database.Post

	for _, fc := range fs.feeds {
		name := fc.Name
		if name == "" {
			name = extractSourceName(fc.URL)
		}

		feed, err := parser.ParseURL(fc.URL)
		if err != nil {
			log.Printf("Failed to parse feed %s: %v", fc.URL, err)
			continue
		}

		count := 0
		for _, item := range feed.Items {
			if count >= maxPerFeed {
				break
			}
			if p := feedItemPost(item, name); p != nil {
				all = append(all, *p)
				count++
			}
		}
		log.Printf("Parsed %d entries from %s", count, name)
	}

	return all, nil
}

// feedItemPost maps a feed item to a cached post. Items without a link or
// title are dropped. Feed categories carry both editorial categories and
// tags mixed together, so they land on Categories.
func feedItemPost(item *gofeed.Item, source string) *database.Post {
	link := item.Link
	if link == "" {
		link = item.GUID
	}
	title := strings.TrimSpace(item.Title)
	if link == "" || title == "" {
		return nil
	}

	var published string
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.Format(time.RFC3339)
	} else if item.UpdatedParsed != nil {
		published = item.UpdatedParsed.Format(time.RFC3339)
	}

	return &database.Post{
		ID:          "feed-" + slugFromURL(link),
		Slug:        slugFromURL(link),
		URL:         link,
		Title:       title,
		Excerpt:     item.Description,
		Content:     item.Content,
		Categories:  item.Categories,
		PublishedAt: published,
		Source:      source,
	}
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		name := parts[len(parts)-2]
		return strings.ToUpper(name[:1]) + name[1:]
	}
	if host == "" {
		return feedURL
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
