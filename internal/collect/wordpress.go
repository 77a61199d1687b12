package collect

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fbruhn/crosslink/internal/database"
)

// maxPages caps pagination so a huge site cannot stall a sync.
const maxPages = 10

// WordPressSource collects posts from a WordPress site's REST API.
type WordPressSource struct {
	baseURL string
	perPage int
	client  *http.Client
}

// NewWordPressSource creates a WordPress source for the given site.
func NewWordPressSource(baseURL string, perPage int) *WordPressSource {
	if perPage <= 0 || perPage > 100 {
		perPage = 100
	}
	return &WordPressSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		perPage: perPage,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Name identifies the source in logs and the post cache.
func (s *WordPressSource) Name() string {
	return "wordpress"
}

// wpPost mirrors the fields we consume from /wp-json/wp/v2/posts?_embed.
type wpPost struct {
	ID    int    `json:"id"`
	Date  string `json:"date"`
	Slug  string `json:"slug"`
	Link  string `json:"link"`
	Title struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
	Excerpt struct {
		Rendered string `json:"rendered"`
	} `json:"excerpt"`
	Content struct {
		Rendered string `json:"rendered"`
	} `json:"content"`
	Embedded struct {
		Terms [][]struct {
			Name     string `json:"name"`
			Taxonomy string `json:"taxonomy"`
		} `json:"wp:term"`
	} `json:"_embedded"`
}

// Posts pulls published posts page by page until the site runs out.
func (s *WordPressSource) Posts() ([]database.Post, error) {
	var all []database.Post

	for page := 1; page <= maxPages; page++ {
		batch, err := s.fetchPage(page)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			// Past the last page WordPress answers 400; treat any
			// later-page error as end of data.
			break
		}

		for _, wp := range batch {
			all = append(all, wp.post())
		}

		if len(batch) < s.perPage {
			break
		}
	}

	return all, nil
}

func (s *WordPressSource) fetchPage(page int) ([]wpPost, error) {
	reqURL := fmt.Sprintf("%s/wp-json/wp/v2/posts?_embed=wp:term&per_page=%d&page=%d",
		s.baseURL, s.perPage, page)

	resp, err := s.client.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("fetching posts page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("posts page %d: HTTP %d", page, resp.StatusCode)
	}

	var batch []wpPost
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("decoding posts page %d: %w", page, err)
	}
	return batch, nil
}

// post converts the API shape into a cached post. Embedded terms split into
// categories and tags by taxonomy.
func (wp wpPost) post() database.Post {
	var categories, tags []string
	for _, group := range wp.Embedded.Terms {
		for _, term := range group {
			switch term.Taxonomy {
			case "category":
				categories = append(categories, term.Name)
			case "post_tag":
				tags = append(tags, term.Name)
			}
		}
	}

	return database.Post{
		ID:          fmt.Sprintf("wp-%d", wp.ID),
		Slug:        wp.Slug,
		URL:         wp.Link,
		Title:       wp.Title.Rendered,
		Excerpt:     wp.Excerpt.Rendered,
		Content:     wp.Content.Rendered,
		Categories:  categories,
		Tags:        tags,
		PublishedAt: wp.Date,
		Source:      "wordpress",
	}
}
