package fetch

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/fbruhn/crosslink/internal/database"
)

// Result holds the results of a content fetch run.
type Result struct {
	Fetched int
	Failed  int
}

// ContentFetcher fills in full post text via HTTP + readability extraction
// for cached posts whose sources only delivered an excerpt. Fuller text
// sharpens the engine's lexical comparisons.
type ContentFetcher struct {
	db     *database.DB
	client *http.Client
}

// NewContentFetcher creates a new content fetcher.
func NewContentFetcher(db *database.DB, timeout time.Duration) *ContentFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &ContentFetcher{
		db: db,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FetchMissingContent fetches body text for posts with thin content.
func (f *ContentFetcher) FetchMissingContent() *Result {
	posts, err := f.db.GetPostsNeedingFetch()
	if err != nil {
		log.Printf("Error getting posts needing fetch: %v", err)
		return &Result{}
	}

	if len(posts) == 0 {
		log.Println("No posts need content fetching")
		return &Result{}
	}

	result := &Result{}
	failedDomains := make(map[string]struct{})

	for _, post := range posts {
		u, _ := url.Parse(post.URL)
		domain := ""
		if u != nil {
			domain = strings.ToLower(u.Host)
		}

		if _, failed := failedDomains[domain]; failed {
			f.db.MarkPostFetchAttempted(post.ID)
			result.Failed++
			continue
		}

		content, httpErr := f.fetchPostContent(post.URL)
		if httpErr != nil {
			f.db.MarkPostFetchAttempted(post.ID)
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			log.Printf("HTTP error for %s, skipping remaining from %s", post.URL, domain)
			continue
		}

		if content != "" {
			f.db.UpdatePostContent(post.ID, content)
			result.Fetched++
			log.Printf("Fetched content for: %s", post.Title)
		} else {
			f.db.MarkPostFetchAttempted(post.ID)
			result.Failed++
			log.Printf("No extractable content from: %s", post.URL)
		}
	}

	log.Printf("Content fetch complete: %d fetched, %d failed", result.Fetched, result.Failed)
	return result
}

func (f *ContentFetcher) fetchPostContent(postURL string) (string, error) {
	req, err := http.NewRequest("GET", postURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "crosslink/1.0 (related articles)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil // connection error, not HTTP error
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	parsedURL, _ := url.Parse(postURL)
	article, err := readability.FromReader(strings.NewReader(string(bodyBytes)), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) > 100 {
		return text, nil
	}
	return "", nil
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
