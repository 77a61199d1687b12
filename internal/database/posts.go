package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// thinContentBytes is the content length below which a post is considered
// to have no usable body text.
const thinContentBytes = 200

// UpsertPost inserts a post or refreshes an existing one by ID.
// Returns true when the post was newly created. Refreshing never clears
// content that was fetched separately.
func (db *DB) UpsertPost(p Post) (bool, error) {
	var exists int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM posts WHERE id = ?", p.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking post %s: %w", p.ID, err)
	}

	_, err = db.conn.Exec(
		`INSERT INTO posts (id, slug, url, title, excerpt, content, categories, tags, published_at, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			slug = excluded.slug,
			url = excluded.url,
			title = excluded.title,
			excerpt = excluded.excerpt,
			content = CASE WHEN length(excluded.content) > 0 THEN excluded.content ELSE posts.content END,
			categories = excluded.categories,
			tags = excluded.tags,
			published_at = excluded.published_at,
			source = excluded.source`,
		p.ID, p.Slug, p.URL, p.Title, p.Excerpt, p.Content,
		marshalNames(p.Categories), marshalNames(p.Tags), p.PublishedAt, p.Source,
	)
	if err != nil {
		return false, fmt.Errorf("upserting post %s: %w", p.ID, err)
	}
	return exists == 0, nil
}

// GetPostBySlug returns a single post, or nil if absent.
func (db *DB) GetPostBySlug(slug string) (*Post, error) {
	row := db.conn.QueryRow(selectPosts+" WHERE slug = ?", slug)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetRecentPosts returns up to n posts, newest publication first. This is
// the candidate pool handed to the relevance engine.
func (db *DB) GetRecentPosts(n int) ([]Post, error) {
	rows, err := db.conn.Query(
		selectPosts+" ORDER BY published_at DESC, collected_at DESC LIMIT ?", n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

// GetAllPosts returns every cached post, newest publication first.
func (db *DB) GetAllPosts() ([]Post, error) {
	rows, err := db.conn.Query(selectPosts + " ORDER BY published_at DESC, collected_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

// GetPostsNeedingFetch returns posts with a URL but thin content that have
// not yet had a fetch attempt.
func (db *DB) GetPostsNeedingFetch() ([]Post, error) {
	rows, err := db.conn.Query(
		selectPosts+` WHERE content_fetched = 0 AND url != '' AND length(content) < ?
		ORDER BY collected_at DESC`, thinContentBytes,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

// UpdatePostContent stores fetched content for a post.
func (db *DB) UpdatePostContent(id, content string) error {
	_, err := db.conn.Exec(
		"UPDATE posts SET content = ?, content_fetched = 1 WHERE id = ?", content, id,
	)
	return err
}

// MarkPostFetchAttempted marks that we tried to fetch content.
func (db *DB) MarkPostFetchAttempted(id string) error {
	_, err := db.conn.Exec("UPDATE posts SET content_fetched = 1 WHERE id = ?", id)
	return err
}

// GetStats returns aggregate statistics for the status command.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	err := db.conn.QueryRow(`SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN length(content) >= ? THEN 1 ELSE 0 END), 0),
		COUNT(DISTINCT source),
		COALESCE(MAX(published_at), '')
		FROM posts`, thinContentBytes,
	).Scan(&s.TotalPosts, &s.WithContent, &s.Sources, &s.NewestPost)
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}
	return s, nil
}

const selectPosts = `SELECT id, slug, url, title, excerpt, content, content_fetched,
	categories, tags, published_at, source, collected_at FROM posts`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*Post, error) {
	var p Post
	var fetched int
	var categories, tags string
	var url, publishedAt, source sql.NullString
	if err := row.Scan(&p.ID, &p.Slug, &url, &p.Title, &p.Excerpt, &p.Content,
		&fetched, &categories, &tags, &publishedAt, &source, &p.CollectedAt); err != nil {
		return nil, err
	}
	p.URL = url.String
	p.PublishedAt = publishedAt.String
	p.Source = source.String
	p.ContentFetched = fetched != 0
	p.Categories = unmarshalNames(categories)
	p.Tags = unmarshalNames(tags)
	return &p, nil
}

func scanPosts(rows *sql.Rows) ([]Post, error) {
	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func marshalNames(names []string) string {
	if len(names) == 0 {
		return "[]"
	}
	data, err := json.Marshal(names)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func unmarshalNames(data string) []string {
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil
	}
	return names
}
