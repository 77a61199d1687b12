package collect

import (
	"bytes"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"

	"github.com/fbruhn/crosslink/internal/database"
)

var md = goldmark.New()

// MarkdownSource collects posts from a directory of Markdown files with
// YAML front matter, the layout used by static-site blogs.
type MarkdownSource struct {
	dir string
}

// NewMarkdownSource creates a source reading *.md files under dir.
func NewMarkdownSource(dir string) *MarkdownSource {
	return &MarkdownSource{dir: dir}
}

// Name identifies the source in logs and the post cache.
func (s *MarkdownSource) Name() string {
	return "markdown"
}

// frontMatter is the metadata block expected at the top of each file.
type frontMatter struct {
	Title      string   `yaml:"title"`
	Slug       string   `yaml:"slug"`
	Date       string   `yaml:"date"`
	Excerpt    string   `yaml:"excerpt"`
	Categories []string `yaml:"categories"`
	Tags       []string `yaml:"tags"`
}

// Posts walks the directory and converts each Markdown file into a post.
// Files without front matter or a title are logged and skipped.
func (s *MarkdownSource) Posts() ([]database.Post, error) {
	var posts []database.Post

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Reading %s: %v", path, err)
			return nil
		}

		p, err := markdownPost(data, d.Name())
		if err != nil {
			log.Printf("Skipping %s: %v", path, err)
			return nil
		}
		posts = append(posts, *p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", s.dir, err)
	}

	return posts, nil
}

// markdownPost parses front matter and renders the body to HTML.
func markdownPost(data []byte, filename string) (*database.Post, error) {
	fm, body, err := splitFrontMatter(data)
	if err != nil {
		return nil, err
	}
	if fm.Title == "" {
		return nil, fmt.Errorf("missing title")
	}

	slug := fm.Slug
	if slug == "" {
		slug = slugify(strings.TrimSuffix(filename, ".md"))
	}

	var html bytes.Buffer
	if err := md.Convert(body, &html); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}

	return &database.Post{
		ID:          "md-" + slug,
		Slug:        slug,
		Title:       fm.Title,
		Excerpt:     fm.Excerpt,
		Content:     html.String(),
		Categories:  fm.Categories,
		Tags:        fm.Tags,
		PublishedAt: fm.Date,
		Source:      "markdown",
	}, nil
}

// splitFrontMatter separates the leading YAML block (between "---" lines)
// from the Markdown body.
func splitFrontMatter(data []byte) (frontMatter, []byte, error) {
	var fm frontMatter

	trimmed := bytes.TrimLeft(data, "\uFEFF\n\r")
	if !bytes.HasPrefix(trimmed, []byte("---")) {
		return fm, nil, fmt.Errorf("no front matter")
	}

	rest := trimmed[3:]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return fm, nil, fmt.Errorf("unterminated front matter")
	}

	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return fm, nil, fmt.Errorf("parsing front matter: %w", err)
	}

	body := rest[end+4:]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}
	return fm, body, nil
}
