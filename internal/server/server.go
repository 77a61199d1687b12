package server

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/fbruhn/crosslink/internal/database"
	"github.com/fbruhn/crosslink/internal/related"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Options tunes the related-articles surface.
type Options struct {
	Limit    int // default suggestions per post
	PoolSize int // recent posts forming the candidate pool
}

// Server is the HTTP server for browsing posts and their related articles.
type Server struct {
	db     *database.DB
	engine *related.Engine
	opts   Options
	pages  map[string]*template.Template
	mux    *http.ServeMux
}

// New creates a new Server.
func New(db *database.DB, engine *related.Engine, opts Options) (*Server, error) {
	if opts.Limit <= 0 {
		opts.Limit = 6
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = 200
	}

	funcMap := template.FuncMap{
		"snippet":  snippet,
		"safeHTML": func(s string) template.HTML { return template.HTML(s) }, //nolint: gosec
		"join":     strings.Join,
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "post.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, engine: engine, opts: opts, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Routes
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/post/", s.handlePost)
	s.mux.HandleFunc("/api/related/", s.handleAPIRelated)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	posts, err := s.db.GetAllPosts()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "index.html", map[string]any{
		"Posts": posts,
	})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimPrefix(r.URL.Path, "/post/")
	if slug == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	post, err := s.db.GetPostBySlug(slug)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if post == nil {
		http.NotFound(w, r)
		return
	}

	result, err := s.findRelated(*post, s.opts.Limit)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, "post.html", map[string]any{
		"Post":            post,
		"Related":         result.Documents,
		"PrimaryCategory": primaryCategory(result.Categories),
	})
}

// relatedResponse is the JSON shape of /api/related/{slug}.
type relatedResponse struct {
	Results   []relatedItem `json:"results"`
	Reference relatedMeta   `json:"reference"`
}

type relatedItem struct {
	ID         string   `json:"id"`
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	Excerpt    string   `json:"excerpt,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Date       string   `json:"date,omitempty"`
}

type relatedMeta struct {
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
}

func (s *Server) handleAPIRelated(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimPrefix(r.URL.Path, "/api/related/")
	if slug == "" {
		http.Error(w, `{"error":"missing slug"}`, http.StatusBadRequest)
		return
	}

	post, err := s.db.GetPostBySlug(slug)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}
	if post == nil {
		http.Error(w, `{"error":"unknown slug"}`, http.StatusNotFound)
		return
	}

	limit := s.opts.Limit
	if v := r.URL.Query().Get("limit"); v != "" {
		// A malformed limit degrades to the default rather than erroring;
		// this endpoint backs a display widget.
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	result, err := s.findRelated(*post, limit)
	if err != nil {
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
		return
	}

	resp := relatedResponse{
		Results: make([]relatedItem, 0, len(result.Documents)),
		Reference: relatedMeta{
			Categories: emptyNotNil(result.Categories),
			Tags:       emptyNotNil(result.Tags),
		},
	}
	for _, d := range result.Documents {
		item := relatedItem{
			ID:         d.ID,
			Slug:       d.Slug,
			Title:      d.Title,
			Excerpt:    snippet(d.Excerpt),
			Categories: d.Categories,
			Tags:       d.Tags,
		}
		if !d.Date.IsZero() {
			item.Date = d.Date.Format("2006-01-02")
		}
		resp.Results = append(resp.Results, item)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Encoding related response: %v", err)
	}
}

// findRelated assembles the candidate pool from the cache and runs the
// relevance engine against it.
func (s *Server) findRelated(post database.Post, limit int) (related.Result, error) {
	pool, err := s.db.GetRecentPosts(s.opts.PoolSize)
	if err != nil {
		return related.Result{}, err
	}
	return s.engine.FindRelated(post.Document(), database.Documents(pool), limit), nil
}

func (s *Server) render(w http.ResponseWriter, page string, data map[string]any) {
	tmpl, ok := s.pages[page]
	if !ok {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Rendering %s: %v", page, err)
	}
}

func primaryCategory(categories []string) string {
	if len(categories) == 0 {
		return ""
	}
	return categories[0]
}

func emptyNotNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// snippet strips markup from an excerpt and truncates it for list display.
func snippet(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&hellip;", "…")
	s = strings.ReplaceAll(s, "&#8217;", "'")
	s = strings.Join(strings.Fields(s), " ")

	const maxSnippet = 200
	if len(s) > maxSnippet {
		if cut := strings.LastIndex(s[:maxSnippet], " "); cut > 0 {
			s = s[:cut]
		} else {
			s = s[:maxSnippet]
		}
		s += "…"
	}
	return s
}

// Serve starts the HTTP server on the given port.
func Serve(db *database.DB, engine *related.Engine, opts Options, port int) error {
	srv, err := New(db, engine, opts)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Serving on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
