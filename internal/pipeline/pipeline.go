package pipeline

import (
	"fmt"
	"log"
	"time"

	"github.com/fbruhn/crosslink/internal/collect"
	"github.com/fbruhn/crosslink/internal/config"
	"github.com/fbruhn/crosslink/internal/database"
	"github.com/fbruhn/crosslink/internal/fetch"
)

// StepResult holds the result of a single sync step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full sync run.
type Result struct {
	Steps []StepResult
}

// Pipeline orchestrates the two-step sync: collect posts, then fetch full
// content for the thin ones.
type Pipeline struct {
	cfg *config.Config
	db  *database.DB
}

// New creates a new sync pipeline.
func New(cfg *config.Config, db *database.DB) *Pipeline {
	return &Pipeline{cfg: cfg, db: db}
}

// Run executes the sync pipeline.
func (p *Pipeline) Run() *Result {
	r := &Result{}

	step := p.runCollect()
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	if p.cfg.Fetch.Enabled {
		r.Steps = append(r.Steps, p.runFetch())
	}

	return r
}

func (p *Pipeline) runCollect() StepResult {
	log.Println("Step 1/2: Collecting posts...")
	collector := collect.NewCollector(p.cfg, p.db)
	result := collector.Collect()

	summary := fmt.Sprintf("%d found, %d new, %d refreshed", result.TotalFound, result.NewPosts, result.Refreshed)
	if result.TotalFound == 0 {
		return StepResult{
			Name:    "Collect",
			Summary: summary,
			Err:     fmt.Errorf("no posts found; check the sources in your config"),
		}
	}
	return StepResult{Name: "Collect", Summary: summary}
}

func (p *Pipeline) runFetch() StepResult {
	log.Println("Step 2/2: Fetching full content...")
	timeout := time.Duration(p.cfg.Fetch.TimeoutSeconds) * time.Second
	fetcher := fetch.NewContentFetcher(p.db, timeout)
	result := fetcher.FetchMissingContent()

	return StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("%d fetched, %d failed", result.Fetched, result.Failed),
	}
}
