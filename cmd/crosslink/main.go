package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fbruhn/crosslink/internal/config"
	"github.com/fbruhn/crosslink/internal/database"
	"github.com/fbruhn/crosslink/internal/pipeline"
	"github.com/fbruhn/crosslink/internal/related"
	"github.com/fbruhn/crosslink/internal/server"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "crosslink",
	Short:   "Related-article suggestions for your blog",
	Long:    "Crosslink collects posts from WordPress, feeds, or Markdown files and suggests related articles for each one.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(relatedCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("crosslink", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/crosslink/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point at your WordPress site, feeds, or Markdown directory.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Posts:")
		fmt.Printf("  Total collected: %d\n", stats.TotalPosts)
		fmt.Printf("  With full content: %d\n", stats.WithContent)
		fmt.Printf("  Sources: %d\n", stats.Sources)
		if stats.NewestPost != "" {
			fmt.Printf("  Newest post: %s\n", stats.NewestPost)
		}
		return nil
	},
}

// --- sync command ---

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Collect posts from configured sources and fetch thin content",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db)
		result := pipe.Run()

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		fmt.Println("\nSync complete! Run 'crosslink related <slug>' or 'crosslink serve'.")
		return nil
	},
}

// --- related command ---

var relatedLimit int

var relatedCmd = &cobra.Command{
	Use:   "related [slug]",
	Short: "Print related articles for a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		post, err := db.GetPostBySlug(args[0])
		if err != nil {
			return err
		}
		if post == nil {
			return fmt.Errorf("no post with slug %q, run 'crosslink sync' first", args[0])
		}

		pool, err := db.GetRecentPosts(cfg.Related.PoolSize)
		if err != nil {
			return err
		}

		limit := relatedLimit
		if limit <= 0 {
			limit = cfg.Related.Limit
		}

		engine := newEngine(cfg)
		ref := post.Document()
		result := engine.FindRelated(ref, database.Documents(pool), limit)

		fmt.Printf("Related to: %s\n\n", post.Title)
		if len(result.Documents) == 0 {
			fmt.Println("No related articles found.")
			return nil
		}
		for i, doc := range result.Documents {
			score := engine.Score(ref, doc)
			fmt.Printf("  %d. %s\n", i+1, doc.Title)
			fmt.Printf("     slug: %s  score: %.2f\n", doc.Slug, score)
		}
		return nil
	},
}

func init() {
	relatedCmd.Flags().IntVarP(&relatedLimit, "limit", "n", 0, "Number of suggestions (default from config)")
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		opts := server.Options{
			Limit:    cfg.Related.Limit,
			PoolSize: cfg.Related.PoolSize,
		}

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(db, newEngine(cfg), opts, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// newEngine builds the scoring engine from the configured weights. Zero
// values in the config fall back to the engine defaults.
func newEngine(cfg *config.Config) *related.Engine {
	return related.NewEngine(related.Weights{
		Category:       cfg.Scoring.CategoryWeight,
		Tag:            cfg.Scoring.TagWeight,
		Text:           cfg.Scoring.TextWeight,
		TitleBoost:     cfg.Scoring.TitleBoost,
		TitleThreshold: cfg.Scoring.TitleOverlapThreshold,
	})
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "crosslink.db")
	return database.Open(dbPath)
}
