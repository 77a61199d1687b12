package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources Sources `yaml:"sources"`
	Related Related `yaml:"related"`
	Scoring Scoring `yaml:"scoring"`
	Fetch   Fetch   `yaml:"fetch"`
	Output  Output  `yaml:"output"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

type Sources struct {
	WordPress   WordPress `yaml:"wordpress"`
	Feeds       []Feed    `yaml:"feeds"`
	MarkdownDir string    `yaml:"markdown_dir"`
}

type WordPress struct {
	BaseURL string `yaml:"base_url"`
	PerPage int    `yaml:"per_page"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

// Related controls the selection surface: how many suggestions to return
// and how many recent posts form the candidate pool.
type Related struct {
	Limit    int `yaml:"limit"`
	PoolSize int `yaml:"pool_size"`
}

// Scoring holds the similarity weights. Omitted keys keep the defaults
// applied in parse, so a config file can override just one knob.
type Scoring struct {
	CategoryWeight        float64 `yaml:"category_weight"`
	TagWeight             float64 `yaml:"tag_weight"`
	TextWeight            float64 `yaml:"text_weight"`
	TitleBoost            float64 `yaml:"title_boost"`
	TitleOverlapThreshold float64 `yaml:"title_overlap_threshold"`
}

type Fetch struct {
	Enabled        bool `yaml:"enabled"`
	TimeoutSeconds int  `yaml:"timeout_seconds"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for crosslink.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "crosslink")
}

// DataDir returns the XDG data directory for crosslink.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "crosslink")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/crosslink/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'crosslink init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Sources: Sources{
			WordPress: WordPress{PerPage: 100},
		},
		Related: Related{
			Limit:    6,
			PoolSize: 200,
		},
		Scoring: Scoring{
			CategoryWeight:        5.0,
			TagWeight:             3.0,
			TextWeight:            2.0,
			TitleBoost:            1.5,
			TitleOverlapThreshold: 0.5,
		},
		Fetch:   Fetch{Enabled: true, TimeoutSeconds: 15},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
