// Package config loads engine and feed settings from an .axtree.kdl file.
// A missing file is not an error; every setting has a usable default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// ConfigFileName is looked up in the directory passed to Load.
const ConfigFileName = ".axtree.kdl"

// Config is the full runtime configuration.
type Config struct {
	Engine Engine
	Feed   Feed
}

// Engine bounds what a single update is allowed to do.
type Engine struct {
	// MaxNodesPerUpdate rejects patches carrying more records than this.
	// Zero means unlimited.
	MaxNodesPerUpdate int
}

// Feed configures the patch-directory watcher.
type Feed struct {
	// Dir is the directory watched for patch files. Relative paths are
	// resolved against the config file's directory.
	Dir string
	// Include are doublestar globs a file name must match to be applied.
	Include []string
	// DebounceMs batches bursts of file events before applying.
	DebounceMs int
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Engine: Engine{MaxNodesPerUpdate: 0},
		Feed: Feed{
			Dir:        "patches",
			Include:    []string{"*.json"},
			DebounceMs: 100,
		},
	}
}

// Load reads dir/.axtree.kdl. A missing file yields the defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}

	cfg, err := Parse(string(content))
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(cfg.Feed.Dir) {
		cfg.Feed.Dir = filepath.Join(dir, cfg.Feed.Dir)
	}
	return cfg, nil
}

// Parse decodes KDL config text over the defaults.
func Parse(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigFileName, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "engine":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_nodes_per_update":
					if v, ok := firstIntArg(cn); ok {
						cfg.Engine.MaxNodesPerUpdate = v
					}
				}
			}
		case "feed":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "dir":
					if s, ok := firstStringArg(cn); ok {
						cfg.Feed.Dir = s
					}
				case "include":
					cfg.Feed.Include = collectStringArgs(cn)
				case "debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Feed.DebounceMs = v
					}
				}
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	if c.Engine.MaxNodesPerUpdate < 0 {
		return fmt.Errorf("engine.max_nodes_per_update must not be negative, got %d", c.Engine.MaxNodesPerUpdate)
	}
	if c.Feed.DebounceMs < 0 {
		return fmt.Errorf("feed.debounce_ms must not be negative, got %d", c.Feed.DebounceMs)
	}
	if c.Feed.Dir == "" {
		return fmt.Errorf("feed.dir must not be empty")
	}
	if len(c.Feed.Include) == 0 {
		return fmt.Errorf("feed.include must list at least one pattern")
	}
	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

// collectStringArgs accepts both inline arguments and the block form where
// each child node carries one string.
func collectStringArgs(n *document.Node) []string {
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
