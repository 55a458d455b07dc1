package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse(`
engine {
    max_nodes_per_update 5000
}
feed {
    dir "incoming"
    include "*.json" "*.patch"
    debounce_ms 250
}
`)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Engine.MaxNodesPerUpdate)
	assert.Equal(t, "incoming", cfg.Feed.Dir)
	assert.Equal(t, []string{"*.json", "*.patch"}, cfg.Feed.Include)
	assert.Equal(t, 250, cfg.Feed.DebounceMs)
}

func TestParse_IncludeBlockForm(t *testing.T) {
	cfg, err := Parse(`
feed {
    include {
        "updates/**/*.json"
        "*.patch"
    }
}
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"updates/**/*.json", "*.patch"}, cfg.Feed.Include)
}

func TestParse_EmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_UnknownNodesIgnored(t *testing.T) {
	cfg, err := Parse(`
telemetry {
    endpoint "http://localhost"
}
feed {
    debounce_ms 50
}
`)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Feed.DebounceMs)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"negative debounce", `feed { debounce_ms -1 }`, "debounce_ms"},
		{"negative node limit", `engine { max_nodes_per_update -5 }`, "max_nodes_per_update"},
		{"empty dir", `feed { dir "" }`, "feed.dir"},
		{"malformed kdl", `feed {`, "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.doc)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	def := Default()
	assert.Equal(t, def.Engine, cfg.Engine)
	assert.Equal(t, def.Feed.Include, cfg.Feed.Include)
}

func TestLoad_ResolvesFeedDirAgainstConfigDir(t *testing.T) {
	dir := t.TempDir()
	content := "feed {\n    dir \"incoming\"\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "incoming"), cfg.Feed.Dir)
}

func TestLoad_AbsoluteFeedDirKept(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "elsewhere")
	content := "feed {\n    dir " + `"` + abs + `"` + "\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, abs, cfg.Feed.Dir)
}
