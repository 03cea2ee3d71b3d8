package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, "debug: true\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug not set")
	}
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Corpus.Source != SourceJSON {
		t.Errorf("corpus source = %s, want %s", cfg.Corpus.Source, SourceJSON)
	}
	if cfg.Search.MaxResults != 100 || cfg.Search.CacheSize != 50 {
		t.Errorf("search defaults = %+v", cfg.Search)
	}
	if cfg.Watch.DebounceMs != 400 {
		t.Errorf("debounce default = %d, want 400", cfg.Watch.DebounceMs)
	}
	if cfg.Relate.MaxRelatedPosts != 6 {
		t.Errorf("relate defaults not applied: %+v", cfg.Relate)
	}
}

func TestLoadExpandsRelativePaths(t *testing.T) {
	path := writeConfigFile(t, `
corpus:
  posts_path: ./content/posts.json
output:
  dir: ./dist
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	dir := filepath.Dir(path)
	if want := filepath.Join(dir, "content/posts.json"); cfg.Corpus.PostsPath != want {
		t.Errorf("posts path = %s, want %s", cfg.Corpus.PostsPath, want)
	}
	if want := filepath.Join(dir, "dist"); cfg.Output.Dir != want {
		t.Errorf("output dir = %s, want %s", cfg.Output.Dir, want)
	}
}

func TestLoadKeepsAbsolutePaths(t *testing.T) {
	path := writeConfigFile(t, `
corpus:
  database_path: /var/lib/kanren/corpus.db
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Corpus.DatabasePath != "/var/lib/kanren/corpus.db" {
		t.Errorf("database path = %s", cfg.Corpus.DatabasePath)
	}
}

func TestLoadOverridesRelateSettings(t *testing.T) {
	path := writeConfigFile(t, `
relate:
  max_related_posts: 10
  min_similarity_score: 0.2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Relate.MaxRelatedPosts != 10 {
		t.Errorf("max related posts = %d, want 10", cfg.Relate.MaxRelatedPosts)
	}
	if cfg.Relate.MinSimilarityScore != 0.2 {
		t.Errorf("min similarity = %v, want 0.2", cfg.Relate.MinSimilarityScore)
	}
	// Unspecified fields still get defaults.
	if cfg.Relate.MinTagFrequency != 3 {
		t.Errorf("min tag frequency = %d, want 3", cfg.Relate.MinTagFrequency)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "corpus: [not a map\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := &Config{Debug: true}
	ApplyDefaults(cfg)
	cfg.Server.Port = 9090

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", loaded.Server.Port)
	}
	if !loaded.Debug {
		t.Error("debug lost in round trip")
	}
}
