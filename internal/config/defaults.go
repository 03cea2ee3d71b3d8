package config

// Corpus source backends.
const (
	SourceJSON   = "json"
	SourceSQLite = "sqlite"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Corpus.Source == "" {
		cfg.Corpus.Source = SourceJSON
	}
	if cfg.Corpus.PostsPath == "" {
		cfg.Corpus.PostsPath = "./data/posts.json"
	}
	if cfg.Corpus.TagsPath == "" {
		cfg.Corpus.TagsPath = "./data/tags.json"
	}
	if cfg.Corpus.DatabasePath == "" {
		cfg.Corpus.DatabasePath = "./data/corpus.db"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "./dist"
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 100
	}
	if cfg.Search.CacheSize == 0 {
		cfg.Search.CacheSize = 50
	}
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = 400
	}
	cfg.Relate.ApplyDefaults()
}
