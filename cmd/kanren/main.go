// Package main is the Kanren CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hiro0218/kanren/internal/cli"
	"github.com/hiro0218/kanren/internal/config"
	"github.com/hiro0218/kanren/internal/models"
	"github.com/hiro0218/kanren/internal/pipeline"
	"github.com/hiro0218/kanren/internal/search"
	"github.com/hiro0218/kanren/internal/server"
	"github.com/hiro0218/kanren/internal/storage"
	"github.com/hiro0218/kanren/internal/tokenize"
	"github.com/hiro0218/kanren/internal/watcher"
	"github.com/hiro0218/kanren/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kanren/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "build":
		runBuild()
	case "search":
		runSearch()
	case "server":
		runServer()
	case "import":
		runImport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kanren version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// newStore creates the corpus store selected by the config.
func newStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Corpus.Source {
	case config.SourceSQLite:
		return storage.NewSQLiteStore(cfg.Corpus.DatabasePath)
	case config.SourceJSON:
		return storage.NewJSONStore(cfg.Corpus.PostsPath, cfg.Corpus.TagsPath), nil
	default:
		return nil, fmt.Errorf("unknown corpus source %q (use %s or %s)",
			cfg.Corpus.Source, config.SourceJSON, config.SourceSQLite)
	}
}

// newTokenizer creates the morphological tokenizer. Initialization failure is
// fatal to the caller: whitespace splitting cannot segment the corpus, so the
// similarity output would be meaningless without the analyzer.
func newTokenizer(ctx context.Context) (tokenize.Tokenizer, error) {
	return tokenize.NewKagome(ctx)
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode))

	store, err := newStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	tokenizer, err := newTokenizer(ctx)
	if err != nil {
		logger.Fatal("Failed to initialize tokenizer", zap.Error(err))
	}
	pl := pipeline.New(&cfg.Relate, store, tokenizer, storage.NewArtifacts(cfg.Output.Dir), logger)
	result, err := pl.Run(ctx)
	if err != nil {
		logger.Fatal("Build failed", zap.Error(err))
	}
	fmt.Printf("Built %d document(s) in %s\n", result.DocumentCount, result.Duration.Round(time.Millisecond))
	fmt.Printf("Artifacts written to %s\n", cfg.Output.Dir)
}

// buildSearchQuery joins all positional args with spaces so multi-word
// queries work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kanren search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  kanren search nginx config
  kanren search "nginx config"              # same as above
  kanren search --output json typescript    # structured JSON for other apps
  kanren search --server "" typescript      # search local artifacts directly
`)
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct artifact mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = search local artifacts directly)")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	if fs.NArg() < 1 {
		printSearchUsage(fs)
		os.Exit(1)
	}
	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
		format = cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	if *serverURL != "" {
		results, err := searchViaHTTP(*serverURL, queryStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSearchResults(os.Stdout, queryStr, results, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct artifact access (when server is not running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	artifacts := storage.NewArtifacts(cfg.Output.Dir)
	index, err := artifacts.ReadSearchIndex()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read search index (run \"kanren build\" first): %v\n", err)
		os.Exit(1)
	}
	records, err := artifacts.ReadSearchRecords()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read search records: %v\n", err)
		os.Exit(1)
	}

	engine := search.NewEngine(index, records, cfg.Search.MaxResults, logger)
	results := engine.Search(queryStr)
	if err := cli.WriteSearchResults(os.Stdout, queryStr, results, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL, query string) ([]models.SearchResultItem, error) {
	resp, err := http.Get(serverURL + "/api/v1/search?q=" + url.QueryEscape(query))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response struct {
		Results []models.SearchResultItem `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return response.Results, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode))

	store, err := newStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	tokenizer, err := newTokenizer(ctx)
	if err != nil {
		logger.Fatal("Failed to initialize tokenizer", zap.Error(err))
	}
	pl := pipeline.New(&cfg.Relate, store, tokenizer, storage.NewArtifacts(cfg.Output.Dir), logger)
	srv := server.NewServer(pl, cfg, logger)
	if err := srv.Reload(ctx); err != nil {
		logger.Fatal("Initial build failed", zap.Error(err))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Watch.Enabled {
		watchPaths := []string{cfg.Corpus.PostsPath, cfg.Corpus.TagsPath}
		if cfg.Corpus.Source == config.SourceSQLite {
			watchPaths = []string{cfg.Corpus.DatabasePath}
		}
		watchSvc := watcher.NewWatcher(
			watchPaths,
			func() {
				if err := srv.Reload(context.Background()); err != nil {
					logger.Warn("rebuild after corpus change failed", zap.Error(err))
				}
			},
			logger,
			watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMs)*time.Millisecond),
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

// runImport loads a posts JSON export into the SQLite corpus database.
func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kanren import [flags] <posts.json>")
		os.Exit(1)
	}
	postsPath := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	jsonStore := storage.NewJSONStore(postsPath, "")
	ctx := context.Background()
	docs, err := jsonStore.Documents(ctx)
	if err != nil {
		fmt.Printf("Failed to read posts: %v\n", err)
		os.Exit(1)
	}

	db, err := storage.NewSQLiteStore(cfg.Corpus.DatabasePath)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.ImportDocuments(ctx, docs); err != nil {
		fmt.Printf("Import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d document(s) into %s\n", len(docs), cfg.Corpus.DatabasePath)
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Ready             bool   `json:"ready"`
	Documents         int    `json:"documents,omitempty"`
	RunID             string `json:"run_id,omitempty"`
	TagsWithRelations int    `json:"tags_with_relations,omitempty"`
	DiskUsageBytes    *int64 `json:"disk_usage_bytes,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for local mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = inspect local artifacts)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		artifacts := storage.NewArtifacts(cfg.Output.Dir)
		records, err := artifacts.ReadSearchRecords()
		if err == nil {
			status.Ready = true
			status.Documents = len(records)
		}
		if tags, err := artifacts.ReadRelatedTags(); err == nil {
			status.TagsWithRelations = len(tags)
		}
		if diskBytes, err := storage.DiskUsageBytes(cfg.Output.Dir, cfg.Corpus.DatabasePath); err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("ready:                %t\n", status.Ready)
		fmt.Printf("documents:            %d\n", status.Documents)
		fmt.Printf("tags_with_relations:  %d\n", status.TagsWithRelations)
		if status.RunID != "" {
			fmt.Printf("run_id:               %s\n", status.RunID)
		}
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes:     %d\n", *status.DiskUsageBytes)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func printUsage() {
	fmt.Println(`kanren - Content relatedness and search indexing engine

Usage:
  kanren build [flags]            Build relatedness data and the search index
  kanren search [flags] <query>   Search the indexed corpus
  kanren server [flags]           Start the HTTP server
  kanren import [flags] <file>    Import a posts JSON export into SQLite
  kanren status [flags]           Show build/artifact status
  kanren version                  Show version
  kanren help                     Show this help

Build Flags:
  --config string    Config file path (default: /usr/local/etc/kanren/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --config string    Config file path (for direct artifact mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to search local artifacts.
  --output string    Output format: text or json (default: text)

Server Flags:
  --config string    Config file path
  --debug            Enable debug logging

Status Flags:
  --config string    Config file path (for local mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for local artifacts.
  --output string    Output format: text or json (default: text)

Examples:
  kanren build
  kanren search "nginx config"
  kanren search --output json typescript
  kanren server --debug
  kanren import data/posts.json
  kanren status --server ""`)
}
