package e2e

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hiro0218/kanren/internal/pipeline"
	"github.com/hiro0218/kanren/internal/relate"
	"github.com/hiro0218/kanren/internal/search"
	"github.com/hiro0218/kanren/internal/storage"
	"github.com/hiro0218/kanren/internal/tokenize"
)

func writeCorpusFiles(t *testing.T, c *Corpus) (postsPath, tagsPath string) {
	t.Helper()
	dir := t.TempDir()
	postsPath = filepath.Join(dir, "posts.json")
	tagsPath = filepath.Join(dir, "tags.json")

	data, err := json.Marshal(c.Documents)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(postsPath, data, 0644); err != nil {
		t.Fatal(err)
	}
	tagData, err := json.Marshal(storage.DeriveTagIndex(c.Documents))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tagsPath, tagData, 0644); err != nil {
		t.Fatal(err)
	}
	return postsPath, tagsPath
}

func TestE2E_BuildAndSearch(t *testing.T) {
	corpus := BuildCorpus()
	postsPath, tagsPath := writeCorpusFiles(t, corpus)
	outDir := t.TempDir()

	store := storage.NewJSONStore(postsPath, tagsPath)
	defer store.Close()

	pl := pipeline.New(relate.DefaultConfig(), store, tokenize.SplitTokenizer{}, storage.NewArtifacts(outDir), zap.NewNop())
	result, err := pl.Run(context.Background())
	if err != nil {
		t.Fatalf("pipeline run: %v", err)
	}
	if result.DocumentCount != corpus.TotalDocs {
		t.Fatalf("document count = %d, want %d", result.DocumentCount, corpus.TotalDocs)
	}

	// Search against artifacts read back from disk, the way the search
	// subcommand consumes a finished build.
	artifacts := storage.NewArtifacts(outDir)
	index, err := artifacts.ReadSearchIndex()
	if err != nil {
		t.Fatalf("read search index: %v", err)
	}
	records, err := artifacts.ReadSearchRecords()
	if err != nil {
		t.Fatalf("read search records: %v", err)
	}

	engine := search.NewEngine(index, records, 0, zap.NewNop())
	for _, tc := range corpus.TestCases {
		t.Run(tc.Description, func(t *testing.T) {
			results := engine.Search(tc.Query)
			got := SlugsOf(results)
			if !ContainsAny(got, tc.ExpectedSlugs) {
				t.Errorf("query %q: expected at least one of %v in results, got %d results (slugs: %v)",
					tc.Query, tc.ExpectedSlugs, len(got), got)
			}
		})
	}
}

func TestE2E_RelatedPostsStayOnTopic(t *testing.T) {
	corpus := BuildCorpus()
	postsPath, tagsPath := writeCorpusFiles(t, corpus)

	store := storage.NewJSONStore(postsPath, tagsPath)
	defer store.Close()

	pl := pipeline.New(relate.DefaultConfig(), store, tokenize.SplitTokenizer{}, nil, zap.NewNop())
	result, err := pl.Run(context.Background())
	if err != nil {
		t.Fatalf("pipeline run: %v", err)
	}

	cfg := relate.DefaultConfig()
	related, ok := result.RelatedPosts["python-000"]
	if !ok || len(related) == 0 {
		t.Fatalf("no related posts for python-000: %v", result.RelatedPosts["python-000"])
	}
	if len(related) > cfg.MaxRelatedPosts {
		t.Errorf("related posts = %d, cap is %d", len(related), cfg.MaxRelatedPosts)
	}
	for slug, score := range related {
		if score < cfg.MinSimilarityScore {
			t.Errorf("related %s scored %v, below minimum %v", slug, score, cfg.MinSimilarityScore)
		}
	}
	// The ten python documents dominate the candidates; the top related
	// entries should share the python tag.
	for slug := range related {
		found := false
		for _, doc := range corpus.Documents {
			if doc.Slug != slug {
				continue
			}
			for _, tag := range doc.Tags {
				if tag == "python" || tag == "programming" {
					found = true
				}
			}
		}
		if !found {
			t.Errorf("related slug %s shares no tag with python-000", slug)
		}
	}
}

func TestE2E_RelatedTagsSymmetric(t *testing.T) {
	corpus := BuildCorpus()
	postsPath, tagsPath := writeCorpusFiles(t, corpus)

	store := storage.NewJSONStore(postsPath, tagsPath)
	defer store.Close()

	pl := pipeline.New(relate.DefaultConfig(), store, tokenize.SplitTokenizer{}, nil, zap.NewNop())
	result, err := pl.Run(context.Background())
	if err != nil {
		t.Fatalf("pipeline run: %v", err)
	}
	if len(result.RelatedTags) == 0 {
		t.Fatal("no related tags computed")
	}
	for tag, row := range result.RelatedTags {
		for other, score := range row {
			if result.RelatedTags[other][tag] != score {
				t.Errorf("asymmetric relatedness: %s->%s=%v, %s->%s=%v",
					tag, other, score, other, tag, result.RelatedTags[other][tag])
			}
		}
	}
}
