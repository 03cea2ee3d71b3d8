package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hiro0218/kanren/internal/models"
	"github.com/hiro0218/kanren/internal/relate"
	"github.com/hiro0218/kanren/internal/storage"
	"github.com/hiro0218/kanren/internal/tokenize"
)

type fakeStore struct {
	docs []models.Document
	err  error
}

func (s *fakeStore) Documents(ctx context.Context) ([]models.Document, error) {
	return s.docs, s.err
}

func (s *fakeStore) TagIndex(ctx context.Context) (models.TagIndex, error) {
	if s.err != nil {
		return nil, s.err
	}
	return storage.DeriveTagIndex(s.docs), nil
}

func (s *fakeStore) Close() error { return nil }

// failingTokenizer always errors, standing in for a per-document timeout.
type failingTokenizer struct{}

func (failingTokenizer) Tokenize(ctx context.Context, text string) ([]tokenize.Token, error) {
	return nil, context.DeadlineExceeded
}

func testCorpus() []models.Document {
	return []models.Document{
		{Slug: "go-basics", Title: "Go basics", Content: "go syntax types interfaces", Tags: []string{"go", "tutorial", "basics"}, Date: "2024-01-01"},
		{Slug: "go-advanced", Title: "Go advanced", Content: "go generics goroutines channels", Tags: []string{"go", "tutorial", "advanced"}, Date: "2024-01-10"},
		{Slug: "go-testing", Title: "Go testing", Content: "go testing benchmarks coverage", Tags: []string{"go", "tutorial", "testing"}, Date: "2024-01-20"},
		{Slug: "web-intro", Title: "Web intro", Content: "html css javascript", Tags: []string{"web", "tutorial"}, Date: "2024-02-01"},
		{Slug: "web-forms", Title: "Web forms", Content: "html forms validation", Tags: []string{"web", "tutorial"}, Date: "2024-02-10"},
		{Slug: "misc-notes", Title: "Notes", Content: "assorted notes", Tags: []string{"misc"}, Date: "2024-03-01"},
	}
}

func newTestPipeline(t *testing.T, docs []models.Document, artifactDir string) *Pipeline {
	t.Helper()
	var artifacts *storage.Artifacts
	if artifactDir != "" {
		artifacts = storage.NewArtifacts(artifactDir)
	}
	return New(relate.DefaultConfig(), &fakeStore{docs: docs}, tokenize.SplitTokenizer{}, artifacts, zap.NewNop())
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	p := newTestPipeline(t, testCorpus(), dir)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.RunID == "" {
		t.Error("empty run ID")
	}
	if result.DocumentCount != 6 {
		t.Errorf("document count = %d, want 6", result.DocumentCount)
	}
	if len(result.Index) == 0 {
		t.Error("empty inverted index")
	}
	if len(result.Records) != 6 {
		t.Errorf("got %d records, want 6", len(result.Records))
	}
	// go and tutorial co-occur in 3 documents, enough to pass the thresholds.
	if _, ok := result.RelatedTags["go"]; !ok {
		t.Errorf("expected relatedness row for tag go, got %v", result.RelatedTags)
	}
	// The go documents share two tags and similar content.
	if len(result.RelatedPosts["go-basics"]) == 0 {
		t.Errorf("expected related posts for go-basics, got %v", result.RelatedPosts)
	}

	for _, name := range []string{
		storage.RelatedTagsFile,
		storage.RelatedPostsFile,
		storage.SearchIndexFile,
		storage.SearchRecordsFile,
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("artifact %s not written: %v", name, err)
		}
	}
}

func TestPipelineRunIDsDistinct(t *testing.T) {
	p := newTestPipeline(t, testCorpus(), "")

	first, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if first.RunID == second.RunID {
		t.Errorf("run IDs not distinct: %s", first.RunID)
	}
}

func TestPipelineNilArtifactsSkipsWrite(t *testing.T) {
	p := newTestPipeline(t, testCorpus(), "")
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestPipelineEmptyCorpus(t *testing.T) {
	p := newTestPipeline(t, nil, t.TempDir())
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.DocumentCount != 0 {
		t.Errorf("document count = %d, want 0", result.DocumentCount)
	}
	if len(result.Index) != 0 {
		t.Errorf("expected empty index, got %v", result.Index)
	}
}

func TestPipelineStoreErrorIsInitialization(t *testing.T) {
	p := New(relate.DefaultConfig(), &fakeStore{err: errors.New("boom")}, tokenize.SplitTokenizer{}, nil, zap.NewNop())

	_, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	kind, ok := relate.KindOf(err)
	if !ok || kind != relate.KindInitialization {
		t.Errorf("kind = %v (%v), want %v", kind, ok, relate.KindInitialization)
	}
}

func TestPipelineTokenizerFailureDegradesToEmptyWords(t *testing.T) {
	p := New(relate.DefaultConfig(), &fakeStore{docs: testCorpus()}, failingTokenizer{}, nil, zap.NewNop())

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Content similarity is gone but tag co-occurrence still ranks posts.
	if len(result.RelatedPosts["go-basics"]) == 0 {
		t.Errorf("expected tag-driven related posts, got %v", result.RelatedPosts)
	}
}

func TestPipelineCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestPipeline(t, testCorpus(), "")
	if _, err := p.Run(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}
