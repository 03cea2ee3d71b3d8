package relate

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hiro0218/kanren/internal/models"
)

// relatedFixture is a minimal symmetric relatedness map used across tests.
func relatedFixture() models.RelatedTagMap {
	return models.RelatedTagMap{
		"go":      {"web": 0.8, "backend": 0.6},
		"web":     {"go": 0.8},
		"backend": {"go": 0.6},
		"linux":   {"shell": 0.7},
		"shell":   {"linux": 0.7},
	}
}

func wordsFixture(docs []models.Document) map[string][]string {
	words := make(map[string][]string, len(docs))
	for _, doc := range docs {
		words[doc.Slug] = strings.Fields(DocumentText(doc, DefaultConfig()))
	}
	return words
}

func newEngine(docs []models.Document, related models.RelatedTagMap) *SimilarityEngine {
	return NewSimilarityEngine(DefaultConfig(), zap.NewNop(), docs, wordsFixture(docs), related)
}

func TestDocumentText(t *testing.T) {
	cfg := DefaultConfig()
	doc := models.Document{Title: "Go", Content: "body text"}
	text := DocumentText(doc, cfg)

	want := "Go Go Go body text"
	if text != want {
		t.Errorf("DocumentText() = %q, want %q", text, want)
	}
}

func TestDocumentText_BodyTruncated(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BodyLimit = 4
	doc := models.Document{Title: "T", Content: "こんにちは世界"}
	text := DocumentText(doc, cfg)

	want := "T T T こんにち"
	if text != want {
		t.Errorf("DocumentText() = %q, want %q", text, want)
	}
}

// Two documents with identical content but disjoint tags, and two documents
// with disjoint content but identical tags: both channels must contribute
// independently.
func TestSimilarity_BothChannelsContribute(t *testing.T) {
	docs := []models.Document{
		{Slug: "content-a", Title: "kubernetes deployment guide", Content: "rolling update strategy replicas", Tags: []string{"go"}},
		{Slug: "content-b", Title: "kubernetes deployment guide", Content: "rolling update strategy replicas", Tags: []string{"linux"}},
		{Slug: "tags-a", Title: "terminal tips", Content: "prompt customization aliases", Tags: []string{"go", "web"}},
		{Slug: "tags-b", Title: "profiling services", Content: "pprof flamegraph allocation", Tags: []string{"go", "web"}},
	}
	engine := newEngine(docs, relatedFixture())

	contentPair := engine.pairScore(docs[0], docs[1])
	if contentPair <= 0 {
		t.Errorf("identical content with disjoint tags scored %v, want > 0", contentPair)
	}

	tagPair := engine.pairScore(docs[2], docs[3])
	if tagPair <= 0 {
		t.Errorf("identical tags with disjoint content scored %v, want > 0", tagPair)
	}
}

func TestSimilarity_NoValidTagsScoresZeroTagChannel(t *testing.T) {
	docs := []models.Document{
		{Slug: "a", Title: "x", Content: "alpha beta", Tags: []string{"unknown1"}},
		{Slug: "b", Title: "y", Content: "gamma delta", Tags: []string{"unknown2"}},
	}
	engine := newEngine(docs, relatedFixture())

	if sim := engine.tagSimilarity(docs[0], docs[1]); sim != 0 {
		t.Errorf("tagSimilarity = %v, want 0 when neither side has valid tags", sim)
	}
}

func TestSimilarity_RecencyBonus(t *testing.T) {
	engine := newEngine([]models.Document{
		{Slug: "fresh-a", Date: "2026-08-01"},
		{Slug: "fresh-b", Date: "2026-08-01"},
		{Slug: "fresh-updated", Date: "2020-01-01", Updated: "2026-08-01"},
		{Slug: "old", Date: "2020-01-01"},
		{Slug: "undated", Date: "not a date"},
	}, models.RelatedTagMap{})

	if bonus := engine.recencyBonus("fresh-a", "fresh-b"); bonus != 0.1 {
		t.Errorf("same-day bonus = %v, want 0.1", bonus)
	}
	// Update date wins over the stale publish date.
	if bonus := engine.recencyBonus("fresh-a", "fresh-updated"); bonus != 0.1 {
		t.Errorf("updated-doc bonus = %v, want 0.1", bonus)
	}
	if bonus := engine.recencyBonus("fresh-a", "old"); bonus != 0 {
		t.Errorf("distant pair bonus = %v, want 0", bonus)
	}
	if bonus := engine.recencyBonus("fresh-a", "undated"); bonus != 0 {
		t.Errorf("unparseable date bonus = %v, want 0", bonus)
	}
}

func TestSimilarity_PairScoreMemoized(t *testing.T) {
	docs := []models.Document{
		{Slug: "a", Title: "one", Content: "shared words here", Tags: []string{"go"}},
		{Slug: "b", Title: "two", Content: "shared words here", Tags: []string{"go"}},
	}
	engine := newEngine(docs, relatedFixture())

	first := engine.pairScore(docs[0], docs[1])
	// Order-independent: the unordered pair key makes b,a hit the same entry.
	second := engine.pairScore(docs[1], docs[0])
	if first != second {
		t.Errorf("pair score should be symmetric and memoized: %v vs %v", first, second)
	}
	if len(engine.pairScores) != 1 {
		t.Errorf("pair cache has %d entries, want 1", len(engine.pairScores))
	}
}

func TestRelatedPosts_RankingAndCap(t *testing.T) {
	// One hub document sharing a tag with many others.
	docs := []models.Document{
		{Slug: "hub", Title: "go concurrency patterns", Content: "goroutine channel select worker pool", Tags: []string{"go", "web"}, Date: "2026-08-01"},
	}
	contents := []string{
		"goroutine channel select worker pool",
		"goroutine channel select worker",
		"goroutine channel select",
		"goroutine channel",
		"goroutine scheduling internals",
		"channel buffering semantics",
		"unrelated gardening topics entirely",
		"more unrelated cooking words",
	}
	for i, c := range contents {
		docs = append(docs, models.Document{
			Slug:    string(rune('a' + i)),
			Title:   "post",
			Content: c,
			Tags:    []string{"go"},
			Date:    "2026-08-01",
		})
	}
	engine := newEngine(docs, relatedFixture())

	result := engine.RelatedPosts()
	related, ok := result["hub"]
	if !ok {
		t.Fatal("hub should have related posts")
	}
	if len(related) > DefaultConfig().MaxRelatedPosts {
		t.Errorf("got %d related posts, cap is %d", len(related), DefaultConfig().MaxRelatedPosts)
	}
	for slug, score := range related {
		if score < DefaultConfig().MinSimilarityScore {
			t.Errorf("related[%s] = %v is below the minimum score", slug, score)
		}
		if score < 0 || score > 1 {
			t.Errorf("related[%s] = %v, want in [0, 1]", slug, score)
		}
	}
}

func TestRelatedPosts_SortOrderNonIncreasing(t *testing.T) {
	docs := []models.Document{
		{Slug: "target", Title: "go tips", Content: "goroutine channel select", Tags: []string{"go"}},
		{Slug: "close", Title: "go tips", Content: "goroutine channel select", Tags: []string{"go"}},
		{Slug: "far", Title: "other", Content: "goroutine only", Tags: []string{"go"}},
	}
	engine := newEngine(docs, relatedFixture())

	related, err := engine.relatedForTarget(0, map[string][]int{"go": {0, 1, 2}})
	if err != nil {
		t.Fatalf("relatedForTarget() error = %v", err)
	}
	if related == nil {
		t.Fatal("expected related posts for target")
	}
	if related["close"] < related["far"] {
		t.Errorf("closer document scored lower: close=%v far=%v", related["close"], related["far"])
	}
}

func TestRelatedPosts_FewCandidatesSkipped(t *testing.T) {
	docs := []models.Document{
		{Slug: "a", Title: "x", Content: "alpha", Tags: []string{"go"}},
		{Slug: "b", Title: "y", Content: "beta", Tags: []string{"go"}},
		{Slug: "loner", Title: "z", Content: "gamma", Tags: []string{"shell"}},
	}
	engine := newEngine(docs, relatedFixture())

	result := engine.RelatedPosts()
	// "a" and "b" each have exactly one candidate: below the minimum of 2.
	if _, ok := result["a"]; ok {
		t.Error("a has fewer than 2 candidates and should be skipped")
	}
	if _, ok := result["loner"]; ok {
		t.Error("loner shares no tags and should be skipped")
	}
}

func TestCandidates_SharedTagRankingAndCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCandidates = 2

	docs := []models.Document{
		{Slug: "target", Tags: []string{"go", "web", "backend"}},
		{Slug: "three-shared", Tags: []string{"go", "web", "backend"}},
		{Slug: "two-shared", Tags: []string{"go", "web"}},
		{Slug: "one-shared", Tags: []string{"go"}},
	}
	engine := NewSimilarityEngine(cfg, zap.NewNop(), docs, map[string][]string{}, relatedFixture())

	byTag := map[string][]int{
		"go":      {0, 1, 2, 3},
		"web":     {0, 1, 2},
		"backend": {0, 1},
	}
	got := engine.candidates(0, byTag)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want cap of 2", len(got))
	}
	if got[0] != 1 || got[1] != 2 {
		t.Errorf("candidates = %v, want [1 2] (ordered by shared-tag count)", got)
	}
}

func TestJaccardSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"go", "web"}, []string{"go", "web"}, 1},
		{"disjoint", []string{"go"}, []string{"web"}, 0},
		{"half overlap", []string{"go", "web"}, []string{"go", "cli"}, 1.0 / 3.0},
		{"both empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := jaccardSimilarity(tt.a, tt.b); got != tt.want {
				t.Errorf("jaccardSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}
