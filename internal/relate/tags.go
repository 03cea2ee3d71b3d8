package relate

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/hiro0218/kanren/internal/cache"
	"github.com/hiro0218/kanren/internal/models"
	"github.com/hiro0218/kanren/pkg/utils"
)

// npmiEpsilon guards the degenerate NPMI cases: a joint probability within
// this distance of 1, or a denominator below it.
const npmiEpsilon = 1e-10

// TagEngine computes pairwise NPMI relatedness between tags from document
// co-occurrence. Results are memoized in an LRU keyed by corpus shape.
type TagEngine struct {
	config  *Config
	logger  *zap.Logger
	results *cache.LRU[models.RelatedTagMap]
}

// NewTagEngine creates a tag relatedness engine.
func NewTagEngine(config *Config, logger *zap.Logger) *TagEngine {
	if config == nil {
		config = DefaultConfig()
	}
	config.ApplyDefaults()
	return &TagEngine{
		config:  config,
		logger:  logger,
		results: cache.New[models.RelatedTagMap](config.RelatedTagCacheSize),
	}
}

// Relatedness derives the symmetric tag relatedness map for the corpus.
// An empty corpus or tag index yields an empty map. Any internal failure
// abandons the whole computation and returns an empty map with a
// processing-kind error; no partial results are ever returned.
func (e *TagEngine) Relatedness(docs []models.Document, tagIndex models.TagIndex) (result models.RelatedTagMap, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tag relatedness computation abandoned", zap.Any("cause", r))
			result = models.RelatedTagMap{}
			err = NewError(KindProcessing, fmt.Sprintf("tag relatedness abandoned: %v", r))
		}
	}()

	if len(docs) == 0 || len(tagIndex) == 0 {
		e.logger.Warn("empty corpus or tag index, skipping tag relatedness",
			zap.Int("documents", len(docs)), zap.Int("tags", len(tagIndex)))
		return models.RelatedTagMap{}, nil
	}

	key := shapeKey(docs, tagIndex)
	if cached, ok := e.results.Get(key); ok {
		e.logger.Debug("tag relatedness cache hit", zap.String("key", key))
		return cached, nil
	}

	freq, co := countOccurrences(docs, tagIndex)

	totalDocs := float64(len(docs))
	valid := make(map[string]bool, len(freq))
	for tag, n := range freq {
		if n >= e.config.MinTagFrequency {
			valid[tag] = true
		}
	}

	result = models.RelatedTagMap{}
	for a, row := range co {
		if !valid[a] {
			continue
		}
		for b, n := range row {
			// Each unordered pair is scored once, a < b.
			if b <= a || !valid[b] || n < e.config.MinCoOccurrence {
				continue
			}
			pa := float64(freq[a]) / totalDocs
			pb := float64(freq[b]) / totalDocs
			pab := float64(n) / totalDocs

			score, ok := npmi(pa, pb, pab)
			if !ok || score <= e.config.NPMIThreshold {
				continue
			}
			if result[a] == nil {
				result[a] = make(map[string]float64)
			}
			if result[b] == nil {
				result[b] = make(map[string]float64)
			}
			result[a][b] = score
			result[b][a] = score
		}
	}

	e.results.Set(key, result)
	e.logger.Info("tag relatedness computed",
		zap.Int("documents", len(docs)),
		zap.Int("valid_tags", len(valid)),
		zap.Int("related_tags", len(result)))
	return result, nil
}

// countOccurrences makes the single corpus pass: per-tag document frequency
// and the symmetric co-occurrence matrix. Tags are deduplicated per document
// and validated against the tag index; documents without tags are skipped.
func countOccurrences(docs []models.Document, tagIndex models.TagIndex) (map[string]int, map[string]map[string]int) {
	freq := make(map[string]int)
	co := make(map[string]map[string]int)

	for _, doc := range docs {
		tags := uniqueKnownTags(doc.Tags, tagIndex)
		if len(tags) == 0 {
			continue
		}
		for _, t := range tags {
			freq[t]++
		}
		for i := 0; i < len(tags); i++ {
			for j := i + 1; j < len(tags); j++ {
				a, b := tags[i], tags[j]
				if co[a] == nil {
					co[a] = make(map[string]int)
				}
				if co[b] == nil {
					co[b] = make(map[string]int)
				}
				co[a][b]++
				co[b][a]++
			}
		}
	}
	return freq, co
}

// uniqueKnownTags deduplicates tags and keeps only those present in the tag
// index, which is ground truth for tag membership.
func uniqueKnownTags(tags []string, tagIndex models.TagIndex) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		if _, ok := tagIndex[t]; !ok {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// npmi computes normalized pointwise mutual information for probabilities
// pa, pb and joint probability pab, rounded to 4 decimal places and clipped
// to at most 1. The second return value is false for non-finite results.
func npmi(pa, pb, pab float64) (float64, bool) {
	if pa <= 0 || pb <= 0 || pab <= 0 {
		return 0, false
	}
	// The pair occurs in every document: perfect association.
	if math.Abs(pab-1) < npmiEpsilon {
		return 1, true
	}
	pmi := math.Log(pab / (pa * pb))
	denom := -math.Log(pab)
	var score float64
	if denom < npmiEpsilon {
		switch {
		case pmi > 0:
			score = 1
		case pmi < 0:
			score = -1
		default:
			score = 0
		}
	} else {
		score = pmi / denom
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, false
	}
	if score > 1 {
		score = 1
	}
	return utils.Round4(score), true
}

// shapeKey builds the approximate cache key from corpus shape: document
// count, tag count, and the maximum tags on any one document. Distinct
// corpora with identical shape collide; this is a documented tradeoff.
func shapeKey(docs []models.Document, tagIndex models.TagIndex) string {
	maxTags := 0
	for _, doc := range docs {
		if len(doc.Tags) > maxTags {
			maxTags = len(doc.Tags)
		}
	}
	return fmt.Sprintf("%d-%d-%d", len(docs), len(tagIndex), maxTags)
}

// ScoredTag pairs a tag with its relatedness score.
type ScoredTag struct {
	Tag   string  `json:"tag"`
	Score float64 `json:"score"`
}

// SortedRelated returns the related tags of row ordered by score descending,
// ties broken by tag name ascending for determinism.
func SortedRelated(row map[string]float64) []ScoredTag {
	out := make([]ScoredTag, 0, len(row))
	for tag, score := range row {
		out = append(out, ScoredTag{Tag: tag, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}
