package relate

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hiro0218/kanren/internal/models"
	"github.com/hiro0218/kanren/pkg/utils"
)

// dateLayouts are tried in order when parsing document dates. Unparseable
// dates degrade to "no recency bonus" rather than erroring.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DocumentText builds the text used for a document's TF-IDF vector: the
// title repeated TitleWeight times (to weight title terms) followed by the
// body truncated to BodyLimit runes.
func DocumentText(doc models.Document, cfg *Config) string {
	var b strings.Builder
	for i := 0; i < cfg.TitleWeight; i++ {
		b.WriteString(doc.Title)
		b.WriteString(" ")
	}
	b.WriteString(utils.TruncateRunes(doc.Content, cfg.BodyLimit))
	return b.String()
}

// SimilarityEngine ranks related documents by a weighted combination of tag
// similarity, TF-IDF cosine content similarity, and a recency bonus.
// Construct one per batch run: the vectorizer and pair cache are only valid
// while the corpus aggregates stay fixed.
type SimilarityEngine struct {
	config      *Config
	logger      *zap.Logger
	docs        []models.Document
	wordsBySlug map[string][]string
	related     models.RelatedTagMap
	vectorizer  *Vectorizer
	pairScores  map[string]float64
	docTimes    map[string]time.Time
}

// NewSimilarityEngine creates a similarity engine over a tokenized corpus
// and a precomputed tag relatedness map. Both aggregates must be complete
// before construction; the engine itself runs sequentially.
func NewSimilarityEngine(
	config *Config,
	logger *zap.Logger,
	docs []models.Document,
	wordsBySlug map[string][]string,
	related models.RelatedTagMap,
) *SimilarityEngine {
	if config == nil {
		config = DefaultConfig()
	}
	config.ApplyDefaults()

	docTimes := make(map[string]time.Time, len(docs))
	for _, doc := range docs {
		docTimes[doc.Slug] = newestTime(doc)
	}

	return &SimilarityEngine{
		config:      config,
		logger:      logger,
		docs:        docs,
		wordsBySlug: wordsBySlug,
		related:     related,
		vectorizer:  NewVectorizer(wordsBySlug),
		pairScores:  make(map[string]float64),
		docTimes:    docTimes,
	}
}

// RelatedPosts computes the ranked related-document map for every document
// in the corpus. A failure while scoring one target is isolated: that
// target is skipped and the batch continues.
func (e *SimilarityEngine) RelatedPosts() models.RelatedPostsMap {
	byTag := make(map[string][]int)
	for i, doc := range e.docs {
		for _, tag := range uniqueTags(doc.Tags) {
			byTag[tag] = append(byTag[tag], i)
		}
	}

	result := models.RelatedPostsMap{}
	for i := range e.docs {
		related, err := e.relatedForTarget(i, byTag)
		if err != nil {
			e.logger.Warn("related posts skipped for document",
				zap.String("slug", e.docs[i].Slug), zap.Error(err))
			continue
		}
		if related != nil {
			result[e.docs[i].Slug] = related
		}
	}
	return result
}

// relatedForTarget scores the candidate set for one target document and
// returns its ranked related map, or nil when the target has too few
// candidates. Panics inside the scoring math are converted to a
// processing-kind error so one document cannot abort the batch.
func (e *SimilarityEngine) relatedForTarget(target int, byTag map[string][]int) (related map[string]float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			related = nil
			err = NewError(KindProcessing, "candidate scoring failed")
		}
	}()

	candidates := e.candidates(target, byTag)
	if len(candidates) < 2 {
		return nil, nil
	}

	type scored struct {
		slug  string
		score float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		score := e.pairScore(e.docs[target], e.docs[c])
		if score >= e.config.MinSimilarityScore {
			ranked = append(ranked, scored{slug: e.docs[c].Slug, score: score})
		}
	}
	if len(ranked) == 0 {
		return nil, nil
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].slug < ranked[j].slug
	})
	if len(ranked) > e.config.MaxRelatedPosts {
		ranked = ranked[:e.config.MaxRelatedPosts]
	}

	related = make(map[string]float64, len(ranked))
	for _, r := range ranked {
		related[r.slug] = r.score
	}
	return related, nil
}

// candidates returns the indices of other documents sharing at least one
// tag with the target, ranked by shared-tag count and capped at
// MaxCandidates.
func (e *SimilarityEngine) candidates(target int, byTag map[string][]int) []int {
	shared := make(map[int]int)
	for _, tag := range uniqueTags(e.docs[target].Tags) {
		for _, i := range byTag[tag] {
			if i != target {
				shared[i]++
			}
		}
	}

	out := make([]int, 0, len(shared))
	for i := range shared {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool {
		if shared[out[a]] != shared[out[b]] {
			return shared[out[a]] > shared[out[b]]
		}
		return out[a] < out[b]
	})
	if len(out) > e.config.MaxCandidates {
		out = out[:e.config.MaxCandidates]
	}
	return out
}

// pairScore returns the combined similarity for an unordered document pair,
// memoized for the batch.
func (e *SimilarityEngine) pairScore(a, b models.Document) float64 {
	key := pairKey(a.Slug, b.Slug)
	if score, ok := e.pairScores[key]; ok {
		return score
	}

	tagSim := e.tagSimilarity(a, b)
	contentSim := Cosine(
		e.vectorizer.Vector(a.Slug, e.wordsBySlug[a.Slug]),
		e.vectorizer.Vector(b.Slug, e.wordsBySlug[b.Slug]),
	)
	bonus := e.recencyBonus(a.Slug, b.Slug)

	score := e.config.TagWeight*tagSim + e.config.ContentWeight*contentSim
	if score < 0 {
		score = 0
	}
	score = utils.Round4(score * (1 + bonus))

	e.pairScores[key] = score
	return score
}

// tagSimilarity combines Jaccard overlap of the valid tags with the average
// NPMI of cross pairs above a dynamic threshold that loosens for documents
// carrying many tags.
func (e *SimilarityEngine) tagSimilarity(a, b models.Document) float64 {
	tagsA := e.validTags(a.Tags)
	tagsB := e.validTags(b.Tags)
	if len(tagsA) == 0 && len(tagsB) == 0 {
		return 0
	}

	jaccard := jaccardSimilarity(tagsA, tagsB)

	minTags := len(tagsA)
	if len(tagsB) < minTags {
		minTags = len(tagsB)
	}
	threshold := 0.5 * (1 - 0.1*float64(minTags))

	var sum float64
	var count int
	for _, ta := range tagsA {
		row := e.related[ta]
		if row == nil {
			continue
		}
		for _, tb := range tagsB {
			if ta == tb {
				continue
			}
			if npmi, ok := row[tb]; ok && npmi > threshold {
				sum += npmi
				count++
			}
		}
	}
	relatedScore := 0.0
	if count > 0 {
		relatedScore = sum / float64(count)
	}

	return e.config.JaccardWeight*jaccard + e.config.RelatedWeight*relatedScore
}

// validTags deduplicates tags and keeps those present in the relatedness map.
func (e *SimilarityEngine) validTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		if _, ok := e.related[t]; !ok {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// recencyBonus rewards pairs published (or updated) close together in time:
// RecencyBonusMax at zero distance, fading linearly to 0 over
// RecencyWindowDays. Unparseable dates contribute no bonus.
func (e *SimilarityEngine) recencyBonus(slugA, slugB string) float64 {
	ta, tb := e.docTimes[slugA], e.docTimes[slugB]
	if ta.IsZero() || tb.IsZero() {
		return 0
	}
	days := ta.Sub(tb).Hours() / 24
	if days < 0 {
		days = -days
	}
	closeness := 1 - days/e.config.RecencyWindowDays
	if closeness < 0 {
		closeness = 0
	}
	return e.config.RecencyBonusMax * closeness
}

// newestTime parses the newer of the update and publish dates; zero when
// neither parses.
func newestTime(doc models.Document) time.Time {
	published := parseDate(doc.Date)
	updated := parseDate(doc.Updated)
	if updated.After(published) {
		return updated
	}
	return published
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func jaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}
	intersection := 0
	union := len(a)
	for _, t := range b {
		if setA[t] {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func uniqueTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}
