// Package search provides the runtime free-text query engine over the built
// inverted index, plus an LRU-cached wrapper.
package search

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hiro0218/kanren/internal/models"
)

// Scoring bonuses. Base hits are worth exactMatchWeight/partialMatchWeight
// per matched index token; the rest are additive bonuses on top.
const (
	exactMatchWeight    = 10
	partialMatchWeight  = 3
	titleSubstringBonus = 50
	tagExactBonus       = 30
	tagContainsBonus    = 15
	tagContainedBonus   = 10
	allExactBonus       = 20
	compoundWordBonus   = 40

	fallbackBaseScore       = 5
	fallbackExactTitleBonus = 30
	fallbackWordBoundary    = 20
	fallbackPositionMax     = 10
)

// DefaultMaxResults caps the merged result list.
const DefaultMaxResults = 100

// Engine answers free-text queries against a read-only inverted index and
// record list. It is safe for concurrent readers; construct once per loaded
// index.
type Engine struct {
	index      models.InvertedIndex
	records    []models.SearchRecord
	bySlug     map[string]models.SearchRecord
	maxResults int
	logger     *zap.Logger
}

// NewEngine creates a query engine over the built artifacts.
func NewEngine(index models.InvertedIndex, records []models.SearchRecord, maxResults int, logger *zap.Logger) *Engine {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	bySlug := make(map[string]models.SearchRecord, len(records))
	for _, r := range records {
		bySlug[r.Slug] = r
	}
	return &Engine{
		index:      index,
		records:    records,
		bySlug:     bySlug,
		maxResults: maxResults,
		logger:     logger,
	}
}

// RecordCount returns the number of indexed documents.
func (e *Engine) RecordCount() int {
	return len(e.records)
}

// candidate accumulates match evidence for one document during a query.
type candidate struct {
	exact       int
	partial     int
	matched     map[string]bool // query tokens matched by any index token
	exactTokens map[string]bool // query tokens matched exactly
	compound    bool
}

// Search runs the query and returns ranked results with ranking metadata
// retained. Empty or whitespace-only queries yield an empty list; malformed
// input never produces an error.
func (e *Engine) Search(query string) []models.SearchResultItem {
	queryNorm := strings.ToLower(strings.TrimSpace(query))
	tokens := strings.Fields(queryNorm)
	if len(tokens) == 0 {
		return []models.SearchResultItem{}
	}

	candidates := e.collectCandidates(tokens)

	results := make([]models.SearchResultItem, 0, len(candidates))
	found := make(map[string]bool, len(candidates))
	for slug, c := range candidates {
		// AND semantics: multi-token queries require every token to have
		// matched somewhere.
		if len(tokens) > 1 && len(c.matched) < len(tokens) {
			continue
		}
		record, ok := e.bySlug[slug]
		if !ok {
			continue
		}
		results = append(results, e.scoreCandidate(record, c, queryNorm, tokens))
		found[slug] = true
	}

	sortResults(results)
	if len(results) > e.maxResults {
		results = results[:e.maxResults]
	}

	if len(results) < e.maxResults {
		fallback := e.fallbackTitleScan(queryNorm, found)
		if len(results)+len(fallback) > e.maxResults {
			fallback = fallback[:e.maxResults-len(results)]
		}
		results = append(results, fallback...)
	}
	return results
}

// SearchStripped runs the query and strips the ranking metadata from each
// item, for consumers that only need display fields.
func (e *Engine) SearchStripped(query string) []models.SearchResultItem {
	results := e.Search(query)
	stripped := make([]models.SearchResultItem, len(results))
	for i, r := range results {
		stripped[i] = r.StripRanking()
	}
	return stripped
}

// collectCandidates walks the index once per query token gathering exact and
// substring matches, then marks compound-word hits (all query tokens inside
// one single index token).
func (e *Engine) collectCandidates(tokens []string) map[string]*candidate {
	candidates := make(map[string]*candidate)

	get := func(slug string) *candidate {
		c, ok := candidates[slug]
		if !ok {
			c = &candidate{matched: make(map[string]bool), exactTokens: make(map[string]bool)}
			candidates[slug] = c
		}
		return c
	}

	for indexToken, slugs := range e.index {
		inside := 0
		for _, qt := range tokens {
			switch {
			case indexToken == qt:
				inside++
				for _, slug := range slugs {
					c := get(slug)
					c.exact++
					c.matched[qt] = true
					c.exactTokens[qt] = true
				}
			case strings.Contains(indexToken, qt):
				inside++
				for _, slug := range slugs {
					c := get(slug)
					c.partial++
					c.matched[qt] = true
				}
			}
		}
		if len(tokens) > 1 && inside == len(tokens) {
			for _, slug := range slugs {
				get(slug).compound = true
			}
		}
	}
	return candidates
}

// scoreCandidate computes the additive score and match classification for
// one indexed hit.
func (e *Engine) scoreCandidate(record models.SearchRecord, c *candidate, queryNorm string, tokens []string) models.SearchResultItem {
	score := float64(c.exact*exactMatchWeight + c.partial*partialMatchWeight)

	titleLower := strings.ToLower(record.Title)
	titleHit := strings.Contains(titleLower, queryNorm)
	if titleHit {
		score += titleSubstringBonus
	}

	tagHit := false
	for _, tag := range record.Tags {
		tagLower := strings.ToLower(tag)
		for _, qt := range tokens {
			switch {
			case tagLower == qt:
				score += tagExactBonus
				tagHit = true
			case strings.Contains(tagLower, qt):
				score += tagContainsBonus
				tagHit = true
			case strings.Contains(qt, tagLower):
				score += tagContainedBonus
				tagHit = true
			}
		}
	}

	if len(tokens) > 1 && len(c.exactTokens) == len(tokens) {
		score += allExactBonus
	}
	if c.compound {
		score += compoundWordBonus
	}

	if !titleHit {
		for _, qt := range tokens {
			if strings.Contains(titleLower, qt) {
				titleHit = true
				break
			}
		}
	}

	return models.SearchResultItem{
		Slug:      record.Slug,
		Title:     record.Title,
		Tags:      record.Tags,
		Score:     score,
		MatchType: classifyMatch(c, tokens),
		MatchedIn: classifyMatchedIn(titleHit, tagHit),
	}
}

func classifyMatch(c *candidate, tokens []string) models.MatchType {
	switch {
	case len(tokens) > 1 && c.exact > 0:
		return models.MatchTypeMultiTerm
	case c.exact > 0:
		return models.MatchTypeExact
	case c.partial > 0:
		return models.MatchTypePartial
	default:
		return models.MatchTypeNone
	}
}

func classifyMatchedIn(titleHit, tagHit bool) models.MatchedIn {
	switch {
	case titleHit && tagHit:
		return models.MatchedInBoth
	case tagHit:
		return models.MatchedInTag
	default:
		return models.MatchedInTitle
	}
}

// fallbackTitleScan finds documents the index missed by scanning raw titles
// for the whole normalized query string.
func (e *Engine) fallbackTitleScan(queryNorm string, found map[string]bool) []models.SearchResultItem {
	var results []models.SearchResultItem
	for _, record := range e.records {
		if found[record.Slug] {
			continue
		}
		titleLower := strings.ToLower(record.Title)
		idx := strings.Index(titleLower, queryNorm)
		if idx < 0 {
			continue
		}

		score := float64(fallbackBaseScore)
		if titleLower == queryNorm {
			score += fallbackExactTitleBonus
		}
		if idx == 0 {
			score += fallbackWordBoundary
		} else if prev, _ := utf8.DecodeLastRuneInString(titleLower[:idx]); isBoundary(prev) {
			score += fallbackWordBoundary
		}
		if pos := fallbackPositionMax - idx/10; pos > 0 {
			score += float64(pos)
		}

		results = append(results, models.SearchResultItem{
			Slug:      record.Slug,
			Title:     record.Title,
			Tags:      record.Tags,
			Score:     score,
			MatchType: models.MatchTypeNone,
			MatchedIn: models.MatchedInTitle,
		})
	}
	sortResults(results)
	return results
}

func isBoundary(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// sortResults orders by score descending with slug ascending tie-break for
// stable output.
func sortResults(results []models.SearchResultItem) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Slug < results[j].Slug
	})
}
