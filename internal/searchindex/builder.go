// Package searchindex builds the inverted search index and flat document
// records consumed by the runtime query engine. The build is a purely
// structural single pass; no scoring happens here.
package searchindex

import (
	"strings"
	"unicode"

	"github.com/hiro0218/kanren/internal/models"
)

// Build tokenizes each document's title and tags into the inverted index
// (token → slugs) and one flat record per document for display and the
// fallback title scan. Deterministic: postings keep first-seen document
// order and records keep corpus order.
func Build(docs []models.Document) (models.InvertedIndex, []models.SearchRecord) {
	index := models.InvertedIndex{}
	records := make([]models.SearchRecord, 0, len(docs))

	for _, doc := range docs {
		tokens := Tokenize(doc.Title + " " + strings.Join(doc.Tags, " "))
		for _, token := range tokens {
			if !containsSlug(index[token], doc.Slug) {
				index[token] = append(index[token], doc.Slug)
			}
		}
		records = append(records, models.SearchRecord{
			Slug:   doc.Slug,
			Title:  doc.Title,
			Tags:   doc.Tags,
			Tokens: tokens,
		})
	}
	return index, records
}

// Tokenize lowercases text and splits it on whitespace, trimming punctuation
// and symbols from token edges. The scheme is deliberately simple; it only
// needs to be stable and reproducible between index build and query time.
func Tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		token := strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		tokens = append(tokens, token)
	}
	return tokens
}

func containsSlug(slugs []string, slug string) bool {
	for _, s := range slugs {
		if s == slug {
			return true
		}
	}
	return false
}
