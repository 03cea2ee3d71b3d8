// Package models defines core data structures for documents, indices, and search results.
package models

// Document represents one published post as supplied by the content pipeline.
// Documents are immutable inputs; the engines never mutate them.
type Document struct {
	// Slug is the unique identifier of the document.
	Slug string `json:"slug"`
	// Title is the display title.
	Title string `json:"title"`
	// Content is the raw body text (markup already stripped upstream).
	Content string `json:"content"`
	// Tags is the document's tag list. Order is preserved for display but
	// irrelevant for scoring.
	Tags []string `json:"tags"`
	// Date is the publish date as an ISO-8601-ish string. Parsed defensively.
	Date string `json:"date"`
	// Updated is the optional last-update date string.
	Updated string `json:"updated,omitempty"`
}

// TagIndex maps a tag to the slugs of documents carrying it. It is supplied
// by the content pipeline and treated as ground truth for tag membership.
type TagIndex map[string][]string

// RelatedTagMap maps a tag to its related tags with NPMI scores in (0, 1].
// Symmetric by construction: if a→b is present, b→a is present with the
// same score.
type RelatedTagMap map[string]map[string]float64

// RelatedPostsMap maps a document slug to related slugs with combined
// similarity scores in (0, 1].
type RelatedPostsMap map[string]map[string]float64

// InvertedIndex maps a lowercase token to the slugs of documents whose
// title or tags contain it. Built once at index-build time; read-only
// afterwards.
type InvertedIndex map[string][]string

// SearchRecord is the flat per-document record persisted alongside the
// inverted index, used for display and for the fallback title scan.
type SearchRecord struct {
	Slug   string   `json:"slug"`
	Title  string   `json:"title"`
	Tags   []string `json:"tags"`
	Tokens []string `json:"tokens"`
}
