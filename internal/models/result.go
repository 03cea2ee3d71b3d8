package models

// MatchType classifies how a search result matched the query.
type MatchType int

const (
	// MatchTypeNone indicates no token-level match (fallback title hit).
	MatchTypeNone MatchType = iota
	// MatchTypePartial indicates only substring token matches.
	MatchTypePartial
	// MatchTypeExact indicates at least one exact token match.
	MatchTypeExact
	// MatchTypeMultiTerm indicates a multi-token query with at least one
	// exact token match.
	MatchTypeMultiTerm
)

// String returns a string representation of the match type.
func (m MatchType) String() string {
	switch m {
	case MatchTypeNone:
		return "none"
	case MatchTypePartial:
		return "partial"
	case MatchTypeExact:
		return "exact"
	case MatchTypeMultiTerm:
		return "multi_term"
	default:
		return "unknown"
	}
}

// MatchedIn indicates which document fields contributed to a match.
type MatchedIn string

const (
	// MatchedInTitle means only the title matched.
	MatchedInTitle MatchedIn = "title"
	// MatchedInTag means only a tag matched.
	MatchedInTag MatchedIn = "tag"
	// MatchedInBoth means both title and tag matched.
	MatchedInBoth MatchedIn = "both"
)

// SearchResultItem is a single ranked search hit. Score and MatchType are
// ranking metadata; StripRanking removes them for consumers that only need
// the display fields.
type SearchResultItem struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags"`
	MatchType MatchType `json:"match_type,omitempty"`
	MatchedIn MatchedIn `json:"matched_in,omitempty"`
	Score     float64   `json:"score,omitempty"`
}

// StripRanking returns a copy of the item with the ranking metadata zeroed,
// keeping slug, title, tags, and matched-in for display.
func (s SearchResultItem) StripRanking() SearchResultItem {
	s.Score = 0
	s.MatchType = MatchTypeNone
	return s
}
