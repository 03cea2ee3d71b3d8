// Package cli provides CLI output utilities for Kanren.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hiro0218/kanren/internal/models"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, query string, results []models.SearchResultItem, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"query":   query,
			"count":   len(results),
			"results": results,
		})
	default:
		writeSearchResultsText(w, query, results)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, query string, results []models.SearchResultItem) {
	fmt.Fprintf(w, "\nFound %d results for %q\n\n", len(results), query)
	for rank, result := range results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.1f | Match: %s (%s)\n",
			rank+1, result.Score, result.MatchType, result.MatchedIn)
		fmt.Fprintf(w, "Slug: %s\n", result.Slug)
		if result.Title != "" {
			fmt.Fprintf(w, "Title: %s\n", result.Title)
		}
		if len(result.Tags) > 0 {
			fmt.Fprintf(w, "Tags: %s\n", strings.Join(result.Tags, ", "))
		}
		fmt.Fprintln(w)
	}
}

// PrintSearchResults prints search results to stdout in text format.
func PrintSearchResults(query string, results []models.SearchResultItem) {
	_ = WriteSearchResults(os.Stdout, query, results, OutputText)
}
