// Package e2e provides end-to-end tests with a large corpus and multiple queries.
package e2e

import (
	"fmt"

	"github.com/hiro0218/kanren/internal/models"
)

// QueryTestCase defines a query and the slug(s) that must appear in search
// results. At least one of ExpectedSlugs must be present.
type QueryTestCase struct {
	Query         string
	ExpectedSlugs []string
	Description   string
}

// Corpus holds documents and query test cases for E2E tests.
type Corpus struct {
	Documents    []models.Document
	TestCases    []QueryTestCase
	TotalDocs    int
	TotalQueries int
}

// BuildCorpus returns a corpus of 100 documents with varied titles and tags
// and multiple query test cases. Each topic has a unique signature word so
// queries can assert the correct document is returned.
func BuildCorpus() *Corpus {
	docs := buildDocuments(100)
	cases := buildQueryTestCases()
	return &Corpus{
		Documents:    docs,
		TestCases:    cases,
		TotalDocs:    len(docs),
		TotalQueries: len(cases),
	}
}

var topics = []struct {
	title   string
	content string
	tags    []string
}{
	{"Python Guide", "python is a high-level language used for scripting and data science", []string{"python", "programming"}},
	{"Kubernetes Docs", "kubernetes orchestrates containers and automates deployment", []string{"kubernetes", "infrastructure"}},
	{"React Tutorial", "react hooks and components build user interfaces", []string{"react", "javascript", "frontend"}},
	{"Go Language", "go concurrency uses goroutines and channels", []string{"go", "programming"}},
	{"PostgreSQL Manual", "postgresql supports json columns and full-text search", []string{"postgresql", "database"}},
	{"Docker Handbook", "docker images are portable across environments", []string{"docker", "infrastructure"}},
	{"TypeScript Primer", "typescript adds static types to javascript", []string{"typescript", "javascript"}},
	{"Nginx Cookbook", "nginx serves static files and proxies requests", []string{"nginx", "infrastructure"}},
	{"Redis Patterns", "redis caches hot data with low latency", []string{"redis", "database"}},
	{"Vim Tips", "vim motions and registers speed up editing", []string{"vim", "tools"}},
}

func buildDocuments(n int) []models.Document {
	docs := make([]models.Document, 0, n)
	for i := 0; i < n; i++ {
		topic := topics[i%len(topics)]
		day := i%27 + 1
		docs = append(docs, models.Document{
			Slug:    fmt.Sprintf("%s-%03d", topic.tags[0], i),
			Title:   fmt.Sprintf("%s Part %d", topic.title, i/len(topics)+1),
			Content: topic.content,
			Tags:    topic.tags,
			Date:    fmt.Sprintf("2024-01-%02d", day),
		})
	}
	return docs
}

func buildQueryTestCases() []QueryTestCase {
	return []QueryTestCase{
		{
			Query:         "python",
			ExpectedSlugs: []string{"python-000", "python-010"},
			Description:   "single exact token",
		},
		{
			Query:         "Kubernetes",
			ExpectedSlugs: []string{"kubernetes-001"},
			Description:   "query is case-insensitive",
		},
		{
			Query:         "type",
			ExpectedSlugs: []string{"typescript-006"},
			Description:   "partial token match",
		},
		{
			Query:         "react tutorial",
			ExpectedSlugs: []string{"react-002", "react-012"},
			Description:   "multi-token AND query",
		},
		{
			Query:         "nginx cookbook",
			ExpectedSlugs: []string{"nginx-007"},
			Description:   "title phrase",
		},
		{
			Query:         "postgresql",
			ExpectedSlugs: []string{"postgresql-004"},
			Description:   "tag and title token",
		},
	}
}

// SlugsOf extracts the slugs from a result list.
func SlugsOf(results []models.SearchResultItem) []string {
	slugs := make([]string, 0, len(results))
	for _, r := range results {
		slugs = append(slugs, r.Slug)
	}
	return slugs
}

// ContainsAny reports whether got contains at least one of expected.
func ContainsAny(got, expected []string) bool {
	set := make(map[string]bool, len(got))
	for _, s := range got {
		set[s] = true
	}
	for _, s := range expected {
		if set[s] {
			return true
		}
	}
	return false
}
