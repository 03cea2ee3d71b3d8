package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hiro0218/kanren/internal/models"
)

// JSONStore reads the corpus from the content pipeline's JSON exports:
// a posts file (array of documents) and a tags file (tag → slugs map).
type JSONStore struct {
	postsPath string
	tagsPath  string
}

// NewJSONStore creates a store over the given file paths. Files are read on
// demand, not at construction.
func NewJSONStore(postsPath, tagsPath string) *JSONStore {
	return &JSONStore{postsPath: postsPath, tagsPath: tagsPath}
}

// Documents reads and decodes the posts file.
func (s *JSONStore) Documents(ctx context.Context) ([]models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.postsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read posts: %w", err)
	}
	var docs []models.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse posts: %w", err)
	}
	return docs, nil
}

// TagIndex reads and decodes the tags file. When the tags file is absent the
// index is derived from the documents instead.
func (s *JSONStore) TagIndex(ctx context.Context) (models.TagIndex, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.tagsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return s.deriveTagIndex(ctx)
		}
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}
	var idx models.TagIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse tags: %w", err)
	}
	return idx, nil
}

func (s *JSONStore) deriveTagIndex(ctx context.Context) (models.TagIndex, error) {
	docs, err := s.Documents(ctx)
	if err != nil {
		return nil, err
	}
	return DeriveTagIndex(docs), nil
}

// Close is a no-op for file-backed stores.
func (s *JSONStore) Close() error {
	return nil
}

// DeriveTagIndex builds a tag index from the documents' own tag lists.
func DeriveTagIndex(docs []models.Document) models.TagIndex {
	idx := models.TagIndex{}
	for _, doc := range docs {
		seen := make(map[string]bool, len(doc.Tags))
		for _, tag := range doc.Tags {
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			idx[tag] = append(idx[tag], doc.Slug)
		}
	}
	return idx
}
