package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hiro0218/kanren/internal/models"
)

// Artifact file names within the output directory.
const (
	RelatedTagsFile   = "related-tags.json"
	RelatedPostsFile  = "related-posts.json"
	SearchIndexFile   = "search-index.json"
	SearchRecordsFile = "search-records.json"
)

// Artifacts reads and writes the engine's output data files. Writes are
// atomic (temp file + rename) so a crashed run never leaves a partial file
// for the consumers.
type Artifacts struct {
	dir string
}

// NewArtifacts creates an artifact store rooted at dir.
func NewArtifacts(dir string) *Artifacts {
	return &Artifacts{dir: dir}
}

// Dir returns the artifact directory.
func (a *Artifacts) Dir() string {
	return a.dir
}

// WriteRelatedTags persists the tag relatedness map.
func (a *Artifacts) WriteRelatedTags(m models.RelatedTagMap) error {
	return a.writeJSON(RelatedTagsFile, m)
}

// WriteRelatedPosts persists the related-posts map as an array of
// single-entry objects, the schema the downstream consumers expect.
func (a *Artifacts) WriteRelatedPosts(m models.RelatedPostsMap) error {
	entries := make([]models.RelatedPostsMap, 0, len(m))
	for slug, related := range m {
		entries = append(entries, models.RelatedPostsMap{slug: related})
	}
	return a.writeJSON(RelatedPostsFile, entries)
}

// WriteSearchIndex persists the inverted index.
func (a *Artifacts) WriteSearchIndex(index models.InvertedIndex) error {
	return a.writeJSON(SearchIndexFile, index)
}

// WriteSearchRecords persists the flat document records.
func (a *Artifacts) WriteSearchRecords(records []models.SearchRecord) error {
	return a.writeJSON(SearchRecordsFile, records)
}

// ReadRelatedTags loads the tag relatedness map.
func (a *Artifacts) ReadRelatedTags() (models.RelatedTagMap, error) {
	var m models.RelatedTagMap
	if err := a.readJSON(RelatedTagsFile, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadRelatedPosts loads the related-posts map, flattening the persisted
// array form back into one map.
func (a *Artifacts) ReadRelatedPosts() (models.RelatedPostsMap, error) {
	var entries []models.RelatedPostsMap
	if err := a.readJSON(RelatedPostsFile, &entries); err != nil {
		return nil, err
	}
	m := models.RelatedPostsMap{}
	for _, entry := range entries {
		for slug, related := range entry {
			m[slug] = related
		}
	}
	return m, nil
}

// ReadSearchIndex loads the inverted index.
func (a *Artifacts) ReadSearchIndex() (models.InvertedIndex, error) {
	var index models.InvertedIndex
	if err := a.readJSON(SearchIndexFile, &index); err != nil {
		return nil, err
	}
	return index, nil
}

// ReadSearchRecords loads the flat document records.
func (a *Artifacts) ReadSearchRecords() ([]models.SearchRecord, error) {
	var records []models.SearchRecord
	if err := a.readJSON(SearchRecordsFile, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (a *Artifacts) writeJSON(name string, v interface{}) error {
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	path := filepath.Join(a.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

func (a *Artifacts) readJSON(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(a.dir, name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}
