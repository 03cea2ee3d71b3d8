// Package storage loads the document corpus and persists the engine's
// output artifacts.
package storage

import (
	"context"

	"github.com/hiro0218/kanren/internal/models"
)

// Store supplies the corpus to the batch pipeline.
type Store interface {
	// Documents returns the full corpus.
	Documents(ctx context.Context) ([]models.Document, error)
	// TagIndex returns the tag → slugs mapping consistent with Documents.
	TagIndex(ctx context.Context) (models.TagIndex, error)
	Close() error
}
