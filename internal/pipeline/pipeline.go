// Package pipeline runs the batch build: load corpus, compute tag
// relatedness, tokenize, rank related posts, build the search index, and
// persist the artifacts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hiro0218/kanren/internal/models"
	"github.com/hiro0218/kanren/internal/relate"
	"github.com/hiro0218/kanren/internal/searchindex"
	"github.com/hiro0218/kanren/internal/storage"
	"github.com/hiro0218/kanren/internal/tokenize"
	"github.com/hiro0218/kanren/pkg/utils"
)

// Pipeline wires the corpus store, tokenizer, and engines into one build run.
type Pipeline struct {
	config    *relate.Config
	store     storage.Store
	tokenizer tokenize.Tokenizer
	artifacts *storage.Artifacts
	logger    *zap.Logger
}

// Result summarizes one completed build run.
type Result struct {
	RunID         string
	DocumentCount int
	RelatedTags   models.RelatedTagMap
	RelatedPosts  models.RelatedPostsMap
	Index         models.InvertedIndex
	Records       []models.SearchRecord
	Duration      time.Duration
}

// New creates a pipeline. artifacts may be nil to skip persisting outputs
// (used by the server, which keeps results in memory).
func New(
	cfg *relate.Config,
	store storage.Store,
	tokenizer tokenize.Tokenizer,
	artifacts *storage.Artifacts,
	logger *zap.Logger,
) *Pipeline {
	if cfg == nil {
		cfg = relate.DefaultConfig()
	}
	cfg.ApplyDefaults()
	return &Pipeline{
		config:    cfg,
		store:     store,
		tokenizer: tokenizer,
		artifacts: artifacts,
		logger:    logger,
	}
}

// Run executes the full build. Phases run in order; tokenization is the only
// concurrent phase. Per-document tokenization failures degrade to empty word
// lists, so one pathological document never sinks the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := p.logger.With(zap.String("run_id", runID))

	docs, err := p.store.Documents(ctx)
	if err != nil {
		return nil, relate.WrapError(relate.KindInitialization, "failed to load corpus", err)
	}
	tagIndex, err := p.store.TagIndex(ctx)
	if err != nil {
		return nil, relate.WrapError(relate.KindInitialization, "failed to load tag index", err)
	}
	log.Info("corpus loaded",
		zap.Int("documents", len(docs)),
		zap.Int("tags", len(tagIndex)))

	tagEngine := relate.NewTagEngine(p.config, p.logger)
	relatedTags, err := tagEngine.Relatedness(docs, tagIndex)
	if err != nil {
		return nil, err
	}
	log.Info("tag relatedness computed", zap.Int("tags_with_relations", len(relatedTags)))

	wordsBySlug, err := p.tokenizeCorpus(ctx, docs)
	if err != nil {
		return nil, err
	}

	simEngine := relate.NewSimilarityEngine(p.config, p.logger, docs, wordsBySlug, relatedTags)
	relatedPosts := simEngine.RelatedPosts()
	log.Info("related posts ranked", zap.Int("documents_with_related", len(relatedPosts)))

	index, records := searchindex.Build(docs)
	log.Info("search index built",
		zap.Int("tokens", len(index)),
		zap.Int("records", len(records)))

	if p.artifacts != nil {
		if err := p.writeArtifacts(relatedTags, relatedPosts, index, records); err != nil {
			return nil, err
		}
		log.Info("artifacts written", zap.String("dir", p.artifacts.Dir()))
	}

	return &Result{
		RunID:         runID,
		DocumentCount: len(docs),
		RelatedTags:   relatedTags,
		RelatedPosts:  relatedPosts,
		Index:         index,
		Records:       records,
		Duration:      time.Since(start),
	}, nil
}

// tokenizeCorpus tokenizes every document concurrently in sequential batches.
// Batch boundaries bound peak memory; within a batch the worker count is
// capped at the CPU count. A document that exceeds its tokenization deadline
// gets an empty word list and a warning.
func (p *Pipeline) tokenizeCorpus(ctx context.Context, docs []models.Document) (map[string][]string, error) {
	words := make(map[string][]string, len(docs))
	results := make([][]string, len(docs))

	batchSize := utils.ClampInt(50*runtime.NumCPU(), 100, 400)
	timeout := time.Duration(p.config.TokenizeTimeoutSeconds) * time.Second

	for lo := 0; lo < len(docs); lo += batchSize {
		hi := lo + batchSize
		if hi > len(docs) {
			hi = len(docs)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.NumCPU())
		for i := lo; i < hi; i++ {
			i := i
			g.Go(func() error {
				results[i] = p.tokenizeDocument(gctx, docs[i], timeout)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, relate.WrapError(relate.KindProcessing, "tokenization batch failed", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, relate.WrapError(relate.KindProcessing, "tokenization cancelled", err)
		}
	}

	for i, doc := range docs {
		words[doc.Slug] = results[i]
	}
	return words, nil
}

func (p *Pipeline) tokenizeDocument(ctx context.Context, doc models.Document, timeout time.Duration) []string {
	docCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text := relate.DocumentText(doc, p.config)
	tokens, err := p.tokenizer.Tokenize(docCtx, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = relate.WrapError(relate.KindDocumentTimeout, "tokenization deadline exceeded", err)
		}
		p.logger.Warn("tokenization failed, using empty word list",
			zap.String("slug", doc.Slug),
			zap.Error(err))
		return nil
	}
	return tokenize.MeaningfulWords(tokens)
}

func (p *Pipeline) writeArtifacts(
	tags models.RelatedTagMap,
	posts models.RelatedPostsMap,
	index models.InvertedIndex,
	records []models.SearchRecord,
) error {
	steps := []struct {
		name  string
		write func() error
	}{
		{storage.RelatedTagsFile, func() error { return p.artifacts.WriteRelatedTags(tags) }},
		{storage.RelatedPostsFile, func() error { return p.artifacts.WriteRelatedPosts(posts) }},
		{storage.SearchIndexFile, func() error { return p.artifacts.WriteSearchIndex(index) }},
		{storage.SearchRecordsFile, func() error { return p.artifacts.WriteSearchRecords(records) }},
	}
	for _, step := range steps {
		if err := step.write(); err != nil {
			return relate.WrapError(relate.KindProcessing, fmt.Sprintf("failed to write %s", step.name), err)
		}
	}
	return nil
}
