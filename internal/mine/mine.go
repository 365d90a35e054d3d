// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mine runs the corpus pass: parallel classification of paragraphs
// feeding the sharded evidence aggregator. Classification is embarrassingly
// parallel; the aggregator is the only serialization point.
package mine

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sctrait/trait-engine/internal/aggregate"
	"github.com/sctrait/trait-engine/internal/classify"
	"github.com/sctrait/trait-engine/pkg/types"
)

// Result summarizes one corpus pass.
type Result struct {
	// Associations is the native association set, sorted by triple key.
	Associations []types.Association

	Documents       int
	Paragraphs      int
	Classifications int
}

// Run classifies every paragraph of the corpus and aggregates the resulting
// evidence into native associations. Workers process whole documents so the
// document-level species context is computed once per document.
func Run(ctx context.Context, corpus types.Corpus, catalog types.GeneCatalog, cfg types.MineConfig, scorer aggregate.Scorer, logger *zap.Logger, w io.Writer) (Result, error) {
	cfg.Normalize()
	if logger == nil {
		logger = zap.NewNop()
	}

	classifier := classify.New(cfg, catalog, logger)
	agg := aggregate.New(scorer)

	jobs := make(chan types.Document)
	var wg sync.WaitGroup
	var classifications int64

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				dc := classifier.Context(doc)
				for _, p := range doc.Paragraphs {
					for _, cl := range classifier.ClassifyParagraph(dc, p) {
						agg.Add(cl)
						atomic.AddInt64(&classifications, 1)
					}
				}
			}
		}()
	}

	var result Result
	result.Documents = len(corpus.Documents)

feed:
	for _, doc := range corpus.Documents {
		result.Paragraphs += len(doc.Paragraphs)
		select {
		case <-ctx.Done():
			break feed
		case jobs <- doc:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	assocs, err := agg.Finalize()
	if err != nil {
		return Result{}, fmt.Errorf("finalizing associations: %w", err)
	}

	result.Associations = assocs
	result.Classifications = int(atomic.LoadInt64(&classifications))

	fmt.Fprintf(w, "mined %d documents, %d paragraphs: %d classifications, %d associations\n",
		result.Documents, result.Paragraphs, result.Classifications, len(assocs))
	return result, nil
}
