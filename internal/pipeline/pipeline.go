// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one company-paper query end to end: search PubMed,
// optionally drop PMIDs already stored, fetch the records, keep the articles
// with a company-affiliated author, and record the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/company-papers/internal/assemble"
	"github.com/pdiddy/company-papers/pkg/types"
)

// ErrNoStore is returned when SkipSeen is requested without a Recorder.
var ErrNoStore = errors.New("skipping seen articles needs a store")

// Source is the record source; *pubmed.Client implements it.
type Source interface {
	Search(ctx context.Context, query string, maxResults int) ([]string, error)
	Fetch(ctx context.Context, pmids []string) ([]types.Article, error)
}

// Recorder persists runs; *store.Store implements it.
type Recorder interface {
	RecordRun(ctx context.Context, run types.Run, articles []types.Article) error
	Seen(ctx context.Context, ids []string) (map[string]bool, error)
}

// Request describes one run.
type Request struct {
	Query      string
	MaxResults int

	// SkipSeen drops PMIDs already in the store before fetching. It needs a
	// Recorder.
	SkipSeen bool
}

// Result is the outcome of a run.
type Result struct {
	Run      types.Run
	Articles []types.Article

	// Skipped counts PMIDs dropped because the store already had them.
	Skipped int
}

// Runner wires a Source, an Assembler and an optional Recorder.
type Runner struct {
	source    Source
	assembler *assemble.Assembler
	recorder  Recorder
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

// New returns a Runner. recorder may be nil, in which case runs are not
// persisted and SkipSeen is an error.
func New(source Source, assembler *assemble.Assembler, recorder Recorder, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		source:    source,
		assembler: assembler,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Run executes req. An empty search result is not an error: the Result
// has no articles.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	if req.SkipSeen && r.recorder == nil {
		return Result{}, ErrNoStore
	}

	run := types.Run{ID: r.newID(), Query: req.Query, StartedAt: r.now()}
	log := r.logger.With(zap.String("run", run.ID))

	ids, err := r.source.Search(ctx, req.Query, req.MaxResults)
	if err != nil {
		return Result{}, fmt.Errorf("searching: %w", err)
	}
	run.Searched = len(ids)
	log.Debug("search returned", zap.Int("pmids", len(ids)))

	res := Result{}
	if req.SkipSeen && len(ids) > 0 {
		seen, err := r.recorder.Seen(ctx, ids)
		if err != nil {
			return Result{}, fmt.Errorf("checking stored articles: %w", err)
		}
		fresh := ids[:0:0]
		for _, id := range ids {
			if !seen[id] {
				fresh = append(fresh, id)
			}
		}
		res.Skipped = len(ids) - len(fresh)
		ids = fresh
		log.Debug("skipped stored articles", zap.Int("skipped", res.Skipped))
	}

	articles, err := r.source.Fetch(ctx, ids)
	if err != nil {
		return Result{}, fmt.Errorf("fetching: %w", err)
	}
	run.Fetched = len(articles)

	kept := r.assembler.Filter(articles)
	run.Retained = len(kept)
	log.Info("run complete",
		zap.Int("searched", run.Searched),
		zap.Int("fetched", run.Fetched),
		zap.Int("retained", run.Retained))

	if r.recorder != nil {
		if err := r.recorder.RecordRun(ctx, run, kept); err != nil {
			return Result{}, fmt.Errorf("recording run: %w", err)
		}
	}

	res.Run = run
	res.Articles = kept
	return res, nil
}
