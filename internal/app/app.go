// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package app assembles the pipeline's components from a types.Config with a
// dig container.
package app

import (
	"fmt"
	"net/http"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/pdiddy/company-papers/internal/affiliation"
	"github.com/pdiddy/company-papers/internal/assemble"
	"github.com/pdiddy/company-papers/internal/pipeline"
	"github.com/pdiddy/company-papers/internal/pubmed"
	"github.com/pdiddy/company-papers/internal/store"
	"github.com/pdiddy/company-papers/pkg/types"
)

// App holds the built components.
type App struct {
	dig.In

	Config     types.Config
	Logger     *zap.Logger
	Classifier *affiliation.Classifier
	Runner     *pipeline.Runner

	// Store is nil when no store driver is configured.
	Store *store.Store
}

// Close releases the store, if any.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

// NewContainer registers the constructors for every component. httpClient
// may be nil.
func NewContainer(cfg types.Config, logger *zap.Logger, httpClient *http.Client) (*dig.Container, error) {
	c := dig.New()

	providers := []any{
		func() types.Config { return cfg },
		func() *zap.Logger { return logger },
		func(cfg types.Config) (*affiliation.Classifier, error) {
			return affiliation.FromConfig(cfg.Classifier)
		},
		func(cfg types.Config, cl *affiliation.Classifier, logger *zap.Logger) *assemble.Assembler {
			return assemble.New(cl, cfg.Classifier.Workers, logger.Named("assemble"))
		},
		func(cfg types.Config, logger *zap.Logger) *pubmed.Client {
			return pubmed.NewClient(cfg.PubMed, httpClient, logger.Named("pubmed"))
		},
		func(cfg types.Config) (*store.Store, error) {
			if cfg.Store.Driver == types.StoreNone {
				return nil, nil
			}
			return store.Open(cfg.Store)
		},
		newRunner,
	}
	for _, p := range providers {
		if err := c.Provide(p); err != nil {
			return nil, fmt.Errorf("registering component: %w", err)
		}
	}
	return c, nil
}

func newRunner(client *pubmed.Client, asm *assemble.Assembler, st *store.Store, logger *zap.Logger) *pipeline.Runner {
	// A nil *store.Store must reach the runner as a nil interface.
	var rec pipeline.Recorder
	if st != nil {
		rec = st
	}
	return pipeline.New(client, asm, rec, logger.Named("pipeline"))
}

// Build constructs every component. The caller must Close the App.
func Build(cfg types.Config, logger *zap.Logger, httpClient *http.Client) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := NewContainer(cfg, logger, httpClient)
	if err != nil {
		return nil, err
	}

	var app *App
	err = c.Invoke(func(a App) {
		app = &a
	})
	if err != nil {
		return nil, fmt.Errorf("building components: %w", dig.RootCause(err))
	}
	return app, nil
}
