package main

import (
	"context"
	"errors"
	"path/filepath"

	"cropdoc/internal/diagnosis"
	"cropdoc/internal/enrichment"
	"cropdoc/internal/logging"
	"cropdoc/internal/perception"
	"cropdoc/internal/store"
	"cropdoc/internal/types"
	"cropdoc/internal/usage"
)

// openStore opens the configured backend. The caller closes the store.
func openStore() (*store.Store, error) {
	backend, err := store.OpenBackend(cfg.Store)
	if err != nil {
		return nil, err
	}
	return store.New(backend), nil
}

// newPipeline builds the diagnosis pipeline over st.
func newPipeline(st *store.Store) (*diagnosis.Pipeline, error) {
	if err := cfg.ValidateLLM(); err != nil {
		return nil, err
	}
	backend, err := perception.NewBackendFromConfig(cfg.LLM)
	if err != nil {
		return nil, err
	}
	table, err := enrichment.LoadTable(cfg.Enrichment.MappingFile)
	if err != nil {
		// The built-in table is still usable.
		logging.EnrichmentWarn("mapping file ignored: %v", err)
	}
	logging.BootDebug("classifier backend=%s models=%v table v%d (%d entries)",
		backend.Name(), cfg.LLM.Models, table.Version, len(table.Entries))

	var crops diagnosis.CropFinder
	if st != nil {
		crops = enrichment.NewEnricher(st, table)
	}
	return diagnosis.New(perception.NewClassifier(backend), crops, cfg.LLM.Models), nil
}

// commandContext applies --timeout and attaches the usage tracker.
// The returned func cancels the context and saves the tracked usage.
func commandContext(parent context.Context) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	tracker, err := usage.NewTracker(usagePath())
	if err != nil {
		logging.BootWarn("usage tracking disabled: %v", err)
		return ctx, cancel
	}
	return usage.NewContext(ctx, tracker), func() {
		cancel()
		if err := tracker.Save(); err != nil {
			logging.BootWarn("failed to save usage: %v", err)
		}
	}
}

// usagePath keeps usage.json next to the store.
func usagePath() string {
	return filepath.Join(filepath.Dir(cfg.Store.Path), usage.FileName)
}

// exitCode maps the error taxonomy onto process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, types.ErrInput):
		return 2
	case errors.Is(err, types.ErrConfiguration):
		return 3
	case errors.Is(err, types.ErrOwnerNotFound):
		return 4
	case errors.Is(err, types.ErrClassificationUnavailable), errors.Is(err, types.ErrMalformedResponse):
		return 5
	default:
		return 1
	}
}
