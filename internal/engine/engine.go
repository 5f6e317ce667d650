// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine runs the full applicability chain over a measurement
// document: load the catalog once, assemble a bundle per channel, evaluate
// every method, and collect the reports into a RunResult.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/applicability-engine/internal/applicability"
	"github.com/pdiddy/applicability-engine/internal/catalog"
	"github.com/pdiddy/applicability-engine/internal/grammar"
	"github.com/pdiddy/applicability-engine/internal/measure"
	"github.com/pdiddy/applicability-engine/pkg/types"
)

// Engine evaluates measurement documents against a loaded catalog. It is
// safe for concurrent use; ReloadCatalog swaps the catalog atomically.
type Engine struct {
	cfg    types.EngineConfig
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	catalog *types.Catalog
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock used for non-reproducible timestamps
// and RunResult.CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithCatalog uses c instead of loading cfg.CatalogDir.
func WithCatalog(c *types.Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// LoadCatalog loads the catalog in dir, or the embedded one when dir is empty.
func LoadCatalog(dir string) (*types.Catalog, error) {
	if dir == "" {
		return catalog.Default()
	}
	return catalog.Load(dir)
}

// New validates cfg and loads the catalog.
func New(cfg types.EngineConfig, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = applicability.DefaultWorkers
	}

	e := &Engine{cfg: cfg, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}

	if e.catalog == nil {
		c, err := LoadCatalog(cfg.CatalogDir)
		if err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
		e.catalog = c
	}
	logger.Info("catalog loaded",
		zap.String("dir", catalogLabel(cfg.CatalogDir)),
		zap.String("schema_version", e.catalog.SchemaVersion),
		zap.Int("methods", e.catalog.Len()))
	return e, nil
}

func catalogLabel(dir string) string {
	if dir == "" {
		return "(embedded)"
	}
	return dir
}

// Catalog returns the current catalog.
func (e *Engine) Catalog() *types.Catalog {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.catalog
}

// Config returns the engine configuration.
func (e *Engine) Config() types.EngineConfig { return e.cfg }

// ReloadCatalog reloads cfg.CatalogDir. On error the current catalog stays.
func (e *Engine) ReloadCatalog() error {
	c, err := LoadCatalog(e.cfg.CatalogDir)
	if err != nil {
		return fmt.Errorf("reloading catalog: %w", err)
	}
	e.mu.Lock()
	e.catalog = c
	e.mu.Unlock()
	e.logger.Info("catalog reloaded", zap.Int("methods", c.Len()))
	return nil
}

// document is an opened measurement document with its resolved channels
// and assembly timestamp.
type document struct {
	acc      *measure.Accessor
	channels []string
	at       time.Time
}

func (e *Engine) open(source string) (*document, error) {
	acc, err := measure.Open(source)
	if err != nil {
		return nil, fmt.Errorf("opening measurement document: %w", err)
	}

	channels, err := selectChannels(acc, e.cfg.Channels)
	if err != nil {
		return nil, err
	}

	at := e.now().UTC()
	if e.cfg.Reproducible {
		if ts, ok := acc.Timestamp(); ok {
			at = ts
		} else {
			e.logger.Warn("measurement document has no usable timestamp; using wall clock",
				zap.String("source", acc.Source()))
		}
	}
	return &document{acc: acc, channels: channels, at: at}, nil
}

// selectChannels returns allow in order (duplicates dropped), or every
// declared channel when allow is empty. An undeclared channel is a
// *measure.NotFoundError.
func selectChannels(acc *measure.Accessor, allow []string) ([]string, error) {
	if len(allow) == 0 {
		return acc.Channels(), nil
	}
	seen := make(map[string]bool, len(allow))
	var out []string
	for _, ch := range allow {
		if seen[ch] {
			continue
		}
		if err := acc.CheckChannel(ch); err != nil {
			return nil, fmt.Errorf("selecting channels: %w", err)
		}
		seen[ch] = true
		out = append(out, ch)
	}
	return out, nil
}

// Bundles assembles one bundle per selected channel without evaluating.
func (e *Engine) Bundles(source string) ([]types.Bundle, error) {
	doc, err := e.open(source)
	if err != nil {
		return nil, err
	}
	return grammar.AssembleAll(doc.acc, doc.channels, doc.at)
}

// Run evaluates the whole catalog against every selected channel of the
// document at source. Channels are processed concurrently; the result lists
// them in selection order with reports sorted by method ID.
func (e *Engine) Run(ctx context.Context, source string) (*types.RunResult, error) {
	doc, err := e.open(source)
	if err != nil {
		return nil, err
	}
	cat := e.Catalog()

	results := make([]types.ChannelResult, len(doc.channels))
	g, gctx := errgroup.WithContext(ctx)
	for i, ch := range doc.channels {
		g.Go(func() error {
			b, err := grammar.Assemble(doc.acc, ch, doc.at)
			if err != nil {
				return fmt.Errorf("assembling channel %s: %w", ch, err)
			}
			reports, err := applicability.EvaluateAll(gctx, cat, b, e.cfg.Params, e.cfg.Workers)
			if err != nil {
				return fmt.Errorf("evaluating channel %s: %w", ch, err)
			}
			results[i] = types.ChannelResult{Channel: ch, Bundle: b, Reports: reports}

			counts := applicability.CountByStatus(reports)
			e.logger.Debug("channel evaluated",
				zap.String("channel", ch),
				zap.Strings("available", familyStrings(b.AvailableFamilies())),
				zap.Int("applicable", counts[types.StatusApplicable]),
				zap.Int("missing_inputs", counts[types.StatusMissingInputs]),
				zap.Int("underconstrained", counts[types.StatusUnderconstrained]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	run := &types.RunResult{
		RunID:          uuid.NewString(),
		Source:         doc.acc.Source(),
		CatalogVersion: cat.SchemaVersion,
		Params:         e.cfg.Params,
		CreatedAt:      e.now().UTC(),
		Channels:       results,
	}
	e.logger.Info("run complete",
		zap.String("run_id", run.RunID),
		zap.String("source", run.Source),
		zap.Int("channels", len(results)),
		zap.Int("methods", cat.Len()))
	return run, nil
}

func familyStrings(fs []types.Family) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = string(f)
	}
	return out
}
