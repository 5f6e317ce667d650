// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/pdiddy/applicability-engine/pkg/types"
)

// DefaultDebounce batches bursts of filesystem events from editors that
// write a file in several steps.
const DefaultDebounce = 300 * time.Millisecond

const resultsFile = "results.json"

// Watcher re-evaluates a measurement document whenever it changes, and
// reloads the catalog first when catalog documents change.
type Watcher struct {
	engine   *Engine
	source   string
	docDir   string
	docName  string
	debounce time.Duration
	logger   *zap.Logger

	onRun   func(*types.RunResult)
	onError func(error)

	runs     atomic.Int64
	failures atomic.Int64
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the quiet period before a change is processed.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) { w.debounce = d }
}

// OnError receives run and reload errors. The watch loop keeps going.
func OnError(fn func(error)) WatchOption {
	return func(w *Watcher) { w.onError = fn }
}

// NewWatcher prepares a watcher for the document at source (a results.json
// file or a directory holding one). onRun receives every successful run.
func NewWatcher(e *Engine, source string, onRun func(*types.RunResult), opts ...WatchOption) (*Watcher, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("watching %s: %w", source, err)
	}
	w := &Watcher{
		engine:   e,
		source:   source,
		debounce: DefaultDebounce,
		logger:   e.logger.Named("watch"),
		onRun:    onRun,
	}
	if info.IsDir() {
		w.docDir, w.docName = source, resultsFile
	} else {
		w.docDir, w.docName = filepath.Dir(source), filepath.Base(source)
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Runs returns the number of successful runs so far.
func (w *Watcher) Runs() int64 { return w.runs.Load() }

// Errors returns the number of failed runs or reloads so far.
func (w *Watcher) Errors() int64 { return w.failures.Load() }

// Watch runs once immediately, then blocks re-running on changes until ctx
// is canceled. It returns nil on cancellation.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory, not the file: editors often replace files by rename.
	if err := fw.Add(w.docDir); err != nil {
		return fmt.Errorf("watching %s: %w", w.docDir, err)
	}
	catalogDir := w.engine.cfg.CatalogDir
	if catalogDir != "" {
		if err := fw.Add(catalogDir); err != nil {
			return fmt.Errorf("watching catalog %s: %w", catalogDir, err)
		}
	}
	w.logger.Info("watching",
		zap.String("document", filepath.Join(w.docDir, w.docName)),
		zap.String("catalog", catalogLabel(catalogDir)))

	w.run(ctx)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var docChanged, catalogChanged bool

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped")
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			switch {
			case filepath.Dir(ev.Name) == filepath.Clean(w.docDir) && filepath.Base(ev.Name) == w.docName:
				docChanged = true
			case catalogDir != "" && filepath.Dir(ev.Name) == filepath.Clean(catalogDir):
				catalogChanged = true
			default:
				continue
			}
			w.logger.Debug("change detected", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.fail(fmt.Errorf("file watcher: %w", err))

		case <-timer.C:
			if catalogChanged {
				if err := w.engine.ReloadCatalog(); err != nil {
					w.fail(err)
				}
			}
			if docChanged || catalogChanged {
				w.run(ctx)
			}
			docChanged, catalogChanged = false, false
		}
	}
}

func (w *Watcher) run(ctx context.Context) {
	res, err := w.engine.Run(ctx, w.source)
	if err != nil {
		w.fail(err)
		return
	}
	w.runs.Add(1)
	if w.onRun != nil {
		w.onRun(res)
	}
}

func (w *Watcher) fail(err error) {
	w.failures.Add(1)
	w.logger.Warn("watch cycle failed", zap.Error(err))
	if w.onError != nil {
		w.onError(err)
	}
}
