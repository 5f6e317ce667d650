// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/applicability-engine/internal/engine"
	"github.com/pdiddy/applicability-engine/internal/render"
	"github.com/pdiddy/applicability-engine/internal/runstore"
	"github.com/pdiddy/applicability-engine/pkg/types"
)

var watchCmd = &cobra.Command{
	Use:   "watch <results.json | dir>",
	Short: "Re-evaluate a measurement document whenever it changes",
	Long: `Watch evaluates the document once, then again each time it (or a
catalog document under --catalog) changes, until interrupted. Catalog
changes reload the catalog first; a broken catalog keeps the previous one.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringP("format", "f", string(render.FormatTable), "output format: table, md, json, or yaml")
	watchCmd.Flags().Duration("debounce", engine.DefaultDebounce, "quiet period before a change is processed")
	watchCmd.Flags().Bool("save", false, "record every run in the run store")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := formatFlag(cmd)
	if err != nil {
		return err
	}
	debounce, _ := cmd.Flags().GetDuration("debounce")

	e, err := newEngine()
	if err != nil {
		return err
	}

	var store *runstore.Store
	if save, _ := cmd.Flags().GetBool("save"); save {
		if store, err = openStore(); err != nil {
			return err
		}
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := cmd.OutOrStdout()
	onRun := func(run *types.RunResult) {
		fmt.Fprintf(w, "--- run %s at %s\n", run.RunID, run.CreatedAt.Local().Format(time.TimeOnly))
		if err := writeRun(w, format, run, "", render.StyleAuto); err != nil {
			logger.Warn("rendering run", zap.Error(err))
		}
		if store != nil {
			if err := store.Save(ctx, run); err != nil {
				logger.Warn("saving run", zap.String("run_id", run.RunID), zap.Error(err))
			}
		}
	}
	onError := func(err error) {
		fmt.Fprintln(os.Stderr, "error:", err)
	}

	watcher, err := engine.NewWatcher(e, args[0], onRun, engine.WithDebounce(debounce), engine.OnError(onError))
	if err != nil {
		return err
	}
	if err := watcher.Watch(ctx); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "watch stopped after %d run(s), %d error(s)\n", watcher.Runs(), watcher.Errors())
	return nil
}
