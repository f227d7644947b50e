package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cropdoc/internal/articulation"
	"cropdoc/internal/store"
	"cropdoc/internal/types"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print tasks as they are added by other cropdoc processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd)
		},
	}
}

// runWatch prints new tasks until ctx is done.
func runWatch(ctx context.Context, cmd *cobra.Command) error {
	if cfg.Store.Backend != "json" {
		return fmt.Errorf("%w: watch needs the json store backend, not %q", types.ErrConfiguration, cfg.Store.Backend)
	}

	fb := store.NewFileBackend(cfg.Store.Path)
	st := store.New(fb)
	defer st.Close()

	seen := map[string]bool{}
	initial, err := st.Recent(ctx, 0)
	if err != nil {
		return err
	}
	for _, r := range initial {
		seen[r.Task.ID] = true
	}

	w, err := store.NewWatcher(fb.Path())
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if err := w.Start(gctx); err != nil {
		w.Stop()
		return err
	}
	logger.Info("watching store", zap.String("path", fb.Path()), zap.Int("known_tasks", len(seen)))
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", cfg.Store.Path)

	g.Go(func() error {
		<-gctx.Done()
		w.Stop()
		return nil
	})
	g.Go(func() error {
		for range w.Events() {
			feed, err := st.Recent(gctx, 0)
			if err != nil {
				logger.Warn("reload failed", zap.Error(err))
				continue
			}
			var fresh []store.RecentTask
			for i := len(feed) - 1; i >= 0; i-- {
				if !seen[feed[i].Task.ID] {
					seen[feed[i].Task.ID] = true
					fresh = append(fresh, feed[i])
				}
			}
			if len(fresh) > 0 {
				if err := articulation.RenderRecent(cmd.OutOrStdout(), fresh); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return g.Wait()
}
