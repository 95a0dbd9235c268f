package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	companion "github.com/t-k-/ctags-companion"
	"github.com/t-k-/ctags-companion/internal/watch"
)

var flagDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [root...]",
	Short: "Reindex scopes whenever their tags files are regenerated",
	Long:  "Indexes each root, then watches the tags files and reindexes a scope after its tags file is rewritten. Runs until interrupted.",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&flagDebounce, "debounce", watch.DefaultDebounce, "quiet period before reindexing a changed tags file")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scopes, err := loadScopes(ctx, args)
	if err != nil {
		return outputError("watch", err)
	}
	engine, _, err := openEngine()
	if err != nil {
		return outputError("watch", err)
	}
	defer engine.Close()

	w, err := newScopeWatcher(engine, scopes)
	if err != nil {
		return outputError("watch", err)
	}

	for _, s := range scopes {
		if _, err := engine.Index(ctx, s); err != nil {
			// The watcher picks the scope up once its tags file appears.
			logger.Warn("initial index failed", "scope", s.Name, "error", err)
		}
	}

	fmt.Fprintf(os.Stderr, "Watching %d scope(s); press Ctrl-C to stop\n", len(scopes))
	if err := w.Run(ctx); err != nil {
		return outputError("watch", err)
	}
	return nil
}

// newScopeWatcher registers each scope's tags file with a watcher that
// reindexes the scope on change.
func newScopeWatcher(engine *companion.Engine, scopes []companion.Scope) (*watch.Watcher, error) {
	byRoot := make(map[string]companion.Scope, len(scopes))
	for _, s := range scopes {
		byRoot[s.Root] = s
	}

	w, err := watch.New(func(ctx context.Context, root string) error {
		s, ok := byRoot[root]
		if !ok {
			return fmt.Errorf("unknown scope %s", root)
		}
		start := time.Now()
		p, err := engine.Reindex(ctx, s)
		if err != nil {
			return err
		}
		logger.Info("reindexed scope", "scope", s.Name, "definitions", p.Len(), "duration", time.Since(start))
		return nil
	}, watch.WithDebounce(flagDebounce), watch.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	for _, s := range scopes {
		if err := w.Add(s.Root, s.TagsPath()); err != nil {
			w.Close()
			return nil, err
		}
	}
	return w, nil
}
