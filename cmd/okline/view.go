package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/npratt/okline/internal/graph"
	"github.com/npratt/okline/internal/layout"
	"github.com/npratt/okline/internal/model"
	"github.com/npratt/okline/internal/shutdown"
	"github.com/npratt/okline/internal/storage"
	"github.com/npratt/okline/internal/tui"
	"github.com/npratt/okline/internal/watch"
)

// flushTimeout bounds the final save when the viewer exits.
const flushTimeout = 5 * time.Second

func (c *cli) viewCmd() *cobra.Command {
	viewCmd := &cobra.Command{
		Use:   "view [group]",
		Short: "Browse and edit a group in the terminal",
		Long: `Open the terminal viewer on a group (the first one by default). Changes
are saved shortly after they are made and once more on exit. Logs go to
okline-debug.log next to the configured log file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			group := ""
			if len(args) == 1 {
				group = args[0]
			}
			density, _ := cmd.Flags().GetString(FlagDensity)
			return c.runView(cmd, group, density)
		},
	}
	viewCmd.Flags().String(FlagDensity, "", "Node density (compact/standard/detailed; default from config)")
	viewCmd.Flags().String(FlagStrategy, "", "Layout strategy (grid/traversal; default from config)")
	return viewCmd
}

// runView opens the viewer on groupRef. Edits go through a Board whose
// changes are written by a debounced AutoSaver; writes by other okline
// processes are picked up by a file watcher.
func (c *cli) runView(cmd *cobra.Command, groupRef, density string) error {
	a, err := c.app(cmd)
	if err != nil {
		return err
	}

	logResult, err := SetupTUILogger(filepath.Dir(a.cfg.Paths.Log), c.logLevel, a.cfg.LogRotation)
	if err != nil {
		return fmt.Errorf("setup viewer logging: %w", err)
	}
	defer func() { _ = logResult.Close() }()
	logger := logResult.Logger

	opts, err := a.cfg.Layout.Options()
	if err != nil {
		return err
	}
	if f := cmd.Flags().Lookup(FlagStrategy); f != nil && f.Changed {
		if opts.Strategy, err = layout.ParseStrategy(f.Value.String()); err != nil {
			return err
		}
	}
	if density == "" {
		density = a.cfg.TUI.Density
	}

	snap, err := a.load(cmd.Context())
	if err != nil {
		return err
	}
	groupID := ""
	if groupRef != "" {
		g, err := findGroup(snap, groupRef)
		if err != nil {
			return err
		}
		groupID = g.ID
	}

	store := storage.NewFileStore(a.cfg.Paths.Data, logger)
	var watcher *watch.Watcher
	saver := storage.NewAutoSaver(store, a.cfg.Storage.SaveDebounce,
		storage.WithSaverLogger(logger),
		storage.WithOnSaved(func(s *model.Snapshot, err error) {
			if err == nil {
				watcher.Seen(s.Metadata.LastModified)
			}
		}),
	)
	watcher = watch.New(store, a.cfg.Paths.Data, watch.WithLogger(logger), watch.WithHold(saver.Pending))
	watcher.Seen(snap.Metadata.LastModified)
	if err := watcher.Start(cmd.Context()); err != nil {
		return err
	}
	defer func() { _ = watcher.Stop() }()

	board := graph.NewBoard(snap, graph.WithLogger(logger), graph.WithOnChange(saver.Notify))

	view := tui.New(board,
		tui.WithLayoutOptions(opts),
		tui.WithDensity(tui.ParseDensity(density)),
		tui.WithGroup(groupID),
		tui.WithUpdates(watcher.Updates()),
		tui.WithLogger(logger),
		tui.WithOnQuit(func() { logger.Info("viewer closed by user") }),
	)

	logger.Info("viewer starting", "data_file", a.cfg.Paths.Data, "group", groupID)
	return shutdown.RunWithGracefulShutdown(cmd.Context(), logger, flushTimeout,
		view.Run,
		func(ctx context.Context) error {
			return saver.Close(ctx)
		},
	)
}
