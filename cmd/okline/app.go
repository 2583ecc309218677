package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/npratt/okline/internal/config"
	"github.com/npratt/okline/internal/graph"
	"github.com/npratt/okline/internal/model"
	"github.com/npratt/okline/internal/status"
	"github.com/npratt/okline/internal/storage"
)

// app is what a command works with once configuration is loaded.
type app struct {
	cfg    *config.Config
	store  *storage.FileStore
	logger *slog.Logger
	out    io.Writer
}

// app loads configuration, applies path overrides from flags and the
// environment, and opens the data file store.
func (c *cli) app(cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadConfig(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Apply CLI flag overrides
	if p := viper.GetString(FlagDataFile); p != "" {
		cfg.Paths.Data = p
	}
	if p := viper.GetString(FlagLogFile); p != "" {
		cfg.Paths.Log = p
	}

	cfg.Paths, err = config.ResolvePaths(cfg.Paths, config.FindProjectRoot(""))
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}
	c.logger.Debug("configuration loaded", "data_file", cfg.Paths.Data, "log_file", cfg.Paths.Log)

	return &app{
		cfg:    cfg,
		store:  storage.NewFileStore(cfg.Paths.Data, c.logger),
		logger: c.logger,
		out:    cmd.OutOrStdout(),
	}, nil
}

// load reads the current snapshot.
func (a *app) load(ctx context.Context) (*model.Snapshot, error) {
	return a.store.Load(ctx)
}

// mutate applies fn to a Board over the stored snapshot and saves the result
// under the store lock. Nothing is written when fn fails.
func (a *app) mutate(ctx context.Context, fn func(b *graph.Board) error) error {
	return a.store.Update(ctx, func(snap *model.Snapshot) (*model.Snapshot, error) {
		b := graph.NewBoard(snap, graph.WithLogger(a.logger))
		if err := fn(b); err != nil {
			return nil, err
		}
		return b.Snapshot(), nil
	})
}

// resolver builds a status resolver for snap and logs what it found wrong.
func (a *app) resolver(snap *model.Snapshot) *status.Resolver {
	res := status.ForSnapshot(snap)
	res.All()
	for _, inc := range res.Inconsistencies() {
		a.logger.Warn("inconsistent graph",
			"timeline", inc.TimelineID,
			"node", inc.NodeID,
			"ref", inc.Ref,
			"reason", inc.Reason,
		)
	}
	return res
}

// newTable returns a borderless table writer for list output.
func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}
