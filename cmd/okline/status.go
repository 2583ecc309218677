package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/npratt/okline/internal/layout"
	"github.com/npratt/okline/internal/model"
	"github.com/npratt/okline/internal/recurrence"
	"github.com/npratt/okline/internal/storage"
)

// statusIcon returns a single-character icon for a derived status.
func statusIcon(st model.Status) string {
	switch st {
	case model.StatusDone:
		return "✓"
	case model.StatusSkipped:
		return "-"
	case model.StatusLock:
		return "✗"
	default:
		return "○"
	}
}

func (c *cli) statusCmd() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status [group]",
		Short: "Show the derived status of every node",
		Long: `Show every timeline with its aggregate status and every node with its
derived status. A todo node displays as locked until all of its predecessors
and the timelines it depends on are finished.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.app(cmd)
			if err != nil {
				return err
			}
			snap, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			groups := snap.Groups
			if len(args) == 1 {
				g, err := findGroup(snap, args[0])
				if err != nil {
					return err
				}
				groups = []model.TimelineGroup{*g}
			}
			res := a.resolver(snap)

			if asJSON, _ := cmd.Flags().GetBool(FlagJSON); asJSON {
				out := make(map[string]model.Status)
				for _, g := range groups {
					for _, tl := range g.Timelines {
						for _, n := range tl.Nodes {
							out[n.ID] = res.Node(tl.ID, n.ID)
						}
					}
				}
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal status: %w", err)
				}
				fmt.Fprintln(a.out, string(data))
				return nil
			}

			if !snap.Metadata.LastModified.IsZero() {
				fmt.Fprintf(a.out, "Last modified %s (sync: %s)\n",
					humanize.Time(snap.Metadata.LastModified), snap.Metadata.SyncStatus)
			}
			if len(groups) == 0 {
				fmt.Fprintln(a.out, "No timeline groups")
				return nil
			}
			for _, g := range groups {
				fmt.Fprintf(a.out, "\n%s\n", g.Title)
				for _, tl := range g.Timelines {
					fmt.Fprintf(a.out, "  %s [%s]\n", tl.Title, res.Timeline(tl.ID))
					if tl.IsRecurrence() {
						printRecurrence(a, &tl)
						continue
					}
					for _, n := range tl.Nodes {
						if n.IsDelimiter() {
							continue
						}
						st := res.Node(tl.ID, n.ID)
						fmt.Fprintf(a.out, "    %s %s (%s)\n", statusIcon(st), n.Title, st)
					}
				}
			}
			return nil
		},
	}
	statusCmd.Flags().Bool(FlagJSON, false, "Output derived node statuses as JSON")
	return statusCmd
}

// printRecurrence summarises a recurrence timeline's history and next task.
func printRecurrence(a *app, tl *model.Timeline) {
	r := tl.Recurrence
	if r == nil {
		return
	}
	state := "active"
	if !r.Active {
		state = "paused"
	}
	fmt.Fprintf(a.out, "    %s, %s, %d done, %d skipped\n",
		r.Frequency, state, r.Stats.TotalCompleted, r.Stats.TotalSkipped)
	if r.Stats.LastCompleted != nil {
		fmt.Fprintf(a.out, "    last done %s\n", humanize.Time(*r.Stats.LastCompleted))
	}
	if inst, ok := recurrence.Next(tl, today(), 366); ok {
		fmt.Fprintf(a.out, "    next: %s %s\n", inst.ScheduledDate, inst.Title)
	}
}

func (c *cli) instancesCmd() *cobra.Command {
	instancesCmd := &cobra.Command{
		Use:   "instances <timeline>",
		Short: "List the scheduled instances of a recurrence timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			fromStr, _ := flags.GetString(FlagFrom)
			toStr, _ := flags.GetString(FlagTo)
			from, err := parseDate(FlagFrom, fromStr, today())
			if err != nil {
				return err
			}
			to, err := parseDate(FlagTo, toStr, from.AddDate(0, 0, 13))
			if err != nil {
				return err
			}
			if to.Before(from) {
				return fmt.Errorf("%w: --%s is before --%s", model.ErrInvalidOperation, FlagTo, FlagFrom)
			}

			a, err := c.app(cmd)
			if err != nil {
				return err
			}
			snap, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			tl, err := findTimeline(snap, args[0])
			if err != nil {
				return err
			}
			if !tl.IsRecurrence() {
				return fmt.Errorf("%w: %s is not a recurrence timeline", model.ErrInvalidOperation, tl.Title)
			}

			insts := recurrence.Generate(tl, from, to)
			if asJSON, _ := flags.GetBool(FlagJSON); asJSON {
				data, err := json.MarshalIndent(insts, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal instances: %w", err)
				}
				fmt.Fprintln(a.out, string(data))
				return nil
			}
			if len(insts) == 0 {
				fmt.Fprintln(a.out, "No instances scheduled")
				return nil
			}
			table := newTable(a.out, "Date", "Day", "Title", "ID")
			for _, inst := range insts {
				day, _ := time.Parse(recurrence.DateLayout, inst.ScheduledDate)
				table.Append([]string{inst.ScheduledDate, day.Weekday().String()[:3], inst.Title, inst.ID})
			}
			table.Render()
			return nil
		},
	}
	instancesCmd.Flags().String(FlagFrom, "", "First day, YYYY-MM-DD (default: today)")
	instancesCmd.Flags().String(FlagTo, "", "Last day, YYYY-MM-DD (default: two weeks from --from)")
	instancesCmd.Flags().Bool(FlagJSON, false, "Output instances as JSON")
	return instancesCmd
}

func (c *cli) layoutCmd() *cobra.Command {
	layoutCmd := &cobra.Command{
		Use:   "layout <group>",
		Short: "Print the positioned nodes and edges of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.app(cmd)
			if err != nil {
				return err
			}
			opts, err := a.cfg.Layout.Options()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed(FlagStrategy) {
				s, _ := flags.GetString(FlagStrategy)
				if opts.Strategy, err = layout.ParseStrategy(s); err != nil {
					return err
				}
			}
			formatStr, _ := flags.GetString(FlagFormat)
			format, err := storage.ParseFormat(formatStr)
			if err != nil {
				return err
			}

			snap, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			g, err := findGroup(snap, args[0])
			if err != nil {
				return err
			}
			opts.Resolver = a.resolver(snap)
			l, err := layout.Project(g, opts)
			if err != nil {
				return err
			}
			data, err := storage.Encode(l, format)
			if err != nil {
				return fmt.Errorf("encode layout: %w", err)
			}
			_, err = a.out.Write(data)
			return err
		},
	}
	layoutCmd.Flags().String(FlagStrategy, "", "Layout strategy (grid/traversal; default from config)")
	layoutCmd.Flags().String(FlagFormat, string(storage.FormatJSON), "Output format (json/yaml)")
	return layoutCmd
}
