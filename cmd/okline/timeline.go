package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/npratt/okline/internal/graph"
	"github.com/npratt/okline/internal/model"
	"github.com/npratt/okline/internal/recurrence"
)

// today returns the current local calendar day as midnight UTC, the form
// dates are stored and compared in.
func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// parseDate parses a YYYY-MM-DD flag value. Empty yields def.
func parseDate(flag, s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	t, err := time.Parse(recurrence.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: want YYYY-MM-DD, got %q", flag, s)
	}
	return t, nil
}

func (c *cli) timelineCmd() *cobra.Command {
	timelineCmd := &cobra.Command{
		Use:     "timeline",
		Aliases: []string{"tl"},
		Short:   "Manage task and recurrence timelines",
	}

	createCmd := &cobra.Command{
		Use:   "create <group> <title>",
		Short: "Create a timeline and print its id",
		Long: `Create a task timeline holding a single start delimiter, or with
--recurrence a timeline that rotates through --template titles on a cadence.

  okline timeline create Home Laundry
  okline timeline create Home Gym --recurrence --frequency weekly \
      --weekdays 1,3,5 --template Legs --template Push --template Pull`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.app(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			isRecurrence, _ := flags.GetBool(FlagRecurrence)

			var tl model.Timeline
			if isRecurrence {
				tl, err = buildRecurrence(cmd, args[1])
				if err != nil {
					return err
				}
			}
			err = a.mutate(cmd.Context(), func(b *graph.Board) error {
				g, err := findGroup(b.Snapshot(), args[0])
				if err != nil {
					return err
				}
				if isRecurrence {
					return b.AddTimeline(g.ID, tl)
				}
				tl, err = b.CreateTaskTimeline(g.ID, args[1])
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, tl.ID)
			return nil
		},
	}
	createCmd.Flags().Bool(FlagRecurrence, false, "Create a recurrence timeline")
	createCmd.Flags().String(FlagFrequency, string(model.FrequencyDaily), "Recurrence cadence (daily/weekly/monthly)")
	createCmd.Flags().IntSlice(FlagWeekdays, nil, "Weekdays for weekly cadence, 0 = Sunday (comma-separated)")
	createCmd.Flags().IntSlice(FlagDays, nil, "Days of the month for monthly cadence (comma-separated)")
	createCmd.Flags().StringArray(FlagTemplate, nil, "Task title in rotation order (repeatable)")
	createCmd.Flags().String(FlagStart, "", "First day of the recurrence, YYYY-MM-DD (default: today)")
	createCmd.Flags().String(FlagEnd, "", "Last day of the recurrence, YYYY-MM-DD")

	listCmd := &cobra.Command{
		Use:   "list <group>",
		Short: "List the timelines of a group with their derived status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.app(cmd)
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
			if len(g.Timelines) == 0 {
				fmt.Fprintf(a.out, "No timelines in %s\n", g.Title)
				return nil
			}
			res := a.resolver(snap)
			table := newTable(a.out, "ID", "Title", "Type", "Status", "Nodes")
			for _, tl := range g.Timelines {
				size := strconv.Itoa(len(tl.Nodes))
				if tl.IsRecurrence() && tl.Recurrence != nil {
					size = fmt.Sprintf("%d done", len(tl.Recurrence.CompletedTasks))
				}
				table.Append([]string{tl.ID, tl.Title, string(tl.Kind), string(res.Timeline(tl.ID)), size})
			}
			table.Render()
			return nil
		},
	}

	renameCmd := &cobra.Command{
		Use:   "rename <timeline> <title>",
		Short: "Rename a timeline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.onTimeline(cmd, args[0], func(b *graph.Board, tl *model.Timeline) error {
				return b.RenameTimeline(tl.ID, args[1])
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <timeline>",
		Short: "Delete a timeline and every dependency on it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.onTimeline(cmd, args[0], func(b *graph.Board, tl *model.Timeline) error {
				return b.DeleteTimeline(tl.ID)
			})
		},
	}

	reorderCmd := &cobra.Command{
		Use:   "reorder <group> <timeline>...",
		Short: "Reorder the timelines of a group; every timeline must be named once",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.app(cmd)
			if err != nil {
				return err
			}
			return a.mutate(cmd.Context(), func(b *graph.Board) error {
				g, err := findGroup(b.Snapshot(), args[0])
				if err != nil {
					return err
				}
				ids := make([]string, 0, len(args)-1)
				for _, ref := range args[1:] {
					tl, err := findTimeline(b.Snapshot(), ref)
					if err != nil {
						return err
					}
					ids = append(ids, tl.ID)
				}
				return b.ReorderTimelines(g.ID, ids)
			})
		},
	}

	forkCmd := &cobra.Command{
		Use:   "fork <node> <title>",
		Short: "Branch a new timeline off a node",
		Long: `Fork creates a timeline at the end of the node's group holding a start
delimiter and a fresh todo copy of the node. The source timeline records the
split. The new timeline id is printed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.app(cmd)
			if err != nil {
				return err
			}
			var forked model.Timeline
			err = a.mutate(cmd.Context(), func(b *graph.Board) error {
				_, n, err := findAnyNode(b.Snapshot(), args[0])
				if err != nil {
					return err
				}
				forked, err = b.ForkTimeline(n.ID, args[1])
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, forked.ID)
			return nil
		},
	}

	dependCmd := &cobra.Command{
		Use:   "depend <node> <timeline>...",
		Short: "Make a node wait until other timelines are done",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			remove, _ := cmd.Flags().GetBool(FlagRemove)
			a, err := c.app(cmd)
			if err != nil {
				return err
			}
			return a.mutate(cmd.Context(), func(b *graph.Board) error {
				_, n, err := findAnyNode(b.Snapshot(), args[0])
				if err != nil {
					return err
				}
				nodeID := n.ID
				ids := make([]string, 0, len(args)-1)
				for _, ref := range args[1:] {
					tl, err := findTimeline(b.Snapshot(), ref)
					if err != nil {
						return err
					}
					ids = append(ids, tl.ID)
				}
				if !remove {
					return b.AddCrossTimelineDependency(nodeID, ids)
				}
				for _, id := range ids {
					if err := b.RemoveCrossTimelineDependency(nodeID, id); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	dependCmd.Flags().Bool(FlagRemove, false, "Remove the dependencies instead of adding them")

	activateCmd := &cobra.Command{
		Use:   "activate <timeline>",
		Short: "Resume a recurrence timeline, or pause it with --off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			off, _ := cmd.Flags().GetBool(FlagOff)
			return c.onTimeline(cmd, args[0], func(b *graph.Board, tl *model.Timeline) error {
				return b.SetRecurrenceActive(tl.ID, !off)
			})
		},
	}
	activateCmd.Flags().Bool(FlagOff, false, "Pause instead of resume")

	setStatusCmd := &cobra.Command{
		Use:   "set-status <timeline> <todo|doing|done>",
		Short: "Set the stored status of a recurrence timeline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.onTimeline(cmd, args[0], func(b *graph.Board, tl *model.Timeline) error {
				return b.SetRecurrenceStatus(tl.ID, model.TimelineStatus(args[1]))
			})
		},
	}

	timelineCmd.AddCommand(createCmd, listCmd, renameCmd, deleteCmd, reorderCmd,
		forkCmd, dependCmd, activateCmd, setStatusCmd)
	return timelineCmd
}

// onTimeline resolves ref and applies fn under the store lock.
func (c *cli) onTimeline(cmd *cobra.Command, ref string, fn func(b *graph.Board, tl *model.Timeline) error) error {
	a, err := c.app(cmd)
	if err != nil {
		return err
	}
	return a.mutate(cmd.Context(), func(b *graph.Board) error {
		tl, err := findTimeline(b.Snapshot(), ref)
		if err != nil {
			return err
		}
		return fn(b, tl)
	})
}

// buildRecurrence assembles a recurrence timeline from the create flags.
func buildRecurrence(cmd *cobra.Command, title string) (model.Timeline, error) {
	flags := cmd.Flags()
	freqStr, _ := flags.GetString(FlagFrequency)
	weekdays, _ := flags.GetIntSlice(FlagWeekdays)
	days, _ := flags.GetIntSlice(FlagDays)
	templates, _ := flags.GetStringArray(FlagTemplate)
	startStr, _ := flags.GetString(FlagStart)
	endStr, _ := flags.GetString(FlagEnd)

	if title == "" {
		return model.Timeline{}, model.ErrEmptyTitle
	}
	freq, err := model.ParseFrequency(freqStr)
	if err != nil {
		return model.Timeline{}, err
	}
	switch {
	case freq == model.FrequencyWeekly && len(weekdays) == 0:
		return model.Timeline{}, fmt.Errorf("%w: weekly cadence needs --%s", model.ErrInvalidOperation, FlagWeekdays)
	case freq == model.FrequencyMonthly && len(days) == 0:
		return model.Timeline{}, fmt.Errorf("%w: monthly cadence needs --%s", model.ErrInvalidOperation, FlagDays)
	}
	start, err := parseDate(FlagStart, startStr, today())
	if err != nil {
		return model.Timeline{}, err
	}

	tl := model.NewRecurrenceTimeline(title, freq, templates, start)
	tl.Recurrence.Weekdays = weekdays
	tl.Recurrence.MonthDays = days
	if endStr != "" {
		end, err := parseDate(FlagEnd, endStr, time.Time{})
		if err != nil {
			return model.Timeline{}, err
		}
		tl.Recurrence.EndDate = &end
	}
	return tl, nil
}
