package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/npratt/okline/internal/graph"
	"github.com/npratt/okline/internal/model"
	"github.com/npratt/okline/internal/recurrence"
)

func (c *cli) nodeCmd() *cobra.Command {
	nodeCmd := &cobra.Command{
		Use:   "node",
		Short: "Add, complete and link task nodes",
	}

	addCmd := &cobra.Command{
		Use:   "add <timeline> <title>",
		Short: "Add a task node and print its id",
		Long: `Add a task node. Without --after or --before it is appended after the
last open tail, or before the end delimiter when the timeline has one.
--after splices it between a node and that node's successors, --before
between a node and its predecessors.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			after, _ := flags.GetString(FlagAfter)
			before, _ := flags.GetString(FlagBefore)
			if after != "" && before != "" {
				return fmt.Errorf("--%s and --%s are mutually exclusive", FlagAfter, FlagBefore)
			}
			spec, err := nodeSpec(flags, args[1])
			if err != nil {
				return err
			}

			a, err := c.app(cmd)
			if err != nil {
				return err
			}
			var n model.Node
			err = a.mutate(cmd.Context(), func(b *graph.Board) error {
				tl, err := findTimeline(b.Snapshot(), args[0])
				if err != nil {
					return err
				}
				source, mode := after, graph.After
				if before != "" {
					source, mode = before, graph.Before
				}
				if source == "" {
					n, err = b.AppendNode(tl.ID, spec)
					return err
				}
				src, err := findNode(tl, source)
				if err != nil {
					return err
				}
				n, err = b.InsertNode(tl.ID, src.ID, spec, mode)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, n.ID)
			return nil
		},
	}
	addCmd.Flags().String(FlagAfter, "", "Insert after this node")
	addCmd.Flags().String(FlagBefore, "", "Insert before this node")
	addCmd.Flags().String(FlagDescription, "", "Task description")
	addCmd.Flags().Bool(FlagMilestone, false, "Mark the task as a milestone")
	addCmd.Flags().Float64(FlagTarget, 0, "Track progress towards a numeric target")
	addCmd.Flags().String(FlagUnit, "", "Unit for --target")
	addCmd.Flags().String(FlagDeadline, "", "Deadline, YYYY-MM-DD")
	addCmd.Flags().StringArray(FlagSubtask, nil, "Checklist item (repeatable)")

	statusCmd := func(use, short string, st model.Status) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <timeline> [node|instance|date|next]",
			Short: short,
			Long: short + `.

For a task timeline name the node. For a recurrence timeline name an instance
id, a YYYY-MM-DD date on the cadence, or "next" (the default) for the first
open instance from today.`,
			Args: cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ref := "next"
				if len(args) == 2 {
					ref = args[1]
				}
				return c.setStatus(cmd, args[0], ref, st)
			},
		}
	}
	doneCmd := statusCmd("done", "Mark a node or recurrence instance done", model.StatusDone)
	skipCmd := statusCmd("skip", "Mark a node or recurrence instance skipped", model.StatusSkipped)
	reopenCmd := statusCmd("reopen", "Set a task node back to todo", model.StatusTodo)

	removeCmd := &cobra.Command{
		Use:   "remove <timeline> <node>",
		Short: "Remove a node, reconnecting its predecessors to its successors",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.onNode(cmd, args[0], args[1], func(b *graph.Board, tl *model.Timeline, n *model.Node) error {
				return b.RemoveNode(tl.ID, n.ID)
			})
		},
	}

	linkCmd := &cobra.Command{
		Use:   "link <timeline> <from> <to>",
		Short: "Add a dependency edge inside a timeline",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.onEdge(cmd, args, (*graph.Board).AddEdge)
		},
	}

	unlinkCmd := &cobra.Command{
		Use:   "unlink <timeline> <from> <to>",
		Short: "Remove a dependency edge inside a timeline",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.onEdge(cmd, args, (*graph.Board).RemoveEdge)
		},
	}

	editCmd := &cobra.Command{
		Use:   "edit <timeline> <node>",
		Short: "Change a task node's title, description, milestone flag or progress",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var patch graph.NodePatch
			if flags.Changed(FlagTitle) {
				v, _ := flags.GetString(FlagTitle)
				patch.Title = &v
			}
			if flags.Changed(FlagDescription) {
				v, _ := flags.GetString(FlagDescription)
				patch.Description = &v
			}
			if flags.Changed(FlagMilestone) {
				v, _ := flags.GetBool(FlagMilestone)
				patch.Milestone = &v
			}
			if flags.Changed(FlagProgress) {
				v, _ := flags.GetFloat64(FlagProgress)
				patch.Progress = &v
			}
			return c.onNode(cmd, args[0], args[1], func(b *graph.Board, tl *model.Timeline, n *model.Node) error {
				return b.UpdateNode(tl.ID, n.ID, patch)
			})
		},
	}
	editCmd.Flags().String(FlagTitle, "", "New title")
	editCmd.Flags().String(FlagDescription, "", "New description")
	editCmd.Flags().Bool(FlagMilestone, false, "Milestone flag")
	editCmd.Flags().Float64(FlagProgress, 0, "Current progress of a task with a target")

	nodeCmd.AddCommand(addCmd, doneCmd, skipCmd, reopenCmd, removeCmd, linkCmd, unlinkCmd, editCmd)
	return nodeCmd
}

// nodeSpec builds the content of a new node from the add flags.
func nodeSpec(flags *pflag.FlagSet, title string) (graph.NodeSpec, error) {
	desc, _ := flags.GetString(FlagDescription)
	milestone, _ := flags.GetBool(FlagMilestone)
	target, _ := flags.GetFloat64(FlagTarget)
	unit, _ := flags.GetString(FlagUnit)
	deadlineStr, _ := flags.GetString(FlagDeadline)
	subtasks, _ := flags.GetStringArray(FlagSubtask)

	spec := graph.NodeSpec{
		Title:       title,
		Description: desc,
		Milestone:   milestone,
		SubTasks:    subtasks,
	}
	switch {
	case target > 0 && deadlineStr != "":
		return spec, fmt.Errorf("--%s and --%s are mutually exclusive", FlagTarget, FlagDeadline)
	case target > 0:
		spec.Mode = &model.TaskMode{
			Mode:         model.ModeQuantitative,
			Quantitative: &model.Quantitative{Target: target, Unit: unit},
		}
	case deadlineStr != "":
		deadline, err := parseDate(FlagDeadline, deadlineStr, time.Time{})
		if err != nil {
			return spec, err
		}
		spec.Mode = &model.TaskMode{
			Mode:      model.ModeScheduled,
			Scheduled: &model.Scheduled{Deadline: &deadline},
		}
	}
	return spec, nil
}

// setStatus completes, skips or reopens a task node or recurrence instance.
func (c *cli) setStatus(cmd *cobra.Command, timelineRef, ref string, st model.Status) error {
	a, err := c.app(cmd)
	if err != nil {
		return err
	}
	var summary string
	err = a.mutate(cmd.Context(), func(b *graph.Board) error {
		tl, err := findTimeline(b.Snapshot(), timelineRef)
		if err != nil {
			return err
		}
		if !tl.IsRecurrence() {
			if ref == "next" {
				return fmt.Errorf("%w: name the node to mark %s", model.ErrInvalidOperation, st)
			}
			n, err := findNode(tl, ref)
			if err != nil {
				return err
			}
			summary = fmt.Sprintf("%s: %s", n.Title, st)
			return b.CompleteOrSkip(tl.ID, n.ID, st)
		}

		if ref == "next" {
			inst, err := b.CompleteNext(tl.ID, st)
			if err != nil {
				return err
			}
			summary = fmt.Sprintf("%s %s: %s", inst.ScheduledDate, inst.Title, st)
			return nil
		}
		instanceID := ref
		if day, err := time.Parse(recurrence.DateLayout, ref); err == nil {
			instanceID = recurrence.InstanceID(tl.ID, day)
		}
		title := recurrence.TitleAt(tl, 0)
		if err := b.CompleteOrSkip(tl.ID, instanceID, st); err != nil {
			return err
		}
		_, day, _ := recurrence.ParseInstanceID(instanceID)
		summary = fmt.Sprintf("%s %s: %s", day.Format(recurrence.DateLayout), title, st)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, summary)
	return nil
}

// onNode resolves a timeline and one of its nodes and applies fn under the
// store lock.
func (c *cli) onNode(cmd *cobra.Command, timelineRef, nodeRef string, fn func(b *graph.Board, tl *model.Timeline, n *model.Node) error) error {
	a, err := c.app(cmd)
	if err != nil {
		return err
	}
	return a.mutate(cmd.Context(), func(b *graph.Board) error {
		tl, err := findTimeline(b.Snapshot(), timelineRef)
		if err != nil {
			return err
		}
		n, err := findNode(tl, nodeRef)
		if err != nil {
			return err
		}
		return fn(b, tl, n)
	})
}

// onEdge resolves <timeline> <from> <to> and applies an edge operation.
func (c *cli) onEdge(cmd *cobra.Command, args []string, op func(b *graph.Board, timelineID, from, to string) error) error {
	a, err := c.app(cmd)
	if err != nil {
		return err
	}
	return a.mutate(cmd.Context(), func(b *graph.Board) error {
		tl, err := findTimeline(b.Snapshot(), args[0])
		if err != nil {
			return err
		}
		from, err := findNode(tl, args[1])
		if err != nil {
			return err
		}
		to, err := findNode(tl, args[2])
		if err != nil {
			return err
		}
		return op(b, tl.ID, from.ID, to.ID)
	})
}
