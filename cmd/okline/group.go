package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/npratt/okline/internal/graph"
	"github.com/npratt/okline/internal/model"
)

func (c *cli) groupCmd() *cobra.Command {
	groupCmd := &cobra.Command{
		Use:   "group",
		Short: "Manage timeline groups",
	}

	createCmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a timeline group and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.app(cmd)
			if err != nil {
				return err
			}
			var g model.TimelineGroup
			err = a.mutate(cmd.Context(), func(b *graph.Board) error {
				g, err = b.CreateGroup(args[0])
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, g.ID)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List timeline groups in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.app(cmd)
			if err != nil {
				return err
			}
			snap, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if len(snap.Groups) == 0 {
				fmt.Fprintln(a.out, "No timeline groups")
				return nil
			}
			table := newTable(a.out, "ID", "Title", "Timelines")
			for _, g := range snap.Groups {
				table.Append([]string{g.ID, g.Title, strconv.Itoa(len(g.Timelines))})
			}
			table.Render()
			return nil
		},
	}

	renameCmd := &cobra.Command{
		Use:   "rename <group> <title>",
		Short: "Rename a timeline group",
		Args:  cobra.ExactArgs(2),
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
				return b.RenameGroup(g.ID, args[1])
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <group>",
		Short: "Delete a timeline group and its timelines",
		Args:  cobra.ExactArgs(1),
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
				return b.DeleteGroup(g.ID)
			})
		},
	}

	reorderCmd := &cobra.Command{
		Use:   "reorder <group>...",
		Short: "Reorder timeline groups; every group must be named once",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.app(cmd)
			if err != nil {
				return err
			}
			return a.mutate(cmd.Context(), func(b *graph.Board) error {
				ids := make([]string, 0, len(args))
				for _, ref := range args {
					g, err := findGroup(b.Snapshot(), ref)
					if err != nil {
						return err
					}
					ids = append(ids, g.ID)
				}
				return b.ReorderGroups(ids)
			})
		},
	}

	groupCmd.AddCommand(createCmd, listCmd, renameCmd, deleteCmd, reorderCmd)
	return groupCmd
}
