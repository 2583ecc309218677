package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/npratt/okline/internal/graph"
	"github.com/npratt/okline/internal/memo"
	"github.com/npratt/okline/internal/model"
)

// findMemo resolves a memo reference by id or by key.
func findMemo(nodes []model.MemoNode, ref string) (*model.MemoNode, error) {
	if n := memo.Find(nodes, ref); n != nil {
		return n, nil
	}
	var found []*model.MemoNode
	memo.Walk(nodes, true, func(n *model.MemoNode, _ int) {
		if n.Key == ref {
			found = append(found, n)
		}
	})
	switch len(found) {
	case 0:
		return nil, missing("memo", ref)
	case 1:
		return found[0], nil
	default:
		return nil, ambiguous("memo", ref, len(found))
	}
}

func (c *cli) memoCmd() *cobra.Command {
	memoCmd := &cobra.Command{
		Use:   "memo",
		Short: "Edit the free-form memo tree",
	}

	addCmd := &cobra.Command{
		Use:   "add <key> [value]",
		Short: "Add a memo entry and print its id",
		Long: `Add a memo entry at the top level or, with --parent, under an object or
array entry. Array items may use "" as the key. Object and array entries take
no value.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			parentRef, _ := flags.GetString(FlagParent)
			typ, _ := flags.GetString(FlagType)
			e := memo.Entry{Key: args[0], Type: model.MemoType(strings.ToLower(typ))}
			if len(args) == 2 {
				e.Value = args[1]
			}

			a, err := c.app(cmd)
			if err != nil {
				return err
			}
			var added model.MemoNode
			err = a.mutate(cmd.Context(), func(b *graph.Board) error {
				return b.UpdateMemo(func(nodes []model.MemoNode) ([]model.MemoNode, error) {
					parentID := ""
					if parentRef != "" {
						p, err := findMemo(nodes, parentRef)
						if err != nil {
							return nodes, err
						}
						parentID = p.ID
					}
					out, n, err := memo.Add(nodes, parentID, e)
					added = n
					return out, err
				})
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, added.ID)
			return nil
		},
	}
	addCmd.Flags().String(FlagParent, "", "Object or array entry to add under")
	addCmd.Flags().String(FlagType, string(model.MemoString), "Entry type (string/number/boolean/object/array)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the memo tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool(FlagAll)
			a, err := c.app(cmd)
			if err != nil {
				return err
			}
			snap, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if len(snap.Memo) == 0 {
				fmt.Fprintln(a.out, "No memo entries")
				return nil
			}
			memo.Walk(snap.Memo, all, func(n *model.MemoNode, depth int) {
				marker := ""
				if n.Type.IsContainer() && n.IsCollapsed && !all {
					marker = " +"
				}
				key := n.Key
				if key == "" {
					key = "-"
				}
				fmt.Fprintf(a.out, "%s%s: %s%s\n", strings.Repeat("  ", depth), key, memo.Format(n), marker)
			})
			return nil
		},
	}
	listCmd.Flags().Bool(FlagAll, false, "Include children of collapsed entries")

	renameCmd := &cobra.Command{
		Use:   "rename <memo> <key>",
		Short: "Change the key of a memo entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.onMemo(cmd, args[0], func(nodes []model.MemoNode, id string) ([]model.MemoNode, error) {
				return memo.Rename(nodes, id, args[1])
			})
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <memo> <value>",
		Short: "Replace the value of a string, number or boolean entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.onMemo(cmd, args[0], func(nodes []model.MemoNode, id string) ([]model.MemoNode, error) {
				return memo.SetValue(nodes, id, args[1])
			})
		},
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle <memo>",
		Short: "Collapse or expand an object or array entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.onMemo(cmd, args[0], memo.ToggleCollapsed)
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <memo>",
		Short: "Remove a memo entry and its children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.onMemo(cmd, args[0], memo.Remove)
		},
	}

	memoCmd.AddCommand(addCmd, listCmd, renameCmd, setCmd, toggleCmd, removeCmd)
	return memoCmd
}

// onMemo resolves ref and applies fn to the memo tree under the store lock.
func (c *cli) onMemo(cmd *cobra.Command, ref string, fn func(nodes []model.MemoNode, id string) ([]model.MemoNode, error)) error {
	a, err := c.app(cmd)
	if err != nil {
		return err
	}
	return a.mutate(cmd.Context(), func(b *graph.Board) error {
		return b.UpdateMemo(func(nodes []model.MemoNode) ([]model.MemoNode, error) {
			n, err := findMemo(nodes, ref)
			if err != nil {
				return nodes, err
			}
			return fn(nodes, n.ID)
		})
	})
}
